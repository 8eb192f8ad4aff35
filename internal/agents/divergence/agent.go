// Package divergence implements the divergence-scanning agent: metadata and
// item quantities stated differently across the documents of a batch.
package divergence

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/agents/structure"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

const confidence = 0.8

// compared lists the metadata fields checked per document, with the
// severity of a conflict.
var compared = []struct {
	field    string
	severity domain.Severity
	norm     func(string) string
}{
	{structure.FieldSessionDate, domain.SeverityHigh, normDate},
	{structure.FieldEstimatedValue, domain.SeverityHigh, normMoney},
	{structure.FieldProcessNumber, domain.SeverityMedium, digits},
	{structure.FieldNoticeNumber, domain.SeverityMedium, digits},
}

// FieldItemQuantity prefixes item quantity divergences.
const FieldItemQuantity = "itemQuantity"

// Agent compares documents against each other.
type Agent struct{}

// New creates the agent.
func New() *Agent { return &Agent{} }

// Builder registers the agent with an agents.Registry.
func Builder(agents.Deps) (agents.Agent, error) { return New(), nil }

// ID implements agents.Agent.
func (a *Agent) ID() domain.AgentID { return domain.AgentDivergence }

// Dependencies implements agents.Agent.
func (a *Agent) Dependencies() []domain.AgentID {
	return []domain.AgentID{domain.AgentStructure, domain.AgentItems}
}

type sighting struct {
	key     string
	value   domain.DivergentValue
	docType domain.DocumentType
}

// Run implements agents.Agent.
func (a *Agent) Run(_ context.Context, in agents.Input) (domain.AgentEnvelope, error) {
	res := agents.NewResult(a.ID())
	l := agents.NewLocator(in.Corpus)
	status := domain.StatusOK

	data := domain.DivergenceData{Divergences: []domain.Divergence{}, Compared: []string{}}

	var reference domain.StructureData
	if env, ok := in.Envelope(domain.AgentStructure); ok && env.Usable() {
		reference, _ = env.Data.(domain.StructureData)
	} else {
		res.Alert(agents.InsufficientAlert(domain.ThemeDivergence, domain.AgentStructure, in.Status(domain.AgentStructure)))
		status = domain.StatusPartial
	}

	for _, cmp := range compared {
		field, _ := structure.FieldByName(cmp.field)
		data.Compared = append(data.Compared, cmp.field)

		var seen []sighting
		for _, seg := range in.Corpus.Segments {
			if seg.Type == domain.TypeExternalSupplierDoc {
				continue
			}
			f := field.Find(l, seg.GlobalLineRange, confidence)
			if !f.Found {
				continue
			}
			seen = append(seen, sighting{
				key:     cmp.norm(f.Value),
				value:   domain.DivergentValue{Value: f.Value, Evidence: f.Evidence},
				docType: seg.Type,
			})
		}
		if d, ok := diverge(cmp.field, cmp.severity, seen); ok {
			d.Notes = notes(d, seen, referenceValue(reference, cmp.field))
			data.Divergences = append(data.Divergences, d)
		}
	}

	if env, ok := in.Envelope(domain.AgentItems); ok && env.Usable() {
		data.Compared = append(data.Compared, FieldItemQuantity)
		if items, ok := env.Data.(domain.ItemsData); ok {
			data.Divergences = append(data.Divergences, quantityDivergences(items)...)
		}
	} else {
		res.Alert(agents.InsufficientAlert(domain.ThemeDivergence, domain.AgentItems, in.Status(domain.AgentItems)))
		status = domain.StatusPartial
	}

	for _, d := range data.Divergences {
		evs := make([]domain.Evidence, 0, len(d.Values))
		parts := make([]string, 0, len(d.Values))
		for _, v := range d.Values {
			evs = append(evs, v.Evidence)
			parts = append(parts, fmt.Sprintf("%q (%s)", v.Value, v.Evidence.DocumentName))
		}
		res.Alert(domain.Alert{
			Code:     "divergent_" + strings.SplitN(d.Field, ".", 2)[0],
			Theme:    domain.ThemeDivergence,
			Severity: d.Severity,
			Message:  d.Field + " differs across documents: " + strings.Join(parts, " vs "),
			Evidence: evs,
		})
	}

	conf := confidence
	if status != domain.StatusOK {
		conf = confidence / 2
	}
	in.Log().Infof("divergence: %d conflict(s) over %d field(s)", len(data.Divergences), len(data.Compared))
	return res.Envelope(status, data, len(data.Divergences), conf), nil
}

// diverge keeps one sighting per distinct normalised value. A key that only
// refines a kept one (a date that adds a time) agrees with it and replaces it.
func diverge(field string, sev domain.Severity, seen []sighting) (domain.Divergence, bool) {
	d := domain.Divergence{Field: field, Severity: sev}
	var keys []string
	for _, s := range seen {
		if s.key == "" {
			continue
		}
		j := slices.IndexFunc(keys, func(k string) bool { return sameKey(k, s.key) })
		switch {
		case j < 0:
			keys = append(keys, s.key)
			d.Values = append(d.Values, s.value)
		case len(s.key) > len(keys[j]):
			keys[j] = s.key
			d.Values[j] = s.value
		}
	}
	return d, len(d.Values) > 1
}

// sameKey reports whether two normalised values agree. A key agrees with
// any key extending it by a space-separated suffix, so "2025-03-10" agrees
// with "2025-03-10 09:00" while two different times still conflict.
func sameKey(a, b string) bool {
	return a == b || strings.HasPrefix(a, b+" ") || strings.HasPrefix(b, a+" ")
}

func notes(d domain.Divergence, seen []sighting, reference string) string {
	var out []string
	for _, s := range seen {
		if s.docType == domain.TypeClarifications {
			out = append(out, fmt.Sprintf("%s is stated by a clarification (%s) and may supersede the notice", s.value.Value, s.value.Evidence.DocumentName))
			break
		}
	}
	if reference != "" {
		out = append(out, "structure mapping reported "+reference)
	}
	return strings.Join(out, "; ")
}

func referenceValue(s domain.StructureData, field string) string {
	var f domain.Finding[string]
	switch field {
	case structure.FieldSessionDate:
		f = s.SessionDate
	case structure.FieldEstimatedValue:
		f = s.EstimatedValue
	case structure.FieldProcessNumber:
		f = s.ProcessNumber
	case structure.FieldNoticeNumber:
		f = s.NoticeNumber
	}
	if !f.Found {
		return ""
	}
	return f.Value
}

func quantityDivergences(items domain.ItemsData) []domain.Divergence {
	var out []domain.Divergence
	for _, it := range items.Items {
		var values []domain.DivergentValue
		var first float64
		differs := false
		for _, occ := range it.Occurrences {
			if !occ.Quantity.Found {
				continue
			}
			if len(values) == 0 {
				first = occ.Quantity.Value
			} else if math.Abs(occ.Quantity.Value-first) > 1e-9 {
				differs = true
			}
			values = append(values, domain.DivergentValue{
				Value:    occ.Quantity.Evidence.LiteralExcerpt,
				Evidence: occ.Quantity.Evidence,
			})
		}
		if !differs {
			continue
		}
		field := FieldItemQuantity + "." + it.Number.Value
		if it.Lot != "" {
			field = FieldItemQuantity + ".lot" + it.Lot + "." + it.Number.Value
		}
		out = append(out, domain.Divergence{Field: field, Severity: domain.SeverityMedium, Values: values})
	}
	return out
}

var (
	nonDigit = regexp.MustCompile(`\D`)
	timeRe   = regexp.MustCompile(`(\d{1,2})\s*[:h]\s*(\d{2})`)
)

func digits(s string) string {
	return nonDigit.ReplaceAllString(s, "")
}

// normDate renders a date (and time, if any) as yyyy-mm-dd hh:mm.
func normDate(s string) string {
	t, ok := structure.ParseDate(s)
	if !ok {
		return digits(s)
	}
	out := t.Format("2006-01-02")
	if m := timeRe.FindStringSubmatch(s); m != nil {
		h, _ := strconv.Atoi(m[1])
		out += fmt.Sprintf(" %02d:%s", h, m[2])
	}
	return out
}

func normMoney(s string) string {
	v, ok := agents.ParseNumber(s)
	if !ok {
		return digits(s)
	}
	return fmt.Sprintf("%.2f", v)
}
