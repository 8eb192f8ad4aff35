// Package items implements the item-classification agent: line items read
// from tables and numbered rows, merged across documents.
package items

import (
	"context"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/pipeline/indexer"
	"github.com/custodia-labs/licita-cli/internal/textnorm"
)

const (
	confidenceTable = 0.85
	confidenceShape = 0.7

	// minSimilarity is the description token overlap under which two rows
	// with the same number are kept as different items.
	minSimilarity = 0.3
)

// Item categories.
const (
	CategoryMaterial = "material"
	CategoryService  = "service"
	CategoryUnknown  = "unknown"
)

// Agent extracts line items.
type Agent struct{}

// New creates the agent.
func New() *Agent { return &Agent{} }

// Builder registers the agent with an agents.Registry.
func Builder(agents.Deps) (agents.Agent, error) { return New(), nil }

// ID implements agents.Agent.
func (a *Agent) ID() domain.AgentID { return domain.AgentItems }

// Dependencies implements agents.Agent.
func (a *Agent) Dependencies() []domain.AgentID { return nil }

type sighting struct {
	lot  string
	item domain.LineItem
	occ  domain.ItemOccurrence
	toks map[string]bool
}

// Run implements agents.Agent.
func (a *Agent) Run(_ context.Context, in agents.Input) (domain.AgentEnvelope, error) {
	res := agents.NewResult(a.ID())
	l := agents.NewLocator(in.Corpus)

	var sightings []sighting
	for _, seg := range in.Corpus.Segments {
		sightings = append(sightings, scanSegment(l, seg)...)
	}
	merged := merge(sightings)

	data := domain.ItemsData{Items: merged}
	withQty := 0
	for _, it := range merged {
		res.Cite(it.Number.Evidence, it.Description.Evidence, it.Quantity.Evidence, it.UnitPrice.Evidence)
		if it.Quantity.Found {
			withQty++
			if it.UnitPrice.Found {
				data.EstimatedTotal += it.Quantity.Value * it.UnitPrice.Value
				data.PricedItems++
			}
		} else {
			res.Alert(domain.Alert{
				Code:     "item_without_quantity",
				Theme:    domain.ThemeItems,
				Severity: domain.SeverityMedium,
				Message:  "item " + it.Number.Value + " has no stated quantity",
				Evidence: []domain.Evidence{it.Description.Evidence},
			})
		}
	}
	if data.Items == nil {
		data.Items = []domain.LineItem{}
	}

	status := domain.StatusOK
	confidence := 0.0
	if len(merged) == 0 {
		res.Missing("items")
		status = domain.StatusPartial
	} else {
		confidence = float64(withQty) / float64(len(merged))
	}
	in.Log().Infof("items: %d item(s), %d priced", len(merged), data.PricedItems)
	return res.Envelope(status, data, len(merged), confidence), nil
}

func scanSegment(l *agents.Locator, seg domain.Segment) []sighting {
	var out []sighting
	lot := ""
	for n := seg.GlobalLineRange.Start; n <= seg.GlobalLineRange.End; n++ {
		folded := l.Folded(n)
		if m := lotRe.FindStringSubmatch(folded); m != nil {
			lot = m[1]
			continue
		}
		text := l.Text(n)
		if r, ok := parseCells(text); ok {
			out = append(out, build(l, seg, lot, n, r, confidenceTable))
			continue
		}
		if ms := l.MatchLine(shapeRe, n); len(ms) > 0 {
			m := ms[0]
			// Plain numbered prose also has the shape; require a unit,
			// a price, or a detected table.
			_, _, hasUnit := m.GroupRange(4)
			_, _, hasPrice := m.GroupRange(5)
			if !hasUnit && !hasPrice && !(inTable(seg, n) && indexer.IsTableLine(text)) {
				continue
			}
			out = append(out, build(l, seg, lot, n, shapeRow(m), confidenceShape))
		}
	}
	return out
}

func shapeRow(m agents.Match) row {
	g := func(i int) span {
		s, e, ok := m.GroupRange(i)
		if !ok {
			return span{}
		}
		return span{s, e}
	}
	return row{number: g(1), description: g(2), quantity: g(3), unit: g(4), price: g(5)}
}

func inTable(seg domain.Segment, n int) bool {
	for _, t := range seg.Structures.Tables {
		if t.Lines.Contains(n) {
			return true
		}
	}
	return false
}

func build(l *agents.Locator, seg domain.Segment, lot string, n int, r row, conf float64) sighting {
	text := l.Text(n)
	str := func(field string, s span) domain.Finding[string] {
		if !s.ok() {
			return domain.NotFound[string](field)
		}
		s.start, s.end = trim(text, s.start, s.end)
		return domain.Found(text[s.start:s.end], l.SpanEvidence(field, n, s.start, s.end, conf))
	}
	num := func(field string, s span) domain.Finding[float64] {
		f := str(field, s)
		if !f.Found {
			return domain.NotFound[float64](field)
		}
		v, ok := agents.ParseNumber(f.Value)
		if !ok {
			return domain.NotFound[float64](field)
		}
		return domain.Found(v, f.Evidence)
	}

	it := domain.LineItem{
		Lot:         lot,
		Number:      str("itemNumber", r.number),
		Description: str("description", r.description),
		Unit:        str("unit", r.unit),
		Quantity:    num("quantity", r.quantity),
		UnitPrice:   num("unitPrice", r.price),
	}
	it.Category = category(it)
	occ := domain.ItemOccurrence{
		DocumentID:   seg.DocumentID,
		DocumentName: seg.Filename,
		Quantity:     it.Quantity,
		UnitPrice:    it.UnitPrice,
	}
	return sighting{lot: lot, item: it, occ: occ, toks: tokenSet(it.Description.Value)}
}

func trim(text string, s, e int) (int, int) {
	for s < e && (text[s] == ' ' || text[s] == '\t') {
		s++
	}
	for e > s && strings.ContainsRune(" \t.;:", rune(text[e-1])) {
		e--
	}
	return s, e
}

func category(it domain.LineItem) string {
	desc := textnorm.Fold(it.Description.Value)
	unit := strings.TrimSuffix(textnorm.Fold(it.Unit.Value), ".")
	switch {
	case serviceRe.MatchString(desc) || (it.Unit.Found && serviceUnitRe.MatchString(unit)):
		return CategoryService
	case it.Unit.Found:
		return CategoryMaterial
	default:
		return CategoryUnknown
	}
}

// merge folds sightings of the same item (same lot and number, similar
// description) into one LineItem with one occurrence per sighting.
func merge(sightings []sighting) []domain.LineItem {
	var out []domain.LineItem
	var keys []sighting
	for _, s := range sightings {
		idx := -1
		for i, k := range keys {
			if sameLot(k.lot, s.lot) && k.item.Number.Value == s.item.Number.Value && jaccard(k.toks, s.toks) >= minSimilarity {
				idx = i
				break
			}
		}
		if idx < 0 {
			it := s.item
			it.Occurrences = []domain.ItemOccurrence{s.occ}
			out = append(out, it)
			keys = append(keys, s)
			continue
		}
		it := &out[idx]
		it.Occurrences = append(it.Occurrences, s.occ)
		if !it.Quantity.Found && s.item.Quantity.Found {
			it.Quantity = s.item.Quantity
		}
		if !it.UnitPrice.Found && s.item.UnitPrice.Found {
			it.UnitPrice = s.item.UnitPrice
		}
		if !it.Unit.Found && s.item.Unit.Found {
			it.Unit = s.item.Unit
			it.Category = category(*it)
		}
	}
	return out
}

// sameLot treats an unknown lot as compatible with any lot: price research
// usually lists items without the lot headings of the notice.
func sameLot(a, b string) bool {
	return a == b || a == "" || b == ""
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, t := range textnorm.Tokens(s) {
		if len(t) > 2 {
			set[t] = true
		}
	}
	return set
}

func jaccard(a, b map[string]bool) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	inter := 0
	for t := range a {
		if b[t] {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	if union == 0 {
		return 0
	}
	return float64(inter) / float64(union)
}
