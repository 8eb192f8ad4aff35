// Package structure implements the structure-mapping agent: process
// metadata and the section map of the corpus.
package structure

import (
	"context"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

const (
	confidencePrimary   = 0.9
	confidenceSecondary = 0.75
	confidenceOracle    = 0.6

	defaultOracleContext = 12000
)

var directAward = regexp.MustCompile(`dispensa|inexigibilidade`)

// essential fields are reported as missing sections when absent.
var essential = []string{FieldObject, FieldModality, FieldSessionDate}

// Agent maps process metadata and sections.
type Agent struct {
	oracle     driven.ExtractionOracle
	contextMax int
	now        func() time.Time
}

// New creates the agent. The oracle may be nil.
func New(deps agents.Deps) *Agent {
	n := deps.OracleContextBytes
	if n <= 0 {
		n = defaultOracleContext
	}
	return &Agent{oracle: deps.Oracle, contextMax: n, now: time.Now}
}

// Builder registers the agent with an agents.Registry.
func Builder(deps agents.Deps) (agents.Agent, error) {
	return New(deps), nil
}

// ID implements agents.Agent.
func (a *Agent) ID() domain.AgentID { return domain.AgentStructure }

// Dependencies implements agents.Agent.
func (a *Agent) Dependencies() []domain.AgentID { return nil }

// Run implements agents.Agent.
func (a *Agent) Run(ctx context.Context, in agents.Input) (domain.AgentEnvelope, error) {
	res := agents.NewResult(a.ID())
	l := agents.NewLocator(in.Corpus)
	log := in.Log()

	primary := l.SegmentScopes(domain.TypeCoreNotice)
	if len(primary) == 0 {
		res.Missing(string(domain.TypeCoreNotice))
	}

	found := make(map[string]domain.Finding[string], len(Fields))
	for _, f := range Fields {
		v := domain.NotFound[string](f.Name)
		for _, scope := range primary {
			if v = f.Find(l, scope, confidencePrimary); v.Found {
				break
			}
		}
		if !v.Found {
			v = f.Find(l, domain.LineRange{}, confidenceSecondary)
		}
		found[f.Name] = v
	}

	if a.oracle != nil {
		a.askOracle(ctx, l, primary, found, log)
	}

	data := domain.StructureData{
		ProcessNumber:     found[FieldProcessNumber],
		NoticeNumber:      found[FieldNoticeNumber],
		Modality:          found[FieldModality],
		Agency:            found[FieldAgency],
		Object:            found[FieldObject],
		JudgmentCriterion: found[FieldJudgmentCriterion],
		SessionDate:       found[FieldSessionDate],
		EstimatedValue:    found[FieldEstimatedValue],
		Sections:          sections(in.Corpus),
		Documents:         Documents(in.Corpus),
	}

	hits := 0
	for _, f := range Fields {
		v := found[f.Name]
		if v.Found {
			hits++
			res.Cite(v.Evidence)
		}
	}
	for _, name := range essential {
		if !found[name].Found {
			res.Missing(name)
		}
	}
	a.alerts(res, in.Corpus, data)

	status := domain.StatusOK
	if hits == 0 {
		status = domain.StatusPartial
	}
	log.Infof("structure: %d/%d metadata fields located", hits, len(Fields))
	return res.Envelope(status, data, hits, float64(hits)/float64(len(Fields))), nil
}

// askOracle fills fields the patterns missed. Answers are kept only when
// they occur verbatim in the corpus.
func (a *Agent) askOracle(ctx context.Context, l *agents.Locator, primary []domain.LineRange, found map[string]domain.Finding[string], log domain.LogSink) {
	req := driven.OracleRequest{Log: log}
	for _, f := range Fields {
		if !found[f.Name].Found {
			req.Fields = append(req.Fields, driven.OracleField{Name: f.Name, Description: f.Description})
		}
	}
	if len(req.Fields) == 0 {
		return
	}
	req.Context = a.oracleContext(l, primary)
	if req.Context == "" {
		return
	}

	answers, err := a.oracle.Structure(ctx, req)
	if err != nil {
		log.Warnf("structure: oracle unavailable: %v", err)
		return
	}
	for _, f := range req.Fields {
		value, ok := answers[f.Name]
		if !ok || value == domain.NoDataFound {
			continue
		}
		ev, ok := l.Verbatim(f.Name, value, confidenceOracle)
		if !ok {
			log.Debugf("structure: oracle value for %s is not verbatim corpus text, discarded", f.Name)
			continue
		}
		ev.Notes = "located from oracle answer"
		found[f.Name] = domain.Found(strings.TrimSpace(value), ev)
	}
}

func (a *Agent) oracleContext(l *agents.Locator, primary []domain.LineRange) string {
	c := l.Corpus()
	if len(c.GlobalLines) == 0 {
		return ""
	}
	start, end := 0, len(c.FullText)
	if len(primary) > 0 {
		first, _ := c.Line(primary[0].Start)
		last, _ := c.Line(primary[0].End)
		start, end = first.CharStart, last.CharEnd
	}
	if end-start > a.contextMax {
		end = start + a.contextMax
		for end > start && !utf8.RuneStart(c.FullText[end]) {
			end--
		}
	}
	return c.FullText[start:end]
}

func (a *Agent) alerts(res *agents.Result, c *domain.CanonicalCorpus, data domain.StructureData) {
	if data.Modality.Found && directAward.MatchString(strings.ToLower(data.Modality.Value)) {
		res.Alert(domain.Alert{
			Code:     "direct_award",
			Theme:    domain.ThemeMetadata,
			Severity: domain.SeverityLow,
			Message:  "contracting without competitive bidding: " + data.Modality.Value,
			Evidence: []domain.Evidence{data.Modality.Evidence},
		})
	}
	if data.SessionDate.Found {
		if when, ok := ParseDate(data.SessionDate.Value); ok {
			ref := c.CreatedAt
			if ref.IsZero() {
				ref = a.now()
			}
			if when.Before(ref.Truncate(24 * time.Hour)) {
				res.Alert(domain.Alert{
					Code:     "session_date_passed",
					Theme:    domain.ThemeMetadata,
					Severity: domain.SeverityHigh,
					Message:  "the public session date " + data.SessionDate.Value + " is already past",
					Evidence: []domain.Evidence{data.SessionDate.Evidence},
				})
			}
		}
	}
}

var dateRe = regexp.MustCompile(`(\d{1,2})/(\d{1,2})/(\d{4})`)

// ParseDate reads the first dd/mm/yyyy date in s.
func ParseDate(s string) (time.Time, bool) {
	m := dateRe.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	t, err := time.Parse("2/1/2006", m[1]+"/"+m[2]+"/"+m[3])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func sections(c *domain.CanonicalCorpus) []domain.SectionRef {
	out := []domain.SectionRef{}
	for _, s := range c.Segments {
		for _, ch := range s.Structures.Chapters {
			out = append(out, domain.SectionRef{Kind: "chapter", Title: ch.Label, DocumentName: s.Filename, Lines: ch.Lines})
		}
		for _, sec := range s.Structures.Sections {
			out = append(out, domain.SectionRef{Kind: "section", Title: sec.Label, DocumentName: s.Filename, Lines: sec.Lines})
		}
	}
	return out
}

// Documents summarises the corpus segments.
func Documents(c *domain.CanonicalCorpus) []domain.DocumentSummary {
	out := make([]domain.DocumentSummary, 0, len(c.Segments))
	for _, s := range c.Segments {
		out = append(out, domain.DocumentSummary{
			DocumentID: s.DocumentID,
			Filename:   s.Filename,
			Type:       s.Type,
			Lines:      s.GlobalLineRange,
			Pages:      len(s.SourcePages),
			OCRQuality: s.OCRQualityAvg,
		})
	}
	return out
}
