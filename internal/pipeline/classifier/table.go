package classifier

import (
	_ "embed"
	"fmt"
	"regexp"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/textnorm"
)

//go:embed patterns.yaml
var defaultPatterns []byte

// Pattern scopes.
const (
	ScopeBody     = "body"
	ScopeFilename = "filename"
)

// Vocabulary names used by the override and tie-break rules.
const (
	VocabErratum            = "erratum"
	VocabDispensation       = "dispensation"
	VocabPriceJustification = "price_justification"
	VocabContractMinute     = "contract_minute"
	VocabTechnicalTerms     = "technical_terms"
	VocabSupplier           = "supplier"
)

const defaultMaxScore = 10

type patternSpec struct {
	Pattern string  `yaml:"pattern"`
	Weight  float64 `yaml:"weight"`
	Scope   string  `yaml:"scope"`
}

type typeSpec struct {
	Type     string        `yaml:"type"`
	MaxScore float64       `yaml:"max_score"`
	Patterns []patternSpec `yaml:"patterns"`
}

type tableSpec struct {
	Types []typeSpec               `yaml:"types"`
	Vocab map[string][]patternSpec `yaml:"vocab"`
}

type pattern struct {
	source string
	re     *regexp.Regexp
	weight float64
	scope  string
}

type typeRule struct {
	docType  domain.DocumentType
	maxScore float64
	patterns []pattern
}

// PatternTable is the immutable, compiled classification table.
type PatternTable struct {
	rules []typeRule
	vocab map[string][]pattern
}

// TypeScore is the raw result of scoring one type.
type TypeScore struct {
	Type       domain.DocumentType
	Score      float64
	Confidence float64
	Matched    []string
}

// ParseTable compiles a YAML pattern table.
func ParseTable(data []byte) (*PatternTable, error) {
	var spec tableSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse pattern table: %w", err)
	}
	if len(spec.Types) == 0 {
		return nil, fmt.Errorf("pattern table: %w: no types", domain.ErrInvalidInput)
	}

	t := &PatternTable{vocab: make(map[string][]pattern)}
	seen := make(map[domain.DocumentType]bool)
	for _, ts := range spec.Types {
		dt := domain.DocumentType(ts.Type)
		if !dt.IsValid() {
			return nil, fmt.Errorf("pattern table: %w: unknown type %q", domain.ErrInvalidInput, ts.Type)
		}
		if seen[dt] {
			return nil, fmt.Errorf("pattern table: %w: duplicate type %q", domain.ErrInvalidInput, ts.Type)
		}
		seen[dt] = true

		ps, err := compile(ts.Patterns)
		if err != nil {
			return nil, fmt.Errorf("pattern table: type %s: %w", ts.Type, err)
		}
		maxScore := ts.MaxScore
		if maxScore <= 0 {
			maxScore = defaultMaxScore
		}
		t.rules = append(t.rules, typeRule{docType: dt, maxScore: maxScore, patterns: ps})
	}

	for name, specs := range spec.Vocab {
		ps, err := compile(specs)
		if err != nil {
			return nil, fmt.Errorf("pattern table: vocab %s: %w", name, err)
		}
		t.vocab[name] = ps
	}
	return t, nil
}

func compile(specs []patternSpec) ([]pattern, error) {
	out := make([]pattern, 0, len(specs))
	for _, s := range specs {
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("compile %q: %w", s.Pattern, err)
		}
		scope := s.Scope
		if scope == "" {
			scope = ScopeBody
		}
		if scope != ScopeBody && scope != ScopeFilename {
			return nil, fmt.Errorf("pattern %q: %w: scope %q", s.Pattern, domain.ErrInvalidInput, scope)
		}
		if s.Weight < 0 {
			return nil, fmt.Errorf("pattern %q: %w: negative weight", s.Pattern, domain.ErrInvalidInput)
		}
		out = append(out, pattern{source: s.Pattern, re: re, weight: s.Weight, scope: scope})
	}
	return out, nil
}

var (
	defaultOnce  sync.Once
	defaultTable *PatternTable
	defaultErr   error
)

// DefaultTable returns the embedded pattern table, compiled once.
func DefaultTable() (*PatternTable, error) {
	defaultOnce.Do(func() {
		defaultTable, defaultErr = ParseTable(defaultPatterns)
	})
	return defaultTable, defaultErr
}

// Types returns the table's types in declared order.
func (t *PatternTable) Types() []domain.DocumentType {
	out := make([]domain.DocumentType, len(t.rules))
	for i, r := range t.rules {
		out[i] = r.docType
	}
	return out
}

// Score scores every type against already folded text and filename.
// Results are in the table's declared order.
func (t *PatternTable) Score(foldedText, foldedFilename string) []TypeScore {
	out := make([]TypeScore, 0, len(t.rules))
	for _, r := range t.rules {
		ts := TypeScore{Type: r.docType}
		for _, p := range r.patterns {
			if p.matches(foldedText, foldedFilename) {
				ts.Score += p.weight
				ts.Matched = append(ts.Matched, p.scope+":"+p.source)
			}
		}
		ts.Confidence = ts.Score / r.maxScore
		if ts.Confidence > 1 {
			ts.Confidence = 1
		}
		out = append(out, ts)
	}
	return out
}

// ScoreRaw folds text and filename before scoring.
func (t *PatternTable) ScoreRaw(text, filename string) []TypeScore {
	return t.Score(textnorm.Fold(text), textnorm.Fold(filename))
}

// VocabWeight sums the weights of a vocabulary's patterns that match the folded body.
func (t *PatternTable) VocabWeight(name, foldedText string) float64 {
	var w float64
	for _, p := range t.vocab[name] {
		if p.re.MatchString(foldedText) {
			w += p.weight
		}
	}
	return w
}

func (p pattern) matches(body, filename string) bool {
	if p.scope == ScopeFilename {
		return p.re.MatchString(filename)
	}
	return p.re.MatchString(body)
}
