// Package classifier assigns a procurement document type to each uploaded file.
//
// Classification is a pure function of the text head, the filename and its
// extension, scored against the declarative PatternTable.
package classifier

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/textnorm"
)

// Defaults for the classifier thresholds.
const (
	DefaultDirectThreshold = 0.80
	DefaultReviewThreshold = 0.55
	DefaultShortPenalty    = 0.15
	DefaultShortTextLen    = 300
	DefaultHeadRunes       = 10000
	DefaultTieMargin       = 0.05
)

// Decision names recorded on ClassifiedDocument.Decision.
const (
	DecisionScore        = "score"
	DecisionErratum      = "tie_break:erratum"
	DecisionSpreadsheet  = "tie_break:spreadsheet_extension"
	DecisionMinute       = "tie_break:contract_minute"
	DecisionTechTerms    = "tie_break:technical_terms"
	DecisionDeclared     = "tie_break:declared_order"
	DecisionDispensation = "dispensation_override"
	DecisionFallback     = "fallback"
)

var spreadsheetExt = map[string]bool{
	".xlsx": true,
	".xls":  true,
	".csv":  true,
	".ods":  true,
}

// Classifier scores documents against a PatternTable.
type Classifier struct {
	table *PatternTable

	directThreshold float64
	reviewThreshold float64
	shortPenalty    float64
	shortTextLen    int
	headRunes       int
	tieMargin       float64
}

// Option configures the classifier.
type Option func(*Classifier)

// WithThresholds sets the direct-accept and review thresholds.
func WithThresholds(direct, review float64) Option {
	return func(c *Classifier) {
		if direct > 0 && review > 0 && review <= direct {
			c.directThreshold = direct
			c.reviewThreshold = review
		}
	}
}

// WithShortTextPenalty sets the confidence penalty for texts shorter than minLen runes.
func WithShortTextPenalty(penalty float64, minLen int) Option {
	return func(c *Classifier) {
		if penalty >= 0 && minLen >= 0 {
			c.shortPenalty = penalty
			c.shortTextLen = minLen
		}
	}
}

// WithHeadRunes bounds how much of the text is scored.
func WithHeadRunes(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.headRunes = n
		}
	}
}

// WithTieMargin sets the confidence margin under which tie-break rules apply.
func WithTieMargin(m float64) Option {
	return func(c *Classifier) {
		if m >= 0 {
			c.tieMargin = m
		}
	}
}

// New creates a classifier over table.
func New(table *PatternTable, opts ...Option) *Classifier {
	c := &Classifier{
		table:           table,
		directThreshold: DefaultDirectThreshold,
		reviewThreshold: DefaultReviewThreshold,
		shortPenalty:    DefaultShortPenalty,
		shortTextLen:    DefaultShortTextLen,
		headRunes:       DefaultHeadRunes,
		tieMargin:       DefaultTieMargin,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewDefault creates a classifier over the embedded pattern table.
func NewDefault(opts ...Option) (*Classifier, error) {
	t, err := DefaultTable()
	if err != nil {
		return nil, err
	}
	return New(t, opts...), nil
}

// Classify assigns a type to one document.
func (c *Classifier) Classify(docID, filename, text string) (domain.ClassifiedDocument, error) {
	if c == nil || c.table == nil {
		return domain.ClassifiedDocument{}, fmt.Errorf("classify %s: %w: no pattern table", filename, domain.ErrClassificationFailed)
	}

	body := textnorm.Fold(head(text, c.headRunes))
	fname := textnorm.Fold(filepath.Base(filename))
	ext := strings.ToLower(filepath.Ext(filename))

	result := domain.ClassifiedDocument{
		DocumentID: docID,
		Filename:   filename,
		Scores:     make(map[domain.DocumentType]float64),
		Decision:   DecisionScore,
	}

	scores := c.table.Score(body, fname)
	short := utf8.RuneCountInString(strings.TrimSpace(text)) < c.shortTextLen
	if short {
		result.Flags.LowQuality = true
	}

	anyMatch := false
	for i := range scores {
		if scores[i].Score > 0 {
			anyMatch = true
		}
		if short {
			scores[i].Confidence -= c.shortPenalty
			if scores[i].Confidence < 0 {
				scores[i].Confidence = 0
			}
		}
		result.Scores[scores[i].Type] = scores[i].Confidence
	}

	top := pickTop(scores)
	winner := scores[top]

	if ties := c.nearTies(scores, winner.Confidence); len(ties) > 1 {
		idx, decision := c.breakTie(scores, ties, body, ext)
		winner = scores[idx]
		result.Decision = decision
	}

	confidence := winner.Confidence
	matched := winner.Matched
	disp := c.table.VocabWeight(VocabDispensation, body)
	price := c.table.VocabWeight(VocabPriceJustification, body)
	if disp > 0 && price < disp && winner.Type != domain.TypeCoreNotice {
		// The override carries the displaced winner's confidence so the
		// thresholds below cannot undo it. Scores keeps core-notice's own.
		core := scoreOf(scores, domain.TypeCoreNotice)
		if displaced := scores[top]; displaced.Confidence > core.Confidence {
			confidence = displaced.Confidence
			matched = append(slices.Clone(core.Matched), fmt.Sprintf("%s: confidence of %s (%.2f), %s scored %.2f",
				DecisionDispensation, displaced.Type, displaced.Confidence, core.Type, core.Confidence))
		} else {
			confidence = core.Confidence
			matched = core.Matched
		}
		winner = core
		result.Decision = DecisionDispensation
	}

	result.Type = winner.Type
	result.Confidence = confidence
	result.MatchedPatterns = matched

	switch {
	case confidence >= c.directThreshold:
	case confidence >= c.reviewThreshold:
		result.Flags.NeedsReview = true
	default:
		result.Type = domain.TypeOther
		result.Decision = DecisionFallback
		result.Flags.NeedsReview = anyMatch
	}

	if result.Type == domain.TypeExternalSupplierDoc || c.table.VocabWeight(VocabSupplier, body) > 0 {
		result.Flags.ExternalSupplierDoc = true
	}
	return result, nil
}

// nearTies returns the indexes of types within the tie margin of best.
func (c *Classifier) nearTies(scores []TypeScore, best float64) []int {
	if best <= 0 {
		return nil
	}
	var out []int
	for i, s := range scores {
		if s.Confidence > 0 && best-s.Confidence < c.tieMargin {
			out = append(out, i)
		}
	}
	return out
}

func (c *Classifier) breakTie(scores []TypeScore, ties []int, body, ext string) (int, string) {
	in := func(t domain.DocumentType) (int, bool) {
		for _, i := range ties {
			if scores[i].Type == t {
				return i, true
			}
		}
		return 0, false
	}

	if c.table.VocabWeight(VocabErratum, body) > 0 {
		if i, ok := in(domain.TypeClarifications); ok {
			return i, DecisionErratum
		}
	}
	if spreadsheetExt[ext] {
		if i, ok := in(domain.TypeSpreadsheet); ok {
			return i, DecisionSpreadsheet
		}
	}
	if c.table.VocabWeight(VocabContractMinute, body) > 0 {
		if i, ok := in(domain.TypeContractDraft); ok {
			return i, DecisionMinute
		}
	}
	if c.table.VocabWeight(VocabTechnicalTerms, body) > 0 {
		if i, ok := in(domain.TypeTechnicalTerms); ok {
			return i, DecisionTechTerms
		}
	}
	// ties are collected in declared order.
	return ties[0], DecisionDeclared
}

// pickTop returns the index of the highest confidence; earlier types win ties.
func pickTop(scores []TypeScore) int {
	best := 0
	for i := 1; i < len(scores); i++ {
		if scores[i].Confidence > scores[best].Confidence {
			best = i
		}
	}
	return best
}

func scoreOf(scores []TypeScore, t domain.DocumentType) TypeScore {
	for _, s := range scores {
		if s.Type == t {
			return s
		}
	}
	return TypeScore{Type: t}
}

func head(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
