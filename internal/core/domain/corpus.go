package domain

import (
	"strconv"
	"strings"
	"time"
)

// LineRange is an inclusive range of line numbers.
type LineRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the number of lines in the range.
func (r LineRange) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Contains reports whether n falls within the range.
func (r LineRange) Contains(n int) bool {
	return n >= r.Start && n <= r.End
}

// CharRange is a half-open byte range [Start, End) into the corpus full text.
type CharRange struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// StructureRange marks a detected structural element.
type StructureRange struct {
	// Label is the heading text (trimmed) that opened the element.
	Label string    `json:"label"`
	Lines LineRange `json:"lines"`
}

// Structures groups the hierarchy and tables detected in a document.
type Structures struct {
	Chapters []StructureRange `json:"chapters"`
	Sections []StructureRange `json:"sections"`
	Articles []StructureRange `json:"articles"`
	Items    []StructureRange `json:"items"`
	Tables   []StructureRange `json:"tables"`
}

// Shift returns a copy with every line range moved by offset.
func (s Structures) Shift(offset int) Structures {
	shift := func(in []StructureRange) []StructureRange {
		if len(in) == 0 {
			return nil
		}
		out := make([]StructureRange, len(in))
		for i, r := range in {
			out[i] = StructureRange{
				Label: r.Label,
				Lines: LineRange{Start: r.Lines.Start + offset, End: r.Lines.End + offset},
			}
		}
		return out
	}
	return Structures{
		Chapters: shift(s.Chapters),
		Sections: shift(s.Sections),
		Articles: shift(s.Articles),
		Items:    shift(s.Items),
		Tables:   shift(s.Tables),
	}
}

// GlobalLine is one line of the canonical corpus.
//
// Invariants: LineNumber is 1-indexed and contiguous, CharStart <= CharEnd,
// and the next line's CharStart equals this line's CharEnd + 1 (the newline).
type GlobalLine struct {
	LineNumber      int    `json:"lineNumber"`
	Text            string `json:"text"`
	CharStart       int    `json:"charStart"`
	CharEnd         int    `json:"charEnd"`
	SourceDocID     string `json:"sourceDocId"`
	SourcePage      int    `json:"sourcePage"`
	LocalLineInPage int    `json:"localLineInPage"`
}

// LineLocation resolves a global line number back to its origin.
type LineLocation struct {
	DocumentID      string `json:"documentId"`
	DocumentName    string `json:"documentName"`
	SegmentIndex    int    `json:"segmentIndex"`
	Page            int    `json:"page"`
	LocalLineInPage int    `json:"localLineInPage"`
	CharStart       int    `json:"charStart"`
	CharEnd         int    `json:"charEnd"`
}

// Segment is the contiguous block of the corpus contributed by one document.
type Segment struct {
	DocumentID      string       `json:"documentId"`
	Filename        string       `json:"filename"`
	Type            DocumentType `json:"type"`
	Priority        int          `json:"priority"`
	SegmentHash     string       `json:"segmentHash"`
	OCRQualityAvg   float64      `json:"ocrQualityAvg"`
	SourcePages     []int        `json:"sourcePages"`
	GlobalLineRange LineRange    `json:"globalLineRange"`
	CharRange       CharRange    `json:"charRange"`
	Structures      Structures   `json:"structures"`
}

// RemovedDocument records a document discarded as a duplicate.
type RemovedDocument struct {
	DocumentID     string  `json:"documentId"`
	Filename       string  `json:"filename"`
	KeptDocumentID string  `json:"keptDocumentId"`
	KeptFilename   string  `json:"keptFilename"`
	Similarity     float64 `json:"similarity"`
	Reason         string  `json:"reason"`
}

// CorpusMetadata carries batch-level roll-ups.
type CorpusMetadata struct {
	TotalDocuments    int               `json:"totalDocuments"`
	TotalLines        int               `json:"totalLines"`
	OCRQualityGlobal  float64           `json:"ocrQualityGlobal"`
	OCRQualityMin     float64           `json:"ocrQualityMin"`
	OCRQualityMax     float64           `json:"ocrQualityMax"`
	DuplicatesRemoved []RemovedDocument `json:"duplicatesRemoved"`
	WarningFlags      []string          `json:"warningFlags"`
	ErrorFlags        []string          `json:"errorFlags"`
}

// HasFlag reports whether a warning flag is set.
func (m CorpusMetadata) HasFlag(flag string) bool {
	for _, f := range m.WarningFlags {
		if f == flag {
			return true
		}
	}
	return false
}

// Corpus warning flags. Per-document flags are written as "<flag>:<filename>".
const (
	FlagLowOCRQuality       = "low_ocr_quality"
	FlagExtractionFailed    = "extraction_failed"
	FlagNeedsReview         = "needs_review"
	FlagExternalSupplierDoc = "external_supplier_doc"
)

// CanonicalCorpus is the fused, globally addressed text of a batch.
// It is read-only once fusion and validation are complete.
type CanonicalCorpus struct {
	LoteID      string                  `json:"loteId"`
	FullText    string                  `json:"fullText"`
	GlobalLines []GlobalLine            `json:"globalLines"`
	Segments    []Segment               `json:"segments"`
	LineMap     map[string]LineLocation `json:"lineMap"`
	Metadata    CorpusMetadata          `json:"metadata"`
	CreatedAt   time.Time               `json:"createdAt"`
}

// LineKey returns the lineMap key for a line number.
func LineKey(n int) string {
	return strconv.Itoa(n)
}

// Line returns the global line with the given 1-based number.
func (c *CanonicalCorpus) Line(n int) (GlobalLine, bool) {
	if c == nil || n < 1 || n > len(c.GlobalLines) {
		return GlobalLine{}, false
	}
	return c.GlobalLines[n-1], true
}

// Locate resolves a line number through the lineMap.
func (c *CanonicalCorpus) Locate(n int) (LineLocation, bool) {
	if c == nil {
		return LineLocation{}, false
	}
	loc, ok := c.LineMap[LineKey(n)]
	return loc, ok
}

// SegmentFor returns the segment containing line n.
func (c *CanonicalCorpus) SegmentFor(n int) (*Segment, bool) {
	loc, ok := c.Locate(n)
	if !ok || loc.SegmentIndex < 0 || loc.SegmentIndex >= len(c.Segments) {
		return nil, false
	}
	return &c.Segments[loc.SegmentIndex], true
}

// SegmentsOfType returns the segments classified as t, in corpus order.
func (c *CanonicalCorpus) SegmentsOfType(t DocumentType) []Segment {
	var out []Segment
	for _, s := range c.Segments {
		if s.Type == t {
			out = append(out, s)
		}
	}
	return out
}

// ContainsExcerpt reports whether ev cites text that really is in the corpus.
// A NO DATA FOUND evidence is always accepted. When a char range is given,
// the excerpt must sit exactly at that range.
func (c *CanonicalCorpus) ContainsExcerpt(ev Evidence) bool {
	if ev.IsNoData() {
		return true
	}
	if c == nil || ev.LiteralExcerpt == "" {
		return false
	}
	if ev.CharRange.End > ev.CharRange.Start {
		if ev.CharRange.Start < 0 || ev.CharRange.End > len(c.FullText) {
			return false
		}
		return c.FullText[ev.CharRange.Start:ev.CharRange.End] == ev.LiteralExcerpt
	}
	return strings.Contains(c.FullText, ev.LiteralExcerpt)
}
