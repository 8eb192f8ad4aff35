// Package validator structurally checks a canonical corpus before any agent may read it.
package validator

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// DefaultOCRFloor is the global OCR quality under which validation warns.
const DefaultOCRFloor = 50.0

// maxLineErrors bounds per-line error reporting on badly broken corpora.
const maxLineErrors = 20

// Options configures validation.
type Options struct {
	OCRFloor float64
}

// DefaultOptions returns the default validation options.
func DefaultOptions() Options {
	return Options{OCRFloor: DefaultOCRFloor}
}

type report struct {
	warnings []string
	errors   []string
	flags    []string
	lineErrs int
}

func (r *report) errorf(format string, args ...any) {
	r.errors = append(r.errors, fmt.Sprintf(format, args...))
}

func (r *report) lineErrorf(format string, args ...any) {
	r.lineErrs++
	if r.lineErrs <= maxLineErrors {
		r.errorf(format, args...)
	}
}

func (r *report) warnf(format string, args ...any) {
	r.warnings = append(r.warnings, fmt.Sprintf(format, args...))
}

// Validate runs every structural check. Only errors make the corpus invalid;
// a low global OCR quality is a warning and raises the low_ocr_quality flag.
func Validate(c *domain.CanonicalCorpus, opts Options) domain.ValidationResult {
	if opts.OCRFloor <= 0 {
		opts.OCRFloor = DefaultOCRFloor
	}
	r := &report{}

	if c == nil {
		r.errorf("corpus is missing")
		return r.result()
	}

	checkRequired(c, r)
	if len(r.errors) == 0 {
		checkLines(c, r)
		checkLineMap(c, r)
		checkSegments(c, r)
		checkMetadata(c, r)
	}
	if r.lineErrs > maxLineErrors {
		r.errorf("%d further line errors suppressed", r.lineErrs-maxLineErrors)
	}

	if len(c.Segments) > 0 && c.Metadata.OCRQualityGlobal < opts.OCRFloor {
		r.warnf("global OCR quality %.1f is below the floor of %.1f", c.Metadata.OCRQualityGlobal, opts.OCRFloor)
		r.flags = append(r.flags, domain.FlagLowOCRQuality)
	}
	for _, f := range c.Metadata.WarningFlags {
		if name, ok := strings.CutPrefix(f, domain.FlagExtractionFailed+":"); ok {
			r.warnf("text extraction failed for %s; it contributes only NO DATA FOUND", name)
		}
	}
	return r.result()
}

func (r *report) result() domain.ValidationResult {
	res := domain.ValidationResult{
		Valid:    len(r.errors) == 0,
		Warnings: r.warnings,
		Errors:   r.errors,
		Flags:    r.flags,
	}
	if res.Warnings == nil {
		res.Warnings = []string{}
	}
	if res.Errors == nil {
		res.Errors = []string{}
	}
	if res.Flags == nil {
		res.Flags = []string{}
	}
	switch {
	case len(r.errors) > 0:
		res.Status = domain.ValidationError
	case len(r.warnings) > 0:
		res.Status = domain.ValidationWarning
	default:
		res.Status = domain.ValidationSuccess
	}
	return res
}

func checkRequired(c *domain.CanonicalCorpus, r *report) {
	if c.LoteID == "" {
		r.errorf("missing loteId")
	}
	if c.FullText == "" {
		r.errorf("missing fullText")
	}
	if len(c.GlobalLines) == 0 {
		r.errorf("corpus has no lines")
	}
	if len(c.Segments) == 0 {
		r.errorf("corpus has no segments")
	}
	if c.LineMap == nil {
		r.errorf("missing lineMap")
	}
}

func checkLines(c *domain.CanonicalCorpus, r *report) {
	for i, gl := range c.GlobalLines {
		if gl.LineNumber != i+1 {
			r.lineErrorf("line %d: expected number %d (lines must be contiguous)", gl.LineNumber, i+1)
		}
		if gl.CharStart > gl.CharEnd {
			r.lineErrorf("line %d: charStart %d > charEnd %d", gl.LineNumber, gl.CharStart, gl.CharEnd)
			continue
		}
		if i > 0 && gl.CharStart != c.GlobalLines[i-1].CharEnd+1 {
			r.lineErrorf("line %d: charStart %d does not follow previous charEnd %d", gl.LineNumber, gl.CharStart, c.GlobalLines[i-1].CharEnd)
		}
		if gl.CharStart < 0 || gl.CharEnd > len(c.FullText) || c.FullText[gl.CharStart:gl.CharEnd] != gl.Text {
			r.lineErrorf("line %d: text does not match fullText at [%d,%d)", gl.LineNumber, gl.CharStart, gl.CharEnd)
		}
		if gl.SourceDocID == "" {
			r.lineErrorf("line %d: missing source document", gl.LineNumber)
		}
	}
}

func checkLineMap(c *domain.CanonicalCorpus, r *report) {
	if len(c.LineMap) != len(c.GlobalLines) {
		r.errorf("lineMap has %d entries for %d lines", len(c.LineMap), len(c.GlobalLines))
	}
	for _, gl := range c.GlobalLines {
		loc, ok := c.LineMap[domain.LineKey(gl.LineNumber)]
		if !ok {
			r.lineErrorf("line %d: missing from lineMap", gl.LineNumber)
			continue
		}
		if loc.SegmentIndex < 0 || loc.SegmentIndex >= len(c.Segments) {
			r.lineErrorf("line %d: lineMap points at unknown segment %d", gl.LineNumber, loc.SegmentIndex)
			continue
		}
		seg := c.Segments[loc.SegmentIndex]
		if !seg.GlobalLineRange.Contains(gl.LineNumber) || seg.DocumentID != gl.SourceDocID || loc.DocumentID != gl.SourceDocID {
			r.lineErrorf("line %d: lineMap entry does not resolve to its segment", gl.LineNumber)
		}
	}
}

func checkSegments(c *domain.CanonicalCorpus, r *report) {
	next := 1
	prevPriority := 0
	for i, s := range c.Segments {
		name := s.Filename
		if name == "" {
			name = s.DocumentID
		}
		if s.SegmentHash == "" {
			r.errorf("segment %d (%s): missing hash", i, name)
		}
		if s.OCRQualityAvg < 0 || s.OCRQualityAvg > 100 {
			r.errorf("segment %d (%s): OCR quality %.1f outside [0,100]", i, name, s.OCRQualityAvg)
		}
		if s.GlobalLineRange.Len() == 0 {
			r.errorf("segment %d (%s): degenerate line range %d-%d", i, name, s.GlobalLineRange.Start, s.GlobalLineRange.End)
			continue
		}
		if s.GlobalLineRange.Start != next {
			r.errorf("segment %d (%s): starts at line %d, expected %d (gap or overlap)", i, name, s.GlobalLineRange.Start, next)
		}
		next = s.GlobalLineRange.End + 1
		if s.Priority < prevPriority {
			r.errorf("segment %d (%s): priority %d after %d", i, name, s.Priority, prevPriority)
		}
		prevPriority = s.Priority
	}
	if next != len(c.GlobalLines)+1 {
		r.errorf("segments cover lines 1-%d but corpus has %d lines", next-1, len(c.GlobalLines))
	}
}

func checkMetadata(c *domain.CanonicalCorpus, r *report) {
	if c.Metadata.TotalLines != len(c.GlobalLines) {
		r.errorf("metadata totalLines %d != %d lines", c.Metadata.TotalLines, len(c.GlobalLines))
	}
	if c.Metadata.TotalDocuments != len(c.Segments) {
		r.errorf("metadata totalDocuments %d != %d segments", c.Metadata.TotalDocuments, len(c.Segments))
	}
}
