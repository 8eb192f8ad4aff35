// Package fusion concatenates the surviving documents of a batch into one
// canonical corpus with global line numbers, byte offsets and back-references.
package fusion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// Fuse builds the canonical corpus. Documents are ordered by type priority,
// then filename, then upload order. Lines within a document are never
// reordered and two documents' lines are never interleaved.
func Fuse(loteID string, docs []*domain.ProcessedDocument, removed []domain.RemovedDocument) (*domain.CanonicalCorpus, error) {
	if loteID == "" {
		return nil, fmt.Errorf("%w: missing batch id", domain.ErrFusionFailed)
	}
	if len(docs) == 0 {
		return nil, fmt.Errorf("%w: no documents to fuse", domain.ErrFusionFailed)
	}

	ordered := make([]*domain.ProcessedDocument, len(docs))
	copy(ordered, docs)
	sort.SliceStable(ordered, func(i, j int) bool {
		pi, pj := ordered[i].Classification.Type.Priority(), ordered[j].Classification.Type.Priority()
		if pi != pj {
			return pi < pj
		}
		if ordered[i].Filename != ordered[j].Filename {
			return ordered[i].Filename < ordered[j].Filename
		}
		return ordered[i].Order < ordered[j].Order
	})

	total := 0
	for _, d := range ordered {
		if len(d.Index.Lines) == 0 {
			return nil, fmt.Errorf("%w: document %s has no indexed lines", domain.ErrFusionFailed, d.Filename)
		}
		total += len(d.Index.Lines)
	}

	corpus := &domain.CanonicalCorpus{
		LoteID:      loteID,
		GlobalLines: make([]domain.GlobalLine, 0, total),
		Segments:    make([]domain.Segment, 0, len(ordered)),
		LineMap:     make(map[string]domain.LineLocation, total),
		CreatedAt:   time.Now().UTC(),
	}

	var full strings.Builder
	offset := 0
	for segIdx, d := range ordered {
		first := len(corpus.GlobalLines) + 1
		segStart := offset
		hash := sha256.New()

		for i, l := range d.Index.Lines {
			n := len(corpus.GlobalLines) + 1
			if n > 1 {
				full.WriteByte('\n')
			}
			full.WriteString(l.Text)

			gl := domain.GlobalLine{
				LineNumber:      n,
				Text:            l.Text,
				CharStart:       offset,
				CharEnd:         offset + len(l.Text),
				SourceDocID:     d.ID,
				SourcePage:      l.Page,
				LocalLineInPage: l.LineInPage,
			}
			corpus.GlobalLines = append(corpus.GlobalLines, gl)
			corpus.LineMap[domain.LineKey(n)] = domain.LineLocation{
				DocumentID:      d.ID,
				DocumentName:    d.Filename,
				SegmentIndex:    segIdx,
				Page:            l.Page,
				LocalLineInPage: l.LineInPage,
				CharStart:       gl.CharStart,
				CharEnd:         gl.CharEnd,
			}

			if i > 0 {
				hash.Write([]byte{'\n'})
			}
			hash.Write([]byte(l.Text))
			offset = gl.CharEnd + 1
		}

		last := len(corpus.GlobalLines)
		corpus.Segments = append(corpus.Segments, domain.Segment{
			DocumentID:      d.ID,
			Filename:        d.Filename,
			Type:            d.Classification.Type,
			Priority:        d.Classification.Type.Priority(),
			SegmentHash:     hex.EncodeToString(hash.Sum(nil)),
			OCRQualityAvg:   d.OCRQuality(),
			SourcePages:     append([]int(nil), d.Index.Pages...),
			GlobalLineRange: domain.LineRange{Start: first, End: last},
			CharRange:       domain.CharRange{Start: segStart, End: corpus.GlobalLines[last-1].CharEnd},
			Structures:      d.Index.Structures.Shift(first - 1),
		})
	}
	corpus.FullText = full.String()
	corpus.Metadata = buildMetadata(ordered, corpus, removed)
	return corpus, nil
}

// SegmentHash returns the hash fusion would assign to a segment made of lines.
func SegmentHash(lines []string) string {
	sum := sha256.Sum256([]byte(strings.Join(lines, "\n")))
	return hex.EncodeToString(sum[:])
}

func buildMetadata(ordered []*domain.ProcessedDocument, c *domain.CanonicalCorpus, removed []domain.RemovedDocument) domain.CorpusMetadata {
	m := domain.CorpusMetadata{
		TotalDocuments:    len(ordered),
		TotalLines:        len(c.GlobalLines),
		DuplicatesRemoved: append([]domain.RemovedDocument{}, removed...),
		WarningFlags:      []string{},
		ErrorFlags:        []string{},
		OCRQualityMin:     math.Inf(1),
		OCRQualityMax:     math.Inf(-1),
	}

	var sum float64
	for _, seg := range c.Segments {
		sum += seg.OCRQualityAvg
		m.OCRQualityMin = math.Min(m.OCRQualityMin, seg.OCRQualityAvg)
		m.OCRQualityMax = math.Max(m.OCRQualityMax, seg.OCRQualityAvg)
	}
	m.OCRQualityGlobal = math.Round(sum/float64(len(c.Segments))*100) / 100

	for _, d := range ordered {
		if d.ExtractionFailed() {
			m.WarningFlags = append(m.WarningFlags, domain.FlagExtractionFailed+":"+d.Filename)
		}
		if d.Classification.Flags.NeedsReview {
			m.WarningFlags = append(m.WarningFlags, domain.FlagNeedsReview+":"+d.Filename)
		}
		if d.Classification.Flags.ExternalSupplierDoc {
			m.WarningFlags = append(m.WarningFlags, domain.FlagExternalSupplierDoc+":"+d.Filename)
		}
	}
	return m
}
