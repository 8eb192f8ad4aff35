package agents

import (
	"strconv"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// corpusOf builds a corpus with one segment per text, in the given order.
func corpusOf(texts ...string) *domain.CanonicalCorpus {
	c := &domain.CanonicalCorpus{LoteID: "lote", LineMap: map[string]domain.LineLocation{}}
	var full strings.Builder
	offset := 0
	for si, text := range texts {
		first := len(c.GlobalLines) + 1
		for _, line := range strings.Split(text, "\n") {
			n := len(c.GlobalLines) + 1
			if n > 1 {
				full.WriteByte('\n')
			}
			full.WriteString(line)
			gl := domain.GlobalLine{
				LineNumber: n, Text: line,
				CharStart: offset, CharEnd: offset + len(line),
				SourceDocID: "d" + strconv.Itoa(si), SourcePage: 1,
			}
			c.GlobalLines = append(c.GlobalLines, gl)
			c.LineMap[domain.LineKey(n)] = domain.LineLocation{
				DocumentID: gl.SourceDocID, DocumentName: "doc" + strconv.Itoa(si) + ".pdf",
				SegmentIndex: si, Page: 1, CharStart: gl.CharStart, CharEnd: gl.CharEnd,
			}
			offset = gl.CharEnd + 1
		}
		c.Segments = append(c.Segments, domain.Segment{
			DocumentID:      "d" + strconv.Itoa(si),
			Filename:        "doc" + strconv.Itoa(si) + ".pdf",
			Type:            domain.TypeCoreNotice,
			GlobalLineRange: domain.LineRange{Start: first, End: len(c.GlobalLines)},
		})
	}
	c.FullText = full.String()
	return c
}
