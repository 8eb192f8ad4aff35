// Package indexer turns a document's pages into addressable lines and
// detects its hierarchy (chapters, sections, articles, items) and tables.
package indexer

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/textnorm"
)

const maxLabelRunes = 80

// Hierarchy levels. A marker closes at the next marker of the same or a higher level.
const (
	levelChapter = iota
	levelSection
	levelArticle
	levelItem
)

var (
	chapterRe      = regexp.MustCompile(`^(capitulo|titulo)\s+([ivxlcdm]+|\d+)\b`)
	romanHeadingRe = regexp.MustCompile(`^[IVXLCDM]+\s*[-–.)]\s*\S`)
	sectionRe      = regexp.MustCompile(`^(secao|anexo)\s+([ivxlcdm]+|\d+)\b`)
	numHeadingRe   = regexp.MustCompile(`^\d{1,2}\s*[.\-–]\s+\S`)
	articleRe      = regexp.MustCompile(`^(art(\.|igo)\s*\d+|clausula\s+\S+)`)
	subItemRe      = regexp.MustCompile(`^\d+\.\d+(\.\d+)*\.?\s+\S`)
	letterItemRe   = regexp.MustCompile(`^[a-z]\)\s+\S`)
	romanItemRe    = regexp.MustCompile(`^[IVXLCDM]+\s*[-–]\s+\S`)
	tableShapeRe   = regexp.MustCompile(`^\d+(?:[.,]\d+)*\s+\pL+\s+\pL+.*\s\d+(?:[.,]\d+)*\s*$`)
	multiSpaceRe   = regexp.MustCompile(` {2,}`)
)

// Build assigns local line numbers and byte offsets and detects structure.
// Blank lines are skipped. A document with no text gets a single
// NO DATA FOUND line so every document still occupies a segment.
func Build(docID string, pages []domain.PageText) domain.IndexedDocument {
	idx := domain.IndexedDocument{DocumentID: docID}

	offset := 0
	for _, p := range pages {
		inPage := 0
		for _, raw := range strings.Split(p.RawText, "\n") {
			text := strings.TrimSpace(raw)
			if text == "" {
				continue
			}
			inPage++
			idx.Lines = append(idx.Lines, domain.LocalLine{
				Index:      len(idx.Lines) + 1,
				Text:       text,
				Page:       p.PageNumber,
				LineInPage: inPage,
				CharStart:  offset,
				CharEnd:    offset + len(text),
			})
			offset += len(text) + 1
		}
		if inPage > 0 {
			idx.Pages = append(idx.Pages, p.PageNumber)
		}
	}

	if len(idx.Lines) == 0 {
		page := 1
		if len(pages) > 0 && pages[0].PageNumber > 0 {
			page = pages[0].PageNumber
		}
		idx.Lines = []domain.LocalLine{{
			Index:      1,
			Text:       domain.NoDataFound,
			Page:       page,
			LineInPage: 1,
			CharStart:  0,
			CharEnd:    len(domain.NoDataFound),
		}}
		idx.Pages = []int{page}
	}

	idx.Structures = detect(idx.Lines)
	return idx
}

type marker struct {
	level int
	line  int
	label string
}

func detect(lines []domain.LocalLine) domain.Structures {
	var markers []marker
	for _, l := range lines {
		if lvl, ok := classifyLine(l.Text); ok {
			markers = append(markers, marker{level: lvl, line: l.Index, label: label(l.Text)})
		}
	}

	var s domain.Structures
	last := 0
	if len(lines) > 0 {
		last = lines[len(lines)-1].Index
	}
	for i, m := range markers {
		end := last
		for _, next := range markers[i+1:] {
			if next.level <= m.level {
				end = next.line - 1
				break
			}
		}
		r := domain.StructureRange{Label: m.label, Lines: domain.LineRange{Start: m.line, End: end}}
		switch m.level {
		case levelChapter:
			s.Chapters = append(s.Chapters, r)
		case levelSection:
			s.Sections = append(s.Sections, r)
		case levelArticle:
			s.Articles = append(s.Articles, r)
		case levelItem:
			s.Items = append(s.Items, r)
		}
	}

	s.Tables = detectTables(lines)
	return s
}

// classifyLine returns the hierarchy level of a heading line.
func classifyLine(text string) (int, bool) {
	folded := textnorm.Fold(text)
	switch {
	case chapterRe.MatchString(folded):
		return levelChapter, true
	case romanHeadingRe.MatchString(text) && isUpperHeading(text):
		return levelChapter, true
	case sectionRe.MatchString(folded):
		return levelSection, true
	case numHeadingRe.MatchString(text) && isUpperHeading(text):
		return levelSection, true
	case articleRe.MatchString(folded):
		return levelArticle, true
	case subItemRe.MatchString(text), letterItemRe.MatchString(text), romanItemRe.MatchString(text):
		return levelItem, true
	}
	return 0, false
}

// isUpperHeading reports whether every letter of the line is upper case.
func isUpperHeading(text string) bool {
	letters := 0
	for _, r := range text {
		if unicode.IsLetter(r) {
			letters++
			if unicode.IsLower(r) {
				return false
			}
		}
	}
	return letters >= 3
}

// IsTableLine reports whether a line looks like a table row.
func IsTableLine(text string) bool {
	seps := strings.Count(text, "|") + strings.Count(text, ";") + strings.Count(text, "\t")
	seps += len(multiSpaceRe.FindAllStringIndex(text, -1))
	if seps >= 2 {
		return true
	}
	return tableShapeRe.MatchString(text)
}

// detectTables finds runs of at least two consecutive table rows.
func detectTables(lines []domain.LocalLine) []domain.StructureRange {
	var out []domain.StructureRange
	start := -1
	flush := func(end int) {
		if start >= 0 && end-start >= 1 {
			out = append(out, domain.StructureRange{
				Label: label(lines[start].Text),
				Lines: domain.LineRange{Start: lines[start].Index, End: lines[end].Index},
			})
		}
		start = -1
	}
	for i, l := range lines {
		if IsTableLine(l.Text) {
			if start < 0 {
				start = i
			}
			continue
		}
		flush(i - 1)
	}
	flush(len(lines) - 1)
	return out
}

func label(text string) string {
	r := []rune(text)
	if len(r) > maxLabelRunes {
		return string(r[:maxLabelRunes])
	}
	return text
}
