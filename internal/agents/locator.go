package agents

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/textnorm"
)

// Match is a pattern hit on one corpus line. Offsets are byte offsets into
// the original (unfolded) line text.
type Match struct {
	Line  int
	Text  string
	Start int
	End   int

	groups [][2]int
}

// Excerpt returns the matched original text.
func (m Match) Excerpt() string {
	return m.Text[m.Start:m.End]
}

// Group returns capture group i in original text, or "" if it did not participate.
func (m Match) Group(i int) string {
	s, e, ok := m.GroupRange(i)
	if !ok {
		return ""
	}
	return m.Text[s:e]
}

// GroupRange returns the original byte range of capture group i.
func (m Match) GroupRange(i int) (int, int, bool) {
	if i < 0 || i >= len(m.groups) || m.groups[i][0] < 0 {
		return 0, 0, false
	}
	return m.groups[i][0], m.groups[i][1], true
}

// Locator finds text in a corpus and turns hits into verifiable evidence.
// Patterns run against accent-folded, lower-cased lines; every reported
// range is mapped back so excerpts are always substrings of the corpus.
type Locator struct {
	corpus  *domain.CanonicalCorpus
	folded  []string
	offsets [][]int
}

// NewLocator folds every corpus line once.
func NewLocator(c *domain.CanonicalCorpus) *Locator {
	l := &Locator{corpus: c}
	if c == nil {
		return l
	}
	l.folded = make([]string, len(c.GlobalLines))
	l.offsets = make([][]int, len(c.GlobalLines))
	for i, gl := range c.GlobalLines {
		l.folded[i], l.offsets[i] = textnorm.FoldWithMap(gl.Text)
	}
	return l
}

// Corpus returns the corpus being searched.
func (l *Locator) Corpus() *domain.CanonicalCorpus {
	return l.corpus
}

// Lines returns the number of corpus lines.
func (l *Locator) Lines() int {
	return len(l.folded)
}

// Folded returns the folded text of line n.
func (l *Locator) Folded(n int) string {
	if n < 1 || n > len(l.folded) {
		return ""
	}
	return l.folded[n-1]
}

// Text returns the original text of line n.
func (l *Locator) Text(n int) string {
	gl, ok := l.corpus.Line(n)
	if !ok {
		return ""
	}
	return gl.Text
}

// Find returns every match of re in the given line range.
// A zero range searches the whole corpus.
func (l *Locator) Find(re *regexp.Regexp, scope domain.LineRange) []Match {
	var out []Match
	l.scan(scope, func(n int) bool {
		out = append(out, l.matchLine(re, n, -1)...)
		return true
	})
	return out
}

// First returns the first match of re in the given line range.
func (l *Locator) First(re *regexp.Regexp, scope domain.LineRange) (Match, bool) {
	var (
		found Match
		ok    bool
	)
	l.scan(scope, func(n int) bool {
		if ms := l.matchLine(re, n, 1); len(ms) > 0 {
			found, ok = ms[0], true
			return false
		}
		return true
	})
	return found, ok
}

// MatchLine returns the matches of re on a single line.
func (l *Locator) MatchLine(re *regexp.Regexp, n int) []Match {
	return l.matchLine(re, n, -1)
}

func (l *Locator) scan(scope domain.LineRange, fn func(n int) bool) {
	start, end := 1, len(l.folded)
	if scope.Start > 0 {
		start = scope.Start
	}
	if scope.End > 0 && scope.End < end {
		end = scope.End
	}
	for n := start; n <= end; n++ {
		if !fn(n) {
			return
		}
	}
}

func (l *Locator) matchLine(re *regexp.Regexp, n, limit int) []Match {
	if n < 1 || n > len(l.folded) {
		return nil
	}
	folded, offs := l.folded[n-1], l.offsets[n-1]
	text := l.corpus.GlobalLines[n-1].Text

	idx := re.FindAllStringSubmatchIndex(folded, limit)
	out := make([]Match, 0, len(idx))
	for _, loc := range idx {
		m := Match{Line: n, Text: text, Start: offs[loc[0]], End: offs[loc[1]]}
		for g := 0; g+1 < len(loc); g += 2 {
			if loc[g] < 0 {
				m.groups = append(m.groups, [2]int{-1, -1})
				continue
			}
			m.groups = append(m.groups, [2]int{offs[loc[g]], offs[loc[g+1]]})
		}
		out = append(out, m)
	}
	return out
}

// SpanEvidence cites bytes [start,end) of line n. Spans longer than the
// excerpt limit are shortened at a rune boundary.
func (l *Locator) SpanEvidence(field string, n, start, end int, confidence float64) domain.Evidence {
	gl, ok := l.corpus.Line(n)
	if !ok || start < 0 || end > len(gl.Text) || start >= end {
		return domain.MissingEvidence(field, "line out of range")
	}
	start, end = clip(gl.Text, start, end)
	excerpt := gl.Text[start:end]
	if strings.TrimSpace(excerpt) == "" {
		return domain.MissingEvidence(field, "empty excerpt")
	}
	loc, _ := l.corpus.Locate(n)
	return domain.Evidence{
		Field:          field,
		DocumentName:   loc.DocumentName,
		Page:           loc.Page,
		LineRange:      domain.LineRange{Start: n, End: n},
		CharRange:      domain.CharRange{Start: gl.CharStart + start, End: gl.CharStart + end},
		LiteralExcerpt: excerpt,
		Confidence:     confidence,
	}
}

// MatchEvidence cites the line around a match. Short lines are cited whole;
// long lines are cut to a window that keeps the match.
func (l *Locator) MatchEvidence(field string, m Match, confidence float64) domain.Evidence {
	start, end := window(m.Text, m.Start, m.End)
	return l.SpanEvidence(field, m.Line, start, end, confidence)
}

// GroupEvidence cites capture group i of a match.
func (l *Locator) GroupEvidence(field string, m Match, i int, confidence float64) domain.Evidence {
	s, e, ok := m.GroupRange(i)
	if !ok || s == e {
		return domain.MissingEvidence(field, "group did not match")
	}
	return l.SpanEvidence(field, m.Line, s, e, confidence)
}

// LineEvidence cites line n.
func (l *Locator) LineEvidence(field string, n int, confidence float64) domain.Evidence {
	gl, ok := l.corpus.Line(n)
	if !ok {
		return domain.MissingEvidence(field, "line out of range")
	}
	return l.SpanEvidence(field, n, 0, len(gl.Text), confidence)
}

// Verbatim looks value up exactly as written and cites its first occurrence.
// Values that are not in the corpus are rejected.
func (l *Locator) Verbatim(field, value string, confidence float64) (domain.Evidence, bool) {
	value = strings.TrimSpace(value)
	if value == "" || value == domain.NoDataFound || l.corpus == nil {
		return domain.MissingEvidence(field, ""), false
	}
	at := strings.Index(l.corpus.FullText, value)
	if at < 0 {
		return domain.MissingEvidence(field, "value not found verbatim"), false
	}
	end := at + len(value)
	_, clipped := clip(l.corpus.FullText, at, end)
	first, last := l.LineAt(at), l.LineAt(clipped-1)
	loc, _ := l.corpus.Locate(first)
	return domain.Evidence{
		Field:          field,
		DocumentName:   loc.DocumentName,
		Page:           loc.Page,
		LineRange:      domain.LineRange{Start: first, End: last},
		CharRange:      domain.CharRange{Start: at, End: clipped},
		LiteralExcerpt: l.corpus.FullText[at:clipped],
		Confidence:     confidence,
	}, true
}

// LineAt returns the line holding byte offset off of the full text.
// An offset on a separating newline belongs to the line before it.
func (l *Locator) LineAt(off int) int {
	lines := l.corpus.GlobalLines
	i := sort.Search(len(lines), func(i int) bool { return lines[i].CharEnd >= off })
	if i == len(lines) {
		return len(lines)
	}
	return i + 1
}

// SegmentScopes returns the line ranges of segments of the given types,
// in corpus order.
func (l *Locator) SegmentScopes(types ...domain.DocumentType) []domain.LineRange {
	var out []domain.LineRange
	if l.corpus == nil {
		return out
	}
	for _, s := range l.corpus.Segments {
		for _, t := range types {
			if s.Type == t {
				out = append(out, s.GlobalLineRange)
				break
			}
		}
	}
	return out
}

// clip shortens [start,end) of s to MaxExcerptLength bytes, never
// splitting a rune.
func clip(s string, start, end int) (int, int) {
	if end-start <= domain.MaxExcerptLength {
		return start, end
	}
	end = start + domain.MaxExcerptLength
	for end > start && !utf8.RuneStart(s[end]) {
		end--
	}
	return start, end
}

// window picks a span of at most MaxExcerptLength bytes of text that
// contains [start,end) when it fits, starting at a rune boundary.
func window(text string, start, end int) (int, int) {
	if len(text) <= domain.MaxExcerptLength {
		return 0, len(text)
	}
	if end-start >= domain.MaxExcerptLength {
		return start, end
	}
	slack := (domain.MaxExcerptLength - (end - start)) / 2
	ws := start - slack
	if ws < 0 {
		ws = 0
	}
	we := ws + domain.MaxExcerptLength
	if we > len(text) {
		we = len(text)
		ws = we - domain.MaxExcerptLength
	}
	for ws < start && !utf8.RuneStart(text[ws]) {
		ws++
	}
	for we > end && we < len(text) && !utf8.RuneStart(text[we]) {
		we--
	}
	return ws, we
}
