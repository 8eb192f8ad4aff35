// Package textnorm folds accents, case and whitespace so that
// Portuguese procurement vocabulary can be matched with plain patterns.
//
// FoldWithMap keeps a byte offset map back to the original string, which is
// what lets pattern matches on folded text be cited verbatim.
package textnorm

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Fold removes diacritics, lower-cases, and turns every Unicode space into ' '.
func Fold(s string) string {
	folded, _ := FoldWithMap(s)
	return folded
}

// FoldWithMap folds s and returns, for every byte of the result, the byte
// offset in s of the rune it came from. The map has len(folded)+1 entries;
// the last one is len(s), so a folded range [i,j) maps to s[m[i]:m[j]].
func FoldWithMap(s string) (string, []int) {
	var b strings.Builder
	b.Grow(len(s))
	offsets := make([]int, 0, len(s)+1)

	for i, r := range s {
		for _, fr := range foldRune(r) {
			n := b.Len()
			b.WriteRune(fr)
			for k := n; k < b.Len(); k++ {
				offsets = append(offsets, i)
			}
		}
	}
	offsets = append(offsets, len(s))
	return b.String(), offsets
}

// Normalize folds s and collapses runs of whitespace into single spaces.
func Normalize(s string) string {
	return strings.Join(strings.Fields(Fold(s)), " ")
}

// Tokens splits folded text into alphanumeric words.
func Tokens(s string) []string {
	return strings.FieldsFunc(Fold(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

var stripMarks = runes.Remove(runes.In(unicode.Mn))

// foldRune folds a single rune. Decomposition may yield several runes
// (e.g. the ligature ﬁ), marks are dropped.
func foldRune(r rune) []rune {
	if r < utf8.RuneSelf {
		if r >= 'A' && r <= 'Z' {
			return []rune{r + ('a' - 'A')}
		}
		if r == '\t' || r == '\r' || r == '\v' || r == '\f' {
			return []rune{' '}
		}
		return []rune{r}
	}
	if unicode.IsSpace(r) {
		return []rune{' '}
	}
	t := transform.Chain(norm.NFD, stripMarks)
	out, _, err := transform.String(t, string(r))
	if err != nil {
		return []rune{unicode.ToLower(r)}
	}
	rs := []rune(out)
	for i, x := range rs {
		rs[i] = unicode.ToLower(x)
	}
	return rs
}
