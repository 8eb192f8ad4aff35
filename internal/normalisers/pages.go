package normalisers

import (
	"strings"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// PageBreak separates pages in text-native formats.
const PageBreak = "\f"

// SplitPages cuts text on form feeds into numbered pages.
// Windows line endings are folded to \n. Text without a form feed is one page.
func SplitPages(text string) []domain.PageText {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	parts := strings.Split(text, PageBreak)
	pages := make([]domain.PageText, len(parts))
	for i, p := range parts {
		pages[i] = domain.PageText{PageNumber: i + 1, RawText: strings.Trim(p, "\n")}
	}
	return pages
}

// Ext returns the lower-case extension of filename including the dot.
func Ext(filename string) string {
	i := strings.LastIndexByte(filename, '.')
	if i < 0 || i == len(filename)-1 || strings.ContainsAny(filename[i:], `/\`) {
		return ""
	}
	return strings.ToLower(filename[i:])
}
