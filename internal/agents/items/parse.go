package items

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/custodia-labs/licita-cli/internal/textnorm"
)

const unitAlt = `un|und|unid|unidades?|cx|caixas?|kg|g|pct|pacotes?|resmas?|pares?|jogos?|litros?|l|ml|m|m2|m²|m3|metros?|rolos?|frascos?|galao|galoes|servicos?|mes|meses|horas?|diarias?|kits?|fardos?|sacos?|tubos?|pecas?|pc|conjuntos?|cj|sv`

var (
	separatorRe = regexp.MustCompile(`\s*(?:\||;|\t| {2,})\s*`)
	itemNoRe    = regexp.MustCompile(`^\d{1,4}(?:\.\d{1,2})?$`)
	unitRe      = regexp.MustCompile(`^(?:` + unitAlt + `)\.?$`)
	moneyRe     = regexp.MustCompile(`^(?:r\$\s*)?\d{1,3}(?:\.\d{3})*,\d{2}$`)
	quantityRe  = regexp.MustCompile(`^(?:\d{1,3}(?:\.\d{3})+|\d+)(?:,\d+)?$`)
	lotRe       = regexp.MustCompile(`^(?:lote|grupo)\s*(?:n[o.º°]*\s*)?(\d+)`)

	// shapeRe reads single-space rows: number, description, quantity, unit, price.
	shapeRe = regexp.MustCompile(`^(\d{1,4})[.)\-]?\s+(\S.*?\S)\s+((?:\d{1,3}(?:\.\d{3})+|\d+)(?:,\d+)?)(?:\s+(` + unitAlt + `)\.?)?(?:\s+(?:r\$\s*)?(\d{1,3}(?:\.\d{3})*,\d{2}))?\s*$`)

	serviceRe     = regexp.MustCompile(`servico|manutencao|instalacao|locacao|prestacao|consultoria|limpeza|vigilancia|treinamento|suporte tecnico`)
	serviceUnitRe = regexp.MustCompile(`^(?:servicos?|mes|meses|horas?|diarias?|sv)$`)
)

// span is a byte range of a line.
type span struct{ start, end int }

func (s span) ok() bool { return s.end > s.start }

// row is one parsed item line. Spans index the original line text.
type row struct {
	number, description, unit, quantity, price span
}

// cell is one column of a delimited table line.
type cell struct {
	text string
	span
}

func splitCells(line string) []cell {
	var cells []cell
	pos := 0
	for _, sep := range separatorRe.FindAllStringIndex(line, -1) {
		if sep[0] > pos {
			cells = append(cells, cell{text: line[pos:sep[0]], span: span{pos, sep[0]}})
		}
		pos = sep[1]
	}
	if pos < len(line) {
		cells = append(cells, cell{text: line[pos:], span: span{pos, len(line)}})
	}
	return cells
}

// parseCells reads a delimited row. The first cell must be an item number.
func parseCells(line string) (row, bool) {
	cells := splitCells(line)
	if len(cells) < 3 || !itemNoRe.MatchString(strings.TrimSpace(cells[0].text)) {
		return row{}, false
	}
	r := row{number: cells[0].span}
	for _, c := range cells[1:] {
		folded := strings.TrimSpace(textnorm.Fold(c.text))
		switch {
		case !r.description.ok():
			if letters(c.text) >= 3 {
				r.description = c.span
			}
		case !r.unit.ok() && unitRe.MatchString(folded):
			r.unit = c.span
		case !r.quantity.ok() && quantityRe.MatchString(folded):
			r.quantity = c.span
		case !r.price.ok() && moneyRe.MatchString(folded):
			r.price = c.span
		}
	}
	if !r.description.ok() || (!r.quantity.ok() && !r.price.ok()) {
		return row{}, false
	}
	return r, true
}

func letters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
