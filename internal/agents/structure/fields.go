package structure

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// Metadata field names.
const (
	FieldProcessNumber     = "processNumber"
	FieldNoticeNumber      = "noticeNumber"
	FieldModality          = "modality"
	FieldAgency            = "agency"
	FieldObject            = "object"
	FieldJudgmentCriterion = "judgmentCriterion"
	FieldSessionDate       = "sessionDate"
	FieldEstimatedValue    = "estimatedValue"
)

// Field is one metadata field and the pattern that finds it in folded text.
type Field struct {
	Name        string
	Description string
	Pattern     *regexp.Regexp

	// Group is the capture group holding the value; 0 is the whole match.
	Group int
}

// Fields are searched in this order. Patterns run on accent-folded, lower-cased lines.
var Fields = []Field{
	{
		Name:        FieldProcessNumber,
		Description: "administrative process number",
		Pattern:     regexp.MustCompile(`processo(?: administrativo| licitatorio| sei)?(?: n[o.º°]*| numero)?\s*[:\-]?\s*(\d[\d./-]*\d)`),
		Group:       1,
	},
	{
		Name:        FieldNoticeNumber,
		Description: "bid notice number, e.g. 12/2025",
		Pattern:     regexp.MustCompile(`(?:edital|pregao(?: eletronico| presencial)?|concorrencia(?: eletronica| publica)?|dispensa eletronica)\s+(?:n[o.º°]*\s*|numero\s*)?[:\-]?\s*(\d{1,5}/\d{4})`),
		Group:       1,
	},
	{
		Name:        FieldModality,
		Description: "procurement modality (pregão, concorrência, dispensa...)",
		Pattern:     regexp.MustCompile(`pregao eletronico|pregao presencial|concorrencia (?:publica|eletronica)|dispensa eletronica|dispensa de licitacao|inexigibilidade|dialogo competitivo|\bleilao\b|\bconcurso\b`),
	},
	{
		Name:        FieldAgency,
		Description: "contracting agency name",
		Pattern:     regexp.MustCompile(`^(?:prefeitura municipal|camara municipal|secretaria (?:municipal|estadual|de estado)|ministerio|universidade federal|instituto federal|tribunal|governo do estado|municipio) d[aeo]s? .+`),
	},
	{
		Name:        FieldObject,
		Description: "object of the procurement, copied verbatim",
		Pattern:     regexp.MustCompile(`^(?:\d+(?:\.\d+)*\.?\s*[-–]?\s*)?(?:d[oa] )?objeto\s*[:\-–]\s*(.{10,})`),
		Group:       1,
	},
	{
		Name:        FieldJudgmentCriterion,
		Description: "judgment criterion (menor preço, maior desconto...)",
		Pattern:     regexp.MustCompile(`menor preco(?: global| por item| por lote| unitario)?|maior desconto|tecnica e preco|melhor tecnica|maior retorno economico|maior lance`),
	},
	{
		Name:        FieldSessionDate,
		Description: "public session date and time",
		Pattern:     regexp.MustCompile(`(?:sessao publica|abertura d[ao]s? (?:sessao|propostas)|data d[ae] abertura|data da sessao|inicio da disputa)[^0-9]{0,40}(\d{1,2}/\d{1,2}/\d{4}(?:,? (?:as )?\d{1,2}[:h]\d{2}(?:min)?)?)`),
		Group:       1,
	},
	{
		Name:        FieldEstimatedValue,
		Description: "estimated total value in R$",
		Pattern:     regexp.MustCompile(`valor (?:total |global |maximo |anual )?(?:estimado|global|maximo|de referencia).{0,60}?(r\$ ?\d{1,3}(?:\.\d{3})*(?:,\d{2})?)`),
		Group:       1,
	},
}

// FieldByName returns a field definition.
func FieldByName(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// Extract reads the field value out of a match and cites it.
// Surrounding spaces and trailing punctuation are left out of both.
func (f Field) Extract(l *agents.Locator, m agents.Match, confidence float64) domain.Finding[string] {
	s, e, ok := m.Start, m.End, true
	if f.Group > 0 {
		s, e, ok = m.GroupRange(f.Group)
	}
	if !ok {
		return domain.NotFound[string](f.Name)
	}
	s, e = trimRange(m.Text, s, e)
	if s >= e {
		return domain.NotFound[string](f.Name)
	}
	return domain.Found(m.Text[s:e], l.SpanEvidence(f.Name, m.Line, s, e, confidence))
}

// Find returns the first finding of the field within scope.
func (f Field) Find(l *agents.Locator, scope domain.LineRange, confidence float64) domain.Finding[string] {
	for _, m := range l.Find(f.Pattern, scope) {
		if v := f.Extract(l, m, confidence); v.Found {
			return v
		}
	}
	return domain.NotFound[string](f.Name)
}

func trimRange(text string, s, e int) (int, int) {
	for s < e && strings.ContainsRune(" \t", rune(text[s])) {
		s++
	}
	for e > s && strings.ContainsRune(" \t.;,:", rune(text[e-1])) {
		e--
	}
	return s, e
}
