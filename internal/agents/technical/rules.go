package technical

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/agents"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// Risk kinds.
const (
	KindBrand         = "brand_restriction"
	KindSamples       = "samples_required"
	KindCertification = "certification_required"
	KindDelivery      = "short_delivery"
	KindWarranty      = "extended_warranty"
	KindPenalty       = "heavy_penalty"
	KindSiteVisit     = "mandatory_site_visit"
)

// rule turns a match into a risk. A false return means the clause is not a risk.
type rule struct {
	kind string
	re   *regexp.Regexp
	eval func(m agents.Match, folded string) (domain.Severity, string, bool)
}

const spelled = `(?:\s*\([^)]*\))?`

var (
	exclusiveRe  = regexp.MustCompile(`exclusiv|somente a marca|unicamente|nao sera(?:o)? aceit`)
	equivalentRe = regexp.MustCompile(`similar|equivalente|de referencia|ou superior|ou de melhor qualidade`)
	mandatoryRe  = regexp.MustCompile(`obrigatori|devera realizar|e condicao`)
)

var rules = []rule{
	{
		kind: KindBrand,
		re:   regexp.MustCompile(`\bmarcas?\b`),
		eval: func(_ agents.Match, folded string) (domain.Severity, string, bool) {
			switch {
			case exclusiveRe.MatchString(folded):
				return domain.SeverityHigh, "brand stated as exclusive", true
			case equivalentRe.MatchString(folded):
				return "", "", false
			default:
				return domain.SeverityMedium, "brand named without an equivalence clause", true
			}
		},
	},
	{
		kind: KindSamples,
		re:   regexp.MustCompile(`\bamostras?\b`),
		eval: func(agents.Match, string) (domain.Severity, string, bool) {
			return domain.SeverityMedium, "samples must be submitted", true
		},
	},
	{
		kind: KindCertification,
		re:   regexp.MustCompile(`\b(inmetro|anvisa|iso\s?\d{4,5}|abnt nbr\s?\d+)`),
		eval: func(m agents.Match, _ string) (domain.Severity, string, bool) {
			return domain.SeverityMedium, "requires " + m.Group(1), true
		},
	},
	{
		kind: KindDelivery,
		re:   regexp.MustCompile(`prazo (?:maximo )?(?:de|para) (?:a )?entrega[^.;]*?(\d{1,3})` + spelled + `\s*(horas|dias)`),
		eval: func(m agents.Match, _ string) (domain.Severity, string, bool) {
			n, _ := strconv.Atoi(m.Group(1))
			days := n
			if strings.HasPrefix(m.Group(2), "hora") {
				days = (n + 23) / 24
			}
			detail := "delivery within " + m.Group(1) + " " + m.Group(2)
			switch {
			case days <= 5:
				return domain.SeverityHigh, detail, true
			case days <= 10:
				return domain.SeverityMedium, detail, true
			default:
				return "", "", false
			}
		},
	},
	{
		kind: KindWarranty,
		re:   regexp.MustCompile(`garantia[^.;]*?(\d{1,3})` + spelled + `\s*(meses|anos?)`),
		eval: func(m agents.Match, _ string) (domain.Severity, string, bool) {
			n, _ := strconv.Atoi(m.Group(1))
			months := n
			if strings.HasPrefix(m.Group(2), "ano") {
				months = n * 12
			}
			detail := "warranty of " + m.Group(1) + " " + m.Group(2)
			switch {
			case months >= 36:
				return domain.SeverityMedium, detail, true
			case months > 12:
				return domain.SeverityLow, detail, true
			default:
				return "", "", false
			}
		},
	},
	{
		kind: KindPenalty,
		re:   regexp.MustCompile(`multa[^.;]*?(\d{1,3}(?:,\d+)?)\s*%`),
		eval: func(m agents.Match, _ string) (domain.Severity, string, bool) {
			pct, ok := agents.ParseNumber(m.Group(1))
			if !ok {
				return "", "", false
			}
			detail := "penalty of " + m.Group(1) + "%"
			switch {
			case pct >= 10:
				return domain.SeverityHigh, detail, true
			case pct >= 5:
				return domain.SeverityMedium, detail, true
			default:
				return domain.SeverityLow, detail, true
			}
		},
	},
	{
		kind: KindSiteVisit,
		re:   regexp.MustCompile(`visita tecnica`),
		eval: func(_ agents.Match, folded string) (domain.Severity, string, bool) {
			if !mandatoryRe.MatchString(folded) || strings.Contains(folded, "facultativ") {
				return "", "", false
			}
			return domain.SeverityMedium, "site visit is mandatory", true
		},
	},
}
