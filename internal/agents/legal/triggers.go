package legal

import (
	"regexp"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/agents/technical"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// Legal regimes.
const (
	Regime14133 = "14.133/2021"
	Regime8666  = "8.666/1993"
	Regime10520 = "10.520/2002"
	RegimeMixed = "mixed"
)

var regimeRe = regexp.MustCompile(`lei (?:federal )?(?:n[o.º°]*\s*)?(14\.?133|8\.?666|10\.?520)`)

// Trigger codes.
const (
	TriggerSmallBusiness  = "small_business_exclusive"
	TriggerConsortium     = "consortium_forbidden"
	TriggerGuarantee      = "performance_guarantee"
	TriggerReadjustment   = "price_readjustment"
	TriggerSubcontracting = "subcontracting_forbidden"
	TriggerImpugnation    = "impugnation_deadline"
	TriggerSanctions      = "sanctions"
	TriggerDirectContract = "direct_contracting"
)

type trigger struct {
	code     string
	basis    string
	severity domain.Severity
	re       *regexp.Regexp
}

var triggers = []trigger{
	{
		code:     TriggerSmallBusiness,
		basis:    "LC 123/2006, art. 48",
		severity: domain.SeverityLow,
		re:       regexp.MustCompile(`exclusiv[ao]s? (?:para |a |as |de )?(?:a )?(?:participacao de )?(?:microempresas?|me/epp|mes? e epps?)|participacao exclusiva de (?:microempresas|me\b)`),
	},
	{
		code:     TriggerConsortium,
		basis:    "Lei 14.133/2021, art. 15",
		severity: domain.SeverityMedium,
		re:       regexp.MustCompile(`(?:vedada|nao sera (?:permitida|admitida)) a participacao de (?:empresas (?:reunidas )?(?:em|sob a forma de) )?consorcio`),
	},
	{
		code:     TriggerGuarantee,
		basis:    "Lei 14.133/2021, art. 96",
		severity: domain.SeverityMedium,
		re:       regexp.MustCompile(`garantia (?:de execucao|contratual)|garantia de \d{1,2}\s*%`),
	},
	{
		code:     TriggerReadjustment,
		basis:    "Lei 14.133/2021, art. 25, § 7º",
		severity: domain.SeverityLow,
		re:       regexp.MustCompile(`\breajust`),
	},
	{
		code:     TriggerSubcontracting,
		basis:    "Lei 14.133/2021, art. 122",
		severity: domain.SeverityLow,
		re:       regexp.MustCompile(`(?:vedada|nao sera (?:permitida|admitida)) a subcontratacao`),
	},
	{
		code:     TriggerImpugnation,
		basis:    "Lei 14.133/2021, art. 164",
		severity: domain.SeverityLow,
		re:       regexp.MustCompile(`impugna[cr]\w*[^.;]{0,80}?\d{1,2}(?:\s*\([^)]*\))?\s*dias uteis`),
	},
	{
		code:     TriggerSanctions,
		basis:    "Lei 14.133/2021, art. 156",
		severity: domain.SeverityLow,
		re:       regexp.MustCompile(`impedimento de licitar|declaracao de inidoneidade|suspensao temporaria`),
	},
	{
		code:     TriggerDirectContract,
		basis:    "Lei 14.133/2021, arts. 74 e 75",
		severity: domain.SeverityMedium,
		re:       regexp.MustCompile(`\bart(?:igo)?\.?\s*7[45]\b`),
	},
}

// bases maps upstream alert codes to the provision they fall under.
var bases = map[string]string{
	"requirement_unmet":         "Lei 14.133/2021, arts. 62 a 70 (habilitação)",
	technical.KindBrand:         "Lei 14.133/2021, art. 41, I (indicação de marca)",
	technical.KindSamples:       "Lei 14.133/2021, art. 41, II (amostras)",
	technical.KindPenalty:       "Lei 14.133/2021, art. 156, II (multa)",
	technical.KindDelivery:      "Lei 14.133/2021, art. 40 (planejamento das compras)",
	technical.KindSiteVisit:     "Lei 14.133/2021, art. 63, § 2º (vistoria)",
	technical.KindWarranty:      "Lei 14.133/2021, art. 40, § 1º",
	technical.KindCertification: "Lei 14.133/2021, art. 42 (certificações)",
}

func basisFor(code string) string {
	if b, ok := bases[code]; ok {
		return b
	}
	if strings.HasPrefix(code, "divergent_") {
		return "Lei 14.133/2021, art. 164 (esclarecimento e impugnação)"
	}
	return "Lei 14.133/2021"
}
