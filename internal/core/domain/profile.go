package domain

import "strings"

// CompanyProfile describes the bidding company.
// Compliance and legal agents compare requirements against it.
type CompanyProfile struct {
	Name string `toml:"name" json:"name"`

	// SmallBusiness marks an ME/EPP company (LC 123/2006 benefits).
	SmallBusiness bool `toml:"small_business" json:"smallBusiness"`

	Certifications []string `toml:"certifications" json:"certifications"`

	// Documents lists eligibility documents the company holds (keys such as
	// "cnd_federal", "fgts", "balance_sheet").
	Documents []string `toml:"documents" json:"documents"`

	// Capabilities are free-text technical capability keywords.
	Capabilities []string `toml:"capabilities" json:"capabilities"`

	MaxContractValue float64 `toml:"max_contract_value" json:"maxContractValue"`
}

// IsZero reports whether no profile was supplied.
func (p *CompanyProfile) IsZero() bool {
	return p == nil || (p.Name == "" && len(p.Documents) == 0 &&
		len(p.Certifications) == 0 && len(p.Capabilities) == 0 && !p.SmallBusiness)
}

// HasDocument reports whether the profile lists a document key.
func (p *CompanyProfile) HasDocument(key string) bool {
	if p == nil {
		return false
	}
	for _, d := range p.Documents {
		if strings.EqualFold(d, key) {
			return true
		}
	}
	return false
}

// HasCertification reports whether any certification contains name.
func (p *CompanyProfile) HasCertification(name string) bool {
	if p == nil {
		return false
	}
	name = strings.ToLower(name)
	for _, c := range p.Certifications {
		if strings.Contains(strings.ToLower(c), name) {
			return true
		}
	}
	return false
}
