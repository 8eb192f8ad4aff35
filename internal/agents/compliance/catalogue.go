package compliance

import (
	_ "embed"
	"fmt"
	"regexp"
	"sync"

	"go.yaml.in/yaml/v3"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

//go:embed requirements.yaml
var defaultCatalogue []byte

type ruleSpec struct {
	Key           string `yaml:"key"`
	Label         string `yaml:"label"`
	Category      string `yaml:"category"`
	Pattern       string `yaml:"pattern"`
	Document      string `yaml:"document"`
	Certification string `yaml:"certification"`
}

// Rule is one compiled requirement rule.
type Rule struct {
	Key           string
	Label         string
	Category      string
	Document      string
	Certification string

	re *regexp.Regexp
}

// Catalogue is the immutable list of requirement rules.
type Catalogue struct {
	rules []Rule
}

// ParseCatalogue compiles a YAML requirement catalogue.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var spec struct {
		Requirements []ruleSpec `yaml:"requirements"`
	}
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse requirement catalogue: %w", err)
	}
	if len(spec.Requirements) == 0 {
		return nil, fmt.Errorf("requirement catalogue: %w: no requirements", domain.ErrInvalidInput)
	}

	c := &Catalogue{}
	seen := make(map[string]bool)
	for _, s := range spec.Requirements {
		if s.Key == "" || seen[s.Key] {
			return nil, fmt.Errorf("requirement catalogue: %w: missing or duplicate key %q", domain.ErrInvalidInput, s.Key)
		}
		seen[s.Key] = true
		re, err := regexp.Compile(s.Pattern)
		if err != nil {
			return nil, fmt.Errorf("requirement catalogue: %s: %w", s.Key, err)
		}
		c.rules = append(c.rules, Rule{
			Key:           s.Key,
			Label:         s.Label,
			Category:      s.Category,
			Document:      s.Document,
			Certification: s.Certification,
			re:            re,
		})
	}
	return c, nil
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalogue
	defaultErr  error
)

// DefaultCatalogue returns the embedded catalogue, compiled once.
func DefaultCatalogue() (*Catalogue, error) {
	defaultOnce.Do(func() {
		defaultCat, defaultErr = ParseCatalogue(defaultCatalogue)
	})
	return defaultCat, defaultErr
}

// Rules returns the rules in declared order.
func (c *Catalogue) Rules() []Rule {
	return append([]Rule(nil), c.rules...)
}

// profileStatus compares a rule against the company profile.
func (r Rule) profileStatus(p *domain.CompanyProfile) string {
	if p.IsZero() {
		return domain.ProfileNotEvaluated
	}
	var ok bool
	if r.Certification != "" {
		ok = p.HasCertification(r.Certification)
	} else {
		ok = p.HasDocument(r.Document)
	}
	if ok {
		return domain.ProfileMet
	}
	return domain.ProfileUnmet
}
