package file

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// LoadProfile reads a company profile TOML file. Unknown keys are an
// error so that a typo such as "small_busines" is not silently ignored.
func LoadProfile(path string) (*domain.CompanyProfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	var p domain.CompanyProfile
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		var strict *toml.StrictMissingError
		if errors.As(err, &strict) {
			return nil, fmt.Errorf("%w: profile %s: %s", domain.ErrInvalidInput, path, strict.String())
		}
		return nil, fmt.Errorf("%w: profile %s: %v", domain.ErrInvalidInput, path, err)
	}
	if p.MaxContractValue < 0 {
		return nil, fmt.Errorf("%w: profile %s: max_contract_value is negative", domain.ErrInvalidInput, path)
	}
	return &p, nil
}
