package oracle

import (
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

// Ensure ConfigValidator implements the interface.
var _ driven.OracleConfigValidator = (*ConfigValidator)(nil)

// ConfigValidator checks oracle settings by connecting to the backend.
type ConfigValidator struct{}

// NewConfigValidator creates a new ConfigValidator.
func NewConfigValidator() *ConfigValidator {
	return &ConfigValidator{}
}

// ValidateOracle returns nil if the oracle is reachable or not configured.
func (v *ConfigValidator) ValidateOracle(settings *domain.OracleSettings) error {
	client, err := CreateAndValidate(settings)
	if err != nil {
		return err
	}
	if client != nil {
		client.Close()
	}
	return nil
}
