package driven

import "github.com/custodia-labs/licita-cli/internal/core/domain"

// OracleConfigValidator validates oracle configurations by testing connectivity.
type OracleConfigValidator interface {
	// ValidateOracle returns nil if the configuration is valid or not configured.
	ValidateOracle(settings *domain.OracleSettings) error
}
