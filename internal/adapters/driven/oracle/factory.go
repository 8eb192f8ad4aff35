// Package oracle builds extraction oracle clients from settings.
package oracle

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/licita-cli/internal/adapters/driven/oracle/ollama"
	"github.com/custodia-labs/licita-cli/internal/adapters/driven/oracle/openai"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for connectivity validation.
const pingTimeout = 5 * time.Second

// CreateClient builds the client for settings, paced by its request limit.
// Returns nil with no error when the oracle is disabled.
func CreateClient(settings *domain.OracleSettings) (driven.OracleClient, error) {
	if settings == nil {
		return nil, nil
	}

	timeout := time.Duration(settings.TimeoutSeconds) * time.Second
	var client driven.OracleClient
	switch settings.Provider {
	case domain.OracleProviderNone, "":
		return nil, nil
	case domain.OracleProviderOllama:
		// An OpenAI-style base URL means the compatibility endpoint.
		if strings.HasSuffix(strings.TrimRight(settings.BaseURL, "/"), "/v1") {
			client = openai.NewClient(openai.Config{
				BaseURL: settings.BaseURL,
				Model:   settings.Model,
				Timeout: timeout,
			})
			break
		}
		client = ollama.NewClient(ollama.Config{
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})
	case domain.OracleProviderOpenAI:
		if settings.APIKey == "" {
			return nil, fmt.Errorf("openai oracle requires an API key")
		}
		client = openai.NewClient(openai.Config{
			APIKey:  settings.APIKey,
			BaseURL: settings.BaseURL,
			Model:   settings.Model,
			Timeout: timeout,
		})
	default:
		return nil, fmt.Errorf("unsupported oracle provider: %s", settings.Provider)
	}

	return NewLimitedClient(client, settings.RequestsPerMinute), nil
}

// CreateAndValidate builds the client and pings it.
// Returns an error with guidance when the backend is unreachable.
func CreateAndValidate(settings *domain.OracleSettings) (driven.OracleClient, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	client, err := CreateClient(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'licita settings set oracle.provider none' to disable",
			domain.ErrOracleUnavailable, err)
	}
	if client == nil {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx); err != nil {
		client.Close()
		return nil, fmt.Errorf("%w: %s unreachable (%w)", domain.ErrOracleUnavailable, settings.Provider, err)
	}
	return client, nil
}
