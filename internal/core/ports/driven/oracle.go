package driven

import (
	"context"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

// OracleClient is a chat-completions backend used by the extraction oracle.
//
// Implementations may include:
//   - OpenAI-compatible APIs (OpenAI, Azure, LM Studio)
//   - Ollama (local models)
type OracleClient interface {
	// Chat conducts a single conversation and returns the assistant reply.
	Chat(ctx context.Context, messages []ChatMessage, opts ChatOptions) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// ChatMessage represents a single message in a conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	Content string
}

// ChatOptions configures chat behaviour.
type ChatOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic, 1.0 = creative).
	Temperature float64

	// JSON asks the backend for a JSON object response when supported.
	JSON bool
}

// OracleField is one value the oracle is asked to copy out of the context.
type OracleField struct {
	Name        string
	Description string
}

// OracleRequest asks the oracle to structure a slice of corpus text.
type OracleRequest struct {
	Fields  []OracleField
	Context string

	// Log receives failures swallowed by guarded oracles. Optional.
	Log domain.LogSink
}

// FieldNames returns the requested field names in order.
func (r OracleRequest) FieldNames() []string {
	names := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		names[i] = f.Name
	}
	return names
}

// ExtractionOracle turns free text into named string fields.
// Its answers are untrusted: callers keep a value only if it occurs
// verbatim in the corpus.
type ExtractionOracle interface {
	Structure(ctx context.Context, req OracleRequest) (map[string]string, error)
}
