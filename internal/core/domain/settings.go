package domain

const unknownDescription = "Unknown"

// OracleProvider identifies the backend of the structured-extraction oracle.
type OracleProvider string

// Available oracle providers.
const (
	// OracleProviderNone disables the oracle; agents fall back to pattern extraction.
	OracleProviderNone OracleProvider = "none"

	// OracleProviderOllama is a local Ollama instance.
	OracleProviderOllama OracleProvider = "ollama"

	// OracleProviderOpenAI is an OpenAI-compatible chat completions API.
	OracleProviderOpenAI OracleProvider = "openai"
)

// IsValid returns true if the provider is recognised.
func (p OracleProvider) IsValid() bool {
	switch p {
	case OracleProviderNone, OracleProviderOllama, OracleProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p OracleProvider) RequiresAPIKey() bool {
	return p == OracleProviderOpenAI
}

// IsLocal returns true if this provider runs locally.
func (p OracleProvider) IsLocal() bool {
	return p == OracleProviderOllama
}

// String returns the string representation.
func (p OracleProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p OracleProvider) Description() string {
	switch p {
	case OracleProviderNone:
		return "None (pattern extraction only)"
	case OracleProviderOllama:
		return "Ollama (local)"
	case OracleProviderOpenAI:
		return "OpenAI (cloud)"
	default:
		return unknownDescription
	}
}

// AllOracleProviders returns all oracle providers.
func AllOracleProviders() []OracleProvider {
	return []OracleProvider{
		OracleProviderNone,
		OracleProviderOllama,
		OracleProviderOpenAI,
	}
}

// DefaultOracleModels returns default models for each provider.
func DefaultOracleModels() map[OracleProvider]string {
	return map[OracleProvider]string{
		OracleProviderOllama: "llama3.2",
		OracleProviderOpenAI: "gpt-4o-mini",
	}
}

// BatchSettings bounds what a single upload may contain.
type BatchSettings struct {
	MaxFiles      int
	MaxFileSizeMB int
}

// MaxFileBytes returns the per-file size limit in bytes.
func (b BatchSettings) MaxFileBytes() int64 {
	return int64(b.MaxFileSizeMB) * 1024 * 1024
}

// PipelineSettings holds the fusion pipeline thresholds.
type PipelineSettings struct {
	// OCRFloor is the global OCR quality below which validation warns.
	OCRFloor float64

	// SimilarityThreshold is the cosine similarity above which two
	// documents of similar length are considered duplicates.
	SimilarityThreshold float64

	// LengthRatioThreshold is the minimum shorter/longer length ratio
	// for two documents to be compared for duplication.
	LengthRatioThreshold float64

	// SampleTokens bounds the similarity sketch.
	SampleTokens int
}

// ExtractionSettings holds text extraction configuration.
type ExtractionSettings struct {
	TimeoutSeconds int
	OCRLanguage    string
}

// OracleSettings holds the structured-extraction oracle configuration.
type OracleSettings struct {
	Provider OracleProvider
	Model    string
	BaseURL  string
	APIKey   string

	TimeoutSeconds    int
	RequestsPerMinute int
}

// IsConfigured returns true if an oracle backend is set up.
func (o OracleSettings) IsConfigured() bool {
	if !o.Provider.IsValid() || o.Provider == OracleProviderNone {
		return false
	}
	if o.Provider.RequiresAPIKey() && o.APIKey == "" {
		return false
	}
	return true
}

// AgentSettings holds orchestrator configuration.
type AgentSettings struct {
	// Concurrency bounds how many agents of one wave run at once.
	Concurrency int
}

// StorageSettings holds persistence configuration.
type StorageSettings struct {
	// Path is the SQLite database file. Empty uses ~/.licita/licita.db;
	// ":memory:" keeps batches in process memory only.
	Path string
}

// AppSettings holds all application settings.
type AppSettings struct {
	Batch      BatchSettings
	Pipeline   PipelineSettings
	Extraction ExtractionSettings
	Oracle     OracleSettings
	Agents     AgentSettings
	Storage    StorageSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// The oracle is left unconfigured; agents then rely on pattern extraction.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Batch: BatchSettings{
			MaxFiles:      10,
			MaxFileSizeMB: 25,
		},
		Pipeline: PipelineSettings{
			OCRFloor:             50,
			SimilarityThreshold:  0.95,
			LengthRatioThreshold: 0.90,
			SampleTokens:         2000,
		},
		Extraction: ExtractionSettings{
			TimeoutSeconds: 60,
			OCRLanguage:    "por",
		},
		Oracle: OracleSettings{
			Provider:          OracleProviderNone,
			TimeoutSeconds:    30,
			RequestsPerMinute: 30,
		},
		Agents: AgentSettings{
			Concurrency: 4,
		},
	}
}
