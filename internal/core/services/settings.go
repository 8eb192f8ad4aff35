package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driven"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	KeyBatchMaxFiles         = "batch.max_files"
	KeyBatchMaxFileSizeMB    = "batch.max_file_size_mb"
	KeyPipelineOCRFloor      = "pipeline.ocr_floor"
	KeyDedupSimilarity       = "dedup.similarity_threshold"
	KeyDedupLengthRatio      = "dedup.length_ratio_threshold"
	KeyDedupSampleTokens     = "dedup.sample_tokens"
	KeyExtractionTimeout     = "extraction.timeout_seconds"
	KeyExtractionOCRLanguage = "extraction.ocr_language"
	KeyOracleProvider        = "oracle.provider"
	KeyOracleModel           = "oracle.model"
	KeyOracleBaseURL         = "oracle.base_url"
	KeyOracleAPIKey          = "oracle.api_key"
	KeyOracleTimeout         = "oracle.timeout_seconds"
	KeyOracleRequestsPerMin  = "oracle.requests_per_minute"
	KeyAgentsConcurrency     = "agents.concurrency"
	KeyStoragePath           = "storage.path"
	envPrefix                = "LICITA_"
)

type keyKind int

const (
	kindString keyKind = iota
	kindInt
	kindFloat
	kindProvider
)

var settingKeys = []struct {
	key  string
	kind keyKind
}{
	{KeyBatchMaxFiles, kindInt},
	{KeyBatchMaxFileSizeMB, kindInt},
	{KeyPipelineOCRFloor, kindFloat},
	{KeyDedupSimilarity, kindFloat},
	{KeyDedupLengthRatio, kindFloat},
	{KeyDedupSampleTokens, kindInt},
	{KeyExtractionTimeout, kindInt},
	{KeyExtractionOCRLanguage, kindString},
	{KeyOracleProvider, kindProvider},
	{KeyOracleModel, kindString},
	{KeyOracleBaseURL, kindString},
	{KeyOracleAPIKey, kindString},
	{KeyOracleTimeout, kindInt},
	{KeyOracleRequestsPerMin, kindInt},
	{KeyAgentsConcurrency, kindInt},
	{KeyStoragePath, kindString},
}

// SettingsService manages application settings.
// Environment variables named LICITA_<KEY> override stored values,
// with dots replaced by underscores (LICITA_ORACLE_API_KEY).
type SettingsService struct {
	configStore     driven.ConfigStore
	oracleValidator driven.OracleConfigValidator
	lookupEnv       func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, oracleValidator driven.OracleConfigValidator) *SettingsService {
	return &SettingsService{
		configStore:     configStore,
		oracleValidator: oracleValidator,
		lookupEnv:       os.LookupEnv,
	}
}

// EnvKey returns the environment variable that overrides key.
func EnvKey(key string) string {
	return envPrefix + strings.ToUpper(strings.ReplaceAll(key, ".", "_"))
}

// Get retrieves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Batch: domain.BatchSettings{
			MaxFiles:      s.getInt(KeyBatchMaxFiles, defaults.Batch.MaxFiles),
			MaxFileSizeMB: s.getInt(KeyBatchMaxFileSizeMB, defaults.Batch.MaxFileSizeMB),
		},
		Pipeline: domain.PipelineSettings{
			OCRFloor:             s.getFloat(KeyPipelineOCRFloor, defaults.Pipeline.OCRFloor),
			SimilarityThreshold:  s.getFloat(KeyDedupSimilarity, defaults.Pipeline.SimilarityThreshold),
			LengthRatioThreshold: s.getFloat(KeyDedupLengthRatio, defaults.Pipeline.LengthRatioThreshold),
			SampleTokens:         s.getInt(KeyDedupSampleTokens, defaults.Pipeline.SampleTokens),
		},
		Extraction: domain.ExtractionSettings{
			TimeoutSeconds: s.getInt(KeyExtractionTimeout, defaults.Extraction.TimeoutSeconds),
			OCRLanguage:    s.getString(KeyExtractionOCRLanguage, defaults.Extraction.OCRLanguage),
		},
		Oracle: domain.OracleSettings{
			Provider:          s.getProvider(defaults.Oracle.Provider),
			Model:             s.getString(KeyOracleModel, ""),
			BaseURL:           s.getString(KeyOracleBaseURL, ""),
			APIKey:            s.getString(KeyOracleAPIKey, ""),
			TimeoutSeconds:    s.getInt(KeyOracleTimeout, defaults.Oracle.TimeoutSeconds),
			RequestsPerMinute: s.getInt(KeyOracleRequestsPerMin, defaults.Oracle.RequestsPerMinute),
		},
		Agents: domain.AgentSettings{
			Concurrency: s.getInt(KeyAgentsConcurrency, defaults.Agents.Concurrency),
		},
		Storage: domain.StorageSettings{
			Path: s.getString(KeyStoragePath, defaults.Storage.Path),
		},
	}
	if settings.Oracle.Model == "" {
		settings.Oracle.Model = domain.DefaultOracleModels()[settings.Oracle.Provider]
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.configStore.Set(KeyBatchMaxFiles, settings.Batch.MaxFiles); err != nil {
		return fmt.Errorf("save batch max_files: %w", err)
	}
	if err := s.configStore.Set(KeyBatchMaxFileSizeMB, settings.Batch.MaxFileSizeMB); err != nil {
		return fmt.Errorf("save batch max_file_size_mb: %w", err)
	}

	if err := s.configStore.Set(KeyPipelineOCRFloor, settings.Pipeline.OCRFloor); err != nil {
		return fmt.Errorf("save pipeline ocr_floor: %w", err)
	}
	if err := s.configStore.Set(KeyDedupSimilarity, settings.Pipeline.SimilarityThreshold); err != nil {
		return fmt.Errorf("save dedup similarity_threshold: %w", err)
	}
	if err := s.configStore.Set(KeyDedupLengthRatio, settings.Pipeline.LengthRatioThreshold); err != nil {
		return fmt.Errorf("save dedup length_ratio_threshold: %w", err)
	}
	if err := s.configStore.Set(KeyDedupSampleTokens, settings.Pipeline.SampleTokens); err != nil {
		return fmt.Errorf("save dedup sample_tokens: %w", err)
	}

	if err := s.configStore.Set(KeyExtractionTimeout, settings.Extraction.TimeoutSeconds); err != nil {
		return fmt.Errorf("save extraction timeout_seconds: %w", err)
	}
	if err := s.configStore.Set(KeyExtractionOCRLanguage, settings.Extraction.OCRLanguage); err != nil {
		return fmt.Errorf("save extraction ocr_language: %w", err)
	}

	if err := s.configStore.Set(KeyOracleProvider, settings.Oracle.Provider.String()); err != nil {
		return fmt.Errorf("save oracle provider: %w", err)
	}
	if err := s.configStore.Set(KeyOracleModel, settings.Oracle.Model); err != nil {
		return fmt.Errorf("save oracle model: %w", err)
	}
	if err := s.configStore.Set(KeyOracleBaseURL, settings.Oracle.BaseURL); err != nil {
		return fmt.Errorf("save oracle base_url: %w", err)
	}
	if settings.Oracle.APIKey != "" {
		if err := s.configStore.Set(KeyOracleAPIKey, settings.Oracle.APIKey); err != nil {
			return fmt.Errorf("save oracle api_key: %w", err)
		}
	}
	if err := s.configStore.Set(KeyOracleTimeout, settings.Oracle.TimeoutSeconds); err != nil {
		return fmt.Errorf("save oracle timeout_seconds: %w", err)
	}
	if err := s.configStore.Set(KeyOracleRequestsPerMin, settings.Oracle.RequestsPerMinute); err != nil {
		return fmt.Errorf("save oracle requests_per_minute: %w", err)
	}

	if err := s.configStore.Set(KeyAgentsConcurrency, settings.Agents.Concurrency); err != nil {
		return fmt.Errorf("save agents concurrency: %w", err)
	}
	if err := s.configStore.Set(KeyStoragePath, settings.Storage.Path); err != nil {
		return fmt.Errorf("save storage path: %w", err)
	}

	return nil
}

// Set parses value according to the key's type and stores it.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := lookupKind(key)
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}
	parsed, err := parseSetting(kind, value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", domain.ErrInvalidInput, key, err)
	}
	if err := s.configStore.Set(key, parsed); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// Keys returns every supported setting key in display order.
func (s *SettingsService) Keys() []string {
	keys := make([]string, len(settingKeys))
	for i, k := range settingKeys {
		keys[i] = k.key
	}
	return keys
}

// Validate checks that the current settings are usable.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if settings.Batch.MaxFiles < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyBatchMaxFiles))
	}
	if settings.Batch.MaxFileSizeMB < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyBatchMaxFileSizeMB))
	}
	if f := settings.Pipeline.OCRFloor; f < 0 || f > 100 {
		errs = append(errs, fmt.Errorf("%s must be within [0,100], got %g", KeyPipelineOCRFloor, f))
	}
	if t := settings.Pipeline.SimilarityThreshold; t <= 0 || t > 1 {
		errs = append(errs, fmt.Errorf("%s must be within (0,1], got %g", KeyDedupSimilarity, t))
	}
	if t := settings.Pipeline.LengthRatioThreshold; t <= 0 || t > 1 {
		errs = append(errs, fmt.Errorf("%s must be within (0,1], got %g", KeyDedupLengthRatio, t))
	}
	if settings.Agents.Concurrency < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyAgentsConcurrency))
	}
	if !settings.Oracle.Provider.IsValid() {
		errs = append(errs, fmt.Errorf("invalid oracle provider: %s", settings.Oracle.Provider))
	} else if settings.Oracle.Provider.RequiresAPIKey() && settings.Oracle.APIKey == "" {
		errs = append(errs, fmt.Errorf("oracle provider %q requires %s (or %s)",
			settings.Oracle.Provider.Description(), KeyOracleAPIKey, EnvKey(KeyOracleAPIKey)))
	}
	return errors.Join(errs...)
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// ValidateOracleConfig validates the current oracle configuration by pinging the provider.
func (s *SettingsService) ValidateOracleConfig() error {
	if s.oracleValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.oracleValidator.ValidateOracle(&settings.Oracle)
}

// Helper methods for reading config with defaults. Environment overrides win.

func (s *SettingsService) raw(key string) (any, bool) {
	if v, ok := s.lookupEnv(EnvKey(key)); ok && v != "" {
		kind, _ := lookupKind(key)
		if parsed, err := parseSetting(kind, v); err == nil {
			return parsed, true
		}
	}
	return s.configStore.Get(key)
}

func (s *SettingsService) getString(key, defaultVal string) string {
	val, ok := s.raw(key)
	if !ok {
		return defaultVal
	}
	str, ok := val.(string)
	if !ok || str == "" {
		return defaultVal
	}
	return str
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val, ok := s.raw(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case int:
		if v != 0 {
			return v
		}
	case int64:
		if v != 0 {
			return int(v)
		}
	case float64:
		if v != 0 {
			return int(v)
		}
	}
	return defaultVal
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val, ok := s.raw(key)
	if !ok {
		return defaultVal
	}
	switch v := val.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return defaultVal
}

func (s *SettingsService) getProvider(defaultVal domain.OracleProvider) domain.OracleProvider {
	val := s.getString(KeyOracleProvider, "")
	if val == "" {
		return defaultVal
	}
	provider := domain.OracleProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}

func lookupKind(key string) (keyKind, bool) {
	for _, k := range settingKeys {
		if k.key == key {
			return k.kind, true
		}
	}
	return kindString, false
}

func parseSetting(kind keyKind, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch kind {
	case kindInt:
		n, err := strconv.Atoi(value)
		if err != nil {
			return nil, fmt.Errorf("expected an integer, got %q", value)
		}
		return n, nil
	case kindFloat:
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return nil, fmt.Errorf("expected a number, got %q", value)
		}
		return f, nil
	case kindProvider:
		p := domain.OracleProvider(strings.ToLower(value))
		if !p.IsValid() {
			return nil, fmt.Errorf("unknown oracle provider %q", value)
		}
		return p.String(), nil
	default:
		return value, nil
	}
}
