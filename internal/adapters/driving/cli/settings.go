package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/licita-cli/internal/core/services"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and change batch limits, pipeline thresholds, the extraction oracle
and storage. Every key can also be overridden by an environment variable,
for example LICITA_ORACLE_API_KEY for oracle.api_key.`,
	RunE: runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current settings",
	RunE:  runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set one setting",
	Long: `Set one setting by its dotted key.

Examples:
  licita settings set oracle.provider ollama
  licita settings set oracle.model llama3.1
  licita settings set dedup.similarity_threshold 0.9`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		if err := settingsService.Set(args[0], args[1]); err != nil {
			return fmt.Errorf("failed to set %s: %w", args[0], err)
		}
		value := args[1]
		if args[0] == services.KeyOracleAPIKey {
			value = maskAPIKey(value)
		}
		cmd.Printf("Set %s = %s\n", args[0], value)
		return nil
	},
}

var settingsKeysCmd = &cobra.Command{
	Use:   "keys",
	Short: "List setting keys and their environment variables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		for _, key := range settingsService.Keys() {
			cmd.Printf("  %-30s %s\n", key, services.EnvKey(key))
		}
		return nil
	},
}

var settingsCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Check the oracle connection",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if settingsService == nil {
			return errors.New("settings service not configured")
		}
		if err := settingsService.ValidateOracleConfig(); err != nil {
			return fmt.Errorf("oracle check failed: %w", err)
		}
		cmd.Println("Oracle is reachable.")
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsCheckCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[Batch]")
	cmd.Printf("  Max files: %d\n", settings.Batch.MaxFiles)
	cmd.Printf("  Max file size: %d MB\n", settings.Batch.MaxFileSizeMB)
	cmd.Println()

	cmd.Println("[Pipeline]")
	cmd.Printf("  OCR floor: %.0f\n", settings.Pipeline.OCRFloor)
	cmd.Printf("  Duplicate similarity: %.2f\n", settings.Pipeline.SimilarityThreshold)
	cmd.Printf("  Length ratio: %.2f\n", settings.Pipeline.LengthRatioThreshold)
	cmd.Printf("  Sample tokens: %d\n", settings.Pipeline.SampleTokens)
	cmd.Println()

	cmd.Println("[Extraction]")
	cmd.Printf("  Timeout: %ds\n", settings.Extraction.TimeoutSeconds)
	cmd.Printf("  OCR language: %s\n", settings.Extraction.OCRLanguage)
	cmd.Println()

	cmd.Println("[Oracle]")
	cmd.Printf("  Provider: %s\n", settings.Oracle.Provider.Description())
	if settings.Oracle.Model != "" {
		cmd.Printf("  Model: %s\n", settings.Oracle.Model)
	}
	if settings.Oracle.Provider.IsLocal() {
		cmd.Printf("  Base URL: %s\n", settings.Oracle.BaseURL)
	}
	if settings.Oracle.Provider.RequiresAPIKey() {
		if settings.Oracle.APIKey != "" {
			cmd.Printf("  API Key: %s\n", maskAPIKey(settings.Oracle.APIKey))
		} else {
			cmd.Printf("  API Key: (not set)\n")
		}
	}
	status := "configured"
	if !settings.Oracle.IsConfigured() {
		status = "not configured (pattern extraction only)"
	}
	cmd.Printf("  Status: %s\n", status)
	cmd.Println()

	cmd.Println("[Agents]")
	cmd.Printf("  Concurrency: %d\n", settings.Agents.Concurrency)
	cmd.Println()

	cmd.Println("[Storage]")
	if settings.Storage.Path != "" {
		cmd.Printf("  Database: %s\n", settings.Storage.Path)
	} else {
		cmd.Printf("  Database: (in memory)\n")
	}
	cmd.Println()

	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'licita settings set <key> <value>' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
