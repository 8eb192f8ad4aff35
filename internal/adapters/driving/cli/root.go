// Package cli implements the licita command line.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/licita-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driving"
	"github.com/custodia-labs/licita-cli/internal/logger"
)

var version = "dev"

var (
	analysisService driving.AnalysisService
	corpusService   driving.CorpusService
	settingsService driving.SettingsService
)

// Swappable in tests.
var (
	loadDocuments = filesystem.Load
	loadProfile   func(path string) (*domain.CompanyProfile, error)
)

var verbose bool

var rootCmd = &cobra.Command{
	Use:   "licita",
	Short: "Fuse procurement documents and extract evidence-bound facts",
	Long: `licita ingests the documents of a public procurement (notice, technical
terms, clarifications, spreadsheets), fuses them into one line-addressable
corpus and runs eight extraction agents over it. Every fact in the report
cites the corpus lines it was copied from, or says NO DATA FOUND.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print pipeline and agent logs to stderr")
}

// Services bundles the driving ports the commands use.
type Services struct {
	Analysis driving.AnalysisService
	Corpus   driving.CorpusService
	Settings driving.SettingsService

	// LoadProfile reads a company profile file for --profile.
	LoadProfile func(path string) (*domain.CompanyProfile, error)
}

// SetServices injects the services built by main.
func SetServices(s Services) {
	analysisService = s.Analysis
	corpusService = s.Corpus
	settingsService = s.Settings
	loadProfile = s.LoadProfile
}

// SetVersion sets the version printed by `licita version`.
func SetVersion(v string) {
	version = v
}

// Execute runs the root command. Cancelling ctx stops long-running
// commands such as analyze, watch and mcp serve.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
