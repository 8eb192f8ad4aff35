package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/licita-cli/internal/connectors/filesystem"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driving"
	"github.com/custodia-labs/licita-cli/internal/logger"
)

var (
	watchQuiet        time.Duration
	watchProfile      string
	watchQuestions    []string
	watchExportDir    string
	watchExportFormat string
)

// batchSource yields ready batches until ctx ends.
type batchSource interface {
	Watch(ctx context.Context) (<-chan filesystem.Batch, error)
	Close() error
}

var newBatchSource = func(root string, quiet time.Duration) batchSource {
	return filesystem.NewWatcher(root, quiet)
}

var watchCmd = &cobra.Command{
	Use:   "watch <inbox>",
	Short: "Analyse each new folder dropped into an inbox",
	Long: `Watches an inbox directory. Every new sub-folder becomes one batch named
after the folder, analysed once no file in it has changed for --quiet.

Examples:
  licita watch ~/licitacoes/inbox
  licita watch ./inbox --profile empresa.toml --export-dir ./relatorios`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	f := watchCmd.Flags()
	f.DurationVar(&watchQuiet, "quiet", filesystem.DefaultQuietPeriod, "time without changes before a folder is analysed")
	f.StringVar(&watchProfile, "profile", "", "company profile file (TOML)")
	f.StringArrayVarP(&watchQuestions, "question", "q", nil, "question answered for every batch (repeatable)")
	f.StringVar(&watchExportDir, "export-dir", "", "write each report into this directory")
	f.StringVar(&watchExportFormat, "export-format", "xlsx", "format of exported reports")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}

	var profile *domain.CompanyProfile
	if watchProfile != "" {
		if loadProfile == nil {
			return errors.New("profile loader not configured")
		}
		p, err := loadProfile(watchProfile)
		if err != nil {
			return fmt.Errorf("loading profile: %w", err)
		}
		profile = p
	}
	if watchExportDir != "" {
		if err := os.MkdirAll(watchExportDir, 0o755); err != nil {
			return fmt.Errorf("export dir: %w", err)
		}
	}

	source := newBatchSource(args[0], watchQuiet)
	defer func() { _ = source.Close() }()

	ctx := cmd.Context()
	batches, err := source.Watch(ctx)
	if err != nil {
		return err
	}
	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])

	for b := range batches {
		req := driving.AnalyzeRequest{
			BatchID:   b.Name,
			Documents: b.Documents,
			Profile:   profile,
			Questions: watchQuestions,
		}
		cmd.Printf("%s: %d documents\n", b.Name, len(b.Documents))

		report, err := analysisService.Analyze(ctx, req)
		if err != nil {
			logger.Warn("batch %s: %v", b.Name, err)
			cmd.Printf("%s: failed: %v\n", b.Name, err)
			continue
		}
		cmd.Printf("%s: %s\n", b.Name, summaryLine(report))

		if watchExportDir != "" {
			path := filepath.Join(watchExportDir, report.LoteID+"."+watchExportFormat)
			if _, err := exportReport(ctx, report.LoteID, watchExportFormat, path); err != nil {
				logger.Warn("batch %s: %v", b.Name, err)
				continue
			}
			cmd.Printf("%s: report written to %s\n", b.Name, path)
		}
	}
	return nil
}

// summaryLine renders a report as "status, GO (risk medium)".
func summaryLine(r *domain.FinalReport) string {
	d, ok := r.Decision()
	if !ok {
		return string(r.Status)
	}
	return fmt.Sprintf("%s, %s (risk %s)", r.Status, d.Recommendation, d.OverallSeverity)
}
