package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/custodia-labs/licita-cli/internal/adapters/driving/tui"
	"github.com/custodia-labs/licita-cli/internal/core/domain"
	"github.com/custodia-labs/licita-cli/internal/core/ports/driving"
)

var (
	analyzeBatchID   string
	analyzeProfile   string
	analyzeQuestions []string
	analyzeProgress  bool
	analyzeJSON      bool
	analyzeExport    string
	analyzeOutput    string
)

// runProgress is swapped in tests.
var runProgress = func(ctx context.Context, batchID string, fn tui.AnalyzeFunc) (*domain.FinalReport, error) {
	return tui.Run(ctx, batchID, fn)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze <file|dir>...",
	Short: "Analyse a batch of procurement documents",
	Long: `Runs the full pipeline on one batch: classification, deduplication,
indexing, fusion and validation, then the eight extraction agents.

Directories are read recursively; hidden files are skipped. The report is
stored and printed. Use --export to also write it as json or xlsx.

Examples:
  licita analyze edital.pdf termo-de-referencia.pdf planilha.xlsx
  licita analyze ./pregao-12-2025 --profile empresa.toml --question "Qual o prazo de entrega?"
  licita analyze ./pregao-12-2025 --export xlsx -o relatorio.xlsx`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.StringVar(&analyzeBatchID, "batch", "", "batch id (generated when empty)")
	f.StringVar(&analyzeProfile, "profile", "", "company profile file (TOML)")
	f.StringArrayVarP(&analyzeQuestions, "question", "q", nil, "question answered from the corpus (repeatable)")
	f.BoolVar(&analyzeProgress, "progress", true, "show live progress on a terminal")
	f.BoolVar(&analyzeJSON, "json", false, "print the report as JSON")
	f.StringVar(&analyzeExport, "export", "", "also export the report (json, xlsx)")
	f.StringVarP(&analyzeOutput, "output", "o", "", "export file (default <batch>.<format>)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analysisService == nil {
		return errors.New("analysis service not configured")
	}

	req, err := buildRequest(args, analyzeBatchID, analyzeProfile, analyzeQuestions)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	var report *domain.FinalReport
	if analyzeProgress && !analyzeJSON && isTerminal(cmd.OutOrStdout()) {
		report, err = runProgress(ctx, req.BatchID, func(ctx context.Context, progress func(domain.ProgressEvent)) (*domain.FinalReport, error) {
			req.Progress = progress
			return analysisService.Analyze(ctx, req)
		})
	} else {
		report, err = analysisService.Analyze(ctx, req)
	}
	if err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}

	if analyzeExport != "" {
		path, err := exportReport(ctx, report.LoteID, analyzeExport, analyzeOutput)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Report written to %s\n", path)
	}

	if analyzeJSON {
		return writeJSON(cmd.OutOrStdout(), report)
	}
	newPrinter(cmd.OutOrStdout()).report(report)
	return nil
}

// buildRequest loads the documents and profile of one batch.
func buildRequest(paths []string, batchID, profilePath string, questions []string) (driving.AnalyzeRequest, error) {
	docs, err := loadDocuments(paths...)
	if err != nil {
		return driving.AnalyzeRequest{}, fmt.Errorf("loading documents: %w", err)
	}
	if batchID == "" {
		batchID = uuid.NewString()
	}

	req := driving.AnalyzeRequest{
		BatchID:   batchID,
		Documents: docs,
		Questions: questions,
	}
	if profilePath != "" {
		if loadProfile == nil {
			return driving.AnalyzeRequest{}, errors.New("profile loader not configured")
		}
		profile, err := loadProfile(profilePath)
		if err != nil {
			return driving.AnalyzeRequest{}, fmt.Errorf("loading profile: %w", err)
		}
		req.Profile = profile
	}
	return req, nil
}

// exportReport writes a stored report to path, or to <batch>.<format>
// when path is empty. Returns the path written.
func exportReport(ctx context.Context, batchID, format, path string) (string, error) {
	if corpusService == nil {
		return "", errors.New("corpus service not configured")
	}
	if path == "" {
		path = batchID + "." + format
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := corpusService.ExportReport(ctx, batchID, format, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("export failed: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// writeTo runs write against path, or against w when path is empty or "-".
func writeTo(w io.Writer, path string, write func(io.Writer) error) error {
	if path == "" || path == "-" {
		return write(w)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
