package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/licita-cli/internal/core/domain"
)

var validateJSON bool

var validateCmd = &cobra.Command{
	Use:   "validate <file|dir>...",
	Short: "Build and validate the fused corpus without running agents",
	Long: `Classifies, deduplicates and fuses the documents, then checks the corpus
structure (line continuity, segment coverage, OCR quality). Exits non-zero
when the corpus would be rejected by analyze.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if analysisService == nil {
			return errors.New("analysis service not configured")
		}

		req, err := buildRequest(args, "", "", nil)
		if err != nil {
			return err
		}

		res, err := analysisService.BuildCorpus(cmd.Context(), req)
		if err != nil && !errors.Is(err, domain.ErrCorpusInvalid) {
			return fmt.Errorf("building corpus: %w", err)
		}
		if res != nil {
			if validateJSON {
				if werr := writeJSON(cmd.OutOrStdout(), res); werr != nil {
					return werr
				}
			} else {
				newPrinter(cmd.OutOrStdout()).validation(res)
			}
		}
		return err
	},
}

func init() {
	validateCmd.Flags().BoolVar(&validateJSON, "json", false, "print the pipeline result as JSON")
	rootCmd.AddCommand(validateCmd)
}
