package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	corpusJSON   bool
	corpusOutput string
)

var corpusCmd = &cobra.Command{
	Use:   "corpus",
	Short: "Inspect the fused corpus of a stored batch",
}

var corpusLineCmd = &cobra.Command{
	Use:   "line <batch> <line>",
	Short: "Show one global line and where it came from",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if corpusService == nil {
			return errors.New("corpus service not configured")
		}
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid line number %q", args[1])
		}

		lookup, err := corpusService.GetLine(cmd.Context(), args[0], n)
		if err != nil {
			return fmt.Errorf("line %d of %s: %w", n, args[0], err)
		}
		if corpusJSON {
			return writeJSON(cmd.OutOrStdout(), lookup)
		}
		newPrinter(cmd.OutOrStdout()).line(lookup)
		return nil
	},
}

var corpusExportCmd = &cobra.Command{
	Use:   "export <batch>",
	Short: "Write the canonical corpus as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if corpusService == nil {
			return errors.New("corpus service not configured")
		}
		corpus, err := corpusService.GetCorpus(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("corpus %s: %w", args[0], err)
		}
		return writeTo(cmd.OutOrStdout(), corpusOutput, func(w io.Writer) error {
			return writeJSON(w, corpus)
		})
	},
}

func init() {
	corpusLineCmd.Flags().BoolVar(&corpusJSON, "json", false, "print the line as JSON")
	corpusExportCmd.Flags().StringVarP(&corpusOutput, "output", "o", "", "output file (default stdout)")

	corpusCmd.AddCommand(corpusLineCmd)
	corpusCmd.AddCommand(corpusExportCmd)
	rootCmd.AddCommand(corpusCmd)
}
