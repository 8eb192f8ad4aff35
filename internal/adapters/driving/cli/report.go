package cli

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
)

var (
	reportJSON   bool
	reportFormat string
	reportOutput string
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Show or export the report of a stored batch",
}

var reportShowCmd = &cobra.Command{
	Use:   "show <batch>",
	Short: "Print a stored report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if corpusService == nil {
			return errors.New("corpus service not configured")
		}
		report, err := corpusService.GetReport(cmd.Context(), args[0])
		if err != nil {
			return fmt.Errorf("report %s: %w", args[0], err)
		}
		if reportJSON {
			return writeJSON(cmd.OutOrStdout(), report)
		}
		newPrinter(cmd.OutOrStdout()).report(report)
		return nil
	},
}

var reportExportCmd = &cobra.Command{
	Use:   "export <batch>",
	Short: "Export a stored report to a file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if corpusService == nil {
			return errors.New("corpus service not configured")
		}
		formats := corpusService.ExportFormats()
		if !slices.Contains(formats, reportFormat) {
			return fmt.Errorf("unknown format %q (available: %s)", reportFormat, strings.Join(formats, ", "))
		}

		path, err := exportReport(cmd.Context(), args[0], reportFormat, reportOutput)
		if err != nil {
			return err
		}
		cmd.Printf("Report written to %s\n", path)
		return nil
	},
}

func init() {
	reportShowCmd.Flags().BoolVar(&reportJSON, "json", false, "print the report as JSON")
	reportExportCmd.Flags().StringVarP(&reportFormat, "format", "f", "xlsx", "export format")
	reportExportCmd.Flags().StringVarP(&reportOutput, "output", "o", "", "output file (default <batch>.<format>)")

	reportCmd.AddCommand(reportShowCmd)
	reportCmd.AddCommand(reportExportCmd)
	rootCmd.AddCommand(reportCmd)
}
