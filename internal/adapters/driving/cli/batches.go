package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	batchesLimit int
	batchesJSON  bool
)

var batchesCmd = &cobra.Command{
	Use:   "batches",
	Short: "List stored batches, newest first",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if corpusService == nil {
			return errors.New("corpus service not configured")
		}
		records, err := corpusService.ListBatches(cmd.Context(), batchesLimit)
		if err != nil {
			return fmt.Errorf("listing batches: %w", err)
		}
		if batchesJSON {
			return writeJSON(cmd.OutOrStdout(), records)
		}
		newPrinter(cmd.OutOrStdout()).batches(records)
		return nil
	},
}

var batchesDeleteCmd = &cobra.Command{
	Use:   "delete <batch>",
	Short: "Delete a stored batch with its corpus and report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if corpusService == nil {
			return errors.New("corpus service not configured")
		}
		if err := corpusService.DeleteBatch(cmd.Context(), args[0]); err != nil {
			return fmt.Errorf("delete %s: %w", args[0], err)
		}
		cmd.Printf("Deleted batch %s\n", args[0])
		return nil
	},
}

func init() {
	batchesCmd.Flags().IntVarP(&batchesLimit, "limit", "n", 20, "maximum number of batches")
	batchesCmd.Flags().BoolVar(&batchesJSON, "json", false, "print as JSON")

	batchesCmd.AddCommand(batchesDeleteCmd)
	rootCmd.AddCommand(batchesCmd)
}
