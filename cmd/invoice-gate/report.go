package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/invoicegate/invoice-gate/internal/export"
)

var (
	reportOut   string
	reportLimit int
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Export verification runs to an XLSX workbook",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		out, err := export.NewService(db, logger).ExportRunsXLSX(cmd.Context(), reportLimit)
		if err != nil {
			return fmt.Errorf("export runs: %w", err)
		}
		if err := os.WriteFile(reportOut, out, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", reportOut, err)
		}
		fmt.Printf("wrote %s (%d bytes)\n", reportOut, len(out))
		return nil
	},
}

func init() {
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "invoice-runs.xlsx",
		"output file path")
	reportCmd.Flags().IntVarP(&reportLimit, "limit", "n", 100,
		"maximum number of runs to export, newest first")
	rootCmd.AddCommand(reportCmd)
}
