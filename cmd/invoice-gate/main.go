// Package main is the entry point for the invoice-gate CLI.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/invoicegate/invoice-gate/internal/common"
	"github.com/invoicegate/invoice-gate/internal/extract"
	"github.com/invoicegate/invoice-gate/internal/llm"
	"github.com/invoicegate/invoice-gate/internal/llm/mistral"
	"github.com/invoicegate/invoice-gate/internal/money"
	"github.com/invoicegate/invoice-gate/internal/ocr"
	"github.com/invoicegate/invoice-gate/internal/reconcile"
	"github.com/invoicegate/invoice-gate/internal/storage"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfg     *common.Config
	logger  *slog.Logger
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "invoice-gate",
	Short: "Invoice / purchase-order reconciliation pipeline",
	Long: `invoice-gate ingests scanned or photographed purchase orders and invoices,
extracts structured fields through OCR plus a model-backed parser (with a
regex fallback), links each invoice to its purchase order, and reports a
tolerance-based comparison verdict with itemized discrepancies.

Each pipeline stage is a subcommand: extract, process, compare, and report.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		_ = godotenv.Load()
		cfg = common.LoadConfig()

		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
		slog.SetDefault(logger)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// Shared wiring between subcommands.

func openDB() (*storage.DB, error) {
	db, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, common.WrapError(err, "open database")
	}
	return db, nil
}

// newComparator returns the external comparator, or nil in fallback-only
// deployments without an API key.
func newComparator() llm.Comparator {
	if cfg.LLM.APIKey == "" {
		logger.Info("llm.disabled", "reason", "no API key configured")
		return nil
	}
	return newMistral()
}

func newFieldExtractor() llm.FieldExtractor {
	if cfg.LLM.APIKey == "" {
		return nil
	}
	return newMistral()
}

func newMistral() *mistral.Client {
	return mistral.NewClient(mistral.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		Timeout:     cfg.LLM.Timeout,
	}, logger)
}

func newOCRExtractor() *ocr.Extractor {
	return ocr.NewExtractor(ocr.Config{
		Pdftotext:     cfg.OCR.Pdftotext,
		Pdftoppm:      cfg.OCR.Pdftoppm,
		Tesseract:     cfg.OCR.Tesseract,
		TesseractLang: cfg.OCR.TesseractLang,
		DPI:           cfg.OCR.DPI,
		MaxPages:      cfg.OCR.MaxPages,
	}, logger)
}

func newExtractService() *extract.Service {
	return extract.NewService(newFieldExtractor(), logger)
}

func newEngine() *reconcile.Engine {
	return reconcile.NewEngine(newComparator(), logger)
}

func compareOptions(itemTol, totalTol string) (reconcile.Options, error) {
	opts := reconcile.Options{
		ItemTolerance:  cfg.Tolerance.Item(),
		TotalTolerance: cfg.Tolerance.Total(),
	}
	if itemTol != "" {
		t, err := parseTolerance(itemTol)
		if err != nil {
			return opts, err
		}
		opts.ItemTolerance = t
	}
	if totalTol != "" {
		t, err := parseTolerance(totalTol)
		if err != nil {
			return opts, err
		}
		opts.TotalTolerance = t
	}
	return opts, nil
}

// parseTolerance reads a "rel/abs" pair, e.g. "0.02/1.00".
func parseTolerance(s string) (money.Tolerance, error) {
	var tol money.Tolerance
	if _, err := fmt.Sscanf(s, "%f/%f", &tol.Rel, &tol.Abs); err != nil {
		return money.Tolerance{}, common.NewAppError("CONFIG_ERROR",
			"tolerance must look like rel/abs, e.g. 0.02/1.00", err)
	}
	return tol, nil
}
