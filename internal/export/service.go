// Package export renders verification results as XLSX workbooks for the
// finance reviewers who live in spreadsheets.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/money"
	"github.com/invoicegate/invoice-gate/internal/storage"
)

const (
	runsSheet = "Runs"
	discSheet = "Discrepancies"
)

// Service produces XLSX bytes from stored verification runs.
type Service struct {
	db     *storage.DB
	logger *slog.Logger
}

func NewService(db *storage.DB, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{db: db, logger: logger}
}

// ExportRunsXLSX returns a workbook with one row per verification run and a
// second sheet listing every classified discrepancy.
func (s *Service) ExportRunsXLSX(ctx context.Context, limit int) ([]byte, error) {
	start := time.Now()

	runs, err := s.db.ListRuns(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", runsSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(discSheet); err != nil {
		return nil, err
	}

	writeRow(f, runsSheet, 1,
		"Run ID", "Invoice ID", "PO ID", "Verdict", "Summary",
		"Mismatches", "Matched Items",
		"Quantities OK", "Prices OK", "Totals OK", "Currency OK", "Linked",
		"Invoice Total", "PO Total", "Duration (ms)", "Finished At")
	writeRow(f, discSheet, 1,
		"Run ID", "Level", "Type", "Item #", "Field", "Expected", "Actual", "Message")

	discRow := 2
	for i, run := range runs {
		invoiceTotal, poTotal := "", ""
		if verdict, err := s.db.RunVerdict(ctx, run.ID.String()); err == nil && verdict != nil {
			invoiceTotal = money.FormatUSD(verdict.Details.InvoiceTotal)
			poTotal = money.FormatUSD(verdict.Details.POTotal)
		}

		writeRow(f, runsSheet, i+2,
			run.ID.String(), run.InvoiceID, run.POID, string(run.VerdictStatus), run.Summary,
			run.MismatchCount, run.MatchedItemCount,
			run.QuantitiesOK, run.PricesOK, run.TotalsOK, run.CurrencyOK, run.LinkageOK,
			invoiceTotal, poTotal, run.DurationMS, run.FinishedAt.Format(time.RFC3339))

		discs, err := s.db.RunDiscrepancies(ctx, run.ID.String())
		if err != nil {
			return nil, fmt.Errorf("query discrepancies for run %s: %w", run.ID, err)
		}
		for _, disc := range discs {
			writeRow(f, discSheet, discRow,
				run.ID.String(), string(disc.Level), string(disc.Type),
				itemRef(disc), disc.Field, disc.Expected, disc.Actual, disc.Message)
			discRow++
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render workbook: %w", err)
	}

	s.logger.Info("export.runs.ok",
		"runs", len(runs),
		"discrepancies", discRow-2,
		"bytes", buf.Len(),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}

func writeRow(f *excelize.File, sheet string, row int, values ...any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func itemRef(d entity.Discrepancy) string {
	if d.ItemIndex == nil {
		return ""
	}
	return fmt.Sprintf("%d", *d.ItemIndex+1)
}
