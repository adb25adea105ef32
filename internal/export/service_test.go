package export

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/storage"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestExportRunsXLSX(t *testing.T) {
	db, err := storage.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	ctx := context.Background()

	invID, err := db.SaveInvoice(ctx, &entity.ParsedDocument{
		ID: "INV-1", DocType: constants.DocTypeInvoice, Vendor: "Acme", Total: dec("1050.00"),
	}, "", "")
	require.NoError(t, err)

	verdict := entity.Verdict{
		Status:  constants.VerdictNeedsReview,
		Summary: "Rule-based comparison found 1 issue(s)",
		Reasons: []string{"Total mismatch: invoice $1050.00 vs PO $1000.00"},
		Details: entity.VerdictDetails{InvoiceTotal: dec("1050.00"), POTotal: dec("1000.00")},
	}
	discs := []entity.Discrepancy{
		{Level: constants.LevelTotal, Type: constants.TotalMismatch,
			Field: "total", Expected: "1000.00", Actual: "1050.00", Message: "Total mismatch"},
	}
	run, err := db.SaveVerification(ctx, storage.RunRecord{InvoiceID: invID}, verdict, discs)
	require.NoError(t, err)

	svc := NewService(db, slog.New(slog.NewTextHandler(io.Discard, nil)))
	out, err := svc.ExportRunsXLSX(ctx, 10)
	require.NoError(t, err)
	require.NotEmpty(t, out)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	rows, err := f.GetRows(runsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Run ID", rows[0][0])
	assert.Equal(t, run.ID.String(), rows[1][0])
	assert.Equal(t, "NEEDS REVIEW", rows[1][3])
	assert.Equal(t, "$1,050.00", rows[1][12])

	discRows, err := f.GetRows(discSheet)
	require.NoError(t, err)
	require.Len(t, discRows, 2)
	assert.Equal(t, "total_mismatch", discRows[1][2])
	assert.Equal(t, "1050.00", discRows[1][6])
}
