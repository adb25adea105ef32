package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/entity"
)

// RunRecord carries the context of one verification attempt that the verdict
// itself does not know: which stored rows were compared and when.
type RunRecord struct {
	InvoiceID  string
	POID       string
	LinkageOK  bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// SaveVerification persists a verdict with its per-item rows and classified
// discrepancies in one transaction, deriving the dashboard counts and flags
// from the verdict.
func (d *DB) SaveVerification(ctx context.Context, rec RunRecord, v entity.Verdict, discs []entity.Discrepancy) (entity.VerificationRun, error) {
	if rec.InvoiceID == "" {
		return entity.VerificationRun{}, errors.New("missing invoice id")
	}
	if rec.FinishedAt.IsZero() {
		rec.FinishedAt = time.Now().UTC()
	}
	if rec.StartedAt.IsZero() {
		rec.StartedAt = rec.FinishedAt
	}

	run := entity.VerificationRun{
		ID:               uuid.New(),
		InvoiceID:        rec.InvoiceID,
		POID:             rec.POID,
		Status:           runStatus(v.Status),
		VerdictStatus:    v.Status,
		Summary:          v.Summary,
		MismatchCount:    v.MismatchCount(),
		MatchedItemCount: v.MatchedItemCount(),
		QuantitiesOK:     v.QuantitiesOK(),
		PricesOK:         v.PricesOK(),
		TotalsOK:         !hasDiscrepancy(discs, constants.TotalMismatch),
		CurrencyOK:       !hasDiscrepancy(discs, constants.CurrencyMismatch),
		LinkageOK:        rec.LinkageOK,
		StartedAt:        rec.StartedAt,
		FinishedAt:       rec.FinishedAt,
		DurationMS:       rec.FinishedAt.Sub(rec.StartedAt).Milliseconds(),
	}

	reasonsJSON, err := json.Marshal(v.Reasons)
	if err != nil {
		return entity.VerificationRun{}, fmt.Errorf("encode reasons: %w", err)
	}
	detailsJSON, err := json.Marshal(v.Details)
	if err != nil {
		return entity.VerificationRun{}, fmt.Errorf("encode details: %w", err)
	}

	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return entity.VerificationRun{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
INSERT INTO verification_runs (
  id, invoice_id, po_id, status, verdict_status, summary,
  mismatch_count, matched_item_count,
  quantities_ok, prices_ok, totals_ok, currency_ok, linkage_ok,
  reasons_json, details_json, started_at, finished_at, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID.String(), run.InvoiceID, nullable(run.POID), string(run.Status), string(run.VerdictStatus), run.Summary,
		run.MismatchCount, run.MatchedItemCount,
		run.QuantitiesOK, run.PricesOK, run.TotalsOK, run.CurrencyOK, run.LinkageOK,
		string(reasonsJSON), string(detailsJSON),
		run.StartedAt.Format(time.RFC3339Nano), run.FinishedAt.Format(time.RFC3339Nano), run.DurationMS,
	); err != nil {
		return entity.VerificationRun{}, err
	}

	for i, it := range v.Details.Items {
		if _, err := tx.ExecContext(ctx, `
INSERT INTO item_verifications (run_id, position, description, inv_quantity, po_quantity, inv_unit_price, po_unit_price, quantity_ok, price_ok, match_score)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID.String(), i, it.Description,
			decimalText(it.InvQuantity), decimalText(it.POQuantity),
			decimalText(it.InvUnitPrice), decimalText(it.POUnitPrice),
			it.QuantityOK, it.PriceOK, it.MatchScore,
		); err != nil {
			return entity.VerificationRun{}, err
		}
	}

	for _, disc := range discs {
		var itemIndex any
		if disc.ItemIndex != nil {
			itemIndex = *disc.ItemIndex
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO discrepancies (run_id, level, type, item_index, field, expected, actual, message)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, run.ID.String(), string(disc.Level), string(disc.Type), itemIndex,
			disc.Field, disc.Expected, disc.Actual, disc.Message,
		); err != nil {
			return entity.VerificationRun{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return entity.VerificationRun{}, err
	}
	run.CreatedAt = rec.FinishedAt
	return run, nil
}

// GetRun fetches one verification run. (nil, nil) when absent.
func (d *DB) GetRun(ctx context.Context, id string) (*entity.VerificationRun, error) {
	row := d.conn.QueryRowContext(ctx, runSelect+` WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &run, nil
}

// ListRuns returns the newest runs first.
func (d *DB) ListRuns(ctx context.Context, limit int) ([]entity.VerificationRun, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := d.conn.QueryContext(ctx, runSelect+` ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.VerificationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// RunVerdict reconstructs the stored verdict for a run.
func (d *DB) RunVerdict(ctx context.Context, id string) (*entity.Verdict, error) {
	var verdictStatus, summary, reasonsJSON, detailsJSON string
	err := d.conn.QueryRowContext(ctx, `
SELECT verdict_status, summary, reasons_json, details_json FROM verification_runs WHERE id = ?
`, id).Scan(&verdictStatus, &summary, &reasonsJSON, &detailsJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	v := entity.Verdict{
		Status:  constants.VerdictStatus(verdictStatus),
		Summary: summary,
	}
	if err := json.Unmarshal([]byte(reasonsJSON), &v.Reasons); err != nil {
		return nil, fmt.Errorf("decode reasons: %w", err)
	}
	if err := json.Unmarshal([]byte(detailsJSON), &v.Details); err != nil {
		return nil, fmt.Errorf("decode details: %w", err)
	}
	return &v, nil
}

// RunDiscrepancies returns a run's classified discrepancies in insert order.
func (d *DB) RunDiscrepancies(ctx context.Context, runID string) ([]entity.Discrepancy, error) {
	rows, err := d.conn.QueryContext(ctx, `
SELECT level, type, item_index, field, expected, actual, message
FROM discrepancies WHERE run_id = ? ORDER BY id ASC
`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Discrepancy
	for rows.Next() {
		var disc entity.Discrepancy
		var level, typ string
		var itemIndex sql.NullInt64
		if err := rows.Scan(&level, &typ, &itemIndex, &disc.Field, &disc.Expected, &disc.Actual, &disc.Message); err != nil {
			return nil, err
		}
		disc.Level = constants.DiscrepancyLevel(level)
		disc.Type = constants.DiscrepancyType(typ)
		if itemIndex.Valid {
			idx := int(itemIndex.Int64)
			disc.ItemIndex = &idx
		}
		out = append(out, disc)
	}
	return out, rows.Err()
}

const runSelect = `
SELECT id, invoice_id, po_id, status, verdict_status, summary,
       mismatch_count, matched_item_count,
       quantities_ok, prices_ok, totals_ok, currency_ok, linkage_ok,
       started_at, finished_at, duration_ms, created_at
FROM verification_runs`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (entity.VerificationRun, error) {
	var run entity.VerificationRun
	var id, status, verdictStatus, startedAt, finishedAt, createdAt string
	var poID sql.NullString

	err := row.Scan(&id, &run.InvoiceID, &poID, &status, &verdictStatus, &run.Summary,
		&run.MismatchCount, &run.MatchedItemCount,
		&run.QuantitiesOK, &run.PricesOK, &run.TotalsOK, &run.CurrencyOK, &run.LinkageOK,
		&startedAt, &finishedAt, &run.DurationMS, &createdAt)
	if err != nil {
		return entity.VerificationRun{}, err
	}

	run.ID, err = uuid.Parse(id)
	if err != nil {
		return entity.VerificationRun{}, fmt.Errorf("parse run id: %w", err)
	}
	run.POID = poID.String
	run.Status = constants.RunStatus(status)
	run.VerdictStatus = constants.VerdictStatus(verdictStatus)
	run.StartedAt, _ = time.Parse(time.RFC3339Nano, startedAt)
	run.FinishedAt, _ = time.Parse(time.RFC3339Nano, finishedAt)
	run.CreatedAt, _ = time.Parse("2006-01-02 15:04:05", createdAt)
	return run, nil
}

func runStatus(v constants.VerdictStatus) constants.RunStatus {
	if v == constants.VerdictMatched {
		return constants.RunMatched
	}
	return constants.RunMismatched
}

func hasDiscrepancy(discs []entity.Discrepancy, t constants.DiscrepancyType) bool {
	for _, d := range discs {
		if d.Type == t {
			return true
		}
	}
	return false
}
