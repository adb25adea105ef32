package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicegate/invoice-gate/internal/common"
	"github.com/invoicegate/invoice-gate/internal/entity"
)

// SavePO stores a parsed purchase order and returns its record id.
func (d *DB) SavePO(ctx context.Context, doc *entity.ParsedDocument) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("nil document: %w", common.ErrInvalidInput)
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	id := uuid.New().String()
	_, err = d.conn.ExecContext(ctx, `
INSERT INTO purchase_orders (id, po_number, vendor, buyer, currency, issue_date, subtotal, tax, total, extraction_method, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, id, firstOf(doc.PONumber, doc.ID), doc.Vendor, doc.Buyer, doc.Currency, doc.IssueDate,
		decimalText(doc.Subtotal), decimalText(doc.Tax), decimalText(doc.Total),
		doc.ExtractionMethod, string(payload))
	if err != nil {
		return "", err
	}
	return id, nil
}

// SaveInvoice stores a parsed invoice plus its PO linkage (both may be empty
// when no PO was found).
func (d *DB) SaveInvoice(ctx context.Context, doc *entity.ParsedDocument, linkedPOID, linkMethod string) (string, error) {
	if doc == nil {
		return "", fmt.Errorf("nil document: %w", common.ErrInvalidInput)
	}
	payload, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encode payload: %w", err)
	}

	id := uuid.New().String()
	_, err = d.conn.ExecContext(ctx, `
INSERT INTO invoices (id, invoice_number, po_number, vendor, buyer, currency, issue_date, subtotal, tax, total, extraction_method, linked_po_id, link_method, payload)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, id, firstOf(doc.InvoiceNumber, doc.ID), doc.PONumber, doc.Vendor, doc.Buyer, doc.Currency, doc.IssueDate,
		decimalText(doc.Subtotal), decimalText(doc.Tax), decimalText(doc.Total),
		doc.ExtractionMethod, nullable(linkedPOID), nullable(linkMethod), string(payload))
	if err != nil {
		return "", err
	}
	return id, nil
}

// POByRecordID fetches a purchase order by its storage id. (nil, nil) when
// absent.
func (d *DB) POByRecordID(ctx context.Context, id string) (*entity.ParsedDocument, error) {
	return d.poQuery(ctx, `SELECT id, payload FROM purchase_orders WHERE id = ?`, id)
}

// POByNumber fetches a purchase order by PO number, case-insensitively.
func (d *DB) POByNumber(ctx context.Context, number string) (*entity.ParsedDocument, error) {
	return d.poQuery(ctx, `
SELECT id, payload FROM purchase_orders
WHERE po_number = ? COLLATE NOCASE
ORDER BY created_at DESC LIMIT 1`, number)
}

// POByVendorTotal fetches the newest purchase order whose vendor contains the
// fragment and whose total matches exactly (to the cent).
func (d *DB) POByVendorTotal(ctx context.Context, vendorFragment string, total decimal.Decimal) (*entity.ParsedDocument, error) {
	return d.poQuery(ctx, `
SELECT id, payload FROM purchase_orders
WHERE vendor LIKE '%' || ? || '%' COLLATE NOCASE AND total = ?
ORDER BY created_at DESC LIMIT 1`, vendorFragment, total.StringFixed(2))
}

// InvoiceByRecordID fetches a stored invoice by its storage id.
func (d *DB) InvoiceByRecordID(ctx context.Context, id string) (*entity.ParsedDocument, error) {
	return d.docQuery(ctx, `SELECT id, payload FROM invoices WHERE id = ?`, id)
}

func (d *DB) poQuery(ctx context.Context, query string, args ...any) (*entity.ParsedDocument, error) {
	return d.docQuery(ctx, query, args...)
}

func (d *DB) docQuery(ctx context.Context, query string, args ...any) (*entity.ParsedDocument, error) {
	var recordID, payload string
	err := d.conn.QueryRowContext(ctx, query, args...).Scan(&recordID, &payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var doc entity.ParsedDocument
	if err := json.Unmarshal([]byte(payload), &doc); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	doc.RecordID = recordID
	return &doc, nil
}

// decimalText renders an amount for a queryable column, fixed to cents so
// that equality lookups behave. The payload keeps full precision.
func decimalText(v *decimal.Decimal) any {
	if v == nil {
		return nil
	}
	return v.StringFixed(2)
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func firstOf(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
