package entity

import (
	"github.com/shopspring/decimal"

	"github.com/invoicegate/invoice-gate/constants"
)

// LineItem is one row of an invoice or purchase order. It has no identity of
// its own beyond its position in the parent document's item list.
type LineItem struct {
	ItemID      string           `json:"item_id,omitempty"`
	Description string           `json:"description"`
	Quantity    *decimal.Decimal `json:"quantity"`
	UnitPrice   *decimal.Decimal `json:"unit_price"`
	LineTotal   *decimal.Decimal `json:"line_total"`
}

// ParsedDocument is a normalized invoice or purchase order as produced by the
// extraction stage. Monetary fields are nil when the source document did not
// yield a usable value; the reconciliation core treats nil as "unknown" and
// never errors on it. Immutable once produced.
type ParsedDocument struct {
	// RecordID is the storage identity, set on documents loaded from the
	// database. Empty on freshly extracted documents.
	RecordID string `json:"-"`

	ID            string            `json:"id"`
	DocType       constants.DocType `json:"doc_type"`
	InvoiceNumber string            `json:"invoice_number,omitempty"`
	PONumber      string            `json:"po_number,omitempty"`
	Vendor        string            `json:"vendor,omitempty"`
	Buyer         string            `json:"buyer,omitempty"`
	Currency      string            `json:"currency,omitempty"`
	IssueDate     string            `json:"date,omitempty"` // YYYY-MM-DD when the extractor could tell
	Subtotal      *decimal.Decimal  `json:"subtotal"`
	Tax           *decimal.Decimal  `json:"tax"`
	Total         *decimal.Decimal  `json:"total"`
	Items         []LineItem        `json:"items"`

	// Extraction provenance, kept for audit snapshots.
	ExtractionMethod string `json:"extraction_method,omitempty"` // "mistral" | "regex"
	RawTextExcerpt   string `json:"raw_text,omitempty"`
}
