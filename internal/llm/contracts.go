package llm

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/entity"
)

// DocSummary is the pruned view of a parsed document sent to the external
// model. Item lists are capped by the caller before building a summary to
// bound prompt cost.
type DocSummary struct {
	ID            string            `json:"id,omitempty"`
	InvoiceNumber string            `json:"invoice_number,omitempty"`
	PONumber      string            `json:"po_number,omitempty"`
	Vendor        string            `json:"vendor,omitempty"`
	Buyer         string            `json:"buyer,omitempty"`
	Currency      string            `json:"currency,omitempty"`
	Date          string            `json:"date,omitempty"`
	Subtotal      *decimal.Decimal  `json:"subtotal"`
	Tax           *decimal.Decimal  `json:"tax"`
	Total         *decimal.Decimal  `json:"total"`
	Items         []entity.LineItem `json:"items"`
}

// CompareRequest carries one invoice/PO pair to the external comparator.
type CompareRequest struct {
	Invoice DocSummary
	PO      DocSummary
}

// ItemPayload mirrors entity.ItemComparison with untyped numerics: the model
// may hand back numbers, currency-symbol strings, or nested amount objects.
// The orchestrator pushes every numeric through money.Normalize before the
// payload leaves the llm boundary.
type ItemPayload struct {
	Description  string `json:"description"`
	InvQuantity  any    `json:"inv_quantity"`
	POQuantity   any    `json:"po_quantity"`
	InvUnitPrice any    `json:"inv_unit_price"`
	POUnitPrice  any    `json:"po_unit_price"`
	QuantityOK   bool   `json:"quantity_ok"`
	PriceOK      bool   `json:"price_ok"`
	MatchScore   any    `json:"match_score"`
}

// DetailsPayload is the raw details object from the comparator.
type DetailsPayload struct {
	InvoiceTotal  any           `json:"invoice_total"`
	POTotal       any           `json:"po_total"`
	VendorInvoice string        `json:"vendor_invoice"`
	VendorPO      string        `json:"vendor_po"`
	Items         []ItemPayload `json:"items"`
}

// VerdictPayload is the comparator response before normalization. Reasons is
// untyped because a scalar reasons value is a tolerated legacy shape; the
// orchestrator folds it into a one-element list.
type VerdictPayload struct {
	Status  string         `json:"status"`
	Summary string         `json:"summary"`
	Reasons any            `json:"reasons"`
	Details DetailsPayload `json:"details"`
}

// Comparator is the external, non-deterministic comparison collaborator.
// Implementations may fail in any way (timeout, network, malformed output);
// the reconciliation engine recovers every such failure locally.
type Comparator interface {
	CompareDocuments(ctx context.Context, req CompareRequest) (VerdictPayload, []byte /*rawJSON*/, error)
}

// ExtractRequest is the input to a field extraction call.
type ExtractRequest struct {
	OCRText      string
	DocTypeHint  constants.DocType
	FilenameHint string
}

// FieldExtractor turns OCR text into a best-effort structured document.
// The returned map is raw model output; callers normalize it into an
// entity.ParsedDocument through the money package.
type FieldExtractor interface {
	ExtractFields(ctx context.Context, req ExtractRequest) (map[string]any, []byte /*rawJSON*/, error)
}
