package entity

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/invoicegate/invoice-gate/constants"
)

// ItemComparison is the per-item outcome inside a verdict's details.
type ItemComparison struct {
	Description  string           `json:"description"`
	InvQuantity  *decimal.Decimal `json:"inv_quantity"`
	POQuantity   *decimal.Decimal `json:"po_quantity"`
	InvUnitPrice *decimal.Decimal `json:"inv_unit_price"`
	POUnitPrice  *decimal.Decimal `json:"po_unit_price"`
	QuantityOK   bool             `json:"quantity_ok"`
	PriceOK      bool             `json:"price_ok"`
	MatchScore   float64          `json:"match_score"`
}

// VerdictDetails carries the normalized evidence behind a verdict. Every
// numeric field has been through money.Normalize: downstream consumers only
// ever see decimals or nil, never currency strings or nested amount objects.
type VerdictDetails struct {
	InvoiceTotal  *decimal.Decimal `json:"invoice_total"`
	POTotal       *decimal.Decimal `json:"po_total"`
	VendorInvoice string           `json:"vendor_invoice,omitempty"`
	VendorPO      string           `json:"vendor_po,omitempty"`
	Items         []ItemComparison `json:"items"`
}

// Verdict is the final outcome of one invoice/PO comparison. Constructed once
// per Compare invocation and not mutated afterwards.
type Verdict struct {
	Status  constants.VerdictStatus `json:"status"`
	Summary string                  `json:"summary"`
	Reasons []string                `json:"reasons"`
	Details VerdictDetails          `json:"details"`
}

// MismatchCount is the number of reason entries. Reasons is always a list
// here; the legacy scalar-reasons shape is folded into a one-element list at
// the orchestrator boundary.
func (v *Verdict) MismatchCount() int {
	return len(v.Reasons)
}

// MatchedItemCount counts items where both quantity and price checked out.
func (v *Verdict) MatchedItemCount() int {
	n := 0
	for _, it := range v.Details.Items {
		if it.QuantityOK && it.PriceOK {
			n++
		}
	}
	return n
}

// QuantitiesOK reports whether every compared item passed the quantity check.
func (v *Verdict) QuantitiesOK() bool {
	for _, it := range v.Details.Items {
		if !it.QuantityOK {
			return false
		}
	}
	return true
}

// PricesOK reports whether every compared item passed the price check.
func (v *Verdict) PricesOK() bool {
	for _, it := range v.Details.Items {
		if !it.PriceOK {
			return false
		}
	}
	return true
}

// Discrepancy is one classified difference between an invoice and its PO.
// Item-level discrepancies always reference the item they concern via
// ItemIndex (an index into VerdictDetails.Items); header- and total-level
// discrepancies never do.
type Discrepancy struct {
	Level     constants.DiscrepancyLevel `json:"level"`
	Type      constants.DiscrepancyType  `json:"type"`
	ItemIndex *int                       `json:"item_index,omitempty"`
	Field     string                     `json:"field"`
	Expected  string                     `json:"expected"`
	Actual    string                     `json:"actual"`
	Message   string                     `json:"message"`
}

// VerificationRun is one persisted verification attempt comparing a single
// invoice against a PO, plus the dashboard flags the persistence layer
// derives from the verdict.
type VerificationRun struct {
	ID               uuid.UUID               `json:"id"`
	InvoiceID        string                  `json:"invoice_id"`
	POID             string                  `json:"po_id,omitempty"`
	Status           constants.RunStatus     `json:"status"`
	VerdictStatus    constants.VerdictStatus `json:"verdict_status"`
	Summary          string                  `json:"summary"`
	MismatchCount    int                     `json:"mismatch_count"`
	MatchedItemCount int                     `json:"matched_item_count"`
	QuantitiesOK     bool                    `json:"quantities_ok"`
	PricesOK         bool                    `json:"prices_ok"`
	TotalsOK         bool                    `json:"totals_ok"`
	CurrencyOK       bool                    `json:"currency_ok"`
	LinkageOK        bool                    `json:"linkage_ok"`
	StartedAt        time.Time               `json:"started_at"`
	FinishedAt       time.Time               `json:"finished_at"`
	DurationMS       int64                   `json:"duration_ms"`
	CreatedAt        time.Time               `json:"created_at"`
}
