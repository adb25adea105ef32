package constants

// DiscrepancyLevel says where in the document pair a discrepancy was found.
type DiscrepancyLevel string

const (
	LevelHeader DiscrepancyLevel = "header" // currency mismatch, missing PO link
	LevelItem   DiscrepancyLevel = "item"   // item-wise discrepancies
	LevelTotal  DiscrepancyLevel = "total"  // subtotal/tax/grand-total mismatches
)

// DiscrepancyType classifies a single discrepancy record.
type DiscrepancyType string

const (
	MissingItem      DiscrepancyType = "missing_item"
	ExtraItem        DiscrepancyType = "extra_item"
	QuantityMismatch DiscrepancyType = "quantity_mismatch"
	PriceMismatch    DiscrepancyType = "price_mismatch"
	TaxMismatch      DiscrepancyType = "tax_mismatch"
	SubtotalMismatch DiscrepancyType = "subtotal_mismatch"
	TotalMismatch    DiscrepancyType = "total_mismatch"
	CurrencyMismatch DiscrepancyType = "currency_mismatch"
	POLinkMismatch   DiscrepancyType = "po_link_mismatch"
)
