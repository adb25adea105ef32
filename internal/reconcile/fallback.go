package reconcile

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/match"
	"github.com/invoicegate/invoice-gate/internal/money"
)

// FallbackStrategy is the deterministic, dependency-free comparison path.
// It is total: every well-typed document pair (including nil documents and
// all-nil fields) produces a verdict, and Compare never returns an error.
type FallbackStrategy struct{}

func (FallbackStrategy) Compare(_ context.Context, inv, po *entity.ParsedDocument, opts Options) (entity.Verdict, error) {
	opts = opts.withDefaults()

	var invItems, poItems []entity.LineItem
	details := entity.VerdictDetails{Items: []entity.ItemComparison{}}
	if inv != nil {
		details.InvoiceTotal = inv.Total
		details.VendorInvoice = inv.Vendor
		invItems = inv.Items
	}
	if po != nil {
		details.POTotal = po.Total
		details.VendorPO = po.Vendor
		poItems = po.Items
	}

	reasons := []string{}

	if details.InvoiceTotal != nil && details.POTotal != nil &&
		!money.FuzzyEqual(details.InvoiceTotal, details.POTotal, opts.TotalTolerance) {
		reasons = append(reasons, fmt.Sprintf("Total mismatch: invoice $%s vs PO $%s",
			details.InvoiceTotal.StringFixed(2), details.POTotal.StringFixed(2)))
	}

	for _, p := range match.Items(invItems, poItems, opts.ItemTolerance) {
		cmp, itemReasons := compareItems(p, opts.ItemTolerance)
		details.Items = append(details.Items, cmp)
		reasons = append(reasons, itemReasons...)
	}

	status := constants.VerdictMatched
	summary := fmt.Sprintf("Invoice matches purchase order within tolerance (%d items compared)", len(details.Items))
	if len(reasons) > 0 {
		status = constants.VerdictNeedsReview
		summary = fmt.Sprintf("Rule-based comparison found %d issue(s)", len(reasons))
	}

	return entity.Verdict{
		Status:  status,
		Summary: summary,
		Reasons: reasons,
		Details: details,
	}, nil
}

// compareItems turns one matched pair into a per-item comparison row plus the
// reasons it contributes. A field absent on either side of a two-sided pair is
// "ok" — what cannot be compared does not by itself raise an issue. One-sided
// pairs (extra/missing items) fail both checks.
func compareItems(p match.Pair, tol money.Tolerance) (entity.ItemComparison, []string) {
	switch {
	case p.Invoice != nil && p.PO == nil:
		return entity.ItemComparison{
				Description: p.Invoice.Description,
				InvQuantity: p.Invoice.Quantity, InvUnitPrice: p.Invoice.UnitPrice,
				QuantityOK: false, PriceOK: false,
				MatchScore: p.Score,
			}, []string{
				fmt.Sprintf("Unexpected item on invoice: %q", p.Invoice.Description),
			}

	case p.Invoice == nil && p.PO != nil:
		return entity.ItemComparison{
				Description: p.PO.Description,
				POQuantity:  p.PO.Quantity, POUnitPrice: p.PO.UnitPrice,
				QuantityOK: false, PriceOK: false,
				MatchScore: p.Score,
			}, []string{
				fmt.Sprintf("Item missing from invoice: %q", p.PO.Description),
			}
	}

	cmp := entity.ItemComparison{
		Description:  p.Invoice.Description,
		InvQuantity:  p.Invoice.Quantity,
		POQuantity:   p.PO.Quantity,
		InvUnitPrice: p.Invoice.UnitPrice,
		POUnitPrice:  p.PO.UnitPrice,
		QuantityOK:   true,
		PriceOK:      true,
		MatchScore:   p.Score,
	}

	var reasons []string
	if cmp.InvQuantity != nil && cmp.POQuantity != nil &&
		!money.FuzzyEqual(cmp.InvQuantity, cmp.POQuantity, tol) {
		cmp.QuantityOK = false
		reasons = append(reasons, fmt.Sprintf("Quantity mismatch for %q: invoice %s vs PO %s",
			cmp.Description, qtyString(cmp.InvQuantity), qtyString(cmp.POQuantity)))
	}
	if cmp.InvUnitPrice != nil && cmp.POUnitPrice != nil &&
		!money.FuzzyEqual(cmp.InvUnitPrice, cmp.POUnitPrice, tol) {
		cmp.PriceOK = false
		reasons = append(reasons, fmt.Sprintf("Price mismatch for %q: invoice $%s vs PO $%s",
			cmp.Description, cmp.InvUnitPrice.StringFixed(2), cmp.POUnitPrice.StringFixed(2)))
	}
	return cmp, reasons
}

func qtyString(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}
