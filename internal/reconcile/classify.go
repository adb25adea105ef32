package reconcile

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/money"
)

// Classify turns a finalized details structure into typed, leveled
// discrepancy records. Each failed flag contributes its own record, so an
// item missing from one side emits quantity_mismatch and price_mismatch
// (both flags are false on one-sided rows) alongside extra_item or
// missing_item; the absent side renders as "".
func Classify(d entity.VerdictDetails, totalTol money.Tolerance) []entity.Discrepancy {
	var out []entity.Discrepancy

	for i := range d.Items {
		it := d.Items[i]
		idx := i

		if !it.QuantityOK {
			out = append(out, entity.Discrepancy{
				Level: constants.LevelItem, Type: constants.QuantityMismatch,
				ItemIndex: &idx, Field: "quantity",
				Expected: fmtQty(it.POQuantity), Actual: fmtQty(it.InvQuantity),
				Message: fmt.Sprintf("Quantity mismatch for %q: invoice %s vs PO %s",
					it.Description, fmtQty(it.InvQuantity), fmtQty(it.POQuantity)),
			})
		}
		if !it.PriceOK {
			out = append(out, entity.Discrepancy{
				Level: constants.LevelItem, Type: constants.PriceMismatch,
				ItemIndex: &idx, Field: "unit_price",
				Expected: fmtMoney(it.POUnitPrice), Actual: fmtMoney(it.InvUnitPrice),
				Message: fmt.Sprintf("Price mismatch for %q: invoice $%s vs PO $%s",
					it.Description, fmtMoney(it.InvUnitPrice), fmtMoney(it.POUnitPrice)),
			})
		}
		if it.POQuantity == nil && it.InvQuantity != nil {
			out = append(out, entity.Discrepancy{
				Level: constants.LevelItem, Type: constants.ExtraItem,
				ItemIndex: &idx, Field: "description",
				Expected: "", Actual: it.Description,
				Message: fmt.Sprintf("Unexpected item on invoice: %q", it.Description),
			})
		}
		if it.InvQuantity == nil && it.POQuantity != nil {
			out = append(out, entity.Discrepancy{
				Level: constants.LevelItem, Type: constants.MissingItem,
				ItemIndex: &idx, Field: "description",
				Expected: it.Description, Actual: "",
				Message: fmt.Sprintf("Item %q missing from invoice", it.Description),
			})
		}
	}

	if d.InvoiceTotal != nil && d.POTotal != nil &&
		!money.FuzzyEqual(d.InvoiceTotal, d.POTotal, totalTol) {
		out = append(out, entity.Discrepancy{
			Level: constants.LevelTotal, Type: constants.TotalMismatch,
			Field:    "total",
			Expected: fmtMoney(d.POTotal), Actual: fmtMoney(d.InvoiceTotal),
			Message: fmt.Sprintf("Total mismatch: invoice $%s vs PO $%s",
				fmtMoney(d.InvoiceTotal), fmtMoney(d.POTotal)),
		})
	}

	return out
}

// ClassifyDocuments extends Classify with the header checks that need the
// source documents rather than the verdict: currency codes, subtotal and tax
// amounts, and the invoice's PO reference.
func ClassifyDocuments(inv, po *entity.ParsedDocument, v entity.Verdict, opts Options) []entity.Discrepancy {
	opts = opts.withDefaults()
	out := Classify(v.Details, opts.TotalTolerance)
	if inv == nil || po == nil {
		return out
	}

	if inv.Currency != "" && po.Currency != "" && !strings.EqualFold(inv.Currency, po.Currency) {
		out = append(out, entity.Discrepancy{
			Level: constants.LevelHeader, Type: constants.CurrencyMismatch,
			Field:    "currency",
			Expected: po.Currency, Actual: inv.Currency,
			Message: fmt.Sprintf("Currency mismatch: invoice %s vs PO %s", inv.Currency, po.Currency),
		})
	}

	if inv.Subtotal != nil && po.Subtotal != nil &&
		!money.FuzzyEqual(inv.Subtotal, po.Subtotal, opts.TotalTolerance) {
		out = append(out, entity.Discrepancy{
			Level: constants.LevelTotal, Type: constants.SubtotalMismatch,
			Field:    "subtotal",
			Expected: fmtMoney(po.Subtotal), Actual: fmtMoney(inv.Subtotal),
			Message: fmt.Sprintf("Subtotal mismatch: invoice $%s vs PO $%s",
				fmtMoney(inv.Subtotal), fmtMoney(po.Subtotal)),
		})
	}

	if inv.Tax != nil && po.Tax != nil &&
		!money.FuzzyEqual(inv.Tax, po.Tax, opts.TotalTolerance) {
		out = append(out, entity.Discrepancy{
			Level: constants.LevelTotal, Type: constants.TaxMismatch,
			Field:    "tax",
			Expected: fmtMoney(po.Tax), Actual: fmtMoney(inv.Tax),
			Message: fmt.Sprintf("Tax mismatch: invoice $%s vs PO $%s",
				fmtMoney(inv.Tax), fmtMoney(po.Tax)),
		})
	}

	if poRef := firstNonEmpty(po.PONumber, po.ID); inv.PONumber != "" && poRef != "" &&
		!strings.EqualFold(strings.TrimSpace(inv.PONumber), strings.TrimSpace(poRef)) {
		out = append(out, entity.Discrepancy{
			Level: constants.LevelHeader, Type: constants.POLinkMismatch,
			Field:    "po_number",
			Expected: poRef, Actual: inv.PONumber,
			Message: fmt.Sprintf("Invoice references PO %q but was compared against PO %q",
				inv.PONumber, poRef),
		})
	}

	return out
}

func fmtMoney(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.StringFixed(2)
}

func fmtQty(d *decimal.Decimal) string {
	if d == nil {
		return ""
	}
	return d.String()
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
