package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/llm"
	"github.com/invoicegate/invoice-gate/internal/money"
)

// PrimaryStrategy delegates the comparison to an external model. Its raw
// payload is normalized here: every numeric goes through money.Normalize and
// the legacy scalar reasons shape becomes a one-element list, so nothing
// model-shaped leaks past this file.
type PrimaryStrategy struct {
	comparator llm.Comparator
	log        *slog.Logger
}

func NewPrimaryStrategy(c llm.Comparator, logger *slog.Logger) *PrimaryStrategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &PrimaryStrategy{comparator: c, log: logger}
}

func (s *PrimaryStrategy) Compare(ctx context.Context, inv, po *entity.ParsedDocument, opts Options) (entity.Verdict, error) {
	if s.comparator == nil {
		return entity.Verdict{}, errors.New("comparator not configured")
	}
	opts = opts.withDefaults()

	payload, _, err := s.comparator.CompareDocuments(ctx, llm.CompareRequest{
		Invoice: Summarize(inv, opts.MaxItems),
		PO:      Summarize(po, opts.MaxItems),
	})
	if err != nil {
		return entity.Verdict{}, err
	}
	return verdictFromPayload(payload), nil
}

// Summarize prunes a document for the external request, capping the item list
// to bound prompt cost.
func Summarize(doc *entity.ParsedDocument, maxItems int) llm.DocSummary {
	if doc == nil {
		return llm.DocSummary{Items: []entity.LineItem{}}
	}
	items := doc.Items
	if maxItems > 0 && len(items) > maxItems {
		items = items[:maxItems]
	}
	if items == nil {
		items = []entity.LineItem{}
	}
	return llm.DocSummary{
		ID:            doc.ID,
		InvoiceNumber: doc.InvoiceNumber,
		PONumber:      doc.PONumber,
		Vendor:        doc.Vendor,
		Buyer:         doc.Buyer,
		Currency:      doc.Currency,
		Date:          doc.IssueDate,
		Subtotal:      doc.Subtotal,
		Tax:           doc.Tax,
		Total:         doc.Total,
		Items:         items,
	}
}

func verdictFromPayload(p llm.VerdictPayload) entity.Verdict {
	details := entity.VerdictDetails{
		InvoiceTotal:  money.Normalize(p.Details.InvoiceTotal),
		POTotal:       money.Normalize(p.Details.POTotal),
		VendorInvoice: strings.TrimSpace(p.Details.VendorInvoice),
		VendorPO:      strings.TrimSpace(p.Details.VendorPO),
		Items:         make([]entity.ItemComparison, 0, len(p.Details.Items)),
	}

	for _, it := range p.Details.Items {
		score := 0.0
		if d := money.Normalize(it.MatchScore); d != nil {
			score = d.InexactFloat64()
		}
		details.Items = append(details.Items, entity.ItemComparison{
			Description:  it.Description,
			InvQuantity:  money.Normalize(it.InvQuantity),
			POQuantity:   money.Normalize(it.POQuantity),
			InvUnitPrice: money.Normalize(it.InvUnitPrice),
			POUnitPrice:  money.Normalize(it.POUnitPrice),
			QuantityOK:   it.QuantityOK,
			PriceOK:      it.PriceOK,
			MatchScore:   score,
		})
	}

	return entity.Verdict{
		Status:  constants.VerdictStatus(strings.TrimSpace(p.Status)),
		Summary: strings.TrimSpace(p.Summary),
		Reasons: foldReasons(p.Reasons),
		Details: details,
	}
}

// foldReasons canonicalizes the reasons field to a string list. A bare scalar
// is a tolerated legacy shape and folds into a one-element list; empty or
// absent values fold to an empty list.
func foldReasons(v any) []string {
	switch r := v.(type) {
	case nil:
		return []string{}
	case []string:
		return r
	case []any:
		out := make([]string, 0, len(r))
		for _, e := range r {
			if s, ok := e.(string); ok {
				out = append(out, s)
			} else if e != nil {
				out = append(out, fmt.Sprint(e))
			}
		}
		return out
	case string:
		if strings.TrimSpace(r) == "" {
			return []string{}
		}
		return []string{r}
	default:
		return []string{fmt.Sprint(r)}
	}
}
