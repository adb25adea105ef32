// Package reconcile decides whether an invoice matches its purchase order.
// A non-deterministic primary strategy (external model) is wrapped by a
// deterministic fallback built from the match and money packages; the engine
// recovers every primary failure locally, so callers always get a verdict.
package reconcile

import (
	"context"

	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/money"
)

// Strategy produces a verdict for one invoice/PO pair. Implementations must
// not retain the documents past the call.
type Strategy interface {
	Compare(ctx context.Context, inv, po *entity.ParsedDocument, opts Options) (entity.Verdict, error)
}

const defaultMaxItems = 100

// Options is the per-comparison policy. Tolerances are threaded explicitly so
// that a stricter regime (say 1%/$0.50 for high-value documents) is a call
// site decision, not a package constant.
type Options struct {
	ItemTolerance  money.Tolerance
	TotalTolerance money.Tolerance
	MaxItems       int // item-list cap for the primary strategy's request
}

func DefaultOptions() Options {
	return Options{
		ItemTolerance:  money.ItemTolerance(),
		TotalTolerance: money.TotalTolerance(),
		MaxItems:       defaultMaxItems,
	}
}

func (o Options) withDefaults() Options {
	if o.ItemTolerance == (money.Tolerance{}) {
		o.ItemTolerance = money.ItemTolerance()
	}
	if o.TotalTolerance == (money.Tolerance{}) {
		o.TotalTolerance = money.TotalTolerance()
	}
	if o.MaxItems <= 0 {
		o.MaxItems = defaultMaxItems
	}
	return o
}
