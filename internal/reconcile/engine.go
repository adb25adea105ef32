package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/llm"
)

// Engine is the try/fallback combinator over the two strategies. The primary
// is optional; with no comparator wired the engine runs fallback-only, which
// is a supported deployment mode rather than a degraded one.
type Engine struct {
	primary  Strategy
	fallback Strategy
	log      *slog.Logger
}

func NewEngine(comparator llm.Comparator, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{fallback: FallbackStrategy{}, log: logger}
	if comparator != nil {
		e.primary = NewPrimaryStrategy(comparator, logger)
	}
	return e
}

// NewEngineWithStrategies wires explicit strategy implementations. primary
// may be nil.
func NewEngineWithStrategies(primary, fallback Strategy, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	if fallback == nil {
		fallback = FallbackStrategy{}
	}
	return &Engine{primary: primary, fallback: fallback, log: logger}
}

// Compare produces exactly one verdict for the pair. Primary failures are
// recovered locally and never surface to the caller; the caller bounds the
// external call through ctx.
func (e *Engine) Compare(ctx context.Context, inv, po *entity.ParsedDocument, opts Options) entity.Verdict {
	opts = opts.withDefaults()
	start := time.Now()

	if e.primary != nil {
		v, err := e.primary.Compare(ctx, inv, po, opts)
		if err == nil {
			e.log.Info("reconcile.primary.ok",
				"status", string(v.Status),
				"reasons", len(v.Reasons),
				"elapsed_ms", time.Since(start).Milliseconds(),
			)
			return e.finalize(inv, po, v)
		}
		e.log.Warn("reconcile.primary.failed",
			"error", err,
			"elapsed_ms", time.Since(start).Milliseconds(),
		)
	}

	v, err := e.fallback.Compare(ctx, inv, po, opts)
	if err != nil {
		// FallbackStrategy never fails; a custom fallback wired through
		// NewEngineWithStrategies might.
		e.log.Error("reconcile.fallback.failed", "error", err)
		return entity.Verdict{
			Status:  constants.VerdictNeedsReview,
			Summary: "Comparison could not be completed",
			Reasons: []string{fmt.Sprintf("Comparator failure: %v", err)},
			Details: entity.VerdictDetails{Items: []entity.ItemComparison{}},
		}
	}

	e.log.Info("reconcile.fallback.ok",
		"status", string(v.Status),
		"reasons", len(v.Reasons),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return e.finalize(inv, po, v)
}

// finalize applies the output normalization shared by both paths: the status
// whitelist with reasons as the tie-break, non-nil reasons/items slices, and
// vendor/total backfill from the source documents.
func (e *Engine) finalize(inv, po *entity.ParsedDocument, v entity.Verdict) entity.Verdict {
	if v.Reasons == nil {
		v.Reasons = []string{}
	}
	if v.Details.Items == nil {
		v.Details.Items = []entity.ItemComparison{}
	}

	if !constants.IsValidVerdict(string(v.Status)) {
		if len(v.Reasons) > 0 {
			v.Status = constants.VerdictNeedsReview
		} else {
			v.Status = constants.VerdictMatched
		}
	}

	if inv != nil {
		if v.Details.VendorInvoice == "" {
			v.Details.VendorInvoice = inv.Vendor
		}
		if v.Details.InvoiceTotal == nil {
			v.Details.InvoiceTotal = inv.Total
		}
	}
	if po != nil {
		if v.Details.VendorPO == "" {
			v.Details.VendorPO = po.Vendor
		}
		if v.Details.POTotal == nil {
			v.Details.POTotal = po.Total
		}
	}
	return v
}
