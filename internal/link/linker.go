// Package link resolves which stored purchase order an incoming invoice
// belongs to, trying a chain of heuristics from strongest to weakest.
package link

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/invoicegate/invoice-gate/internal/entity"
)

// Heuristic names, recorded on the verification run for auditability.
const (
	ByExplicitID   = "explicit_id"
	ByPONumber     = "po_number"
	ByVendorTotal  = "vendor_total"
	ByInvoiceID    = "invoice_id"
	NoLink         = ""
	vendorFragment = 50
)

// PORepository is the slice of storage the linker needs. Lookups return
// (nil, nil) when nothing matches; an error means the lookup itself failed.
type PORepository interface {
	POByRecordID(ctx context.Context, id string) (*entity.ParsedDocument, error)
	POByNumber(ctx context.Context, number string) (*entity.ParsedDocument, error)
	POByVendorTotal(ctx context.Context, vendorFragment string, total decimal.Decimal) (*entity.ParsedDocument, error)
}

type Linker struct {
	repo PORepository
	log  *slog.Logger
}

func NewLinker(repo PORepository, logger *slog.Logger) *Linker {
	if logger == nil {
		logger = slog.Default()
	}
	return &Linker{repo: repo, log: logger}
}

// FindPO resolves the PO for an extracted invoice. Heuristics run in order:
// an explicitly supplied record id, the invoice's PO reference, vendor plus
// exact total, and finally the invoice's own id reused as a PO number (some
// issuers stamp the PO number as the document id). A failing heuristic is
// logged and skipped; linking is best-effort and never errors.
func (l *Linker) FindPO(ctx context.Context, inv *entity.ParsedDocument, explicitPOID string) (*entity.ParsedDocument, string) {
	if explicitPOID != "" {
		if po, err := l.repo.POByRecordID(ctx, explicitPOID); err != nil {
			l.log.Warn("link.explicit_id.failed", "po_id", explicitPOID, "error", err)
		} else if po != nil {
			return po, ByExplicitID
		}
	}

	if inv == nil {
		return nil, NoLink
	}

	if ref := strings.TrimSpace(inv.PONumber); ref != "" {
		if po, err := l.repo.POByNumber(ctx, ref); err != nil {
			l.log.Warn("link.po_number.failed", "po_number", ref, "error", err)
		} else if po != nil {
			return po, ByPONumber
		}
	}

	if vendor := strings.TrimSpace(inv.Vendor); vendor != "" && inv.Total != nil {
		if len(vendor) > vendorFragment {
			vendor = vendor[:vendorFragment]
		}
		if po, err := l.repo.POByVendorTotal(ctx, vendor, *inv.Total); err != nil {
			l.log.Warn("link.vendor_total.failed", "vendor", vendor, "error", err)
		} else if po != nil {
			return po, ByVendorTotal
		}
	}

	if id := strings.TrimSpace(inv.ID); id != "" {
		if po, err := l.repo.POByNumber(ctx, id); err != nil {
			l.log.Warn("link.invoice_id.failed", "invoice_id", id, "error", err)
		} else if po != nil {
			return po, ByInvoiceID
		}
	}

	return nil, NoLink
}
