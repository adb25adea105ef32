package extract

import (
	"regexp"
	"strings"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/money"
)

const rawExcerptLen = 1000

var (
	invoiceIDRx = regexp.MustCompile(`(?i)(Invoice\s*#|Invoice\s*ID|Invoice\s*:|\bINV\b|\bBill\b)\s*[:\-]?\s*([A-Z0-9\-_]+)`)
	poIDRx      = regexp.MustCompile(`(?i)(PO\s*#|PO\s*:|Purchase\s+Order\s*ID|Purchase Order\s*#|\bP\.O\.\b)\s*[:\-]?\s*([A-Z0-9\-_]+)`)
	vendorRx    = regexp.MustCompile(`(?i)(Vendor|Supplier|From|Sold By|Billed From)\s*[:\-]?\s*([A-Za-z0-9&.,\-\s]+)`)
	dateRx      = regexp.MustCompile(`(?i)(Date|Dated|Invoice Date|Order Date)\s*[:\-]?\s*([0-9]{4}-[0-9]{2}-[0-9]{2}|[0-9]{2}/[0-9]{2}/[0-9]{4})`)
	currencyRx  = regexp.MustCompile(`(?i)\b(USD|EUR|GBP|INR|CAD|AUD|JPY)\b`)
	totalRx     = regexp.MustCompile(`(?i)\b(grand\s*total|total)\b[^\d]*([\d.,]+)`)
	subtotalRx  = regexp.MustCompile(`(?i)subtotal[^\d]*([\d.,]+)`)
	taxRx       = regexp.MustCompile(`(?i)tax[^\d]*([\d.,]+)`)

	// "description  qty  unit-price  [currency]  line-total"
	lineItemRx = regexp.MustCompile(`(?i)(.+?)\s+(\d+)\s+([\d.,]+)\s*(?:USD|EUR|INR|Rs|₹|\$|€|£)?\s+([\d.,]+)`)
)

// FromRegex is the deterministic extraction path: header fields by labeled
// patterns, amounts by keyword proximity, line items row by row. Fields the
// patterns cannot find stay unknown rather than failing the document.
func FromRegex(text string, docType constants.DocType) *entity.ParsedDocument {
	doc := &entity.ParsedDocument{
		DocType:          docType,
		ExtractionMethod: "regex",
		RawTextExcerpt:   excerpt(text, rawExcerptLen),
		Items:            []entity.LineItem{},
	}

	invMatch := invoiceIDRx.FindStringSubmatch(text)
	poMatch := poIDRx.FindStringSubmatch(text)

	switch {
	case docType == constants.DocTypeInvoice && invMatch != nil:
		doc.ID = strings.TrimSpace(invMatch[2])
		doc.InvoiceNumber = doc.ID
	case docType == constants.DocTypePO && poMatch != nil:
		doc.ID = strings.TrimSpace(poMatch[2])
		doc.PONumber = doc.ID
	}
	// an invoice referencing a PO carries both numbers
	if invMatch != nil && poMatch != nil {
		doc.InvoiceNumber = strings.TrimSpace(invMatch[2])
		doc.PONumber = strings.TrimSpace(poMatch[2])
		doc.ID = doc.InvoiceNumber
	}

	if m := vendorRx.FindStringSubmatch(text); m != nil {
		vendor := strings.TrimSpace(strings.SplitN(m[2], "\n", 2)[0])
		if len(vendor) > 100 {
			vendor = vendor[:100]
		}
		doc.Vendor = vendor
	}
	if m := dateRx.FindStringSubmatch(text); m != nil {
		doc.IssueDate = strings.TrimSpace(m[2])
	}
	if m := currencyRx.FindStringSubmatch(text); m != nil {
		doc.Currency = strings.ToUpper(m[1])
	}

	if m := totalRx.FindStringSubmatch(text); m != nil {
		doc.Total = money.Normalize(m[2])
	}
	if m := subtotalRx.FindStringSubmatch(text); m != nil {
		doc.Subtotal = money.Normalize(m[1])
	}
	if m := taxRx.FindStringSubmatch(text); m != nil {
		doc.Tax = money.Normalize(m[1])
	}

	doc.Items = ParseItems(text)
	return doc
}

// ParseItems scans text line by line for structured item rows. A row only
// counts when all three numbers parse; anything else is treated as prose.
func ParseItems(text string) []entity.LineItem {
	var items []entity.LineItem
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		m := lineItemRx.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		qty := money.Normalize(m[2])
		price := money.Normalize(m[3])
		total := money.Normalize(m[4])
		if qty == nil || price == nil || total == nil {
			continue
		}
		items = append(items, entity.LineItem{
			Description: strings.TrimSpace(m[1]),
			Quantity:    qty,
			UnitPrice:   price,
			LineTotal:   total,
		})
	}
	return items
}

func excerpt(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
