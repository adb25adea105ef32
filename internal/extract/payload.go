package extract

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/money"
)

// FromFields converts a raw model extraction payload into a ParsedDocument.
// The payload is best-effort JSON: every amount goes through money.Normalize
// and wrong-typed fields degrade to unknown instead of erroring.
func FromFields(fields map[string]any, hint constants.DocType, rawText string) *entity.ParsedDocument {
	doc := &entity.ParsedDocument{
		ExtractionMethod: "mistral",
		RawTextExcerpt:   excerpt(rawText, rawExcerptLen),
		Items:            []entity.LineItem{},
	}
	if fields == nil {
		doc.DocType = fallbackDocType(hint)
		return doc
	}

	doc.DocType = docTypeFrom(stringField(fields, "doc_type"), hint)
	doc.InvoiceNumber = stringField(fields, "invoice_number")
	doc.PONumber = stringField(fields, "po_number")
	doc.ID = firstNonEmpty(stringField(fields, "id"), doc.InvoiceNumber, doc.PONumber)
	doc.Vendor = stringField(fields, "vendor")
	doc.Buyer = stringField(fields, "buyer")
	doc.Currency = strings.ToUpper(stringField(fields, "currency"))
	doc.IssueDate = stringField(fields, "date")

	doc.Subtotal = money.Normalize(fields["subtotal"])
	doc.Tax = money.Normalize(fields["tax"])
	doc.Total = money.Normalize(fields["total"])

	if arr, ok := fields["items"].([]any); ok {
		for _, raw := range arr {
			m, ok := raw.(map[string]any)
			if !ok {
				continue
			}
			doc.Items = append(doc.Items, entity.LineItem{
				ItemID:      stringField(m, "item_id"),
				Description: stringField(m, "description"),
				Quantity:    money.Normalize(m["quantity"]),
				UnitPrice:   money.Normalize(m["unit_price"]),
				LineTotal:   money.Normalize(m["line_total"]),
			})
		}
	}

	return doc
}

func docTypeFrom(label string, hint constants.DocType) constants.DocType {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case string(constants.DocTypeInvoice):
		return constants.DocTypeInvoice
	case string(constants.DocTypePO):
		return constants.DocTypePO
	}
	return fallbackDocType(hint)
}

func fallbackDocType(hint constants.DocType) constants.DocType {
	if hint == constants.DocTypeInvoice || hint == constants.DocTypePO {
		return hint
	}
	return constants.DocTypeUnknown
}

// stringField reads a field as text. Identifiers sometimes come back as bare
// numbers; those are rendered without an exponent.
func stringField(m map[string]any, key string) string {
	switch v := m[key].(type) {
	case string:
		return strings.TrimSpace(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	default:
		return ""
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
