package extract

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/llm"
)

const sampleInvoiceText = `INVOICE
Invoice #: INV-2024-001
PO #: PO-555
Vendor: Acme Supplies Inc
Invoice Date: 2024-03-15
Currency: USD

Widget A 5 200.00 1000.00
Widget B 2 50.00 100.00

Subtotal: 1100.00
Tax: 110.00
Grand Total 1210.00
`

const samplePOText = `PURCHASE ORDER
PO #: PO-555
Supplier: Acme Supplies Inc
Order Date: 2024-03-10
Ship To: Warehouse 7

Widget A 5 200.00 1000.00
`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestClassifyDocumentType(t *testing.T) {
	assert.Equal(t, constants.DocTypeInvoice, ClassifyDocumentType(sampleInvoiceText))
	assert.Equal(t, constants.DocTypePO, ClassifyDocumentType(samplePOText))
	assert.Equal(t, constants.DocTypeUnknown, ClassifyDocumentType(""))
	assert.Equal(t, constants.DocTypeUnknown, ClassifyDocumentType("hello world"))
}

func TestFromRegexInvoice(t *testing.T) {
	doc := FromRegex(sampleInvoiceText, constants.DocTypeInvoice)

	assert.Equal(t, "INV-2024-001", doc.ID)
	assert.Equal(t, "INV-2024-001", doc.InvoiceNumber)
	assert.Equal(t, "PO-555", doc.PONumber)
	assert.Equal(t, "Acme Supplies Inc", doc.Vendor)
	assert.Equal(t, "2024-03-15", doc.IssueDate)
	assert.Equal(t, "USD", doc.Currency)
	assert.Equal(t, "regex", doc.ExtractionMethod)

	require.NotNil(t, doc.Total)
	assert.True(t, doc.Total.Equal(decimal.RequireFromString("1210.00")))
	require.NotNil(t, doc.Subtotal)
	assert.True(t, doc.Subtotal.Equal(decimal.RequireFromString("1100.00")))
	require.NotNil(t, doc.Tax)
	assert.True(t, doc.Tax.Equal(decimal.RequireFromString("110.00")))

	require.Len(t, doc.Items, 2)
	assert.Equal(t, "Widget A", doc.Items[0].Description)
	require.NotNil(t, doc.Items[0].Quantity)
	assert.True(t, doc.Items[0].Quantity.Equal(decimal.NewFromInt(5)))
	require.NotNil(t, doc.Items[0].UnitPrice)
	assert.True(t, doc.Items[0].UnitPrice.Equal(decimal.RequireFromString("200.00")))
	require.NotNil(t, doc.Items[0].LineTotal)
	assert.True(t, doc.Items[0].LineTotal.Equal(decimal.RequireFromString("1000.00")))
}

func TestFromRegexPO(t *testing.T) {
	doc := FromRegex(samplePOText, constants.DocTypePO)

	assert.Equal(t, "PO-555", doc.ID)
	assert.Equal(t, "PO-555", doc.PONumber)
	assert.Empty(t, doc.InvoiceNumber)
	require.Len(t, doc.Items, 1)
}

func TestFromRegexGarbageTextStaysUnknown(t *testing.T) {
	doc := FromRegex("nothing structured here at all", constants.DocTypeUnknown)
	assert.Empty(t, doc.ID)
	assert.Nil(t, doc.Total)
	assert.Empty(t, doc.Items)
}

func TestParseItemsSkipsProseAndPartialRows(t *testing.T) {
	text := `Thanks for your business!
Widget A 5 200.00 1000.00
Invoice Date: 2024-03-15
Grand Total 1210.00`

	items := ParseItems(text)
	require.Len(t, items, 1)
	assert.Equal(t, "Widget A", items[0].Description)
}

func TestFromFields(t *testing.T) {
	fields := map[string]any{
		"doc_type":       "invoice",
		"id":             nil,
		"invoice_number": "INV-9",
		"po_number":      float64(4412),
		"vendor":         " Acme Corp ",
		"currency":       "usd",
		"date":           "2024-01-31",
		"subtotal":       "$1,000.00",
		"tax":            100.0,
		"total":          map[string]any{"amount": 1100, "currency": "USD"},
		"items": []any{
			map[string]any{
				"item_id":     "W-1",
				"description": "Widget",
				"quantity":    "5",
				"unit_price":  200.0,
				"line_total":  "1,000.00",
			},
			"not an object",
		},
	}

	doc := FromFields(fields, constants.DocTypeUnknown, "raw ocr text")

	assert.Equal(t, constants.DocTypeInvoice, doc.DocType)
	assert.Equal(t, "INV-9", doc.ID, "id backfilled from invoice_number")
	assert.Equal(t, "4412", doc.PONumber)
	assert.Equal(t, "Acme Corp", doc.Vendor)
	assert.Equal(t, "USD", doc.Currency)
	assert.Equal(t, "mistral", doc.ExtractionMethod)

	require.NotNil(t, doc.Subtotal)
	assert.True(t, doc.Subtotal.Equal(decimal.NewFromInt(1000)))
	require.NotNil(t, doc.Total)
	assert.True(t, doc.Total.Equal(decimal.NewFromInt(1100)))

	require.Len(t, doc.Items, 1)
	assert.Equal(t, "W-1", doc.Items[0].ItemID)
	require.NotNil(t, doc.Items[0].LineTotal)
	assert.True(t, doc.Items[0].LineTotal.Equal(decimal.NewFromInt(1000)))
}

func TestFromFieldsUnknownDocTypeFallsBackToHint(t *testing.T) {
	doc := FromFields(map[string]any{"doc_type": "receipt"}, constants.DocTypePO, "")
	assert.Equal(t, constants.DocTypePO, doc.DocType)

	doc = FromFields(nil, constants.DocTypeInvoice, "")
	assert.Equal(t, constants.DocTypeInvoice, doc.DocType)
}

type stubExtractor struct {
	fields map[string]any
	err    error
	calls  int
}

func (s *stubExtractor) ExtractFields(_ context.Context, _ llm.ExtractRequest) (map[string]any, []byte, error) {
	s.calls++
	return s.fields, nil, s.err
}

func TestServicePrefersModelExtraction(t *testing.T) {
	stub := &stubExtractor{fields: map[string]any{
		"doc_type": "invoice",
		"id":       "INV-1",
		"total":    999.0,
	}}
	svc := NewService(stub, testLogger())

	doc := svc.ExtractStructuredFields(context.Background(), sampleInvoiceText, constants.DocTypeUnknown)
	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, "mistral", doc.ExtractionMethod)
	assert.Equal(t, "INV-1", doc.ID)
}

func TestServiceFallsBackWhenModelFails(t *testing.T) {
	stub := &stubExtractor{err: errors.New("api down")}
	svc := NewService(stub, testLogger())

	doc := svc.ExtractStructuredFields(context.Background(), sampleInvoiceText, constants.DocTypeUnknown)
	assert.Equal(t, "regex", doc.ExtractionMethod)
	assert.Equal(t, "INV-2024-001", doc.ID)
}

func TestServiceFallsBackWhenModelOutputUnusable(t *testing.T) {
	// no total and no items: not good enough to keep
	stub := &stubExtractor{fields: map[string]any{"doc_type": "invoice", "vendor": "Acme"}}
	svc := NewService(stub, testLogger())

	doc := svc.ExtractStructuredFields(context.Background(), sampleInvoiceText, constants.DocTypeUnknown)
	assert.Equal(t, "regex", doc.ExtractionMethod)
}

func TestServiceWithoutExtractorRunsRegexOnly(t *testing.T) {
	svc := NewService(nil, testLogger())
	doc := svc.ExtractStructuredFields(context.Background(), samplePOText, constants.DocTypeUnknown)
	assert.Equal(t, "regex", doc.ExtractionMethod)
	assert.Equal(t, constants.DocTypePO, doc.DocType)
}
