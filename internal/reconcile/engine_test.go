package reconcile

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
	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/llm"
	"github.com/invoicegate/invoice-gate/internal/money"
)

func dec(s string) *decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return &d
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func doc(docType constants.DocType, vendor, total string, items ...entity.LineItem) *entity.ParsedDocument {
	d := &entity.ParsedDocument{
		ID:      "doc-1",
		DocType: docType,
		Vendor:  vendor,
		Items:   items,
	}
	if total != "" {
		d.Total = dec(total)
	}
	return d
}

type stubComparator struct {
	payload llm.VerdictPayload
	err     error
	calls   int
}

func (s *stubComparator) CompareDocuments(_ context.Context, _ llm.CompareRequest) (llm.VerdictPayload, []byte, error) {
	s.calls++
	return s.payload, nil, s.err
}

func TestCompareIdenticalDocumentsMatch(t *testing.T) {
	item := entity.LineItem{Description: "Widget A", Quantity: dec("5"), UnitPrice: dec("200")}
	inv := doc(constants.DocTypeInvoice, "Acme Corp", "1000.00", item)
	po := doc(constants.DocTypePO, "Acme Corp", "1000.00", item)

	e := NewEngine(nil, testLogger())
	v := e.Compare(context.Background(), inv, po, DefaultOptions())

	assert.Equal(t, constants.VerdictMatched, v.Status)
	assert.Empty(t, v.Reasons)
	assert.Equal(t, 0, v.MismatchCount())
	require.Len(t, v.Details.Items, 1)
	assert.True(t, v.Details.Items[0].QuantityOK)
	assert.True(t, v.Details.Items[0].PriceOK)
	assert.Equal(t, 1, v.MatchedItemCount())
}

func TestCompareTotalFivePercentOver(t *testing.T) {
	item := entity.LineItem{Description: "Widget A", Quantity: dec("5"), UnitPrice: dec("200")}
	inv := doc(constants.DocTypeInvoice, "Acme Corp", "1050.00", item)
	po := doc(constants.DocTypePO, "Acme Corp", "1000.00", item)

	e := NewEngine(nil, testLogger())
	v := e.Compare(context.Background(), inv, po, DefaultOptions())

	assert.Equal(t, constants.VerdictNeedsReview, v.Status)
	require.Len(t, v.Reasons, 1)
	assert.Contains(t, v.Reasons[0], "Total mismatch")

	discs := Classify(v.Details, money.TotalTolerance())
	require.Len(t, discs, 1)
	assert.Equal(t, constants.TotalMismatch, discs[0].Type)
	assert.Equal(t, constants.LevelTotal, discs[0].Level)
	assert.Equal(t, "1000.00", discs[0].Expected)
	assert.Equal(t, "1050.00", discs[0].Actual)
	assert.Nil(t, discs[0].ItemIndex)
}

func TestCompareItemMissingFromInvoice(t *testing.T) {
	inv := doc(constants.DocTypeInvoice, "Acme Corp", "")
	po := doc(constants.DocTypePO, "Acme Corp", "",
		entity.LineItem{Description: "Widget A", Quantity: dec("10"), UnitPrice: dec("5")})

	e := NewEngine(nil, testLogger())
	v := e.Compare(context.Background(), inv, po, DefaultOptions())

	assert.Equal(t, constants.VerdictNeedsReview, v.Status)
	assert.Equal(t, 0, v.MatchedItemCount())
	require.Len(t, v.Details.Items, 1)
	assert.Nil(t, v.Details.Items[0].InvQuantity)

	discs := Classify(v.Details, money.TotalTolerance())
	require.Len(t, discs, 3)
	assert.Equal(t, constants.QuantityMismatch, discs[0].Type)
	assert.Equal(t, constants.PriceMismatch, discs[1].Type)
	assert.Equal(t, constants.MissingItem, discs[2].Type)
	assert.Equal(t, constants.LevelItem, discs[2].Level)
	require.NotNil(t, discs[2].ItemIndex)
	assert.Contains(t, discs[2].Message, "Widget A")
}

func TestCompareUnexpectedInvoiceItem(t *testing.T) {
	shared := entity.LineItem{Description: "Widget A", Quantity: dec("5"), UnitPrice: dec("200")}
	inv := doc(constants.DocTypeInvoice, "Acme Corp", "", shared,
		entity.LineItem{Description: "Surcharge", Quantity: dec("1"), UnitPrice: dec("25")})
	po := doc(constants.DocTypePO, "Acme Corp", "", shared)

	e := NewEngine(nil, testLogger())
	v := e.Compare(context.Background(), inv, po, DefaultOptions())

	assert.Equal(t, constants.VerdictNeedsReview, v.Status)

	var surcharge *entity.ItemComparison
	for i := range v.Details.Items {
		if v.Details.Items[i].Description == "Surcharge" {
			surcharge = &v.Details.Items[i]
		}
	}
	require.NotNil(t, surcharge)
	assert.False(t, surcharge.QuantityOK)
	assert.False(t, surcharge.PriceOK)
	assert.Nil(t, surcharge.POQuantity)

	discs := Classify(v.Details, money.TotalTolerance())
	require.Len(t, discs, 3)
	assert.Equal(t, constants.QuantityMismatch, discs[0].Type)
	assert.Equal(t, constants.PriceMismatch, discs[1].Type)
	assert.Equal(t, constants.ExtraItem, discs[2].Type)
	assert.Contains(t, discs[2].Message, "Surcharge")
}

func TestCompareQuantityAtAbsoluteToleranceBoundary(t *testing.T) {
	inv := doc(constants.DocTypeInvoice, "Acme Corp", "",
		entity.LineItem{Description: "Widget A", Quantity: dec("10.0"), UnitPrice: dec("5")})
	po := doc(constants.DocTypePO, "Acme Corp", "",
		entity.LineItem{Description: "Widget A", Quantity: dec("9.0"), UnitPrice: dec("5")})

	e := NewEngine(nil, testLogger())
	v := e.Compare(context.Background(), inv, po, DefaultOptions())

	require.Len(t, v.Details.Items, 1)
	assert.True(t, v.Details.Items[0].QuantityOK, "difference of exactly abs_tol is inclusive")
	assert.Equal(t, constants.VerdictMatched, v.Status)
}

func TestCompareDegenerateDocumentsNeverPanic(t *testing.T) {
	e := NewEngine(nil, testLogger())

	v := e.Compare(context.Background(), nil, nil, Options{})
	assert.Equal(t, constants.VerdictMatched, v.Status)
	assert.NotNil(t, v.Reasons)
	assert.NotNil(t, v.Details.Items)

	empty := &entity.ParsedDocument{Items: []entity.LineItem{{}, {}}}
	v = e.Compare(context.Background(), empty, empty, DefaultOptions())
	assert.NotNil(t, v.Reasons)
}

func TestComparePrimaryFailureFallsBack(t *testing.T) {
	stub := &stubComparator{err: errors.New("upstream timeout")}
	item := entity.LineItem{Description: "Widget A", Quantity: dec("5"), UnitPrice: dec("200")}
	inv := doc(constants.DocTypeInvoice, "Acme Corp", "1000.00", item)
	po := doc(constants.DocTypePO, "Acme Corp", "1000.00", item)

	e := NewEngine(stub, testLogger())
	v := e.Compare(context.Background(), inv, po, DefaultOptions())

	assert.Equal(t, 1, stub.calls)
	assert.Equal(t, constants.VerdictMatched, v.Status)
	assert.Empty(t, v.Reasons)
}

func TestComparePrimaryPayloadNormalized(t *testing.T) {
	stub := &stubComparator{payload: llm.VerdictPayload{
		Status:  "approved", // not whitelisted
		Summary: "looks fine",
		Reasons: "Vendor name differs slightly", // legacy scalar shape
		Details: llm.DetailsPayload{
			InvoiceTotal: "$1,050.00",
			POTotal:      map[string]any{"amount": 1000},
			Items: []llm.ItemPayload{
				{Description: "Widget A", InvQuantity: "5", POQuantity: 5,
					InvUnitPrice: 210.0, POUnitPrice: "200", MatchScore: "80"},
			},
		},
	}}
	inv := doc(constants.DocTypeInvoice, "Acme Corp", "1050.00")
	po := doc(constants.DocTypePO, "ACME Corporation", "1000.00")

	e := NewEngine(stub, testLogger())
	v := e.Compare(context.Background(), inv, po, DefaultOptions())

	// non-whitelisted status corrected using the reasons tie-break
	assert.Equal(t, constants.VerdictNeedsReview, v.Status)
	require.Len(t, v.Reasons, 1)
	assert.Equal(t, 1, v.MismatchCount())

	require.NotNil(t, v.Details.InvoiceTotal)
	assert.True(t, v.Details.InvoiceTotal.Equal(decimal.NewFromInt(1050)))
	require.NotNil(t, v.Details.POTotal)
	assert.True(t, v.Details.POTotal.Equal(decimal.NewFromInt(1000)))

	require.Len(t, v.Details.Items, 1)
	it := v.Details.Items[0]
	require.NotNil(t, it.InvQuantity)
	assert.True(t, it.InvQuantity.Equal(decimal.NewFromInt(5)))
	require.NotNil(t, it.POUnitPrice)
	assert.True(t, it.POUnitPrice.Equal(decimal.NewFromInt(200)))
	assert.Equal(t, 80.0, it.MatchScore)

	// vendors backfilled from the source documents
	assert.Equal(t, "Acme Corp", v.Details.VendorInvoice)
	assert.Equal(t, "ACME Corporation", v.Details.VendorPO)
}

func TestCompareEmptyStatusNoReasonsCorrectsToMatched(t *testing.T) {
	stub := &stubComparator{payload: llm.VerdictPayload{
		Status:  "",
		Summary: "ok",
		Reasons: []any{},
		Details: llm.DetailsPayload{Items: []llm.ItemPayload{}},
	}}

	e := NewEngine(stub, testLogger())
	v := e.Compare(context.Background(), nil, nil, DefaultOptions())
	assert.Equal(t, constants.VerdictMatched, v.Status)
}

func TestCompareCustomToleranceIsStricter(t *testing.T) {
	// 3% over the PO total: rejected at 1%/$0.50, accepted at 5%/$5.
	inv := doc(constants.DocTypeInvoice, "Acme Corp", "103.00")
	po := doc(constants.DocTypePO, "Acme Corp", "100.00")

	e := NewEngine(nil, testLogger())

	strict := e.Compare(context.Background(), inv, po, Options{
		ItemTolerance:  money.Tolerance{Rel: 0.01, Abs: 0.5},
		TotalTolerance: money.Tolerance{Rel: 0.01, Abs: 0.5},
	})
	assert.Equal(t, constants.VerdictNeedsReview, strict.Status)

	loose := e.Compare(context.Background(), inv, po, Options{
		ItemTolerance:  money.Tolerance{Rel: 0.05, Abs: 5},
		TotalTolerance: money.Tolerance{Rel: 0.05, Abs: 5},
	})
	assert.Equal(t, constants.VerdictMatched, loose.Status)
}

func TestFoldReasons(t *testing.T) {
	assert.Equal(t, []string{}, foldReasons(nil))
	assert.Equal(t, []string{}, foldReasons(""))
	assert.Equal(t, []string{"one"}, foldReasons("one"))
	assert.Equal(t, []string{"a", "b"}, foldReasons([]any{"a", "b"}))
	assert.Equal(t, []string{"42"}, foldReasons(42))
}
