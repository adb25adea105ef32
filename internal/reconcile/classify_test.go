package reconcile

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/money"
)

func TestClassifyQuantityAndPriceMismatches(t *testing.T) {
	details := entity.VerdictDetails{
		Items: []entity.ItemComparison{
			{Description: "Widget A", InvQuantity: dec("8"), POQuantity: dec("10"),
				InvUnitPrice: dec("5.00"), POUnitPrice: dec("5.00"),
				QuantityOK: false, PriceOK: true},
			{Description: "Widget B", InvQuantity: dec("3"), POQuantity: dec("3"),
				InvUnitPrice: dec("12.50"), POUnitPrice: dec("10.00"),
				QuantityOK: true, PriceOK: false},
		},
	}

	discs := Classify(details, money.TotalTolerance())
	require.Len(t, discs, 2)

	assert.Equal(t, constants.QuantityMismatch, discs[0].Type)
	assert.Equal(t, constants.LevelItem, discs[0].Level)
	assert.Equal(t, "quantity", discs[0].Field)
	assert.Equal(t, "10", discs[0].Expected)
	assert.Equal(t, "8", discs[0].Actual)
	require.NotNil(t, discs[0].ItemIndex)
	assert.Equal(t, 0, *discs[0].ItemIndex)

	assert.Equal(t, constants.PriceMismatch, discs[1].Type)
	assert.Equal(t, "unit_price", discs[1].Field)
	assert.Equal(t, "10.00", discs[1].Expected)
	assert.Equal(t, "12.50", discs[1].Actual)
	require.NotNil(t, discs[1].ItemIndex)
	assert.Equal(t, 1, *discs[1].ItemIndex)
}

func TestClassifyOneSidedItemsEmitFieldMismatchesToo(t *testing.T) {
	details := entity.VerdictDetails{
		Items: []entity.ItemComparison{
			// one-sided rows carry both flags false, so each contributes
			// quantity_mismatch and price_mismatch alongside its extra/missing record
			{Description: "Surcharge", InvQuantity: dec("1"), InvUnitPrice: dec("25"),
				QuantityOK: false, PriceOK: false},
			{Description: "Widget A", POQuantity: dec("10"), POUnitPrice: dec("5"),
				QuantityOK: false, PriceOK: false},
		},
	}

	discs := Classify(details, money.TotalTolerance())
	require.Len(t, discs, 6)

	assert.Equal(t, constants.QuantityMismatch, discs[0].Type)
	assert.Equal(t, "", discs[0].Expected)
	assert.Equal(t, "1", discs[0].Actual)
	assert.Equal(t, constants.PriceMismatch, discs[1].Type)
	assert.Equal(t, "", discs[1].Expected)
	assert.Equal(t, "25.00", discs[1].Actual)
	assert.Equal(t, constants.ExtraItem, discs[2].Type)
	assert.Equal(t, "", discs[2].Expected)
	assert.Equal(t, "Surcharge", discs[2].Actual)

	assert.Equal(t, constants.QuantityMismatch, discs[3].Type)
	assert.Equal(t, "10", discs[3].Expected)
	assert.Equal(t, "", discs[3].Actual)
	assert.Equal(t, constants.PriceMismatch, discs[4].Type)
	assert.Equal(t, constants.MissingItem, discs[5].Type)
	assert.Equal(t, "Widget A", discs[5].Expected)
	assert.Equal(t, "", discs[5].Actual)
	require.NotNil(t, discs[5].ItemIndex)
	assert.Equal(t, 1, *discs[5].ItemIndex)
}

func TestClassifyTotalsWithinToleranceEmitNothing(t *testing.T) {
	details := entity.VerdictDetails{
		InvoiceTotal: dec("1001.50"),
		POTotal:      dec("1000.00"),
	}
	assert.Empty(t, Classify(details, money.TotalTolerance()))

	// one side unknown: cannot compare, no discrepancy
	details.POTotal = nil
	assert.Empty(t, Classify(details, money.TotalTolerance()))
}

func TestClassifyDocumentsHeaderChecks(t *testing.T) {
	inv := &entity.ParsedDocument{
		DocType:  constants.DocTypeInvoice,
		PONumber: "PO-999",
		Currency: "EUR",
		Subtotal: dec("950.00"),
		Tax:      dec("100.00"),
	}
	po := &entity.ParsedDocument{
		DocType:  constants.DocTypePO,
		ID:       "PO-123",
		Currency: "USD",
		Subtotal: dec("900.00"),
		Tax:      dec("90.00"),
	}

	discs := ClassifyDocuments(inv, po, entity.Verdict{}, DefaultOptions())

	types := make(map[constants.DiscrepancyType]entity.Discrepancy, len(discs))
	for _, d := range discs {
		types[d.Type] = d
	}

	require.Contains(t, types, constants.CurrencyMismatch)
	assert.Equal(t, constants.LevelHeader, types[constants.CurrencyMismatch].Level)
	assert.Equal(t, "USD", types[constants.CurrencyMismatch].Expected)
	assert.Equal(t, "EUR", types[constants.CurrencyMismatch].Actual)

	require.Contains(t, types, constants.SubtotalMismatch)
	assert.Equal(t, "900.00", types[constants.SubtotalMismatch].Expected)

	require.Contains(t, types, constants.TaxMismatch)
	assert.Equal(t, constants.LevelTotal, types[constants.TaxMismatch].Level)

	require.Contains(t, types, constants.POLinkMismatch)
	assert.Equal(t, "PO-123", types[constants.POLinkMismatch].Expected)
	assert.Equal(t, "PO-999", types[constants.POLinkMismatch].Actual)
}

func TestClassifyDocumentsMatchingHeadersEmitNothing(t *testing.T) {
	inv := &entity.ParsedDocument{PONumber: "po-123", Currency: "usd", Tax: dec("90")}
	po := &entity.ParsedDocument{ID: "PO-123", PONumber: "PO-123", Currency: "USD", Tax: dec("90.50")}

	assert.Empty(t, ClassifyDocuments(inv, po, entity.Verdict{}, DefaultOptions()))
	assert.Empty(t, ClassifyDocuments(nil, nil, entity.Verdict{}, DefaultOptions()))
}
