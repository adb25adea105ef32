// Package extract turns raw OCR text into a ParsedDocument. The model-backed
// path runs first; a deterministic regex path covers documents the model
// cannot, so extraction always produces something for the core to compare.
package extract

import (
	"regexp"
	"strings"

	"github.com/invoicegate/invoice-gate/constants"
)

// Keyword indicators for document classification. Each hit counts one point
// for its side; the higher score wins.
var invoiceIndicators = compileAll(
	`invoice\s*#`, `invoice\s*id`, `tax\s*invoice`, `bill\s*to`, `amount\s*due`,
	`subtotal`, `total\s*due`, `balance\s*due`, `invoice\s*date`,
	`tax\s*amount`, `grand\s*total`, `invoice\s*total`,
)

var poIndicators = compileAll(
	`purchase\s*order`, `po\s*#`, `po\s*id`, `ordered\s*by`, `supplier`,
	`ship\s*to`, `delivery\s*date`, `order\s*date`, `p\.o\.\s*number`,
	`purchase\s*order\s*id`,
)

// ClassifyDocumentType guesses whether text is an invoice or a purchase
// order from keyword evidence. A tie (including zero evidence) is unknown.
func ClassifyDocumentType(text string) constants.DocType {
	lower := strings.ToLower(text)

	invScore := 0
	for _, rx := range invoiceIndicators {
		if rx.MatchString(lower) {
			invScore++
		}
	}
	poScore := 0
	for _, rx := range poIndicators {
		if rx.MatchString(lower) {
			poScore++
		}
	}

	switch {
	case invScore > poScore:
		return constants.DocTypeInvoice
	case poScore > invScore:
		return constants.DocTypePO
	default:
		return constants.DocTypeUnknown
	}
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(p)
	}
	return out
}
