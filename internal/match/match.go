// Package match pairs invoice line items with purchase-order line items
// using a weighted additive similarity score.
package match

import (
	"strings"

	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/money"
)

// Score weights. A perfect pair (id + full description overlap + quantity +
// price) reaches 100.
const (
	scoreItemID      = 50.0
	scoreDescription = 30.0
	scoreQuantity    = 10.0
	scoreUnitPrice   = 10.0
)

// Pair associates at most one invoice item with at most one PO item. Exactly
// one side nil signals an extra (invoice-only) or missing (PO-only) item.
// A zero score with both sides set is still a best-effort match; consumers
// decide significance from the score and the per-field checks.
type Pair struct {
	Invoice *entity.LineItem
	PO      *entity.LineItem
	Score   float64
}

// Items scores every invoice item against every PO item and keeps the best
// PO candidate per invoice item (ties keep the first encountered). PO items
// whose description never appears among matched PO items are appended as
// invoice-side-empty pairs — the "missing from invoice" signal.
//
// The sweep keys on lower-cased description text, so a PO item with an empty
// or duplicate description can be absorbed by another matched item. That is
// a known approximation carried over deliberately, not a defect.
func Items(invItems, poItems []entity.LineItem, tol money.Tolerance) []Pair {
	pairs := make([]Pair, 0, len(invItems)+len(poItems))

	for i := range invItems {
		inv := &invItems[i]

		var best *entity.LineItem
		bestScore := 0.0
		for j := range poItems {
			po := &poItems[j]
			if s := scorePair(inv, po, tol); s > bestScore {
				bestScore = s
				best = po
			}
		}
		pairs = append(pairs, Pair{Invoice: inv, PO: best, Score: bestScore})
	}

	matchedDescs := make(map[string]struct{}, len(pairs))
	for _, p := range pairs {
		if p.PO != nil {
			matchedDescs[strings.ToLower(p.PO.Description)] = struct{}{}
		}
	}
	for j := range poItems {
		po := &poItems[j]
		if _, ok := matchedDescs[strings.ToLower(po.Description)]; !ok {
			pairs = append(pairs, Pair{PO: po, Score: 0})
		}
	}

	return pairs
}

func scorePair(inv, po *entity.LineItem, tol money.Tolerance) float64 {
	score := 0.0

	invID := strings.ToUpper(strings.TrimSpace(inv.ItemID))
	poID := strings.ToUpper(strings.TrimSpace(po.ItemID))
	if invID != "" && poID != "" && invID == poID {
		score += scoreItemID
	}

	score += descriptionOverlap(inv.Description, po.Description) * scoreDescription

	if inv.Quantity != nil && po.Quantity != nil && money.FuzzyEqual(inv.Quantity, po.Quantity, tol) {
		score += scoreQuantity
	}
	if inv.UnitPrice != nil && po.UnitPrice != nil && money.FuzzyEqual(inv.UnitPrice, po.UnitPrice, tol) {
		score += scoreUnitPrice
	}

	return score
}

// descriptionOverlap is a Jaccard-like token overlap in [0,1], using the
// larger token set as the denominator. Zero when either description is empty.
func descriptionOverlap(a, b string) float64 {
	aTokens := tokenSet(a)
	bTokens := tokenSet(b)
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}

	common := 0
	for tok := range aTokens {
		if _, ok := bTokens[tok]; ok {
			common++
		}
	}
	if common == 0 {
		return 0
	}

	denom := len(aTokens)
	if len(bTokens) > denom {
		denom = len(bTokens)
	}
	return float64(common) / float64(denom)
}

func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(strings.TrimSpace(s)))
	if len(fields) == 0 {
		return nil
	}
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}
