package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Tolerance is one (relative, absolute) regime governing when two amounts
// count as equal. Policy is always threaded explicitly: there are no mutable
// package-level defaults to reconfigure.
type Tolerance struct {
	Rel float64 // fraction, e.g. 0.02 for 2%
	Abs float64 // absolute amount in document currency units
}

// ItemTolerance is the default regime for line-item quantities and unit
// prices: 2% or $1, loose enough to absorb rounding.
func ItemTolerance() Tolerance { return Tolerance{Rel: 0.02, Abs: 1.0} }

// TotalTolerance is the default regime for document totals: 2% or $2.
// Looser on the absolute side because per-item rounding compounds across
// many lines.
func TotalTolerance() Tolerance { return Tolerance{Rel: 0.02, Abs: 2.0} }

// FuzzyEqual reports whether a and b are equal under tol. Either side being
// unknown (nil) is not equal. Both boundaries are inclusive. The max(..,1.0)
// floor stops the relative term collapsing to zero for near-zero amounts.
func FuzzyEqual(a, b *decimal.Decimal, tol Tolerance) bool {
	if a == nil || b == nil {
		return false
	}
	af := a.InexactFloat64()
	bf := b.InexactFloat64()

	if af == bf {
		return true
	}
	diff := math.Abs(af - bf)
	if diff <= tol.Abs {
		return true
	}
	return diff <= tol.Rel*math.Max(math.Abs(af), math.Max(math.Abs(bf), 1.0))
}
