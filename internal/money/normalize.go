// Package money is the numeric ingestion boundary for the reconciliation
// core. Everything downstream of it operates on canonical decimals or an
// explicit nil "unknown" marker, never on raw extractor output.
package money

import (
	"encoding/json"
	"regexp"
	"sort"

	"github.com/shopspring/decimal"
)

// preferredKeys is searched in order when an extractor hands us a nested
// amount object instead of a scalar (e.g. {"amount": 12.5, "currency": "USD"}).
var preferredKeys = []string{"amount", "value", "total", "amount_due", "VAT_amount", "vat_amount"}

var nonNumericRx = regexp.MustCompile(`[^0-9.\-]`)

// Normalize coerces heterogeneous field representations into a canonical
// decimal, or nil when no usable number can be recovered. It never panics:
// a field that cannot be normalized is "unknown", not an error.
func Normalize(v any) *decimal.Decimal {
	switch t := v.(type) {
	case nil:
		return nil
	case decimal.Decimal:
		return &t
	case *decimal.Decimal:
		return t
	case map[string]any:
		return normalizeMap(t)
	case float64:
		d := decimal.NewFromFloat(t)
		return &d
	case float32:
		d := decimal.NewFromFloat32(t)
		return &d
	case int:
		d := decimal.NewFromInt(int64(t))
		return &d
	case int32:
		d := decimal.NewFromInt32(t)
		return &d
	case int64:
		d := decimal.NewFromInt(t)
		return &d
	case json.Number:
		return normalizeString(t.String())
	case string:
		return normalizeString(t)
	default:
		return nil
	}
}

func normalizeMap(m map[string]any) *decimal.Decimal {
	// First present preferred key wins, even when its value normalizes to
	// nil. That mirrors how amount objects are produced upstream: the
	// preferred key IS the amount, everything else is metadata.
	for _, k := range preferredKeys {
		if inner, ok := m[k]; ok {
			return Normalize(inner)
		}
	}
	// No preferred key: fall back to the lexicographically smallest key
	// holding a scalar that normalizes. Sorting the keys keeps multi-valued
	// maps deterministic.
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		switch m[k].(type) {
		case float64, float32, int, int32, int64, json.Number, string, decimal.Decimal, *decimal.Decimal:
			if d := Normalize(m[k]); d != nil {
				return d
			}
		}
	}
	return nil
}

// normalizeString strips currency symbols, thousands separators and stray
// text, then parses the residue. "$1,234.56" -> 1234.56.
func normalizeString(s string) *decimal.Decimal {
	s = nonNumericRx.ReplaceAllString(s, "")
	if s == "" || s == "." {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil
	}
	return &d
}
