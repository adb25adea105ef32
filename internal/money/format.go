package money

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatUSD renders an amount as "$1,234.56" for human-readable messages,
// or "N/A" when the amount is unknown.
func FormatUSD(d *decimal.Decimal) string {
	if d == nil {
		return "N/A"
	}
	s := d.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	intPart, fracPart, _ := strings.Cut(s, ".")

	var b strings.Builder
	if neg {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	b.WriteByte('.')
	b.WriteString(fracPart)
	return b.String()
}
