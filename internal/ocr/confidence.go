package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate     = regexp.MustCompile(`\b(20\d{2}-\d{2}-\d{2}|\d{2}/\d{2}/20\d{2})\b`)
	reCurrency = regexp.MustCompile(`\b(usd|eur|gbp|cad|aud|inr|jpy)\b|[$£€₹]`)
	reAmount   = regexp.MustCompile(`\b\d{1,3}(,\d{3})*(\.\d{2})\b|\b\d+\.\d{2}\b`)
	reDocWord  = regexp.MustCompile(`\b(invoice|purchase\s*order|subtotal|total)\b`)
)

// heuristicConfidence scores decoded text by how much it looks like a
// purchasing document: document keywords, a date, a currency marker and
// amount-shaped numbers each add to a small base.
func heuristicConfidence(txt string) float32 {
	lower := strings.ToLower(txt)
	score := float32(0.2)
	if reDocWord.MatchString(lower) {
		score += 0.2
	}
	if reDate.MatchString(lower) {
		score += 0.15
	}
	if reCurrency.MatchString(lower) {
		score += 0.15
	}
	if reAmount.MatchString(lower) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}
