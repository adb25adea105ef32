package ocr

import (
	"regexp"
	"strings"
)

var (
	reBoxNoise   = regexp.MustCompile(`[|]{2,}|[_]{3,}|[~]{2,}`)
	reBlankRuns  = regexp.MustCompile(`\n{3,}`)
	reTrailingWS = regexp.MustCompile(`[ \t]+\n`)
)

// NormalizeText cleans OCR output without disturbing line structure: the
// extraction regexes downstream key on one row per line.
func NormalizeText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = reBoxNoise.ReplaceAllString(s, "")
	s = reTrailingWS.ReplaceAllString(s, "\n")
	s = reBlankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
