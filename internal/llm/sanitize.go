package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var trailingCommaRx = regexp.MustCompile(`,(\s*[}\]])`)

// CleanJSONResponse isolates the JSON object embedded in a model response:
// markdown code fences are stripped and everything outside the outermost
// '{' .. '}' span is discarded.
func CleanJSONResponse(text string) string {
	t := strings.TrimSpace(text)

	if strings.HasPrefix(t, "```json") {
		t = t[len("```json"):]
	} else if strings.HasPrefix(t, "```") {
		t = t[3:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	t = strings.TrimSpace(t)

	if i := strings.Index(t, "{"); i >= 0 {
		if j := strings.LastIndex(t, "}"); j > i {
			t = t[i : j+1]
		}
	}
	return t
}

// DecodeObject cleans a model response and unmarshals the embedded object
// into v. On a parse failure it strips trailing commas and re-attempts the
// parse exactly once before giving up. The bytes that parsed successfully
// are returned for auditing and schema validation.
func DecodeObject(text string, v any) ([]byte, error) {
	cleaned := []byte(CleanJSONResponse(text))
	if err := json.Unmarshal(cleaned, v); err == nil {
		return cleaned, nil
	}

	repaired := trailingCommaRx.ReplaceAll(cleaned, []byte("$1"))
	if err := json.Unmarshal(repaired, v); err != nil {
		return nil, fmt.Errorf("model returned invalid JSON after repair: %w", err)
	}
	return repaired, nil
}
