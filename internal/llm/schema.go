package llm

// BuildVerdictJSONSchema returns the JSON-Schema the comparator's response
// must satisfy. Numeric detail fields are deliberately loose (number, string
// or nested object) — money.Normalize canonicalizes them afterwards — but the
// envelope itself is a strict contract: any response missing status, summary,
// reasons or details fails validation and routes the engine to its fallback.
func BuildVerdictJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"status":  map[string]any{"type": "string", "minLength": 1},
			"summary": map[string]any{"type": "string"},
			// an array of strings normally; a bare string is a tolerated
			// legacy shape folded into a one-element list downstream
			"reasons": map[string]any{
				"type":  []string{"array", "string"},
				"items": map[string]any{"type": "string"},
			},
			"details": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"invoice_total":  amountProp(),
					"po_total":       amountProp(),
					"vendor_invoice": map[string]any{"type": []string{"string", "null"}},
					"vendor_po":      map[string]any{"type": []string{"string", "null"}},
					"items": map[string]any{
						"type": "array",
						"items": map[string]any{
							"type": "object",
							"properties": map[string]any{
								"description":    map[string]any{"type": []string{"string", "null"}},
								"inv_quantity":   amountProp(),
								"po_quantity":    amountProp(),
								"inv_unit_price": amountProp(),
								"po_unit_price":  amountProp(),
								"quantity_ok":    map[string]any{"type": "boolean"},
								"price_ok":       map[string]any{"type": "boolean"},
								"match_score":    amountProp(),
							},
							"required": []string{"quantity_ok", "price_ok"},
						},
					},
				},
				"required": []string{"items"},
			},
		},
		"required": []string{"status", "summary", "reasons", "details"},
	}
}

// BuildDocumentJSONSchema returns the (loose) schema for extracted document
// fields. Extraction output is best-effort by design, so nothing is required
// beyond shape: wrong-typed items or amounts are dropped by normalization,
// not rejected here.
func BuildDocumentJSONSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"doc_type":       map[string]any{"type": []string{"string", "null"}},
			"id":             map[string]any{"type": []string{"string", "number", "null"}},
			"invoice_number": map[string]any{"type": []string{"string", "number", "null"}},
			"po_number":      map[string]any{"type": []string{"string", "number", "null"}},
			"vendor":         map[string]any{"type": []string{"string", "null"}},
			"buyer":          map[string]any{"type": []string{"string", "null"}},
			"currency":       map[string]any{"type": []string{"string", "null"}},
			"date":           map[string]any{"type": []string{"string", "null"}},
			"subtotal":       amountProp(),
			"tax":            amountProp(),
			"total":          amountProp(),
			"items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"item_id":     map[string]any{"type": []string{"string", "number", "null"}},
						"description": map[string]any{"type": []string{"string", "null"}},
						"quantity":    amountProp(),
						"unit_price":  amountProp(),
						"line_total":  amountProp(),
					},
				},
			},
		},
	}
}

// amountProp admits every shape an amount arrives in before normalization.
func amountProp() map[string]any {
	return map[string]any{"type": []string{"number", "string", "object", "null"}}
}
