package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invoicegate/invoice-gate/constants"
)

// MaxPromptText caps how much OCR text goes into an extraction prompt.
const MaxPromptText = 20000

// CompareSystemPrompt pins the comparator to raw-JSON output.
const CompareSystemPrompt = "You are a precise JSON comparator for financial documents. Return ONLY valid JSON with no markdown formatting."

// ExtractSystemPrompt pins the extractor to raw-JSON output.
const ExtractSystemPrompt = "You are a precise JSON extractor. Return ONLY valid JSON with no formatting."

// BuildComparePrompt renders the user prompt for one invoice/PO comparison.
func BuildComparePrompt(req CompareRequest) string {
	invJSON := mustIndentJSON(req.Invoice)
	poJSON := mustIndentJSON(req.PO)

	return fmt.Sprintf(`You are a financial document comparison AI. Compare the INVOICE and PURCHASE ORDER below.

Your task: Determine if the invoice matches the purchase order within acceptable business tolerances.

COMPARISON RULES:
1. Quantities must match exactly (or invoice can be less if items damaged/returned)
2. Unit prices should match within 2%% or $1 tolerance (for rounding)
3. Totals should match within 2%% or $2 tolerance
4. Vendor names should be the same company (exact match not required)
5. Line items should correspond to ordered items

OUTPUT FORMAT - Return ONLY this JSON structure (no markdown, no code blocks):
{
  "status": "MATCHED" or "NEEDS REVIEW",
  "summary": "Brief explanation of match result",
  "reasons": ["list", "of", "specific", "issues"],
  "details": {
    "invoice_total": number,
    "po_total": number,
    "vendor_invoice": "vendor name from invoice",
    "vendor_po": "vendor name from PO",
    "items": [
      {
        "description": "item description",
        "inv_quantity": number or null,
        "po_quantity": number or null,
        "inv_unit_price": number or null,
        "po_unit_price": number or null,
        "quantity_ok": true/false,
        "price_ok": true/false,
        "match_score": number (0-100)
      }
    ]
  }
}

IMPORTANT:
- Use "MATCHED" if documents match within tolerances
- Use "NEEDS REVIEW" only for significant discrepancies
- Be lenient with minor rounding differences
- Return ONLY the JSON object

INVOICE DATA:
%s

PURCHASE ORDER DATA:
%s

Return the comparison JSON:`, invJSON, poJSON)
}

// BuildExtractPrompt renders the user prompt for structured field extraction
// from OCR text, steered by the classified document type.
func BuildExtractPrompt(req ExtractRequest) string {
	docInstruction := "This is an Invoice document."
	if req.DocTypeHint == constants.DocTypePO {
		docInstruction = "This is a Purchase Order (PO) document."
	}

	text := TruncateSmart(req.OCRText, MaxPromptText)

	return fmt.Sprintf(`You are a precise financial document parser. %s

Extract ALL fields into a JSON object. Be extremely careful with numbers - extract them as numbers, not strings.

Required JSON structure:
{
  "doc_type": "invoice" or "po",
  "id": "primary document number",
  "invoice_number": "for invoices only",
  "po_number": "PO reference (can be in invoice or PO)",
  "vendor": "vendor/supplier company name",
  "buyer": "buyer/customer company name",
  "currency": "USD, EUR, INR, etc.",
  "date": "document date in YYYY-MM-DD format",
  "subtotal": number or null,
  "tax": number or null,
  "total": number or null,
  "items": [
    {
      "item_id": "item identifier",
      "description": "item name/description",
      "quantity": number,
      "unit_price": number,
      "line_total": number
    }
  ]
}

CRITICAL RULES:
1. Return ONLY valid JSON - no markdown, no code blocks, no explanations
2. Extract ALL numeric values as actual numbers (not strings with currency symbols)
3. For missing fields, use null (not empty string)
4. Extract ALL line items you can find
5. If this is an invoice referencing a PO, include both invoice_number and po_number
6. Parse quantities and prices very carefully

DOCUMENT TEXT:
%s

Return ONLY the JSON object:`, docInstruction, text)
}

// TruncateSmart keeps the beginning and end of long documents: headers carry
// ids and vendors, trailers carry totals. 80% head, 20% tail.
func TruncateSmart(text string, max int) string {
	if len(text) <= max || max <= 0 {
		return text
	}
	keepStart := max * 8 / 10
	keepEnd := max - keepStart
	return text[:keepStart] + "\n\n[... MIDDLE TRUNCATED ...]\n\n" + text[len(text)-keepEnd:]
}

func mustIndentJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return strings.TrimSpace(string(b))
}
