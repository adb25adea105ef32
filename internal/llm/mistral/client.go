package mistral

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/invoicegate/invoice-gate/internal/llm"
)

// CompareDocuments implements llm.Comparator over chat/completions. The
// response must satisfy the verdict schema; anything else is an error the
// reconciliation engine recovers from by falling back.
func (c *Client) CompareDocuments(ctx context.Context, req llm.CompareRequest) (llm.VerdictPayload, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	if !c.Configured() {
		return llm.VerdictPayload{}, nil, fmt.Errorf("mistral client not configured: missing API key")
	}

	c.log.Info("llm.compare.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"invoice_id", req.Invoice.ID,
		"po_id", req.PO.ID,
		"invoice_items", len(req.Invoice.Items),
		"po_items", len(req.PO.Items),
	)

	content, err := c.chatComplete(ctx, llm.CompareSystemPrompt, llm.BuildComparePrompt(req))
	if err != nil {
		c.log.Error("llm.compare.call_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.VerdictPayload{}, nil, err
	}

	var payload llm.VerdictPayload
	raw, err := llm.DecodeObject(content, &payload)
	if err != nil {
		c.log.Error("llm.compare.decode_error", "req_id", rid, "error", err,
			"content_preview", preview(content, 300),
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.VerdictPayload{}, nil, err
	}
	if err := llm.ValidateJSONAgainstSchema(llm.BuildVerdictJSONSchema(), raw); err != nil {
		c.log.Error("llm.compare.schema_validation_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return llm.VerdictPayload{}, raw, fmt.Errorf("verdict schema validation failed: %w", err)
	}

	c.log.Info("llm.compare.ok",
		"req_id", rid,
		"status", payload.Status,
		"items", len(payload.Details.Items),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return payload, raw, nil
}

// ExtractFields implements llm.FieldExtractor over chat/completions.
func (c *Client) ExtractFields(ctx context.Context, req llm.ExtractRequest) (map[string]any, []byte, error) {
	rid := uuid.New().String()
	start := time.Now()

	if !c.Configured() {
		return nil, nil, fmt.Errorf("mistral client not configured: missing API key")
	}

	c.log.Info("llm.extract.start",
		"req_id", rid,
		"model", c.cfg.Model,
		"text_len", len(req.OCRText),
		"doc_type_hint", string(req.DocTypeHint),
		"filename", req.FilenameHint,
	)

	content, err := c.chatComplete(ctx, llm.ExtractSystemPrompt, llm.BuildExtractPrompt(req))
	if err != nil {
		c.log.Error("llm.extract.call_error", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, err
	}

	var fields map[string]any
	raw, err := llm.DecodeObject(content, &fields)
	if err != nil {
		c.log.Error("llm.extract.decode_error", "req_id", rid, "error", err,
			"content_preview", preview(content, 300),
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, nil, err
	}
	if err := llm.ValidateJSONAgainstSchema(llm.BuildDocumentJSONSchema(), raw); err != nil {
		c.log.Error("llm.extract.schema_validation_failed", "req_id", rid, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return nil, raw, fmt.Errorf("document schema validation failed: %w", err)
	}

	c.log.Info("llm.extract.ok",
		"req_id", rid,
		"keys", len(fields),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return fields, raw, nil
}

func (c *Client) chatComplete(ctx context.Context, system, user string) (string, error) {
	body := map[string]any{
		"model":           c.cfg.Model,
		"temperature":     c.cfg.Temperature,
		"max_tokens":      c.cfg.MaxTokens,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
	}

	endpoint := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	headers := map[string]string{"Authorization": "Bearer " + c.cfg.APIKey}

	raw, _, err := llm.SendJSON(ctx, c.httpClient, endpoint, body, headers, c.log)
	if err != nil {
		return "", err
	}

	var cc struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &cc); err != nil {
		return "", fmt.Errorf("decode chat response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return "", fmt.Errorf("no choices in chat response")
	}
	content := strings.TrimSpace(cc.Choices[0].Message.Content)
	if content == "" {
		return "", fmt.Errorf("model returned empty response")
	}
	return content, nil
}

func preview(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
