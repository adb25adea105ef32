package extract

import (
	"context"
	"log/slog"
	"strings"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/llm"
)

// Service is the extraction orchestrator: classify, try the model, fall back
// to regexes. The model extractor is optional; without one the service runs
// regex-only.
type Service struct {
	extractor llm.FieldExtractor
	log       *slog.Logger
}

func NewService(extractor llm.FieldExtractor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{extractor: extractor, log: logger}
}

// ExtractStructuredFields turns OCR text into a ParsedDocument. A model
// extraction only counts as successful when it recovered a total or at least
// one line item; anything weaker is replaced by the regex result.
func (s *Service) ExtractStructuredFields(ctx context.Context, text string, hint constants.DocType) *entity.ParsedDocument {
	docType := ClassifyDocumentType(text)
	if hint == constants.DocTypeInvoice || hint == constants.DocTypePO {
		docType = hint
	}
	s.log.Info("extract.start", "text_len", len(text), "doc_type", string(docType))

	if s.extractor != nil && strings.TrimSpace(text) != "" {
		fields, _, err := s.extractor.ExtractFields(ctx, llm.ExtractRequest{
			OCRText:     text,
			DocTypeHint: docType,
		})
		if err != nil {
			s.log.Warn("extract.model.failed", "error", err)
		} else {
			doc := FromFields(fields, docType, text)
			if doc.Total != nil || len(doc.Items) > 0 {
				s.log.Info("extract.model.ok",
					"doc_id", doc.ID,
					"items", len(doc.Items),
					"has_total", doc.Total != nil,
				)
				return doc
			}
			s.log.Warn("extract.model.incomplete", "doc_id", doc.ID)
		}
	}

	doc := FromRegex(text, docType)
	s.log.Info("extract.regex.ok",
		"doc_id", doc.ID,
		"items", len(doc.Items),
		"has_total", doc.Total != nil,
	)
	return doc
}
