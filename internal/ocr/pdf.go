package ocr

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/invoicegate/invoice-gate/constants"
)

func (e *Extractor) extractPDF(ctx context.Context, path string) (ExtractionResult, error) {
	// Text-based PDFs are the common case for machine-issued invoices; try
	// direct extraction before paying for rasterization.
	text, pages, warns, err := e.pdfToText(ctx, path)
	if err == nil && len(strings.TrimSpace(text)) > minDirectTextLen {
		text = NormalizeText(text)
		return ExtractionResult{
			Text:       text,
			Pages:      pages,
			SourceType: constants.PDF,
			Method:     "pdf-text",
			Language:   e.cfg.TesseractLang,
			Warnings:   warns,
			Confidence: heuristicConfidence(text),
		}, nil
	}
	if err != nil {
		warns = append(warns, fmt.Sprintf("pdftotext failed: %v", err))
	}

	text, pages, ocrWarns, err := e.pdfToOCR(ctx, path)
	warns = append(warns, ocrWarns...)
	if err != nil {
		return ExtractionResult{SourceType: constants.PDF, Warnings: warns}, err
	}
	text = NormalizeText(text)
	return ExtractionResult{
		Text:       text,
		Pages:      pages,
		SourceType: constants.PDF,
		Method:     "pdf-ocr",
		Language:   e.cfg.TesseractLang,
		Warnings:   warns,
		Confidence: heuristicConfidence(text),
	}, nil
}

func (e *Extractor) pdfToText(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	// pdftotext -layout -enc UTF-8 -eol unix <path> -
	out, errb, err := e.runner.Run(ctx, e.cfg.Pdftotext, "-layout", "-enc", "UTF-8", "-eol", "unix", path, "-")
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}
	text = string(out)
	// pdftotext separates pages with form feeds
	pages = 1 + strings.Count(text, "\f")
	return text, pages, nil, nil
}

func (e *Extractor) pdfToOCR(ctx context.Context, path string) (text string, pages int, warnings []string, err error) {
	tmpDir, err := os.MkdirTemp("", "ig-pp-*")
	if err != nil {
		return "", 0, nil, err
	}
	defer func() {
		if rmErr := os.RemoveAll(tmpDir); rmErr != nil {
			e.logger.Warn("ocr.pdf.tmp_cleanup_failed", "dir", tmpDir, "error", rmErr)
		}
	}()

	prefix := filepath.Join(tmpDir, "page")
	// pdftoppm -r <dpi> -png <in.pdf> <tmp/page>
	_, errb, err := e.runner.Run(ctx, e.cfg.Pdftoppm, "-r", fmt.Sprintf("%d", e.cfg.DPI), "-png", path, prefix)
	if err != nil {
		return "", 0, []string{string(errb)}, err
	}

	// collect generated pngs (prefix-1.png, prefix-2.png, ...)
	matches, _ := filepath.Glob(prefix + "-*.png")
	sort.Strings(matches)
	if e.cfg.MaxPages > 0 && len(matches) > e.cfg.MaxPages {
		matches = matches[:e.cfg.MaxPages]
	}
	if len(matches) == 0 {
		return "", 0, []string{"pdftoppm produced no images"}, fmt.Errorf("no pages rendered")
	}

	var b strings.Builder
	var warns []string
	for _, img := range matches {
		txt, w, err := e.tesseractOCR(ctx, img)
		if err != nil {
			warns = append(warns, err.Error())
			continue
		}
		if b.Len() > 0 {
			b.WriteString("\n\f\n")
		}
		b.WriteString(txt)
		warns = append(warns, w...)
	}
	return b.String(), len(matches), warns, nil
}
