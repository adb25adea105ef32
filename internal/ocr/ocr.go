// Package ocr extracts text from uploaded invoice and purchase-order files
// through external poppler/tesseract binaries. Text-based PDFs short-circuit
// to direct extraction; scanned pages are rasterized and OCR'd.
package ocr

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/common"
)

// minDirectTextLen is the direct-extraction cutoff: a PDF yielding less text
// than this is treated as scanned and sent through rasterize+OCR.
const minDirectTextLen = 50

type Config struct {
	Pdftotext string // binary name or absolute path; if empty -> "pdftotext"
	Pdftoppm  string // binary name or absolute path; if empty -> "pdftoppm"
	Tesseract string // binary name or absolute path; if empty -> "tesseract"

	TesseractLang string // default "eng"
	DPI           int    // rasterization DPI for scanned PDFs, default 300
	MaxPages      int    // default 5; invoices rarely run longer

	PSM int // default 6, uniform text block works well for tabular documents
	OEM int // default 3
}

type ExtractionResult struct {
	Text       string
	Pages      int
	SourceType string // constants.PDF | constants.IMAGE
	Method     string // "pdf-text" | "pdf-ocr" | "image-ocr"
	Language   string
	Duration   time.Duration
	Warnings   []string
	Confidence float32
}

type Extractor struct {
	cfg    Config
	runner Runner
	logger *slog.Logger
}

func NewExtractor(cfg Config, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Pdftotext == "" {
		cfg.Pdftotext = "pdftotext"
	}
	if cfg.Pdftoppm == "" {
		cfg.Pdftoppm = "pdftoppm"
	}
	if cfg.Tesseract == "" {
		cfg.Tesseract = "tesseract"
	}
	if cfg.TesseractLang == "" {
		cfg.TesseractLang = "eng"
	}
	if cfg.DPI <= 0 {
		cfg.DPI = 300
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 5
	}
	if cfg.PSM <= 0 {
		cfg.PSM = 6
	}
	if cfg.OEM <= 0 {
		cfg.OEM = 3
	}
	return &Extractor{cfg: cfg, runner: execRunner{}, logger: logger}
}

// NewExtractorWithRunner wires an explicit command runner; tests use it to
// avoid shelling out.
func NewExtractorWithRunner(cfg Config, runner Runner, logger *slog.Logger) *Extractor {
	e := NewExtractor(cfg, logger)
	if runner != nil {
		e.runner = runner
	}
	return e
}

// Extract picks a strategy based on file extension.
func (e *Extractor) Extract(ctx context.Context, path string) (ExtractionResult, error) {
	start := time.Now()
	ext := constants.NormalizeExt(filepath.Ext(path))
	e.logger.Debug("ocr.extract.start", "path", path, "ext", ext)

	switch constants.MapExtToFormat(ext) {
	case constants.PDF:
		res, err := e.extractPDF(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	case constants.IMAGE:
		res, err := e.extractImage(ctx, path)
		res.Duration = time.Since(start)
		return res, err
	default:
		e.logger.Error("ocr.extract.unsupported_extension", "extension", ext)
		return ExtractionResult{}, fmt.Errorf("unsupported extension %q: %w", ext, common.ErrExtraction)
	}
}
