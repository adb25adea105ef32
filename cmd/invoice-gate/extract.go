package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/entity"
)

var (
	extractDocType string
	extractRawText bool
)

var extractCmd = &cobra.Command{
	Use:   "extract <file>",
	Short: "OCR a document and print the extracted fields as JSON",
	Long: `extract runs the OCR pipeline on a PDF or image, classifies the document
type, and extracts structured fields (model-backed when an API key is
configured, regex otherwise). The parsed document is printed to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		result, err := newOCRExtractor().Extract(ctx, args[0])
		if err != nil {
			return fmt.Errorf("extract text from %s: %w", args[0], err)
		}
		if extractRawText {
			fmt.Println(result.Text)
			return nil
		}

		doc := newExtractService().ExtractStructuredFields(ctx, result.Text, docTypeHint(extractDocType))
		return printJSON(struct {
			Document   *entity.ParsedDocument `json:"document"`
			OCRMethod  string                 `json:"ocr_method"`
			Pages      int                    `json:"pages"`
			Confidence float32                `json:"confidence"`
		}{doc, result.Method, result.Pages, result.Confidence})
	},
}

func init() {
	extractCmd.Flags().StringVarP(&extractDocType, "type", "t", "auto",
		"document type hint: invoice, po, or auto")
	extractCmd.Flags().BoolVar(&extractRawText, "raw", false,
		"print the normalized OCR text instead of extracted fields")
	rootCmd.AddCommand(extractCmd)
}

func docTypeHint(s string) constants.DocType {
	switch s {
	case "invoice":
		return constants.DocTypeInvoice
	case "po", "purchase_order", "purchase-order":
		return constants.DocTypePO
	default:
		return constants.DocTypeUnknown
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
