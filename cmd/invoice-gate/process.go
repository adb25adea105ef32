package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/invoicegate/invoice-gate/constants"
	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/link"
	"github.com/invoicegate/invoice-gate/internal/reconcile"
	"github.com/invoicegate/invoice-gate/internal/storage"
)

var (
	processDocType string
	processPOID    string
)

// processResult is the JSON shape printed after an invoice run.
type processResult struct {
	RecordID      string                 `json:"record_id"`
	Document      *entity.ParsedDocument `json:"document"`
	LinkedPOID    string                 `json:"linked_po_id,omitempty"`
	LinkMethod    string                 `json:"link_method,omitempty"`
	RunID         string                 `json:"run_id,omitempty"`
	Verdict       *entity.Verdict        `json:"verdict,omitempty"`
	Discrepancies []entity.Discrepancy   `json:"discrepancies,omitempty"`
}

var processCmd = &cobra.Command{
	Use:   "process <file>",
	Short: "Ingest a document: OCR, extract, link, verify, and store",
	Long: `process runs the full ingestion pipeline on a PDF or image.

Purchase orders are extracted and stored for later lookups. Invoices are
additionally linked to a stored purchase order (explicit --po-id, then the
invoice's PO reference, then vendor plus exact total) and compared against
it; the verdict, per-item results, and classified discrepancies are stored
as a verification run and printed to stdout.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		started := time.Now()

		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		result, err := newOCRExtractor().Extract(ctx, args[0])
		if err != nil {
			return fmt.Errorf("extract text from %s: %w", args[0], err)
		}
		doc := newExtractService().ExtractStructuredFields(ctx, result.Text, docTypeHint(processDocType))

		if doc.DocType == constants.DocTypePO {
			recID, err := db.SavePO(ctx, doc)
			if err != nil {
				return fmt.Errorf("store purchase order: %w", err)
			}
			logger.Info("process.po.stored", "record_id", recID, "po_id", doc.ID)
			return printJSON(processResult{RecordID: recID, Document: doc})
		}

		// Everything that is not recognizably a PO is treated as an invoice,
		// matching how documents arrive in practice.
		po, method := link.NewLinker(db, logger).FindPO(ctx, doc, processPOID)

		linkedID := ""
		if po != nil {
			linkedID = po.RecordID
		}
		recID, err := db.SaveInvoice(ctx, doc, linkedID, method)
		if err != nil {
			return fmt.Errorf("store invoice: %w", err)
		}

		opts := reconcile.Options{
			ItemTolerance:  cfg.Tolerance.Item(),
			TotalTolerance: cfg.Tolerance.Total(),
		}
		verdict := newEngine().Compare(ctx, doc, po, opts)
		discs := reconcile.ClassifyDocuments(doc, po, verdict, opts)

		run, err := db.SaveVerification(ctx, storage.RunRecord{
			InvoiceID:  recID,
			POID:       linkedID,
			LinkageOK:  method != link.NoLink,
			StartedAt:  started,
			FinishedAt: time.Now(),
		}, verdict, discs)
		if err != nil {
			return fmt.Errorf("store verification run: %w", err)
		}

		logger.Info("process.invoice.verified",
			"record_id", recID,
			"run_id", run.ID.String(),
			"status", verdict.Status,
			"mismatches", len(verdict.Reasons),
			"link_method", method,
		)
		return printJSON(processResult{
			RecordID:      recID,
			Document:      doc,
			LinkedPOID:    linkedID,
			LinkMethod:    method,
			RunID:         run.ID.String(),
			Verdict:       &verdict,
			Discrepancies: discs,
		})
	},
}

func init() {
	processCmd.Flags().StringVarP(&processDocType, "type", "t", "auto",
		"document type hint: invoice, po, or auto")
	processCmd.Flags().StringVar(&processPOID, "po-id", "",
		"record id of the purchase order to verify against, bypassing the link heuristics")
	rootCmd.AddCommand(processCmd)
}
