package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/invoicegate/invoice-gate/internal/common"
	"github.com/invoicegate/invoice-gate/internal/entity"
	"github.com/invoicegate/invoice-gate/internal/reconcile"
	"github.com/invoicegate/invoice-gate/internal/storage"
)

var (
	compareItemTol  string
	compareTotalTol string
	compareOffline  bool
)

var compareCmd = &cobra.Command{
	Use:   "compare <invoice> <po>",
	Short: "Compare two parsed documents and print the verdict",
	Long: `compare takes an invoice and a purchase order, runs the reconciliation
engine, and prints the verdict with classified discrepancies. Each argument
is either a path to a parsed-document JSON file or a stored record id.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		inv, err := loadDocument(ctx, args[0], false)
		if err != nil {
			return fmt.Errorf("load invoice %s: %w", args[0], err)
		}
		po, err := loadDocument(ctx, args[1], true)
		if err != nil {
			return fmt.Errorf("load purchase order %s: %w", args[1], err)
		}

		opts, err := compareOptions(compareItemTol, compareTotalTol)
		if err != nil {
			return err
		}

		engine := newEngine()
		if compareOffline {
			engine = reconcile.NewEngine(nil, logger)
		}
		verdict := engine.Compare(ctx, inv, po, opts)
		discs := reconcile.ClassifyDocuments(inv, po, verdict, opts)

		return printJSON(struct {
			Verdict       entity.Verdict       `json:"verdict"`
			Discrepancies []entity.Discrepancy `json:"discrepancies"`
		}{verdict, discs})
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareItemTol, "item-tol", "",
		"line-item tolerance as rel/abs, e.g. 0.02/1.00")
	compareCmd.Flags().StringVar(&compareTotalTol, "total-tol", "",
		"document-total tolerance as rel/abs, e.g. 0.02/2.00")
	compareCmd.Flags().BoolVar(&compareOffline, "offline", false,
		"skip the model comparator and use rule-based comparison only")
	rootCmd.AddCommand(compareCmd)
}

// loadDocument reads a parsed document from a JSON file, or falls back to a
// database lookup when the argument is not a file on disk.
func loadDocument(ctx context.Context, ref string, wantPO bool) (*entity.ParsedDocument, error) {
	if data, err := os.ReadFile(ref); err == nil {
		return decodeDocument(data)
	}

	db, err := openDB()
	if err != nil {
		return nil, err
	}
	defer db.Close()
	return lookupDocument(ctx, db, ref, wantPO)
}

func decodeDocument(data []byte) (*entity.ParsedDocument, error) {
	var doc entity.ParsedDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}

func lookupDocument(ctx context.Context, db *storage.DB, ref string, wantPO bool) (*entity.ParsedDocument, error) {
	var (
		doc *entity.ParsedDocument
		err error
	)
	if wantPO {
		doc, err = db.POByRecordID(ctx, ref)
	} else {
		doc, err = db.InvoiceByRecordID(ctx, ref)
	}
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("no stored document with record id %q: %w", ref, common.ErrNotFound)
	}
	return doc, nil
}
