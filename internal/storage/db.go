// Package storage persists extracted documents and verification results in
// sqlite. Queryable header fields live in columns; the full ParsedDocument
// travels as a JSON payload so nothing extracted is ever lost to the schema.
package storage

import (
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if path != ":memory:" {
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, err
			}
		}
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS purchase_orders (
  id TEXT PRIMARY KEY,
  po_number TEXT,
  vendor TEXT,
  buyer TEXT,
  currency TEXT,
  issue_date TEXT,
  subtotal TEXT,
  tax TEXT,
  total TEXT,
  extraction_method TEXT,
  payload TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_po_number ON purchase_orders(po_number COLLATE NOCASE);
CREATE INDEX IF NOT EXISTS idx_po_vendor ON purchase_orders(vendor COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS invoices (
  id TEXT PRIMARY KEY,
  invoice_number TEXT,
  po_number TEXT,
  vendor TEXT,
  buyer TEXT,
  currency TEXT,
  issue_date TEXT,
  subtotal TEXT,
  tax TEXT,
  total TEXT,
  extraction_method TEXT,
  linked_po_id TEXT,
  link_method TEXT,
  payload TEXT NOT NULL,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(linked_po_id) REFERENCES purchase_orders(id)
);
CREATE INDEX IF NOT EXISTS idx_invoice_number ON invoices(invoice_number COLLATE NOCASE);

CREATE TABLE IF NOT EXISTS verification_runs (
  id TEXT PRIMARY KEY,
  invoice_id TEXT NOT NULL,
  po_id TEXT,
  status TEXT NOT NULL,
  verdict_status TEXT NOT NULL,
  summary TEXT,
  mismatch_count INTEGER NOT NULL,
  matched_item_count INTEGER NOT NULL,
  quantities_ok INTEGER NOT NULL,
  prices_ok INTEGER NOT NULL,
  totals_ok INTEGER NOT NULL,
  currency_ok INTEGER NOT NULL,
  linkage_ok INTEGER NOT NULL,
  reasons_json TEXT NOT NULL,
  details_json TEXT NOT NULL,
  started_at TEXT NOT NULL,
  finished_at TEXT NOT NULL,
  duration_ms INTEGER NOT NULL,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  FOREIGN KEY(invoice_id) REFERENCES invoices(id)
);

CREATE TABLE IF NOT EXISTS item_verifications (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL,
  position INTEGER NOT NULL,
  description TEXT,
  inv_quantity TEXT,
  po_quantity TEXT,
  inv_unit_price TEXT,
  po_unit_price TEXT,
  quantity_ok INTEGER NOT NULL,
  price_ok INTEGER NOT NULL,
  match_score REAL NOT NULL,
  FOREIGN KEY(run_id) REFERENCES verification_runs(id)
);

CREATE TABLE IF NOT EXISTS discrepancies (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  run_id TEXT NOT NULL,
  level TEXT NOT NULL,
  type TEXT NOT NULL,
  item_index INTEGER,
  field TEXT,
  expected TEXT,
  actual TEXT,
  message TEXT,
  FOREIGN KEY(run_id) REFERENCES verification_runs(id)
);
CREATE INDEX IF NOT EXISTS idx_discrepancies_run ON discrepancies(run_id);
`
	_, err := d.conn.Exec(schema)
	return err
}
