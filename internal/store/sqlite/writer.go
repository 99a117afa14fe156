// Package sqlite is the durable ledger journal: trade records, the seen
// transaction set and tracker sessions, in one WAL-mode SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"wallet-tracker/internal/model"
)

// Config configures the journal.
type Config struct {
	DBPath string // e.g. "data/ledger.db"
}

// Journal persists the ledger. It satisfies model.Journal.
type Journal struct {
	db *sqlx.DB
}

var _ model.Journal = (*Journal)(nil)

// DB returns the underlying handle for health checks.
func (j *Journal) DB() *sqlx.DB { return j.db }

// New opens the database with WAL mode and creates the schema.
func New(cfg Config) (*Journal, error) {
	if dir := filepath.Dir(cfg.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite mkdir: %w", err)
		}
	}
	db, err := sqlx.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}

	// Single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] opened journal at %s", cfg.DBPath)
	return &Journal{db: db}, nil
}

func createSchema(db *sqlx.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS trades (
			seq               INTEGER PRIMARY KEY,
			tx_id             TEXT    NOT NULL UNIQUE,
			action            TEXT    NOT NULL,
			asset_id          TEXT    NOT NULL,
			symbol            TEXT    NOT NULL,
			name              TEXT    NOT NULL,
			base_amount       TEXT    NOT NULL,
			asset_amount      TEXT    NOT NULL,
			price_usd         TEXT    NOT NULL,
			value_usd         TEXT    NOT NULL,
			realized_pnl_base TEXT,
			realized_pnl_pct  TEXT,
			ts_ms             INTEGER NOT NULL,
			detected_ms       INTEGER NOT NULL,
			enrichment        TEXT
		);

		CREATE INDEX IF NOT EXISTS idx_trades_asset ON trades (asset_id, ts_ms);

		CREATE TABLE IF NOT EXISTS seen_txs (
			tx_id   TEXT    PRIMARY KEY,
			seen_ms INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS sessions (
			id         TEXT    PRIMARY KEY,
			wallet     TEXT    NOT NULL,
			started_ms INTEGER NOT NULL,
			stopped_ms INTEGER
		);
	`)
	return err
}

// tradeRow is the column mapping for the trades table. Decimals are stored
// as TEXT so no precision is lost.
type tradeRow struct {
	Seq             int64               `db:"seq"`
	TxID            string              `db:"tx_id"`
	Action          string              `db:"action"`
	AssetID         string              `db:"asset_id"`
	Symbol          string              `db:"symbol"`
	Name            string              `db:"name"`
	BaseAmount      decimal.Decimal     `db:"base_amount"`
	AssetAmount     decimal.Decimal     `db:"asset_amount"`
	PriceUSD        decimal.Decimal     `db:"price_usd"`
	ValueUSD        decimal.Decimal     `db:"value_usd"`
	RealizedPnLBase decimal.NullDecimal `db:"realized_pnl_base"`
	RealizedPnLPct  decimal.NullDecimal `db:"realized_pnl_pct"`
	TsMs            int64               `db:"ts_ms"`
	DetectedMs      int64               `db:"detected_ms"`
	Enrichment      sql.NullString      `db:"enrichment"`
}

func toRow(r model.TradeRecord) (tradeRow, error) {
	row := tradeRow{
		Seq:         r.Seq,
		TxID:        r.TxID,
		Action:      string(r.Action),
		AssetID:     r.AssetID,
		Symbol:      r.Symbol,
		Name:        r.Name,
		BaseAmount:  r.BaseAmount,
		AssetAmount: r.AssetAmount,
		PriceUSD:    r.PriceUSD,
		ValueUSD:    r.ValueUSD,
		TsMs:        unixMs(r.Timestamp),
		DetectedMs:  unixMs(r.DetectedAt),
	}
	if r.RealizedPnLBase != nil {
		row.RealizedPnLBase = decimal.NewNullDecimal(*r.RealizedPnLBase)
	}
	if r.RealizedPnLPct != nil {
		row.RealizedPnLPct = decimal.NewNullDecimal(*r.RealizedPnLPct)
	}
	if r.Enrichment != nil {
		b, err := json.Marshal(r.Enrichment)
		if err != nil {
			return row, fmt.Errorf("marshal enrichment %s: %w", r.TxID, err)
		}
		row.Enrichment = sql.NullString{String: string(b), Valid: true}
	}
	return row, nil
}

func (row tradeRow) record() model.TradeRecord {
	r := model.TradeRecord{
		Seq:         row.Seq,
		TxID:        row.TxID,
		Action:      model.Action(row.Action),
		AssetID:     row.AssetID,
		Symbol:      row.Symbol,
		Name:        row.Name,
		BaseAmount:  row.BaseAmount,
		AssetAmount: row.AssetAmount,
		PriceUSD:    row.PriceUSD,
		ValueUSD:    row.ValueUSD,
		Timestamp:   fromMs(row.TsMs),
		DetectedAt:  fromMs(row.DetectedMs),
	}
	if row.RealizedPnLBase.Valid {
		v := row.RealizedPnLBase.Decimal
		r.RealizedPnLBase = &v
	}
	if row.RealizedPnLPct.Valid {
		v := row.RealizedPnLPct.Decimal
		r.RealizedPnLPct = &v
	}
	if row.Enrichment.Valid && row.Enrichment.String != "" {
		var en model.Enrichment
		if err := json.Unmarshal([]byte(row.Enrichment.String), &en); err != nil {
			log.Printf("[sqlite] skipping bad enrichment for %s: %v", row.TxID, err)
		} else {
			r.Enrichment = &en
		}
	}
	return r
}

func unixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func fromMs(ms int64) time.Time {
	if ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms).UTC()
}

// SaveRecords inserts records in one transaction. Records whose seq or tx
// id already exist are skipped.
func (j *Journal) SaveRecords(ctx context.Context, records []model.TradeRecord) error {
	if len(records) == 0 {
		return nil
	}
	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal.SaveRecords: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareNamedContext(ctx, `
		INSERT OR IGNORE INTO trades
			(seq, tx_id, action, asset_id, symbol, name, base_amount, asset_amount, price_usd, value_usd,
			 realized_pnl_base, realized_pnl_pct, ts_ms, detected_ms, enrichment)
		VALUES
			(:seq, :tx_id, :action, :asset_id, :symbol, :name, :base_amount, :asset_amount, :price_usd, :value_usd,
			 :realized_pnl_base, :realized_pnl_pct, :ts_ms, :detected_ms, :enrichment)`)
	if err != nil {
		return fmt.Errorf("journal.SaveRecords: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		row, err := toRow(r)
		if err != nil {
			return fmt.Errorf("journal.SaveRecords: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, row); err != nil {
			return fmt.Errorf("journal.SaveRecords: %s: %w", r.TxID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal.SaveRecords: %w", err)
	}
	return nil
}

// MarkSeen records observed tx ids. Existing ids keep their first-seen time.
func (j *Journal) MarkSeen(ctx context.Context, txIDs []string) error {
	if len(txIDs) == 0 {
		return nil
	}
	tx, err := j.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal.MarkSeen: %w", err)
	}
	defer tx.Rollback()

	now := time.Now().UnixMilli()
	for _, id := range txIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO seen_txs (tx_id, seen_ms) VALUES (?, ?)`, id, now); err != nil {
			return fmt.Errorf("journal.MarkSeen: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("journal.MarkSeen: %w", err)
	}
	return nil
}

// StartSession records a tracker run and returns its id.
func (j *Journal) StartSession(ctx context.Context, wallet string) (string, error) {
	id := uuid.NewString()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO sessions (id, wallet, started_ms) VALUES (?, ?, ?)`,
		id, wallet, time.Now().UnixMilli())
	if err != nil {
		return "", fmt.Errorf("journal.StartSession: %w", err)
	}
	return id, nil
}

// EndSession stamps the stop time of a session.
func (j *Journal) EndSession(ctx context.Context, id string) error {
	_, err := j.db.ExecContext(ctx,
		`UPDATE sessions SET stopped_ms = ? WHERE id = ?`, time.Now().UnixMilli(), id)
	if err != nil {
		return fmt.Errorf("journal.EndSession: %w", err)
	}
	return nil
}

// Close closes the database.
func (j *Journal) Close() error {
	log.Printf("[sqlite] closing journal")
	return j.db.Close()
}
