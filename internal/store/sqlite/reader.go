package sqlite

import (
	"context"
	"fmt"

	"wallet-tracker/internal/model"
)

const selectTrades = `
	SELECT seq, tx_id, action, asset_id, symbol, name, base_amount, asset_amount, price_usd, value_usd,
	       realized_pnl_base, realized_pnl_pct, ts_ms, detected_ms, enrichment
	FROM trades`

// LoadRecords returns the full ledger in append order.
func (j *Journal) LoadRecords(ctx context.Context) ([]model.TradeRecord, error) {
	var rows []tradeRow
	if err := j.db.SelectContext(ctx, &rows, selectTrades+` ORDER BY seq ASC`); err != nil {
		return nil, fmt.Errorf("journal.LoadRecords: %w", err)
	}
	return records(rows), nil
}

// Recent returns the last limit records, oldest first.
func (j *Journal) Recent(ctx context.Context, limit int) ([]model.TradeRecord, error) {
	if limit <= 0 {
		return nil, nil
	}
	var rows []tradeRow
	err := j.db.SelectContext(ctx, &rows,
		`SELECT * FROM (`+selectTrades+` ORDER BY seq DESC LIMIT ?) ORDER BY seq ASC`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal.Recent: %w", err)
	}
	return records(rows), nil
}

// LoadSeen returns every persisted seen tx id.
func (j *Journal) LoadSeen(ctx context.Context) ([]string, error) {
	var ids []string
	if err := j.db.SelectContext(ctx, &ids, `SELECT tx_id FROM seen_txs ORDER BY seen_ms, tx_id`); err != nil {
		return nil, fmt.Errorf("journal.LoadSeen: %w", err)
	}
	return ids, nil
}

// CountSessions returns how many tracker runs were recorded for wallet.
func (j *Journal) CountSessions(ctx context.Context, wallet string) (int, error) {
	var n int
	if err := j.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM sessions WHERE wallet = ?`, wallet); err != nil {
		return 0, fmt.Errorf("journal.CountSessions: %w", err)
	}
	return n, nil
}

func records(rows []tradeRow) []model.TradeRecord {
	out := make([]model.TradeRecord, len(rows))
	for i, row := range rows {
		out[i] = row.record()
	}
	return out
}
