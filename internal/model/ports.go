package model

import "context"

// ── Port Interfaces ──
// These decouple the tracker from concrete storage and delivery backends
// (SQLite, JSON file, Redis, websocket). Each backend satisfies one or more.

// Journal durably stores the ledger and the seen-transaction set.
type Journal interface {
	// SaveRecords persists new ledger entries. Re-saving a tx id is a no-op.
	SaveRecords(ctx context.Context, records []TradeRecord) error

	// MarkSeen persists tx ids that were observed, recorded or not.
	MarkSeen(ctx context.Context, txIDs []string) error

	// LoadRecords returns the full ledger in append order.
	LoadRecords(ctx context.Context) ([]TradeRecord, error)

	// LoadSeen returns every persisted seen tx id.
	LoadSeen(ctx context.Context) ([]string, error)

	// Close releases underlying resources.
	Close() error
}

// TradePublisher delivers a new ledger entry, with the stats it produced,
// to an outbound channel.
type TradePublisher interface {
	PublishTrade(ctx context.Context, rec TradeRecord, stats Stats) error
}

// TradeEvent is a new ledger entry paired with the ledger stats right after
// it was applied. It is what the outbound bus carries.
type TradeEvent struct {
	Record TradeRecord `json:"record"`
	Stats  Stats       `json:"stats"`
}
