package ledger

import "errors"

var (
	// ErrEmptyTxID is returned by Ingest for an event without a transaction id.
	ErrEmptyTxID = errors.New("ledger: empty tx id")

	// ErrNotEmpty is returned by Restore when the engine already holds state.
	ErrNotEmpty = errors.New("ledger: restore into non-empty engine")
)
