package solanatracker

import (
	"context"
	"time"

	"wallet-tracker/internal/model"
)

// Enricher adapts the client to the ledger's snapshot lookup.
type Enricher struct {
	client *Client
	now    func() time.Time
}

// NewEnricher wraps c.
func NewEnricher(c *Client) *Enricher {
	return &Enricher{client: c, now: time.Now}
}

// Snapshot fetches and normalizes the token snapshot for assetID.
func (e *Enricher) Snapshot(ctx context.Context, assetID string) (*model.Enrichment, error) {
	raw, err := e.client.FetchTokenSnapshot(ctx, assetID)
	if err != nil {
		return nil, err
	}
	return NormalizeToken(*raw, e.now()), nil
}
