// Package ledger turns normalized swap events into an append-only trade
// ledger with weighted-average-cost positions and realized P/L per SELL.
package ledger

import (
	"context"
	"fmt"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"wallet-tracker/internal/model"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// Enricher fetches an asset snapshot for a freshly classified trade.
type Enricher interface {
	Snapshot(ctx context.Context, assetID string) (*model.Enrichment, error)
}

// Option configures an Engine.
type Option func(*Engine)

// WithEnricher attaches snapshots to new records on a best-effort basis.
func WithEnricher(en Enricher) Option {
	return func(e *Engine) { e.enricher = en }
}

// WithClock overrides the detection clock.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// Engine owns the seen-transaction set, the position map and the ledger
// for one wallet. Mutations are expected from a single polling goroutine;
// readers may run concurrently and always receive copies.
type Engine struct {
	base     model.Asset
	enricher Enricher
	now      func() time.Time

	mu        sync.RWMutex
	seen      map[string]struct{}
	positions map[string]model.Position
	records   []model.TradeRecord

	// Optional callbacks, set before the first Ingest.
	OnDuplicate    func(txID string)
	OnUnclassified func(ev model.SwapEvent)
	OnEnrichError  func(assetID string, err error)
}

// New creates an engine classifying trades against the given base asset.
func New(base model.Asset, opts ...Option) *Engine {
	e := &Engine{
		base:      base,
		now:       time.Now,
		seen:      make(map[string]struct{}),
		positions: make(map[string]model.Position),
		records:   make([]model.TradeRecord, 0, 256),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Base returns the asset trades are classified against.
func (e *Engine) Base() model.Asset { return e.base }

// Ingest records one swap. It returns nil without error for a tx id that
// was already seen and for events where neither or both legs are the base
// asset; both cases still leave the tx id marked seen.
func (e *Engine) Ingest(ctx context.Context, ev model.SwapEvent) (*model.TradeRecord, error) {
	if ev.TxID == "" {
		return nil, ErrEmptyTxID
	}

	e.mu.Lock()
	if _, dup := e.seen[ev.TxID]; dup {
		e.mu.Unlock()
		if e.OnDuplicate != nil {
			e.OnDuplicate(ev.TxID)
		}
		return nil, nil
	}
	e.seen[ev.TxID] = struct{}{}
	e.mu.Unlock()

	rec, ok := e.classify(ev)
	if !ok {
		if e.OnUnclassified != nil {
			e.OnUnclassified(ev)
		}
		return nil, nil
	}
	rec.DetectedAt = e.now().UTC()

	// Network I/O stays outside the lock.
	rec.Enrichment = e.enrich(ctx, rec.AssetID)

	e.mu.Lock()
	defer e.mu.Unlock()
	e.apply(&rec)
	rec.Seq = int64(len(e.records)) + 1
	e.records = append(e.records, rec)

	out := rec
	return &out, nil
}

// classify builds the record skeleton for a BUY or SELL.
func (e *Engine) classify(ev model.SwapEvent) (model.TradeRecord, bool) {
	fromBase := model.SameAsset(ev.From, e.base)
	toBase := model.SameAsset(ev.To, e.base)

	rec := model.TradeRecord{
		TxID:      ev.TxID,
		ValueUSD:  ev.TradeValueUSD,
		Timestamp: ev.Timestamp,
	}
	switch {
	case fromBase && !toBase:
		rec.Action = model.ActionBuy
		rec.AssetID = assetKey(ev.To)
		rec.Symbol = ev.To.Symbol
		rec.Name = ev.To.Name
		rec.BaseAmount = ev.FromAmount
		rec.AssetAmount = ev.ToAmount
		rec.PriceUSD = ev.ToPriceUSD
	case !fromBase && toBase:
		rec.Action = model.ActionSell
		rec.AssetID = assetKey(ev.From)
		rec.Symbol = ev.From.Symbol
		rec.Name = ev.From.Name
		rec.BaseAmount = ev.ToAmount
		rec.AssetAmount = ev.FromAmount
		rec.PriceUSD = ev.FromPriceUSD
	default:
		return rec, false
	}
	if rec.AssetID == "" {
		return rec, false
	}
	return rec, true
}

func assetKey(a model.Asset) string {
	if a.Address != "" {
		return a.Address
	}
	return a.Symbol
}

func (e *Engine) enrich(ctx context.Context, assetID string) *model.Enrichment {
	if e.enricher == nil {
		return nil
	}
	snap, err := e.enricher.Snapshot(ctx, assetID)
	if err != nil {
		if e.OnEnrichError != nil {
			e.OnEnrichError(assetID, err)
		}
		log.Printf("[ledger] enrichment for %s unavailable: %v", assetID, err)
		return nil
	}
	return snap
}

// apply updates the position for rec and fills in SELL P/L. Caller holds mu.
func (e *Engine) apply(rec *model.TradeRecord) {
	switch rec.Action {
	case model.ActionBuy:
		e.applyBuy(rec)
	case model.ActionSell:
		pnl, pct := e.applySell(rec.AssetID, rec.AssetAmount, rec.BaseAmount)
		rec.RealizedPnLBase = &pnl
		rec.RealizedPnLPct = &pct
	}
}

func (e *Engine) applyBuy(rec *model.TradeRecord) {
	pos, ok := e.positions[rec.AssetID]
	if !ok {
		pos = model.Position{
			AssetID:       rec.AssetID,
			Symbol:        rec.Symbol,
			Name:          rec.Name,
			TotalQuantity: decimal.Zero,
			TotalCostBase: decimal.Zero,
		}
	}
	pos.TotalQuantity = pos.TotalQuantity.Add(rec.AssetAmount)
	pos.TotalCostBase = pos.TotalCostBase.Add(rec.BaseAmount)
	e.positions[rec.AssetID] = pos
}

// applySell consumes cost basis proportionally to the quantity sold. A
// SELL without a tracked position (history started mid-position) realizes
// zero and leaves the map untouched. Overselling clamps the position to
// zero rather than going negative.
func (e *Engine) applySell(assetID string, sold, received decimal.Decimal) (pnl, pct decimal.Decimal) {
	pos, ok := e.positions[assetID]
	if !ok || !pos.TotalQuantity.IsPositive() {
		return decimal.Zero, decimal.Zero
	}

	portion := decimal.Min(sold.DivRound(pos.TotalQuantity, model.DivPrecision), one)
	consumed := pos.TotalCostBase.Mul(portion)

	pnl = received.Sub(consumed)
	pct = decimal.Zero
	if consumed.IsPositive() {
		pct = pnl.DivRound(consumed, model.DivPrecision).Mul(hundred)
	}

	pos.TotalQuantity = pos.TotalQuantity.Sub(sold)
	pos.TotalCostBase = pos.TotalCostBase.Sub(consumed)
	if !pos.TotalQuantity.IsPositive() {
		pos.TotalQuantity = decimal.Zero
		pos.TotalCostBase = decimal.Zero
	}
	e.positions[assetID] = pos
	return pnl, pct
}

// MarkSeen marks tx ids as observed without recording them. Used to skip
// history that predates tracking. Returns how many ids were new.
func (e *Engine) MarkSeen(txIDs ...string) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, id := range txIDs {
		if id == "" {
			continue
		}
		if _, ok := e.seen[id]; !ok {
			e.seen[id] = struct{}{}
			n++
		}
	}
	return n
}

// Seen reports whether txID has been observed.
func (e *Engine) Seen(txID string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.seen[txID]
	return ok
}

// SeenIDs returns every observed tx id, sorted.
func (e *Engine) SeenIDs() []string {
	e.mu.RLock()
	ids := make([]string, 0, len(e.seen))
	for id := range e.seen {
		ids = append(ids, id)
	}
	e.mu.RUnlock()
	sort.Strings(ids)
	return ids
}

// Records returns a snapshot of the ledger in append order.
func (e *Engine) Records() []model.TradeRecord {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := make([]model.TradeRecord, len(e.records))
	copy(cp, e.records)
	return cp
}

// Len returns the number of ledger entries.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.records)
}

// Position returns the current position for assetID.
func (e *Engine) Position(assetID string) (model.Position, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	pos, ok := e.positions[assetID]
	return pos, ok
}

// OpenPositions returns positions with strictly positive quantity,
// sorted by asset id.
func (e *Engine) OpenPositions() []model.Position {
	e.mu.RLock()
	open := make([]model.Position, 0, len(e.positions))
	for _, pos := range e.positions {
		if pos.IsOpen() {
			open = append(open, pos)
		}
	}
	e.mu.RUnlock()
	sort.Slice(open, func(i, j int) bool { return open[i].AssetID < open[j].AssetID })
	return open
}

// Summary aggregates the ledger. Win rate is over SELLs only.
func (e *Engine) Summary() model.Stats {
	e.mu.RLock()
	defer e.mu.RUnlock()

	s := model.Stats{
		TotalTrades:  len(e.records),
		BaseSpent:    decimal.Zero,
		BaseReceived: decimal.Zero,
		TotalPnLBase: decimal.Zero,
	}
	for i := range e.records {
		r := &e.records[i]
		switch r.Action {
		case model.ActionBuy:
			s.Buys++
			s.BaseSpent = s.BaseSpent.Add(r.BaseAmount)
		case model.ActionSell:
			s.Sells++
			s.BaseReceived = s.BaseReceived.Add(r.BaseAmount)
			pnl := r.PnLBase()
			s.TotalPnLBase = s.TotalPnLBase.Add(pnl)
			switch pnl.Sign() {
			case 1:
				s.Wins++
			case -1:
				s.Losses++
			}
		}
	}
	if s.Sells > 0 {
		s.WinRate = float64(s.Wins) / float64(s.Sells) * 100
	}
	for _, pos := range e.positions {
		if pos.IsOpen() {
			s.OpenPositions++
		}
	}
	return s
}

// Restore rebuilds state from a persisted ledger by replaying the
// position arithmetic in append order. Recorded P/L values are kept as
// they were written. seen may include ids that never produced a record.
func (e *Engine) Restore(records []model.TradeRecord, seen []string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if len(e.records) > 0 || len(e.seen) > 0 {
		return ErrNotEmpty
	}
	for i, rec := range records {
		if rec.TxID == "" {
			return fmt.Errorf("restore record %d: %w", i, ErrEmptyTxID)
		}
		if _, dup := e.seen[rec.TxID]; dup {
			continue
		}
		e.seen[rec.TxID] = struct{}{}

		switch rec.Action {
		case model.ActionBuy:
			e.applyBuy(&rec)
		case model.ActionSell:
			pnl, pct := e.applySell(rec.AssetID, rec.AssetAmount, rec.BaseAmount)
			if rec.RealizedPnLBase == nil {
				rec.RealizedPnLBase = &pnl
				rec.RealizedPnLPct = &pct
			}
		default:
			return fmt.Errorf("restore record %d: unknown action %q", i, rec.Action)
		}
		rec.Seq = int64(len(e.records)) + 1
		e.records = append(e.records, rec)
	}
	for _, id := range seen {
		if id != "" {
			e.seen[id] = struct{}{}
		}
	}
	return nil
}

// ResetPositions drops all positions. The ledger and seen set are kept, so
// later SELLs of previously held assets realize zero.
func (e *Engine) ResetPositions() {
	e.mu.Lock()
	e.positions = make(map[string]model.Position)
	e.mu.Unlock()
	log.Printf("[ledger] positions reset")
}
