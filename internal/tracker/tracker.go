// Package tracker runs the polling loop: fetch the wallet's recent swaps,
// feed the unseen ones oldest-first through the ledger engine, persist,
// export and publish what was recorded.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"wallet-tracker/internal/ledger"
	"wallet-tracker/internal/logger"
	"wallet-tracker/internal/metrics"
	"wallet-tracker/internal/model"
)

// Gateway is the upstream source of swaps, most recent first.
type Gateway interface {
	FetchRecentSwaps(ctx context.Context, wallet string) ([]model.SwapEvent, error)
}

// Config holds the loop settings.
type Config struct {
	Wallet   string
	Interval time.Duration
}

// Option configures a Tracker.
type Option func(*Tracker)

func WithJournal(j model.Journal) Option         { return func(t *Tracker) { t.journal = j } }
func WithExporter(e Exporter) Option              { return func(t *Tracker) { t.exporter = e } }
func WithPublisher(p model.TradePublisher) Option { return func(t *Tracker) { t.publisher = p } }
func WithMetrics(m *metrics.Metrics) Option       { return func(t *Tracker) { t.prom = m } }
func WithHealth(h *metrics.HealthStatus) Option   { return func(t *Tracker) { t.health = h } }
func WithClock(now func() time.Time) Option       { return func(t *Tracker) { t.now = now } }

// WithPublishTimeout bounds how long one cycle may wait on the publisher.
func WithPublishTimeout(d time.Duration) Option { return func(t *Tracker) { t.publishTimeout = d } }

// Tracker drives one wallet. Cycle and Run must not be called concurrently.
type Tracker struct {
	cfg     Config
	engine  *ledger.Engine
	gateway Gateway

	journal   model.Journal
	exporter  Exporter
	publisher model.TradePublisher
	prom      *metrics.Metrics
	health    *metrics.HealthStatus
	now       func() time.Time

	publishTimeout time.Duration

	exported bool
	resetReq atomic.Bool
}

// New creates a tracker. Interval defaults to 4s, the publish timeout to 5s.
func New(cfg Config, engine *ledger.Engine, gw Gateway, opts ...Option) *Tracker {
	if cfg.Interval <= 0 {
		cfg.Interval = 4 * time.Second
	}
	t := &Tracker{
		cfg:            cfg,
		engine:         engine,
		gateway:        gw,
		now:            time.Now,
		publishTimeout: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Engine returns the ledger engine the tracker feeds.
func (t *Tracker) Engine() *ledger.Engine { return t.engine }

// RequestReset queues a position reset; the next Cycle applies it before
// fetching. Safe to call from any goroutine.
func (t *Tracker) RequestReset() { t.resetReq.Store(true) }

// Sync marks the wallet's current trades as seen without recording them,
// so only activity after startup enters the ledger. It does nothing when
// the engine already knows tx ids, e.g. after a restore.
func (t *Tracker) Sync(ctx context.Context) (int, error) {
	if len(t.engine.SeenIDs()) > 0 {
		slog.Info("initial sync skipped, resuming", "wallet", t.cfg.Wallet, "records", t.engine.Len())
		return 0, nil
	}

	events, err := t.gateway.FetchRecentSwaps(ctx, t.cfg.Wallet)
	if err != nil {
		return 0, fmt.Errorf("tracker.Sync: %w", err)
	}
	ids := make([]string, 0, len(events))
	for _, ev := range events {
		ids = append(ids, ev.TxID)
	}
	n := t.engine.MarkSeen(ids...)

	if t.journal != nil && n > 0 {
		if err := t.journal.MarkSeen(ctx, ids); err != nil {
			t.fail("journal")
			slog.Error("persist seen ids failed", "err", err)
		}
	}
	slog.Info("initial sync complete", "wallet", t.cfg.Wallet, "ignored", n)
	return n, nil
}

// Cycle runs one poll. It returns the number of new ledger entries. A
// gateway failure is returned as an error and leaves the ledger untouched;
// storage, export and publish failures are logged and counted only.
func (t *Tracker) Cycle(ctx context.Context) (int, error) {
	start := t.now()
	ctx = logger.WithTraceID(ctx, logger.GenerateTraceID("cycle", start))
	if t.prom != nil {
		t.prom.CyclesTotal.Inc()
	}

	reset := t.resetReq.CompareAndSwap(true, false)
	if reset {
		t.engine.ResetPositions()
		slog.Info("positions reset", logger.LogWithTrace(ctx)...)
	}

	events, err := t.gateway.FetchRecentSwaps(ctx, t.cfg.Wallet)
	if err != nil {
		t.fail("fetch")
		if reset {
			if err := t.export(); err != nil {
				slog.Error("export failed", append(logger.LogWithTrace(ctx), "err", err)...)
			}
		}
		t.finish(start, false, false)
		slog.Warn("fetch failed, no new data", append(logger.LogWithTrace(ctx), "err", err)...)
		return 0, fmt.Errorf("tracker.Cycle: %w", err)
	}

	// Once fetched, the batch is finished even if shutdown begins.
	batchCtx := context.WithoutCancel(ctx)
	ok := true

	var (
		observed []string
		fresh    []model.TradeRecord
		pending  []model.TradeEvent
	)
	for i := len(events) - 1; i >= 0; i-- {
		ev := events[i]
		if t.engine.Seen(ev.TxID) {
			continue
		}
		rec, err := t.engine.Ingest(batchCtx, ev)
		if err != nil {
			ok = false
			t.fail("ingest")
			slog.Error("ingest failed", append(logger.LogWithTrace(ctx), "tx", ev.TxID, "err", err)...)
			continue
		}
		observed = append(observed, ev.TxID)
		if rec == nil {
			continue
		}
		fresh = append(fresh, *rec)
		pending = append(pending, model.TradeEvent{Record: *rec, Stats: t.engine.Summary()})
		t.logTrade(ctx, rec)
		if t.prom != nil {
			t.prom.TradesIngested.WithLabelValues(string(rec.Action)).Inc()
		}
	}

	if t.journal != nil && len(observed) > 0 {
		if err := t.persist(batchCtx, fresh, observed); err != nil {
			ok = false
			t.fail("journal")
			slog.Error("journal write failed", append(logger.LogWithTrace(ctx), "err", err)...)
		}
	}

	if len(fresh) > 0 || reset || !t.exported {
		if err := t.export(); err != nil {
			ok = false
			t.fail("export")
			slog.Error("export failed", append(logger.LogWithTrace(ctx), "err", err)...)
		}
	}

	if t.publisher != nil && len(pending) > 0 {
		// The sinks may already be stopping during shutdown.
		pubCtx, cancel := context.WithTimeout(batchCtx, t.publishTimeout)
		for _, ev := range pending {
			if err := t.publisher.PublishTrade(pubCtx, ev.Record, ev.Stats); err != nil {
				t.fail("publish")
				slog.Warn("publish failed", append(logger.LogWithTrace(ctx), "tx", ev.Record.TxID, "err", err)...)
			}
		}
		cancel()
	}

	t.finish(start, true, ok)
	if len(fresh) > 0 {
		slog.Info("cycle complete", append(logger.LogWithTrace(ctx),
			"new", len(fresh), "ledger", t.engine.Len(),
			"elapsed", t.now().Sub(start).String())...)
	}
	return len(fresh), nil
}

// Run polls every Interval until ctx is cancelled, then writes a final
// export and logs the summary.
func (t *Tracker) Run(ctx context.Context) error {
	slog.Info("tracker started", "wallet", t.cfg.Wallet, "interval", t.cfg.Interval.String())

	ticker := time.NewTicker(t.cfg.Interval)
	defer ticker.Stop()

	t.Cycle(ctx)
	for {
		select {
		case <-ctx.Done():
			t.shutdown()
			return nil
		case <-ticker.C:
			t.Cycle(ctx)
		}
	}
}

func (t *Tracker) shutdown() {
	if err := t.export(); err != nil {
		slog.Error("final export failed", "err", err)
	}
	s := t.engine.Summary()
	slog.Info("final summary",
		"wallet", t.cfg.Wallet,
		"trades", s.TotalTrades,
		"buys", s.Buys,
		"sells", s.Sells,
		"win_rate", fmt.Sprintf("%.1f", s.WinRate),
		"total_pnl", s.TotalPnLBase.StringFixed(4),
		"base_spent", s.BaseSpent.StringFixed(4),
		"base_received", s.BaseReceived.StringFixed(4),
		"open_positions", s.OpenPositions,
	)
}

func (t *Tracker) persist(ctx context.Context, fresh []model.TradeRecord, observed []string) error {
	var errs []error
	if len(fresh) > 0 {
		if err := t.journal.SaveRecords(ctx, fresh); err != nil {
			errs = append(errs, err)
		}
	}
	if err := t.journal.MarkSeen(ctx, observed); err != nil {
		errs = append(errs, err)
	}
	if t.health != nil {
		t.health.SetSQLiteOK(len(errs) == 0)
	}
	return errors.Join(errs...)
}

func (t *Tracker) export() error {
	if t.exporter == nil {
		return nil
	}
	err := t.exporter.Export(Snapshot{
		Records:   t.engine.Records(),
		Positions: t.engine.OpenPositions(),
		Stats:     t.engine.Summary(),
		At:        t.now(),
	})
	if err == nil {
		t.exported = true
	}
	return err
}

func (t *Tracker) logTrade(ctx context.Context, rec *model.TradeRecord) {
	attrs := append(logger.LogWithTrace(ctx),
		"action", string(rec.Action),
		"symbol", rec.Symbol,
		"asset", rec.AssetID,
		"amount", rec.AssetAmount.StringFixed(2),
		"base_amount", rec.BaseAmount.StringFixed(4),
		"base", t.engine.Base().Symbol,
		"tx", rec.TxID,
	)
	if rec.Action == model.ActionSell {
		attrs = append(attrs,
			"pnl", rec.PnLBase().StringFixed(4),
			"pnl_pct", rec.PnLPct().StringFixed(1))
	}
	slog.Info("trade detected", attrs...)
}

func (t *Tracker) fail(stage string) {
	if t.prom != nil {
		t.prom.CycleErrors.WithLabelValues(stage).Inc()
	}
}

func (t *Tracker) finish(start time.Time, upstreamOK, ok bool) {
	end := t.now()
	if t.health != nil {
		t.health.RecordCycle(end, upstreamOK, ok)
	}
	if t.prom == nil {
		return
	}
	t.prom.CycleDuration.Observe(end.Sub(start).Seconds())
	t.prom.LastCycleUnix.Set(float64(end.Unix()))

	s := t.engine.Summary()
	t.prom.RealizedPnLBase.Set(s.TotalPnLBase.InexactFloat64())
	t.prom.OpenPositions.Set(float64(s.OpenPositions))
	t.prom.WinRate.Set(s.WinRate)
	t.prom.LedgerSize.Set(float64(s.TotalTrades))
}
