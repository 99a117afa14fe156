package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wallet-tracker/internal/model"
)

func openTest(t *testing.T) *Journal {
	t.Helper()
	j, err := New(Config{DBPath: filepath.Join(t.TempDir(), "sub", "ledger.db")})
	if err != nil {
		t.Fatalf("open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func sampleRecords() []model.TradeRecord {
	ts := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	pnl := decimal.RequireFromString("0.01")
	pct := decimal.RequireFromString("20")
	auth := "Mint111"
	return []model.TradeRecord{
		{
			Seq: 1, TxID: "tx-1", Action: model.ActionBuy, AssetID: "MintA", Symbol: "AAA", Name: "Token A",
			BaseAmount: decimal.RequireFromString("0.2"), AssetAmount: decimal.NewFromInt(50),
			PriceUSD: decimal.RequireFromString("0.0041"), ValueUSD: decimal.RequireFromString("30.5"),
			Timestamp: ts, DetectedAt: ts.Add(3 * time.Second),
			Enrichment: &model.Enrichment{Name: "Token A", MarketCap: 42000, MintAuthority: &auth},
		},
		{
			Seq: 2, TxID: "tx-2", Action: model.ActionSell, AssetID: "MintA", Symbol: "AAA", Name: "Token A",
			BaseAmount: decimal.RequireFromString("0.06"), AssetAmount: decimal.NewFromInt(20),
			RealizedPnLBase: &pnl, RealizedPnLPct: &pct,
			Timestamp: ts.Add(time.Minute), DetectedAt: ts.Add(time.Minute + time.Second),
		},
	}
}

func TestJournal_SaveAndLoadRecords(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	if err := j.SaveRecords(ctx, sampleRecords()); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := j.LoadRecords(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}

	buy, sell := got[0], got[1]
	if buy.TxID != "tx-1" || buy.Action != model.ActionBuy {
		t.Errorf("unexpected first record: %+v", buy)
	}
	if !buy.BaseAmount.Equal(decimal.RequireFromString("0.2")) {
		t.Errorf("expected base 0.2, got %s", buy.BaseAmount)
	}
	if buy.RealizedPnLBase != nil {
		t.Errorf("expected nil pnl on BUY, got %s", buy.RealizedPnLBase)
	}
	if buy.Enrichment == nil || buy.Enrichment.MarketCap != 42000 || buy.Enrichment.NoMintAuthority() {
		t.Errorf("enrichment not round-tripped: %+v", buy.Enrichment)
	}
	if !buy.Timestamp.Equal(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)) {
		t.Errorf("unexpected timestamp %v", buy.Timestamp)
	}
	if sell.RealizedPnLBase == nil || !sell.RealizedPnLBase.Equal(decimal.RequireFromString("0.01")) {
		t.Errorf("expected pnl 0.01, got %v", sell.RealizedPnLBase)
	}
	if sell.Enrichment != nil {
		t.Errorf("expected nil enrichment, got %+v", sell.Enrichment)
	}
}

func TestJournal_SaveRecordsIdempotent(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	recs := sampleRecords()
	if err := j.SaveRecords(ctx, recs); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := j.SaveRecords(ctx, recs[1:]); err != nil {
		t.Fatalf("re-save: %v", err)
	}
	got, _ := j.LoadRecords(ctx)
	if len(got) != 2 {
		t.Errorf("expected 2 records after re-save, got %d", len(got))
	}
}

func TestJournal_ZeroTimestampStaysZero(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	rec := sampleRecords()[0]
	rec.Timestamp = time.Time{}
	if err := j.SaveRecords(ctx, []model.TradeRecord{rec}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, _ := j.LoadRecords(ctx)
	if len(got) != 1 || got[0].HasTimestamp() {
		t.Errorf("expected one record with zero timestamp, got %+v", got)
	}
}

func TestJournal_Recent(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()
	j.SaveRecords(ctx, sampleRecords())

	got, err := j.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 1 || got[0].TxID != "tx-2" {
		t.Errorf("expected [tx-2], got %+v", got)
	}
	all, _ := j.Recent(ctx, 10)
	if len(all) != 2 || all[0].Seq != 1 {
		t.Errorf("expected both records oldest first, got %d", len(all))
	}
}

func TestJournal_MarkSeen(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	if err := j.MarkSeen(ctx, []string{"a", "b"}); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := j.MarkSeen(ctx, []string{"b", "c"}); err != nil {
		t.Fatalf("mark again: %v", err)
	}
	ids, err := j.LoadSeen(ctx)
	if err != nil {
		t.Fatalf("load seen: %v", err)
	}
	if len(ids) != 3 {
		t.Errorf("expected 3 seen ids, got %v", ids)
	}
}

func TestJournal_Sessions(t *testing.T) {
	j := openTest(t)
	ctx := context.Background()

	id, err := j.StartSession(ctx, "Wallet1")
	if err != nil {
		t.Fatalf("start: %v", err)
	}
	if id == "" {
		t.Fatal("expected session id")
	}
	if err := j.EndSession(ctx, id); err != nil {
		t.Fatalf("end: %v", err)
	}
	n, err := j.CountSessions(ctx, "Wallet1")
	if err != nil || n != 1 {
		t.Errorf("expected 1 session, got %d (%v)", n, err)
	}
}

func TestJournal_ReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	ctx := context.Background()

	j, err := New(Config{DBPath: path})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	j.SaveRecords(ctx, sampleRecords())
	j.MarkSeen(ctx, []string{"tx-1", "tx-2"})
	j.Close()

	j2, err := New(Config{DBPath: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j2.Close()
	recs, _ := j2.LoadRecords(ctx)
	seen, _ := j2.LoadSeen(ctx)
	if len(recs) != 2 || len(seen) != 2 {
		t.Errorf("expected 2 records and 2 seen, got %d and %d", len(recs), len(seen))
	}
}
