package pattern

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wallet-tracker/internal/model"
)

func strPtr(s string) *string { return &s }

func TestEntry_EmptyIsZero(t *testing.T) {
	ec := Entry([]model.TradeRecord{rec(1, "b", model.ActionBuy, "A", at(1))})
	if ec.Samples != 0 {
		t.Errorf("expected 0 samples, got %d", ec.Samples)
	}
	if ec.MarketCap != (Distribution{}) || ec.NoFreezePct != 0 || ec.NoMintPct != 0 {
		t.Errorf("expected zero criteria, got %+v", ec)
	}
}

func TestEntry_FiltersAndAverages(t *testing.T) {
	b1 := rec(1, "b1", model.ActionBuy, "A", at(1))
	b1.Enrichment = &model.Enrichment{
		AgeSeconds: 600, MarketCap: 30000, Liquidity: 10000, Holders: 100,
		BuySellRatio: 1.5, Top10Pct: 20, LPBurn: 100, PriceChange5m: 10, SniperCount: 2,
	}
	b2 := rec(2, "b2", model.ActionBuy, "B", at(2))
	b2.Enrichment = &model.Enrichment{
		AgeSeconds: 1800, MarketCap: 0, Liquidity: 30000, Holders: 300,
		BuySellRatio: 0, Top10Pct: 40, LPBurn: 50, PriceChange5m: -4, SniperCount: 0,
		FreezeAuthority: strPtr("freezer"),
	}
	sell := rec(3, "s", model.ActionSell, "A", at(3))
	sell.Enrichment = &model.Enrichment{MarketCap: 999999}

	ec := Entry([]model.TradeRecord{b1, b2, sell})

	if ec.Samples != 2 {
		t.Fatalf("expected 2 samples, got %d", ec.Samples)
	}
	if ec.MarketCap.Count != 1 || ec.MarketCap.Mean != 30000 {
		t.Errorf("expected market cap mean 30000 over 1, got %+v", ec.MarketCap)
	}
	if ec.AgeSeconds.Min != 600 || ec.AgeSeconds.Max != 1800 || ec.AgeSeconds.Mean != 1200 {
		t.Errorf("expected age 600/1800/1200, got %+v", ec.AgeSeconds)
	}
	if ec.Liquidity.Mean != 20000 {
		t.Errorf("expected liquidity mean 20000, got %v", ec.Liquidity.Mean)
	}
	if ec.BuySellRatio.Count != 1 || ec.BuySellRatio.Mean != 1.5 {
		t.Errorf("expected ratio 1.5 over 1, got %+v", ec.BuySellRatio)
	}
	if ec.LPBurn.Mean != 75 {
		t.Errorf("expected lp burn mean 75, got %v", ec.LPBurn.Mean)
	}
	if ec.Change5m.Mean != 3 {
		t.Errorf("expected 5m momentum 3, got %v", ec.Change5m.Mean)
	}
	if ec.Snipers.Mean != 1 {
		t.Errorf("expected sniper mean 1, got %v", ec.Snipers.Mean)
	}
	if ec.NoFreezePct != 50 {
		t.Errorf("expected no-freeze 50%%, got %v", ec.NoFreezePct)
	}
	if ec.NoMintPct != 100 {
		t.Errorf("expected no-mint 100%%, got %v", ec.NoMintPct)
	}
}

func TestExit_Criteria(t *testing.T) {
	records := []model.TradeRecord{
		withMC(rec(1, "b1", model.ActionBuy, "A", at(0)), 10000),
		withMC(withPnL(rec(2, "s1", model.ActionSell, "A", at(10)), "1", "100"), 20000),
		rec(3, "b2", model.ActionBuy, "B", at(0)),
		withPnL(rec(4, "s2", model.ActionSell, "B", at(30)), "-0.5", "-50"),
		withPnL(rec(5, "s3", model.ActionSell, "C", at(40)), "0", "0"),
	}
	records[1].Enrichment.PriceChange5m = 8
	records[1].Enrichment.PriceChange1m = 2

	paired, _ := Reconstruct(records)
	ec := Exit(records, paired)

	if ec.Pairs != 2 {
		t.Fatalf("expected 2 pairs, got %d", ec.Pairs)
	}
	if ec.HoldMinutes.Min != 10 || ec.HoldMinutes.Max != 30 || ec.HoldMinutes.Mean != 20 {
		t.Errorf("expected hold 10/30/20, got %+v", ec.HoldMinutes)
	}
	if ec.MCDelta.Count != 1 || ec.MCDelta.Mean != 100 {
		t.Errorf("expected mc delta 100 over 1, got %+v", ec.MCDelta)
	}
	if ec.Samples != 1 || ec.Change5mAtExit.Mean != 8 || ec.Change1mAtExit.Mean != 2 {
		t.Errorf("expected exit momentum 2/8 over 1, got %+v", ec)
	}
	if ec.ProfitableExits != 1 || ec.LosingExits != 2 {
		t.Errorf("expected 1 profitable 2 losing, got %d/%d", ec.ProfitableExits, ec.LosingExits)
	}
}

func TestExit_EmptyIsZero(t *testing.T) {
	ec := Exit(nil, nil)
	if ec != (ExitCriteria{}) {
		t.Errorf("expected zero exit criteria, got %+v", ec)
	}
}

func TestAnalyze_Totals(t *testing.T) {
	records := []model.TradeRecord{
		rec(1, "b1", model.ActionBuy, "A", at(0)),
		withPnL(rec(2, "s1", model.ActionSell, "A", at(5)), "0.4", "40"),
		rec(3, "b2", model.ActionBuy, "B", at(1)),
		withPnL(rec(4, "s-orphan", model.ActionSell, "C", at(2)), "0", "0"),
	}
	now := time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	a := Analyze(records, now)

	if a.Buys != 2 || a.Sells != 2 || a.Assets != 3 {
		t.Errorf("expected 2 buys 2 sells 3 assets, got %d/%d/%d", a.Buys, a.Sells, a.Assets)
	}
	if len(a.Paired) != 1 || a.UnpairedSells != 1 || a.TotalOpen != 1 {
		t.Errorf("expected 1 pair 1 unpaired 1 open, got %d/%d/%d", len(a.Paired), a.UnpairedSells, a.TotalOpen)
	}
	if a.PairedWinRate != 100 {
		t.Errorf("expected paired win rate 100, got %v", a.PairedWinRate)
	}
	if !a.PairedPnL.Equal(decimal.RequireFromString("0.4")) {
		t.Errorf("expected paired pnl 0.4, got %s", a.PairedPnL)
	}
	if !a.GeneratedAt.Equal(now) {
		t.Errorf("expected generated_at %v, got %v", now, a.GeneratedAt)
	}
	if a.Profile.Hold != "SCALPER: holds < 10 min" {
		t.Errorf("expected scalper label, got %q", a.Profile.Hold)
	}
	if a.Profile.Age != "" {
		t.Errorf("expected no age label without snapshots, got %q", a.Profile.Age)
	}
}

func TestAnalyze_EmptyLedger(t *testing.T) {
	a := Analyze(nil, t0)
	if a.Paired == nil {
		t.Error("expected non-nil paired slice")
	}
	if a.PairedWinRate != 0 || a.TotalOpen != 0 {
		t.Errorf("expected zero totals, got %+v", a)
	}
}
