package report

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"wallet-tracker/internal/model"
	"wallet-tracker/internal/pattern"
)

var t0 = time.Date(2025, 1, 10, 12, 0, 0, 0, time.UTC)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func buy(seq int64, tx, asset string, at time.Time, mc float64) model.TradeRecord {
	return model.TradeRecord{
		Seq: seq, TxID: tx, Action: model.ActionBuy, AssetID: asset, Symbol: strings.ToUpper(asset),
		BaseAmount: d("0.1"), AssetAmount: d("1000"), ValueUSD: d("15"),
		Timestamp: at, Enrichment: &model.Enrichment{MarketCap: mc, AgeSeconds: 600, Holders: 120},
	}
}

func sell(seq int64, tx, asset string, at time.Time, mc float64, pnl, pct string) model.TradeRecord {
	p, q := d(pnl), d(pct)
	return model.TradeRecord{
		Seq: seq, TxID: tx, Action: model.ActionSell, AssetID: asset, Symbol: strings.ToUpper(asset),
		BaseAmount: d("0.12"), AssetAmount: d("1000"), ValueUSD: d("18"),
		RealizedPnLBase: &p, RealizedPnLPct: &q,
		Timestamp: at, Enrichment: &model.Enrichment{MarketCap: mc},
	}
}

func TestUSD(t *testing.T) {
	if got := usd(1234567.4); got != "$1,234,567" {
		t.Errorf("expected $1,234,567, got %s", got)
	}
	if got := usd(0); got != "N/A" {
		t.Errorf("expected N/A, got %s", got)
	}
}

func TestSigned(t *testing.T) {
	if got := signed(d("0.01"), 4); got != "+0.0100" {
		t.Errorf("expected +0.0100, got %s", got)
	}
	if got := signed(d("-0.5"), 2); got != "-0.50" {
		t.Errorf("expected -0.50, got %s", got)
	}
}

func TestShort(t *testing.T) {
	if got := short("So11111111111111111111111111111111111111112"); got != "So111111..." {
		t.Errorf("expected So111111..., got %s", got)
	}
	if got := short("abc"); got != "abc" {
		t.Errorf("expected abc, got %s", got)
	}
}

func TestRuntime(t *testing.T) {
	if got := runtime(t0, t0.Add(2*time.Hour+5*time.Minute)); got != "2h 5m" {
		t.Errorf("expected 2h 5m, got %s", got)
	}
	if got := runtime(time.Time{}, t0); got != "0h 0m" {
		t.Errorf("expected 0h 0m, got %s", got)
	}
}

func TestDashboard_WritesMostRecentFirst(t *testing.T) {
	dir := t.TempDir()
	dash := NewDashboard(dir, 0)

	records := []model.TradeRecord{
		buy(1, "tx-first", "aaa", t0, 40000),
		sell(2, "tx-second", "aaa", t0.Add(5*time.Minute), 50000, "0.02", "20"),
	}
	err := dash.Write(DashboardData{
		Wallet:     "Wallet1111111111",
		BaseSymbol: "SOL",
		Stats:      model.Stats{TotalTrades: 2, Buys: 1, Sells: 1, TotalPnLBase: d("0.02"), WinRate: 100},
		Records:    records,
		Positions: []model.Position{
			{AssetID: "bbb", Symbol: "BBB", Name: "A very long token name indeed", TotalQuantity: d("5"), TotalCostBase: d("0.3")},
			{AssetID: "aaa", Symbol: "AAA", TotalQuantity: decimal.Zero, TotalCostBase: decimal.Zero},
		},
		StartedAt:   t0,
		GeneratedAt: t0.Add(90 * time.Minute),
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}

	raw, err := os.ReadFile(filepath.Join(dir, DashboardFile))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	html := string(raw)

	first, second := strings.Index(html, "tx-first"), strings.Index(html, "tx-second")
	if first < 0 || second < 0 || second > first {
		t.Errorf("expected tx-second before tx-first, got positions %d and %d", second, first)
	}
	for _, want := range []string{
		`content="10"`,
		"+0.0200 SOL",
		"1h 30m",
		"A very long token na<",
		"+20.0%",
		"https://solscan.io/tx/tx-second",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("expected dashboard to contain %q", want)
		}
	}
	if strings.Contains(html, "<td>AAA</td>") {
		t.Error("expected closed position to be omitted")
	}
}

func TestDashboard_EmptyLedger(t *testing.T) {
	dir := t.TempDir()
	dash := NewDashboard(dir, 0)
	if err := dash.Write(DashboardData{Wallet: "w", BaseSymbol: "SOL"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, _ := os.ReadFile(dash.Path())
	if !strings.Contains(string(raw), "Waiting for trades...") {
		t.Error("expected waiting placeholder")
	}
	if !strings.Contains(string(raw), "No open positions") {
		t.Error("expected empty positions placeholder")
	}
}

func TestDashboard_MaxRows(t *testing.T) {
	dir := t.TempDir()
	dash := NewDashboard(dir, 1)
	records := []model.TradeRecord{
		buy(1, "tx-old", "aaa", t0, 0),
		buy(2, "tx-new", "bbb", t0.Add(time.Minute), 0),
	}
	if err := dash.Write(DashboardData{Records: records, BaseSymbol: "SOL"}); err != nil {
		t.Fatalf("write: %v", err)
	}
	raw, _ := os.ReadFile(dash.Path())
	if strings.Contains(string(raw), "tx-old") {
		t.Error("expected oldest row to be cut")
	}
	if !strings.Contains(string(raw), "tx-new") {
		t.Error("expected newest row to be kept")
	}
}

func analysisFixture(scale pattern.Scale) AnalysisData {
	records := []model.TradeRecord{
		buy(1, "b1", "loser", t0, 100000),
		buy(2, "b2", "winner", t0.Add(time.Minute), 20000),
		sell(3, "s1", "loser", t0.Add(10*time.Minute), 50000, "-0.05", "-50"),
		sell(4, "s2", "winner", t0.Add(21*time.Minute), 40000, "0.1", "100"),
	}
	return AnalysisData{
		Wallet:     "Wallet1111111111",
		BaseSymbol: "SOL",
		Analysis:   pattern.Analyze(records, t0.Add(time.Hour)),
		Scale:      scale,
		FirstTrade: records[0].Timestamp,
		LastTrade:  records[3].Timestamp,
	}
}

func TestRenderMarkdown_Sections(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderMarkdown(&buf, analysisFixture(pattern.NewScale(decimal.Zero, decimal.Zero))); err != nil {
		t.Fatalf("render: %v", err)
	}
	md := buf.String()

	for _, want := range []string{
		"## Summary",
		"- **Total Trades:** 4 (Buys: 2, Sells: 2)",
		"- **Completed Trades:** 2",
		"- **Win Rate:** 50.0%",
		"- **Your P/L:** +0.0500 SOL",
		"## Entry Criteria",
		"## Exit Criteria",
		"- **Profitable exits:** 1",
		"## Detailed Trade Log",
		"`winner`",
		"```json",
		`"target_hold_minutes"`,
	} {
		if !strings.Contains(md, want) {
			t.Errorf("expected markdown to contain %q", want)
		}
	}
	if strings.Contains(md, "Scaled P/L") {
		t.Error("expected no scaled line for identity scale")
	}

	// sorted by P/L % descending
	if strings.Index(md, "| WINNER |") > strings.Index(md, "| LOSER |") {
		t.Error("expected WINNER row before LOSER row")
	}
}

func TestRenderMarkdown_Scaled(t *testing.T) {
	var buf bytes.Buffer
	data := analysisFixture(pattern.NewScale(d("1.5"), d("0.1")))
	if err := RenderMarkdown(&buf, data); err != nil {
		t.Fatalf("render: %v", err)
	}
	md := buf.String()
	if !strings.Contains(md, "- **Scaled P/L (x15):** +0.7500 SOL") {
		t.Errorf("expected scaled summary line, got:\n%s", md)
	}
	if !strings.Contains(md, "+1.5000 ✅") {
		t.Error("expected scaled row P/L for winner")
	}
	if !strings.Contains(md, "-0.7500 ❌") {
		t.Error("expected scaled row P/L for loser")
	}
}

func TestRenderHTML_EscapesSymbols(t *testing.T) {
	data := analysisFixture(pattern.NewScale(decimal.Zero, decimal.Zero))
	data.Analysis.Paired[0].Symbol = "<script>x</script>"

	var buf bytes.Buffer
	if err := RenderHTML(&buf, data); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	if strings.Contains(out, "<script>x</script>") {
		t.Error("expected symbol to be escaped")
	}
	if !strings.Contains(out, "&lt;script&gt;") {
		t.Error("expected escaped symbol in output")
	}
}

func TestWriteAnalysis_WritesBothFiles(t *testing.T) {
	dir := t.TempDir()
	mdPath, htmlPath, err := WriteAnalysis(dir, analysisFixture(pattern.NewScale(decimal.Zero, decimal.Zero)))
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	for _, p := range []string{mdPath, htmlPath} {
		if _, err := os.Stat(p); err != nil {
			t.Errorf("expected %s to exist: %v", p, err)
		}
	}
	if filepath.Base(mdPath) != AnalysisMarkdown {
		t.Errorf("expected %s, got %s", AnalysisMarkdown, filepath.Base(mdPath))
	}
}
