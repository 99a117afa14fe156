package notification

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"wallet-tracker/internal/model"
)

func TestTradeAlert_Buy(t *testing.T) {
	rec := model.TradeRecord{
		TxID: "sig1", Action: model.ActionBuy, Symbol: "AAA",
		BaseAmount: decimal.RequireFromString("0.2"), ValueUSD: decimal.RequireFromString("30.456"),
		Enrichment: &model.Enrichment{MarketCap: 42000, Liquidity: 9000, AgeSeconds: 600},
	}
	a := TradeAlert(rec, "SOL")
	if a.Level != AlertInfo || a.Title != "BUY AAA" {
		t.Errorf("unexpected alert header %s %q", a.Level, a.Title)
	}
	if !strings.HasPrefix(a.Message, "0.2000 SOL | $30.46") {
		t.Errorf("unexpected message %q", a.Message)
	}
	if !strings.Contains(a.Message, "Age: 10m") {
		t.Errorf("expected enrichment line, got %q", a.Message)
	}
	if a.Link != "https://solscan.io/tx/sig1" {
		t.Errorf("unexpected link %s", a.Link)
	}
}

func TestTradeAlert_SellLevels(t *testing.T) {
	win := decimal.RequireFromString("0.01")
	winPct := decimal.RequireFromString("20")
	loss := decimal.RequireFromString("-0.05")
	lossPct := decimal.RequireFromString("-25")

	a := TradeAlert(model.TradeRecord{Action: model.ActionSell, Symbol: "AAA", RealizedPnLBase: &win, RealizedPnLPct: &winPct}, "SOL")
	if a.Level != AlertInfo {
		t.Errorf("expected INFO for profitable sell, got %s", a.Level)
	}
	if !strings.Contains(a.Message, "P/L: +0.0100 SOL (+20.0%)") {
		t.Errorf("unexpected message %q", a.Message)
	}

	a = TradeAlert(model.TradeRecord{Action: model.ActionSell, Symbol: "AAA", RealizedPnLBase: &loss, RealizedPnLPct: &lossPct}, "SOL")
	if a.Level != AlertWarning {
		t.Errorf("expected WARNING for losing sell, got %s", a.Level)
	}
	if !strings.Contains(a.Message, "P/L: -0.0500 SOL (-25.0%)") {
		t.Errorf("unexpected message %q", a.Message)
	}

	a = TradeAlert(model.TradeRecord{Action: model.ActionSell, Symbol: "AAA"}, "SOL")
	if a.Level != AlertWarning {
		t.Errorf("expected WARNING for zero P/L, got %s", a.Level)
	}
}

type recordingNotifier struct {
	alerts []Alert
	err    error
}

func (r *recordingNotifier) Send(_ context.Context, a Alert) error {
	r.alerts = append(r.alerts, a)
	return r.err
}

func TestMulti_SendsToAllAndJoinsErrors(t *testing.T) {
	errA := errors.New("a down")
	a := &recordingNotifier{err: errA}
	b := &recordingNotifier{}

	err := Multi{a, b}.Send(context.Background(), Alert{Title: "x"})
	if !errors.Is(err, errA) {
		t.Errorf("expected joined error to wrap errA, got %v", err)
	}
	if len(a.alerts) != 1 || len(b.alerts) != 1 {
		t.Errorf("expected both notifiers called, got %d and %d", len(a.alerts), len(b.alerts))
	}
}

func TestDispatcher_Run(t *testing.T) {
	n := &recordingNotifier{err: errors.New("fail")}
	d := NewDispatcher(n, "SOL")
	var failures int
	d.OnError = func(error) { failures++ }

	ch := make(chan model.TradeEvent, 2)
	ch <- model.TradeEvent{Record: model.TradeRecord{TxID: "a", Action: model.ActionBuy, Symbol: "A"}}
	ch <- model.TradeEvent{Record: model.TradeRecord{TxID: "b", Action: model.ActionSell, Symbol: "A"}}
	close(ch)

	d.Run(context.Background(), ch)
	if len(n.alerts) != 2 || n.alerts[1].Title != "SELL A" {
		t.Errorf("unexpected alerts %+v", n.alerts)
	}
	if failures != 2 {
		t.Errorf("expected 2 failures reported, got %d", failures)
	}
}

func TestTelegramNotifier_Send(t *testing.T) {
	var path string
	var body map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		data, _ := io.ReadAll(r.Body)
		json.Unmarshal(data, &body)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("TOKEN", "42")
	n.apiBase = srv.URL
	err := n.Send(context.Background(), Alert{Level: AlertWarning, Title: "SELL A.B", Message: "x", Link: "https://solscan.io/tx/abc"})
	if err != nil {
		t.Fatalf("send: %v", err)
	}
	if path != "/botTOKEN/sendMessage" {
		t.Errorf("unexpected path %s", path)
	}
	if body["chat_id"] != "42" {
		t.Errorf("unexpected chat_id %v", body["chat_id"])
	}
	text, _ := body["text"].(string)
	if !strings.Contains(text, `SELL A\.B`) || !strings.Contains(text, "[tx](https://solscan.io/tx/abc)") {
		t.Errorf("unexpected text %q", text)
	}
}

func TestTelegramNotifier_Non200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	n := NewTelegramNotifier("T", "1")
	n.apiBase = srv.URL
	if err := n.Send(context.Background(), Alert{Title: "x"}); err == nil {
		t.Error("expected error on 400")
	}
}

func TestWebhookNotifier_SendsTradePayload(t *testing.T) {
	var (
		got WebhookEvent
		key string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key = r.Header.Get("Idempotency-Key")
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	pnl := decimal.RequireFromString("-0.05")
	pct := decimal.RequireFromString("-25")
	rec := model.TradeRecord{
		TxID: "sig", Action: model.ActionSell, AssetID: "mintA", Symbol: "AAA",
		BaseAmount: decimal.RequireFromString("0.15"), AssetAmount: decimal.RequireFromString("400"),
		RealizedPnLBase: &pnl, RealizedPnLPct: &pct,
	}
	if err := NewWebhookNotifier(srv.URL).Send(context.Background(), TradeAlert(rec, "SOL")); err != nil {
		t.Fatalf("send: %v", err)
	}
	if got.Event != "trade.sell" || got.Level != AlertWarning || got.TxID != "sig" {
		t.Errorf("unexpected header fields %+v", got)
	}
	if key != "sig" {
		t.Errorf("expected idempotency key sig, got %q", key)
	}
	if got.Trade == nil {
		t.Fatal("expected trade payload")
	}
	if got.Trade.AssetID != "mintA" || got.Trade.BaseSymbol != "SOL" || !got.Trade.AssetAmount.Equal(decimal.NewFromInt(400)) {
		t.Errorf("unexpected trade %+v", got.Trade)
	}
	if got.Trade.PnLBase == nil || !got.Trade.PnLBase.Equal(pnl) {
		t.Errorf("expected pnl -0.05, got %v", got.Trade.PnLBase)
	}
}

func TestWebhookNotifier_PlainAlert(t *testing.T) {
	var got map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(srv.URL).Send(context.Background(), Alert{Level: AlertCritical, Title: "down"})
	if err == nil {
		t.Error("expected error for 502")
	}
	if got["event"] != "alert" || got["trade"] != nil {
		t.Errorf("unexpected payload %v", got)
	}
}

func TestEscapeMarkdown(t *testing.T) {
	if got := escapeMarkdown("a_b.c!"); got != `a\_b\.c\!` {
		t.Errorf("unexpected escape %q", got)
	}
}
