// Package notification delivers trade alerts to external channels
// (log, Telegram, webhooks).
package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"wallet-tracker/internal/model"
)

// AlertLevel is the severity of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert is one notification.
type Alert struct {
	Level   AlertLevel `json:"level"`
	Title   string     `json:"title"`
	Message string     `json:"message"`
	TxID    string     `json:"tx_id,omitempty"`
	Link    string     `json:"link,omitempty"`

	Trade *TradeInfo `json:"trade,omitempty"` // set for ledger entries
}

// TradeInfo is the machine-readable side of a trade alert.
type TradeInfo struct {
	Action      model.Action     `json:"action"`
	AssetID     string           `json:"asset_id"`
	Symbol      string           `json:"symbol"`
	BaseSymbol  string           `json:"base_symbol"`
	BaseAmount  decimal.Decimal  `json:"base_amount"`
	AssetAmount decimal.Decimal  `json:"asset_amount"`
	ValueUSD    decimal.Decimal  `json:"value_usd"`
	PnLBase     *decimal.Decimal `json:"realized_pnl_base,omitempty"`
	PnLPct      *decimal.Decimal `json:"realized_pnl_pct,omitempty"`
	Timestamp   time.Time        `json:"timestamp"`
}

// Notifier is implemented by every delivery backend.
type Notifier interface {
	Send(ctx context.Context, alert Alert) error
}

// LogNotifier writes alerts to the process log.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier {
	return &LogNotifier{}
}

func (n *LogNotifier) Send(ctx context.Context, alert Alert) error {
	log.Printf("[notify] [%s] %s: %s", alert.Level, alert.Title, alert.Message)
	return nil
}

// Multi sends every alert to all notifiers and joins their errors.
type Multi []Notifier

func (m Multi) Send(ctx context.Context, alert Alert) error {
	var errs []error
	for _, n := range m {
		if err := n.Send(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

const txExplorer = "https://solscan.io/tx/"

// TradeAlert formats a ledger entry. BUYs are INFO; SELLs are INFO when
// profitable and WARNING otherwise.
func TradeAlert(rec model.TradeRecord, baseSymbol string) Alert {
	a := Alert{
		Level: AlertInfo,
		TxID:  rec.TxID,
		Link:  txExplorer + rec.TxID,
		Trade: &TradeInfo{
			Action:      rec.Action,
			AssetID:     rec.AssetID,
			Symbol:      rec.Symbol,
			BaseSymbol:  baseSymbol,
			BaseAmount:  rec.BaseAmount,
			AssetAmount: rec.AssetAmount,
			ValueUSD:    rec.ValueUSD,
			PnLBase:     rec.RealizedPnLBase,
			PnLPct:      rec.RealizedPnLPct,
			Timestamp:   rec.Timestamp,
		},
	}
	base := rec.BaseAmount.StringFixed(4) + " " + baseSymbol

	switch rec.Action {
	case model.ActionBuy:
		a.Title = "BUY " + rec.Symbol
		a.Message = fmt.Sprintf("%s | $%s", base, rec.ValueUSD.StringFixed(2))
		if en := rec.Enrichment; en != nil {
			a.Message += fmt.Sprintf("\nMC: $%.0f | Liq: $%.0f | Age: %dm",
				en.MarketCap, en.Liquidity, en.AgeSeconds/60)
		}
	default:
		pnl := rec.PnLBase()
		a.Title = "SELL " + rec.Symbol
		a.Message = fmt.Sprintf("%s | P/L: %s %s (%s%%)",
			base, signed(pnl.StringFixed(4)), baseSymbol, signed(rec.PnLPct().StringFixed(1)))
		if !pnl.IsPositive() {
			a.Level = AlertWarning
		}
	}
	return a
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}

// Dispatcher turns bus events into alerts.
type Dispatcher struct {
	notifier   Notifier
	baseSymbol string

	// OnError is called when delivery fails.
	OnError func(err error)
}

// NewDispatcher creates a dispatcher sending through n.
func NewDispatcher(n Notifier, baseSymbol string) *Dispatcher {
	return &Dispatcher{notifier: n, baseSymbol: baseSymbol}
}

// Run sends an alert per event until ctx ends or ch is closed.
func (d *Dispatcher) Run(ctx context.Context, ch <-chan model.TradeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			if err := d.notifier.Send(ctx, TradeAlert(ev.Record, d.baseSymbol)); err != nil {
				log.Printf("[notify] %s: %v", ev.Record.TxID, err)
				if d.OnError != nil {
					d.OnError(err)
				}
			}
		}
	}
}
