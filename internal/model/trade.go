package model

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Action is the direction of a ledger entry relative to the base asset.
type Action string

const (
	ActionBuy  Action = "BUY"
	ActionSell Action = "SELL"
)

// TradeRecord is an immutable ledger entry produced by the ledger engine.
type TradeRecord struct {
	Seq         int64           `json:"seq"` // 1-based append order
	TxID        string          `json:"tx_id"`
	Action      Action          `json:"action"`
	AssetID     string          `json:"asset_id"`
	Symbol      string          `json:"symbol"`
	Name        string          `json:"name"`
	BaseAmount  decimal.Decimal `json:"base_amount"`
	AssetAmount decimal.Decimal `json:"asset_amount"`
	PriceUSD    decimal.Decimal `json:"price_usd"`
	ValueUSD    decimal.Decimal `json:"value_usd"`

	// Set on SELL only.
	RealizedPnLBase *decimal.Decimal `json:"realized_pnl_base,omitempty"`
	RealizedPnLPct  *decimal.Decimal `json:"realized_pnl_pct,omitempty"`

	Timestamp  time.Time   `json:"timestamp"`
	DetectedAt time.Time   `json:"detected_at"`
	Enrichment *Enrichment `json:"enrichment,omitempty"`
}

// PnLBase returns the realized P/L in base units, zero for BUYs.
func (r *TradeRecord) PnLBase() decimal.Decimal {
	if r.RealizedPnLBase == nil {
		return decimal.Zero
	}
	return *r.RealizedPnLBase
}

// PnLPct returns the realized P/L percentage, zero for BUYs.
func (r *TradeRecord) PnLPct() decimal.Decimal {
	if r.RealizedPnLPct == nil {
		return decimal.Zero
	}
	return *r.RealizedPnLPct
}

// HasTimestamp reports whether the event time is known.
func (r *TradeRecord) HasTimestamp() bool {
	return !r.Timestamp.IsZero()
}

// UnmarshalJSON decodes a record leniently: an unparseable timestamp
// becomes the zero time instead of failing the whole ledger.
func (r *TradeRecord) UnmarshalJSON(data []byte) error {
	type plain TradeRecord
	aux := struct {
		*plain
		Timestamp  json.RawMessage `json:"timestamp"`
		DetectedAt json.RawMessage `json:"detected_at"`
	}{plain: (*plain)(r)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	r.Timestamp = parseTime(aux.Timestamp)
	r.DetectedAt = parseTime(aux.DetectedAt)
	return nil
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
}

// parseTime accepts RFC 3339 strings, the naive ISO forms the legacy
// history file used, and epoch milliseconds.
func parseTime(raw json.RawMessage) time.Time {
	if len(raw) == 0 || string(raw) == "null" {
		return time.Time{}
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil || ms <= 0 {
			return time.Time{}
		}
		return time.UnixMilli(ms).UTC()
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
