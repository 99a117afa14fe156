package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// SwapEvent is one normalized swap observed on the tracked wallet.
// Amounts are non-negative; prices and value may be zero when unknown.
type SwapEvent struct {
	TxID          string          `json:"tx_id"`
	Timestamp     time.Time       `json:"timestamp"`
	From          Asset           `json:"from"`
	To            Asset           `json:"to"`
	FromAmount    decimal.Decimal `json:"from_amount"`
	ToAmount      decimal.Decimal `json:"to_amount"`
	FromPriceUSD  decimal.Decimal `json:"from_price_usd"`
	ToPriceUSD    decimal.Decimal `json:"to_price_usd"`
	TradeValueUSD decimal.Decimal `json:"trade_value_usd"`
	Program       string          `json:"program,omitempty"`
}
