package model

import "github.com/shopspring/decimal"

// Stats summarizes the ledger. Every field can be recomputed from the
// ledger and the position map.
type Stats struct {
	TotalTrades   int             `json:"total_trades"`
	Buys          int             `json:"buys"`
	Sells         int             `json:"sells"`
	BaseSpent     decimal.Decimal `json:"base_spent"`
	BaseReceived  decimal.Decimal `json:"base_received"`
	Wins          int             `json:"wins"`
	Losses        int             `json:"losses"`
	WinRate       float64         `json:"win_rate"` // percent of SELLs
	TotalPnLBase  decimal.Decimal `json:"total_pnl_base"`
	OpenPositions int             `json:"open_positions"`
}
