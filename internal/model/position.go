package model

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// Position is the running weighted-average-cost holding for one asset.
// Both totals stay non-negative.
type Position struct {
	AssetID       string          `json:"asset_id"`
	Symbol        string          `json:"symbol"`
	Name          string          `json:"name"`
	TotalQuantity decimal.Decimal `json:"total_quantity"`
	TotalCostBase decimal.Decimal `json:"total_cost_base"`
}

// AvgCostBase returns cost per unit in base units, zero when flat.
func (p Position) AvgCostBase() decimal.Decimal {
	if !p.TotalQuantity.IsPositive() {
		return decimal.Zero
	}
	return p.TotalCostBase.DivRound(p.TotalQuantity, DivPrecision)
}

// IsOpen reports whether any quantity is still held.
func (p Position) IsOpen() bool {
	return p.TotalQuantity.IsPositive()
}

// DivPrecision is the number of fractional digits kept by ledger divisions.
const DivPrecision int32 = 16

// MarshalJSON adds the derived average cost to the encoded form.
func (p Position) MarshalJSON() ([]byte, error) {
	type plain Position
	return json.Marshal(struct {
		plain
		AvgCostBase decimal.Decimal `json:"avg_cost_base"`
	}{plain(p), p.AvgCostBase()})
}
