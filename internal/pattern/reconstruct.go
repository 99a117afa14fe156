// Package pattern mines a frozen ledger for the wallet's trading habits:
// FIFO buy/sell pairing per asset and the entry/exit criteria derived from
// enrichment snapshots.
package pattern

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"wallet-tracker/internal/model"
)

// PairedTrade links one BUY with the SELL that closed it.
type PairedTrade struct {
	AssetID      string            `json:"asset_id"`
	Symbol       string            `json:"symbol"`
	Buy          model.TradeRecord `json:"buy"`
	Sell         model.TradeRecord `json:"sell"`
	HoldDuration time.Duration     `json:"hold_duration"`
	MCEntry      float64           `json:"mc_entry"`
	MCExit       float64           `json:"mc_exit"`
	MCDeltaPct   float64           `json:"mc_delta_pct"`
	PnLPct       decimal.Decimal   `json:"pnl_pct"`
	PnLValue     decimal.Decimal   `json:"pnl_value"` // base units
}

// Profitable reports whether the closing SELL realized a gain.
func (p PairedTrade) Profitable() bool {
	return p.PnLPct.IsPositive()
}

type legs struct {
	buys  []model.TradeRecord
	sells []model.TradeRecord

	untimedBuys int // BUYs without a timestamp: never paired, always open
}

// Reconstruct pairs every SELL with the earliest unconsumed BUY of the same
// asset that happened strictly before it. Equal timestamps fall back to
// ledger append order. Records without a usable timestamp never pair; an
// untimed BUY still counts as open. The second result maps asset id to the
// number of BUYs left unpaired.
func Reconstruct(records []model.TradeRecord) ([]PairedTrade, map[string]int) {
	groups, order := group(records)

	var paired []PairedTrade
	open := make(map[string]int, len(groups))
	for _, assetID := range order {
		g := groups[assetID]
		consumed := make([]bool, len(g.buys))
		used := 0
		for _, s := range g.sells {
			for i := range g.buys {
				if consumed[i] {
					continue
				}
				if !g.buys[i].Timestamp.Before(s.Timestamp) {
					break
				}
				consumed[i] = true
				used++
				paired = append(paired, newPair(g.buys[i], s))
				break
			}
		}
		if n := len(g.buys) + g.untimedBuys; n > 0 {
			open[assetID] = n - used
		}
	}

	sort.SliceStable(paired, func(i, j int) bool {
		return chronoLess(paired[i].Sell, paired[j].Sell)
	})
	return paired, open
}

// group partitions records by asset, keeping first-seen asset order.
func group(records []model.TradeRecord) (map[string]*legs, []string) {
	groups := make(map[string]*legs)
	var order []string
	for i, r := range records {
		if r.AssetID == "" {
			continue
		}
		if r.Seq == 0 {
			r.Seq = int64(i) + 1
		}
		g, ok := groups[r.AssetID]
		if !ok {
			g = &legs{}
			groups[r.AssetID] = g
			order = append(order, r.AssetID)
		}
		switch {
		case !r.HasTimestamp():
			if r.Action == model.ActionBuy {
				g.untimedBuys++
			}
		case r.Action == model.ActionBuy:
			g.buys = append(g.buys, r)
		case r.Action == model.ActionSell:
			g.sells = append(g.sells, r)
		}
	}
	for _, g := range groups {
		sortChrono(g.buys)
		sortChrono(g.sells)
	}
	return groups, order
}

func sortChrono(rs []model.TradeRecord) {
	sort.SliceStable(rs, func(i, j int) bool { return chronoLess(rs[i], rs[j]) })
}

func chronoLess(a, b model.TradeRecord) bool {
	if !a.Timestamp.Equal(b.Timestamp) {
		return a.Timestamp.Before(b.Timestamp)
	}
	return a.Seq < b.Seq
}

func newPair(b, s model.TradeRecord) PairedTrade {
	p := PairedTrade{
		AssetID:      b.AssetID,
		Symbol:       b.Symbol,
		Buy:          b,
		Sell:         s,
		HoldDuration: s.Timestamp.Sub(b.Timestamp),
		PnLPct:       s.PnLPct(),
		PnLValue:     s.PnLBase(),
	}
	if b.Enrichment != nil {
		p.MCEntry = b.Enrichment.MarketCap
	}
	if s.Enrichment != nil {
		p.MCExit = s.Enrichment.MarketCap
	}
	p.MCDeltaPct = mcDelta(p.MCEntry, p.MCExit)
	if p.Symbol == "" {
		p.Symbol = s.Symbol
	}
	return p
}

func mcDelta(entry, exit float64) float64 {
	if entry <= 0 || exit <= 0 {
		return 0
	}
	return (exit/entry - 1) * 100
}
