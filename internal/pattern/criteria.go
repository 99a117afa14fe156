package pattern

import (
	"wallet-tracker/internal/model"
)

// Distribution summarizes a sample. All fields are zero for an empty sample.
type Distribution struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

func distribution(vals []float64) Distribution {
	if len(vals) == 0 {
		return Distribution{}
	}
	d := Distribution{Count: len(vals), Min: vals[0], Max: vals[0]}
	var sum float64
	for _, v := range vals {
		if v < d.Min {
			d.Min = v
		}
		if v > d.Max {
			d.Max = v
		}
		sum += v
	}
	d.Mean = sum / float64(len(vals))
	return d
}

func pct(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total) * 100
}

// EntryCriteria describes the asset conditions at BUY time. Only BUYs with
// an enrichment snapshot contribute. Age, market cap, liquidity, holders,
// buy/sell ratio and top-10 concentration ignore non-positive readings,
// which the upstream reports for unknown values.
type EntryCriteria struct {
	Samples int `json:"samples"`

	AgeSeconds   Distribution `json:"age_seconds"`
	MarketCap    Distribution `json:"market_cap"`
	Liquidity    Distribution `json:"liquidity"`
	Holders      Distribution `json:"holders"`
	BuySellRatio Distribution `json:"buy_sell_ratio"`
	LPBurn       Distribution `json:"lp_burn"`
	Change1m     Distribution `json:"price_change_1m"`
	Change5m     Distribution `json:"price_change_5m"`
	Change15m    Distribution `json:"price_change_15m"`
	Change1h     Distribution `json:"price_change_1h"`
	Top10Pct     Distribution `json:"top10_pct"`
	Snipers      Distribution `json:"snipers"`

	NoFreezePct float64 `json:"no_freeze_pct"`
	NoMintPct   float64 `json:"no_mint_pct"`
}

// Entry computes EntryCriteria over the BUY records.
func Entry(records []model.TradeRecord) EntryCriteria {
	var (
		ages, mcs, liqs, holders, ratios, top10 []float64
		burns, c1m, c5m, c15m, c1h, snipers     []float64
		noFreeze, noMint, samples               int
	)
	positive := func(dst *[]float64, v float64) {
		if v > 0 {
			*dst = append(*dst, v)
		}
	}

	for i := range records {
		r := &records[i]
		if r.Action != model.ActionBuy || r.Enrichment == nil {
			continue
		}
		en := r.Enrichment
		samples++

		positive(&ages, float64(en.AgeSeconds))
		positive(&mcs, en.MarketCap)
		positive(&liqs, en.Liquidity)
		positive(&holders, float64(en.Holders))
		positive(&ratios, en.BuySellRatio)
		positive(&top10, en.Top10Pct)

		burns = append(burns, en.LPBurn)
		c1m = append(c1m, en.PriceChange1m)
		c5m = append(c5m, en.PriceChange5m)
		c15m = append(c15m, en.PriceChange15m)
		c1h = append(c1h, en.PriceChange1h)
		snipers = append(snipers, float64(en.SniperCount))

		if en.NoFreezeAuthority() {
			noFreeze++
		}
		if en.NoMintAuthority() {
			noMint++
		}
	}

	return EntryCriteria{
		Samples:      samples,
		AgeSeconds:   distribution(ages),
		MarketCap:    distribution(mcs),
		Liquidity:    distribution(liqs),
		Holders:      distribution(holders),
		BuySellRatio: distribution(ratios),
		LPBurn:       distribution(burns),
		Change1m:     distribution(c1m),
		Change5m:     distribution(c5m),
		Change15m:    distribution(c15m),
		Change1h:     distribution(c1h),
		Top10Pct:     distribution(top10),
		Snipers:      distribution(snipers),
		NoFreezePct:  pct(noFreeze, samples),
		NoMintPct:    pct(noMint, samples),
	}
}

// ExitCriteria describes how positions were closed. Hold time and market
// cap delta come from paired trades; momentum comes from SELL snapshots;
// the win/loss split counts every SELL record.
type ExitCriteria struct {
	Pairs   int `json:"pairs"`
	Samples int `json:"samples"` // SELLs with a snapshot

	HoldMinutes    Distribution `json:"hold_minutes"`
	MCDelta        Distribution `json:"mc_delta_pct"`
	Change1mAtExit Distribution `json:"price_change_1m_at_exit"`
	Change5mAtExit Distribution `json:"price_change_5m_at_exit"`

	ProfitableExits int `json:"profitable_exits"`
	LosingExits     int `json:"losing_exits"`
}

// Exit computes ExitCriteria from the ledger and its FIFO pairs.
func Exit(records []model.TradeRecord, paired []PairedTrade) ExitCriteria {
	var holds, deltas, c1m, c5m []float64
	for _, p := range paired {
		holds = append(holds, p.HoldDuration.Minutes())
		if p.MCEntry > 0 && p.MCExit > 0 {
			deltas = append(deltas, p.MCDeltaPct)
		}
	}

	ec := ExitCriteria{Pairs: len(paired)}
	for i := range records {
		r := &records[i]
		if r.Action != model.ActionSell {
			continue
		}
		if r.PnLPct().IsPositive() {
			ec.ProfitableExits++
		} else {
			ec.LosingExits++
		}
		if r.Enrichment == nil {
			continue
		}
		ec.Samples++
		c1m = append(c1m, r.Enrichment.PriceChange1m)
		c5m = append(c5m, r.Enrichment.PriceChange5m)
	}

	ec.HoldMinutes = distribution(holds)
	ec.MCDelta = distribution(deltas)
	ec.Change1mAtExit = distribution(c1m)
	ec.Change5mAtExit = distribution(c5m)
	return ec
}
