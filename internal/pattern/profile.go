package pattern

import "math"

// Profile holds human-readable labels for the dominant habits. A label is
// empty when there was nothing to classify.
type Profile struct {
	Age           string `json:"age,omitempty"`
	MarketCap     string `json:"market_cap,omitempty"`
	EntryMomentum string `json:"entry_momentum,omitempty"`
	Pressure      string `json:"pressure,omitempty"`
	Hold          string `json:"hold,omitempty"`
	ExitMomentum  string `json:"exit_momentum,omitempty"`
}

// Classify labels the criteria using fixed thresholds: ages in seconds,
// market caps in USD, momentum in percent and hold time in minutes.
func Classify(entry EntryCriteria, exit ExitCriteria) Profile {
	var p Profile
	if entry.Samples > 0 {
		switch age := entry.AgeSeconds.Mean; {
		case age < 1800:
			p.Age = "EARLY BUYER: targets tokens under 30 min old"
		case age < 3600:
			p.Age = "MOMENTUM TRADER: buys tokens 30-60 min old"
		default:
			p.Age = "LATE BUYER: waits for tokens to mature"
		}

		switch mc := entry.MarketCap.Mean; {
		case mc < 50_000:
			p.MarketCap = "MICRO CAP HUNTER: targets < $50k MC"
		case mc < 150_000:
			p.MarketCap = "LOW CAP TRADER: targets $50k-$150k MC"
		default:
			p.MarketCap = "MID CAP TRADER: targets > $150k MC"
		}

		p.EntryMomentum = momentumLabel(entry.Change5m.Mean,
			"MOMENTUM CHASER: buys when price is pumping",
			"DIP BUYER: buys on red candles",
			"NEUTRAL ENTRY: ignores short-term momentum")

		if entry.BuySellRatio.Mean > 1.2 {
			p.Pressure = "Buys into BUYING PRESSURE (ratio > 1.2)"
		} else {
			p.Pressure = "Does not require strong buying pressure"
		}
	}

	if exit.Pairs > 0 {
		switch hold := exit.HoldMinutes.Mean; {
		case hold < 10:
			p.Hold = "SCALPER: holds < 10 min"
		case hold < 30:
			p.Hold = "QUICK TRADER: holds 10-30 min"
		case hold < 60:
			p.Hold = "SWING TRADER: holds 30-60 min"
		default:
			p.Hold = "PATIENT HOLDER: holds > 1 hour"
		}
	}
	if exit.Samples > 0 {
		p.ExitMomentum = momentumLabel(exit.Change5mAtExit.Mean,
			"SELLS INTO STRENGTH: exits while price is still pumping",
			"PANIC SELLER: exits on red candles",
			"NEUTRAL EXIT: does not time exits on momentum")
	}
	return p
}

func momentumLabel(change5m float64, up, down, flat string) string {
	switch {
	case change5m > 5:
		return up
	case change5m < -5:
		return down
	default:
		return flat
	}
}

// RecommendedConfig is a starting point for a copy-trading bot tuned to
// the observed entries and exits.
type RecommendedConfig struct {
	MaxAgeMinutes     int64 `json:"max_age_minutes"`
	MinMarketCap      int64 `json:"min_market_cap"`
	MaxMarketCap      int64 `json:"max_market_cap"`
	MinLiquidity      int64 `json:"min_liquidity"`
	MinHolders        int64 `json:"min_holders"`
	MaxHolders        int64 `json:"max_holders"`
	MinLPBurn         int64 `json:"min_lp_burn"`
	RequireNoFreeze   bool  `json:"require_no_freeze"`
	RequireNoMint     bool  `json:"require_no_mint"`
	TargetHoldMinutes int64 `json:"target_hold_minutes"`
}

// Recommend derives a bot config; ceilings sit 50% above the observed means.
func Recommend(entry EntryCriteria, exit ExitCriteria) RecommendedConfig {
	var rc RecommendedConfig
	if entry.Samples > 0 {
		rc.MaxAgeMinutes = int64(math.Floor(entry.AgeSeconds.Mean/60) * 1.5)
		rc.MinMarketCap = int64(entry.MarketCap.Min)
		rc.MaxMarketCap = int64(entry.MarketCap.Mean * 1.5)
		rc.MinLiquidity = int64(entry.Liquidity.Min)
		rc.MinHolders = int64(entry.Holders.Min)
		rc.MaxHolders = int64(entry.Holders.Mean * 1.5)
		if burn := int64(entry.LPBurn.Mean - 5); burn > 0 {
			rc.MinLPBurn = burn
		}
		rc.RequireNoFreeze = entry.NoFreezePct > 90
		rc.RequireNoMint = entry.NoMintPct > 90
	}
	if exit.Pairs > 0 {
		rc.TargetHoldMinutes = int64(exit.HoldMinutes.Mean)
	}
	return rc
}
