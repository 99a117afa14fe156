package pattern

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestClassify_Labels(t *testing.T) {
	entry := EntryCriteria{
		Samples:      3,
		AgeSeconds:   Distribution{Mean: 2400},
		MarketCap:    Distribution{Mean: 200_000},
		Change5m:     Distribution{Mean: -7},
		BuySellRatio: Distribution{Mean: 1.5},
	}
	exit := ExitCriteria{
		Pairs:          2,
		Samples:        2,
		HoldMinutes:    Distribution{Mean: 45},
		Change5mAtExit: Distribution{Mean: 6},
	}
	p := Classify(entry, exit)

	cases := map[string][2]string{
		"age":            {p.Age, "MOMENTUM TRADER: buys tokens 30-60 min old"},
		"market cap":     {p.MarketCap, "MID CAP TRADER: targets > $150k MC"},
		"entry momentum": {p.EntryMomentum, "DIP BUYER: buys on red candles"},
		"pressure":       {p.Pressure, "Buys into BUYING PRESSURE (ratio > 1.2)"},
		"hold":           {p.Hold, "SWING TRADER: holds 30-60 min"},
		"exit momentum":  {p.ExitMomentum, "SELLS INTO STRENGTH: exits while price is still pumping"},
	}
	for name, c := range cases {
		if c[0] != c[1] {
			t.Errorf("%s: expected %q, got %q", name, c[1], c[0])
		}
	}
}

func TestRecommend(t *testing.T) {
	entry := EntryCriteria{
		Samples:     4,
		AgeSeconds:  Distribution{Mean: 1260},
		MarketCap:   Distribution{Min: 20000, Mean: 40000},
		Liquidity:   Distribution{Min: 8000},
		Holders:     Distribution{Min: 50, Mean: 200},
		LPBurn:      Distribution{Mean: 3},
		NoFreezePct: 100,
		NoMintPct:   75,
	}
	exit := ExitCriteria{Pairs: 1, HoldMinutes: Distribution{Mean: 12.7}}
	rc := Recommend(entry, exit)

	if rc.MaxAgeMinutes != 31 {
		t.Errorf("expected max age 31, got %d", rc.MaxAgeMinutes)
	}
	if rc.MinMarketCap != 20000 || rc.MaxMarketCap != 60000 {
		t.Errorf("expected market cap 20000..60000, got %d..%d", rc.MinMarketCap, rc.MaxMarketCap)
	}
	if rc.MinHolders != 50 || rc.MaxHolders != 300 {
		t.Errorf("expected holders 50..300, got %d..%d", rc.MinHolders, rc.MaxHolders)
	}
	if rc.MinLPBurn != 0 {
		t.Errorf("expected min lp burn clamped to 0, got %d", rc.MinLPBurn)
	}
	if !rc.RequireNoFreeze || rc.RequireNoMint {
		t.Errorf("expected no-freeze required and no-mint optional, got %v/%v", rc.RequireNoFreeze, rc.RequireNoMint)
	}
	if rc.TargetHoldMinutes != 12 {
		t.Errorf("expected target hold 12, got %d", rc.TargetHoldMinutes)
	}
}

func TestScale(t *testing.T) {
	s := NewScale(decimal.RequireFromString("1.5"), decimal.RequireFromString("0.1"))
	if !s.Multiplier().Equal(decimal.NewFromInt(15)) {
		t.Errorf("expected multiplier 15, got %s", s.Multiplier())
	}
	if got := s.Apply(decimal.RequireFromString("0.2")); !got.Equal(decimal.NewFromInt(3)) {
		t.Errorf("expected 3, got %s", got)
	}

	id := NewScale(decimal.Zero, decimal.NewFromInt(1))
	if !id.IsIdentity() {
		t.Errorf("expected identity scale, got %s", id.Multiplier())
	}
	var zero Scale
	if !zero.Apply(decimal.NewFromInt(7)).Equal(decimal.NewFromInt(7)) {
		t.Error("expected zero-value scale to be the identity")
	}
}
