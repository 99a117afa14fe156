package pattern

import (
	"time"

	"github.com/shopspring/decimal"

	"wallet-tracker/internal/model"
)

// Analysis is the full result of one reconstruction run.
type Analysis struct {
	GeneratedAt time.Time `json:"generated_at"`

	Records int `json:"records"`
	Buys    int `json:"buys"`
	Sells   int `json:"sells"`
	Assets  int `json:"assets"`

	Paired        []PairedTrade  `json:"paired"`
	OpenCount     map[string]int `json:"open_count"`
	TotalOpen     int            `json:"total_open"`
	UnpairedSells int            `json:"unpaired_sells"`

	PairedWins    int             `json:"paired_wins"`
	PairedWinRate float64         `json:"paired_win_rate"`
	PairedPnL     decimal.Decimal `json:"paired_pnl"` // base units, unscaled

	Entry       EntryCriteria     `json:"entry"`
	Exit        ExitCriteria      `json:"exit"`
	Profile     Profile           `json:"profile"`
	Recommended RecommendedConfig `json:"recommended"`
}

// Analyze runs pairing and every aggregate over a ledger snapshot.
func Analyze(records []model.TradeRecord, now time.Time) Analysis {
	paired, open := Reconstruct(records)

	a := Analysis{
		GeneratedAt: now,
		Records:     len(records),
		Paired:      paired,
		OpenCount:   open,
		PairedPnL:   decimal.Zero,
	}
	if a.Paired == nil {
		a.Paired = []PairedTrade{}
	}

	assets := make(map[string]struct{})
	for i := range records {
		switch records[i].Action {
		case model.ActionBuy:
			a.Buys++
		case model.ActionSell:
			a.Sells++
		}
		if records[i].AssetID != "" {
			assets[records[i].AssetID] = struct{}{}
		}
	}
	a.Assets = len(assets)

	for _, n := range open {
		a.TotalOpen += n
	}
	a.UnpairedSells = a.Sells - len(paired)

	for _, p := range paired {
		if p.Profitable() {
			a.PairedWins++
		}
		a.PairedPnL = a.PairedPnL.Add(p.PnLValue)
	}
	a.PairedWinRate = pct(a.PairedWins, len(paired))

	a.Entry = Entry(records)
	a.Exit = Exit(records, paired)
	a.Profile = Classify(a.Entry, a.Exit)
	a.Recommended = Recommend(a.Entry, a.Exit)
	return a
}
