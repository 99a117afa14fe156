// cmd/analyze reconstructs buy/sell pairs from a recorded ledger and writes
// the pattern analysis as Markdown and HTML.
//
// Usage:
//
//	go run ./cmd/analyze --in=data/trade_history.json --out=data
//	go run ./cmd/analyze --db=data/ledger.db --actual-size=1.5 --observed-size=0.1
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/shopspring/decimal"

	"wallet-tracker/internal/model"
	"wallet-tracker/internal/pattern"
	"wallet-tracker/internal/report"
	"wallet-tracker/internal/store/jsonfile"
	sqlitestore "wallet-tracker/internal/store/sqlite"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Flags
	in := flag.String("in", "data/"+jsonfile.FileName, "Ledger export to analyze")
	dbPath := flag.String("db", "", "SQLite journal to analyze instead of the export")
	out := flag.String("out", "data", "Directory for the reports")
	wallet := flag.String("wallet", "", "Wallet label for the reports (default: from the export)")
	base := flag.String("base", "SOL", "Base asset symbol")
	actual := flag.String("actual-size", "0", "Trade size to scale P/L to (0=no scaling)")
	observed := flag.String("observed-size", "0", "Trade size the ledger was recorded at")
	flag.Parse()

	scale, err := parseScale(*actual, *observed)
	if err != nil {
		log.Fatalf("[analyze] %v", err)
	}

	records, label, err := load(*in, *dbPath)
	if errors.Is(err, jsonfile.ErrNoLedger) {
		log.Fatalf("[analyze] no ledger at %s; run the tracker first", *in)
	}
	if err != nil {
		log.Fatalf("[analyze] load failed: %v", err)
	}
	if *wallet != "" {
		label = *wallet
	}

	a := pattern.Analyze(records, time.Now())
	data := report.AnalysisData{
		Wallet:     label,
		BaseSymbol: *base,
		Analysis:   a,
		Scale:      scale,
	}
	if first, last, ok := timeRange(records); ok {
		data.FirstTrade, data.LastTrade = first, last
	}

	mdPath, htmlPath, err := report.WriteAnalysis(*out, data)
	if err != nil {
		log.Fatalf("[analyze] write reports: %v", err)
	}

	// Summary
	fmt.Println("═══════════════════════════════════════════")
	fmt.Printf("  Records:        %d (buys %d, sells %d)\n", a.Records, a.Buys, a.Sells)
	fmt.Printf("  Completed:      %d\n", len(a.Paired))
	fmt.Printf("  Open:           %d\n", a.TotalOpen)
	fmt.Printf("  Unpaired sells: %d\n", a.UnpairedSells)
	fmt.Printf("  Win rate:       %.1f%%\n", a.PairedWinRate)
	fmt.Printf("  P/L:            %s %s\n", a.PairedPnL.StringFixed(4), *base)
	if !scale.IsIdentity() {
		fmt.Printf("  Scaled P/L:     %s %s (x%s)\n", scale.Apply(a.PairedPnL).StringFixed(4), *base, scale.Multiplier())
	}
	fmt.Println("═══════════════════════════════════════════")
	fmt.Printf("  %s\n  %s\n", mdPath, htmlPath)
}

func load(in, dbPath string) ([]model.TradeRecord, string, error) {
	if dbPath == "" {
		exp, err := jsonfile.Read(in)
		if err != nil {
			return nil, "", err
		}
		return exp.Records, exp.Wallet, nil
	}

	if _, err := os.Stat(dbPath); err != nil {
		return nil, "", err
	}
	j, err := sqlitestore.New(sqlitestore.Config{DBPath: dbPath})
	if err != nil {
		return nil, "", err
	}
	defer j.Close()
	records, err := j.LoadRecords(context.Background())
	return records, "", err
}

func parseScale(actual, observed string) (pattern.Scale, error) {
	a, err := decimal.NewFromString(actual)
	if err != nil {
		return pattern.Scale{}, fmt.Errorf("invalid -actual-size %q: %w", actual, err)
	}
	o, err := decimal.NewFromString(observed)
	if err != nil {
		return pattern.Scale{}, fmt.Errorf("invalid -observed-size %q: %w", observed, err)
	}
	return pattern.NewScale(a, o), nil
}

// timeRange returns the earliest and latest known trade times.
func timeRange(records []model.TradeRecord) (first, last time.Time, ok bool) {
	for i := range records {
		ts := records[i].Timestamp
		if ts.IsZero() {
			continue
		}
		if !ok || ts.Before(first) {
			first = ts
		}
		if !ok || ts.After(last) {
			last = ts
		}
		ok = true
	}
	return first, last, ok
}
