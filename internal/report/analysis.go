package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	htmltemplate "html/template"
	"io"
	"path/filepath"
	"sort"
	"text/template"
	"time"

	"github.com/shopspring/decimal"

	"wallet-tracker/internal/pattern"
)

// AnalysisData is the input of the offline pattern reports.
type AnalysisData struct {
	Wallet     string
	BaseSymbol string
	Analysis   pattern.Analysis
	Scale      pattern.Scale // display-only P/L multiplier
	FirstTrade time.Time
	LastTrade  time.Time
}

type pairRow struct {
	Symbol     string
	AssetID    string
	BuyTime    string
	SellTime   string
	Hold       string
	MCEntry    float64
	MCExit     float64
	MCDeltaPct float64
	AgeSeconds float64
	Holders    int64
	PnLPct     decimal.Decimal
	PnLValue   decimal.Decimal
	Scaled     decimal.Decimal
	Profitable bool
}

type analysisView struct {
	AnalysisData
	Rows         []pairRow
	Losing       int
	ScaledPnL    decimal.Decimal
	Scaled       bool
	Multiplier   string
	ConfigJSON   string
	GeneratedStr string
}

func newAnalysisView(data AnalysisData) (analysisView, error) {
	a := data.Analysis
	v := analysisView{
		AnalysisData: data,
		Losing:       len(a.Paired) - a.PairedWins,
		ScaledPnL:    data.Scale.Apply(a.PairedPnL),
		Scaled:       !data.Scale.IsIdentity(),
		Multiplier:   data.Scale.Multiplier().String(),
		GeneratedStr: a.GeneratedAt.Format("2006-01-02 15:04:05"),
	}

	cfg, err := json.MarshalIndent(a.Recommended, "", "  ")
	if err != nil {
		return v, err
	}
	v.ConfigJSON = string(cfg)

	for _, p := range a.Paired {
		row := pairRow{
			Symbol:     p.Symbol,
			AssetID:    p.AssetID,
			BuyTime:    "N/A",
			SellTime:   "N/A",
			Hold:       "N/A",
			MCEntry:    p.MCEntry,
			MCExit:     p.MCExit,
			MCDeltaPct: p.MCDeltaPct,
			PnLPct:     p.PnLPct,
			PnLValue:   p.PnLValue,
			Scaled:     data.Scale.Apply(p.PnLValue),
			Profitable: p.Profitable(),
		}
		if p.Buy.HasTimestamp() && p.Sell.HasTimestamp() {
			row.BuyTime = p.Buy.Timestamp.Format("01/02 15:04")
			row.SellTime = p.Sell.Timestamp.Format("01/02 15:04")
			row.Hold = hold(p.HoldDuration)
		}
		if e := p.Buy.Enrichment; e != nil {
			row.AgeSeconds = float64(e.AgeSeconds)
			row.Holders = e.Holders
		}
		v.Rows = append(v.Rows, row)
	}
	sort.SliceStable(v.Rows, func(i, j int) bool {
		return v.Rows[i].PnLPct.GreaterThan(v.Rows[j].PnLPct)
	})
	return v, nil
}

// RenderMarkdown writes the analysis as Markdown.
func RenderMarkdown(w io.Writer, data AnalysisData) error {
	v, err := newAnalysisView(data)
	if err != nil {
		return err
	}
	return markdownTmpl.Execute(w, v)
}

// RenderHTML writes the analysis as a standalone HTML page.
func RenderHTML(w io.Writer, data AnalysisData) error {
	v, err := newAnalysisView(data)
	if err != nil {
		return err
	}
	return analysisHTMLTmpl.Execute(w, v)
}

// WriteAnalysis writes both reports into dir and returns their paths.
func WriteAnalysis(dir string, data AnalysisData) (mdPath, htmlPath string, err error) {
	mdPath = filepath.Join(dir, AnalysisMarkdown)
	htmlPath = filepath.Join(dir, AnalysisHTML)

	err = writeAtomic(mdPath, func(buf *bytes.Buffer) error { return RenderMarkdown(buf, data) })
	if err != nil {
		return "", "", fmt.Errorf("report.WriteAnalysis: %w", err)
	}
	err = writeAtomic(htmlPath, func(buf *bytes.Buffer) error { return RenderHTML(buf, data) })
	if err != nil {
		return "", "", fmt.Errorf("report.WriteAnalysis: %w", err)
	}
	return mdPath, htmlPath, nil
}

var markdownTmpl = template.Must(template.New("analysis.md").Funcs(funcs).Parse(`# Wallet Pattern Analysis Report

**Wallet:** ` + "`{{.Wallet}}`" + `
**Generated:** {{.GeneratedStr}}
{{- if .Scaled}}

> Scaled P/L multiplies the observed P/L by {{.Multiplier}} to estimate returns at a different trade size. P/L percentages are unaffected.
{{- end}}

---
## Summary

- **Total Trades:** {{.Analysis.Records}} (Buys: {{.Analysis.Buys}}, Sells: {{.Analysis.Sells}})
- **Completed Trades:** {{len .Analysis.Paired}}
- **Open Positions:** {{.Analysis.TotalOpen}}
- **Win Rate:** {{pct .Analysis.PairedWinRate}}
- **Your P/L:** {{signed .Analysis.PairedPnL 4}} {{.BaseSymbol}}
{{- if .Scaled}}
- **Scaled P/L (x{{.Multiplier}}):** {{signed .ScaledPnL 4}} {{.BaseSymbol}}
{{- end}}
- **Time Range:** {{clock .FirstTrade}} → {{clock .LastTrade}}

---
## Entry Criteria
{{with .Analysis.Entry}}
{{- if .Samples}}
Based on {{.Samples}} buys with a token snapshot.

### Token Age at Entry
- **Min:** {{minutes .AgeSeconds.Min}} min
- **Max:** {{minutes .AgeSeconds.Max}} min
- **Average:** {{minutes .AgeSeconds.Mean}} min
- **Pattern:** {{$.Analysis.Profile.Age}}

### Market Cap at Entry
- **Min:** {{usd .MarketCap.Min}}
- **Max:** {{usd .MarketCap.Max}}
- **Average:** {{usd .MarketCap.Mean}}
- **Pattern:** {{$.Analysis.Profile.MarketCap}}

### Liquidity at Entry
- **Min:** {{usd .Liquidity.Min}}
- **Max:** {{usd .Liquidity.Max}}
- **Average:** {{usd .Liquidity.Mean}}

### Holders at Entry
- **Min:** {{printf "%.0f" .Holders.Min}}
- **Max:** {{printf "%.0f" .Holders.Max}}
- **Average:** {{printf "%.0f" .Holders.Mean}}

### Price Momentum at Entry
- **1m avg:** {{spct .Change1m.Mean}}
- **5m avg:** {{spct .Change5m.Mean}}
- **1h avg:** {{spct .Change1h.Mean}}
- **Pattern:** {{$.Analysis.Profile.EntryMomentum}}

### Security
- **No Freeze Authority:** {{pct .NoFreezePct}} of buys
- **No Mint Authority:** {{pct .NoMintPct}} of buys
- **LP Burn avg:** {{pct .LPBurn.Mean}}
- **Top 10 Holders avg:** {{pct .Top10Pct.Mean}}
- **Snipers avg:** {{printf "%.1f" .Snipers.Mean}}

### Buy/Sell Ratio
- **Average:** {{printf "%.2f" .BuySellRatio.Mean}}
- **Pattern:** {{$.Analysis.Profile.Pressure}}
{{- else}}
No buys with a token snapshot.
{{- end}}
{{- end}}

---
## Exit Criteria
{{with .Analysis.Exit}}
{{- if .Pairs}}
### Hold Time
- **Min:** {{printf "%.1f" .HoldMinutes.Min}} min
- **Max:** {{printf "%.1f" .HoldMinutes.Max}} min
- **Average:** {{printf "%.1f" .HoldMinutes.Mean}} min
- **Pattern:** {{$.Analysis.Profile.Hold}}

### MC Change at Exit
- **Average MC change:** {{spct .MCDelta.Mean}}
{{- end}}
{{- if .Samples}}

### Price Momentum at Exit
- **1m avg at sell:** {{spct .Change1mAtExit.Mean}}
- **5m avg at sell:** {{spct .Change5mAtExit.Mean}}
- **Pattern:** {{$.Analysis.Profile.ExitMomentum}}
{{- end}}

### Win/Loss Distribution
- **Profitable exits:** {{.ProfitableExits}}
- **Losing exits:** {{.LosingExits}}
{{- end}}

---
## Detailed Trade Log

| Symbol | CA | Buy Time | Sell Time | Hold | Buy MC | Sell MC | MC Δ | P/L % | {{if .Scaled}}Scaled {{end}}P/L ({{.BaseSymbol}}) |
|--------|----|----------|-----------|------|--------|---------|------|-------|------|
{{- range .Rows}}
| {{.Symbol}} | ` + "`{{short .AssetID}}`" + ` | {{.BuyTime}} | {{.SellTime}} | {{.Hold}} | {{usd .MCEntry}} | {{usd .MCExit}} | {{printf "%+.0f%%" .MCDeltaPct}} | {{fixed .PnLPct 1}}% | {{signed .Scaled 4}} {{if .Profitable}}✅{{else}}❌{{end}} |
{{- end}}

---
## Recommended Bot Settings

` + "```json" + `
{{.ConfigJSON}}
` + "```" + `
`))

var analysisHTMLTmpl = htmltemplate.Must(htmltemplate.New("analysis.html").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
<title>Wallet Pattern Analysis</title>
<meta charset="UTF-8">
<style>
* { margin: 0; padding: 0; box-sizing: border-box; }
body { font-family: 'Segoe UI', sans-serif; background: linear-gradient(135deg, #0f0f23, #1a1a3e); color: #e0e0e0; padding: 20px; min-height: 100vh; }
.container { max-width: 1600px; margin: 0 auto; }
h1 { color: #00d4ff; text-align: center; margin-bottom: 10px; }
h2 { color: #00d4ff; margin: 25px 0 15px 0; font-size: 1.3em; }
h3 { color: #ffaa00; margin: 15px 0 10px 0; font-size: 1.1em; }
.note { background: #442200; border: 1px solid #ffaa00; padding: 15px; border-radius: 8px; margin: 20px 0; }
.stats-grid { display: grid; grid-template-columns: repeat(auto-fit, minmax(150px, 1fr)); gap: 12px; margin: 20px 0; }
.stat-card { background: rgba(26,26,46,0.8); padding: 15px; border-radius: 10px; text-align: center; border: 1px solid #2a2a4e; }
.stat-label { color: #888; font-size: 11px; text-transform: uppercase; }
.stat-value { font-size: 20px; font-weight: bold; margin-top: 5px; }
.profit { color: #00ff88; }
.loss { color: #ff4444; }
.criteria-box { background: rgba(26,26,46,0.8); padding: 20px; border-radius: 10px; margin: 15px 0; border: 1px solid #2a2a4e; }
.criteria-item { display: flex; justify-content: space-between; padding: 8px 0; border-bottom: 1px solid #2a2a4e; }
.criteria-label { color: #888; }
.criteria-value { font-weight: bold; }
.pattern { background: #1a3a1a; border-left: 3px solid #00ff88; padding: 10px 15px; margin: 10px 0; }
table { width: 100%; border-collapse: collapse; background: rgba(26,26,46,0.8); font-size: 12px; margin: 20px 0; }
th { background: #2a2a4e; padding: 10px 6px; text-align: left; color: #00d4ff; font-size: 11px; position: sticky; top: 0; }
td { padding: 8px 6px; border-bottom: 1px solid #2a2a4e; }
tr:hover { background: rgba(0,212,255,0.1); }
.profit-row { border-left: 3px solid #00ff88; }
.loss-row { border-left: 3px solid #ff4444; }
.ca-cell { font-family: monospace; cursor: pointer; color: #00d4ff; font-size: 11px; }
.toast { position: fixed; bottom: 20px; right: 20px; background: #00ff88; color: #000; padding: 12px 24px; border-radius: 8px; font-weight: bold; opacity: 0; transition: opacity 0.3s; }
.toast.show { opacity: 1; }
</style>
</head>
<body>
<div class="container">
<h1>Wallet Pattern Analysis</h1>
<p style="text-align:center;color:#888;">{{.Wallet}} &middot; Generated: {{.GeneratedStr}}</p>
{{- if .Scaled}}
<div class="note">Scaled P/L multiplies the observed P/L by {{.Multiplier}}. P/L percentages are unaffected.</div>
{{- end}}

<div class="stats-grid">
<div class="stat-card"><div class="stat-label">Total Trades</div><div class="stat-value">{{.Analysis.Records}}</div></div>
<div class="stat-card"><div class="stat-label">Completed</div><div class="stat-value">{{len .Analysis.Paired}}</div></div>
<div class="stat-card"><div class="stat-label">Win Rate</div><div class="stat-value {{if ge .Analysis.PairedWinRate 50.0}}profit{{else}}loss{{end}}">{{pct .Analysis.PairedWinRate}}</div></div>
<div class="stat-card"><div class="stat-label">{{if .Scaled}}Scaled {{end}}P/L</div><div class="stat-value {{if nonNeg .ScaledPnL}}profit{{else}}loss{{end}}">{{signed .ScaledPnL 4}} {{.BaseSymbol}}</div></div>
<div class="stat-card"><div class="stat-label">Profitable</div><div class="stat-value profit">{{.Analysis.PairedWins}}</div></div>
<div class="stat-card"><div class="stat-label">Losing</div><div class="stat-value loss">{{.Losing}}</div></div>
<div class="stat-card"><div class="stat-label">Open</div><div class="stat-value">{{.Analysis.TotalOpen}}</div></div>
</div>

<h2>Entry Criteria</h2>
<div class="criteria-box">
{{- with .Analysis.Entry}}
<h3>Token Age</h3>
<div class="criteria-item"><span class="criteria-label">Min</span><span class="criteria-value">{{minutes .AgeSeconds.Min}} min</span></div>
<div class="criteria-item"><span class="criteria-label">Max</span><span class="criteria-value">{{minutes .AgeSeconds.Max}} min</span></div>
<div class="criteria-item"><span class="criteria-label">Average</span><span class="criteria-value">{{minutes .AgeSeconds.Mean}} min</span></div>
{{- with $.Analysis.Profile.Age}}<div class="pattern">{{.}}</div>{{end}}
<h3>Market Cap</h3>
<div class="criteria-item"><span class="criteria-label">Min</span><span class="criteria-value">{{usd .MarketCap.Min}}</span></div>
<div class="criteria-item"><span class="criteria-label">Max</span><span class="criteria-value">{{usd .MarketCap.Max}}</span></div>
<div class="criteria-item"><span class="criteria-label">Average</span><span class="criteria-value">{{usd .MarketCap.Mean}}</span></div>
{{- with $.Analysis.Profile.MarketCap}}<div class="pattern">{{.}}</div>{{end}}
<h3>Price Momentum at Entry</h3>
<div class="criteria-item"><span class="criteria-label">1m avg</span><span class="criteria-value">{{spct .Change1m.Mean}}</span></div>
<div class="criteria-item"><span class="criteria-label">5m avg</span><span class="criteria-value">{{spct .Change5m.Mean}}</span></div>
<div class="criteria-item"><span class="criteria-label">1h avg</span><span class="criteria-value">{{spct .Change1h.Mean}}</span></div>
{{- with $.Analysis.Profile.EntryMomentum}}<div class="pattern">{{.}}</div>{{end}}
<h3>Security</h3>
<div class="criteria-item"><span class="criteria-label">No Freeze</span><span class="criteria-value">{{printf "%.0f%%" .NoFreezePct}}</span></div>
<div class="criteria-item"><span class="criteria-label">No Mint</span><span class="criteria-value">{{printf "%.0f%%" .NoMintPct}}</span></div>
<div class="criteria-item"><span class="criteria-label">LP Burn avg</span><span class="criteria-value">{{printf "%.0f%%" .LPBurn.Mean}}</span></div>
{{- end}}
</div>

<h2>Exit Criteria</h2>
<div class="criteria-box">
{{- with .Analysis.Exit}}
<h3>Hold Time</h3>
<div class="criteria-item"><span class="criteria-label">Min</span><span class="criteria-value">{{printf "%.1f" .HoldMinutes.Min}} min</span></div>
<div class="criteria-item"><span class="criteria-label">Max</span><span class="criteria-value">{{printf "%.1f" .HoldMinutes.Max}} min</span></div>
<div class="criteria-item"><span class="criteria-label">Average</span><span class="criteria-value">{{printf "%.1f" .HoldMinutes.Mean}} min</span></div>
{{- with $.Analysis.Profile.Hold}}<div class="pattern">{{.}}</div>{{end}}
<h3>Exit Timing</h3>
<div class="criteria-item"><span class="criteria-label">MC Change avg</span><span class="criteria-value">{{spct .MCDelta.Mean}}</span></div>
<div class="criteria-item"><span class="criteria-label">1m at sell</span><span class="criteria-value">{{spct .Change1mAtExit.Mean}}</span></div>
<div class="criteria-item"><span class="criteria-label">5m at sell</span><span class="criteria-value">{{spct .Change5mAtExit.Mean}}</span></div>
{{- with $.Analysis.Profile.ExitMomentum}}<div class="pattern">{{.}}</div>{{end}}
{{- end}}
</div>

<h2>All Trades (click CA to copy)</h2>
<table>
<thead><tr><th>Symbol</th><th>CA</th><th>Buy Time</th><th>Sell Time</th><th>Hold</th><th>Buy MC</th><th>Sell MC</th><th>MC Δ</th><th>Age</th><th>Holders</th><th>{{if .Scaled}}Scaled {{end}}P/L</th><th>P/L %</th><th></th></tr></thead>
<tbody>
{{- range .Rows}}
<tr class="{{if .Profitable}}profit{{else}}loss{{end}}-row">
<td>{{.Symbol}}</td>
<td class="ca-cell" data-ca="{{.AssetID}}" onclick="copyCA(this.dataset.ca)">{{short .AssetID}}</td>
<td>{{.BuyTime}}</td>
<td>{{.SellTime}}</td>
<td>{{.Hold}}</td>
<td>{{usd .MCEntry}}</td>
<td>{{usd .MCExit}}</td>
<td class="{{if posf .MCDeltaPct}}profit{{else}}loss{{end}}">{{printf "%+.0f%%" .MCDeltaPct}}</td>
<td>{{minutes .AgeSeconds}}m</td>
<td>{{.Holders}}</td>
<td class="{{if .Profitable}}profit{{else}}loss{{end}}">{{signed .Scaled 4}}</td>
<td class="{{if .Profitable}}profit{{else}}loss{{end}}">{{fixed .PnLPct 1}}%</td>
<td>{{if .Profitable}}✅{{else}}❌{{end}}</td>
</tr>
{{- end}}
</tbody>
</table>
</div>
<div class="toast" id="toast">CA copied</div>
<script>
function copyCA(ca) {
  navigator.clipboard.writeText(ca).then(function () {
    var toast = document.getElementById('toast');
    toast.classList.add('show');
    setTimeout(function () { toast.classList.remove('show'); }, 2000);
  });
}
</script>
</body>
</html>
`))
