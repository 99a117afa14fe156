package report

import (
	"bytes"
	"fmt"
	"html/template"
	"path/filepath"
	"time"

	"wallet-tracker/internal/model"
)

// DashboardData is one snapshot of the live tracker.
type DashboardData struct {
	Wallet      string
	BaseSymbol  string
	Stats       model.Stats
	Records     []model.TradeRecord // oldest first, as held by the ledger
	Positions   []model.Position
	StartedAt   time.Time
	GeneratedAt time.Time
}

// Dashboard writes results.html into a directory.
type Dashboard struct {
	path    string
	maxRows int
}

// NewDashboard returns a writer for dir/results.html. maxRows caps the
// trade table; 0 uses the default.
func NewDashboard(dir string, maxRows int) *Dashboard {
	if maxRows <= 0 {
		maxRows = defaultTradeRows
	}
	return &Dashboard{path: filepath.Join(dir, DashboardFile), maxRows: maxRows}
}

// Path returns the output file.
func (d *Dashboard) Path() string { return d.path }

// Write renders the snapshot, most recent trade first.
func (d *Dashboard) Write(data DashboardData) error {
	view := dashboardView{DashboardData: data}
	if view.GeneratedAt.IsZero() {
		view.GeneratedAt = time.Now()
	}
	n := len(data.Records)
	for i := n - 1; i >= 0 && n-1-i < d.maxRows; i-- {
		view.Rows = append(view.Rows, data.Records[i])
	}
	for _, p := range data.Positions {
		if p.IsOpen() {
			view.Open = append(view.Open, p)
		}
	}
	view.Runtime = runtime(data.StartedAt, view.GeneratedAt)

	err := writeAtomic(d.path, func(buf *bytes.Buffer) error {
		return dashboardTmpl.Execute(buf, view)
	})
	if err != nil {
		return fmt.Errorf("report.Dashboard: %w", err)
	}
	return nil
}

type dashboardView struct {
	DashboardData
	Rows    []model.TradeRecord
	Open    []model.Position
	Runtime string
}

func runtime(start, now time.Time) string {
	if start.IsZero() || now.Before(start) {
		return "0h 0m"
	}
	d := now.Sub(start)
	return fmt.Sprintf("%dh %dm", int(d.Hours()), int(d.Minutes())%60)
}

var dashboardTmpl = template.Must(template.New("dashboard").Funcs(funcs).Parse(`<!DOCTYPE html>
<html>
<head>
<title>Wallet Tracker - {{short .Wallet}}</title>
<meta charset="UTF-8">
<meta http-equiv="refresh" content="10">
<style>
body { font-family: 'Segoe UI', sans-serif; background: #0f0f23; color: #e0e0e0; padding: 20px; margin: 0; }
.container { max-width: 1400px; margin: 0 auto; }
h1 { color: #00d4ff; text-align: center; margin-bottom: 5px; }
h2 { color: #00d4ff; margin-top: 30px; margin-bottom: 15px; font-size: 16px; }
.wallet { text-align: center; color: #888; margin-bottom: 20px; font-size: 12px; }
.stats { display: grid; grid-template-columns: repeat(auto-fit, minmax(150px, 1fr)); gap: 15px; margin-bottom: 25px; }
.stat-card { background: #1a1a2e; padding: 15px; border-radius: 8px; border: 1px solid #2a2a3e; text-align: center; }
.stat-label { color: #888; font-size: 11px; text-transform: uppercase; }
.stat-value { font-size: 20px; font-weight: bold; margin-top: 5px; }
table { width: 100%; border-collapse: collapse; background: #1a1a2e; margin-bottom: 20px; border-radius: 8px; overflow: hidden; }
th { background: #2a2a3e; padding: 10px; text-align: left; font-weight: 600; color: #00d4ff; font-size: 12px; }
td { padding: 8px 10px; border-bottom: 1px solid #2a2a3e; font-size: 12px; }
tr:hover { background: #252540; }
.buy { color: #00ff88; font-weight: bold; }
.sell { color: #ff4444; font-weight: bold; }
.buy-row { border-left: 3px solid #00ff88; }
.sell-row { border-left: 3px solid #ff4444; }
.green { color: #00ff88; }
.red { color: #ff4444; }
a { color: #00d4ff; text-decoration: none; }
.live { display: inline-block; width: 8px; height: 8px; background: #00ff88; border-radius: 50%; animation: pulse 2s infinite; margin-right: 8px; }
@keyframes pulse { 0%, 100% { opacity: 1; } 50% { opacity: 0.3; } }
.timestamp { color: #666; font-size: 10px; text-align: center; margin-top: 20px; }
</style>
</head>
<body>
<div class="container">
<h1><span class="live"></span>Wallet Tracker</h1>
<div class="wallet">{{.Wallet}}</div>

<div class="stats">
<div class="stat-card"><div class="stat-label">Total Trades</div><div class="stat-value">{{.Stats.TotalTrades}}</div></div>
<div class="stat-card"><div class="stat-label">Buys / Sells</div><div class="stat-value">{{.Stats.Buys}} / {{.Stats.Sells}}</div></div>
<div class="stat-card"><div class="stat-label">Win Rate</div><div class="stat-value">{{pct .Stats.WinRate}}</div></div>
<div class="stat-card"><div class="stat-label">Total P/L</div><div class="stat-value {{if nonNeg .Stats.TotalPnLBase}}green{{else}}red{{end}}">{{signed .Stats.TotalPnLBase 4}} {{.BaseSymbol}}</div></div>
<div class="stat-card"><div class="stat-label">{{.BaseSymbol}} Spent</div><div class="stat-value">{{fixed .Stats.BaseSpent 2}}</div></div>
<div class="stat-card"><div class="stat-label">{{.BaseSymbol}} Received</div><div class="stat-value">{{fixed .Stats.BaseReceived 2}}</div></div>
<div class="stat-card"><div class="stat-label">Open Positions</div><div class="stat-value">{{.Stats.OpenPositions}}</div></div>
<div class="stat-card"><div class="stat-label">Runtime</div><div class="stat-value">{{.Runtime}}</div></div>
</div>

<h2>Open Positions</h2>
<table>
<tr><th>Symbol</th><th>Name</th><th>Tokens</th><th>Cost Basis</th></tr>
{{- range .Open}}
<tr><td>{{.Symbol}}</td><td>{{trunc .Name 20}}</td><td>{{fixed .TotalQuantity 2}}</td><td>{{fixed .TotalCostBase 4}} {{$.BaseSymbol}}</td></tr>
{{- else}}
<tr><td colspan="4">No open positions</td></tr>
{{- end}}
</table>

<h2>Trade History</h2>
<table>
<tr><th>Time</th><th>Action</th><th>Token</th><th>Amount</th><th>{{.BaseSymbol}}</th><th>Value</th><th>P/L ({{.BaseSymbol}})</th><th>P/L %</th><th>TX</th></tr>
{{- range .Rows}}
<tr class="{{lower (print .Action)}}-row">
<td>{{clock .Timestamp}}</td>
<td class="{{lower (print .Action)}}">{{.Action}}</td>
<td title="{{.AssetID}}">{{.Symbol}}</td>
<td>{{fixed .AssetAmount 2}}</td>
{{- if eq (print .Action) "BUY"}}
<td>-{{fixed .BaseAmount 4}}</td>
<td>${{fixed .ValueUSD 2}}</td>
<td>-</td><td>-</td>
{{- else}}
<td>+{{fixed .BaseAmount 4}}</td>
<td>${{fixed .ValueUSD 2}}</td>
<td class="{{if nonNeg .PnLBase}}green{{else}}red{{end}}">{{signed .PnLBase 4}}</td>
<td class="{{if nonNeg .PnLBase}}green{{else}}red{{end}}">{{signed .PnLPct 1}}%</td>
{{- end}}
<td><a href="{{txURL .TxID}}" target="_blank">&#128279;</a></td>
</tr>
{{- else}}
<tr><td colspan="9">Waiting for trades...</td></tr>
{{- end}}
</table>

<div class="timestamp">Last updated: {{.GeneratedAt.Format "2006-01-02 15:04:05"}}</div>
</div>
</body>
</html>
`))
