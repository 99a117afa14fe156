// Package report renders the live dashboard (results.html) and the offline
// pattern analysis (analysis_report.md, analysis_report.html).
package report

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// File names written under the data directory.
const (
	DashboardFile      = "results.html"
	AnalysisMarkdown   = "analysis_report.md"
	AnalysisHTML       = "analysis_report.html"
	txExplorerBase     = "https://solscan.io/tx/"
	defaultTradeRows   = 500
	shortAddressPrefix = 8
)

// funcs is shared by every template in the package.
var funcs = map[string]any{
	"fixed":   fixed,
	"signed":  signed,
	"usd":     usd,
	"pct":     func(v float64) string { return fmt.Sprintf("%.1f%%", v) },
	"spct":    func(v float64) string { return fmt.Sprintf("%+.1f%%", v) },
	"minutes": func(sec float64) string { return fmt.Sprintf("%.0f", math.Floor(sec/60)) },
	"short":   short,
	"trunc":   truncate,
	"clock":   clock,
	"hold":    hold,
	"txURL":   func(tx string) string { return txExplorerBase + tx },
	"lower":   strings.ToLower,
	"nonNeg":  func(d decimal.Decimal) bool { return !d.IsNegative() },
	"pos":     func(d decimal.Decimal) bool { return d.IsPositive() },
	"posf":    func(v float64) bool { return v > 0 },
}

func fixed(d decimal.Decimal, places int32) string {
	return d.StringFixed(places)
}

func signed(d decimal.Decimal, places int32) string {
	s := d.StringFixed(places)
	if !d.IsNegative() {
		return "+" + s
	}
	return s
}

// usd formats whole dollars with thousands separators; zero reads N/A.
func usd(v float64) string {
	if v == 0 {
		return "N/A"
	}
	return message.NewPrinter(language.English).Sprintf("$%d", int64(math.Round(v)))
}

func short(addr string) string {
	if len(addr) <= shortAddressPrefix {
		return addr
	}
	return addr[:shortAddressPrefix] + "..."
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func clock(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}
	return t.Format("01/02 15:04:05")
}

func hold(d time.Duration) string {
	return fmt.Sprintf("%.0fm", d.Minutes())
}

// writeAtomic renders into memory and replaces path via temp file + rename,
// so a browser refresh never sees a half-written page.
func writeAtomic(path string, render func(*bytes.Buffer) error) error {
	var buf bytes.Buffer
	if err := render(&buf); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
