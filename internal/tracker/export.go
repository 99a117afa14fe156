package tracker

import (
	"errors"
	"path/filepath"
	"time"

	"wallet-tracker/internal/model"
	"wallet-tracker/internal/report"
	"wallet-tracker/internal/store/jsonfile"
)

// Snapshot is the ledger state handed to an Exporter.
type Snapshot struct {
	Records   []model.TradeRecord
	Positions []model.Position
	Stats     model.Stats
	At        time.Time
}

// Exporter writes a ledger snapshot somewhere outside the process.
type Exporter interface {
	Export(s Snapshot) error
}

// FileExporter writes the JSON ledger export and the HTML dashboard into
// one directory.
type FileExporter struct {
	Wallet    string
	SessionID string
	Base      model.Asset
	StartedAt time.Time

	jsonPath  string
	dashboard *report.Dashboard
}

// NewFileExporter returns an exporter for dir.
func NewFileExporter(dir, wallet string, base model.Asset, startedAt time.Time) *FileExporter {
	return &FileExporter{
		Wallet:    wallet,
		Base:      base,
		StartedAt: startedAt,
		jsonPath:  filepath.Join(dir, jsonfile.FileName),
		dashboard: report.NewDashboard(dir, 0),
	}
}

// JSONPath returns the export file.
func (f *FileExporter) JSONPath() string { return f.jsonPath }

// Export writes both files; a failure of one does not skip the other.
func (f *FileExporter) Export(s Snapshot) error {
	errJSON := jsonfile.Write(f.jsonPath, jsonfile.Export{
		Wallet:     f.Wallet,
		SessionID:  f.SessionID,
		BaseAsset:  f.Base,
		ExportedAt: s.At,
		Records:    s.Records,
	})
	errHTML := f.dashboard.Write(report.DashboardData{
		Wallet:      f.Wallet,
		BaseSymbol:  f.Base.Symbol,
		Stats:       s.Stats,
		Records:     s.Records,
		Positions:   s.Positions,
		StartedAt:   f.StartedAt,
		GeneratedAt: s.At,
	})
	return errors.Join(errJSON, errHTML)
}
