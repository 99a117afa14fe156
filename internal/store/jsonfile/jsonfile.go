// Package jsonfile reads and writes the portable ledger export
// (trade_history.json) consumed by the offline analyzer.
package jsonfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"wallet-tracker/internal/model"
)

// FileName is the export's name inside the data directory.
const FileName = "trade_history.json"

// ErrNoLedger is returned by Read when the export does not exist yet.
var ErrNoLedger = errors.New("jsonfile: no ledger export")

// Export is the on-disk envelope.
type Export struct {
	Wallet     string              `json:"wallet"`
	SessionID  string              `json:"session_id,omitempty"`
	BaseAsset  model.Asset         `json:"base_asset"`
	ExportedAt time.Time           `json:"exported_at"`
	Records    []model.TradeRecord `json:"records"`
}

// Write replaces path atomically: the export is written to a temp file in
// the same directory and renamed over the target.
func Write(path string, exp Export) error {
	if exp.Records == nil {
		exp.Records = []model.TradeRecord{}
	}
	data, err := json.MarshalIndent(exp, "", "  ")
	if err != nil {
		return fmt.Errorf("jsonfile.Write: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("jsonfile.Write: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("jsonfile.Write: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("jsonfile.Write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("jsonfile.Write: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("jsonfile.Write: %w", err)
	}
	return nil
}

// Read loads an export. A bare JSON array of records, the legacy history
// format, is accepted as well and yields an envelope with only Records set.
func Read(path string) (Export, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return Export{}, ErrNoLedger
	}
	if err != nil {
		return Export{}, fmt.Errorf("jsonfile.Read: %w", err)
	}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Export{}, nil
	}
	if data[0] == '[' {
		var recs []model.TradeRecord
		if err := json.Unmarshal(data, &recs); err != nil {
			return Export{}, fmt.Errorf("jsonfile.Read: %w", err)
		}
		return Export{Records: recs}, nil
	}

	var exp Export
	if err := json.Unmarshal(data, &exp); err != nil {
		return Export{}, fmt.Errorf("jsonfile.Read: %w", err)
	}
	return exp, nil
}
