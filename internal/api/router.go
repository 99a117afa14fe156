// Package api provides the HTTP status API, the websocket feed route and
// the static report files.
package api

import (
	"encoding/json"
	"log"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/pquerna/otp/totp"

	"wallet-tracker/internal/model"
	"wallet-tracker/internal/pattern"
	"wallet-tracker/internal/report"
)

// TOTPHeader carries the one-time code for admin endpoints.
const TOTPHeader = "X-TOTP-Code"

// Ledger is the read side of the ledger engine.
type Ledger interface {
	Records() []model.TradeRecord
	OpenPositions() []model.Position
	Summary() model.Stats
}

// Resetter queues a position reset for the polling loop to apply.
type Resetter interface {
	RequestReset()
}

// Deps are the handlers' collaborators. Feed, Health and Reset may be nil.
type Deps struct {
	Wallet     string
	BaseAsset  model.Asset
	Ledger     Ledger
	Reset      Resetter
	Feed       http.Handler
	Health     http.Handler
	DataDir    string
	TOTPSecret string // empty disables /api/reset
	Now        func() time.Time
}

// NewRouter sets up HTTP routes for the API server.
func NewRouter(d Deps) *http.ServeMux {
	if d.Now == nil {
		d.Now = time.Now
	}
	mux := http.NewServeMux()

	mux.HandleFunc("/api/health", func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		if d.Health != nil {
			d.Health.ServeHTTP(w, r)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Most recent first; ?limit=N keeps the newest N.
	mux.HandleFunc("/api/ledger", func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		records := d.Ledger.Records()
		limit := len(records)
		if s := r.URL.Query().Get("limit"); s != "" {
			n, err := strconv.Atoi(s)
			if err != nil || n < 0 {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
				return
			}
			if n < limit {
				limit = n
			}
		}
		out := make([]model.TradeRecord, 0, limit)
		for i := len(records) - 1; i >= 0 && len(out) < limit; i-- {
			out = append(out, records[i])
		}
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("/api/positions", func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		writeJSON(w, http.StatusOK, d.Ledger.OpenPositions())
	})

	mux.HandleFunc("/api/summary", func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		writeJSON(w, http.StatusOK, map[string]any{
			"wallet":     d.Wallet,
			"base_asset": d.BaseAsset,
			"stats":      d.Ledger.Summary(),
		})
	})

	mux.HandleFunc("/api/analysis", func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		writeJSON(w, http.StatusOK, pattern.Analyze(d.Ledger.Records(), d.Now()))
	})

	mux.HandleFunc("/api/reset", func(w http.ResponseWriter, r *http.Request) {
		setCORS(w)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if d.TOTPSecret == "" || d.Reset == nil {
			http.NotFound(w, r)
			return
		}
		if r.Method != http.MethodPost {
			writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "POST required"})
			return
		}
		if !totp.Validate(r.Header.Get(TOTPHeader), d.TOTPSecret) {
			log.Printf("[api] reset rejected from %s: bad TOTP code", r.RemoteAddr)
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid TOTP code"})
			return
		}
		d.Reset.RequestReset()
		log.Printf("[api] position reset queued by %s", r.RemoteAddr)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
	})

	if d.Feed != nil {
		mux.Handle("/ws", d.Feed)
	}

	if d.DataDir != "" {
		files := http.FileServer(http.Dir(d.DataDir))
		mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/" {
				http.ServeFile(w, r, filepath.Join(d.DataDir, report.DashboardFile))
				return
			}
			files.ServeHTTP(w, r)
		})
	}

	return mux
}

func setCORS(w http.ResponseWriter) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+TOTPHeader)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("[api] encode response: %v", err)
	}
}
