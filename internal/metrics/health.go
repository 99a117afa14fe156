package metrics

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	goredis "github.com/go-redis/redis/v8"
	"github.com/jmoiron/sqlx"
)

// HealthStatus is the tracker's liveness view, served on /healthz.
type HealthStatus struct {
	mu sync.RWMutex

	LastCycleAt    time.Time
	LastCycleOK    bool
	UpstreamOK     bool
	RedisEnabled   bool
	RedisConnected bool
	SQLiteEnabled  bool
	SQLiteOK       bool

	RedisLatencyMs  float64
	SQLiteLatencyMs float64
	LastCheckAt     time.Time
	StartedAt       time.Time

	// staleAfter marks the tracker degraded when no cycle finished within it.
	staleAfter time.Duration
}

// NewHealthStatus returns a status that reports degraded when no cycle
// finished within staleAfter (0 disables that check).
func NewHealthStatus(staleAfter time.Duration) *HealthStatus {
	return &HealthStatus{
		StartedAt:  time.Now(),
		staleAfter: staleAfter,
	}
}

// RecordCycle stores the outcome of a polling cycle.
func (h *HealthStatus) RecordCycle(at time.Time, upstreamOK, ok bool) {
	h.mu.Lock()
	h.LastCycleAt = at
	h.UpstreamOK = upstreamOK
	h.LastCycleOK = ok
	h.mu.Unlock()
}

// EnableRedis marks Redis as a configured dependency.
func (h *HealthStatus) EnableRedis(connected bool) {
	h.mu.Lock()
	h.RedisEnabled = true
	h.RedisConnected = connected
	h.mu.Unlock()
}

// EnableSQLite marks SQLite as a configured dependency.
func (h *HealthStatus) EnableSQLite(ok bool) {
	h.mu.Lock()
	h.SQLiteEnabled = true
	h.SQLiteOK = ok
	h.mu.Unlock()
}

func (h *HealthStatus) SetSQLiteOK(v bool) {
	h.mu.Lock()
	h.SQLiteOK = v
	h.mu.Unlock()
}

// CheckRedis pings Redis and records latency and connectivity.
func (h *HealthStatus) CheckRedis(ctx context.Context, rdb *goredis.Client) {
	start := time.Now()
	err := rdb.Ping(ctx).Err()
	latency := time.Since(start)

	h.mu.Lock()
	h.RedisConnected = err == nil
	h.RedisLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// CheckSQLite pings the journal database and records latency and health.
func (h *HealthStatus) CheckSQLite(ctx context.Context, db *sqlx.DB) {
	start := time.Now()
	err := db.PingContext(ctx)
	latency := time.Since(start)

	h.mu.Lock()
	h.SQLiteOK = err == nil
	h.SQLiteLatencyMs = float64(latency.Microseconds()) / 1000.0
	h.LastCheckAt = time.Now()
	h.mu.Unlock()
}

// StartLivenessChecker probes the configured dependencies every interval.
// Either handle may be nil.
func (h *HealthStatus) StartLivenessChecker(ctx context.Context, rdb *goredis.Client, db *sqlx.DB, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				probeCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
				if rdb != nil {
					h.CheckRedis(probeCtx, rdb)
				}
				if db != nil {
					h.CheckSQLite(probeCtx, db)
				}
				cancel()
			}
		}
	}()
}

// Report is the JSON body of /healthz.
type Report struct {
	Status          string  `json:"status"` // healthy, degraded, unhealthy
	Uptime          string  `json:"uptime"`
	LastCycleAt     string  `json:"last_cycle_at"`
	CycleAge        string  `json:"cycle_age"`
	LastCycleOK     bool    `json:"last_cycle_ok"`
	UpstreamOK      bool    `json:"upstream_ok"`
	RedisEnabled    bool    `json:"redis_enabled"`
	RedisConnected  bool    `json:"redis_connected"`
	RedisLatencyMs  float64 `json:"redis_latency_ms"`
	SQLiteEnabled   bool    `json:"sqlite_enabled"`
	SQLiteOK        bool    `json:"sqlite_ok"`
	SQLiteLatencyMs float64 `json:"sqlite_latency_ms"`
	LastCheckAt     string  `json:"last_check_at,omitempty"`
}

// Snapshot evaluates the current status.
func (h *HealthStatus) Snapshot(now time.Time) Report {
	h.mu.RLock()
	defer h.mu.RUnlock()

	status := "healthy"
	stale := h.LastCycleAt.IsZero() ||
		(h.staleAfter > 0 && now.Sub(h.LastCycleAt) > h.staleAfter)
	if stale || !h.LastCycleOK || !h.UpstreamOK ||
		(h.RedisEnabled && !h.RedisConnected) ||
		(h.SQLiteEnabled && !h.SQLiteOK) {
		status = "degraded"
	}
	if !h.LastCycleAt.IsZero() && !h.UpstreamOK && h.SQLiteEnabled && !h.SQLiteOK {
		status = "unhealthy"
	}

	r := Report{
		Status:          status,
		Uptime:          now.Sub(h.StartedAt).Round(time.Second).String(),
		LastCycleOK:     h.LastCycleOK,
		UpstreamOK:      h.UpstreamOK,
		RedisEnabled:    h.RedisEnabled,
		RedisConnected:  h.RedisConnected,
		RedisLatencyMs:  h.RedisLatencyMs,
		SQLiteEnabled:   h.SQLiteEnabled,
		SQLiteOK:        h.SQLiteOK,
		SQLiteLatencyMs: h.SQLiteLatencyMs,
	}
	if !h.LastCycleAt.IsZero() {
		r.LastCycleAt = h.LastCycleAt.Format(time.RFC3339)
		r.CycleAge = now.Sub(h.LastCycleAt).Round(time.Millisecond).String()
	}
	if !h.LastCheckAt.IsZero() {
		r.LastCheckAt = h.LastCheckAt.Format(time.RFC3339)
	}
	return r
}

// ServeHTTP handles /healthz: 200 when healthy, 503 otherwise.
func (h *HealthStatus) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	rep := h.Snapshot(time.Now())
	w.Header().Set("Content-Type", "application/json")
	if rep.Status != "healthy" {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(rep)
}
