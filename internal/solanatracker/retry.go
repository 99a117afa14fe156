package solanatracker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"
)

// RetryConfig controls exponential backoff with jitter.
type RetryConfig struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
	Multiplier  float64
	JitterRange float64 // 0.0 to 1.0
}

// DefaultRetryConfig suits a short polling interval: a few quick attempts
// so one cycle never stalls the next for long.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		BaseDelay:   250 * time.Millisecond,
		MaxDelay:    2 * time.Second,
		Multiplier:  2.0,
		JitterRange: 0.1,
	}
}

// Retryer runs a function until it succeeds, returns a permanent error,
// runs out of attempts or the context ends.
type Retryer struct {
	cfg RetryConfig

	mu  sync.Mutex
	rng *rand.Rand
}

// NewRetryer fills unset config fields from DefaultRetryConfig.
func NewRetryer(cfg RetryConfig) *Retryer {
	def := DefaultRetryConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.BaseDelay <= 0 {
		cfg.BaseDelay = def.BaseDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = def.MaxDelay
	}
	if cfg.Multiplier <= 1.0 {
		cfg.Multiplier = def.Multiplier
	}
	if cfg.JitterRange < 0 || cfg.JitterRange > 1.0 {
		cfg.JitterRange = def.JitterRange
	}
	return &Retryer{
		cfg: cfg,
		rng: rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

type permanentError struct{ err error }

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// permanent marks err as not worth retrying.
func permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Execute runs fn with retries. Permanent errors are returned unwrapped.
func (r *Retryer) Execute(ctx context.Context, name string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn()
		if err == nil {
			if attempt > 1 {
				log.Printf("[solanatracker] %s succeeded on attempt %d", name, attempt)
			}
			return nil
		}

		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		lastErr = err

		if attempt == r.cfg.MaxAttempts {
			break
		}
		delay := r.delay(attempt)
		log.Printf("[solanatracker] %s attempt %d failed: %v; retrying in %v", name, attempt, err, delay)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}
	return fmt.Errorf("%s: %d attempts: %w", name, r.cfg.MaxAttempts, lastErr)
}

func (r *Retryer) delay(attempt int) time.Duration {
	d := float64(r.cfg.BaseDelay) * math.Pow(r.cfg.Multiplier, float64(attempt-1))
	if d > float64(r.cfg.MaxDelay) {
		d = float64(r.cfg.MaxDelay)
	}
	if r.cfg.JitterRange > 0 {
		r.mu.Lock()
		j := (r.rng.Float64()*2 - 1) * r.cfg.JitterRange * d
		r.mu.Unlock()
		d += j
	}
	if d < 0 {
		d = 0
	}
	return time.Duration(d)
}
