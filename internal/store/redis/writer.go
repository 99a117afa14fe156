package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	goredis "github.com/go-redis/redis/v8"

	"wallet-tracker/internal/model"
)

const (
	defaultStreamMaxLen = 10000
	defaultStatsTTL     = 24 * time.Hour
)

// WriterConfig configures the Redis writer.
type WriterConfig struct {
	Addr     string // e.g. "localhost:6379"
	Password string
	DB       int

	Wallet       string // key namespace
	StreamMaxLen int64
	StatsTTL     time.Duration
}

// Writer publishes trade records and ledger stats for one wallet:
//
//	XADD    wallet:{w}:trades       record JSON, approx-trimmed
//	SET     wallet:{w}:stats        stats JSON with TTL
//	PUBLISH pub:wallet:{w}:trades   {record, stats}
type Writer struct {
	client *goredis.Client
	keys   keys
	maxLen int64
	ttl    time.Duration
}

var _ model.TradePublisher = (*Writer)(nil)

type keys struct {
	stream  string
	stats   string
	channel string
}

func walletKeys(wallet string) keys {
	return keys{
		stream:  "wallet:" + wallet + ":trades",
		stats:   "wallet:" + wallet + ":stats",
		channel: "pub:wallet:" + wallet + ":trades",
	}
}

// Client returns the underlying Redis client for health checks.
func (w *Writer) Client() *goredis.Client { return w.client }

// New creates a Writer and pings the server.
func New(cfg WriterConfig) (*Writer, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	log.Printf("[redis] connected to %s", cfg.Addr)
	return newWriter(client, cfg), nil
}

func newWriter(client *goredis.Client, cfg WriterConfig) *Writer {
	if cfg.StreamMaxLen <= 0 {
		cfg.StreamMaxLen = defaultStreamMaxLen
	}
	if cfg.StatsTTL <= 0 {
		cfg.StatsTTL = defaultStatsTTL
	}
	return &Writer{
		client: client,
		keys:   walletKeys(cfg.Wallet),
		maxLen: cfg.StreamMaxLen,
		ttl:    cfg.StatsTTL,
	}
}

type payloads struct {
	record string
	stats  string
	event  string
}

func encode(rec model.TradeRecord, stats model.Stats) (payloads, error) {
	r, err := json.Marshal(rec)
	if err != nil {
		return payloads{}, fmt.Errorf("marshal record: %w", err)
	}
	s, err := json.Marshal(stats)
	if err != nil {
		return payloads{}, fmt.Errorf("marshal stats: %w", err)
	}
	e, err := json.Marshal(model.TradeEvent{Record: rec, Stats: stats})
	if err != nil {
		return payloads{}, fmt.Errorf("marshal event: %w", err)
	}
	return payloads{record: string(r), stats: string(s), event: string(e)}, nil
}

// PublishTrade writes one record and the current stats in a single pipeline.
func (w *Writer) PublishTrade(ctx context.Context, rec model.TradeRecord, stats model.Stats) error {
	p, err := encode(rec, stats)
	if err != nil {
		return err
	}

	pipe := w.client.Pipeline()
	pipe.XAdd(ctx, &goredis.XAddArgs{
		Stream: w.keys.stream,
		MaxLen: w.maxLen,
		Approx: true,
		Values: map[string]interface{}{
			"tx_id":  rec.TxID,
			"action": string(rec.Action),
			"data":   p.record,
		},
	})
	pipe.Set(ctx, w.keys.stats, p.stats, w.ttl)
	pipe.Publish(ctx, w.keys.channel, p.event)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline %s: %w", rec.TxID, err)
	}
	return nil
}

// Ping checks connectivity.
func (w *Writer) Ping(ctx context.Context) error {
	return w.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (w *Writer) Close() error {
	return w.client.Close()
}
