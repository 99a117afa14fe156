package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"wallet-tracker/config"
	"wallet-tracker/internal/api"
	"wallet-tracker/internal/bus"
	"wallet-tracker/internal/feed"
	"wallet-tracker/internal/ledger"
	"wallet-tracker/internal/logger"
	"wallet-tracker/internal/metrics"
	"wallet-tracker/internal/model"
	"wallet-tracker/internal/notification"
	"wallet-tracker/internal/solanatracker"
	redisstore "wallet-tracker/internal/store/redis"
	sqlitestore "wallet-tracker/internal/store/sqlite"
	"wallet-tracker/internal/tracker"
)

func main() {
	cfg := config.Load()
	logger.Init("tracker", logger.ParseLevel(cfg.LogLevel))
	log.Printf("[tracker] starting, wallet=%s base=%s interval=%s", cfg.Wallet, cfg.BaseAssetSymbol, cfg.CheckInterval)

	startedAt := time.Now()
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatalf("[tracker] data dir: %v", err)
	}

	// ---- Setup context for graceful shutdown ----
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// ---- Metrics & health ----
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := metrics.NewMetrics(reg)
	health := metrics.NewHealthStatus(3 * cfg.CheckInterval)
	metricsSrv := metrics.NewServer(cfg.MetricsAddr, reg, health)
	metricsSrv.Start()

	// ---- Upstream client ----
	client := solanatracker.New(solanatracker.Config{
		BaseURL:           cfg.APIBaseURL,
		APIKey:            cfg.APIKey,
		TradesLimit:       cfg.TradesLimit,
		RequestsPerSecond: cfg.APIRateLimit,
		Timeout:           cfg.HTTPTimeout,
	})
	client.OnRequest = func(endpoint string, status int, elapsed time.Duration) {
		prom.UpstreamDuration.WithLabelValues(endpoint, strconv.Itoa(status)).Observe(elapsed.Seconds())
	}

	// ---- Ledger engine ----
	var engineOpts []ledger.Option
	if cfg.EnrichTrades {
		engineOpts = append(engineOpts, ledger.WithEnricher(solanatracker.NewEnricher(client)))
	}
	engine := ledger.New(cfg.BaseAsset(), engineOpts...)
	engine.OnDuplicate = func(string) { prom.DuplicateSkips.Inc() }
	engine.OnUnclassified = func(model.SwapEvent) { prom.UnclassifiedSkip.Inc() }
	engine.OnEnrichError = func(assetID string, err error) {
		prom.EnrichFailures.Inc()
		slog.Warn("enrichment failed", "asset", assetID, "err", err)
	}

	// ---- SQLite journal (resume) ----
	var journal *sqlitestore.Journal
	sessionID := ""
	if cfg.SQLitePath != "" {
		j, err := sqlitestore.New(sqlitestore.Config{DBPath: cfg.SQLitePath})
		if err != nil {
			log.Printf("[tracker] WARNING: sqlite init failed: %v (continuing without journal)", err)
			health.EnableSQLite(false)
		} else {
			journal = j
			defer journal.Close()
			health.EnableSQLite(true)
			if cfg.Resume {
				restore(ctx, journal, engine)
			}
			if n, err := journal.CountSessions(ctx, cfg.Wallet); err == nil {
				log.Printf("[tracker] journal %s: %d previous sessions for this wallet", cfg.SQLitePath, n)
			}
			if id, err := journal.StartSession(ctx, cfg.Wallet); err != nil {
				log.Printf("[tracker] WARNING: start session: %v", err)
			} else {
				sessionID = id
			}
		}
	}

	// ---- Outbound bus ----
	fanout := bus.New(256, 256)
	fanout.OnDrop = func(subscriber string) {
		prom.BusDrops.WithLabelValues(subscriber).Inc()
	}

	// Feed hub for dashboard clients
	hub := feed.NewHub(0)
	hub.OnClientCount = func(n int) { prom.FeedClients.Set(float64(n)) }
	seedFeed(ctx, hub, journal, engine)
	go hub.Run(ctx, fanout.Subscribe("feed"))

	// Redis publisher behind a circuit breaker
	var redisWriter *redisstore.Writer
	if cfg.RedisAddr != "" {
		w, err := redisstore.New(redisstore.WriterConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Wallet:   cfg.Wallet,
		})
		if err != nil {
			log.Printf("[tracker] WARNING: redis init failed: %v (continuing without redis)", err)
			health.EnableRedis(false)
		} else {
			redisWriter = w
			health.EnableRedis(true)
			cb := redisstore.NewCircuitBreaker(5, 10*time.Second)
			cb.OnStateChange = func(from, to redisstore.State) {
				prom.RedisCircuitState.Set(float64(to))
				if to == redisstore.StateOpen {
					prom.RedisCircuitTrips.Inc()
				}
			}
			bw := redisstore.NewBufferedWriter(ctx, redisWriter, cb, 0)
			bw.OnBuffer = func() { prom.RedisBufferedWrites.Inc() }
			go bw.Run(ctx, fanout.Subscribe("redis"))
			log.Println("[tracker] redis publisher ready")
		}
	}

	// Alerts
	notifiers := notification.Multi{notification.NewLogNotifier()}
	if cfg.TelegramBotToken != "" && cfg.TelegramChatID != "" {
		notifiers = append(notifiers, notification.NewTelegramNotifier(cfg.TelegramBotToken, cfg.TelegramChatID))
	}
	if cfg.WebhookURL != "" {
		notifiers = append(notifiers, notification.NewWebhookNotifier(cfg.WebhookURL))
	}
	dispatcher := notification.NewDispatcher(notifiers, cfg.BaseAssetSymbol)
	dispatcher.OnError = func(err error) {
		prom.NotifyErrors.Inc()
		log.Printf("[tracker] alert delivery failed: %v", err)
	}
	go dispatcher.Run(ctx, fanout.Subscribe("notify"))

	go fanout.Run(ctx)

	// ---- Periodic liveness checks ----
	var sqlDB *sqlx.DB
	if journal != nil {
		sqlDB = journal.DB()
	}
	if redisWriter != nil {
		health.StartLivenessChecker(ctx, redisWriter.Client(), sqlDB, 10*time.Second)
	} else {
		health.StartLivenessChecker(ctx, nil, sqlDB, 10*time.Second)
	}

	// ---- Tracker ----
	exporter := tracker.NewFileExporter(cfg.DataDir, cfg.Wallet, cfg.BaseAsset(), startedAt)
	exporter.SessionID = sessionID

	opts := []tracker.Option{
		tracker.WithExporter(exporter),
		tracker.WithPublisher(fanout),
		tracker.WithMetrics(prom),
		tracker.WithHealth(health),
	}
	if journal != nil {
		opts = append(opts, tracker.WithJournal(journal))
	}
	tr := tracker.New(tracker.Config{Wallet: cfg.Wallet, Interval: cfg.CheckInterval}, engine, client, opts...)

	// ---- Status API + static reports ----
	apiSrv := &http.Server{
		Addr: cfg.HTTPAddr,
		Handler: api.NewRouter(api.Deps{
			Wallet:     cfg.Wallet,
			BaseAsset:  cfg.BaseAsset(),
			Ledger:     engine,
			Reset:      tr,
			Feed:       hub,
			Health:     health,
			DataDir:    cfg.DataDir,
			TOTPSecret: cfg.AdminTOTPSecret,
		}),
	}
	go func() {
		log.Printf("[tracker] dashboard at http://localhost%s", cfg.HTTPAddr)
		if err := apiSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("[tracker] api server error: %v", err)
		}
	}()

	if _, err := tr.Sync(ctx); err != nil {
		log.Printf("[tracker] WARNING: initial sync failed: %v", err)
	}

	done := make(chan struct{})
	go func() {
		tr.Run(ctx)
		close(done)
	}()

	// ---- Wait for shutdown signal ----
	<-sigCh
	log.Println("[tracker] shutdown signal received, cleaning up...")
	cancel()
	<-done

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if journal != nil && sessionID != "" {
		if err := journal.EndSession(shutdownCtx, sessionID); err != nil {
			log.Printf("[tracker] end session: %v", err)
		}
	}
	apiSrv.Shutdown(shutdownCtx)
	hub.Close()
	metricsSrv.Stop(shutdownCtx)
	if redisWriter != nil {
		redisWriter.Close()
	}

	log.Println("[tracker] shutdown complete.")
}

// restore loads the journal into the engine.
func restore(ctx context.Context, j *sqlitestore.Journal, e *ledger.Engine) {
	records, err := j.LoadRecords(ctx)
	if err != nil {
		log.Printf("[tracker] WARNING: load ledger: %v", err)
		return
	}
	seen, err := j.LoadSeen(ctx)
	if err != nil {
		log.Printf("[tracker] WARNING: load seen ids: %v", err)
		return
	}
	if err := e.Restore(records, seen); err != nil {
		log.Printf("[tracker] WARNING: restore: %v", err)
		return
	}
	log.Printf("[tracker] resumed %d records, %d seen tx ids", len(records), len(seen))
}

// seedFeed fills the replay buffer with the latest entries of a restored
// ledger, read from the journal when there is one.
func seedFeed(ctx context.Context, hub *feed.Hub, j *sqlitestore.Journal, e *ledger.Engine) {
	if e.Len() == 0 {
		return
	}
	if j == nil {
		hub.Seed(e.Records())
		return
	}
	recent, err := j.Recent(ctx, feed.DefaultReplaySize)
	if err != nil {
		log.Printf("[tracker] WARNING: load recent trades: %v", err)
		hub.Seed(e.Records())
		return
	}
	hub.Seed(recent)
}
