// Package main runs the live scanner daemon: it consumes the marketplace
// event feed, keeps analytics fresh and delivers alerts to active users.
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gift-scanner/internal/alert"
	"gift-scanner/internal/analytics"
	"gift-scanner/internal/config"
	"gift-scanner/internal/domain"
	"gift-scanner/internal/ingest"
	"gift-scanner/internal/observability"
	"gift-scanner/internal/storage"
	chstore "gift-scanner/internal/storage/clickhouse"
	"gift-scanner/internal/storage/memory"
	"gift-scanner/internal/storage/migrations"
	pgstore "gift-scanner/internal/storage/postgres"
	redisstore "gift-scanner/internal/storage/redis"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (empty for defaults and env)")
	feedURL := flag.String("feed-url", "", "Marketplace WebSocket feed URL (overrides config)")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage instead of PostgreSQL and Redis")
	metricsAddr := flag.String("metrics-addr", ":9090", "Prometheus metrics HTTP address (empty to disable)")
	flag.Parse()

	logger := log.New(os.Stdout, "[scanner] ", log.LstdFlags)

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", observability.Handler())
			mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
				w.Write([]byte("ok"))
			})
			logger.Printf("Starting metrics server on %s", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil && err != http.ErrServerClosed {
				logger.Printf("Metrics server error: %v", err)
			}
		}()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if *feedURL != "" {
		cfg.Ingest.URL = *feedURL
	}
	if cfg.Ingest.URL == "" {
		logger.Fatal("No feed URL. Set ingest.url or --feed-url")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()

		select {
		case <-sigCh:
			os.Exit(1)
		case <-time.After(30 * time.Second):
			logger.Println("Graceful shutdown timed out, forcing exit")
			os.Exit(1)
		case <-done:
		}
	}()

	deps, cleanup, err := buildStores(ctx, cfg, *useMemory, logger)
	if err != nil {
		logger.Fatalf("Storage setup: %v", err)
	}
	defer cleanup()

	analyticsEngine := analytics.New(analytics.Options{
		Events:    deps.events,
		Listings:  deps.listings,
		Snapshots: deps.snapshots,
		History:   deps.history,
		Cache:     deps.cache,
		Config: analytics.Config{
			CacheTTL:           cfg.Analytics.CacheTTL,
			TrendRiseThreshold: cfg.Analytics.TrendRiseThreshold,
			TrendFallThreshold: cfg.Analytics.TrendFallThreshold,
			Hotness:            analytics.DefaultConfig().Hotness,
		},
	})

	alertEngine := alert.New(alert.Options{
		Analytics: analyticsEngine,
		Events:    deps.events,
		Mutes:     deps.mutes,
		Cache:     deps.cache,
		Config: alert.Config{
			CooldownSeconds:  cfg.Alerts.CooldownSeconds,
			MaxAlertsPerHour: cfg.Alerts.MaxAlertsPerHour,
		},
	})

	source := ingest.NewWSSource(ingest.WSConfig{
		URL:              cfg.Ingest.URL,
		HandshakeTimeout: cfg.Ingest.HandshakeTimeout,
		ReconnectMin:     cfg.Ingest.ReconnectMin,
		ReconnectMax:     cfg.Ingest.ReconnectMax,
	})

	runner := ingest.NewRunner(ingest.RunnerOptions{
		Source:    source,
		Events:    deps.events,
		Listings:  deps.listings,
		Settings:  deps.settings,
		Analytics: analyticsEngine,
		Alerts:    alertEngine,
		Notifier:  &logNotifier{logger: logger},
		Logger:    logger,
	})

	err = runner.Run(ctx)
	close(done)
	if err != nil && err != context.Canceled {
		logger.Fatalf("Runner: %v", err)
	}
	logger.Println("Shutdown complete")
}

// appStores bundles every storage dependency of the daemon.
type appStores struct {
	events    storage.EventStore
	listings  storage.ListingStore
	snapshots storage.AnalyticsStore
	history   storage.AnalyticsHistoryStore
	mutes     storage.MuteStore
	settings  storage.SettingsStore
	cache     storage.Cache
}

// buildStores wires either the in-memory stack or Postgres, Redis and the
// optional ClickHouse archive. The cleanup function closes every connection.
func buildStores(ctx context.Context, cfg *config.Config, useMemory bool, logger *log.Logger) (*appStores, func(), error) {
	if useMemory {
		logger.Println("Using in-memory storage")
		return &appStores{
			events:    memory.NewEventStore(),
			listings:  memory.NewListingStore(),
			snapshots: memory.NewAnalyticsStore(),
			mutes:     memory.NewMuteStore(),
			settings:  memory.NewSettingsStore(),
			cache:     memory.NewCache(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return nil, nil, err
	}
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Println("Connected to PostgreSQL")

	cache, err := redisstore.Open(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		pool.Close()
		return nil, nil, err
	}
	logger.Println("Connected to Redis")

	stores := &appStores{
		events:    pgstore.NewEventStore(pool),
		listings:  pgstore.NewListingStore(pool),
		snapshots: pgstore.NewAnalyticsStore(pool),
		mutes:     pgstore.NewMuteStore(pool),
		settings:  pgstore.NewSettingsStore(pool),
		cache:     cache,
	}

	cleanup := func() {
		cache.Close()
		pool.Close()
	}

	if cfg.Clickhouse.Enabled {
		conn, err := migrations.RunClickhouseMigrations(ctx, cfg.Clickhouse.DSN)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		logger.Println("Connected to ClickHouse")
		stores.history = chstore.NewHistoryStore(conn)
		cleanup = func() {
			conn.Close()
			cache.Close()
			pool.Close()
		}
	}

	return stores, cleanup, nil
}

// logNotifier prints alerts to the daemon log. Stands in for a chat or
// push delivery integration.
type logNotifier struct {
	logger *log.Logger
}

func (n *logNotifier) Notify(_ context.Context, userID int64, a *domain.Alert) error {
	n.logger.Printf("ALERT user=%d %s price=%.2f profit=%.1f%% hotness=%.1f conf=%s %s",
		userID, a.AssetKey, a.Price, a.ProfitPct, a.Hotness, a.Confidence, a.ItemURL())
	return nil
}
