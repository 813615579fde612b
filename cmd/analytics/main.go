// Package main computes and prints the analytics snapshot for one asset.
// Useful for inspecting what the alert pipeline would see for a given
// model and backdrop combination.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"gift-scanner/internal/analytics"
	"gift-scanner/internal/config"
	"gift-scanner/internal/storage/migrations"
	pgstore "gift-scanner/internal/storage/postgres"
	redisstore "gift-scanner/internal/storage/redis"
)

func main() {
	configPath := flag.String("config", "", "Path to YAML config file (empty for defaults and env)")
	assetKey := flag.String("asset", "", "Asset key, e.g. \"Astral Shard:Black\" or \"Astral Shard:no_bg\"")
	refresh := flag.Bool("refresh", false, "Recompute even if a cached snapshot exists")
	flag.Parse()

	logger := log.New(os.Stderr, "[analytics] ", log.LstdFlags)

	if *assetKey == "" {
		logger.Fatal("No asset key. Use --asset \"Model:Backdrop\"")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Fatalf("Load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		logger.Fatalf("Connect to PostgreSQL: %v", err)
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("Migrations: %v", err)
	}

	cache, err := redisstore.Open(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		logger.Fatalf("Connect to Redis: %v", err)
	}
	defer cache.Close()

	engine := analytics.New(analytics.Options{
		Events:    pgstore.NewEventStore(pool),
		Listings:  pgstore.NewListingStore(pool),
		Snapshots: pgstore.NewAnalyticsStore(pool),
		Cache:     cache,
		Config: analytics.Config{
			CacheTTL:           cfg.Analytics.CacheTTL,
			TrendRiseThreshold: cfg.Analytics.TrendRiseThreshold,
			TrendFallThreshold: cfg.Analytics.TrendFallThreshold,
			Hotness:            analytics.DefaultConfig().Hotness,
		},
	})

	a, err := engine.Calculate(ctx, *assetKey, *refresh)
	if err != nil {
		logger.Fatalf("Calculate: %v", err)
	}

	hotness, err := engine.Hotness(ctx, *assetKey, a)
	if err != nil {
		logger.Fatalf("Hotness: %v", err)
	}

	out := struct {
		Snapshot any      `json:"snapshot"`
		ARP      *float64 `json:"adaptive_reference_price"`
		Hotness  float64  `json:"hotness"`
	}{
		Snapshot: a,
		ARP:      engine.ARP(a),
		Hotness:  hotness,
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.Fatalf("Marshal: %v", err)
	}
	fmt.Println(string(data))
}
