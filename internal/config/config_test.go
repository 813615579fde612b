package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadAndValidate(t *testing.T) {
	content := `
postgres:
  dsn: "postgres://scanner:secret@db:5432/scanner?sslmode=disable"

redis:
  addr: "cache:6379"
  db: 2

clickhouse:
  enabled: true
  dsn: "clickhouse://archive:9000/scanner"

ingest:
  url: "wss://feed.example.com/events"
  reconnect_min: 2s
  reconnect_max: 30s

analytics:
  cache_ttl: 90s
  trend_rise_threshold: 0.7

alerts:
  cooldown_seconds: 60
  max_alerts_per_hour: 20
`
	tmpfile, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Remove(tmpfile.Name()) }()

	if _, err := tmpfile.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmpfile.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmpfile.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Postgres.DSN != "postgres://scanner:secret@db:5432/scanner?sslmode=disable" {
		t.Errorf("Unexpected postgres dsn: %s", cfg.Postgres.DSN)
	}
	if cfg.Redis.Addr != "cache:6379" || cfg.Redis.DB != 2 {
		t.Errorf("Unexpected redis config: %+v", cfg.Redis)
	}
	if !cfg.Clickhouse.Enabled {
		t.Error("Expected clickhouse enabled")
	}
	if cfg.Ingest.URL != "wss://feed.example.com/events" {
		t.Errorf("Unexpected ingest url: %s", cfg.Ingest.URL)
	}
	if cfg.Ingest.ReconnectMin != 2*time.Second {
		t.Errorf("Unexpected reconnect_min: %v", cfg.Ingest.ReconnectMin)
	}
	if cfg.Analytics.CacheTTL != 90*time.Second {
		t.Errorf("Unexpected cache_ttl: %v", cfg.Analytics.CacheTTL)
	}
	if cfg.Analytics.TrendRiseThreshold != 0.7 {
		t.Errorf("Unexpected trend_rise_threshold: %v", cfg.Analytics.TrendRiseThreshold)
	}
	// Unset values fall back to defaults.
	if cfg.Analytics.TrendFallThreshold != -0.5 {
		t.Errorf("Unexpected trend_fall_threshold: %v", cfg.Analytics.TrendFallThreshold)
	}
	if cfg.Alerts.CooldownSeconds != 60 || cfg.Alerts.MaxAlertsPerHour != 20 {
		t.Errorf("Unexpected alerts config: %+v", cfg.Alerts)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Redis.Addr != "localhost:6379" {
		t.Errorf("Unexpected default redis addr: %s", cfg.Redis.Addr)
	}
	if cfg.Analytics.CacheTTL != 60*time.Second {
		t.Errorf("Unexpected default cache_ttl: %v", cfg.Analytics.CacheTTL)
	}
	if cfg.Alerts.CooldownSeconds != 120 || cfg.Alerts.MaxAlertsPerHour != 50 {
		t.Errorf("Unexpected default alerts config: %+v", cfg.Alerts)
	}
	if cfg.Clickhouse.Enabled {
		t.Error("Clickhouse must default to disabled")
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing postgres dsn", func(c *Config) { c.Postgres.DSN = "" }},
		{"missing redis addr", func(c *Config) { c.Redis.Addr = "" }},
		{"clickhouse enabled without dsn", func(c *Config) { c.Clickhouse.Enabled = true; c.Clickhouse.DSN = "" }},
		{"reconnect window inverted", func(c *Config) { c.Ingest.ReconnectMax = c.Ingest.ReconnectMin / 2 }},
		{"zero cache ttl", func(c *Config) { c.Analytics.CacheTTL = 0 }},
		{"positive fall threshold", func(c *Config) { c.Analytics.TrendFallThreshold = 0.5 }},
		{"zero cooldown", func(c *Config) { c.Alerts.CooldownSeconds = 0 }},
		{"zero rate limit", func(c *Config) { c.Alerts.MaxAlertsPerHour = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}
