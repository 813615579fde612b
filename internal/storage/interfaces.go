package storage

import (
	"context"
	"time"

	"gift-scanner/internal/domain"
)

// EventStore provides access to the append-only market_events storage.
type EventStore interface {
	// Insert appends a new event. Events are never updated or deleted.
	Insert(ctx context.Context, e *domain.MarketEvent) error

	// SalesSince retrieves sale records for (model, backdrop) with
	// event_time >= since, ordered by event_time DESC.
	SalesSince(ctx context.Context, model string, backdrop *string, since time.Time) ([]domain.SaleRecord, error)

	// CountSince counts events of a kind for (model, backdrop) with
	// event_time >= since.
	CountSince(ctx context.Context, kind domain.EventKind, model string, backdrop *string, since time.Time) (int, error)
}

// ListingStore provides access to active_listings storage.
// At most one row per item id.
type ListingStore interface {
	// Upsert inserts or replaces the listing for an item.
	Upsert(ctx context.Context, l *domain.ActiveListing) error

	// Delete removes the listing for an item. Missing rows are not an error.
	Delete(ctx context.Context, itemID string) error

	// PricesByAsset retrieves prices of active listings for
	// (model, backdrop), sorted ascending.
	PricesByAsset(ctx context.Context, model string, backdrop *string) ([]float64, error)
}

// AnalyticsStore provides access to asset_analytics storage.
// Snapshots are upserted by asset key, never deleted.
type AnalyticsStore interface {
	// Upsert writes the latest snapshot for an asset key.
	Upsert(ctx context.Context, a *domain.AssetAnalytics) error

	// GetByKey retrieves the latest snapshot. Returns ErrNotFound if absent.
	GetByKey(ctx context.Context, assetKey string) (*domain.AssetAnalytics, error)
}

// AnalyticsHistoryStore archives every computed snapshot append-only,
// for offline research. Failures here must not fail an evaluation.
type AnalyticsHistoryStore interface {
	Append(ctx context.Context, a *domain.AssetAnalytics) error
}

// MuteStore provides access to muted_assets storage.
type MuteStore interface {
	// IsMuted reports whether (user, asset key) has a mute expiring after now.
	IsMuted(ctx context.Context, userID int64, assetKey string, now time.Time) (bool, error)

	// Mute upserts a mute for (user, asset key) until the given time.
	Mute(ctx context.Context, userID int64, assetKey string, until time.Time) error
}

// SettingsStore provides read access to user_settings storage.
// Settings are owned and mutated externally.
type SettingsStore interface {
	// ListActive retrieves settings of all users with the active flag set.
	ListActive(ctx context.Context) ([]*domain.UserSettings, error)

	// Upsert writes one user's settings.
	Upsert(ctx context.Context, s *domain.UserSettings) error
}

// Cache is a TTL key-value store for analytics memoization, cooldown
// markers and rate-limit counters.
type Cache interface {
	// GetJSON reads key into dest. Returns (false, nil) on a miss.
	GetJSON(ctx context.Context, key string, dest any) (bool, error)

	// SetJSON writes value under key with a TTL.
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error

	// Delete removes a key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// Exists reports whether a key is present and unexpired.
	Exists(ctx context.Context, key string) (bool, error)

	// SetNX writes value only when key is absent, with a TTL.
	// Returns true when the write happened.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Incr atomically increments a counter key, creating it at 1.
	Incr(ctx context.Context, key string) (int64, error)

	// Counter reads a counter key, returning 0 when absent or expired.
	Counter(ctx context.Context, key string) (int64, error)

	// Expire sets the TTL on an existing key.
	Expire(ctx context.Context, key string, ttl time.Duration) error
}
