package postgres

import (
	"context"
	"fmt"
	"time"

	"gift-scanner/internal/storage"
)

// MuteStore implements storage.MuteStore using PostgreSQL.
type MuteStore struct {
	pool *Pool
}

// NewMuteStore creates a new MuteStore.
func NewMuteStore(pool *Pool) *MuteStore {
	return &MuteStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MuteStore = (*MuteStore)(nil)

// IsMuted reports whether (user, asset key) has a mute expiring after now.
func (s *MuteStore) IsMuted(ctx context.Context, userID int64, assetKey string, now time.Time) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM muted_assets
			WHERE user_id = $1 AND asset_key = $2 AND muted_until > $3
		)
	`

	var muted bool
	if err := s.pool.QueryRow(ctx, query, userID, assetKey, now).Scan(&muted); err != nil {
		return false, fmt.Errorf("check mute: %w", err)
	}
	return muted, nil
}

// Mute upserts a mute for (user, asset key) until the given time.
func (s *MuteStore) Mute(ctx context.Context, userID int64, assetKey string, until time.Time) error {
	if assetKey == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO muted_assets (user_id, asset_key, muted_until)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id, asset_key) DO UPDATE SET
			muted_until = EXCLUDED.muted_until
	`

	if _, err := s.pool.Exec(ctx, query, userID, assetKey, until); err != nil {
		return fmt.Errorf("upsert mute: %w", err)
	}
	return nil
}
