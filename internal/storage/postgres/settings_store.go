package postgres

import (
	"context"
	"fmt"

	"gift-scanner/internal/domain"
	"gift-scanner/internal/storage"
)

// SettingsStore implements storage.SettingsStore using PostgreSQL.
type SettingsStore struct {
	pool *Pool
}

// NewSettingsStore creates a new SettingsStore.
func NewSettingsStore(pool *Pool) *SettingsStore {
	return &SettingsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SettingsStore = (*SettingsStore)(nil)

// ListActive retrieves settings of all users with the active flag set.
func (s *SettingsStore) ListActive(ctx context.Context) ([]*domain.UserSettings, error) {
	query := `
		SELECT user_id, mode, price_min, price_max, profit_min, background_filter, active
		FROM user_settings
		WHERE active
		ORDER BY user_id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query active settings: %w", err)
	}
	defer rows.Close()

	var settings []*domain.UserSettings
	for rows.Next() {
		var u domain.UserSettings
		err := rows.Scan(
			&u.UserID,
			&u.Mode,
			&u.PriceMin,
			&u.PriceMax,
			&u.ProfitMin,
			&u.BackgroundFilter,
			&u.Active,
		)
		if err != nil {
			return nil, fmt.Errorf("scan user settings: %w", err)
		}
		settings = append(settings, &u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user settings: %w", err)
	}
	return settings, nil
}

// Upsert writes one user's settings.
func (s *SettingsStore) Upsert(ctx context.Context, u *domain.UserSettings) error {
	if u == nil || !u.Mode.IsValid() || !u.BackgroundFilter.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO user_settings (
			user_id, mode, price_min, price_max, profit_min, background_filter, active
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id) DO UPDATE SET
			mode              = EXCLUDED.mode,
			price_min         = EXCLUDED.price_min,
			price_max         = EXCLUDED.price_max,
			profit_min        = EXCLUDED.profit_min,
			background_filter = EXCLUDED.background_filter,
			active            = EXCLUDED.active
	`

	_, err := s.pool.Exec(ctx, query,
		u.UserID,
		u.Mode.String(),
		u.PriceMin,
		u.PriceMax,
		u.ProfitMin,
		u.BackgroundFilter,
		u.Active,
	)
	if err != nil {
		return fmt.Errorf("upsert user settings: %w", err)
	}
	return nil
}
