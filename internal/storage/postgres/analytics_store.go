package postgres

import (
	"context"
	"fmt"

	"gift-scanner/internal/domain"
	"gift-scanner/internal/storage"
)

// AnalyticsStore implements storage.AnalyticsStore using PostgreSQL.
type AnalyticsStore struct {
	pool *Pool
}

// NewAnalyticsStore creates a new AnalyticsStore.
func NewAnalyticsStore(pool *Pool) *AnalyticsStore {
	return &AnalyticsStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnalyticsStore = (*AnalyticsStore)(nil)

// Upsert writes the latest snapshot for an asset key.
func (s *AnalyticsStore) Upsert(ctx context.Context, a *domain.AssetAnalytics) error {
	if a == nil || a.AssetKey == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO asset_analytics (
			asset_key, floor_1st, floor_2nd, floor_3rd,
			listings_count, sales_7d, sales_30d,
			price_q25, price_q50, price_q75, price_max,
			liquidity_score, confidence, last_sale_at, trend, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (asset_key) DO UPDATE SET
			floor_1st       = EXCLUDED.floor_1st,
			floor_2nd       = EXCLUDED.floor_2nd,
			floor_3rd       = EXCLUDED.floor_3rd,
			listings_count  = EXCLUDED.listings_count,
			sales_7d        = EXCLUDED.sales_7d,
			sales_30d       = EXCLUDED.sales_30d,
			price_q25       = EXCLUDED.price_q25,
			price_q50       = EXCLUDED.price_q50,
			price_q75       = EXCLUDED.price_q75,
			price_max       = EXCLUDED.price_max,
			liquidity_score = EXCLUDED.liquidity_score,
			confidence      = EXCLUDED.confidence,
			last_sale_at    = EXCLUDED.last_sale_at,
			trend           = EXCLUDED.trend,
			computed_at     = EXCLUDED.computed_at
	`

	_, err := s.pool.Exec(ctx, query,
		a.AssetKey,
		a.Floor1st,
		a.Floor2nd,
		a.Floor3rd,
		a.ListingsCount,
		a.Sales7d,
		a.Sales30d,
		a.PriceQ25,
		a.PriceQ50,
		a.PriceQ75,
		a.PriceMax,
		a.LiquidityScore,
		a.Confidence.String(),
		a.LastSaleAt,
		a.Trend.String(),
		a.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert analytics: %w", err)
	}
	return nil
}

// GetByKey retrieves the latest snapshot. Returns ErrNotFound if absent.
func (s *AnalyticsStore) GetByKey(ctx context.Context, assetKey string) (*domain.AssetAnalytics, error) {
	query := `
		SELECT asset_key, floor_1st, floor_2nd, floor_3rd,
		       listings_count, sales_7d, sales_30d,
		       price_q25, price_q50, price_q75, price_max,
		       liquidity_score, confidence, last_sale_at, trend, computed_at
		FROM asset_analytics
		WHERE asset_key = $1
	`

	var a domain.AssetAnalytics
	err := s.pool.QueryRow(ctx, query, assetKey).Scan(
		&a.AssetKey,
		&a.Floor1st,
		&a.Floor2nd,
		&a.Floor3rd,
		&a.ListingsCount,
		&a.Sales7d,
		&a.Sales30d,
		&a.PriceQ25,
		&a.PriceQ50,
		&a.PriceQ75,
		&a.PriceMax,
		&a.LiquidityScore,
		&a.Confidence,
		&a.LastSaleAt,
		&a.Trend,
		&a.ComputedAt,
	)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get analytics by key: %w", err)
	}
	return &a, nil
}
