package clickhouse

import (
	"context"
	"fmt"
	"time"

	"gift-scanner/internal/domain"
	"gift-scanner/internal/storage"
)

// HistoryStore implements storage.AnalyticsHistoryStore using ClickHouse.
// Every computed snapshot is archived append-only for offline research;
// rows are never updated or deleted.
type HistoryStore struct {
	conn *Conn
}

// NewHistoryStore creates a new HistoryStore.
func NewHistoryStore(conn *Conn) *HistoryStore {
	return &HistoryStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AnalyticsHistoryStore = (*HistoryStore)(nil)

// Append archives one snapshot.
func (s *HistoryStore) Append(ctx context.Context, a *domain.AssetAnalytics) error {
	query := `
		INSERT INTO analytics_history (
			asset_key, floor_1st, floor_2nd, floor_3rd,
			listings_count, sales_7d, sales_30d,
			price_q25, price_q50, price_q75, price_max,
			liquidity_score, confidence, last_sale_at, trend, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	err := s.conn.Exec(ctx, query,
		a.AssetKey,
		a.Floor1st,
		a.Floor2nd,
		a.Floor3rd,
		uint32(a.ListingsCount),
		uint32(a.Sales7d),
		uint32(a.Sales30d),
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
		return fmt.Errorf("append analytics history: %w", err)
	}
	return nil
}

// CountSince reports how many snapshots were archived for an asset key
// since the given time. Used by retention checks and tests.
func (s *HistoryStore) CountSince(ctx context.Context, assetKey string, since time.Time) (uint64, error) {
	query := `
		SELECT count() FROM analytics_history
		WHERE asset_key = $1 AND computed_at >= $2
	`

	var count uint64
	if err := s.conn.QueryRow(ctx, query, assetKey, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count analytics history: %w", err)
	}
	return count, nil
}
