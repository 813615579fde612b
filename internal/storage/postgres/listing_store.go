package postgres

import (
	"context"
	"fmt"

	"gift-scanner/internal/domain"
	"gift-scanner/internal/storage"
)

// ListingStore implements storage.ListingStore using PostgreSQL.
type ListingStore struct {
	pool *Pool
}

// NewListingStore creates a new ListingStore.
func NewListingStore(pool *Pool) *ListingStore {
	return &ListingStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ListingStore = (*ListingStore)(nil)

// Upsert inserts or replaces the listing for an item.
func (s *ListingStore) Upsert(ctx context.Context, l *domain.ActiveListing) error {
	if l == nil || l.ItemID == "" || l.Model == "" {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO active_listings (
			item_id, item_name, model, backdrop, pattern, number,
			price, listed_at, last_updated, marketplace
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (item_id) DO UPDATE SET
			item_name    = EXCLUDED.item_name,
			model        = EXCLUDED.model,
			backdrop     = EXCLUDED.backdrop,
			pattern      = EXCLUDED.pattern,
			number       = EXCLUDED.number,
			price        = EXCLUDED.price,
			last_updated = EXCLUDED.last_updated,
			marketplace  = EXCLUDED.marketplace
	`

	_, err := s.pool.Exec(ctx, query,
		l.ItemID,
		l.ItemName,
		l.Model,
		l.Backdrop,
		l.Pattern,
		l.Number,
		l.Price,
		l.ListedAt,
		l.LastUpdated,
		l.Marketplace,
	)
	if err != nil {
		return fmt.Errorf("upsert listing: %w", err)
	}
	return nil
}

// Delete removes the listing for an item. Missing rows are not an error.
func (s *ListingStore) Delete(ctx context.Context, itemID string) error {
	if itemID == "" {
		return storage.ErrInvalidInput
	}

	_, err := s.pool.Exec(ctx, `DELETE FROM active_listings WHERE item_id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	return nil
}

// PricesByAsset retrieves prices of active listings for (model, backdrop),
// sorted ascending.
func (s *ListingStore) PricesByAsset(ctx context.Context, model string, backdrop *string) ([]float64, error) {
	query := `
		SELECT price
		FROM active_listings
		WHERE model = $1 AND backdrop IS NOT DISTINCT FROM $2
		ORDER BY price ASC
	`

	rows, err := s.pool.Query(ctx, query, model, backdrop)
	if err != nil {
		return nil, fmt.Errorf("query listing prices: %w", err)
	}
	defer rows.Close()

	var prices []float64
	for rows.Next() {
		var p float64
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan listing price: %w", err)
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listing prices: %w", err)
	}
	return prices, nil
}
