package postgres

import (
	"context"
	"fmt"
	"time"

	"gift-scanner/internal/domain"
	"gift-scanner/internal/storage"
)

// EventStore implements storage.EventStore using PostgreSQL.
type EventStore struct {
	pool *Pool
}

// NewEventStore creates a new EventStore.
func NewEventStore(pool *Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Insert appends a new event. Events are never updated or deleted.
func (s *EventStore) Insert(ctx context.Context, e *domain.MarketEvent) error {
	if e == nil || e.Model == "" || !e.Kind.IsValid() {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO market_events (
			event_time, kind, item_id, item_name, model, backdrop,
			pattern, number, price, price_old, photo_url, marketplace
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := s.pool.Exec(ctx, query,
		e.EventTime,
		e.Kind.String(),
		e.ItemID,
		e.ItemName,
		e.Model,
		e.Backdrop,
		e.Pattern,
		e.Number,
		e.Price,
		e.PriceOld,
		e.PhotoURL,
		e.Marketplace,
	)
	if err != nil {
		return fmt.Errorf("insert market event: %w", err)
	}
	return nil
}

// SalesSince retrieves sale records for (model, backdrop) with
// event_time >= since, ordered by event_time DESC.
func (s *EventStore) SalesSince(ctx context.Context, model string, backdrop *string, since time.Time) ([]domain.SaleRecord, error) {
	query := `
		SELECT event_time, price
		FROM market_events
		WHERE kind = 'sale' AND model = $1
		  AND backdrop IS NOT DISTINCT FROM $2
		  AND event_time >= $3
		ORDER BY event_time DESC
	`

	rows, err := s.pool.Query(ctx, query, model, backdrop, since)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var sales []domain.SaleRecord
	for rows.Next() {
		var r domain.SaleRecord
		if err := rows.Scan(&r.EventTime, &r.Price); err != nil {
			return nil, fmt.Errorf("scan sale record: %w", err)
		}
		sales = append(sales, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sale records: %w", err)
	}
	return sales, nil
}

// CountSince counts events of a kind for (model, backdrop) with
// event_time >= since.
func (s *EventStore) CountSince(ctx context.Context, kind domain.EventKind, model string, backdrop *string, since time.Time) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM market_events
		WHERE kind = $1 AND model = $2
		  AND backdrop IS NOT DISTINCT FROM $3
		  AND event_time >= $4
	`

	var count int
	err := s.pool.QueryRow(ctx, query, kind.String(), model, backdrop, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count events: %w", err)
	}
	return count, nil
}
