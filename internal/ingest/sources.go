// Package ingest consumes marketplace event feeds and drives the
// analytics and alert engines off them.
package ingest

import (
	"context"

	"gift-scanner/internal/domain"
)

// EventSource provides a stream of market events from an external feed.
type EventSource interface {
	// Subscribe returns a channel of events. The channel is closed when
	// the context is cancelled.
	Subscribe(ctx context.Context) (<-chan *domain.MarketEvent, error)
}

// Notifier delivers generated alerts to a user.
type Notifier interface {
	Notify(ctx context.Context, userID int64, alert *domain.Alert) error
}
