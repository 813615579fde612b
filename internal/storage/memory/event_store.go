package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"gift-scanner/internal/domain"
	"gift-scanner/internal/storage"
)

// EventStore is an in-memory implementation of storage.EventStore.
type EventStore struct {
	mu     sync.RWMutex
	events []*domain.MarketEvent
}

// NewEventStore creates a new in-memory event store.
func NewEventStore() *EventStore {
	return &EventStore{}
}

// Compile-time interface check.
var _ storage.EventStore = (*EventStore)(nil)

// Insert appends a new event.
func (s *EventStore) Insert(_ context.Context, e *domain.MarketEvent) error {
	if e == nil || e.Model == "" || !e.Kind.IsValid() {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *e
	s.events = append(s.events, &cp)
	return nil
}

// SalesSince retrieves sale records ordered by event_time DESC.
func (s *EventStore) SalesSince(_ context.Context, model string, backdrop *string, since time.Time) ([]domain.SaleRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.SaleRecord
	for _, e := range s.events {
		if e.Kind != domain.EventSale || !matchAsset(e.Model, e.Backdrop, model, backdrop) {
			continue
		}
		if e.EventTime.Before(since) {
			continue
		}
		out = append(out, domain.SaleRecord{EventTime: e.EventTime, Price: e.Price})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].EventTime.After(out[j].EventTime)
	})
	return out, nil
}

// CountSince counts events of a kind since a point in time.
func (s *EventStore) CountSince(_ context.Context, kind domain.EventKind, model string, backdrop *string, since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, e := range s.events {
		if e.Kind != kind || !matchAsset(e.Model, e.Backdrop, model, backdrop) {
			continue
		}
		if e.EventTime.Before(since) {
			continue
		}
		count++
	}
	return count, nil
}

// matchAsset compares (model, backdrop) pairs treating nil backdrop as "no backdrop".
func matchAsset(gotModel string, gotBackdrop *string, model string, backdrop *string) bool {
	if gotModel != model {
		return false
	}
	if (gotBackdrop == nil) != (backdrop == nil) {
		return false
	}
	return gotBackdrop == nil || *gotBackdrop == *backdrop
}
