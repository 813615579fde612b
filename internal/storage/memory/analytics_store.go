package memory

import (
	"context"
	"sync"

	"gift-scanner/internal/domain"
	"gift-scanner/internal/storage"
)

// AnalyticsStore is an in-memory implementation of storage.AnalyticsStore.
type AnalyticsStore struct {
	mu   sync.RWMutex
	data map[string]*domain.AssetAnalytics // keyed by asset key
}

// NewAnalyticsStore creates a new in-memory analytics store.
func NewAnalyticsStore() *AnalyticsStore {
	return &AnalyticsStore{data: make(map[string]*domain.AssetAnalytics)}
}

// Compile-time interface check.
var _ storage.AnalyticsStore = (*AnalyticsStore)(nil)

// Upsert writes the latest snapshot for an asset key.
func (s *AnalyticsStore) Upsert(_ context.Context, a *domain.AssetAnalytics) error {
	if a == nil || a.AssetKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.data[a.AssetKey] = &cp
	return nil
}

// GetByKey retrieves the latest snapshot. Returns ErrNotFound if absent.
func (s *AnalyticsStore) GetByKey(_ context.Context, assetKey string) (*domain.AssetAnalytics, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.data[assetKey]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

// HistoryStore is an in-memory implementation of storage.AnalyticsHistoryStore.
type HistoryStore struct {
	mu        sync.RWMutex
	snapshots []*domain.AssetAnalytics
}

// NewHistoryStore creates a new in-memory history store.
func NewHistoryStore() *HistoryStore {
	return &HistoryStore{}
}

// Compile-time interface check.
var _ storage.AnalyticsHistoryStore = (*HistoryStore)(nil)

// Append archives one computed snapshot.
func (s *HistoryStore) Append(_ context.Context, a *domain.AssetAnalytics) error {
	if a == nil || a.AssetKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *a
	s.snapshots = append(s.snapshots, &cp)
	return nil
}

// Len reports the number of archived snapshots. Test helper.
func (s *HistoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots)
}
