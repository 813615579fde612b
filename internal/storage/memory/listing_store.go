package memory

import (
	"context"
	"sort"
	"sync"

	"gift-scanner/internal/domain"
	"gift-scanner/internal/storage"
)

// ListingStore is an in-memory implementation of storage.ListingStore.
type ListingStore struct {
	mu   sync.RWMutex
	data map[string]*domain.ActiveListing // keyed by item id
}

// NewListingStore creates a new in-memory listing store.
func NewListingStore() *ListingStore {
	return &ListingStore{data: make(map[string]*domain.ActiveListing)}
}

// Compile-time interface check.
var _ storage.ListingStore = (*ListingStore)(nil)

// Upsert inserts or replaces the listing for an item.
func (s *ListingStore) Upsert(_ context.Context, l *domain.ActiveListing) error {
	if l == nil || l.ItemID == "" || l.Model == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *l
	s.data[l.ItemID] = &cp
	return nil
}

// Delete removes the listing for an item. Missing rows are not an error.
func (s *ListingStore) Delete(_ context.Context, itemID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.data, itemID)
	return nil
}

// PricesByAsset retrieves active listing prices sorted ascending.
func (s *ListingStore) PricesByAsset(_ context.Context, model string, backdrop *string) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var prices []float64
	for _, l := range s.data {
		if matchAsset(l.Model, l.Backdrop, model, backdrop) {
			prices = append(prices, l.Price)
		}
	}

	sort.Float64s(prices)
	return prices, nil
}
