package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"gift-scanner/internal/domain"
	"gift-scanner/internal/storage"
)

// MuteStore is an in-memory implementation of storage.MuteStore.
type MuteStore struct {
	mu   sync.RWMutex
	data map[string]time.Time // keyed by user|assetKey, value is expiry
}

// NewMuteStore creates a new in-memory mute store.
func NewMuteStore() *MuteStore {
	return &MuteStore{data: make(map[string]time.Time)}
}

// Compile-time interface check.
var _ storage.MuteStore = (*MuteStore)(nil)

func muteKey(userID int64, assetKey string) string {
	return fmt.Sprintf("%d|%s", userID, assetKey)
}

// IsMuted reports whether (user, asset key) has a mute expiring after now.
func (s *MuteStore) IsMuted(_ context.Context, userID int64, assetKey string, now time.Time) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	until, ok := s.data[muteKey(userID, assetKey)]
	return ok && until.After(now), nil
}

// Mute upserts a mute for (user, asset key) until the given time.
func (s *MuteStore) Mute(_ context.Context, userID int64, assetKey string, until time.Time) error {
	if assetKey == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.data[muteKey(userID, assetKey)] = until
	return nil
}

// SettingsStore is an in-memory implementation of storage.SettingsStore.
type SettingsStore struct {
	mu   sync.RWMutex
	data map[int64]*domain.UserSettings
}

// NewSettingsStore creates a new in-memory settings store.
func NewSettingsStore() *SettingsStore {
	return &SettingsStore{data: make(map[int64]*domain.UserSettings)}
}

// Compile-time interface check.
var _ storage.SettingsStore = (*SettingsStore)(nil)

// ListActive retrieves settings of all users with the active flag set.
func (s *SettingsStore) ListActive(_ context.Context) ([]*domain.UserSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.UserSettings
	for _, st := range s.data {
		if st.Active {
			cp := *st
			out = append(out, &cp)
		}
	}
	return out, nil
}

// Upsert writes one user's settings.
func (s *SettingsStore) Upsert(_ context.Context, st *domain.UserSettings) error {
	if st == nil || st.UserID == 0 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *st
	s.data[st.UserID] = &cp
	return nil
}
