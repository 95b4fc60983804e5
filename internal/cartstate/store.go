package cartstate

import (
	"context"
	"errors"
	"sync"

	"storefront-kit/internal/domain"
)

// CartIDKey is the key the current cart id is persisted under.
const CartIDKey = "shopify_cart_id"

// Store is the key-value capability a synchronizer persists its cart id in.
// Get returns "" without error when the key is absent.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
}

// SessionValues stores values per session. Get returns domain.ErrNotFound
// for an absent key.
type SessionValues interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Put(ctx context.Context, sessionID, key, value string) error
}

type scopedStore struct {
	values    SessionValues
	sessionID string
}

// ScopedStore exposes one session's values as a Store.
func ScopedStore(values SessionValues, sessionID string) Store {
	return &scopedStore{values: values, sessionID: sessionID}
}

func (s *scopedStore) Get(ctx context.Context, key string) (string, error) {
	v, err := s.values.Get(ctx, s.sessionID, key)
	if errors.Is(err, domain.ErrNotFound) {
		return "", nil
	}
	return v, err
}

func (s *scopedStore) Set(ctx context.Context, key, value string) error {
	return s.values.Put(ctx, s.sessionID, key, value)
}

// MemoryStore is a Store for a single process-local client.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

func (m *MemoryStore) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.values[key], nil
}

func (m *MemoryStore) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	m.values[key] = value
	m.mu.Unlock()
	return nil
}
