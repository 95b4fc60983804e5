package cartsession

import (
	"context"
	"sync"

	"storefront-kit/internal/domain"
)

type entryKey struct {
	sessionID string
	key       string
}

type memoryRepo struct {
	mu     sync.RWMutex
	values map[entryKey]string
}

// NewMemory returns a process-local Repository.
func NewMemory() Repository {
	return &memoryRepo{values: make(map[entryKey]string)}
}

func (r *memoryRepo) Get(_ context.Context, sessionID, key string) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[entryKey{sessionID, key}]
	if !ok {
		return "", domain.ErrNotFound
	}
	return v, nil
}

func (r *memoryRepo) Put(_ context.Context, sessionID, key, value string) error {
	r.mu.Lock()
	r.values[entryKey{sessionID, key}] = value
	r.mu.Unlock()
	return nil
}

func (r *memoryRepo) Delete(_ context.Context, sessionID, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := entryKey{sessionID, key}
	if _, ok := r.values[k]; !ok {
		return domain.ErrNotFound
	}
	delete(r.values, k)
	return nil
}
