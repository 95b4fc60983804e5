package storefront

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"
)

var ErrCacheMiss = errors.New("cache miss")

// Entry is a cached response together with the moment it was fetched.
// Freshness is judged by the reader against its own TTL.
type Entry struct {
	StoredAt time.Time `json:"storedAt"`
	Response *Response `json:"response"`
}

// Cache stores storefront responses by request key.
type Cache interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, key string, entry *Entry) error
	Clear(ctx context.Context) error
}

// CacheKey derives a deterministic key from a query and its variables.
// encoding/json sorts map keys, so equal variable sets hash equally.
func CacheKey(query string, variables map[string]any) (string, error) {
	vars, err := json.Marshal(variables)
	if err != nil {
		return "", fmt.Errorf("encode variables: %w", err)
	}
	d := xxhash.New()
	_, _ = d.WriteString(query)
	_, _ = d.Write([]byte{0})
	_, _ = d.Write(vars)
	return strconv.FormatUint(d.Sum64(), 16), nil
}

const defaultMemoryEntries = 1024

// MemoryCache is a bounded in-process cache.
type MemoryCache struct {
	entries *lru.Cache[string, *Entry]
}

func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = defaultMemoryEntries
	}
	entries, err := lru.New[string, *Entry](size)
	if err != nil {
		return nil, err
	}
	return &MemoryCache{entries: entries}, nil
}

func (m *MemoryCache) Get(_ context.Context, key string) (*Entry, error) {
	entry, ok := m.entries.Get(key)
	if !ok {
		return nil, ErrCacheMiss
	}
	return entry, nil
}

func (m *MemoryCache) Set(_ context.Context, key string, entry *Entry) error {
	m.entries.Add(key, entry)
	return nil
}

func (m *MemoryCache) Clear(_ context.Context) error {
	m.entries.Purge()
	return nil
}

// Len reports the number of stored entries.
func (m *MemoryCache) Len() int {
	return m.entries.Len()
}
