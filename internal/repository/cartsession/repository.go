package cartsession

import "context"

// Repository stores small per-session values such as the current cart id.
// Get returns domain.ErrNotFound for an absent key.
type Repository interface {
	Get(ctx context.Context, sessionID, key string) (string, error)
	Put(ctx context.Context, sessionID, key, value string) error
	Delete(ctx context.Context, sessionID, key string) error
}
