package domain

import "time"

// FetchOptions overrides the transport caching policy for a single call.
// Nil fields fall back to the client defaults.
type FetchOptions struct {
	CacheTTL       *time.Duration
	Revalidate     *time.Duration
	UseMemoryCache *bool
	UseEdgeCache   *bool
}
