// Package seed inserts fixed development sessions so the API can be called
// with a known X-Session-Token.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-kit/internal/cartstate"
)

// Session is a development session and its token.
type Session struct {
	Token     string
	SessionID string
	// CartID is persisted as the session's cart when set.
	CartID string
}

// DefaultSessions are the sessions Apply inserts when none are given.
var DefaultSessions = []Session{
	{Token: "dev-token", SessionID: "dev-session"},
	{Token: "dev-token-2", SessionID: "dev-session-2"},
}

// Apply upserts the sessions with a one-year expiry. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool, sessions []Session) error {
	if len(sessions) == 0 {
		sessions = DefaultSessions
	}
	expires := time.Now().Add(365 * 24 * time.Hour)
	for _, s := range sessions {
		if err := upsertToken(ctx, pool, s, expires); err != nil {
			return fmt.Errorf("upsert token %s: %w", s.Token, err)
		}
		if s.CartID == "" {
			continue
		}
		if err := upsertCartID(ctx, pool, s); err != nil {
			return fmt.Errorf("upsert cart id for %s: %w", s.SessionID, err)
		}
	}
	return nil
}

func upsertToken(ctx context.Context, pool *pgxpool.Pool, s Session, expires time.Time) error {
	const q = `
INSERT INTO session_tokens (token, session_id, expires_at)
VALUES ($1, $2, $3)
ON CONFLICT (token) DO UPDATE
SET session_id = EXCLUDED.session_id,
    expires_at = EXCLUDED.expires_at
`
	_, err := pool.Exec(ctx, q, s.Token, s.SessionID, expires)
	return err
}

func upsertCartID(ctx context.Context, pool *pgxpool.Pool, s Session) error {
	const q = `
INSERT INTO cart_sessions (session_id, key, value)
VALUES ($1, $2, $3)
ON CONFLICT (session_id, key) DO UPDATE
SET value = EXCLUDED.value,
    updated_at = now()
`
	_, err := pool.Exec(ctx, q, s.SessionID, cartstate.CartIDKey, s.CartID)
	return err
}
