package cartsession

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"storefront-kit/internal/domain"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) Get(ctx context.Context, sessionID, key string) (string, error) {
	const q = `
SELECT value
FROM cart_sessions
WHERE session_id = $1 AND key = $2
`
	var value string
	if err := r.pool.QueryRow(ctx, q, sessionID, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", domain.ErrNotFound
		}
		return "", err
	}
	return value, nil
}

func (r *postgresRepo) Put(ctx context.Context, sessionID, key, value string) error {
	const q = `
INSERT INTO cart_sessions (session_id, key, value)
VALUES ($1, $2, $3)
ON CONFLICT (session_id, key)
DO UPDATE SET value = EXCLUDED.value, updated_at = now()
`
	_, err := r.pool.Exec(ctx, q, sessionID, key, value)
	return err
}

func (r *postgresRepo) Delete(ctx context.Context, sessionID, key string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM cart_sessions WHERE session_id = $1 AND key = $2`, sessionID, key)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
