package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamsite/roster-api/internal/ports/out/idempotency"
)

// Store keeps idempotency scopes in the idempotency_keys table.
type Store struct {
	pool *pgxpool.Pool
}

var _ idempotency.Store = (*Store)(nil)

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

func (s *Store) Claim(ctx context.Context, scope idempotency.Scope, bodyHash string, at time.Time) (idempotency.Entry, bool, error) {
	if s.pool == nil {
		return idempotency.Entry{}, false, errors.New("nil postgres pool")
	}
	tag, err := s.pool.Exec(ctx, `
		INSERT INTO idempotency_keys (idempotency_key, route, body_hash, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (idempotency_key, route) DO NOTHING
	`, string(scope.Key), scope.Route, bodyHash, at.UTC().Truncate(time.Microsecond))
	if err != nil {
		return idempotency.Entry{}, false, fmt.Errorf("claim idempotency key: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return idempotency.Entry{}, true, nil
	}

	var e idempotency.Entry
	err = s.pool.QueryRow(ctx, `
		SELECT body_hash, response, created_at
		FROM idempotency_keys
		WHERE idempotency_key = $1 AND route = $2
	`, string(scope.Key), scope.Route).Scan(&e.BodyHash, &e.Response, &e.CreatedAt)
	if err != nil {
		return idempotency.Entry{}, false, fmt.Errorf("load idempotency key: %w", err)
	}
	e.CreatedAt = e.CreatedAt.UTC()
	return e, false, nil
}

func (s *Store) Complete(ctx context.Context, scope idempotency.Scope, response []byte) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE idempotency_keys
		SET response = $3, completed_at = now()
		WHERE idempotency_key = $1 AND route = $2
	`, string(scope.Key), scope.Route, response)
	if err != nil {
		return fmt.Errorf("complete idempotency key: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return idempotency.ErrNotClaimed
	}
	return nil
}

func (s *Store) Release(ctx context.Context, scope idempotency.Scope, claimedAt time.Time) error {
	if s.pool == nil {
		return errors.New("nil postgres pool")
	}
	_, err := s.pool.Exec(ctx, `
		DELETE FROM idempotency_keys
		WHERE idempotency_key = $1 AND route = $2
		  AND response IS NULL
		  AND created_at = $3
	`, string(scope.Key), scope.Route, claimedAt.UTC().Truncate(time.Microsecond))
	if err != nil {
		return fmt.Errorf("release idempotency key: %w", err)
	}
	return nil
}
