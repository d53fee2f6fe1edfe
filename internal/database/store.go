package database

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store runs queries against the pool, either one at a time through the
// embedded Queries or grouped with ExecTx.
type Store struct {
	pool *pgxpool.Pool
	*Queries
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:    pool,
		Queries: New(pool),
	}
}

// ExecTx runs fn in a transaction that is committed only if fn succeeds.
func (s *Store) ExecTx(ctx context.Context, fn func(*Queries) error) error {
	return pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(New(tx))
	})
}

// ApplyCommit applies c in its own transaction.
func (s *Store) ApplyCommit(ctx context.Context, c *Commit) (*Event, error) {
	var event *Event
	err := s.ExecTx(ctx, func(q *Queries) error {
		var err error
		event, err = q.ApplyCommit(ctx, c)
		return err
	})
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}
