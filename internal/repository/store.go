package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

// DB is the pool surface the store needs; *pgxpool.Pool satisfies it.
type DB interface {
	Querier
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repos bundles the repositories bound to one transactional session.
type Repos struct {
	Users *UserRepository
	Roles *RoleRepository
}

// Store hands out scoped units of work over the connection pool. Every use
// case runs inside exactly one of the two scopes below.
type Store struct {
	db  DB
	log *zap.Logger
}

// NewStore creates a new Store
func NewStore(db DB, log *zap.Logger) *Store {
	return &Store{db: db, log: log}
}

func (s *Store) repos(q Querier) Repos {
	return Repos{
		Users: NewUserRepository(q, s.log),
		Roles: NewRoleRepository(q, s.log),
	}
}

// WithTx runs fn inside a transaction: commit on success, rollback on error
// or panic. The connection is released on every exit path.
func (s *Store) WithTx(ctx context.Context, fn func(r Repos) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(s.repos(tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// WithReadTx runs fn inside a transaction that never commits. Pure lookups
// (login's credential check, identity resolution) use this scope so read
// paths cannot accidentally persist anything.
func (s *Store) WithReadTx(ctx context.Context, fn func(r Repos) error) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	return fn(s.repos(tx))
}
