// Package repo contains all database access logic for the wiki tags service.
// Each resource has its own file with an interface and a Postgres implementation.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test, giving free
// per-test isolation without any manual cleanup.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// txDB is a db that can also open a transaction. *pgxpool.Pool qualifies, and
// so does pgx.Tx (as a savepoint), which keeps Store usable in rolled-back tests.
type txDB interface {
	db
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repos bundles every repository bound to one connection or transaction.
type Repos struct {
	Regions    RegionRepo
	Tags       TagRepo
	TagSets    TagSetRepo
	History    HistoryRepo
	FrontPages FrontPageRepo
}

// NewRepos binds every repository to db.
func NewRepos(db db) Repos {
	return Repos{
		Regions:    NewRegionRepo(db),
		Tags:       NewTagRepo(db),
		TagSets:    NewTagSetRepo(db),
		History:    NewHistoryRepo(db),
		FrontPages: NewFrontPageRepo(db),
	}
}

// Store exposes pool-bound repositories plus a transaction runner.
type Store struct {
	Repos
	conn txDB
}

// NewStore constructs a Store. In production pass *pgxpool.Pool; in tests
// pass a pgx.Tx for rollback isolation.
func NewStore(conn txDB) *Store {
	return &Store{Repos: NewRepos(conn), conn: conn}
}

// InTx runs fn with repositories bound to a single transaction. The
// transaction commits when fn returns nil and rolls back otherwise.
func (s *Store) InTx(ctx context.Context, fn func(Repos) error) error {
	err := pgx.BeginFunc(ctx, s.conn, func(tx pgx.Tx) error {
		return fn(NewRepos(tx))
	})
	if err != nil {
		return fmt.Errorf("repo.Store.InTx: %w", err)
	}
	return nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan helpers
// to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// uniqueViolation is the Postgres SQLSTATE for a unique index conflict.
const uniqueViolation = "23505"

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// pgUUIDs converts ids for use as a uuid[] parameter.
func pgUUIDs(ids []uuid.UUID) []pgtype.UUID {
	out := make([]pgtype.UUID, len(ids))
	for i, id := range ids {
		out[i] = pgtype.UUID{Bytes: id, Valid: true}
	}
	return out
}
