package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"rotabot/internal/ports/output"
)

var _ output.Store = (*Store)(nil)

// Store bundles the PostgreSQL repositories over one pool.
type Store struct {
	pool *pgxpool.Pool

	events         *EventRepository
	roles          *RoleRepository
	participations *ParticipationRepository
}

// NewStore wraps pool. Close releases the pool.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		pool:           pool,
		events:         NewEventRepository(pool),
		roles:          NewRoleRepository(pool),
		participations: NewParticipationRepository(pool),
	}
}

func (s *Store) Events() output.EventRepository                 { return s.events }
func (s *Store) Roles() output.RoleRepository                   { return s.roles }
func (s *Store) Participations() output.ParticipationRepository { return s.participations }

func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

// DBTX is satisfied by *pgxpool.Pool and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// snapshot is used for multi-statement reads that must agree with each other.
var snapshot = pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly}

const sqlStateForeignKeyViolation = "23503"

// isConstraintViolation reports whether err is a PostgreSQL error with the
// given SQLSTATE raised by constraint (any constraint when empty).
func isConstraintViolation(err error, code, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.Code != code {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
