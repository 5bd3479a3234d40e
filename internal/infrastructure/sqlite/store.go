// Package sqlite provides a SQLite-backed store for single-host deployments,
// the console mode and tests.
//
// SQLite has one writer at a time; write transactions are opened with
// BEGIN IMMEDIATE so concurrent writers queue on the busy timeout instead of
// failing on lock upgrade. Read snapshots go through a second, query-only
// handle with deferred transactions, so under WAL they never wait on the
// writer. The (date, slot) and (event, role, actor) uniqueness rules live in
// the schema.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/golang-migrate/migrate/v4"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"rotabot/internal/domain"
	"rotabot/internal/infrastructure/sqlite/migrations"
	"rotabot/internal/ports/output"
)

var _ output.Store = (*Store)(nil)

// Store persists the rota in SQLite.
type Store struct {
	db     *sql.DB
	reader *sql.DB

	events         *eventRepository
	roles          *roleRepository
	participations *participationRepository
}

// Open opens the database at path and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	file := "file:" + filepath.Clean(path)
	db, err := sql.Open("sqlite", file+
		"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	reader, err := sql.Open("sqlite", file+
		"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)&_pragma=query_only(1)&_txlock=deferred")
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open sqlite reader: %w", err)
	}
	if err := reader.Ping(); err != nil {
		_ = reader.Close()
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite reader: %w", err)
	}

	s := &Store{db: db, reader: reader}
	s.events = &eventRepository{db: db, reader: reader}
	s.roles = &roleRepository{db: db}
	s.participations = &participationRepository{db: db}
	return s, nil
}

func applyMigrations(db *sql.DB) error {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("migration init: %w", err)
	}
	// m.Close would close db as well; only the source is released here.
	defer src.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}

func (s *Store) Events() output.EventRepository                 { return s.events }
func (s *Store) Roles() output.RoleRepository                   { return s.roles }
func (s *Store) Participations() output.ParticipationRepository { return s.participations }

// Close closes both SQLite handles.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return errors.Join(s.reader.Close(), s.db.Close())
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// inTx runs fn in one transaction, committing only when fn succeeds.
func inTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

const dateLayout = domain.DateLayout

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

func toDate(value time.Time) string {
	return value.Format(dateLayout)
}

func fromDate(value string) (time.Time, error) {
	d, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored date %q: %w", value, err)
	}
	return d, nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

func dateArgs(dates []time.Time) []any {
	args := make([]any, len(dates))
	for i, d := range dates {
		args[i] = toDate(d)
	}
	return args
}
