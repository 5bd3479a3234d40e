package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rotabot/internal/domain"
	"rotabot/internal/domain/entities"
	"rotabot/internal/ports/output"
)

var _ output.RoleRepository = (*RoleRepository)(nil)

type RoleRepository struct {
	pool *pgxpool.Pool
}

func NewRoleRepository(pool *pgxpool.Pool) *RoleRepository {
	return &RoleRepository{pool: pool}
}

func (r *RoleRepository) EnsureRoles(ctx context.Context, names []string) ([]entities.Role, error) {
	var roles []entities.Role
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		roles = make([]entities.Role, 0, len(names))
		for _, name := range names {
			id, err := ensureRole(ctx, tx, name)
			if err != nil {
				return err
			}
			roles = append(roles, entities.Role{ID: id, Name: strings.TrimSpace(name)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return roles, nil
}

func (r *RoleRepository) List(ctx context.Context) ([]entities.Role, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	roles, err := pgx.CollectRows(rows, pgx.RowToStructByPos[entities.Role])
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// ensureRole returns the id of the role named name, creating it if needed.
// ON CONFLICT waits for a concurrent insert of the same name to settle, so
// the follow-up SELECT always finds the row.
func ensureRole(ctx context.Context, db DBTX, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.ErrInvalidRoleName
	}
	if _, err := db.Exec(ctx,
		`INSERT INTO roles (name) VALUES ($1) ON CONFLICT (name) DO NOTHING`, name,
	); err != nil {
		return 0, fmt.Errorf("insert role %q: %w", name, err)
	}
	var id int64
	if err := db.QueryRow(ctx, `SELECT id FROM roles WHERE name = $1`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("get role %q: %w", name, err)
	}
	return id, nil
}
