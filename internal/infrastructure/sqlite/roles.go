package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"rotabot/internal/domain"
	"rotabot/internal/domain/entities"
	"rotabot/internal/ports/output"
)

var _ output.RoleRepository = (*roleRepository)(nil)

type roleRepository struct {
	db *sql.DB
}

func (r *roleRepository) EnsureRoles(ctx context.Context, names []string) ([]entities.Role, error) {
	roles := make([]entities.Role, 0, len(names))
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		roles = roles[:0]
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

func (r *roleRepository) List(ctx context.Context) ([]entities.Role, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id, name FROM roles ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	defer rows.Close()

	var roles []entities.Role
	for rows.Next() {
		var role entities.Role
		if err := rows.Scan(&role.ID, &role.Name); err != nil {
			return nil, fmt.Errorf("scan role: %w", err)
		}
		roles = append(roles, role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return roles, nil
}

// ensureRole returns the id of the role named name, creating it if needed.
func ensureRole(ctx context.Context, q querier, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, domain.ErrInvalidRoleName
	}
	if _, err := q.ExecContext(ctx,
		`INSERT INTO roles (name) VALUES (?) ON CONFLICT (name) DO NOTHING`, name,
	); err != nil {
		return 0, fmt.Errorf("insert role %q: %w", name, err)
	}
	var id int64
	if err := q.QueryRowContext(ctx, `SELECT id FROM roles WHERE name = ?`, name).Scan(&id); err != nil {
		return 0, fmt.Errorf("get role %q: %w", name, err)
	}
	return id, nil
}
