package output

import (
	"context"

	"rotabot/internal/domain/entities"
)

type RoleRepository interface {
	// EnsureRoles creates missing roles and returns all of them in input order.
	EnsureRoles(ctx context.Context, names []string) ([]entities.Role, error)
	List(ctx context.Context) ([]entities.Role, error)
}
