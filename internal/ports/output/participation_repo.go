package output

import (
	"context"
	"time"

	"rotabot/internal/domain/entities"
)

// ParticipationRepository persists role claims.
//
// Create checks the event and role link and inserts in one transaction. The
// (event, role, actor) uniqueness is enforced by storage: when the triple
// already exists Create returns the existing row with created=false.
type ParticipationRepository interface {
	Create(ctx context.Context, eventID, roleID int64, actor string, at time.Time) (p entities.Participation, created bool, err error)
	FindByID(ctx context.Context, id int64) (*entities.Participation, error)
	Delete(ctx context.Context, id int64) (*entities.Participation, error)
	ListByActorFrom(ctx context.Context, actor string, from time.Time) ([]entities.Participation, error)
	DeleteByActorFrom(ctx context.Context, actor string, from time.Time) ([]entities.Participation, error)
}
