package input

import (
	"context"

	"rotabot/internal/application"
	"rotabot/internal/domain/entities"
)

type ParticipationUseCase interface {
	Signup(ctx context.Context, eventID, roleID int64, actor string) (application.SignupResult, error)
	CancelOwn(ctx context.Context, actor string, id int64) (entities.Participation, error)
	CancelAllUpcoming(ctx context.Context, actor string) ([]entities.Participation, error)
	UpcomingFromToday(ctx context.Context, actor string) ([]entities.Participation, error)
}
