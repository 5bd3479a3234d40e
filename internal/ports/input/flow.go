package input

import (
	"context"

	"rotabot/internal/application"
	"rotabot/internal/domain"
	"rotabot/internal/domain/entities"
)

type FlowUseCase interface {
	Start(ctx context.Context, s *application.Session) (application.Step, error)
	Advance(ctx context.Context, s *application.Session, tok domain.Token) (application.Step, error)
}

type AdminUseCase interface {
	Events(ctx context.Context, actor entities.Actor) ([]entities.Event, error)
	SetEventTime(ctx context.Context, actor entities.Actor, eventID int64, newTime string) (*entities.Event, error)
	DeleteEvent(ctx context.Context, actor entities.Actor, eventID int64) (*entities.Event, error)
	AddEventRole(ctx context.Context, actor entities.Actor, eventID int64, roleName string) (*entities.Event, error)
}
