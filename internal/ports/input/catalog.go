package input

import (
	"context"
	"time"

	"rotabot/internal/domain/entities"
)

type CatalogUseCase interface {
	CurrentWeek() []time.Time
	Today() time.Time
	Location() *time.Location
	EnsureCurrentWeek(ctx context.Context) error
	EventsFor(ctx context.Context, dates []time.Time) ([]entities.Event, error)
	EventByID(ctx context.Context, id int64) (*entities.Event, error)
	Schedule(ctx context.Context, locale string) (string, error)
}
