package output

import (
	"context"
	"time"

	"rotabot/internal/domain/entities"
)

// EventRepository persists events and their role links.
//
// Implementations enforce uniqueness of (date, slot) in storage; EnsureEvents
// skips drafts whose (date, slot) already exists, including rows inserted
// concurrently by another caller.
type EventRepository interface {
	EnsureEvents(ctx context.Context, drafts []entities.EventDraft) (created int, err error)
	// ListByDates returns events with roles and participations as one snapshot,
	// ordered by (date, slot).
	ListByDates(ctx context.Context, dates []time.Time) ([]entities.Event, error)
	FindByID(ctx context.Context, id int64) (*entities.Event, error)
	UpdateTime(ctx context.Context, id int64, timeOfDay string) (*entities.Event, error)
	// AddRole links roleName to the event; added is false when it was already linked.
	AddRole(ctx context.Context, id int64, roleName string) (ev *entities.Event, added bool, err error)
	Delete(ctx context.Context, id int64) (*entities.Event, error)
}
