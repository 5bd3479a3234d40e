package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rotabot/internal/domain"
	"rotabot/internal/domain/entities"
	"rotabot/internal/ports/output"
)

type weekSource interface {
	CurrentWeek() []time.Time
	EventsFor(ctx context.Context, dates []time.Time) ([]entities.Event, error)
}

// AdminEditor holds the privileged event mutations. The admin fact comes
// with the actor; it is not looked up here.
type AdminEditor struct {
	events     output.EventRepository
	week       weekSource
	notifier   output.Notifier
	labels     Labels
	locale     string
	strictTime bool
	logger     *slog.Logger
}

func NewAdminEditor(
	store output.Store,
	week weekSource,
	notifier output.Notifier,
	translator output.T,
	locale string,
	strictTime bool,
	logger *slog.Logger,
) *AdminEditor {
	return &AdminEditor{
		events:     store.Events(),
		week:       week,
		notifier:   notifier,
		labels:     NewLabels(translator),
		locale:     locale,
		strictTime: strictTime,
		logger:     logger,
	}
}

// Events lists the current week's events for the admin menu.
func (a *AdminEditor) Events(ctx context.Context, actor entities.Actor) ([]entities.Event, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrNotAdmin
	}
	return a.week.EventsFor(ctx, a.week.CurrentWeek())
}

// SetEventTime overwrites the displayed time of an event.
func (a *AdminEditor) SetEventTime(ctx context.Context, actor entities.Actor, eventID int64, newTime string) (*entities.Event, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrNotAdmin
	}
	timeOfDay, err := domain.NormalizeTimeOfDay(newTime, a.strictTime)
	if err != nil {
		return nil, err
	}

	ev, err := a.events.UpdateTime(ctx, eventID, timeOfDay)
	if err != nil {
		return nil, wrapUnlessDomain(err, "set time of event %d", eventID)
	}
	a.logger.Info("event time changed", "event_id", ev.ID, "time", timeOfDay, "admin", actor.Handle)
	a.notify(ctx, a.labels.T(a.locale, "notify.time_changed", map[string]any{
		"Actor": actor.Handle,
		"Event": a.labels.Event(a.locale, ev),
		"Time":  timeOfDay,
	}))
	return ev, nil
}

// DeleteEvent removes an event with its role links and participations.
func (a *AdminEditor) DeleteEvent(ctx context.Context, actor entities.Actor, eventID int64) (*entities.Event, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrNotAdmin
	}
	ev, err := a.events.Delete(ctx, eventID)
	if err != nil {
		return nil, wrapUnlessDomain(err, "delete event %d", eventID)
	}
	a.logger.Info("event deleted", "event_id", ev.ID, "participations", len(ev.Participations), "admin", actor.Handle)
	a.notify(ctx, a.labels.T(a.locale, "notify.event_deleted", map[string]any{
		"Actor": actor.Handle,
		"Event": a.labels.Event(a.locale, ev),
	}))
	return ev, nil
}

// AddEventRole attaches a role, creating it on first use, to the end of the
// event's role list. Adding a role the event already has changes nothing.
func (a *AdminEditor) AddEventRole(ctx context.Context, actor entities.Actor, eventID int64, roleName string) (*entities.Event, error) {
	if !actor.IsAdmin {
		return nil, domain.ErrNotAdmin
	}
	roleName = strings.TrimSpace(roleName)
	if roleName == "" {
		return nil, domain.ErrInvalidRoleName
	}
	ev, added, err := a.events.AddRole(ctx, eventID, roleName)
	if err != nil {
		return nil, wrapUnlessDomain(err, "add role to event %d", eventID)
	}
	if !added {
		return ev, nil
	}
	a.logger.Info("event role added", "event_id", ev.ID, "role", roleName, "admin", actor.Handle)
	a.notify(ctx, a.labels.T(a.locale, "notify.role_added", map[string]any{
		"Actor": actor.Handle,
		"Event": a.labels.Event(a.locale, ev),
		"Role":  roleName,
	}))
	return ev, nil
}

func (a *AdminEditor) notify(ctx context.Context, text string) {
	if a.notifier == nil {
		return
	}
	if err := a.notifier.Notify(ctx, text); err != nil {
		a.logger.Warn("notification failed", "error", err)
	}
}

func wrapUnlessDomain(err error, format string, args ...any) error {
	var de *domain.Error
	if errors.As(err, &de) {
		return err
	}
	return fmt.Errorf(format+": %w", append(args, err)...)
}
