package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"rotabot/internal/domain"
	"rotabot/internal/domain/calendar"
	"rotabot/internal/domain/entities"
	"rotabot/internal/ports/output"
	"rotabot/pkg/clock"
)

// SignupResult is the outcome of a signup attempt.
type SignupResult struct {
	Participation     entities.Participation
	AlreadyRegistered bool
	// Summary is the rendered change line, empty when nothing was written.
	Summary string
}

// Registry records, cancels and lists role claims.
type Registry struct {
	participations output.ParticipationRepository
	notifier       output.Notifier
	labels         Labels
	locale         string
	clock          clock.Clock
	loc            *time.Location
	logger         *slog.Logger
}

// NewRegistry creates a Registry. Notifications are rendered in locale.
func NewRegistry(
	store output.Store,
	notifier output.Notifier,
	translator output.T,
	locale string,
	clk clock.Clock,
	loc *time.Location,
	logger *slog.Logger,
) *Registry {
	if loc == nil {
		loc = time.UTC
	}
	return &Registry{
		participations: store.Participations(),
		notifier:       notifier,
		labels:         NewLabels(translator),
		locale:         locale,
		clock:          clk,
		loc:            loc,
		logger:         logger,
	}
}

// Signup claims roleID in eventID for actor.
func (r *Registry) Signup(ctx context.Context, eventID, roleID int64, actor string) (SignupResult, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return SignupResult{}, domain.ErrActorMissing
	}

	p, created, err := r.participations.Create(ctx, eventID, roleID, actor, r.clock.Now().UTC())
	if err != nil {
		return SignupResult{}, wrapUnlessDomain(err, "signup")
	}
	if !created {
		r.logger.Debug("signup skipped, already registered",
			"actor", actor, "event_id", eventID, "role_id", roleID)
		return SignupResult{Participation: p, AlreadyRegistered: true}, nil
	}

	summary := r.labels.Change(r.locale, "notify.signup", p)
	r.logger.Info("participation created",
		"id", p.ID, "actor", actor, "event_id", eventID, "role_id", roleID)
	r.notify(ctx, summary)
	return SignupResult{Participation: p, Summary: summary}, nil
}

// Cancel removes one participation and returns it.
func (r *Registry) Cancel(ctx context.Context, id int64) (entities.Participation, error) {
	p, err := r.participations.Delete(ctx, id)
	if err != nil {
		return entities.Participation{}, wrapUnlessDomain(err, "cancel participation %d", id)
	}
	r.logger.Info("participation cancelled", "id", p.ID, "actor", p.Actor)
	r.notify(ctx, r.labels.Change(r.locale, "notify.cancel", *p))
	return *p, nil
}

// CancelOwn removes one participation after checking it belongs to actor.
func (r *Registry) CancelOwn(ctx context.Context, actor string, id int64) (entities.Participation, error) {
	p, err := r.participations.FindByID(ctx, id)
	if err != nil {
		return entities.Participation{}, err
	}
	if p.Actor != strings.TrimSpace(actor) {
		return entities.Participation{}, domain.ErrNotOwner
	}
	return r.Cancel(ctx, id)
}

// CancelAll removes every participation of actor dated on or after from.
func (r *Registry) CancelAll(ctx context.Context, actor string, from time.Time) ([]entities.Participation, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, domain.ErrActorMissing
	}
	removed, err := r.participations.DeleteByActorFrom(ctx, actor, from)
	if err != nil {
		return nil, fmt.Errorf("cancel all for %s: %w", actor, err)
	}
	if len(removed) > 0 {
		r.logger.Info("participations cancelled", "actor", actor, "count", len(removed))
	}
	for _, p := range removed {
		r.notify(ctx, r.labels.Change(r.locale, "notify.cancel", p))
	}
	return removed, nil
}

// CancelAllUpcoming is CancelAll from today.
func (r *Registry) CancelAllUpcoming(ctx context.Context, actor string) ([]entities.Participation, error) {
	return r.CancelAll(ctx, actor, r.Today())
}

// Upcoming lists actor's participations dated on or after from.
func (r *Registry) Upcoming(ctx context.Context, actor string, from time.Time) ([]entities.Participation, error) {
	actor = strings.TrimSpace(actor)
	if actor == "" {
		return nil, domain.ErrActorMissing
	}
	list, err := r.participations.ListByActorFrom(ctx, actor, from)
	if err != nil {
		return nil, fmt.Errorf("list participations for %s: %w", actor, err)
	}
	return list, nil
}

// UpcomingFromToday is Upcoming from today.
func (r *Registry) UpcomingFromToday(ctx context.Context, actor string) ([]entities.Participation, error) {
	return r.Upcoming(ctx, actor, r.Today())
}

// Today returns the current civil date in the registry's timezone.
func (r *Registry) Today() time.Time {
	return calendar.Today(r.clock.Now(), r.loc)
}

func (r *Registry) notify(ctx context.Context, text string) {
	if r.notifier == nil {
		return
	}
	if err := r.notifier.Notify(ctx, text); err != nil {
		r.logger.Warn("notification failed", "error", err)
	}
}
