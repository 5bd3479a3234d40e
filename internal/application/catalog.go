package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"rotabot/internal/domain/calendar"
	"rotabot/internal/domain/entities"
	"rotabot/internal/ports/output"
	"rotabot/pkg/clock"
)

// Catalog materializes weekly events and serves read-side projections.
type Catalog struct {
	events    output.EventRepository
	roles     output.RoleRepository
	templates output.EventTemplates
	labels    Labels
	clock     clock.Clock
	loc       *time.Location
	logger    *slog.Logger

	ensure singleflight.Group
}

func NewCatalog(
	store output.Store,
	templates output.EventTemplates,
	translator output.T,
	clk clock.Clock,
	loc *time.Location,
	logger *slog.Logger,
) *Catalog {
	if loc == nil {
		loc = time.UTC
	}
	return &Catalog{
		events:    store.Events(),
		roles:     store.Roles(),
		templates: templates,
		labels:    NewLabels(translator),
		clock:     clk,
		loc:       loc,
		logger:    logger,
	}
}

// Location is the timezone weeks are evaluated in.
func (c *Catalog) Location() *time.Location { return c.loc }

// CurrentWeek returns Monday..Sunday of the current week.
func (c *Catalog) CurrentWeek() []time.Time {
	return calendar.Week(c.clock.Now(), c.loc)
}

// Today returns the current civil date.
func (c *Catalog) Today() time.Time {
	return calendar.Today(c.clock.Now(), c.loc)
}

// BootstrapRoles creates the default role vocabulary.
func (c *Catalog) BootstrapRoles(ctx context.Context) error {
	if _, err := c.roles.EnsureRoles(ctx, c.templates.DefaultRoles()); err != nil {
		return fmt.Errorf("bootstrap roles: %w", err)
	}
	return nil
}

// EnsureWeek creates the missing (date, slot) events for dates. Calls for the
// same range running at the same time in this process share one write; each
// caller only stops waiting on its own cancellation.
func (c *Catalog) EnsureWeek(ctx context.Context, dates []time.Time) error {
	if len(dates) == 0 {
		return nil
	}
	shared := context.WithoutCancel(ctx)
	ch := c.ensure.DoChan(rangeKey(dates), func() (any, error) {
		drafts := make([]entities.EventDraft, 0, len(dates)*len(entities.Slots))
		for _, day := range dates {
			for _, slot := range entities.Slots {
				drafts = append(drafts, c.templates.Draft(calendar.Day(day, time.UTC), slot))
			}
		}
		created, err := c.events.EnsureEvents(shared, drafts)
		if err != nil {
			return nil, fmt.Errorf("ensure events: %w", err)
		}
		if created > 0 {
			c.logger.Info("week materialized", "from", dates[0].Format("2006-01-02"), "created", created)
		}
		return nil, nil
	})
	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// EnsureCurrentWeek materializes the current week.
func (c *Catalog) EnsureCurrentWeek(ctx context.Context) error {
	return c.EnsureWeek(ctx, c.CurrentWeek())
}

// EventsFor returns the events on dates, ordered by (date, slot).
func (c *Catalog) EventsFor(ctx context.Context, dates []time.Time) ([]entities.Event, error) {
	events, err := c.events.ListByDates(ctx, dates)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// EventByID returns one event with its roles and participations.
func (c *Catalog) EventByID(ctx context.Context, id int64) (*entities.Event, error) {
	return c.events.FindByID(ctx, id)
}

// Schedule renders the current week's report without materializing anything.
func (c *Catalog) Schedule(ctx context.Context, locale string) (string, error) {
	week := c.CurrentWeek()
	events, err := c.EventsFor(ctx, week)
	if err != nil {
		return "", err
	}
	return RenderSchedule(c.labels, locale, week, events), nil
}

func rangeKey(dates []time.Time) string {
	parts := make([]string, len(dates))
	for i, d := range dates {
		parts[i] = d.Format("2006-01-02")
	}
	return strings.Join(parts, ",")
}
