// Package ical renders a week of events as an iCalendar document.
package ical

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"rotabot/internal/domain"
	"rotabot/internal/domain/entities"
)

// DefaultDuration is the length given to events, which only carry a start.
const DefaultDuration = 90 * time.Minute

// Exporter builds calendars in one timezone.
type Exporter struct {
	Loc      *time.Location
	Duration time.Duration
	// Host makes UIDs globally unique, e.g. the guild id.
	Host string
	// Label renders the localized slot name used in summaries.
	Label func(slot entities.Slot) string
}

// Export returns the VCALENDAR text with one VEVENT per event.
func (x Exporter) Export(events []entities.Event, now time.Time) string {
	loc := x.Loc
	if loc == nil {
		loc = time.UTC
	}
	duration := x.Duration
	if duration <= 0 {
		duration = DefaultDuration
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//rotabot//weekly rota//EN")
	cal.SetXWRTimezone(loc.String())

	for _, ev := range events {
		vev := cal.AddEvent(x.uid(ev))
		vev.SetDtStampTime(now.UTC())
		if !ev.CreatedAt.IsZero() {
			vev.SetCreatedTime(ev.CreatedAt)
		}
		if !ev.UpdatedAt.IsZero() {
			vev.SetModifiedAt(ev.UpdatedAt)
		}
		vev.SetSummary(x.summary(ev))

		if start, ok := startOf(ev, loc); ok {
			vev.SetStartAt(start)
			vev.SetEndAt(start.Add(duration))
		} else {
			// Free-form time: publish as an all-day entry.
			vev.SetAllDayStartAt(ev.Date)
			vev.SetAllDayEndAt(ev.Date.AddDate(0, 0, 1))
		}
		if desc := description(ev); desc != "" {
			vev.SetDescription(desc)
		}
	}
	return cal.Serialize()
}

func (x Exporter) uid(ev entities.Event) string {
	host := x.Host
	if host == "" {
		host = "rotabot"
	}
	return fmt.Sprintf("%s-%s@%s", ev.Date.Format(domain.DateLayout), ev.Slot, host)
}

func (x Exporter) summary(ev entities.Event) string {
	if x.Label == nil {
		return ev.Name
	}
	return ev.Name + " (" + x.Label(ev.Slot) + ")"
}

// startOf combines the civil date with the HH:MM time in loc.
func startOf(ev entities.Event, loc *time.Location) (time.Time, bool) {
	tod, err := time.Parse(domain.TimeOfDayLayout, strings.TrimSpace(ev.Time))
	if err != nil {
		return time.Time{}, false
	}
	y, m, d := ev.Date.Date()
	return time.Date(y, m, d, tod.Hour(), tod.Minute(), 0, 0, loc), true
}

func description(ev entities.Event) string {
	lines := make([]string, 0, len(ev.Participations))
	for _, p := range ev.Participations {
		lines = append(lines, "@"+p.Actor+": "+p.RoleName)
	}
	return strings.Join(lines, "\n")
}
