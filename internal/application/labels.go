package application

import (
	"strings"
	"time"

	"rotabot/internal/domain/entities"
	"rotabot/internal/ports/output"
)

// Labels renders dates, slots and change summaries through the translator.
type Labels struct {
	t output.T
}

func NewLabels(t output.T) Labels {
	return Labels{t: t}
}

// Date renders "Monday, 12 Oct".
func (l Labels) Date(locale string, d time.Time) string {
	return l.t.T(locale, "date.label", map[string]any{
		"Weekday": l.t.T(locale, "weekday."+strings.ToLower(d.Weekday().String()), nil),
		"Day":     d.Day(),
		"Month":   l.t.T(locale, "month."+strings.ToLower(d.Month().String()), nil),
	})
}

// Slot renders "Morning (08:00)".
func (l Labels) Slot(locale string, slot entities.Slot, timeOfDay string) string {
	return l.t.T(locale, "slot.label", map[string]any{
		"Slot": l.t.T(locale, "slot."+slot.String(), nil),
		"Time": timeOfDay,
	})
}

// Event renders "Monday, 12 Oct, Morning (08:00)".
func (l Labels) Event(locale string, e *entities.Event) string {
	return l.Date(locale, e.Date) + ", " + l.Slot(locale, e.Slot, e.Time)
}

// Participation renders the event and role of a claim on one line.
func (l Labels) Participation(locale string, p entities.Participation) string {
	return l.t.T(locale, "participation.label", map[string]any{
		"Date": l.Date(locale, p.EventDate),
		"Slot": l.Slot(locale, p.EventSlot, p.EventTime),
		"Role": p.RoleName,
	})
}

// Change renders a notification for a participation change; key selects the
// verb (notify.signup or notify.cancel).
func (l Labels) Change(locale, key string, p entities.Participation) string {
	return l.t.T(locale, key, map[string]any{
		"Actor": p.Actor,
		"Date":  l.Date(locale, p.EventDate),
		"Slot":  l.Slot(locale, p.EventSlot, p.EventTime),
		"Role":  p.RoleName,
	})
}

// T exposes the underlying translator.
func (l Labels) T(locale, key string, data map[string]any) string {
	return l.t.T(locale, key, data)
}
