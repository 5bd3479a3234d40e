package application

import (
	"strings"
	"time"

	"rotabot/internal/domain/calendar"
	"rotabot/internal/domain/entities"
)

// RenderSchedule renders the weekly report: one header per date that has
// events, one line per slot, and "@actor: role" lines under claimed slots.
func RenderSchedule(l Labels, locale string, dates []time.Time, events []entities.Event) string {
	var lines []string
	for _, day := range dates {
		var dayLines []string
		for _, slot := range entities.Slots {
			ev := findEvent(events, day, slot)
			if ev == nil {
				continue
			}
			slotLine := "  - " + l.Slot(locale, ev.Slot, ev.Time)
			if len(ev.Participations) == 0 {
				dayLines = append(dayLines, slotLine)
				continue
			}
			dayLines = append(dayLines, slotLine+":")
			for _, p := range ev.Participations {
				dayLines = append(dayLines, "      - @"+p.Actor+": "+p.RoleName)
			}
		}
		if len(dayLines) > 0 {
			lines = append(lines, l.Date(locale, day))
			lines = append(lines, dayLines...)
		}
	}
	if len(lines) == 0 {
		return l.T(locale, "schedule.empty", nil)
	}
	return strings.Join(lines, "\n")
}

func findEvent(events []entities.Event, day time.Time, slot entities.Slot) *entities.Event {
	for i := range events {
		if events[i].Slot == slot && calendar.SameDay(events[i].Date, day) {
			return &events[i]
		}
	}
	return nil
}
