package entities

import "time"

// Event is one (date, slot) occurrence of the weekly schedule.
type Event struct {
	ID             int64
	Date           time.Time // civil date at 00:00 UTC
	Slot           Slot
	Name           string
	Time           string // time of day as displayed, e.g. "08:00"
	Roles          []Role
	Participations []Participation
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// HasRole reports whether roleID belongs to the event's role set.
func (e *Event) HasRole(roleID int64) bool {
	for _, r := range e.Roles {
		if r.ID == roleID {
			return true
		}
	}
	return false
}

// EventDraft describes an event to materialize if its (date, slot) is free.
type EventDraft struct {
	Date  time.Time
	Slot  Slot
	Name  string
	Time  string
	Roles []string
}
