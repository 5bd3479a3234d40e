package output

import (
	"time"

	"rotabot/internal/domain/entities"
)

// EventTemplates supplies defaults for materialized events.
type EventTemplates interface {
	// Draft returns the default event for date and slot.
	Draft(date time.Time, slot entities.Slot) entities.EventDraft
	DefaultRoles() []string
}
