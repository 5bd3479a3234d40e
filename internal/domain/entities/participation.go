package entities

import "time"

// Participation is one actor's claim of one role in one event.
// The Event* and RoleName fields are a read-side projection filled by storage.
type Participation struct {
	ID        int64
	EventID   int64
	RoleID    int64
	Actor     string
	CreatedAt time.Time

	EventDate time.Time
	EventSlot Slot
	EventName string
	EventTime string
	RoleName  string
}
