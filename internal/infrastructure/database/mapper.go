package database

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"rotabot/internal/domain/entities"
)

// pgtypeTimestamptzToTime returns t.Time when Valid, else zero time.
func pgtypeTimestamptzToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

func timeToTimestamptz(t time.Time) pgtype.Timestamptz {
	if t.IsZero() {
		return pgtype.Timestamptz{}
	}
	return pgtype.Timestamptz{Time: t.UTC(), Valid: true}
}

// dateToPgtype keeps only the civil date of d.
func dateToPgtype(d time.Time) pgtype.Date {
	return pgtype.Date{Time: time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC), Valid: true}
}

func pgtypeDateToTime(d pgtype.Date) time.Time {
	if !d.Valid {
		return time.Time{}
	}
	return time.Date(d.Time.Year(), d.Time.Month(), d.Time.Day(), 0, 0, 0, 0, time.UTC)
}

func datesToPgtype(dates []time.Time) []pgtype.Date {
	out := make([]pgtype.Date, len(dates))
	for i, d := range dates {
		out[i] = dateToPgtype(d)
	}
	return out
}

// eventRow mirrors the columns of events.
type eventRow struct {
	ID        int64
	Date      pgtype.Date
	Slot      int16
	Name      string
	TimeOfDay string
	CreatedAt pgtype.Timestamptz
	UpdatedAt pgtype.Timestamptz
}

func eventToDomain(e eventRow) entities.Event {
	return entities.Event{
		ID:        e.ID,
		Date:      pgtypeDateToTime(e.Date),
		Slot:      entities.Slot(e.Slot),
		Name:      e.Name,
		Time:      e.TimeOfDay,
		CreatedAt: pgtypeTimestamptzToTime(e.CreatedAt),
		UpdatedAt: pgtypeTimestamptzToTime(e.UpdatedAt),
	}
}

// participationRow mirrors a participation joined with its event and role.
type participationRow struct {
	ID        int64
	EventID   int64
	RoleID    int64
	Actor     string
	CreatedAt pgtype.Timestamptz
	EventDate pgtype.Date
	EventSlot int16
	EventName string
	EventTime string
	RoleName  string
}

func participationToDomain(p participationRow) entities.Participation {
	return entities.Participation{
		ID:        p.ID,
		EventID:   p.EventID,
		RoleID:    p.RoleID,
		Actor:     p.Actor,
		CreatedAt: pgtypeTimestamptzToTime(p.CreatedAt),
		EventDate: pgtypeDateToTime(p.EventDate),
		EventSlot: entities.Slot(p.EventSlot),
		EventName: p.EventName,
		EventTime: p.EventTime,
		RoleName:  p.RoleName,
	}
}
