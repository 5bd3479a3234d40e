package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"rotabot/internal/domain"
	"rotabot/internal/domain/entities"
	"rotabot/internal/ports/output"
)

var _ output.EventRepository = (*eventRepository)(nil)

type eventRepository struct {
	db     *sql.DB
	reader *sql.DB
}

func (r *eventRepository) EnsureEvents(ctx context.Context, drafts []entities.EventDraft) (int, error) {
	if len(drafts) == 0 {
		return 0, nil
	}
	created := 0
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		created = 0
		roleIDs := make(map[string]int64)
		now := toMillis(time.Now())
		for _, d := range drafts {
			var id int64
			err := tx.QueryRowContext(ctx,
				`INSERT INTO events (date, slot, name, time_of_day, created_at, updated_at)
				 VALUES (?, ?, ?, ?, ?, ?)
				 ON CONFLICT (date, slot) DO NOTHING
				 RETURNING id`,
				toDate(d.Date), int(d.Slot), d.Name, d.Time, now, now,
			).Scan(&id)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return fmt.Errorf("insert event %s %s: %w", toDate(d.Date), d.Slot, err)
			}
			for pos, name := range d.Roles {
				roleID, ok := roleIDs[name]
				if !ok {
					roleID, err = ensureRole(ctx, tx, name)
					if err != nil {
						return err
					}
					roleIDs[name] = roleID
				}
				if err := linkRole(ctx, tx, id, roleID, pos); err != nil {
					return err
				}
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}

func (r *eventRepository) ListByDates(ctx context.Context, dates []time.Time) ([]entities.Event, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	var events []entities.Event
	err := inTx(ctx, r.reader, func(tx *sql.Tx) error {
		var err error
		events, err = loadEvents(ctx, tx, "e.date IN ("+placeholders(len(dates))+")", dateArgs(dates)...)
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *eventRepository) FindByID(ctx context.Context, id int64) (*entities.Event, error) {
	var ev *entities.Event
	err := inTx(ctx, r.reader, func(tx *sql.Tx) error {
		var err error
		ev, err = loadEvent(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *eventRepository) UpdateTime(ctx context.Context, id int64, timeOfDay string) (*entities.Event, error) {
	var ev *entities.Event
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE events SET time_of_day = ?, updated_at = ? WHERE id = ?`,
			timeOfDay, toMillis(time.Now()), id,
		)
		if err != nil {
			return fmt.Errorf("update event time: %w", err)
		}
		if n, err := res.RowsAffected(); err != nil {
			return fmt.Errorf("update event time: %w", err)
		} else if n == 0 {
			return domain.ErrEventNotFound
		}
		ev, err = loadEvent(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *eventRepository) AddRole(ctx context.Context, id int64, roleName string) (*entities.Event, bool, error) {
	var (
		ev    *entities.Event
		added bool
	)
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := eventExists(ctx, tx, id); err != nil {
			return err
		}
		roleID, err := ensureRole(ctx, tx, roleName)
		if err != nil {
			return err
		}
		res, err := tx.ExecContext(ctx,
			`INSERT INTO event_roles (event_id, role_id, position)
			 SELECT ?, ?, COALESCE(MAX(position) + 1, 0) FROM event_roles WHERE event_id = ?
			 ON CONFLICT (event_id, role_id) DO NOTHING`,
			id, roleID, id,
		)
		if err != nil {
			return fmt.Errorf("link role: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("link role: %w", err)
		}
		added = n > 0
		ev, err = loadEvent(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return ev, added, nil
}

func (r *eventRepository) Delete(ctx context.Context, id int64) (*entities.Event, error) {
	var ev *entities.Event
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		ev, err = loadEvent(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func eventExists(ctx context.Context, q querier, id int64) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM events WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrEventNotFound
	}
	if err != nil {
		return fmt.Errorf("check event: %w", err)
	}
	return nil
}

func linkRole(ctx context.Context, q querier, eventID, roleID int64, position int) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO event_roles (event_id, role_id, position) VALUES (?, ?, ?)
		 ON CONFLICT (event_id, role_id) DO NOTHING`,
		eventID, roleID, position,
	)
	if err != nil {
		return fmt.Errorf("link role: %w", err)
	}
	return nil
}

func loadEvent(ctx context.Context, q querier, id int64) (*entities.Event, error) {
	events, err := loadEvents(ctx, q, "e.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, domain.ErrEventNotFound
	}
	return &events[0], nil
}

// loadEvents reads the events matching where together with their roles and
// participations. Callers run it inside a transaction so the three reads see
// the same state.
func loadEvents(ctx context.Context, q querier, where string, args ...any) ([]entities.Event, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT e.id, e.date, e.slot, e.name, e.time_of_day, e.created_at, e.updated_at
		   FROM events e
		  WHERE `+where+`
		  ORDER BY e.date, e.slot`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	var events []entities.Event
	index := make(map[int64]int)
	for rows.Next() {
		var (
			ev                   entities.Event
			date                 string
			slot                 int
			createdAt, updatedAt int64
		)
		if err := rows.Scan(&ev.ID, &date, &slot, &ev.Name, &ev.Time, &createdAt, &updatedAt); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan event: %w", err)
		}
		if ev.Date, err = fromDate(date); err != nil {
			rows.Close()
			return nil, err
		}
		ev.Slot = entities.Slot(slot)
		ev.CreatedAt = fromMillis(createdAt)
		ev.UpdatedAt = fromMillis(updatedAt)
		index[ev.ID] = len(events)
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list events: %w", err)
	}
	rows.Close()
	if len(events) == 0 {
		return nil, nil
	}

	rows, err = q.QueryContext(ctx,
		`SELECT er.event_id, r.id, r.name
		   FROM event_roles er
		   JOIN roles r ON r.id = er.role_id
		   JOIN events e ON e.id = er.event_id
		  WHERE `+where+`
		  ORDER BY er.event_id, er.position`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list event roles: %w", err)
	}
	for rows.Next() {
		var eventID int64
		var role entities.Role
		if err := rows.Scan(&eventID, &role.ID, &role.Name); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan event role: %w", err)
		}
		if i, ok := index[eventID]; ok {
			events[i].Roles = append(events[i].Roles, role)
		}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list event roles: %w", err)
	}
	rows.Close()

	participations, err := queryParticipations(ctx, q, where+" ORDER BY e.date, e.slot, p.id", args...)
	if err != nil {
		return nil, err
	}
	for _, p := range participations {
		if i, ok := index[p.EventID]; ok {
			events[i].Participations = append(events[i].Participations, p)
		}
	}
	return events, nil
}
