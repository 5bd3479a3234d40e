package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rotabot/internal/domain"
	"rotabot/internal/domain/entities"
	"rotabot/internal/ports/output"
)

var _ output.EventRepository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

func (r *EventRepository) EnsureEvents(ctx context.Context, drafts []entities.EventDraft) (int, error) {
	if len(drafts) == 0 {
		return 0, nil
	}
	created := 0
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		created = 0
		roleIDs := make(map[string]int64)
		for _, d := range drafts {
			var id int64
			err := tx.QueryRow(ctx,
				`INSERT INTO events (date, slot, name, time_of_day)
				 VALUES ($1, $2, $3, $4)
				 ON CONFLICT (date, slot) DO NOTHING
				 RETURNING id`,
				dateToPgtype(d.Date), int16(d.Slot), d.Name, d.Time,
			).Scan(&id)
			if errors.Is(err, pgx.ErrNoRows) {
				continue
			}
			if err != nil {
				return fmt.Errorf("insert event %s %s: %w", d.Date.Format(domain.DateLayout), d.Slot, err)
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

func (r *EventRepository) ListByDates(ctx context.Context, dates []time.Time) ([]entities.Event, error) {
	if len(dates) == 0 {
		return nil, nil
	}
	var events []entities.Event
	err := pgx.BeginTxFunc(ctx, r.pool, snapshot, func(tx pgx.Tx) error {
		var err error
		events, err = loadEvents(ctx, tx, "e.date = ANY($1)", datesToPgtype(dates))
		return err
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (r *EventRepository) FindByID(ctx context.Context, id int64) (*entities.Event, error) {
	var ev *entities.Event
	err := pgx.BeginTxFunc(ctx, r.pool, snapshot, func(tx pgx.Tx) error {
		var err error
		ev, err = loadEvent(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func (r *EventRepository) UpdateTime(ctx context.Context, id int64, timeOfDay string) (*entities.Event, error) {
	var ev *entities.Event
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx,
			`UPDATE events SET time_of_day = $1, updated_at = now() WHERE id = $2`,
			timeOfDay, id,
		)
		if err != nil {
			return fmt.Errorf("update event time: %w", err)
		}
		if tag.RowsAffected() == 0 {
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

func (r *EventRepository) AddRole(ctx context.Context, id int64, roleName string) (*entities.Event, bool, error) {
	var (
		ev    *entities.Event
		added bool
	)
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		// Locks the event row so concurrent additions agree on positions.
		var one int
		err := tx.QueryRow(ctx, `SELECT 1 FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("lock event: %w", err)
		}
		roleID, err := ensureRole(ctx, tx, roleName)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx,
			`INSERT INTO event_roles (event_id, role_id, position)
			 SELECT $1, $2, COALESCE(MAX(position) + 1, 0) FROM event_roles WHERE event_id = $1
			 ON CONFLICT (event_id, role_id) DO NOTHING`,
			id, roleID,
		)
		if err != nil {
			return fmt.Errorf("link role: %w", err)
		}
		added = tag.RowsAffected() > 0
		ev, err = loadEvent(ctx, tx, id)
		return err
	})
	if err != nil {
		return nil, false, err
	}
	return ev, added, nil
}

func (r *EventRepository) Delete(ctx context.Context, id int64) (*entities.Event, error) {
	var ev *entities.Event
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var one int
		err := tx.QueryRow(ctx, `SELECT 1 FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("lock event: %w", err)
		}
		ev, err = loadEvent(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM events WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ev, nil
}

func linkRole(ctx context.Context, db DBTX, eventID, roleID int64, position int) error {
	_, err := db.Exec(ctx,
		`INSERT INTO event_roles (event_id, role_id, position) VALUES ($1, $2, $3)
		 ON CONFLICT (event_id, role_id) DO NOTHING`,
		eventID, roleID, int32(position),
	)
	if err != nil {
		return fmt.Errorf("link role: %w", err)
	}
	return nil
}

func loadEvent(ctx context.Context, db DBTX, id int64) (*entities.Event, error) {
	events, err := loadEvents(ctx, db, "e.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, domain.ErrEventNotFound
	}
	return &events[0], nil
}

// loadEvents reads the events matching where (one $1 parameter) with their
// roles and participations. Run it in one transaction for a consistent view.
func loadEvents(ctx context.Context, db DBTX, where string, arg any) ([]entities.Event, error) {
	rows, err := db.Query(ctx,
		`SELECT e.id, e.date, e.slot, e.name, e.time_of_day, e.created_at, e.updated_at
		   FROM events e
		  WHERE `+where+`
		  ORDER BY e.date, e.slot`,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	eventRows, err := pgx.CollectRows(rows, pgx.RowToStructByPos[eventRow])
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	if len(eventRows) == 0 {
		return nil, nil
	}
	events := make([]entities.Event, len(eventRows))
	index := make(map[int64]int, len(eventRows))
	for i, row := range eventRows {
		events[i] = eventToDomain(row)
		index[row.ID] = i
	}

	rows, err = db.Query(ctx,
		`SELECT er.event_id, r.id, r.name
		   FROM event_roles er
		   JOIN roles r ON r.id = er.role_id
		   JOIN events e ON e.id = er.event_id
		  WHERE `+where+`
		  ORDER BY er.event_id, er.position`,
		arg,
	)
	if err != nil {
		return nil, fmt.Errorf("list event roles: %w", err)
	}
	var (
		eventID int64
		role    entities.Role
	)
	_, err = pgx.ForEachRow(rows, []any{&eventID, &role.ID, &role.Name}, func() error {
		if i, ok := index[eventID]; ok {
			events[i].Roles = append(events[i].Roles, role)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list event roles: %w", err)
	}

	participations, err := queryParticipations(ctx, db, where+" ORDER BY e.date, e.slot, p.id", arg)
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
