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

var _ output.ParticipationRepository = (*participationRepository)(nil)

type participationRepository struct {
	db *sql.DB
}

func (r *participationRepository) Create(ctx context.Context, eventID, roleID int64, actor string, at time.Time) (entities.Participation, bool, error) {
	var (
		p       entities.Participation
		created bool
	)
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		if err := eventExists(ctx, tx, eventID); err != nil {
			return err
		}
		var one int
		err := tx.QueryRowContext(ctx,
			`SELECT 1 FROM event_roles WHERE event_id = ? AND role_id = ?`, eventID, roleID,
		).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrRoleNotFound
		}
		if err != nil {
			return fmt.Errorf("check event role: %w", err)
		}

		var id int64
		err = tx.QueryRowContext(ctx,
			`INSERT INTO participations (event_id, role_id, actor, created_at)
			 VALUES (?, ?, ?, ?)
			 ON CONFLICT (event_id, role_id, actor) DO NOTHING
			 RETURNING id`,
			eventID, roleID, actor, toMillis(at),
		).Scan(&id)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			created = false
			err = tx.QueryRowContext(ctx,
				`SELECT id FROM participations WHERE event_id = ? AND role_id = ? AND actor = ?`,
				eventID, roleID, actor,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("get existing participation: %w", err)
			}
		case err != nil:
			return fmt.Errorf("insert participation: %w", err)
		default:
			created = true
		}

		found, err := findParticipation(ctx, tx, id)
		if err != nil {
			return err
		}
		p = *found
		return nil
	})
	if err != nil {
		return entities.Participation{}, false, err
	}
	return p, created, nil
}

func (r *participationRepository) FindByID(ctx context.Context, id int64) (*entities.Participation, error) {
	return findParticipation(ctx, r.db, id)
}

func (r *participationRepository) Delete(ctx context.Context, id int64) (*entities.Participation, error) {
	var p *entities.Participation
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		p, err = findParticipation(ctx, tx, id)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM participations WHERE id = ?`, id); err != nil {
			return fmt.Errorf("delete participation: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *participationRepository) ListByActorFrom(ctx context.Context, actor string, from time.Time) ([]entities.Participation, error) {
	return queryParticipations(ctx, r.db,
		"p.actor = ? AND e.date >= ? ORDER BY e.date, e.slot, p.id",
		actor, toDate(from),
	)
}

func (r *participationRepository) DeleteByActorFrom(ctx context.Context, actor string, from time.Time) ([]entities.Participation, error) {
	var removed []entities.Participation
	err := inTx(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		removed, err = queryParticipations(ctx, tx,
			"p.actor = ? AND e.date >= ? ORDER BY e.date, e.slot, p.id",
			actor, toDate(from),
		)
		if err != nil || len(removed) == 0 {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM participations
			  WHERE actor = ?
			    AND event_id IN (SELECT id FROM events WHERE date >= ?)`,
			actor, toDate(from),
		); err != nil {
			return fmt.Errorf("delete participations: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return removed, nil
}

func findParticipation(ctx context.Context, q querier, id int64) (*entities.Participation, error) {
	list, err := queryParticipations(ctx, q, "p.id = ?", id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrParticipationNotFound
	}
	return &list[0], nil
}

// queryParticipations reads participations joined with their event and role.
// tail is appended after WHERE and may carry an ORDER BY.
func queryParticipations(ctx context.Context, q querier, tail string, args ...any) ([]entities.Participation, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT p.id, p.event_id, p.role_id, p.actor, p.created_at,
		        e.date, e.slot, e.name, e.time_of_day, r.name
		   FROM participations p
		   JOIN events e ON e.id = p.event_id
		   JOIN roles r ON r.id = p.role_id
		  WHERE `+tail,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	defer rows.Close()

	var out []entities.Participation
	for rows.Next() {
		var (
			p         entities.Participation
			createdAt int64
			date      string
			slot      int
		)
		if err := rows.Scan(&p.ID, &p.EventID, &p.RoleID, &p.Actor, &createdAt,
			&date, &slot, &p.EventName, &p.EventTime, &p.RoleName); err != nil {
			return nil, fmt.Errorf("scan participation: %w", err)
		}
		if p.EventDate, err = fromDate(date); err != nil {
			return nil, err
		}
		p.CreatedAt = fromMillis(createdAt)
		p.EventSlot = entities.Slot(slot)
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	return out, nil
}
