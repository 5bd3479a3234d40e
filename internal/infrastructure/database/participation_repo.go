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

var _ output.ParticipationRepository = (*ParticipationRepository)(nil)

// ParticipationRepository implements output.ParticipationRepository using pgx.
type ParticipationRepository struct {
	pool *pgxpool.Pool
}

// NewParticipationRepository creates a ParticipationRepository.
func NewParticipationRepository(pool *pgxpool.Pool) *ParticipationRepository {
	return &ParticipationRepository{pool: pool}
}

// Create inserts the claim unless it exists. The event row is share-locked so
// it cannot be deleted mid-signup; the role link is enforced by the
// participations_event_role_fkey constraint.
func (r *ParticipationRepository) Create(ctx context.Context, eventID, roleID int64, actor string, at time.Time) (entities.Participation, bool, error) {
	var (
		p       entities.Participation
		created bool
	)
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var one int
		err := tx.QueryRow(ctx, `SELECT 1 FROM events WHERE id = $1 FOR SHARE`, eventID).Scan(&one)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("check event: %w", err)
		}

		var id int64
		err = tx.QueryRow(ctx,
			`INSERT INTO participations (event_id, role_id, actor, created_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (event_id, role_id, actor) DO NOTHING
			 RETURNING id`,
			eventID, roleID, actor, timeToTimestamptz(at),
		).Scan(&id)
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			created = false
			err = tx.QueryRow(ctx,
				`SELECT id FROM participations WHERE event_id = $1 AND role_id = $2 AND actor = $3`,
				eventID, roleID, actor,
			).Scan(&id)
			if err != nil {
				return fmt.Errorf("get existing participation: %w", err)
			}
		case isConstraintViolation(err, sqlStateForeignKeyViolation, "participations_event_role_fkey"):
			return domain.ErrRoleNotFound
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

func (r *ParticipationRepository) FindByID(ctx context.Context, id int64) (*entities.Participation, error) {
	return findParticipation(ctx, r.pool, id)
}

func (r *ParticipationRepository) Delete(ctx context.Context, id int64) (*entities.Participation, error) {
	var p *entities.Participation
	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		var err error
		p, err = findParticipation(ctx, tx, id)
		if err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM participations WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete participation: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrParticipationNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ParticipationRepository) ListByActorFrom(ctx context.Context, actor string, from time.Time) ([]entities.Participation, error) {
	return queryParticipations(ctx, r.pool,
		"p.actor = $1 AND e.date >= $2 ORDER BY e.date, e.slot, p.id",
		actor, dateToPgtype(from),
	)
}

// DeleteByActorFrom deletes and returns the rows in one statement.
func (r *ParticipationRepository) DeleteByActorFrom(ctx context.Context, actor string, from time.Time) ([]entities.Participation, error) {
	rows, err := r.pool.Query(ctx,
		`WITH removed AS (
		     DELETE FROM participations p
		      USING events e
		      WHERE e.id = p.event_id AND p.actor = $1 AND e.date >= $2
		  RETURNING p.id, p.event_id, p.role_id, p.actor, p.created_at,
		            e.date, e.slot, e.name, e.time_of_day
		 )
		 SELECT rm.*, r.name
		   FROM removed rm
		   JOIN roles r ON r.id = rm.role_id
		  ORDER BY rm.date, rm.slot, rm.id`,
		actor, dateToPgtype(from),
	)
	if err != nil {
		return nil, fmt.Errorf("delete participations: %w", err)
	}
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[participationRow])
	if err != nil {
		return nil, fmt.Errorf("delete participations: %w", err)
	}
	out := make([]entities.Participation, len(list))
	for i := range list {
		out[i] = participationToDomain(list[i])
	}
	return out, nil
}

func findParticipation(ctx context.Context, db DBTX, id int64) (*entities.Participation, error) {
	list, err := queryParticipations(ctx, db, "p.id = $1", id)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, domain.ErrParticipationNotFound
	}
	return &list[0], nil
}

// queryParticipations reads participations joined with their event and role.
// tail follows WHERE and may carry an ORDER BY.
func queryParticipations(ctx context.Context, db DBTX, tail string, args ...any) ([]entities.Participation, error) {
	rows, err := db.Query(ctx,
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
	list, err := pgx.CollectRows(rows, pgx.RowToStructByPos[participationRow])
	if err != nil {
		return nil, fmt.Errorf("list participations: %w", err)
	}
	out := make([]entities.Participation, len(list))
	for i := range list {
		out[i] = participationToDomain(list[i])
	}
	return out, nil
}
