package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/horaplan/backend/internal/models"
)

// ScheduleRepository defines the interface for saved-schedule data operations.
type ScheduleRepository interface {
	Create(ctx context.Context, schedule *models.Schedule) error
	GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Schedule, error)
	GetActive(ctx context.Context, ownerID uuid.UUID) (*models.Schedule, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Schedule, error)
	Activate(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
}

type scheduleRepo struct {
	pool *pgxpool.Pool
}

// NewScheduleRepository creates a new schedule repository.
func NewScheduleRepository(pool *pgxpool.Pool) ScheduleRepository {
	return &scheduleRepo{pool: pool}
}

// Create inserts a new schedule. Events are stored verbatim as JSONB.
func (r *scheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	query := `
		INSERT INTO schedules (id, owner_id, name, events, is_active)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`

	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	if schedule.Events == nil {
		schedule.Events = []byte("[]")
	}

	return r.pool.QueryRow(ctx, query,
		schedule.ID,
		schedule.OwnerID,
		schedule.Name,
		[]byte(schedule.Events),
		schedule.IsActive,
	).Scan(&schedule.CreatedAt)
}

// GetByID retrieves a schedule owned by the given user.
func (r *scheduleRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Schedule, error) {
	query := `
		SELECT id, owner_id, name, events, is_active, created_at
		FROM schedules WHERE id = $1 AND owner_id = $2`

	return r.scanOne(r.pool.QueryRow(ctx, query, id, ownerID))
}

// GetActive retrieves the schedule currently marked active for the user.
func (r *scheduleRepo) GetActive(ctx context.Context, ownerID uuid.UUID) (*models.Schedule, error) {
	query := `
		SELECT id, owner_id, name, events, is_active, created_at
		FROM schedules WHERE owner_id = $1 AND is_active`

	return r.scanOne(r.pool.QueryRow(ctx, query, ownerID))
}

func (r *scheduleRepo) scanOne(row pgx.Row) (*models.Schedule, error) {
	var schedule models.Schedule
	var events []byte
	err := row.Scan(
		&schedule.ID,
		&schedule.OwnerID,
		&schedule.Name,
		&events,
		&schedule.IsActive,
		&schedule.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	schedule.Events = events
	return &schedule, nil
}

// ListByOwner retrieves all schedules owned by the given user,
// newest first.
func (r *scheduleRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Schedule, error) {
	query := `
		SELECT id, owner_id, name, events, is_active, created_at
		FROM schedules WHERE owner_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var schedules []*models.Schedule
	for rows.Next() {
		var schedule models.Schedule
		var events []byte
		if err := rows.Scan(
			&schedule.ID,
			&schedule.OwnerID,
			&schedule.Name,
			&events,
			&schedule.IsActive,
			&schedule.CreatedAt,
		); err != nil {
			return nil, err
		}
		schedule.Events = events
		schedules = append(schedules, &schedule)
	}
	return schedules, rows.Err()
}

// Activate marks the given schedule active and clears the flag on every
// other schedule the user owns, in one transaction. Returns false when the
// schedule does not exist for this owner.
func (r *scheduleRepo) Activate(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE schedules SET is_active = false WHERE owner_id = $1 AND is_active`, ownerID); err != nil {
		return false, err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE schedules SET is_active = true WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, err
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	return true, tx.Commit(ctx)
}

// Delete removes a schedule owned by the given user. Returns false when no
// row matched.
func (r *scheduleRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM schedules WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
