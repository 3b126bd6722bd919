package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/horaplan/backend/internal/models"
)

// ActivityRepository defines the interface for activity data operations.
// Every read and write is scoped to the owning user.
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Activity, error)
	Update(ctx context.Context, activity *models.Activity) (bool, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error)
}

type activityRepo struct {
	pool *pgxpool.Pool
}

// NewActivityRepository creates a new activity repository.
func NewActivityRepository(pool *pgxpool.Pool) ActivityRepository {
	return &activityRepo{pool: pool}
}

// Create inserts a new activity into the database.
func (r *activityRepo) Create(ctx context.Context, activity *models.Activity) error {
	query := `
		INSERT INTO activities (id, owner_id, name, duration_minutes, priority, frequency, category)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`

	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}

	return r.pool.QueryRow(ctx, query,
		activity.ID,
		activity.OwnerID,
		activity.Name,
		activity.DurationMinutes,
		activity.Priority,
		activity.Frequency,
		activity.Category,
	).Scan(&activity.CreatedAt, &activity.UpdatedAt)
}

// ListByOwner retrieves all activities owned by the given user.
func (r *activityRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Activity, error) {
	query := `
		SELECT id, owner_id, name, duration_minutes, priority, frequency, category, created_at, updated_at
		FROM activities WHERE owner_id = $1
		ORDER BY created_at`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		var activity models.Activity
		if err := rows.Scan(
			&activity.ID,
			&activity.OwnerID,
			&activity.Name,
			&activity.DurationMinutes,
			&activity.Priority,
			&activity.Frequency,
			&activity.Category,
			&activity.CreatedAt,
			&activity.UpdatedAt,
		); err != nil {
			return nil, err
		}
		activities = append(activities, &activity)
	}
	return activities, rows.Err()
}

// Update persists changes to an activity. Returns false when no row matched
// the id + owner pair.
func (r *activityRepo) Update(ctx context.Context, activity *models.Activity) (bool, error) {
	query := `
		UPDATE activities
		SET name = $3, duration_minutes = $4, priority = $5, frequency = $6, category = $7, updated_at = now()
		WHERE id = $1 AND owner_id = $2
		RETURNING updated_at`

	err := r.pool.QueryRow(ctx, query,
		activity.ID,
		activity.OwnerID,
		activity.Name,
		activity.DurationMinutes,
		activity.Priority,
		activity.Frequency,
		activity.Category,
	).Scan(&activity.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes an activity owned by the given user. Returns false when no
// row matched.
func (r *activityRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM activities WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}
