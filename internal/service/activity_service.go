package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/horaplan/backend/internal/models"
	apierrors "github.com/horaplan/backend/internal/pkg/errors"
	"github.com/horaplan/backend/internal/repository"
)

// ActivityService defines owner-scoped activity operations. A resource
// owned by somebody else looks exactly like a missing one: not found.
type ActivityService interface {
	Create(ctx context.Context, req CreateActivityRequest) (*models.Activity, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*models.Activity, error)
	Update(ctx context.Context, ownerID, id uuid.UUID, req CreateActivityRequest) (*models.Activity, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// CreateActivityRequest carries the fields for creating or replacing an
// activity.
type CreateActivityRequest struct {
	OwnerID         uuid.UUID `json:"-"`
	Name            string    `json:"name" validate:"required,min=1,max=200"`
	DurationMinutes int       `json:"duration_minutes" validate:"required,min=1,max=1440"`
	Priority        string    `json:"priority" validate:"required"`
	Frequency       *string   `json:"frequency,omitempty"`
	Category        string    `json:"category"`
}

type activityService struct {
	activityRepo repository.ActivityRepository
}

// NewActivityService creates a new activity service.
func NewActivityService(activityRepo repository.ActivityRepository) ActivityService {
	return &activityService{activityRepo: activityRepo}
}

// Create stores a new activity for the owner.
func (s *activityService) Create(ctx context.Context, req CreateActivityRequest) (*models.Activity, error) {
	category := req.Category
	if category == "" {
		category = "general"
	}

	activity := &models.Activity{
		OwnerID:         req.OwnerID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Priority:        req.Priority,
		Frequency:       req.Frequency,
		Category:        category,
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		return nil, fmt.Errorf("failed to create activity: %w", err)
	}
	return activity, nil
}

// List returns all of the owner's activities.
func (s *activityService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Activity, error) {
	activities, err := s.activityRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	return activities, nil
}

// Update replaces an activity's fields.
func (s *activityService) Update(ctx context.Context, ownerID, id uuid.UUID, req CreateActivityRequest) (*models.Activity, error) {
	category := req.Category
	if category == "" {
		category = "general"
	}

	activity := &models.Activity{
		ID:              id,
		OwnerID:         ownerID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Priority:        req.Priority,
		Frequency:       req.Frequency,
		Category:        category,
	}
	updated, err := s.activityRepo.Update(ctx, activity)
	if err != nil {
		return nil, fmt.Errorf("failed to update activity: %w", err)
	}
	if !updated {
		return nil, apierrors.NewNotFoundError("Activity")
	}
	return activity, nil
}

// Delete removes an activity.
func (s *activityService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	deleted, err := s.activityRepo.Delete(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete activity: %w", err)
	}
	if !deleted {
		return apierrors.NewNotFoundError("Activity")
	}
	return nil
}
