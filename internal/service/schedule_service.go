package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/horaplan/backend/internal/models"
	apierrors "github.com/horaplan/backend/internal/pkg/errors"
	"github.com/horaplan/backend/internal/repository"
)

// ScheduleService defines owner-scoped saved-schedule operations.
type ScheduleService interface {
	Create(ctx context.Context, req CreateScheduleRequest) (*models.Schedule, error)
	Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Schedule, error)
	GetActive(ctx context.Context, ownerID uuid.UUID) (*models.Schedule, error)
	List(ctx context.Context, ownerID uuid.UUID) ([]*models.Schedule, error)
	Activate(ctx context.Context, ownerID, id uuid.UUID) (*models.Schedule, error)
	Delete(ctx context.Context, ownerID, id uuid.UUID) error
}

// CreateScheduleRequest carries the fields for saving a schedule. Events are
// kept raw so they round-trip byte-for-byte.
type CreateScheduleRequest struct {
	OwnerID uuid.UUID       `json:"-"`
	Name    string          `json:"name" validate:"required,min=1,max=200"`
	Events  json.RawMessage `json:"events"`
}

// Cache is the subset of the Redis wrapper the schedule service uses to
// keep the active schedule warm. Failures are tolerated; Redis being down
// only costs a database read.
type Cache interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Delete(ctx context.Context, keys ...string) error
}

const activeScheduleTTL = 5 * time.Minute

type scheduleService struct {
	scheduleRepo repository.ScheduleRepository
	cache        Cache
}

// NewScheduleService creates a new schedule service. cache may be nil.
func NewScheduleService(scheduleRepo repository.ScheduleRepository, cache Cache) ScheduleService {
	return &scheduleService{scheduleRepo: scheduleRepo, cache: cache}
}

func activeScheduleKey(ownerID uuid.UUID) string {
	return "schedule:active:" + ownerID.String()
}

// Create saves a new schedule.
func (s *scheduleService) Create(ctx context.Context, req CreateScheduleRequest) (*models.Schedule, error) {
	schedule := &models.Schedule{
		OwnerID: req.OwnerID,
		Name:    req.Name,
		Events:  req.Events,
	}
	if err := s.scheduleRepo.Create(ctx, schedule); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}
	return schedule, nil
}

// Get retrieves one schedule.
func (s *scheduleService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Schedule, error) {
	schedule, err := s.scheduleRepo.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	if schedule == nil {
		return nil, apierrors.NewNotFoundError("Schedule")
	}
	return schedule, nil
}

// GetActive retrieves the user's active schedule, consulting the cache
// first.
func (s *scheduleService) GetActive(ctx context.Context, ownerID uuid.UUID) (*models.Schedule, error) {
	if s.cache != nil {
		if cached, err := s.cache.Get(ctx, activeScheduleKey(ownerID)); err == nil && cached != "" {
			var schedule models.Schedule
			if json.Unmarshal([]byte(cached), &schedule) == nil {
				return &schedule, nil
			}
		}
	}

	schedule, err := s.scheduleRepo.GetActive(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to get active schedule: %w", err)
	}
	if schedule == nil {
		return nil, apierrors.NewNotFoundError("Active schedule")
	}

	if s.cache != nil {
		if encoded, err := json.Marshal(schedule); err == nil {
			_ = s.cache.Set(ctx, activeScheduleKey(ownerID), string(encoded), activeScheduleTTL)
		}
	}
	return schedule, nil
}

// List returns all of the user's schedules.
func (s *scheduleService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Schedule, error) {
	schedules, err := s.scheduleRepo.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return schedules, nil
}

// Activate makes the given schedule the user's single active one.
func (s *scheduleService) Activate(ctx context.Context, ownerID, id uuid.UUID) (*models.Schedule, error) {
	activated, err := s.scheduleRepo.Activate(ctx, ownerID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to activate schedule: %w", err)
	}
	if !activated {
		return nil, apierrors.NewNotFoundError("Schedule")
	}
	s.invalidate(ctx, ownerID)
	return s.Get(ctx, ownerID, id)
}

// Delete removes a schedule.
func (s *scheduleService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	deleted, err := s.scheduleRepo.Delete(ctx, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
	}
	if !deleted {
		return apierrors.NewNotFoundError("Schedule")
	}
	s.invalidate(ctx, ownerID)
	return nil
}

func (s *scheduleService) invalidate(ctx context.Context, ownerID uuid.UUID) {
	if s.cache != nil {
		_ = s.cache.Delete(ctx, activeScheduleKey(ownerID))
	}
}
