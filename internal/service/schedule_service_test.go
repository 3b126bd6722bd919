package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horaplan/backend/internal/models"
	apierrors "github.com/horaplan/backend/internal/pkg/errors"
)

type mockScheduleRepo struct {
	schedules map[uuid.UUID]*models.Schedule
}

func newMockScheduleRepo() *mockScheduleRepo {
	return &mockScheduleRepo{schedules: make(map[uuid.UUID]*models.Schedule)}
}

func (m *mockScheduleRepo) Create(ctx context.Context, schedule *models.Schedule) error {
	if schedule.ID == uuid.Nil {
		schedule.ID = uuid.New()
	}
	if schedule.Events == nil {
		schedule.Events = []byte("[]")
	}
	schedule.CreatedAt = time.Now()
	m.schedules[schedule.ID] = schedule
	return nil
}

func (m *mockScheduleRepo) GetByID(ctx context.Context, ownerID, id uuid.UUID) (*models.Schedule, error) {
	if s, ok := m.schedules[id]; ok && s.OwnerID == ownerID {
		return s, nil
	}
	return nil, nil
}

func (m *mockScheduleRepo) GetActive(ctx context.Context, ownerID uuid.UUID) (*models.Schedule, error) {
	for _, s := range m.schedules {
		if s.OwnerID == ownerID && s.IsActive {
			return s, nil
		}
	}
	return nil, nil
}

func (m *mockScheduleRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]*models.Schedule, error) {
	var result []*models.Schedule
	for _, s := range m.schedules {
		if s.OwnerID == ownerID {
			result = append(result, s)
		}
	}
	return result, nil
}

func (m *mockScheduleRepo) Activate(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	target, ok := m.schedules[id]
	if !ok || target.OwnerID != ownerID {
		return false, nil
	}
	for _, s := range m.schedules {
		if s.OwnerID == ownerID {
			s.IsActive = false
		}
	}
	target.IsActive = true
	return true, nil
}

func (m *mockScheduleRepo) Delete(ctx context.Context, ownerID, id uuid.UUID) (bool, error) {
	if s, ok := m.schedules[id]; ok && s.OwnerID == ownerID {
		delete(m.schedules, id)
		return true, nil
	}
	return false, nil
}

// mockCache is a map-backed Cache.
type mockCache struct {
	values map[string]string
	gets   int
	hits   int
}

func newMockCache() *mockCache {
	return &mockCache{values: make(map[string]string)}
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	m.values[key] = value.(string)
	return nil
}

func (m *mockCache) Get(ctx context.Context, key string) (string, error) {
	m.gets++
	if v, ok := m.values[key]; ok {
		m.hits++
		return v, nil
	}
	return "", nil
}

func (m *mockCache) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		delete(m.values, k)
	}
	return nil
}

func TestScheduleService_EventsRoundTrip(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := NewScheduleService(repo, nil)
	ctx := context.Background()
	ownerID := uuid.New()

	// Extra fields and nesting survive because events are stored raw.
	events := json.RawMessage(`[{"title":"Gym","start":"2024-01-01T08:00:00","end":"2024-01-01T09:00:00","category":"exercise","notes":{"reps":12}}]`)

	created, err := svc.Create(ctx, CreateScheduleRequest{
		OwnerID: ownerID,
		Name:    "My ideal week",
		Events:  events,
	})
	require.NoError(t, err)

	fetched, err := svc.Get(ctx, ownerID, created.ID)
	require.NoError(t, err)
	assert.JSONEq(t, string(events), string(fetched.Events))
}

func TestScheduleService_CrossUserAccessIsNotFound(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := NewScheduleService(repo, nil)
	ctx := context.Background()

	ownerA := uuid.New()
	ownerB := uuid.New()

	created, err := svc.Create(ctx, CreateScheduleRequest{OwnerID: ownerA, Name: "Week A"})
	require.NoError(t, err)

	_, err = svc.Get(ctx, ownerB, created.ID)
	require.Error(t, err)
	assert.Equal(t, 404, apierrors.AsAPIError(err).StatusCode)

	err = svc.Delete(ctx, ownerB, created.ID)
	require.Error(t, err)
	assert.Equal(t, 404, apierrors.AsAPIError(err).StatusCode)
}

func TestScheduleService_ActivateIsExclusive(t *testing.T) {
	repo := newMockScheduleRepo()
	svc := NewScheduleService(repo, nil)
	ctx := context.Background()
	ownerID := uuid.New()

	first, err := svc.Create(ctx, CreateScheduleRequest{OwnerID: ownerID, Name: "First"})
	require.NoError(t, err)
	second, err := svc.Create(ctx, CreateScheduleRequest{OwnerID: ownerID, Name: "Second"})
	require.NoError(t, err)

	_, err = svc.Activate(ctx, ownerID, first.ID)
	require.NoError(t, err)
	_, err = svc.Activate(ctx, ownerID, second.ID)
	require.NoError(t, err)

	active, err := svc.GetActive(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	// Only one schedule may be active.
	all, err := svc.List(ctx, ownerID)
	require.NoError(t, err)
	activeCount := 0
	for _, s := range all {
		if s.IsActive {
			activeCount++
		}
	}
	assert.Equal(t, 1, activeCount)
}

func TestScheduleService_GetActive_NoneIsNotFound(t *testing.T) {
	svc := NewScheduleService(newMockScheduleRepo(), nil)

	_, err := svc.GetActive(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Equal(t, 404, apierrors.AsAPIError(err).StatusCode)
}

func TestScheduleService_ActiveScheduleCache(t *testing.T) {
	repo := newMockScheduleRepo()
	cache := newMockCache()
	svc := NewScheduleService(repo, cache)
	ctx := context.Background()
	ownerID := uuid.New()

	created, err := svc.Create(ctx, CreateScheduleRequest{OwnerID: ownerID, Name: "Cached week"})
	require.NoError(t, err)
	_, err = svc.Activate(ctx, ownerID, created.ID)
	require.NoError(t, err)

	// First read fills the cache, second is served from it.
	_, err = svc.GetActive(ctx, ownerID)
	require.NoError(t, err)
	fromCache, err := svc.GetActive(ctx, ownerID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fromCache.ID)
	assert.GreaterOrEqual(t, cache.hits, 1)

	// Deleting invalidates.
	require.NoError(t, svc.Delete(ctx, ownerID, created.ID))
	_, err = svc.GetActive(ctx, ownerID)
	assert.Error(t, err)
}
