package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"

	"github.com/horaplan/backend/internal/models"
	apierrors "github.com/horaplan/backend/internal/pkg/errors"
	"github.com/horaplan/backend/internal/service"
)

// mockScheduleService is a mock implementation of ScheduleService for testing.
type mockScheduleService struct {
	createFunc    func(ctx context.Context, req service.CreateScheduleRequest) (*models.Schedule, error)
	getFunc       func(ctx context.Context, ownerID, id uuid.UUID) (*models.Schedule, error)
	getActiveFunc func(ctx context.Context, ownerID uuid.UUID) (*models.Schedule, error)
	listFunc      func(ctx context.Context, ownerID uuid.UUID) ([]*models.Schedule, error)
	activateFunc  func(ctx context.Context, ownerID, id uuid.UUID) (*models.Schedule, error)
	deleteFunc    func(ctx context.Context, ownerID, id uuid.UUID) error
}

func (m *mockScheduleService) Create(ctx context.Context, req service.CreateScheduleRequest) (*models.Schedule, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, req)
	}
	return nil, nil
}

func (m *mockScheduleService) Get(ctx context.Context, ownerID, id uuid.UUID) (*models.Schedule, error) {
	if m.getFunc != nil {
		return m.getFunc(ctx, ownerID, id)
	}
	return nil, nil
}

func (m *mockScheduleService) GetActive(ctx context.Context, ownerID uuid.UUID) (*models.Schedule, error) {
	if m.getActiveFunc != nil {
		return m.getActiveFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockScheduleService) List(ctx context.Context, ownerID uuid.UUID) ([]*models.Schedule, error) {
	if m.listFunc != nil {
		return m.listFunc(ctx, ownerID)
	}
	return nil, nil
}

func (m *mockScheduleService) Activate(ctx context.Context, ownerID, id uuid.UUID) (*models.Schedule, error) {
	if m.activateFunc != nil {
		return m.activateFunc(ctx, ownerID, id)
	}
	return nil, nil
}

func (m *mockScheduleService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, ownerID, id)
	}
	return nil
}

func TestScheduleHandler_Create_EventsPassThrough(t *testing.T) {
	user := testUser()
	events := `[{"title":"Gym","start":"2024-01-01T08:00:00","end":"2024-01-01T09:00:00","category":"exercise","extra":{"note":"leg day"}}]`

	mock := &mockScheduleService{
		createFunc: func(ctx context.Context, req service.CreateScheduleRequest) (*models.Schedule, error) {
			return &models.Schedule{
				ID:      uuid.New(),
				OwnerID: req.OwnerID,
				Name:    req.Name,
				Events:  req.Events,
			}, nil
		},
	}
	h := NewScheduleHandler(mock)

	req := newTestRequest(t, http.MethodPost, "/schedules/", ScheduleHTTPRequest{
		Name:   "My week",
		Events: json.RawMessage(events),
	}, user)
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Events json.RawMessage `json:"events"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}

	var got, want interface{}
	if err := json.Unmarshal(resp.Data.Events, &got); err != nil {
		t.Fatalf("Failed to unmarshal events: %v", err)
	}
	if err := json.Unmarshal([]byte(events), &want); err != nil {
		t.Fatalf("Failed to unmarshal fixture: %v", err)
	}
	gotJSON, _ := json.Marshal(got)
	wantJSON, _ := json.Marshal(want)
	if string(gotJSON) != string(wantJSON) {
		t.Errorf("events = %s, want %s", gotJSON, wantJSON)
	}
}

func TestScheduleHandler_Create_RejectsMissingName(t *testing.T) {
	h := NewScheduleHandler(&mockScheduleService{})

	req := newTestRequest(t, http.MethodPost, "/schedules/", ScheduleHTTPRequest{}, testUser())
	rec := httptest.NewRecorder()
	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestScheduleHandler_GetActive(t *testing.T) {
	user := testUser()
	scheduleID := uuid.New()

	tests := []struct {
		name           string
		mockService    *mockScheduleService
		expectedStatus int
	}{
		{
			name: "returns active schedule",
			mockService: &mockScheduleService{
				getActiveFunc: func(ctx context.Context, ownerID uuid.UUID) (*models.Schedule, error) {
					return &models.Schedule{ID: scheduleID, OwnerID: ownerID, Name: "Active", IsActive: true}, nil
				},
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "no active schedule is 404",
			mockService: &mockScheduleService{
				getActiveFunc: func(ctx context.Context, ownerID uuid.UUID) (*models.Schedule, error) {
					return nil, apierrors.NewNotFoundError("Active schedule")
				},
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewScheduleHandler(tt.mockService)
			req := newTestRequest(t, http.MethodGet, "/schedules/active/", nil, user)
			rec := httptest.NewRecorder()

			h.GetActive(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("status = %d, want %d, body: %s", rec.Code, tt.expectedStatus, rec.Body.String())
			}
		})
	}
}

func TestScheduleHandler_Routes_ActiveBeforeID(t *testing.T) {
	user := testUser()
	called := ""
	mock := &mockScheduleService{
		getActiveFunc: func(ctx context.Context, ownerID uuid.UUID) (*models.Schedule, error) {
			called = "active"
			return &models.Schedule{ID: uuid.New(), OwnerID: ownerID, IsActive: true}, nil
		},
		getFunc: func(ctx context.Context, ownerID, id uuid.UUID) (*models.Schedule, error) {
			called = "get"
			return &models.Schedule{ID: id, OwnerID: ownerID}, nil
		},
	}
	h := NewScheduleHandler(mock)
	router := h.Routes()

	req := newTestRequest(t, http.MethodGet, "/active/", nil, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}
	if called != "active" {
		t.Errorf("routed to %q, want 'active'", called)
	}
}

func TestScheduleHandler_Activate(t *testing.T) {
	user := testUser()
	scheduleID := uuid.New()

	mock := &mockScheduleService{
		activateFunc: func(ctx context.Context, ownerID, id uuid.UUID) (*models.Schedule, error) {
			if id != scheduleID {
				return nil, apierrors.NewNotFoundError("Schedule")
			}
			return &models.Schedule{ID: id, OwnerID: ownerID, IsActive: true}, nil
		},
	}
	h := NewScheduleHandler(mock)
	router := h.Routes()

	req := newTestRequest(t, http.MethodPut, "/"+scheduleID.String()+"/activate", nil, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("activate status = %d, want 200, body: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data models.Schedule `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if !resp.Data.IsActive {
		t.Error("IsActive = false, want true")
	}

	req = newTestRequest(t, http.MethodPut, "/"+uuid.NewString()+"/activate", nil, user)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("activate unknown status = %d, want 404", rec.Code)
	}
}

func TestScheduleHandler_Delete(t *testing.T) {
	user := testUser()
	scheduleID := uuid.New()

	mock := &mockScheduleService{
		deleteFunc: func(ctx context.Context, ownerID, id uuid.UUID) error {
			if id != scheduleID {
				return apierrors.NewNotFoundError("Schedule")
			}
			return nil
		},
	}
	h := NewScheduleHandler(mock)
	router := h.Routes()

	req := newTestRequest(t, http.MethodDelete, "/"+scheduleID.String(), nil, user)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, want 204", rec.Code)
	}
}
