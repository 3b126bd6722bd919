package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/horaplan/backend/internal/middleware"
	apierrors "github.com/horaplan/backend/internal/pkg/errors"
	"github.com/horaplan/backend/internal/pkg/response"
	"github.com/horaplan/backend/internal/service"
)

// ScheduleHandler handles saved schedule requests.
type ScheduleHandler struct {
	scheduleService service.ScheduleService
	validate        *validator.Validate
}

// NewScheduleHandler creates a new schedule handler.
func NewScheduleHandler(scheduleService service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{
		scheduleService: scheduleService,
		validate:        validator.New(),
	}
}

// Routes returns a chi router with schedule routes, mounted at /schedules.
func (h *ScheduleHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/active/", h.GetActive)
	r.Get("/{id}", h.Get)
	r.Delete("/{id}", h.Delete)
	r.Put("/{id}/activate", h.Activate)
	return r
}

// ScheduleHTTPRequest is the HTTP request body for saving a schedule. Events
// are passed through untouched.
type ScheduleHTTPRequest struct {
	Name   string          `json:"name" validate:"required,min=1,max=200"`
	Events json.RawMessage `json:"events"`
}

// Create handles POST /schedules/
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	var req ScheduleHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, validationError(err))
		return
	}

	schedule, err := h.scheduleService.Create(r.Context(), service.CreateScheduleRequest{
		OwnerID: user.ID,
		Name:    req.Name,
		Events:  req.Events,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, schedule)
}

// List handles GET /schedules/
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	schedules, err := h.scheduleService.List(r.Context(), user.ID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, schedules)
}

// Get handles GET /schedules/{id}
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, apierrors.NewValidationError("id", "invalid UUID format"))
		return
	}

	schedule, err := h.scheduleService.Get(r.Context(), user.ID, id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, schedule)
}

// GetActive handles GET /schedules/active/
func (h *ScheduleHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	schedule, err := h.scheduleService.GetActive(r.Context(), user.ID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, schedule)
}

// Activate handles PUT /schedules/{id}/activate
func (h *ScheduleHandler) Activate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, apierrors.NewValidationError("id", "invalid UUID format"))
		return
	}

	schedule, err := h.scheduleService.Activate(r.Context(), user.ID, id)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, schedule)
}

// Delete handles DELETE /schedules/{id}
func (h *ScheduleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, apierrors.NewValidationError("id", "invalid UUID format"))
		return
	}

	if err := h.scheduleService.Delete(r.Context(), user.ID, id); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}
