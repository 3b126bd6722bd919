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

// ActivityHandler handles activity CRUD requests.
type ActivityHandler struct {
	activityService service.ActivityService
	validate        *validator.Validate
}

// NewActivityHandler creates a new activity handler.
func NewActivityHandler(activityService service.ActivityService) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		validate:        validator.New(),
	}
}

// Routes returns a chi router with activity routes, mounted at /activities.
func (h *ActivityHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	return r
}

// ActivityHTTPRequest is the HTTP request body for creating or updating an
// activity.
type ActivityHTTPRequest struct {
	Name            string  `json:"name" validate:"required,min=1,max=200"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,min=1,max=1440"`
	Priority        string  `json:"priority" validate:"required,oneof=high medium low"`
	Frequency       *string `json:"frequency" validate:"omitempty,max=100"`
	Category        string  `json:"category" validate:"omitempty,max=100"`
}

// Create handles POST /activities/
func (h *ActivityHandler) Create(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	var req ActivityHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, validationError(err))
		return
	}

	activity, err := h.activityService.Create(r.Context(), service.CreateActivityRequest{
		OwnerID:         user.ID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Priority:        req.Priority,
		Frequency:       req.Frequency,
		Category:        req.Category,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, activity)
}

// List handles GET /activities/
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	activities, err := h.activityService.List(r.Context(), user.ID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, activities)
}

// Update handles PUT /activities/{id}
func (h *ActivityHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req ActivityHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, validationError(err))
		return
	}

	activity, err := h.activityService.Update(r.Context(), user.ID, id, service.CreateActivityRequest{
		OwnerID:         user.ID,
		Name:            req.Name,
		DurationMinutes: req.DurationMinutes,
		Priority:        req.Priority,
		Frequency:       req.Frequency,
		Category:        req.Category,
	})
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, activity)
}

// Delete handles DELETE /activities/{id}
func (h *ActivityHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.activityService.Delete(r.Context(), user.ID, id); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}
