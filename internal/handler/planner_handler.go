package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/horaplan/backend/internal/middleware"
	"github.com/horaplan/backend/internal/models"
	apierrors "github.com/horaplan/backend/internal/pkg/errors"
	"github.com/horaplan/backend/internal/pkg/response"
	"github.com/horaplan/backend/internal/service"
)

// PlannerHandler handles AI schedule generation and analysis requests.
type PlannerHandler struct {
	plannerService service.PlannerService
	validate       *validator.Validate
}

// NewPlannerHandler creates a new planner handler.
func NewPlannerHandler(plannerService service.PlannerService) *PlannerHandler {
	return &PlannerHandler{
		plannerService: plannerService,
		validate:       validator.New(),
	}
}

// Default waking window when the request omits it.
const (
	defaultStartHour = 8
	defaultEndHour   = 22
)

// GenerateHTTPRequest is the HTTP request body for schedule generation.
// Both hours are optional; omitted fields fall back to the defaults.
type GenerateHTTPRequest struct {
	StartHour *int `json:"start_hour" validate:"omitempty,min=0,max=23"`
	EndHour   *int `json:"end_hour" validate:"omitempty,min=1,max=24"`
}

// Generate handles POST /generate-schedule
func (h *PlannerHandler) Generate(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	var req GenerateHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, validationError(err))
		return
	}

	startHour := defaultStartHour
	if req.StartHour != nil {
		startHour = *req.StartHour
	}
	endHour := defaultEndHour
	if req.EndHour != nil {
		endHour = *req.EndHour
	}
	if endHour <= startHour {
		response.Error(w, apierrors.NewValidationError("end_hour", "must be greater than start_hour"))
		return
	}

	events, err := h.plannerService.Generate(r.Context(), service.GenerateRequest{
		OwnerID:   user.ID,
		StartHour: startHour,
		EndHour:   endHour,
	})
	if err != nil {
		if apierrors.AsAPIError(err).Code == apierrors.ErrUpstream.Code {
			middleware.IncrementAIFailures()
		}
		response.Error(w, err)
		return
	}

	middleware.IncrementSchedulesGenerated()
	response.OK(w, events)
}

// AnalyzeHTTPRequest is the HTTP request body for schedule analysis.
type AnalyzeHTTPRequest struct {
	Events []models.Event `json:"events" validate:"required"`
}

// AnalyzeHTTPResponse carries the model's suggestions.
type AnalyzeHTTPResponse struct {
	Suggestions []string `json:"suggestions"`
}

// Analyze handles POST /analyze-schedule
func (h *PlannerHandler) Analyze(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	var req AnalyzeHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, validationError(err))
		return
	}

	suggestions, err := h.plannerService.Analyze(r.Context(), req.Events)
	if err != nil {
		if apierrors.AsAPIError(err).Code == apierrors.ErrUpstream.Code {
			middleware.IncrementAIFailures()
		}
		response.Error(w, err)
		return
	}

	middleware.IncrementSchedulesAnalyzed()
	response.OK(w, AnalyzeHTTPResponse{Suggestions: suggestions})
}
