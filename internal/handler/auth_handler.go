// Package handler provides HTTP handlers for the HoraPlan API.
package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/horaplan/backend/internal/middleware"
	apierrors "github.com/horaplan/backend/internal/pkg/errors"
	"github.com/horaplan/backend/internal/pkg/response"
	"github.com/horaplan/backend/internal/service"
)

// AuthHandler handles registration, login and account management requests.
type AuthHandler struct {
	authService service.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    validator.New(),
	}
}

// UserRoutes returns the authenticated profile routes, mounted at /users/me.
func (h *AuthHandler) UserRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Profile)
	r.Put("/", h.UpdateProfile)
	r.Post("/change-password", h.ChangePassword)
	return r
}

// TokenRoutes returns the personal access token routes, mounted at /auth/tokens.
func (h *AuthHandler) TokenRoutes() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.ListTokens)
	r.Post("/", h.CreateToken)
	r.Delete("/{id}", h.RevokeToken)
	return r
}

// RegisterHTTPRequest is the HTTP request body for registering an account.
type RegisterHTTPRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// Register handles POST /register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, validationError(err))
		return
	}

	user, err := h.authService.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, user)
}

// TokenHTTPRequest is the JSON request body for obtaining an access token.
type TokenHTTPRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// TokenHTTPResponse is the access token response.
type TokenHTTPResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Token handles POST /token. It accepts either a JSON body or an OAuth2
// style form with username/password fields.
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenHTTPRequest

	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "application/x-www-form-urlencoded") {
		if err := r.ParseForm(); err != nil {
			response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid form body"))
			return
		}
		req.Email = r.PostFormValue("username")
		req.Password = r.PostFormValue("password")
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
			return
		}
	}

	if req.Email == "" || req.Password == "" {
		response.Error(w, apierrors.NewValidationError("email", "email and password are required"))
		return
	}

	accessToken, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, TokenHTTPResponse{AccessToken: accessToken, TokenType: "bearer"})
}

// Logout handles POST /logout. It revokes all of the user's persistent
// tokens; outstanding JWTs expire on their own.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	if err := h.authService.Logout(r.Context(), user.ID); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]string{"message": "Logged out"})
}

// Profile handles GET /users/me
func (h *AuthHandler) Profile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	response.OK(w, user)
}

// UpdateProfileHTTPRequest is the HTTP request body for updating a profile.
// Omitted fields are left unchanged.
type UpdateProfileHTTPRequest struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=100"`
	LastName  *string `json:"last_name" validate:"omitempty,max=100"`
}

// UpdateProfile handles PUT /users/me
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	var req UpdateProfileHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, validationError(err))
		return
	}

	updated, err := h.authService.UpdateProfile(r.Context(), user.ID, req.FirstName, req.LastName)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, updated)
}

// ChangePasswordHTTPRequest is the HTTP request body for changing a password.
type ChangePasswordHTTPRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8,max=72"`
}

// ChangePassword handles POST /users/me/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	var req ChangePasswordHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, validationError(err))
		return
	}

	if err := h.authService.ChangePassword(r.Context(), user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, map[string]string{"message": "Password updated"})
}

// CreateTokenHTTPRequest is the HTTP request body for creating a personal
// access token.
type CreateTokenHTTPRequest struct {
	Name string `json:"name" validate:"required,min=1,max=100"`
}

// CreateToken handles POST /auth/tokens
func (h *AuthHandler) CreateToken(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	var req CreateTokenHTTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, apierrors.ErrBadRequest.WithMessage("Invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.Error(w, validationError(err))
		return
	}

	created, err := h.authService.CreateToken(r.Context(), user.ID, req.Name)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.Created(w, created)
}

// ListTokens handles GET /auth/tokens
func (h *AuthHandler) ListTokens(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	tokens, err := h.authService.ListTokens(r.Context(), user.ID)
	if err != nil {
		response.Error(w, err)
		return
	}

	response.OK(w, tokens)
}

// RevokeToken handles DELETE /auth/tokens/{id}
func (h *AuthHandler) RevokeToken(w http.ResponseWriter, r *http.Request) {
	user := middleware.GetUser(r.Context())
	if user == nil {
		response.Error(w, apierrors.ErrUnauthorized)
		return
	}

	tokenID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Error(w, apierrors.NewValidationError("id", "invalid UUID format"))
		return
	}

	if err := h.authService.RevokeToken(r.Context(), user.ID, tokenID); err != nil {
		response.Error(w, err)
		return
	}

	response.NoContent(w)
}

// validationError translates validator errors into the API error shape.
func validationError(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return apierrors.ErrBadRequest.WithMessage("Invalid request body")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[strings.ToLower(fe.Field())] = "failed on the '" + fe.Tag() + "' rule"
	}
	return apierrors.NewValidationErrors(fields)
}
