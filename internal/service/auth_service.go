// Package service provides business logic implementations.
package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/horaplan/backend/internal/models"
	apierrors "github.com/horaplan/backend/internal/pkg/errors"
	"github.com/horaplan/backend/internal/repository"
	"github.com/horaplan/backend/internal/token"
)

// TokenPrefix marks a persistent token credential, distinguishing it from a
// JWT in the Authorization header.
const TokenPrefix = "hp_"

// AuthService defines the authentication and account management interface.
type AuthService interface {
	Register(ctx context.Context, email, password string) (*models.User, error)
	Login(ctx context.Context, email, password string) (string, error)
	GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName *string) (*models.User, error)
	ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error

	// Bearer credential verification used by the auth middleware.
	VerifyCredential(ctx context.Context, credential string) (*models.User, error)

	// Persistent (long-lived, revocable) tokens.
	CreateToken(ctx context.Context, userID uuid.UUID, name string) (*models.PersistentTokenResponse, error)
	ListTokens(ctx context.Context, userID uuid.UUID) ([]*models.PersistentToken, error)
	RevokeToken(ctx context.Context, userID, tokenID uuid.UUID) error
	Logout(ctx context.Context, userID uuid.UUID) error
}

type authService struct {
	userRepo    repository.UserRepository
	tokenRepo   repository.TokenRepository
	jwt         *token.Manager
	bcryptCost  int
	tokenExpiry time.Duration
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	tokenRepo repository.TokenRepository,
	jwt *token.Manager,
	bcryptCost int,
	tokenExpiry time.Duration,
) AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &authService{
		userRepo:    userRepo,
		tokenRepo:   tokenRepo,
		jwt:         jwt,
		bcryptCost:  bcryptCost,
		tokenExpiry: tokenExpiry,
	}
}

// Register creates a new user account. A duplicate email fails with a
// conflict error.
func (s *authService) Register(ctx context.Context, email, password string) (*models.User, error) {
	email = normalizeEmail(email)

	existing, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, apierrors.NewConflictError("Email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// normalizeEmail produces the canonical form stored in the database, so
// duplicate checks and lookups agree with inserts.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Login verifies credentials and issues a bearer JWT. Unknown email and
// wrong password return the same generic error.
func (s *authService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return "", apierrors.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", apierrors.ErrInvalidCredentials
	}

	signed, err := s.jwt.Issue(user.Email)
	if err != nil {
		return "", fmt.Errorf("failed to issue token: %w", err)
	}
	return signed, nil
}

// GetProfile returns the user's account.
func (s *authService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, apierrors.NewNotFoundError("User")
	}
	return user, nil
}

// UpdateProfile sets the user's name fields. Nil fields are left unchanged.
func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, firstName, lastName *string) (*models.User, error) {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	if firstName != nil {
		user.FirstName = firstName
	}
	if lastName != nil {
		user.LastName = lastName
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the user's password after verifying the current
// one.
func (s *authService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	user, err := s.GetProfile(ctx, userID)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)) != nil {
		return apierrors.ErrUnauthorized.WithMessage("Current password is incorrect")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return nil
}

// VerifyCredential resolves a bearer credential to a user. Credentials with
// the hp_ prefix are persistent tokens checked against their stored hash;
// anything else is treated as a JWT.
func (s *authService) VerifyCredential(ctx context.Context, credential string) (*models.User, error) {
	if strings.HasPrefix(credential, TokenPrefix) {
		return s.verifyPersistentToken(ctx, credential)
	}

	email, err := s.jwt.Verify(credential)
	if err != nil {
		return nil, apierrors.ErrUnauthorized
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, apierrors.ErrUnauthorized
	}
	return user, nil
}

func (s *authService) verifyPersistentToken(ctx context.Context, raw string) (*models.User, error) {
	record, err := s.tokenRepo.GetByHash(ctx, hashToken(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}
	if record == nil || time.Now().After(record.ExpiresAt) {
		return nil, apierrors.ErrUnauthorized
	}

	user, err := s.userRepo.GetByID(ctx, record.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil {
		return nil, apierrors.ErrUnauthorized
	}

	// Best effort; verification does not depend on it.
	_ = s.tokenRepo.TouchLastUsed(ctx, record.ID)

	return user, nil
}

// CreateToken issues a new persistent token. The raw value is returned once
// and only its hash is stored.
func (s *authService) CreateToken(ctx context.Context, userID uuid.UUID, name string) (*models.PersistentTokenResponse, error) {
	raw, err := generateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	record := &models.PersistentToken{
		UserID:    userID,
		Name:      name,
		TokenHash: hashToken(raw),
		Prefix:    raw[:len(TokenPrefix)+8],
		ExpiresAt: time.Now().Add(s.tokenExpiry),
	}
	if err := s.tokenRepo.Create(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	return &models.PersistentTokenResponse{
		ID:        record.ID,
		Name:      record.Name,
		Prefix:    record.Prefix,
		Token:     raw,
		ExpiresAt: record.ExpiresAt,
		CreatedAt: record.CreatedAt,
	}, nil
}

// ListTokens returns the user's persistent tokens (hashes never leave the
// service).
func (s *authService) ListTokens(ctx context.Context, userID uuid.UUID) ([]*models.PersistentToken, error) {
	return s.tokenRepo.ListByUser(ctx, userID)
}

// RevokeToken deletes a single persistent token.
func (s *authService) RevokeToken(ctx context.Context, userID, tokenID uuid.UUID) error {
	deleted, err := s.tokenRepo.Delete(ctx, userID, tokenID)
	if err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	if !deleted {
		return apierrors.NewNotFoundError("Token")
	}
	return nil
}

// Logout revokes every persistent token the user holds. JWTs are stateless
// and lapse on their own.
func (s *authService) Logout(ctx context.Context, userID uuid.UUID) error {
	return s.tokenRepo.DeleteByUser(ctx, userID)
}

func generateToken() (string, error) {
	buf := make([]byte, 24)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return TokenPrefix + hex.EncodeToString(buf), nil
}

func hashToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
