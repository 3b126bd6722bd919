package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/horaplan/backend/internal/models"
	apierrors "github.com/horaplan/backend/internal/pkg/errors"
	"github.com/horaplan/backend/internal/token"
)

// --- Mock repositories ---

type mockUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[uuid.UUID]*models.User)}
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return m.users[id], nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range m.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return nil, nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	user.UpdatedAt = time.Now()
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	if u, ok := m.users[id]; ok {
		u.PasswordHash = passwordHash
	}
	return nil
}

type mockTokenRepo struct {
	tokens map[uuid.UUID]*models.PersistentToken
}

func newMockTokenRepo() *mockTokenRepo {
	return &mockTokenRepo{tokens: make(map[uuid.UUID]*models.PersistentToken)}
}

func (m *mockTokenRepo) Create(ctx context.Context, t *models.PersistentToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	t.CreatedAt = time.Now()
	m.tokens[t.ID] = t
	return nil
}

func (m *mockTokenRepo) GetByHash(ctx context.Context, tokenHash string) (*models.PersistentToken, error) {
	for _, t := range m.tokens {
		if t.TokenHash == tokenHash {
			return t, nil
		}
	}
	return nil, nil
}

func (m *mockTokenRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.PersistentToken, error) {
	var result []*models.PersistentToken
	for _, t := range m.tokens {
		if t.UserID == userID {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *mockTokenRepo) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	if t, ok := m.tokens[id]; ok {
		now := time.Now()
		t.LastUsedAt = &now
	}
	return nil
}

func (m *mockTokenRepo) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	if t, ok := m.tokens[id]; ok && t.UserID == userID {
		delete(m.tokens, id)
		return true, nil
	}
	return false, nil
}

func (m *mockTokenRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	for id, t := range m.tokens {
		if t.UserID == userID {
			delete(m.tokens, id)
		}
	}
	return nil
}

// --- Tests ---

func newTestAuthService() (AuthService, *mockUserRepo, *mockTokenRepo, *token.Manager) {
	userRepo := newMockUserRepo()
	tokenRepo := newMockTokenRepo()
	jwt := token.NewManager("test-secret", 30*time.Minute)
	// Minimum bcrypt cost keeps tests fast.
	svc := NewAuthService(userRepo, tokenRepo, jwt, 4, 90*24*time.Hour)
	return svc, userRepo, tokenRepo, jwt
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	svc, _, _, jwt := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "Alice@Example.com", "s3cret-pass")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEmpty(t, user.PasswordHash)
	assert.NotEqual(t, "s3cret-pass", user.PasswordHash)

	signed, err := svc.Login(ctx, "alice@example.com", "s3cret-pass")
	require.NoError(t, err)

	subject, err := jwt.Verify(signed)
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", subject)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "pass-one")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "ALICE@example.com", "pass-two")
	require.Error(t, err)
	apiErr := apierrors.AsAPIError(err)
	assert.Equal(t, "conflict", apiErr.Code)
}

func TestAuthService_Register_NormalizesBeforeDuplicateCheck(t *testing.T) {
	svc, userRepo, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "ana@example.com", "pass-one")
	require.NoError(t, err)

	// Padded, mixed-case input must hit the same stored row.
	_, err = svc.Register(ctx, "  Ana@Example.com  ", "pass-two")
	require.Error(t, err)
	assert.Equal(t, "conflict", apierrors.AsAPIError(err).Code)
	assert.Len(t, userRepo.users, 1)
}

func TestAuthService_Login_GenericErrorForBothFailures(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "correct-pass")
	require.NoError(t, err)

	_, errUnknown := svc.Login(ctx, "nobody@example.com", "whatever")
	_, errWrongPass := svc.Login(ctx, "alice@example.com", "wrong-pass")

	require.Error(t, errUnknown)
	require.Error(t, errWrongPass)
	// Identical generic message so a caller can't tell which check failed.
	assert.Equal(t, errUnknown.Error(), errWrongPass.Error())
	assert.Equal(t, 401, apierrors.AsAPIError(errUnknown).StatusCode)
}

func TestAuthService_ChangePassword(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "old-pass")
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "wrong-old", "new-pass")
	require.Error(t, err)
	assert.Equal(t, 401, apierrors.AsAPIError(err).StatusCode)

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "old-pass", "new-pass"))

	_, err = svc.Login(ctx, "alice@example.com", "old-pass")
	assert.Error(t, err)
	_, err = svc.Login(ctx, "alice@example.com", "new-pass")
	assert.NoError(t, err)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "pass")
	require.NoError(t, err)

	first, last := "Alice", "Liddell"
	updated, err := svc.UpdateProfile(ctx, user.ID, &first, &last)
	require.NoError(t, err)
	require.NotNil(t, updated.FirstName)
	assert.Equal(t, "Alice", *updated.FirstName)
	require.NotNil(t, updated.LastName)
	assert.Equal(t, "Liddell", *updated.LastName)

	// Nil fields are left alone.
	updated, err = svc.UpdateProfile(ctx, user.ID, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "Alice", *updated.FirstName)
}

func TestAuthService_VerifyCredential_JWT(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "pass")
	require.NoError(t, err)

	signed, err := svc.Login(ctx, "alice@example.com", "pass")
	require.NoError(t, err)

	got, err := svc.VerifyCredential(ctx, signed)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	_, err = svc.VerifyCredential(ctx, "garbage")
	assert.Error(t, err)
}

func TestAuthService_VerifyCredential_ExpiredJWT(t *testing.T) {
	userRepo := newMockUserRepo()
	tokenRepo := newMockTokenRepo()
	jwt := token.NewManager("test-secret", -time.Minute)
	svc := NewAuthService(userRepo, tokenRepo, jwt, 4, time.Hour)
	ctx := context.Background()

	_, err := svc.Register(ctx, "alice@example.com", "pass")
	require.NoError(t, err)

	signed, err := svc.Login(ctx, "alice@example.com", "pass")
	require.NoError(t, err)

	_, err = svc.VerifyCredential(ctx, signed)
	require.Error(t, err)
	assert.Equal(t, 401, apierrors.AsAPIError(err).StatusCode)
}

func TestAuthService_PersistentTokenLifecycle(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "pass")
	require.NoError(t, err)

	created, err := svc.CreateToken(ctx, user.ID, "laptop")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(created.Token, TokenPrefix))
	assert.True(t, strings.HasPrefix(created.Prefix, TokenPrefix))

	// The raw token authenticates.
	got, err := svc.VerifyCredential(ctx, created.Token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)

	// Listing shows the token but never the raw value or hash.
	tokens, err := svc.ListTokens(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, "laptop", tokens[0].Name)

	// Revoked tokens stop working.
	require.NoError(t, svc.RevokeToken(ctx, user.ID, created.ID))
	_, err = svc.VerifyCredential(ctx, created.Token)
	assert.Error(t, err)

	// Revoking twice is not found.
	err = svc.RevokeToken(ctx, user.ID, created.ID)
	require.Error(t, err)
	assert.Equal(t, 404, apierrors.AsAPIError(err).StatusCode)
}

func TestAuthService_PersistentToken_Expired(t *testing.T) {
	userRepo := newMockUserRepo()
	tokenRepo := newMockTokenRepo()
	jwt := token.NewManager("test-secret", time.Hour)
	svc := NewAuthService(userRepo, tokenRepo, jwt, 4, -time.Minute)
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "pass")
	require.NoError(t, err)

	created, err := svc.CreateToken(ctx, user.ID, "stale")
	require.NoError(t, err)

	_, err = svc.VerifyCredential(ctx, created.Token)
	require.Error(t, err)
	assert.Equal(t, 401, apierrors.AsAPIError(err).StatusCode)
}

func TestAuthService_Logout_RevokesAllTokens(t *testing.T) {
	svc, _, _, _ := newTestAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "alice@example.com", "pass")
	require.NoError(t, err)

	first, err := svc.CreateToken(ctx, user.ID, "laptop")
	require.NoError(t, err)
	second, err := svc.CreateToken(ctx, user.ID, "phone")
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, user.ID))

	_, err = svc.VerifyCredential(ctx, first.Token)
	assert.Error(t, err)
	_, err = svc.VerifyCredential(ctx, second.Token)
	assert.Error(t, err)
}
