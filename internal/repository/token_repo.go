package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/horaplan/backend/internal/models"
)

// TokenRepository defines the interface for persistent token data operations.
type TokenRepository interface {
	Create(ctx context.Context, token *models.PersistentToken) error
	GetByHash(ctx context.Context, tokenHash string) (*models.PersistentToken, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.PersistentToken, error)
	TouchLastUsed(ctx context.Context, id uuid.UUID) error
	Delete(ctx context.Context, userID, id uuid.UUID) (bool, error)
	DeleteByUser(ctx context.Context, userID uuid.UUID) error
}

type tokenRepo struct {
	pool *pgxpool.Pool
}

// NewTokenRepository creates a new persistent token repository.
func NewTokenRepository(pool *pgxpool.Pool) TokenRepository {
	return &tokenRepo{pool: pool}
}

// Create inserts a new persistent token record.
func (r *tokenRepo) Create(ctx context.Context, token *models.PersistentToken) error {
	query := `
		INSERT INTO persistent_tokens (id, user_id, name, token_hash, prefix, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`

	if token.ID == uuid.Nil {
		token.ID = uuid.New()
	}

	return r.pool.QueryRow(ctx, query,
		token.ID,
		token.UserID,
		token.Name,
		token.TokenHash,
		token.Prefix,
		token.ExpiresAt,
	).Scan(&token.CreatedAt)
}

// GetByHash retrieves a token by its stored hash.
func (r *tokenRepo) GetByHash(ctx context.Context, tokenHash string) (*models.PersistentToken, error) {
	query := `
		SELECT id, user_id, name, token_hash, prefix, last_used_at, expires_at, created_at
		FROM persistent_tokens WHERE token_hash = $1`

	var token models.PersistentToken
	err := r.pool.QueryRow(ctx, query, tokenHash).Scan(
		&token.ID,
		&token.UserID,
		&token.Name,
		&token.TokenHash,
		&token.Prefix,
		&token.LastUsedAt,
		&token.ExpiresAt,
		&token.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &token, nil
}

// ListByUser retrieves all tokens belonging to the given user.
func (r *tokenRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.PersistentToken, error) {
	query := `
		SELECT id, user_id, name, token_hash, prefix, last_used_at, expires_at, created_at
		FROM persistent_tokens WHERE user_id = $1
		ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []*models.PersistentToken
	for rows.Next() {
		var token models.PersistentToken
		if err := rows.Scan(
			&token.ID,
			&token.UserID,
			&token.Name,
			&token.TokenHash,
			&token.Prefix,
			&token.LastUsedAt,
			&token.ExpiresAt,
			&token.CreatedAt,
		); err != nil {
			return nil, err
		}
		tokens = append(tokens, &token)
	}
	return tokens, rows.Err()
}

// TouchLastUsed records that a token was just presented.
func (r *tokenRepo) TouchLastUsed(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `UPDATE persistent_tokens SET last_used_at = now() WHERE id = $1`, id)
	return err
}

// Delete revokes a single token owned by the given user. Returns false when
// no row matched.
func (r *tokenRepo) Delete(ctx context.Context, userID, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM persistent_tokens WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteByUser revokes every token belonging to the given user.
func (r *tokenRepo) DeleteByUser(ctx context.Context, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM persistent_tokens WHERE user_id = $1`, userID)
	return err
}
