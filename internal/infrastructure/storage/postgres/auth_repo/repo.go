// Package auth_repo persists refresh tokens. Tokens are stored hashed;
// the raw token never reaches the database.
package auth_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain/auth"
	"estateops/internal/infrastructure/storage/postgres"
)

// Repo implements auth.TokenRepository.
type Repo struct {
	tm *postgres.TxManager
}

// NewRepo creates the token repository.
func NewRepo(tm *postgres.TxManager) *Repo {
	return &Repo{tm: tm}
}

var _ auth.TokenRepository = (*Repo)(nil)

type tokenRow struct {
	ID        id.ID      `db:"id"`
	UserID    id.ID      `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	RevokedAt *time.Time `db:"revoked_at"`
	CreatedAt time.Time  `db:"created_at"`
}

func (r *Repo) SaveRefreshToken(ctx context.Context, t *auth.RefreshToken) error {
	_, err := r.tm.GetQuerier(ctx).Exec(ctx, `
		INSERT INTO refresh_tokens (id, user_id, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		t.ID, t.UserID, t.TokenHash, t.ExpiresAt, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("save refresh token: %w", err)
	}
	return nil
}

func (r *Repo) GetRefreshToken(ctx context.Context, tokenHash string) (*auth.RefreshToken, error) {
	var row tokenRow
	err := pgxscan.Get(ctx, r.tm.GetQuerier(ctx), &row, `
		SELECT id, user_id, token_hash, expires_at, revoked_at, created_at
		FROM refresh_tokens
		WHERE token_hash = $1`,
		tokenHash)
	if err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("refresh token", nil)
		}
		return nil, fmt.Errorf("query refresh token: %w", err)
	}
	return &auth.RefreshToken{
		ID:        row.ID,
		UserID:    row.UserID,
		TokenHash: row.TokenHash,
		ExpiresAt: row.ExpiresAt,
		RevokedAt: row.RevokedAt,
		CreatedAt: row.CreatedAt,
	}, nil
}

func (r *Repo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	_, err := r.tm.GetQuerier(ctx).Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), revoke_reason = $2
		WHERE id = $1 AND revoked_at IS NULL`,
		tokenID, reason)
	if err != nil {
		return fmt.Errorf("revoke refresh token: %w", err)
	}
	return nil
}

func (r *Repo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	_, err := r.tm.GetQuerier(ctx).Exec(ctx, `
		UPDATE refresh_tokens
		SET revoked_at = NOW(), revoke_reason = $2
		WHERE user_id = $1 AND revoked_at IS NULL`,
		userID, reason)
	if err != nil {
		return fmt.Errorf("revoke user tokens: %w", err)
	}
	return nil
}
