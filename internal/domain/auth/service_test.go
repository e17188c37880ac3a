package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"estateops/internal/core/apperror"
	"estateops/internal/core/entity"
	"estateops/internal/core/id"
	"estateops/internal/domain/parties"
	"estateops/pkg/logger"
)

type fakeTokenRepo struct {
	byHash map[string]*RefreshToken
}

func newFakeTokenRepo() *fakeTokenRepo {
	return &fakeTokenRepo{byHash: make(map[string]*RefreshToken)}
}

func (r *fakeTokenRepo) SaveRefreshToken(ctx context.Context, t *RefreshToken) error {
	r.byHash[t.TokenHash] = t
	return nil
}

func (r *fakeTokenRepo) GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error) {
	t, ok := r.byHash[tokenHash]
	if !ok {
		return nil, apperror.NewNotFound("refresh token", tokenHash)
	}
	return t, nil
}

func (r *fakeTokenRepo) RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error {
	for _, t := range r.byHash {
		if t.ID == tokenID {
			now := time.Now()
			t.RevokedAt = &now
		}
	}
	return nil
}

func (r *fakeTokenRepo) RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error {
	for _, t := range r.byHash {
		if t.UserID == userID {
			now := time.Now()
			t.RevokedAt = &now
		}
	}
	return nil
}

type fakeUserReader struct {
	users map[id.ID]*parties.User
}

func (r *fakeUserReader) GetByEmail(ctx context.Context, email string) (*parties.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, apperror.NewNotFound("user", email)
}

func (r *fakeUserReader) GetByID(ctx context.Context, userID id.ID) (*parties.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, apperror.NewNotFound("user", userID)
	}
	return u, nil
}

func newAuthService(t *testing.T) (*Service, *parties.User, *fakeTokenRepo) {
	t.Helper()
	log, err := logger.New(logger.Config{Level: "error", Development: true})
	require.NoError(t, err)

	hash, err := bcrypt.GenerateFromPassword([]byte("correct horse"), bcrypt.MinCost)
	require.NoError(t, err)
	user := &parties.User{
		Base:         entity.NewBase(),
		FirstName:    "Jane",
		LastName:     "Mwangi",
		Email:        "jane@example.com",
		PasswordHash: string(hash),
		Roles:        []string{"admin"},
		IsActive:     true,
	}

	tokens := newFakeTokenRepo()
	users := &fakeUserReader{users: map[id.ID]*parties.User{user.ID: user}}
	jwtService := NewJWTService(DefaultJWTConfig("test-secret"))
	return NewService(users, tokens, jwtService, DefaultServiceConfig(), log), user, tokens
}

func TestLogin(t *testing.T) {
	svc, user, _ := newAuthService(t)

	pair, got, err := svc.Login(context.Background(), Credentials{Email: "jane@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	// The access token carries the user context.
	uc, err := svc.JWT().ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID.String(), uc.UserID)
	assert.Equal(t, "jane@example.com", uc.Email)
	assert.Equal(t, []string{"admin"}, uc.Roles)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, _, err := svc.Login(context.Background(), Credentials{Email: "jane@example.com", Password: "wrong"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, _, err := svc.Login(context.Background(), Credentials{Email: "nobody@example.com", Password: "x"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestLoginInactiveUser(t *testing.T) {
	svc, user, _ := newAuthService(t)
	user.IsActive = false

	_, _, err := svc.Login(context.Background(), Credentials{Email: "jane@example.com", Password: "correct horse"})
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestRefreshRotatesToken(t *testing.T) {
	svc, _, _ := newAuthService(t)

	pair, _, err := svc.Login(context.Background(), Credentials{Email: "jane@example.com", Password: "correct horse"})
	require.NoError(t, err)

	next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, next.RefreshToken)

	// The redeemed token is revoked; replaying it fails.
	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestRefreshUnknownToken(t *testing.T) {
	svc, _, _ := newAuthService(t)

	_, err := svc.Refresh(context.Background(), "never-issued")
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestLogoutRevokesAllTokens(t *testing.T) {
	svc, user, _ := newAuthService(t)

	pair, _, err := svc.Login(context.Background(), Credentials{Email: "jane@example.com", Password: "correct horse"})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), user.ID))

	_, err = svc.Refresh(context.Background(), pair.RefreshToken)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeUnauthorized, appErr.Code)
}

func TestValidateTokenRejectsTampering(t *testing.T) {
	jwtService := NewJWTService(DefaultJWTConfig("test-secret"))
	token, _, err := jwtService.GenerateAccessToken(id.New().String(), "jane@example.com", "Jane Mwangi", nil)
	require.NoError(t, err)

	_, err = jwtService.ValidateToken(token + "x")
	assert.Error(t, err)

	other := NewJWTService(DefaultJWTConfig("different-secret"))
	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}
