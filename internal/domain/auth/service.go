package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/domain/parties"
	"estateops/pkg/logger"
)

// RefreshToken is a stored, hashed refresh token.
type RefreshToken struct {
	ID        id.ID
	UserID    id.ID
	TokenHash string
	ExpiresAt time.Time
	RevokedAt *time.Time
	CreatedAt time.Time
}

// IsValid reports whether the token can still be redeemed.
func (t *RefreshToken) IsValid() bool {
	return t.RevokedAt == nil && time.Now().Before(t.ExpiresAt)
}

// TokenRepository stores refresh tokens.
type TokenRepository interface {
	SaveRefreshToken(ctx context.Context, t *RefreshToken) error
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error
}

// UserReader is the slice of the party layer auth needs.
type UserReader interface {
	GetByEmail(ctx context.Context, email string) (*parties.User, error)
	GetByID(ctx context.Context, userID id.ID) (*parties.User, error)
}

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	RefreshTokenExpiry time.Duration
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		RefreshTokenExpiry: 7 * 24 * time.Hour,
	}
}

// TokenPair is the login response payload.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// Credentials is a login request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Service provides login, refresh and logout.
type Service struct {
	users      UserReader
	tokens     TokenRepository
	jwtService *JWTService
	config     ServiceConfig
	log        *logger.Logger
}

// NewService creates the auth service.
func NewService(users UserReader, tokens TokenRepository, jwtService *JWTService, config ServiceConfig, log *logger.Logger) *Service {
	return &Service{
		users:      users,
		tokens:     tokens,
		jwtService: jwtService,
		config:     config,
		log:        log.WithComponent("auth.service"),
	}
}

// Login authenticates a user and returns a token pair.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *parties.User, error) {
	user, err := s.users.GetByEmail(ctx, creds.Email)
	if err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}
	if !user.IsActive || user.PasswordHash == "" {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, nil, err
	}

	s.log.WithContext(ctx).Infow("user logged in", "user_id", user.ID)
	return tokens, user, nil
}

// Refresh redeems a refresh token for a new pair, revoking the old one.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	token, err := s.tokens.GetRefreshToken(ctx, hashToken(refreshToken))
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid refresh token")
	}
	if !token.IsValid() {
		return nil, apperror.NewUnauthorized("refresh token expired or revoked")
	}
	user, err := s.users.GetByID(ctx, token.UserID)
	if err != nil || !user.IsActive {
		return nil, apperror.NewUnauthorized("user not found")
	}

	_ = s.tokens.RevokeRefreshToken(ctx, token.ID, "refreshed")
	return s.generateTokenPair(ctx, user)
}

// Logout revokes all of a user's refresh tokens.
func (s *Service) Logout(ctx context.Context, userID id.ID) error {
	return s.tokens.RevokeAllUserTokens(ctx, userID, "logout")
}

// JWT returns the underlying JWT service for middleware wiring.
func (s *Service) JWT() *JWTService {
	return s.jwtService
}

func (s *Service) generateTokenPair(ctx context.Context, user *parties.User) (*TokenPair, error) {
	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(
		user.ID.String(), user.Email, user.FullName(), user.Roles)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	raw, err := generateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}
	refresh := &RefreshToken{
		ID:        id.New(),
		UserID:    user.ID,
		TokenHash: hashToken(raw),
		ExpiresAt: time.Now().Add(s.config.RefreshTokenExpiry),
		CreatedAt: time.Now(),
	}
	if err := s.tokens.SaveRefreshToken(ctx, refresh); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: raw,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// hashToken creates SHA256 hash of token.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// generateRandomToken generates a random token string.
func generateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
