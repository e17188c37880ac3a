package handlers

import (
	"github.com/gin-gonic/gin"

	"estateops/internal/core/apperror"
	appctx "estateops/internal/core/context"
	"estateops/internal/core/id"
	"estateops/internal/domain/auth"
	"estateops/internal/infrastructure/http/v1/dto"
)

// AuthHandler serves login, refresh and logout.
type AuthHandler struct {
	BaseHandler
	svc *auth.Service
}

func NewAuthHandler(svc *auth.Service) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	pair, user, err := h.svc.Login(c.Request.Context(), auth.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Login successful", gin.H{
		"tokens": pair,
		"user":   dto.FromUser(user),
	})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req dto.RefreshRequest
	if !h.BindJSON(c, &req) {
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Token refreshed", gin.H{"tokens": pair})
}

// Logout handles POST /auth/logout. Revokes every refresh token of the
// calling user.
func (h *AuthHandler) Logout(c *gin.Context) {
	user := appctx.GetUser(c.Request.Context())
	if user == nil {
		h.Error(c, apperror.NewUnauthorized("not authenticated"))
		return
	}
	userID, err := id.Parse(user.UserID)
	if err != nil {
		h.Error(c, apperror.NewUnauthorized("invalid user identity"))
		return
	}

	if err := h.svc.Logout(c.Request.Context(), userID); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, "Logged out", nil)
}
