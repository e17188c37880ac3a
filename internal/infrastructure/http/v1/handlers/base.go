// Package handlers contains HTTP request handlers for the v1 API.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"estateops/internal/core/apperror"
	"estateops/internal/core/id"
	"estateops/internal/infrastructure/http/v1/dto"
)

// BaseHandler provides common functionality for all handlers. Errors are
// pushed onto the gin error list; the error middleware turns them into
// JSON.
type BaseHandler struct{}

// Error pushes an error for the error middleware to emit.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// BindJSON binds and validates the request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithCause(err))
		return false
	}
	return true
}

// BindQuery binds and validates query parameters.
func (h *BaseHandler) BindQuery(c *gin.Context, obj any) bool {
	if err := c.ShouldBindQuery(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid query parameters").WithCause(err))
		return false
	}
	return true
}

// ParseID extracts and parses a UUID path parameter.
func (h *BaseHandler) ParseID(c *gin.Context, name string) (id.ID, bool) {
	raw := c.Param(name)
	parsed, err := id.Parse(raw)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id").WithDetail(name, raw))
		return id.Nil(), false
	}
	return parsed, true
}

// List writes a 200 list envelope.
func (h *BaseHandler) List(c *gin.Context, message string, count int64, results any) {
	c.JSON(http.StatusOK, dto.NewListEnvelope(message, count, results))
}

// OK writes a 200 command envelope.
func (h *BaseHandler) OK(c *gin.Context, message string, data any) {
	c.JSON(http.StatusOK, dto.NewCommandEnvelope(message, data))
}

// Created writes a 201 command envelope.
func (h *BaseHandler) Created(c *gin.Context, message string, data any) {
	c.JSON(http.StatusCreated, dto.NewCommandEnvelope(message, data))
}
