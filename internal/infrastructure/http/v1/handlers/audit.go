package handlers

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"estateops/internal/infrastructure/storage/postgres"
)

// AuditHandler serves the audit trail.
type AuditHandler struct {
	BaseHandler
	store *postgres.AuditStore
}

func NewAuditHandler(store *postgres.AuditStore) *AuditHandler {
	return &AuditHandler{store: store}
}

// ListByEntity handles GET /audit/:entityType/:id.
func (h *AuditHandler) ListByEntity(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 500 {
			limit = parsed
		}
	}

	entries, err := h.store.ListByEntity(c.Request.Context(), c.Param("entityType"), c.Param("id"), limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.List(c, "Audit entries retrieved", int64(len(entries)), entries)
}
