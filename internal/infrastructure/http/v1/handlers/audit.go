package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockledger/internal/core/id"
	"stockledger/internal/domain"
	"stockledger/internal/infrastructure/http/v1/dto"
	"stockledger/internal/infrastructure/storage/postgres"
)

// AuditHistory reads the change log of an entity.
type AuditHistory interface {
	History(ctx context.Context, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

// AuditHandler serves change history.
type AuditHandler struct {
	*BaseHandler
	history AuditHistory
}

func NewAuditHandler(base *BaseHandler, history AuditHistory) *AuditHandler {
	return &AuditHandler{BaseHandler: base, history: history}
}

// History handles GET /audit/:entity_type/:id?limit=.
func (h *AuditHandler) History(c *gin.Context) {
	entityID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	limit, ok := h.ParseIntQuery(c, "limit", 0)
	if !ok {
		return
	}
	items, err := h.history.History(c.Request.Context(), c.Param("entity_type"), entityID, domain.ClampLimit(limit, 50, 500))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.NewItems(items))
}
