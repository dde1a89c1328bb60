package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/khadimfall/magal-events/internal/services"
	"github.com/khadimfall/magal-events/pkg/response"
)

// AuditHandler exposes the audit trail to admins.
type AuditHandler struct {
	audit *services.AuditService
}

// NewAuditHandler constructs an audit handler.
func NewAuditHandler(db *gorm.DB) (*AuditHandler, error) {
	audit, err := services.NewAuditService(db)
	if err != nil {
		return nil, err
	}
	return &AuditHandler{audit: audit}, nil
}

// GET /api/audit (admin)
func (h *AuditHandler) List(c *gin.Context) {
	filters := services.AuditFilters{
		UserID: c.Query("user_id"),
		Action: c.Query("action"),
		Result: c.Query("result"),
	}
	if since := c.Query("since"); since != "" {
		if parsed, err := time.Parse(time.RFC3339, since); err == nil {
			filters.Since = &parsed
		}
	}
	if until := c.Query("until"); until != "" {
		if parsed, err := time.Parse(time.RFC3339, until); err == nil {
			filters.Until = &parsed
		}
	}

	logs, total, err := h.audit.List(c.Request.Context(), services.AuditListOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 50),
		Filters:  filters,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, logs, &response.Meta{Total: total})
}
