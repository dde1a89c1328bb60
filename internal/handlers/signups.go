package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/khadimfall/magal-events/internal/middleware"
	"github.com/khadimfall/magal-events/internal/services"
	"github.com/khadimfall/magal-events/pkg/errors"
	"github.com/khadimfall/magal-events/pkg/response"
)

// SignupHandler exposes the event signup ledger over HTTP.
type SignupHandler struct {
	signups *services.SignupService
}

// NewSignupHandler constructs a signup handler.
func NewSignupHandler(db *gorm.DB, audit *services.AuditService) (*SignupHandler, error) {
	signups, err := services.NewSignupService(db, audit)
	if err != nil {
		return nil, err
	}
	return &SignupHandler{signups: signups}, nil
}

// POST /api/events/:id/signup
func (h *SignupHandler) SignUp(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	result, err := h.signups.SignUp(c.Request.Context(), userID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// DELETE /api/events/:id/signup
func (h *SignupHandler) Cancel(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.signups.Cancel(c.Request.Context(), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"cancelled": true})
}

// GET /api/signups/me
func (h *SignupHandler) ListMine(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	items, err := h.signups.ListForUser(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, items)
}
