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

// FavoriteHandler exposes per-user point-of-interest bookmarks over HTTP.
type FavoriteHandler struct {
	favorites *services.FavoriteService
}

// NewFavoriteHandler constructs a favorite handler.
func NewFavoriteHandler(db *gorm.DB) (*FavoriteHandler, error) {
	favorites, err := services.NewFavoriteService(db)
	if err != nil {
		return nil, err
	}
	return &FavoriteHandler{favorites: favorites}, nil
}

// POST /api/points/:id/favorite
func (h *FavoriteHandler) Add(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	favorite, err := h.favorites.Add(c.Request.Context(), userID, strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, favorite)
}

// DELETE /api/points/:id/favorite
func (h *FavoriteHandler) Remove(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	if err := h.favorites.Remove(c.Request.Context(), userID, strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"removed": true})
}

// GET /api/favorites/me
func (h *FavoriteHandler) ListMine(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	items, err := h.favorites.ListForUser(c.Request.Context(), userID, c.Query("type"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, items)
}
