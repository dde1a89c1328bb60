package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/khadimfall/magal-events/internal/middleware"
	"github.com/khadimfall/magal-events/internal/services"
	"github.com/khadimfall/magal-events/pkg/response"
)

// PointHandler exposes the point-of-interest catalog over HTTP.
type PointHandler struct {
	points *services.PointOfInterestService
}

// NewPointHandler constructs a point-of-interest handler.
func NewPointHandler(db *gorm.DB, audit *services.AuditService) (*PointHandler, error) {
	points, err := services.NewPointOfInterestService(db, audit)
	if err != nil {
		return nil, err
	}
	return &PointHandler{points: points}, nil
}

type createPointRequest struct {
	Name            string `json:"name" validate:"required,max=200"`
	Type            string `json:"type" validate:"required,oneof=mosque health lodging food transport other"`
	Address         string `json:"address" validate:"required,max=300"`
	Description     string `json:"description"`
	EmergencyNumber string `json:"emergency_number" validate:"max=32"`
	ImageURL        string `json:"image_url"`
}

type updatePointRequest struct {
	Name            *string `json:"name" validate:"omitempty,max=200"`
	Type            *string `json:"type" validate:"omitempty,oneof=mosque health lodging food transport other"`
	Address         *string `json:"address" validate:"omitempty,max=300"`
	Description     *string `json:"description"`
	EmergencyNumber *string `json:"emergency_number" validate:"omitempty,max=32"`
	ImageURL        *string `json:"image_url"`
}

// GET /api/points
func (h *PointHandler) List(c *gin.Context) {
	points, err := h.points.List(c.Request.Context(), c.Query("type"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, points)
}

// GET /api/points/:id
func (h *PointHandler) Get(c *gin.Context) {
	point, err := h.points.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, point)
}

// POST /api/points (admin)
func (h *PointHandler) Create(c *gin.Context) {
	var req createPointRequest
	if !bindAndValidate(c, &req) {
		return
	}

	point, err := h.points.Create(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), services.CreatePointInput{
		Name:            req.Name,
		Type:            req.Type,
		Address:         req.Address,
		Description:     req.Description,
		EmergencyNumber: req.EmergencyNumber,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, point)
}

// PATCH /api/points/:id (admin)
func (h *PointHandler) Update(c *gin.Context) {
	var req updatePointRequest
	if !bindAndValidate(c, &req) {
		return
	}

	point, err := h.points.Update(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), strings.TrimSpace(c.Param("id")), services.UpdatePointInput{
		Name:            req.Name,
		Type:            req.Type,
		Address:         req.Address,
		Description:     req.Description,
		EmergencyNumber: req.EmergencyNumber,
		ImageURL:        req.ImageURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, point)
}

// DELETE /api/points/:id (admin)
func (h *PointHandler) Delete(c *gin.Context) {
	if err := h.points.Delete(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), strings.TrimSpace(c.Param("id"))); err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true})
}
