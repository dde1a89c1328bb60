package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/khadimfall/magal-events/internal/middleware"
	"github.com/khadimfall/magal-events/internal/models"
	"github.com/khadimfall/magal-events/internal/services"
	"github.com/khadimfall/magal-events/pkg/response"
)

// EventHandler exposes the event catalog over HTTP.
type EventHandler struct {
	events *services.EventService
}

// NewEventHandler constructs an event handler.
func NewEventHandler(db *gorm.DB, audit *services.AuditService) (*EventHandler, error) {
	events, err := services.NewEventService(db, audit)
	if err != nil {
		return nil, err
	}
	return &EventHandler{events: events}, nil
}

type createEventRequest struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description"`
	StartsAt    time.Time `json:"starts_at" validate:"required"`
	Location    string    `json:"location" validate:"required,max=200"`
	MaxCapacity *int      `json:"max_capacity" validate:"omitempty,min=1"`
	IsActive    *bool     `json:"is_active"`
	ImageURL    string    `json:"image_url"`
}

type updateEventRequest struct {
	Title            *string    `json:"title" validate:"omitempty,max=200"`
	Description      *string    `json:"description"`
	StartsAt         *time.Time `json:"starts_at"`
	Location         *string    `json:"location" validate:"omitempty,max=200"`
	MaxCapacity      *int       `json:"max_capacity" validate:"omitempty,min=1"`
	ClearMaxCapacity bool       `json:"clear_max_capacity"`
	IsActive         *bool      `json:"is_active"`
	ImageURL         *string    `json:"image_url"`
}

// GET /api/events
func (h *EventHandler) List(c *gin.Context) {
	views, total, err := h.events.List(c.Request.Context(), services.ListEventsOptions{
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 50),
		SortDesc: strings.EqualFold(c.Query("sort"), "desc"),
		Filters: services.EventFilters{
			Status: c.Query("status"),
			Period: c.Query("period"),
			Query:  c.Query("q"),
		},
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, views, &response.Meta{Total: total})
}

// GET /api/events/:id
func (h *EventHandler) Get(c *gin.Context) {
	includeAttendees := c.GetString(middleware.CtxRoleKey) == models.RoleAdmin

	detail, err := h.events.Get(c.Request.Context(), strings.TrimSpace(c.Param("id")), includeAttendees)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, detail)
}

// POST /api/events (admin)
func (h *EventHandler) Create(c *gin.Context) {
	var req createEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	event, err := h.events.Create(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), services.CreateEventInput{
		Title:       req.Title,
		Description: req.Description,
		StartsAt:    req.StartsAt,
		Location:    req.Location,
		MaxCapacity: req.MaxCapacity,
		IsActive:    req.IsActive,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, event)
}

// PATCH /api/events/:id (admin)
func (h *EventHandler) Update(c *gin.Context) {
	var req updateEventRequest
	if !bindAndValidate(c, &req) {
		return
	}

	event, err := h.events.Update(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), strings.TrimSpace(c.Param("id")), services.UpdateEventInput{
		Title:            req.Title,
		Description:      req.Description,
		StartsAt:         req.StartsAt,
		Location:         req.Location,
		MaxCapacity:      req.MaxCapacity,
		ClearMaxCapacity: req.ClearMaxCapacity,
		IsActive:         req.IsActive,
		ImageURL:         req.ImageURL,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, event)
}

// DELETE /api/events/:id (admin)
func (h *EventHandler) Delete(c *gin.Context) {
	removed, err := h.events.Delete(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true, "signups_removed": removed})
}
