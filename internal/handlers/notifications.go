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

// NotificationHandler exposes broadcast and inbox endpoints.
type NotificationHandler struct {
	notifications *services.NotificationService
}

// NewNotificationHandler constructs a notification handler.
func NewNotificationHandler(db *gorm.DB, audit *services.AuditService) (*NotificationHandler, error) {
	notifications, err := services.NewNotificationService(db, audit)
	if err != nil {
		return nil, err
	}
	return &NotificationHandler{notifications: notifications}, nil
}

type broadcastRequest struct {
	Title   string `json:"title" validate:"required,max=200"`
	Message string `json:"message" validate:"required"`
	EventID string `json:"event_id"`
}

// POST /api/notifications/broadcast (admin)
// With an event_id the broadcast targets that event's current signups;
// without one it goes to every pilgrim.
func (h *NotificationHandler) Broadcast(c *gin.Context) {
	var req broadcastRequest
	if !bindAndValidate(c, &req) {
		return
	}

	actorID := c.GetString(middleware.CtxUserIDKey)
	ctx := c.Request.Context()

	var (
		result *services.BroadcastResult
		err    error
	)
	if eventID := strings.TrimSpace(req.EventID); eventID != "" {
		result, err = h.notifications.BroadcastToEventAttendees(ctx, actorID, req.Title, req.Message, eventID)
	} else {
		result, err = h.notifications.BroadcastToAll(ctx, actorID, req.Title, req.Message)
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusCreated, result)
}

// GET /api/notifications/me
func (h *NotificationHandler) ListMine(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	items, total, err := h.notifications.ListForUser(c.Request.Context(), userID, services.ListUserNotificationsOptions{
		ReadFilter: c.Query("read"),
		Page:       parseIntQuery(c, "page", 1),
		PageSize:   parseIntQuery(c, "page_size", 50),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, items, &response.Meta{Total: total})
}

// GET /api/notifications/me/unread_count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	count, err := h.notifications.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"unread": count})
}

// POST /api/notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	recipient, err := h.notifications.MarkRead(c.Request.Context(), strings.TrimSpace(c.Param("id")), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, recipient)
}

// POST /api/notifications/read_all
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserIDKey)
	if userID == "" {
		response.Error(c, errors.ErrUnauthorized)
		return
	}

	affected, err := h.notifications.MarkAllRead(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"updated": affected})
}

// GET /api/notifications (admin)
func (h *NotificationHandler) ListAll(c *gin.Context) {
	summaries, total, err := h.notifications.ListAll(c.Request.Context(), services.ListNotificationsOptions{
		EventID:  c.Query("event_id"),
		Page:     parseIntQuery(c, "page", 1),
		PageSize: parseIntQuery(c, "page_size", 50),
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.SuccessWithMeta(c, http.StatusOK, summaries, &response.Meta{Total: total})
}

// DELETE /api/notifications/:id (admin)
func (h *NotificationHandler) Delete(c *gin.Context) {
	removed, err := h.notifications.Delete(c.Request.Context(), c.GetString(middleware.CtxUserIDKey), strings.TrimSpace(c.Param("id")))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"deleted": true, "recipients_removed": removed})
}
