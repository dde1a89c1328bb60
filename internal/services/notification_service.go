package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/khadimfall/magal-events/internal/models"
	apperrors "github.com/khadimfall/magal-events/pkg/errors"
	"github.com/khadimfall/magal-events/pkg/metrics"
)

// recipientBatchSize bounds the insert batch during broadcast fan-out.
const recipientBatchSize = 200

var (
	// ErrNotificationNotFound indicates the notification does not exist or
	// the user is not among its recipients.
	ErrNotificationNotFound = apperrors.New("NOTIFICATION_NOT_FOUND", "Notification not found", http.StatusNotFound)
	// ErrNoRecipients indicates a targeted broadcast resolved zero recipients.
	ErrNoRecipients = apperrors.New("NO_RECIPIENTS", "Event has no signups to notify", http.StatusBadRequest)
)

// BroadcastResult reports the created notification and its fan-out size.
type BroadcastResult struct {
	Notification   *models.Notification `json:"notification"`
	RecipientCount int64                `json:"recipient_count"`
}

// UserNotification is one entry in a user's inbox: the notification joined
// with that user's read state.
type UserNotification struct {
	Notification models.Notification `json:"notification"`
	IsRead       bool                `json:"is_read"`
	ReadAt       *time.Time          `json:"read_at"`
}

// NotificationSummary is the admin view of a notification with delivery stats.
type NotificationSummary struct {
	Notification   models.Notification `json:"notification"`
	RecipientCount int64               `json:"recipient_count"`
	ReadCount      int64               `json:"read_count"`
}

// ListUserNotificationsOptions filters a user's inbox listing.
type ListUserNotificationsOptions struct {
	// ReadFilter narrows by read state: "read" or "unread"; empty means all.
	ReadFilter string
	Page       int
	PageSize   int
}

// ListNotificationsOptions filters the admin notification listing.
type ListNotificationsOptions struct {
	EventID  string
	Page     int
	PageSize int
}

// NotificationService creates broadcasts and tracks per-recipient read state.
type NotificationService struct {
	db           *gorm.DB
	auditService *AuditService
	timeNow      func() time.Time
}

// NewNotificationService constructs a NotificationService instance.
func NewNotificationService(db *gorm.DB, auditService *AuditService) (*NotificationService, error) {
	if db == nil {
		return nil, errors.New("notification service: db is required")
	}
	return &NotificationService{
		db:           db,
		auditService: auditService,
		timeNow:      time.Now,
	}, nil
}

// BroadcastToAll creates a notification and one recipient row per non-admin
// user, all in a single transaction. Zero users is not an error.
func (s *NotificationService) BroadcastToAll(ctx context.Context, actorID, title, message string) (*BroadcastResult, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(title) == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.NewBadRequest("message is required")
	}

	var result BroadcastResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var userIDs []string
		if err := tx.Model(&models.User{}).
			Where("role <> ?", models.RoleAdmin).
			Pluck("id", &userIDs).Error; err != nil {
			return fmt.Errorf("notification service: load recipients: %w", err)
		}

		notification, err := s.createWithRecipients(tx, title, message, nil, userIDs)
		if err != nil {
			return err
		}

		result.Notification = notification
		result.RecipientCount = int64(len(userIDs))
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BroadcastRecipients.Observe(float64(result.RecipientCount))
	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "notification.broadcast_all",
		Resource: result.Notification.ID,
		Result:   "success",
		Metadata: map[string]any{"recipients": result.RecipientCount},
	})

	return &result, nil
}

// BroadcastToEventAttendees creates a notification addressed to the users
// currently signed up for the event. The recipient set is a snapshot taken
// at send time; users who sign up later never receive it.
func (s *NotificationService) BroadcastToEventAttendees(ctx context.Context, actorID, title, message, eventID string) (*BroadcastResult, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(title) == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if strings.TrimSpace(message) == "" {
		return nil, apperrors.NewBadRequest("message is required")
	}

	var result BroadcastResult
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		err := tx.First(&event, "id = ?", eventID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("notification service: load event: %w", err)
		}

		var userIDs []string
		if err := tx.Model(&models.Signup{}).
			Where("event_id = ?", eventID).
			Pluck("user_id", &userIDs).Error; err != nil {
			return fmt.Errorf("notification service: load attendees: %w", err)
		}
		if len(userIDs) == 0 {
			return ErrNoRecipients
		}

		notification, err := s.createWithRecipients(tx, title, message, &event.ID, userIDs)
		if err != nil {
			return err
		}

		result.Notification = notification
		result.RecipientCount = int64(len(userIDs))
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.BroadcastRecipients.Observe(float64(result.RecipientCount))
	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "notification.broadcast_event",
		Resource: result.Notification.ID,
		Result:   "success",
		Metadata: map[string]any{"event_id": eventID, "recipients": result.RecipientCount},
	})

	return &result, nil
}

func (s *NotificationService) createWithRecipients(tx *gorm.DB, title, message string, eventID *string, userIDs []string) (*models.Notification, error) {
	notification := models.Notification{
		Title:   strings.TrimSpace(title),
		Message: strings.TrimSpace(message),
		EventID: eventID,
		SentAt:  s.timeNow(),
	}
	if err := tx.Create(&notification).Error; err != nil {
		return nil, fmt.Errorf("notification service: create notification: %w", err)
	}

	if len(userIDs) == 0 {
		return &notification, nil
	}

	recipients := make([]models.NotificationRecipient, 0, len(userIDs))
	for _, userID := range userIDs {
		recipients = append(recipients, models.NotificationRecipient{
			NotificationID: notification.ID,
			UserID:         userID,
		})
	}
	if err := tx.CreateInBatches(&recipients, recipientBatchSize).Error; err != nil {
		return nil, fmt.Errorf("notification service: create recipients: %w", err)
	}

	return &notification, nil
}

// MarkRead marks the user's copy of a notification as read. The call is
// idempotent; a second call leaves the original read_at untouched.
func (s *NotificationService) MarkRead(ctx context.Context, notificationID, userID string) (*models.NotificationRecipient, error) {
	ctx = ensureContext(ctx)

	var recipient models.NotificationRecipient
	err := s.db.WithContext(ctx).
		Where("notification_id = ? AND user_id = ?", notificationID, userID).
		First(&recipient).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotificationNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("notification service: load recipient: %w", err)
	}

	if recipient.IsRead {
		return &recipient, nil
	}

	now := s.timeNow()
	if err := s.db.WithContext(ctx).Model(&recipient).
		Updates(map[string]any{"is_read": true, "read_at": now}).Error; err != nil {
		return nil, fmt.Errorf("notification service: mark read: %w", err)
	}

	recipient.IsRead = true
	recipient.ReadAt = &now
	return &recipient, nil
}

// MarkAllRead marks every unread notification for the user as read and
// returns how many rows were affected.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	now := s.timeNow()
	result := s.db.WithContext(ctx).
		Model(&models.NotificationRecipient{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Updates(map[string]any{"is_read": true, "read_at": now})
	if result.Error != nil {
		return 0, fmt.Errorf("notification service: mark all read: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// UnreadCount returns the number of unread notifications for the user.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).
		Model(&models.NotificationRecipient{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("notification service: unread count: %w", err)
	}
	return count, nil
}

// Delete removes a notification along with its recipient rows, returning
// how many recipients existed at deletion time.
func (s *NotificationService) Delete(ctx context.Context, actorID, notificationID string) (int64, error) {
	ctx = ensureContext(ctx)

	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var notification models.Notification
		err := tx.First(&notification, "id = ?", notificationID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotificationNotFound
		}
		if err != nil {
			return fmt.Errorf("notification service: load notification: %w", err)
		}

		if err := tx.Model(&models.NotificationRecipient{}).
			Where("notification_id = ?", notificationID).
			Count(&removed).Error; err != nil {
			return fmt.Errorf("notification service: count recipients: %w", err)
		}

		if err := tx.Where("notification_id = ?", notificationID).
			Delete(&models.NotificationRecipient{}).Error; err != nil {
			return fmt.Errorf("notification service: delete recipients: %w", err)
		}
		if err := tx.Delete(&notification).Error; err != nil {
			return fmt.Errorf("notification service: delete notification: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "notification.delete",
		Resource: notificationID,
		Result:   "success",
		Metadata: map[string]any{"recipients_removed": removed},
	})

	return removed, nil
}

// ListForUser returns the user's inbox newest first with per-row read state.
func (s *NotificationService) ListForUser(ctx context.Context, userID string, opts ListUserNotificationsOptions) ([]UserNotification, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	query := s.db.WithContext(ctx).
		Model(&models.NotificationRecipient{}).
		Where("user_id = ?", userID)

	switch strings.ToLower(strings.TrimSpace(opts.ReadFilter)) {
	case "read":
		query = query.Where("is_read = ?", true)
	case "unread":
		query = query.Where("is_read = ?", false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: count inbox: %w", err)
	}

	var recipients []models.NotificationRecipient
	if err := query.
		Preload("Notification").
		Joins("JOIN notifications ON notifications.id = notification_recipients.notification_id").
		Order("notifications.sent_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&recipients).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: list inbox: %w", err)
	}

	items := make([]UserNotification, 0, len(recipients))
	for _, recipient := range recipients {
		if recipient.Notification == nil {
			continue
		}
		items = append(items, UserNotification{
			Notification: *recipient.Notification,
			IsRead:       recipient.IsRead,
			ReadAt:       recipient.ReadAt,
		})
	}
	return items, total, nil
}

// ListAll returns every notification newest first with delivery statistics,
// optionally filtered by target event.
func (s *NotificationService) ListAll(ctx context.Context, opts ListNotificationsOptions) ([]NotificationSummary, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	query := s.db.WithContext(ctx).Model(&models.Notification{})
	if eventID := strings.TrimSpace(opts.EventID); eventID != "" {
		query = query.Where("event_id = ?", eventID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: count notifications: %w", err)
	}

	var notifications []models.Notification
	if err := query.
		Order("sent_at DESC").
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&notifications).Error; err != nil {
		return nil, 0, fmt.Errorf("notification service: list notifications: %w", err)
	}

	summaries := make([]NotificationSummary, 0, len(notifications))
	for _, notification := range notifications {
		var recipientCount, readCount int64
		if err := s.db.WithContext(ctx).
			Model(&models.NotificationRecipient{}).
			Where("notification_id = ?", notification.ID).
			Count(&recipientCount).Error; err != nil {
			return nil, 0, fmt.Errorf("notification service: count recipients: %w", err)
		}
		if err := s.db.WithContext(ctx).
			Model(&models.NotificationRecipient{}).
			Where("notification_id = ? AND is_read = ?", notification.ID, true).
			Count(&readCount).Error; err != nil {
			return nil, 0, fmt.Errorf("notification service: count reads: %w", err)
		}
		summaries = append(summaries, NotificationSummary{
			Notification:   notification,
			RecipientCount: recipientCount,
			ReadCount:      readCount,
		})
	}

	return summaries, total, nil
}
