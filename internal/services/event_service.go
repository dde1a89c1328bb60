package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/khadimfall/magal-events/internal/models"
	apperrors "github.com/khadimfall/magal-events/pkg/errors"
)

// CreateEventInput describes the fields accepted when creating an event.
type CreateEventInput struct {
	Title       string
	Description string
	StartsAt    time.Time
	Location    string
	MaxCapacity *int
	IsActive    *bool
	ImageURL    string
}

// UpdateEventInput enumerates mutable event attributes. Nil fields are left
// untouched. ClearMaxCapacity nulls the capacity column, returning the event
// to unlimited; it takes precedence over MaxCapacity.
type UpdateEventInput struct {
	Title            *string
	Description      *string
	StartsAt         *time.Time
	Location         *string
	MaxCapacity      *int
	ClearMaxCapacity bool
	IsActive         *bool
	ImageURL         *string
}

// EventFilters captures listing filters.
type EventFilters struct {
	// Status filters by activation flag: "active" or "inactive".
	Status string
	// Period filters by start time: "upcoming" or "past".
	Period string
	// Query matches title, description, or location.
	Query string
}

// ListEventsOptions controls filtering, sorting, and pagination.
type ListEventsOptions struct {
	Page     int
	PageSize int
	SortDesc bool
	Filters  EventFilters
}

// EventView is an event enriched with per-read derived capacity state.
type EventView struct {
	models.Event
	SignupCount    int64  `json:"signup_count"`
	RemainingSeats *int64 `json:"remaining_seats"`
	IsFull         bool   `json:"is_full"`
}

// EventDetail extends EventView with the attendee list for admin views.
type EventDetail struct {
	EventView
	Attendees []models.User `json:"attendees,omitempty"`
}

// EventService manages the event catalog.
type EventService struct {
	db           *gorm.DB
	auditService *AuditService
	timeNow      func() time.Time
}

// NewEventService constructs an EventService instance.
func NewEventService(db *gorm.DB, auditService *AuditService) (*EventService, error) {
	if db == nil {
		return nil, errors.New("event service: db is required")
	}
	return &EventService{
		db:           db,
		auditService: auditService,
		timeNow:      time.Now,
	}, nil
}

// Create persists a new event.
func (s *EventService) Create(ctx context.Context, actorID string, input CreateEventInput) (*models.Event, error) {
	ctx = ensureContext(ctx)

	if strings.TrimSpace(input.Title) == "" {
		return nil, apperrors.NewBadRequest("title is required")
	}
	if strings.TrimSpace(input.Location) == "" {
		return nil, apperrors.NewBadRequest("location is required")
	}
	if input.StartsAt.IsZero() {
		return nil, apperrors.NewBadRequest("start time is required")
	}
	if input.MaxCapacity != nil && *input.MaxCapacity <= 0 {
		return nil, apperrors.NewBadRequest("max capacity must be positive")
	}

	event := &models.Event{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		StartsAt:    input.StartsAt,
		Location:    strings.TrimSpace(input.Location),
		MaxCapacity: input.MaxCapacity,
		IsActive:    true,
		ImageURL:    strings.TrimSpace(input.ImageURL),
	}
	if input.IsActive != nil {
		event.IsActive = *input.IsActive
	}

	if err := s.db.WithContext(ctx).Create(event).Error; err != nil {
		return nil, fmt.Errorf("event service: create event: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "event.create",
		Resource: event.ID,
		Result:   "success",
		Metadata: map[string]any{"title": event.Title},
	})

	return event, nil
}

// Update applies partial changes to an existing event.
func (s *EventService) Update(ctx context.Context, actorID, id string, input UpdateEventInput) (*models.Event, error) {
	ctx = ensureContext(ctx)

	var event models.Event
	err := s.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: load event: %w", err)
	}

	updates := map[string]any{}
	if input.Title != nil {
		if title := strings.TrimSpace(*input.Title); title != "" {
			updates["title"] = title
		}
	}
	if input.Description != nil {
		updates["description"] = strings.TrimSpace(*input.Description)
	}
	if input.StartsAt != nil && !input.StartsAt.IsZero() {
		updates["starts_at"] = *input.StartsAt
	}
	if input.Location != nil {
		if location := strings.TrimSpace(*input.Location); location != "" {
			updates["location"] = location
		}
	}
	if input.ClearMaxCapacity {
		updates["max_capacity"] = nil
	} else if input.MaxCapacity != nil {
		if *input.MaxCapacity <= 0 {
			return nil, apperrors.NewBadRequest("max capacity must be positive")
		}
		updates["max_capacity"] = *input.MaxCapacity
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if input.ImageURL != nil {
		updates["image_url"] = strings.TrimSpace(*input.ImageURL)
	}

	if len(updates) == 0 {
		return &event, nil
	}

	if err := s.db.WithContext(ctx).Model(&event).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("event service: update event: %w", err)
	}

	if err := s.db.WithContext(ctx).First(&event, "id = ?", id).Error; err != nil {
		return nil, fmt.Errorf("event service: reload event: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "event.update",
		Resource: event.ID,
		Result:   "success",
		Metadata: map[string]any{"fields": updateKeys(updates)},
	})

	return &event, nil
}

// Delete removes an event along with its signups, returning how many
// signups existed at deletion time.
func (s *EventService) Delete(ctx context.Context, actorID, id string) (int64, error) {
	ctx = ensureContext(ctx)

	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		err := tx.First(&event, "id = ?", id).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("event service: load event: %w", err)
		}

		if err := tx.Model(&models.Signup{}).
			Where("event_id = ?", id).
			Count(&removed).Error; err != nil {
			return fmt.Errorf("event service: count signups: %w", err)
		}

		if err := tx.Where("event_id = ?", id).Delete(&models.Signup{}).Error; err != nil {
			return fmt.Errorf("event service: delete signups: %w", err)
		}
		if err := tx.Delete(&event).Error; err != nil {
			return fmt.Errorf("event service: delete event: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		UserID:   &actorID,
		Action:   "event.delete",
		Resource: id,
		Result:   "success",
		Metadata: map[string]any{"signups_removed": removed},
	})

	return removed, nil
}

// Get loads an event with derived capacity state. When includeAttendees is
// set the signed-up users are loaded as well (admin view).
func (s *EventService) Get(ctx context.Context, id string, includeAttendees bool) (*EventDetail, error) {
	ctx = ensureContext(ctx)

	var event models.Event
	err := s.db.WithContext(ctx).First(&event, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("event service: get event: %w", err)
	}

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Signup{}).
		Where("event_id = ?", id).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("event service: count signups: %w", err)
	}

	detail := &EventDetail{EventView: buildEventView(event, count)}

	if includeAttendees {
		if err := s.db.WithContext(ctx).
			Joins("JOIN signups ON signups.user_id = users.id").
			Where("signups.event_id = ?", id).
			Order("signups.signed_up_at ASC").
			Find(&detail.Attendees).Error; err != nil {
			return nil, fmt.Errorf("event service: load attendees: %w", err)
		}
	}

	return detail, nil
}

// List retrieves events matching the supplied filters with derived capacity
// state per row.
func (s *EventService) List(ctx context.Context, opts ListEventsOptions) ([]EventView, int64, error) {
	ctx = ensureContext(ctx)

	page := opts.Page
	if page <= 0 {
		page = 1
	}
	perPage := opts.PageSize
	if perPage <= 0 || perPage > 200 {
		perPage = 50
	}

	query := s.db.WithContext(ctx).Model(&models.Event{})

	switch strings.ToLower(strings.TrimSpace(opts.Filters.Status)) {
	case "active":
		query = query.Where("is_active = ?", true)
	case "inactive":
		query = query.Where("is_active = ?", false)
	}

	now := s.timeNow()
	switch strings.ToLower(strings.TrimSpace(opts.Filters.Period)) {
	case "upcoming":
		query = query.Where("starts_at >= ?", now)
	case "past":
		query = query.Where("starts_at < ?", now)
	}

	if q := strings.TrimSpace(opts.Filters.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		query = query.Where(
			"LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?",
			pattern, pattern, pattern,
		)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("event service: count events: %w", err)
	}

	order := "starts_at ASC"
	if opts.SortDesc {
		order = "starts_at DESC"
	}

	var events []models.Event
	if err := query.
		Order(order).
		Offset((page - 1) * perPage).
		Limit(perPage).
		Find(&events).Error; err != nil {
		return nil, 0, fmt.Errorf("event service: list events: %w", err)
	}

	views := make([]EventView, 0, len(events))
	for _, event := range events {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Signup{}).
			Where("event_id = ?", event.ID).
			Count(&count).Error; err != nil {
			return nil, 0, fmt.Errorf("event service: count signups: %w", err)
		}
		views = append(views, buildEventView(event, count))
	}

	return views, total, nil
}

func buildEventView(event models.Event, signupCount int64) EventView {
	remaining := event.RemainingSeats(signupCount)
	return EventView{
		Event:          event,
		SignupCount:    signupCount,
		RemainingSeats: remaining,
		IsFull:         remaining != nil && *remaining == 0,
	}
}

func updateKeys(updates map[string]any) []string {
	keys := make([]string, 0, len(updates))
	for key := range updates {
		keys = append(keys, key)
	}
	return keys
}
