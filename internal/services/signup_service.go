package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/khadimfall/magal-events/internal/models"
	apperrors "github.com/khadimfall/magal-events/pkg/errors"
	"github.com/khadimfall/magal-events/pkg/metrics"
)

// cancellationLockout is the window before an event start during which
// signups can no longer be cancelled.
const cancellationLockout = 24 * time.Hour

var (
	// ErrEventNotFound indicates the target event does not exist.
	ErrEventNotFound = apperrors.New("EVENT_NOT_FOUND", "Event not found", http.StatusNotFound)
	// ErrEventInactive indicates the event is not open for signups.
	ErrEventInactive = apperrors.New("EVENT_INACTIVE", "Event is not open for signups", http.StatusBadRequest)
	// ErrEventPassed indicates the event start time is already behind us.
	ErrEventPassed = apperrors.New("EVENT_PASSED", "Event has already started", http.StatusBadRequest)
	// ErrAlreadySignedUp indicates a duplicate signup for the same event.
	ErrAlreadySignedUp = apperrors.NewConflict("ALREADY_SIGNED_UP", "Already signed up for this event")
	// ErrEventFull indicates the event reached its maximum capacity.
	ErrEventFull = apperrors.NewConflict("EVENT_FULL", "Event is at full capacity")
	// ErrSignupNotFound indicates no signup exists for the (user, event) pair.
	ErrSignupNotFound = apperrors.New("SIGNUP_NOT_FOUND", "Signup not found", http.StatusNotFound)
	// ErrCancellationLocked indicates the event starts too soon to cancel.
	ErrCancellationLocked = apperrors.New("CANCELLATION_LOCKED", "Signups cannot be cancelled within 24 hours of the event start", http.StatusBadRequest)
)

// SignupResult reports the outcome of a successful signup.
type SignupResult struct {
	Signup         *models.Signup `json:"signup"`
	RemainingSeats *int64         `json:"remaining_seats"`
}

// UserSignup is one entry in a user's signup listing: the event joined with
// the signup timestamp and a status derived against the clock at read time.
type UserSignup struct {
	Event      models.Event `json:"event"`
	SignedUpAt time.Time    `json:"signed_up_at"`
	Status     string       `json:"status"`
}

// SignupService maintains the capacity-bounded signup ledger.
type SignupService struct {
	db           *gorm.DB
	auditService *AuditService
	timeNow      func() time.Time
}

// NewSignupService constructs a SignupService instance.
func NewSignupService(db *gorm.DB, auditService *AuditService) (*SignupService, error) {
	if db == nil {
		return nil, errors.New("signup service: db is required")
	}
	return &SignupService{
		db:           db,
		auditService: auditService,
		timeNow:      time.Now,
	}, nil
}

// SignUp registers the user for the event. Preconditions are checked in a
// fixed order and the first failure wins: the event must exist, be active,
// start in the future, not already hold a signup for the user, and have a
// free seat. The check and the insert run in one transaction that locks the
// event row, so concurrent signups for the same event serialize and the
// capacity bound holds. The unique (user, event) index backstops duplicates.
func (s *SignupService) SignUp(ctx context.Context, userID, eventID string) (*SignupResult, error) {
	ctx = ensureContext(ctx)

	var result SignupResult

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var event models.Event
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			First(&event, "id = ?", eventID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEventNotFound
		}
		if err != nil {
			return fmt.Errorf("signup service: load event: %w", err)
		}

		if !event.IsActive {
			return ErrEventInactive
		}

		now := s.timeNow()
		if event.HasPassed(now) {
			return ErrEventPassed
		}

		var existing int64
		if err := tx.Model(&models.Signup{}).
			Where("user_id = ? AND event_id = ?", userID, eventID).
			Count(&existing).Error; err != nil {
			return fmt.Errorf("signup service: check existing signup: %w", err)
		}
		if existing > 0 {
			return ErrAlreadySignedUp
		}

		var count int64
		if err := tx.Model(&models.Signup{}).
			Where("event_id = ?", eventID).
			Count(&count).Error; err != nil {
			return fmt.Errorf("signup service: count signups: %w", err)
		}
		if event.MaxCapacity != nil && count >= int64(*event.MaxCapacity) {
			return ErrEventFull
		}

		signup := models.Signup{
			UserID:     userID,
			EventID:    eventID,
			SignedUpAt: now,
		}
		if err := tx.Create(&signup).Error; err != nil {
			if isUniqueConstraintError(err) {
				return ErrAlreadySignedUp
			}
			return fmt.Errorf("signup service: create signup: %w", err)
		}

		result.Signup = &signup
		result.RemainingSeats = event.RemainingSeats(count + 1)
		return nil
	})
	if err != nil {
		metrics.SignupAttempts.WithLabelValues(signupOutcome(err)).Inc()
		return nil, err
	}

	metrics.SignupAttempts.WithLabelValues("success").Inc()
	return &result, nil
}

// Cancel removes the user's signup for the event. Cancellation is refused
// inside the 24 hour lockout before the event start.
func (s *SignupService) Cancel(ctx context.Context, userID, eventID string) error {
	ctx = ensureContext(ctx)

	var signup models.Signup
	err := s.db.WithContext(ctx).
		Preload("Event").
		Where("user_id = ? AND event_id = ?", userID, eventID).
		First(&signup).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSignupNotFound
	}
	if err != nil {
		return fmt.Errorf("signup service: load signup: %w", err)
	}

	if signup.Event != nil {
		now := s.timeNow()
		if signup.Event.StartsAt.Sub(now) <= cancellationLockout {
			return ErrCancellationLocked
		}
	}

	if err := s.db.WithContext(ctx).Delete(&signup).Error; err != nil {
		return fmt.Errorf("signup service: delete signup: %w", err)
	}
	return nil
}

// ListForUser returns the user's signed-up events ordered by start time
// ascending. Status is derived per read and never stored.
func (s *SignupService) ListForUser(ctx context.Context, userID string) ([]UserSignup, error) {
	ctx = ensureContext(ctx)

	var signups []models.Signup
	if err := s.db.WithContext(ctx).
		Preload("Event").
		Joins("JOIN events ON events.id = signups.event_id").
		Where("signups.user_id = ?", userID).
		Order("events.starts_at ASC").
		Find(&signups).Error; err != nil {
		return nil, fmt.Errorf("signup service: list signups: %w", err)
	}

	now := s.timeNow()
	items := make([]UserSignup, 0, len(signups))
	for _, signup := range signups {
		if signup.Event == nil {
			continue
		}
		status := "upcoming"
		if signup.Event.HasPassed(now) {
			status = "past"
		}
		items = append(items, UserSignup{
			Event:      *signup.Event,
			SignedUpAt: signup.SignedUpAt,
			Status:     status,
		})
	}
	return items, nil
}

// CountForEvent returns the number of current signups for the event.
func (s *SignupService) CountForEvent(ctx context.Context, eventID string) (int64, error) {
	ctx = ensureContext(ctx)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Signup{}).
		Where("event_id = ?", eventID).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("signup service: count signups: %w", err)
	}
	return count, nil
}

func signupOutcome(err error) string {
	switch {
	case errors.Is(err, ErrAlreadySignedUp):
		return "duplicate"
	case errors.Is(err, ErrEventFull):
		return "full"
	case errors.Is(err, ErrEventNotFound),
		errors.Is(err, ErrEventInactive),
		errors.Is(err, ErrEventPassed):
		return "invalid"
	default:
		return "error"
	}
}
