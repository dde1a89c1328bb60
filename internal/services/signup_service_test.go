package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/khadimfall/magal-events/internal/database/testutil"
	"github.com/khadimfall/magal-events/internal/models"
)

func TestSignUpPreconditionOrder(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewSignupService(db, nil)
	require.NoError(t, err)
	svc.timeNow = fixedClock(now)

	user := createTestUser(t, db, "pilgrim@example.com", models.RolePilgrim)
	ctx := context.Background()

	// Unknown event
	_, err = svc.SignUp(ctx, user.ID, "missing")
	require.ErrorIs(t, err, ErrEventNotFound)

	// Inactive event
	inactive := createTestEvent(t, db, now.Add(48*time.Hour), nil)
	require.NoError(t, db.Model(inactive).Update("is_active", false).Error)
	_, err = svc.SignUp(ctx, user.ID, inactive.ID)
	require.ErrorIs(t, err, ErrEventInactive)

	// Event already started
	past := createTestEvent(t, db, now.Add(-time.Hour), nil)
	_, err = svc.SignUp(ctx, user.ID, past.ID)
	require.ErrorIs(t, err, ErrEventPassed)

	// Valid event succeeds and stamps the service clock
	event := createTestEvent(t, db, now.Add(48*time.Hour), intPtr(10))
	result, err := svc.SignUp(ctx, user.ID, event.ID)
	require.NoError(t, err)
	require.Equal(t, now, result.Signup.SignedUpAt.UTC())
	require.NotNil(t, result.RemainingSeats)
	require.EqualValues(t, 9, *result.RemainingSeats)

	// Second attempt for the same pair conflicts
	_, err = svc.SignUp(ctx, user.ID, event.ID)
	require.ErrorIs(t, err, ErrAlreadySignedUp)
}

func TestSignUpCapacityBoundary(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewSignupService(db, nil)
	require.NoError(t, err)
	svc.timeNow = fixedClock(now)

	event := createTestEvent(t, db, now.Add(48*time.Hour), intPtr(2))
	ctx := context.Background()

	first := createTestUser(t, db, "first@example.com", models.RolePilgrim)
	second := createTestUser(t, db, "second@example.com", models.RolePilgrim)
	third := createTestUser(t, db, "third@example.com", models.RolePilgrim)

	result, err := svc.SignUp(ctx, first.ID, event.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, *result.RemainingSeats)

	result, err = svc.SignUp(ctx, second.ID, event.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, *result.RemainingSeats)

	_, err = svc.SignUp(ctx, third.ID, event.ID)
	require.ErrorIs(t, err, ErrEventFull)

	var count int64
	require.NoError(t, db.Model(&models.Signup{}).Where("event_id = ?", event.ID).Count(&count).Error)
	require.EqualValues(t, 2, count)
}

func TestSignUpUnlimitedCapacity(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewSignupService(db, nil)
	require.NoError(t, err)
	svc.timeNow = fixedClock(now)

	event := createTestEvent(t, db, now.Add(48*time.Hour), nil)
	user := createTestUser(t, db, "pilgrim@example.com", models.RolePilgrim)

	result, err := svc.SignUp(context.Background(), user.ID, event.ID)
	require.NoError(t, err)
	require.Nil(t, result.RemainingSeats)
}

func TestSignUpConcurrentRaceKeepsCapacityBound(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewSignupService(db, nil)
	require.NoError(t, err)
	svc.timeNow = fixedClock(now)

	event := createTestEvent(t, db, now.Add(48*time.Hour), intPtr(1))

	const attempts = 4
	users := make([]*models.User, attempts)
	for i := range users {
		users[i] = createTestUser(t, db, fmt.Sprintf("racer%d@example.com", i), models.RolePilgrim)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		fullErrs  int
	)
	for i := range users {
		wg.Add(1)
		go func(userID string) {
			defer wg.Done()
			_, err := svc.SignUp(context.Background(), userID, event.ID)
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				successes++
			case errors.Is(err, ErrEventFull):
				fullErrs++
			}
		}(users[i].ID)
	}
	wg.Wait()

	require.Equal(t, 1, successes)
	require.Equal(t, attempts-1, fullErrs)

	var count int64
	require.NoError(t, db.Model(&models.Signup{}).Where("event_id = ?", event.ID).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestCancelLockoutBoundary(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	startsAt := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	svc, err := NewSignupService(db, nil)
	require.NoError(t, err)

	user := createTestUser(t, db, "pilgrim@example.com", models.RolePilgrim)
	ctx := context.Background()

	// Unknown signup
	missing := createTestEvent(t, db, startsAt, nil)
	require.ErrorIs(t, svc.Cancel(ctx, user.ID, missing.ID), ErrSignupNotFound)

	// Exactly 24h before start: locked
	locked := createTestEvent(t, db, startsAt, nil)
	svc.timeNow = fixedClock(startsAt.Add(-72 * time.Hour))
	_, err = svc.SignUp(ctx, user.ID, locked.ID)
	require.NoError(t, err)
	svc.timeNow = fixedClock(startsAt.Add(-24 * time.Hour))
	require.ErrorIs(t, svc.Cancel(ctx, user.ID, locked.ID), ErrCancellationLocked)

	// One second earlier than the lockout: allowed
	svc.timeNow = fixedClock(startsAt.Add(-24*time.Hour - time.Second))
	require.NoError(t, svc.Cancel(ctx, user.ID, locked.ID))

	var count int64
	require.NoError(t, db.Model(&models.Signup{}).Where("user_id = ?", user.ID).Count(&count).Error)
	require.Zero(t, count)
}

func TestListForUserDerivesStatusAtReadTime(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc, err := NewSignupService(db, nil)
	require.NoError(t, err)

	user := createTestUser(t, db, "pilgrim@example.com", models.RolePilgrim)
	ctx := context.Background()

	early := createTestEvent(t, db, now.Add(36*time.Hour), nil)
	late := createTestEvent(t, db, now.Add(96*time.Hour), nil)

	svc.timeNow = fixedClock(now)
	_, err = svc.SignUp(ctx, user.ID, late.ID)
	require.NoError(t, err)
	_, err = svc.SignUp(ctx, user.ID, early.ID)
	require.NoError(t, err)

	items, err := svc.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, items, 2)
	// Ordered by start time ascending
	require.Equal(t, early.ID, items[0].Event.ID)
	require.Equal(t, late.ID, items[1].Event.ID)
	require.Equal(t, "upcoming", items[0].Status)
	require.Equal(t, "upcoming", items[1].Status)

	// Same rows read after the first event started
	svc.timeNow = fixedClock(now.Add(48 * time.Hour))
	items, err = svc.ListForUser(ctx, user.ID)
	require.NoError(t, err)
	require.Equal(t, "past", items[0].Status)
	require.Equal(t, "upcoming", items[1].Status)
}
