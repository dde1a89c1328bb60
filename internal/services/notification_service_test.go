package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/khadimfall/magal-events/internal/database/testutil"
	"github.com/khadimfall/magal-events/internal/models"
)

func TestBroadcastToAllSkipsAdmins(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	pilgrims := make([]*models.User, 3)
	for i := range pilgrims {
		pilgrims[i] = createTestUser(t, db, fmt.Sprintf("pilgrim%d@example.com", i), models.RolePilgrim)
	}

	ctx := context.Background()
	result, err := svc.BroadcastToAll(ctx, admin.ID, "Programme", "Le programme est disponible")
	require.NoError(t, err)
	require.EqualValues(t, 3, result.RecipientCount)

	// The admin never receives their own broadcast
	var adminRows int64
	require.NoError(t, db.Model(&models.NotificationRecipient{}).
		Where("user_id = ?", admin.ID).Count(&adminRows).Error)
	require.Zero(t, adminRows)

	for _, pilgrim := range pilgrims {
		count, err := svc.UnreadCount(ctx, pilgrim.ID)
		require.NoError(t, err)
		require.EqualValues(t, 1, count)
	}
}

func TestBroadcastToAllWithZeroUsers(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)

	result, err := svc.BroadcastToAll(context.Background(), admin.ID, "Programme", "Message")
	require.NoError(t, err)
	require.EqualValues(t, 0, result.RecipientCount)
	require.NotEmpty(t, result.Notification.ID)
}

func TestBroadcastToEventAttendeesSnapshot(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	notifSvc, err := NewNotificationService(db, nil)
	require.NoError(t, err)
	signupSvc, err := NewSignupService(db, nil)
	require.NoError(t, err)
	signupSvc.timeNow = fixedClock(now)

	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	event := createTestEvent(t, db, now.Add(48*time.Hour), nil)
	ctx := context.Background()

	_, err = notifSvc.BroadcastToEventAttendees(ctx, admin.ID, "Rappel", "Message", "missing")
	require.ErrorIs(t, err, ErrEventNotFound)

	// No signups yet
	_, err = notifSvc.BroadcastToEventAttendees(ctx, admin.ID, "Rappel", "Message", event.ID)
	require.ErrorIs(t, err, ErrNoRecipients)

	attendee := createTestUser(t, db, "attendee@example.com", models.RolePilgrim)
	_, err = signupSvc.SignUp(ctx, attendee.ID, event.ID)
	require.NoError(t, err)

	result, err := notifSvc.BroadcastToEventAttendees(ctx, admin.ID, "Rappel", "Le depart approche", event.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, result.RecipientCount)
	require.NotNil(t, result.Notification.EventID)
	require.Equal(t, event.ID, *result.Notification.EventID)

	// A later signup never receives the earlier broadcast
	latecomer := createTestUser(t, db, "late@example.com", models.RolePilgrim)
	_, err = signupSvc.SignUp(ctx, latecomer.ID, event.ID)
	require.NoError(t, err)

	count, err := notifSvc.UnreadCount(ctx, latecomer.ID)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "pilgrim@example.com", models.RolePilgrim)

	ctx := context.Background()
	result, err := svc.BroadcastToAll(ctx, admin.ID, "Programme", "Message")
	require.NoError(t, err)

	_, err = svc.MarkRead(ctx, result.Notification.ID, admin.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	firstAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.timeNow = fixedClock(firstAt)
	first, err := svc.MarkRead(ctx, result.Notification.ID, user.ID)
	require.NoError(t, err)
	require.True(t, first.IsRead)
	require.NotNil(t, first.ReadAt)

	// Second call leaves the original timestamp untouched
	svc.timeNow = fixedClock(firstAt.Add(time.Hour))
	second, err := svc.MarkRead(ctx, result.Notification.ID, user.ID)
	require.NoError(t, err)
	require.True(t, second.IsRead)
	require.Equal(t, first.ReadAt.UTC(), second.ReadAt.UTC())
}

func TestMarkAllReadAndUnreadCount(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "pilgrim@example.com", models.RolePilgrim)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.BroadcastToAll(ctx, admin.ID, fmt.Sprintf("Info %d", i), "Message")
		require.NoError(t, err)
	}

	count, err := svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, count)

	affected, err := svc.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 3, affected)

	count, err = svc.UnreadCount(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, count)

	affected, err = svc.MarkAllRead(ctx, user.ID)
	require.NoError(t, err)
	require.Zero(t, affected)
}

func TestDeleteNotificationReportsRecipients(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	for i := 0; i < 2; i++ {
		createTestUser(t, db, fmt.Sprintf("pilgrim%d@example.com", i), models.RolePilgrim)
	}

	ctx := context.Background()
	result, err := svc.BroadcastToAll(ctx, admin.ID, "Programme", "Message")
	require.NoError(t, err)

	removed, err := svc.Delete(ctx, admin.ID, result.Notification.ID)
	require.NoError(t, err)
	require.EqualValues(t, 2, removed)

	var rows int64
	require.NoError(t, db.Model(&models.NotificationRecipient{}).Count(&rows).Error)
	require.Zero(t, rows)

	_, err = svc.Delete(ctx, admin.ID, result.Notification.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestListForUserAndListAll(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	svc, err := NewNotificationService(db, nil)
	require.NoError(t, err)

	admin := createTestUser(t, db, "admin@example.com", models.RoleAdmin)
	user := createTestUser(t, db, "pilgrim@example.com", models.RolePilgrim)
	ctx := context.Background()

	sentAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.timeNow = fixedClock(sentAt)
	older, err := svc.BroadcastToAll(ctx, admin.ID, "Premier", "Message")
	require.NoError(t, err)
	svc.timeNow = fixedClock(sentAt.Add(time.Hour))
	newer, err := svc.BroadcastToAll(ctx, admin.ID, "Second", "Message")
	require.NoError(t, err)

	svc.timeNow = fixedClock(sentAt.Add(2 * time.Hour))
	_, err = svc.MarkRead(ctx, older.Notification.ID, user.ID)
	require.NoError(t, err)

	items, total, err := svc.ListForUser(ctx, user.ID, ListUserNotificationsOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	// Newest first
	require.Equal(t, newer.Notification.ID, items[0].Notification.ID)
	require.False(t, items[0].IsRead)
	require.True(t, items[1].IsRead)

	items, total, err = svc.ListForUser(ctx, user.ID, ListUserNotificationsOptions{ReadFilter: "unread"})
	require.NoError(t, err)
	require.EqualValues(t, 1, total)
	require.Equal(t, newer.Notification.ID, items[0].Notification.ID)

	summaries, total, err := svc.ListAll(ctx, ListNotificationsOptions{})
	require.NoError(t, err)
	require.EqualValues(t, 2, total)
	require.Equal(t, newer.Notification.ID, summaries[0].Notification.ID)
	require.EqualValues(t, 1, summaries[1].RecipientCount)
	require.EqualValues(t, 1, summaries[1].ReadCount)
	require.EqualValues(t, 0, summaries[0].ReadCount)
}
