package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/khadimfall/magal-events/internal/models"
)

func createTestUser(t *testing.T, db *gorm.DB, email, role string) *models.User {
	t.Helper()

	user := models.User{
		FirstName: "Test",
		LastName:  "User",
		Email:     email,
		Password:  "hashed-password",
		Role:      role,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}

func createTestEvent(t *testing.T, db *gorm.DB, startsAt time.Time, capacity *int) *models.Event {
	t.Helper()

	event := models.Event{
		Title:       fmt.Sprintf("Event %d", time.Now().UnixNano()),
		Description: "Gathering at the great mosque",
		StartsAt:    startsAt,
		Location:    "Touba",
		MaxCapacity: capacity,
		IsActive:    true,
	}
	require.NoError(t, db.Create(&event).Error)
	return &event
}

func createTestPoint(t *testing.T, db *gorm.DB, name, poiType string) *models.PointOfInterest {
	t.Helper()

	point := models.PointOfInterest{
		Name:    name,
		Type:    poiType,
		Address: "Avenue Cheikh Ahmadou Bamba",
	}
	require.NoError(t, db.Create(&point).Error)
	return &point
}

func intPtr(v int) *int {
	return &v
}

func fixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}
