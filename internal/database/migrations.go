package database

import (
	"errors"

	"gorm.io/gorm"

	"github.com/khadimfall/magal-events/internal/models"
	"github.com/khadimfall/magal-events/pkg/crypto"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Event{},
		&models.Signup{},
		&models.PointOfInterest{},
		&models.Favorite{},
		&models.Notification{},
		&models.NotificationRecipient{},
		&models.AuditLog{},
	)
}

// DefaultAdminEmail is the seeded administrator account. The password must
// be rotated on first login in any real deployment.
const DefaultAdminEmail = "admin@magal.local"

// SeedData ensures at least one administrator account exists.
func SeedData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.RoleAdmin).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	hashed, err := crypto.HashPassword("change-me")
	if err != nil {
		return err
	}

	admin := models.User{
		FirstName: "Festival",
		LastName:  "Admin",
		Email:     DefaultAdminEmail,
		Password:  hashed,
		Role:      models.RoleAdmin,
	}

	if err := db.Where(models.User{Email: admin.Email}).Attrs(admin).FirstOrCreate(&models.User{}).Error; err != nil {
		return err
	}

	return nil
}

// Healthy reports whether the underlying connection responds to a ping.
func Healthy(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database handle")
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
