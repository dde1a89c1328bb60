package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Favorite bookmarks a point of interest for a user. Uniqueness of the
// (user, point) pair is the only invariant; rows are hard-deleted so an
// add/remove/add round-trip never trips the unique index.
type Favorite struct {
	ID      string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID  string    `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_point" json:"user_id"`
	PointID string    `gorm:"type:uuid;not null;uniqueIndex:idx_favorites_user_point;index" json:"point_id"`
	AddedAt time.Time `gorm:"not null" json:"added_at"`

	User  *User            `gorm:"foreignKey:UserID" json:"-"`
	Point *PointOfInterest `gorm:"foreignKey:PointID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (f *Favorite) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
