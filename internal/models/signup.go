package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Signup records a user's registration for an event. The composite unique
// index is the authoritative guard against duplicate signups; rows are
// hard-deleted on cancellation.
type Signup struct {
	ID         string    `gorm:"primaryKey;type:uuid" json:"id"`
	UserID     string    `gorm:"type:uuid;not null;uniqueIndex:idx_signups_user_event" json:"user_id"`
	EventID    string    `gorm:"type:uuid;not null;uniqueIndex:idx_signups_user_event;index" json:"event_id"`
	SignedUpAt time.Time `gorm:"not null" json:"signed_up_at"`

	User  *User  `gorm:"foreignKey:UserID" json:"-"`
	Event *Event `gorm:"foreignKey:EventID" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Signup) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}
