package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationRecipient is one delivery row materialised at broadcast time.
// ReadAt stays nil until the recipient marks the notification read; rows
// never expire on their own.
type NotificationRecipient struct {
	ID             string     `gorm:"primaryKey;type:uuid" json:"id"`
	NotificationID string     `gorm:"type:uuid;not null;uniqueIndex:idx_recipients_notification_user" json:"notification_id"`
	UserID         string     `gorm:"type:uuid;not null;uniqueIndex:idx_recipients_notification_user;index" json:"user_id"`
	IsRead         bool       `gorm:"default:false;index" json:"is_read"`
	ReadAt         *time.Time `json:"read_at"`

	Notification *Notification `gorm:"foreignKey:NotificationID" json:"-"`
	User         *User         `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *NotificationRecipient) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	return nil
}
