package models

import "time"

// Notification is a broadcast message. It is immutable after creation;
// deleting it cascades to its recipient rows.
type Notification struct {
	BaseModel

	Title   string    `gorm:"not null" json:"title"`
	Message string    `gorm:"type:text;not null" json:"message"`
	EventID *string   `gorm:"type:uuid;index" json:"event_id"`
	SentAt  time.Time `gorm:"not null;index" json:"sent_at"`

	Event      *Event                  `gorm:"foreignKey:EventID;constraint:OnDelete:SET NULL" json:"-"`
	Recipients []NotificationRecipient `gorm:"foreignKey:NotificationID;constraint:OnDelete:CASCADE" json:"-"`
}
