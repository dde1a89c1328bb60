package models

import "time"

// Event is a festival happening users can sign up for. MaxCapacity is nil
// for unlimited events; capacity is enforced at signup time only, never
// retroactively.
type Event struct {
	BaseModel

	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	StartsAt    time.Time  `gorm:"not null;index" json:"starts_at"`
	Location    string     `gorm:"not null" json:"location"`
	MaxCapacity *int       `json:"max_capacity"`
	IsActive    bool       `gorm:"default:true;index" json:"is_active"`
	ImageURL    string     `json:"image_url"`

	Signups []Signup `gorm:"foreignKey:EventID;constraint:OnDelete:CASCADE" json:"-"`
}

// HasPassed reports whether the event start time is behind the supplied clock.
func (e *Event) HasPassed(now time.Time) bool {
	return e.StartsAt.Before(now)
}

// RemainingSeats computes the remaining capacity given the current signup
// count. It returns nil for unlimited events.
func (e *Event) RemainingSeats(signupCount int64) *int64 {
	if e.MaxCapacity == nil {
		return nil
	}
	remaining := int64(*e.MaxCapacity) - signupCount
	if remaining < 0 {
		remaining = 0
	}
	return &remaining
}
