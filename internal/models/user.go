package models

// Roles assignable to users. Pilgrims are regular attendees; admins manage
// the catalog and notifications.
const (
	RolePilgrim = "pilgrim"
	RoleAdmin   = "admin"
)

// User describes an account holder with their signup and favorite relations.
type User struct {
	BaseModel

	FirstName string `gorm:"not null" json:"first_name"`
	LastName  string `gorm:"not null" json:"last_name"`
	Email     string `gorm:"uniqueIndex;not null" json:"email"`
	Password  string `gorm:"not null" json:"-"`
	Phone     string `json:"phone"`
	Role      string `gorm:"type:varchar(16);not null;default:'pilgrim';index" json:"role"`

	Signups   []Signup   `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
	Favorites []Favorite `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
