package models

// Point-of-interest types form a closed enum.
const (
	POITypeMosque    = "mosque"
	POITypeHealth    = "health"
	POITypeLodging   = "lodging"
	POITypeFood      = "food"
	POITypeTransport = "transport"
	POITypeOther     = "other"
)

// POITypes lists every valid point-of-interest type.
var POITypes = []string{
	POITypeMosque,
	POITypeHealth,
	POITypeLodging,
	POITypeFood,
	POITypeTransport,
	POITypeOther,
}

// IsValidPOIType reports whether the supplied type belongs to the enum.
func IsValidPOIType(t string) bool {
	for _, valid := range POITypes {
		if t == valid {
			return true
		}
	}
	return false
}

// PointOfInterest is a mapped location pilgrims can browse and favorite.
type PointOfInterest struct {
	BaseModel

	Name            string `gorm:"not null" json:"name"`
	Type            string `gorm:"type:varchar(32);not null;index" json:"type"`
	Address         string `gorm:"not null" json:"address"`
	Description     string `gorm:"type:text" json:"description"`
	EmergencyNumber string `json:"emergency_number"`
	ImageURL        string `json:"image_url"`

	Favorites []Favorite `gorm:"foreignKey:PointID;constraint:OnDelete:CASCADE" json:"-"`
}
