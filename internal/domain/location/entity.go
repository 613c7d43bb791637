package location

import (
	"time"

	"github.com/cmlabs-hris/checkin-backend-go/internal/pkg/utils"
)

// DeletedName is shown in place of a location that employees still reference after deletion.
const DeletedName = "địa điểm đã bị xóa"

type Location struct {
	ID             string
	CompanyID      string
	Name           string
	Latitude       float64
	Longitude      float64
	RadiusMeters   float64
	SelfieRequired bool
	QRSecret       *string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Point is a geolocation reading. Accuracy is the reported uncertainty radius in meters.
type Point struct {
	Latitude  float64
	Longitude float64
	Accuracy  float64
}

// Rotating reports whether the location's QR code carries a time-based code.
func (l Location) Rotating() bool {
	return l.QRSecret != nil && *l.QRSecret != ""
}

// DistanceTo returns the great-circle distance in meters from the location's center.
func (l Location) DistanceTo(p Point) float64 {
	return utils.CalculateHaversineDistance(l.Latitude, l.Longitude, p.Latitude, p.Longitude)
}
