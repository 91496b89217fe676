// Package geo normalizes report locations and converts radius units. Distance
// math runs in postgres (earthdistance).
package geo

import (
	"strings"

	"github.com/stanstork/rapidaid-api/internal/models"
)

const (
	// Fallback point used when a report carries no usable coordinates (Delhi).
	FallbackLongitude = 77.1025
	FallbackLatitude  = 28.7041
	FallbackAddress   = "Delhi, India"

	kmPerMile = 1.60934
)

// NormalizeLocation applies the lenient location policy for new alerts:
// a missing location becomes the fallback point addressed by area, a missing
// type becomes "Point" and coordinates that are not a numeric pair are
// replaced by the fallback pair. Applying it to its own output is a no-op.
func NormalizeLocation(loc *models.Location, area string) models.Location {
	if loc == nil {
		address := strings.TrimSpace(area)
		if address == "" {
			address = FallbackAddress
		}
		return models.NewPoint(FallbackLongitude, FallbackLatitude, address)
	}

	out := models.Location{
		Type:    loc.Type,
		Address: loc.Address,
	}
	if out.Type == "" {
		out.Type = models.PointType
	}
	if loc.HasPoint() {
		out.Coordinates = []float64{loc.Coordinates[0], loc.Coordinates[1]}
	} else {
		out.Coordinates = []float64{FallbackLongitude, FallbackLatitude}
	}
	if strings.TrimSpace(out.Address) == "" {
		out.Address = strings.TrimSpace(area)
	}
	return out
}

func MilesToKm(miles float64) float64 {
	return miles * kmPerMile
}
