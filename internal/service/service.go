// Package service holds the lifecycle rules for alerts, SOS requests, base
// camps and donations: field defaults, validation and ownership checks that
// run before anything reaches storage.
package service

import (
	"math"

	"github.com/stanstork/rapidaid-api/internal/authz"
	appErr "github.com/stanstork/rapidaid-api/internal/errors"
	"github.com/stanstork/rapidaid-api/internal/models"
)

// maxRadiusKm is half the earth's circumference.
const maxRadiusKm = 20037.5

func validateRadius(center models.Location, radiusKm float64) error {
	details := map[string]string{}
	if !center.HasPoint() {
		details["center"] = "longitude and latitude are required"
	} else if lng, lat := center.Longitude(), center.Latitude(); lng < -180 || lng > 180 || lat < -90 || lat > 90 {
		details["center"] = "coordinates are out of range"
	}
	if math.IsNaN(radiusKm) || radiusKm <= 0 || radiusKm > maxRadiusKm {
		details["distance"] = "distance must be a positive number"
	}
	if len(details) > 0 {
		return appErr.NewValidation("Invalid radius query", details)
	}
	return nil
}

func requireIdentity(identity *authz.Identity) (authz.Identity, error) {
	if identity == nil || identity.UserID == "" {
		return authz.Identity{}, appErr.NewUnauthenticated("Not authorized to access this route")
	}
	return *identity, nil
}
