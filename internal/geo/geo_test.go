package geo

import (
	"testing"

	"github.com/stanstork/rapidaid-api/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeLocation(t *testing.T) {
	tests := []struct {
		name string
		loc  *models.Location
		area string
		want models.Location
	}{
		{
			name: "absent location uses area as address",
			area: "Riverside",
			want: models.NewPoint(FallbackLongitude, FallbackLatitude, "Riverside"),
		},
		{
			name: "absent location and area",
			want: models.NewPoint(FallbackLongitude, FallbackLatitude, FallbackAddress),
		},
		{
			name: "malformed coordinates fall back",
			loc:  &models.Location{Address: "Old Town"},
			area: "Riverside",
			want: models.NewPoint(FallbackLongitude, FallbackLatitude, "Old Town"),
		},
		{
			name: "valid point keeps coordinates and gains type",
			loc:  &models.Location{Coordinates: []float64{72.87, 19.07}},
			area: "Mumbai",
			want: models.NewPoint(72.87, 19.07, "Mumbai"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NormalizeLocation(tt.loc, tt.area)
			assert.Equal(t, tt.want, got)

			again := NormalizeLocation(&got, tt.area)
			assert.Equal(t, got, again)
		})
	}
}

func TestNormalizeLocation_DoesNotAliasInput(t *testing.T) {
	in := models.NewPoint(1, 2, "x")
	out := NormalizeLocation(&in, "")
	out.Coordinates[0] = 99
	assert.Equal(t, 1.0, in.Coordinates[0])
}

func TestMilesToKm(t *testing.T) {
	assert.InDelta(t, 1.60934, MilesToKm(1), 1e-9)
	assert.InDelta(t, 16.0934, MilesToKm(10), 1e-9)
	assert.Equal(t, 0.0, MilesToKm(0))
}
