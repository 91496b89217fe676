package models

import "encoding/json"

const PointType = "Point"

// Location is a GeoJSON point with an optional postal address.
// Coordinates are ordered [longitude, latitude].
type Location struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
	Address     string    `json:"address,omitempty"`
}

// UnmarshalJSON accepts any JSON value for coordinates. Values that are not a
// pair of numbers decode to nil instead of failing the whole payload.
func (l *Location) UnmarshalJSON(data []byte) error {
	var raw struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
		Address     string          `json:"address"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	l.Type = raw.Type
	l.Address = raw.Address
	l.Coordinates = nil

	var pair []float64
	if len(raw.Coordinates) > 0 && json.Unmarshal(raw.Coordinates, &pair) == nil && len(pair) == 2 {
		l.Coordinates = pair
	}
	return nil
}

// HasPoint reports whether the location carries a usable [lng, lat] pair.
func (l Location) HasPoint() bool {
	return len(l.Coordinates) == 2
}

func (l Location) Longitude() float64 {
	if !l.HasPoint() {
		return 0
	}
	return l.Coordinates[0]
}

func (l Location) Latitude() float64 {
	if !l.HasPoint() {
		return 0
	}
	return l.Coordinates[1]
}

// NewPoint builds a Location from a longitude/latitude pair.
func NewPoint(lng, lat float64, address string) Location {
	return Location{Type: PointType, Coordinates: []float64{lng, lat}, Address: address}
}
