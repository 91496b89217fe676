package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

const maxBaseCampNameLen = 50

type Resource struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type BaseCamp struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Location   Location   `json:"location"`
	Capacity   int        `json:"capacity"`
	Occupancy  int        `json:"occupancy"`
	Resources  []Resource `json:"resources"`
	Volunteers []string   `json:"volunteers"`
	CreatedAt  time.Time  `json:"createdAt"`
}

func (b BaseCamp) Validate() FieldErrors {
	errs := FieldErrors{}
	name := strings.TrimSpace(b.Name)
	if name == "" {
		errs["name"] = "Please provide a name for the base camp"
	} else if utf8.RuneCountInString(name) > maxBaseCampNameLen {
		errs["name"] = fmt.Sprintf("Name cannot be more than %d characters", maxBaseCampNameLen)
	}
	if b.Capacity < 0 {
		errs["capacity"] = "Capacity cannot be negative"
	}
	if b.Occupancy < 0 {
		errs["occupancy"] = "Occupancy cannot be negative"
	}
	for i, r := range b.Resources {
		key := fmt.Sprintf("resources[%d]", i)
		switch {
		case strings.TrimSpace(r.Name) == "":
			errs[key+".name"] = "Please provide a resource name"
		case strings.TrimSpace(r.Unit) == "":
			errs[key+".unit"] = "Please provide a unit of measurement"
		case r.Quantity < 0:
			errs[key+".quantity"] = "Quantity cannot be negative"
		}
	}
	validateLocation(errs, b.Location, true)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// HasVolunteer reports whether userID is already assigned to the camp.
func (b BaseCamp) HasVolunteer(userID string) bool {
	for _, v := range b.Volunteers {
		if v == userID {
			return true
		}
	}
	return false
}

// ResourceUpdate changes the quantity of an existing resource (by ID) or adds
// a new one when the ID is unknown.
type ResourceUpdate struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// ApplyResourceUpdates returns inventory with each update applied: an update
// whose ID matches an existing resource replaces its quantity (and name or
// unit when given), anything else is appended with an id from newID.
func ApplyResourceUpdates(inventory []Resource, updates []ResourceUpdate, newID func() string) []Resource {
	out := append([]Resource(nil), inventory...)
	for _, u := range updates {
		idx := -1
		if u.ID != "" {
			for i := range out {
				if out[i].ID == u.ID {
					idx = i
					break
				}
			}
		}
		if idx < 0 {
			out = append(out, Resource{ID: newID(), Name: u.Name, Quantity: u.Quantity, Unit: u.Unit})
			continue
		}
		out[idx].Quantity = u.Quantity
		if strings.TrimSpace(u.Name) != "" {
			out[idx].Name = u.Name
		}
		if strings.TrimSpace(u.Unit) != "" {
			out[idx].Unit = u.Unit
		}
	}
	return out
}

// MergeDonation adds donated goods to inventory. Items match existing
// resources by case-insensitive name and add to their quantity; unmatched
// items are appended with an id from newID.
func MergeDonation(inventory []Resource, donated []DonatedResource, newID func() string) []Resource {
	out := append([]Resource(nil), inventory...)
	for _, d := range donated {
		matched := false
		for i := range out {
			if strings.EqualFold(strings.TrimSpace(out[i].Name), strings.TrimSpace(d.Name)) {
				out[i].Quantity += d.Quantity
				matched = true
				break
			}
		}
		if !matched {
			out = append(out, Resource{ID: newID(), Name: d.Name, Quantity: d.Quantity, Unit: d.Unit})
		}
	}
	return out
}
