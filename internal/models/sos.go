package models

import (
	"fmt"
	"strings"
	"time"
)

type EmergencyType string

const (
	EmergencyMedical    EmergencyType = "Medical"
	EmergencyTrapped    EmergencyType = "Trapped"
	EmergencySupplies   EmergencyType = "Supplies"
	EmergencyEvacuation EmergencyType = "Evacuation"
	EmergencyOther      EmergencyType = "Other"
)

type SOSStatus string

const (
	SOSStatusPending  SOSStatus = "pending"
	SOSStatusAssigned SOSStatus = "assigned"
	SOSStatusResolved SOSStatus = "resolved"
)

func IsValidEmergencyType(t EmergencyType) bool {
	switch t {
	case EmergencyMedical, EmergencyTrapped, EmergencySupplies, EmergencyEvacuation, EmergencyOther:
		return true
	}
	return false
}

func IsValidSOSStatus(s SOSStatus) bool {
	switch s {
	case SOSStatusPending, SOSStatusAssigned, SOSStatusResolved:
		return true
	}
	return false
}

type SOSRequest struct {
	ID          string        `json:"id"`
	User        UserRef       `json:"user"`
	Emergency   EmergencyType `json:"emergency"`
	Description string        `json:"description"`
	Location    Location      `json:"location"`
	Status      SOSStatus     `json:"status"`
	AssignedTo  *UserRef      `json:"assignedTo,omitempty"`
	CreatedAt   time.Time     `json:"createdAt"`
	ResolvedAt  *time.Time    `json:"resolvedAt,omitempty"`
}

func (s SOSRequest) Validate() FieldErrors {
	errs := FieldErrors{}
	if s.User.ID == "" {
		errs["user"] = "SOS request must reference its reporter"
	}
	if s.Emergency == "" {
		errs["emergency"] = "Please specify the type of emergency"
	} else if !IsValidEmergencyType(s.Emergency) {
		errs["emergency"] = fmt.Sprintf("%q is not a valid emergency type", s.Emergency)
	}
	if strings.TrimSpace(s.Description) == "" {
		errs["description"] = "Please provide a description of the emergency"
	}
	if !IsValidSOSStatus(s.Status) {
		errs["status"] = fmt.Sprintf("%q is not a valid status", s.Status)
	}
	if s.Status == SOSStatusResolved && s.ResolvedAt == nil {
		errs["resolvedAt"] = "Resolved requests must carry a resolution time"
	}
	validateLocation(errs, s.Location, false)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// SOSFilter narrows SOS listings. An empty UserID lists every reporter.
type SOSFilter struct {
	UserID string
	Status SOSStatus
}
