package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

type AlertSeverity string

const (
	SeverityCritical AlertSeverity = "critical"
	SeverityHigh     AlertSeverity = "high"
	SeverityMedium   AlertSeverity = "medium"
	SeverityLow      AlertSeverity = "low"
)

type AlertStatus string

const (
	AlertStatusActive   AlertStatus = "active"
	AlertStatusResolved AlertStatus = "resolved"
	AlertStatusDraft    AlertStatus = "draft"
)

const (
	maxAlertTitleLen       = 100
	maxAlertDescriptionLen = 500
)

// FieldErrors maps a field name to the reason it was rejected.
type FieldErrors map[string]string

type Alert struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Area          string        `json:"area"`
	Severity      AlertSeverity `json:"severity"`
	Status        AlertStatus   `json:"status"`
	CreatedBy     UserRef       `json:"createdBy"`
	AffectedUsers int           `json:"affectedUsers"`
	CreatedAt     time.Time     `json:"createdAt"`
	ResolvedAt    *time.Time    `json:"resolvedAt,omitempty"`
	Location      Location      `json:"location"`
}

func IsValidSeverity(s AlertSeverity) bool {
	switch s {
	case SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

func IsValidAlertStatus(s AlertStatus) bool {
	switch s {
	case AlertStatusActive, AlertStatusResolved, AlertStatusDraft:
		return true
	}
	return false
}

// Validate checks the alert against the stored schema. It returns nil when the
// alert can be written.
func (a Alert) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(a.Title) == "" {
		errs["title"] = "Please provide a title for the alert"
	} else if utf8.RuneCountInString(a.Title) > maxAlertTitleLen {
		errs["title"] = fmt.Sprintf("Title cannot be more than %d characters", maxAlertTitleLen)
	}
	if strings.TrimSpace(a.Description) == "" {
		errs["description"] = "Please provide a description of the alert"
	} else if utf8.RuneCountInString(a.Description) > maxAlertDescriptionLen {
		errs["description"] = fmt.Sprintf("Description cannot be more than %d characters", maxAlertDescriptionLen)
	}
	if strings.TrimSpace(a.Area) == "" {
		errs["area"] = "Please specify the affected area"
	}
	if a.Severity == "" {
		errs["severity"] = "Please specify the severity level"
	} else if !IsValidSeverity(a.Severity) {
		errs["severity"] = fmt.Sprintf("%q is not a valid severity", a.Severity)
	}
	if !IsValidAlertStatus(a.Status) {
		errs["status"] = fmt.Sprintf("%q is not a valid status", a.Status)
	}
	if a.CreatedBy.ID == "" {
		errs["createdBy"] = "Alert must reference its creator"
	}
	if a.AffectedUsers < 0 {
		errs["affectedUsers"] = "Affected users cannot be negative"
	}
	if a.Status == AlertStatusResolved && a.ResolvedAt == nil {
		errs["resolvedAt"] = "Resolved alerts must carry a resolution time"
	}
	validateLocation(errs, a.Location, false)
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// AlertFilter narrows alert listings.
type AlertFilter struct {
	Status   AlertStatus
	Severity AlertSeverity
}

func validateLocation(errs FieldErrors, loc Location, requireAddress bool) {
	if loc.Type != "" && loc.Type != PointType {
		errs["location.type"] = fmt.Sprintf("%q is not a supported location type", loc.Type)
	}
	if !loc.HasPoint() {
		errs["location.coordinates"] = "Please provide coordinates (longitude, latitude)"
	} else {
		lng, lat := loc.Coordinates[0], loc.Coordinates[1]
		if lng < -180 || lng > 180 || lat < -90 || lat > 90 {
			errs["location.coordinates"] = "Coordinates are out of range"
		}
	}
	if requireAddress && strings.TrimSpace(loc.Address) == "" {
		errs["location.address"] = "Please add an address"
	}
}
