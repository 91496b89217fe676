package models

import (
	"fmt"
	"strings"
	"time"
)

type DonationType string

const (
	DonationResource DonationType = "resource"
	DonationCash     DonationType = "cash"
)

type DonationStatus string

const (
	DonationPending   DonationStatus = "pending"
	DonationInTransit DonationStatus = "in-transit"
	DonationDelivered DonationStatus = "delivered"
	DonationCancelled DonationStatus = "cancelled"
)

func IsValidDonationStatus(s DonationStatus) bool {
	switch s {
	case DonationPending, DonationInTransit, DonationDelivered, DonationCancelled:
		return true
	}
	return false
}

type DonatedResource struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

type Donation struct {
	ID            string            `json:"id"`
	Donor         UserRef           `json:"donor"`
	DonationType  DonationType      `json:"donationType"`
	Amount        *float64          `json:"amount,omitempty"`
	PaymentID     string            `json:"paymentId,omitempty"`
	Resources     []DonatedResource `json:"resources"`
	BaseCampID    string            `json:"baseCamp"`
	Status        DonationStatus    `json:"status"`
	ScheduledDate time.Time         `json:"scheduledDate"`
	DeliveredDate *time.Time        `json:"deliveredDate,omitempty"`
	CreatedAt     time.Time         `json:"createdAt"`
}

func (d Donation) Validate() FieldErrors {
	errs := FieldErrors{}
	if d.Donor.ID == "" {
		errs["donor"] = "Donation must reference its donor"
	}
	switch d.DonationType {
	case DonationCash:
		if d.Amount == nil || *d.Amount <= 0 {
			errs["amount"] = "Valid amount is required for cash donations"
		}
		if strings.TrimSpace(d.PaymentID) == "" {
			errs["paymentId"] = "Payment ID is required for cash donations"
		}
	case DonationResource:
		if len(d.Resources) == 0 {
			errs["resources"] = "Resources are required for resource donations"
		}
		for i, r := range d.Resources {
			key := fmt.Sprintf("resources[%d]", i)
			switch {
			case strings.TrimSpace(r.Name) == "":
				errs[key+".name"] = "Resource name is required"
			case strings.TrimSpace(r.Unit) == "":
				errs[key+".unit"] = "Resource unit is required"
			case r.Quantity < 1:
				errs[key+".quantity"] = "Quantity must be at least 1"
			}
		}
	default:
		errs["donationType"] = fmt.Sprintf("%q is not a valid donation type", d.DonationType)
	}
	if strings.TrimSpace(d.BaseCampID) == "" {
		errs["baseCamp"] = "Base camp ID is required"
	}
	if !IsValidDonationStatus(d.Status) {
		errs["status"] = fmt.Sprintf("%q is not a valid status", d.Status)
	}
	if d.ScheduledDate.IsZero() {
		errs["scheduledDate"] = "Please provide a scheduled delivery date"
	}
	if len(errs) == 0 {
		return nil
	}
	return errs
}

// DonationFilter narrows donation listings.
type DonationFilter struct {
	DonorID    string
	BaseCampID string
	Status     DonationStatus
}
