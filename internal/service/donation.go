package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stanstork/rapidaid-api/internal/authz"
	appErr "github.com/stanstork/rapidaid-api/internal/errors"
	"github.com/stanstork/rapidaid-api/internal/models"
	"github.com/stanstork/rapidaid-api/internal/repository"
)

type DonationInput struct {
	DonationType  models.DonationType      `json:"donationType"`
	Amount        *float64                 `json:"amount"`
	PaymentID     string                   `json:"paymentId"`
	Resources     []models.DonatedResource `json:"resources"`
	BaseCampID    string                   `json:"baseCamp"`
	ScheduledDate *time.Time               `json:"scheduledDate"`
}

type DonationPatch struct {
	Status        *models.DonationStatus    `json:"status"`
	Amount        *float64                  `json:"amount"`
	PaymentID     *string                   `json:"paymentId"`
	Resources     *[]models.DonatedResource `json:"resources"`
	ScheduledDate *time.Time                `json:"scheduledDate"`
}

type DonationService struct {
	donations repository.DonationRepository
	camps     repository.BaseCampRepository
	now       func() time.Time
	logger    zerolog.Logger
}

func NewDonationService(donations repository.DonationRepository, camps repository.BaseCampRepository, logger zerolog.Logger) *DonationService {
	return &DonationService{
		donations: donations,
		camps:     camps,
		now:       time.Now,
		logger:    logger.With().Str("component", "donation_service").Logger(),
	}
}

func (s *DonationService) Create(ctx context.Context, in DonationInput, identity *authz.Identity) (models.Donation, error) {
	caller, err := requireIdentity(identity)
	if err != nil {
		return models.Donation{}, err
	}

	donation := models.Donation{
		Donor:        models.UserRef{ID: caller.UserID, Role: caller.Role},
		DonationType: in.DonationType,
		Amount:       in.Amount,
		PaymentID:    strings.TrimSpace(in.PaymentID),
		Resources:    append([]models.DonatedResource{}, in.Resources...),
		BaseCampID:   strings.TrimSpace(in.BaseCampID),
		Status:       models.DonationPending,
		CreatedAt:    s.now().UTC(),
	}
	if donation.DonationType == "" {
		donation.DonationType = models.DonationResource
	}
	if in.ScheduledDate != nil {
		donation.ScheduledDate = in.ScheduledDate.UTC()
	}

	if errs := donation.Validate(); errs != nil {
		return models.Donation{}, appErr.NewValidation("Donation validation failed", errs)
	}
	if _, err := s.camps.GetBaseCamp(ctx, donation.BaseCampID); err != nil {
		return models.Donation{}, err
	}
	if err := s.donations.CreateDonation(ctx, &donation); err != nil {
		return models.Donation{}, err
	}
	s.logger.Info().Str("donation_id", donation.ID).Str("basecamp_id", donation.BaseCampID).Msg("donation created")
	return donation, nil
}

// List returns donations visible to the caller: donors see only their own.
func (s *DonationService) List(ctx context.Context, filter models.DonationFilter, identity *authz.Identity) ([]models.Donation, error) {
	caller, err := requireIdentity(identity)
	if err != nil {
		return nil, err
	}
	if filter.Status != "" && !models.IsValidDonationStatus(filter.Status) {
		return nil, appErr.NewValidation("Invalid filter", map[string]string{"status": "unknown donation status"})
	}
	if caller.Is(models.RoleDonor) {
		filter.DonorID = caller.UserID
	}
	return s.donations.ListDonations(ctx, filter)
}

func (s *DonationService) Get(ctx context.Context, id string, identity *authz.Identity) (models.Donation, error) {
	caller, err := requireIdentity(identity)
	if err != nil {
		return models.Donation{}, err
	}
	donation, err := s.donations.GetDonation(ctx, id)
	if err != nil {
		return models.Donation{}, err
	}
	if caller.Is(models.RoleDonor) && donation.Donor.ID != caller.UserID {
		return models.Donation{}, appErr.NewForbidden("Not authorized to access this donation")
	}
	return donation, nil
}

// Update applies patch. The first transition to delivered stamps the
// delivery date and adds the donated resources to the camp inventory.
func (s *DonationService) Update(ctx context.Context, id string, patch DonationPatch, identity *authz.Identity) (models.Donation, error) {
	caller, err := requireIdentity(identity)
	if err != nil {
		return models.Donation{}, err
	}
	donation, err := s.donations.GetDonation(ctx, id)
	if err != nil {
		return models.Donation{}, err
	}
	if caller.Is(models.RoleDonor) && donation.Donor.ID != caller.UserID {
		return models.Donation{}, appErr.NewForbidden("Not authorized to update this donation")
	}
	wasDelivered := donation.Status == models.DonationDelivered || donation.DeliveredDate != nil

	if patch.Amount != nil {
		donation.Amount = patch.Amount
	}
	if patch.PaymentID != nil {
		donation.PaymentID = strings.TrimSpace(*patch.PaymentID)
	}
	if patch.Resources != nil {
		donation.Resources = append([]models.DonatedResource{}, (*patch.Resources)...)
	}
	if patch.ScheduledDate != nil {
		donation.ScheduledDate = patch.ScheduledDate.UTC()
	}
	if patch.Status != nil {
		donation.Status = *patch.Status
	}

	delivering := donation.Status == models.DonationDelivered && !wasDelivered
	if delivering {
		now := s.now().UTC()
		donation.DeliveredDate = &now
	}

	if errs := donation.Validate(); errs != nil {
		return models.Donation{}, appErr.NewValidation("Donation validation failed", errs)
	}

	if !delivering {
		if err := s.donations.UpdateDonation(ctx, donation); err != nil {
			return models.Donation{}, err
		}
		return donation, nil
	}

	merged, err := s.donations.DeliverDonation(ctx, donation)
	if err != nil {
		return models.Donation{}, err
	}
	if !merged {
		// Another request delivered it first; its delivery date stands.
		s.logger.Warn().Str("donation_id", donation.ID).Msg("donation already delivered, inventory left unchanged")
		return s.donations.GetDonation(ctx, donation.ID)
	}
	s.logger.Info().Str("donation_id", donation.ID).Str("basecamp_id", donation.BaseCampID).Msg("donation delivered, inventory updated")
	return donation, nil
}

// Delete removes a donation. Only its donor may do so, and only while it is
// still pending.
func (s *DonationService) Delete(ctx context.Context, id string, identity *authz.Identity) error {
	caller, err := requireIdentity(identity)
	if err != nil {
		return err
	}
	donation, err := s.donations.GetDonation(ctx, id)
	if err != nil {
		return err
	}
	if donation.Donor.ID != caller.UserID || donation.Status != models.DonationPending {
		return appErr.NewForbidden("Not authorized to delete this donation")
	}
	return s.donations.DeleteDonation(ctx, id)
}
