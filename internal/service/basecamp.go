package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	appErr "github.com/stanstork/rapidaid-api/internal/errors"
	"github.com/stanstork/rapidaid-api/internal/models"
	"github.com/stanstork/rapidaid-api/internal/repository"
)

type BaseCampInput struct {
	Name      string            `json:"name"`
	Location  *models.Location  `json:"location"`
	Capacity  *int              `json:"capacity"`
	Occupancy *int              `json:"occupancy"`
	Resources []models.Resource `json:"resources"`
}

type BaseCampPatch struct {
	Name      *string          `json:"name"`
	Location  *models.Location `json:"location"`
	Capacity  *int             `json:"capacity"`
	Occupancy *int             `json:"occupancy"`
}

type BaseCampService struct {
	camps     repository.BaseCampRepository
	donations repository.DonationRepository
	users     repository.UserRepository
	newID     func() string
	now       func() time.Time
	logger    zerolog.Logger
}

func NewBaseCampService(camps repository.BaseCampRepository, donations repository.DonationRepository, users repository.UserRepository, logger zerolog.Logger) *BaseCampService {
	return &BaseCampService{
		camps:     camps,
		donations: donations,
		users:     users,
		newID:     uuid.NewString,
		now:       time.Now,
		logger:    logger.With().Str("component", "basecamp_service").Logger(),
	}
}

func (s *BaseCampService) Create(ctx context.Context, in BaseCampInput) (models.BaseCamp, error) {
	var missing []string
	if strings.TrimSpace(in.Name) == "" {
		missing = append(missing, "name")
	}
	if in.Location == nil {
		missing = append(missing, "location")
	}
	if in.Capacity == nil {
		missing = append(missing, "capacity")
	}
	if len(missing) > 0 {
		return models.BaseCamp{}, appErr.NewMissingFields(missing...)
	}

	camp := models.BaseCamp{
		Name:       strings.TrimSpace(in.Name),
		Location:   withPointType(*in.Location),
		Capacity:   *in.Capacity,
		Resources:  append([]models.Resource{}, in.Resources...),
		Volunteers: []string{},
		CreatedAt:  s.now().UTC(),
	}
	if in.Occupancy != nil {
		camp.Occupancy = *in.Occupancy
	}
	for i := range camp.Resources {
		if camp.Resources[i].ID == "" {
			camp.Resources[i].ID = s.newID()
		}
	}

	if errs := camp.Validate(); errs != nil {
		return models.BaseCamp{}, appErr.NewValidation("Base camp validation failed", errs)
	}
	if err := s.camps.CreateBaseCamp(ctx, &camp); err != nil {
		return models.BaseCamp{}, err
	}
	s.logger.Info().Str("basecamp_id", camp.ID).Str("name", camp.Name).Msg("base camp created")
	return camp, nil
}

func (s *BaseCampService) List(ctx context.Context) ([]models.BaseCamp, error) {
	return s.camps.ListBaseCamps(ctx)
}

func (s *BaseCampService) Get(ctx context.Context, id string) (models.BaseCamp, error) {
	return s.camps.GetBaseCamp(ctx, id)
}

func (s *BaseCampService) Update(ctx context.Context, id string, patch BaseCampPatch) (models.BaseCamp, error) {
	camp, err := s.camps.GetBaseCamp(ctx, id)
	if err != nil {
		return models.BaseCamp{}, err
	}
	if patch.Name != nil {
		camp.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Location != nil {
		camp.Location = withPointType(*patch.Location)
	}
	if patch.Capacity != nil {
		camp.Capacity = *patch.Capacity
	}
	if patch.Occupancy != nil {
		camp.Occupancy = *patch.Occupancy
	}
	return s.save(ctx, camp)
}

func (s *BaseCampService) Delete(ctx context.Context, id string) error {
	return s.camps.DeleteBaseCamp(ctx, id)
}

// UpdateResources sets quantities of existing resources by id and appends
// resources the camp does not have yet.
func (s *BaseCampService) UpdateResources(ctx context.Context, id string, updates []models.ResourceUpdate) (models.BaseCamp, error) {
	if len(updates) == 0 {
		return models.BaseCamp{}, appErr.NewValidation("Please provide resources array", map[string]string{"resources": "at least one resource is required"})
	}
	camp, err := s.camps.GetBaseCamp(ctx, id)
	if err != nil {
		return models.BaseCamp{}, err
	}
	camp.Resources = models.ApplyResourceUpdates(camp.Resources, updates, s.newID)
	return s.save(ctx, camp)
}

func (s *BaseCampService) AssignVolunteer(ctx context.Context, id, volunteerID string) (models.BaseCamp, error) {
	volunteerID = strings.TrimSpace(volunteerID)
	if volunteerID == "" {
		return models.BaseCamp{}, appErr.NewMissingFields("volunteerId")
	}
	camp, err := s.camps.GetBaseCamp(ctx, id)
	if err != nil {
		return models.BaseCamp{}, err
	}
	if camp.HasVolunteer(volunteerID) {
		return models.BaseCamp{}, appErr.NewValidation("Volunteer already assigned to this base camp", map[string]string{"volunteerId": "already assigned"})
	}
	if _, err := s.users.GetUserByID(ctx, volunteerID); err != nil {
		if appErr.IsNotFound(err) {
			return models.BaseCamp{}, appErr.NewNotFound("volunteer %s not found", volunteerID)
		}
		return models.BaseCamp{}, err
	}
	camp.Volunteers = append(camp.Volunteers, volunteerID)
	return s.save(ctx, camp)
}

// RemoveVolunteer drops volunteerID from the camp; removing an unassigned
// volunteer is not an error.
func (s *BaseCampService) RemoveVolunteer(ctx context.Context, id, volunteerID string) (models.BaseCamp, error) {
	camp, err := s.camps.GetBaseCamp(ctx, id)
	if err != nil {
		return models.BaseCamp{}, err
	}
	kept := make([]string, 0, len(camp.Volunteers))
	for _, v := range camp.Volunteers {
		if v != volunteerID {
			kept = append(kept, v)
		}
	}
	camp.Volunteers = kept
	return s.save(ctx, camp)
}

func (s *BaseCampService) Nearby(ctx context.Context, center models.Location, radiusKm float64) ([]models.BaseCamp, error) {
	if err := validateRadius(center, radiusKm); err != nil {
		return nil, err
	}
	return s.camps.FindBaseCampsWithinRadius(ctx, center, radiusKm)
}

// Donations lists the donations addressed to a camp, newest first.
func (s *BaseCampService) Donations(ctx context.Context, id string) ([]models.Donation, error) {
	if _, err := s.camps.GetBaseCamp(ctx, id); err != nil {
		return nil, err
	}
	return s.donations.ListDonations(ctx, models.DonationFilter{BaseCampID: id})
}

func (s *BaseCampService) save(ctx context.Context, camp models.BaseCamp) (models.BaseCamp, error) {
	if errs := camp.Validate(); errs != nil {
		return models.BaseCamp{}, appErr.NewValidation("Base camp validation failed", errs)
	}
	if err := s.camps.UpdateBaseCamp(ctx, camp); err != nil {
		return models.BaseCamp{}, err
	}
	return camp, nil
}

func withPointType(loc models.Location) models.Location {
	if loc.Type == "" {
		loc.Type = models.PointType
	}
	return loc
}
