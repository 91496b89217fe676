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

type SOSInput struct {
	Emergency   models.EmergencyType `json:"emergency"`
	Description string               `json:"description"`
	Location    *models.Location     `json:"location"`
}

type SOSPatch struct {
	Emergency   *models.EmergencyType `json:"emergency"`
	Description *string               `json:"description"`
	Location    *models.Location      `json:"location"`
	Status      *models.SOSStatus     `json:"status"`
}

type SOSService struct {
	requests repository.SOSRepository
	now      func() time.Time
	logger   zerolog.Logger
}

func NewSOSService(requests repository.SOSRepository, logger zerolog.Logger) *SOSService {
	return &SOSService{
		requests: requests,
		now:      time.Now,
		logger:   logger.With().Str("component", "sos_service").Logger(),
	}
}

// Create files an SOS request on behalf of the caller. Unlike alerts, an SOS
// must carry real coordinates.
func (s *SOSService) Create(ctx context.Context, in SOSInput, identity *authz.Identity) (models.SOSRequest, error) {
	caller, err := requireIdentity(identity)
	if err != nil {
		return models.SOSRequest{}, err
	}

	sos := models.SOSRequest{
		User:        models.UserRef{ID: caller.UserID, Role: caller.Role},
		Emergency:   in.Emergency,
		Description: strings.TrimSpace(in.Description),
		Status:      models.SOSStatusPending,
		CreatedAt:   s.now().UTC(),
	}
	if in.Location != nil {
		sos.Location = withPointType(*in.Location)
	}

	if errs := sos.Validate(); errs != nil {
		return models.SOSRequest{}, appErr.NewValidation("SOS request validation failed", errs)
	}
	if err := s.requests.CreateSOS(ctx, &sos); err != nil {
		return models.SOSRequest{}, err
	}
	s.logger.Info().Str("sos_id", sos.ID).Str("emergency", string(sos.Emergency)).Msg("SOS request created")
	return sos, nil
}

// List returns SOS requests visible to the caller: donors see only their own.
func (s *SOSService) List(ctx context.Context, status models.SOSStatus, identity *authz.Identity) ([]models.SOSRequest, error) {
	caller, err := requireIdentity(identity)
	if err != nil {
		return nil, err
	}
	if status != "" && !models.IsValidSOSStatus(status) {
		return nil, appErr.NewValidation("Invalid filter", map[string]string{"status": "unknown SOS status"})
	}
	filter := models.SOSFilter{Status: status}
	if caller.Is(models.RoleDonor) {
		filter.UserID = caller.UserID
	}
	return s.requests.ListSOS(ctx, filter)
}

func (s *SOSService) Get(ctx context.Context, id string, identity *authz.Identity) (models.SOSRequest, error) {
	caller, err := requireIdentity(identity)
	if err != nil {
		return models.SOSRequest{}, err
	}
	sos, err := s.requests.GetSOS(ctx, id)
	if err != nil {
		return models.SOSRequest{}, err
	}
	if caller.Is(models.RoleDonor) && sos.User.ID != caller.UserID {
		return models.SOSRequest{}, appErr.NewForbidden("Not authorized to access this SOS request")
	}
	return sos, nil
}

// Update is allowed to the reporter and to responders. A responder moving the
// request to assigned becomes its assignee.
func (s *SOSService) Update(ctx context.Context, id string, patch SOSPatch, identity *authz.Identity) (models.SOSRequest, error) {
	caller, err := requireIdentity(identity)
	if err != nil {
		return models.SOSRequest{}, err
	}
	sos, err := s.requests.GetSOS(ctx, id)
	if err != nil {
		return models.SOSRequest{}, err
	}
	if sos.User.ID != caller.UserID && !caller.Is(models.RoleResponder) {
		return models.SOSRequest{}, appErr.NewForbidden("Not authorized to update this SOS request")
	}
	wasResolved := sos.Status == models.SOSStatusResolved || sos.ResolvedAt != nil

	if patch.Emergency != nil {
		sos.Emergency = *patch.Emergency
	}
	if patch.Description != nil {
		sos.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Location != nil {
		sos.Location = withPointType(*patch.Location)
	}
	if patch.Status != nil {
		sos.Status = *patch.Status
		if sos.Status == models.SOSStatusAssigned && caller.Is(models.RoleResponder) {
			sos.AssignedTo = &models.UserRef{ID: caller.UserID, Role: caller.Role}
		}
	}
	if sos.Status == models.SOSStatusResolved && !wasResolved {
		now := s.now().UTC()
		if now.Before(sos.CreatedAt) {
			now = sos.CreatedAt
		}
		sos.ResolvedAt = &now
	}

	if errs := sos.Validate(); errs != nil {
		return models.SOSRequest{}, appErr.NewValidation("SOS request validation failed", errs)
	}
	if err := s.requests.UpdateSOS(ctx, sos); err != nil {
		return models.SOSRequest{}, err
	}
	return sos, nil
}

func (s *SOSService) Delete(ctx context.Context, id string, identity *authz.Identity) error {
	caller, err := requireIdentity(identity)
	if err != nil {
		return err
	}
	sos, err := s.requests.GetSOS(ctx, id)
	if err != nil {
		return err
	}
	if sos.User.ID != caller.UserID && !caller.Is(models.RoleResponder) {
		return appErr.NewForbidden("Not authorized to delete this SOS request")
	}
	return s.requests.DeleteSOS(ctx, id)
}

// Nearby lists pending SOS requests within radiusKm of center.
func (s *SOSService) Nearby(ctx context.Context, center models.Location, radiusKm float64) ([]models.SOSRequest, error) {
	if err := validateRadius(center, radiusKm); err != nil {
		return nil, err
	}
	return s.requests.FindSOSWithinRadius(ctx, center, radiusKm, models.SOSStatusPending)
}
