package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/stanstork/rapidaid-api/internal/authz"
	appErr "github.com/stanstork/rapidaid-api/internal/errors"
	"github.com/stanstork/rapidaid-api/internal/geo"
	"github.com/stanstork/rapidaid-api/internal/metrics"
	"github.com/stanstork/rapidaid-api/internal/models"
	"github.com/stanstork/rapidaid-api/internal/repository"
)

// AlertDispatcher notifies the recipient roster about alerts.
type AlertDispatcher interface {
	DispatchAlert(ctx context.Context, alert models.Alert) models.NotificationResults
	TestChannels(ctx context.Context) map[models.NotificationChannel]models.ChannelCheck
}

// AlertInput is the client payload for creating an alert.
type AlertInput struct {
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Area          string               `json:"area"`
	Severity      models.AlertSeverity `json:"severity"`
	Status        models.AlertStatus   `json:"status"`
	AffectedUsers *int                 `json:"affectedUsers"`
	Location      *models.Location     `json:"location"`
}

// AlertPatch holds the fields an update may change. Nil fields are kept.
type AlertPatch struct {
	Title         *string               `json:"title"`
	Description   *string               `json:"description"`
	Area          *string               `json:"area"`
	Severity      *models.AlertSeverity `json:"severity"`
	Status        *models.AlertStatus   `json:"status"`
	AffectedUsers *int                  `json:"affectedUsers"`
	Location      *models.Location      `json:"location"`
}

type AlertService struct {
	alerts     repository.AlertRepository
	users      repository.UserRepository
	dispatcher AlertDispatcher
	now        func() time.Time
	logger     zerolog.Logger
}

func NewAlertService(alerts repository.AlertRepository, users repository.UserRepository, dispatcher AlertDispatcher, logger zerolog.Logger) *AlertService {
	return &AlertService{
		alerts:     alerts,
		users:      users,
		dispatcher: dispatcher,
		now:        time.Now,
		logger:     logger.With().Str("component", "alert_service").Logger(),
	}
}

// Create persists a new alert and notifies the roster. A nil identity is an
// anonymous caller; the alert is then attributed to any responder. Delivery
// problems never fail the call: they are reported in the returned results.
func (s *AlertService) Create(ctx context.Context, in AlertInput, identity *authz.Identity) (models.Alert, models.NotificationResults, error) {
	creator, err := s.resolveCreator(ctx, identity)
	if err != nil {
		return models.Alert{}, models.NotificationResults{}, err
	}

	affected := 0
	if in.AffectedUsers != nil {
		affected = *in.AffectedUsers
	}

	if missing := missingAlertFields(in); len(missing) > 0 {
		return models.Alert{}, models.NotificationResults{}, appErr.NewMissingFields(missing...)
	}

	status := in.Status
	if status == "" {
		status = models.AlertStatusActive
	}

	alert := models.Alert{
		Title:         strings.TrimSpace(in.Title),
		Description:   strings.TrimSpace(in.Description),
		Area:          strings.TrimSpace(in.Area),
		Severity:      in.Severity,
		Status:        status,
		CreatedBy:     creator,
		AffectedUsers: affected,
		CreatedAt:     s.now().UTC(),
		Location:      geo.NormalizeLocation(in.Location, in.Area),
	}
	if status == models.AlertStatusResolved {
		resolved := alert.CreatedAt
		alert.ResolvedAt = &resolved
	}

	if errs := alert.Validate(); errs != nil {
		return models.Alert{}, models.NotificationResults{}, appErr.NewValidation("Alert validation failed", errs)
	}

	if err := s.alerts.CreateAlert(ctx, &alert); err != nil {
		s.logger.Error().Err(err).Msg("failed to persist alert")
		return models.Alert{}, models.NotificationResults{}, err
	}
	metrics.AlertsCreated.WithLabelValues(string(alert.Severity)).Inc()
	s.logger.Info().Str("alert_id", alert.ID).Str("severity", string(alert.Severity)).Msg("alert created")

	results := s.dispatcher.DispatchAlert(ctx, alert)
	return alert, results, nil
}

func (s *AlertService) resolveCreator(ctx context.Context, identity *authz.Identity) (models.UserRef, error) {
	if identity != nil && identity.UserID != "" {
		return models.UserRef{ID: identity.UserID, Role: identity.Role}, nil
	}
	responder, err := s.users.FindAnyByRole(ctx, models.RoleResponder)
	if err != nil {
		s.logger.Warn().Err(err).Msg("no fallback responder for anonymous alert")
		return models.UserRef{}, appErr.NewUnauthenticated("User not authenticated properly and no fallback found")
	}
	s.logger.Info().Str("user_id", responder.ID).Msg("attributing anonymous alert to fallback responder")
	return models.UserRef{ID: responder.ID, Name: responder.Name, Role: responder.Role}, nil
}

func missingAlertFields(in AlertInput) []string {
	var missing []string
	if strings.TrimSpace(in.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(in.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(in.Area) == "" {
		missing = append(missing, "area")
	}
	if strings.TrimSpace(string(in.Severity)) == "" {
		missing = append(missing, "severity")
	}
	return missing
}

func (s *AlertService) List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error) {
	if filter.Status != "" && !models.IsValidAlertStatus(filter.Status) {
		return nil, appErr.NewValidation("Invalid filter", map[string]string{"status": "unknown alert status"})
	}
	if filter.Severity != "" && !models.IsValidSeverity(filter.Severity) {
		return nil, appErr.NewValidation("Invalid filter", map[string]string{"severity": "unknown severity"})
	}
	return s.alerts.ListAlerts(ctx, filter)
}

func (s *AlertService) Get(ctx context.Context, id string) (models.Alert, error) {
	return s.alerts.GetAlert(ctx, id)
}

// Update merges patch into the stored alert. resolvedAt is stamped on the
// first transition to resolved and is never cleared or moved afterwards.
func (s *AlertService) Update(ctx context.Context, id string, patch AlertPatch) (models.Alert, error) {
	alert, err := s.alerts.GetAlert(ctx, id)
	if err != nil {
		return models.Alert{}, err
	}
	wasResolved := alert.Status == models.AlertStatusResolved || alert.ResolvedAt != nil

	if patch.Title != nil {
		alert.Title = strings.TrimSpace(*patch.Title)
	}
	if patch.Description != nil {
		alert.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.Area != nil {
		alert.Area = strings.TrimSpace(*patch.Area)
	}
	if patch.Severity != nil {
		alert.Severity = *patch.Severity
	}
	if patch.Status != nil {
		alert.Status = *patch.Status
	}
	if patch.AffectedUsers != nil {
		alert.AffectedUsers = *patch.AffectedUsers
	}
	if patch.Location != nil {
		alert.Location = geo.NormalizeLocation(patch.Location, alert.Area)
	}

	if alert.Status == models.AlertStatusResolved && !wasResolved {
		now := s.now().UTC()
		if now.Before(alert.CreatedAt) {
			now = alert.CreatedAt
		}
		alert.ResolvedAt = &now
	}

	if errs := alert.Validate(); errs != nil {
		return models.Alert{}, appErr.NewValidation("Alert validation failed", errs)
	}
	if err := s.alerts.UpdateAlert(ctx, alert); err != nil {
		return models.Alert{}, err
	}
	return alert, nil
}

func (s *AlertService) Delete(ctx context.Context, id string) error {
	return s.alerts.DeleteAlert(ctx, id)
}

// Nearby lists active alerts within radiusKm of center.
func (s *AlertService) Nearby(ctx context.Context, center models.Location, radiusKm float64) ([]models.Alert, error) {
	if err := validateRadius(center, radiusKm); err != nil {
		return nil, err
	}
	return s.alerts.FindAlertsWithinRadius(ctx, center, radiusKm, models.AlertStatusActive)
}

// TestNotifications probes every channel with a test message.
func (s *AlertService) TestNotifications(ctx context.Context) map[models.NotificationChannel]models.ChannelCheck {
	return s.dispatcher.TestChannels(ctx)
}
