package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stanstork/rapidaid-api/internal/authz"
	"github.com/stanstork/rapidaid-api/internal/models"
	"github.com/stanstork/rapidaid-api/internal/service"
)

// AlertService is the alert lifecycle used by AlertHandler.
type AlertService interface {
	Create(ctx context.Context, in service.AlertInput, identity *authz.Identity) (models.Alert, models.NotificationResults, error)
	List(ctx context.Context, filter models.AlertFilter) ([]models.Alert, error)
	Get(ctx context.Context, id string) (models.Alert, error)
	Update(ctx context.Context, id string, patch service.AlertPatch) (models.Alert, error)
	Delete(ctx context.Context, id string) error
	Nearby(ctx context.Context, center models.Location, radiusKm float64) ([]models.Alert, error)
	TestNotifications(ctx context.Context) map[models.NotificationChannel]models.ChannelCheck
}

type AlertHandler struct {
	alerts AlertService
	logger zerolog.Logger
}

func NewAlertHandler(alerts AlertService, logger zerolog.Logger) *AlertHandler {
	return &AlertHandler{alerts: alerts, logger: logger.With().Str("handler", "alert").Logger()}
}

// CreateAlert answers 201 whenever the alert was stored; delivery problems
// are reported in notificationResults only.
func (h *AlertHandler) CreateAlert(w http.ResponseWriter, r *http.Request) {
	var in service.AlertInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err, "Failed to create alert")
		return
	}

	alert, results, err := h.alerts.Create(r.Context(), in, authz.OptionalIdentity(r))
	if err != nil {
		writeError(w, h.logger, err, "Failed to create alert")
		return
	}
	writeJSON(w, http.StatusCreated, successResponse{
		Success:             true,
		Message:             "Alert created and notifications sent.",
		Data:                alert,
		NotificationResults: &results,
	})
}

func (h *AlertHandler) ListAlerts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.AlertFilter{
		Status:   models.AlertStatus(q.Get("status")),
		Severity: models.AlertSeverity(q.Get("severity")),
	}
	alerts, err := h.alerts.List(r.Context(), filter)
	if err != nil {
		writeError(w, h.logger, err, "Failed to list alerts")
		return
	}
	writeList(w, alerts)
}

func (h *AlertHandler) GetAlert(w http.ResponseWriter, r *http.Request) {
	alert, err := h.alerts.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err, "Failed to get alert")
		return
	}
	writeData(w, http.StatusOK, alert)
}

func (h *AlertHandler) UpdateAlert(w http.ResponseWriter, r *http.Request) {
	var patch service.AlertPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, err, "Failed to update alert")
		return
	}
	alert, err := h.alerts.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, h.logger, err, "Failed to update alert")
		return
	}
	writeData(w, http.StatusOK, alert)
}

func (h *AlertHandler) DeleteAlert(w http.ResponseWriter, r *http.Request) {
	if err := h.alerts.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err, "Failed to delete alert")
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}

func (h *AlertHandler) NearbyAlerts(w http.ResponseWriter, r *http.Request) {
	center, radiusKm, err := radiusParams(r)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	alerts, err := h.alerts.Nearby(r.Context(), center, radiusKm)
	if err != nil {
		writeError(w, h.logger, err, "Failed to find nearby alerts")
		return
	}
	writeList(w, alerts)
}

func (h *AlertHandler) TestNotifications(w http.ResponseWriter, r *http.Request) {
	checks := h.alerts.TestNotifications(r.Context())
	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: "Test completed",
		Data:    checks,
	})
}
