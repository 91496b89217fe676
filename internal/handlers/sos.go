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

type SOSService interface {
	Create(ctx context.Context, in service.SOSInput, identity *authz.Identity) (models.SOSRequest, error)
	List(ctx context.Context, status models.SOSStatus, identity *authz.Identity) ([]models.SOSRequest, error)
	Get(ctx context.Context, id string, identity *authz.Identity) (models.SOSRequest, error)
	Update(ctx context.Context, id string, patch service.SOSPatch, identity *authz.Identity) (models.SOSRequest, error)
	Delete(ctx context.Context, id string, identity *authz.Identity) error
	Nearby(ctx context.Context, center models.Location, radiusKm float64) ([]models.SOSRequest, error)
}

type SOSHandler struct {
	requests SOSService
	logger   zerolog.Logger
}

func NewSOSHandler(requests SOSService, logger zerolog.Logger) *SOSHandler {
	return &SOSHandler{requests: requests, logger: logger.With().Str("handler", "sos").Logger()}
}

func (h *SOSHandler) CreateSOS(w http.ResponseWriter, r *http.Request) {
	var in service.SOSInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err, "Failed to create SOS request")
		return
	}
	sos, err := h.requests.Create(r.Context(), in, authz.OptionalIdentity(r))
	if err != nil {
		writeError(w, h.logger, err, "Failed to create SOS request")
		return
	}
	writeData(w, http.StatusCreated, sos)
}

func (h *SOSHandler) ListSOS(w http.ResponseWriter, r *http.Request) {
	status := models.SOSStatus(r.URL.Query().Get("status"))
	requests, err := h.requests.List(r.Context(), status, authz.OptionalIdentity(r))
	if err != nil {
		writeError(w, h.logger, err, "Failed to list SOS requests")
		return
	}
	writeList(w, requests)
}

func (h *SOSHandler) GetSOS(w http.ResponseWriter, r *http.Request) {
	sos, err := h.requests.Get(r.Context(), mux.Vars(r)["id"], authz.OptionalIdentity(r))
	if err != nil {
		writeError(w, h.logger, err, "Failed to get SOS request")
		return
	}
	writeData(w, http.StatusOK, sos)
}

func (h *SOSHandler) UpdateSOS(w http.ResponseWriter, r *http.Request) {
	var patch service.SOSPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, err, "Failed to update SOS request")
		return
	}
	sos, err := h.requests.Update(r.Context(), mux.Vars(r)["id"], patch, authz.OptionalIdentity(r))
	if err != nil {
		writeError(w, h.logger, err, "Failed to update SOS request")
		return
	}
	writeData(w, http.StatusOK, sos)
}

func (h *SOSHandler) DeleteSOS(w http.ResponseWriter, r *http.Request) {
	if err := h.requests.Delete(r.Context(), mux.Vars(r)["id"], authz.OptionalIdentity(r)); err != nil {
		writeError(w, h.logger, err, "Failed to delete SOS request")
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}

func (h *SOSHandler) NearbySOS(w http.ResponseWriter, r *http.Request) {
	center, radiusKm, err := radiusParams(r)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	requests, err := h.requests.Nearby(r.Context(), center, radiusKm)
	if err != nil {
		writeError(w, h.logger, err, "Failed to find nearby SOS requests")
		return
	}
	writeList(w, requests)
}
