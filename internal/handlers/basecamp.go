package handlers

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stanstork/rapidaid-api/internal/models"
	"github.com/stanstork/rapidaid-api/internal/service"
)

type BaseCampService interface {
	Create(ctx context.Context, in service.BaseCampInput) (models.BaseCamp, error)
	List(ctx context.Context) ([]models.BaseCamp, error)
	Get(ctx context.Context, id string) (models.BaseCamp, error)
	Update(ctx context.Context, id string, patch service.BaseCampPatch) (models.BaseCamp, error)
	Delete(ctx context.Context, id string) error
	UpdateResources(ctx context.Context, id string, updates []models.ResourceUpdate) (models.BaseCamp, error)
	AssignVolunteer(ctx context.Context, id, volunteerID string) (models.BaseCamp, error)
	RemoveVolunteer(ctx context.Context, id, volunteerID string) (models.BaseCamp, error)
	Nearby(ctx context.Context, center models.Location, radiusKm float64) ([]models.BaseCamp, error)
	Donations(ctx context.Context, id string) ([]models.Donation, error)
}

type BaseCampHandler struct {
	camps  BaseCampService
	logger zerolog.Logger
}

func NewBaseCampHandler(camps BaseCampService, logger zerolog.Logger) *BaseCampHandler {
	return &BaseCampHandler{camps: camps, logger: logger.With().Str("handler", "basecamp").Logger()}
}

func (h *BaseCampHandler) CreateBaseCamp(w http.ResponseWriter, r *http.Request) {
	var in service.BaseCampInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err, "Failed to create base camp")
		return
	}
	camp, err := h.camps.Create(r.Context(), in)
	if err != nil {
		writeError(w, h.logger, err, "Failed to create base camp")
		return
	}
	writeData(w, http.StatusCreated, camp)
}

func (h *BaseCampHandler) ListBaseCamps(w http.ResponseWriter, r *http.Request) {
	camps, err := h.camps.List(r.Context())
	if err != nil {
		writeError(w, h.logger, err, "Failed to list base camps")
		return
	}
	writeList(w, camps)
}

func (h *BaseCampHandler) GetBaseCamp(w http.ResponseWriter, r *http.Request) {
	camp, err := h.camps.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err, "Failed to get base camp")
		return
	}
	writeData(w, http.StatusOK, camp)
}

func (h *BaseCampHandler) UpdateBaseCamp(w http.ResponseWriter, r *http.Request) {
	var patch service.BaseCampPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, err, "Failed to update base camp")
		return
	}
	camp, err := h.camps.Update(r.Context(), mux.Vars(r)["id"], patch)
	if err != nil {
		writeError(w, h.logger, err, "Failed to update base camp")
		return
	}
	writeData(w, http.StatusOK, camp)
}

func (h *BaseCampHandler) DeleteBaseCamp(w http.ResponseWriter, r *http.Request) {
	if err := h.camps.Delete(r.Context(), mux.Vars(r)["id"]); err != nil {
		writeError(w, h.logger, err, "Failed to delete base camp")
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}

func (h *BaseCampHandler) UpdateResources(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Resources []models.ResourceUpdate `json:"resources"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err, "Failed to update resources")
		return
	}
	camp, err := h.camps.UpdateResources(r.Context(), mux.Vars(r)["id"], body.Resources)
	if err != nil {
		writeError(w, h.logger, err, "Failed to update resources")
		return
	}
	writeData(w, http.StatusOK, camp)
}

func (h *BaseCampHandler) AssignVolunteer(w http.ResponseWriter, r *http.Request) {
	var body struct {
		VolunteerID string `json:"volunteerId"`
	}
	if err := decodeJSON(w, r, &body); err != nil {
		writeError(w, h.logger, err, "Failed to assign volunteer")
		return
	}
	camp, err := h.camps.AssignVolunteer(r.Context(), mux.Vars(r)["id"], body.VolunteerID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to assign volunteer")
		return
	}
	writeData(w, http.StatusOK, camp)
}

func (h *BaseCampHandler) RemoveVolunteer(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	camp, err := h.camps.RemoveVolunteer(r.Context(), vars["id"], vars["volunteerId"])
	if err != nil {
		writeError(w, h.logger, err, "Failed to remove volunteer")
		return
	}
	writeData(w, http.StatusOK, camp)
}

func (h *BaseCampHandler) NearbyBaseCamps(w http.ResponseWriter, r *http.Request) {
	center, radiusKm, err := radiusParams(r)
	if err != nil {
		writeError(w, h.logger, err, "")
		return
	}
	camps, err := h.camps.Nearby(r.Context(), center, radiusKm)
	if err != nil {
		writeError(w, h.logger, err, "Failed to find nearby base camps")
		return
	}
	writeList(w, camps)
}

func (h *BaseCampHandler) BaseCampDonations(w http.ResponseWriter, r *http.Request) {
	donations, err := h.camps.Donations(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, h.logger, err, "Failed to list donations")
		return
	}
	writeList(w, donations)
}
