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

type DonationService interface {
	Create(ctx context.Context, in service.DonationInput, identity *authz.Identity) (models.Donation, error)
	List(ctx context.Context, filter models.DonationFilter, identity *authz.Identity) ([]models.Donation, error)
	Get(ctx context.Context, id string, identity *authz.Identity) (models.Donation, error)
	Update(ctx context.Context, id string, patch service.DonationPatch, identity *authz.Identity) (models.Donation, error)
	Delete(ctx context.Context, id string, identity *authz.Identity) error
}

type DonationHandler struct {
	donations DonationService
	logger    zerolog.Logger
}

func NewDonationHandler(donations DonationService, logger zerolog.Logger) *DonationHandler {
	return &DonationHandler{donations: donations, logger: logger.With().Str("handler", "donation").Logger()}
}

func (h *DonationHandler) CreateDonation(w http.ResponseWriter, r *http.Request) {
	var in service.DonationInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, h.logger, err, "Failed to create donation")
		return
	}
	donation, err := h.donations.Create(r.Context(), in, authz.OptionalIdentity(r))
	if err != nil {
		writeError(w, h.logger, err, "Failed to create donation")
		return
	}
	writeData(w, http.StatusCreated, donation)
}

func (h *DonationHandler) ListDonations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := models.DonationFilter{
		Status:     models.DonationStatus(q.Get("status")),
		BaseCampID: q.Get("baseCamp"),
	}
	donations, err := h.donations.List(r.Context(), filter, authz.OptionalIdentity(r))
	if err != nil {
		writeError(w, h.logger, err, "Failed to list donations")
		return
	}
	writeList(w, donations)
}

func (h *DonationHandler) GetDonation(w http.ResponseWriter, r *http.Request) {
	donation, err := h.donations.Get(r.Context(), mux.Vars(r)["id"], authz.OptionalIdentity(r))
	if err != nil {
		writeError(w, h.logger, err, "Failed to get donation")
		return
	}
	writeData(w, http.StatusOK, donation)
}

func (h *DonationHandler) UpdateDonation(w http.ResponseWriter, r *http.Request) {
	var patch service.DonationPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, h.logger, err, "Failed to update donation")
		return
	}
	donation, err := h.donations.Update(r.Context(), mux.Vars(r)["id"], patch, authz.OptionalIdentity(r))
	if err != nil {
		writeError(w, h.logger, err, "Failed to update donation")
		return
	}
	writeData(w, http.StatusOK, donation)
}

func (h *DonationHandler) DeleteDonation(w http.ResponseWriter, r *http.Request) {
	if err := h.donations.Delete(r.Context(), mux.Vars(r)["id"], authz.OptionalIdentity(r)); err != nil {
		writeError(w, h.logger, err, "Failed to delete donation")
		return
	}
	writeData(w, http.StatusOK, struct{}{})
}
