package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	appErr "github.com/stanstork/rapidaid-api/internal/errors"
	"github.com/stanstork/rapidaid-api/internal/geo"
	"github.com/stanstork/rapidaid-api/internal/models"
)

// maxBodyBytes bounds request payloads.
const maxBodyBytes = 1 << 20

type successResponse struct {
	Success             bool                        `json:"success"`
	Count               *int                        `json:"count,omitempty"`
	Message             string                      `json:"message,omitempty"`
	Data                interface{}                 `json:"data"`
	NotificationResults *models.NotificationResults `json:"notificationResults,omitempty"`
}

type errorResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []fieldError `json:"errors,omitempty"`
}

type fieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, successResponse{Success: true, Data: data})
}

// writeList reports count alongside the list.
func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	n := len(items)
	writeJSON(w, http.StatusOK, successResponse{Success: true, Count: &n, Data: items})
}

// writeError maps err to its status code. Server-side failures are logged and
// reported with a generic message.
func writeError(w http.ResponseWriter, logger zerolog.Logger, err error, fallback string) {
	status := appErr.StatusCode(err)
	resp := errorResponse{Message: err.Error()}

	if v, ok := appErr.AsValidation(err); ok {
		resp.Message = v.Message
		for _, f := range v.Fields {
			msg := v.Details[f]
			if msg == "" {
				msg = f + " is required"
			}
			resp.Errors = append(resp.Errors, fieldError{Field: f, Message: msg})
		}
	}
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Msg(fallback)
		resp.Message = fallback
	}
	writeJSON(w, status, resp)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return appErr.NewValidation("Invalid request body", map[string]string{"body": err.Error()})
	}
	return nil
}

// radiusParams reads {longitude}/{latitude}/{distance} path variables. The
// distance is in kilometres unless ?unit=mi is given.
func radiusParams(r *http.Request) (models.Location, float64, error) {
	vars := mux.Vars(r)
	details := map[string]string{}

	lng, err := strconv.ParseFloat(vars["longitude"], 64)
	if err != nil {
		details["longitude"] = "must be a number"
	}
	lat, err := strconv.ParseFloat(vars["latitude"], 64)
	if err != nil {
		details["latitude"] = "must be a number"
	}
	distance, err := strconv.ParseFloat(vars["distance"], 64)
	if err != nil {
		details["distance"] = "must be a number"
	}
	switch unit := r.URL.Query().Get("unit"); unit {
	case "", "km":
	case "mi":
		distance = geo.MilesToKm(distance)
	default:
		details["unit"] = "must be km or mi"
	}
	if len(details) > 0 {
		return models.Location{}, 0, appErr.NewValidation("Invalid radius query", details)
	}
	return models.NewPoint(lng, lat, ""), distance, nil
}
