package routes

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stanstork/rapidaid-api/internal/authz"
	"github.com/stanstork/rapidaid-api/internal/handlers"
	"github.com/stanstork/rapidaid-api/internal/middleware"
	"github.com/stanstork/rapidaid-api/internal/models"
)

// Handlers groups everything the router dispatches to.
type Handlers struct {
	Health    http.HandlerFunc
	Auth      *handlers.AuthHandler
	Alerts    *handlers.AlertHandler
	SOS       *handlers.SOSHandler
	BaseCamps *handlers.BaseCampHandler
	Donations *handlers.DonationHandler
}

// NewRouter sets up the API routes
func NewRouter(h Handlers) *mux.Router {
	router := mux.NewRouter()
	router.Use(middleware.MetricsMiddleware)

	router.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	protect := func(f http.HandlerFunc, roles ...models.UserRole) http.Handler {
		var next http.Handler = f
		if len(roles) > 0 {
			next = authz.RequireRoleHandler(next, roles...)
		}
		return h.Auth.JWTMiddleware(next)
	}

	// Public auth endpoints
	auth := router.PathPrefix("/api/auth").Subrouter()
	auth.HandleFunc("/register", h.Auth.Register).Methods(http.MethodPost)
	auth.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	auth.Handle("/me", protect(h.Auth.Me)).Methods(http.MethodGet)

	// Alerts. Creation accepts anonymous callers, who are attributed to a
	// fallback responder; authenticated callers must be responders.
	alerts := router.PathPrefix("/api/alerts").Subrouter()
	alerts.Handle("", protect(h.Alerts.ListAlerts)).Methods(http.MethodGet)
	alerts.Handle("", h.Auth.OptionalJWTMiddleware(
		authz.RequireRoleIfAuthenticated(models.RoleResponder)(http.HandlerFunc(h.Alerts.CreateAlert)),
	)).Methods(http.MethodPost)
	alerts.Handle("/test-notifications", protect(h.Alerts.TestNotifications, models.RoleResponder)).Methods(http.MethodGet)
	alerts.Handle("/radius/{longitude}/{latitude}/{distance}", protect(h.Alerts.NearbyAlerts)).Methods(http.MethodGet)
	alerts.Handle("/{id}", protect(h.Alerts.GetAlert)).Methods(http.MethodGet)
	alerts.Handle("/{id}", protect(h.Alerts.UpdateAlert, models.RoleResponder)).Methods(http.MethodPut)
	alerts.Handle("/{id}", protect(h.Alerts.DeleteAlert, models.RoleResponder)).Methods(http.MethodDelete)

	sos := router.PathPrefix("/api/sos").Subrouter()
	sos.Handle("", protect(h.SOS.ListSOS)).Methods(http.MethodGet)
	sos.Handle("", protect(h.SOS.CreateSOS)).Methods(http.MethodPost)
	sos.Handle("/radius/{longitude}/{latitude}/{distance}", protect(h.SOS.NearbySOS, models.RoleResponder, models.RoleVolunteer)).Methods(http.MethodGet)
	sos.Handle("/{id}", protect(h.SOS.GetSOS)).Methods(http.MethodGet)
	sos.Handle("/{id}", protect(h.SOS.UpdateSOS)).Methods(http.MethodPut)
	sos.Handle("/{id}", protect(h.SOS.DeleteSOS)).Methods(http.MethodDelete)

	camps := router.PathPrefix("/api/basecamps").Subrouter()
	camps.Handle("", protect(h.BaseCamps.ListBaseCamps)).Methods(http.MethodGet)
	camps.Handle("", protect(h.BaseCamps.CreateBaseCamp, models.RoleResponder)).Methods(http.MethodPost)
	camps.Handle("/radius/{longitude}/{latitude}/{distance}", protect(h.BaseCamps.NearbyBaseCamps)).Methods(http.MethodGet)
	camps.Handle("/{id}", protect(h.BaseCamps.GetBaseCamp)).Methods(http.MethodGet)
	camps.Handle("/{id}", protect(h.BaseCamps.UpdateBaseCamp, models.RoleResponder)).Methods(http.MethodPut)
	camps.Handle("/{id}", protect(h.BaseCamps.DeleteBaseCamp, models.RoleResponder)).Methods(http.MethodDelete)
	camps.Handle("/{id}/resources", protect(h.BaseCamps.UpdateResources, models.RoleResponder, models.RoleVolunteer)).Methods(http.MethodPut)
	camps.Handle("/{id}/volunteers", protect(h.BaseCamps.AssignVolunteer, models.RoleResponder)).Methods(http.MethodPut)
	camps.Handle("/{id}/volunteers/{volunteerId}", protect(h.BaseCamps.RemoveVolunteer, models.RoleResponder)).Methods(http.MethodDelete)
	camps.Handle("/{id}/donations", protect(h.BaseCamps.BaseCampDonations)).Methods(http.MethodGet)

	donations := router.PathPrefix("/api/donations").Subrouter()
	donations.Handle("", protect(h.Donations.ListDonations)).Methods(http.MethodGet)
	donations.Handle("", protect(h.Donations.CreateDonation)).Methods(http.MethodPost)
	donations.Handle("/{id}", protect(h.Donations.GetDonation)).Methods(http.MethodGet)
	donations.Handle("/{id}", protect(h.Donations.UpdateDonation)).Methods(http.MethodPut)
	donations.Handle("/{id}", protect(h.Donations.DeleteDonation)).Methods(http.MethodDelete)

	return router
}
