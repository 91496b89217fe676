package handlers

import (
	"net/http"
	"strings"

	"github.com/emersion/go-message/mail"
	"github.com/rs/zerolog"
	"github.com/stanstork/rapidaid-api/internal/authz"
	appErr "github.com/stanstork/rapidaid-api/internal/errors"
	"github.com/stanstork/rapidaid-api/internal/models"
	"github.com/stanstork/rapidaid-api/internal/repository"
)

const minPasswordLen = 6

type AuthHandler struct {
	userRepository repository.UserRepository
	tokens         *authz.TokenManager
	logger         zerolog.Logger
}

type registerRequest struct {
	Name     string          `json:"name"`
	Email    string          `json:"email"`
	Password string          `json:"password"`
	Role     models.UserRole `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func NewAuthHandler(users repository.UserRepository, tokens *authz.TokenManager, logger zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		userRepository: users,
		tokens:         tokens,
		logger:         logger.With().Str("handler", "auth").Logger(),
	}
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "Failed to register user")
		return
	}

	details := map[string]string{}
	if strings.TrimSpace(req.Name) == "" {
		details["name"] = "Name is required"
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(req.Email)); err != nil {
		details["email"] = "Please include a valid email"
	}
	if len(req.Password) < minPasswordLen {
		details["password"] = "Please enter a password with 6 or more characters"
	}
	if !models.IsValidRole(req.Role) {
		details["role"] = "Role is required"
	}
	if len(details) > 0 {
		writeError(w, h.logger, appErr.NewValidation("Invalid registration data", details), "Failed to register user")
		return
	}

	user, err := h.userRepository.CreateUser(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		if appErr.IsConflict(err) {
			err = appErr.NewConflict("User already exists")
		}
		writeError(w, h.logger, err, "Failed to register user")
		return
	}
	h.respondWithToken(w, http.StatusCreated, user)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, h.logger, err, "Failed to log in")
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, h.logger, appErr.NewMissingFields(missing(map[string]string{"email": req.Email, "password": req.Password}, "email", "password")...), "Failed to log in")
		return
	}

	user, err := h.userRepository.AuthenticateUser(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, h.logger, err, "Failed to log in")
		return
	}
	h.respondWithToken(w, http.StatusOK, user)
}

// Me returns the authenticated user.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := authz.IdentityFromRequest(r)
	if !ok {
		writeError(w, h.logger, appErr.NewUnauthenticated("Not authorized to access this route"), "")
		return
	}
	user, err := h.userRepository.GetUserByID(r.Context(), id.UserID)
	if err != nil {
		writeError(w, h.logger, err, "Failed to load user")
		return
	}
	writeData(w, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(w http.ResponseWriter, status int, user models.User) {
	token, err := h.tokens.Issue(user)
	if err != nil {
		writeError(w, h.logger, err, "Failed to generate token")
		return
	}
	writeData(w, status, authResponse{Token: token, User: user})
}

// JWTMiddleware rejects requests without a valid bearer token.
func (h *AuthHandler) JWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			writeError(w, h.logger, appErr.NewUnauthenticated("Authorization header required"), "")
			return
		}
		h.authenticate(w, r, header, next)
	})
}

// OptionalJWTMiddleware lets anonymous requests through but still rejects a
// token that is present and invalid.
func (h *AuthHandler) OptionalJWTMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}
		h.authenticate(w, r, header, next)
	})
}

func (h *AuthHandler) authenticate(w http.ResponseWriter, r *http.Request, header string, next http.Handler) {
	tokenString, err := authz.BearerToken(header)
	if err != nil {
		writeError(w, h.logger, appErr.NewUnauthenticated("Invalid authorization format"), "")
		return
	}
	identity, err := h.tokens.Parse(tokenString)
	if err != nil {
		h.logger.Debug().Err(err).Msg("rejected bearer token")
		writeError(w, h.logger, appErr.NewUnauthenticated("Invalid token"), "")
		return
	}
	ctx := authz.WithIdentity(r.Context(), identity.UserID, identity.Role)
	next.ServeHTTP(w, r.WithContext(ctx))
}

func missing(values map[string]string, fields ...string) []string {
	var out []string
	for _, f := range fields {
		if strings.TrimSpace(values[f]) == "" {
			out = append(out, f)
		}
	}
	return out
}
