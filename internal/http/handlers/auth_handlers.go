package handlers

import (
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"fuelsoyo/internal/models"
	"fuelsoyo/internal/service"
)

// AuthHandlers serves login, sign-up and profile endpoints.
type AuthHandlers struct {
	auth   *service.AuthService
	logger *zap.Logger
}

// NewAuthHandlers returns handler.
func NewAuthHandlers(auth *service.AuthService, logger *zap.Logger) *AuthHandlers {
	return &AuthHandlers{auth: auth, logger: logger}
}

// Login handles POST /api/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		writeError(w, http.StatusBadRequest, "email and password are required")
		return
	}

	session, err := h.auth.Login(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusUnauthorized, "user not found")
	case errors.Is(err, service.ErrWrongPassword):
		writeError(w, http.StatusUnauthorized, "wrong password")
	case err != nil:
		respondError(w, r, h.logger, err, "failed to login")
	default:
		writeJSON(w, http.StatusOK, session)
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req service.RegisterInput
	if !decodeJSON(w, r, &req) {
		return
	}
	session, err := h.auth.Register(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err, "failed to register")
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

// Me handles GET /api/me.
func (h *AuthHandlers) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	me, err := h.auth.Me(r.Context(), p.UserID)
	if err != nil {
		respondError(w, r, h.logger, err, "failed to load profile")
		return
	}
	writeJSON(w, http.StatusOK, me)
}

// UpdatePreferences handles PUT /api/me/preferences.
func (h *AuthHandlers) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	var prefs models.Preferences
	if !decodeJSON(w, r, &prefs) {
		return
	}
	me, err := h.auth.UpdatePreferences(r.Context(), p.UserID, prefs)
	if err != nil {
		respondError(w, r, h.logger, err, "failed to update preferences")
		return
	}
	writeJSON(w, http.StatusOK, me)
}

// ToggleFavorite handles POST /api/me/favorites/{stationID}.
func (h *AuthHandlers) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	favorites, err := h.auth.ToggleFavorite(r.Context(), p.UserID, r.PathValue("stationID"))
	if err != nil {
		respondError(w, r, h.logger, err, "failed to toggle favorite")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"favorites": favorites})
}
