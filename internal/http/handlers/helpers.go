package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"fuelsoyo/internal/http/middleware"
	"fuelsoyo/internal/models"
	"fuelsoyo/internal/service"
	"fuelsoyo/internal/store"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeValidation(w http.ResponseWriter, verr *service.ValidationError) {
	writeJSON(w, http.StatusBadRequest, map[string]interface{}{
		"error":  verr.Error(),
		"fields": verr.Fields,
	})
}

// decodeJSON reads a JSON body into dst, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := jsonDecoder(r).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

func jsonDecoder(r *http.Request) *json.Decoder {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec
}

func principal(w http.ResponseWriter, r *http.Request) (middleware.Principal, bool) {
	p, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
	}
	return p, ok
}

// canManageStation is true for admins and for the operator bound to stationID.
func canManageStation(p middleware.Principal, operatorStationID, stationID string) bool {
	if p.Role == models.RoleAdmin {
		return true
	}
	return p.Role == models.RoleOperator && operatorStationID != "" && operatorStationID == stationID
}

// respondError maps service errors onto status codes. Anything unexpected is
// logged, reported to Sentry and answered with a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, logger *zap.Logger, err error, fallback string) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr)
	case errors.Is(err, service.ErrStationNotFound):
		writeError(w, http.StatusNotFound, "station not found")
	case errors.Is(err, service.ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case errors.Is(err, service.ErrRequestNotFound):
		writeError(w, http.StatusNotFound, "station request not found")
	case errors.Is(err, service.ErrNotificationNotFound):
		writeError(w, http.StatusNotFound, "notification not found")
	case errors.Is(err, service.ErrRequestDecided):
		writeError(w, http.StatusConflict, "station request already decided")
	case errors.Is(err, service.ErrEmailInUse):
		writeError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, "record was modified concurrently, retry")
	case errors.Is(err, store.ErrDuplicate):
		writeError(w, http.StatusConflict, "record already exists")
	case errors.Is(err, service.ErrStationCodeRequired), errors.Is(err, service.ErrInvalidStationCode):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error(fallback, zap.String("path", r.URL.Path), zap.Error(err))
		if hub := sentry.GetHubFromContext(r.Context()); hub != nil {
			hub.CaptureException(err)
		}
		writeError(w, http.StatusInternalServerError, fallback)
	}
}
