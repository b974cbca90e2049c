package handlers

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"fuelsoyo/internal/models"
	"fuelsoyo/internal/service"
)

// RequestsHandlers serves the partner request workflow.
type RequestsHandlers struct {
	requests *service.RequestService
	logger   *zap.Logger
}

// NewRequestsHandlers returns handler.
func NewRequestsHandlers(requests *service.RequestService, logger *zap.Logger) *RequestsHandlers {
	return &RequestsHandlers{requests: requests, logger: logger}
}

// Submit handles POST /api/station-requests.
func (h *RequestsHandlers) Submit(w http.ResponseWriter, r *http.Request) {
	var req service.SubmitRequestInput
	if !decodeJSON(w, r, &req) {
		return
	}
	created, err := h.requests.Submit(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err, "failed to submit request")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// List handles GET /api/station-requests?status=.
func (h *RequestsHandlers) List(w http.ResponseWriter, r *http.Request) {
	status := models.RequestStatus(r.URL.Query().Get("status"))
	list, err := h.requests.List(r.Context(), status)
	if err != nil {
		respondError(w, r, h.logger, err, "failed to list requests")
		return
	}
	if list == nil {
		list = []models.StationRequest{}
	}
	writeJSON(w, http.StatusOK, list)
}

// Approve handles POST /api/station-requests/{id}/approve. The body is
// optional and may carry an image URL for the new station.
func (h *RequestsHandlers) Approve(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ImageURL string `json:"imageUrl"`
	}
	if r.ContentLength != 0 {
		if err := decodeOptional(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
	}
	station, err := h.requests.Approve(r.Context(), r.PathValue("id"), req.ImageURL)
	if err != nil {
		respondError(w, r, h.logger, err, "failed to approve request")
		return
	}
	writeJSON(w, http.StatusCreated, station)
}

// Reject handles POST /api/station-requests/{id}/reject.
func (h *RequestsHandlers) Reject(w http.ResponseWriter, r *http.Request) {
	rejected, err := h.requests.Reject(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, h.logger, err, "failed to reject request")
		return
	}
	writeJSON(w, http.StatusOK, rejected)
}

func decodeOptional(r *http.Request, dst interface{}) error {
	err := jsonDecoder(r).Decode(dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
