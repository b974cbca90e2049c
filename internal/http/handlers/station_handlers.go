package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"fuelsoyo/internal/models"
	"fuelsoyo/internal/service"
)

// StationsHandlers serves the station registry.
type StationsHandlers struct {
	stations *service.StationService
	auth     *service.AuthService
	logger   *zap.Logger
}

// NewStationsHandlers returns handler.
func NewStationsHandlers(stations *service.StationService, auth *service.AuthService, logger *zap.Logger) *StationsHandlers {
	return &StationsHandlers{stations: stations, auth: auth, logger: logger}
}

// List handles GET /api/stations.
func (h *StationsHandlers) List(w http.ResponseWriter, r *http.Request) {
	stations, err := h.stations.List(r.Context())
	if err != nil {
		respondError(w, r, h.logger, err, "failed to list stations")
		return
	}
	writeJSON(w, http.StatusOK, stations)
}

// Get handles GET /api/stations/{id}.
func (h *StationsHandlers) Get(w http.ResponseWriter, r *http.Request) {
	station, err := h.stations.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, h.logger, err, "failed to load station")
		return
	}
	writeJSON(w, http.StatusOK, station)
}

// Create handles POST /api/stations.
func (h *StationsHandlers) Create(w http.ResponseWriter, r *http.Request) {
	var req service.CreateStationInput
	if !decodeJSON(w, r, &req) {
		return
	}
	station, err := h.stations.Create(r.Context(), req)
	if err != nil {
		respondError(w, r, h.logger, err, "failed to create station")
		return
	}
	writeJSON(w, http.StatusCreated, station)
}

// UpdateDetails handles PATCH /api/stations/{id}.
func (h *StationsHandlers) UpdateDetails(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}
	var patch models.StationDetailsPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	station, err := h.stations.UpdateDetails(r.Context(), id, patch)
	if err != nil {
		respondError(w, r, h.logger, err, "failed to update station")
		return
	}
	writeJSON(w, http.StatusOK, station)
}

// UpdateStatus handles PUT /api/stations/{id}/status.
func (h *StationsHandlers) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}
	var patch models.StatusPatch
	if !decodeJSON(w, r, &patch) {
		return
	}
	result, err := h.stations.UpdateStatus(r.Context(), id, patch)
	if err != nil {
		respondError(w, r, h.logger, err, "failed to update status")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// UpdateStock handles PUT /api/stations/{id}/stock.
func (h *StationsHandlers) UpdateStock(w http.ResponseWriter, r *http.Request) {
	id, ok := h.authorize(w, r)
	if !ok {
		return
	}
	var req service.StockInput
	if !decodeJSON(w, r, &req) {
		return
	}
	result, err := h.stations.UpdateStock(r.Context(), id, req)
	if err != nil {
		respondError(w, r, h.logger, err, "failed to update stock")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Delete handles DELETE /api/stations/{id}.
func (h *StationsHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.stations.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		respondError(w, r, h.logger, err, "failed to delete station")
		return
	}
	if !deleted {
		writeError(w, http.StatusNotFound, "station not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// authorize lets admins through and operators only for their own station.
func (h *StationsHandlers) authorize(w http.ResponseWriter, r *http.Request) (string, bool) {
	p, ok := principal(w, r)
	if !ok {
		return "", false
	}
	id := r.PathValue("id")
	var operatorStation string
	if p.Role == models.RoleOperator {
		me, err := h.auth.Me(r.Context(), p.UserID)
		if err != nil {
			respondError(w, r, h.logger, err, "failed to load operator")
			return "", false
		}
		operatorStation = me.StationID
	}
	if !canManageStation(p, operatorStation, id) {
		writeError(w, http.StatusForbidden, "forbidden")
		return "", false
	}
	return id, true
}
