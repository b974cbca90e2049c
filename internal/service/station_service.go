package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"fuelsoyo/internal/metrics"
	"fuelsoyo/internal/models"
	"fuelsoyo/internal/repository"
	"fuelsoyo/internal/store"
)

// Tank figures used by stock reporting.
const (
	TankCapacityLitres = 20000
	LowStockLitres     = 1000

	maxCodeDraws = 5
)

// StationService is the registry of stations and their live status.
type StationService struct {
	stations   *repository.StationRepository
	dispatcher *Dispatcher
	logger     *zap.Logger
	opts       options
}

// CreateStationInput is the admin form for a manually listed station.
type CreateStationInput struct {
	Name      string `json:"name" validate:"required"`
	Address   string `json:"address" validate:"required"`
	Phone     string `json:"phone"`
	OpenHours string `json:"openHours"`
	ImageURL  string `json:"imageUrl" validate:"omitempty,url"`
	Manager   string `json:"manager"`
}

// StatusUpdateResult reports how many emails a status change produced.
type StatusUpdateResult struct {
	Success       bool `json:"success"`
	NotifiedCount int  `json:"notifiedCount"`
}

// StockInput is an operator's tank reading in litres.
type StockInput struct {
	GasolineLitres float64 `json:"gasolineLitres"`
	DieselLitres   float64 `json:"dieselLitres"`
}

// StockUpdateResult is a status update plus low-level warnings.
type StockUpdateResult struct {
	StatusUpdateResult
	Station  *models.Station `json:"station"`
	Warnings []string        `json:"warnings"`
}

// NewStationService builds StationService.
func NewStationService(stations *repository.StationRepository, dispatcher *Dispatcher, logger *zap.Logger, opts ...Option) *StationService {
	return &StationService{
		stations:   stations,
		dispatcher: dispatcher,
		logger:     logger,
		opts:       buildOptions(opts),
	}
}

func (s *StationService) List(ctx context.Context) ([]models.Station, error) {
	return s.stations.List(ctx)
}

func (s *StationService) GetByID(ctx context.Context, id string) (*models.Station, error) {
	return s.stations.GetByID(ctx, id)
}

// ValidateCode resolves a station code as typed by an operator.
func (s *StationService) ValidateCode(ctx context.Context, code string) (*models.Station, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil, ErrStationNotFound
	}
	return s.stations.GetByCode(ctx, code)
}

// Create lists a station entered by an admin.
func (s *StationService) Create(ctx context.Context, input CreateStationInput) (*models.Station, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	id := s.opts.newID()
	station := &models.Station{
		ID:        id,
		Name:      strings.TrimSpace(input.Name),
		Address:   strings.TrimSpace(input.Address),
		Phone:     input.Phone,
		OpenHours: input.OpenHours,
		Coords: models.MapPoint{
			X: 10 + s.opts.random.IntN(80),
			Y: 10 + s.opts.random.IntN(80),
		},
		Location: models.GeoPoint{
			Lat: repository.SoyoCenter.Lat + (s.opts.random.Float64()-0.5)*0.05,
			Lng: repository.SoyoCenter.Lng + (s.opts.random.Float64()-0.5)*0.05,
		},
		Status:   models.FuelStatus{LastUpdated: s.opts.clock()},
		ImageURL: input.ImageURL,
		Manager:  input.Manager,
	}
	if station.ImageURL == "" {
		station.ImageURL = placeholderImage(id)
	}
	if station.Manager == "" {
		station.Manager = "Admin (Manual)"
	}

	if err := s.insertWithCode(ctx, station, manualCodePrefix(station.Name)); err != nil {
		return nil, err
	}
	s.logger.Info("station created", zap.String("station_id", station.ID), zap.String("station_code", station.StationCode))
	return station, nil
}

// UpdateDetails overwrites descriptive fields. Status, code and map position
// are never touched.
func (s *StationService) UpdateDetails(ctx context.Context, id string, patch models.StationDetailsPatch) (*models.Station, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, invalid("name", "must not be empty")
	}
	return s.stations.Update(ctx, id, func(st *models.Station) error {
		patch.Apply(st)
		return nil
	})
}

// UpdateStatus merges the patch and runs the dispatcher before returning.
// Dispatch failures are logged; the status change itself stands.
func (s *StationService) UpdateStatus(ctx context.Context, id string, patch models.StatusPatch) (StatusUpdateResult, error) {
	_, result, err := s.updateStatus(ctx, id, patch)
	return result, err
}

func (s *StationService) updateStatus(ctx context.Context, id string, patch models.StatusPatch) (*models.Station, StatusUpdateResult, error) {
	var before models.FuelStatus
	updated, err := s.stations.Update(ctx, id, func(st *models.Station) error {
		before = st.Status
		st.Status = patch.Apply(st.Status, s.opts.clock())
		return nil
	})
	metrics.RecordStatusUpdate(updateOutcome(err))
	if err != nil {
		return nil, StatusUpdateResult{}, err
	}

	s.dispatcher.emit(ctx, EventStationStatus, updated)
	notified, err := s.dispatcher.StationStatusChanged(ctx, *updated, before)
	if err != nil {
		s.logger.Error("status change dispatch failed", zap.String("station_id", id), zap.Int("notified", notified), zap.Error(err))
	}
	s.logger.Info("station status updated",
		zap.String("station_id", id),
		zap.Bool("gasoline", updated.Status.Gasoline),
		zap.Bool("diesel", updated.Status.Diesel),
		zap.Int("notified", notified),
	)
	return updated, StatusUpdateResult{Success: true, NotifiedCount: notified}, nil
}

// UpdateStock converts tank readings into availability. Readings above tank
// capacity are clamped.
func (s *StationService) UpdateStock(ctx context.Context, id string, input StockInput) (StockUpdateResult, error) {
	if input.GasolineLitres < 0 || input.DieselLitres < 0 {
		fields := map[string]string{}
		if input.GasolineLitres < 0 {
			fields["gasolineLitres"] = "must not be negative"
		}
		if input.DieselLitres < 0 {
			fields["dieselLitres"] = "must not be negative"
		}
		return StockUpdateResult{}, &ValidationError{Fields: fields}
	}
	gasoline := min(input.GasolineLitres, TankCapacityLitres)
	diesel := min(input.DieselLitres, TankCapacityLitres)

	var warnings []string
	if gasoline > 0 && gasoline < LowStockLitres {
		warnings = append(warnings, "Estoque de Gasolina baixo!")
	}
	if diesel > 0 && diesel < LowStockLitres {
		warnings = append(warnings, "Estoque de Gasóleo baixo!")
	}

	gasAvailable, dieselAvailable := gasoline > 0, diesel > 0
	station, result, err := s.updateStatus(ctx, id, models.StatusPatch{Gasoline: &gasAvailable, Diesel: &dieselAvailable})
	if err != nil {
		return StockUpdateResult{}, err
	}
	return StockUpdateResult{StatusUpdateResult: result, Station: station, Warnings: warnings}, nil
}

// Delete removes a station. A missing station yields (false, nil).
func (s *StationService) Delete(ctx context.Context, id string) (bool, error) {
	err := s.stations.Delete(ctx, id)
	switch {
	case errors.Is(err, ErrStationNotFound):
		return false, nil
	case err != nil:
		return false, err
	}
	s.logger.Info("station deleted", zap.String("station_id", id))
	return true, nil
}

// insertWithCode draws a station code that no existing station holds and
// stores the station with it.
func (s *StationService) insertWithCode(ctx context.Context, station *models.Station, prefix string) error {
	existing, err := s.stations.List(ctx)
	if err != nil {
		return fmt.Errorf("list stations: %w", err)
	}
	taken := make(map[string]struct{}, len(existing))
	for _, st := range existing {
		taken[st.StationCode] = struct{}{}
	}

	for draw := 1; draw <= maxCodeDraws; draw++ {
		code := fmt.Sprintf("%s%04d", prefix, s.opts.random.IntN(10000))
		if _, clash := taken[code]; clash {
			s.logger.Warn("station code collision", zap.String("station_code", code), zap.Int("draw", draw))
			continue
		}
		station.StationCode = code
		err := s.stations.Create(ctx, station)
		if errors.Is(err, repository.ErrStationCodeTaken) {
			taken[code] = struct{}{}
			s.logger.Warn("station code collision", zap.String("station_code", code), zap.Int("draw", draw))
			continue
		}
		return err
	}
	return ErrStationCodeExhausted
}

func updateOutcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrStationNotFound):
		return "not_found"
	case errors.Is(err, store.ErrConflict):
		return "conflict"
	default:
		return "error"
	}
}

func manualCodePrefix(name string) string {
	var b strings.Builder
	for _, r := range name {
		if r < unicode.MaxASCII && unicode.IsLetter(r) {
			b.WriteRune(unicode.ToUpper(r))
			if b.Len() == 4 {
				break
			}
		}
	}
	if b.Len() == 0 {
		return "POST"
	}
	return b.String()
}

func approvedCodePrefix(name string) string {
	runes := []rune(strings.ToUpper(strings.TrimSpace(name)))
	if len(runes) > 3 {
		runes = runes[:3]
	}
	return string(runes)
}

func placeholderImage(seed string) string {
	return "https://picsum.photos/seed/" + seed + "/800/400"
}
