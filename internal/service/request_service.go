package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"fuelsoyo/internal/metrics"
	"fuelsoyo/internal/models"
	"fuelsoyo/internal/repository"
)

// RequestService runs the partner request and approval workflow.
type RequestService struct {
	requests   *repository.RequestRepository
	stations   *StationService
	dispatcher *Dispatcher
	logger     *zap.Logger
	opts       options
}

// SubmitRequestInput is the public partner form.
type SubmitRequestInput struct {
	StationName string `json:"stationName" validate:"required"`
	Address     string `json:"address" validate:"required"`
	ManagerName string `json:"managerName" validate:"required"`
	Phone       string `json:"phone" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
}

// NewRequestService builds RequestService.
func NewRequestService(
	requests *repository.RequestRepository,
	stations *StationService,
	dispatcher *Dispatcher,
	logger *zap.Logger,
	opts ...Option,
) *RequestService {
	return &RequestService{
		requests:   requests,
		stations:   stations,
		dispatcher: dispatcher,
		logger:     logger,
		opts:       buildOptions(opts),
	}
}

// Submit stores a pending request and tells the admins about it.
func (s *RequestService) Submit(ctx context.Context, input SubmitRequestInput) (*models.StationRequest, error) {
	if err := validateInput(input); err != nil {
		return nil, err
	}

	req := &models.StationRequest{
		ID:          s.opts.newID(),
		StationName: strings.TrimSpace(input.StationName),
		Address:     strings.TrimSpace(input.Address),
		ManagerName: strings.TrimSpace(input.ManagerName),
		Phone:       strings.TrimSpace(input.Phone),
		Email:       strings.TrimSpace(input.Email),
		Status:      models.RequestPending,
		SubmittedAt: s.opts.clock(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("store station request: %w", err)
	}
	metrics.RecordStationRequest("submitted")

	message := fmt.Sprintf("Solicitação recebida de %s para o posto %s.", req.ManagerName, req.StationName)
	if _, err := s.dispatcher.Notify(ctx, models.TargetAdmin, "Nova Solicitação de Posto", message, models.SeverityInfo, "/admin"); err != nil {
		s.logger.Error("failed to notify admins of request", zap.String("request_id", req.ID), zap.Error(err))
	}
	s.dispatcher.emit(ctx, EventRequestSubmitted, req)

	s.logger.Info("station request submitted", zap.String("request_id", req.ID), zap.String("station_name", req.StationName))
	return req, nil
}

// List returns requests with the given status; empty status means all.
func (s *RequestService) List(ctx context.Context, status models.RequestStatus) ([]models.StationRequest, error) {
	switch status {
	case "", models.RequestPending, models.RequestApproved, models.RequestRejected:
	default:
		return nil, invalid("status", "must be one of: pending approved rejected")
	}
	return s.requests.List(ctx, status)
}

func (s *RequestService) Pending(ctx context.Context) ([]models.StationRequest, error) {
	return s.requests.List(ctx, models.RequestPending)
}

// Approve turns a pending request into a listed station and announces it.
// The request transition is a compare-and-swap; if it loses, the station
// created for it is removed again.
func (s *RequestService) Approve(ctx context.Context, id, imageURL string) (*models.Station, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Decided() {
		return nil, ErrRequestDecided
	}

	if imageURL == "" {
		imageURL = placeholderImage(req.ID)
	}
	random := s.stations.opts.random
	station := &models.Station{
		ID:      s.opts.newID(),
		Name:    req.StationName,
		Address: req.Address,
		Phone:   req.Phone,
		Coords:  models.MapPoint{X: 50, Y: 50},
		Location: models.GeoPoint{
			Lat: repository.SoyoCenter.Lat + (random.Float64()-0.5)*0.04,
			Lng: repository.SoyoCenter.Lng + (random.Float64()-0.5)*0.04,
		},
		Status:    models.FuelStatus{LastUpdated: s.opts.clock()},
		ImageURL:  imageURL,
		OpenHours: "08:00 - 18:00",
		Manager:   req.ManagerName,
	}
	if err := s.stations.insertWithCode(ctx, station, approvedCodePrefix(req.StationName)); err != nil {
		return nil, err
	}

	decidedAt := s.opts.clock()
	approved, err := s.requests.Update(ctx, id, func(r *models.StationRequest) error {
		if r.Decided() {
			return ErrRequestDecided
		}
		r.Status = models.RequestApproved
		r.DecidedAt = &decidedAt
		r.StationID = station.ID
		return nil
	})
	if err != nil {
		if _, delErr := s.stations.Delete(ctx, station.ID); delErr != nil {
			s.logger.Error("failed to roll back station", zap.String("station_id", station.ID), zap.Error(delErr))
		}
		return nil, err
	}
	metrics.RecordStationRequest("approved")
	s.dispatcher.emit(ctx, EventRequestApproved, approved)

	notified, err := s.dispatcher.StationAdded(ctx, *station)
	if err != nil {
		s.logger.Error("station announcement failed", zap.String("station_id", station.ID), zap.Error(err))
	}
	s.logger.Info("station request approved",
		zap.String("request_id", id),
		zap.String("station_id", station.ID),
		zap.String("station_code", station.StationCode),
		zap.Int("notified", notified),
	)
	return station, nil
}

// Reject closes a pending request without side effects.
func (s *RequestService) Reject(ctx context.Context, id string) (*models.StationRequest, error) {
	decidedAt := s.opts.clock()
	rejected, err := s.requests.Update(ctx, id, func(r *models.StationRequest) error {
		if r.Decided() {
			return ErrRequestDecided
		}
		r.Status = models.RequestRejected
		r.DecidedAt = &decidedAt
		return nil
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordStationRequest("rejected")
	s.dispatcher.emit(ctx, EventRequestRejected, rejected)
	s.logger.Info("station request rejected", zap.String("request_id", id))
	return rejected, nil
}

