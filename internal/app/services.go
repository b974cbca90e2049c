package app

import (
	"time"

	"go.uber.org/zap"

	"fuelsoyo/internal/config"
	"fuelsoyo/internal/password"
	"fuelsoyo/internal/repository"
	"fuelsoyo/internal/service"
	"fuelsoyo/internal/store"
)

// Services is the domain layer built on one backend.
type Services struct {
	Dispatcher *service.Dispatcher
	Stations   *service.StationService
	Requests   *service.RequestService
	Auth       *service.AuthService
	Feed       *service.FeedService
	Reports    *service.ReportService
	Tokens     *service.TokenService
}

// NewServices wires repositories and services. broadcaster and events may
// be nil.
func NewServices(
	cfg *config.Config,
	backend store.Backend,
	hasher password.Hasher,
	broadcaster service.Broadcaster,
	events service.EventPublisher,
	logger *zap.Logger,
	opts ...service.Option,
) *Services {
	opts = append([]service.Option{service.WithStaleAfter(cfg.Notifications.StaleAfter)}, opts...)

	stationRepo := repository.NewStationRepository(backend, repository.SeedStations(time.Now))
	userRepo := repository.NewUserRepository(backend, repository.SeedUsers(cfg.SeedPassword, hasher.Hash, time.Now))
	requestRepo := repository.NewRequestRepository(backend)
	notificationRepo := repository.NewNotificationRepository(backend)
	emailRepo := repository.NewEmailLogRepository(backend)

	tokens := service.NewTokenService(cfg.JWT.Secret, cfg.JWTExpiration())
	dispatcher := service.NewDispatcher(userRepo, notificationRepo, emailRepo, broadcaster, events, logger.Named("dispatcher"), opts...)
	stations := service.NewStationService(stationRepo, dispatcher, logger.Named("stations"), opts...)

	return &Services{
		Dispatcher: dispatcher,
		Stations:   stations,
		Requests:   service.NewRequestService(requestRepo, stations, dispatcher, logger.Named("requests"), opts...),
		Auth:       service.NewAuthService(userRepo, stations, dispatcher, hasher, tokens, logger.Named("auth"), opts...),
		Feed:       service.NewFeedService(notificationRepo, emailRepo, userRepo, stationRepo, dispatcher, logger.Named("feed")),
		Reports:    service.NewReportService(stationRepo, userRepo, service.HashSeeder{}, opts...),
		Tokens:     tokens,
	}
}
