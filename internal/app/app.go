package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"fuelsoyo/internal/config"
	"fuelsoyo/internal/events"
	httpserver "fuelsoyo/internal/http"
	"fuelsoyo/internal/http/handlers"
	"fuelsoyo/internal/http/middleware"
	"fuelsoyo/internal/notify"
	"fuelsoyo/internal/password"
	"fuelsoyo/internal/service"
)

// App wires all dependencies for the FuelSoyo service.
type App struct {
	server    *httpserver.Server
	handler   http.Handler
	storage   *Storage
	hub       *notify.Hub
	relay     *notify.RedisRelay
	publisher *events.Publisher
	services  *Services
	sentry    bool
	logger    *zap.Logger
}

// New builds the application graph.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	a := &App{logger: logger}

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         cfg.Sentry.DSN,
			Environment: cfg.Sentry.Environment,
		}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		} else {
			a.sentry = true
		}
	}

	storage, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	a.storage = storage

	a.hub = notify.NewHub(logger.Named("hub"))
	var broadcaster service.Broadcaster = a.hub
	if storage.Redis != nil {
		a.relay = notify.NewRedisRelay(storage.Redis, cfg.Redis.Channel, a.hub, logger.Named("relay"))
		broadcaster = a.relay
	}

	var publisher service.EventPublisher = events.Nop{}
	if cfg.AMQP.URL != "" {
		p, err := events.NewPublisher(cfg.AMQP.URL)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.publisher = p
		publisher = p
	}

	a.services = NewServices(cfg, storage.Backend, password.NewBcryptHasher(0), broadcaster, publisher, logger)
	a.handler = newRouter(cfg, a.services, a.hub, logger)
	a.server = httpserver.NewServer(
		cfg.HTTPAddress(),
		a.handler,
		cfg.HTTP.ShutdownTimeout,
		logger,
		middleware.RecoveryMiddleware(logger),
		middleware.LoggingMiddleware(logger),
	)
	return a, nil
}

func newRouter(cfg *config.Config, svc *Services, hub *notify.Hub, logger *zap.Logger) http.Handler {
	return httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandlers:          handlers.NewAuthHandlers(svc.Auth, logger),
		StationsHandlers:      handlers.NewStationsHandlers(svc.Stations, svc.Auth, logger),
		RequestsHandlers:      handlers.NewRequestsHandlers(svc.Requests, logger),
		NotificationsHandlers: handlers.NewNotificationsHandlers(svc.Feed, hub, cfg.HTTP.AllowedOrigins, logger),
		AdminHandlers:         handlers.NewAdminHandlers(svc.Feed, svc.Reports, logger),
		HealthHandler:         handlers.NewHealthHandler(),
	}, middleware.AuthMiddleware(svc.Tokens))
}

// Handler exposes the routed handler without server middleware.
func (a *App) Handler() http.Handler { return a.handler }

// Services exposes the domain layer.
func (a *App) Services() *Services { return a.services }

// Run starts the relay and the HTTP server and blocks until ctx ends.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if a.relay != nil {
		go func() {
			if err := a.relay.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("notification relay stopped", zap.Error(err))
			}
		}()
	}

	err := a.server.Run(ctx)
	// Hijacked websocket connections are not closed by Shutdown.
	a.hub.Close()
	return err
}

// Close releases resources.
func (a *App) Close() {
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.logger.Warn("failed to close event publisher", zap.Error(err))
		}
	}
	if a.storage != nil {
		a.storage.Close()
	}
	if a.sentry {
		sentry.Flush(2 * time.Second)
	}
}
