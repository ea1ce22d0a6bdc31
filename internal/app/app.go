package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"shortwatch/internal/config"
	apierrors "shortwatch/internal/errors"
	"shortwatch/internal/infrastructure"
	"shortwatch/internal/loader"
	customMiddleware "shortwatch/internal/middleware"
	"shortwatch/internal/series"
	"shortwatch/internal/services"
	handlers "shortwatch/internal/transport/http"
	ws "shortwatch/internal/websocket"
	"shortwatch/pkg/contracts"
)

// AppName is shown in startup logs
const AppName = "Shortwatch - Structural Shortage Monitor"

// compressionLevel is the gzip level for API responses
const compressionLevel = 5

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.DashboardMetrics
	WebSocketHub  *ws.Hub
	Dashboard     *services.DashboardService
	HealthService *services.HealthService
	ErrorHandler  *apierrors.ErrorHandler

	stopOnce sync.Once
	stopErr  error
}

// NewApplication loads the configuration, initializes the process logger and
// builds the application. An empty configPath uses the default lookup.
func NewApplication(configPath string) (*Application, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return New(cfg, logger)
}

// New wires every component from an already loaded configuration. Nothing is
// fetched or served until Start.
func New(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("source", cfg.Data.Source))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.NewOTelConfig(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateDashboardMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create dashboard metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
	}

	if err := app.initializeServices(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}

	app.createServer()

	return app, nil
}

// initializeServices builds the snapshot pipeline and the services on top of it
func (a *Application) initializeServices(ctx context.Context) error {
	src, err := loader.NewSource(ctx, a.Config.Data.Source, loader.SourceOptions{
		HTTPTimeout: a.Config.Data.HTTPTimeout,
		S3Region:    a.Config.Data.S3Region,
		S3Endpoint:  a.Config.Data.S3Endpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to resolve data source: %w", err)
	}

	snapshots := loader.New(src, a.Logger, loader.Options{
		SkipSchema: !a.Config.Data.ValidateSchema,
		MaxBytes:   a.Config.Data.MaxBytes,
	})

	a.WebSocketHub = ws.NewHub(a.Metrics, a.Logger)

	window, err := series.ParseWindow(strconv.Itoa(a.Config.Dashboard.DefaultPeriod))
	if err != nil {
		return fmt.Errorf("invalid default chart period: %w", err)
	}

	a.Dashboard = services.NewDashboardService(snapshots, src.String(), a.Logger,
		services.WithNotifier(a.WebSocketHub),
		services.WithMetrics(a.Metrics),
		services.WithResampler(series.NewResampler(nil, a.Config.Location())),
		services.WithDefaultWindow(window),
	)

	a.HealthService = services.NewHealthService(contracts.Version, contracts.BuildTime, a.Dashboard, a.WebSocketHub, a.Logger)
	a.ErrorHandler = apierrors.NewErrorHandler(a.Logger, a.Config.Telemetry.Environment == "development")

	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	r.NotFound(a.ErrorHandler.NotFound)
	r.MethodNotAllowed(a.ErrorHandler.MethodNotAllowed)

	// Only middleware that leaves the ResponseWriter alone runs ahead of /ws
	r.Use(customMiddleware.RequestID)
	r.Use(customMiddleware.RealIP)

	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).Handle("/ws", ws.NewHandler(
		a.WebSocketHub,
		a.Dashboard,
		a.Config.WebSocket,
		a.Config.Security.AllowedOrigins,
		ws.ClientOptions{
			QueryDebounce: a.Config.Dashboard.SearchDebounce,
			Metrics:       a.Metrics,
		},
		a.Logger,
	))

	if a.OTelProviders.PrometheusHTTP != nil {
		r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
	}

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return err
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recover → Headers → CORS → RateLimit → Timeout → Compress
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(a.ErrorHandler.Middleware)
		r.Use(customMiddleware.SecurityHeaders)
		if a.Config.Security.EnableCORS {
			r.Use(customMiddleware.CORS(a.getCORSConfig()))
		}
		if a.Config.Security.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.Security.RateLimit.RPS,
				a.Config.Security.RateLimit.Burst,
				a.Logger,
			).Handler)
		}
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))
		r.Use(customMiddleware.Compress(compressionLevel))

		a.setupAPIRoutes(r)
	})

	a.Router = r
	return nil
}

// setupAPIRoutes mounts the handlers under /api
func (a *Application) setupAPIRoutes(r chi.Router) {
	validation := customMiddleware.NewValidationMiddleware(a.Logger, a.ErrorHandler)

	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	dashboardHandler := handlers.NewDashboardHandler(a.Dashboard, validation, a.Logger, a.ErrorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(validation.ValidateRequest)

		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)
		r.Mount("/", dashboardHandler.Routes())
	})
}

// getCORSConfig returns the CORS configuration for the API group
func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	return customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		Logger:         a.Logger,
	}
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start runs the hub and performs the first snapshot load. A failed load is
// not fatal: the API answers 503 until a reload succeeds.
func (a *Application) Start(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()

	if err := a.Dashboard.Load(ctx); err != nil {
		a.Logger.WarnContext(ctx, "Initial snapshot load failed, serving not-loaded state",
			slog.String("error", err.Error()))
	}

	return nil
}

// Stop gracefully stops the application. Later calls return the first result.
func (a *Application) Stop(ctx context.Context) error {
	a.stopOnce.Do(func() {
		a.stopErr = a.stop(ctx)
	})
	return a.stopErr
}

func (a *Application) stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

// Run starts the application and serves until ctx is cancelled, SIGINT or
// SIGTERM arrives, or the listener fails
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.Logger.InfoContext(gctx, "Listening", slog.String("address", a.Server.Addr))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		a.Logger.InfoContext(ctx, "Shutdown requested")
		return a.Stop(context.WithoutCancel(ctx))
	})

	return g.Wait()
}
