package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/dustin/go-humanize"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"

	"usdataexplorer/internal/config"
	"usdataexplorer/internal/datasets"
	apierrors "usdataexplorer/internal/errors"
	"usdataexplorer/internal/exporter"
	"usdataexplorer/internal/files"
	"usdataexplorer/internal/infrastructure"
	customMiddleware "usdataexplorer/internal/middleware"
	"usdataexplorer/internal/services"
	handlers "usdataexplorer/internal/transport/http"
	ws "usdataexplorer/internal/websocket"
	"usdataexplorer/pkg/contracts"
)

// AppName is logged at startup
const AppName = "US Data Explorer"

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Paths         *config.Paths
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	Metrics       *infrastructure.BusinessMetrics
	Files         *files.Manager
	Cache         *datasets.Cache
	Explorer      *services.ExplorerService
	Health        *services.HealthService
	Exporter      *exporter.Exporter
	WebSocketHub  *ws.Hub
	ErrorHandler  *apierrors.ErrorHandler

	serveErr chan error
}

// NewApplication wires every component from cfg. A nil logger initializes
// the global one from cfg.Logging.
func NewApplication(cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		var err error
		logger, err = infrastructure.InitializeLogger(cfg.Logging)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", contracts.Version))

	paths, err := cfg.ResolvePaths()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve paths: %w", err)
	}
	if err := paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}
	paths.LogPathResolution(logger)

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.OTelConfigFrom(cfg.Telemetry), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	metrics, err := infrastructure.CreateBusinessMetrics(otelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create business metrics: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Paths:         paths,
		Logger:        logger,
		OTelProviders: otelProviders,
		Metrics:       metrics,
		ErrorHandler:  apierrors.NewErrorHandler(logger, false),
		serveErr:      make(chan error, 1),
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}
	if err := app.setupRouter(); err != nil {
		return nil, fmt.Errorf("failed to set up router: %w", err)
	}
	app.createServer()

	return app, nil
}

// initializeServices builds the dataset cache and the services on top of it
func (a *Application) initializeServices() error {
	a.Files = files.NewManager(a.Paths, a.Logger)

	source, err := datasets.NewSource(a.Config.Datasets, a.Files, a.Logger)
	if err != nil {
		return fmt.Errorf("failed to create dataset source: %w", err)
	}

	a.Cache = datasets.NewCache(
		datasets.NewRegistry(a.Config.Datasets.Files()),
		source,
		datasets.Options{
			TTL:             a.Config.Datasets.CacheTTL,
			Lenient:         a.Config.Datasets.Lenient,
			WarmConcurrency: a.Config.Datasets.WarmConcurrency,
		},
		a.Logger,
		a.Metrics,
	)

	a.WebSocketHub = ws.NewHub(a.Logger, a.Metrics)
	a.WebSocketHub.SetSnapshot(func() any { return a.Cache.Status() })
	a.Cache.OnStatus(a.WebSocketHub.BroadcastDatasetStatus)

	a.Explorer = services.NewExplorerService(a.Cache, a.Config.Aggregation, a.Logger, a.Metrics)
	a.Health = services.NewHealthService(a.Cache, a.WebSocketHub, a.Paths.DataDir, a.Config.Datasets.Source, a.Logger)
	a.Exporter = exporter.New(a.Files, a.Config.Export, a.Logger, a.Metrics)

	a.Logger.Info("Dataset source configured",
		slog.String("source", a.Config.Datasets.Source),
		slog.String("max_file_size", humanize.IBytes(uint64(a.Config.Datasets.MaxFileSize))),
		slog.Duration("cache_ttl", a.Config.Datasets.CacheTTL))
	return nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() error {
	r := chi.NewRouter()
	eh := a.ErrorHandler

	// Minimal middleware only: the websocket upgrade needs the raw writer
	r.Use(customMiddleware.RequestID)
	r.Use(chimw.RealIP)

	r.With(customMiddleware.WebSocketTraceMiddleware(a.Logger)).
		Handle("/ws", ws.NewHandler(a.WebSocketHub, a.Config.WebSocket, a.Config.Security.AllowedOrigins, a.Logger))

	// Scrapes stay out of the request metrics they report
	r.Handle("/metrics", handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP, eh))

	otelMiddleware, err := customMiddleware.NewOTelMiddleware(a.OTelProviders, a.Metrics)
	if err != nil {
		return err
	}

	r.Group(func(r chi.Router) {
		// RequestID → RealIP → OTel → Logger → Recoverer → headers → CORS → rate limit
		r.Use(otelMiddleware.Handler)
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(apierrors.RecoveryMiddleware(eh))

		secure := customMiddleware.DefaultSecureHeaders()
		secure.DevMode = a.isDevelopmentMode()
		r.Use(secure.Handler)

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

		r.NotFound(eh.NotFound)
		r.MethodNotAllowed(eh.MethodNotAllowed)

		a.setupAPIRoutes(r)
		a.setupHTMLRoutes(r)
	})

	a.Router = r
	return nil
}

// setupAPIRoutes configures API endpoints
func (a *Application) setupAPIRoutes(r chi.Router) {
	eh := a.ErrorHandler

	healthHandler := handlers.NewHealthHandler(a.Health, a.Logger)
	datasetsHandler := handlers.NewDatasetsHandler(a.Explorer, a.Logger, eh)
	aggregateHandler := handlers.NewAggregateHandler(a.Explorer, a.Exporter, a.Logger, eh)
	validation := customMiddleware.NewValidationMiddleware(a.Logger, eh, customMiddleware.DefaultMaxBodySize)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		r.Mount("/health", healthHandler.Routes())
		r.Get("/version", healthHandler.Version)

		r.Get("/datasets", datasetsHandler.ListDatasets)
		r.Mount("/elections", handlers.NewElectionHandler(a.Explorer, a.Logger, eh).Routes())
		r.Mount("/ev", handlers.NewEVHandler(a.Explorer, a.Logger, eh).Routes())
		r.Mount("/border", handlers.NewBorderHandler(a.Explorer, a.Logger, eh).Routes())
		r.Get("/export/{dataset}", aggregateHandler.Download)

		// Requests with bodies or side effects
		r.Group(func(r chi.Router) {
			r.Use(customMiddleware.AuditLog(a.Logger))
			r.Use(apierrors.NewErrorMiddleware(eh, a.Logger).Handler)
			r.Use(customMiddleware.ContentTypeValidator(eh, "application/json"))
			r.Use(validation.ValidateRequest)

			r.Post("/datasets/{key}/reload", datasetsHandler.ReloadDataset)
			r.Post("/aggregate", aggregateHandler.Aggregate)
			r.Post("/export", aggregateHandler.Export)
			r.Post("/logs", handlers.NewClientLogHandler(a.Logger, eh).Handle)
		})
	})
}

// setupHTMLRoutes serves the web client
func (a *Application) setupHTMLRoutes(r chi.Router) {
	r.Get("/", handlers.ServeMainApp(a.Paths.WebDir))
	r.With(chimw.Compress(5), chimw.SetHeader("Cache-Control", "public, max-age=86400")).
		Handle("/static/*", handlers.StaticFiles(a.Paths.WebDir))
}

func (a *Application) getCORSConfig() customMiddleware.CORSConfig {
	cfg := customMiddleware.CORSConfig{
		AllowedOrigins: a.Config.Security.AllowedOrigins,
		MaxAge:         300,
		Logger:         a.Logger,
	}
	if a.isDevelopmentMode() {
		cfg.AllowedOrigins = append([]string{
			"http://localhost:3000",
			"http://127.0.0.1:3000",
		}, cfg.AllowedOrigins...)
	}
	a.Logger.Info("CORS configured", slog.Any("allowed_origins", cfg.AllowedOrigins))
	return cfg
}

func (a *Application) isDevelopmentMode() bool {
	return a.Config.Telemetry.Environment == "development"
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:           a.Config.Server.Addr(),
		Handler:        a.Router,
		ReadTimeout:    a.Config.Server.ReadTimeout,
		WriteTimeout:   a.Config.Server.WriteTimeout,
		IdleTimeout:    a.Config.Server.IdleTimeout,
		MaxHeaderBytes: a.Config.Server.MaxHeaderBytes,
	}
}

// Start starts the hub and the HTTP server. A listen failure cancels ctx
// through cancel and is returned by Run.
func (a *Application) Start(ctx context.Context, cancel context.CancelFunc) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", contracts.Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	a.WebSocketHub.Start()

	if a.Config.Datasets.WarmOnStart {
		go func() {
			if err := a.Cache.Warm(ctx); err != nil {
				a.Logger.WarnContext(ctx, "Dataset warm-up incomplete", slog.String("error", err.Error()))
			}
		}()
	}

	go func() {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.Logger.ErrorContext(ctx, "Server error", slog.String("error", err.Error()))
			a.serveErr <- err
			cancel()
		}
	}()

	a.Logger.InfoContext(ctx, "Application started successfully",
		slog.String("address", fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)))
	return nil
}

// Stop gracefully stops the application
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}

	a.WebSocketHub.Stop()

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry", slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return nil
}

// Run runs the application until ctx is done, an interrupt arrives or the
// server fails
func (a *Application) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx, cancel); err != nil {
		return err
	}

	<-ctx.Done()

	var serveErr error
	select {
	case serveErr = <-a.serveErr:
	default:
		a.Logger.Info("Received shutdown signal")
	}

	if err := a.Stop(context.Background()); err != nil {
		return errors.Join(serveErr, err)
	}
	return serveErr
}
