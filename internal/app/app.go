package app

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"time"

	"registry-service/internal/auth"
	"registry-service/internal/config"
	"registry-service/internal/db"
	"registry-service/internal/health"
	"registry-service/internal/importer"
	"registry-service/internal/logger"
	"registry-service/internal/messaging"
	"registry-service/internal/metrics"
	"registry-service/internal/middleware"
	"registry-service/internal/schema"
	"registry-service/internal/student"
	"registry-service/internal/workstatus"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel"
)

type App struct {
	config   *config.Config
	router   chi.Router
	server   *http.Server
	database *bun.DB
	producer *messaging.Producer
	logger   *slog.Logger
}

func New() *App {
	slogLogger := logger.NewWithServiceContext(ServiceName, Version)

	// Set as default logger so slog.Info() uses the same handler stack
	slog.SetDefault(slogLogger)

	slogLogger.Info("initializing application")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	slogLogger.Info("config loaded", "env", cfg.Env)

	app := &App{
		config: cfg,
		router: chi.NewRouter(),
		logger: slogLogger,
	}

	database, err := db.New(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	app.database = database

	m, err := metrics.New(otel.Meter(ServiceName))
	if err != nil {
		slogLogger.Warn("failed to initialize metrics", "error", err)
		m = metrics.NewMock()
	}

	ctx := context.Background()
	if err := db.RunMigrations(ctx, database,
		(*schema.ColumnDefinition)(nil),
		(*workstatus.WorkItem)(nil),
		(*auth.AdminUser)(nil),
	); err != nil {
		log.Fatal("failed to run migrations:", err)
	}

	studentRepo := student.NewRepository(database)
	if err := studentRepo.EnsureSchema(ctx); err != nil {
		log.Fatal("failed to ensure students table:", err)
	}

	schemaRepo := schema.NewRepository(database, m)
	if err := schemaRepo.ReconcileStudentColumns(ctx); err != nil {
		log.Fatal("failed to reconcile dynamic columns:", err)
	}

	app.router.Use(middleware.CORS(cfg.Server.CORSOrigins))
	app.router.Use(middleware.Timeout(cfg.Server.RequestTimeout()))

	// Health endpoints (no auth required)
	healthHandler := health.NewHandler()
	healthHandler.RegisterRoutes(app.router)

	schemaService := schema.NewService(schemaRepo)
	schemaHandler := schema.NewHandler(schemaService, slogLogger, m)

	studentService := student.NewService(studentRepo, schemaService)
	studentHandler := student.NewHandler(studentService, slogLogger, m)

	// NATS producer is optional: imports still work without a broker
	var producer *messaging.Producer
	if cfg.NATS.URL != "" {
		producer, err = messaging.NewProducer(cfg.NATS.URL, cfg.NATS.Subject, slogLogger)
		if err != nil {
			slogLogger.Warn("failed to initialize NATS producer", "error", err)
			producer = nil
		}
	}
	app.producer = producer

	var publisher importer.EventPublisher
	if producer != nil {
		publisher = producer
	}
	importerService := importer.NewService(schemaService, studentService, publisher, slogLogger)
	importerHandler := importer.NewHandler(importerService, cfg.Upload.Limit(), slogLogger, m)

	workRepo := workstatus.NewRepository(database)
	workService := workstatus.NewService(workRepo)
	workHandler := workstatus.NewHandler(workService, slogLogger, m)

	// Auth is enforced on /api only when a JWT secret is configured
	var authMiddleware func(http.Handler) http.Handler
	if cfg.Auth.Enabled() {
		authRepo := auth.NewRepository(database)
		authService := auth.NewService(authRepo, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL(), slogLogger)
		if err := authService.EnsureAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
			log.Fatal("failed to seed admin user:", err)
		}
		authHandler := auth.NewHandler(authService, cfg.Auth.TokenTTL(), slogLogger)
		authHandler.RegisterRoutes(app.router)
		authMiddleware = auth.Middleware(cfg.Auth.JWTSecret, slogLogger)
		slogLogger.Info("admin auth enabled")
	}

	app.router.Route("/api", func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		schemaHandler.RegisterRoutes(r)
		studentHandler.RegisterRoutes(r)
		importerHandler.RegisterRoutes(r)
		workHandler.RegisterRoutes(r)
	})

	slogLogger.Info("application initialized successfully")

	return app
}

func (a *App) Run() error {
	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", a.config.Server.Port),
		Handler:      a.router,
		ReadTimeout:  time.Duration(a.config.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(a.config.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(a.config.Server.IdleTimeout) * time.Second,
	}

	a.logger.Info("server starting", "port", a.config.Server.Port)
	return a.server.ListenAndServe()
}

func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down server")

	if a.producer != nil {
		a.producer.Close()
	}

	err := a.server.Shutdown(ctx)
	db.Close(a.database)
	return err
}
