package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"workshop-scheduler/config"
	deliveryHttp "workshop-scheduler/internal/delivery/http"
	"workshop-scheduler/internal/delivery/http/handler"
	"workshop-scheduler/internal/delivery/http/middleware"
	"workshop-scheduler/internal/infrastructure/cache"
	"workshop-scheduler/internal/infrastructure/database"
	"workshop-scheduler/internal/infrastructure/messaging"
	"workshop-scheduler/internal/infrastructure/telemetry"
	"workshop-scheduler/internal/repository"
	"workshop-scheduler/internal/service"
	"workshop-scheduler/internal/usecase"
	"workshop-scheduler/internal/worker"
	"workshop-scheduler/pkg/jwt"
	"workshop-scheduler/pkg/validator"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Publisher   service.EventPublisher
	Locker      *service.LockService
	RateLimiter *middleware.RateLimitMiddleware
	Server      *http.Server

	shutdownTracer telemetry.ShutdownFunc
}

// LoadConfig loads configuration and the logger it configures. Commands that
// need no connections (migrate) stop here.
func LoadConfig() (*config.Config, *logrus.Logger, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	log := setupLogger(cfg.App.LogLevel)
	log.Info("Configuration loaded successfully")
	return cfg, log, nil
}

// New creates a new App instance with all dependencies initialized
func New() (*App, error) {
	cfg, log, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	app := &App{Config: cfg, Log: log}

	// Initialize tracing
	shutdownTracer, err := telemetry.InitTracer(cfg.Telemetry, cfg.App.Env, log)
	if err != nil {
		return nil, fmt.Errorf("failed to init tracing: %w", err)
	}
	app.shutdownTracer = shutdownTracer

	// Initialize database
	db, err := database.NewPostgresConnection(cfg.DB, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(cfg.Redis, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient

	// Initialize event publisher
	publisher, err := messaging.NewEventPublisher(cfg.Broker, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	app.Publisher = publisher

	app.Locker = service.NewLockService(redisClient, log, cfg.Lock)

	return app, nil
}

// setupLogger configures the logrus logger
func setupLogger(level string) *logrus.Logger {
	log := logrus.StandardLogger()
	log.SetFormatter(&logrus.JSONFormatter{})
	log.SetOutput(os.Stdout)

	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		parsed = logrus.InfoLevel
	}
	log.SetLevel(parsed)
	return log
}

// initializeServer creates and configures the HTTP server
func (app *App) initializeServer() *http.Server {
	cfg, log, db := app.Config, app.Log, app.DB
	loc := cfg.App.Location()

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	transactor := repository.NewTransactor(db)
	bookingRepo := repository.NewBookingRepository()
	userRepo := repository.NewUserRepository()
	technicianRepo := repository.NewTechnicianRepository()
	auditLogRepo := repository.NewAuditLogRepository()

	// Initialize services
	conflictDetector := service.NewConflictDetector(bookingRepo)
	assignmentPolicy := service.NewAssignmentPolicy(log, technicianRepo, bookingRepo, conflictDetector)
	auditService := service.NewAuditService(log, auditLogRepo)

	// Initialize usecases
	bookingUsecase := usecase.NewBookingUsecase(transactor, log, bookingRepo, userRepo, technicianRepo,
		conflictDetector, assignmentPolicy, auditService, app.Locker, app.Publisher, loc)
	bookingQueryUsecase := usecase.NewBookingQueryUsecase(transactor, log, bookingRepo, technicianRepo, loc)
	timeSlotUsecase := usecase.NewTimeSlotUsecase(transactor, log, bookingRepo, loc)
	technicianUsecase := usecase.NewTechnicianUsecase(transactor, log, technicianRepo, bookingRepo, conflictDetector, loc)
	reportUsecase := usecase.NewReportUsecase(transactor, log, bookingRepo, loc)
	auditLogUsecase := usecase.NewAuditLogUsecase(transactor, log, auditLogRepo)
	sessionUsecase := usecase.NewSessionUsecase(transactor, log, userRepo, app.RedisClient, jwtService.GetAccessExpiry())

	// Initialize handlers
	bookingHandler := handler.NewBookingHandler(bookingUsecase, bookingQueryUsecase, customValidator)
	timeSlotHandler := handler.NewTimeSlotHandler(timeSlotUsecase)
	technicianHandler := handler.NewTechnicianHandler(technicianUsecase, bookingQueryUsecase)
	reportHandler := handler.NewReportHandler(reportUsecase, loc)
	auditLogHandler := handler.NewAuditLogHandler(auditLogUsecase)
	sessionHandler := handler.NewSessionHandler(sessionUsecase)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, app.RedisClient, log)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.AllowedOrigins)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimit, log)
	app.RateLimiter = rateLimitMiddleware

	// Initialize router
	router := deliveryHttp.NewRouter(
		bookingHandler, timeSlotHandler, technicianHandler, reportHandler, auditLogHandler, sessionHandler,
		authMiddleware, corsMiddleware, rateLimitMiddleware,
	)
	httpRouter := router.Setup()

	// Create server
	serverAddr := fmt.Sprintf(":%s", cfg.App.Port)
	return &http.Server{
		Addr:              serverAddr,
		Handler:           httpRouter,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      30 * time.Second,
	}
}

// Run starts the HTTP server and handles graceful shutdown
func (app *App) Run() {
	app.Server = app.initializeServer()

	// Start server in goroutine
	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			app.Log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	app.waitForShutdown()
}

// RunWorker runs the background worker until SIGINT/SIGTERM.
func (app *App) RunWorker() error {
	cfg, log := app.Config, app.Log

	overdueUsecase := usecase.NewOverdueUsecase(repository.NewTransactor(app.DB), log, repository.NewBookingRepository(), app.Publisher)
	mux := worker.NewServeMux(worker.NewOverdueSweepHandler(overdueUsecase, log))

	redisOpt := asynq.RedisClientOpt{
		Addr:     cache.Addr(cfg.Redis),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	w := worker.NewWorker(redisOpt, cfg.Worker, mux, log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := w.Run(ctx)
	app.Close()
	return err
}

// waitForShutdown blocks until an interrupt signal is received
func (app *App) waitForShutdown() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	app.Log.Info("Shutting down server...")

	// Create shutdown context with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Shutdown HTTP server gracefully
	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	// Close connections
	app.Close()

	app.Log.Info("Server shutdown complete")
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	if app.RateLimiter != nil {
		app.RateLimiter.Stop()
	}

	if app.Locker != nil {
		app.Locker.Stop()
	}

	if app.Publisher != nil {
		if err := app.Publisher.Close(); err != nil {
			app.Log.Warnf("Failed to close event publisher: %+v", err)
		}
	}

	// Close database connection
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	// Close Redis connection
	if app.RedisClient != nil {
		app.RedisClient.Close()
	}

	if app.shutdownTracer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := app.shutdownTracer(ctx); err != nil {
			app.Log.Warnf("Failed to flush traces: %+v", err)
		}
	}
}

// Migrate runs database migrations in the given direction.
func Migrate(direction string, steps int) error {
	cfg, log, err := LoadConfig()
	if err != nil {
		return err
	}

	switch direction {
	case "up":
		return database.MigrateUp(cfg.DB, log)
	case "down":
		return database.MigrateDown(cfg.DB, steps, log)
	default:
		return fmt.Errorf("unknown migration direction %q", direction)
	}
}
