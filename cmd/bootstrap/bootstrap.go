package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"health-record-vault/config"
	deliveryHttp "health-record-vault/internal/delivery/http"
	"health-record-vault/internal/delivery/http/handler"
	"health-record-vault/internal/delivery/http/middleware"
	"health-record-vault/internal/infrastructure/cache"
	"health-record-vault/internal/infrastructure/database"
	"health-record-vault/internal/infrastructure/metrics"
	"health-record-vault/internal/repository"
	"health-record-vault/internal/service"
	"health-record-vault/internal/usecase"
	"health-record-vault/pkg/jwt"
	"health-record-vault/pkg/validator"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

const (
	connectTimeout  = 30 * time.Second
	shutdownTimeout = 10 * time.Second
)

// App holds all dependencies for the application
type App struct {
	Config      *config.Config
	Log         *logrus.Logger
	DB          *gorm.DB
	RedisClient *redis.Client
	Server      *http.Server
}

// Options tune how New brings the application up.
type Options struct {
	ConfigFile string
	// MigrateOnStart applies pending migrations before serving.
	MigrateOnStart bool
}

// New creates a new App instance with all dependencies initialized
func New(opts Options) (*App, error) {
	app := &App{}

	// Load configuration
	cfg, err := config.LoadConfigFile(opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Config = cfg

	// Setup logger
	log := NewLogger(cfg.Log)
	app.Log = log
	log.Info("Configuration loaded successfully")

	if opts.MigrateOnStart {
		if err := database.MigrateUp(cfg.DB, log); err != nil {
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	// Initialize database
	db, err := database.NewPostgresConnection(ctx, cfg.DB, log, !cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	app.DB = db
	log.Info("Database connected successfully")

	// Initialize Redis
	redisClient, err := cache.NewRedisClient(ctx, cfg.Redis, log)
	if err != nil {
		app.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	app.RedisClient = redisClient
	log.Info("Redis connected successfully")

	// Initialize all layers
	app.Server = initializeServer(cfg, log, db, redisClient)

	return app, nil
}

// initializeServer creates and configures the HTTP server
func initializeServer(cfg *config.Config, log *logrus.Logger, db *gorm.DB, redisClient *redis.Client) *http.Server {
	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	recorder := metrics.New(registry)

	// Initialize JWT service
	jwtService := jwt.NewJWTService(cfg.JWT)

	// Initialize validator
	customValidator := validator.NewValidator()

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	recordRepo := repository.NewHealthRecordRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Initialize services
	auditService := service.NewAuditService(log, auditRepo)
	directory := service.NewIdentityDirectory(log, userRepo, recorder, cfg.PatientCode.Bytes)
	evaluator := service.NewAccessEvaluator(log, directory, recorder)
	ledger := service.NewSharingLedger(log, directory, recordRepo)
	limiter := service.NewRedisLookupLimiter(redisClient, log, recorder, cfg.PatientCode.LookupLimit, cfg.PatientCode.LookupWindow)
	tokenStore := service.NewRedisTokenStore(redisClient, log)

	// Initialize usecases
	authUsecase := usecase.NewAuthUsecase(log, userRepo, directory, auditService, jwtService, tokenStore)
	userUsecase := usecase.NewUserUsecase(log, userRepo, directory, limiter, auditService)
	recordUsecase := usecase.NewHealthRecordUsecase(log, recordRepo, directory, evaluator, ledger, auditService, recorder)

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authUsecase, customValidator, jwtService)
	userHandler := handler.NewUserHandler(userUsecase, customValidator)
	recordHandler := handler.NewHealthRecordHandler(recordUsecase, customValidator)

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(jwtService, tokenStore)
	corsMiddleware := middleware.NewCORSMiddleware(cfg.App.CORSAllowOrigin)

	// Initialize router
	router := deliveryHttp.NewRouter(
		authHandler,
		userHandler,
		recordHandler,
		authMiddleware,
		corsMiddleware,
		promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	)

	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.App.Port),
		Handler:           router.Setup(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Run starts the HTTP server and blocks until shutdown completes
func (app *App) Run() error {
	serverErr := make(chan error, 1)

	go func() {
		app.Log.Infof("Server starting on port %s", app.Config.App.Port)
		app.Log.Infof("Environment: %s", app.Config.App.Env)
		if err := app.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
		close(serverErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serverErr:
		app.Close()
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	app.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.Server.Shutdown(ctx); err != nil {
		app.Log.Errorf("Server forced to shutdown: %v", err)
	}

	app.Close()

	app.Log.Info("Server shutdown complete")
	return nil
}

// Close closes all connections (database, redis, etc.)
func (app *App) Close() {
	if app.DB != nil {
		sqlDB, err := app.DB.DB()
		if err == nil {
			sqlDB.Close()
		}
	}

	if app.RedisClient != nil {
		app.RedisClient.Close()
	}
}
