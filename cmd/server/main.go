package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	h "github.com/gorilla/handlers"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog"
	"github.com/stanstork/rapidaid-api/internal/authz"
	"github.com/stanstork/rapidaid-api/internal/config"
	"github.com/stanstork/rapidaid-api/internal/handlers"
	"github.com/stanstork/rapidaid-api/internal/metrics"
	"github.com/stanstork/rapidaid-api/internal/middleware"
	"github.com/stanstork/rapidaid-api/internal/migration"
	"github.com/stanstork/rapidaid-api/internal/notification"
	"github.com/stanstork/rapidaid-api/internal/repository"
	"github.com/stanstork/rapidaid-api/internal/routes"
	"github.com/stanstork/rapidaid-api/internal/service"

	_ "github.com/lib/pq" // PostgreSQL driver
)

type application struct {
	config     *config.Config
	db         *sqlx.DB
	dispatcher *notification.Dispatcher
	logger     zerolog.Logger
}

func main() {
	// Load configuration.
	cfg := config.Load()

	// Set up structured, level-based logging.
	logger := newLogger(cfg.Log)
	log.SetFlags(0)
	log.SetOutput(logger)

	metrics.Init()

	// Initialize database connection.
	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to the database")
	}
	defer db.Close()

	// Run database migrations.
	if err := migration.RunMigrations(db.DB, logger); err != nil {
		logger.Fatal().Err(err).Msg("Failed to run migrations")
	}

	app := &application{
		config:     cfg,
		db:         db,
		dispatcher: newDispatcher(cfg.Notification, logger),
		logger:     logger,
	}

	// Initialize the HTTP router and middleware.
	router := app.initRouter()
	loggedRouter := middleware.LoggingMiddleware(app.logger)(router)
	corsHandler := h.CORS(
		h.AllowedOrigins(cfg.AllowedOrigins),
		h.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		h.AllowedHeaders([]string{"Content-Type", "Authorization"}),
		h.AllowCredentials(),
	)(loggedRouter)

	// Start the HTTP server and handle graceful shutdown.
	app.startServer(corsHandler)

	logger.Info().Msg("Application terminated.")
}

func newLogger(cfg config.LogConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		return zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
	consoleWriter := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
	return zerolog.New(consoleWriter).With().Timestamp().Logger()
}

// newDispatcher builds both channels independently; a channel that cannot be
// used is kept as Unavailable so every dispatch reports it.
func newDispatcher(cfg config.NotificationConfig, logger zerolog.Logger) *notification.Dispatcher {
	ctx := context.Background()
	capabilities := []notification.Capability{
		notification.NewSMSCapability(ctx, cfg.SMS, cfg.SendTimeout, logger),
		notification.NewEmailCapability(ctx, cfg.Email, cfg.SendTimeout, logger),
	}
	if len(cfg.Recipients) == 0 {
		logger.Warn().Msg("notification.recipients is empty; alerts will not notify anyone")
	}
	return notification.NewDispatcher(cfg.Recipients, capabilities, logger,
		notification.WithSendTimeout(cfg.SendTimeout),
		notification.WithConcurrency(cfg.Concurrency),
	)
}

// initRouter sets up all HTTP handlers and returns the router.
func (app *application) initRouter() http.Handler {
	// Repositories
	userRepo := repository.NewUserRepository(app.db)
	alertRepo := repository.NewAlertRepository(app.db)
	sosRepo := repository.NewSOSRepository(app.db)
	campRepo := repository.NewBaseCampRepository(app.db)
	donationRepo := repository.NewDonationRepository(app.db)

	// Services
	alertService := service.NewAlertService(alertRepo, userRepo, app.dispatcher, app.logger)
	sosService := service.NewSOSService(sosRepo, app.logger)
	campService := service.NewBaseCampService(campRepo, donationRepo, userRepo, app.logger)
	donationService := service.NewDonationService(donationRepo, campRepo, app.logger)

	tokens := authz.NewTokenManager(app.config.JWTSecret, app.config.TokenTTL)

	return routes.NewRouter(routes.Handlers{
		Health:    handlers.HealthCheck(app.db),
		Auth:      handlers.NewAuthHandler(userRepo, tokens, app.logger),
		Alerts:    handlers.NewAlertHandler(alertService, app.logger),
		SOS:       handlers.NewSOSHandler(sosService, app.logger),
		BaseCamps: handlers.NewBaseCampHandler(campService, app.logger),
		Donations: handlers.NewDonationHandler(donationService, app.logger),
	})
}

// startServer launches the HTTP server and handles graceful shutdown.
func (app *application) startServer(handler http.Handler) {
	server := &http.Server{
		Addr:              ":" + app.config.ServerPort,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for server errors
	serverErrCh := make(chan error, 1)
	go func() {
		app.logger.Info().Msgf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrCh <- err
		}
	}()

	// Wait for an interrupt signal or a server error.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-quit:
		app.logger.Info().Msgf("Received signal: %s. Shutting down...", sig)
	case err := <-serverErrCh:
		app.logger.Error().Err(err).Msg("Server error occurred")
	}

	// Gracefully shut down the HTTP server.
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		app.logger.Error().Err(err).Msg("HTTP server shutdown error")
	} else {
		app.logger.Info().Msg("HTTP server shutdown complete.")
	}
}
