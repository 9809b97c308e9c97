package app

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/twineproject/twine/internal/auth/http"
	"github.com/twineproject/twine/internal/auth/service"
	"github.com/twineproject/twine/internal/auth/store"
	"github.com/twineproject/twine/internal/auth/store/drivers/sqlite"
	"github.com/twineproject/twine/pkg/cryptox"
	"github.com/twineproject/twine/pkg/jwtx"
	"github.com/twineproject/twine/pkg/mailx"
	"github.com/twineproject/twine/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the auth service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	signer   jwtx.Signer
	keys     *jwtx.KeySet
	verifier jwtx.Verifier
	hasher   *cryptox.Hasher
	mailer   mailx.Sender

	// Services
	registrationService *service.RegistrationService
	userService         *service.UserService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "auth-service",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Pepper for password hashing; created on first run.
	pepper, err := cryptox.LoadOrCreatePepper(cfg.PepperFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load pepper: %w", err)
	}
	app.hasher = cryptox.NewHasher(pepper)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	signer, keys, verifier, err := InitAuthKeys(app.cfg, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT keys: %w", err)
	}
	app.signer = signer
	app.keys = keys
	app.verifier = verifier

	app.initMailer()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initMailer selects the outbound mail transport. The log driver exists
// for development and e2e tests, where the emitted log line is the inbox.
func (app *Application) initMailer() {
	switch app.cfg.MailDriver {
	case "log":
		app.mailer = mailx.NewLogSender()
		app.logger.Info("mail transport configured", "driver", "log")
	default:
		app.mailer = mailx.NewSMTPSender(
			app.cfg.SMTPHost,
			app.cfg.SMTPPort,
			app.cfg.SMTPUsername,
			app.cfg.SMTPPassword,
			app.cfg.MailFrom,
		)
		app.logger.Info("mail transport configured",
			"driver", "smtp",
			"host", app.cfg.SMTPHost,
			"port", app.cfg.SMTPPort,
		)
	}
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	tokenService := &service.TokenService{
		Signer:    app.signer,
		Issuer:    app.cfg.Issuer,
		AccessTTL: app.cfg.AccessTTL,
	}

	otpService := &service.OtpService{
		Store:      app.db,
		Notify:     &service.NotifyService{Mailer: app.mailer},
		CodeLength: app.cfg.OtpLength,
		Validity:   app.cfg.OtpValidity,
		Rand:       rand.Reader,
	}

	app.registrationService = &service.RegistrationService{
		Store:  app.db,
		Otp:    otpService,
		Token:  tokenService,
		Hasher: app.hasher,
		Strategies: []service.CredentialStrategy{
			&service.EmailPasswordStrategy{Store: app.db, Hasher: app.hasher},
		},
	}

	app.userService = &service.UserService{Store: app.db}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.keys,
		app.verifier,
		app.cfg.Issuer,
		BuildVersion,
		app.db,
		app.logger,
	)

	// Wire services to router
	router.RegistrationService = app.registrationService
	router.UserService = app.userService
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
