package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/smtp"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	httpapi "github.com/quokkalabs/passage/internal/http"
	"github.com/quokkalabs/passage/internal/notify"
	"github.com/quokkalabs/passage/internal/service"
	"github.com/quokkalabs/passage/internal/store"
	"github.com/quokkalabs/passage/internal/store/drivers/sqlite"
	"github.com/quokkalabs/passage/pkg/cryptox"
	"github.com/quokkalabs/passage/pkg/jwtx"
	"github.com/quokkalabs/passage/pkg/slogx"
)

// BuildVersion is stamped at build time:
//
//	go build -ldflags "-X github.com/quokkalabs/passage/internal/app.BuildVersion=v1.2.3"
var BuildVersion = "dev"

// Application wires the whole service together: store, codec, services,
// and the HTTP server.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db    store.Store
	codec *jwtx.Codec

	accountService      *service.AccountService
	sessionService      *service.SessionService
	ticketService       *service.TicketService
	refreshService      *service.RefreshService
	mfaService          *service.MFAService
	housekeepingService *service.HousekeepingService

	server *http.Server
	router *httpapi.Router
}

// New creates an Application with all dependencies initialized.
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "passage",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	// Pepper for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	codec, err := InitCodec(app.cfg, app.logger)
	if err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.codec = codec

	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	app.housekeepingService.Start()

	app.logger.Info("passage starting", "addr", app.cfg.ListenAddr, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

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

// Shutdown gracefully stops the server, housekeeping, and the store.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down passage...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	app.housekeepingService.Stop()

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("passage stopped")
	return nil
}

// initDatabase opens the store and applies migrations.
func (app *Application) initDatabase() error {
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(dsn)
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

// initServices initializes all business logic services.
func (app *Application) initServices() {
	mailer := app.buildMailer()
	sms := &notify.LogSMS{Logger: app.logger}

	app.refreshService = &service.RefreshService{
		Store:      app.db,
		RefreshTTL: app.cfg.RefreshTokenTTL,
	}

	app.sessionService = &service.SessionService{
		Codec:   app.codec,
		Refresh: app.refreshService,
		Claims: service.ClaimsOptions{
			DefaultRole:   app.cfg.DefaultRole,
			AnonymousRole: app.cfg.AnonymousRole,
			CustomFields:  app.cfg.CustomFields,
		},
	}

	app.ticketService = &service.TicketService{
		Store:               app.db,
		Mail:                mailer,
		TicketTTL:           app.cfg.TicketTTL,
		LostPasswordEnabled: app.cfg.LostPasswordEnabled,
	}

	app.mfaService = &service.MFAService{
		Store:         app.db,
		SMS:           sms,
		Tickets:       app.ticketService,
		Sessions:      app.sessionService,
		Issuer:        app.cfg.Issuer,
		TicketTTL:     app.cfg.TicketTTL,
		MFAEnabled:    app.cfg.MFAEnabled,
		SMSMFAEnabled: app.cfg.SMSMFAEnabled,
	}

	app.accountService = &service.AccountService{
		Store:         app.db,
		Sessions:      app.sessionService,
		Tickets:       app.ticketService,
		MFA:           app.mfaService,
		Refresh:       app.refreshService,
		Mail:          mailer,
		DefaultRole:   app.cfg.DefaultRole,
		VerifyEmails:  app.cfg.VerifyEmails,
		AllowDeletion: app.cfg.AllowDeletion,
		TicketTTL:     app.cfg.TicketTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingEvery,
	)
}

// buildMailer picks SMTP when configured, otherwise the log transport.
func (app *Application) buildMailer() notify.Mailer {
	if app.cfg.SMTPAddr == "" {
		app.logger.Info("no SMTP_ADDR configured, mail goes to the log")
		return &notify.LogMailer{Logger: app.logger}
	}

	var auth smtp.Auth
	if app.cfg.SMTPUser != "" {
		host := app.cfg.SMTPAddr
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		auth = smtp.PlainAuth("", app.cfg.SMTPUser, app.cfg.SMTPPassword, host)
	}

	return &notify.SMTPMailer{
		Addr: app.cfg.SMTPAddr,
		From: app.cfg.SMTPFrom,
		Auth: auth,
	}
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		app.codec,
		BuildVersion,
		app.db,
		httpapi.CookieConfig{
			Domain:     app.cfg.CookieDomain,
			Secure:     app.cfg.CookieSecure,
			RefreshTTL: app.cfg.RefreshTokenTTL,
		},
		app.logger,
	)

	router.AccountService = app.accountService
	router.SessionService = app.sessionService
	router.TicketService = app.ticketService
	router.RefreshService = app.refreshService
	router.MFAService = app.mfaService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              app.cfg.ListenAddr,
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
