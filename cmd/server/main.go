package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/willemschots/emailauth/assets"
	"github.com/willemschots/emailauth/internal"
	"github.com/willemschots/emailauth/internal/auth"
	authdb "github.com/willemschots/emailauth/internal/auth/db"
	"github.com/willemschots/emailauth/internal/auth/pg"
	"github.com/willemschots/emailauth/internal/db"
	"github.com/willemschots/emailauth/internal/db/migrate"
	"github.com/willemschots/emailauth/internal/email"
	"github.com/willemschots/emailauth/internal/email/mailgun"
	"github.com/willemschots/emailauth/internal/email/smtp"
	"github.com/willemschots/emailauth/internal/email/view"
	"github.com/willemschots/emailauth/internal/metrics"
	"github.com/willemschots/emailauth/internal/web"
	"github.com/willemschots/emailauth/migrations"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	os.Exit(run(ctx, os.Stderr))
}

func run(ctx context.Context, w io.Writer) int {
	logger := slog.New(slog.NewTextHandler(w, nil))

	err := loadDotEnv(".env")
	if err != nil {
		logger.Error("failed to load .env file", "error", err)
		return 1
	}

	cfg, err := configFromEnv()
	if err != nil {
		logger.Error("failed to get config from environment", "error", err)
		return 1
	}

	accounts, closeStore, err := openStore(ctx, logger, cfg.db)
	if err != nil {
		logger.Error("failed to open store", "driver", cfg.db.driver, "error", err)
		return 1
	}
	defer closeStore()

	sender, err := newSender(logger, cfg.email)
	if err != nil {
		logger.Error("failed to create email sender", "transport", cfg.email.transport, "error", err)
		return 1
	}

	renderer, err := view.NewMemRenderer(assets.EmailFS, auth.VerifyEmailTemplate)
	if err != nil {
		logger.Error("failed to load email views", "error", err)
		return 1
	}

	emailSvc := email.NewService(renderer, sender, cfg.email.service)

	issuer, err := auth.NewCredentialIssuer(cfg.auth.jwtSecret)
	if err != nil {
		logger.Error("failed to create credential issuer", "error", err)
		return 1
	}

	m := metrics.New()

	authSvc, err := auth.NewService(accounts, emailSvc, issuer, func(err error) {
		logger.Error("error in auth service", "error", err)
		m.ObserveNotificationFailure()
	}, cfg.auth.service)
	if err != nil {
		logger.Error("failed to create auth service", "error", err)
		return 1
	}

	server := web.NewServer(&web.ServerDeps{
		Logger:      logger,
		AuthService: authSvc,
		Store:       accounts,
		Metrics:     m,
	}, cfg.http.server)

	srv := &http.Server{
		Addr:         cfg.http.addr,
		ReadTimeout:  cfg.http.readTimeout,
		WriteTimeout: cfg.http.writeTimeout,
		IdleTimeout:  cfg.http.idleTimeout,
		Handler:      server,
	}

	// We need to run two tasks concurrently:
	// - Listen and serving of the HTTP server.
	// - Waiting for a signal to stop the server.

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server",
			"addr", cfg.http.addr,
			"emailTransport", cfg.email.transport,
			"dbDriver", cfg.db.driver,
			"buildRevision", internal.BuildRevision,
			"buildRevisionTime", internal.BuildRevisionTime,
			"buildLocalModified", internal.BuildLocalModified,
		)
		// ListenAndServe always returns a non-nil error,
		// g will cancel gCtx when an error is returned, so
		// this will also stop the other goroutine.
		return srv.ListenAndServe()
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("stopping http server")

		shutCtx, cancel := context.WithTimeout(context.Background(), cfg.http.shutdownTimeout)
		defer cancel()

		return srv.Shutdown(shutCtx)
	})

	err = g.Wait()

	// No new registrations come in, let pending verification emails finish.
	logger.Info("waiting for auth workers")
	authSvc.Wait()

	if err != nil && err != http.ErrServerClosed {
		logger.Error("http server stopped with error", "error", err)
		return 1
	}

	logger.Info("http server stopped successfully")

	return 0
}

// store is implemented by both the SQLite and PostgreSQL stores.
type store interface {
	auth.Store
	web.Pinger
}

// openStore opens the store for the configured driver and migrates it
// when configured to do so. The returned func closes the store.
func openStore(ctx context.Context, logger *slog.Logger, cfg dbConfig) (store, func(), error) {
	switch cfg.driver {
	case driverSQLite:
		return openSQLite(ctx, logger, cfg)
	case driverPostgres:
		return openPostgres(ctx, logger, cfg)
	default:
		return nil, nil, fmt.Errorf("unknown database driver %q", cfg.driver)
	}
}

func openSQLite(ctx context.Context, logger *slog.Logger, cfg dbConfig) (store, func(), error) {
	writeDB, err := db.OpenSQLite(cfg.dsn, true)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open write database: %w", err)
	}

	readDB, err := db.OpenSQLite(cfg.dsn, false)
	if err != nil {
		_ = writeDB.Close()
		return nil, nil, fmt.Errorf("failed to open read database: %w", err)
	}

	closeFunc := func() {
		for _, d := range []interface{ Close() error }{readDB, writeDB} {
			if err := d.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}
	}

	if cfg.migrate {
		logger.Info("attempting to migrate database", "driver", cfg.driver)

		meta := migrate.Metadata{
			AppVersion: internal.Version(),
			Timestamp:  time.Now(),
		}

		ran, err := migrate.RunFS(ctx, writeDB, migrations.SQLite, meta)
		if err != nil {
			closeFunc()
			return nil, nil, fmt.Errorf("failed to migrate database: %w", err)
		}

		for _, m := range ran {
			logger.Info("migration ran", "sequence", m.Sequence, "filename", m.Filename)
		}
		logger.Info("database migrated", "count", len(ran))
	}

	return authdb.New(readDB, writeDB), closeFunc, nil
}

func openPostgres(ctx context.Context, logger *slog.Logger, cfg dbConfig) (store, func(), error) {
	pool, err := pg.Connect(ctx, cfg.dsn)
	if err != nil {
		return nil, nil, err
	}

	if cfg.migrate {
		logger.Info("attempting to migrate database", "driver", cfg.driver)

		err = pg.Migrate(ctx, pool)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}

		logger.Info("database migrated")
	}

	return pg.New(pool), pool.Close, nil
}

// newSender creates the email sender for the configured transport.
func newSender(logger *slog.Logger, cfg emailConfig) (email.Sender, error) {
	switch cfg.transport {
	case transportLog:
		return email.NewLogSender(logger), nil
	case transportSMTP:
		return smtp.NewSender(cfg.smtp)
	case transportMailgun:
		client := &http.Client{
			Timeout: 10 * time.Second,
		}
		return mailgun.NewSender(client, cfg.mailgun), nil
	default:
		return nil, fmt.Errorf("unknown email transport %q", cfg.transport)
	}
}
