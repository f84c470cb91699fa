// Package server initializes and runs the giftdesk server: it opens the
// database, applies migrations, serves the HTTP API and periodically purges
// expired sessions until a shutdown signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/giftdesk/internal/logging"
	"github.com/dmitrijs2005/giftdesk/internal/server/auth"
	"github.com/dmitrijs2005/giftdesk/internal/server/config"
	"github.com/dmitrijs2005/giftdesk/internal/server/httpapi"
	"github.com/dmitrijs2005/giftdesk/internal/server/lockout"
	"github.com/dmitrijs2005/giftdesk/internal/server/mailer"
	"github.com/dmitrijs2005/giftdesk/internal/server/metrics"
	"github.com/dmitrijs2005/giftdesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/giftdesk/internal/server/services"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	metrics     *metrics.Metrics
	auth        *services.AuthService
	admin       *services.EmployeeAdminService
}

// openDB is a seam for tests.
var openDB = repomanager.OpenPostgres

// NewApp connects to the database and assembles the services. Codes are
// delivered through out.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger, out io.Writer) (*App, error) {
	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	return newApp(c, logger, db, repomanager.NewPostgresRepositoryManager(), mailer.NewWriterMailer(out)), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, rm repomanager.RepositoryManager, mail mailer.Mailer) *App {
	m := metrics.New()

	creds := services.NewCredentialService(db, rm, PolicyFromConfig(c), auth.OTP{Period: c.OTPCodeTTL}, mail)
	sessions := services.NewSessionService(db, rm, c.SessionTTL)

	return &App{
		config:      c,
		logger:      logger,
		db:          db,
		repomanager: rm,
		metrics:     m,
		auth:        services.NewAuthService(creds, sessions, m, logger.With("module", "auth")),
		admin:       services.NewEmployeeAdminService(db, rm),
	}
}

// PolicyFromConfig builds the lockout policy for the configured mode.
func PolicyFromConfig(c *config.Config) lockout.Policy {
	mode := lockout.ModePermanent
	if c.LockoutPolicy == config.LockoutTimed {
		mode = lockout.ModeTimed
	}
	return lockout.Policy{Threshold: c.MaxVerifyAttempts, Mode: mode, Duration: c.LockoutDuration}
}

func (app *App) Admin() *services.EmployeeAdminService {
	return app.admin
}

func (app *App) Migrate(ctx context.Context) error {
	if err := app.repomanager.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (app *App) Close() error {
	return app.db.Close()
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) error {
	s := httpapi.NewServer(app.config.EndpointAddr, app.logger, app.auth, app.metrics, httpapi.Options{
		RateLimitRPS:    app.config.RateLimitRPS,
		RateLimitBurst:  app.config.RateLimitBurst,
		ShutdownTimeout: app.config.ShutdownTimeout,
	})

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, "http server failed", "error", err)
		cancelFunc()
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

// runPurgeLoop calls purge every interval until ctx is done.
func runPurgeLoop(ctx context.Context, interval time.Duration, purge func(context.Context) (int64, error), logger logging.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := purge(ctx)
			if err != nil {
				logger.Error(ctx, "purge expired sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Info(ctx, "purged expired sessions", "count", n)
			}
		}
	}
}

// Run migrates the schema and serves until a signal arrives or the HTTP
// server fails.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.Migrate(ctx); err != nil {
		return err
	}

	app.initSignalHandler(cancelFunc)

	var (
		wg       sync.WaitGroup
		serveErr error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		serveErr = app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		runPurgeLoop(ctx, app.config.PurgeInterval, app.auth.PurgeExpired, app.logger.With("module", "purge"))
	}()

	wg.Wait()
	app.logger.Info(context.Background(), "App stopped")
	return serveErr
}
