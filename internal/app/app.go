// Package app wires configuration, storage, media, metrics and the terminal
// transport together and runs them until the session ends or a signal
// arrives.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/notevault/internal/cli"
	"github.com/dmitrijs2005/notevault/internal/config"
	"github.com/dmitrijs2005/notevault/internal/conversation"
	"github.com/dmitrijs2005/notevault/internal/logging"
	"github.com/dmitrijs2005/notevault/internal/media"
	"github.com/dmitrijs2005/notevault/internal/metrics"
	"github.com/dmitrijs2005/notevault/internal/repositories/repomanager"
	"github.com/dmitrijs2005/notevault/internal/services"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	registry *prometheus.Registry
	metrics  *metrics.Metrics
	vault    *services.VaultService
	repl     *cli.REPL
}

// NewApp opens and migrates the database, sets up the media backend and
// builds the conversation for the terminal on in/out. Logs go to logOut.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out, logOut io.Writer) (*App, error) {
	logger, err := logging.New(c.LogBackend, c.LogLevel, logOut)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, rm, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	mr, err := newMediaRepository(ctx, c)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("media init error: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	met := metrics.New(reg)

	vault := services.NewVaultService(db, rm, mr, logger.With("module", "vault"), met, c)
	notifier := cli.NewTerminalNotifier(out, vault, c.ExportDir)
	machine := conversation.NewMachine(vault, notifier, logger.With("module", "conversation"), c.BatchSize)

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		registry: reg,
		metrics:  met,
		vault:    vault,
		repl:     cli.NewREPL(machine, c.ExternalID, in, out),
	}, nil
}

func newMediaRepository(ctx context.Context, c *config.Config) (media.Repository, error) {
	switch c.MediaBackend {
	case "", config.MediaBackendFS:
		r, err := media.NewFSRepository(c.MediaDir)
		if err != nil {
			return nil, err
		}
		return r, nil

	case config.MediaBackendS3:
		r, err := media.NewS3Repository(ctx, media.S3Config{
			Region:       c.S3Region,
			AccessKey:    c.S3RootUser,
			SecretKey:    c.S3RootPassword,
			BaseEndpoint: c.S3BaseEndpoint,
			Bucket:       c.S3Bucket,
			Prefix:       c.S3Prefix,
		})
		if err != nil {
			return nil, err
		}
		return r, nil

	default:
		return nil, fmt.Errorf("unknown media backend %q", c.MediaBackend)
	}
}

// Run blocks until the terminal session ends, SIGINT/SIGTERM arrives or the
// metrics server fails. The database is closed on return.
func (app *App) Run(ctx context.Context) error {
	defer app.close(ctx)

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		return app.repl.Run(ctx)
	})

	if app.config.MetricsAddr != "" {
		srv := &http.Server{
			Addr:              app.config.MetricsAddr,
			Handler:           metrics.Handler(app.registry),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			app.logger.Info(ctx, "Starting metrics server", "address", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-ctx.Done()
			app.logger.Info(ctx, "Stopping metrics server...")
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.config.ShutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}

func (app *App) close(ctx context.Context) {
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close failed", "err", err)
	}
	if s, ok := app.logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}
