package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"moviereview/app/config"
	"moviereview/app/metrics"
	"moviereview/app/program"
	"moviereview/app/repositories"
	"moviereview/app/routes"
	"moviereview/app/runtime"

	"github.com/sirupsen/logrus"
)

// App is a running ledger node: storage, runtime, program and HTTP API.
type App struct {
	cfg        *config.Config
	log        *logrus.Logger
	repo       *repositories.Repository
	runtime    *runtime.Runtime
	processor  *program.Processor
	httpServer *http.Server
}

// NewApp opens the ledger described by cfg and wires every component.
func NewApp(cfg *config.Config, log *logrus.Logger) (*App, error) {
	repo, err := openRepository(cfg)
	if err != nil {
		return nil, fmt.Errorf("open ledger: %w", err)
	}
	rt, err := runtime.New(repo,
		runtime.WithLogger(log),
		runtime.WithHashWindow(cfg.HashWindow),
		runtime.WithAirdropLimit(cfg.AirdropLimit),
	)
	if err != nil {
		repo.Close()
		return nil, err
	}
	programID := cfg.ProgramKey()
	processor := program.Register(rt, programID, program.WithObserver(metrics.Instructions{}))
	router := routes.SetupRoutes(rt, processor, programID, log)

	return &App{
		cfg:       cfg,
		log:       log,
		repo:      repo,
		runtime:   rt,
		processor: processor,
		httpServer: &http.Server{
			Addr:         cfg.Addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}, nil
}

func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run serves the API until ctx is cancelled, then shuts down.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.log.WithFields(logrus.Fields{
			"addr":      a.cfg.Addr,
			"programId": a.cfg.ProgramID,
		}).Info("ledger API listening")
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			a.repo.Close()
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		a.log.Info("shutting down ledger node")
	}
	return a.Shutdown()
}

// Shutdown stops the HTTP server and closes the ledger.
func (a *App) Shutdown() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var errs []error
	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := a.repo.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close ledger: %w", err))
	}
	return errors.Join(errs...)
}

// RunAppServer runs the ledger node until SIGINT or SIGTERM.
func RunAppServer(cfg *config.Config) error {
	log := cfg.Logger()
	log.WithField("environment", cfg.Environment).Info("starting ledger node")

	app, err := NewApp(cfg, log)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("run application: %w", err)
	}
	log.Info("ledger node stopped")
	return nil
}

func openRepository(cfg *config.Config) (*repositories.Repository, error) {
	if cfg.InMemory {
		return repositories.NewInMemoryRepository()
	}
	return repositories.NewRepository(cfg.DBPath)
}
