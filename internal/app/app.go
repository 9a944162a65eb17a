// Package app runs one service of the fleet: an HTTP server plus optional
// background workers, with signal-driven graceful shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"
)

type App struct {
	logger     *slog.Logger
	httpServer *http.Server
}

func New(addr string, handler http.Handler, logger *slog.Logger) *App {
	return &App{
		logger: logger,
		httpServer: &http.Server{
			Addr:    addr,
			Handler: handler,
		},
	}
}

// Run serves until the context is cancelled or a SIGINT/SIGTERM arrives,
// then shuts the server down gracefully. Background workers run alongside
// the server and are cancelled with it; a worker returning a non-context
// error takes the whole service down.
func (a *App) Run(ctx context.Context, background ...func(ctx context.Context) error) error {
	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Info("HTTP server listening", "addr", a.httpServer.Addr)
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("failed to start HTTP server: %w", err)
		}
		return nil
	})

	for _, worker := range background {
		worker := worker
		g.Go(func() error {
			if err := worker(gCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	g.Go(func() error {
		<-gCtx.Done()
		a.logger.Info("shutting down HTTP server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return a.httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
