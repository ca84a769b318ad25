package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/desertthunder/auxd/internal/server"
	"github.com/urfave/cli/v3"
	"golang.org/x/time/rate"
)

// Serve runs the guest-facing HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	d, err := r.buildDeps(cmd.String("config"))
	if err != nil {
		return err
	}
	defer d.Close()

	port := d.config.Server.Port
	if p := cmd.Int("port"); p != 0 {
		port = int(p)
	}

	router := server.NewBasicRouter()
	router.Use(
		server.LoggingMiddleware(r.logger),
		server.RateLimitMiddleware(rate.Limit(d.config.Server.RateLimit), d.config.Server.RateLimitBurst),
	)
	router.Handler(server.NewActionHandler(d.actions, r.logger))

	addr := fmt.Sprintf("%s:%d", d.config.Server.Host, port)
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("serving playback API", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		r.logger.Info("shutting down", "signal", sig)
	case <-ctx.Done():
		r.logger.Info("shutting down", "reason", ctx.Err())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	return nil
}
