package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/duskmoth/sidestage/internal/repositories"
	"github.com/duskmoth/sidestage/internal/server"
	"github.com/duskmoth/sidestage/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Serve runs the event companion HTTP server until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	app := server.NewApp(db, r.config, r.logger)

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: app.Router(),
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pruner, err := tasks.NewPushPruner(repositories.NewPushEventRepository(db), 0, 0, r.logger)
	if err != nil {
		return err
	}
	go pruner.Run(ctx, nil)

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}
	return nil
}
