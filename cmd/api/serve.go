// cmd/api/serve.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	app "finance-tracker/internal"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	// Create and initialize the application
	application := app.NewApplication()
	if err := application.Initialize(ctx, cfgFile); err != nil {
		application.Logger.Error("Failed to initialize application", "error", err)
		_ = application.Shutdown(context.Background())
		return err
	}

	// Start HTTP server
	server := &http.Server{
		Addr:         ":" + application.Config.ServerPort,
		Handler:      application.HTTPHandler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: application.Config.RequestTimeout + 5*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Run server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		application.Logger.Info("Starting HTTP server", "port", application.Config.ServerPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Graceful shutdown: block until a signal is received or the server fails
	var runErr error
	select {
	case <-ctx.Done():
	case err := <-serverErr:
		if err != nil {
			application.Logger.Error("HTTP server failed to start", "error", err)
			runErr = fmt.Errorf("http server: %w", err)
		}
	}

	application.Logger.Info("Shutting down HTTP server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		application.Logger.Error("HTTP server shutdown failed", "error", err)
		runErr = errors.Join(runErr, err)
	}

	// Perform application-level shutdown (e.g., close DB connections)
	if err := application.Shutdown(shutdownCtx); err != nil {
		application.Logger.Error("Application shutdown failed", "error", err)
		runErr = errors.Join(runErr, err)
	}

	if runErr == nil {
		application.Logger.Info("Application gracefully stopped.")
	}
	return runErr
}
