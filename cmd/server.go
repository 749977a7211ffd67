package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/terabiome/skyvllm/internal/config"
	"github.com/terabiome/skyvllm/internal/handler"
	"github.com/terabiome/skyvllm/internal/routes"
	"github.com/terabiome/skyvllm/internal/ui"
)

// runServer starts the HTTP server for the page and the JSON API
func runServer(ctx context.Context, cfg *config.Config, log *slog.Logger, address string, withPage bool) error {
	log.Info("initializing HTTP server", slog.String("address", address))

	svc, cleanup, err := initServingService(cfg, log)
	if err != nil {
		return fmt.Errorf("failed to initialize serving service: %w", err)
	}
	defer cleanup()

	servingHandler := handler.NewServing(svc, log)

	var pageHandler *ui.Handler
	if withPage {
		if pageHandler, err = ui.NewHandler(svc, log); err != nil {
			return fmt.Errorf("failed to initialize page: %w", err)
		}
	}

	router := routes.SetupMux(servingHandler, pageHandler)

	server := &http.Server{
		Addr:         address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: writeTimeout(cfg.RequestTimeout),
		IdleTimeout:  60 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", slog.String("address", address))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	select {
	case err := <-serverErrChan:
		return err
	case <-ctx.Done():
		log.Info("shutting down HTTP server")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		log.Info("HTTP server stopped")
		return nil
	}
}

// writeTimeout covers the slowest handler: an inference resolves the address
// and then calls the serving process, each bounded by requestTimeout.
func writeTimeout(requestTimeout time.Duration) time.Duration {
	return 2*requestTimeout + 15*time.Second
}
