package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"text-hub/infrastructure/api"
	"text-hub/infrastructure/ws"
	"text-hub/repositories"
	"text-hub/runtime"
	"text-hub/runtime/workers"
	"text-hub/services"

	"github.com/Netflix/go-env"
	"github.com/dgraph-io/badger/v4"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// run initializes all components, manages the server lifecycle, and
// centralizes error reporting. Returning the error to main (instead of
// exiting in place) guarantees every defer runs, so the database always
// closes cleanly.
func run() error {
	// 1. Configuration & Logger
	_ = godotenv.Load() // optional local .env, real environments set vars directly
	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	// 2. Database (BadgerDB)
	db, err := badger.Open(badger.DefaultOptions(config.BadgerFilepath).
		WithLoggingLevel(badger.INFO))
	if err != nil {
		return fmt.Errorf("database opening failed: %w", err)
	}
	defer func() {
		log.Info("Closing BadgerDB...")
		_ = db.Close()
	}()

	// 3. Core wiring: registry -> dispatcher -> service.
	// The dispatcher is built once here and injected everywhere;
	// there is no ambient singleton to resolve.
	registry := runtime.NewRegistry()
	dispatcher := runtime.NewDispatcher(log, registry, config.DeliveryTimeout)
	messageRepository := repositories.NewMessageRepository(db, log)
	messageService := services.NewMessageService(messageRepository, dispatcher)

	// 4. Context & Signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 5. Supervised maintenance workers
	sup := workers.NewSupervisor(log, config.RestartInterval)
	sup.Add(workers.NewValueLogGC(log, db, config.GCInterval))
	go sup.Run(ctx)

	// 6. HTTP surface: REST API + websocket subscriptions
	router := chi.NewRouter()
	router.Mount("/", api.NewServer(log, messageService).Routes())
	router.Get("/ws", ws.NewHandler(log, registry, config.ConnectionBufferSize).ServeWS)

	address := fmt.Sprintf("%s:%d", config.Host, config.Port)
	server := &http.Server{Addr: address, Handler: router}

	errChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", address, "at", time.Now().UTC())
		if err := server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("http server error: %w", err)
		}
	}()

	// 7. Wait for Stop or Error
	select {
	case <-ctx.Done():
		log.Info("Shutting down gracefully...")
	case err := <-errChan:
		return err
	}

	// 8. Final Cleanup
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn("HTTP shutdown did not finish in time", "error", err)
	}
	sup.Stop()
	log.Info("Program stopped cleanly")

	return nil
}
