package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

const shutdownTimeout = 5 * time.Second

// NewRouter - builds the routes of the HTTP API.
func NewRouter(handlers Handlers) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/ping", handlers.Ping).Methods(http.MethodGet)

	// routes stay on the root router: mux answers 405 for a method mismatch
	// only there, a subrouter falls through to 404
	router.HandleFunc("/api/boards", handlers.ListBoards).Methods(http.MethodGet)
	router.HandleFunc("/api/boards/{id}", handlers.GetBoard).Methods(http.MethodGet)
	router.HandleFunc("/api/boards/{id}/cells/{index:-?[0-9]+}", handlers.ActivateCell).Methods(http.MethodPost)
	router.HandleFunc("/api/boards/{id}/reset", handlers.ResetRound).Methods(http.MethodPost)
	router.HandleFunc("/api/boards/{id}/rounds", handlers.ListRounds).Methods(http.MethodGet)

	return router
}

// Start - serves the HTTP API until the context is canceled.
func Start(ctx context.Context, logger *slog.Logger, port string, handler http.Handler) error {
	log := logger.With("component", "http")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("failed to shutdown server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
