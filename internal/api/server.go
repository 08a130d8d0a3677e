package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"task-dispatcher/internal/auth"
	"task-dispatcher/internal/logger"
)

// NewRouter настраивает маршруты API
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()

	// Публичный эндпоинт для аутентификации
	r.HandleFunc("/api/v1/login", auth.Login).Methods("POST")

	// Защищенные маршруты
	protected := r.PathPrefix("/api/v1").Subrouter()
	protected.Use(auth.AuthMiddleware)
	protected.HandleFunc("/tasks", h.HandleSubmitTask).Methods("POST")
	protected.HandleFunc("/status", h.HandleStatus).Methods("GET")
	protected.HandleFunc("/results", h.HandleGetResults).Methods("GET")

	return r
}

// Serve обслуживает API до отмены ctx
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.INFO.Println("HTTP API listening on " + addr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.INFO.Println("HTTP API stopped")
	return nil
}
