package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Health is the process liveness surface, orthogonal to the monitoring
// logic.
type Health struct {
	srv     *http.Server
	started time.Time
}

func NewHealth(addr string) *Health {
	h := &Health{started: time.Now()}

	mux := http.NewServeMux()
	mux.HandleFunc("/", h.handle)
	mux.HandleFunc("/health", h.handle)
	h.srv = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return h
}

func (h *Health) handle(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"status": "alive",
		"uptime": time.Since(h.started).Round(time.Second).String(),
	})
}

// Start serves until ctx is done, then shuts down gracefully.
func (h *Health) Start(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := h.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := h.srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("health server shutdown failed", "error", err)
		return err
	}
	return nil
}
