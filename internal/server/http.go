package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/SoniCord-Development/sonicord/internal/sink"
)

// HTTPServer exposes monitoring endpoints for one recording sink
type HTTPServer struct {
	server    *http.Server
	logger    *slog.Logger
	sink      *sink.Sink
	startTime time.Time
}

// HTTPServerConfig contains HTTP server configuration
type HTTPServerConfig struct {
	Address string
	Port    int
}

// NewHTTPServer creates the monitoring HTTP server
func NewHTTPServer(cfg HTTPServerConfig, logger *slog.Logger, s *sink.Sink) *HTTPServer {
	if logger == nil {
		logger = slog.Default()
	}

	h := &HTTPServer{
		logger:    logger,
		sink:      s,
		startTime: time.Now(),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", h.handleHealth)
	mux.HandleFunc("/session", h.handleSession)
	mux.Handle("/metrics", promhttp.Handler())

	h.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return h
}

// Start begins serving in a background goroutine
func (h *HTTPServer) Start() {
	go func() {
		h.logger.Info("HTTP monitoring server listening",
			slog.String("address", h.server.Addr),
		)

		if err := h.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			h.logger.Error("HTTP server failed", slog.String("error", err.Error()))
		}
	}()
}

// Stop gracefully shuts the server down
func (h *HTTPServer) Stop(ctx context.Context) error {
	return h.server.Shutdown(ctx)
}

// handleHealth reports process liveness and uptime
func (h *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{
		"status": "ok",
		"uptime": time.Since(h.startTime).String(),
	})
}

// handleSession reports the recording session snapshot
func (h *HTTPServer) handleSession(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]any{
		"encoding": h.sink.Encoding(),
		"session":  h.sink.Session().Info(),
	})
}

func (h *HTTPServer) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")

	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", slog.String("error", err.Error()))
	}
}
