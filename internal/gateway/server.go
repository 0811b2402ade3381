package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/ebitsfc/rosterbot/internal/config"
	"github.com/ebitsfc/rosterbot/internal/metrics"
	"github.com/ebitsfc/rosterbot/internal/version"
	"github.com/google/uuid"
)

// MetricsSource exposes the latest runtime metrics snapshot.
type MetricsSource interface {
	Snapshot() metrics.RuntimeSnapshot
}

// Server is the read-only HTTP export surface: league data files and
// runtime metrics. It never mutates anything.
type Server struct {
	cfg        config.GatewayConfig
	registry   config.RegistryConfig
	metrics    MetricsSource
	httpServer *http.Server
}

// New creates an export server.
func New(cfg config.GatewayConfig, registry config.RegistryConfig, metricsSource MetricsSource) *Server {
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := cfg.Port
	if port <= 0 {
		port = 3001
	}

	cfg.Host = host
	cfg.Port = port
	return &Server{
		cfg:      cfg,
		registry: registry,
		metrics:  metricsSource,
	}
}

func (s *Server) Addr() string {
	return fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
}

func (s *Server) Start() error {
	mux := NewHandler(s.registry, s.metrics)
	s.httpServer = &http.Server{
		Addr:              s.Addr(),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	slog.Info("export server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// NewHandler builds the export mux.
func NewHandler(registry config.RegistryConfig, metricsSource MetricsSource) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodGet {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"status":     "ok",
			"request_id": requestID,
		})
	})
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodGet {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"version":    version.Version,
			"request_id": requestID,
		})
	})
	mux.HandleFunc("/api/players.json", dataFileHandler(registry.PlayersFile, "players"))
	mux.HandleFunc("/api/teams.json", dataFileHandler(registry.TeamsFile, "teams"))
	mux.HandleFunc("/metrics", func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodGet {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}
		if metricsSource == nil {
			writeError(w, requestID, http.StatusInternalServerError, "internal_error", "metrics are not configured")
			return
		}
		writeJSON(w, http.StatusOK, metricsSource.Snapshot())
	})
	return mux
}

// dataFileHandler serves one registry file as parsed JSON. The file is
// re-read per request so external edits show up without a restart.
func dataFileHandler(path, name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := getRequestID(r)
		if r.Method != http.MethodGet {
			writeError(w, requestID, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}

		raw, err := os.ReadFile(path)
		if err != nil {
			slog.Error("read data file failed", "request_id", requestID, "file", path, "error", err)
			writeError(w, requestID, http.StatusInternalServerError, "internal_error", fmt.Sprintf("failed to read %s data", name))
			return
		}

		var parsed any
		if err := json.Unmarshal(raw, &parsed); err != nil {
			slog.Error("parse data file failed", "request_id", requestID, "file", path, "error", err)
			writeError(w, requestID, http.StatusInternalServerError, "internal_error", fmt.Sprintf("failed to read %s data", name))
			return
		}
		writeJSON(w, http.StatusOK, parsed)
	}
}

func getRequestID(r *http.Request) string {
	rid := strings.TrimSpace(r.Header.Get("X-Request-ID"))
	if rid != "" {
		return rid
	}
	return uuid.NewString()
}

func writeError(w http.ResponseWriter, requestID string, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"code":       code,
		"message":    message,
		"request_id": requestID,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
