// Package status serves a small read-only HTTP view of the running monitor.
package status

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/L1bertine/football-statbot/internal/logger"
	"github.com/L1bertine/football-statbot/internal/models"
	"github.com/L1bertine/football-statbot/internal/monitor"
)

const (
	defaultAlertLimit = 20
	maxAlertLimit     = 500
)

// StatsSource reports the monitor counters.
type StatsSource interface {
	Stats() monitor.Stats
}

// AlertReader reads the alert journal.
type AlertReader interface {
	RecentAlerts(k int) ([]models.JournalEntry, error)
	FixtureAlerts(fixtureID int64) ([]models.JournalEntry, error)
}

// Server exposes /healthz, /status and /alerts.
type Server struct {
	stats   StatsSource
	alerts  AlertReader
	started time.Time
	srv     *http.Server
}

// New builds a status server listening on addr. alerts may be nil when the
// journal is disabled.
func New(addr string, stats StatsSource, alerts AlertReader) *Server {
	s := &Server{stats: stats, alerts: alerts, started: time.Now()}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Router returns the chi router with all routes mounted.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(timing)

	r.Get("/healthz", s.health)
	r.Get("/status", s.status)
	r.Route("/alerts", func(r chi.Router) {
		r.Get("/", s.recentAlerts)
		r.Get("/{fixtureID}", s.fixtureAlerts)
	})
	return r
}

// Start serves in a goroutine. A listen failure is logged, not fatal.
func (s *Server) Start() {
	go func() {
		logger.Info("Status server listening on %s", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Status server stopped: %v", err)
		}
	}()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"uptime":    time.Since(s.started).Round(time.Second).String(),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.stats.Stats())
}

func (s *Server) recentAlerts(w http.ResponseWriter, r *http.Request) {
	if s.alerts == nil {
		writeError(w, http.StatusServiceUnavailable, "alert journal disabled")
		return
	}
	limit := defaultAlertLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(n, maxAlertLimit)
	}
	entries, err := s.alerts.RecentAlerts(limit)
	if err != nil {
		logger.Error("Failed to read alert journal: %v", err)
		writeError(w, http.StatusInternalServerError, "failed to read alerts")
		return
	}
	writeJSON(w, http.StatusOK, alertsResponse(entries))
}

func (s *Server) fixtureAlerts(w http.ResponseWriter, r *http.Request) {
	if s.alerts == nil {
		writeError(w, http.StatusServiceUnavailable, "alert journal disabled")
		return
	}
	id, err := strconv.ParseInt(chi.URLParam(r, "fixtureID"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "invalid fixture id")
		return
	}
	entries, err := s.alerts.FixtureAlerts(id)
	if err != nil {
		logger.Error("Failed to read alerts for fixture %d: %v", id, err)
		writeError(w, http.StatusInternalServerError, "failed to read alerts")
		return
	}
	writeJSON(w, http.StatusOK, alertsResponse(entries))
}

func alertsResponse(entries []models.JournalEntry) map[string]interface{} {
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	return map[string]interface{}{
		"count":  len(entries),
		"alerts": entries,
	}
}

// timing logs method, path, status and duration of every request.
func timing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.Debug("%s %s -> %d in %v", r.Method, r.URL.Path, ww.Status(), time.Since(start))
	})
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := sonic.ConfigDefault.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
