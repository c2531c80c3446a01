package http

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/sensor-warning-map/internal/domain"
)

// WarningSource serves the current warning catalog.
type WarningSource interface {
	Query(q domain.WarningQuery) []domain.Warning
}

// SensorSource lists the registered sensors.
type SensorSource interface {
	Sensors(ctx context.Context) ([]domain.Sensor, error)
}

// Server exposes the warning API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	warnings   WarningSource
	sensors    SensorSource
	apiToken   string
	locales    domain.Locales
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API, /healthz, /readyz, and
// /metrics routes. A non-empty apiToken is required as a bearer token on
// /api/sensors.
func NewServer(addr string, ready sharedobs.ReadinessChecker, warnings WarningSource, sensors SensorSource, apiToken string, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		warnings: warnings,
		sensors:  sensors,
		apiToken: apiToken,
		locales:  domain.DefaultLocales,
		logger:   logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/weather-warnings", s.handleWarnings)
	mux.HandleFunc("GET /api/sensors", s.requireToken(s.handleSensors))
	mux.HandleFunc("GET /api/map", s.handleMap)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

type warningsResponse struct {
	Warnings []domain.Warning `json:"warnings"`
}

type mapResponse struct {
	Map       domain.MapModel         `json:"map"`
	Summaries []domain.FeatureSummary `json:"summaries"`
}

func (s *Server) handleWarnings(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, warningsResponse{Warnings: s.warnings.Query(q)})
}

func (s *Server) handleSensors(w http.ResponseWriter, r *http.Request) {
	sensors, err := s.sensors.Sensors(r.Context())
	if err != nil {
		s.logger.Error("list sensors failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sensors")
		return
	}
	if sensors == nil {
		sensors = []domain.Sensor{}
	}
	writeJSON(w, http.StatusOK, sensors)
}

func (s *Server) handleMap(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sensors, err := s.sensors.Sensors(r.Context())
	if err != nil {
		s.logger.Error("list sensors failed", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sensors")
		return
	}

	model := domain.BuildMapModel(s.warnings.Query(q), sensors, s.locales)
	writeJSON(w, http.StatusOK, mapResponse{Map: model, Summaries: model.Summaries()})
}

func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiToken != "" {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(s.apiToken)) != 1 {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
		}
		next(w, r)
	}
}

type queryError string

func (e queryError) Error() string { return string(e) }

// parseQuery reads the warning filters. Missing or out-of-range page values
// fall back to the first page and the default page size.
func parseQuery(r *http.Request) (domain.WarningQuery, error) {
	values := r.URL.Query()
	q := domain.WarningQuery{
		EventType: strings.TrimSpace(values.Get("eventType")),
		AreaName:  strings.TrimSpace(values.Get("areaName")),
	}

	var err error
	if q.Page, err = parseInt(values.Get("page")); err != nil {
		return q, queryError("invalid page")
	}
	if q.PageSize, err = parseInt(values.Get("pageSize")); err != nil {
		return q, queryError("invalid pageSize")
	}
	return q.Normalize(), nil
}

func parseInt(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	return strconv.Atoi(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}
