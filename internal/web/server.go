// Package web serves the HTML pages: emission record browsing and editing,
// the rollup report, the chart pages and report export downloads.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/caojiali1996/group15/internal/choices"
	"github.com/caojiali1996/group15/internal/store"
)

// dataStore is the slice of the postgres store the pages need. Tests swap in
// a fake.
type dataStore interface {
	CountEmissions(ctx context.Context) (int, error)
	ListEmissions(ctx context.Context, orderBy string, limit, offset int) ([]store.Emission, error)
	AllEmissions(ctx context.Context) ([]store.Emission, error)
	GetEmission(ctx context.Context, imo int64) (store.Emission, error)
	InsertEmission(ctx context.Context, item store.Emission) error
	UpdateEmission(ctx context.Context, imo int64, item store.Emission) error
	DeleteEmission(ctx context.Context, imo int64) error
	InsertGreeting(ctx context.Context) error
	ListGreetings(ctx context.Context) ([]store.Greeting, error)
	CountAggregation(ctx context.Context) (int, error)
	Aggregation(ctx context.Context, orderBy string, limit, offset int) ([]store.AggregateRow, error)
	CountryAverages(ctx context.Context) ([]store.CountryAverage, error)
	ShipTypeTotals(ctx context.Context) ([]store.ShipTypeTotal, error)
	CountryEIVRange(ctx context.Context) ([]store.CountryEIVRange, error)
	Ping(ctx context.Context) error
}

// choiceCache is the dropdown cache surface, also swappable in tests.
type choiceCache interface {
	Choices(ctx context.Context, column string) ([]choices.Choice, error)
	Invalidate(ctx context.Context, column string) error
}

type Server struct {
	store    dataStore
	choices  choiceCache
	pageSize int
	logger   *slog.Logger
}

func NewServer(dataStore dataStore, choiceCache choiceCache, pageSize int, logger *slog.Logger) *Server {
	if pageSize <= 0 {
		pageSize = 20
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{store: dataStore, choices: choiceCache, pageSize: pageSize, logger: logger}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /db", s.handleDB)

	mux.HandleFunc("GET /emissions", s.handleEmissions)
	mux.HandleFunc("GET /emissions/page/{page}", s.handleEmissions)
	mux.HandleFunc("GET /emissions/export", s.handleEmissionsExport)
	mux.HandleFunc("GET /emissions/new", s.handleDetailForm)
	mux.HandleFunc("POST /emissions/new", s.handleDetailSubmit)
	mux.HandleFunc("GET /emissions/imo/{imo}", s.handleDetailForm)
	mux.HandleFunc("POST /emissions/imo/{imo}", s.handleDetailSubmit)

	mux.HandleFunc("GET /aggregation", s.handleAggregation)
	mux.HandleFunc("GET /aggregation/page/{page}", s.handleAggregation)
	mux.HandleFunc("GET /aggregation/export", s.handleAggregationExport)

	mux.HandleFunc("GET /visual", s.handleVisual)
	mux.HandleFunc("GET /radarchart", s.handleRadarChart)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	return s.withRequestLog(mux)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		started := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(recorder, r)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", recorder.status,
			"duration", time.Since(started),
		)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		http.Error(w, "database unavailable", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
