// Package api exposes the HTTP trigger and read surface for crawls.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pacelab/segscout/internal/crawler"
	"github.com/pacelab/segscout/internal/geo"
	"github.com/pacelab/segscout/internal/segment"
	"github.com/pacelab/segscout/internal/store"
)

// CrawlRunner starts a crawl over a bound.
type CrawlRunner interface {
	Crawl(ctx context.Context, bound geo.Bound) (crawler.Summary, error)
}

// SegmentSource provides the ranked segment view.
type SegmentSource interface {
	RankedView() []store.RankedSegment
}

// RegionSource provides the region snapshot.
type RegionSource interface {
	All() []segment.RegionRecord
}

// Server wires HTTP handlers to the crawler and stores. Crawls are
// single-flight: the stores have one writer, so concurrent trigger
// requests queue behind a mutex.
type Server struct {
	router   chi.Router
	runner   CrawlRunner
	segments SegmentSource
	regions  RegionSource
	logger   *zap.Logger

	crawlMu sync.Mutex
}

// NewServer constructs a Server with middleware and routes.
func NewServer(runner CrawlRunner, segments SegmentSource, regions RegionSource, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		runner:   runner,
		segments: segments,
		regions:  regions,
		logger:   logger,
	}

	r := chi.NewRouter()
	r.Use(s.loggingMiddleware)
	r.Use(recoverMiddleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/crawls", s.startCrawl)
		r.Get("/segments", s.listSegments)
		r.Get("/regions", s.listRegions)
	})

	s.router = r
	return s
}

// Handler returns the router for use with http.Server.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// crawlRequest is the bound wire form: south-west and north-east
// corners plus an optional uniform offset added to every coordinate.
type crawlRequest struct {
	SW     geo.LatLng `json:"sw"`
	NE     geo.LatLng `json:"ne"`
	Offset float64    `json:"offset"`
}

func (s *Server) startCrawl(w http.ResponseWriter, r *http.Request) {
	var req crawlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	bound := geo.Bound{SW: req.SW, NE: req.NE}.Offset(req.Offset)
	if err := bound.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.crawlMu.Lock()
	defer s.crawlMu.Unlock()

	summary, err := s.runner.Crawl(r.Context(), bound)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusRequestTimeout
		}
		s.logger.Error("crawl request failed", zap.Error(err))
		writeError(w, status, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (s *Server) listSegments(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.segments.RankedView())
}

func (s *Server) listRegions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.regions.All())
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Info("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
