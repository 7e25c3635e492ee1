// Package server exposes the siting engine as a read-only JSON API for map and
// dashboard front ends.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/hospital-siting/internal/analysis"
	"github.com/sells-group/hospital-siting/internal/config"
	"github.com/sells-group/hospital-siting/internal/model"
	"github.com/sells-group/hospital-siting/internal/report"
	"github.com/sells-group/hospital-siting/internal/scorer"
	"github.com/sells-group/hospital-siting/internal/source"
	"github.com/sells-group/hospital-siting/internal/suggest"
)

// maxBodyBytes caps POST /v1/analyze request bodies.
const maxBodyBytes = 8 << 20

// Server serves analyses of one loaded dataset.
type Server struct {
	cfg     config.Config
	dataset *source.Dataset
	cache   *ResultCache
	limiter *clientLimiter
	log     *zap.Logger
	router  chi.Router
}

// New builds a server for ds. The dataset must already be validated and is
// never modified.
func New(cfg config.Config, ds *source.Dataset) *Server {
	s := &Server{
		cfg:     cfg,
		dataset: ds,
		cache:   NewResultCache(cfg.Server.CacheEntries, time.Duration(cfg.Server.CacheTTLMinutes)*time.Minute),
		log:     zap.L().With(zap.String("component", "server")),
	}
	if cfg.Server.RateLimit > 0 {
		s.limiter = newClientLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	}
	s.router = s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// CacheStats returns the result cache counters.
func (s *Server) CacheStats() CacheStats { return s.cache.Stats() }

func (s *Server) routes() chi.Router {
	origins := s.cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		if s.limiter != nil {
			r.Use(s.limiter.middleware)
		}
		r.Get("/zones", s.handleZones)
		r.Get("/suggestions", s.handleSuggestions)
		r.Get("/geojson", s.handleGeoJSON)
		r.Post("/analyze", s.handleAnalyze)
	})
	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"origin":    s.dataset.Origin,
		"hospitals": len(s.dataset.Hospitals),
		"zones":     len(s.dataset.Zones),
		"cache":     s.cache.Stats(),
	})
}

type zonesResponse struct {
	Zones         []model.ScoredZone `json:"zones"`
	Degenerate    bool               `json:"degenerate"`
	MaxPopulation int                `json:"maxPopulation"`
	MaxDistanceKM float64            `json:"maxDistanceKm"`
}

func (s *Server) handleZones(w http.ResponseWriter, r *http.Request) {
	res, err := scorer.Score(s.dataset.Zones, s.dataset.Hospitals, scorer.WithCoverageKM(s.cfg.Analysis.CoverageKM))
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}

	zones := scorer.Rank(res.Zones)
	if v := r.URL.Query().Get("min_priority"); v != "" {
		threshold, err := parseFloat("min_priority", v)
		if err != nil {
			s.writeAnalysisError(w, err)
			return
		}
		zones = scorer.AbovePriority(zones, threshold)
	}
	if zones == nil {
		zones = []model.ScoredZone{}
	}

	writeJSON(w, http.StatusOK, zonesResponse{
		Zones:         zones,
		Degenerate:    res.Degenerate,
		MaxPopulation: res.MaxPopulation,
		MaxDistanceKM: res.MaxDistanceKM,
	})
}

type suggestionsResponse struct {
	RunID       string             `json:"runId"`
	Status      suggest.Status     `json:"status"`
	Message     string             `json:"message,omitempty"`
	Strategy    string             `json:"strategy"`
	Candidates  string             `json:"candidates"`
	Suggestions []model.Suggestion `json:"suggestions"`
	Evaluated   int                `json:"evaluated"`
	Qualified   int                `json:"qualified"`
	Excluded    int                `json:"excluded"`
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.cachedReport(w, r)
	if !ok {
		return
	}

	sel := rep.Selection
	resp := suggestionsResponse{
		RunID:       rep.RunID,
		Status:      sel.Status,
		Strategy:    sel.Strategy,
		Candidates:  rep.Candidates,
		Suggestions: sel.Suggestions,
		Evaluated:   sel.Evaluated,
		Qualified:   sel.Qualified,
		Excluded:    sel.Excluded,
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []model.Suggestion{}
	}
	if sel.Status == suggest.StatusNoQualifyingCandidates {
		resp.Message = report.NoSitesMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGeoJSON(w http.ResponseWriter, r *http.Request) {
	rep, ok := s.cachedReport(w, r)
	if !ok {
		return
	}

	fc, err := report.GeoJSON(rep)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(fc); err != nil {
		s.log.Debug("write geojson", zap.Error(err))
	}
}

type analyzeRequest struct {
	Hospitals []model.Hospital  `json:"hospitals"`
	Zones     []model.UrbanZone `json:"zones"`
	Options   Overrides         `json:"options"`
}

// handleAnalyze runs an analysis on the request's records. Nothing is stored
// or cached.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	ds := &source.Dataset{Hospitals: req.Hospitals, Zones: req.Zones, Origin: "request"}
	cfg := req.Options.Apply(s.cfg.Analysis)
	rep, err := analysis.New(cfg).Run(r.Context(), ds)
	if err != nil {
		s.writeAnalysisError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// cachedReport returns the report for the request's overrides, running the
// analysis on a cache miss. It writes the error response and returns false on
// failure.
func (s *Server) cachedReport(w http.ResponseWriter, r *http.Request) (*analysis.Report, bool) {
	ov, err := parseOverrides(r.URL.Query())
	if err != nil {
		s.writeAnalysisError(w, err)
		return nil, false
	}
	cfg := ov.Apply(s.cfg.Analysis)
	key := cacheKey(cfg)

	if rep := s.cache.Get(key); rep != nil {
		w.Header().Set("X-Cache", "hit")
		return rep, true
	}

	rep, err := analysis.New(cfg).Run(r.Context(), s.dataset)
	if err != nil {
		s.writeAnalysisError(w, err)
		return nil, false
	}
	s.cache.Put(key, rep)
	w.Header().Set("X-Cache", "miss")
	return rep, true
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case eris.Is(err, model.ErrInvalidOptions), eris.Is(err, model.ErrInvalidRecord):
		return http.StatusBadRequest
	case eris.Is(err, model.ErrInsufficientData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeAnalysisError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.Error("analysis failed", zap.Error(err))
		writeError(w, status, http.StatusText(status))
		return
	}
	s.log.Debug("analysis rejected", zap.Int("status", status), zap.Error(err))
	writeError(w, status, err.Error())
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Debug("request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
