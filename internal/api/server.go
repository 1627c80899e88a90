package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pbaille/trip/internal/domain"
	"github.com/pbaille/trip/internal/store"
	"github.com/rs/cors"
	"go.uber.org/zap"
)

// Geocoder resolves a place to a location
type Geocoder interface {
	Geocode(ctx context.Context, name, address string) (domain.Location, error)
}

// Recommender suggests extra places for a day
type Recommender interface {
	Recommend(ctx context.Context, day domain.Day, spotNames []string) (string, error)
}

// Options configure a Server
type Options struct {
	Addr          string
	AuthSecret    string // enables bearer auth when set
	RatePerMinute int    // per-client limit on the AI endpoints
	Logger        *zap.Logger
	Geocoder      Geocoder
	Recommender   Recommender
}

// Server exposes the spots table over HTTP
type Server struct {
	store   *store.Store
	opts    Options
	log     *zap.Logger
	limiter *rateLimiter
}

// New creates a new API server
func New(s *store.Store, opts Options) *Server {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	perMinute := opts.RatePerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	return &Server{
		store:   s,
		opts:    opts,
		log:     log,
		limiter: newRateLimiter(perMinute),
	}
}

// Handler returns the routed handler with the middleware chain applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// Spots table
	mux.HandleFunc("GET /spots", s.listSpots)
	mux.HandleFunc("POST /spots", s.insertSpots)
	mux.HandleFunc("GET /spots/{id}", s.getSpot)
	mux.HandleFunc("PATCH /spots/{id}", s.updateSpot)
	mux.HandleFunc("DELETE /spots/{id}", s.deleteSpot)
	mux.HandleFunc("POST /spots/upsert", s.upsertSpots)

	// Assistant
	mux.Handle("POST /geocode", s.limiter.limit(http.HandlerFunc(s.geocode)))
	mux.Handle("POST /recommend", s.limiter.limit(http.HandlerFunc(s.recommend)))

	// Health check
	mux.HandleFunc("GET /health", s.health)

	var h http.Handler = mux
	if s.opts.AuthSecret != "" {
		h = requireToken(s.opts.AuthSecret, h)
	}
	h = withCORS(h)
	h = logRequests(s.log, h)
	return recoverPanics(s.log, h)
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("server listening", zap.String("addr", s.opts.Addr), zap.Bool("auth", s.opts.AuthSecret != ""))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// withCORS allows browser clients from any origin
func withCORS(h http.Handler) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
	}).Handler(h)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) listSpots(w http.ResponseWriter, r *http.Request) {
	rows, err := s.store.Select(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) getSpot(w http.ResponseWriter, r *http.Request) {
	prefix := r.PathValue("id")

	// Support prefix matching
	rows, err := s.store.Select(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}

	var matches []domain.Row
	for _, row := range rows {
		if row.ID == prefix {
			writeJSON(w, http.StatusOK, row)
			return
		}
		if strings.HasPrefix(row.ID, prefix) {
			matches = append(matches, row)
		}
	}

	switch len(matches) {
	case 0:
		writeError(w, http.StatusNotFound, "spot not found")
	case 1:
		writeJSON(w, http.StatusOK, matches[0])
	default:
		writeError(w, http.StatusConflict, fmt.Sprintf("id prefix %q is ambiguous", prefix))
	}
}

func (s *Server) insertSpots(w http.ResponseWriter, r *http.Request) {
	var rows []domain.Row
	if err := json.NewDecoder(r.Body).Decode(&rows); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(rows) == 0 {
		writeError(w, http.StatusBadRequest, "at least one spot is required")
		return
	}
	for _, row := range rows {
		if strings.TrimSpace(row.Name) == "" {
			writeError(w, http.StatusBadRequest, "name is required")
			return
		}
	}

	inserted, err := s.store.Insert(r.Context(), rows)
	if err != nil {
		writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inserted)
}

func (s *Server) updateSpot(w http.ResponseWriter, r *http.Request) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()

	var columns map[string]any
	if err := dec.Decode(&columns); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.Update(r.Context(), r.PathValue("id"), columns); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UpsertRequest is the request body for a batched insert-or-update
type UpsertRequest struct {
	Rows    []domain.Row `json:"rows"`
	Columns []string     `json:"columns,omitempty"`
}

func (s *Server) upsertSpots(w http.ResponseWriter, r *http.Request) {
	var req UpsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := s.store.Upsert(r.Context(), req.Rows, req.Columns); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) deleteSpot(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.Context(), r.PathValue("id")); err != nil {
		writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// GeocodeRequest is the request body for a location lookup
type GeocodeRequest struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
}

func (s *Server) geocode(w http.ResponseWriter, r *http.Request) {
	if s.opts.Geocoder == nil {
		writeError(w, http.StatusServiceUnavailable, "geocoding is not configured")
		return
	}

	var req GeocodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" && strings.TrimSpace(req.Address) == "" {
		writeError(w, http.StatusBadRequest, "name or address is required")
		return
	}

	loc, err := s.opts.Geocoder.Geocode(r.Context(), req.Name, req.Address)
	if err != nil {
		s.log.Warn("geocode failed", zap.String("name", req.Name), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, loc)
}

// RecommendRequest is the request body for day suggestions
type RecommendRequest struct {
	Day string `json:"day"`
}

// RecommendResponse carries the suggestion text
type RecommendResponse struct {
	Day  domain.Day `json:"day"`
	Text string     `json:"text"`
}

func (s *Server) recommend(w http.ResponseWriter, r *http.Request) {
	if s.opts.Recommender == nil {
		writeError(w, http.StatusServiceUnavailable, "recommendations are not configured")
		return
	}

	var req RecommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	day, err := domain.ParseDay(req.Day)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := s.store.Select(r.Context())
	if err != nil {
		writeStoreError(w, err)
		return
	}
	var names []string
	for _, row := range rows {
		if row.Day == string(day) {
			names = append(names, row.Name)
		}
	}

	text, err := s.opts.Recommender.Recommend(r.Context(), day, names)
	if err != nil {
		s.log.Warn("recommend failed", zap.String("day", string(day)), zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, RecommendResponse{Day: day, Text: text})
}

func writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
