package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/cartridge/replay/internal/metrics"
	"github.com/cartridge/replay/internal/middleware"
	"github.com/cartridge/replay/internal/service"
	"github.com/cartridge/replay/internal/spec"
	"github.com/cartridge/replay/internal/storage"
)

// Options tunes the admin router.
type Options struct {
	// RateLimit is the sustained requests per second; 0 disables limiting.
	RateLimit float64
	RateBurst int

	// Fill, when set, adds the fill monitor's latest reading to /healthz.
	Fill FillReporter
}

// FillReporter reports the latest buffer reading and when it was taken.
type FillReporter interface {
	Last() (*storage.Stats, time.Time)
}

// Server exposes the replay buffer over an admin HTTP API.
type Server struct {
	svc       *service.ReplayService
	collector *metrics.Collector
	gatherer  prometheus.Gatherer
	options   Options
	logger    zerolog.Logger
}

// NewServer constructs a Server instance.
func NewServer(svc *service.ReplayService, collector *metrics.Collector, gatherer prometheus.Gatherer, options Options, logger zerolog.Logger) *Server {
	return &Server{
		svc:       svc,
		collector: collector,
		gatherer:  gatherer,
		options:   options,
		logger:    logger,
	}
}

// Routes builds the HTTP router for the admin API.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.CorrelationID)
	r.Use(middleware.RequestLogger(s.logger))
	r.Use(chimiddleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Metrics(s.collector))
		r.Use(middleware.RateLimiter(s.options.RateLimit, s.options.RateBurst))
		r.Get("/spec", s.handleSpec)
		r.Get("/stats", s.handleStats)
		r.Get("/gather", s.handleGather)
		r.Get("/sample", s.handleSample)
		r.Post("/clear", s.handleClear)
	})
	return r
}

// TensorView is the JSON rendering of one leaf value.
type TensorView struct {
	Name   string    `json:"name"`
	DType  string    `json:"dtype"`
	Shape  []int     `json:"shape"`
	Values []float64 `json:"values"`
}

type specView struct {
	Spec      spec.Spec         `json:"spec"`
	Leaves    []spec.TensorSpec `json:"leaves"`
	BatchSize int               `json:"batch_size"`
	Capacity  int               `json:"capacity"`
}

type statsView struct {
	BatchSize    int     `json:"batch_size"`
	Capacity     int     `json:"capacity"`
	ValidCounts  []int   `json:"valid_counts"`
	LastIDs      []int64 `json:"last_ids"`
	TotalAdded   uint64  `json:"total_added"`
	StorageBytes uint64  `json:"storage_bytes"`
}

type gatherView struct {
	ValidCount int          `json:"valid_count"`
	Items      []TensorView `json:"items"`
}

type sampleView struct {
	Items [][]TensorView     `json:"items"`
	Info  storage.BufferInfo `json:"info"`
}

type healthView struct {
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	LastCheck  *time.Time `json:"last_check,omitempty"`
	ValidCount *int       `json:"valid_count,omitempty"`
	Full       bool       `json:"full,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.svc.Backend().Stats(r.Context()); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, healthView{Status: "unavailable", Error: err.Error()})
		return
	}
	view := healthView{Status: "ok"}
	if s.options.Fill != nil {
		if stats, at := s.options.Fill.Last(); stats != nil {
			valid := stats.ValidCount()
			view.LastCheck = &at
			view.ValidCount = &valid
			view.Full = stats.Capacity != storage.Unbounded && valid >= stats.Capacity
		}
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSpec(w http.ResponseWriter, r *http.Request) {
	b := s.svc.Backend()
	s.writeJSON(w, http.StatusOK, specView{
		Spec:      b.DataSpec(),
		Leaves:    b.DataSpec().Flatten(),
		BatchSize: b.BatchSize(),
		Capacity:  b.Capacity(),
	})
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Backend().Stats(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, statsView{
		BatchSize:    stats.BatchSize,
		Capacity:     stats.Capacity,
		ValidCounts:  stats.ValidCounts,
		LastIDs:      stats.LastIDs,
		TotalAdded:   stats.TotalAdded,
		StorageBytes: stats.StorageBytes,
	})
}

func (s *Server) handleGather(w http.ResponseWriter, r *http.Request) {
	items, err := s.svc.Backend().GatherAll(r.Context())
	if err != nil {
		s.respondError(w, err)
		return
	}
	view := gatherView{Items: s.render(items)}
	if len(items) > 0 {
		view.ValidCount = items[0].Shape[1]
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSample(w http.ResponseWriter, r *http.Request) {
	config, err := parseSampleConfig(r)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sample, err := s.svc.Draw(r.Context(), config)
	if err != nil {
		s.respondError(w, err)
		return
	}
	view := sampleView{Items: make([][]TensorView, len(sample.Items)), Info: sample.Info}
	for i, item := range sample.Items {
		view.Items[i] = s.render(item)
	}
	s.writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	all := false
	if raw := r.URL.Query().Get("all"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, "all must be a boolean")
			return
		}
		all = v
	}
	if err := s.svc.Reset(r.Context(), all, r.Header.Get(middleware.CorrelationHeader)); err != nil {
		s.respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) render(rec spec.Record) []TensorView {
	leaves := s.svc.Backend().DataSpec().Flatten()
	views := make([]TensorView, len(rec))
	for i, t := range rec {
		views[i] = TensorView{
			Name:   leaves[i].Name,
			DType:  t.DType.String(),
			Shape:  t.Shape,
			Values: t.AsFloat64s(),
		}
	}
	return views
}

func parseSampleConfig(r *http.Request) (*storage.SampleConfig, error) {
	q := r.URL.Query()
	config := &storage.SampleConfig{}
	var err error
	if config.BatchSize, err = intParam(q.Get("batch_size")); err != nil {
		return nil, errors.New("batch_size must be an integer")
	}
	if config.NumSteps, err = intParam(q.Get("num_steps")); err != nil {
		return nil, errors.New("num_steps must be an integer")
	}
	if raw := q.Get("time_stacked"); raw != "" {
		stacked, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, errors.New("time_stacked must be a boolean")
		}
		config.Unstacked = !stacked
	}
	if raw := q.Get("row"); raw != "" {
		row, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.New("row must be an integer")
		}
		config.Row = &row
	}
	return config, nil
}

func intParam(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	return strconv.Atoi(raw)
}

func (s *Server) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrConfig), errors.Is(err, storage.ErrSpecMismatch):
		s.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrOutOfRange):
		s.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, storage.ErrEmptyBuffer):
		s.writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, storage.ErrClosed):
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode response")
	}
}
