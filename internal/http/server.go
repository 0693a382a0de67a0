// Package http serves the JSON API over the ledger and its reports.
package http

import (
	"context"
	"net/http"
	"time"

	"spendlens/internal/log"
	"spendlens/internal/middleware/ratelimit"
	"spendlens/internal/middleware/security"
	"spendlens/internal/middleware/trace"
	"spendlens/internal/services"
	"spendlens/internal/storage"
)

const defaultMaxUploadBytes = 10 << 20

// Recorder receives per-route request metrics.
type Recorder interface {
	RecordRequest(method, route string, status int, elapsed time.Duration)
	RecordRateLimited()
}

type noopRecorder struct{}

func (noopRecorder) RecordRequest(string, string, int, time.Duration) {}
func (noopRecorder) RecordRateLimited()                               {}

// Config holds server settings.
type Config struct {
	Addr           string
	RateLimit      ratelimit.Config
	MaxUploadBytes int64
	// UploadDir holds receipt images while they are recognized. Empty means
	// the system temp dir.
	UploadDir string
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Ledger  *services.Ledger
	Reports *services.Reports
	// Metrics serves GET /metrics when set.
	Metrics http.Handler
	// Ready reports whether backing services are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
	// LastSave adds the most recent save to /readyz when set.
	LastSave func(ctx context.Context) (storage.Snapshot, bool, error)
	Recorder Recorder
	Logger   *log.Logger
}

type Server struct {
	http.Server
	ledger    *services.Ledger
	reports   *services.Reports
	ready     func(ctx context.Context) error
	lastSave  func(ctx context.Context) (storage.Snapshot, bool, error)
	recorder  Recorder
	limiter   *ratelimit.Limiter
	detector  *security.Detector
	tracer    *trace.Middleware
	logger    *log.Logger
	maxUpload int64
	uploadDir string
	now       func() time.Time
}

func NewServer(cfg Config, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.Recorder == nil {
		deps.Recorder = noopRecorder{}
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}

	logger := deps.Logger.WithComponent(log.ComponentHTTP)
	detector := security.NewDetector(deps.Logger)
	s := &Server{
		ledger:    deps.Ledger,
		reports:   deps.Reports,
		ready:     deps.Ready,
		lastSave:  deps.LastSave,
		recorder:  deps.Recorder,
		limiter:   ratelimit.NewLimiter(cfg.RateLimit),
		detector:  detector,
		tracer:    trace.NewMiddleware(detector.ExtractClientIP, deps.Logger),
		logger:    logger,
		maxUpload: cfg.MaxUploadBytes,
		uploadDir: cfg.UploadDir,
		now:       time.Now,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	if deps.Metrics != nil {
		mux.Handle("GET /metrics", deps.Metrics)
	}

	api := http.NewServeMux()
	s.route(api, "GET /records", s.handleListRecords)
	s.route(api, "POST /records", s.handleCreateRecord)
	s.route(api, "POST /records/from-draft", s.handleCreateFromDraft)
	s.route(api, "PUT /records/{id}", s.handleUpdateRecord)
	s.route(api, "DELETE /records/{id}", s.handleDeleteRecord)
	s.route(api, "GET /summary", s.handleSummary)
	s.route(api, "GET /breakdown", s.handleBreakdown)
	s.route(api, "GET /categories/top", s.handleTopCategories)
	s.route(api, "GET /distribution", s.handleDistribution)
	s.route(api, "GET /overall", s.handleOverall)
	s.route(api, "POST /classify", s.handleClassify)
	s.route(api, "POST /ingest", s.handleIngestText)
	s.route(api, "POST /ingest/image", s.handleIngestImage)
	s.route(api, "GET /insights", s.handleInsights)

	limited := s.limiter.Middleware(detector.ExtractClientIP, s.onRateLimited)(api)
	mux.Handle("/", limited)

	var handler http.Handler = mux
	handler = detector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.RequestIDMiddleware(trace.RequestIDFromRequest)(handler)
	handler = log.Middleware(logger)(handler)
	handler = s.tracer.Middleware(handler)

	s.Server = http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

// route registers h under pattern and records metrics labelled with it.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	mux.Handle(pattern, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := trace.NewResponseWriter(w)
		h(rw, r)
		s.recorder.RecordRequest(r.Method, pattern, rw.Status(), time.Since(start))
	}))
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	s.recorder.RecordRateLimited()
	ErrorResponse(http.StatusTooManyRequests, CodeRateLimited, "rate limit exceeded, try again later").Write(w)
}

// Shutdown stops background work then drains connections.
func (s *Server) Shutdown(ctx context.Context) error {
	s.limiter.Stop()
	return s.Server.Shutdown(ctx)
}

// fail logs err at the level its status deserves and writes the mapped response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	resp := ErrorFor(err)
	logger := log.FromContext(r.Context())
	if resp.statusCode >= 500 && resp.statusCode != http.StatusNotImplemented {
		logger.ErrorContext(r.Context(), "Request failed", log.FieldOperation, op, log.FieldError, err)
	} else {
		logger.DebugContext(r.Context(), "Request rejected", log.FieldOperation, op, log.FieldError, err)
	}
	resp.Write(w)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(map[string]string{"status": "ok"}).Write(w)
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			ErrorResponse(http.StatusServiceUnavailable, CodePersistence, "not ready").Write(w)
			return
		}
	}
	body := map[string]any{
		"status":   "ready",
		"revision": s.ledger.Revision(),
	}
	if s.lastSave != nil {
		snap, ok, err := s.lastSave(r.Context())
		switch {
		case err != nil:
			log.FromContext(r.Context()).WarnContext(r.Context(), "Could not read last save", log.FieldError, err)
		case ok:
			body["last_save"] = snap
		}
	}
	NewJSONResponse().Body(body).Write(w)
}
