package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gofrs/flock"

	"audiosurv/internal/alertstore"
	"audiosurv/internal/config"
	"audiosurv/internal/gateway"
	"audiosurv/internal/logging"
	"audiosurv/internal/metrics"
	"audiosurv/internal/pipeline"
)

// Options configures a Server.
type Options struct {
	Config   *config.Config
	Store    *alertstore.Store
	Keywords *alertstore.KeywordStore
	Pipeline *pipeline.Pipeline
	// Analyzer serves keyword analysis. Nil disables the endpoint.
	Analyzer gateway.KeywordAnalyzer
	// Metrics receives store size updates. Nil is allowed.
	Metrics *metrics.PipelineMetrics
	// MetricsHandler serves /metrics. Nil disables the endpoint.
	MetricsHandler http.Handler
	Logger         *slog.Logger
}

// Server is the HTTP API.
type Server struct {
	cfg      *config.Config
	store    *alertstore.Store
	keywords *alertstore.KeywordStore
	pipeline *pipeline.Pipeline
	analyzer gateway.KeywordAnalyzer
	metrics  *metrics.PipelineMetrics
	scans    *scanTracker
	logger   *slog.Logger

	handler  http.Handler
	lockPath string
	lock     *flock.Flock

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
	scanCtx  context.Context
	stopScan context.CancelFunc
	bg       sync.WaitGroup
}

// New validates opts and builds the router. The pipeline gains an observer
// that tracks scan progress for GET /api/scans/{id}.
func New(opts Options) (*Server, error) {
	if opts.Config == nil || opts.Store == nil || opts.Keywords == nil || opts.Pipeline == nil {
		return nil, errors.New("server requires config, store, keywords, and pipeline")
	}
	s := &Server{
		cfg:      opts.Config,
		store:    opts.Store,
		keywords: opts.Keywords,
		pipeline: opts.Pipeline,
		analyzer: opts.Analyzer,
		metrics:  opts.Metrics,
		scans:    newScanTracker(),
		logger:   logging.NewComponentLogger(opts.Logger, "api-server"),
		lockPath: opts.Config.LockPath(),
	}
	s.lock = flock.New(s.lockPath)
	s.scanCtx, s.stopScan = context.WithCancel(context.Background())
	s.pipeline.AddObserver(s.scans)
	s.handler = s.routes(opts.MetricsHandler)
	return s, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

func (s *Server) routes(metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(s.logger))

	if metricsHandler != nil {
		r.Handle("/metrics", metricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(requireBearer(s.cfg.Server.Token))
		r.Get("/status", s.handleStatus)

		r.Route("/alerts", func(r chi.Router) {
			r.Get("/", s.handleListAlerts)
			r.Get("/recent", s.handleRecentAlert)
			r.Get("/summary", s.handleSummary)
			r.Get("/{id}", s.handleGetAlert)
			r.Delete("/{id}", s.handleDeleteAlert)
		})

		r.Route("/scans", func(r chi.Router) {
			r.Post("/", s.handleSubmitScan)
			r.Get("/{id}", s.handleGetScan)
		})

		r.Route("/keywords", func(r chi.Router) {
			r.Get("/", s.handleListKeywords)
			r.Post("/", s.handleAddKeyword)
			r.Delete("/{id}", s.handleDeleteKeyword)
			r.Post("/{id}/analyze", s.handleAnalyzeKeyword)
		})
	})
	return r
}

// Start acquires the single-instance lock and begins serving.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server != nil {
		return errors.New("server already running")
	}

	if err := os.MkdirAll(filepath.Dir(s.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := s.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another audiosurv server is already using %s", s.cfg.Paths.DataDir)
	}

	bind := strings.TrimSpace(s.cfg.Server.Bind)
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		_ = s.lock.Unlock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener
	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	srv := s.server
	s.bg.Add(2)
	go func() {
		defer s.bg.Done()
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.ErrorWithContext(s.logger, "api server error", "api_serve_failed", logging.Error(err))
		}
	}()
	go func() {
		defer s.bg.Done()
		s.trackStoreSize(ctx)
	}()

	s.logger.Info("api server listening",
		logging.String("address", listener.Addr().String()),
		logging.String("lock", s.lockPath),
		logging.Bool("auth", strings.TrimSpace(s.cfg.Server.Token) != ""),
	)
	return nil
}

// Addr returns the bound address, or "" before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts down HTTP, cancels in-flight scans so their preliminary alerts
// are withdrawn, flushes the stores and releases the lock.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	srv := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()

	var errs []error
	if srv != nil {
		if err := srv.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http: %w", err))
		}
	}
	s.stopScan()
	s.pipeline.Wait()
	s.bg.Wait()

	if err := s.store.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush alerts: %w", err))
	}
	if err := s.keywords.Flush(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush keywords: %w", err))
	}
	if srv != nil {
		if err := s.lock.Unlock(); err != nil {
			logging.WarnWithContext(s.logger, "failed to release server lock", "lock_release_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "the next server start may need the lock file removed"),
			)
		}
		s.logger.Info("api server stopped")
	}
	return errors.Join(errs...)
}

func (s *Server) trackStoreSize(ctx context.Context) {
	updates, cancel := s.store.Subscribe()
	defer cancel()
	s.metrics.SetStoredAlerts(s.store.Len())
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.scanCtx.Done():
			return
		case _, ok := <-updates:
			if !ok {
				return
			}
			s.metrics.SetStoredAlerts(s.store.Len())
		}
	}
}
