package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cinematch/internal/logging"
	"cinematch/internal/recommend"
)

// Recommender produces enriched recommendations.
type Recommender interface {
	Recommend(ctx context.Context, title string, k int) ([]recommend.Result, error)
	Window() int
}

// Catalog exposes the movie list.
type Catalog interface {
	Len() int
	Search(query string, limit int) []string
	Suggest(title string, limit int) []string
}

// Options configures a Server.
type Options struct {
	// Bind is the listen address, for example "127.0.0.1:8757".
	Bind string
	// Token enables bearer auth when non-empty.
	Token string
	// DefaultCount is used when a request omits k.
	DefaultCount int
	// RateLimit is requests per minute per client IP; 0 disables it.
	RateLimit int
	// Circuit reports the metadata circuit breaker state for health checks.
	Circuit func() string
	Logger  *slog.Logger
}

// Server is the cinematch HTTP API.
type Server struct {
	opts    Options
	engine  Recommender
	catalog Catalog
	logger  *slog.Logger
	handler http.Handler

	mu       sync.Mutex
	listener net.Listener
	server   *http.Server
}

// New builds a Server. It does not listen until Start is called.
func New(engine Recommender, catalog Catalog, opts Options) (*Server, error) {
	if engine == nil || catalog == nil {
		return nil, errors.New("api server requires an engine and a catalog")
	}
	if opts.DefaultCount < 1 || opts.DefaultCount > engine.Window() {
		opts.DefaultCount = min(5, engine.Window())
	}
	s := &Server{
		opts:    opts,
		engine:  engine,
		catalog: catalog,
		logger:  logging.NewComponentLogger(opts.Logger, "api-server"),
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(accessLog(s.logger))

	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		if s.opts.RateLimit > 0 {
			r.Use(httprate.Limit(s.opts.RateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
					s.writeError(w, r, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
				}),
			))
		}
		r.Use(authMiddleware(s.opts.Token))

		r.Get("/recommend", s.handleRecommend)
		r.Get("/api/recommend", s.handleRecommend)
		r.Get("/api/movies", s.handleMovies)
		r.Get("/api/health", s.handleHealth)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusNotFound, "not_found", "no such route", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		s.writeError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed", nil)
	})
	return r
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start listens on the configured bind address and serves until ctx is
// cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	bind := strings.TrimSpace(s.opts.Bind)
	if bind == "" {
		return errors.New("api bind address is empty")
	}
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}
	server := &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	s.mu.Lock()
	s.listener = listener
	s.server = server
	s.mu.Unlock()

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
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

// Stop shuts the server down, waiting up to five seconds for in-flight requests.
func (s *Server) Stop() {
	s.mu.Lock()
	server := s.server
	s.server = nil
	s.listener = nil
	s.mu.Unlock()
	if server == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("api server shutdown incomplete", logging.Error(err))
	}
}
