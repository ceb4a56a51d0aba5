// Package api serves voltage-drop calculations over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/dd0wney/apwr-dropcalc/pkg/api/middleware"
	"github.com/dd0wney/apwr-dropcalc/pkg/calc"
	"github.com/dd0wney/apwr-dropcalc/pkg/config"
	"github.com/dd0wney/apwr-dropcalc/pkg/health"
	"github.com/dd0wney/apwr-dropcalc/pkg/logging"
	"github.com/dd0wney/apwr-dropcalc/pkg/metrics"
	"github.com/dd0wney/apwr-dropcalc/pkg/report"
)

// Version is reported by GET /.
const Version = "1.0.0"

// Server represents the HTTP API server
type Server struct {
	cfg            *config.Config
	calculator     *calc.Calculator
	exporter       *report.Exporter
	publisher      *report.S3Publisher
	metrics        *metrics.Registry
	healthChecker  *health.HealthChecker
	rateLimiter    *middleware.RateLimiter
	trustedProxies []*net.IPNet
	logger         logging.Logger
	startTime      time.Time
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics sets the metrics registry. The default is a private registry.
func WithMetrics(r *metrics.Registry) Option {
	return func(s *Server) { s.metrics = r }
}

// WithHealthChecker replaces the default health checker.
func WithHealthChecker(hc *health.HealthChecker) Option {
	return func(s *Server) { s.healthChecker = hc }
}

// WithPublisher enables POST /api/v1/publish.
func WithPublisher(p *report.S3Publisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithTrustedProxies sets the proxies whose forwarding headers identify
// clients for rate limiting.
func WithTrustedProxies(nets []*net.IPNet) Option {
	return func(s *Server) { s.trustedProxies = nets }
}

// NewServer creates a new API server. cfg.System provides the parameters for
// anything a request omits.
func NewServer(cfg *config.Config, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	s := &Server{
		cfg:       cfg,
		logger:    logging.NewNopLogger(),
		startTime: time.Now(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = metrics.NewRegistry()
	}
	if s.healthChecker == nil {
		s.healthChecker = health.NewHealthChecker()
		s.healthChecker.RegisterLivenessCheck("calculator", health.CalculatorCheck())
		s.healthChecker.RegisterReadinessCheck("memory", health.MemoryCheck(0))
	}

	s.calculator = calc.NewCalculator(
		calc.WithWorkers(cfg.Workers),
		calc.WithLogger(s.logger.With(logging.Component("calc"))),
		calc.WithMetrics(s.metrics),
	)
	s.exporter = report.NewExporter(report.WithMetrics(s.metrics))

	if cfg.Server.RateLimit > 0 {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.Server.RateLimit
		rl.BurstSize = cfg.Server.RateBurst
		s.rateLimiter = middleware.NewRateLimiter(rl)
	}
	return s
}

// routes lists every endpoint for GET /.
var routes = []string{
	"GET /",
	"GET /health",
	"GET /ready",
	"GET /metrics",
	"GET /api/v1/defaults",
	"POST /api/v1/validate",
	"POST /api/v1/calculate",
	"POST /api/v1/publish",
}

// Handler builds the complete handler with middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /{$}", s.handleInfo)
	mux.Handle("GET /health", s.healthChecker.LivenessHandler())
	mux.Handle("GET /ready", s.healthChecker.ReadinessHandler())
	mux.Handle("GET /metrics", s.metrics.Handler())

	mux.HandleFunc("GET /api/v1/defaults", s.handleDefaults)
	mux.Handle("POST /api/v1/validate", s.limited(s.handleValidate))
	mux.Handle("POST /api/v1/calculate", s.limited(s.handleCalculate))
	mux.Handle("POST /api/v1/publish", s.limited(s.handlePublish))

	return middleware.Chain(mux,
		middleware.PanicRecovery(s.logger),
		middleware.RequestID(),
		middleware.Logging(s.logger),
		middleware.SecurityHeaders(),
		middleware.BodySizeLimit(s.cfg.Server.MaxBodyBytes),
		middleware.Metrics(s.metrics, routeLabel),
	)
}

// routeLabel uses the matched mux pattern so metric labels stay bounded.
// The mux sets it on the request it is handed, which is the one the metrics
// middleware passed in.
func routeLabel(r *http.Request) string {
	if r.Pattern == "" {
		return "unmatched"
	}
	return r.Pattern
}

// limited wraps calculation endpoints in the per-client rate limiter.
func (s *Server) limited(h http.HandlerFunc) http.Handler {
	if s.rateLimiter == nil {
		return h
	}
	clientID := func(r *http.Request) string {
		return middleware.ClientIP(r, s.trustedProxies)
	}
	onLimited := func(r *http.Request, client string) {
		s.metrics.RecordRateLimited()
		s.logger.Warn("rate limit exceeded",
			logging.String("client", client),
			logging.Path(r.URL.Path),
		)
	}
	return middleware.RateLimit(s.rateLimiter, clientID, onLimited)(h)
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Server.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.cfg.Server.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:      s.Handler(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}
	defer s.Close()

	s.logger.Info("API server starting", logging.String("addr", ln.Addr().String()))

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("API server shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// Close releases background resources.
func (s *Server) Close() {
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}
}
