package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"econorise/internal/api"
	"econorise/internal/core"
	"econorise/internal/health"
	"econorise/internal/log"
	"econorise/internal/middleware/ratelimit"
	"econorise/internal/middleware/security"
	"econorise/internal/middleware/trace"
	appweb "econorise/web"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// Assessor scores a loan application.
type Assessor interface {
	Assess(ctx context.Context, req core.AssessmentRequest) (*core.AssessmentResponse, error)
}

// HealthAnalyzer parses free-text transactions and analyses them.
type HealthAnalyzer interface {
	Analyze(ctx context.Context, text string) ([]core.Transaction, *core.FinancialHealthResult, error)
}

// DashboardReader fetches the read-only lender dashboard data.
type DashboardReader interface {
	GetEconomicIndicators(ctx context.Context) (*core.EconomicIndicators, error)
	GetMarketData(ctx context.Context) ([]core.MarketDataItem, error)
	GetDevelopmentIndicators(ctx context.Context, country string) (*core.DevelopmentIndicators, error)
}

// StatusReporter exposes the latest backend health snapshot.
type StatusReporter interface {
	Status() health.Status
}

// Deps are the collaborators the handlers call.
type Deps struct {
	Assessor  Assessor
	Analyzer  HealthAnalyzer
	Dashboard DashboardReader
	Status    StatusReporter
	Logger    *log.Logger

	// Metrics serves /metrics when set.
	Metrics http.Handler

	// RateLimitPerMinute bounds form submissions per client.
	RateLimitPerMinute int

	// DefaultCountry preselects the development-indicators widget.
	DefaultCountry string

	// TrustedProxies are CIDRs whose X-Forwarded-For header is believed.
	TrustedProxies []string
}

type Server struct {
	http.Server
	templates *template.Template
	deps      Deps
	logger    *log.Logger

	limiter  *ratelimit.Limiter
	detector *security.Detector
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = log.Discard()
	}
	if deps.DefaultCountry == "" {
		deps.DefaultCountry = api.DefaultCountry
	}

	s := &Server{
		deps:     deps,
		logger:   deps.Logger.WithComponent(log.ComponentHTTP),
		limiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		detector: security.NewDetector(),
		started:  time.Now(),
	}

	for _, cidr := range deps.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			s.logger.Warn("Ignoring trusted proxy", log.FieldError, err)
		}
	}

	t, err := parseTemplates()
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	s.Server = http.Server{
		Addr:              addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	tracer := trace.NewMiddleware(s.logger, s.detector.ExtractClientIP)

	r.Use(chimw.Recoverer)
	r.Use(tracer.Middleware)
	r.Use(security.Headers(security.DefaultPolicy()))
	r.Use(s.detector.Middleware)

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		r.With(security.CacheStatic(time.Hour)).Handle("/static/*", static)
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	r.Get("/healthz", s.handleHealth)
	r.Get("/readyz", s.handleReady)
	if s.deps.Metrics != nil {
		r.Handle("/metrics", s.deps.Metrics)
	}

	limit := s.limiter.Middleware(s.detector.ExtractClientIP, func(w http.ResponseWriter, r *http.Request) {
		log.FromContext(r.Context()).WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
			log.FieldClientIP, s.detector.ExtractClientIP(r),
			log.FieldPath, r.URL.Path)
		tooManySubmissions().Write(w)
	})

	r.Group(func(r chi.Router) {
		r.Use(log.ComponentMiddleware(log.ComponentHTTP))

		r.Get("/", s.handleIndex)
		r.Get("/apply", s.handleApply)
		r.Get("/dashboard", s.handleDashboard)

		r.Route("/ui", func(r chi.Router) {
			r.Get("/api-status", s.handleAPIStatus)
			r.Get("/economic-indicators", s.handleEconomicIndicators)
			r.Get("/market-data", s.handleMarketData)
			r.Get("/development-indicators", s.handleDevelopmentIndicators)
			r.With(limit).Post("/financial-health", s.handleFinancialHealth)
		})

		r.With(limit).Post("/apply/step", s.handleApplyStep)
		r.With(log.ComponentMiddleware(log.ComponentAssessment), limit).Post("/apply/submit", s.handleApplySubmit)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		Banner(http.StatusNotFound, "Page not found").Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		Banner(http.StatusMethodNotAllowed, "Method not allowed").Write(w)
	})

	return r
}

// Shutdown gracefully shuts down the server and the rate limiter cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}
