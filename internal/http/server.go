package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"splitter/internal/log"
	"splitter/internal/metrics"
	"splitter/internal/middleware/ratelimit"
	"splitter/internal/middleware/security"
	"splitter/internal/middleware/trace"
	"splitter/internal/services"
	appweb "splitter/web"
)

// Options tunes a Server. Zero values fall back to defaults.
type Options struct {
	RateLimitPerMinute int
	Logger             *log.Logger
	Metrics            *metrics.Metrics
}

// Server serves the ledger page, its JSON API, and the operational probes.
type Server struct {
	http.Server

	ledger    *services.LedgerService
	templates *template.Template
	limiter   *ratelimit.Limiter
	logger    *log.Logger
	metrics   *metrics.Metrics
	started   time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run http.Server.
func NewServer(addr string, ledger *services.LedgerService, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	limits := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limits.RequestsPerMinute = opts.RateLimitPerMinute
	}

	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		ledger:  ledger,
		limiter: ratelimit.NewLimiter(limits),
		logger:  logger.WithComponent(log.ComponentHTTP),
		metrics: opts.Metrics,
		started: time.Now(),
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		s.logger.Warn("Failed parsing templates", log.FieldError, err)
	} else {
		s.templates = t
	}

	app := http.NewServeMux()
	app.HandleFunc("GET /{$}", s.handleIndex)
	app.HandleFunc("GET /ui/ledger", s.handleLedgerPartial)
	app.HandleFunc("GET /api/participants", s.handleListParticipants)
	app.HandleFunc("POST /api/participants", s.handleAddParticipant)
	app.HandleFunc("DELETE /api/participants/{name}", s.handleRemoveParticipant)
	app.HandleFunc("GET /api/expenses", s.handleListExpenses)
	app.HandleFunc("POST /api/expenses", s.handleAddExpense)
	app.HandleFunc("DELETE /api/expenses", s.handleClearExpenses)
	app.HandleFunc("GET /api/balances", s.handleBalances)
	app.HandleFunc("POST /api/notify", s.handleNotify)

	tracer := trace.NewMiddleware(logger, security.ClientIP, opts.Metrics)
	handler := chain(app,
		tracer.Handler,
		security.Headers(security.DefaultHeadersConfig()),
		s.limiter.Middleware(security.ClientIP, s.rejectRateLimited),
	)

	root := http.NewServeMux()
	root.Handle("/", handler)
	root.HandleFunc("GET /healthz", s.handleHealth)
	root.HandleFunc("GET /readyz", s.handleReady)
	if opts.Metrics != nil {
		root.Handle("GET /metrics", opts.Metrics.Handler())
	}
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		root.Handle("GET /static/", security.StaticAssets(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	s.Handler = root
	return s
}

// chain applies middleware so that the first one listed runs first.
func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// Shutdown stops the rate limiter and drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) rejectRateLimited(w http.ResponseWriter, r *http.Request) {
	s.logger.WithComponent(log.ComponentRateLimit).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldClientIP, security.ClientIP(r),
		log.FieldMethod, r.Method,
		log.FieldPath, r.URL.Path)
	respondError(w, r, http.StatusTooManyRequests, "Too many requests, please try again in a minute")
}
