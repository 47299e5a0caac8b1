package http

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"expensetracker/internal/cache"
	"expensetracker/internal/form"
	"expensetracker/internal/log"
	"expensetracker/internal/middleware/ratelimit"
	"expensetracker/internal/middleware/security"
	"expensetracker/internal/store"
	appweb "expensetracker/web"
)

// Options configures NewServer.
type Options struct {
	Addr  string
	Store *store.Store
	// Form defaults to a controller over Store.
	Form   *form.Controller
	Logger *log.Logger
	// RateLimitPerMinute limits mutating requests per client; 0 disables it.
	RateLimitPerMinute int
	// Ready backs /readyz; nil means always ready.
	Ready func(ctx context.Context) error
	// TrustedProxies extend the default private ranges for client IP lookup.
	TrustedProxies []string
}

type Server struct {
	http.Server
	templates *template.Template
	store     *store.Store
	form      *form.Controller
	logger    *log.Logger
	ready     func(ctx context.Context) error

	limiter *ratelimit.Limiter
	caches  *cache.Manager

	shutdownOnce sync.Once
}

// NewServer parses the embedded templates and wires routes and middleware.
func NewServer(opts Options) (*Server, error) {
	if opts.Store == nil {
		return nil, errors.New("http server needs a store")
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	fc := opts.Form
	if fc == nil {
		fc = form.New(opts.Store, form.WithLogger(logger))
	}

	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}

	s := &Server{
		templates: t,
		store:     opts.Store,
		form:      fc,
		logger:    logger,
		ready:     opts.Ready,
		caches:    cache.NewManager(logger),
	}

	ips := security.NewClientIPResolver()
	for _, cidr := range opts.TrustedProxies {
		if err := ips.AddTrustedProxy(cidr); err != nil {
			return nil, err
		}
	}
	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())

	r := chi.NewRouter()
	r.Use(log.Middleware(logger, ips.ClientIP))
	r.Use(headers.Middleware)

	r.Get("/healthz", handleHealth)
	r.Get("/readyz", s.handleReady)
	r.With(security.StaticAssetMiddleware(3600)).
		Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Get("/", s.handleIndex)
	r.Get("/ui/tracker", s.handleTracker)
	r.Get("/api/expenses", s.handleAPIList)

	r.Group(func(r chi.Router) {
		if opts.RateLimitPerMinute > 0 {
			s.limiter = ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute})
			s.caches.Register(s.limiter.Cache())
			r.Use(s.limiter.Middleware(ips.ClientIP, s.onRateLimited))
		}
		r.Post("/ui/form/new", s.handleFormNew)
		r.Post("/ui/form/cancel", s.handleFormCancel)
		r.Post("/ui/form/field", s.handleFormField)
		r.Post("/ui/form/commit", s.handleFormCommit)
		r.Post("/ui/expenses/{id}/edit", s.handleEdit)
		r.Delete("/expenses/{id}", s.handleDelete)
		r.Post("/expenses/{id}/delete", s.handleDelete)
	})

	s.Server = http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Start begins background maintenance. It stops with ctx or Shutdown.
func (s *Server) Start(ctx context.Context) {
	s.caches.StartCleanup(ctx, 5*time.Minute)
}

// Form returns the modal controller used by the UI.
func (s *Server) Form() *form.Controller {
	return s.form
}

// Shutdown gracefully shuts down the server and cleanup routines
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

func (s *Server) onRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
	TooManyRequestsError("Too many requests, please slow down").Write(w)
}
