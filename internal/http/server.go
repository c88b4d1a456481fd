package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"chitieu/internal/cache"
	"chitieu/internal/core"
	applog "chitieu/internal/log"
	"chitieu/internal/middleware/ratelimit"
	"chitieu/internal/middleware/security"
	"chitieu/internal/sheets"
	appweb "chitieu/web"
)

// Store is the transaction store the server reads and appends to.
type Store interface {
	sheets.TransactionWriter
	sheets.TransactionReader
	sheets.CategoryReader
}

// Options configures NewServer. Zero values pick defaults.
type Options struct {
	Currency    string
	Location    *time.Location
	SnapshotTTL time.Duration
	RateLimit   ratelimit.Config
	Logger      *applog.Logger
	// Now replaces the clock in tests.
	Now func() time.Time
}

type Server struct {
	http.Server
	templates *template.Template
	store     Store
	snapshots *cache.SnapshotCache
	caches    *cache.Manager
	limiter   *ratelimit.Limiter
	logger    *applog.Logger

	currency string
	loc      *time.Location
	now      func() time.Time
	started  time.Time

	shutdownOnce sync.Once
}

// NewServer configures routes and templates, returning a ready-to-run server.
func NewServer(addr string, store Store, opts Options) (*Server, error) {
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig())
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Currency == "" {
		opts.Currency = core.DefaultCurrency
	}

	t, err := template.New("").Funcs(templateFuncs(opts.Currency)).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	mux := http.NewServeMux()
	s := &Server{
		Server: http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
		},
		templates: t,
		store:     store,
		snapshots: cache.NewSnapshotCache(store, opts.SnapshotTTL),
		caches:    cache.NewManager(),
		limiter:   ratelimit.NewLimiter(opts.RateLimit),
		logger:    opts.Logger.WithComponent(applog.ComponentHTTP),
		currency:  opts.Currency,
		loc:       opts.Location,
		now:       opts.Now,
		started:   opts.Now(),
	}
	s.caches.Register(s.snapshots)

	static, err := fs.Sub(appweb.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount static assets: %w", err)
	}
	mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(
		http.StripPrefix("/static/", http.FileServer(http.FS(static)))))

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("/transactions", s.handleCreateTransaction)
	mux.HandleFunc("GET /ui/dashboard", s.handleDashboardPartial)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboardJSON)

	var h http.Handler = mux
	h = s.limiter.Middleware(s.clientIP, s.rateLimited, http.MethodPost)(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = s.logRequests(h)
	h = applog.RequestIDMiddleware(requestID)(h)
	h = assignRequestID(h)
	h = applog.Middleware(s.logger)(h)
	s.Handler = h

	return s, nil
}

// Start begins background cache and rate limiter cleanup.
func (s *Server) Start() {
	s.caches.StartCleanup(10 * time.Minute)
	s.limiter.Start()
}

// Shutdown stops background work and then the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.caches.Stop()
		s.limiter.Stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

func (s *Server) today() core.Date {
	return core.DateOf(s.now().In(s.loc))
}

func (s *Server) clientIP(r *http.Request) string {
	return security.ClientIP(r, security.DefaultTrustedProxies)
}

func (s *Server) rateLimited(w http.ResponseWriter, r *http.Request) {
	applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
		applog.FieldClientIP, s.clientIP(r),
		applog.FieldPath, r.URL.Path)
	ErrorResponse(http.StatusTooManyRequests, msgRateLimited).Write(w)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ctx := r.Context()
		sl := applog.NewStructuredLogger(applog.FromContext(ctx))
		ip := s.clientIP(r)

		sl.LogHTTPStart(ctx, r, ip)
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)
		sl.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), ip)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

const requestIDHeader = "X-Request-ID"

// assignRequestID keeps a well-formed incoming X-Request-ID or creates one,
// and echoes it on the response.
func assignRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(requestIDHeader)
		if id == "" || len(id) > 64 {
			id = generateRequestID()
			r.Header.Set(requestIDHeader, id)
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r)
	})
}

func requestID(r *http.Request) string {
	return r.Header.Get(requestIDHeader)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(b)
}
