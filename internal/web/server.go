package web

import (
	"context"
	"html/template"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/vbonduro/lostfound/internal/domain"
	"github.com/vbonduro/lostfound/internal/metrics"
	"github.com/vbonduro/lostfound/internal/photostore"
	"github.com/vbonduro/lostfound/internal/service"
)

// adminRepository is the subset of store.AdminStore the login flow requires.
type adminRepository interface {
	GetByUsername(ctx context.Context, username string) (*domain.Admin, error)
}

// Options carries the settings the HTTP layer needs from configuration.
type Options struct {
	JWTSecret           string
	SecureCookies       bool
	SubmitRatePerMinute int
	// PhotoPublicBase is where photo URLs point. An absolute URL on another
	// origin is allowed as an image source.
	PhotoPublicBase string
}

type Server struct {
	service    *service.ItemService
	admins     adminRepository
	templates  fs.FS
	photoStore photostore.PhotoStore
	metrics    *metrics.Metrics
	limiter    *rateLimiter
	opts       Options
	mux        *http.ServeMux
	tmplFuncs  template.FuncMap
	csp        string
	logger     *slog.Logger
}

func NewServer(
	svc *service.ItemService,
	admins adminRepository,
	tmpl fs.FS,
	ps photostore.PhotoStore,
	m *metrics.Metrics,
	opts Options,
	logger *slog.Logger,
) *Server {
	s := &Server{
		service:    svc,
		admins:     admins,
		templates:  tmpl,
		photoStore: ps,
		metrics:    m,
		limiter:    newRateLimiter(opts.SubmitRatePerMinute, time.Minute),
		opts:       opts,
		mux:        http.NewServeMux(),
		csp:        contentSecurityPolicy(opts.PhotoPublicBase),
		logger:     logger,
		tmplFuncs: template.FuncMap{
			"date":     func(t time.Time) string { return t.Format(domain.DateLayout) },
			"datetime": func(t time.Time) string { return t.Format("2006-01-02 15:04") },
		},
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /{$}", s.handleHome)
	s.mux.HandleFunc("GET /report", s.handleReportForm)
	s.mux.Handle("POST /report", s.rateLimited(http.HandlerFunc(s.handleSubmitReport)))
	s.mux.Handle("POST /report/suggest", s.rateLimited(http.HandlerFunc(s.handleSuggest)))
	s.mux.HandleFunc("GET /items", s.handleBrowse)
	s.mux.Handle("POST /items/{id}/claim", s.rateLimited(http.HandlerFunc(s.handleClaim)))
	s.mux.HandleFunc("GET /photos/{key...}", s.handleGetPhoto)

	s.mux.HandleFunc("GET /admin/login", s.handleLoginPage)
	s.mux.Handle("POST /admin/login", s.rateLimited(http.HandlerFunc(s.handleLogin)))
	s.mux.HandleFunc("POST /admin/logout", s.handleLogout)
	s.mux.Handle("GET /admin", s.requireAdmin(http.HandlerFunc(s.handleAdmin)))
	s.mux.Handle("GET /admin/items/{id}", s.requireAdmin(http.HandlerFunc(s.handleItemDetails)))
	s.mux.Handle("POST /admin/items/{id}/approve", s.requireAdmin(http.HandlerFunc(s.handleApprove)))
	s.mux.Handle("DELETE /admin/items/{id}", s.requireAdmin(http.HandlerFunc(s.handleDelete)))

	s.mux.Handle("GET /metrics", s.requireAdmin(s.metrics.Handler()))
}

// contentSecurityPolicy allows images from the photo origin when photos are
// served from somewhere other than this server.
func contentSecurityPolicy(photoPublicBase string) string {
	imgSrc := "'self' data:"
	if u, err := url.Parse(photoPublicBase); err == nil && u.IsAbs() && u.Host != "" {
		imgSrc += " " + u.Scheme + "://" + u.Host
	}
	return "default-src 'self'; " +
		"script-src 'self' 'unsafe-inline' https://unpkg.com; " +
		"style-src 'self' 'unsafe-inline' https://fonts.googleapis.com; " +
		"font-src https://fonts.gstatic.com; " +
		"img-src " + imgSrc + "; " +
		"connect-src 'self'"
}

// securityHeaders adds defensive HTTP response headers to every response.
func securityHeaders(csp string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", csp)
		next.ServeHTTP(w, r)
	})
}

// statusRecorder wraps http.ResponseWriter to capture the written status code.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// requestLogger logs every request and records its latency by route pattern.
// The pattern is only known after routing, so it is read from the request the
// mux saw once the handler returns.
func requestLogger(logger *slog.Logger, m *metrics.Metrics, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		duration := time.Since(start)
		route := r.Pattern
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(r.Method, route, rec.status, duration)
		logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", duration.Milliseconds(),
		)
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestLogger(s.logger, s.metrics, securityHeaders(s.csp, s.mux)).ServeHTTP(w, r)
}

// HTTPServer returns an *http.Server serving s on addr. The caller owns its
// lifecycle, including graceful shutdown.
func (s *Server) HTTPServer(addr string) *http.Server {
	return &http.Server{
		Addr:         addr,
		Handler:      s,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
}

// renderPage parses and executes a full-page template set.
func (s *Server) renderPage(w http.ResponseWriter, status int, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.ExecuteTemplate(w, "base", data)
}

// renderPartial parses files and executes the {{define}} block called name.
func (s *Server) renderPartial(w http.ResponseWriter, status int, name string, data any, files ...string) error {
	tmpl, err := template.New("").Funcs(s.tmplFuncs).ParseFS(s.templates, files...)
	if err != nil {
		http.Error(w, "template error", http.StatusInternalServerError)
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	return tmpl.ExecuteTemplate(w, name, data)
}

// isHTMX reports whether the request was issued by htmx.
func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

func closeWithLog(c io.Closer, label string, logger *slog.Logger) {
	if err := c.Close(); err != nil {
		logger.Error("failed to close resource", "label", label, "error", err)
	}
}
