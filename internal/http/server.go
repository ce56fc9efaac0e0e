package http

import (
	"context"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"horas/internal/cache"
	"horas/internal/core"
	applog "horas/internal/log"
	"horas/internal/prefs"
	"horas/internal/store"
	appweb "horas/web"
)

// Server renders the time tracking UI and serves the aggregation
// endpoints. All views are computed from one cached entry snapshot per
// owner, so a write only has to invalidate a single key.
type Server struct {
	http.Server
	templates *template.Template

	writer   store.EntryWriter
	lister   store.EntryLister
	deleter  store.EntryDeleter
	profiles store.ProfileReader

	prefs   *prefs.Store
	ownerID string

	rateLimiter *rateLimiter
	metrics     *securityMetrics
	httpLog     *applog.StructuredLogger

	entriesCache  *cache.LRUCache[[]core.TimeEntry]
	entriesLoader *cache.Loader[[]core.TimeEntry]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once

	// now is swapped in tests to pin "today".
	now func() time.Time
}

// NewServer configures routes and templates, returning a ready-to-run
// http.Server.
func NewServer(addr, ownerID string, w store.EntryWriter, l store.EntryLister, d store.EntryDeleter, p store.ProfileReader, prefStore *prefs.Store) *Server {
	mux := http.NewServeMux()

	entriesCache := cache.NewLRUCache[[]core.TimeEntry](100, 5*time.Minute)
	manager := cache.NewManager()
	manager.Register(entriesCache)
	manager.StartCleanup(10 * time.Minute)

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		writer:        w,
		lister:        l,
		deleter:       d,
		profiles:      p,
		prefs:         prefStore,
		ownerID:       ownerID,
		rateLimiter:   newRateLimiter(),
		metrics:       &securityMetrics{},
		httpLog:       applog.NewStructuredLogger(applog.New(applog.DefaultConfig())),
		entriesCache:  entriesCache,
		entriesLoader: cache.NewLoader[[]core.TimeEntry](entriesCache),
		cacheManager:  manager,
		now:           time.Now,
	}

	// Parse embedded templates at startup.
	t, err := template.ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		slog.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
			static.ServeHTTP(w, r)
		}))
	} else {
		slog.Warn("Failed to mount embedded static FS", "error", err)
	}

	mux.HandleFunc("/", s.withSecurityHeaders(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/entries", s.withSecurityHeaders(s.handleCreateEntry))
	mux.HandleFunc("/entries/delete", s.withSecurityHeaders(s.handleDeleteEntry))
	mux.HandleFunc("/prefs", s.withSecurityHeaders(s.handleUpdatePrefs))
	// UI partials
	mux.HandleFunc("/ui/dashboard", s.withSecurityHeaders(s.handleDashboard))
	mux.HandleFunc("/ui/report", s.withSecurityHeaders(s.handleReport))
	mux.HandleFunc("/ui/calendar", s.withSecurityHeaders(s.handleCalendar))
	mux.HandleFunc("/export/csv", s.withSecurityHeaders(s.handleExportCSV))

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		if s.cacheManager != nil {
			s.cacheManager.Stop()
		}
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// withSecurityHeaders adds security headers, rate limiting, and request
// logging to responses.
func (s *Server) withSecurityHeaders(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := extractClientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		s.httpLog.LogHTTPStart(ctx, r, clientIP)

		// Rate limiting applies to writes only; reads are cached anyway.
		if (r.Method == http.MethodPost || r.Method == http.MethodDelete) && !s.rateLimiter.allow(clientIP, s.metrics) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", clientIP, "method", r.Method, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			http.Error(w, "Rate limit exceeded. Please try again later.", http.StatusTooManyRequests)
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.httpLog.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

// getEntries returns the owner's entry snapshot, computing it at most
// once per TTL window even under concurrent partial renders.
func (s *Server) getEntries(ctx context.Context) ([]core.TimeEntry, error) {
	return s.entriesLoader.GetOrCompute(s.ownerID, func() ([]core.TimeEntry, error) {
		cctx, cancel := context.WithTimeout(ctx, 7*time.Second)
		defer cancel()
		return s.lister.ListEntries(cctx, s.ownerID)
	})
}

// invalidateEntries drops every cached view derived from the owner's
// snapshot after a write.
func (s *Server) invalidateEntries() {
	s.entriesCache.DeletePrefix(s.ownerID)
}
