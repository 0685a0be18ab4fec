// Package web provides the HTTP server and JSON API for statement
// intake: upload, carrier confirmation, processing and export download.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/benefitsops/commission-processor/internal/carrierconfig"
	"github.com/benefitsops/commission-processor/internal/config"
	"github.com/benefitsops/commission-processor/internal/drive"
	"github.com/benefitsops/commission-processor/internal/recognition"
	"github.com/benefitsops/commission-processor/internal/store"
	"github.com/benefitsops/commission-processor/internal/transform"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the statement processing application.
type Server struct {
	cfg        *config.Config
	signatures *recognition.Store
	configs    *carrierconfig.Store
	agents     *transform.AgentDirectory
	db         *store.Store
	drive      *drive.Client

	router *chi.Mux
	server *http.Server
}

// NewServer wires the API over the given stores.
func NewServer(cfg *config.Config, signatures *recognition.Store, configs *carrierconfig.Store, agents *transform.AgentDirectory, db *store.Store, driveClient *drive.Client) *Server {
	s := &Server{
		cfg:        cfg,
		signatures: signatures,
		configs:    configs,
		agents:     agents,
		db:         db,
		drive:      driveClient,
	}
	s.router = chi.NewRouter()
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		limiter := newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	s.router.Route("/api", func(r chi.Router) {
		// Statement intake
		uploadGroup := r
		if s.cfg.Rate.Enabled {
			uploadLimiter := newRateLimiter(s.cfg.Rate.UploadLimit, time.Minute)
			uploadGroup = r.With(uploadLimiter.middleware)
		}
		uploadGroup.Post("/upload", s.handleUpload)
		uploadGroup.Post("/process", s.handleProcess)

		r.Post("/confirm-carrier", s.handleConfirmCarrier)
		r.Get("/carriers", s.handleCarriers)
		r.Get("/templates", s.handleTemplates)

		// Export download
		r.Get("/download/{filename}", s.handleDownload)

		// Lookup administration
		r.Get("/lookups/{carrier}", s.handleGetLookups)
		r.Put("/lookups/{carrier}/{lookup}", s.handleUpdateLookup)
		r.Delete("/lookups/{carrier}/{lookup}/{key}", s.handleDeleteLookupEntry)

		// Import history
		r.Get("/imports", s.handleImportHistory)
		r.Delete("/imports/{batchID}", s.handleRollbackImport)

		// Drive integration status
		r.Get("/drive/status", s.handleDriveStatus)
	})
}

// Start begins listening for HTTP requests.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int
	window   time.Duration
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every minute.
func (rl *rateLimiter) cleanup() {
	for {
		time.Sleep(time.Minute)
		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1,
			lastReset: time.Now(),
		}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by IP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ip := r.RemoteAddr
		if realIP := r.Header.Get("X-Real-IP"); realIP != "" {
			ip = realIP
		}

		if !rl.allow(ip) {
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		next.ServeHTTP(w, r)
	})
}
