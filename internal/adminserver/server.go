// Package adminserver is the read-only introspection HTTP surface: it
// never mutates engine state and never sits on the S11/GTP-U/SGi message
// path.
package adminserver

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	commonmetrics "github.com/your-org/epc-sgw/common/metrics"
	"github.com/your-org/epc-sgw/internal/gwcontext"
)

// Server is the admin HTTP surface.
type Server struct {
	router *chi.Mux
	http   *http.Server
	store  *gwcontext.Store
	logger *zap.Logger
}

// New builds a Server listening on addr, reading from store.
func New(addr string, store *gwcontext.Store, logger *zap.Logger) *Server {
	s := &Server{
		store:  store,
		logger: logger,
	}
	s.router = chi.NewRouter()
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(5 * time.Second))

	s.router.Get("/health", s.handleHealth)
	s.router.Get("/ready", s.handleReady)
	s.router.Get("/admin/sessions", s.handleListSessions)
	s.router.Get("/admin/sessions/{imsi}", s.handleGetSessionsByIMSI)
	s.router.Get("/admin/stats", s.handleStats)

	s.http = &http.Server{
		Addr:    addr,
		Handler: s.router,
	}
	return s
}

// Start begins serving in the background. The returned channel receives the
// listener's terminal error.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("admin server listening", zap.String("addr", s.http.Addr))
		errCh <- s.http.ListenAndServe()
	}()
	return errCh
}

// Stop gracefully shuts the server down.
func (s *Server) Stop(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		duration := time.Since(start)
		s.logger.Debug("admin request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", duration))
		commonmetrics.RecordHTTPRequest(r.Method, routePattern(r), strconv.Itoa(ww.Status()), duration.Seconds())
	})
}

func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
		return rctx.RoutePattern()
	}
	return r.URL.Path
}
