// Package web serves the blacklist configuration page and its JSON API.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edgard/zanbot/internal/blacklist"
	"github.com/edgard/zanbot/internal/database"
	"github.com/edgard/zanbot/internal/session"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 5 * time.Second
)

//go:embed templates/*.html
var templatesFS embed.FS

var ginModeOnce sync.Once

// StatusReporter reports whether the OneBot connection is up.
type StatusReporter interface {
	Connected() bool
}

// Deps are the components the HTTP handlers read and write.
// Store and Status may be nil.
type Deps struct {
	Blacklist *blacklist.Store
	Store     database.Store
	Session   *session.Identity
	Status    StatusReporter
}

// Server is the HTTP server of the configuration page and API.
type Server struct {
	addr   string
	engine *gin.Engine
	logger *slog.Logger
}

// NewServer builds the gin engine and registers all routes.
func NewServer(addr string, deps Deps, logger *slog.Logger) (*Server, error) {
	if logger == nil {
		logger = slog.Default()
	}
	log := logger.With("component", "web")

	tmpl, err := template.ParseFS(templatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("failed to parse templates: %w", err)
	}

	ginModeOnce.Do(func() { gin.SetMode(gin.ReleaseMode) })
	engine := gin.New()
	engine.SetHTMLTemplate(tmpl)
	engine.Use(requestLogger(log), gin.CustomRecovery(func(c *gin.Context, recovered any) {
		log.ErrorContext(c.Request.Context(), "Panic while handling request", "path", c.Request.URL.Path, "panic", recovered)
		respondError(c, http.StatusInternalServerError, fmt.Sprint(recovered))
	}))

	setupRoutes(engine, &handler{deps: deps, logger: log})

	return &Server{addr: addr, engine: engine, logger: log}, nil
}

// Handler returns the http.Handler of the server.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Start listens on the configured address and serves until ctx is
// cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Start on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: readHeaderTimeout,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server stopped: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error("Error shutting down HTTP server", "error", err)
		return err
	}
	s.logger.Info("HTTP server stopped")
	return nil
}

func setupRoutes(r *gin.Engine, h *handler) {
	r.GET("/", h.configPage)
	r.GET("/config/page", h.configPage)
	r.GET("/config", h.getConfig)
	r.POST("/config", h.postConfig)
	r.GET("/history", h.getHistory)
	r.GET("/history/count", h.countHistory)
	r.GET("/health", h.health)
}

func requestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.DebugContext(c.Request.Context(), "HTTP request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
