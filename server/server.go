// Package server serves the dashboard pages and the JSON API over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"games-dashboard/services"
	"games-dashboard/utils"
)

// Options configures the HTTP surface.
type Options struct {
	Addr                string
	PageSize            int
	DefaultPriceLimit   float64
	DefaultReviewsLimit float64
	RequestTimeout      time.Duration
	AccessLog           bool
}

// Server wires the dashboard into a fiber app behind a net/http server.
type Server struct {
	app       *fiber.App
	http      *http.Server
	dashboard *services.Dashboard
	pages     *template.Template
	opts      Options
	logger    *utils.Logger
}

// New builds the routes for dashboard. Nothing listens until Serve or
// ListenAndServe is called.
func New(dashboard *services.Dashboard, opts Options, logger *utils.Logger) (*Server, error) {
	if opts.PageSize <= 0 {
		opts.PageSize = 50
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 30 * time.Second
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("server: parse templates: %w", err)
	}

	s := &Server{
		dashboard: dashboard,
		pages:     pages,
		opts:      opts,
		logger:    logger,
	}

	s.app = fiber.New(fiber.Config{
		ErrorHandler: errorHandler,
		AppName:      "Games Dashboard",
	})
	setupMiddleware(s.app, opts.AccessLog)
	s.routes()

	s.http = &http.Server{
		Addr:              opts.Addr,
		Handler:           adaptor.FiberApp(s.app),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/", s.descriptivePage)
	s.app.Get("/inferential", s.inferentialPage)
	s.app.Get("/raw", s.rawPage)

	s.app.Get("/healthz", s.health)
	s.app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := s.app.Group("/api/v1")
	api.Get("/tags", s.listTags)
	api.Get("/games", s.listGames)
	api.Get("/descriptive", s.descriptive)
	api.Get("/inferential", s.inferential)
	api.Get("/bins", s.bins)
}

// App exposes the fiber app, mainly for in-process requests.
func (s *Server) App() *fiber.App {
	return s.app
}

// ListenAndServe listens on the configured address until Shutdown.
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", s.opts.Addr, err)
	}
	return s.Serve(ln)
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("[server] Serving dashboard on http://%s", ln.Addr())
	if err := s.http.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests and waits for in-flight ones.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("[server] Shutting down")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}

func (s *Server) requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), s.opts.RequestTimeout)
}
