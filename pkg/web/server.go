// Package web serves the toggle page, the control API, the live status
// websocket and the browser camera websocket.
package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-lookout/internal/metrics"
	"github.com/teslashibe/go-lookout/pkg/assistant"
	"github.com/teslashibe/go-lookout/pkg/camera"
	"github.com/teslashibe/go-lookout/pkg/hub"
)

//go:embed static
var staticFiles embed.FS

// Controller is the assistant as the server sees it. *assistant.Loop
// implements it.
type Controller interface {
	Start(ctx context.Context) (assistant.Status, error)
	Stop(ctx context.Context) (assistant.Status, error)
	Toggle(ctx context.Context) (assistant.Status, error)
	Status() assistant.Status
}

// Config holds server settings.
type Config struct {
	// Addr is the listen address, e.g. ":8080".
	Addr string

	// AllowOrigins is passed to the CORS middleware.
	AllowOrigins string

	// Camera describes the capture the page is asked for when it acts as
	// the camera.
	Camera camera.Config

	// CommandTimeout bounds how long an API call waits on the loop.
	CommandTimeout time.Duration

	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration
}

// DefaultConfig listens on :8080.
func DefaultConfig() Config {
	return Config{
		Addr:            ":8080",
		AllowOrigins:    "*",
		Camera:          camera.DefaultConfig(),
		CommandTimeout:  5 * time.Second,
		ShutdownTimeout: 5 * time.Second,
	}
}

// Server is the HTTP surface of the assistant.
type Server struct {
	cfg    Config
	app    *fiber.App
	ctrl   Controller
	status *hub.Hub
	push   *camera.Push
	logger *slog.Logger
}

// Options carries the optional collaborators of a Server.
type Options struct {
	// Push enables /ws/camera. Nil when the camera is local.
	Push *camera.Push

	// Metrics enables /metrics.
	Metrics *metrics.Metrics

	Logger *slog.Logger
}

// New builds the server. statusHub must be the hub the loop's status
// sink publishes to (see NewStatusPublisher).
func New(cfg Config, ctrl Controller, statusHub *hub.Hub, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CommandTimeout <= 0 {
		cfg.CommandTimeout = 5 * time.Second
	}

	s := &Server{
		cfg:    cfg,
		ctrl:   ctrl,
		status: statusHub,
		push:   opts.Push,
		logger: logger.With("component", "web"),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Lookout",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.AllowOrigins}))
	app.Use(s.logRequests)

	api := app.Group("/api")
	api.Get("/status", s.handleStatus)
	api.Get("/config", s.handleConfig)
	api.Post("/toggle", s.handleCommand(ctrl.Toggle))
	api.Post("/start", s.handleCommand(ctrl.Start))
	api.Post("/stop", s.handleCommand(ctrl.Stop))

	app.Get("/healthz", s.handleHealth)
	if opts.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(opts.Metrics.Handler()))
	}

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws/status", websocket.New(s.handleStatusWS))
	if s.push != nil {
		app.Get("/ws/camera", s.cameraHandler())
	}

	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	app.Use("/", filesystem.New(filesystem.Config{
		Root:   http.FS(sub),
		Index:  "index.html",
		Browse: false,
	}))

	s.app = app
	return s
}

// App exposes the fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on cfg.Addr until ctx ends.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx ends, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() { errCh <- s.app.Listener(ln) }()

	s.logger.Info("web server listening", "addr", ln.Addr().String(), "browser_camera", s.push != nil)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if err := s.app.ShutdownWithTimeout(timeout); err != nil {
		s.logger.Warn("shutdown", "error", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}

func (s *Server) logRequests(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()
	s.logger.Debug("request",
		"method", c.Method(),
		"path", c.Path(),
		"status", c.Response().StatusCode(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return err
}

func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
