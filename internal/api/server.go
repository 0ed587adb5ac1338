// Package api exposes the planner over a JSON HTTP API for the web client.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/athro-ai/athro/internal/applog"
	"github.com/athro-ai/athro/internal/planner"
)

// ErrMissingSecret is returned by New without a JWT secret.
var ErrMissingSecret = errors.New("api: jwt secret is required")

// Options configures the server.
type Options struct {
	JWTSecret    string
	AllowOrigins string // comma separated; empty allows any origin
	Now          func() time.Time
}

// Server is the HTTP API.
type Server struct {
	svc    *planner.Service
	secret []byte
	now    func() time.Time
	app    *fiber.App
}

// New builds the fiber app and its routes.
func New(svc *planner.Service, opts Options) (*Server, error) {
	if opts.JWTSecret == "" {
		return nil, ErrMissingSecret
	}
	if opts.AllowOrigins == "" {
		opts.AllowOrigins = "*"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Server{svc: svc, secret: []byte(opts.JWTSecret), now: opts.Now}
	s.app = fiber.New(fiber.Config{
		AppName:               "athro",
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
		ReadTimeout:           15 * time.Second,
		WriteTimeout:          30 * time.Second,
		IdleTimeout:           90 * time.Second,
	})

	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: opts.AllowOrigins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))
	s.app.Use(requestLogger())

	s.routes()
	return s, nil
}

func (s *Server) routes() {
	s.app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	api := s.app.Group("/api", s.auth())
	api.Get("/weeks/:date", s.getWeek)
	api.Post("/events", s.createEvent)
	api.Put("/events/:id", s.updateEvent)
	api.Patch("/events/:id/move", s.moveEvent)
	api.Delete("/events/:id", s.deleteEvent)
	api.Get("/slots", s.listSlots)
	api.Put("/slots", s.replaceSlots)
	api.Get("/presets", s.listPresets)
	api.Get("/export.ics", s.exportICS)
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Listen serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Listen(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		applog.Info("api listening", "addr", addr)
		errc <- s.app.Listen(addr)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.app.ShutdownWithContext(shutdownCtx)
}
