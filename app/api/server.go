// Package api serves the parser over HTTP.
package api

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"spacyserver/app/config"
	"spacyserver/app/service/amrviz"
	"spacyserver/app/service/models"
	"spacyserver/app/service/parser"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/samber/do"
)

const shutdownTimeout = 10 * time.Second

var _ do.Shutdownable = (*Server)(nil)

type Server struct {
	addr      string
	app       *fiber.App
	modelsSvc *models.Service
	parserSvc *parser.Service
	amrvizSvc *amrviz.Service

	stopOnce sync.Once
	stopErr  error
}

func New(di *do.Injector) (*Server, error) {
	cfg := do.MustInvoke[*config.Config](di)

	s := &Server{
		addr:      cfg.Server.Addr,
		modelsSvc: do.MustInvoke[*models.Service](di),
		parserSvc: do.MustInvoke[*parser.Service](di),
		amrvizSvc: do.MustInvoke[*amrviz.Service](di),
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "spacyserver",
		BodyLimit:             cfg.Server.BodyLimit,
		DisableStartupMessage: true,
		ErrorHandler:          errorHandler,
	})

	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	s.app.Use(accessLog)

	s.app.Get("/health", s.health)
	s.app.Post("/parse", s.parse)
	s.app.Post("/amr/render", s.renderAMR)
	s.app.Use(notFound)

	return s, nil
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		slog.Info("HTTP server listening", "addr", s.addr)
		errCh <- s.app.Listen(s.addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		return s.stop()
	}
}

// Shutdown stops the server unless Run already did.
func (s *Server) Shutdown() error {
	return s.stop()
}

func (s *Server) stop() error {
	s.stopOnce.Do(func() {
		slog.Info("Shutting down HTTP server")
		s.stopErr = s.app.ShutdownWithTimeout(shutdownTimeout)
	})

	return s.stopErr
}

func accessLog(c *fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		status = fiberErr.Code
	} else if err != nil {
		status = fiber.StatusInternalServerError
	}

	slog.Debug("HTTP request",
		"method", c.Method(),
		"path", c.Path(),
		"status", status,
		"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
		"duration", time.Since(start),
	)

	return err
}
