package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/dinoventures/moneymanager/internal/apperr"
	"github.com/dinoventures/moneymanager/internal/config"
	"github.com/dinoventures/moneymanager/internal/routes"
)

// Server wraps the Fiber application and shared dependencies.
type Server struct {
	app   *fiber.App
	cfg   config.Config
	db    *pgxpool.Pool
	cache *redis.Client
}

// New instantiates the HTTP server and delegates route wiring to routes.Setup.
func New(cfg config.Config, db *pgxpool.Pool, cache *redis.Client, logger *slog.Logger) (*Server, error) {
	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		ErrorHandler: errorHandler(logger),
	})

	if err := routes.Setup(app, routes.Deps{Cfg: cfg, DB: db, Cache: cache, Logger: logger}); err != nil {
		return nil, err
	}

	return &Server{app: app, cfg: cfg, db: db, cache: cache}, nil
}

// Listen starts the HTTP server.
func (s *Server) Listen() error {
	return s.app.Listen(s.cfg.Address())
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// errorHandler translates domain errors into HTTP responses. Every error body
// carries a stable machine-readable code alongside the human message.
func errorHandler(logger *slog.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var appErr *apperr.Error
		if errors.As(err, &appErr) {
			status, body := render(appErr)
			if appErr.Code == apperr.CodeInternal {
				logger.Error("request failed", "path", c.Path(), "error", err)
			}
			return c.Status(status).JSON(body)
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return c.Status(fiberErr.Code).JSON(fiber.Map{
				"code":    http.StatusText(fiberErr.Code),
				"message": fiberErr.Message,
			})
		}

		logger.Error("unhandled error", "path", c.Path(), "error", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"code":    string(apperr.CodeInternal),
			"message": "internal error",
		})
	}
}

func render(e *apperr.Error) (int, fiber.Map) {
	body := fiber.Map{"code": string(e.Code), "message": e.Message}
	switch e.Code {
	case apperr.CodeNotFound:
		return http.StatusNotFound, body
	case apperr.CodeConflict:
		return http.StatusConflict, body
	case apperr.CodeInvalidInput:
		if len(e.Fields) > 0 {
			body["fields"] = e.Fields
		}
		return http.StatusBadRequest, body
	case apperr.CodeInsufficientBalance:
		body["availableBalance"] = e.Available.StringFixed(2)
		body["requiredAmount"] = e.Required.StringFixed(2)
		return http.StatusBadRequest, body
	case apperr.CodeUnauthorized:
		return http.StatusUnauthorized, body
	default:
		return http.StatusInternalServerError, fiber.Map{
			"code":    string(apperr.CodeInternal),
			"message": "internal error",
		}
	}
}
