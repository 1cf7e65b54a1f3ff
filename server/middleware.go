package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"games-dashboard/models"
	"games-dashboard/observability"
)

// setupMiddleware configures global middleware for the Fiber app
func setupMiddleware(app *fiber.App, accessLog bool) {
	app.Use(recover.New(recover.Config{
		EnableStackTrace: true,
	}))

	if accessLog {
		app.Use(logger.New(logger.Config{
			Format: "[${time}] ${status} - ${method} ${path} (${latency})\n",
		}))
	}

	app.Use(metricsMiddleware)

	app.Use("/api", cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept"},
	}))
}

func metricsMiddleware(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		status = fiberErr.Code
	case err != nil:
		status = statusFor(err)
	}

	route := c.Route().Path
	observability.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	observability.HTTPRequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	return err
}

// errorHandler provides consistent error responses
func errorHandler(c fiber.Ctx, err error) error {
	code := statusFor(err)
	message := "Internal Server Error"

	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
		message = fiberErr.Message
	case code == fiber.StatusBadRequest:
		message = err.Error()
	}

	return c.Status(code).JSON(fiber.Map{
		"error": message,
		"code":  code,
	})
}

func statusFor(err error) int {
	if errors.Is(err, models.ErrConfig) {
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}
