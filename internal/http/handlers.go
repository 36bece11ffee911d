package http

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/credentials"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/dashboard"
	"github.com/ANIKETSHETTY47/phase-energy-monitor/internal/domain"
)

// ReportUploader archives a rendered report and returns a download URL.
type ReportUploader interface {
	UploadReport(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type Deps struct {
	App      *dashboard.App
	Users    *credentials.Store
	Sessions *credentials.Sessions
	// Uploader is optional; without it upload=true is rejected.
	Uploader ReportUploader
	// Location interprets custom report dates. Defaults to UTC.
	Location *time.Location
	Timeout  time.Duration
}

type handlers struct {
	Deps
}

func Register(app *fiber.App, d Deps) {
	if d.Location == nil {
		d.Location = time.UTC
	}
	if d.Timeout <= 0 {
		d.Timeout = 15 * time.Second
	}
	h := &handlers{Deps: d}

	app.Get("/health", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	auth := app.Group("/auth")
	auth.Post("/signup", h.signup)
	auth.Post("/login", h.login)

	// gated per route so unknown paths still 404
	gated := func(method, path string, handler fiber.Handler) {
		app.Add(method, path, h.requireSession, handler)
	}
	gated(fiber.MethodPost, "/auth/logout", h.logout)
	gated(fiber.MethodPost, "/auth/password", h.changePassword)
	gated(fiber.MethodGet, "/phase", h.getPhase)
	gated(fiber.MethodPut, "/phase", h.putPhase)
	gated(fiber.MethodGet, "/snapshot", h.snapshot)
	gated(fiber.MethodGet, "/fields", h.fields)
	gated(fiber.MethodGet, "/history/:field", h.history)
	gated(fiber.MethodPut, "/history/:field/limit", h.putLimit)
	gated(fiber.MethodGet, "/thresholds", h.thresholds)
	gated(fiber.MethodPut, "/thresholds/:parameter", h.putThreshold)
	gated(fiber.MethodGet, "/setpoint/:field", h.setPoint)
	gated(fiber.MethodGet, "/report", h.report)
}

// NewServer builds the fiber app the routes expect. Immutable makes request strings
// safe to keep after a handler returns.
func NewServer() *fiber.App {
	return fiber.New(fiber.Config{Immutable: true, DisableStartupMessage: true})
}

func (h *handlers) ctx(c *fiber.Ctx) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.UserContext(), h.Timeout)
}

func (h *handlers) requireSession(c *fiber.Ctx) error {
	token := bearer(c.Get(fiber.HeaderAuthorization))
	user, ok := h.Sessions.Lookup(token)
	if token == "" || !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "login required"})
	}
	c.Locals("user", user)
	c.Locals("token", token)
	return c.Next()
}

func bearer(header string) string {
	const prefix = "Bearer "
	if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
		return strings.TrimSpace(header[len(prefix):])
	}
	return ""
}

// fail maps engine errors to statuses with an {"error": ...} body.
func fail(c *fiber.Ctx, err error) error {
	return c.Status(statusFor(err)).JSON(fiber.Map{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrFeedUnavailable):
		return fiber.StatusBadGateway
	case errors.Is(err, domain.ErrNoDataInWindow):
		return fiber.StatusNotFound
	case errors.Is(err, domain.ErrStaleResponse):
		return fiber.StatusConflict
	case errors.Is(err, domain.ErrMissingRangeBounds),
		errors.Is(err, domain.ErrInvalidRange),
		errors.Is(err, domain.ErrInvalidCount),
		errors.Is(err, domain.ErrUnknownSelector),
		errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrUnknownPhase),
		errors.Is(err, domain.ErrUnknownParameter),
		errors.Is(err, credentials.ErrEmptyCredentials),
		errors.Is(err, credentials.ErrEmptyPassword):
		return fiber.StatusBadRequest
	case errors.Is(err, credentials.ErrInvalidCredentials):
		return fiber.StatusUnauthorized
	case errors.Is(err, credentials.ErrUserExists):
		return fiber.StatusConflict
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout
	}
	return fiber.StatusInternalServerError
}
