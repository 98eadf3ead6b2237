package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fleetdocs/backend/internal/middleware/validation"
	"github.com/fleetdocs/backend/internal/storage"
	"github.com/fleetdocs/backend/internal/upload"
	"github.com/fleetdocs/backend/pkg/logger"
)

// CompanyHeader carries the tenant of a request. Authentication happens
// upstream; an empty header leaves reads unscoped.
const CompanyHeader = "X-Company-ID"

func statusFor(err error) int {
	switch {
	case errors.Is(err, upload.ErrValidation),
		errors.Is(err, upload.ErrResolution),
		errors.Is(err, storage.ErrInvalidPatch):
		return fiber.StatusBadRequest
	case errors.Is(err, storage.ErrNotFound),
		errors.Is(err, upload.ErrShipNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, upload.ErrExtraction):
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// writeError maps err to a status. Client errors echo the error text; server
// errors are logged and answered with msg only.
func writeError(c *fiber.Ctx, err error, msg string) error {
	status := statusFor(err)
	if status >= fiber.StatusInternalServerError {
		logger.Error(msg,
			zap.String("path", c.Path()),
			zap.String("request_id", requestID(c)),
			zap.Error(err),
		)
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}
	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": msg})
}

func requestID(c *fiber.Ctx) string {
	if id, ok := c.Locals("requestid").(string); ok {
		return id
	}
	return c.GetRespHeader(fiber.HeaderXRequestID)
}

// pathID reads the :id route parameter.
func pathID(c *fiber.Ctx) (string, bool) {
	id := c.Params("id")
	return id, validation.ValidID(id)
}
