package validation

import (
	"regexp"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// Identifiers are uuids or similar opaque keys. Anything else, such as a
// "$ne" operator smuggled into a query filter, is rejected.
var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)

// ValidID reports whether s is a well-formed record, ship or company id.
func ValidID(s string) bool {
	return idPattern.MatchString(s)
}

type Config struct {
	AllowedContentTypes []string
	// QueryIDs are query parameters that must hold a valid id when present.
	QueryIDs []string
	// HeaderIDs are headers that must hold a valid id when present.
	HeaderIDs []string
	Logger    *zap.Logger
}

func Middleware(cfg Config) fiber.Handler {
	if len(cfg.AllowedContentTypes) == 0 {
		cfg.AllowedContentTypes = []string{"application/json", "multipart/form-data"}
	}
	if len(cfg.QueryIDs) == 0 {
		cfg.QueryIDs = []string{"ship_id"}
	}
	if len(cfg.HeaderIDs) == 0 {
		cfg.HeaderIDs = []string{"X-Company-ID"}
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}

	return func(c *fiber.Ctx) error {
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPut, fiber.MethodPatch:
			contentType := c.Get(fiber.HeaderContentType)
			if contentType != "" && !allowedType(contentType, cfg.AllowedContentTypes) {
				return c.Status(fiber.StatusUnsupportedMediaType).JSON(fiber.Map{
					"error": "Unsupported content type",
				})
			}
		}

		for _, name := range cfg.QueryIDs {
			if v := c.Query(name); v != "" && !ValidID(v) {
				cfg.Logger.Warn("Rejected malformed identifier",
					zap.String("ip", c.IP()),
					zap.String("param", name),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid " + name,
				})
			}
		}

		for _, name := range cfg.HeaderIDs {
			if v := c.Get(name); v != "" && !ValidID(v) {
				cfg.Logger.Warn("Rejected malformed identifier",
					zap.String("ip", c.IP()),
					zap.String("header", name),
				)
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
					"error": "Invalid " + name + " header",
				})
			}
		}

		return c.Next()
	}
}

func allowedType(contentType string, allowed []string) bool {
	contentType = strings.ToLower(contentType)
	for _, t := range allowed {
		if strings.HasPrefix(contentType, t) {
			return true
		}
	}
	return false
}
