package validation

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"3f2b8c1e-9d4a-4e57-b1a2-6c0f7d9e8a31", true},
		{"ship_01", true},
		{"", false},
		{"$ne", false},
		{"a b", false},
		{strings.Repeat("a", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.want, ValidID(tt.id))
		})
	}
}

func TestMiddleware(t *testing.T) {
	app := fiber.New()
	app.Use(Middleware(Config{}))
	app.All("/x", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNoContent) })

	tests := []struct {
		name        string
		method      string
		target      string
		contentType string
		company     string
		want        int
	}{
		{"plain get", "GET", "/x", "", "", fiber.StatusNoContent},
		{"json post", "POST", "/x", "application/json", "", fiber.StatusNoContent},
		{"multipart post", "POST", "/x", "multipart/form-data; boundary=abc", "", fiber.StatusNoContent},
		{"xml post", "POST", "/x", "application/xml", "", fiber.StatusUnsupportedMediaType},
		{"text patch", "PATCH", "/x", "text/plain", "", fiber.StatusUnsupportedMediaType},
		{"valid ship id", "GET", "/x?ship_id=ship-1", "", "", fiber.StatusNoContent},
		{"operator ship id", "GET", "/x?ship_id=%24ne", "", "", fiber.StatusBadRequest},
		{"valid company", "GET", "/x", "", "co-1", fiber.StatusNoContent},
		{"bad company", "GET", "/x", "", "co 1", fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			if tt.company != "" {
				req.Header.Set("X-Company-ID", tt.company)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, tt.want, resp.StatusCode)
		})
	}
}
