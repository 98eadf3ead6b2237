package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/fleetdocs/backend/internal/storage"
)

type SurveyHandler struct {
	certs *storage.Certificates
	ships *storage.Ships
	now   func() time.Time
}

func NewSurveyHandler(certs *storage.Certificates, ships *storage.Ships) *SurveyHandler {
	return &SurveyHandler{certs: certs, ships: ships, now: time.Now}
}

func (h *SurveyHandler) Register(r fiber.Router) {
	r.Get("/surveys/upcoming", h.Upcoming)
}

func (h *SurveyHandler) Upcoming(c *fiber.Ctx) error {
	companyID := c.Get(CompanyHeader)
	if companyID == "" {
		return badRequest(c, CompanyHeader+" header is required")
	}

	now := h.now().UTC()
	entries, err := storage.UpcomingSurveys(c.UserContext(), h.certs, h.ships, companyID, now)
	if err != nil {
		return writeError(c, err, "Failed to list upcoming surveys")
	}
	return c.JSON(fiber.Map{
		"upcoming_surveys": entries,
		"total":            len(entries),
		"as_of":            now.Format(time.DateOnly),
	})
}
