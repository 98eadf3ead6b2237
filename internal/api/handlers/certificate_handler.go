package handlers

import (
	"encoding/base64"
	"fmt"
	"io"
	"mime/multipart"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fleetdocs/backend/internal/extraction"
	"github.com/fleetdocs/backend/internal/middleware/validation"
	"github.com/fleetdocs/backend/internal/storage/models"
	"github.com/fleetdocs/backend/internal/upload"
	"github.com/fleetdocs/backend/pkg/logger"
)

type familyRoute struct {
	path   string
	family extraction.Family
	kind   models.Kind
}

var familyRoutes = []familyRoute{
	{"certificates", extraction.ShipCertificate, models.KindShipCertificate},
	{"audit-certificates", extraction.AuditCertificate, models.KindAuditCertificate},
	{"audit-reports", extraction.AuditReport, models.KindAuditReport},
}

type CertificateHandler struct {
	orch     *upload.Orchestrator
	maxFiles int
}

// NewCertificateHandler serves the record families. maxFiles caps one
// multi-upload batch; zero means no cap.
func NewCertificateHandler(orch *upload.Orchestrator, maxFiles int) *CertificateHandler {
	return &CertificateHandler{orch: orch, maxFiles: maxFiles}
}

func (h *CertificateHandler) Register(r fiber.Router) {
	for _, fr := range familyRoutes {
		g := r.Group("/" + fr.path)
		g.Post("/multi-upload", h.multiUpload(fr))
		g.Post("/process-with-resolution", h.processWithResolution(fr))
		g.Post("/analyze", h.analyze(fr.family))
		g.Get("/", h.list(fr))
		g.Get("/:id/file-link", h.fileLink(fr))
		g.Get("/:id", h.get(fr))
		g.Patch("/:id", h.update(fr))
		g.Delete("/:id", h.delete(fr))
	}
	r.Post("/passports/analyze", h.analyze(extraction.Passport))
}

func (h *CertificateHandler) multiUpload(fr familyRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shipID := c.Query("ship_id", c.FormValue("ship_id"))
		if !validation.ValidID(shipID) {
			return badRequest(c, "ship_id is required")
		}

		form, err := c.MultipartForm()
		if err != nil {
			return badRequest(c, "Expected a multipart form with files")
		}
		headers := form.File["files"]
		if len(headers) == 0 {
			return badRequest(c, "No files uploaded")
		}
		if h.maxFiles > 0 && len(headers) > h.maxFiles {
			return badRequest(c, fmt.Sprintf("At most %d files per upload", h.maxFiles))
		}

		files := make([]upload.File, 0, len(headers))
		for _, fh := range headers {
			f, err := readFile(fh)
			if err != nil {
				logger.Error("Failed to read uploaded file", zap.String("filename", fh.Filename), zap.Error(err))
				return badRequest(c, "Failed to read "+fh.Filename)
			}
			files = append(files, f)
		}

		logger.Info("Multi-upload received",
			zap.String("family", string(fr.family)),
			zap.String("ship_id", shipID),
			zap.Int("files", len(files)),
			zap.String("request_id", requestID(c)),
		)

		resp, err := h.orch.ProcessBatch(c.UserContext(), upload.BatchRequest{
			Family:    fr.family,
			ShipID:    shipID,
			CompanyID: c.Get(CompanyHeader),
			Files:     files,
		})
		if err != nil {
			return writeError(c, err, "Failed to process upload")
		}
		return c.JSON(resp)
	}
}

func (h *CertificateHandler) processWithResolution(fr familyRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shipID := c.FormValue("ship_id")
		if !validation.ValidID(shipID) {
			return badRequest(c, "ship_id is required")
		}
		existingID := c.FormValue("existing_id")
		if existingID != "" && !validation.ValidID(existingID) {
			return badRequest(c, "Invalid existing_id")
		}

		override := false
		if v := c.FormValue("accept_identity_override"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return badRequest(c, "accept_identity_override must be a boolean")
			}
			override = b
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return badRequest(c, "file is required")
		}
		f, err := readFile(fh)
		if err != nil {
			logger.Error("Failed to read uploaded file", zap.String("filename", fh.Filename), zap.Error(err))
			return badRequest(c, "Failed to read "+fh.Filename)
		}

		res, err := h.orch.ProcessWithResolution(c.UserContext(), upload.ResolutionRequest{
			Family:                 fr.family,
			ShipID:                 shipID,
			CompanyID:              c.Get(CompanyHeader),
			File:                   f,
			Resolution:             upload.Resolution(strings.ToLower(strings.TrimSpace(c.FormValue("resolution")))),
			ExistingID:             existingID,
			AcceptIdentityOverride: override,
		})
		if err != nil {
			return writeError(c, err, "Failed to apply resolution")
		}
		return c.JSON(res)
	}
}

type analyzeRequest struct {
	ShipID      string `json:"ship_id"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	FileContent string `json:"file_content"`
}

func (h *CertificateHandler) analyze(fam extraction.Family) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req analyzeRequest
		if err := c.BodyParser(&req); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if req.Filename == "" || req.FileContent == "" {
			return badRequest(c, "filename and file_content are required")
		}
		if req.ShipID != "" && !validation.ValidID(req.ShipID) {
			return badRequest(c, "Invalid ship_id")
		}
		if fam != extraction.Passport && req.ShipID == "" {
			return badRequest(c, "ship_id is required")
		}

		data, err := base64.StdEncoding.DecodeString(req.FileContent)
		if err != nil {
			return badRequest(c, "file_content must be base64")
		}

		a, err := h.orch.Analyze(c.UserContext(), upload.AnalyzeRequest{
			Family:    fam,
			ShipID:    req.ShipID,
			CompanyID: c.Get(CompanyHeader),
			File:      upload.File{Filename: req.Filename, Data: data},
		})
		if err != nil {
			return writeError(c, err, "Failed to analyze file")
		}
		return c.JSON(a)
	}
}

func (h *CertificateHandler) list(fr familyRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		shipID := c.Query("ship_id")
		if shipID == "" {
			return badRequest(c, "ship_id is required")
		}
		items, err := h.orch.List(c.UserContext(), fr.kind, shipID, c.Get(CompanyHeader))
		if err != nil {
			return writeError(c, err, "Failed to list records")
		}
		if items == nil {
			items = []models.Certificate{}
		}
		return c.JSON(fiber.Map{"items": items, "total": len(items)})
	}
}

func (h *CertificateHandler) get(fr familyRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return badRequest(c, "Invalid id")
		}
		cert, err := h.orch.Certificate(c.UserContext(), fr.kind, id, c.Get(CompanyHeader))
		if err != nil {
			return writeError(c, err, "Failed to load record")
		}
		return c.JSON(cert)
	}
}

func (h *CertificateHandler) update(fr familyRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return badRequest(c, "Invalid id")
		}
		var patch map[string]any
		if err := c.BodyParser(&patch); err != nil {
			return badRequest(c, "Invalid request body")
		}
		if len(patch) == 0 {
			return badRequest(c, "No fields to update")
		}

		cert, err := h.orch.Update(c.UserContext(), fr.kind, id, c.Get(CompanyHeader), patch)
		if err != nil {
			return writeError(c, err, "Failed to update record")
		}
		return c.JSON(cert)
	}
}

func (h *CertificateHandler) delete(fr familyRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return badRequest(c, "Invalid id")
		}
		if err := h.orch.Delete(c.UserContext(), fr.kind, id, c.Get(CompanyHeader)); err != nil {
			return writeError(c, err, "Failed to delete record")
		}
		return c.JSON(fiber.Map{"message": "Record deleted", "id": id})
	}
}

func (h *CertificateHandler) fileLink(fr familyRoute) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, ok := pathID(c)
		if !ok {
			return badRequest(c, "Invalid id")
		}
		link, err := h.orch.FileLink(c.UserContext(), fr.kind, id, c.Get(CompanyHeader))
		if err != nil {
			return writeError(c, err, "Failed to build file link")
		}
		return c.JSON(link)
	}
}

func readFile(fh *multipart.FileHeader) (upload.File, error) {
	f, err := fh.Open()
	if err != nil {
		return upload.File{}, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return upload.File{}, err
	}
	return upload.File{Filename: fh.Filename, Data: data}, nil
}
