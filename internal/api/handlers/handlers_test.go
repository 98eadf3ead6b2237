package handlers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetdocs/backend/internal/deletion"
	"github.com/fleetdocs/backend/internal/extraction"
	"github.com/fleetdocs/backend/internal/filestore"
	"github.com/fleetdocs/backend/internal/llm"
	"github.com/fleetdocs/backend/internal/ocr"
	"github.com/fleetdocs/backend/internal/pdf"
	"github.com/fleetdocs/backend/internal/storage"
	"github.com/fleetdocs/backend/internal/storage/memory"
	"github.com/fleetdocs/backend/internal/storage/models"
	"github.com/fleetdocs/backend/internal/upload"
	"github.com/fleetdocs/backend/pkg/circuitbreaker"
)

var fakePDF = []byte("%PDF-1.4\n% test document\n")

const shipCertJSON = `{
  "cert_name": "Cargo Ship Safety Equipment Certificate",
  "cert_no": "SE-2024-01",
  "cert_type": "Full Term",
  "issue_date": "15/01/2024",
  "valid_date": "15/01/2029",
  "issued_by": "Lloyd's Register",
  "ship_name": "SUNSHINE 01",
  "imo_number": "9405136",
  "confidence_score": 0.9
}`

type stubCompleter struct {
	content string
	err     error
}

func (s stubCompleter) Complete(context.Context, llm.CompletionRequest) (*llm.CompletionResponse, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &llm.CompletionResponse{Content: s.content}, nil
}

type memFiles struct {
	mu  sync.Mutex
	seq int
}

func (f *memFiles) Upload(_ context.Context, req filestore.UploadRequest) (*filestore.UploadResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	return &filestore.UploadResult{FileID: fmt.Sprintf("file-%d", f.seq), FileName: req.Filename}, nil
}

func (f *memFiles) Delete(context.Context, string, string, bool) error { return nil }

func (f *memFiles) Rename(_ context.Context, id, _ string) (string, error) { return id, nil }

func (f *memFiles) ViewURL(_ context.Context, id string) (string, error) {
	return "https://files.test/view/" + id, nil
}

func (f *memFiles) DownloadURL(_ context.Context, id string) (string, error) {
	return "https://files.test/download/" + id, nil
}

type nopQueue struct{}

func (nopQueue) Enqueue(context.Context, deletion.Job) error { return nil }

type env struct {
	app   *fiber.App
	certs *storage.Certificates
	ship  *models.Ship
}

func newEnv(t *testing.T, completer extraction.Completer) *env {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	certs := storage.NewCertificates(store)
	ships := storage.NewShips(store)

	ship := &models.Ship{Name: "SUNSHINE 01", IMO: "9405136", CompanyID: "co-1"}
	require.NoError(t, ships.Create(ctx, ship))

	gateway := ocr.NewGateway(ocr.AnalyzerFunc(func(_ context.Context, doc ocr.Document) (string, error) {
		return "OCR TEXT OF " + doc.Filename, nil
	}), time.Second, 2)

	orch := upload.New(upload.Deps{
		Splitter:     pdf.NewSplitter(pdf.WithFallbackCounter(func([]byte) (int, error) { return 1, nil })),
		OCR:          gateway,
		Completer:    completer,
		Certificates: certs,
		Ships:        ships,
		Files:        &memFiles{},
		Deletions:    nopQueue{},
	}, upload.Config{AI: extraction.AIConfig{Provider: "openai", Model: "test"}})

	surveys := NewSurveyHandler(certs, ships)
	surveys.now = func() time.Time { return time.Date(2026, time.July, 1, 0, 0, 0, 0, time.UTC) }

	app := fiber.New()
	api := app.Group("/api/v1")
	NewHealthHandler(map[string]Pinger{"store": store}, nil).Register(api)
	NewCertificateHandler(orch, 5).Register(api)
	surveys.Register(api)

	return &env{app: app, certs: certs, ship: ship}
}

func (e *env) do(t *testing.T, req *http.Request) (int, map[string]any) {
	t.Helper()
	req.Header.Set(CompanyHeader, "co-1")
	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body map[string]any
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	}
	return resp.StatusCode, body
}

func multipartRequest(t *testing.T, target, field string, files map[string][]byte, fields map[string]string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for name, data := range files {
		part, err := w.CreateFormFile(field, name)
		require.NoError(t, err)
		_, err = part.Write(data)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, target, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	return req
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("connection refused") }

func TestHealthAndReady(t *testing.T) {
	e := newEnv(t, stubCompleter{content: shipCertJSON})

	status, body := e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])

	status, body = e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil))
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])

	app := fiber.New()
	NewHealthHandler(map[string]Pinger{"mongo": failingPinger{}}, nil).Register(app)
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

type fixedBreaker circuitbreaker.State

func (b fixedBreaker) BreakerState() circuitbreaker.State { return circuitbreaker.State(b) }

func TestHealthReportsBreakers(t *testing.T) {
	tests := []struct {
		name       string
		llm        circuitbreaker.State
		wantStatus string
	}{
		{"all closed", circuitbreaker.StateClosed, "healthy"},
		{"half open", circuitbreaker.StateHalfOpen, "healthy"},
		{"llm open", circuitbreaker.StateOpen, "degraded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := fiber.New()
			NewHealthHandler(nil, map[string]BreakerStater{
				"documentai": fixedBreaker(circuitbreaker.StateClosed),
				"llm":        fixedBreaker(tt.llm),
			}).Register(app)

			resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusOK, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.wantStatus, body["status"])
			assert.Equal(t, map[string]any{"documentai": "closed", "llm": tt.llm.String()}, body["breakers"])
		})
	}
}

func TestMultiUpload(t *testing.T) {
	e := newEnv(t, stubCompleter{content: shipCertJSON})

	req := multipartRequest(t, "/api/v1/certificates/multi-upload?ship_id="+e.ship.ID, "files", map[string][]byte{
		"safety.pdf": fakePDF,
		"notes.txt":  []byte("plain text"),
	}, nil)
	status, body := e.do(t, req)
	require.Equal(t, fiber.StatusOK, status, body)

	summary := body["summary"].(map[string]any)
	assert.EqualValues(t, 2, summary["total_files"])
	assert.EqualValues(t, 1, summary["successfully_created"])
	assert.EqualValues(t, 1, summary["errors"])
	assert.Equal(t, false, body["success"])

	list, err := e.certs.ListByShip(context.Background(), models.KindShipCertificate, e.ship.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "SE-2024-01", list[0].CertNo)
}

func TestMultiUploadRejectsBadRequests(t *testing.T) {
	e := newEnv(t, stubCompleter{content: shipCertJSON})

	tests := []struct {
		name   string
		target string
		files  map[string][]byte
		want   int
	}{
		{"missing ship", "/api/v1/certificates/multi-upload", map[string][]byte{"a.pdf": fakePDF}, fiber.StatusBadRequest},
		{"unknown ship", "/api/v1/certificates/multi-upload?ship_id=ghost", map[string][]byte{"a.pdf": fakePDF}, fiber.StatusNotFound},
		{"no files", "/api/v1/audit-reports/multi-upload?ship_id=" + e.ship.ID, nil, fiber.StatusBadRequest},
		{"too many files", "/api/v1/certificates/multi-upload?ship_id=" + e.ship.ID, map[string][]byte{
			"1.pdf": fakePDF, "2.pdf": fakePDF, "3.pdf": fakePDF, "4.pdf": fakePDF, "5.pdf": fakePDF, "6.pdf": fakePDF,
		}, fiber.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, _ := e.do(t, multipartRequest(t, tt.target, "files", tt.files, nil))
			assert.Equal(t, tt.want, status)
		})
	}
}

func TestProcessWithResolution(t *testing.T) {
	e := newEnv(t, stubCompleter{content: shipCertJSON})

	first := multipartRequest(t, "/api/v1/certificates/multi-upload?ship_id="+e.ship.ID, "files",
		map[string][]byte{"safety.pdf": fakePDF}, nil)
	status, _ := e.do(t, first)
	require.Equal(t, fiber.StatusOK, status)

	again := multipartRequest(t, "/api/v1/certificates/multi-upload?ship_id="+e.ship.ID, "files",
		map[string][]byte{"safety-rescan.pdf": fakePDF}, nil)
	_, body := e.do(t, again)
	results := body["results"].([]any)
	require.Len(t, results, 1)
	pending := results[0].(map[string]any)
	assert.Equal(t, string(upload.StatusPendingDuplicate), pending["status"])

	existingID := pending["duplicates"].([]any)[0].(map[string]any)["certificate_id"].(string)

	req := multipartRequest(t, "/api/v1/certificates/process-with-resolution", "file",
		map[string][]byte{"safety-rescan.pdf": fakePDF},
		map[string]string{"ship_id": e.ship.ID, "resolution": "overwrite", "existing_id": existingID})
	status, body = e.do(t, req)
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, string(upload.StatusSuccess), body["status"])

	list, err := e.certs.ListByShip(context.Background(), models.KindShipCertificate, e.ship.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, existingID, list[0].ID)
	assert.Equal(t, "safety-rescan.pdf", list[0].FileName)

	bad := multipartRequest(t, "/api/v1/certificates/process-with-resolution", "file",
		map[string][]byte{"safety.pdf": fakePDF},
		map[string]string{"ship_id": e.ship.ID, "resolution": "merge"})
	status, _ = e.do(t, bad)
	assert.Equal(t, fiber.StatusBadRequest, status)
}

func TestAnalyze(t *testing.T) {
	encoded := base64.StdEncoding.EncodeToString(fakePDF)

	t.Run("ok", func(t *testing.T) {
		e := newEnv(t, stubCompleter{content: shipCertJSON})
		status, body := e.do(t, jsonRequest(t, http.MethodPost, "/api/v1/certificates/analyze", analyzeRequest{
			ShipID: e.ship.ID, Filename: "safety.pdf", ContentType: "application/pdf", FileContent: encoded,
		}))
		require.Equal(t, fiber.StatusOK, status, body)
		extracted := body["extracted_info"].(map[string]any)
		assert.Equal(t, "SE-2024-01", extracted["cert_no"])

		list, err := e.certs.ListByShip(context.Background(), models.KindShipCertificate, e.ship.ID)
		require.NoError(t, err)
		assert.Empty(t, list)
	})

	t.Run("extraction failure", func(t *testing.T) {
		e := newEnv(t, stubCompleter{err: errors.New("provider down")})
		status, body := e.do(t, jsonRequest(t, http.MethodPost, "/api/v1/certificates/analyze", analyzeRequest{
			ShipID: e.ship.ID, Filename: "safety.pdf", FileContent: encoded,
		}))
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
		assert.Contains(t, body["error"], "extraction")
	})

	t.Run("validation failure", func(t *testing.T) {
		e := newEnv(t, stubCompleter{content: shipCertJSON})
		status, _ := e.do(t, jsonRequest(t, http.MethodPost, "/api/v1/certificates/analyze", analyzeRequest{
			ShipID: e.ship.ID, Filename: "safety.docx", FileContent: encoded,
		}))
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("bad base64", func(t *testing.T) {
		e := newEnv(t, stubCompleter{content: shipCertJSON})
		status, _ := e.do(t, jsonRequest(t, http.MethodPost, "/api/v1/certificates/analyze", analyzeRequest{
			ShipID: e.ship.ID, Filename: "safety.pdf", FileContent: "***",
		}))
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	t.Run("passport needs no ship", func(t *testing.T) {
		e := newEnv(t, stubCompleter{content: `{"full_name":"NGUYEN VAN A","passport_number":"c 1234567","date_of_birth":"01/02/1990"}`})
		status, body := e.do(t, jsonRequest(t, http.MethodPost, "/api/v1/passports/analyze", analyzeRequest{
			Filename: "passport.pdf", FileContent: encoded,
		}))
		require.Equal(t, fiber.StatusOK, status, body)
		assert.Equal(t, "C1234567", body["extracted_info"].(map[string]any)["passport_number"])
	})
}

func TestRecordEndpoints(t *testing.T) {
	e := newEnv(t, stubCompleter{content: shipCertJSON})
	ctx := context.Background()
	next := time.Date(2026, time.July, 20, 0, 0, 0, 0, time.UTC)

	c := &models.Certificate{
		Kind: models.KindShipCertificate, ShipID: e.ship.ID, CompanyID: "co-1",
		CertName: "IOPP Certificate", CertNo: "IOPP-1", NextSurvey: &next, NextSurveyType: "Annual",
		StorageFileID: "drive-9", FileName: "iopp.pdf",
	}
	require.NoError(t, e.certs.Create(ctx, c))
	base := "/api/v1/certificates/"

	status, body := e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/certificates?ship_id="+e.ship.ID, nil))
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])

	status, body = e.do(t, httptest.NewRequest(http.MethodGet, base+c.ID, nil))
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "IOPP-1", body["cert_no"])

	status, body = e.do(t, httptest.NewRequest(http.MethodGet, base+c.ID+"/file-link", nil))
	require.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "https://files.test/view/drive-9", body["view_url"])
	assert.Equal(t, "https://files.test/download/drive-9", body["download_url"])

	status, body = e.do(t, jsonRequest(t, http.MethodPatch, base+c.ID, map[string]any{"notes": "checked by PSC"}))
	require.Equal(t, fiber.StatusOK, status, body)
	assert.Equal(t, true, body["has_notes"])

	status, _ = e.do(t, jsonRequest(t, http.MethodPatch, base+c.ID, map[string]any{"ship_id": "elsewhere"}))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, _ = e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/audit-certificates/"+c.ID, nil))
	assert.Equal(t, fiber.StatusNotFound, status)

	status, _ = e.do(t, httptest.NewRequest(http.MethodGet, base+"bad%20id", nil))
	assert.Equal(t, fiber.StatusBadRequest, status)

	status, body = e.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/surveys/upcoming", nil))
	require.Equal(t, fiber.StatusOK, status)
	assert.EqualValues(t, 1, body["total"])
	entry := body["upcoming_surveys"].([]any)[0].(map[string]any)
	assert.Equal(t, "SUNSHINE 01", entry["ship_name"])
	assert.Equal(t, "due_soon", entry["status"])

	status, _ = e.do(t, httptest.NewRequest(http.MethodDelete, base+c.ID, nil))
	assert.Equal(t, fiber.StatusOK, status)

	status, _ = e.do(t, httptest.NewRequest(http.MethodGet, base+c.ID, nil))
	assert.Equal(t, fiber.StatusNotFound, status)
}

func TestCompanyScoping(t *testing.T) {
	e := newEnv(t, stubCompleter{content: shipCertJSON})
	c := &models.Certificate{Kind: models.KindShipCertificate, ShipID: e.ship.ID, CompanyID: "co-1", CertName: "A"}
	require.NoError(t, e.certs.Create(context.Background(), c))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/certificates/"+c.ID, nil)
	req.Header.Set(CompanyHeader, "co-2")
	resp, err := e.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/surveys/upcoming", nil)
	resp, err = e.app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", upload.ErrValidation), fiber.StatusBadRequest},
		{fmt.Errorf("%w: x", upload.ErrResolution), fiber.StatusBadRequest},
		{storage.ErrInvalidPatch, fiber.StatusBadRequest},
		{fmt.Errorf("wrapped: %w", storage.ErrNotFound), fiber.StatusNotFound},
		{upload.ErrShipNotFound, fiber.StatusNotFound},
		{upload.ErrExtraction, fiber.StatusUnprocessableEntity},
		{errors.New("boom"), fiber.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(strings.ReplaceAll(tt.err.Error(), " ", "_"), func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}
