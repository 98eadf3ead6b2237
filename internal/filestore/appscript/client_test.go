package appscript

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fleetdocs/backend/internal/filestore"
	"github.com/fleetdocs/backend/pkg/circuitbreaker"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	c := NewClient(Config{URL: server.URL, ParentFolderID: "root-folder", Timeout: 5 * time.Second})
	c.retryConfig.InitialDelay = time.Millisecond
	c.retryConfig.MaxDelay = 5 * time.Millisecond
	return c
}

func TestUpload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)

		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "upload_file", req.Action)
		assert.Equal(t, "root-folder", req.ParentFolderID)
		assert.Equal(t, "SUNSHINE 01/Class & Flag Cert/Certificates", req.FolderPath)
		data, err := base64.StdEncoding.DecodeString(req.FileContent)
		require.NoError(t, err)
		assert.Equal(t, "%PDF-1.4", string(data))

		_ = json.NewEncoder(w).Encode(response{Success: true, FileID: "drive-123"})
	})

	res, err := c.Upload(context.Background(), filestore.UploadRequest{
		Data:        []byte("%PDF-1.4"),
		Filename:    "iopp.pdf",
		ContentType: "application/pdf",
		FolderPath:  "SUNSHINE 01/Class & Flag Cert/Certificates",
	})
	require.NoError(t, err)
	assert.Equal(t, "drive-123", res.FileID)
	assert.Equal(t, "iopp.pdf", res.FileName)
}

func TestUploadScriptFailureIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_ = json.NewEncoder(w).Encode(response{Success: false, Message: "quota exceeded"})
	})

	_, err := c.Upload(context.Background(), filestore.UploadRequest{Data: []byte("x"), Filename: "a.pdf"})
	require.Error(t, err)
	assert.ErrorIs(t, err, filestore.ErrUploadFailed)
	assert.Contains(t, err.Error(), "quota exceeded")
	assert.Equal(t, int32(1), calls.Load())
}

func TestServerErrorsAreRetried(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_ = json.NewEncoder(w).Encode(response{Success: true})
	})

	require.NoError(t, c.Delete(context.Background(), "drive-1", "owner", false))
	assert.Equal(t, int32(3), calls.Load())
}

func TestRenameKeepsFileID(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var req request
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "rename_file", req.Action)
		assert.Equal(t, "new.pdf", req.NewName)
		_ = json.NewEncoder(w).Encode(response{Success: true})
	})

	id, err := c.Rename(context.Background(), "drive-1", "new.pdf")
	require.NoError(t, err)
	assert.Equal(t, "drive-1", id)
}

func TestURLs(t *testing.T) {
	c := NewClient(Config{URL: "http://unused"})
	ctx := context.Background()

	view, err := c.ViewURL(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/file/d/abc/view", view)

	dl, err := c.DownloadURL(ctx, "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://drive.google.com/uc?export=download&id=abc", dl)

	_, err = c.ViewURL(ctx, "")
	assert.Error(t, err)
}

func TestScriptFailuresKeepBreakerClosed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(response{Success: false, Message: "file not found"})
	})

	for i := 0; i < 8; i++ {
		require.Error(t, c.Delete(context.Background(), "drive-1", "owner", false))
	}
	assert.Equal(t, circuitbreaker.StateClosed, c.BreakerState())
}
