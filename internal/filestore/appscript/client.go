package appscript

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"

	"github.com/fleetdocs/backend/internal/filestore"
	"github.com/fleetdocs/backend/internal/metrics"
	"github.com/fleetdocs/backend/pkg/circuitbreaker"
	"github.com/fleetdocs/backend/pkg/logger"
	"github.com/fleetdocs/backend/pkg/retry"
)

// Client talks to a Google Apps Script web app that proxies Google Drive.
type Client struct {
	url            string
	parentFolderID string
	httpClient     *http.Client
	cb             *circuitbreaker.CircuitBreaker
	retryConfig    retry.Config
}

type Config struct {
	URL            string
	ParentFolderID string
	Timeout        time.Duration
}

type request struct {
	Action         string `json:"action"`
	ParentFolderID string `json:"parent_folder_id,omitempty"`
	FolderPath     string `json:"folder_path,omitempty"`
	Filename       string `json:"filename,omitempty"`
	ContentType    string `json:"content_type,omitempty"`
	FileContent    string `json:"file_content,omitempty"`
	OwnerID        string `json:"owner_id,omitempty"`
	FileID         string `json:"file_id,omitempty"`
	NewName        string `json:"new_name,omitempty"`
	Permanent      bool   `json:"permanent,omitempty"`
}

type response struct {
	Success     bool   `json:"success"`
	Message     string `json:"message"`
	FileID      string `json:"file_id"`
	FileName    string `json:"file_name"`
	ViewURL     string `json:"view_url"`
	DownloadURL string `json:"download_url"`
}

// scriptError is a well-formed failure answer from the script; retrying it
// does not help.
type scriptError struct {
	action  string
	message string
}

func (e *scriptError) Error() string {
	return fmt.Sprintf("apps script %s failed: %s", e.action, e.message)
}

func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}

	return &Client{
		url:            cfg.URL,
		parentFolderID: cfg.ParentFolderID,
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		cb: circuitbreaker.NewCircuitBreaker("appscript", circuitbreaker.Config{
			MaxRequests:      3,
			Interval:         time.Minute,
			Timeout:          30 * time.Second,
			FailureThreshold: 5,
			SuccessThreshold: 2,
			OnStateChange:    metrics.BreakerStateChanged,
			IsFailure:        isOutage,
			Logger:           logger.GetLogger(),
		}),
		retryConfig: retry.Config{
			MaxAttempts:    3,
			InitialDelay:   time.Second,
			MaxDelay:       10 * time.Second,
			Multiplier:     2.0,
			JitterFraction: 0.1,
			Logger:         logger.GetLogger(),
		},
	}
}

func (c *Client) BreakerState() circuitbreaker.State {
	return c.cb.State()
}

func (c *Client) call(ctx context.Context, req request) (*response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	var out *response
	err = c.cb.Execute(ctx, func() error {
		return retry.Do(ctx, c.retryConfig, func() error {
			httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
			if err != nil {
				return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
			}
			httpReq.Header.Set("Content-Type", "application/json")

			resp, err := c.httpClient.Do(httpReq)
			if err != nil {
				return fmt.Errorf("failed to call apps script: %w", err)
			}
			defer resp.Body.Close()

			data, err := io.ReadAll(resp.Body)
			if err != nil {
				return fmt.Errorf("failed to read response: %w", err)
			}
			if resp.StatusCode >= http.StatusInternalServerError || resp.StatusCode == http.StatusTooManyRequests {
				return fmt.Errorf("apps script returned status %d", resp.StatusCode)
			}
			if resp.StatusCode != http.StatusOK {
				return retry.Permanent(fmt.Errorf("apps script returned status %d", resp.StatusCode))
			}

			var r response
			if err := json.Unmarshal(data, &r); err != nil {
				return retry.Permanent(fmt.Errorf("failed to parse response: %w", err))
			}
			if !r.Success {
				return retry.Permanent(&scriptError{action: req.Action, message: r.Message})
			}
			out = &r
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Upload(ctx context.Context, req filestore.UploadRequest) (*filestore.UploadResult, error) {
	resp, err := c.call(ctx, request{
		Action:         "upload_file",
		ParentFolderID: c.parentFolderID,
		FolderPath:     req.FolderPath,
		Filename:       req.Filename,
		ContentType:    req.ContentType,
		FileContent:    base64.StdEncoding.EncodeToString(req.Data),
		OwnerID:        req.OwnerID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", filestore.ErrUploadFailed, err)
	}
	if resp.FileID == "" {
		return nil, fmt.Errorf("%w: no file id returned", filestore.ErrUploadFailed)
	}

	logger.Info("File uploaded to Drive",
		zap.String("file_id", resp.FileID),
		zap.String("folder_path", req.FolderPath),
	)

	name := resp.FileName
	if name == "" {
		name = req.Filename
	}
	return &filestore.UploadResult{FileID: resp.FileID, FileName: name}, nil
}

func (c *Client) Delete(ctx context.Context, fileID, ownerID string, permanent bool) error {
	_, err := c.call(ctx, request{
		Action:    "delete_file",
		FileID:    fileID,
		OwnerID:   ownerID,
		Permanent: permanent,
	})
	return err
}

// Rename keeps the Drive file id.
func (c *Client) Rename(ctx context.Context, fileID, newFilename string) (string, error) {
	_, err := c.call(ctx, request{
		Action:  "rename_file",
		FileID:  fileID,
		NewName: newFilename,
	})
	if err != nil {
		return "", err
	}
	return fileID, nil
}

func (c *Client) ViewURL(_ context.Context, fileID string) (string, error) {
	if fileID == "" {
		return "", fmt.Errorf("file id is required")
	}
	return "https://drive.google.com/file/d/" + url.PathEscape(fileID) + "/view", nil
}

func (c *Client) DownloadURL(_ context.Context, fileID string) (string, error) {
	if fileID == "" {
		return "", fmt.Errorf("file id is required")
	}
	q := url.Values{}
	q.Set("id", fileID)
	q.Set("export", "download")
	return "https://drive.google.com/uc?" + q.Encode(), nil
}

var _ filestore.FileStorage = (*Client)(nil)

// isOutage keeps script-level failures from tripping the breaker; the web app
// answered, so it is reachable.
func isOutage(err error) bool {
	var se *scriptError
	return !errors.As(err, &se)
}
