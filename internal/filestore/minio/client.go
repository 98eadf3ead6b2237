package minio

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"go.uber.org/zap"

	"github.com/fleetdocs/backend/internal/filestore"
	"github.com/fleetdocs/backend/pkg/logger"
)

const trashPrefix = ".trash/"

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry time.Duration
}

// Client stores files as objects; the object name doubles as the file id.
type Client struct {
	client *minio.Client
	bucket string
	expiry time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	expiry := cfg.URLExpiry
	if expiry <= 0 {
		expiry = time.Hour
	}
	return &Client{client: client, bucket: cfg.Bucket, expiry: expiry}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (c *Client) EnsureBucket(ctx context.Context) error {
	exists, err := c.client.BucketExists(ctx, c.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}
	return nil
}

// ObjectName places filename under folderPath with a unique segment so two
// uploads of the same name never collide.
func ObjectName(folderPath, filename string) string {
	base := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	return path.Join(folderPath, uuid.New().String(), base)
}

func (c *Client) Upload(ctx context.Context, req filestore.UploadRequest) (*filestore.UploadResult, error) {
	name := ObjectName(req.FolderPath, req.Filename)
	opts := minio.PutObjectOptions{ContentType: req.ContentType}
	if req.OwnerID != "" {
		opts.UserMetadata = map[string]string{"owner-id": req.OwnerID}
	}

	_, err := c.client.PutObject(ctx, c.bucket, name, bytes.NewReader(req.Data), int64(len(req.Data)), opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", filestore.ErrUploadFailed, err)
	}

	logger.Info("File uploaded to object storage",
		zap.String("bucket", c.bucket),
		zap.String("object", name),
	)
	return &filestore.UploadResult{FileID: name, FileName: path.Base(name)}, nil
}

// Delete removes the object. A non-permanent delete moves it under the trash
// prefix instead.
func (c *Client) Delete(ctx context.Context, fileID, _ string, permanent bool) error {
	if !permanent && !strings.HasPrefix(fileID, trashPrefix) {
		return c.move(ctx, fileID, trashPrefix+fileID)
	}
	if err := c.client.RemoveObject(ctx, c.bucket, fileID, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// Rename changes the last path segment, which changes the file id.
func (c *Client) Rename(ctx context.Context, fileID, newFilename string) (string, error) {
	target := path.Join(path.Dir(fileID), path.Base(newFilename))
	if target == fileID {
		return fileID, nil
	}
	if err := c.move(ctx, fileID, target); err != nil {
		return "", err
	}
	return target, nil
}

func (c *Client) move(ctx context.Context, from, to string) error {
	_, err := c.client.CopyObject(ctx,
		minio.CopyDestOptions{Bucket: c.bucket, Object: to},
		minio.CopySrcOptions{Bucket: c.bucket, Object: from},
	)
	if err != nil {
		return fmt.Errorf("failed to copy %s: %w", from, err)
	}
	if err := c.client.RemoveObject(ctx, c.bucket, from, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to remove %s: %w", from, err)
	}
	return nil
}

func (c *Client) ViewURL(ctx context.Context, fileID string) (string, error) {
	return c.presign(ctx, fileID, "inline")
}

func (c *Client) DownloadURL(ctx context.Context, fileID string) (string, error) {
	return c.presign(ctx, fileID, "attachment")
}

func (c *Client) presign(ctx context.Context, fileID, disposition string) (string, error) {
	params := url.Values{}
	params.Set("response-content-disposition", fmt.Sprintf("%s; filename=%q", disposition, path.Base(fileID)))

	u, err := c.client.PresignedGetObject(ctx, c.bucket, fileID, c.expiry, params)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return u.String(), nil
}

var _ filestore.FileStorage = (*Client)(nil)
