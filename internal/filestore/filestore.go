package filestore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fleetdocs/backend/internal/storage/models"
)

var ErrUploadFailed = errors.New("file storage upload failed")

type UploadRequest struct {
	Data        []byte
	Filename    string
	ContentType string
	// FolderPath is "{Ship}/{Category}/{Subcategory}".
	FolderPath string
	OwnerID    string
}

type UploadResult struct {
	FileID   string `json:"file_id"`
	FileName string `json:"file_name"`
}

// FileStorage is the external file service records link to by file id.
type FileStorage interface {
	Upload(ctx context.Context, req UploadRequest) (*UploadResult, error)
	Delete(ctx context.Context, fileID, ownerID string, permanent bool) error
	// Rename returns the file id after the rename.
	Rename(ctx context.Context, fileID, newFilename string) (string, error)
	ViewURL(ctx context.Context, fileID string) (string, error)
	DownloadURL(ctx context.Context, fileID string) (string, error)
}

const (
	categoryClassFlag = "Class & Flag Cert"
	categoryAudit     = "ISM - ISPS - MLC"
)

var folders = map[models.Kind][2]string{
	models.KindShipCertificate:  {categoryClassFlag, "Certificates"},
	models.KindAuditCertificate: {categoryAudit, "Audit Certificates"},
	models.KindAuditReport:      {categoryAudit, "Audit Reports"},
}

// FolderPath builds the storage folder for a ship's document kind, e.g.
// "SUNSHINE 01/Class & Flag Cert/Certificates".
func FolderPath(shipName string, kind models.Kind) (string, error) {
	f, ok := folders[kind]
	if !ok {
		return "", fmt.Errorf("no storage folder for kind %q", kind)
	}
	name := strings.TrimSpace(strings.ReplaceAll(shipName, "/", "-"))
	if name == "" {
		return "", fmt.Errorf("ship name is required for the storage folder")
	}
	return name + "/" + f[0] + "/" + f[1], nil
}
