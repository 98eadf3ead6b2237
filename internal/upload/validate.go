package upload

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
)

const DefaultMaxFileSize = 50 << 20

type fileType struct {
	contentType string
	magic       [][]byte
}

var fileTypes = map[string]fileType{
	".pdf":  {"application/pdf", [][]byte{[]byte("%PDF")}},
	".jpg":  {"image/jpeg", [][]byte{{0xFF, 0xD8, 0xFF}}},
	".jpeg": {"image/jpeg", [][]byte{{0xFF, 0xD8, 0xFF}}},
	".png":  {"image/png", [][]byte{{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}}},
}

// ValidateFile checks extension, size and magic bytes and returns the content
// type implied by the extension. Errors wrap ErrValidation.
func ValidateFile(filename string, data []byte, maxSize int64) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	ft, ok := fileTypes[ext]
	if !ok {
		return "", fmt.Errorf("%w: unsupported file type %q, allowed: pdf, jpg, jpeg, png", ErrValidation, ext)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: file is empty", ErrValidation)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxFileSize
	}
	if int64(len(data)) > maxSize {
		return "", fmt.Errorf("%w: file is %.1fMB, the limit is %dMB", ErrValidation,
			float64(len(data))/float64(1<<20), maxSize>>20)
	}

	for _, m := range ft.magic {
		if bytes.HasPrefix(data, m) {
			return ft.contentType, nil
		}
	}
	return "", fmt.Errorf("%w: file content does not match its %s extension", ErrValidation, ext)
}
