package cache

import (
	"context"
)

// Cache stores OCR summaries keyed by file content hash and raw LLM responses
// keyed by prompt hash. A miss is (zero, false, nil).
type Cache interface {
	GetSummary(ctx context.Context, fileHash string) (string, bool, error)
	SetSummary(ctx context.Context, fileHash, summary string) error
	GetExtraction(ctx context.Context, key string) (string, bool, error)
	SetExtraction(ctx context.Context, key, raw string) error
	Close() error
}

// Noop is used when Redis is disabled.
type Noop struct{}

func (Noop) GetSummary(context.Context, string) (string, bool, error)    { return "", false, nil }
func (Noop) SetSummary(context.Context, string, string) error            { return nil }
func (Noop) GetExtraction(context.Context, string) (string, bool, error) { return "", false, nil }
func (Noop) SetExtraction(context.Context, string, string) error         { return nil }
func (Noop) Close() error                                                { return nil }
