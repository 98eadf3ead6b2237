package ocr

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fleetdocs/backend/internal/metrics"
	"github.com/fleetdocs/backend/internal/pdf"
	"github.com/fleetdocs/backend/pkg/logger"
)

const (
	DefaultTimeout     = 60 * time.Second
	DefaultMaxParallel = 4
)

type Document struct {
	Data        []byte
	Filename    string
	ContentType string
	// Hint names the document family, e.g. "audit_report". Providers may ignore it.
	Hint string
}

// Analyzer is the raw OCR call. Implementations return an error on any failure;
// Gateway turns those into empty text.
type Analyzer interface {
	Analyze(ctx context.Context, doc Document) (string, error)
}

type AnalyzerFunc func(ctx context.Context, doc Document) (string, error)

func (f AnalyzerFunc) Analyze(ctx context.Context, doc Document) (string, error) {
	return f(ctx, doc)
}

type Part struct {
	Pages pdf.PageRange
	Text  string
}

type Gateway struct {
	analyzer    Analyzer
	timeout     time.Duration
	maxParallel int
}

func NewGateway(analyzer Analyzer, timeout time.Duration, maxParallel int) *Gateway {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if maxParallel <= 0 {
		maxParallel = DefaultMaxParallel
	}
	return &Gateway{
		analyzer:    analyzer,
		timeout:     timeout,
		maxParallel: maxParallel,
	}
}

// ExtractText never fails: errors, panics and timeouts yield "".
func (g *Gateway) ExtractText(ctx context.Context, doc Document) (text string) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			logger.Error("OCR analyzer panicked",
				zap.String("filename", doc.Filename),
				zap.Any("panic", r),
			)
			metrics.OCRCalls.WithLabelValues("error").Inc()
			text = ""
		}
	}()

	out, err := g.analyzer.Analyze(ctx, doc)
	if err != nil {
		status := "error"
		if ctx.Err() == context.DeadlineExceeded {
			status = "timeout"
		}
		logger.Warn("OCR call failed, continuing with empty text",
			zap.String("filename", doc.Filename),
			zap.String("status", status),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		metrics.OCRCalls.WithLabelValues(status).Inc()
		return ""
	}

	metrics.OCRCalls.WithLabelValues("success").Inc()
	logger.Debug("OCR call completed",
		zap.String("filename", doc.Filename),
		zap.Int("chars", len(out)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return strings.TrimSpace(out)
}

// ExtractChunks runs one OCR call per chunk with at most maxParallel in flight
// and returns parts in chunk order once every call has finished.
func (g *Gateway) ExtractChunks(ctx context.Context, chunks []pdf.Chunk, filename, hint string) []Part {
	parts := make([]Part, len(chunks))

	var eg errgroup.Group
	eg.SetLimit(g.maxParallel)

	for i, chunk := range chunks {
		eg.Go(func() error {
			parts[i] = Part{
				Pages: chunk.Pages,
				Text: g.ExtractText(ctx, Document{
					Data:        chunk.Data,
					Filename:    filename,
					ContentType: "application/pdf",
					Hint:        hint,
				}),
			}
			return nil
		})
	}
	_ = eg.Wait()

	failed := 0
	for _, p := range parts {
		if p.Text == "" {
			failed++
		}
	}
	logger.Info("Chunk OCR finished",
		zap.String("filename", filename),
		zap.Int("chunks", len(chunks)),
		zap.Int("empty_chunks", failed),
	)

	return parts
}
