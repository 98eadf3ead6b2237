package ocr

import (
	"context"
	"errors"
	"fmt"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/fleetdocs/backend/internal/metrics"
	"github.com/fleetdocs/backend/pkg/circuitbreaker"
	"github.com/fleetdocs/backend/pkg/logger"
	"github.com/fleetdocs/backend/pkg/retry"
)

type DocumentAIConfig struct {
	ProjectID       string
	Location        string
	ProcessorID     string
	CredentialsFile string
}

func (c DocumentAIConfig) processorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// DocumentAIClient is the Analyzer backed by a Google Document AI OCR processor.
type DocumentAIClient struct {
	client      *documentai.DocumentProcessorClient
	name        string
	cb          *circuitbreaker.CircuitBreaker
	retryConfig retry.Config
}

func NewDocumentAIClient(ctx context.Context, cfg DocumentAIConfig) (*DocumentAIClient, error) {
	if cfg.ProjectID == "" || cfg.ProcessorID == "" {
		return nil, errors.New("document ai project id and processor id are required")
	}
	if cfg.Location == "" {
		cfg.Location = "us"
	}

	opts := []option.ClientOption{
		option.WithEndpoint(fmt.Sprintf("%s-documentai.googleapis.com:443", cfg.Location)),
	}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create document ai client: %w", err)
	}

	cb := circuitbreaker.NewCircuitBreaker("documentai", circuitbreaker.Config{
		MaxRequests:      2,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		SuccessThreshold: 1,
		OnStateChange:    metrics.BreakerStateChanged,
		Logger:           logger.GetLogger(),
	})

	retryConfig := retry.Config{
		MaxAttempts:    2,
		InitialDelay:   time.Second,
		MaxDelay:       5 * time.Second,
		Multiplier:     2.0,
		JitterFraction: 0.1,
		Logger:         logger.GetLogger(),
	}

	logger.Info("Document AI client initialized",
		zap.String("project", cfg.ProjectID),
		zap.String("location", cfg.Location),
		zap.String("processor", cfg.ProcessorID),
	)

	return &DocumentAIClient{
		client:      client,
		name:        cfg.processorName(),
		cb:          cb,
		retryConfig: retryConfig,
	}, nil
}

func (c *DocumentAIClient) Close() error {
	return c.client.Close()
}

func (c *DocumentAIClient) BreakerState() circuitbreaker.State {
	return c.cb.State()
}

func (c *DocumentAIClient) Analyze(ctx context.Context, doc Document) (string, error) {
	mimeType := doc.ContentType
	if mimeType == "" {
		mimeType = "application/pdf"
	}

	req := &documentaipb.ProcessRequest{
		Name: c.name,
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  doc.Data,
				MimeType: mimeType,
			},
		},
	}

	var text string
	err := c.cb.Execute(ctx, func() error {
		var err error
		text, err = retry.DoWithResult(ctx, c.retryConfig, func() (string, error) {
			resp, err := c.client.ProcessDocument(ctx, req)
			if err != nil {
				return "", fmt.Errorf("document ai process: %w", err)
			}
			logger.Debug("Document AI processed document",
				zap.String("filename", doc.Filename),
				zap.String("hint", doc.Hint),
				zap.Int("pages", len(resp.GetDocument().GetPages())),
			)
			return resp.GetDocument().GetText(), nil
		})
		return err
	})
	if err != nil {
		return "", err
	}

	if text == "" {
		return "", errors.New("document ai returned no text")
	}
	return text, nil
}
