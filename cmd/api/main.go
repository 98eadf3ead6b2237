package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"go.uber.org/zap"

	"github.com/fleetdocs/backend/internal/api/handlers"
	"github.com/fleetdocs/backend/internal/deletion"
	"github.com/fleetdocs/backend/internal/duplicate"
	"github.com/fleetdocs/backend/internal/extraction"
	"github.com/fleetdocs/backend/internal/llm"
	"github.com/fleetdocs/backend/internal/metrics"
	"github.com/fleetdocs/backend/internal/middleware/ratelimit"
	"github.com/fleetdocs/backend/internal/middleware/security"
	"github.com/fleetdocs/backend/internal/middleware/validation"
	"github.com/fleetdocs/backend/internal/ocr"
	"github.com/fleetdocs/backend/internal/pdf"
	"github.com/fleetdocs/backend/internal/storage"
	"github.com/fleetdocs/backend/internal/upload"
	"github.com/fleetdocs/backend/pkg/config"
	appLogger "github.com/fleetdocs/backend/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	err = appLogger.Init(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.OutputPath)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer appLogger.Sync()

	appLogger.Info("Starting fleet document API server")
	metrics.Init()

	ctx := context.Background()

	store, err := newStore(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to create document store", zap.Error(err))
	}
	defer store.Close(context.Background())

	responseCache, err := newCache(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to create cache", zap.Error(err))
	}
	defer responseCache.Close()

	files, err := newFileStorage(ctx, cfg)
	if err != nil {
		appLogger.Fatal("Failed to create file storage", zap.Error(err))
	}

	docAI, err := ocr.NewDocumentAIClient(ctx, ocr.DocumentAIConfig{
		ProjectID:       cfg.DocumentAI.ProjectID,
		Location:        cfg.DocumentAI.Location,
		ProcessorID:     cfg.DocumentAI.ProcessorID,
		CredentialsFile: cfg.DocumentAI.CredentialsFile,
	})
	if err != nil {
		appLogger.Fatal("Failed to create Document AI client", zap.Error(err))
	}
	defer docAI.Close()

	llmClient := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     time.Duration(cfg.LLM.TimeoutSec) * time.Second,
	})

	deletions := deletion.NewQueue(files,
		deletion.WithWorkers(cfg.Deletion.Workers),
		deletion.WithQueueSize(cfg.Deletion.QueueSize),
		deletion.WithBackoff(cfg.Deletion.MaxAttempts,
			time.Duration(cfg.Deletion.InitialDelaySec)*time.Second,
			time.Duration(cfg.Deletion.MaxDelaySec)*time.Second,
		),
		deletion.WithEnqueueWait(time.Duration(cfg.Deletion.EnqueueWaitMs)*time.Millisecond),
	)

	certs := storage.NewCertificates(store)
	ships := storage.NewShips(store)

	orch := upload.New(upload.Deps{
		Splitter: pdf.NewSplitter(
			pdf.WithSplitThreshold(cfg.Upload.SplitThreshold),
			pdf.WithMaxPagesPerChunk(cfg.Upload.MaxPagesPerChunk),
		),
		OCR:       ocr.NewGateway(docAI, time.Duration(cfg.DocumentAI.TimeoutSec)*time.Second, cfg.DocumentAI.MaxParallel),
		Completer: llmClient,
		Cache:     responseCache,
		Detector: duplicate.NewDetector(
			duplicate.WithThreshold(cfg.Duplicates.SimilarityThreshold),
			duplicate.WithCaseInsensitiveExact(cfg.Duplicates.CaseInsensitiveExact),
		),
		Certificates: certs,
		Ships:        ships,
		Files:        files,
		Deletions:    deletions,
	}, upload.Config{
		MaxFileSize: int64(cfg.Upload.MaxFileSizeMB) << 20,
		AI:          extraction.AIConfig{Provider: cfg.LLM.Provider, Model: cfg.LLM.Model},
	})

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	limiter := ratelimit.New(ratelimit.Config{
		MaxRequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		Logger:               appLogger.GetLogger(),
	})
	defer limiter.Stop()

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: joinOrigins(cfg.Server.AllowedOrigins),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, " + handlers.CompanyHeader,
		AllowMethods: "GET, POST, PATCH, DELETE, OPTIONS",
	}))
	app.Use(security.HeadersMiddleware(security.HeadersConfig{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		IsDevelopment:  cfg.Server.IsDevelopment,
	}))

	readiness := map[string]handlers.Pinger{"store": store}
	if p, ok := responseCache.(handlers.Pinger); ok {
		readiness["cache"] = p
	}

	breakers := map[string]handlers.BreakerStater{"documentai": docAI, "llm": llmClient}
	if b, ok := files.(handlers.BreakerStater); ok {
		breakers["file_storage"] = b
	}

	api := app.Group("/api/v1")
	handlers.NewHealthHandler(readiness, breakers).Register(api)
	api.Get("/metrics", metrics.MetricsHandler())

	records := api.Group("", limiter.Middleware(), validation.Middleware(validation.Config{
		Logger: appLogger.GetLogger(),
	}))
	handlers.NewCertificateHandler(orch, cfg.Upload.MaxFilesPerBatch).Register(records)
	handlers.NewSurveyHandler(certs, ships).Register(records)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	appLogger.Info("Server starting", zap.String("address", addr))

	go func() {
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Server shutting down gracefully...")
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		appLogger.Warn("HTTP shutdown incomplete", zap.Error(err))
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	deletions.Shutdown(drainCtx)

	appLogger.Info("Server stopped")
}
