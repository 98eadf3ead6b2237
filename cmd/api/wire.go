package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fleetdocs/backend/internal/cache"
	"github.com/fleetdocs/backend/internal/cache/redis"
	"github.com/fleetdocs/backend/internal/filestore"
	"github.com/fleetdocs/backend/internal/filestore/appscript"
	"github.com/fleetdocs/backend/internal/filestore/minio"
	"github.com/fleetdocs/backend/internal/storage"
	"github.com/fleetdocs/backend/internal/storage/memory"
	"github.com/fleetdocs/backend/internal/storage/mongo"
	"github.com/fleetdocs/backend/pkg/config"
	appLogger "github.com/fleetdocs/backend/pkg/logger"
)

func newStore(ctx context.Context, cfg *config.Config) (storage.Store, error) {
	if cfg.Storage.Driver == "memory" {
		appLogger.Warn("Using in-memory document store, data is lost on restart")
		return memory.NewStore(), nil
	}
	s, err := mongo.NewStore(ctx, cfg.Mongo.URI, cfg.Mongo.Database, time.Duration(cfg.Mongo.TimeoutSec)*time.Second)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if !cfg.Redis.Enabled {
		appLogger.Info("Redis cache disabled")
		return cache.Noop{}, nil
	}
	c, err := redis.NewClient(ctx,
		cfg.Redis.Host,
		cfg.Redis.Port,
		cfg.Redis.Password,
		cfg.Redis.DB,
		time.Duration(cfg.Redis.TTLHours)*time.Hour,
	)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func newFileStorage(ctx context.Context, cfg *config.Config) (filestore.FileStorage, error) {
	switch cfg.FileStorage.Driver {
	case "minio":
		m := cfg.FileStorage.MinIO
		client, err := minio.NewClient(minio.Config{
			Endpoint:  m.Endpoint,
			AccessKey: m.AccessKey,
			SecretKey: m.SecretKey,
			Bucket:    m.Bucket,
			UseSSL:    m.UseSSL,
			URLExpiry: time.Duration(m.URLExpiry) * time.Second,
		})
		if err != nil {
			return nil, err
		}
		if err := client.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return client, nil
	case "appscript":
		a := cfg.FileStorage.AppScript
		if a.URL == "" {
			return nil, fmt.Errorf("fileStorage.appScript.url is required")
		}
		appLogger.Info("Using Apps Script file storage", zap.String("parent_folder_id", a.ParentFolderID))
		return appscript.NewClient(appscript.Config{
			URL:            a.URL,
			ParentFolderID: a.ParentFolderID,
			Timeout:        time.Duration(a.TimeoutSec) * time.Second,
		}), nil
	default:
		return nil, fmt.Errorf("unknown file storage driver %q", cfg.FileStorage.Driver)
	}
}

func joinOrigins(origins []string) string {
	if len(origins) == 0 {
		return "*"
	}
	return strings.Join(origins, ", ")
}
