package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server      ServerConfig
	Storage     StorageConfig
	Mongo       MongoConfig
	Redis       RedisConfig
	LLM         LLMConfig
	DocumentAI  DocumentAIConfig
	FileStorage FileStorageConfig
	Upload      UploadConfig
	Duplicates  DuplicatesConfig
	Deletion    DeletionConfig
	RateLimit   RateLimitConfig
	Logging     LoggingConfig
}

type ServerConfig struct {
	Host           string
	Port           int
	ReadTimeout    int
	WriteTimeout   int
	BodyLimit      int
	AllowedOrigins []string
	IsDevelopment  bool
}

type StorageConfig struct {
	// Driver is "mongo" or "memory".
	Driver string
}

type MongoConfig struct {
	URI        string
	Database   string
	TimeoutSec int
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	TTLHours int
}

type LLMConfig struct {
	Provider    string
	BaseURL     string
	Model       string
	APIKey      string
	Temperature float32
	MaxTokens   int
	TimeoutSec  int
}

type DocumentAIConfig struct {
	ProjectID       string
	Location        string
	ProcessorID     string
	CredentialsFile string
	TimeoutSec      int
	MaxParallel     int
}

type FileStorageConfig struct {
	// Driver is "appscript" or "minio".
	Driver    string
	AppScript AppScriptConfig
	MinIO     MinIOConfig
}

type AppScriptConfig struct {
	URL            string
	ParentFolderID string
	TimeoutSec     int
}

type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
	URLExpiry int
}

type UploadConfig struct {
	MaxFileSizeMB    int
	MaxFilesPerBatch int
	SplitThreshold   int
	MaxPagesPerChunk int
}

type DuplicatesConfig struct {
	SimilarityThreshold  float64
	CaseInsensitiveExact bool
}

type DeletionConfig struct {
	Workers         int
	QueueSize       int
	MaxAttempts     int
	InitialDelaySec int
	MaxDelaySec     int
	EnqueueWaitMs   int
}

type RateLimitConfig struct {
	RequestsPerMinute int
}

type LoggingConfig struct {
	Level      string
	Format     string
	OutputPath string
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/fleetdocs")

	v.SetEnvPrefix("FLEETDOCS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "mongo", "memory":
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	switch c.FileStorage.Driver {
	case "appscript", "minio":
	default:
		return fmt.Errorf("unknown file storage driver %q", c.FileStorage.Driver)
	}

	if c.Duplicates.SimilarityThreshold <= 0 || c.Duplicates.SimilarityThreshold > 100 {
		return fmt.Errorf("duplicates.similarityThreshold must be in (0, 100], got %v", c.Duplicates.SimilarityThreshold)
	}

	if c.Upload.MaxPagesPerChunk <= 0 {
		return fmt.Errorf("upload.maxPagesPerChunk must be positive")
	}

	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.readTimeout", 120)
	v.SetDefault("server.writeTimeout", 300)
	v.SetDefault("server.bodyLimit", 200*1024*1024)
	v.SetDefault("server.allowedOrigins", []string{"*"})
	v.SetDefault("server.isDevelopment", false)

	v.SetDefault("storage.driver", "mongo")

	v.SetDefault("mongo.uri", "mongodb://localhost:27017")
	v.SetDefault("mongo.database", "fleetdocs")
	v.SetDefault("mongo.timeoutSec", 10)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttlHours", 24)

	v.SetDefault("llm.provider", "openai")
	v.SetDefault("llm.baseURL", "")
	v.SetDefault("llm.apiKey", "")
	v.SetDefault("llm.model", "gpt-4o-mini")
	v.SetDefault("llm.temperature", 0.0)
	v.SetDefault("llm.maxTokens", 2048)
	v.SetDefault("llm.timeoutSec", 60)

	v.SetDefault("documentAI.projectID", "")
	v.SetDefault("documentAI.location", "us")
	v.SetDefault("documentAI.processorID", "")
	v.SetDefault("documentAI.credentialsFile", "")
	v.SetDefault("documentAI.timeoutSec", 60)
	v.SetDefault("documentAI.maxParallel", 4)

	v.SetDefault("fileStorage.driver", "appscript")
	v.SetDefault("fileStorage.appScript.url", "")
	v.SetDefault("fileStorage.appScript.parentFolderID", "")
	v.SetDefault("fileStorage.appScript.timeoutSec", 120)
	v.SetDefault("fileStorage.minio.accessKey", "")
	v.SetDefault("fileStorage.minio.secretKey", "")
	v.SetDefault("fileStorage.minio.useSSL", false)
	v.SetDefault("fileStorage.minio.endpoint", "localhost:9000")
	v.SetDefault("fileStorage.minio.bucket", "fleetdocs")
	v.SetDefault("fileStorage.minio.urlExpiry", 3600)

	v.SetDefault("upload.maxFileSizeMB", 50)
	v.SetDefault("upload.maxFilesPerBatch", 20)
	v.SetDefault("upload.splitThreshold", 15)
	v.SetDefault("upload.maxPagesPerChunk", 12)

	v.SetDefault("duplicates.similarityThreshold", 70.0)
	v.SetDefault("duplicates.caseInsensitiveExact", false)

	v.SetDefault("deletion.workers", 2)
	v.SetDefault("deletion.queueSize", 256)
	v.SetDefault("deletion.maxAttempts", 5)
	v.SetDefault("deletion.initialDelaySec", 2)
	v.SetDefault("deletion.maxDelaySec", 60)
	v.SetDefault("deletion.enqueueWaitMs", 1000)

	v.SetDefault("rateLimit.requestsPerMinute", 120)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.outputPath", "stdout")
}
