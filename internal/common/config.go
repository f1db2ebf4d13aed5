package common

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/biodata-tracker/constants"
)

// Config holds all application configuration
type Config struct {
	Database   DatabaseConfig
	Server     ServerConfig
	Storage    StorageConfig
	Extract    ExtractConfig
	LLM        LLMConfig
	Vertex     VertexConfig
	Jobs       JobsConfig
	Matching   MatchingConfig
	Validation ValidationConfig
	Log        LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string // sqlite | postgres
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
	OpsAddr  string
}

// StorageConfig selects where uploaded source documents are kept.
type StorageConfig struct {
	Backend string // local | gcs
	Dir     string
	Bucket  string
	Prefix  string
}

// ExtractConfig holds extraction-call configuration shared by all providers.
type ExtractConfig struct {
	Provider      string // openai | vertex | static
	ItemTimeout   time.Duration
	MaxPages      int
	MaxFileSizeMB int
	RPM           int
	Burst         int
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
}

// VertexConfig holds Vertex AI Gemini settings.
type VertexConfig struct {
	Project  string
	Location string
	Model    string
}

// JobsConfig sizes the batch orchestrator.
type JobsConfig struct {
	Workers         int
	MaxBatchFiles   int
	Retention       time.Duration
	JanitorInterval time.Duration
}

// MatchingConfig points at an optional TOML file with scoring weights.
type MatchingConfig struct {
	ConfigFile string
}

type ValidationConfig struct {
	AutoApproveMin float64
}

type LogConfig struct {
	Level  string
	Format string // text | json | "" for auto
}

// LoadConfig loads configuration from environment variables.
// A .env file in the working directory is applied first when present.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, NewAppError(CodeConfig, "load .env", err)
	}
	return &Config{
		Database: DatabaseConfig{
			Driver:           strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			DSN:              getEnv("DB_URL", "biodata.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 20),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 2),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
			OpsAddr:  getEnv("OPS_ADDR", ":9090"),
		},
		Storage: StorageConfig{
			Backend: strings.ToLower(getEnv("STORAGE_BACKEND", "local")),
			Dir:     getEnv("UPLOAD_DIR", "./uploads"),
			Bucket:  getEnv("GCS_BUCKET", ""),
			Prefix:  getEnv("GCS_PREFIX", "biodata"),
		},
		Extract: ExtractConfig{
			Provider:      strings.ToLower(getEnv("EXTRACT_PROVIDER", "openai")),
			ItemTimeout:   getEnvAsDuration("EXTRACT_TIMEOUT", 2*time.Minute),
			MaxPages:      getEnvAsInt("EXTRACT_MAX_PAGES", 10),
			MaxFileSizeMB: getEnvAsInt("MAX_FILE_SIZE_MB", constants.DefaultMaxFileSizeMB),
			RPM:           getEnvAsInt("EXTRACT_RPM", 60),
			Burst:         getEnvAsInt("EXTRACT_BURST", 5),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 90*time.Second),
		},
		Vertex: VertexConfig{
			Project:  getEnv("GCP_PROJECT", ""),
			Location: getEnv("VERTEX_LOCATION", "us-central1"),
			Model:    getEnv("VERTEX_MODEL", "gemini-1.5-pro"),
		},
		Jobs: JobsConfig{
			Workers:         getEnvAsInt("JOB_WORKERS", 4),
			MaxBatchFiles:   getEnvAsInt("MAX_BATCH_FILES", constants.MaxBatchFiles),
			Retention:       getEnvAsDuration("JOB_RETENTION", 24*time.Hour),
			JanitorInterval: getEnvAsDuration("JOB_JANITOR_INTERVAL", 10*time.Minute),
		},
		Matching: MatchingConfig{
			ConfigFile: getEnv("MATCHING_CONFIG", ""),
		},
		Validation: ValidationConfig{
			AutoApproveMin: getEnvAsFloat64("AUTO_APPROVE_MIN_CONFIDENCE", constants.DefaultAutoApproveConfidence),
		},
		Log: LogConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", ""),
		},
	}, nil
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("DB_DRIVER %q is not supported", c.Database.Driver), ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError(CodeConfig, "DB_URL is required", ErrInvalidInput)
	}
	switch c.Extract.Provider {
	case "openai":
		if c.LLM.APIKey == "" {
			return NewAppError(CodeConfig, "OPENAI_API_KEY is required", ErrInvalidInput)
		}
	case "vertex":
		if c.Vertex.Project == "" {
			return NewAppError(CodeConfig, "GCP_PROJECT is required for the vertex provider", ErrInvalidInput)
		}
	case "static":
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("EXTRACT_PROVIDER %q is not supported", c.Extract.Provider), ErrInvalidInput)
	}
	switch c.Storage.Backend {
	case "local":
		if c.Storage.Dir == "" {
			return NewAppError(CodeConfig, "UPLOAD_DIR is required", ErrInvalidInput)
		}
	case "gcs":
		if c.Storage.Bucket == "" {
			return NewAppError(CodeConfig, "GCS_BUCKET is required for the gcs backend", ErrInvalidInput)
		}
	default:
		return NewAppError(CodeConfig, fmt.Sprintf("STORAGE_BACKEND %q is not supported", c.Storage.Backend), ErrInvalidInput)
	}
	if c.Jobs.Workers <= 0 {
		return NewAppError(CodeConfig, "JOB_WORKERS must be positive", ErrInvalidInput)
	}
	if c.Jobs.MaxBatchFiles <= 0 || c.Jobs.MaxBatchFiles > constants.MaxBatchFiles {
		return NewAppError(CodeConfig, fmt.Sprintf("MAX_BATCH_FILES must be within 1..%d", constants.MaxBatchFiles), ErrInvalidInput)
	}
	if c.Validation.AutoApproveMin < 0 || c.Validation.AutoApproveMin > 1 {
		return NewAppError(CodeConfig, "AUTO_APPROVE_MIN_CONFIDENCE must be within [0,1]", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError(CodeConfig, "GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
