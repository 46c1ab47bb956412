package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"filedepot-backend/internal/disk"
	"filedepot-backend/internal/domain"
)

const (
	defaultPort                       = "8080"
	defaultEnv                        = "development"
	defaultDBDriver                   = "sqlite"
	defaultSQLiteURL                  = "data/filedepot.db?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	defaultStorageRoot                = "data/files"
	defaultMaxUploadBytes       int64 = 100 * 1024 * 1024 // 100MB
	defaultMultipartMemoryBytes int64 = 32 * 1024 * 1024  // 32MB
	defaultShutdownTimeout            = 10 * time.Second
)

// Config captures server runtime configuration.
type Config struct {
	AppEnv               string
	Port                 string
	DBDriver             string
	DatabaseURL          string
	StorageRoot          string
	JournalDir           string
	ProvisionalReference string
	MaxUploadBytes       int64
	MultipartMemoryBytes int64
	AllowedOrigins       []string
	ShutdownTimeout      time.Duration
	SentryDSN            string
}

// Load reads an optional .env file and environment variables into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	cfg := &Config{
		AppEnv:               getEnv("APP_ENV", defaultEnv),
		Port:                 getEnv("FILES_SERVER_PORT", defaultPort),
		DBDriver:             getEnv("DB_DRIVER", defaultDBDriver),
		DatabaseURL:          strings.TrimSpace(os.Getenv("DATABASE_URL")),
		StorageRoot:          getEnv("FILES_STORAGE_ROOT", defaultStorageRoot),
		JournalDir:           strings.TrimSpace(os.Getenv("FILES_JOURNAL_DIR")),
		ProvisionalReference: getEnv("FILES_PROVISIONAL_REFERENCE", domain.ProvisionalReference),
		MaxUploadBytes:       parseInt64("FILES_MAX_UPLOAD_BYTES", defaultMaxUploadBytes),
		MultipartMemoryBytes: parseInt64("FILES_MULTIPART_MEMORY_BYTES", defaultMultipartMemoryBytes),
		AllowedOrigins:       parseList("FILES_ALLOWED_ORIGINS", []string{"*"}),
		ShutdownTimeout:      parseDuration("FILES_SHUTDOWN_TIMEOUT", defaultShutdownTimeout),
		SentryDSN:            strings.TrimSpace(os.Getenv("SENTRY_DSN")),
	}

	switch cfg.DBDriver {
	case "sqlite":
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = defaultSQLiteURL
		}
	case "pgx":
		if cfg.DatabaseURL == "" {
			return nil, errors.New("DATABASE_URL is required when DB_DRIVER=pgx")
		}
	default:
		return nil, fmt.Errorf("DB_DRIVER must be sqlite or pgx, got %q", cfg.DBDriver)
	}

	if err := disk.ValidateComponent(cfg.ProvisionalReference); err != nil {
		return nil, fmt.Errorf("FILES_PROVISIONAL_REFERENCE: %w", err)
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.MultipartMemoryBytes <= 0 {
		cfg.MultipartMemoryBytes = defaultMultipartMemoryBytes
	}

	root, err := filepath.Abs(cfg.StorageRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve FILES_STORAGE_ROOT: %w", err)
	}
	cfg.StorageRoot = root

	if cfg.JournalDir == "" {
		cfg.JournalDir = filepath.Join(cfg.StorageRoot, ".journal")
	}
	if cfg.JournalDir, err = filepath.Abs(cfg.JournalDir); err != nil {
		return nil, fmt.Errorf("resolve FILES_JOURNAL_DIR: %w", err)
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func getEnv(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func parseInt64(key string, fallback int64) int64 {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		slog.Warn("config invalid integer, using default", "key", key, "value", val, "default", fallback)
		return fallback
	}
	return parsed
}

func parseDuration(key string, fallback time.Duration) time.Duration {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	dur, err := time.ParseDuration(val)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", val, "default", fallback)
		return fallback
	}
	return dur
}

func parseList(key string, fallback []string) []string {
	val := strings.TrimSpace(os.Getenv(key))
	if val == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(val, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}
