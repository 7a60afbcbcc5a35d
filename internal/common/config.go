package common

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	OCR      OCRConfig
	Triage   TriageConfig
	Queue    QueueConfig
	Log      LogConfig
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `env:"DB_DRIVER" envDefault:"sqlite"`
	DSN              string        `env:"DB_URL" envDefault:"file:fnol.db?_pragma=busy_timeout(5000)"`
	MaxConns         int32         `env:"DB_MAX_CONNS" envDefault:"20"`
	MinConns         int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	MaxConnLifetime  time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	MaxConnIdleTime  time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DialTimeout      time.Duration `env:"DB_DIAL_TIMEOUT" envDefault:"3s"`
	StatementTimeout time.Duration `env:"DB_STATEMENT_TIMEOUT" envDefault:"0s"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr    string `env:"GRPC_ADDR" envDefault:":8080"`
	MetricsAddr string `env:"METRICS_ADDR" envDefault:":9090"` // empty disables /metrics
}

// OCRConfig holds text-acquisition configuration
type OCRConfig struct {
	Pdftotext   string `env:"OCR_PDFTOTEXT"`
	Pdftoppm    string `env:"OCR_PDFTOPPM"`
	Tesseract   string `env:"OCR_TESSERACT"`
	TessdataDir string `env:"TESSDATA_PREFIX"`
	Lang        string `env:"OCR_LANG" envDefault:"eng"`
	DPI         int    `env:"OCR_DPI" envDefault:"300"`
	MaxPages    int    `env:"OCR_MAX_PAGES" envDefault:"0"`
	TSVConf     bool   `env:"OCR_TSV_CONFIDENCE" envDefault:"false"`

	HeicConverter    string `env:"HEIC_CONVERTER"`
	ArtifactCacheDir string `env:"ARTIFACT_CACHE_DIR"`
}

// TriageConfig holds rules and output locations
type TriageConfig struct {
	RulesFile string `env:"RULES_FILE"`
	OutputDir string `env:"OUTPUT_DIR" envDefault:"output"`
	InboxDir  string `env:"INBOX_DIR"`
	// FileRoot bounds the paths gRPC TriageFile may read; INBOX_DIR is used when empty.
	FileRoot string `env:"TRIAGE_FILE_ROOT"`
}

// QueueConfig sizes the background worker pool
type QueueConfig struct {
	Workers        int           `env:"QUEUE_WORKERS" envDefault:"4"`
	Size           int           `env:"QUEUE_SIZE" envDefault:"256"`
	ProcessTimeout time.Duration `env:"PROCESS_TIMEOUT" envDefault:"2m"`
}

// LogConfig selects the slog handler
type LogConfig struct {
	Level  string `env:"LOG_LEVEL" envDefault:"info"`
	Format string `env:"LOG_FORMAT" envDefault:"json"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "parse environment", err)
	}
	return cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("DB_DRIVER must be sqlite or postgres, got %q", c.Database.Driver), ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Queue.Workers <= 0 || c.Queue.Size <= 0 {
		return NewAppError("CONFIG_ERROR", "QUEUE_WORKERS and QUEUE_SIZE must be positive", ErrInvalidInput)
	}
	if _, err := ParseLogLevel(c.Log.Level); err != nil {
		return NewAppError("CONFIG_ERROR", "LOG_LEVEL", err)
	}
	return nil
}

// ParseLogLevel maps debug|info|warn|error onto slog levels.
func ParseLogLevel(s string) (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("%w: log level %q", ErrInvalidInput, s)
	}
	return lvl, nil
}

// NewLogger builds the process logger: JSON by default, text when format is "text".
func NewLogger(cfg LogConfig) *slog.Logger {
	lvl, err := ParseLogLevel(cfg.Level)
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, opts))
}
