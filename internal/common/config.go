package common

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

// Record policies for the structured record extractor.
const (
	RecordPolicyStrict  = "strict"
	RecordPolicyPartial = "partial"
)

// Record store backends.
const (
	BackendCSV      = "csv"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
)

// Config holds all application configuration
type Config struct {
	Server   ServerConfig
	Records  RecordsConfig
	Database DatabaseConfig
	OCR      OCRConfig
	Vision   VisionConfig
	Chat     ChatConfig
	Entities EntitiesConfig
	DrugInfo DrugInfoConfig
	Session  SessionConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	HTTPAddr       string `env:"HTTP_ADDR" envDefault:":8000"`
	GRPCAddr       string `env:"GRPC_ADDR"`
	UploadDir      string `env:"UPLOAD_DIR" envDefault:"./uploads"`
	MaxUploadBytes int64  `env:"MAX_UPLOAD_BYTES" envDefault:"16777216"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"text"`
}

// RecordsConfig selects where prescription rows are persisted.
type RecordsConfig struct {
	Backend    string `env:"RECORDS_BACKEND" envDefault:"csv"`
	CSVPath    string `env:"RECORDS_CSV_PATH" envDefault:"prescriptions.csv"`
	SQLitePath string `env:"SQLITE_PATH" envDefault:"prescriptions.db"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN             string        `env:"DB_URL"`
	MaxConns        int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	MinConns        int32         `env:"DB_MIN_CONNS" envDefault:"1"`
	MaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"30m"`
	MaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"5m"`
	DialTimeout     time.Duration `env:"DB_DIAL_TIMEOUT" envDefault:"3s"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract     string `env:"TESSERACT" envDefault:"tesseract"`
	Pdftotext     string `env:"PDFTOTEXT" envDefault:"pdftotext"`
	Pdftoppm      string `env:"PDFTOPPM" envDefault:"pdftoppm"`
	TesseractLang string `env:"TESSERACT_LANG" envDefault:"eng"`
	TessdataDir   string `env:"TESSDATA_PREFIX"`
}

// VisionConfig configures the multimodal record extractor.
type VisionConfig struct {
	APIKey       string        `env:"OPENAI_API_KEY"`
	BaseURL      string        `env:"OPENAI_BASE_URL"`
	Model        string        `env:"VISION_MODEL" envDefault:"gpt-4o-2024-08-06"`
	MaxTokens    int           `env:"VISION_MAX_TOKENS" envDefault:"1000"`
	Timeout      time.Duration `env:"VISION_TIMEOUT" envDefault:"60s"`
	RecordPolicy string        `env:"RECORD_POLICY" envDefault:"strict"`
}

// ChatConfig configures the grounded conversational responder.
type ChatConfig struct {
	APIKey       string        `env:"CHAT_API_KEY"`
	BaseURL      string        `env:"CHAT_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	Model        string        `env:"CHAT_MODEL" envDefault:"gemini-1.5-flash"`
	Temperature  float32       `env:"CHAT_TEMPERATURE" envDefault:"0.2"`
	MaxTokens    int           `env:"CHAT_MAX_TOKENS" envDefault:"500"`
	Timeout      time.Duration `env:"CHAT_TIMEOUT" envDefault:"45s"`
	HistoryLimit int           `env:"HISTORY_LIMIT" envDefault:"10"`
}

// EntitiesConfig points at an optional external NER service.
type EntitiesConfig struct {
	NERURL     string        `env:"NER_URL"`
	NERTimeout time.Duration `env:"NER_TIMEOUT" envDefault:"15s"`
}

// DrugInfoConfig configures the OpenFDA label lookup.
type DrugInfoConfig struct {
	BaseURL string        `env:"FDA_BASE_URL" envDefault:"https://api.fda.gov"`
	Timeout time.Duration `env:"FDA_TIMEOUT" envDefault:"10s"`
}

// SessionConfig configures chat sessions.
type SessionConfig struct {
	Secret    string        `env:"SESSION_SECRET"`
	IdleTTL   time.Duration `env:"SESSION_IDLE_TTL" envDefault:"2h"`
	SweepSpec string        `env:"SESSION_SWEEP_SPEC" envDefault:"@every 10m"`
	Secure    bool          `env:"SESSION_COOKIE_SECURE" envDefault:"false"`
}

// LoadConfig loads .env (when present) and then environment variables.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, NewAppError("CONFIG_ERROR", "parse environment", err)
	}
	if cfg.Chat.APIKey == "" {
		cfg.Chat.APIKey = os.Getenv("GEMINI_API_KEY")
	}
	cfg.Records.Backend = strings.ToLower(strings.TrimSpace(cfg.Records.Backend))
	cfg.Vision.RecordPolicy = strings.ToLower(strings.TrimSpace(cfg.Vision.RecordPolicy))
	return cfg, nil
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return NewAppError("CONFIG_ERROR", "HTTP_ADDR is required", ErrInvalidInput)
	}
	if c.Server.MaxUploadBytes <= 0 {
		return NewAppError("CONFIG_ERROR", "MAX_UPLOAD_BYTES must be positive", ErrInvalidInput)
	}
	switch c.Records.Backend {
	case BackendCSV, BackendSQLite:
	case BackendPostgres:
		if c.Database.DSN == "" {
			return NewAppError("CONFIG_ERROR", "DB_URL is required for the postgres backend", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown RECORDS_BACKEND %q", c.Records.Backend), ErrInvalidInput)
	}
	switch c.Vision.RecordPolicy {
	case RecordPolicyStrict, RecordPolicyPartial:
	default:
		return NewAppError("CONFIG_ERROR", fmt.Sprintf("unknown RECORD_POLICY %q", c.Vision.RecordPolicy), ErrInvalidInput)
	}
	if c.Chat.HistoryLimit < 2 {
		return NewAppError("CONFIG_ERROR", "HISTORY_LIMIT must be at least 2", ErrInvalidInput)
	}
	return nil
}
