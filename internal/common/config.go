package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	OCR      OCRConfig      `yaml:"ocr"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Semantic SemanticConfig `yaml:"semantic"`
	LLM      LLMConfig      `yaml:"llm"`
	Ingest   IngestConfig   `yaml:"ingest"`
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	Driver           string        `yaml:"driver"` // "sqlite" | "postgres"
	DSN              string        `yaml:"dsn"`
	MaxConns         int32         `yaml:"max_conns"`
	MinConns         int32         `yaml:"min_conns"`
	MaxConnLifetime  time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime  time.Duration `yaml:"max_conn_idle_time"`
	DialTimeout      time.Duration `yaml:"dial_timeout"`
	StatementTimeout time.Duration `yaml:"statement_timeout"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string `yaml:"grpc_addr"`
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	Tesseract        string `yaml:"tesseract"`
	Languages        string `yaml:"languages"`
	HeicConverter    string `yaml:"heic_converter"`
	TessdataDir      string `yaml:"tessdata_dir"`
	ArtifactCacheDir string `yaml:"artifact_cache_dir"`
}

// PipelineConfig controls the capture scheduler.
type PipelineConfig struct {
	MaxConcurrent  int           `yaml:"max_concurrent"`
	QueueSize      int           `yaml:"queue_size"`
	ProcessTimeout time.Duration `yaml:"process_timeout"`
	KeepAttachment bool          `yaml:"keep_attachment"`
}

// SemanticConfig selects the NLP backend.
type SemanticConfig struct {
	Backend string `yaml:"backend"` // "lexicon" | "llm"
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model       string        `yaml:"model"`
	APIKey      string        `yaml:"-"`
	Org         string        `yaml:"organization"`
	BaseURL     string        `yaml:"base_url"`
	Temperature float32       `yaml:"temperature"`
	Timeout     time.Duration `yaml:"timeout"`
	Lenient     bool          `yaml:"lenient"`
}

// IngestConfig controls the screenshot watcher.
type IngestConfig struct {
	WatchDirs   []string      `yaml:"watch_dirs"`
	Debounce    time.Duration `yaml:"debounce"`
	InitialScan bool          `yaml:"initial_scan"`
}

// LoadConfig loads configuration from environment variables
func LoadConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			Driver:           getEnv("DB_DRIVER", "sqlite"),
			DSN:              getEnv("DB_URL", "file:capture.db"),
			MaxConns:         getEnvAsInt32("DB_MAX_CONNS", 10),
			MinConns:         getEnvAsInt32("DB_MIN_CONNS", 1),
			MaxConnLifetime:  getEnvAsDuration("DB_MAX_CONN_LIFETIME", 30*time.Minute),
			MaxConnIdleTime:  getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", 5*time.Minute),
			DialTimeout:      getEnvAsDuration("DB_DIAL_TIMEOUT", 3*time.Second),
			StatementTimeout: getEnvAsDuration("DB_STATEMENT_TIMEOUT", 0),
		},
		Server: ServerConfig{
			GRPCAddr: getEnv("GRPC_ADDR", ":8080"),
		},
		OCR: OCRConfig{
			Tesseract:        getEnv("TESSERACT_BIN", "tesseract"),
			Languages:        getEnv("OCR_LANGUAGES", "eng+fra+deu+spa"),
			HeicConverter:    getEnv("HEIC_CONVERTER", "magick"),
			TessdataDir:      getEnv("TESSDATA_PREFIX", ""),
			ArtifactCacheDir: getEnv("ARTIFACT_CACHE_DIR", "./tmp"),
		},
		Pipeline: PipelineConfig{
			MaxConcurrent:  getEnvAsInt("PIPELINE_MAX_CONCURRENT", 3),
			QueueSize:      getEnvAsInt("PIPELINE_QUEUE_SIZE", 256),
			ProcessTimeout: getEnvAsDuration("PIPELINE_PROCESS_TIMEOUT", 3*time.Minute),
			KeepAttachment: getEnvAsBool("PIPELINE_KEEP_ATTACHMENT", true),
		},
		Semantic: SemanticConfig{
			Backend: getEnv("SEMANTIC_BACKEND", "lexicon"),
		},
		LLM: LLMConfig{
			Model:       getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			APIKey:      getEnv("OPENAI_API_KEY", ""),
			Org:         getEnv("OPENAI_ORG_ID", ""),
			BaseURL:     getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			Temperature: getEnvAsFloat32("OPENAI_TEMPERATURE", 0.0),
			Timeout:     getEnvAsDuration("OPENAI_TIMEOUT", 45*time.Second),
			Lenient:     getEnvAsBool("OPENAI_LENIENT", true),
		},
		Ingest: IngestConfig{
			WatchDirs:   getEnvAsList("WATCH_DIRS", nil),
			Debounce:    getEnvAsDuration("WATCH_DEBOUNCE", 500*time.Millisecond),
			InitialScan: getEnvAsBool("WATCH_INITIAL_SCAN", false),
		},
	}
}

// LoadConfigFile starts from the YAML file at path and lets environment variables override it.
// An empty path is the same as LoadConfig.
func LoadConfigFile(path string) (*Config, error) {
	if path == "" {
		return LoadConfig(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, NewAppError("CONFIG_ERROR", "read config file", err)
	}
	var file Config
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", path), err)
	}
	// Booleans need presence, not zero-value, detection.
	var flags struct {
		Pipeline struct {
			KeepAttachment *bool `yaml:"keep_attachment"`
		} `yaml:"pipeline"`
		LLM struct {
			Lenient *bool `yaml:"lenient"`
		} `yaml:"llm"`
		Ingest struct {
			InitialScan *bool `yaml:"initial_scan"`
		} `yaml:"ingest"`
	}
	if err := yaml.Unmarshal(raw, &flags); err != nil {
		return nil, NewAppError("CONFIG_ERROR", fmt.Sprintf("parse %s", path), err)
	}

	cfg := LoadConfig()
	overlay(cfg, &file)
	setBool := func(dst *bool, env string, v *bool) {
		if os.Getenv(env) == "" && v != nil {
			*dst = *v
		}
	}
	setBool(&cfg.Pipeline.KeepAttachment, "PIPELINE_KEEP_ATTACHMENT", flags.Pipeline.KeepAttachment)
	setBool(&cfg.LLM.Lenient, "OPENAI_LENIENT", flags.LLM.Lenient)
	setBool(&cfg.Ingest.InitialScan, "WATCH_INITIAL_SCAN", flags.Ingest.InitialScan)
	return cfg, nil
}

// overlay copies file values into cfg wherever the matching env var is unset.
func overlay(cfg, file *Config) {
	setStr := func(dst *string, env, v string) {
		if os.Getenv(env) == "" && v != "" {
			*dst = v
		}
	}
	setInt := func(dst *int, env string, v int) {
		if os.Getenv(env) == "" && v != 0 {
			*dst = v
		}
	}
	setDur := func(dst *time.Duration, env string, v time.Duration) {
		if os.Getenv(env) == "" && v != 0 {
			*dst = v
		}
	}

	setStr(&cfg.Database.Driver, "DB_DRIVER", file.Database.Driver)
	setStr(&cfg.Database.DSN, "DB_URL", file.Database.DSN)
	setDur(&cfg.Database.DialTimeout, "DB_DIAL_TIMEOUT", file.Database.DialTimeout)
	setStr(&cfg.Server.GRPCAddr, "GRPC_ADDR", file.Server.GRPCAddr)
	setStr(&cfg.OCR.Tesseract, "TESSERACT_BIN", file.OCR.Tesseract)
	setStr(&cfg.OCR.Languages, "OCR_LANGUAGES", file.OCR.Languages)
	setStr(&cfg.OCR.HeicConverter, "HEIC_CONVERTER", file.OCR.HeicConverter)
	setStr(&cfg.OCR.TessdataDir, "TESSDATA_PREFIX", file.OCR.TessdataDir)
	setStr(&cfg.OCR.ArtifactCacheDir, "ARTIFACT_CACHE_DIR", file.OCR.ArtifactCacheDir)
	setInt(&cfg.Pipeline.MaxConcurrent, "PIPELINE_MAX_CONCURRENT", file.Pipeline.MaxConcurrent)
	setInt(&cfg.Pipeline.QueueSize, "PIPELINE_QUEUE_SIZE", file.Pipeline.QueueSize)
	setDur(&cfg.Pipeline.ProcessTimeout, "PIPELINE_PROCESS_TIMEOUT", file.Pipeline.ProcessTimeout)
	setStr(&cfg.Semantic.Backend, "SEMANTIC_BACKEND", file.Semantic.Backend)
	setStr(&cfg.LLM.Model, "OPENAI_MODEL", file.LLM.Model)
	setStr(&cfg.LLM.BaseURL, "OPENAI_BASE_URL", file.LLM.BaseURL)
	setStr(&cfg.LLM.Org, "OPENAI_ORG_ID", file.LLM.Org)
	setDur(&cfg.LLM.Timeout, "OPENAI_TIMEOUT", file.LLM.Timeout)
	if os.Getenv("WATCH_DIRS") == "" && len(file.Ingest.WatchDirs) > 0 {
		cfg.Ingest.WatchDirs = file.Ingest.WatchDirs
	}
	setDur(&cfg.Ingest.Debounce, "WATCH_DEBOUNCE", file.Ingest.Debounce)
	if os.Getenv("OPENAI_TEMPERATURE") == "" && file.LLM.Temperature != 0 {
		cfg.LLM.Temperature = file.LLM.Temperature
	}
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

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, p := range strings.Split(value, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Validate validates the loaded configuration
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "sqlite", "postgres":
	default:
		return NewAppError("CONFIG_ERROR", "DB_DRIVER must be sqlite or postgres", ErrInvalidInput)
	}
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	if c.Pipeline.MaxConcurrent <= 0 {
		return NewAppError("CONFIG_ERROR", "PIPELINE_MAX_CONCURRENT must be positive", ErrInvalidInput)
	}
	switch c.Semantic.Backend {
	case "lexicon":
	case "llm":
		if c.LLM.APIKey == "" {
			return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required for the llm backend", ErrInvalidInput)
		}
	default:
		return NewAppError("CONFIG_ERROR", "SEMANTIC_BACKEND must be lexicon or llm", ErrInvalidInput)
	}
	return nil
}
