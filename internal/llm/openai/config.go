package openai

import (
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"
)

// Fallbacks for zero-valued Config fields.
const (
	DefaultBaseURL = "https://api.openai.com/v1"
	DefaultModel   = "gpt-4o-mini"
	DefaultTimeout = 30 * time.Second

	maxTemperature = 2
)

// Config selects the chat-completions endpoint that analyzes capture text.
// Any OpenAI-compatible gateway works through BaseURL.
type Config struct {
	// APIKey falls back to OPENAI_API_KEY.
	APIKey string
	// Organization is sent as OpenAI-Organization and falls back to OPENAI_ORG_ID.
	Organization string
	BaseURL      string
	Model        string
	// Temperature is clamped to [0, 2].
	Temperature float32
	Timeout     time.Duration
	// LenientOptional sanitizes and re-validates output that fails the schema
	// instead of degrading the semantic stage.
	LenientOptional bool
}

func (c Config) withDefaults() Config {
	if c.APIKey == "" {
		c.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if c.Organization == "" {
		c.Organization = os.Getenv("OPENAI_ORG_ID")
	}
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	c.Temperature = min(max(c.Temperature, 0), maxTemperature)
	return c
}

func (c Config) endpoint() string { return c.BaseURL + "/chat/completions" }

func (c Config) headers() map[string]string {
	h := map[string]string{"Authorization": "Bearer " + c.APIKey}
	if c.Organization != "" {
		h["OpenAI-Organization"] = c.Organization
	}
	return h
}

// Client implements nlp.Processor over chat completions.
type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}
