package mistral

import (
	"log/slog"
	"net/http"
	"os"
	"time"
)

// Config for the Mistral chat client.
type Config struct {
	APIKey      string        // if empty, falls back to env MISTRAL_API_KEY
	BaseURL     string        // default https://api.mistral.ai/v1
	Model       string        // e.g. "mistral-large-latest"
	Temperature float32       // 0..1; extraction and comparison both run at 0
	MaxTokens   int           // response cap, default 3000
	Timeout     time.Duration // http client timeout
}

type Client struct {
	cfg        Config
	httpClient *http.Client
	log        *slog.Logger
}

func NewClient(cfg Config, logger *slog.Logger) *Client {
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv("MISTRAL_API_KEY")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.mistral.ai/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "mistral-large-latest"
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 3000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 120 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		log:        logger,
	}
}

// Configured reports whether the client has credentials to call out with.
// An unconfigured client fails fast and lets callers use their fallbacks.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}
