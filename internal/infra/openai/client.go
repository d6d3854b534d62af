package openai

import (
	"errors"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"steppetalk/internal/domain"
)

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultTextModel = "gpt-5-mini"
	DefaultTTSModel  = "gpt-4o-mini-tts"
	DefaultSTTModel  = "gpt-4o-mini-transcribe"
)

// Config selects the endpoint, models and timeouts. Zero values fall back
// to the package defaults.
type Config struct {
	APIKey       string
	BaseURL      string
	TextModel    string
	TTSModel     string
	STTModel     string
	TextTimeout  time.Duration
	AudioTimeout time.Duration
	// MaxTurns bounds the chat context to the 2*MaxTurns most recent turns.
	MaxTurns int
}

// Observer receives the outcome of every provider call.
type Observer interface {
	ObserveProvider(op string, elapsed time.Duration, err error)
}

// Client talks to the OpenAI REST API. Whether it is live is decided once,
// from the API key, when the client is built; without a key every
// operation answers with a local stand-in and never touches the network.
type Client struct {
	cfg      Config
	enabled  bool
	text     *http.Client
	sdk      *goopenai.Client
	observer Observer
}

// NewClient fills in defaults and builds a client. The text endpoints use
// TextTimeout, the audio endpoints AudioTimeout.
func NewClient(cfg Config, observer Observer) *Client {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	if cfg.TextModel == "" {
		cfg.TextModel = DefaultTextModel
	}
	if cfg.TTSModel == "" {
		cfg.TTSModel = DefaultTTSModel
	}
	if cfg.STTModel == "" {
		cfg.STTModel = DefaultSTTModel
	}
	if cfg.TextTimeout <= 0 {
		cfg.TextTimeout = 30 * time.Second
	}
	if cfg.AudioTimeout <= 0 {
		cfg.AudioTimeout = 60 * time.Second
	}
	if cfg.MaxTurns <= 0 {
		cfg.MaxTurns = 12
	}

	sdkConfig := goopenai.DefaultConfig(cfg.APIKey)
	sdkConfig.BaseURL = cfg.BaseURL
	sdkConfig.HTTPClient = &http.Client{Timeout: cfg.AudioTimeout}

	return &Client{
		cfg:      cfg,
		enabled:  cfg.APIKey != "",
		text:     &http.Client{Timeout: cfg.TextTimeout},
		sdk:      goopenai.NewClientWithConfig(sdkConfig),
		observer: observer,
	}
}

// Enabled reports whether an API key was configured.
func (c *Client) Enabled() bool {
	return c.enabled
}

func (c *Client) observe(op string, start time.Time, err error) {
	if c.observer != nil {
		c.observer.ObserveProvider(op, time.Since(start), err)
	}
}

func sdkError(op string, err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) {
		return &domain.UpstreamError{Op: op, StatusCode: apiErr.HTTPStatusCode, Body: apiErr.Message}
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) {
		return &domain.UpstreamError{Op: op, StatusCode: reqErr.HTTPStatusCode, Body: reqErr.Error()}
	}

	return &domain.UpstreamError{Op: op, Body: err.Error()}
}
