package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server  ServerConfig  `yaml:"server"`
	OpenAI  OpenAIConfig  `yaml:"openai"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

type ServerConfig struct {
	Addr           string          `yaml:"addr"`
	AllowedOrigins []string        `yaml:"allowed_origins"`
	MaxUploadBytes int64           `yaml:"max_upload_bytes"`
	RateLimit      RateLimitConfig `yaml:"rate_limit"`
	// TrustProxy takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a reverse proxy that sets them.
	TrustProxy   bool          `yaml:"trust_proxy"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type RateLimitConfig struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

type OpenAIConfig struct {
	APIKey       string        `yaml:"api_key"`
	BaseURL      string        `yaml:"base_url"`
	TextModel    string        `yaml:"text_model"`
	TTSModel     string        `yaml:"tts_model"`
	STTModel     string        `yaml:"stt_model"`
	TextTimeout  time.Duration `yaml:"text_timeout"`
	AudioTimeout time.Duration `yaml:"audio_timeout"`
}

type SessionConfig struct {
	MaxTurns int `yaml:"max_turns"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Load reads the YAML file at path, expanding ${VAR} references. A missing
// file is not an error: the service then runs on defaults and environment.
func Load(path string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parsing config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		env    string
		target *string
	}{
		{"OPENAI_API_KEY", &c.OpenAI.APIKey},
		{"OPENAI_BASE_URL", &c.OpenAI.BaseURL},
		{"OPENAI_TEXT_MODEL", &c.OpenAI.TextModel},
		{"OPENAI_TTS_MODEL", &c.OpenAI.TTSModel},
		{"OPENAI_STT_MODEL", &c.OpenAI.STTModel},
		{"STEPPETALK_ADDR", &c.Server.Addr},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.env); ok && v != "" {
			*o.target = v
		}
	}
}

func (c *Config) setDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8000"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 25 << 20
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 90 * time.Second
	}
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if c.OpenAI.TextModel == "" {
		c.OpenAI.TextModel = "gpt-5-mini"
	}
	if c.OpenAI.TTSModel == "" {
		c.OpenAI.TTSModel = "gpt-4o-mini-tts"
	}
	if c.OpenAI.STTModel == "" {
		c.OpenAI.STTModel = "gpt-4o-mini-transcribe"
	}
	if c.OpenAI.TextTimeout == 0 {
		c.OpenAI.TextTimeout = 30 * time.Second
	}
	if c.OpenAI.AudioTimeout == 0 {
		c.OpenAI.AudioTimeout = 60 * time.Second
	}
	if c.Session.MaxTurns == 0 {
		c.Session.MaxTurns = 12
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "text"
	}
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.MaxUploadBytes < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_bytes must not be negative"))
	}
	if c.Server.RateLimit.RPS < 0 || c.Server.RateLimit.Burst < 0 {
		errs = append(errs, fmt.Errorf("server.rate_limit values must not be negative"))
	}
	if c.Server.WriteTimeout < c.OpenAI.AudioTimeout {
		errs = append(errs, fmt.Errorf("server.write_timeout (%s) must be at least openai.audio_timeout (%s)",
			c.Server.WriteTimeout, c.OpenAI.AudioTimeout))
	}
	if c.OpenAI.TextTimeout < 0 || c.OpenAI.AudioTimeout < 0 {
		errs = append(errs, fmt.Errorf("openai timeouts must not be negative"))
	}
	if !strings.HasPrefix(c.OpenAI.BaseURL, "http://") && !strings.HasPrefix(c.OpenAI.BaseURL, "https://") {
		errs = append(errs, fmt.Errorf("openai.base_url must be an http(s) URL, got %q", c.OpenAI.BaseURL))
	}
	if c.Session.MaxTurns < 0 {
		errs = append(errs, fmt.Errorf("session.max_turns must not be negative"))
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("log.level must be one of debug, info, warn, error, got %q", c.Log.Level))
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// OpenAIEnabled reports whether a provider key is configured.
func (c *Config) OpenAIEnabled() bool {
	return strings.TrimSpace(c.OpenAI.APIKey) != ""
}
