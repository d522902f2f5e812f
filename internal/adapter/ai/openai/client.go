package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/infrastructure/circuitbreaker"
	"github.com/smilecrm/smilecrm-voice/internal/observability/telemetry"
)

// Config holds the provider settings for speech-to-text and chat.
type Config struct {
	APIKey      string        `mapstructure:"api_key"`
	BaseURL     string        `mapstructure:"base_url"`
	STTModel    string        `mapstructure:"stt_model"`
	ChatModel   string        `mapstructure:"chat_model"`
	Temperature float32       `mapstructure:"temperature"`
	STTTimeout  time.Duration `mapstructure:"stt_timeout"`
	LLMTimeout  time.Duration `mapstructure:"llm_timeout"`
}

// Client provides access to the OpenAI speech and chat APIs. It implements
// ports.Transcriber and ports.LanguageModel.
type Client struct {
	api *openai.Client
	cfg Config
	log *zap.Logger
}

// NewClient builds a client whose HTTP calls pass through breaker. A client
// without an API key is valid; every call fails as not configured.
func NewClient(cfg Config, breaker *circuitbreaker.Breaker, log *zap.Logger) *Client {
	if cfg.STTModel == "" {
		cfg.STTModel = openai.Whisper1
	}
	if cfg.ChatModel == "" {
		cfg.ChatModel = openai.GPT4oMini
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.1
	}
	if cfg.STTTimeout <= 0 {
		cfg.STTTimeout = 60 * time.Second
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 30 * time.Second
	}

	oc := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = cfg.BaseURL
	}
	oc.HTTPClient = circuitbreaker.NewHTTPClient(&http.Client{}, breaker, log)

	return &Client{api: openai.NewClientWithConfig(oc), cfg: cfg, log: log}
}

func (c *Client) configured(op string) error {
	if c.cfg.APIKey == "" {
		return domain.NewError(domain.KindNotConfigured, op, "OpenAI API key is not configured")
	}
	return nil
}

// providerError tags err with kind and counts it. Breaker refusals and
// deadlines are retriable like any other provider failure.
func (c *Client) providerError(kind domain.ErrorKind, op, provider string, err error) error {
	reason := "error"
	var apiErr *openai.APIError
	switch {
	case circuitbreaker.IsOpen(err):
		reason = "breaker_open"
	case errors.Is(err, context.DeadlineExceeded):
		reason = "timeout"
	case errors.As(err, &apiErr):
		reason = fmt.Sprintf("http_%d", apiErr.HTTPStatusCode)
	}
	telemetry.ProviderFailuresTotal.WithLabelValues(provider, reason).Inc()
	c.log.Warn("Provider call failed",
		zap.String("provider", provider),
		zap.String("reason", reason),
		zap.Error(err),
	)
	return domain.WrapError(kind, op, provider+" request failed", err)
}
