package config

import (
	"time"

	"github.com/smilecrm/smilecrm-voice/internal/adapter/ai/openai"
	"github.com/smilecrm/smilecrm-voice/internal/adapter/queue"
	"github.com/smilecrm/smilecrm-voice/internal/adapter/storage/postgres"
	"github.com/smilecrm/smilecrm-voice/internal/adapter/vault"
	"github.com/smilecrm/smilecrm-voice/internal/infrastructure/circuitbreaker"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/scoring"
)

type Config struct {
	App            AppConfig            `mapstructure:"app"`
	HTTP           HTTPConfig           `mapstructure:"http"`
	Voice          VoiceConfig          `mapstructure:"voice"`
	OpenAI         openai.Config        `mapstructure:"openai"`
	Database       DatabaseConfig       `mapstructure:"database"`
	Redis          RedisConfig          `mapstructure:"redis"`
	Queue          queue.Config         `mapstructure:"queue"`
	Vault          VaultConfig          `mapstructure:"vault"`
	JWT            JWTConfig            `mapstructure:"jwt"`
	OpenTelemetry  OpenTelemetryConfig  `mapstructure:"opentelemetry"`
	Logging        LoggingConfig        `mapstructure:"logging"`
	CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"`
	CORS           CORSConfig           `mapstructure:"cors"`
}

type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

type HTTPConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

// VoiceConfig tunes the dictation pipeline.
type VoiceConfig struct {
	MaxAudioBytes       int             `mapstructure:"max_audio_bytes"`
	MaxUploadBytes      int             `mapstructure:"max_upload_bytes"`
	DefaultLocale       string          `mapstructure:"default_locale"`
	DefaultTimezone     string          `mapstructure:"default_timezone"`
	DefaultCurrency     string          `mapstructure:"default_currency"`
	ConfidenceThreshold float64         `mapstructure:"confidence_threshold"`
	Weights             scoring.Weights `mapstructure:"weights"`
	TranscriptCacheTTL  time.Duration   `mapstructure:"transcript_cache_ttl"`
	LocalCacheEntries   int             `mapstructure:"local_cache_entries"`
	EventSubject        string          `mapstructure:"event_subject"`
}

type DatabaseConfig struct {
	URL         string `mapstructure:"url"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`

	postgres.PoolConfig `mapstructure:",squash"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// VaultConfig enables reading secrets that are not set directly.
type VaultConfig struct {
	Enabled bool `mapstructure:"enabled"`

	vault.Config `mapstructure:",squash"`
}

type JWTConfig struct {
	Secret              string        `mapstructure:"secret"`
	Issuer              string        `mapstructure:"issuer"`
	AccessTokenDuration time.Duration `mapstructure:"access_token_duration"`
}

type OpenTelemetryConfig struct {
	Enabled     bool         `mapstructure:"enabled"`
	Jaeger      JaegerConfig `mapstructure:"jaeger"`
	ServiceName string       `mapstructure:"service_name"`
}

type JaegerConfig struct {
	Endpoint     string  `mapstructure:"endpoint"`
	SamplerParam float64 `mapstructure:"sampler_param"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// CircuitBreakerConfig holds one breaker for the HTTP API and one for the
// speech and language model provider.
type CircuitBreakerConfig struct {
	Enabled  bool                    `mapstructure:"enabled"`
	API      circuitbreaker.Settings `mapstructure:"api"`
	Provider circuitbreaker.Settings `mapstructure:"provider"`
}

type CORSConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
	ExposeHeaders  []string `mapstructure:"expose_headers"`
	MaxAge         int      `mapstructure:"max_age"`
	Credentials    bool     `mapstructure:"credentials"`
}
