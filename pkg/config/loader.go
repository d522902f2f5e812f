package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/smilecrm/smilecrm-voice/internal/adapter/cache"
	"github.com/smilecrm/smilecrm-voice/internal/adapter/queue"
	"github.com/smilecrm/smilecrm-voice/internal/domain"
	"github.com/smilecrm/smilecrm-voice/internal/service/voice/scoring"
)

// Load reads config.yaml from the usual locations, then the environment.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")
	v.AddConfigPath("/app/configs")
	return load(v)
}

func load(v *viper.Viper) (*Config, error) {
	setDefaults(v)

	v.SetEnvPrefix("APP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Allow common env vars without APP_ prefix for Docker/VM deploys
	_ = v.BindEnv("http.port", "HTTP_PORT", "APP_HTTP_PORT")
	_ = v.BindEnv("database.url", "DATABASE_URL", "APP_DATABASE_URL")
	_ = v.BindEnv("redis.url", "REDIS_URL", "APP_REDIS_URL")
	_ = v.BindEnv("queue.url", "NATS_URL", "APP_QUEUE_URL")
	_ = v.BindEnv("jwt.secret", "JWT_SECRET", "APP_JWT_SECRET")
	_ = v.BindEnv("openai.api_key", "OPENAI_API_KEY", "APP_OPENAI_API_KEY")
	_ = v.BindEnv("vault.token", "VAULT_TOKEN", "APP_VAULT_TOKEN")
	_ = v.BindEnv("app.environment", "APP_ENVIRONMENT")
	_ = v.BindEnv("logging.level", "LOG_LEVEL")

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "smilecrm-voice")
	v.SetDefault("app.version", "dev")
	v.SetDefault("app.environment", "development")

	v.SetDefault("http.port", 8080)
	v.SetDefault("http.read_timeout", 90*time.Second)
	v.SetDefault("http.write_timeout", 90*time.Second)
	v.SetDefault("http.idle_timeout", 120*time.Second)
	v.SetDefault("http.shutdown_timeout", 15*time.Second)

	v.SetDefault("voice.max_audio_bytes", 10<<20)
	v.SetDefault("voice.max_upload_bytes", 25<<20)
	v.SetDefault("voice.default_locale", "ru")
	v.SetDefault("voice.default_timezone", "Asia/Yerevan")
	v.SetDefault("voice.default_currency", "AMD")
	v.SetDefault("voice.confidence_threshold", scoring.DefaultThreshold)
	w := scoring.DefaultWeights()
	v.SetDefault("voice.weights.base", w.Base)
	v.SetDefault("voice.weights.amount", w.Amount)
	v.SetDefault("voice.weights.visit_date", w.VisitDate)
	v.SetDefault("voice.weights.next_visit_date", w.NextVisitDate)
	v.SetDefault("voice.weights.diagnosis", w.Diagnosis)
	v.SetDefault("voice.weights.notes", w.Notes)
	v.SetDefault("voice.weights.currency", w.Currency)
	v.SetDefault("voice.weights.warning_penalty", w.WarningPenalty)
	v.SetDefault("voice.transcript_cache_ttl", 24*time.Hour)
	v.SetDefault("voice.local_cache_entries", cache.DefaultLocalEntries)
	v.SetDefault("voice.event_subject", "voice.action.applied")

	v.SetDefault("openai.stt_model", "whisper-1")
	v.SetDefault("openai.chat_model", "gpt-4o-mini")
	v.SetDefault("openai.temperature", 0.1)
	v.SetDefault("openai.stt_timeout", 60*time.Second)
	v.SetDefault("openai.llm_timeout", 30*time.Second)

	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("database.max_open_conns", 50)
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.conn_max_lifetime", 30*time.Minute)

	v.SetDefault("queue.driver", queue.DriverNone)
	v.SetDefault("queue.group", "voice-audit")

	v.SetDefault("vault.mount", "secret")

	v.SetDefault("jwt.access_token_duration", 15*time.Minute)

	v.SetDefault("opentelemetry.service_name", "smilecrm-voice")
	v.SetDefault("opentelemetry.jaeger.sampler_param", 0.1)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("circuit_breaker.enabled", true)
	v.SetDefault("circuit_breaker.api.name", "api")
	v.SetDefault("circuit_breaker.provider.name", "openai")

	v.SetDefault("cors.enabled", true)
	v.SetDefault("cors.allowed_origins", []string{"*"})
}

// Validate rejects values the service cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Voice.ConfidenceThreshold <= 0 || c.Voice.ConfidenceThreshold > 1 {
		errs = append(errs, fmt.Errorf("voice.confidence_threshold must be in (0,1], got %v", c.Voice.ConfidenceThreshold))
	}
	if c.Voice.MaxAudioBytes <= 0 {
		errs = append(errs, fmt.Errorf("voice.max_audio_bytes must be positive"))
	}
	if c.Voice.MaxUploadBytes <= 0 {
		errs = append(errs, fmt.Errorf("voice.max_upload_bytes must be positive"))
	} else if c.Voice.MaxUploadBytes < c.Voice.MaxAudioBytes {
		errs = append(errs, fmt.Errorf("voice.max_upload_bytes must not be below voice.max_audio_bytes"))
	}
	if _, ok := domain.ParseLocale(c.Voice.DefaultLocale); !ok {
		errs = append(errs, fmt.Errorf("voice.default_locale %q is not supported", c.Voice.DefaultLocale))
	}
	if _, ok := domain.ParseCurrency(c.Voice.DefaultCurrency); !ok {
		errs = append(errs, fmt.Errorf("voice.default_currency %q is not supported", c.Voice.DefaultCurrency))
	}
	if _, err := time.LoadLocation(c.Voice.DefaultTimezone); err != nil {
		errs = append(errs, fmt.Errorf("voice.default_timezone: %w", err))
	}
	switch strings.ToLower(c.Queue.Driver) {
	case queue.DriverNATS, queue.DriverRabbitMQ:
		if c.Queue.URL == "" {
			errs = append(errs, fmt.Errorf("queue.url is required for driver %s", c.Queue.Driver))
		}
	case queue.DriverNone, "":
	default:
		errs = append(errs, fmt.Errorf("unknown queue.driver %q", c.Queue.Driver))
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		errs = append(errs, fmt.Errorf("http.port %d out of range", c.HTTP.Port))
	}
	return errors.Join(errs...)
}
