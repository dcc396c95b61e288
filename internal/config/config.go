package config

import (
	"fmt"
	"time"

	"github.com/Netflix/go-env"
)

type Config struct {
	DatabaseDSN string `env:"DATABASE_DSN,required=true"`
	RabbitMQURL string `env:"RABBITMQ_URL,required=true"`
	RedisURL    string `env:"REDIS_URL,required=true"`

	SendGridAPIKey string `env:"SENDGRID_API_KEY,required=true"`
	EmailFrom      string `env:"EMAIL_FROM,required=true"`
	EmailRecipient string `env:"EMAIL_RECIPIENT,required=true"`

	TwilioAccountSID string `env:"TWILIO_ACCOUNT_SID,required=true"`
	TwilioAuthToken  string `env:"TWILIO_AUTH_TOKEN,required=true"`
	TwilioFromNumber string `env:"TWILIO_FROM_NUMBER,required=true"`
	SMSRecipient     string `env:"SMS_RECIPIENT,required=true"`

	WorkerConcurrency     int `env:"WORKER_CONCURRENCY,default=16"`
	MaxAttempts           int `env:"MAX_ATTEMPTS,default=3"`
	RetryBaseDelaySeconds int `env:"RETRY_BASE_DELAY_SECONDS,default=30"`
	RateLimitPerSec       int `env:"RATE_LIMIT_PER_SEC,default=100"`

	APIPort  int    `env:"API_PORT,default=8080"`
	LogLevel string `env:"LOG_LEVEL,default=info"`
}

func Load() (*Config, error) {
	var cfg Config
	_, err := env.UnmarshalFromEnviron(&cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) RetryBaseDelay() time.Duration {
	if c == nil || c.RetryBaseDelaySeconds <= 0 {
		return 0
	}
	return time.Duration(c.RetryBaseDelaySeconds) * time.Second
}
