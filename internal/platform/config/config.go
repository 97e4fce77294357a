package config

import (
	"fmt"
	"strings"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	Addr        string `env:"APP_ADDR" envDefault:":8080"`
	Environment string `env:"APP_ENV" envDefault:"development"`
	DatabaseURL string `env:"DATABASE_URL"`
	JWTSecret   string `env:"JWT_SECRET"`

	RunMigrations bool `env:"RUN_MIGRATIONS" envDefault:"true"`
	RunSeed       bool `env:"RUN_SEED" envDefault:"true"`

	SeedOrganizationName string `env:"SEED_ORGANIZATION_NAME" envDefault:"Default Organization"`
	SeedAdminEmail       string `env:"SEED_ADMIN_EMAIL"`
	SeedAdminPassword    string `env:"SEED_ADMIN_PASSWORD"`

	MaxBodyBytes       int64 `env:"MAX_BODY_BYTES" envDefault:"1048576"`
	RateLimitPerMinute int   `env:"RATE_LIMIT_PER_MINUTE" envDefault:"60"`
	MaxPlanSegments    int   `env:"MAX_PLAN_SEGMENTS" envDefault:"6"`

	MetricsEnabled bool `env:"METRICS_ENABLED" envDefault:"true"`

	EmailEnabled bool   `env:"EMAIL_ENABLED" envDefault:"false"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"no-reply@example.com"`
	SMTPHost     string `env:"SMTP_HOST"`
	SMTPPort     int    `env:"SMTP_PORT" envDefault:"587"`
	SMTPUser     string `env:"SMTP_USER"`
	SMTPPassword string `env:"SMTP_PASSWORD"`

	AMQPURL        string `env:"AMQP_URL"`
	MailQueue      string `env:"MAIL_QUEUE" envDefault:"notification_emails"`
	PublishTimeout int    `env:"AMQP_PUBLISH_TIMEOUT" envDefault:"10"`
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" {
		if strings.TrimSpace(c.JWTSecret) == "" {
			return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
		}
		if c.RunSeed && strings.TrimSpace(c.SeedAdminPassword) == "" {
			return fmt.Errorf("SEED_ADMIN_PASSWORD must be changed or RUN_SEED disabled in production")
		}
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.RateLimitPerMinute <= 0 {
		return fmt.Errorf("RATE_LIMIT_PER_MINUTE must be positive")
	}
	if c.MaxPlanSegments <= 0 {
		return fmt.Errorf("MAX_PLAN_SEGMENTS must be positive")
	}
	if c.EmailEnabled && c.SMTPHost == "" {
		return fmt.Errorf("SMTP_HOST must be set when EMAIL_ENABLED is true")
	}
	return nil
}
