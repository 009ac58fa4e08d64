package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Addr                  string        `mapstructure:"addr"`
	DatabaseURL           string        `mapstructure:"database_url"`
	JWTSecret             string        `mapstructure:"jwt_secret"`
	Environment           string        `mapstructure:"env"`
	LogLevel              string        `mapstructure:"log_level"`
	LogFormat             string        `mapstructure:"log_format"`
	AllowedOrigins        []string      `mapstructure:"allowed_origins"`
	RunMigrations         bool          `mapstructure:"run_migrations"`
	MaxBodyBytes          int64         `mapstructure:"max_body_bytes"`
	PayrollRunInterval    time.Duration `mapstructure:"payroll_run_interval"`
	PayrollWorkers        int           `mapstructure:"payroll_workers"`
	ContractSweepInterval time.Duration `mapstructure:"contract_sweep_interval"`
	RenewalReminderDays   int           `mapstructure:"renewal_reminder_days"`
	MetricsEnabled        bool          `mapstructure:"metrics_enabled"`
	RateLimitPerMinute    int           `mapstructure:"rate_limit_per_minute"`
	EmailEnabled          bool          `mapstructure:"email_enabled"`
	EmailFrom             string        `mapstructure:"email_from"`
	HRNotifyEmail         string        `mapstructure:"hr_notify_email"`
	SMTPHost              string        `mapstructure:"smtp_host"`
	SMTPPort              int           `mapstructure:"smtp_port"`
	SMTPUser              string        `mapstructure:"smtp_user"`
	SMTPPassword          string        `mapstructure:"smtp_password"`
	SMTPUseTLS            bool          `mapstructure:"smtp_use_tls"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("addr", ":8080")
	v.SetDefault("database_url", "")
	v.SetDefault("jwt_secret", "")
	v.SetDefault("env", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_format", "text")
	v.SetDefault("allowed_origins", []string{"*"})
	v.SetDefault("run_migrations", true)
	v.SetDefault("max_body_bytes", 1048576)
	v.SetDefault("payroll_run_interval", 24*time.Hour)
	v.SetDefault("payroll_workers", 4)
	v.SetDefault("contract_sweep_interval", 24*time.Hour)
	v.SetDefault("renewal_reminder_days", 30)
	v.SetDefault("metrics_enabled", true)
	v.SetDefault("rate_limit_per_minute", 120)
	v.SetDefault("email_enabled", false)
	v.SetDefault("email_from", "no-reply@hrpay.local")
	v.SetDefault("hr_notify_email", "")
	v.SetDefault("smtp_host", "")
	v.SetDefault("smtp_port", 587)
	v.SetDefault("smtp_user", "")
	v.SetDefault("smtp_password", "")
	v.SetDefault("smtp_use_tls", true)
}

// Load reads HRPAY_* environment variables, optionally layered over the YAML file at path.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix("HRPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("HRPAY_DATABASE_URL is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("HRPAY_JWT_SECRET must be set in production")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("HRPAY_MAX_BODY_BYTES must be at least 1024")
	}
	if c.PayrollWorkers <= 0 {
		return fmt.Errorf("HRPAY_PAYROLL_WORKERS must be positive")
	}
	if c.RenewalReminderDays < 0 {
		return fmt.Errorf("HRPAY_RENEWAL_REMINDER_DAYS must not be negative")
	}
	if c.EmailEnabled && strings.TrimSpace(c.SMTPHost) == "" {
		return fmt.Errorf("HRPAY_SMTP_HOST is required when email is enabled")
	}
	return nil
}
