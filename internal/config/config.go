// internal/config/config.go
package config

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver            string        `yaml:"driver"`
	Filename          string        `yaml:"filename"`
	ConnectRetries    int           `yaml:"connect_retries"`
	ConnectRetryDelay time.Duration `yaml:"connect_retry_delay"`
}

type BookingConfig struct {
	SlotStepMinutes    int           `yaml:"slot_step_minutes"`
	BufferMinutes      int           `yaml:"buffer_minutes"`
	CancellationCutoff time.Duration `yaml:"cancellation_cutoff"`
}

type EmailConfig struct {
	Provider  string `yaml:"provider"` // ses, smtp or log
	FromName  string `yaml:"from_name"`
	FromEmail string `yaml:"from_email"`
	ICSDomain string `yaml:"ics_domain"`
	SES       struct {
		Region          string `yaml:"region"`
		AccessKeyID     string `yaml:"-"` // Loaded from environment
		SecretAccessKey string `yaml:"-"` // Loaded from environment
	} `yaml:"ses"`
	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"-"` // Loaded from environment
	} `yaml:"smtp"`
}

type NotificationsConfig struct {
	Queue       string        `yaml:"queue"` // memory or redis
	BufferSize  int           `yaml:"buffer_size"`
	SendTimeout time.Duration `yaml:"send_timeout"`
	Redis       struct {
		Addr     string `yaml:"addr"`
		DB       int    `yaml:"db"`
		Key      string `yaml:"key"`
		Password string `yaml:"-"` // Loaded from environment
	} `yaml:"redis"`
}

type CalendarConfig struct {
	Enabled         bool   `yaml:"enabled"`
	CalendarID      string `yaml:"calendar_id"`
	CredentialsFile string `yaml:"credentials_file"`
}

type RemindersConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Cron        string `yaml:"cron"`
	HoursBefore int    `yaml:"hours_before"`
}

type AdminConfig struct {
	Email    string        `yaml:"email"`
	Password string        `yaml:"-"` // Loaded from environment
	TokenTTL time.Duration `yaml:"token_ttl"`
}

type Config struct {
	App struct {
		Name           string   `yaml:"name"`
		Environment    string   `yaml:"environment"`
		Port           int      `yaml:"port"`
		BaseURL        string   `yaml:"base_url"`
		Timezone       string   `yaml:"timezone"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		TrustProxy     bool     `yaml:"trust_proxy"`
		SecretKey      string   `yaml:"-"` // Loaded from environment
	} `yaml:"app"`

	Database      DatabaseConfig      `yaml:"database"`
	Booking       BookingConfig       `yaml:"booking"`
	Email         EmailConfig         `yaml:"email"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Calendar      CalendarConfig      `yaml:"calendar"`
	Reminders     RemindersConfig     `yaml:"reminders"`
	Admin         AdminConfig         `yaml:"admin"`

	Features struct {
		EnableMetrics   bool `yaml:"enable_metrics"`
		EnableRateLimit bool `yaml:"enable_rate_limit"`
		EnableDebug     bool `yaml:"enable_debug"`
	} `yaml:"features"`
}

// Load loads both .env and yaml configuration
func Load(configPath string) (*Config, error) {
	// Load .env file if it exists
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Parse decodes YAML, applies defaults and reads secrets from the
// environment. It does not validate.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.applyDefaults()

	// Load sensitive values from environment
	cfg.App.SecretKey = os.Getenv("APP_SECRET_KEY")
	cfg.Admin.Password = os.Getenv("ADMIN_PASSWORD")
	cfg.Email.SMTP.Password = os.Getenv("SMTP_PASSWORD")
	cfg.Notifications.Redis.Password = os.Getenv("REDIS_PASSWORD")
	cfg.Email.SES.AccessKeyID = os.Getenv("SES_ACCESS_KEY_ID")
	cfg.Email.SES.SecretAccessKey = os.Getenv("SES_SECRET_ACCESS_KEY")
	if v := os.Getenv("SES_REGION"); v != "" {
		cfg.Email.SES.Region = v
	}
	if v := os.Getenv("ADMIN_EMAIL"); v != "" {
		cfg.Admin.Email = v
	}
	if v := os.Getenv("APP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("invalid APP_PORT %q: %w", v, err)
		}
		cfg.App.Port = port
	}

	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.App.Environment == "" {
		c.App.Environment = "development"
	}
	if c.App.Timezone == "" {
		c.App.Timezone = "UTC"
	}
	if c.Database.ConnectRetries == 0 {
		c.Database.ConnectRetries = 5
	}
	if c.Database.ConnectRetryDelay == 0 {
		c.Database.ConnectRetryDelay = 2 * time.Second
	}
	if c.Booking.SlotStepMinutes == 0 {
		c.Booking.SlotStepMinutes = 15
	}
	if c.Booking.BufferMinutes == 0 {
		c.Booking.BufferMinutes = 15
	}
	if c.Booking.CancellationCutoff == 0 {
		c.Booking.CancellationCutoff = 20 * time.Hour
	}
	if c.Email.Provider == "" {
		c.Email.Provider = "log"
	}
	if c.Email.ICSDomain == "" {
		c.Email.ICSDomain = "salonbook.local"
	}
	if c.Email.SMTP.Port == 0 {
		c.Email.SMTP.Port = 587
	}
	if c.Notifications.Queue == "" {
		c.Notifications.Queue = "memory"
	}
	if c.Notifications.BufferSize == 0 {
		c.Notifications.BufferSize = 256
	}
	if c.Notifications.SendTimeout == 0 {
		c.Notifications.SendTimeout = 30 * time.Second
	}
	if c.Notifications.Redis.Key == "" {
		c.Notifications.Redis.Key = "salonbook:notifications"
	}
	if c.Reminders.Cron == "" {
		c.Reminders.Cron = "*/15 * * * *"
	}
	if c.Reminders.HoursBefore == 0 {
		c.Reminders.HoursBefore = 24
	}
	if c.Admin.TokenTTL == 0 {
		c.Admin.TokenTTL = 12 * time.Hour
	}
}

// Location resolves App.Timezone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.App.Port == 0 {
		return fmt.Errorf("app port is required")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("invalid app timezone %q: %w", c.App.Timezone, err)
	}
	if c.Database.Driver == "" {
		return fmt.Errorf("database driver is required")
	}

	switch c.Database.Driver {
	case "sqlite":
		if c.Database.Filename == "" {
			return fmt.Errorf("database filename is required for sqlite")
		}
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.ConnectRetries < 1 {
		return fmt.Errorf("database connect_retries must be at least 1")
	}

	if c.Booking.SlotStepMinutes < 1 {
		return fmt.Errorf("booking slot_step_minutes must be positive")
	}
	if c.Booking.BufferMinutes < 0 {
		return fmt.Errorf("booking buffer_minutes cannot be negative")
	}
	if c.Booking.CancellationCutoff < 0 {
		return fmt.Errorf("booking cancellation_cutoff cannot be negative")
	}

	switch c.Email.Provider {
	case "log":
	case "ses", "smtp":
		if _, err := mail.ParseAddress(c.Email.FromEmail); err != nil {
			return fmt.Errorf("email from_email is required for provider %s", c.Email.Provider)
		}
		if c.Email.Provider == "smtp" && c.Email.SMTP.Host == "" {
			return fmt.Errorf("email smtp host is required")
		}
		if c.Email.Provider == "ses" && c.Email.SES.Region == "" {
			return fmt.Errorf("email ses region is required")
		}
	default:
		return fmt.Errorf("unsupported email provider: %s", c.Email.Provider)
	}

	switch c.Notifications.Queue {
	case "memory":
	case "redis":
		if c.Notifications.Redis.Addr == "" {
			return fmt.Errorf("notifications redis addr is required")
		}
	default:
		return fmt.Errorf("unsupported notifications queue: %s", c.Notifications.Queue)
	}

	if c.Calendar.Enabled && c.Calendar.CalendarID == "" {
		return fmt.Errorf("calendar calendar_id is required when calendar sync is enabled")
	}

	if c.Reminders.Enabled {
		if _, err := cron.ParseStandard(c.Reminders.Cron); err != nil {
			return fmt.Errorf("invalid reminders cron %q: %w", c.Reminders.Cron, err)
		}
		if c.Reminders.HoursBefore < 1 {
			return fmt.Errorf("reminders hours_before must be positive")
		}
	}

	if c.App.SecretKey == "" && c.App.Environment == "production" {
		return fmt.Errorf("APP_SECRET_KEY is required in production")
	}

	return nil
}
