// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Filename string `yaml:"filename"`
}

type BookingConfig struct {
	// Bookable window: slots start at StartHour and the last slot ends at
	// EndHour, so the final bookable start is EndHour-1.
	StartHour int `yaml:"start_hour"`
	EndHour   int `yaml:"end_hour"`

	// Quotas count simultaneously active booking sessions per member.
	MaxActiveReservations  int `yaml:"max_active_reservations"`
	MaxShortNoticeSessions int `yaml:"max_short_notice_sessions"`

	// Lead time under which a booking counts as short notice and under
	// which cancellation is no longer allowed.
	ShortNoticeLead time.Duration `yaml:"short_notice_lead"`

	// Members who have not paid the yearly fee lose booking rights after
	// this date (zero means no deadline is enforced).
	FeeDeadline string `yaml:"fee_deadline"`
}

type MailConfig struct {
	Region string `yaml:"region"`
	Sender string `yaml:"sender"`
	// Credentials are loaded from the environment, never from yaml.
	AccessKeyID     string `yaml:"-"`
	SecretAccessKey string `yaml:"-"`
}

type Config struct {
	App struct {
		Name        string `yaml:"name"`
		Environment string `yaml:"environment"`
		Timezone    string `yaml:"timezone"`
	} `yaml:"app"`

	Database DatabaseConfig `yaml:"database"`
	Booking  BookingConfig  `yaml:"booking"`
	Mail     MailConfig     `yaml:"mail"`
}

// Load loads both .env and yaml configuration.
func Load(configPath string) (*Config, error) {
	envPath := filepath.Join(filepath.Dir(configPath), ".env")
	if err := godotenv.Load(envPath); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	cfg.Mail.AccessKeyID = os.Getenv("AWS_ACCESS_KEY_ID")
	cfg.Mail.SecretAccessKey = os.Getenv("AWS_SECRET_ACCESS_KEY")

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when a setting is absent from yaml.
func Default() *Config {
	cfg := &Config{}
	cfg.App.Timezone = "Europe/Berlin"
	cfg.Database.Driver = "sqlite"
	cfg.Booking = BookingConfig{
		StartHour:              6,
		EndHour:                22,
		MaxActiveReservations:  2,
		MaxShortNoticeSessions: 1,
		ShortNoticeLead:        15 * time.Minute,
	}
	return cfg
}

func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app name is required")
	}
	if c.Database.Driver != "sqlite" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.Filename == "" {
		return fmt.Errorf("database filename is required for sqlite")
	}
	if c.Booking.StartHour < 0 || c.Booking.EndHour > 24 || c.Booking.StartHour >= c.Booking.EndHour {
		return fmt.Errorf("booking window %d..%d is invalid", c.Booking.StartHour, c.Booking.EndHour)
	}
	if c.Booking.MaxActiveReservations <= 0 || c.Booking.MaxShortNoticeSessions <= 0 {
		return fmt.Errorf("booking quotas must be positive")
	}
	if c.Booking.ShortNoticeLead <= 0 {
		return fmt.Errorf("short notice lead must be positive")
	}
	if c.Booking.FeeDeadline != "" {
		if _, err := time.Parse("2006-01-02", c.Booking.FeeDeadline); err != nil {
			return fmt.Errorf("fee_deadline must be YYYY-MM-DD: %w", err)
		}
	}
	return nil
}
