package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
app:
  name: courtbook
  environment: development
database:
  filename: /tmp/courtbook.db
booking:
  max_active_reservations: 3
  fee_deadline: "2026-03-31"
mail:
  region: eu-central-1
  sender: club@example.org
`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.App.Name != "courtbook" {
		t.Fatalf("app name = %q", cfg.App.Name)
	}
	if cfg.App.Timezone != "Europe/Berlin" {
		t.Fatalf("timezone default = %q", cfg.App.Timezone)
	}
	if cfg.Booking.MaxActiveReservations != 3 {
		t.Fatalf("max active = %d, want override 3", cfg.Booking.MaxActiveReservations)
	}
	if cfg.Booking.EndHour != 22 {
		t.Fatalf("end hour default = %d", cfg.Booking.EndHour)
	}
	if cfg.Booking.ShortNoticeLead != 15*time.Minute {
		t.Fatalf("short notice lead default = %v", cfg.Booking.ShortNoticeLead)
	}
	if cfg.Mail.Sender != "club@example.org" {
		t.Fatalf("mail sender = %q", cfg.Mail.Sender)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Default()
		cfg.App.Name = "courtbook"
		cfg.Database.Filename = "/tmp/courtbook.db"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "missing_name", mutate: func(c *Config) { c.App.Name = "" }, wantErr: true},
		{name: "unsupported_driver", mutate: func(c *Config) { c.Database.Driver = "postgres" }, wantErr: true},
		{name: "missing_filename", mutate: func(c *Config) { c.Database.Filename = "" }, wantErr: true},
		{name: "inverted_window", mutate: func(c *Config) { c.Booking.StartHour = 22; c.Booking.EndHour = 6 }, wantErr: true},
		{name: "zero_quota", mutate: func(c *Config) { c.Booking.MaxActiveReservations = 0 }, wantErr: true},
		{name: "bad_deadline", mutate: func(c *Config) { c.Booking.FeeDeadline = "March 31" }, wantErr: true},
		{name: "good_deadline", mutate: func(c *Config) { c.Booking.FeeDeadline = "2026-03-31" }},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			cfg := valid()
			test.mutate(cfg)
			err := cfg.Validate()
			if test.wantErr && err == nil {
				t.Fatal("expected validation error")
			}
			if !test.wantErr && err != nil {
				t.Fatalf("Validate: %v", err)
			}
		})
	}
}
