package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimalYAML = `
app:
  name: salonbook
  port: 8080
database:
  driver: sqlite
  filename: data/salon.db
`

func TestParseAppliesDefaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if cfg.Booking.BufferMinutes != 15 || cfg.Booking.SlotStepMinutes != 15 {
		t.Fatalf("unexpected slot defaults: %+v", cfg.Booking)
	}
	if cfg.Booking.CancellationCutoff != 20*time.Hour {
		t.Fatalf("expected 20h cutoff, got %s", cfg.Booking.CancellationCutoff)
	}
	if cfg.Database.ConnectRetries != 5 || cfg.Database.ConnectRetryDelay != 2*time.Second {
		t.Fatalf("unexpected retry defaults: %+v", cfg.Database)
	}
	if cfg.Email.Provider != "log" || cfg.Notifications.Queue != "memory" {
		t.Fatalf("unexpected provider defaults: %s %s", cfg.Email.Provider, cfg.Notifications.Queue)
	}
	if cfg.Location() != time.UTC {
		t.Fatalf("expected UTC location")
	}
}

func TestParseReadsDurations(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + `
booking:
  cancellation_cutoff: 6h
  buffer_minutes: 10
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Booking.CancellationCutoff != 6*time.Hour {
		t.Fatalf("expected 6h, got %s", cfg.Booking.CancellationCutoff)
	}
	if cfg.Booking.BufferMinutes != 10 {
		t.Fatalf("expected buffer 10, got %d", cfg.Booking.BufferMinutes)
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name  string
		extra string
		want  string
	}{
		{"bad cron", "reminders:\n  enabled: true\n  cron: \"every day\"\n", "reminders cron"},
		{"bad timezone", "", "timezone"},
		{"redis without addr", "notifications:\n  queue: redis\n", "redis addr"},
		{"smtp without host", "email:\n  provider: smtp\n  from_email: salon@example.com\n", "smtp host"},
		{"ses without region", "email:\n  provider: ses\n  from_email: salon@example.com\n", "ses region"},
		{"calendar without id", "calendar:\n  enabled: true\n", "calendar_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Parse([]byte(minimalYAML + tt.extra))
			if err != nil {
				t.Fatalf("parse: %v", err)
			}
			if tt.extra == "" {
				cfg.App.Timezone = "Mars/Olympus"
			}
			err = cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte(minimalYAML), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("ADMIN_PASSWORD=from-env-file\n"), 0o600); err != nil {
		t.Fatalf("write env: %v", err)
	}
	t.Setenv("ADMIN_PASSWORD", "")
	os.Unsetenv("ADMIN_PASSWORD")

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Admin.Password != "from-env-file" {
		t.Fatalf("expected admin password from .env, got %q", cfg.Admin.Password)
	}
}

func TestParseReadsSESSecrets(t *testing.T) {
	t.Setenv("SES_ACCESS_KEY_ID", "AKIDEXAMPLE")
	t.Setenv("SES_SECRET_ACCESS_KEY", "secret")
	t.Setenv("SES_REGION", "eu-west-1")

	cfg, err := Parse([]byte(minimalYAML + "email:\n  provider: ses\n  from_email: salon@example.com\n  ses:\n    region: us-east-1\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if cfg.Email.SES.AccessKeyID != "AKIDEXAMPLE" || cfg.Email.SES.SecretAccessKey != "secret" {
		t.Fatalf("unexpected ses credentials: %+v", cfg.Email.SES)
	}
	if cfg.Email.SES.Region != "eu-west-1" {
		t.Fatalf("expected SES_REGION to override yaml, got %q", cfg.Email.SES.Region)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}
}
