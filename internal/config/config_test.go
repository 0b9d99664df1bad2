package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsAreValid(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("failed to load default config: %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.Server.Port)
	}
	if cfg.Jobs.TokenTTL != 24*time.Hour {
		t.Errorf("expected default TTL 24h, got %v", cfg.Jobs.TokenTTL)
	}
	if !cfg.Jobs.SimulatePayment {
		t.Error("expected simulate_payment to default to true")
	}
	if cfg.Scanner.Cooldown != 3*time.Second {
		t.Errorf("expected default cooldown 3s, got %v", cfg.Scanner.Cooldown)
	}
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kiosk.yaml")
	data := []byte("server:\n  port: 9191\njobs:\n  simulate_payment: false\n")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Port != 9191 {
		t.Errorf("expected port 9191, got %d", cfg.Server.Port)
	}
	if cfg.Jobs.SimulatePayment {
		t.Error("expected simulate_payment false")
	}
	// Untouched sections keep their defaults.
	if cfg.Uploads.MaxUploadBytes != 50*1024*1024 {
		t.Errorf("expected default upload bound, got %d", cfg.Uploads.MaxUploadBytes)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("KIOSK_PORT", "7070")
	t.Setenv("KIOSK_TOKEN_TTL", "1h")
	t.Setenv("KIOSK_SIMULATE_PAYMENT", "false")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("expected port 7070, got %d", cfg.Server.Port)
	}
	if cfg.Jobs.TokenTTL != time.Hour {
		t.Errorf("expected TTL 1h, got %v", cfg.Jobs.TokenTTL)
	}
	if cfg.Jobs.SimulatePayment {
		t.Error("expected simulate_payment false")
	}
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := defaults()
	cfg.Server.Port = 0
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation to reject port 0")
	}
}

func TestValidateRejectsEmptyExtensions(t *testing.T) {
	cfg := defaults()
	cfg.Uploads.AllowedExtensions = nil
	if err := cfg.Validate(); err == nil {
		t.Error("expected validation to reject empty extension list")
	}
}

func TestAllowedExtension(t *testing.T) {
	cfg := defaults()

	cases := []struct {
		filename string
		want     bool
	}{
		{"doc.pdf", true},
		{"photo.JPG", true},
		{"scan.jpeg", true},
		{"img.png", true},
		{"archive.zip", false},
		{"noext", false},
		{"trailingdot.", false},
		{"double.tar.pdf", true},
	}

	for _, tc := range cases {
		if got := cfg.AllowedExtension(tc.filename); got != tc.want {
			t.Errorf("AllowedExtension(%q) = %v, want %v", tc.filename, got, tc.want)
		}
	}
}
