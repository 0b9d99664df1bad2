package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Uploads  UploadsConfig  `yaml:"uploads"`
	Jobs     JobsConfig     `yaml:"jobs"`
	Scanner  ScannerConfig  `yaml:"scanner"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port          int           `yaml:"port"`
	ReadTimeout   time.Duration `yaml:"read_timeout"`
	WriteTimeout  time.Duration `yaml:"write_timeout"`
	SessionSecret string        `yaml:"session_secret"`
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type UploadsConfig struct {
	Dir               string   `yaml:"dir"`
	MaxUploadBytes    int64    `yaml:"max_upload_bytes"`
	AllowedExtensions []string `yaml:"allowed_extensions"`
}

type JobsConfig struct {
	TokenTTL        time.Duration `yaml:"token_ttl"`
	SimulatePayment bool          `yaml:"simulate_payment"`
}

type ScannerConfig struct {
	ServerURL    string        `yaml:"server_url"`
	FrameDir     string        `yaml:"frame_dir"`
	PollInterval time.Duration `yaml:"poll_interval"`
	Cooldown     time.Duration `yaml:"cooldown"`
	PrinterName  string        `yaml:"printer_name"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		Database: DatabaseConfig{
			Path: "./data/kiosk.db",
		},
		Uploads: UploadsConfig{
			Dir:               "./data/uploads",
			MaxUploadBytes:    50 * 1024 * 1024,
			AllowedExtensions: []string{"pdf", "png", "jpg", "jpeg"},
		},
		Jobs: JobsConfig{
			TokenTTL:        24 * time.Hour,
			SimulatePayment: true,
		},
		Scanner: ScannerConfig{
			ServerURL:    "http://localhost:8080",
			PollInterval: 100 * time.Millisecond,
			Cooldown:     3 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

func Load(configPath string) (*Config, error) {
	cfg := defaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		} else if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("KIOSK_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}

	if v := os.Getenv("KIOSK_SESSION_SECRET"); v != "" {
		c.Server.SessionSecret = v
	}

	if v := os.Getenv("KIOSK_DB_PATH"); v != "" {
		c.Database.Path = v
	}

	if v := os.Getenv("KIOSK_UPLOAD_DIR"); v != "" {
		c.Uploads.Dir = v
	}

	if v := os.Getenv("KIOSK_TOKEN_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			c.Jobs.TokenTTL = ttl
		}
	}

	if v := os.Getenv("KIOSK_SIMULATE_PAYMENT"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Jobs.SimulatePayment = b
		}
	}

	if v := os.Getenv("KIOSK_SERVER_URL"); v != "" {
		c.Scanner.ServerURL = v
	}

	if v := os.Getenv("KIOSK_PRINTER_NAME"); v != "" {
		c.Scanner.PrinterName = v
	}

	if v := os.Getenv("KIOSK_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
}

// AllowedExtension reports whether filename ends in one of the configured
// upload extensions. The part after the final dot is compared
// case-insensitively.
func (c *Config) AllowedExtension(filename string) bool {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return false
	}
	ext := strings.ToLower(filename[idx+1:])
	for _, allowed := range c.Uploads.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return true
		}
	}
	return false
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Uploads.Dir == "" {
		return fmt.Errorf("upload dir is required")
	}

	if c.Uploads.MaxUploadBytes < 1 {
		return fmt.Errorf("max upload bytes must be positive")
	}

	if len(c.Uploads.AllowedExtensions) == 0 {
		return fmt.Errorf("at least one allowed extension is required")
	}

	if c.Jobs.TokenTTL <= 0 {
		return fmt.Errorf("token ttl must be positive")
	}

	if c.Scanner.PollInterval <= 0 {
		return fmt.Errorf("scanner poll interval must be positive")
	}

	if c.Scanner.Cooldown < 0 {
		return fmt.Errorf("scanner cooldown must be non-negative")
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json":    true,
		"console": true,
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, console)", c.Logging.Format)
	}

	return nil
}
