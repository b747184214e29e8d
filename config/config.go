package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server      ServerConfig      `yaml:"server"`
	Storage     StorageConfig     `yaml:"storage"`
	PDFium      PDFiumConfig      `yaml:"pdfium"`
	Compression CompressionConfig `yaml:"compression"`
	Log         LogConfig         `yaml:"log"`
}

type ServerConfig struct {
	Port            string            `yaml:"port"`             // Listen address, ":8080"
	Mode            string            `yaml:"mode"`             // gin mode: debug, release or test
	MaxUploadBytes  int64             `yaml:"max_upload_bytes"` // Largest accepted upload
	ShutdownTimeout time.Duration     `yaml:"shutdown_timeout"`
	Accounts        map[string]string `yaml:"accounts"` // user -> password for basic auth
}

type StorageConfig struct {
	MediaRoot string `yaml:"media_root"` // Per-request workspaces
	DataDir   string `yaml:"data_dir"`   // Job database
}

type PDFiumConfig struct {
	MinIdle         int           `yaml:"min_idle"`
	MaxIdle         int           `yaml:"max_idle"`
	MaxTotal        int           `yaml:"max_total"`
	InstanceTimeout time.Duration `yaml:"instance_timeout"`
}

type CompressionConfig struct {
	MinImageBytes int `yaml:"min_image_bytes"` // Skip smaller image streams, 0 keeps none
}

type LogConfig struct {
	Level string `yaml:"level"`
}

// Returns a Config struct with reasonable default values.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            ":8080",
			Mode:            "debug",
			MaxUploadBytes:  100 * 1024 * 1024, // 100MB
			ShutdownTimeout: 10 * time.Second,
		},
		Storage: StorageConfig{
			MediaRoot: "./media",
			DataDir:   "./data",
		},
		PDFium: PDFiumConfig{
			MinIdle:         1,
			MaxIdle:         1,
			MaxTotal:        2,
			InstanceTimeout: 30 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads filename over the defaults, then applies environment overrides.
// An empty filename only applies the environment.
func Load(filename string) (*Config, error) {
	config := DefaultConfig()

	if filename != "" {
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	if err := config.applyEnv(os.Getenv); err != nil {
		return nil, err
	}

	return config, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if port := getenv("PDFCOMP_PORT"); port != "" {
		// a bare port number gets the colon
		if port[0] != ':' && !strings.Contains(port, ":") {
			port = ":" + port
		}
		c.Server.Port = port
	}
	if mode := getenv("PDFCOMP_MODE"); mode != "" {
		c.Server.Mode = mode
	}
	if root := getenv("PDFCOMP_MEDIA_ROOT"); root != "" {
		c.Storage.MediaRoot = root
	}
	if dir := getenv("PDFCOMP_DATA_DIR"); dir != "" {
		c.Storage.DataDir = dir
	}
	if level := getenv("PDFCOMP_LOG_LEVEL"); level != "" {
		c.Log.Level = level
	}
	if accounts := getenv("PDFCOMP_ACCOUNTS"); accounts != "" {
		parsed, err := parseAccounts(accounts)
		if err != nil {
			return err
		}
		c.Server.Accounts = parsed
	}
	return nil
}

// parseAccounts reads "user:password,user2:password2".
func parseAccounts(value string) (map[string]string, error) {
	accounts := make(map[string]string)
	for _, pair := range strings.Split(value, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		user, password, ok := strings.Cut(pair, ":")
		if !ok || user == "" || password == "" {
			return nil, fmt.Errorf("invalid account %q, want user:password", pair)
		}
		accounts[user] = password
	}
	return accounts, nil
}

// Validate checks the settings shared by every command.
func (c *Config) Validate() error {
	if c.Storage.MediaRoot == "" {
		return fmt.Errorf("storage.media_root is required")
	}
	if c.Storage.DataDir == "" {
		return fmt.Errorf("storage.data_dir is required")
	}
	if c.Compression.MinImageBytes < 0 {
		return fmt.Errorf("compression.min_image_bytes must not be negative")
	}
	if err := validatePDFiumConfig(&c.PDFium); err != nil {
		return fmt.Errorf("invalid pdfium configuration: %w", err)
	}
	return nil
}

// ValidateServer additionally checks what the HTTP server needs.
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.mode must be debug, release or test, got %q", c.Server.Mode)
	}
	if c.Server.Port == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.MaxUploadBytes <= 0 {
		return fmt.Errorf("server.max_upload_bytes must be greater than 0")
	}
	if len(c.Server.Accounts) == 0 {
		return fmt.Errorf("server.accounts needs at least one user")
	}
	return nil
}

func validatePDFiumConfig(config *PDFiumConfig) error {
	if config.MaxTotal < 1 {
		return fmt.Errorf("max_total must be greater than 0")
	}
	if config.MinIdle < 0 || config.MaxIdle < 0 {
		return fmt.Errorf("min_idle and max_idle must not be negative")
	}
	if config.MinIdle > config.MaxTotal || config.MaxIdle > config.MaxTotal {
		return fmt.Errorf("idle instances cannot exceed max_total")
	}
	if config.InstanceTimeout <= 0 {
		return fmt.Errorf("instance_timeout must be greater than 0")
	}
	return nil
}
