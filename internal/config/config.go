package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config holds every runtime setting of the lodge binaries.
type Config struct {
	Port         string        `yaml:"port"`
	Env          string        `yaml:"env"`
	LogLevel     string        `yaml:"log_level"`
	CORSOrigins  []string      `yaml:"cors_origins"`
	Store        string        `yaml:"store"`
	RedisAddr    string        `yaml:"redis_addr"`
	SessionTTL   time.Duration `yaml:"session_ttl"`
	MaxMessages  int           `yaml:"max_messages"`
	MaxInputSize int           `yaml:"max_input_size"`
	CacheSize    int           `yaml:"cache_size"`
	// EncryptionKey is a base64 AES-256 key. Empty stores sessions in clear.
	EncryptionKey string         `yaml:"encryption_key"`
	Database      DatabaseConfig `yaml:"database"`
	Archive       ArchiveConfig  `yaml:"archive"`
}

// DatabaseConfig selects the completed-session store. Empty Driver disables it.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	URL    string `yaml:"url"`
}

// ArchiveConfig points at the S3-compatible transcript bucket.
type ArchiveConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	Bucket    string `yaml:"bucket"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// Default returns the settings used when nothing is configured.
func Default() *Config {
	return &Config{
		Port:         ":8080",
		Env:          "local",
		LogLevel:     "info",
		CORSOrigins:  []string{"http://localhost:3000"},
		Store:        StoreMemory,
		RedisAddr:    "localhost:6379",
		SessionTTL:   time.Hour,
		MaxMessages:  100,
		MaxInputSize: 4096,
		CacheSize:    256,
		Archive: ArchiveConfig{
			Region: "us-east-1",
			Bucket: "lodge-transcripts",
		},
	}
}

// Load builds the configuration: defaults, then the optional YAML file at
// path, then .env and process environment. A missing file is not an error.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("failed to read config: %w", err)
		default:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	if v := env("LODGE_PORT"); v != "" {
		if !strings.HasPrefix(v, ":") {
			v = ":" + v
		}
		c.Port = v
	}
	setString(&c.Env, "LODGE_ENV")
	setString(&c.LogLevel, "LODGE_LOG_LEVEL")
	if v := env("LODGE_CORS_ORIGINS"); v != "" {
		c.CORSOrigins = splitList(v)
	}
	setString(&c.Store, "LODGE_STORE")
	setString(&c.RedisAddr, "LODGE_REDIS_ADDR")
	setString(&c.RedisPassword, "LODGE_REDIS_PASSWORD")
	setString(&c.EncryptionKey, "LODGE_ENCRYPTION_KEY")
	setString(&c.Database.Driver, "LODGE_DATABASE_DRIVER")
	setString(&c.Database.URL, "LODGE_DATABASE_URL")
	setString(&c.Archive.Endpoint, "LODGE_ARCHIVE_ENDPOINT")
	setString(&c.Archive.Region, "LODGE_ARCHIVE_REGION")
	setString(&c.Archive.AccessKey, "LODGE_ARCHIVE_ACCESS_KEY")
	setString(&c.Archive.SecretKey, "LODGE_ARCHIVE_SECRET_KEY")
	setString(&c.Archive.Bucket, "LODGE_ARCHIVE_BUCKET")

	if v := env("LODGE_SESSION_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("LODGE_SESSION_TTL: %w", err)
		}
		c.SessionTTL = d
	}
	for key, dst := range map[string]*int{
		"LODGE_MAX_MESSAGES":   &c.MaxMessages,
		"LODGE_MAX_INPUT_SIZE": &c.MaxInputSize,
		"LODGE_CACHE_SIZE":     &c.CacheSize,
	} {
		if v := env(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = n
		}
	}
	for key, dst := range map[string]*bool{
		"LODGE_ARCHIVE_ENABLED": &c.Archive.Enabled,
		"LODGE_ARCHIVE_USE_SSL": &c.Archive.UseSSL,
	} {
		if v := env(key); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s: %w", key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Store {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("unknown store %q", c.Store)
	}
	switch c.Database.Driver {
	case "", "pgx", "sqlite":
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Database.Driver != "" && c.Database.URL == "" {
		return errors.New("database url is required when a driver is set")
	}
	if c.Archive.Enabled && (c.Archive.Endpoint == "" || c.Archive.Bucket == "") {
		return errors.New("archive endpoint and bucket are required")
	}
	if c.SessionTTL < 0 || c.MaxMessages < 0 || c.MaxInputSize < 0 {
		return errors.New("limits must not be negative")
	}
	if _, err := c.EncryptionKeyBytes(); err != nil {
		return err
	}
	return nil
}

// EncryptionKeyBytes decodes EncryptionKey. It returns nil when unset.
func (c *Config) EncryptionKeyBytes() ([]byte, error) {
	if c.EncryptionKey == "" {
		return nil, nil
	}
	key, err := base64.StdEncoding.DecodeString(c.EncryptionKey)
	if err != nil {
		return nil, fmt.Errorf("encryption key is not valid base64: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("encryption key must decode to 32 bytes, got %d", len(key))
	}
	return key, nil
}

// IsLocal reports whether the process runs in a developer environment.
func (c *Config) IsLocal() bool {
	return strings.EqualFold(c.Env, "local")
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}

func setString(dst *string, key string) {
	if v := env(key); v != "" {
		*dst = v
	}
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
