// Package config loads service configuration from YAML with environment
// variable overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// DefaultReadTimeout is the default HTTP read timeout
	DefaultReadTimeout = 10 * time.Second
	// DefaultWriteTimeout is the default HTTP write timeout
	DefaultWriteTimeout = 30 * time.Second
	// DefaultPublishInterval is the pause between publish worker cycles
	DefaultPublishInterval = 60 * time.Second
	// DefaultSyncInterval is the pause between analytics sync cycles
	DefaultSyncInterval = 5 * time.Minute
	// DefaultCycleBackoff is the pause after a failed worker cycle
	DefaultCycleBackoff = 10 * time.Second
	// DefaultDueWindow is the half-width of the due-item detection window
	DefaultDueWindow = 5 * time.Minute
	// DefaultSyncBatchLimit caps external metric calls per sync cycle
	DefaultSyncBatchLimit = 20
	// DefaultLinkedInTimeout is the platform API request timeout
	DefaultLinkedInTimeout = 30 * time.Second
)

type Config struct {
	Debug    bool           `yaml:"debug"` // Controls log level and format
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Redis    RedisConfig    `yaml:"redis"`
	LinkedIn LinkedInConfig `yaml:"linkedin"`
	Worker   WorkerConfig   `yaml:"worker"`
}

type ServerConfig struct {
	Address      string        `yaml:"address"`       // e.g., ":8080"
	ReadTimeout  time.Duration `yaml:"read_timeout"`  // Default: 10s
	WriteTimeout time.Duration `yaml:"write_timeout"` // Default: 30s
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

type RedisConfig struct {
	URL      string `yaml:"url"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

type LinkedInConfig struct {
	ClientID     string        `yaml:"client_id"`
	ClientSecret string        `yaml:"client_secret"`
	APIBaseURL   string        `yaml:"api_base_url"`   // Default: https://api.linkedin.com/v2
	OAuthBaseURL string        `yaml:"oauth_base_url"` // Default: https://www.linkedin.com/oauth/v2
	Timeout      time.Duration `yaml:"timeout"`        // Default: 30s
}

type WorkerConfig struct {
	PublishInterval time.Duration `yaml:"publish_interval"` // Default: 60s
	SyncInterval    time.Duration `yaml:"sync_interval"`    // Default: 5m
	CycleBackoff    time.Duration `yaml:"cycle_backoff"`    // Default: 10s
	DueWindow       time.Duration `yaml:"due_window"`       // Default: 5m
	SyncBatchLimit  int           `yaml:"sync_batch_limit"` // Default: 20
}

// Validate checks if the configuration is valid and returns an error if not.
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return errors.New("database.host is required")
	}
	if c.Database.DBName == "" {
		return errors.New("database.dbname is required")
	}
	if c.Redis.URL == "" {
		return errors.New("redis.url is required")
	}
	if c.Worker.PublishInterval <= 0 {
		return fmt.Errorf("worker.publish_interval must be positive, got %v", c.Worker.PublishInterval)
	}
	if c.Worker.SyncInterval <= 0 {
		return fmt.Errorf("worker.sync_interval must be positive, got %v", c.Worker.SyncInterval)
	}
	if c.Worker.SyncBatchLimit <= 0 {
		return fmt.Errorf("worker.sync_batch_limit must be positive, got %d", c.Worker.SyncBatchLimit)
	}
	return nil
}

// setDefaults sets default values for configuration fields
func setDefaults(cfg *Config) {
	if cfg.Server.Address == "" {
		cfg.Server.Address = ":8080"
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultWriteTimeout
	}
	if cfg.Database.Port == "" {
		cfg.Database.Port = "5432"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.LinkedIn.APIBaseURL == "" {
		cfg.LinkedIn.APIBaseURL = "https://api.linkedin.com/v2"
	}
	if cfg.LinkedIn.OAuthBaseURL == "" {
		cfg.LinkedIn.OAuthBaseURL = "https://www.linkedin.com/oauth/v2"
	}
	if cfg.LinkedIn.Timeout == 0 {
		cfg.LinkedIn.Timeout = DefaultLinkedInTimeout
	}
	if cfg.Worker.PublishInterval == 0 {
		cfg.Worker.PublishInterval = DefaultPublishInterval
	}
	if cfg.Worker.SyncInterval == 0 {
		cfg.Worker.SyncInterval = DefaultSyncInterval
	}
	if cfg.Worker.CycleBackoff == 0 {
		cfg.Worker.CycleBackoff = DefaultCycleBackoff
	}
	if cfg.Worker.DueWindow == 0 {
		cfg.Worker.DueWindow = DefaultDueWindow
	}
	if cfg.Worker.SyncBatchLimit == 0 {
		cfg.Worker.SyncBatchLimit = DefaultSyncBatchLimit
	}
}

// overrideWithEnvVars overrides configuration with environment variables
func overrideWithEnvVars(cfg *Config) {
	if v := os.Getenv("DATABASE_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := os.Getenv("DATABASE_PORT"); v != "" {
		cfg.Database.Port = v
	}
	if v := os.Getenv("DATABASE_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := os.Getenv("DATABASE_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}
	if v := os.Getenv("DATABASE_NAME"); v != "" {
		cfg.Database.DBName = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.URL = v
	}
	if v := os.Getenv("LINKEDIN_CLIENT_ID"); v != "" {
		cfg.LinkedIn.ClientID = v
	}
	if v := os.Getenv("LINKEDIN_CLIENT_SECRET"); v != "" {
		cfg.LinkedIn.ClientSecret = v
	}
	if v := os.Getenv("APP_DEBUG"); v != "" {
		cfg.Debug = parseBool(v)
	}
	if port := os.Getenv("API_PORT"); port != "" {
		cfg.Server.Address = ":" + port
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	setDefaults(&cfg)
	overrideWithEnvVars(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// parseBool parses a string value as a boolean.
// Returns true for "true", "1", "yes" (case-insensitive), false otherwise.
func parseBool(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s == "true" || s == "1" || s == "yes"
}
