package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/claude/nextrep/internal/dashboard"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Database  DatabaseConfig  `yaml:"database"`
	Auth      AuthConfig      `yaml:"auth"`
	Tailscale TailscaleConfig `yaml:"tailscale"`
	Log       LogConfig       `yaml:"log"`
	Cache     CacheConfig     `yaml:"cache"`
	Analytics AnalyticsConfig `yaml:"analytics"`
	Client    ClientConfig    `yaml:"client"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
	// DevUser is the identity used when neither Tailscale nor a bearer
	// token identifies the caller. Empty disables anonymous access.
	DevUser string `yaml:"dev_user"`
}

type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

type AuthConfig struct {
	APIKey    string `yaml:"api_key"`
	JWTSecret string `yaml:"jwt_secret"`
	JWTIssuer string `yaml:"jwt_issuer"`
}

type TailscaleConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Hostname string `yaml:"hostname"`
	StateDir string `yaml:"state_dir"`
}

type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

type CacheConfig struct {
	SizeMB     int `yaml:"size_mb"`
	TTLSeconds int `yaml:"ttl_seconds"`
}

type AnalyticsConfig struct {
	FocusRecencyDays int    `yaml:"focus_recency_days"`
	PRRecencyDays    int    `yaml:"pr_recency_days"`
	WeekTarget       int    `yaml:"week_target"`
	Timezone         string `yaml:"timezone"`
}

type ClientConfig struct {
	ServerURL      string `yaml:"server_url"`
	Token          string `yaml:"token"`
	StateDir       string `yaml:"state_dir"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Retries        int    `yaml:"retries"`
}

// DSN returns a PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	sslmode := d.SSLMode
	if sslmode == "" {
		sslmode = "disable"
	}
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, sslmode)
}

// Options converts the analytics section into dashboard options. Zero values
// fall back to the dashboard defaults. The timezone was checked by Load.
func (a AnalyticsConfig) Options() dashboard.Options {
	opts := dashboard.Options{
		FocusRecencyDays: a.FocusRecencyDays,
		PRRecencyDays:    a.PRRecencyDays,
		WeekTarget:       a.WeekTarget,
	}
	if a.Timezone != "" {
		if loc, err := time.LoadLocation(a.Timezone); err == nil {
			opts.Location = loc
		}
	}
	return opts
}

// Load reads config from a YAML file, then applies environment variable overrides.
// Env vars use the prefix NEXTREP_ and underscore-separated paths:
//
//	NEXTREP_SERVER_HOST, NEXTREP_SERVER_PORT, NEXTREP_SERVER_DEV_USER,
//	NEXTREP_DB_HOST, NEXTREP_DB_PORT, NEXTREP_DB_NAME,
//	NEXTREP_DB_USER, NEXTREP_DB_PASSWORD, NEXTREP_DB_SSLMODE,
//	NEXTREP_AUTH_API_KEY, NEXTREP_AUTH_JWT_SECRET,
//	NEXTREP_LOG_LEVEL, NEXTREP_LOG_FILE,
//	NEXTREP_CLIENT_SERVER_URL, NEXTREP_CLIENT_TOKEN, NEXTREP_CLIENT_STATE_DIR
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)
	cfg.applyDefaults()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return cfg, nil
}

// LoadClient reads only what the session CLI needs. A missing file is not an
// error: the CLI can run from environment variables alone.
func LoadClient(path string) (ClientConfig, error) {
	cfg := &Config{}
	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return ClientConfig{}, fmt.Errorf("parsing config file: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return ClientConfig{}, fmt.Errorf("reading config file: %w", err)
	}
	applyEnvOverrides(cfg)
	cfg.applyDefaults()
	return cfg.Client, nil
}

func applyEnvOverrides(cfg *Config) {
	str := func(name string, dst *string) {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
	num := func(name string, dst *int) {
		if v := os.Getenv(name); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				*dst = n
			}
		}
	}

	str("NEXTREP_SERVER_HOST", &cfg.Server.Host)
	num("NEXTREP_SERVER_PORT", &cfg.Server.Port)
	str("NEXTREP_SERVER_DEV_USER", &cfg.Server.DevUser)
	str("NEXTREP_DB_HOST", &cfg.Database.Host)
	num("NEXTREP_DB_PORT", &cfg.Database.Port)
	str("NEXTREP_DB_NAME", &cfg.Database.Name)
	str("NEXTREP_DB_USER", &cfg.Database.User)
	str("NEXTREP_DB_PASSWORD", &cfg.Database.Password)
	str("NEXTREP_DB_SSLMODE", &cfg.Database.SSLMode)
	str("NEXTREP_AUTH_API_KEY", &cfg.Auth.APIKey)
	str("NEXTREP_AUTH_JWT_SECRET", &cfg.Auth.JWTSecret)
	str("NEXTREP_LOG_LEVEL", &cfg.Log.Level)
	str("NEXTREP_LOG_FILE", &cfg.Log.File)
	str("NEXTREP_CLIENT_SERVER_URL", &cfg.Client.ServerURL)
	str("NEXTREP_CLIENT_TOKEN", &cfg.Client.Token)
	str("NEXTREP_CLIENT_STATE_DIR", &cfg.Client.StateDir)
}

func (c *Config) applyDefaults() {
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.MaxSizeMB == 0 {
		c.Log.MaxSizeMB = 50
	}
	if c.Cache.SizeMB == 0 {
		c.Cache.SizeMB = 16
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 3600
	}
	if c.Auth.JWTIssuer == "" {
		c.Auth.JWTIssuer = "nextrep"
	}
	if c.Client.TimeoutSeconds == 0 {
		c.Client.TimeoutSeconds = 30
	}
	if c.Client.Retries == 0 {
		c.Client.Retries = 3
	}
}

func (c *Config) validate() error {
	if c.Server.Port == 0 {
		return fmt.Errorf("server.port is required")
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.Port == 0 {
		return fmt.Errorf("database.port is required")
	}
	if c.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if c.Database.User == "" {
		return fmt.Errorf("database.user is required")
	}
	if c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key is required")
	}
	if c.Tailscale.Enabled && c.Tailscale.Hostname == "" {
		return fmt.Errorf("tailscale.hostname is required when tailscale is enabled")
	}
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn or error (got %q)", c.Log.Level)
	}
	if c.Analytics.Timezone != "" {
		if _, err := time.LoadLocation(c.Analytics.Timezone); err != nil {
			return fmt.Errorf("analytics.timezone: %w", err)
		}
	}
	return nil
}
