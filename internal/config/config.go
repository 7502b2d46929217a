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
	AuthModeServiceAccount = "service_account"
	AuthModeOAuth          = "oauth"

	defaultPath     = "configs/config.yaml"
	defaultTimezone = "America/Sao_Paulo"
)

type Config struct {
	Server struct {
		Address        string   `yaml:"address"`
		AllowedOrigins []string `yaml:"allowed_origins"`
		RequestTimeout int      `yaml:"request_timeout_seconds"`
	} `yaml:"server"`

	Mongo struct {
		URI            string `yaml:"uri"`
		Database       string `yaml:"database"`
		TimeoutSeconds int    `yaml:"timeout_seconds"`
	} `yaml:"mongo"`

	Redis struct {
		Address         string `yaml:"address"`
		Password        string `yaml:"password"`
		DB              int    `yaml:"db"`
		CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	} `yaml:"redis"`

	Calendar struct {
		Enabled           bool    `yaml:"enabled"`
		CalendarID        string  `yaml:"calendar_id"`
		CredentialsPath   string  `yaml:"credentials_path"`
		Timezone          string  `yaml:"timezone"`
		AuthMode          string  `yaml:"auth_mode"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
		Burst             int     `yaml:"burst"`
		OAuth             struct {
			ClientID        string `yaml:"client_id"`
			ClientSecret    string `yaml:"client_secret"`
			RedirectURL     string `yaml:"redirect_url"`
			StateTTLSeconds int    `yaml:"state_ttl_seconds"`
		} `yaml:"oauth"`
	} `yaml:"calendar"`

	Booking struct {
		Timezone               string  `yaml:"timezone"`
		DefaultDurationMinutes int     `yaml:"default_duration_minutes"`
		DefaultUnitValue       float64 `yaml:"default_unit_value"`
	} `yaml:"booking"`

	Admin struct {
		APIKey string `yaml:"api_key"`
	} `yaml:"admin"`

	Backup BackupConfig `yaml:"backup"`

	Monitoring struct {
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Logging struct {
		Level  string `yaml:"level"`
		Pretty bool   `yaml:"pretty"`
	} `yaml:"logging"`
}

// BackupConfig controls periodic Mongo snapshots.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	IntervalHours int    `yaml:"interval_hours"`
	StoragePath   string `yaml:"storage_path"`
	RetentionDays int    `yaml:"retention_days"`
}

// Load reads the YAML file at path, expands ${ENV} placeholders, applies
// environment overrides and defaults, then validates the result.
// A missing file is not an error: the service can run from the environment alone.
func Load(path string) (*Config, error) {
	if path == "" {
		path = defaultPath
	}

	var cfg Config
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		// Support ${ENV_VAR} placeholders in YAML config.
		data = []byte(os.ExpandEnv(string(data)))
		if err = yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyEnv honours the variables the deployment has always used.
func (c *Config) applyEnv() {
	if v := os.Getenv("MONGO_URL"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("DB_NAME"); v != "" {
		c.Mongo.Database = v
	}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		c.Server.AllowedOrigins = splitList(v)
	}
	if v := os.Getenv("GOOGLE_CALENDAR_ID"); v != "" {
		c.Calendar.CalendarID = v
	}
	if v := os.Getenv("ADMIN_API_KEY"); v != "" {
		c.Admin.APIKey = v
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Address == "" {
		c.Server.Address = ":8001"
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 30
	}
	if c.Mongo.URI == "" {
		c.Mongo.URI = "mongodb://localhost:27017"
	}
	if c.Mongo.Database == "" {
		c.Mongo.Database = "agenda"
	}
	if c.Mongo.TimeoutSeconds <= 0 {
		c.Mongo.TimeoutSeconds = 10
	}
	if c.Booking.Timezone == "" {
		c.Booking.Timezone = defaultTimezone
	}
	if c.Booking.DefaultDurationMinutes <= 0 {
		c.Booking.DefaultDurationMinutes = 60
	}
	if c.Booking.DefaultUnitValue <= 0 {
		c.Booking.DefaultUnitValue = 30
	}
	if c.Calendar.Timezone == "" {
		c.Calendar.Timezone = c.Booking.Timezone
	}
	if c.Calendar.CalendarID == "" {
		c.Calendar.CalendarID = "primary"
	}
	if c.Calendar.CredentialsPath == "" {
		c.Calendar.CredentialsPath = "credentials/google-service-account.json"
	}
	if c.Calendar.AuthMode == "" {
		c.Calendar.AuthMode = AuthModeServiceAccount
	}
	if c.Calendar.RequestsPerSecond <= 0 {
		c.Calendar.RequestsPerSecond = 5
	}
	if c.Calendar.Burst <= 0 {
		c.Calendar.Burst = 5
	}
	if c.Calendar.OAuth.StateTTLSeconds <= 0 {
		c.Calendar.OAuth.StateTTLSeconds = 600
	}
	if c.Backup.IntervalHours <= 0 {
		c.Backup.IntervalHours = 24
	}
	if c.Backup.StoragePath == "" {
		c.Backup.StoragePath = "backups"
	}
	if c.Backup.RetentionDays <= 0 {
		c.Backup.RetentionDays = 14
	}
	if c.Monitoring.PrometheusPort == 0 {
		c.Monitoring.PrometheusPort = 9090
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	if _, err := time.LoadLocation(c.Booking.Timezone); err != nil {
		return fmt.Errorf("booking.timezone %q: %w", c.Booking.Timezone, err)
	}
	if _, err := time.LoadLocation(c.Calendar.Timezone); err != nil {
		return fmt.Errorf("calendar.timezone %q: %w", c.Calendar.Timezone, err)
	}
	switch c.Calendar.AuthMode {
	case AuthModeServiceAccount:
	case AuthModeOAuth:
		if c.Calendar.Enabled && (c.Calendar.OAuth.ClientID == "" || c.Calendar.OAuth.ClientSecret == "") {
			return errors.New("calendar.oauth.client_id and client_secret are required for oauth mode")
		}
		if c.Calendar.Enabled && c.Redis.Address == "" {
			return errors.New("redis.address is required for oauth mode")
		}
	default:
		return fmt.Errorf("calendar.auth_mode %q: expected %s or %s", c.Calendar.AuthMode, AuthModeServiceAccount, AuthModeOAuth)
	}
	return nil
}

// Location returns the booking time zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Booking.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

func (c *Config) MongoTimeout() time.Duration {
	return time.Duration(c.Mongo.TimeoutSeconds) * time.Second
}

func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Server.RequestTimeout) * time.Second
}

func (c *Config) CacheTTL() time.Duration {
	if c.Redis.CacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Redis.CacheTTLSeconds) * time.Second
}

func (c *Config) OAuthStateTTL() time.Duration {
	return time.Duration(c.Calendar.OAuth.StateTTLSeconds) * time.Second
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
