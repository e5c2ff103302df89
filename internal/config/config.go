// Package config loads the service configuration from an optional yaml
// file with environment overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Redis         RedisConfig         `yaml:"redis"`
	Gemini        GeminiConfig        `yaml:"gemini"`
	Media         MediaConfig         `yaml:"media"`
	Notifications NotificationsConfig `yaml:"notifications"`
	LogLevel      string              `yaml:"log_level"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Host                string `yaml:"host"`
	Port                int    `yaml:"port"`
	ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
	WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
	IdleTimeoutSeconds  int    `yaml:"idle_timeout_seconds"`
}

func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// DatabaseConfig holds the PostgreSQL connection settings.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// RedisConfig holds the optional cache backend address.
type RedisConfig struct {
	Addr string `yaml:"addr"`
}

// GeminiConfig holds the AI vendor settings.
type GeminiConfig struct {
	APIKey string `yaml:"api_key"`
	Model  string `yaml:"model"`
}

// MediaConfig holds the local blob store for uploaded files.
type MediaConfig struct {
	Dir string `yaml:"dir"`
}

// NotificationsConfig controls the daily reminder scheduler.
type NotificationsConfig struct {
	IntervalSeconds int `yaml:"interval_seconds"`
	DigestHour      int `yaml:"digest_hour"`
}

func (n NotificationsConfig) Interval() time.Duration {
	return time.Duration(n.IntervalSeconds) * time.Second
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Host:                "127.0.0.1",
			Port:                8080,
			ReadTimeoutSeconds:  10,
			WriteTimeoutSeconds: 40,
			IdleTimeoutSeconds:  60,
		},
		Gemini: GeminiConfig{
			Model: "gemini-1.5-flash-latest",
		},
		Media: MediaConfig{
			Dir: "media",
		},
		Notifications: NotificationsConfig{
			IntervalSeconds: 60,
			DigestHour:      17,
		},
		LogLevel: "info",
	}
}

// Load reads the yaml file at path (if non-empty) over the defaults and
// applies environment overrides last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.Notifications.DigestHour < 0 || cfg.Notifications.DigestHour > 23 {
		return Config{}, fmt.Errorf("digest_hour %d out of range", cfg.Notifications.DigestHour)
	}
	if cfg.Notifications.IntervalSeconds <= 0 {
		cfg.Notifications.IntervalSeconds = 60
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("FINGURU_HOST"); v != "" {
		c.Server.Host = v
	}
	if v := os.Getenv("FINGURU_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.DSN = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Redis.Addr = v
	}
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("FINGURU_MEDIA_DIR"); v != "" {
		c.Media.Dir = v
	}
	if v := os.Getenv("FINGURU_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// Addr returns the listener address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}
