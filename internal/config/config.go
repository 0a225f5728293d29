package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

const EnvConfigFilePath = "CONFIG_FILE_PATH"

// LogConfig configures the process logger
type LogConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`        // empty logs to stdout only
	MaxSizeMB  int    `yaml:"max_size_mb"` // rotation threshold
	MaxAgeDays int    `yaml:"max_age_days"`
	MaxBackups int    `yaml:"max_backups"`
	Compress   bool   `yaml:"compress"`
}

// AuthConfig configures optional operator authentication
type AuthConfig struct {
	Username  string        `yaml:"username"`
	Password  string        `yaml:"password"` // empty disables auth
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// Enabled reports whether survey mutations require a token
func (c AuthConfig) Enabled() bool {
	return c.Password != ""
}

// Config holds all process configuration
type Config struct {
	MongoURI       string     `yaml:"mongo_uri"`
	MongoDB        string     `yaml:"mongo_db"`
	RedisURI       string     `yaml:"redis_uri"` // empty uses the in-process stats feed
	HTTPPort       string     `yaml:"http_port"`
	UploadDir      string     `yaml:"upload_dir"`
	PublicDir      string     `yaml:"public_dir"`
	MaxUploadMB    int64      `yaml:"max_upload_mb"`
	AllowedOrigins string     `yaml:"allowed_origins"`
	Log            LogConfig  `yaml:"log"`
	Auth           AuthConfig `yaml:"auth"`
}

// MaxUploadBytes is the per-file upload ceiling
func (c *Config) MaxUploadBytes() int64 {
	return c.MaxUploadMB << 20
}

func defaults() *Config {
	return &Config{
		MongoURI:       "mongodb://localhost:27017",
		MongoDB:        "surveys",
		HTTPPort:       "3000",
		UploadDir:      "uploads",
		PublicDir:      "public",
		MaxUploadMB:    5,
		AllowedOrigins: "*",
		Log: LogConfig{
			Level:      "info",
			MaxSizeMB:  50,
			MaxAgeDays: 28,
			MaxBackups: 3,
		},
		Auth: AuthConfig{
			Username: "admin",
			TokenTTL: 24 * time.Hour,
		},
	}
}

// Load reads .env (if present), the optional YAML file named by
// CONFIG_FILE_PATH, then environment overrides.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := defaults()
	if path := os.Getenv(EnvConfigFilePath); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.UnmarshalStrict(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.validate()
}

func (c *Config) applyEnv() error {
	c.MongoURI = getEnv("MONGO_URI", c.MongoURI)
	c.MongoDB = getEnv("MONGO_DB", c.MongoDB)
	c.RedisURI = getEnv("REDIS_URI", c.RedisURI)
	c.HTTPPort = getEnv("PORT", c.HTTPPort)
	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.PublicDir = getEnv("PUBLIC_DIR", c.PublicDir)
	c.AllowedOrigins = getEnv("CORS_ALLOWED_ORIGINS", c.AllowedOrigins)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.File = getEnv("LOG_FILE", c.Log.File)
	c.Auth.Username = getEnv("HOST_USERNAME", c.Auth.Username)
	c.Auth.Password = getEnv("HOST_PASSWORD", c.Auth.Password)
	c.Auth.JWTSecret = getEnv("JWT_SECRET", c.Auth.JWTSecret)

	if v := os.Getenv("MAX_UPLOAD_MB"); v != "" {
		mb, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("MAX_UPLOAD_MB: %w", err)
		}
		c.MaxUploadMB = mb
	}
	if v := os.Getenv("TOKEN_TTL"); v != "" {
		ttl, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("TOKEN_TTL: %w", err)
		}
		c.Auth.TokenTTL = ttl
	}
	return nil
}

func (c *Config) validate() error {
	if c.MaxUploadMB <= 0 {
		return errors.New("max upload size must be positive")
	}
	if c.Auth.Enabled() && c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when HOST_PASSWORD is set")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
