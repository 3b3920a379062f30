package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// ConfigPath is the default config location.
const ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	DatabaseURL          string `yaml:"databaseURL"`
	LogLevel             string `yaml:"logLevel"`
	MaxOpenConns         int    `yaml:"maxOpenConns"`
	MaxIdleConns         int    `yaml:"maxIdleConns"`
	ConnMaxLifetime      string `yaml:"connMaxLifetime"`
	RedisAddr            string `yaml:"redisAddr"`
	RedisPassword        string `yaml:"redisPassword"`
	NotificationStream   string `yaml:"notificationStream"`
	InviteTTL            string `yaml:"inviteTTL"`
	InviteExpirySchedule string `yaml:"inviteExpirySchedule"`
	InviteRateLimitPerHr int    `yaml:"inviteRateLimitPerHour"`
	SessionSecret        string `yaml:"sessionSecret"`
	SessionTTL           string `yaml:"sessionTTL"`
	MinioEndpoint        string `yaml:"minioEndpoint"`
	MinioAccessKey       string `yaml:"minioAccessKey"`
	MinioSecretKey       string `yaml:"minioSecretKey"`
	MinioBucket          string `yaml:"minioBucket"`
	MinioUseSSL          bool   `yaml:"minioUseSSL"`
	DownloadURLTTL       string `yaml:"downloadURLTTL"`
	MetricsAddr          string `yaml:"metricsAddr"`
}

// LoadDotEnv loads .env into the environment when the file exists.
func LoadDotEnv(path string) error {
	if path == "" {
		path = ".env"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	slog.Info("config: loading environment from file", "path", path)
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// Load reads config from path (defaults to config.yaml).
func Load(path string) (FileConfig, error) {
	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.DatabaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.RedisPassword = v
	}
	if v := os.Getenv("DEXTER_SESSION_SECRET"); v != "" {
		cfg.SessionSecret = v
	}
	if v := os.Getenv("DEXTER_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("MINIO_ENDPOINT"); v != "" {
		cfg.MinioEndpoint = v
	}
	if v := os.Getenv("MINIO_ACCESS_KEY"); v != "" {
		cfg.MinioAccessKey = v
	}
	if v := os.Getenv("MINIO_SECRET_KEY"); v != "" {
		cfg.MinioSecretKey = v
	}
	if v := os.Getenv("MINIO_BUCKET"); v != "" {
		cfg.MinioBucket = v
	}
	if v := os.Getenv("DEXTER_INVITE_RATE_LIMIT_PER_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.InviteRateLimitPerHr = n
		}
	}
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.MinioUseSSL = b
		}
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.NotificationStream == "" {
		cfg.NotificationStream = "dexter:notifications"
	}
	if cfg.InviteTTL == "" {
		cfg.InviteTTL = "168h"
	}
	if cfg.InviteExpirySchedule == "" {
		cfg.InviteExpirySchedule = "@every 5m"
	}
	if cfg.SessionTTL == "" {
		cfg.SessionTTL = "720h"
	}
	if cfg.DownloadURLTTL == "" {
		cfg.DownloadURLTTL = "15m"
	}
	if cfg.MetricsAddr == "" {
		cfg.MetricsAddr = ":9464"
	}
}

func validateConfig(cfg FileConfig) error {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		return errors.New("config: databaseURL is required (set DATABASE_URL)")
	}
	if cfg.InviteRateLimitPerHr < 0 {
		return errors.New("config: inviteRateLimitPerHour must be >= 0")
	}
	if cfg.MaxOpenConns < 0 || cfg.MaxIdleConns < 0 {
		return errors.New("config: connection pool sizes must be >= 0")
	}
	if cfg.MaxOpenConns > 0 && cfg.MaxIdleConns > cfg.MaxOpenConns {
		return errors.New("config: maxIdleConns must not exceed maxOpenConns")
	}
	for name, v := range map[string]string{
		"connMaxLifetime": cfg.ConnMaxLifetime,
		"inviteTTL":       cfg.InviteTTL,
		"sessionTTL":      cfg.SessionTTL,
		"downloadURLTTL":  cfg.DownloadURLTTL,
	} {
		if _, err := ParseDuration(name, v); err != nil {
			return fmt.Errorf("config: %w", err)
		}
	}
	if _, err := cron.ParseStandard(cfg.InviteExpirySchedule); err != nil {
		return fmt.Errorf("config: invalid inviteExpirySchedule: %w", err)
	}
	if cfg.SessionSecret != "" && len(cfg.SessionSecret) < 32 {
		return errors.New("config: sessionSecret must be at least 32 bytes")
	}
	if (cfg.MinioEndpoint == "") != (cfg.MinioBucket == "") {
		return errors.New("config: minioEndpoint and minioBucket must be set together")
	}
	return nil
}

// ParseDuration parses an optional duration string; empty yields zero.
func ParseDuration(name, raw string) (time.Duration, error) {
	if raw == "" {
		return 0, nil
	}
	dur, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s duration: %w", name, err)
	}
	if dur < 0 {
		return 0, fmt.Errorf("invalid %s duration: must be >= 0", name)
	}
	return dur, nil
}

func (c FileConfig) ConnLifetime() time.Duration {
	d, _ := ParseDuration("connMaxLifetime", c.ConnMaxLifetime)
	return d
}

func (c FileConfig) InviteTTLDuration() time.Duration {
	d, _ := ParseDuration("inviteTTL", c.InviteTTL)
	return d
}

func (c FileConfig) SessionTTLDuration() time.Duration {
	d, _ := ParseDuration("sessionTTL", c.SessionTTL)
	return d
}

func (c FileConfig) DownloadURLTTLDuration() time.Duration {
	d, _ := ParseDuration("downloadURLTTL", c.DownloadURLTTL)
	return d
}
