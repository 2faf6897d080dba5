package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full service configuration. Values come from an optional
// YAML file and are overridden by environment variables, which is what
// container deployments use.
type Config struct {
	App struct {
		// dev | prod
		Env string `yaml:"env"`
	} `yaml:"app"`

	Server struct {
		Addr string `yaml:"addr"`
	} `yaml:"server"`

	Log struct {
		Level string `yaml:"level"`
	} `yaml:"log"`

	Storage struct {
		// Postgres DSN. Empty means the in-memory store, which is only
		// meant for local development.
		DSN string `yaml:"dsn"`
	} `yaml:"storage"`

	Redis struct {
		Addr   string `yaml:"addr"`
		DB     int    `yaml:"db"`
		Prefix string `yaml:"prefix"`
	} `yaml:"redis"`

	JWT struct {
		Secret string `yaml:"secret"`
	} `yaml:"jwt"`

	OTP struct {
		TTL string `yaml:"ttl"`
	} `yaml:"otp"`

	Session struct {
		TTL string `yaml:"ttl"`
	} `yaml:"session"`

	Rate struct {
		Enabled bool   `yaml:"enabled"`
		Limit   int    `yaml:"limit"`
		Window  string `yaml:"window"`
	} `yaml:"rate"`

	SMTP struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		From     string `yaml:"from"`
	} `yaml:"smtp"`

	Cloudinary struct {
		CloudName    string `yaml:"cloud_name"`
		UploadPreset string `yaml:"upload_preset"`
	} `yaml:"cloudinary"`
}

// Load reads the YAML file at path (skipped when path is empty or the file
// does not exist), applies defaults, then environment overrides.
func Load(path string) (*Config, error) {
	var c Config
	if path != "" {
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(b, &c); err != nil {
				return nil, err
			}
		case errors.Is(err, os.ErrNotExist):
			// fall through to defaults + env
		default:
			return nil, err
		}
	}

	// sane defaults
	if c.App.Env == "" {
		c.App.Env = "dev"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":9000"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.OTP.TTL == "" {
		c.OTP.TTL = "10m"
	}
	if c.Session.TTL == "" {
		c.Session.TTL = "24h"
	}
	if c.Rate.Limit == 0 {
		c.Rate.Limit = 5
	}
	if c.Rate.Window == "" {
		c.Rate.Window = "10m"
	}
	if c.Redis.Prefix == "" {
		c.Redis.Prefix = "schoolbook:"
	}

	c.applyEnvOverrides()

	for _, d := range []string{c.OTP.TTL, c.Session.TTL, c.Rate.Window} {
		if _, err := time.ParseDuration(d); err != nil {
			return nil, err
		}
	}
	if c.JWT.Secret == "" {
		return nil, errors.New("config: jwt secret is required")
	}
	return &c, nil
}

// OTPTTL returns the challenge lifetime.
func (c *Config) OTPTTL() time.Duration { return mustDuration(c.OTP.TTL) }

// SessionTTL returns the session lifetime.
func (c *Config) SessionTTL() time.Duration { return mustDuration(c.Session.TTL) }

// RateWindow returns the rate limiter window.
func (c *Config) RateWindow() time.Duration { return mustDuration(c.Rate.Window) }

// mustDuration is safe after Load has validated the string.
func mustDuration(s string) time.Duration {
	d, _ := time.ParseDuration(s)
	return d
}

func (c *Config) applyEnvOverrides() {
	if v, ok := getEnvStr("APP_ENV"); ok {
		c.App.Env = strings.ToLower(v)
	}
	if v, ok := getEnvStr("SERVER_ADDR"); ok {
		c.Server.Addr = v
	}
	if v, ok := getEnvStr("LOG_LEVEL"); ok {
		c.Log.Level = v
	}
	if v, ok := getEnvStr("STORAGE_DSN"); ok {
		c.Storage.DSN = v
	}
	if v, ok := getEnvStr("REDIS_ADDR"); ok {
		c.Redis.Addr = v
	}
	if v, ok := getEnvInt("REDIS_DB"); ok {
		c.Redis.DB = v
	}
	if v, ok := getEnvStr("REDIS_PREFIX"); ok {
		c.Redis.Prefix = v
	}
	if v, ok := getEnvStr("JWT_SECRET"); ok {
		c.JWT.Secret = v
	}
	if v, ok := getEnvStr("OTP_TTL"); ok {
		c.OTP.TTL = v
	}
	if v, ok := getEnvStr("SESSION_TTL"); ok {
		c.Session.TTL = v
	}
	if v, ok := getEnvBool("RATE_ENABLED"); ok {
		c.Rate.Enabled = v
	}
	if v, ok := getEnvInt("RATE_LIMIT"); ok {
		c.Rate.Limit = v
	}
	if v, ok := getEnvStr("RATE_WINDOW"); ok {
		c.Rate.Window = v
	}
	if v, ok := getEnvStr("SMTP_HOST"); ok {
		c.SMTP.Host = v
	}
	if v, ok := getEnvInt("SMTP_PORT"); ok {
		c.SMTP.Port = v
	}
	if v, ok := getEnvStr("SMTP_USERNAME"); ok {
		c.SMTP.Username = v
	}
	if v, ok := getEnvStr("SMTP_PASSWORD"); ok {
		c.SMTP.Password = v
	}
	if v, ok := getEnvStr("SMTP_FROM"); ok {
		c.SMTP.From = v
	}
	if v, ok := getEnvStr("CLOUDINARY_CLOUD_NAME"); ok {
		c.Cloudinary.CloudName = v
	}
	if v, ok := getEnvStr("CLOUDINARY_UPLOAD_PRESET"); ok {
		c.Cloudinary.UploadPreset = v
	}
}

func getEnvStr(key string) (string, bool) {
	v := os.Getenv(key)
	return v, v != ""
}

func getEnvInt(key string) (int, bool) {
	if s, ok := getEnvStr(key); ok {
		if i, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			return i, true
		}
	}
	return 0, false
}

func getEnvBool(key string) (bool, bool) {
	if s, ok := getEnvStr(key); ok {
		if b, err := strconv.ParseBool(strings.TrimSpace(s)); err == nil {
			return b, true
		}
	}
	return false, false
}
