// Package config loads the blog configuration with viper from an optional
// YAML file and BLOG_ prefixed environment variables, e.g.
// BLOG_SERVER_ADDR or BLOG_STORAGE_DRIVER.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "BLOG"

// ConfigFileEnv names a config file when --config is not given.
const ConfigFileEnv = "BLOG_CONFIG_FILE"

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Storage StorageConfig `mapstructure:"storage"`
	Search  SearchConfig  `mapstructure:"search"`
	Blog    BlogConfig    `mapstructure:"blog"`
	Mail    MailConfig    `mapstructure:"mail"`
	Log     LogConfig     `mapstructure:"log"`
}

type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	BaseURL         string        `mapstructure:"base_url"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	// Driver is "badger" or "postgres".
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	DSN    string `mapstructure:"dsn"`
}

type SearchConfig struct {
	// Path of an on-disk bleve index; empty keeps the index in memory.
	// Unused with the postgres driver, which searches in the database.
	Path string `mapstructure:"path"`
}

type BlogConfig struct {
	PageSize int    `mapstructure:"page_size"`
	Timezone string `mapstructure:"timezone"`
}

type MailConfig struct {
	// Backend is "smtp" or "memory".
	Backend  string `mapstructure:"backend"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	From     string `mapstructure:"from"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// SetDefaults registers every key with its default value. Keys must be
// known to viper for environment overrides to reach Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("storage.driver", "badger")
	v.SetDefault("storage.path", "data/badger")
	v.SetDefault("storage.dsn", "")
	v.SetDefault("search.path", "")
	v.SetDefault("blog.page_size", 3)
	v.SetDefault("blog.timezone", "UTC")
	v.SetDefault("mail.backend", "memory")
	v.SetDefault("mail.host", "localhost")
	v.SetDefault("mail.port", 587)
	v.SetDefault("mail.username", "")
	v.SetDefault("mail.password", "")
	v.SetDefault("mail.from", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// New returns a viper instance with defaults and environment binding. A
// non-empty cfgFile (or BLOG_CONFIG_FILE) is read; otherwise blog.yaml in
// the working directory is used if present.
func New(cfgFile string) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	if cfgFile == "" {
		cfgFile = os.Getenv(ConfigFileEnv)
	}
	explicit := cfgFile != ""
	if explicit {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName("blog")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}
	return v, nil
}

// Load decodes and validates the configuration held by v.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks values that would otherwise fail later at runtime.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if u, err := url.Parse(c.Server.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("server.base_url %q must be an absolute URL", c.Server.BaseURL))
	}

	switch c.Storage.Driver {
	case "badger":
	case "postgres":
		if c.Storage.DSN == "" {
			errs = append(errs, errors.New("storage.dsn is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("storage.driver %q must be badger or postgres", c.Storage.Driver))
	}

	if c.Blog.PageSize < 1 {
		errs = append(errs, fmt.Errorf("blog.page_size must be positive, got %d", c.Blog.PageSize))
	}
	if _, err := time.LoadLocation(c.Blog.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("blog.timezone: %w", err))
	}

	switch c.Mail.Backend {
	case "memory":
	case "smtp":
		if c.Mail.Host == "" {
			errs = append(errs, errors.New("mail.host is required for the smtp backend"))
		}
		if c.Mail.Port < 1 || c.Mail.Port > 65535 {
			errs = append(errs, fmt.Errorf("mail.port %d is out of range", c.Mail.Port))
		}
	default:
		errs = append(errs, fmt.Errorf("mail.backend %q must be smtp or memory", c.Mail.Backend))
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if c.Log.Format != "text" && c.Log.Format != "json" {
		errs = append(errs, fmt.Errorf("log.format %q must be text or json", c.Log.Format))
	}

	return errors.Join(errs...)
}

// Location returns the configured time zone.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Blog.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Logger builds the application logger described by the log section.
func (c *Config) Logger(w *os.File) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
