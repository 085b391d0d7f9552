package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config holds application configuration.
type Config struct {
	Backend BackendConfig
	Journal JournalConfig
	Log     LogConfig
	UI      UIConfig
	Metrics MetricsConfig
}

// BackendConfig describes the products endpoint.
type BackendConfig struct {
	URL     string
	Origin  string
	Timeout time.Duration
}

// JournalConfig holds sqlite settings for the activity journal.
type JournalConfig struct {
	Path string
}

// LogConfig controls the log file.
type LogConfig struct {
	Path  string
	Level string
}

// UIConfig holds presentation settings.
type UIConfig struct {
	DateFormat string `mapstructure:"date_format"`
	Timezone   string
	ToastTTL   time.Duration `mapstructure:"toast_ttl"`
}

// MetricsConfig enables the prometheus listener when Addr is set.
type MetricsConfig struct {
	Addr string
}

const (
	DefaultBackendURL = "https://avios-api.herokuapp.com"
	DefaultOrigin     = "test-client"
	DefaultDateFormat = "January 2, 2006 3:04 PM"
)

// Load reads configuration from file and env. Env var overrides use prefix PRODUCTDESK_.
// An explicit path takes precedence over PRODUCTDESK_CONFIG.
func Load(path string) (Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigType("toml")
	if path == "" {
		path = os.Getenv("PRODUCTDESK_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.AddConfigPath(filepath.Join(homeDir(), ".config", "productdesk"))
		v.SetConfigName("config")
	}

	v.SetEnvPrefix("PRODUCTDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	return c, nil
}

func setDefaults(v *viper.Viper) {
	home := homeDir()
	v.SetDefault("backend.url", DefaultBackendURL)
	v.SetDefault("backend.origin", DefaultOrigin)
	v.SetDefault("backend.timeout", "0s")
	v.SetDefault("journal.path", filepath.Join(home, ".local", "share", "productdesk", "journal.db"))
	v.SetDefault("log.path", filepath.Join(home, ".local", "state", "productdesk", "productdesk.log"))
	v.SetDefault("log.level", "info")
	v.SetDefault("ui.date_format", DefaultDateFormat)
	v.SetDefault("ui.timezone", "Local")
	v.SetDefault("ui.toast_ttl", "4s")
	v.SetDefault("metrics.addr", "")
}

// Validate reports the first setting that cannot be used.
func (c Config) Validate() error {
	if err := ValidateURL(c.Backend.URL); err != nil {
		return err
	}
	if c.Backend.Timeout < 0 {
		return fmt.Errorf("%w: backend.timeout must not be negative", ErrInvalid)
	}
	if c.UI.ToastTTL < 0 {
		return fmt.Errorf("%w: ui.toast_ttl must not be negative", ErrInvalid)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: log.level %q", ErrInvalid, c.Log.Level)
	}
	return nil
}

// ValidateURL checks that raw is an absolute http(s) URL.
func ValidateURL(raw string) error {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("%w: backend.url %q must be an http(s) url", ErrInvalid, raw)
	}
	return nil
}

// Location resolves UI.Timezone, falling back to the local zone.
func (c Config) Location() (*time.Location, error) {
	name := strings.TrimSpace(c.UI.Timezone)
	if name == "" || strings.EqualFold(name, "local") {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.Local, fmt.Errorf("load timezone %q: %w", name, err)
	}
	return loc, nil
}

// Save writes the provided config to disk, creating the config directory if needed.
// The TUI uses it when the backend URL is changed at runtime.
func Save(cfg Config) error {
	path := os.Getenv("PRODUCTDESK_CONFIG")
	if path == "" {
		path = filepath.Join(homeDir(), ".config", "productdesk", "config.toml")
	}
	return SaveAs(cfg, path)
}

// SaveAs writes cfg to an explicit path.
func SaveAs(cfg Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir config dir: %w", err)
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.Set("backend.url", cfg.Backend.URL)
	v.Set("backend.origin", cfg.Backend.Origin)
	v.Set("backend.timeout", cfg.Backend.Timeout.String())
	v.Set("journal.path", cfg.Journal.Path)
	v.Set("log.path", cfg.Log.Path)
	v.Set("log.level", cfg.Log.Level)
	v.Set("ui.date_format", cfg.UI.DateFormat)
	v.Set("ui.timezone", cfg.UI.Timezone)
	v.Set("ui.toast_ttl", cfg.UI.ToastTTL.String())
	v.Set("metrics.addr", cfg.Metrics.Addr)

	if err := v.WriteConfigAs(path); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

func homeDir() string {
	if h, err := os.UserHomeDir(); err == nil {
		return h
	}
	return os.Getenv("HOME")
}
