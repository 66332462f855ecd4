// Package config handles application settings, credentials and the watchlist.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Configuration errors. ErrNoConfigFile and ErrInvalidConfig are fatal before
// any feed is fetched.
var (
	ErrNoConfigFile  = errors.New("configuration file not found")
	ErrInvalidConfig = errors.New("invalid configuration")
	ErrNoWatchlist   = errors.New("watchlist not found")
)

// DefaultSettingsFile is looked up in the working directory when no settings
// path is given.
const DefaultSettingsFile = "comics_mailer.toml"

// Config holds the application configuration.
type Config struct {
	FeedURL               string   `toml:"feed_url"`
	DatabasePath          string   `toml:"database_path"`
	LockPath              string   `toml:"lock_path"`
	WatchlistPath         string   `toml:"watchlist_path"`
	CredentialsPath       string   `toml:"credentials_path"`
	LogLevel              string   `toml:"log_level"`
	MailgunBaseURL        string   `toml:"mailgun_base_url"`
	RequestTimeoutSeconds int      `toml:"request_timeout_seconds"`
	Behavior              Behavior `toml:"behavior"`
}

// Behavior toggles how a check run behaves.
type Behavior struct {
	// CollapseVariants reports every issue once regardless of cover variants.
	CollapseVariants bool `toml:"collapse_variants"`
	// MailOnError sends an error notification when a run fails.
	MailOnError bool `toml:"mail_on_error"`
	// Debug runs the whole pipeline without sending mail or moving the
	// checkpoint.
	Debug bool `toml:"debug"`
}

// Default returns the configuration used when no settings file exists.
func Default() Config {
	return Config{
		FeedURL:               "http://feeds.feedburner.com/ncrl",
		DatabasePath:          "./data/comics.db",
		WatchlistPath:         "./watchlist.txt",
		CredentialsPath:       "./credentials.env",
		LogLevel:              "info",
		MailgunBaseURL:        "https://api.mailgun.net/v3",
		RequestTimeoutSeconds: 30,
		Behavior: Behavior{
			CollapseVariants: true,
			MailOnError:      true,
		},
	}
}

// Load reads the settings file at path, applies environment overrides and
// validates the result. An empty path falls back to DefaultSettingsFile when
// it exists and to the defaults otherwise.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolved, err := resolvePath(path)
	if err != nil {
		return nil, err
	}
	if resolved != "" {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, err
		}
	}

	applyEnv(&cfg)

	if cfg.LockPath == "" {
		cfg.LockPath = cfg.DatabasePath + ".lock"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolvePath(path string) (string, error) {
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return "", fmt.Errorf("%w: %s", ErrNoConfigFile, path)
			}
			return "", fmt.Errorf("stat config: %w", err)
		}
		return path, nil
	}

	if info, err := os.Stat(DefaultSettingsFile); err == nil && !info.IsDir() {
		return DefaultSettingsFile, nil
	}
	return "", nil
}

func decodeFile(path string, cfg *Config) error {
	file, err := os.Open(path) //nolint:gosec // path comes from the operator
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	defer func() { _ = file.Close() }()

	decoder := toml.NewDecoder(file).DisallowUnknownFields()
	if err := decoder.Decode(cfg); err != nil {
		return fmt.Errorf("%w: parse %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("COMICS_FEED_URL"); v != "" {
		cfg.FeedURL = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		cfg.DatabasePath = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}
}

// Validate checks that every setting holds a usable value.
func (c *Config) Validate() error {
	if err := validateURL("feed_url", c.FeedURL); err != nil {
		return err
	}
	if err := validateURL("mailgun_base_url", c.MailgunBaseURL); err != nil {
		return err
	}

	for name, v := range map[string]string{
		"database_path":    c.DatabasePath,
		"lock_path":        c.LockPath,
		"watchlist_path":   c.WatchlistPath,
		"credentials_path": c.CredentialsPath,
	} {
		if strings.TrimSpace(v) == "" {
			return fmt.Errorf("%w: %s must not be empty", ErrInvalidConfig, name)
		}
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("%w: unknown log_level %q", ErrInvalidConfig, c.LogLevel)
	}

	if c.RequestTimeoutSeconds <= 0 {
		return fmt.Errorf("%w: request_timeout_seconds must be positive", ErrInvalidConfig)
	}
	return nil
}

// RequestTimeout returns the timeout applied to each outbound request.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

func validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%w: %s %q is not an http(s) URL", ErrInvalidConfig, name, raw)
	}
	return nil
}
