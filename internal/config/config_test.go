package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, name, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"COMICS_FEED_URL", "DATABASE_PATH", "LOG_LEVEL"} {
		t.Setenv(key, "")
	}
}

func TestLoad(t *testing.T) {
	withDefaults := func(mod func(*Config)) *Config {
		cfg := Default()
		mod(&cfg)
		if cfg.LockPath == "" {
			cfg.LockPath = cfg.DatabasePath + ".lock"
		}
		return &cfg
	}

	tests := []struct {
		name    string
		file    string
		env     map[string]string
		want    *Config
		wantErr error
	}{
		{
			name: "empty file keeps defaults",
			file: "",
			want: withDefaults(func(*Config) {}),
		},
		{
			name: "all values set",
			file: `
feed_url = "https://feeds.example.com/comics"
database_path = "/var/lib/comics/state.db"
lock_path = "/run/comics.lock"
watchlist_path = "/etc/comics/watchlist.txt"
credentials_path = "/etc/comics/credentials.env"
log_level = "debug"
mailgun_base_url = "https://api.eu.mailgun.net/v3"
request_timeout_seconds = 5

[behavior]
collapse_variants = false
mail_on_error = false
debug = true
`,
			want: &Config{
				FeedURL:               "https://feeds.example.com/comics",
				DatabasePath:          "/var/lib/comics/state.db",
				LockPath:              "/run/comics.lock",
				WatchlistPath:         "/etc/comics/watchlist.txt",
				CredentialsPath:       "/etc/comics/credentials.env",
				LogLevel:              "debug",
				MailgunBaseURL:        "https://api.eu.mailgun.net/v3",
				RequestTimeoutSeconds: 5,
				Behavior:              Behavior{Debug: true},
			},
		},
		{
			name: "lock path follows database path",
			file: `database_path = "/tmp/c.db"`,
			want: withDefaults(func(c *Config) { c.DatabasePath = "/tmp/c.db" }),
		},
		{
			name: "environment overrides file",
			file: `log_level = "warn"`,
			env: map[string]string{
				"COMICS_FEED_URL": "https://override.example.com/rss",
				"DATABASE_PATH":   "/tmp/env.db",
				"LOG_LEVEL":       "error",
			},
			want: withDefaults(func(c *Config) {
				c.FeedURL = "https://override.example.com/rss"
				c.DatabasePath = "/tmp/env.db"
				c.LogLevel = "error"
			}),
		},
		{
			name:    "unknown key",
			file:    `feed = "https://example.com"`,
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "bad toml",
			file:    `feed_url = `,
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "feed url without scheme",
			file:    `feed_url = "feeds.example.com/rss"`,
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "unknown log level",
			file:    `log_level = "verbose"`,
			wantErr: ErrInvalidConfig,
		},
		{
			name:    "zero timeout",
			file:    `request_timeout_seconds = 0`,
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			got, err := Load(writeFile(t, "comics_mailer.toml", tt.file))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Load() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, ErrNoConfigFile) {
		t.Fatalf("expected ErrNoConfigFile, got %v", err)
	}
}

func TestLoadWithoutPath(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	t.Cleanup(func() { _ = os.Chdir(wd) })

	got, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff("./data/comics.db.lock", got.LockPath); diff != "" {
		t.Errorf("lock path mismatch (-want +got):\n%s", diff)
	}

	if err := os.WriteFile(DefaultSettingsFile, []byte(`log_level = "warn"`), 0o600); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	got, err = Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if diff := cmp.Diff("warn", got.LogLevel); diff != "" {
		t.Errorf("log level mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadCredentials(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		want    *Credentials
		wantErr error
	}{
		{
			name: "mailgun only",
			file: `MAILGUN_API_KEY=key-123
MAILGUN_DOMAIN=mg.example.com
MAIL_FROM="Comics <comics@mg.example.com>"
MAIL_TO=reader@example.com
`,
			want: &Credentials{
				MailgunAPIKey: "key-123",
				MailgunDomain: "mg.example.com",
				From:          "Comics <comics@mg.example.com>",
				To:            "reader@example.com",
			},
		},
		{
			name: "with telegram",
			file: `MAILGUN_API_KEY=key-123
MAILGUN_DOMAIN=mg.example.com
MAIL_FROM=comics@mg.example.com
MAIL_TO=reader@example.com
TELEGRAM_BOT_TOKEN=123:abc
TELEGRAM_CHAT_ID=-1001
`,
			want: &Credentials{
				MailgunAPIKey:    "key-123",
				MailgunDomain:    "mg.example.com",
				From:             "comics@mg.example.com",
				To:               "reader@example.com",
				TelegramBotToken: "123:abc",
				TelegramChatID:   -1001,
			},
		},
		{
			name: "missing field",
			file: `MAILGUN_API_KEY=key-123
MAILGUN_DOMAIN=mg.example.com
MAIL_FROM=comics@mg.example.com
`,
			wantErr: ErrInvalidConfig,
		},
		{
			name: "blank field",
			file: `MAILGUN_API_KEY=
MAILGUN_DOMAIN=mg.example.com
MAIL_FROM=comics@mg.example.com
MAIL_TO=reader@example.com
`,
			wantErr: ErrInvalidConfig,
		},
		{
			name: "telegram token without chat",
			file: `MAILGUN_API_KEY=key-123
MAILGUN_DOMAIN=mg.example.com
MAIL_FROM=comics@mg.example.com
MAIL_TO=reader@example.com
TELEGRAM_BOT_TOKEN=123:abc
`,
			wantErr: ErrInvalidConfig,
		},
		{
			name: "telegram chat not a number",
			file: `MAILGUN_API_KEY=key-123
MAILGUN_DOMAIN=mg.example.com
MAIL_FROM=comics@mg.example.com
MAIL_TO=reader@example.com
TELEGRAM_BOT_TOKEN=123:abc
TELEGRAM_CHAT_ID=me
`,
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadCredentials(writeFile(t, "credentials.env", tt.file))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("LoadCredentials() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCredentials(filepath.Join(t.TempDir(), "credentials.env"))
		if !errors.Is(err, ErrNoConfigFile) {
			t.Fatalf("expected ErrNoConfigFile, got %v", err)
		}
	})
}

func TestLoadWatchlist(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		want    []string
		wantErr bool
	}{
		{
			name: "patterns in file order",
			file: "X-Men\nBatman\n",
			want: []string{"X-Men", "Batman"},
		},
		{
			name: "blank and comment lines skipped",
			file: "# DC\nBatman\n\n   \n# Marvel\n  X-Men  \n",
			want: []string{"Batman", "X-Men"},
		},
		{
			name:    "only comments",
			file:    "# nothing yet\n\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := LoadWatchlist(writeFile(t, "watchlist.txt", tt.file))
			if tt.wantErr {
				if !errors.Is(err, ErrNoWatchlist) {
					t.Fatalf("expected ErrNoWatchlist, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("LoadWatchlist() mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadWatchlist(filepath.Join(t.TempDir(), "watchlist.txt"))
		if !errors.Is(err, ErrNoWatchlist) {
			t.Fatalf("expected ErrNoWatchlist, got %v", err)
		}
	})
}
