package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Credentials holds the secrets needed to deliver notifications.
type Credentials struct {
	MailgunAPIKey string
	MailgunDomain string
	From          string
	To            string

	// Telegram delivery is optional; both fields are set or neither is.
	TelegramBotToken string
	TelegramChatID   int64
}

// HasTelegram reports whether Telegram delivery is configured.
func (c *Credentials) HasTelegram() bool {
	return c.TelegramBotToken != "" && c.TelegramChatID != 0
}

// LoadCredentials reads a dotenv-style credentials file.
func LoadCredentials(path string) (*Credentials, error) {
	env, err := godotenv.Read(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNoConfigFile, path)
		}
		return nil, fmt.Errorf("%w: read credentials: %v", ErrInvalidConfig, err)
	}

	creds := &Credentials{
		MailgunAPIKey: strings.TrimSpace(env["MAILGUN_API_KEY"]),
		MailgunDomain: strings.TrimSpace(env["MAILGUN_DOMAIN"]),
		From:          strings.TrimSpace(env["MAIL_FROM"]),
		To:            strings.TrimSpace(env["MAIL_TO"]),
	}

	var missing []string
	for _, f := range []struct{ key, val string }{
		{"MAILGUN_API_KEY", creds.MailgunAPIKey},
		{"MAILGUN_DOMAIN", creds.MailgunDomain},
		{"MAIL_FROM", creds.From},
		{"MAIL_TO", creds.To},
	} {
		if f.val == "" {
			missing = append(missing, f.key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s missing from %s", ErrInvalidConfig, strings.Join(missing, ", "), path)
	}

	token := strings.TrimSpace(env["TELEGRAM_BOT_TOKEN"])
	chat := strings.TrimSpace(env["TELEGRAM_CHAT_ID"])
	if (token == "") != (chat == "") {
		return nil, fmt.Errorf("%w: TELEGRAM_BOT_TOKEN and TELEGRAM_CHAT_ID must be set together", ErrInvalidConfig)
	}
	if chat != "" {
		id, err := strconv.ParseInt(chat, 10, 64)
		if err != nil || id == 0 {
			return nil, fmt.Errorf("%w: invalid TELEGRAM_CHAT_ID %q", ErrInvalidConfig, chat)
		}
		creds.TelegramBotToken = token
		creds.TelegramChatID = id
	}

	return creds, nil
}
