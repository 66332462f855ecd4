package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Telegram messages are capped by the Bot API.
const telegramMaxRunes = 4096

type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram sends messages to a single chat through the Telegram Bot API.
type Telegram struct {
	api    telegramAPI
	chatID int64
}

// NewTelegram creates a Telegram channel. The bot token is verified against
// the API before the channel is returned.
func NewTelegram(token string, chatID int64, client HTTPClient) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPIWithClient(token, tgbotapi.APIEndpoint, client)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	return &Telegram{api: api, chatID: chatID}, nil
}

// Name implements Channel.
func (t *Telegram) Name() string { return "telegram" }

// Send posts the subject and body as one text message.
func (t *Telegram) Send(_ context.Context, msg Message) error {
	text := []rune(msg.Subject + "\n\n" + msg.Body)
	if len(text) > telegramMaxRunes {
		text = append(text[:telegramMaxRunes-1], '…')
	}

	m := tgbotapi.NewMessage(t.chatID, string(text))
	m.DisableWebPagePreview = true
	if _, err := t.api.Send(m); err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	return nil
}
