package notifications

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramSender posts messages to a single Telegram chat.
type TelegramSender struct {
	bot     *tgbotapi.BotAPI
	chatID  int64
	botName string
}

// NewTelegramSender authenticates the bot token against the Telegram API.
func NewTelegramSender(token string, chatID int64, botName string) (*TelegramSender, error) {
	if token == "" || chatID == 0 {
		return nil, fmt.Errorf("telegram token and chat id are required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	if botName == "" {
		botName = DefaultBotName
	}
	return &TelegramSender{bot: bot, chatID: chatID, botName: botName}, nil
}

func (t *TelegramSender) Send(msg string) {
	if !t.Enabled() {
		return
	}
	m := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("%s: %s", t.botName, msg))
	m.DisableWebPagePreview = true

	if _, err := t.bot.Send(m); err != nil {
		fmt.Printf("[NOTIFY ERROR] telegram send: %v\n", err)
	}
}

func (t *TelegramSender) Enabled() bool {
	return t != nil && t.bot != nil
}
