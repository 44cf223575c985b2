package telegram

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Pusher sends unsolicited messages. It satisfies digest.Pusher.
type Pusher struct {
	bot botAPI
}

func NewPusher(bot botAPI) *Pusher {
	return &Pusher{bot: bot}
}

// Push sends text to the chat whose decimal id is userID.
func (p *Pusher) Push(_ context.Context, userID, text string) error {
	chatID, err := strconv.ParseInt(userID, 10, 64)
	if err != nil {
		return fmt.Errorf("telegram: bad user id %q: %w", userID, err)
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainMenuKeyboard()
	if _, err := p.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram: push to %d: %w", chatID, err)
	}
	return nil
}
