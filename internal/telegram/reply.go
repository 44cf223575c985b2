package telegram

import (
	"context"
	"errors"
	"sync/atomic"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ykvlv/weather-digest-bot/internal/conversation"
)

// ErrReplyUsed is returned when a reply handle is used a second time.
var ErrReplyUsed = errors.New("telegram: reply handle already used")

// reply answers one inbound message, once.
type reply struct {
	bot     botAPI
	chatID  int64
	replyTo int
	used    atomic.Bool
}

var _ conversation.ChoiceReplier = (*reply)(nil)

func newReply(bot botAPI, chatID int64, replyTo int) *reply {
	return &reply{bot: bot, chatID: chatID, replyTo: replyTo}
}

func (h *reply) Reply(_ context.Context, text string) error {
	return h.send(text, mainMenuKeyboard())
}

func (h *reply) ReplyWithChoices(_ context.Context, text string, choices []conversation.Choice) error {
	return h.send(text, choicesKeyboard(choices))
}

func (h *reply) send(text string, markup any) error {
	if !h.used.CompareAndSwap(false, true) {
		return ErrReplyUsed
	}
	msg := tgbotapi.NewMessage(h.chatID, text)
	msg.ReplyToMessageID = h.replyTo
	msg.ReplyMarkup = markup
	_, err := h.bot.Send(msg)
	return err
}
