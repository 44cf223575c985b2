package telegram

import (
	"context"
	"strconv"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/ykvlv/weather-digest-bot/internal/conversation"
)

// botAPI is the subset of *tgbotapi.BotAPI this package calls.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Handler consumes inbound text; conversation.Engine implements it.
type Handler interface {
	Handle(ctx context.Context, userID, text string, reply conversation.Replier)
}

// Router wires Telegram updates to the conversation handler.
// A user id is the chat id in decimal.
type Router struct {
	bot     botAPI
	log     *zap.Logger
	handler Handler

	qmu     sync.Mutex
	queues  map[int64][]tgbotapi.Update
	workers sync.WaitGroup
}

// NewRouter creates a new Telegram router.
func NewRouter(bot botAPI, log *zap.Logger, handler Handler) *Router {
	return &Router{
		bot:     bot,
		log:     log,
		handler: handler,
		queues:  make(map[int64][]tgbotapi.Update),
	}
}

// HandleUpdate routes a single update to the handler and returns once it has
// been handled.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	// Text messages
	if upd.Message != nil {
		msg := upd.Message
		if msg.Chat == nil || msg.Text == "" {
			return
		}
		reply := newReply(r.bot, msg.Chat.ID, msg.MessageID)
		r.handler.Handle(ctx, userID(msg.Chat.ID), msg.Text, reply)
		return
	}

	// Callback queries (inline buttons)
	if upd.CallbackQuery != nil {
		cb := upd.CallbackQuery
		if err := r.answerCallback(cb.ID); err != nil {
			r.log.Debug("answer callback failed", zap.Error(err))
		}
		if cb.Message == nil || cb.Message.Chat == nil {
			return
		}
		value, ok := strings.CutPrefix(cb.Data, choicePrefix)
		if !ok {
			// Unknown callback, ignore silently
			return
		}
		reply := newReply(r.bot, cb.Message.Chat.ID, cb.Message.MessageID)
		r.handler.Handle(ctx, userID(cb.Message.Chat.ID), value, reply)
	}
}

func (r *Router) answerCallback(id string) error {
	_, err := r.bot.Request(tgbotapi.NewCallback(id, ""))
	return err
}

func userID(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}
