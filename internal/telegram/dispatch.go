package telegram

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Dispatch queues the update behind earlier updates from the same chat and
// returns without waiting. Each chat with pending updates has one worker
// goroutine, so one chat's messages keep their order while a slow chat never
// holds up the others.
func (r *Router) Dispatch(ctx context.Context, upd tgbotapi.Update) {
	chatID, ok := updateChat(upd)
	if !ok {
		// Nothing to order against; at most a callback to acknowledge.
		r.HandleUpdate(ctx, upd)
		return
	}

	r.qmu.Lock()
	defer r.qmu.Unlock()
	pending, busy := r.queues[chatID]
	r.queues[chatID] = append(pending, upd)
	if busy {
		return
	}
	r.workers.Add(1)
	go r.drain(ctx, chatID)
}

// Wait blocks until every queued update has been handled.
func (r *Router) Wait() {
	r.workers.Wait()
}

func (r *Router) drain(ctx context.Context, chatID int64) {
	defer r.workers.Done()
	for {
		r.qmu.Lock()
		pending := r.queues[chatID]
		if len(pending) == 0 {
			delete(r.queues, chatID)
			r.qmu.Unlock()
			return
		}
		upd := pending[0]
		r.queues[chatID] = pending[1:]
		r.qmu.Unlock()

		r.HandleUpdate(ctx, upd)
	}
}

func updateChat(upd tgbotapi.Update) (int64, bool) {
	switch {
	case upd.Message != nil && upd.Message.Chat != nil:
		return upd.Message.Chat.ID, true
	case upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil && upd.CallbackQuery.Message.Chat != nil:
		return upd.CallbackQuery.Message.Chat.ID, true
	default:
		return 0, false
	}
}
