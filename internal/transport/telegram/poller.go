package telegram

import (
	"context"
	"log/slog"
	"time"

	"kinobot/internal/bot"
)

// Handler is what the poller dispatches updates into.
type Handler interface {
	HandleMessage(ctx context.Context, msg bot.IncomingMessage)
	HandleCallback(ctx context.Context, cb bot.CallbackQuery)
}

// Poller drives the getUpdates long-poll loop and fans updates out to
// the handler, one goroutine per update so a slow conversion never
// stalls other chats.
type Poller struct {
	client  *Client
	handler Handler
	log     *slog.Logger
	timeout time.Duration
}

func NewPoller(client *Client, handler Handler, log *slog.Logger, timeout time.Duration) *Poller {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Poller{client: client, handler: handler, log: log, timeout: timeout}
}

// Run polls until ctx is canceled. Poll errors back off briefly so a
// flapping network does not spin the loop.
func (p *Poller) Run(ctx context.Context) error {
	var offset int64
	for {
		updates, err := p.client.GetUpdates(ctx, offset, p.timeout)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			p.log.Warn("poll failed", "error", err)
			select {
			case <-time.After(3 * time.Second):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		for _, update := range updates {
			if update.UpdateID >= offset {
				offset = update.UpdateID + 1
			}
			p.dispatch(ctx, update)
		}
	}
}

func (p *Poller) dispatch(ctx context.Context, update Update) {
	switch {
	case update.Message != nil:
		msg := bot.IncomingMessage{
			MessageID: update.Message.MessageID,
			ChatID:    update.Message.Chat.ID,
			UserID:    update.Message.From.ID,
			Username:  update.Message.From.Username,
			Text:      update.Message.Text,
		}
		go p.handler.HandleMessage(ctx, msg)

	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		cb := bot.CallbackQuery{
			ID:        update.CallbackQuery.ID,
			MessageID: update.CallbackQuery.Message.MessageID,
			ChatID:    update.CallbackQuery.Message.Chat.ID,
			UserID:    update.CallbackQuery.From.ID,
			Data:      update.CallbackQuery.Data,
		}
		go p.handler.HandleCallback(ctx, cb)
	}
}
