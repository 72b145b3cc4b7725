package bot

import (
	"context"
	"errors"

	"kinobot/internal/store"
)

// showAbout sends the about card, removing the previous one so the
// chat does not accumulate copies.
func (r *Router) showAbout(ctx context.Context, chatID, userID int64) {
	if prevID, err := r.state.AboutMessageID(ctx, userID); err == nil {
		if err := r.transport.DeleteMessage(ctx, chatID, prevID); err != nil {
			r.logError("delete old about", err, chatID)
		}
	} else if !errors.Is(err, store.ErrNotFound) {
		r.logError("load about message id", err, userID)
	}

	messageID := r.send(ctx, chatID, textAbout, Keyboard{
		Row(Button{Text: "🏠 Меню", Data: actionMainMenu}),
	})
	if messageID != 0 {
		if err := r.state.StoreAboutMessageID(ctx, userID, messageID); err != nil {
			r.logError("store about message id", err, userID)
		}
	}
}
