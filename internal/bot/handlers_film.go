package bot

import (
	"context"
	"errors"

	"kinobot/internal/callback"
	"kinobot/internal/domain"
	"kinobot/internal/store"
)

// openFilmCard replaces a result list with the tapped title's card and
// remembers where to go back to.
func (r *Router) openFilmCard(ctx context.Context, cb CallbackQuery, v callback.FilmCard) {
	film, err := r.meta.FilmDetails(ctx, v.FilmID)
	if err != nil {
		r.logError("film details", err, cb.ChatID)
		r.answer(ctx, cb.ID, textInternalError)
		return
	}
	r.answer(ctx, cb.ID, "")

	if err := r.state.StoreBackToken(ctx, v.FilmID, v.Coll.BackToken(v.Page)); err != nil {
		r.logError("store back token", err, cb.UserID)
	}

	kb := filmCardKeyboard(v.FilmID, v.Coll, v.Page)
	r.sendFilmCard(ctx, cb.ChatID, cb.MessageID, film, kb)
}

// openFilmByID serves a raw numeric id typed into the chat.
func (r *Router) openFilmByID(ctx context.Context, chatID int64, filmID string) {
	film, err := r.meta.FilmDetails(ctx, filmID)
	if err != nil {
		r.logError("film details", err, chatID)
		r.send(ctx, chatID, textNothingFound, mainMenuKeyboard())
		return
	}
	kb := Keyboard{
		Row(Button{Text: "📥 Раздачи", Data: callback.TorrentPageToken(filmID, 1)}),
		Row(Button{Text: "🏠 Меню", Data: actionMainMenu}),
	}
	r.sendFilmCard(ctx, chatID, 0, film, kb)
}

// backToFilmCard restores the title card a torrent list was opened
// from. The stored snapshot replays the exact card; when it expired the
// card is rebuilt from the API, reusing the stored results token if one
// is still alive.
func (r *Router) backToFilmCard(ctx context.Context, cb CallbackQuery, filmID string) {
	snap, err := r.state.FilmSnapshot(ctx, filmID)
	if err == nil {
		r.answer(ctx, cb.ID, "")
		if err := r.transport.DeleteMessage(ctx, cb.ChatID, cb.MessageID); err != nil {
			r.logError("delete torrent list", err, cb.ChatID)
		}
		r.resendSnapshot(ctx, cb.ChatID, snap)
		return
	}
	if !errors.Is(err, store.ErrNotFound) {
		r.logError("load film snapshot", err, cb.UserID)
	}

	film, err := r.meta.FilmDetails(ctx, filmID)
	if err != nil {
		r.logError("film details", err, cb.ChatID)
		r.answer(ctx, cb.ID, textStale)
		return
	}
	r.answer(ctx, cb.ID, "")

	kb := Keyboard{Row(Button{Text: "📥 Раздачи", Data: callback.TorrentPageToken(filmID, 1)})}
	if back, err := r.state.BackToken(ctx, filmID); err == nil {
		kb = append(kb, Row(
			Button{Text: "⬅️ К результатам", Data: back},
			Button{Text: "🏠 Меню", Data: actionMainMenu},
		))
	} else {
		kb = append(kb, Row(Button{Text: "🏠 Меню", Data: actionMainMenu}))
	}
	r.sendFilmCard(ctx, cb.ChatID, cb.MessageID, film, kb)
}

func (r *Router) resendSnapshot(ctx context.Context, chatID int64, snap store.MessageSnapshot) {
	kb := make(Keyboard, 0, len(snap.Buttons))
	for _, row := range snap.Buttons {
		buttons := make([]Button, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, Button{Text: b.Text, Data: b.Data})
		}
		kb = append(kb, buttons)
	}

	if snap.PosterURL != "" {
		_, err := r.transport.SendPhoto(ctx, chatID, snap.PosterURL, snap.Text, kb)
		if err == nil {
			return
		}
		r.logError("send poster", err, chatID)
	}
	r.send(ctx, chatID, snap.Text, kb)
}

// sendFilmCard sends the card as a photo when a poster exists, plain
// text otherwise. replaceID is the list message being replaced; photo
// messages cannot be edited from text ones, so it is deleted instead.
func (r *Router) sendFilmCard(ctx context.Context, chatID, replaceID int64, film domain.Film, kb Keyboard) {
	caption := filmCaption(film)

	if err := r.storeSnapshot(ctx, film, caption, kb); err != nil {
		r.logError("store film snapshot", err, chatID)
	}

	if replaceID != 0 {
		if err := r.transport.DeleteMessage(ctx, chatID, replaceID); err != nil {
			r.logError("delete list message", err, chatID)
		}
	}

	if film.PosterURL != "" {
		_, err := r.transport.SendPhoto(ctx, chatID, film.PosterURL, caption, kb)
		if err == nil {
			return
		}
		r.logError("send poster", err, chatID)
	}
	r.send(ctx, chatID, caption, kb)
}

func (r *Router) storeSnapshot(ctx context.Context, film domain.Film, caption string, kb Keyboard) error {
	snap := store.MessageSnapshot{
		Text:      caption,
		PosterURL: film.PosterURL,
	}
	for _, row := range kb {
		var snapRow []store.SnapshotButton
		for _, b := range row {
			snapRow = append(snapRow, store.SnapshotButton{Text: b.Text, Data: b.Data})
		}
		snap.Buttons = append(snap.Buttons, snapRow)
	}
	return r.state.StoreFilmSnapshot(ctx, film.ID(), snap)
}
