package bot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"kinobot/internal/callback"
	"kinobot/internal/domain"
	"kinobot/internal/pagination"
	"kinobot/internal/store"
	"kinobot/internal/torrents"
)

// rankedForFilm loads the title and the user's filters concurrently,
// then queries the index and ranks the result. The ranked order is
// deterministic for fixed filters, which is what keeps the absolute
// indices in detail tokens stable across taps.
func (r *Router) rankedForFilm(ctx context.Context, userID int64, filmID string) (domain.Film, []torrents.Ranked, error) {
	var (
		film    domain.Film
		filters domain.TorrentFilters
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		film, err = r.meta.FilmDetails(gctx, filmID)
		return err
	})
	g.Go(func() error {
		var err error
		filters, err = r.state.TorrentFilters(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Film{}, nil, err
	}
	// Dead releases are noise; an explicit seeder pick overrides this.
	if filters.MinSeeders == 0 {
		filters.MinSeeders = 1
	}

	candidates, err := r.index.Search(ctx, film.DisplayName())
	if err != nil {
		return domain.Film{}, nil, err
	}
	if film.IsSeries() {
		candidates = torrents.SeriesOnly(candidates)
	}
	return film, torrents.Rank(candidates, filters), nil
}

func (r *Router) showTorrentPage(ctx context.Context, cb CallbackQuery, filmID string, page int) {
	film, ranked, err := r.rankedForFilm(ctx, cb.UserID, filmID)
	if err != nil {
		r.logError("torrent list", err, cb.ChatID)
		r.answer(ctx, cb.ID, textInternalError)
		return
	}
	r.answer(ctx, cb.ID, "")

	if len(ranked) == 0 {
		r.edit(ctx, cb.ChatID, cb.MessageID, textNoTorrents, Keyboard{
			Row(Button{Text: "🎚 Фильтры", Data: callback.TorrentFilterOpenToken(filmID)}),
			Row(Button{Text: "🏠 Меню", Data: actionMainMenu}),
		})
		return
	}

	totalPages := pagination.TotalPages(len(ranked), pagination.TorrentPageSize)
	if page > totalPages {
		page = totalPages
	}
	visible := pagination.Slice(ranked, page, pagination.TorrentPageSize)

	var b strings.Builder
	b.WriteString("📥 <b>Раздачи: " + film.DisplayName() + "</b>\n")
	b.WriteString("Найдено: " + strconv.Itoa(len(ranked)) + "\n")
	for i, t := range visible {
		idx := (page-1)*pagination.TorrentPageSize + i
		b.WriteString("\n" + torrentLine(idx+1, t) + "\n")
	}

	// The tap that opened the list may come from a photo card, whose
	// message cannot be edited into text. Replace it.
	if cb.MessageID != 0 {
		if err := r.transport.DeleteMessage(ctx, cb.ChatID, cb.MessageID); err != nil {
			r.logError("delete message", err, cb.ChatID)
		}
	}
	r.send(ctx, cb.ChatID, b.String(), torrentListKeyboard(filmID, visible, page, totalPages))
}

func (r *Router) showTorrentDetails(ctx context.Context, cb CallbackQuery, v callback.TorrentDetails) {
	_, ranked, err := r.rankedForFilm(ctx, cb.UserID, v.FilmID)
	if err != nil {
		r.logError("torrent details", err, cb.ChatID)
		r.answer(ctx, cb.ID, textInternalError)
		return
	}

	t, err := torrents.At(ranked, v.Index)
	if err != nil {
		// The filtered list changed since the keyboard was rendered.
		r.answer(ctx, cb.ID, textStale)
		return
	}
	r.answer(ctx, cb.ID, "")

	magnetHash := callback.ShortHash(t.Magnet, callback.MagnetHashLen)
	if err := r.state.StoreMagnet(ctx, magnetHash, t.Magnet); err != nil {
		r.logError("store magnet", err, cb.UserID)
		r.edit(ctx, cb.ChatID, cb.MessageID, textInternalError, nil)
		return
	}

	r.edit(ctx, cb.ChatID, cb.MessageID, torrentDetail(t), torrentDetailKeyboard(v.FilmID, magnetHash, v.Page))
}

func (r *Router) downloadTorrent(ctx context.Context, cb CallbackQuery, v callback.Download) {
	magnet, err := r.state.Magnet(ctx, v.MagnetHash)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.answer(ctx, cb.ID, textMagnetStale)
			return
		}
		r.logError("load magnet", err, cb.UserID)
		r.answer(ctx, cb.ID, textInternalError)
		return
	}
	r.answer(ctx, cb.ID, textConvertStarted)

	film, err := r.meta.FilmDetails(ctx, v.FilmID)
	name := "torrent"
	if err == nil {
		name = film.DisplayName()
	}

	path, err := r.conv.Convert(ctx, magnet, name)
	if err != nil {
		r.logError("convert magnet", err, cb.ChatID)
		r.send(ctx, cb.ChatID, textConvertFailed, nil)
		return
	}
	defer r.conv.Cleanup(path)

	file, err := os.Open(path)
	if err != nil {
		r.logError("open torrent file", err, cb.ChatID)
		r.send(ctx, cb.ChatID, textInternalError, nil)
		return
	}
	defer file.Close()

	kb := Keyboard{Row(Button{Text: "⬅️ К раздачам", Data: callback.BackToTorrentToken(v.FilmID, v.MagnetHash)})}
	if _, err := r.transport.SendDocument(ctx, cb.ChatID, filepath.Base(path), file, "📎 "+name, kb); err != nil {
		r.logError("send document", err, cb.ChatID)
		r.send(ctx, cb.ChatID, textInternalError, nil)
	}
}

func (r *Router) openTorrentFilters(ctx context.Context, cb CallbackQuery, filmID string) {
	filters, err := r.state.TorrentFilters(ctx, cb.UserID)
	if err != nil {
		r.logError("load torrent filters", err, cb.UserID)
		r.answer(ctx, cb.ID, textInternalError)
		return
	}
	r.answer(ctx, cb.ID, "")
	r.edit(ctx, cb.ChatID, cb.MessageID, "🎚 <b>Фильтры раздач</b>", torrentFiltersKeyboard(filmID, filters))
}

func (r *Router) pickTorrentFilter(ctx context.Context, cb CallbackQuery, v callback.TorrentFilterPick) {
	filters, err := r.state.TorrentFilters(ctx, cb.UserID)
	if err != nil {
		r.logError("load torrent filters", err, cb.UserID)
		r.answer(ctx, cb.ID, textInternalError)
		return
	}

	switch v.Field {
	case "seeders":
		if n, err := strconv.Atoi(v.Value); err == nil {
			if filters.MinSeeders == n {
				filters.MinSeeders = 0
			} else {
				filters.MinSeeders = n
			}
		}
	case "quality":
		if filters.MinQuality == v.Value {
			filters.MinQuality = ""
		} else {
			filters.MinQuality = v.Value
		}
	case "voice":
		if i, err := strconv.Atoi(v.Value); err == nil && i >= 0 && i < len(voiceOptions) {
			if filters.Voice == voiceOptions[i] {
				filters.Voice = ""
			} else {
				filters.Voice = voiceOptions[i]
			}
		}
	case "sort":
		filters.SortBySize = v.Value == "size"
		filters.SortByDate = v.Value == "date"
	}

	if err := r.state.SaveTorrentFilters(ctx, cb.UserID, filters); err != nil {
		r.logError("save torrent filters", err, cb.UserID)
		r.answer(ctx, cb.ID, textInternalError)
		return
	}
	r.answer(ctx, cb.ID, "")
	r.edit(ctx, cb.ChatID, cb.MessageID, "🎚 <b>Фильтры раздач</b>", torrentFiltersKeyboard(v.FilmID, filters))
}

func (r *Router) resetTorrentFilters(ctx context.Context, cb CallbackQuery, filmID string) {
	if err := r.state.ClearTorrentFilters(ctx, cb.UserID); err != nil {
		r.logError("clear torrent filters", err, cb.UserID)
	}
	r.answer(ctx, cb.ID, "")
	r.edit(ctx, cb.ChatID, cb.MessageID, "🎚 <b>Фильтры раздач</b>", torrentFiltersKeyboard(filmID, domain.TorrentFilters{}))
}
