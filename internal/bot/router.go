package bot

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"kinobot/internal/callback"
	"kinobot/internal/domain"
	"kinobot/internal/metrics"
	"kinobot/internal/providers/kinopoisk"
	"kinobot/internal/store"
	"kinobot/internal/torrents"
)

// MetadataAPI is the movie metadata surface the router needs.
type MetadataAPI interface {
	SearchFilms(ctx context.Context, query string, filters domain.SearchFilters, page int) (domain.SearchPage, error)
	Collection(ctx context.Context, apiType string, page int) (domain.SearchPage, error)
	FilmDetails(ctx context.Context, filmID string) (domain.Film, error)
	Filters(ctx context.Context) (kinopoisk.Dictionaries, error)
}

// TorrentIndex finds release candidates by title.
type TorrentIndex interface {
	Search(ctx context.Context, title string) ([]torrents.Candidate, error)
}

// MagnetConverter turns a magnet link into a .torrent file on disk.
type MagnetConverter interface {
	Convert(ctx context.Context, magnet, name string) (string, error)
	Cleanup(path string)
}

type Router struct {
	transport Transport
	state     *store.SearchState
	meta      MetadataAPI
	index     TorrentIndex
	conv      MagnetConverter
	log       *slog.Logger

	admins     map[int64]struct{}
	spamLimit  int
	spamWindow time.Duration
	now        func() time.Time
}

type Deps struct {
	Transport Transport
	State     *store.SearchState
	Metadata  MetadataAPI
	Index     TorrentIndex
	Converter MagnetConverter
	Logger    *slog.Logger
}

type Option func(*Router)

// WithAdmins restricts the bot to the listed user ids. An empty list
// keeps the bot public.
func WithAdmins(ids []int64) Option {
	return func(r *Router) {
		if len(ids) == 0 {
			return
		}
		r.admins = make(map[int64]struct{}, len(ids))
		for _, id := range ids {
			r.admins[id] = struct{}{}
		}
	}
}

func WithSpamLimit(limit int, window time.Duration) Option {
	return func(r *Router) {
		if limit > 0 {
			r.spamLimit = limit
		}
		if window > 0 {
			r.spamWindow = window
		}
	}
}

// WithClock replaces the time source. Test helper.
func WithClock(now func() time.Time) Option {
	return func(r *Router) { r.now = now }
}

func NewRouter(deps Deps, opts ...Option) *Router {
	r := &Router{
		transport:  deps.Transport,
		state:      deps.State,
		meta:       deps.Metadata,
		index:      deps.Index,
		conv:       deps.Converter,
		log:        deps.Logger,
		spamLimit:  110,
		spamWindow: 3 * time.Second,
		now:        time.Now,
	}
	if r.log == nil {
		r.log = slog.Default()
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// HandleMessage processes one text message.
func (r *Router) HandleMessage(ctx context.Context, msg IncomingMessage) {
	started := r.now()
	outcome := r.handleMessage(ctx, msg)
	metrics.UpdatesTotal.WithLabelValues("message", outcome).Inc()
	metrics.UpdateDuration.WithLabelValues("message").Observe(time.Since(started).Seconds())
}

func (r *Router) handleMessage(ctx context.Context, msg IncomingMessage) string {
	if !r.allowed(msg.UserID) {
		r.send(ctx, msg.ChatID, textAccessDenied, nil)
		return "denied"
	}
	if r.blockedBySpam(ctx, msg.UserID) {
		return "blocked"
	}

	switch msg.Text {
	case "/start", "/menu":
		r.send(ctx, msg.ChatID, textMainMenu, mainMenuKeyboard())
		return "ok"
	case "/about":
		r.showAbout(ctx, msg.ChatID, msg.UserID)
		return "ok"
	}

	mode, err := r.state.PendingInput(ctx, msg.UserID)
	if err != nil {
		r.logError("pending input", err, msg.UserID)
	}

	switch mode {
	case store.PendingAdvancedQuery:
		r.handleAdvancedQueryInput(ctx, msg)
	default:
		// Free text means a basic search whether or not it was asked for.
		r.handleSearchInput(ctx, msg)
	}
	return "ok"
}

// HandleCallback processes one button tap.
func (r *Router) HandleCallback(ctx context.Context, cb CallbackQuery) {
	started := r.now()
	outcome := r.handleCallback(ctx, cb)
	metrics.UpdatesTotal.WithLabelValues("callback", outcome).Inc()
	metrics.UpdateDuration.WithLabelValues("callback").Observe(time.Since(started).Seconds())
}

func (r *Router) handleCallback(ctx context.Context, cb CallbackQuery) string {
	if !r.allowed(cb.UserID) {
		r.answer(ctx, cb.ID, textAccessDenied)
		return "denied"
	}
	if r.blockedBySpam(ctx, cb.UserID) {
		r.answer(ctx, cb.ID, textSlowDown)
		return "blocked"
	}

	parsed, err := callback.Parse(cb.Data)
	if err != nil {
		r.logError("parse callback", err, cb.UserID)
		r.answer(ctx, cb.ID, textStale)
		return "error"
	}

	switch v := parsed.(type) {
	case callback.FilmCard:
		r.openFilmCard(ctx, cb, v)
	case callback.PageTurn:
		r.turnPage(ctx, cb, v.Coll, v.Page)
	case callback.BackToResults:
		r.backToResults(ctx, cb, v)
	case callback.TorrentPage:
		r.showTorrentPage(ctx, cb, v.FilmID, v.Page)
	case callback.TorrentDetails:
		r.showTorrentDetails(ctx, cb, v)
	case callback.Download:
		r.downloadTorrent(ctx, cb, v)
	case callback.BackToTorrent:
		r.showTorrentPage(ctx, cb, v.FilmID, 1)
	case callback.BackToFilm:
		r.backToFilmCard(ctx, cb, v.FilmID)
	case callback.BackToFilters:
		r.backToFilters(ctx, cb, v.Hash)
	case callback.TorrentFilterOpen:
		r.openTorrentFilters(ctx, cb, v.FilmID)
	case callback.TorrentFilterPick:
		r.pickTorrentFilter(ctx, cb, v)
	case callback.TorrentFilterReset:
		r.resetTorrentFilters(ctx, cb, v.FilmID)
	case callback.FilterPick:
		r.pickSearchFilter(ctx, cb, v)
	case callback.SortPick:
		r.pickSearchSort(ctx, cb, v.Key)
	case callback.Action:
		r.handleAction(ctx, cb, v.Name)
	}
	return "ok"
}

func (r *Router) handleAction(ctx context.Context, cb CallbackQuery, name string) {
	switch name {
	case actionNoop:
		r.answer(ctx, cb.ID, "")
	case actionMainMenu:
		r.edit(ctx, cb.ChatID, cb.MessageID, textMainMenu, mainMenuKeyboard())
		r.answer(ctx, cb.ID, "")
	case actionSearch:
		r.promptSearch(ctx, cb)
	case actionAdvancedSearch:
		r.promptAdvancedSearch(ctx, cb)
	case actionTops:
		r.edit(ctx, cb.ChatID, cb.MessageID, "🏆 <b>Подборки</b>", topsKeyboard())
		r.answer(ctx, cb.ID, "")
	case actionAbout:
		r.answer(ctx, cb.ID, "")
		r.showAbout(ctx, cb.ChatID, cb.UserID)
	case actionPickGenre, actionPickCountry, actionPickYear, actionPickRating, actionPickSort:
		r.openFilterPicker(ctx, cb, name)
	case actionFiltersOnly:
		r.openFiltersOnly(ctx, cb)
	case actionFiltersSubmit:
		r.submitAdvancedSearch(ctx, cb)
	case actionFiltersReset:
		r.resetAdvancedFilters(ctx, cb)
	default:
		if top, ok := kinopoisk.TopByID(name); ok {
			r.openTop(ctx, cb, top)
			return
		}
		r.answer(ctx, cb.ID, textStale)
	}
}

// Transport helpers. Send failures are logged, not propagated: there
// is nobody upstream to report them to.

func (r *Router) send(ctx context.Context, chatID int64, text string, kb Keyboard) int64 {
	id, err := r.transport.SendMessage(ctx, chatID, text, kb)
	if err != nil {
		r.logError("send message", err, chatID)
	}
	return id
}

func (r *Router) edit(ctx context.Context, chatID, messageID int64, text string, kb Keyboard) {
	if messageID == 0 {
		r.send(ctx, chatID, text, kb)
		return
	}
	if err := r.transport.EditMessage(ctx, chatID, messageID, text, kb); err != nil {
		r.logError("edit message", err, chatID)
		r.send(ctx, chatID, text, kb)
	}
}

func (r *Router) answer(ctx context.Context, callbackID, text string) {
	if err := r.transport.AnswerCallback(ctx, callbackID, text); err != nil {
		r.logError("answer callback", err, 0)
	}
}

func (r *Router) logError(op string, err error, subject int64) {
	if errors.Is(err, context.Canceled) {
		return
	}
	r.log.Error(op+" failed", "error", err, "subject", subject)
}
