package bot

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"kinobot/internal/callback"
	"kinobot/internal/domain"
	"kinobot/internal/pagination"
	"kinobot/internal/providers/kinopoisk"
	"kinobot/internal/store"
	"kinobot/internal/validate"
)

func (r *Router) promptSearch(ctx context.Context, cb CallbackQuery) {
	if err := r.state.SetPendingInput(ctx, cb.UserID, store.PendingBasicQuery); err != nil {
		r.logError("set pending input", err, cb.UserID)
	}
	r.edit(ctx, cb.ChatID, cb.MessageID, textAskQuery, nil)
	r.answer(ctx, cb.ID, "")
}

// handleSearchInput turns free text into a search: a bare number opens
// the title directly, "title, year, genre" shorthand becomes a
// filtered search, anything else a keyword search.
func (r *Router) handleSearchInput(ctx context.Context, msg IncomingMessage) {
	if err := r.state.ClearPendingInput(ctx, msg.UserID); err != nil {
		r.logError("clear pending input", err, msg.UserID)
	}

	if validate.IsFilmID(msg.Text) {
		r.openFilmByID(ctx, msg.ChatID, strings.TrimSpace(msg.Text))
		return
	}

	query, err := validate.SearchQuery(msg.Text)
	if err != nil {
		r.send(ctx, msg.ChatID, queryErrorText(err), nil)
		return
	}

	parts := validate.ParseQueryShorthand(query)
	if parts.Year == 0 && parts.Genre == "" {
		r.runBasicSearch(ctx, msg.ChatID, query)
		return
	}
	r.runShorthandSearch(ctx, msg.ChatID, msg.UserID, parts)
}

func queryErrorText(err error) string {
	switch {
	case errors.Is(err, validate.ErrTooShort):
		return textQueryTooShort
	case errors.Is(err, validate.ErrTooLong):
		return textQueryTooLong
	default:
		return textQueryInvalid
	}
}

func (r *Router) runBasicSearch(ctx context.Context, chatID int64, query string) {
	hash := callback.ShortHash(query, callback.SearchHashLen)
	if err := r.state.StoreQuery(ctx, hash, query); err != nil {
		r.logError("store query", err, chatID)
		r.send(ctx, chatID, textInternalError, nil)
		return
	}
	r.showList(ctx, chatID, 0, callback.BasicCollection(hash), 1)
}

// runShorthandSearch resolves the optional year and genre into API
// filters and runs the result as an advanced search. When nothing
// resolves it degrades to a plain keyword search.
func (r *Router) runShorthandSearch(ctx context.Context, chatID, userID int64, parts validate.QueryParts) {
	filters := domain.SearchFilters{}
	var labels []string
	if parts.Year > 0 {
		filters.YearFrom = parts.Year
		filters.YearTo = parts.Year
		labels = append(labels, "год: "+strconv.Itoa(parts.Year))
	}
	if parts.Genre != "" {
		if id, ok := r.resolveGenre(ctx, parts.Genre); ok {
			filters.Genres = id
			labels = append(labels, "жанр: "+strings.ToLower(parts.Genre))
		}
	}
	if filters.Empty() {
		r.runBasicSearch(ctx, chatID, parts.Title)
		return
	}

	search := domain.SubmittedSearch{
		Query:        parts.Title,
		Filters:      filters,
		FiltersLabel: strings.Join(labels, " · "),
	}
	hash := searchToken(parts.Title, userID)
	if err := r.state.StoreSubmittedSearch(ctx, hash, search); err != nil {
		r.logError("store search", err, chatID)
		r.send(ctx, chatID, textInternalError, nil)
		return
	}
	r.showList(ctx, chatID, 0, callback.AdvancedCollection(hash), 1)
}

// searchToken derives the advanced-search token from the query and the
// submitting user, so identical queries from different users never
// share a state slot.
func searchToken(query string, userID int64) string {
	return callback.ShortHash(query+":"+strconv.FormatInt(userID, 10), callback.SearchHashLen)
}

func (r *Router) resolveGenre(ctx context.Context, name string) (string, bool) {
	dict, err := r.meta.Filters(ctx)
	if err != nil {
		r.logError("load filter dictionary", err, 0)
		return "", false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	for _, g := range dict.Genres {
		if strings.ToLower(g.Name) == name {
			return g.ID, true
		}
	}
	return "", false
}

func (r *Router) openTop(ctx context.Context, cb CallbackQuery, top kinopoisk.TopCollection) {
	r.answer(ctx, cb.ID, "")
	r.showList(ctx, cb.ChatID, cb.MessageID, callback.TopCollection(top.ID), 1)
}

func (r *Router) turnPage(ctx context.Context, cb CallbackQuery, coll callback.Collection, page int) {
	r.answer(ctx, cb.ID, "")
	r.showList(ctx, cb.ChatID, cb.MessageID, coll, page)
}

// backToResults re-renders the exact result page a film card was
// opened from; the card itself is replaced.
func (r *Router) backToResults(ctx context.Context, cb CallbackQuery, v callback.BackToResults) {
	r.answer(ctx, cb.ID, "")
	if err := r.transport.DeleteMessage(ctx, cb.ChatID, cb.MessageID); err != nil {
		r.logError("delete card", err, cb.ChatID)
	}
	r.showList(ctx, cb.ChatID, 0, v.Coll, v.Page)
}

// showList renders one display page of any collection. messageID 0
// sends a new message, otherwise the existing one is edited in place.
func (r *Router) showList(ctx context.Context, chatID, messageID int64, coll callback.Collection, page int) {
	title, result, err := r.fetchPage(ctx, coll, page)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			r.edit(ctx, chatID, messageID, textStale, mainMenuKeyboard())
			return
		}
		if errors.Is(err, kinopoisk.ErrKeysExhausted) {
			r.log.Error("metadata api keys exhausted")
		}
		r.logError("fetch page", err, chatID)
		r.edit(ctx, chatID, messageID, textInternalError, mainMenuKeyboard())
		return
	}

	films := pagination.PageSlice(result.Items, page)
	if len(films) == 0 {
		r.edit(ctx, chatID, messageID, textNothingFound, mainMenuKeyboard())
		return
	}

	totalPages := pagination.TotalPages(result.Total, pagination.PageSize)
	text := listHeader(title, result.Total, page, totalPages)
	r.edit(ctx, chatID, messageID, text, filmListKeyboard(films, coll, page, totalPages))
}

// fetchPage resolves a collection to its upstream request and fetches
// the API page the display page lives on.
func (r *Router) fetchPage(ctx context.Context, coll callback.Collection, page int) (string, domain.SearchPage, error) {
	apiPage := pagination.UpstreamPage(page)

	switch coll.Kind {
	case callback.KindBasic:
		query, err := r.state.Query(ctx, coll.Hash)
		if err != nil {
			return "", domain.SearchPage{}, err
		}
		result, err := r.meta.SearchFilms(ctx, query, domain.SearchFilters{}, apiPage)
		return query, result, err

	case callback.KindAdvanced:
		search, err := r.state.SubmittedSearch(ctx, coll.Hash)
		if err != nil {
			return "", domain.SearchPage{}, err
		}
		title := search.Query
		if title == "" {
			title = textFiltersOnlyTitle
		}
		if search.FiltersLabel != "" {
			title += " (" + search.FiltersLabel + ")"
		}
		result, err := r.meta.SearchFilms(ctx, search.Query, search.Filters, apiPage)
		return title, result, err

	default:
		top, ok := kinopoisk.TopByID(coll.TopID)
		if !ok {
			return "", domain.SearchPage{}, store.ErrNotFound
		}
		result, err := r.meta.Collection(ctx, top.APIType, apiPage)
		return top.Label, result, err
	}
}
