package bot

import (
	"context"
	"errors"
	"strings"

	"kinobot/internal/callback"
	"kinobot/internal/domain"
	"kinobot/internal/providers/kinopoisk"
	"kinobot/internal/store"
	"kinobot/internal/validate"
)

// Picker sizes are bounded so the keyboard stays scrollable; the long
// tail of genres and countries is reachable via the query shorthand.
const (
	maxGenreChoices   = 24
	maxCountryChoices = 16
)

func (r *Router) promptAdvancedSearch(ctx context.Context, cb CallbackQuery) {
	if err := r.state.SetPendingInput(ctx, cb.UserID, store.PendingAdvancedQuery); err != nil {
		r.logError("set pending input", err, cb.UserID)
	}
	r.edit(ctx, cb.ChatID, cb.MessageID, textAskAdvancedQuery, Keyboard{
		Row(Button{Text: "🎛 Только фильтры", Data: actionFiltersOnly}),
	})
	r.answer(ctx, cb.ID, "")
}

// openFiltersOnly starts filter editing without a text query; the
// submitted search then runs on filters alone.
func (r *Router) openFiltersOnly(ctx context.Context, cb CallbackQuery) {
	if err := r.state.ClearPendingInput(ctx, cb.UserID); err != nil {
		r.logError("clear pending input", err, cb.UserID)
	}
	draft := store.FiltersDraft{KeyboardMessageID: cb.MessageID}
	if err := r.state.SaveFiltersDraft(ctx, cb.UserID, draft); err != nil {
		r.logError("save filters draft", err, cb.UserID)
		r.answer(ctx, cb.ID, textInternalError)
		return
	}
	r.answer(ctx, cb.ID, "")
	r.edit(ctx, cb.ChatID, cb.MessageID, filtersSummary(draft.Query, draft.Filters), advancedFiltersKeyboard(draft.Filters))
}

// handleAdvancedQueryInput stores the query and opens the filter
// keyboard that subsequent picks edit in place.
func (r *Router) handleAdvancedQueryInput(ctx context.Context, msg IncomingMessage) {
	if err := r.state.ClearPendingInput(ctx, msg.UserID); err != nil {
		r.logError("clear pending input", err, msg.UserID)
	}

	query, err := validateAdvancedQuery(msg.Text)
	if err != nil {
		r.send(ctx, msg.ChatID, queryErrorText(err), nil)
		return
	}

	draft := store.FiltersDraft{Query: query}
	messageID := r.send(ctx, msg.ChatID, filtersSummary(query, draft.Filters), advancedFiltersKeyboard(draft.Filters))
	draft.KeyboardMessageID = messageID
	if err := r.state.SaveFiltersDraft(ctx, msg.UserID, draft); err != nil {
		r.logError("save filters draft", err, msg.UserID)
	}
}

func (r *Router) openFilterPicker(ctx context.Context, cb CallbackQuery, action string) {
	draft, err := r.state.FiltersDraft(ctx, cb.UserID)
	if err != nil {
		r.staleDraft(ctx, cb, err)
		return
	}
	r.answer(ctx, cb.ID, "")

	var kb Keyboard
	switch action {
	case actionPickGenre, actionPickCountry:
		dict, err := r.meta.Filters(ctx)
		if err != nil {
			r.logError("load filter dictionary", err, cb.ChatID)
			r.edit(ctx, cb.ChatID, cb.MessageID, textInternalError, advancedFiltersKeyboard(draft.Filters))
			return
		}
		if action == actionPickGenre {
			kb = pickerKeyboard("genre", clip(dict.Genres, maxGenreChoices), 3)
		} else {
			kb = pickerKeyboard("country", clip(dict.Countries, maxCountryChoices), 2)
		}
	case actionPickYear:
		kb = pickerKeyboard("year", rangeChoices(kinopoisk.YearRanges), 2)
	case actionPickRating:
		kb = pickerKeyboard("rating", rangeChoices(kinopoisk.RatingRanges), 2)
	case actionPickSort:
		var row []Button
		for _, opt := range kinopoisk.SortOptions {
			row = append(row, Button{Text: opt.Label, Data: callback.SortPickToken(opt.Key)})
		}
		kb = Keyboard{row}
	}

	r.edit(ctx, cb.ChatID, cb.MessageID, filtersSummary(draft.Query, draft.Filters), kb)
}

// pickSearchFilter applies one confirmed choice and returns to the
// main filter keyboard. Choosing "none" clears the dimension.
func (r *Router) pickSearchFilter(ctx context.Context, cb CallbackQuery, v callback.FilterPick) {
	draft, err := r.state.FiltersDraft(ctx, cb.UserID)
	if err != nil {
		r.staleDraft(ctx, cb, err)
		return
	}

	cleared := v.ID == "none"
	switch v.Dimension {
	case "genre":
		draft.Filters.Genre = choicePtr(cleared, v)
	case "country":
		draft.Filters.Country = choicePtr(cleared, v)
	case "year":
		draft.Filters.Year = rangePtr(cleared, v)
	case "rating":
		draft.Filters.Rating = rangePtr(cleared, v)
	}

	r.saveDraftAndRender(ctx, cb, draft)
}

func (r *Router) pickSearchSort(ctx context.Context, cb CallbackQuery, key string) {
	draft, err := r.state.FiltersDraft(ctx, cb.UserID)
	if err != nil {
		r.staleDraft(ctx, cb, err)
		return
	}
	draft.Filters.SortBy = key
	r.saveDraftAndRender(ctx, cb, draft)
}

func (r *Router) resetAdvancedFilters(ctx context.Context, cb CallbackQuery) {
	draft, err := r.state.FiltersDraft(ctx, cb.UserID)
	if err != nil {
		r.staleDraft(ctx, cb, err)
		return
	}
	draft.Filters = domain.UserFilters{}
	r.saveDraftAndRender(ctx, cb, draft)
}

// submitAdvancedSearch freezes the draft into a hashed submitted
// search and shows its first result page.
func (r *Router) submitAdvancedSearch(ctx context.Context, cb CallbackQuery) {
	draft, err := r.state.FiltersDraft(ctx, cb.UserID)
	if err != nil {
		r.staleDraft(ctx, cb, err)
		return
	}
	if draft.Query == "" && draft.Filters.Empty() {
		r.answer(ctx, cb.ID, textPickAnyFilter)
		return
	}
	r.answer(ctx, cb.ID, "")

	search := domain.SubmittedSearch{
		Query:        draft.Query,
		Filters:      draft.Filters.APIFilters(),
		FiltersLabel: userFiltersLabel(draft.Filters),
	}
	hash := searchToken(draft.Query, cb.UserID)
	if err := r.state.StoreSubmittedSearch(ctx, hash, search); err != nil {
		r.logError("store search", err, cb.UserID)
		r.edit(ctx, cb.ChatID, cb.MessageID, textInternalError, nil)
		return
	}
	if err := r.state.ClearFiltersDraft(ctx, cb.UserID); err != nil {
		r.logError("clear filters draft", err, cb.UserID)
	}

	r.showList(ctx, cb.ChatID, cb.MessageID, callback.AdvancedCollection(hash), 1)
}

// backToFilters reopens filter editing for a submitted search, seeding
// a fresh draft with its query.
func (r *Router) backToFilters(ctx context.Context, cb CallbackQuery, hash string) {
	search, err := r.state.SubmittedSearch(ctx, hash)
	if err != nil {
		r.staleDraft(ctx, cb, err)
		return
	}
	r.answer(ctx, cb.ID, "")

	draft := store.FiltersDraft{Query: search.Query, KeyboardMessageID: cb.MessageID}
	if err := r.state.SaveFiltersDraft(ctx, cb.UserID, draft); err != nil {
		r.logError("save filters draft", err, cb.UserID)
	}
	r.edit(ctx, cb.ChatID, cb.MessageID, filtersSummary(draft.Query, draft.Filters), advancedFiltersKeyboard(draft.Filters))
}

func (r *Router) saveDraftAndRender(ctx context.Context, cb CallbackQuery, draft store.FiltersDraft) {
	draft.KeyboardMessageID = cb.MessageID
	if err := r.state.SaveFiltersDraft(ctx, cb.UserID, draft); err != nil {
		r.logError("save filters draft", err, cb.UserID)
		r.answer(ctx, cb.ID, textInternalError)
		return
	}
	r.answer(ctx, cb.ID, "")
	r.edit(ctx, cb.ChatID, cb.MessageID, filtersSummary(draft.Query, draft.Filters), advancedFiltersKeyboard(draft.Filters))
}

func (r *Router) staleDraft(ctx context.Context, cb CallbackQuery, err error) {
	if !errors.Is(err, store.ErrNotFound) {
		r.logError("load filters draft", err, cb.UserID)
	}
	r.answer(ctx, cb.ID, textStale)
	r.edit(ctx, cb.ChatID, cb.MessageID, textMainMenu, mainMenuKeyboard())
}

func validateAdvancedQuery(text string) (string, error) {
	query, err := validate.SearchQuery(text)
	if err != nil {
		return "", err
	}
	// Shorthand commas make no sense here, the keyboard owns filters.
	return strings.TrimSpace(strings.SplitN(query, ",", 2)[0]), nil
}

func choicePtr(cleared bool, v callback.FilterPick) *domain.FilterChoice {
	if cleared {
		return nil
	}
	return &domain.FilterChoice{ID: v.ID, Name: v.Value}
}

func rangePtr(cleared bool, v callback.FilterPick) *domain.RangeChoice {
	if cleared {
		return nil
	}
	return &domain.RangeChoice{ID: v.ID, Range: v.Value}
}

func rangeChoices(ranges []domain.RangeChoice) []domain.FilterChoice {
	choices := make([]domain.FilterChoice, 0, len(ranges))
	for _, rc := range ranges {
		choices = append(choices, domain.FilterChoice{ID: rc.ID, Name: rc.Range})
	}
	return choices
}

func clip(choices []domain.FilterChoice, limit int) []domain.FilterChoice {
	if len(choices) <= limit {
		return choices
	}
	return choices[:limit]
}

// userFiltersLabel renders the human summary stored with a submitted
// search and shown in list headers.
func userFiltersLabel(filters domain.UserFilters) string {
	var parts []string
	if filters.Genre != nil {
		parts = append(parts, "жанр: "+filters.Genre.Name)
	}
	if filters.Country != nil {
		parts = append(parts, "страна: "+filters.Country.Name)
	}
	if filters.Year != nil {
		parts = append(parts, "годы: "+filters.Year.Range)
	}
	if filters.Rating != nil {
		parts = append(parts, "рейтинг: "+filters.Rating.Range)
	}
	if filters.SortBy != "" {
		parts = append(parts, strings.ToLower(kinopoisk.SortLabel(filters.SortBy)))
	}
	return strings.Join(parts, " · ")
}
