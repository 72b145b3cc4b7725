package kinopoisk

import "kinobot/internal/domain"

// TopCollection maps a short menu id onto the metadata API's
// collection type.
type TopCollection struct {
	ID      string
	APIType string
	Label   string
}

var TopCollections = []TopCollection{
	{ID: "tpop", APIType: "TOP_POPULAR_ALL", Label: "🔥 Популярное"},
	{ID: "tnew", APIType: "TOP_POPULAR_MOVIES", Label: "🎬 Популярные фильмы"},
	{ID: "t250", APIType: "TOP_250_MOVIES", Label: "🏆 Топ 250"},
	{ID: "tcin", APIType: "TOP_AWAIT_MOVIES", Label: "🍿 Скоро в кино"},
}

// TopByID resolves a short collection id, ok=false for unknown ids.
func TopByID(id string) (TopCollection, bool) {
	for _, top := range TopCollections {
		if top.ID == id {
			return top, true
		}
	}
	return TopCollection{}, false
}

// Static picker dictionaries for the advanced-search keyboard. Genre
// and country lists come from the live filters endpoint instead; these
// cover dimensions the API has no dictionary for.

var YearRanges = []domain.RangeChoice{
	{ID: "1", Range: "1950-1980"},
	{ID: "2", Range: "1980-2000"},
	{ID: "3", Range: "2000-2010"},
	{ID: "4", Range: "2010-2020"},
	{ID: "5", Range: "2020-2030"},
}

var RatingRanges = []domain.RangeChoice{
	{ID: "1", Range: "5-6"},
	{ID: "2", Range: "6-7"},
	{ID: "3", Range: "7-8"},
	{ID: "4", Range: "8-10"},
}

// SortOption is one entry of the sort picker. Key is the API's order
// parameter value.
type SortOption struct {
	Key   string
	Label string
}

var SortOptions = []SortOption{
	{Key: "RATING", Label: "По рейтингу"},
	{Key: "NUM_VOTE", Label: "По популярности"},
	{Key: "YEAR", Label: "По году"},
}

func SortLabel(key string) string {
	for _, opt := range SortOptions {
		if opt.Key == key {
			return opt.Label
		}
	}
	return key
}
