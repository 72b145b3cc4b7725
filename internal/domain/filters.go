package domain

import (
	"strconv"
	"strings"
)

// SearchFilters holds the metadata API query parameters of a submitted
// search. Zero values mean "no constraint" and are omitted from requests.
type SearchFilters struct {
	Countries  string  `json:"countries,omitempty"`
	Genres     string  `json:"genres,omitempty"`
	YearFrom   int     `json:"yearFrom,omitempty"`
	YearTo     int     `json:"yearTo,omitempty"`
	RatingFrom float64 `json:"ratingFrom,omitempty"`
	RatingTo   float64 `json:"ratingTo,omitempty"`
	Order      string  `json:"order,omitempty"`
}

func (f SearchFilters) Empty() bool {
	return f == SearchFilters{}
}

// FilterChoice is one confirmed pick in the filter-editing keyboard,
// carrying both the API id and the human label.
type FilterChoice struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// RangeChoice is a confirmed year or rating range, e.g. "1990-1994".
type RangeChoice struct {
	ID    string `json:"id"`
	Range string `json:"range"`
}

// UserFilters is the in-progress, unsubmitted filter selection of one user.
// A nil field means the dimension is unconstrained.
type UserFilters struct {
	Genre   *FilterChoice `json:"genre,omitempty"`
	Country *FilterChoice `json:"country,omitempty"`
	Year    *RangeChoice  `json:"year,omitempty"`
	Rating  *RangeChoice  `json:"rating,omitempty"`
	SortBy  string        `json:"sortBy,omitempty"`
}

// Empty reports whether the selection constrains anything. A choice
// with id "none" means "any" and counts as no constraint.
func (f UserFilters) Empty() bool {
	return constrains(f.Genre) == nil && constrains(f.Country) == nil &&
		f.Year == nil && f.Rating == nil &&
		(f.SortBy == "" || f.SortBy == "none")
}

func constrains(c *FilterChoice) *FilterChoice {
	if c == nil || c.ID == "" || c.ID == "none" {
		return nil
	}
	return c
}

// APIFilters resolves the user's picks into metadata API parameters.
// Choices with id "none" mean "any" and add no constraint.
func (f UserFilters) APIFilters() SearchFilters {
	var out SearchFilters
	if g := constrains(f.Genre); g != nil {
		out.Genres = g.ID
	}
	if c := constrains(f.Country); c != nil {
		out.Countries = c.ID
	}
	if f.Year != nil {
		out.YearFrom, out.YearTo = parseIntRange(f.Year.Range)
	}
	if f.Rating != nil {
		out.RatingFrom, out.RatingTo = parseFloatRange(f.Rating.Range)
	}
	if f.SortBy != "" && f.SortBy != "none" {
		out.Order = f.SortBy
	}
	return out
}

func parseIntRange(raw string) (from, to int) {
	parts := strings.SplitN(strings.TrimSpace(raw), "-", 2)
	from, _ = strconv.Atoi(strings.TrimSpace(parts[0]))
	to = from
	if len(parts) == 2 {
		if v, err := strconv.Atoi(strings.TrimSpace(parts[1])); err == nil {
			to = v
		}
	}
	return from, to
}

func parseFloatRange(raw string) (from, to float64) {
	parts := strings.SplitN(strings.TrimSpace(raw), "-", 2)
	from, _ = strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	to = 10
	if len(parts) == 2 {
		if v, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); err == nil {
			to = v
		}
	}
	return from, to
}

// SubmittedSearch is the immutable payload stored per search token: the
// sanitized query, the resolved API filters and a pre-rendered filter label
// for result headers.
type SubmittedSearch struct {
	Query        string        `json:"query"`
	Filters      SearchFilters `json:"filters"`
	FiltersLabel string        `json:"filtersLabel,omitempty"`
}
