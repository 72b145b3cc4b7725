package domain

import "testing"

func TestAPIFiltersResolvesPicks(t *testing.T) {
	filters := UserFilters{
		Genre:   &FilterChoice{ID: "2", Name: "триллер"},
		Country: &FilterChoice{ID: "1", Name: "США"},
		Year:    &RangeChoice{ID: "y2", Range: "2010-2019"},
		Rating:  &RangeChoice{ID: "r3", Range: "7-10"},
		SortBy:  "YEAR",
	}

	api := filters.APIFilters()
	if api.Genres != "2" || api.Countries != "1" {
		t.Errorf("genre/country = %q/%q, want 2/1", api.Genres, api.Countries)
	}
	if api.YearFrom != 2010 || api.YearTo != 2019 {
		t.Errorf("years = %d-%d, want 2010-2019", api.YearFrom, api.YearTo)
	}
	if api.RatingFrom != 7 || api.RatingTo != 10 {
		t.Errorf("ratings = %v-%v, want 7-10", api.RatingFrom, api.RatingTo)
	}
	if api.Order != "YEAR" {
		t.Errorf("order = %q, want YEAR", api.Order)
	}
}

func TestAPIFiltersNonePicksAddNoConstraint(t *testing.T) {
	filters := UserFilters{
		Genre:  &FilterChoice{ID: "none", Name: "Любой вариант"},
		SortBy: "none",
	}
	if api := filters.APIFilters(); !api.Empty() {
		t.Errorf("expected empty filters, got %+v", api)
	}
	if !filters.Empty() {
		t.Error("none picks should leave the selection empty")
	}
}

func TestParseRanges(t *testing.T) {
	if from, to := parseIntRange("1995"); from != 1995 || to != 1995 {
		t.Errorf("single year = %d-%d, want 1995-1995", from, to)
	}
	if from, to := parseFloatRange("8"); from != 8 || to != 10 {
		t.Errorf("open rating = %v-%v, want 8-10", from, to)
	}
}
