package domain

import "strconv"

type FilmType string

const (
	FilmTypeMovie    FilmType = "FILM"
	FilmTypeSeries   FilmType = "TV_SERIES"
	FilmTypeMiniShow FilmType = "MINI_SERIES"
	FilmTypeShow     FilmType = "TV_SHOW"
)

// Film is one title as returned by the metadata API, reduced to the fields
// the bot renders.
type Film struct {
	KinopoiskID int64    `json:"kinopoiskId"`
	NameRu      string   `json:"nameRu,omitempty"`
	NameEn      string   `json:"nameEn,omitempty"`
	Year        int      `json:"year,omitempty"`
	Rating      float64  `json:"ratingKinopoisk,omitempty"`
	Type        FilmType `json:"type,omitempty"`
	PosterURL   string   `json:"posterUrl,omitempty"`
	Description string   `json:"description,omitempty"`
	Genres      []string `json:"genres,omitempty"`
	Countries   []string `json:"countries,omitempty"`
}

func (f Film) ID() string {
	return strconv.FormatInt(f.KinopoiskID, 10)
}

// DisplayName prefers the Russian title and falls back to the English one.
func (f Film) DisplayName() string {
	if f.NameRu != "" {
		return f.NameRu
	}
	return f.NameEn
}

func (f Film) IsSeries() bool {
	switch f.Type {
	case FilmTypeSeries, FilmTypeMiniShow, FilmTypeShow:
		return true
	}
	return false
}

// SearchPage is one upstream fetch page of titles together with the total
// result count across all pages.
type SearchPage struct {
	Total int    `json:"total"`
	Items []Film `json:"items"`
}
