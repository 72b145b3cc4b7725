package bot

import (
	"strconv"

	"kinobot/internal/callback"
	"kinobot/internal/domain"
	"kinobot/internal/pagination"
	"kinobot/internal/providers/kinopoisk"
	"kinobot/internal/torrents"
)

// Fixed menu tokens. The callback package parses them as plain actions.
const (
	actionMainMenu       = "main_menu"
	actionSearch         = "search"
	actionAdvancedSearch = "advanced_search"
	actionTops           = "tops"
	actionAbout          = "about"
	actionPickGenre      = "pick_genre"
	actionPickCountry    = "pick_country"
	actionPickYear       = "pick_year"
	actionPickRating     = "pick_rating"
	actionPickSort       = "pick_sort"
	actionFiltersOnly    = "filters_only"
	actionFiltersSubmit  = "filters_submit"
	actionFiltersReset   = "filters_reset"
	actionNoop           = "noop"
)

func mainMenuKeyboard() Keyboard {
	return Keyboard{
		Row(Button{Text: "🔍 Поиск", Data: actionSearch}),
		Row(Button{Text: "🎛 Расширенный поиск", Data: actionAdvancedSearch}),
		Row(Button{Text: "🏆 Подборки", Data: actionTops}),
		Row(Button{Text: "ℹ️ О боте", Data: actionAbout}),
	}
}

func topsKeyboard() Keyboard {
	kb := make(Keyboard, 0, len(kinopoisk.TopCollections)+1)
	for _, top := range kinopoisk.TopCollections {
		kb = append(kb, Row(Button{Text: top.Label, Data: top.ID}))
	}
	kb = append(kb, Row(Button{Text: "⬅️ Меню", Data: actionMainMenu}))
	return kb
}

// filmListKeyboard builds the result-list keyboard: one button per
// title, the page-navigation row, then the menu row.
func filmListKeyboard(films []domain.Film, coll callback.Collection, page, totalPages int) Keyboard {
	kb := make(Keyboard, 0, len(films)+2)
	for _, film := range films {
		kb = append(kb, Row(Button{
			Text: filmButtonLabel(film),
			Data: coll.FilmToken(film.ID(), page),
		}))
	}
	if nav := navRow(pagination.Nav(page, totalPages), func(p int) string {
		return coll.PageToken(p)
	}); nav != nil {
		kb = append(kb, nav)
	}
	kb = append(kb, Row(Button{Text: "⬅️ Меню", Data: actionMainMenu}))
	return kb
}

// navRow converts a pagination window into a button row. The current
// page gets a no-op token so tapping it does nothing.
func navRow(nav []pagination.NavButton, token func(page int) string) []Button {
	if len(nav) == 0 {
		return nil
	}
	row := make([]Button, 0, len(nav))
	for _, b := range nav {
		data := token(b.Page)
		if b.Current {
			data = actionNoop
		}
		row = append(row, Button{Text: b.Label, Data: data})
	}
	return row
}

// filmCardKeyboard is the keyboard under a title detail card.
func filmCardKeyboard(filmID string, coll callback.Collection, page int) Keyboard {
	return Keyboard{
		Row(Button{Text: "📥 Раздачи", Data: callback.TorrentPageToken(filmID, 1)}),
		Row(
			Button{Text: "⬅️ К результатам", Data: coll.BackToken(page)},
			Button{Text: "🏠 Меню", Data: actionMainMenu},
		),
	}
}

// torrentListKeyboard numbers the visible candidates with their
// absolute index in the filtered list.
func torrentListKeyboard(filmID string, visible []torrents.Ranked, page, totalPages int) Keyboard {
	numbers := make([]Button, 0, len(visible))
	for i := range visible {
		idx := (page-1)*pagination.TorrentPageSize + i
		numbers = append(numbers, Button{
			Text: strconv.Itoa(idx + 1),
			Data: callback.TorrentDetailsToken(filmID, idx, page),
		})
	}

	kb := Keyboard{numbers}
	if nav := navRow(pagination.Nav(page, totalPages), func(p int) string {
		return callback.TorrentPageToken(filmID, p)
	}); nav != nil {
		kb = append(kb, nav)
	}
	kb = append(kb, Row(
		Button{Text: "🎚 Фильтры", Data: callback.TorrentFilterOpenToken(filmID)},
		Button{Text: "⬅️ К фильму", Data: callback.BackToFilmToken(filmID)},
		Button{Text: "🏠 Меню", Data: actionMainMenu},
	))
	return kb
}

func torrentDetailKeyboard(filmID, magnetHash string, page int) Keyboard {
	return Keyboard{
		Row(Button{Text: "📥 Скачать .torrent", Data: callback.DownloadToken(magnetHash, filmID)}),
		Row(Button{Text: "⬅️ К раздачам", Data: callback.TorrentPageToken(filmID, page)}),
	}
}

// Torrent filter picker options. Voice options come from the studios
// the ranking engine recognizes.
var (
	seederOptions  = []string{"1", "5", "10", "50"}
	qualityOptions = []string{"480", "720", "1080"}
	voiceOptions   = []string{"HDRezka Studio", "LostFilm", "NewStudio", "Red Head Sound", "Кубик в Кубе", "Пифагор", "Дубляж"}
)

// torrentFiltersKeyboard marks the active choice in each row.
func torrentFiltersKeyboard(filmID string, filters domain.TorrentFilters) Keyboard {
	seeders := make([]Button, 0, len(seederOptions))
	for _, opt := range seederOptions {
		label := "🌱 " + opt
		if opt == strconv.Itoa(filters.MinSeeders) {
			label = "✅ " + opt
		}
		seeders = append(seeders, Button{Text: label, Data: callback.TorrentFilterPickToken("seeders", opt, filmID)})
	}

	quality := make([]Button, 0, len(qualityOptions))
	for _, opt := range qualityOptions {
		label := opt + "p"
		if opt == filters.MinQuality {
			label = "✅ " + label
		}
		quality = append(quality, Button{Text: label, Data: callback.TorrentFilterPickToken("quality", opt, filmID)})
	}

	kb := Keyboard{seeders, quality}
	for i, voice := range voiceOptions {
		label := "🎙 " + voice
		if voice == filters.Voice {
			label = "✅ " + voice
		}
		kb = append(kb, Row(Button{Text: label, Data: callback.TorrentFilterPickToken("voice", strconv.Itoa(i), filmID)}))
	}

	sortRow := Row(
		sortButton("⭐ Рейтинг", "score", !filters.SortBySize && !filters.SortByDate, filmID),
		sortButton("💾 Размер", "size", filters.SortBySize, filmID),
		sortButton("📅 Дата", "date", filters.SortByDate, filmID),
	)
	kb = append(kb, sortRow)
	kb = append(kb, Row(
		Button{Text: "♻️ Сбросить", Data: callback.TorrentFilterResetToken(filmID)},
		Button{Text: "✔️ Показать", Data: callback.TorrentPageToken(filmID, 1)},
	))
	return kb
}

func sortButton(label, value string, active bool, filmID string) Button {
	if active {
		label = "✅ " + label
	}
	return Button{Text: label, Data: callback.TorrentFilterPickToken("sort", value, filmID)}
}

// advancedFiltersKeyboard is the filter-editing keyboard shown after
// the user enters an advanced-search query.
func advancedFiltersKeyboard(filters domain.UserFilters) Keyboard {
	return Keyboard{
		Row(Button{Text: pickLabel("🎭 Жанр", choiceName(filters.Genre)), Data: actionPickGenre}),
		Row(Button{Text: pickLabel("🌍 Страна", choiceName(filters.Country)), Data: actionPickCountry}),
		Row(Button{Text: pickLabel("📅 Годы", rangeName(filters.Year)), Data: actionPickYear}),
		Row(Button{Text: pickLabel("⭐ Рейтинг", rangeName(filters.Rating)), Data: actionPickRating}),
		Row(Button{Text: pickLabel("🔃 Сортировка", sortName(filters.SortBy)), Data: actionPickSort}),
		Row(
			Button{Text: "🔍 Искать", Data: actionFiltersSubmit},
			Button{Text: "♻️ Сбросить", Data: actionFiltersReset},
		),
		Row(Button{Text: "🏠 Меню", Data: actionMainMenu}),
	}
}

func pickLabel(base, current string) string {
	if current == "" {
		return base
	}
	return base + ": " + current
}

func choiceName(c *domain.FilterChoice) string {
	if c == nil {
		return ""
	}
	return c.Name
}

func rangeName(c *domain.RangeChoice) string {
	if c == nil {
		return ""
	}
	return c.Range
}

func sortName(key string) string {
	if key == "" {
		return ""
	}
	return kinopoisk.SortLabel(key)
}

// pickerKeyboard renders one dimension's options, FilterPick tokens
// per choice plus the "any" reset option.
func pickerKeyboard(dimension string, choices []domain.FilterChoice, perRow int) Keyboard {
	if perRow < 1 {
		perRow = 2
	}
	var kb Keyboard
	row := make([]Button, 0, perRow)
	for _, c := range choices {
		row = append(row, Button{Text: c.Name, Data: callback.FilterPickToken(dimension, c.ID, c.Name)})
		if len(row) == perRow {
			kb = append(kb, row)
			row = make([]Button, 0, perRow)
		}
	}
	if len(row) > 0 {
		kb = append(kb, row)
	}
	kb = append(kb, Row(Button{Text: "Любой вариант", Data: callback.FilterPickToken(dimension, "none", "любой")}))
	return kb
}
