package bot

import (
	"fmt"
	"strings"

	"kinobot/internal/domain"
	"kinobot/internal/torrents"
)

// Chat texts. HTML parse mode; anything user-supplied is escaped
// upstream by validate.Sanitize.
const (
	textMainMenu = "🎬 <b>Киномания</b>\n\nНайду фильм или сериал, покажу рейтинг и описание, подберу раздачу и пришлю .torrent файл.\n\nВыберите действие:"

	textAbout = "ℹ️ <b>О боте</b>\n\n" +
		"• Поиск по названию, можно уточнить: <i>название, год, жанр</i>\n" +
		"• Расширенный поиск с фильтрами по жанру, стране, годам и рейтингу\n" +
		"• Подборки: популярное, топ 250, скоро в кино\n" +
		"• Раздачи сортируются по качеству и озвучке\n\n" +
		"Данные: Кинопоиск, jacred."

	textAskQuery         = "🔍 Введите название фильма или сериала.\n\nМожно уточнить запрос: <i>название, год, жанр</i>"
	textAskAdvancedQuery = "🎛 Введите название для расширенного поиска или выберите поиск только по фильтрам:"
	textFiltersOnlyTitle = "Поиск по фильтрам"
	textPickAnyFilter    = "Выберите хотя бы один фильтр."

	textQueryTooShort = "Запрос слишком короткий, нужно хотя бы 2 символа."
	textQueryTooLong  = "Запрос слишком длинный, максимум 100 символов."
	textQueryInvalid  = "Запрос содержит недопустимые символы."

	textNothingFound   = "😔 Ничего не найдено. Попробуйте изменить запрос."
	textNoTorrents     = "😔 Раздачи не найдены. Попробуйте ослабить фильтры."
	textStale          = "Запрос устарел, выполните поиск заново."
	textMagnetStale    = "Ссылка устарела, откройте список раздач заново."
	textInternalError  = "Что-то пошло не так, попробуйте ещё раз."
	textConvertFailed  = "Не удалось получить метаданные раздачи, попробуйте другую."
	textSlowDown       = "Слишком много запросов, подождите немного."
	textAccessDenied   = "Доступ к боту ограничен."
	textConvertStarted = "⏳ Получаю метаданные раздачи..."
)

var filmTypeLabels = map[domain.FilmType]string{
	domain.FilmTypeMovie:    "Фильм",
	domain.FilmTypeSeries:   "Сериал",
	domain.FilmTypeMiniShow: "Мини-сериал",
	domain.FilmTypeShow:     "ТВ-шоу",
}

// filmButtonLabel is the one-line list entry for a title.
func filmButtonLabel(film domain.Film) string {
	var b strings.Builder
	b.WriteString(film.DisplayName())
	if film.Year > 0 {
		fmt.Fprintf(&b, " (%d)", film.Year)
	}
	if film.Rating > 0 {
		fmt.Fprintf(&b, " ⭐ %.1f", film.Rating)
	}
	return b.String()
}

// listHeader renders the header above a result list.
func listHeader(title string, total, page, totalPages int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", title)
	if total > 0 {
		fmt.Fprintf(&b, "Найдено: %d", total)
		if totalPages > 1 {
			fmt.Fprintf(&b, " · стр. %d из %d", page, totalPages)
		}
	}
	return b.String()
}

// filmCaption renders the title detail card.
func filmCaption(film domain.Film) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>", film.DisplayName())
	if film.NameRu != "" && film.NameEn != "" && film.NameRu != film.NameEn {
		fmt.Fprintf(&b, "\n<i>%s</i>", film.NameEn)
	}
	b.WriteString("\n")
	if label, ok := filmTypeLabels[film.Type]; ok {
		fmt.Fprintf(&b, "\n%s", label)
	}
	if film.Year > 0 {
		fmt.Fprintf(&b, " · %d", film.Year)
	}
	if film.Rating > 0 {
		fmt.Fprintf(&b, "\n⭐ Рейтинг: %.1f", film.Rating)
	}
	if len(film.Genres) > 0 {
		fmt.Fprintf(&b, "\n🎭 %s", strings.Join(film.Genres, ", "))
	}
	if len(film.Countries) > 0 {
		fmt.Fprintf(&b, "\n🌍 %s", strings.Join(film.Countries, ", "))
	}
	if film.Description != "" {
		desc := film.Description
		const maxDesc = 600
		if runes := []rune(desc); len(runes) > maxDesc {
			desc = strings.TrimSpace(string(runes[:maxDesc])) + "…"
		}
		fmt.Fprintf(&b, "\n\n%s", desc)
	}
	return b.String()
}

// torrentLine renders one entry of the torrent list.
func torrentLine(num int, r torrents.Ranked) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%d.</b> %s\n", num, r.Title)
	fmt.Fprintf(&b, "    %s · %s · 🌱 %d", r.QualityLabel, r.SizeGiB(), r.Seeders)
	if r.BestVoice != "" {
		fmt.Fprintf(&b, " · 🎙 %s", r.BestVoice)
	}
	if season := r.SeasonLabel(); season != "" {
		fmt.Fprintf(&b, " · %s", season)
	}
	return b.String()
}

// torrentDetail renders the full card of one release.
func torrentDetail(r torrents.Ranked) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", r.Title)
	fmt.Fprintf(&b, "\n📺 Качество: %s", r.QualityLabel)
	if r.QualityDesc != "" {
		fmt.Fprintf(&b, " (%s)", r.QualityDesc)
	}
	fmt.Fprintf(&b, "\n💾 Размер: %s", r.SizeGiB())
	fmt.Fprintf(&b, "\n🌱 Сиды: %d", r.Seeders)
	if len(r.Voices) > 0 {
		fmt.Fprintf(&b, "\n🎙 Озвучки: %s", strings.Join(r.Voices, ", "))
	}
	if season := r.SeasonLabel(); season != "" {
		fmt.Fprintf(&b, "\n📀 %s", season)
	}
	if r.CreateTime != "" {
		date := r.CreateTime
		if len(date) > 10 {
			date = date[:10]
		}
		fmt.Fprintf(&b, "\n📅 Добавлено: %s", date)
	}
	return b.String()
}

// filtersSummary renders the advanced-search keyboard header from the
// current draft, and doubles as the stored FiltersLabel.
func filtersSummary(query string, filters domain.UserFilters) string {
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
	var b strings.Builder
	if query == "" {
		fmt.Fprintf(&b, "🎛 <b>%s</b>", textFiltersOnlyTitle)
	} else {
		fmt.Fprintf(&b, "🎛 <b>Расширенный поиск:</b> %s", query)
	}
	if len(parts) > 0 {
		fmt.Fprintf(&b, "\n%s", strings.Join(parts, " · "))
	}
	return b.String()
}
