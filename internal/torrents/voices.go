package torrents

import (
	"regexp"
	"strings"
)

// studioAliases lists lowercase spelling variants found in release
// titles with the canonical studio name used for scoring. Scanned in
// order, so detection is deterministic when several studios match.
var studioAliases = []struct {
	alias     string
	canonical string
}{
	{"hdrezka studio", "HDRezka Studio"},
	{"hdrezka", "HDRezka Studio"},
	{"hd rezka", "HDRezka Studio"},
	{"резка", "HDRezka Studio"},
	{"lostfilm", "LostFilm"},
	{"lost film", "LostFilm"},
	{"лостфильм", "LostFilm"},
	{"newstudio", "NewStudio"},
	{"new studio", "NewStudio"},
	{"red head sound", "Red Head Sound"},
	{"redheadsound", "Red Head Sound"},
	{"rhs", "Red Head Sound"},
	{"кубик в кубе", "Кубик в Кубе"},
	{"кубиквкубе", "Кубик в Кубе"},
	{"kubik v kube", "Кубик в Кубе"},
	{"пифагор", "Пифагор"},
	{"pifagor", "Пифагор"},
}

var dubPattern = regexp.MustCompile(`(?i)(?:проф(?:\.|ессиональн[а-яё]*)?\s*)?дубляж|(?:^|\W)dub(?:bed)?(?:\W|$)`)

// DetectVoices scans a release title for known studio names. It is the
// fallback for entries where the index reports no voices at all.
func DetectVoices(title string) []string {
	input := strings.ToLower(strings.TrimSpace(title))
	input = strings.ReplaceAll(input, "ё", "е")
	if input == "" {
		return nil
	}

	var voices []string
	seen := make(map[string]bool)
	for _, entry := range studioAliases {
		if strings.Contains(input, entry.alias) && !seen[entry.canonical] {
			seen[entry.canonical] = true
			voices = append(voices, entry.canonical)
		}
	}
	if len(voices) == 0 && dubPattern.MatchString(input) {
		voices = append(voices, "Дубляж")
	}
	return voices
}
