package torrents

import (
	"errors"
	"sort"
	"strconv"

	"kinobot/internal/domain"
)

var ErrNotFound = errors.New("torrents: no such candidate")

// Voice priorities. Unknown studios score zero and rank below any
// recognized one.
var voicePriority = map[string]int{
	"HDRezka Studio": 10,
	"LostFilm":       9,
	"NewStudio":      8,
	"Red Head Sound": 8,
	"Кубик в Кубе":   7,
	"Пифагор":        6,
	"Дубляж":         5,
}

var qualityPriority = map[int]int{
	1080: 3,
	720:  2,
	480:  1,
}

// Rank filters candidates against the user's torrent filters, scores
// the survivors and sorts them. Default order is score then seeders,
// both descending; the size and date flags each override it.
func Rank(candidates []Candidate, filters domain.TorrentFilters) []Ranked {
	minQuality := 0
	if filters.MinQuality != "" {
		if q, err := strconv.Atoi(filters.MinQuality); err == nil {
			minQuality = q
		}
	}

	ranked := make([]Ranked, 0, len(candidates))
	for _, c := range candidates {
		if c.Seeders < filters.MinSeeders {
			continue
		}
		if minQuality > 0 && c.Quality < minQuality {
			continue
		}
		voices := c.Voices
		if len(voices) == 0 {
			voices = DetectVoices(c.Title)
		}
		if filters.Voice != "" && !hasVoice(voices, filters.Voice) {
			continue
		}

		voiceScore, bestVoice := bestVoice(voices)
		ranked = append(ranked, Ranked{
			Candidate:    c,
			Score:        qualityPriority[c.Quality] + voiceScore,
			BestVoice:    bestVoice,
			QualityLabel: qualityLabel(c.Quality),
			QualityDesc:  QualityDescription(c.Title),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		switch {
		case filters.SortBySize:
			return a.Size > b.Size
		case filters.SortByDate:
			return a.CreateTime > b.CreateTime
		case a.Score != b.Score:
			return a.Score > b.Score
		default:
			return a.Seeders > b.Seeders
		}
	})
	return ranked
}

// SeriesOnly keeps releases with at least one season marker. Movie
// releases of the same title pollute series results otherwise.
func SeriesOnly(candidates []Candidate) []Candidate {
	kept := make([]Candidate, 0, len(candidates))
	for _, c := range candidates {
		if len(c.Seasons) > 0 {
			kept = append(kept, c)
		}
	}
	return kept
}

// At returns the candidate at an absolute index in the ranked list.
func At(ranked []Ranked, index int) (Ranked, error) {
	if index < 0 || index >= len(ranked) {
		return Ranked{}, ErrNotFound
	}
	return ranked[index], nil
}

// bestVoice returns the highest-priority studio among the candidate's
// voices and its score. With no recognized studio it falls back to the
// first listed voice.
func bestVoice(voices []string) (int, string) {
	best := ""
	score := 0
	for _, v := range voices {
		if p, ok := voicePriority[v]; ok && (best == "" || p > score) {
			best = v
			score = p
		}
	}
	if best == "" && len(voices) > 0 {
		best = voices[0]
	}
	return score, best
}

func hasVoice(voices []string, want string) bool {
	for _, v := range voices {
		if v == want {
			return true
		}
	}
	return false
}

func qualityLabel(quality int) string {
	if quality <= 0 {
		return "неизвестно"
	}
	return strconv.Itoa(quality) + "p"
}
