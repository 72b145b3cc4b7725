// Package torrents ranks and filters release candidates from the
// torrent index before they reach the chat.
package torrents

import (
	"fmt"
	"strings"
)

// Candidate is one release as the torrent index reports it.
type Candidate struct {
	Title      string   `json:"title"`
	Size       int64    `json:"size"`
	Seeders    int      `json:"sid"`
	Quality    int      `json:"quality"`
	Voices     []string `json:"voices"`
	Seasons    []int    `json:"seasons"`
	Magnet     string   `json:"magnet"`
	CreateTime string   `json:"createTime"`
}

// Ranked is a candidate with its computed score and display fields.
type Ranked struct {
	Candidate
	Score        int
	BestVoice    string
	QualityLabel string
	QualityDesc  string
}

// SizeGiB renders the payload size for display.
func (r Ranked) SizeGiB() string {
	return fmt.Sprintf("%.2f GB", float64(r.Size)/(1<<30))
}

// SeasonLabel renders the season list, or "" for movies.
func (r Ranked) SeasonLabel() string {
	if len(r.Seasons) == 0 {
		return ""
	}
	parts := make([]string, len(r.Seasons))
	for i, s := range r.Seasons {
		parts[i] = fmt.Sprintf("%d", s)
	}
	return "Сезон " + strings.Join(parts, ", ")
}
