package domain

// TorrentFilters holds a user's torrent list preferences, persisted under
// torrentFilters:<userId>. Zero values mean "no constraint".
type TorrentFilters struct {
	MinSeeders int    `json:"minSeeders,omitempty"`
	MinQuality string `json:"minQuality,omitempty"`
	Voice      string `json:"voice,omitempty"`
	SortBySize bool   `json:"sortBySize,omitempty"`
	SortByDate bool   `json:"sortByDate,omitempty"`
}
