// Package callback owns the wire grammar of interactive callback tokens.
// Raw callback data is parsed exactly once, at the router boundary, into a
// tagged variant; downstream code never re-splits strings.
package callback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrBadToken = errors.New("callback: malformed token")

type CollectionKind int

const (
	KindBasic CollectionKind = iota
	KindAdvanced
	KindTop
)

// Collection identifies one browsable result set: a basic search, an
// advanced search (both addressed by hash) or a named top collection.
type Collection struct {
	Kind  CollectionKind
	Hash  string // basic/advanced searches
	TopID string // top collections, e.g. "t250"
}

func BasicCollection(hash string) Collection    { return Collection{Kind: KindBasic, Hash: hash} }
func AdvancedCollection(hash string) Collection { return Collection{Kind: KindAdvanced, Hash: hash} }
func TopCollection(id string) Collection        { return Collection{Kind: KindTop, TopID: id} }

// Token renders the collection prefix used in callback data.
func (c Collection) Token() string {
	switch c.Kind {
	case KindBasic:
		return "s_" + c.Hash
	case KindAdvanced:
		return "adv_" + c.Hash
	default:
		return c.TopID
	}
}

// Callback is the tagged variant produced by Parse.
type Callback interface {
	callback()
}

// FilmCard opens a title detail view from a result list.
type FilmCard struct {
	FilmID string
	Coll   Collection
	Page   int
}

// PageTurn switches the display page within a result list.
type PageTurn struct {
	Coll Collection
	Page int
}

// BackToResults returns from a title detail view to the exact result page
// it was opened from.
type BackToResults struct {
	Coll Collection
	Page int
}

// TorrentPage shows one page of the torrent list for a title.
type TorrentPage struct {
	FilmID string
	Page   int
}

// TorrentDetails opens one candidate by its index in the filtered list.
type TorrentDetails struct {
	FilmID string
	Index  int
	Page   int
}

// Download requests magnet-to-file conversion for a stored magnet reference.
type Download struct {
	MagnetHash string
	FilmID     string
}

// BackToTorrent returns from the converted-file view to the torrent detail.
type BackToTorrent struct {
	FilmID     string
	MagnetHash string
}

// BackToFilm returns from a torrent list to the title's card.
type BackToFilm struct {
	FilmID string
}

// BackToFilters reopens the filter-editing keyboard of a submitted
// advanced search.
type BackToFilters struct {
	Hash string
}

// TorrentFilterOpen shows the torrent filter keyboard for a title.
type TorrentFilterOpen struct {
	FilmID string
}

// TorrentFilterPick sets one torrent filter field: tf_<field>_<value>_<id>.
type TorrentFilterPick struct {
	Field  string // seeders, quality, voice, sort
	Value  string
	FilmID string
}

// TorrentFilterReset clears all torrent filters for the user.
type TorrentFilterReset struct {
	FilmID string
}

// FilterPick is a confirmed filter choice: genre_<id>_<name> and friends.
type FilterPick struct {
	Dimension string // genre, country, year, rating
	ID        string
	Value     string
}

// SortPick is a confirmed sort choice from the filter keyboard.
type SortPick struct {
	Key string
}

// Action is any fixed menu token (main_menu, search, advanced_search, ...).
// The router owns the set of known action names.
type Action struct {
	Name string
}

func (FilmCard) callback()           {}
func (PageTurn) callback()           {}
func (BackToResults) callback()      {}
func (TorrentPage) callback()        {}
func (TorrentDetails) callback()     {}
func (Download) callback()           {}
func (BackToTorrent) callback()      {}
func (BackToFilm) callback()         {}
func (BackToFilters) callback()      {}
func (TorrentFilterOpen) callback()  {}
func (TorrentFilterPick) callback()  {}
func (TorrentFilterReset) callback() {}
func (FilterPick) callback()         {}
func (SortPick) callback()           {}
func (Action) callback()             {}

var filterDimensions = map[string]struct{}{
	"genre": {}, "country": {}, "year": {}, "rating": {},
}

// Parse decodes raw callback data into a tagged variant. Unstructured
// tokens come back as Action; only structurally broken tokens error.
func Parse(data string) (Callback, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return nil, ErrBadToken
	}

	switch {
	case strings.HasPrefix(data, "back_to_torrent_"):
		parts := strings.Split(strings.TrimPrefix(data, "back_to_torrent_"), "_")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		return BackToTorrent{FilmID: parts[0], MagnetHash: parts[1]}, nil

	case strings.HasPrefix(data, "back_to_filters_"):
		hash := strings.TrimPrefix(data, "back_to_filters_")
		if hash == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		return BackToFilters{Hash: hash}, nil

	case strings.HasPrefix(data, "download_"):
		parts := strings.Split(strings.TrimPrefix(data, "download_"), "_")
		if len(parts) != 2 {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		return Download{MagnetHash: parts[0], FilmID: parts[1]}, nil

	case strings.HasPrefix(data, "bf_"):
		id := strings.TrimPrefix(data, "bf_")
		if id == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		return BackToFilm{FilmID: id}, nil

	case strings.HasPrefix(data, "tfo_"):
		id := strings.TrimPrefix(data, "tfo_")
		if id == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		return TorrentFilterOpen{FilmID: id}, nil

	case strings.HasPrefix(data, "tfr_"):
		id := strings.TrimPrefix(data, "tfr_")
		if id == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		return TorrentFilterReset{FilmID: id}, nil

	case strings.HasPrefix(data, "tf_"):
		parts := strings.Split(strings.TrimPrefix(data, "tf_"), "_")
		if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		return TorrentFilterPick{Field: parts[0], Value: parts[1], FilmID: parts[2]}, nil

	case strings.HasPrefix(data, "f_"):
		return parseFilmCard(data)

	case strings.HasPrefix(data, "btr_"):
		return parseBackToResults(data)

	case strings.HasPrefix(data, "tp_"):
		parts := strings.Split(data, "_")
		if len(parts) != 3 {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		page, err := strconv.Atoi(parts[2])
		if err != nil || page < 1 {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		return TorrentPage{FilmID: parts[1], Page: page}, nil

	case strings.HasPrefix(data, "td_"):
		parts := strings.Split(data, "_")
		if len(parts) != 4 {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		index, err := strconv.Atoi(parts[2])
		page, err2 := strconv.Atoi(parts[3])
		if err != nil || err2 != nil || index < 0 || page < 1 {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		return TorrentDetails{FilmID: parts[1], Index: index, Page: page}, nil
	}

	if coll, page, ok := cutPageSuffix(data); ok {
		return PageTurn{Coll: coll, Page: page}, nil
	}

	if pick, ok := parseFilterPick(data); ok {
		return pick, nil
	}
	if key, ok := strings.CutPrefix(data, "sort_"); ok && key != "" && !strings.Contains(key, "_") {
		return SortPick{Key: key}, nil
	}

	return Action{Name: data}, nil
}

// parseFilmCard handles f_<id>_<hash>_<s|adv>_<page> for searches and
// f_<id>_<topId>_<page> for top collections.
func parseFilmCard(data string) (Callback, error) {
	parts := strings.Split(data, "_")
	switch len(parts) {
	case 5:
		page, err := strconv.Atoi(parts[4])
		if err != nil || page < 1 {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		switch parts[3] {
		case "s":
			return FilmCard{FilmID: parts[1], Coll: BasicCollection(parts[2]), Page: page}, nil
		case "adv":
			return FilmCard{FilmID: parts[1], Coll: AdvancedCollection(parts[2]), Page: page}, nil
		}
		return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
	case 4:
		page, err := strconv.Atoi(parts[3])
		if err != nil || page < 1 {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		return FilmCard{FilmID: parts[1], Coll: TopCollection(parts[2]), Page: page}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
}

// parseBackToResults handles btr_<s|adv>_<hash>_<page> and btr_<topId>_<page>.
func parseBackToResults(data string) (Callback, error) {
	parts := strings.Split(strings.TrimPrefix(data, "btr_"), "_")
	switch {
	case len(parts) == 3 && (parts[0] == "s" || parts[0] == "adv"):
		page, err := strconv.Atoi(parts[2])
		if err != nil || page < 1 {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		if parts[0] == "s" {
			return BackToResults{Coll: BasicCollection(parts[1]), Page: page}, nil
		}
		return BackToResults{Coll: AdvancedCollection(parts[1]), Page: page}, nil
	case len(parts) == 2:
		page, err := strconv.Atoi(parts[1])
		if err != nil || page < 1 {
			return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
		}
		return BackToResults{Coll: TopCollection(parts[0]), Page: page}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrBadToken, data)
}

// cutPageSuffix recognizes <collectionToken>_page_<n>.
func cutPageSuffix(data string) (Collection, int, bool) {
	idx := strings.LastIndex(data, "_page_")
	if idx <= 0 {
		return Collection{}, 0, false
	}
	page, err := strconv.Atoi(data[idx+len("_page_"):])
	if err != nil || page < 1 {
		return Collection{}, 0, false
	}
	return ParseCollectionToken(data[:idx]), page, true
}

// ParseCollectionToken decodes a collection prefix back into its variant.
// Anything that is not s_<hash> or adv_<hash> is a top collection id.
func ParseCollectionToken(token string) Collection {
	if hash, ok := strings.CutPrefix(token, "s_"); ok {
		return BasicCollection(hash)
	}
	if hash, ok := strings.CutPrefix(token, "adv_"); ok {
		return AdvancedCollection(hash)
	}
	return TopCollection(token)
}

func parseFilterPick(data string) (FilterPick, bool) {
	parts := strings.SplitN(data, "_", 3)
	if len(parts) != 3 {
		return FilterPick{}, false
	}
	if _, ok := filterDimensions[parts[0]]; !ok {
		return FilterPick{}, false
	}
	if parts[1] == "" || parts[2] == "" {
		return FilterPick{}, false
	}
	return FilterPick{Dimension: parts[0], ID: parts[1], Value: parts[2]}, true
}

// Token builders. Keep every grammar production next to its parser so the
// two cannot drift apart.

func (c Collection) PageToken(page int) string {
	return c.Token() + "_page_" + strconv.Itoa(page)
}

func (c Collection) FilmToken(filmID string, page int) string {
	switch c.Kind {
	case KindBasic:
		return fmt.Sprintf("f_%s_%s_s_%d", filmID, c.Hash, page)
	case KindAdvanced:
		return fmt.Sprintf("f_%s_%s_adv_%d", filmID, c.Hash, page)
	default:
		return fmt.Sprintf("f_%s_%s_%d", filmID, c.TopID, page)
	}
}

func (c Collection) BackToken(page int) string {
	switch c.Kind {
	case KindBasic:
		return fmt.Sprintf("btr_s_%s_%d", c.Hash, page)
	case KindAdvanced:
		return fmt.Sprintf("btr_adv_%s_%d", c.Hash, page)
	default:
		return fmt.Sprintf("btr_%s_%d", c.TopID, page)
	}
}

func TorrentPageToken(filmID string, page int) string {
	return fmt.Sprintf("tp_%s_%d", filmID, page)
}

func TorrentDetailsToken(filmID string, index, page int) string {
	return fmt.Sprintf("td_%s_%d_%d", filmID, index, page)
}

func DownloadToken(magnetHash, filmID string) string {
	return fmt.Sprintf("download_%s_%s", magnetHash, filmID)
}

func BackToTorrentToken(filmID, magnetHash string) string {
	return fmt.Sprintf("back_to_torrent_%s_%s", filmID, magnetHash)
}

func BackToFilmToken(filmID string) string {
	return "bf_" + filmID
}

func BackToFiltersToken(hash string) string {
	return "back_to_filters_" + hash
}

func TorrentFilterOpenToken(filmID string) string {
	return "tfo_" + filmID
}

func TorrentFilterPickToken(field, value, filmID string) string {
	return fmt.Sprintf("tf_%s_%s_%s", field, value, filmID)
}

func TorrentFilterResetToken(filmID string) string {
	return "tfr_" + filmID
}

func FilterPickToken(dimension, id, value string) string {
	return dimension + "_" + id + "_" + value
}

func SortPickToken(key string) string {
	return "sort_" + key
}
