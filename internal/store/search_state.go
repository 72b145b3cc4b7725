package store

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"kinobot/internal/domain"
)

// DefaultStateTTL bounds every conversation entry. When it elapses the
// associated callback tokens go stale together.
const DefaultStateTTL = time.Hour

// Key namespaces. A token never carries user data, only a hash; these
// prefixes are where the data actually lives.
const (
	keySearch         = "search:"          // + hash, basic query text
	keyAdvanced       = "search:adv_"      // + hash, SubmittedSearch JSON
	keyFiltersDraft   = "searchFilters:"   // + userID, FiltersDraft JSON
	keyTorrentFilters = "torrentFilters:"  // + userID, TorrentFilters JSON
	keySpam           = "spam:"            // + userID, timestamps JSON
	keyAboutMessage   = "about_message:"   // + userID, message id
	keyPendingInput   = "pending:"         // + userID, input mode
	keyMagnet         = "magnet_"          // + hash, magnet link
	keyFilmSnapshot   = "film_callback_"   // + filmID, MessageSnapshot JSON
	keyBackSnapshot   = "back_callback_"   // + filmID, back token
)

// Input modes a chat can be parked in while waiting for free text.
const (
	PendingBasicQuery    = "basic_query"
	PendingAdvancedQuery = "advanced_query"
)

// FiltersDraft is the advanced-search state between "open filters" and
// "submit": the chosen filters plus the keyboard message being edited
// in place.
type FiltersDraft struct {
	Query             string             `json:"query"`
	Filters           domain.UserFilters `json:"filters"`
	KeyboardMessageID int64              `json:"keyboard_message_id,omitempty"`
}

// MessageSnapshot preserves a rendered film card so back-navigation can
// restore it without refetching metadata.
type MessageSnapshot struct {
	Text      string             `json:"text"`
	PosterURL string             `json:"poster_url,omitempty"`
	Buttons   [][]SnapshotButton `json:"buttons,omitempty"`
}

type SnapshotButton struct {
	Text string `json:"text"`
	Data string `json:"data"`
}

// SearchState is the typed facade handlers talk to. All writes share a
// single TTL so each conversation's entries expire as one unit.
type SearchState struct {
	backend Backend
	ttl     time.Duration
}

func NewSearchState(backend Backend, ttl time.Duration) *SearchState {
	if ttl <= 0 {
		ttl = DefaultStateTTL
	}
	return &SearchState{backend: backend, ttl: ttl}
}

func (s *SearchState) Ping(ctx context.Context) error {
	return s.backend.Ping(ctx)
}

// StoreQuery persists a basic search query under its short hash.
func (s *SearchState) StoreQuery(ctx context.Context, hash, query string) error {
	return s.backend.Set(ctx, keySearch+hash, []byte(query), s.ttl)
}

func (s *SearchState) Query(ctx context.Context, hash string) (string, error) {
	data, err := s.backend.Get(ctx, keySearch+hash)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// StoreSubmittedSearch persists an advanced search (query plus the
// filters it was submitted with) under its short hash.
func (s *SearchState) StoreSubmittedSearch(ctx context.Context, hash string, search domain.SubmittedSearch) error {
	return s.setJSON(ctx, keyAdvanced+hash, search)
}

func (s *SearchState) SubmittedSearch(ctx context.Context, hash string) (domain.SubmittedSearch, error) {
	var search domain.SubmittedSearch
	if err := s.getJSON(ctx, keyAdvanced+hash, &search); err != nil {
		return domain.SubmittedSearch{}, err
	}
	return search, nil
}

// SaveFiltersDraft stores the in-progress advanced-search filters for a
// user. Overwrites any previous draft.
func (s *SearchState) SaveFiltersDraft(ctx context.Context, userID int64, draft FiltersDraft) error {
	return s.setJSON(ctx, keyFiltersDraft+formatUserID(userID), draft)
}

func (s *SearchState) FiltersDraft(ctx context.Context, userID int64) (FiltersDraft, error) {
	var draft FiltersDraft
	if err := s.getJSON(ctx, keyFiltersDraft+formatUserID(userID), &draft); err != nil {
		return FiltersDraft{}, err
	}
	return draft, nil
}

func (s *SearchState) ClearFiltersDraft(ctx context.Context, userID int64) error {
	return s.backend.Delete(ctx, keyFiltersDraft+formatUserID(userID))
}

// SaveTorrentFilters stores a user's per-session torrent list filters.
func (s *SearchState) SaveTorrentFilters(ctx context.Context, userID int64, filters domain.TorrentFilters) error {
	return s.setJSON(ctx, keyTorrentFilters+formatUserID(userID), filters)
}

// TorrentFilters returns the stored filters, or the zero value when
// none are stored yet.
func (s *SearchState) TorrentFilters(ctx context.Context, userID int64) (domain.TorrentFilters, error) {
	var filters domain.TorrentFilters
	err := s.getJSON(ctx, keyTorrentFilters+formatUserID(userID), &filters)
	if err == ErrNotFound {
		return domain.TorrentFilters{}, nil
	}
	if err != nil {
		return domain.TorrentFilters{}, err
	}
	return filters, nil
}

func (s *SearchState) ClearTorrentFilters(ctx context.Context, userID int64) error {
	return s.backend.Delete(ctx, keyTorrentFilters+formatUserID(userID))
}

// StoreMagnet persists a magnet link under its short hash so download
// tokens stay within the callback-data size limit.
func (s *SearchState) StoreMagnet(ctx context.Context, hash, magnet string) error {
	return s.backend.Set(ctx, keyMagnet+hash, []byte(magnet), s.ttl)
}

func (s *SearchState) Magnet(ctx context.Context, hash string) (string, error) {
	data, err := s.backend.Get(ctx, keyMagnet+hash)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// StoreFilmSnapshot keeps a rendered film card for back-navigation.
func (s *SearchState) StoreFilmSnapshot(ctx context.Context, filmID string, snap MessageSnapshot) error {
	return s.setJSON(ctx, keyFilmSnapshot+filmID, snap)
}

func (s *SearchState) FilmSnapshot(ctx context.Context, filmID string) (MessageSnapshot, error) {
	var snap MessageSnapshot
	if err := s.getJSON(ctx, keyFilmSnapshot+filmID, &snap); err != nil {
		return MessageSnapshot{}, err
	}
	return snap, nil
}

// StoreBackToken remembers which result page a film card was opened
// from, keyed by film id.
func (s *SearchState) StoreBackToken(ctx context.Context, filmID, token string) error {
	return s.backend.Set(ctx, keyBackSnapshot+filmID, []byte(token), s.ttl)
}

func (s *SearchState) BackToken(ctx context.Context, filmID string) (string, error) {
	data, err := s.backend.Get(ctx, keyBackSnapshot+filmID)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// SetPendingInput parks a chat in a free-text input mode.
func (s *SearchState) SetPendingInput(ctx context.Context, userID int64, mode string) error {
	return s.backend.Set(ctx, keyPendingInput+formatUserID(userID), []byte(mode), s.ttl)
}

// PendingInput returns the current input mode, or "" when the chat is
// not waiting for text.
func (s *SearchState) PendingInput(ctx context.Context, userID int64) (string, error) {
	data, err := s.backend.Get(ctx, keyPendingInput+formatUserID(userID))
	if err == ErrNotFound {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func (s *SearchState) ClearPendingInput(ctx context.Context, userID int64) error {
	return s.backend.Delete(ctx, keyPendingInput+formatUserID(userID))
}

// StoreAboutMessageID remembers the last "about" menu message so it can
// be deleted when the menu is reopened.
func (s *SearchState) StoreAboutMessageID(ctx context.Context, userID, messageID int64) error {
	return s.backend.Set(ctx, keyAboutMessage+formatUserID(userID), []byte(strconv.FormatInt(messageID, 10)), s.ttl)
}

func (s *SearchState) AboutMessageID(ctx context.Context, userID int64) (int64, error) {
	data, err := s.backend.Get(ctx, keyAboutMessage+formatUserID(userID))
	if err != nil {
		return 0, err
	}
	id, err := strconv.ParseInt(string(data), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: corrupt message id %q", ErrNotFound, data)
	}
	return id, nil
}

func (s *SearchState) ClearAboutMessageID(ctx context.Context, userID int64) error {
	return s.backend.Delete(ctx, keyAboutMessage+formatUserID(userID))
}

// RecordSpamHit appends now to the user's hit log, drops entries older
// than window, and returns how many hits remain. The caller compares
// the count against its limit.
func (s *SearchState) RecordSpamHit(ctx context.Context, userID int64, now time.Time, window time.Duration) (int, error) {
	key := keySpam + formatUserID(userID)

	var stamps []int64
	if err := s.getJSON(ctx, key, &stamps); err != nil && err != ErrNotFound {
		return 0, err
	}

	cutoff := now.Add(-window).UnixMilli()
	kept := stamps[:0]
	for _, ts := range stamps {
		if ts >= cutoff {
			kept = append(kept, ts)
		}
	}
	kept = append(kept, now.UnixMilli())

	// Spam entries live only as long as the window itself.
	data, err := json.Marshal(kept)
	if err != nil {
		return 0, err
	}
	if err := s.backend.Set(ctx, key, data, window); err != nil {
		return 0, err
	}
	return len(kept), nil
}

func (s *SearchState) setJSON(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return s.backend.Set(ctx, key, data, s.ttl)
}

func (s *SearchState) getJSON(ctx context.Context, key string, out any) error {
	data, err := s.backend.Get(ctx, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: corrupt entry at %s", ErrNotFound, key)
	}
	return nil
}

func formatUserID(userID int64) string {
	return strconv.FormatInt(userID, 10)
}
