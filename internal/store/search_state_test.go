package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"kinobot/internal/domain"
)

func newTestState(t *testing.T) (*SearchState, *MemoryBackend, *time.Time) {
	t.Helper()
	backend := NewMemoryBackend()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	backend.SetClock(func() time.Time { return now })
	return NewSearchState(backend, time.Hour), backend, &now
}

func TestQueryRoundTripAndExpiry(t *testing.T) {
	state, _, now := newTestState(t)
	ctx := context.Background()

	if err := state.StoreQuery(ctx, "ab12c", "матрица"); err != nil {
		t.Fatal(err)
	}
	got, err := state.Query(ctx, "ab12c")
	if err != nil {
		t.Fatal(err)
	}
	if got != "матрица" {
		t.Fatalf("query = %q", got)
	}

	*now = now.Add(time.Hour + time.Second)
	if _, err := state.Query(ctx, "ab12c"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after TTL: want ErrNotFound, got %v", err)
	}
}

func TestSubmittedSearchRoundTrip(t *testing.T) {
	state, _, _ := newTestState(t)
	ctx := context.Background()

	search := domain.SubmittedSearch{
		Query: "интерстеллар",
		Filters: domain.SearchFilters{
			Genres:     "2",
			YearFrom:   2010,
			YearTo:     2020,
			RatingFrom: 7,
			RatingTo:   10,
			Order:      "RATING",
		},
		FiltersLabel: "Жанр: фантастика",
	}
	if err := state.StoreSubmittedSearch(ctx, "ff00a", search); err != nil {
		t.Fatal(err)
	}
	got, err := state.SubmittedSearch(ctx, "ff00a")
	if err != nil {
		t.Fatal(err)
	}
	if got.Query != search.Query || got.Filters != search.Filters || got.FiltersLabel != search.FiltersLabel {
		t.Fatalf("round trip mismatch: %#v", got)
	}

	if _, err := state.SubmittedSearch(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing hash: want ErrNotFound, got %v", err)
	}
}

func TestFiltersDraftLifecycle(t *testing.T) {
	state, _, _ := newTestState(t)
	ctx := context.Background()

	draft := FiltersDraft{
		Query: "шерлок",
		Filters: domain.UserFilters{
			Genre:  &domain.FilterChoice{ID: "1", Name: "триллер"},
			SortBy: "YEAR",
		},
		KeyboardMessageID: 42,
	}
	if err := state.SaveFiltersDraft(ctx, 777, draft); err != nil {
		t.Fatal(err)
	}
	got, err := state.FiltersDraft(ctx, 777)
	if err != nil {
		t.Fatal(err)
	}
	if got.Query != "шерлок" || got.KeyboardMessageID != 42 || got.Filters.Genre == nil || got.Filters.Genre.Name != "триллер" {
		t.Fatalf("draft mismatch: %#v", got)
	}

	if err := state.ClearFiltersDraft(ctx, 777); err != nil {
		t.Fatal(err)
	}
	if _, err := state.FiltersDraft(ctx, 777); !errors.Is(err, ErrNotFound) {
		t.Fatalf("after clear: want ErrNotFound, got %v", err)
	}
}

func TestTorrentFiltersDefaultWhenMissing(t *testing.T) {
	state, _, _ := newTestState(t)
	ctx := context.Background()

	got, err := state.TorrentFilters(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != (domain.TorrentFilters{}) {
		t.Fatalf("missing filters should be zero value, got %#v", got)
	}

	want := domain.TorrentFilters{MinSeeders: 10, MinQuality: "1080", SortBySize: true}
	if err := state.SaveTorrentFilters(ctx, 1, want); err != nil {
		t.Fatal(err)
	}
	got, err = state.TorrentFilters(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if got != want {
		t.Fatalf("filters = %#v, want %#v", got, want)
	}
}

func TestPendingInput(t *testing.T) {
	state, _, _ := newTestState(t)
	ctx := context.Background()

	mode, err := state.PendingInput(ctx, 5)
	if err != nil || mode != "" {
		t.Fatalf("idle chat: mode=%q err=%v", mode, err)
	}

	if err := state.SetPendingInput(ctx, 5, PendingAdvancedQuery); err != nil {
		t.Fatal(err)
	}
	mode, err = state.PendingInput(ctx, 5)
	if err != nil || mode != PendingAdvancedQuery {
		t.Fatalf("mode=%q err=%v", mode, err)
	}

	if err := state.ClearPendingInput(ctx, 5); err != nil {
		t.Fatal(err)
	}
	mode, _ = state.PendingInput(ctx, 5)
	if mode != "" {
		t.Fatalf("after clear: mode=%q", mode)
	}
}

func TestRecordSpamHitWindow(t *testing.T) {
	state, _, now := newTestState(t)
	ctx := context.Background()
	window := 3 * time.Second

	for i := 1; i <= 3; i++ {
		count, err := state.RecordSpamHit(ctx, 9, *now, window)
		if err != nil {
			t.Fatal(err)
		}
		if count != i {
			t.Fatalf("hit %d: count = %d", i, count)
		}
	}

	// Old hits fall out once the window slides past them.
	later := now.Add(4 * time.Second)
	count, err := state.RecordSpamHit(ctx, 9, later, window)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("after window: count = %d, want 1", count)
	}
}

func TestRecordSpamHitKeyExpiresWithWindow(t *testing.T) {
	state, backend, now := newTestState(t)
	ctx := context.Background()
	window := 3 * time.Second

	if _, err := state.RecordSpamHit(ctx, 9, *now, window); err != nil {
		t.Fatal(err)
	}

	// The entry must live only as long as the window, not the state TTL.
	*now = now.Add(window + time.Second)
	if _, err := backend.Get(ctx, keySpam+formatUserID(9)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("spam key after window: err = %v, want ErrNotFound", err)
	}

	count, err := state.RecordSpamHit(ctx, 9, *now, window)
	if err != nil {
		t.Fatal(err)
	}
	if count != 1 {
		t.Fatalf("count after expiry = %d, want 1", count)
	}
}

func TestMagnetAndSnapshots(t *testing.T) {
	state, _, _ := newTestState(t)
	ctx := context.Background()

	magnet := "magnet:?xt=urn:btih:deadbeef"
	if err := state.StoreMagnet(ctx, "deadbeef", magnet); err != nil {
		t.Fatal(err)
	}
	got, err := state.Magnet(ctx, "deadbeef")
	if err != nil || got != magnet {
		t.Fatalf("magnet = %q err=%v", got, err)
	}

	snap := MessageSnapshot{
		Text:      "Матрица (1999)",
		PosterURL: "https://example.test/poster.jpg",
		Buttons:   [][]SnapshotButton{{{Text: "Торренты", Data: "tp_301_1"}}},
	}
	if err := state.StoreFilmSnapshot(ctx, "301", snap); err != nil {
		t.Fatal(err)
	}
	gotSnap, err := state.FilmSnapshot(ctx, "301")
	if err != nil {
		t.Fatal(err)
	}
	if gotSnap.Text != snap.Text || len(gotSnap.Buttons) != 1 {
		t.Fatalf("snapshot mismatch: %#v", gotSnap)
	}

	if err := state.StoreBackToken(ctx, "301", "btr_s_ab12c_3"); err != nil {
		t.Fatal(err)
	}
	token, err := state.BackToken(ctx, "301")
	if err != nil || token != "btr_s_ab12c_3" {
		t.Fatalf("back token = %q err=%v", token, err)
	}
}
