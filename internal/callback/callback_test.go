package callback

import (
	"errors"
	"testing"
)

func TestShortHash(t *testing.T) {
	h := ShortHash("матрица", SearchHashLen)
	if len(h) != SearchHashLen {
		t.Fatalf("len = %d, want %d", len(h), SearchHashLen)
	}
	if h != ShortHash("матрица", SearchHashLen) {
		t.Fatal("hash is not deterministic")
	}
	if ShortHash("матрица", MagnetHashLen) == h {
		t.Fatal("different lengths must differ")
	}
	if got := ShortHash("x", 0); len(got) != SearchHashLen {
		t.Fatalf("bad length fallback: got %d chars", len(got))
	}
}

func TestParseVariants(t *testing.T) {
	tests := []struct {
		data string
		want Callback
	}{
		{"f_301_ab12c_s_3", FilmCard{FilmID: "301", Coll: BasicCollection("ab12c"), Page: 3}},
		{"f_301_ab12c_adv_1", FilmCard{FilmID: "301", Coll: AdvancedCollection("ab12c"), Page: 1}},
		{"f_301_t250_2", FilmCard{FilmID: "301", Coll: TopCollection("t250"), Page: 2}},
		{"s_ab12c_page_4", PageTurn{Coll: BasicCollection("ab12c"), Page: 4}},
		{"adv_ab12c_page_2", PageTurn{Coll: AdvancedCollection("ab12c"), Page: 2}},
		{"tpop_page_7", PageTurn{Coll: TopCollection("tpop"), Page: 7}},
		{"btr_s_ab12c_3", BackToResults{Coll: BasicCollection("ab12c"), Page: 3}},
		{"btr_adv_ab12c_1", BackToResults{Coll: AdvancedCollection("ab12c"), Page: 1}},
		{"btr_t250_5", BackToResults{Coll: TopCollection("t250"), Page: 5}},
		{"tp_301_2", TorrentPage{FilmID: "301", Page: 2}},
		{"td_301_12_3", TorrentDetails{FilmID: "301", Index: 12, Page: 3}},
		{"download_deadbeef_301", Download{MagnetHash: "deadbeef", FilmID: "301"}},
		{"back_to_torrent_301_deadbeef", BackToTorrent{FilmID: "301", MagnetHash: "deadbeef"}},
		{"back_to_filters_ab12c", BackToFilters{Hash: "ab12c"}},
		{"tfo_301", TorrentFilterOpen{FilmID: "301"}},
		{"tf_seeders_10_301", TorrentFilterPick{Field: "seeders", Value: "10", FilmID: "301"}},
		{"tf_quality_1080_301", TorrentFilterPick{Field: "quality", Value: "1080", FilmID: "301"}},
		{"tfr_301", TorrentFilterReset{FilmID: "301"}},
		{"genre_1_триллер", FilterPick{Dimension: "genre", ID: "1", Value: "триллер"}},
		{"country_none_Любая", FilterPick{Dimension: "country", ID: "none", Value: "Любая"}},
		{"year_3_2000-2010", FilterPick{Dimension: "year", ID: "3", Value: "2000-2010"}},
		{"rating_2_7-10", FilterPick{Dimension: "rating", ID: "2", Value: "7-10"}},
		{"sort_RATING", SortPick{Key: "RATING"}},
		{"main_menu", Action{Name: "main_menu"}},
		{"advanced_search", Action{Name: "advanced_search"}},
		{"t250", Action{Name: "t250"}},
	}
	for _, tt := range tests {
		got, err := Parse(tt.data)
		if err != nil {
			t.Errorf("Parse(%q) error: %v", tt.data, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Parse(%q) = %#v, want %#v", tt.data, got, tt.want)
		}
	}
}

func TestParseRejectsMalformed(t *testing.T) {
	for _, data := range []string{
		"",
		"f_301",
		"f_301_ab12c_s_zero",
		"f_301_ab12c_xyz_3",
		"tp_301",
		"tp_301_0",
		"td_301_x_1",
		"download_onlyhash",
		"back_to_torrent_301",
		"tfo_",
		"tf_seeders_10",
	} {
		if _, err := Parse(data); !errors.Is(err, ErrBadToken) {
			t.Errorf("Parse(%q): want ErrBadToken, got %v", data, err)
		}
	}
}

func TestTokenRoundTrip(t *testing.T) {
	colls := []Collection{
		BasicCollection("ab12c"),
		AdvancedCollection("ff00a"),
		TopCollection("tnew"),
	}
	for _, c := range colls {
		got, err := Parse(c.PageToken(6))
		if err != nil {
			t.Fatalf("page token for %v: %v", c, err)
		}
		if got != (PageTurn{Coll: c, Page: 6}) {
			t.Fatalf("page round trip for %v: %#v", c, got)
		}

		got, err = Parse(c.FilmToken("301", 2))
		if err != nil {
			t.Fatalf("film token for %v: %v", c, err)
		}
		if got != (FilmCard{FilmID: "301", Coll: c, Page: 2}) {
			t.Fatalf("film round trip for %v: %#v", c, got)
		}

		got, err = Parse(c.BackToken(2))
		if err != nil {
			t.Fatalf("back token for %v: %v", c, err)
		}
		if got != (BackToResults{Coll: c, Page: 2}) {
			t.Fatalf("back round trip for %v: %#v", c, got)
		}
	}

	if got, _ := Parse(TorrentDetailsToken("301", 12, 3)); got != (TorrentDetails{FilmID: "301", Index: 12, Page: 3}) {
		t.Fatalf("torrent details round trip: %#v", got)
	}
	if got, _ := Parse(DownloadToken("deadbeef", "301")); got != (Download{MagnetHash: "deadbeef", FilmID: "301"}) {
		t.Fatalf("download round trip: %#v", got)
	}
	if got, _ := Parse(BackToTorrentToken("301", "deadbeef")); got != (BackToTorrent{FilmID: "301", MagnetHash: "deadbeef"}) {
		t.Fatalf("back-to-torrent round trip: %#v", got)
	}
	if got, _ := Parse(BackToFiltersToken("ab12c")); got != (BackToFilters{Hash: "ab12c"}) {
		t.Fatalf("back-to-filters round trip: %#v", got)
	}
	if got, _ := Parse(FilterPickToken("genre", "5", "драма")); got != (FilterPick{Dimension: "genre", ID: "5", Value: "драма"}) {
		t.Fatalf("filter pick round trip: %#v", got)
	}
	if got, _ := Parse(SortPickToken("YEAR")); got != (SortPick{Key: "YEAR"}) {
		t.Fatalf("sort pick round trip: %#v", got)
	}
	if got, _ := Parse(TorrentFilterPickToken("sort", "size", "301")); got != (TorrentFilterPick{Field: "sort", Value: "size", FilmID: "301"}) {
		t.Fatalf("torrent filter pick round trip: %#v", got)
	}
	if got, _ := Parse(TorrentFilterOpenToken("301")); got != (TorrentFilterOpen{FilmID: "301"}) {
		t.Fatalf("torrent filter open round trip: %#v", got)
	}
	if got, _ := Parse(TorrentFilterResetToken("301")); got != (TorrentFilterReset{FilmID: "301"}) {
		t.Fatalf("torrent filter reset round trip: %#v", got)
	}
}
