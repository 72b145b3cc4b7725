package bot

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"kinobot/internal/callback"
	"kinobot/internal/domain"
	"kinobot/internal/providers/kinopoisk"
	"kinobot/internal/store"
	"kinobot/internal/torrents"
)

type sentMessage struct {
	kind     string // message, photo, document, edit, delete
	chatID   int64
	id       int64
	text     string
	keyboard Keyboard
}

type fakeTransport struct {
	mu      sync.Mutex
	nextID  int64
	history []sentMessage
	answers []string
}

func (f *fakeTransport) record(m sentMessage) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	m.id = f.nextID
	f.history = append(f.history, m)
	return f.nextID
}

func (f *fakeTransport) SendMessage(_ context.Context, chatID int64, text string, kb Keyboard) (int64, error) {
	return f.record(sentMessage{kind: "message", chatID: chatID, text: text, keyboard: kb}), nil
}

func (f *fakeTransport) SendPhoto(_ context.Context, chatID int64, _, caption string, kb Keyboard) (int64, error) {
	return f.record(sentMessage{kind: "photo", chatID: chatID, text: caption, keyboard: kb}), nil
}

func (f *fakeTransport) SendDocument(_ context.Context, chatID int64, filename string, _ io.Reader, caption string, kb Keyboard) (int64, error) {
	return f.record(sentMessage{kind: "document", chatID: chatID, text: filename + "|" + caption, keyboard: kb}), nil
}

func (f *fakeTransport) EditMessage(_ context.Context, chatID, messageID int64, text string, kb Keyboard) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, sentMessage{kind: "edit", chatID: chatID, id: messageID, text: text, keyboard: kb})
	return nil
}

func (f *fakeTransport) DeleteMessage(_ context.Context, chatID, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.history = append(f.history, sentMessage{kind: "delete", chatID: chatID, id: messageID})
	return nil
}

func (f *fakeTransport) AnswerCallback(_ context.Context, _, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers = append(f.answers, text)
	return nil
}

func (f *fakeTransport) last() sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.history) == 0 {
		return sentMessage{}
	}
	return f.history[len(f.history)-1]
}

func (f *fakeTransport) lastOfKind(kind string) (sentMessage, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := len(f.history) - 1; i >= 0; i-- {
		if f.history[i].kind == kind {
			return f.history[i], true
		}
	}
	return sentMessage{}, false
}

type fakeMeta struct {
	films      map[string]domain.Film
	page       domain.SearchPage
	lastQuery  string
	lastFilter domain.SearchFilters
	lastPage   int
}

func (f *fakeMeta) SearchFilms(_ context.Context, query string, filters domain.SearchFilters, page int) (domain.SearchPage, error) {
	f.lastQuery, f.lastFilter, f.lastPage = query, filters, page
	return f.page, nil
}

func (f *fakeMeta) Collection(_ context.Context, apiType string, page int) (domain.SearchPage, error) {
	f.lastQuery, f.lastPage = apiType, page
	return f.page, nil
}

func (f *fakeMeta) FilmDetails(_ context.Context, filmID string) (domain.Film, error) {
	film, ok := f.films[filmID]
	if !ok {
		return domain.Film{}, fmt.Errorf("no film %s", filmID)
	}
	return film, nil
}

func (f *fakeMeta) Filters(context.Context) (kinopoisk.Dictionaries, error) {
	return kinopoisk.Dictionaries{
		Genres:    []domain.FilterChoice{{ID: "1", Name: "триллер"}, {ID: "2", Name: "фантастика"}},
		Countries: []domain.FilterChoice{{ID: "1", Name: "США"}},
	}, nil
}

type fakeIndex struct {
	candidates []torrents.Candidate
}

func (f *fakeIndex) Search(context.Context, string) ([]torrents.Candidate, error) {
	return f.candidates, nil
}

type fakeConverter struct {
	path string
	err  error
}

func (f *fakeConverter) Convert(context.Context, string, string) (string, error) {
	return f.path, f.err
}

func (f *fakeConverter) Cleanup(string) {}

func matrix() domain.Film {
	return domain.Film{
		KinopoiskID: 301,
		NameRu:      "Матрица",
		NameEn:      "The Matrix",
		Year:        1999,
		Rating:      8.5,
		Type:        domain.FilmTypeMovie,
		PosterURL:   "https://img.test/301.jpg",
	}
}

func testRouter(t *testing.T, opts ...Option) (*Router, *fakeTransport, *fakeMeta, *fakeIndex, *store.SearchState) {
	t.Helper()
	transport := &fakeTransport{}
	meta := &fakeMeta{
		films: map[string]domain.Film{"301": matrix()},
		page:  domain.SearchPage{Total: 1, Items: []domain.Film{matrix()}},
	}
	index := &fakeIndex{}
	state := store.NewSearchState(store.NewMemoryBackend(), time.Hour)
	router := NewRouter(Deps{
		Transport: transport,
		State:     state,
		Metadata:  meta,
		Index:     index,
		Converter: &fakeConverter{path: "/tmp/nonexistent.torrent"},
	}, opts...)
	return router, transport, meta, index, state
}

func TestBasicSearchProducesList(t *testing.T) {
	router, transport, meta, _, state := testRouter(t)
	ctx := context.Background()

	router.HandleMessage(ctx, IncomingMessage{ChatID: 10, UserID: 10, Text: "матрица"})

	if meta.lastQuery != "матрица" || meta.lastPage != 1 {
		t.Fatalf("api call: query=%q page=%d", meta.lastQuery, meta.lastPage)
	}
	msg, ok := transport.lastOfKind("message")
	if !ok {
		t.Fatal("no message sent")
	}
	if !strings.Contains(msg.text, "матрица") {
		t.Fatalf("list header = %q", msg.text)
	}
	if len(msg.keyboard) < 2 {
		t.Fatalf("keyboard rows = %d", len(msg.keyboard))
	}

	// The film button token must resolve back to the stored query.
	filmData := msg.keyboard[0][0].Data
	parsed, err := callback.Parse(filmData)
	if err != nil {
		t.Fatal(err)
	}
	card, ok := parsed.(callback.FilmCard)
	if !ok || card.FilmID != "301" {
		t.Fatalf("film token = %#v", parsed)
	}
	query, err := state.Query(ctx, card.Coll.Hash)
	if err != nil || query != "матрица" {
		t.Fatalf("stored query = %q, %v", query, err)
	}
}

func TestOpenFilmCardFromList(t *testing.T) {
	router, transport, _, _, state := testRouter(t)
	ctx := context.Background()

	coll := callback.BasicCollection("ab12c")
	_ = state.StoreQuery(ctx, "ab12c", "матрица")

	router.HandleCallback(ctx, CallbackQuery{
		ID: "cb1", ChatID: 10, UserID: 10, MessageID: 5,
		Data: coll.FilmToken("301", 2),
	})

	card, ok := transport.lastOfKind("photo")
	if !ok {
		t.Fatal("no photo card sent")
	}
	if !strings.Contains(card.text, "Матрица") || !strings.Contains(card.text, "1999") {
		t.Fatalf("caption = %q", card.text)
	}

	token, err := state.BackToken(ctx, "301")
	if err != nil || token != coll.BackToken(2) {
		t.Fatalf("back token = %q, %v", token, err)
	}
}

func TestStaleCollectionToken(t *testing.T) {
	router, transport, _, _, _ := testRouter(t)

	router.HandleCallback(context.Background(), CallbackQuery{
		ID: "cb1", ChatID: 10, UserID: 10, MessageID: 5,
		Data: "s_zzzzz_page_2",
	})

	edit, ok := transport.lastOfKind("edit")
	if !ok || edit.text != textStale {
		t.Fatalf("stale token reply = %+v", edit)
	}
}

func TestTorrentListAndDetails(t *testing.T) {
	router, transport, _, index, state := testRouter(t)
	ctx := context.Background()

	index.candidates = []torrents.Candidate{
		{Title: "Matrix 1080p BDRip", Quality: 1080, Seeders: 90, Voices: []string{"LostFilm"}, Magnet: "magnet:?xt=urn:btih:aaa", Size: 2 << 30},
		{Title: "Matrix 720p", Quality: 720, Seeders: 10, Voices: []string{"Дубляж"}, Magnet: "magnet:?xt=urn:btih:bbb", Size: 1 << 30},
	}

	router.HandleCallback(ctx, CallbackQuery{
		ID: "cb1", ChatID: 10, UserID: 10, MessageID: 5,
		Data: callback.TorrentPageToken("301", 1),
	})

	list, ok := transport.lastOfKind("message")
	if !ok {
		t.Fatal("no torrent list sent")
	}
	if !strings.Contains(list.text, "Matrix 1080p BDRip") || !strings.Contains(list.text, "Найдено: 2") {
		t.Fatalf("list = %q", list.text)
	}

	// First number button points at the best-ranked candidate.
	detailToken := list.keyboard[0][0].Data
	router.HandleCallback(ctx, CallbackQuery{
		ID: "cb2", ChatID: 10, UserID: 10, MessageID: list.id,
		Data: detailToken,
	})

	detail, ok := transport.lastOfKind("edit")
	if !ok {
		t.Fatal("no detail rendered")
	}
	if !strings.Contains(detail.text, "Matrix 1080p BDRip") || !strings.Contains(detail.text, "1080p") {
		t.Fatalf("detail = %q", detail.text)
	}

	// Magnet is persisted under the hash in the download button.
	download := detail.keyboard[0][0].Data
	parsed, _ := callback.Parse(download)
	dl, ok := parsed.(callback.Download)
	if !ok {
		t.Fatalf("download token = %#v", parsed)
	}
	magnet, err := state.Magnet(ctx, dl.MagnetHash)
	if err != nil || magnet != "magnet:?xt=urn:btih:aaa" {
		t.Fatalf("stored magnet = %q, %v", magnet, err)
	}
}

func TestDownloadWithExpiredMagnet(t *testing.T) {
	router, transport, _, _, _ := testRouter(t)

	router.HandleCallback(context.Background(), CallbackQuery{
		ID: "cb1", ChatID: 10, UserID: 10,
		Data: callback.DownloadToken("deadbeef", "301"),
	})

	if len(transport.answers) == 0 || transport.answers[len(transport.answers)-1] != textMagnetStale {
		t.Fatalf("answers = %v", transport.answers)
	}
}

func TestSpamBlocking(t *testing.T) {
	router, transport, _, _, _ := testRouter(t, WithSpamLimit(2, 3*time.Second))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		router.HandleMessage(ctx, IncomingMessage{ChatID: 10, UserID: 10, Text: "/start"})
	}
	before := len(transport.history)
	router.HandleMessage(ctx, IncomingMessage{ChatID: 10, UserID: 10, Text: "/start"})
	if len(transport.history) != before {
		t.Fatal("blocked update still produced output")
	}
}

func TestAdminAllowList(t *testing.T) {
	router, transport, _, _, _ := testRouter(t, WithAdmins([]int64{1}))
	ctx := context.Background()

	router.HandleMessage(ctx, IncomingMessage{ChatID: 10, UserID: 99, Text: "/start"})
	if msg := transport.last(); msg.text != textAccessDenied {
		t.Fatalf("stranger got %q", msg.text)
	}

	router.HandleMessage(ctx, IncomingMessage{ChatID: 10, UserID: 1, Text: "/start"})
	if msg := transport.last(); msg.text != textMainMenu {
		t.Fatalf("admin got %q", msg.text)
	}
}

func TestAdvancedSearchFlow(t *testing.T) {
	router, transport, meta, _, state := testRouter(t)
	ctx := context.Background()

	// Open advanced search, which parks the chat waiting for a query.
	router.HandleCallback(ctx, CallbackQuery{ID: "cb1", ChatID: 10, UserID: 10, MessageID: 1, Data: actionAdvancedSearch})
	mode, _ := state.PendingInput(ctx, 10)
	if mode != store.PendingAdvancedQuery {
		t.Fatalf("pending mode = %q", mode)
	}

	// The query produces the filter keyboard.
	router.HandleMessage(ctx, IncomingMessage{ChatID: 10, UserID: 10, Text: "интерстеллар"})
	kbMsg, ok := transport.lastOfKind("message")
	if !ok || !strings.Contains(kbMsg.text, "интерстеллар") {
		t.Fatalf("filters keyboard = %+v", kbMsg)
	}

	// Pick a genre, then submit.
	router.HandleCallback(ctx, CallbackQuery{
		ID: "cb2", ChatID: 10, UserID: 10, MessageID: kbMsg.id,
		Data: callback.FilterPickToken("genre", "2", "фантастика"),
	})
	router.HandleCallback(ctx, CallbackQuery{
		ID: "cb3", ChatID: 10, UserID: 10, MessageID: kbMsg.id,
		Data: actionFiltersSubmit,
	})

	if meta.lastQuery != "интерстеллар" || meta.lastFilter.Genres != "2" {
		t.Fatalf("api call: query=%q genres=%q", meta.lastQuery, meta.lastFilter.Genres)
	}

	// The draft is gone, the submitted search is addressable by hash.
	if _, err := state.FiltersDraft(ctx, 10); err == nil {
		t.Fatal("draft should be cleared after submit")
	}
	list, _ := transport.lastOfKind("edit")
	var hash string
	for _, row := range list.keyboard {
		for _, b := range row {
			if parsed, err := callback.Parse(b.Data); err == nil {
				if card, ok := parsed.(callback.FilmCard); ok {
					hash = card.Coll.Hash
				}
			}
		}
	}
	if hash == "" {
		t.Fatalf("no film token in result keyboard: %+v", list.keyboard)
	}
	search, err := state.SubmittedSearch(ctx, hash)
	if err != nil || search.Query != "интерстеллар" {
		t.Fatalf("submitted search = %+v, %v", search, err)
	}
}

func TestAdvancedTokensAreUserScoped(t *testing.T) {
	router, transport, _, _, state := testRouter(t)
	ctx := context.Background()

	// Two users submit the identical advanced search.
	hashes := make(map[int64]string)
	for _, userID := range []int64{10, 20} {
		draft := store.FiltersDraft{
			Query:   "дюна",
			Filters: domain.UserFilters{Genre: &domain.FilterChoice{ID: "2", Name: "фантастика"}},
		}
		if err := state.SaveFiltersDraft(ctx, userID, draft); err != nil {
			t.Fatal(err)
		}
		router.HandleCallback(ctx, CallbackQuery{
			ID: "cb", ChatID: userID, UserID: userID, MessageID: 1,
			Data: actionFiltersSubmit,
		})

		list, _ := transport.lastOfKind("edit")
		for _, row := range list.keyboard {
			for _, b := range row {
				if parsed, err := callback.Parse(b.Data); err == nil {
					if card, ok := parsed.(callback.FilmCard); ok {
						hashes[userID] = card.Coll.Hash
					}
				}
			}
		}
	}

	if hashes[10] == "" || hashes[20] == "" {
		t.Fatalf("missing tokens: %v", hashes)
	}
	if hashes[10] == hashes[20] {
		t.Fatalf("identical searches from different users share token %q", hashes[10])
	}
}

func TestFiltersOnlySearch(t *testing.T) {
	router, transport, meta, _, state := testRouter(t)
	ctx := context.Background()

	router.HandleCallback(ctx, CallbackQuery{ID: "cb1", ChatID: 10, UserID: 10, MessageID: 1, Data: actionAdvancedSearch})
	prompt, _ := transport.lastOfKind("edit")
	if len(prompt.keyboard) == 0 || prompt.keyboard[0][0].Data != actionFiltersOnly {
		t.Fatalf("prompt keyboard = %+v", prompt.keyboard)
	}

	// Entering filter editing without a query must also stop waiting
	// for one.
	router.HandleCallback(ctx, CallbackQuery{ID: "cb2", ChatID: 10, UserID: 10, MessageID: 1, Data: actionFiltersOnly})
	if mode, _ := state.PendingInput(ctx, 10); mode != "" {
		t.Fatalf("pending mode = %q", mode)
	}

	// Submitting with nothing selected is rejected.
	router.HandleCallback(ctx, CallbackQuery{ID: "cb3", ChatID: 10, UserID: 10, MessageID: 1, Data: actionFiltersSubmit})
	if got := transport.answers[len(transport.answers)-1]; got != textPickAnyFilter {
		t.Fatalf("empty submit answer = %q", got)
	}

	router.HandleCallback(ctx, CallbackQuery{
		ID: "cb4", ChatID: 10, UserID: 10, MessageID: 1,
		Data: callback.FilterPickToken("genre", "2", "фантастика"),
	})
	router.HandleCallback(ctx, CallbackQuery{ID: "cb5", ChatID: 10, UserID: 10, MessageID: 1, Data: actionFiltersSubmit})

	if meta.lastQuery != "" || meta.lastFilter.Genres != "2" {
		t.Fatalf("api call: query=%q genres=%q", meta.lastQuery, meta.lastFilter.Genres)
	}
	list, _ := transport.lastOfKind("edit")
	if !strings.Contains(list.text, textFiltersOnlyTitle) {
		t.Fatalf("list header = %q", list.text)
	}
}

func TestTorrentListSkipsDeadReleases(t *testing.T) {
	router, transport, _, index, _ := testRouter(t)

	index.candidates = []torrents.Candidate{
		{Title: "Matrix 1080p alive", Quality: 1080, Seeders: 3, Magnet: "magnet:?xt=urn:btih:aaa"},
		{Title: "Dead Release 1080p", Quality: 1080, Seeders: 0, Magnet: "magnet:?xt=urn:btih:bbb"},
	}

	router.HandleCallback(context.Background(), CallbackQuery{
		ID: "cb1", ChatID: 10, UserID: 10, MessageID: 5,
		Data: callback.TorrentPageToken("301", 1),
	})

	list, ok := transport.lastOfKind("message")
	if !ok {
		t.Fatal("no torrent list sent")
	}
	if strings.Contains(list.text, "Dead Release") {
		t.Fatalf("seederless release rendered: %q", list.text)
	}
	if !strings.Contains(list.text, "Найдено: 1") {
		t.Fatalf("list = %q", list.text)
	}
}

func TestBackToFilmFromTorrentList(t *testing.T) {
	router, transport, _, index, state := testRouter(t)
	ctx := context.Background()

	coll := callback.BasicCollection("ab12c")
	_ = state.StoreQuery(ctx, "ab12c", "матрица")
	index.candidates = []torrents.Candidate{
		{Title: "Matrix 1080p", Quality: 1080, Seeders: 5, Magnet: "magnet:?xt=urn:btih:aaa"},
	}

	// Card open stores the snapshot; the torrent list replaces the card.
	router.HandleCallback(ctx, CallbackQuery{
		ID: "cb1", ChatID: 10, UserID: 10, MessageID: 5,
		Data: coll.FilmToken("301", 2),
	})
	card, _ := transport.lastOfKind("photo")
	router.HandleCallback(ctx, CallbackQuery{
		ID: "cb2", ChatID: 10, UserID: 10, MessageID: card.id,
		Data: callback.TorrentPageToken("301", 1),
	})
	list, _ := transport.lastOfKind("message")

	backData := ""
	for _, row := range list.keyboard {
		for _, b := range row {
			if parsed, err := callback.Parse(b.Data); err == nil {
				if back, ok := parsed.(callback.BackToFilm); ok && back.FilmID == "301" {
					backData = b.Data
				}
			}
		}
	}
	if backData == "" {
		t.Fatalf("no back-to-film button in %+v", list.keyboard)
	}

	router.HandleCallback(ctx, CallbackQuery{
		ID: "cb3", ChatID: 10, UserID: 10, MessageID: list.id,
		Data: backData,
	})

	restored, ok := transport.lastOfKind("photo")
	if !ok || restored.id == card.id {
		t.Fatal("card was not resent")
	}
	if restored.text != card.text {
		t.Fatalf("restored caption %q differs from original %q", restored.text, card.text)
	}
	if del, ok := transport.lastOfKind("delete"); !ok || del.id != list.id {
		t.Fatalf("torrent list message not replaced: %+v", del)
	}
}

func TestPageTurnEditsInPlace(t *testing.T) {
	router, transport, meta, _, state := testRouter(t)
	ctx := context.Background()

	films := make([]domain.Film, 20)
	for i := range films {
		films[i] = domain.Film{KinopoiskID: int64(i + 1), NameRu: fmt.Sprintf("Фильм %d", i+1), Type: domain.FilmTypeMovie}
	}
	meta.page = domain.SearchPage{Total: 25, Items: films}
	_ = state.StoreQuery(ctx, "ab12c", "эпопея")

	router.HandleCallback(ctx, CallbackQuery{
		ID: "cb1", ChatID: 10, UserID: 10, MessageID: 7,
		Data: "s_ab12c_page_3",
	})

	if meta.lastPage != 2 {
		t.Fatalf("display page 3 must hit api page 2, got %d", meta.lastPage)
	}
	edit, ok := transport.lastOfKind("edit")
	if !ok || edit.id != 7 {
		t.Fatalf("expected in-place edit of message 7, got %+v", edit)
	}
	if !strings.Contains(edit.text, "стр. 3 из 3") {
		t.Fatalf("header = %q", edit.text)
	}
}

func TestTopCollectionOpens(t *testing.T) {
	router, _, meta, _, _ := testRouter(t)

	router.HandleCallback(context.Background(), CallbackQuery{
		ID: "cb1", ChatID: 10, UserID: 10, MessageID: 3, Data: "t250",
	})
	if meta.lastQuery != "TOP_250_MOVIES" {
		t.Fatalf("collection type = %q", meta.lastQuery)
	}
}
