// Package kinopoisk talks to the Kinopoisk metadata API: keyword and
// filtered search, top collections, film details and the filter
// dictionaries, with API-key rotation on quota errors.
package kinopoisk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"kinobot/internal/domain"
	"kinobot/internal/metrics"
)

const (
	defaultBaseURL    = "https://kinopoiskapiunofficial.tech"
	filtersCacheKey   = "kinobot:kp:filters"
	filtersCacheTTL   = 24 * time.Hour
	defaultRateLimit  = 5 // requests per second across all chats
	maxResponseLength = 1 << 20
)

type Client struct {
	ring    *KeyRing
	baseURL string
	http    *http.Client
	redis   *redis.Client
	limiter *rate.Limiter
}

type Config struct {
	Keys      []string
	BaseURL   string
	Client    *http.Client
	Redis     *redis.Client
	RateLimit float64
}

func NewClient(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = defaultRateLimit
	}
	return &Client{
		ring:    NewKeyRing(cfg.Keys),
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		redis:   cfg.Redis,
		limiter: rate.NewLimiter(rate.Limit(limit), 1),
	}
}

// Keys exposes the ring so operators can reset it after quota renewal.
func (c *Client) Keys() *KeyRing { return c.ring }

// SearchFilms runs a keyword search, optionally constrained by the
// advanced-search filters. page is the API's 20-item page.
func (c *Client) SearchFilms(ctx context.Context, query string, filters domain.SearchFilters, page int) (domain.SearchPage, error) {
	params := url.Values{}
	if query != "" {
		params.Set("keyword", query)
	}
	if filters.Countries != "" {
		params.Set("countries", filters.Countries)
	}
	if filters.Genres != "" {
		params.Set("genres", filters.Genres)
	}
	if filters.YearFrom > 0 {
		params.Set("yearFrom", strconv.Itoa(filters.YearFrom))
	}
	if filters.YearTo > 0 {
		params.Set("yearTo", strconv.Itoa(filters.YearTo))
	}
	if filters.RatingFrom > 0 {
		params.Set("ratingFrom", strconv.FormatFloat(filters.RatingFrom, 'f', -1, 64))
	}
	if filters.RatingTo > 0 {
		params.Set("ratingTo", strconv.FormatFloat(filters.RatingTo, 'f', -1, 64))
	}
	order := filters.Order
	if order == "" {
		order = "RATING"
	}
	params.Set("order", order)
	params.Set("page", strconv.Itoa(page))

	var resp filmListResponse
	if err := c.get(ctx, "/api/v2.2/films", params, &resp); err != nil {
		return domain.SearchPage{}, err
	}
	return resp.toSearchPage(), nil
}

// Collection fetches one API page of a top collection.
func (c *Client) Collection(ctx context.Context, apiType string, page int) (domain.SearchPage, error) {
	params := url.Values{}
	params.Set("type", apiType)
	params.Set("page", strconv.Itoa(page))

	var resp filmListResponse
	if err := c.get(ctx, "/api/v2.2/films/collections", params, &resp); err != nil {
		return domain.SearchPage{}, err
	}
	return resp.toSearchPage(), nil
}

// FilmDetails fetches the full card for one title.
func (c *Client) FilmDetails(ctx context.Context, filmID string) (domain.Film, error) {
	var item filmItem
	if err := c.get(ctx, "/api/v2.2/films/"+url.PathEscape(filmID), nil, &item); err != nil {
		return domain.Film{}, err
	}
	return item.toFilm(), nil
}

// FilmName returns the title to search the torrent index with: the
// Russian name when present, the original otherwise.
func (c *Client) FilmName(ctx context.Context, filmID string) (string, error) {
	film, err := c.FilmDetails(ctx, filmID)
	if err != nil {
		return "", err
	}
	return film.DisplayName(), nil
}

// Dictionaries are the live genre and country pickers.
type Dictionaries struct {
	Genres    []domain.FilterChoice `json:"genres"`
	Countries []domain.FilterChoice `json:"countries"`
}

// Filters returns the genre and country dictionaries, cached in Redis
// for a day since they change essentially never.
func (c *Client) Filters(ctx context.Context) (Dictionaries, error) {
	if c.redis != nil {
		if data, err := c.redis.Get(ctx, filtersCacheKey).Bytes(); err == nil {
			var cached Dictionaries
			if json.Unmarshal(data, &cached) == nil {
				return cached, nil
			}
		}
	}

	var resp struct {
		Genres []struct {
			ID    int    `json:"id"`
			Genre string `json:"genre"`
		} `json:"genres"`
		Countries []struct {
			ID      int    `json:"id"`
			Country string `json:"country"`
		} `json:"countries"`
	}
	if err := c.get(ctx, "/api/v2.2/films/filters", nil, &resp); err != nil {
		return Dictionaries{}, err
	}

	dict := Dictionaries{}
	for _, g := range resp.Genres {
		if g.Genre == "" {
			continue
		}
		dict.Genres = append(dict.Genres, domain.FilterChoice{ID: strconv.Itoa(g.ID), Name: g.Genre})
	}
	for _, co := range resp.Countries {
		if co.Country == "" {
			continue
		}
		dict.Countries = append(dict.Countries, domain.FilterChoice{ID: strconv.Itoa(co.ID), Name: co.Country})
	}

	if c.redis != nil {
		if data, err := json.Marshal(dict); err == nil {
			_ = c.redis.Set(ctx, filtersCacheKey, data, filtersCacheTTL).Err()
		}
	}
	return dict, nil
}

// get runs one API call, rotating through the key ring on quota
// responses. A full cycle of burned keys is ErrKeysExhausted.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	attempts := c.ring.Len()
	if attempts == 0 {
		return ErrKeysExhausted
	}

	reqURL := c.baseURL + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	for i := 0; i < attempts; i++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("X-API-KEY", c.ring.Current())
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			metrics.KinopoiskErrorsTotal.Inc()
			return err
		}
		metrics.KinopoiskRequestsTotal.Inc()

		if resp.StatusCode == http.StatusPaymentRequired {
			resp.Body.Close()
			metrics.KeyRotationsTotal.Inc()
			c.ring.Advance()
			continue
		}
		if resp.StatusCode != http.StatusOK {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
			resp.Body.Close()
			metrics.KinopoiskErrorsTotal.Inc()
			return fmt.Errorf("kinopoisk HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
		}

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLength))
		resp.Body.Close()
		if err != nil {
			return err
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("kinopoisk: decode %s: %w", path, err)
		}
		return nil
	}

	return ErrKeysExhausted
}

// Wire shapes of the metadata API.

type filmItem struct {
	KinopoiskID     int64   `json:"kinopoiskId"`
	NameRu          string  `json:"nameRu"`
	NameOriginal    string  `json:"nameOriginal"`
	NameEn          string  `json:"nameEn"`
	Year            int     `json:"year"`
	Description     string  `json:"description"`
	RatingKinopoisk float64 `json:"ratingKinopoisk"`
	Type            string  `json:"type"`
	PosterURL       string  `json:"posterUrl"`
	PosterPreview   string  `json:"posterUrlPreview"`
	Genres          []struct {
		Genre string `json:"genre"`
	} `json:"genres"`
	Countries []struct {
		Country string `json:"country"`
	} `json:"countries"`
}

type filmListResponse struct {
	Total      int        `json:"total"`
	TotalPages int        `json:"totalPages"`
	Items      []filmItem `json:"items"`
	Films      []filmItem `json:"films"`
}

func (r filmListResponse) toSearchPage() domain.SearchPage {
	items := r.Items
	if len(items) == 0 {
		items = r.Films
	}
	page := domain.SearchPage{Total: r.Total}
	if page.Total == 0 {
		page.Total = len(items)
	}
	page.Items = make([]domain.Film, 0, len(items))
	for _, item := range items {
		page.Items = append(page.Items, item.toFilm())
	}
	return page
}

func (f filmItem) toFilm() domain.Film {
	nameEn := f.NameOriginal
	if nameEn == "" {
		nameEn = f.NameEn
	}
	poster := f.PosterPreview
	if poster == "" {
		poster = f.PosterURL
	}
	film := domain.Film{
		KinopoiskID: f.KinopoiskID,
		NameRu:      f.NameRu,
		NameEn:      nameEn,
		Year:        f.Year,
		Rating:      f.RatingKinopoisk,
		Type:        domain.FilmType(f.Type),
		PosterURL:   poster,
		Description: f.Description,
	}
	for _, g := range f.Genres {
		film.Genres = append(film.Genres, g.Genre)
	}
	for _, c := range f.Countries {
		film.Countries = append(film.Countries, c.Country)
	}
	return film
}
