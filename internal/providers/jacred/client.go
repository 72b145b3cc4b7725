// Package jacred queries the jacred torrent index for release
// candidates by title.
package jacred

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"kinobot/internal/metrics"
	"kinobot/internal/torrents"
)

const (
	defaultEndpoint   = "https://jacred.xyz"
	maxResponseLength = 8 << 20
)

type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	retry     retryPolicy
}

type Config struct {
	Endpoint  string
	UserAgent string
	Client    *http.Client
}

func NewClient(cfg Config) *Client {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = defaultEndpoint
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		endpoint:  strings.TrimRight(endpoint, "/"),
		userAgent: cfg.UserAgent,
		http:      httpClient,
		retry:     defaultRetryPolicy(),
	}
}

// Search returns all candidates the index has for an exact title. The
// index answers non-JSON or non-array bodies for unknown titles; both
// mean "no releases", not an error. Transient network failures are
// retried with backoff.
func (c *Client) Search(ctx context.Context, title string) ([]torrents.Candidate, error) {
	var candidates []torrents.Candidate
	err := c.retry.run(ctx, func() error {
		var fetchErr error
		candidates, fetchErr = c.fetch(ctx, title)
		return fetchErr
	})
	return candidates, err
}

func (c *Client) fetch(ctx context.Context, title string) ([]torrents.Candidate, error) {
	params := url.Values{}
	params.Set("search", title)
	params.Set("exact", "true")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"/api/v1.0/torrents?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		metrics.JacredErrorsTotal.Inc()
		return nil, err
	}
	defer resp.Body.Close()
	metrics.JacredRequestsTotal.Inc()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		metrics.JacredErrorsTotal.Inc()
		return nil, fmt.Errorf("jacred HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseLength))
	if err != nil {
		return nil, err
	}

	var candidates []torrents.Candidate
	if err := json.Unmarshal(body, &candidates); err != nil {
		// The index signals "nothing found" with a bare string or
		// object instead of an empty array.
		return nil, nil
	}
	return candidates, nil
}
