// Package catalog is a thin client for the Google Books volumes API.
//
// Only the two read endpoints are used:
//
//	GET {base}/volumes?q=<query>&maxResults=<n>[&key=<apiKey>]
//	GET {base}/volumes/{id}[?key=<apiKey>]
//
// Outbound calls share one token-bucket limiter so every request handler
// draws from the same API quota, and every call is bounded by the HTTP
// client's timeout.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "https://www.googleapis.com/books/v1"
	DefaultTimeout = 10 * time.Second

	// maxErrorBody caps how much of an error response is kept for the message.
	maxErrorBody = 512
)

// ErrNotFound is returned by Volume when the catalog has no such id.
var ErrNotFound = errors.New("catalog: volume not found")

// Config holds the client settings.
type Config struct {
	BaseURL string
	APIKey  string
	// AccessToken, when set, is sent as an OAuth bearer token.
	AccessToken string
	Timeout     time.Duration
	// RatePerSecond <= 0 disables throttling.
	RatePerSecond float64
	Burst         int
}

// Volume is the subset of a Google Books volume this service reads.
type Volume struct {
	ID         string     `json:"id"`
	VolumeInfo VolumeInfo `json:"volumeInfo"`
}

type VolumeInfo struct {
	Title       string     `json:"title"`
	Authors     []string   `json:"authors"`
	Description string     `json:"description"`
	ImageLinks  ImageLinks `json:"imageLinks"`
	PreviewLink string     `json:"previewLink"`
}

type ImageLinks struct {
	Thumbnail      string `json:"thumbnail"`
	SmallThumbnail string `json:"smallThumbnail"`
}

type searchResponse struct {
	TotalItems int      `json:"totalItems"`
	Items      []Volume `json:"items"`
}

// Client talks to the catalog. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// New creates a Client. Empty fields fall back to the package defaults.
func New(cfg Config) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.AccessToken != "" {
		// oauth2.NewClient wraps the transport so every request carries
		// "Authorization: Bearer <token>".
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
		httpClient = oauth2.NewClient(context.Background(), src)
		httpClient.Timeout = timeout
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RatePerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}

	return &Client{
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		limiter:    limiter,
	}
}

// Search returns at most limit volumes matching query, in catalog order.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]Volume, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("maxResults", strconv.Itoa(limit))

	var res searchResponse
	if err := c.get(ctx, "/volumes", params, &res); err != nil {
		return nil, fmt.Errorf("catalog: search %q: %w", query, err)
	}

	if res.Items == nil {
		return []Volume{}, nil
	}
	if limit > 0 && len(res.Items) > limit {
		res.Items = res.Items[:limit]
	}
	return res.Items, nil
}

// Volume fetches a single volume by id.
func (c *Client) Volume(ctx context.Context, id string) (*Volume, error) {
	if id == "" {
		return nil, ErrNotFound
	}

	var v Volume
	if err := c.get(ctx, "/volumes/"+url.PathEscape(id), url.Values{}, &v); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("catalog: volume %s: %w", id, err)
	}
	return &v, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	if c.apiKey != "" {
		params.Set("key", c.apiKey)
	}
	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
