// Package mdblist implements the secondary structured score adapter on top of
// the MDBList API: a title search followed by a details lookup by TMDB id.
package mdblist

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

	"nrw/internal/scores"
	"nrw/internal/textutil"
)

// Name tags results produced by this adapter.
const Name = "SecondaryAPIAdapter"

// SearchItem is one entry of the movie search response.
type SearchItem struct {
	Title string `json:"title"`
	Year  int    `json:"year"`
	IDs   struct {
		IMDb string `json:"imdbid"`
		TMDB int64  `json:"tmdbid"`
	} `json:"ids"`
}

// SearchResponse models the movie search response.
type SearchResponse struct {
	Search   []SearchItem `json:"search"`
	Response bool         `json:"response"`
	Error    string       `json:"error"`
}

// Rating is one entry of the details ratings array. Value and Score are
// nullable upstream.
type Rating struct {
	Source string   `json:"source"`
	Value  *float64 `json:"value"`
	Score  *float64 `json:"score"`
	URL    string   `json:"url"`
}

// Details models the subset of the movie details response we use.
type Details struct {
	Title   string   `json:"title"`
	Year    int      `json:"year"`
	Ratings []Rating `json:"ratings"`
	Error   string   `json:"error"`
}

// Client queries MDBList.
type Client struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

var _ scores.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// New creates an MDBList client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("mdblist api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("mdblist base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Name implements scores.Provider.
func (c *Client) Name() string { return Name }

// Resolve implements scores.Provider.
func (c *Client) Resolve(ctx context.Context, title, year string) scores.Result {
	title = strings.TrimSpace(title)
	if title == "" {
		return scores.NotFound(Name, "empty title")
	}
	tmdbID, err := c.search(ctx, title, year)
	if err != nil {
		return scores.Failure(Name, err)
	}
	details, err := c.details(ctx, tmdbID)
	if err != nil {
		return scores.Failure(Name, err)
	}
	return resultFrom(details)
}

func (c *Client) search(ctx context.Context, title, year string) (int64, error) {
	params := url.Values{}
	params.Set("query", title)
	if year = strings.TrimSpace(year); year != "" {
		params.Set("year", year)
	}
	var payload SearchResponse
	if err := c.get(ctx, "/search/movie", params, &payload); err != nil {
		return 0, err
	}
	if payload.Error != "" {
		return 0, classifyMessage(payload.Error)
	}
	if len(payload.Search) == 0 {
		return 0, &scores.ProviderError{Kind: scores.ErrNotFound, Detail: "no search results"}
	}
	item, ok := pickCandidate(payload.Search, title, year)
	if !ok {
		return 0, &scores.ProviderError{Kind: scores.ErrNotFound, Detail: "no search result matches the title"}
	}
	return item.IDs.TMDB, nil
}

// minTitleSimilarity is the lowest title similarity accepted for a search hit.
const minTitleSimilarity = 0.6

// pickCandidate returns the search hit whose title is closest to title,
// preferring hits from the requested year.
func pickCandidate(items []SearchItem, title, year string) (SearchItem, bool) {
	year = textutil.NormalizeYear(year)
	best, bestScore := -1, 0.0
	for i, item := range items {
		if item.IDs.TMDB <= 0 {
			continue
		}
		score := textutil.TitleSimilarity(title, item.Title)
		if score < minTitleSimilarity {
			continue
		}
		if year != "" && item.Year > 0 && strconv.Itoa(item.Year) == year {
			score += 0.5
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return SearchItem{}, false
	}
	return items[best], true
}

func (c *Client) details(ctx context.Context, tmdbID int64) (*Details, error) {
	var payload Details
	if err := c.get(ctx, "/tmdb/movie/"+strconv.FormatInt(tmdbID, 10), url.Values{}, &payload); err != nil {
		return nil, err
	}
	if payload.Error != "" {
		return nil, classifyMessage(payload.Error)
	}
	return &payload, nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	endpoint, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("parse mdblist url: %w", err)
	}
	params.Set("apikey", c.apiKey)
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &scores.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode mdblist response: %w", err)
	}
	return nil
}

func classifyMessage(message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "api key"), strings.Contains(lower, "apikey"):
		return scores.NewAuthError(message)
	case strings.Contains(lower, "not found"):
		return &scores.ProviderError{Kind: scores.ErrNotFound, Detail: message}
	}
	return &scores.ProviderError{Kind: scores.ErrTransport, Detail: message}
}

func resultFrom(details *Details) scores.Result {
	result := scores.Result{Source: Name}
	for _, rating := range details.Ratings {
		switch strings.ToLower(rating.Source) {
		case "tomatoes":
			result.CriticScore = ratingScore(rating)
			result.URL = pageURL(rating.URL)
		case "popcorn":
			result.AudienceScore = ratingScore(rating)
		}
	}
	if !result.HasCritic() {
		return scores.NotFound(Name, "no tomatometer rating")
	}
	return result
}

func ratingScore(r Rating) *int {
	for _, v := range []*float64{r.Value, r.Score} {
		if v == nil {
			continue
		}
		if s := scores.Score(int(*v + 0.5)); s != nil {
			return s
		}
	}
	return nil
}

// pageURL accepts an absolute URL, a "/m/<slug>" path or a bare slug.
func pageURL(raw string) string {
	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		return ""
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		return raw
	case strings.HasPrefix(raw, "/"):
		return "https://www.rottentomatoes.com" + raw
	case strings.HasPrefix(raw, "m/"):
		return "https://www.rottentomatoes.com/" + raw
	}
	return "https://www.rottentomatoes.com/m/" + raw
}
