package searchagent

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"nrw/internal/scores"
)

// Name tags results produced by this adapter.
const Name = "SearchAgentAdapter"

const maxPageBytes = 4 << 20

// Client performs the search and page fetch.
type Client struct {
	searchURL  string
	userAgent  string
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

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a search agent client.
func New(searchURL string, opts ...Option) (*Client, error) {
	searchURL = strings.TrimSpace(searchURL)
	if searchURL == "" {
		return nil, errors.New("search url required")
	}
	client := &Client{
		searchURL:  searchURL,
		userAgent:  "nrw",
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
	pageURL, err := c.FindPage(ctx, title, year)
	if err != nil {
		return scores.Failure(Name, err)
	}
	page, err := c.fetch(ctx, pageURL)
	if err != nil {
		return scores.Failure(Name, err)
	}
	critic, audience := ParseScores(page)
	if critic == nil {
		return scores.NotFound(Name, "no critic score on "+pageURL)
	}
	return scores.Result{CriticScore: critic, AudienceScore: audience, URL: pageURL, Source: Name}
}

// FindPage returns the first Rotten Tomatoes movie page the search returns.
func (c *Client) FindPage(ctx context.Context, title, year string) (string, error) {
	endpoint, err := url.Parse(c.searchURL)
	if err != nil {
		return "", fmt.Errorf("parse search url: %w", err)
	}
	query := fmt.Sprintf("site:rottentomatoes.com %q", title)
	if year = strings.TrimSpace(year); year != "" {
		query += " " + year
	}
	params := endpoint.Query()
	params.Set("q", query)
	endpoint.RawQuery = params.Encode()

	body, err := c.fetch(ctx, endpoint.String())
	if err != nil {
		return "", err
	}
	links, err := ExtractLinks(body)
	if err != nil {
		return "", fmt.Errorf("parse search results: %w", err)
	}
	for _, link := range links {
		if page, ok := MoviePage(link); ok {
			return page, nil
		}
	}
	return "", &scores.ProviderError{Kind: scores.ErrNotFound, Detail: "no rotten tomatoes movie link in search results"}
}

func (c *Client) fetch(ctx context.Context, target string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "text/html")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &scores.StatusError{Code: resp.StatusCode}
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxPageBytes))
	if err != nil {
		return nil, fmt.Errorf("read response (latency=%v): %w", latency, err)
	}
	return body, nil
}
