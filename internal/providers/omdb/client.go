package omdb

import (
	"context"
	"encoding/json"
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
const Name = "PrimaryAPIAdapter"

const rottenTomatoesSource = "Rotten Tomatoes"

// Rating is one entry of the OMDb Ratings array.
type Rating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

// Response models the subset of the OMDb title response we use.
type Response struct {
	Title     string   `json:"Title"`
	Year      string   `json:"Year"`
	Ratings   []Rating `json:"Ratings"`
	TomatoURL string   `json:"tomatoURL"`
	Response  string   `json:"Response"`
	Error     string   `json:"Error"`
}

// Client queries OMDb by title and year.
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

// New creates an OMDb client.
func New(apiKey, baseURL string, opts ...Option) (*Client, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("omdb api key required")
	}
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("omdb base url required")
	}
	client := &Client{
		apiKey:     apiKey,
		baseURL:    baseURL,
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
	payload, err := c.Lookup(ctx, title, year)
	if err != nil {
		return scores.Failure(Name, err)
	}
	return resultFrom(payload)
}

// Lookup fetches the raw OMDb record for a title. OMDb answers misses with
// HTTP 200 and Response "False"; those are mapped to scores.ErrNotFound.
func (c *Client) Lookup(ctx context.Context, title, year string) (*Response, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, &scores.ProviderError{Kind: scores.ErrNotFound, Detail: "empty title"}
	}
	endpoint, err := url.Parse(c.baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse omdb url: %w", err)
	}
	params := url.Values{}
	params.Set("apikey", c.apiKey)
	params.Set("t", title)
	if year = strings.TrimSpace(year); year != "" {
		params.Set("y", year)
	}
	params.Set("type", "movie")
	params.Set("tomatoes", "true")
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	requestStart := time.Now()
	resp, err := c.httpClient.Do(req)
	latency := time.Since(requestStart)
	if err != nil {
		return nil, fmt.Errorf("execute request (latency=%v): %w", latency, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &scores.StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var payload Response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode omdb response: %w", err)
	}
	if !strings.EqualFold(payload.Response, "True") {
		return nil, classifyMessage(payload.Error)
	}
	return &payload, nil
}

func classifyMessage(message string) error {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "api key"), strings.Contains(lower, "request limit"):
		return scores.NewAuthError(message)
	case message == "", strings.Contains(lower, "not found"):
		return &scores.ProviderError{Kind: scores.ErrNotFound, Detail: message}
	}
	return &scores.ProviderError{Kind: scores.ErrTransport, Detail: message}
}

func resultFrom(payload *Response) scores.Result {
	for _, rating := range payload.Ratings {
		if !strings.EqualFold(strings.TrimSpace(rating.Source), rottenTomatoesSource) {
			continue
		}
		critic, ok := scores.ParsePercent(rating.Value)
		if !ok {
			break
		}
		result := scores.Result{CriticScore: critic, Source: Name}
		if u := strings.TrimSpace(payload.TomatoURL); u != "" && !strings.EqualFold(u, "N/A") {
			result.URL = u
		}
		return result
	}
	return scores.NotFound(Name, "no rotten tomatoes rating")
}
