// Package wikidata implements the knowledge graph adapter. It asks the
// Wikidata SPARQL endpoint for a film by English label and publication year
// and reads the Rotten Tomatoes ID (P1258) and the review score (P444)
// qualified as reviewed by Rotten Tomatoes (P447 = Q105584).
package wikidata

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
)

// Name tags results produced by this adapter.
const Name = "KnowledgeGraphAdapter"

const queryTemplate = `SELECT ?film ?rtid ?score WHERE {
  ?film wdt:P31 wd:Q11424 ;
        rdfs:label %s@en .
  %s
  OPTIONAL { ?film wdt:P1258 ?rtid . }
  OPTIONAL { ?film p:P444 ?review . ?review ps:P444 ?score ; pq:P447 wd:Q105584 . }
}
LIMIT 10`

const yearFilter = `?film wdt:P577 ?date . FILTER(YEAR(?date) = %d)`

type binding struct {
	Value string `json:"value"`
}

// Response models the SPARQL JSON results format.
type Response struct {
	Results struct {
		Bindings []map[string]binding `json:"bindings"`
	} `json:"results"`
}

// Client queries a SPARQL endpoint.
type Client struct {
	endpoint   string
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

// WithUserAgent sets the User-Agent header. Wikidata rejects anonymous
// clients.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua = strings.TrimSpace(ua); ua != "" {
			c.userAgent = ua
		}
	}
}

// New creates a Wikidata client.
func New(endpoint string, opts ...Option) (*Client, error) {
	endpoint = strings.TrimSpace(endpoint)
	if endpoint == "" {
		return nil, errors.New("wikidata endpoint required")
	}
	client := &Client{
		endpoint:   endpoint,
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
	payload, err := c.Query(ctx, BuildQuery(title, year))
	if err != nil {
		return scores.Failure(Name, err)
	}
	return resultFrom(payload)
}

// BuildQuery renders the film lookup. The year filter is dropped when year is
// not numeric.
func BuildQuery(title, year string) string {
	filter := ""
	if y, err := strconv.Atoi(strings.TrimSpace(year)); err == nil && y > 0 {
		filter = fmt.Sprintf(yearFilter, y)
	}
	return fmt.Sprintf(queryTemplate, literal(title), filter)
}

// Query posts a SPARQL query and decodes the JSON bindings.
func (c *Client) Query(ctx context.Context, query string) (*Response, error) {
	form := url.Values{}
	form.Set("query", query)
	form.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/sparql-results+json")
	req.Header.Set("User-Agent", c.userAgent)

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
		return nil, fmt.Errorf("decode sparql response: %w", err)
	}
	return &payload, nil
}

func resultFrom(payload *Response) scores.Result {
	result := scores.Result{Source: Name}
	for _, row := range payload.Results.Bindings {
		if result.URL == "" {
			if id := strings.Trim(strings.TrimSpace(row["rtid"].Value), "/"); id != "" {
				result.URL = "https://www.rottentomatoes.com/" + id
			}
		}
		if result.CriticScore == nil {
			result.CriticScore, _ = scores.ParsePercent(row["score"].Value)
		}
	}
	if !result.HasCritic() {
		if len(payload.Results.Bindings) == 0 {
			return scores.NotFound(Name, "no matching film")
		}
		return scores.NotFound(Name, "film has no rotten tomatoes score")
	}
	return result
}

func literal(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`, "\r", `\r`)
	return `"` + r.Replace(s) + `"`
}
