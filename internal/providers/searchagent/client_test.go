package searchagent_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"nrw/internal/providers/searchagent"
	"nrw/internal/scores"
)

const searchPage = `<html><body>
<a href="https://example.com/tehran">Other site</a>
<a href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.rottentomatoes.com%2Fm%2Ftehran%2Ftrailers">Trailers</a>
<a href="//duckduckgo.com/l/?uddg=https%3A%2F%2Fwww.rottentomatoes.com%2Fm%2Ftehran_2025&rut=abc">Tehran (2025)</a>
</body></html>`

const moviePage = `<html><head>
<script type="application/ld+json">{"@type":"Movie","name":"Tehran","aggregateRating":{"@type":"AggregateRating","ratingValue":"74"}}</script>
</head><body>
<media-scorecard><rt-text slot="audienceScore">81%</rt-text></media-scorecard>
</body></html>`

// redirect sends every request to the test server while keeping the path.
type redirect struct{ target *url.URL }

func (r redirect) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())
	clone.URL.Scheme = r.target.Scheme
	clone.URL.Host = r.target.Host
	return http.DefaultTransport.RoundTrip(clone)
}

func newClient(t *testing.T, handler http.HandlerFunc) *searchagent.Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	target, _ := url.Parse(server.URL)
	client, err := searchagent.New(server.URL+"/html/",
		searchagent.WithUserAgent("nrw-test"),
		searchagent.WithHTTPClient(&http.Client{Transport: redirect{target: target}}))
	if err != nil {
		t.Fatal(err)
	}
	return client
}

func TestResolveFollowsSearchToMoviePage(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("User-Agent") != "nrw-test" {
			t.Errorf("missing user agent")
		}
		switch r.URL.Path {
		case "/html/":
			q := r.URL.Query().Get("q")
			if !strings.Contains(q, `site:rottentomatoes.com "Tehran" 2025`) {
				t.Errorf("unexpected query %q", q)
			}
			_, _ = w.Write([]byte(searchPage))
		case "/m/tehran_2025":
			_, _ = w.Write([]byte(moviePage))
		default:
			http.NotFound(w, r)
		}
	})

	result := client.Resolve(context.Background(), "Tehran", "2025")
	if result.Err != nil || !result.HasCritic() || *result.CriticScore != 74 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.AudienceScore == nil || *result.AudienceScore != 81 {
		t.Fatalf("expected audience score 81, got %+v", result.AudienceScore)
	}
	if result.URL != "https://www.rottentomatoes.com/m/tehran_2025" {
		t.Fatalf("unexpected url %q", result.URL)
	}
}

func TestResolveWithoutMovieLinkIsNotFound(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<a href="https://www.rottentomatoes.com/tv/tehran">TV</a>`))
	})
	result := client.Resolve(context.Background(), "Tehran", "2025")
	if !scores.IsNotFound(result.Err) {
		t.Fatalf("expected not found, got %v", result.Err)
	}
}

func TestResolveGatedSearchIsNotFound(t *testing.T) {
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	result := client.Resolve(context.Background(), "Tehran", "2025")
	if !scores.IsNotFound(result.Err) {
		t.Fatalf("expected not found, got %v", result.Err)
	}
}

func TestMoviePage(t *testing.T) {
	tests := []struct {
		link string
		want string
		ok   bool
	}{
		{"https://www.rottentomatoes.com/m/tehran", "https://www.rottentomatoes.com/m/tehran", true},
		{"https://rottentomatoes.com/m/tehran/", "https://www.rottentomatoes.com/m/tehran", true},
		{"https://www.rottentomatoes.com/m/tehran/reviews?type=top", "", false},
		{"https://www.rottentomatoes.com/m/tehran/trailers", "", false},
		{"https://www.rottentomatoes.com/tv/tehran", "", false},
		{"https://notrottentomatoes.com/m/tehran", "", false},
		{"/l/?uddg=https%3A%2F%2Fwww.rottentomatoes.com%2Fm%2Fdune", "https://www.rottentomatoes.com/m/dune", true},
	}
	for _, tt := range tests {
		got, ok := searchagent.MoviePage(tt.link)
		if got != tt.want || ok != tt.ok {
			t.Errorf("MoviePage(%q) = %q, %v; want %q, %v", tt.link, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseScoresScoreBoardFallback(t *testing.T) {
	page := []byte(`<score-board tomatometerscore="88" audiencescore="67"></score-board>`)
	critic, audience := searchagent.ParseScores(page)
	if critic == nil || *critic != 88 || audience == nil || *audience != 67 {
		t.Fatalf("unexpected scores %v %v", critic, audience)
	}
}
