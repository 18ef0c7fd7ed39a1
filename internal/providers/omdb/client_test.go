package omdb_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"nrw/internal/providers/omdb"
	"nrw/internal/scores"
)

func newServer(t *testing.T, status int, body string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("apikey") != "key" || q.Get("t") != "Tehran" || q.Get("y") != "2025" || q.Get("type") != "movie" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestNewRequiresAPIKey(t *testing.T) {
	if _, err := omdb.New(" ", "https://example.com"); err == nil {
		t.Fatal("expected error when api key missing")
	}
}

func TestResolveRottenTomatoesRating(t *testing.T) {
	server := newServer(t, http.StatusOK, `{"Title":"Tehran","Response":"True","tomatoURL":"https://www.rottentomatoes.com/m/tehran",
		"Ratings":[{"Source":"Internet Movie Database","Value":"7.1/10"},{"Source":"Rotten Tomatoes","Value":"91%"}]}`)
	client, err := omdb.New("key", server.URL)
	if err != nil {
		t.Fatal(err)
	}
	result := client.Resolve(context.Background(), "Tehran", "2025")
	if result.Err != nil || !result.HasCritic() || *result.CriticScore != 91 {
		t.Fatalf("unexpected result %+v", result)
	}
	if result.URL != "https://www.rottentomatoes.com/m/tehran" || result.Source != omdb.Name {
		t.Fatalf("unexpected provenance %+v", result)
	}
}

func TestResolveMissingRatingIsNotFound(t *testing.T) {
	server := newServer(t, http.StatusOK, `{"Response":"True","tomatoURL":"N/A","Ratings":[{"Source":"Metacritic","Value":"70/100"}]}`)
	client, _ := omdb.New("key", server.URL)
	result := client.Resolve(context.Background(), "Tehran", "2025")
	if !scores.IsNotFound(result.Err) || result.HasCritic() {
		t.Fatalf("expected not found, got %+v", result)
	}
}

func TestResolveErrorsAreClassified(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		check  func(error) bool
	}{
		{"movie not found", http.StatusOK, `{"Response":"False","Error":"Movie not found!"}`, scores.IsNotFound},
		{"invalid key", http.StatusOK, `{"Response":"False","Error":"Invalid API key!"}`, scores.IsAuth},
		{"unauthorized", http.StatusUnauthorized, `{"Response":"False"}`, scores.IsAuth},
		{"server error", http.StatusBadGateway, `oops`, isTransport},
		{"gate", http.StatusNoContent, ``, scores.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newServer(t, tt.status, tt.body)
			client, _ := omdb.New("key", server.URL)
			result := client.Resolve(context.Background(), "Tehran", "2025")
			if !tt.check(result.Err) {
				t.Fatalf("unexpected classification %v", result.Err)
			}
			if result.Error == "" {
				t.Fatal("expected persisted error string")
			}
		})
	}
}

func isTransport(err error) bool { return errors.Is(err, scores.ErrTransport) }
