package searchagent

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"nrw/internal/scores"
)

// ExtractLinks returns every anchor href in document order.
func ExtractLinks(page []byte) ([]string, error) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, err
	}
	var links []string
	walk(doc, func(n *html.Node) {
		if n.DataAtom != atom.A {
			return
		}
		if href := attr(n, "href"); href != "" {
			links = append(links, href)
		}
	})
	return links, nil
}

// MoviePage normalizes a search result link into a canonical movie page URL.
// DuckDuckGo redirect links carry the destination in the uddg parameter.
func MoviePage(link string) (string, bool) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", false
	}
	if target := u.Query().Get("uddg"); target != "" {
		if u, err = url.Parse(target); err != nil {
			return "", false
		}
	}
	host := strings.ToLower(u.Hostname())
	if host != "rottentomatoes.com" && !strings.HasSuffix(host, ".rottentomatoes.com") {
		return "", false
	}
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")
	if len(segments) < 2 || segments[0] != "m" || segments[1] == "" {
		return "", false
	}
	for _, seg := range segments[2:] {
		if seg == "trailers" || seg == "reviews" {
			return "", false
		}
	}
	return "https://www.rottentomatoes.com/m/" + segments[1], true
}

type ldMovie struct {
	Type            any `json:"@type"`
	AggregateRating *struct {
		RatingValue json.RawMessage `json:"ratingValue"`
	} `json:"aggregateRating"`
	AudienceScore *struct {
		Score json.RawMessage `json:"score"`
	} `json:"audienceScore"`
}

// ParseScores reads critic and audience scores from a movie page. JSON-LD
// wins; score board attributes fill whatever it lacks.
func ParseScores(page []byte) (critic, audience *int) {
	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return nil, nil
	}
	walk(doc, func(n *html.Node) {
		switch {
		case n.DataAtom == atom.Script && strings.EqualFold(attr(n, "type"), "application/ld+json"):
			c, a := parseLD(text(n))
			if critic == nil {
				critic = c
			}
			if audience == nil {
				audience = a
			}
		case n.Type == html.ElementNode && (n.Data == "score-board" || n.Data == "media-scorecard" || n.Data == "score-board-deprecated"):
			if critic == nil {
				critic = attrScore(n, "tomatometerscore", "criticsscore")
			}
			if audience == nil {
				audience = attrScore(n, "audiencescore")
			}
		case n.Type == html.ElementNode && attr(n, "slot") == "criticsScore" && critic == nil:
			critic, _ = scores.ParsePercent(text(n))
		case n.Type == html.ElementNode && attr(n, "slot") == "audienceScore" && audience == nil:
			audience, _ = scores.ParsePercent(text(n))
		}
	})
	return critic, audience
}

func parseLD(raw string) (critic, audience *int) {
	var movie ldMovie
	if err := json.Unmarshal([]byte(raw), &movie); err != nil {
		return nil, nil
	}
	if movie.AggregateRating != nil {
		critic = rawScore(movie.AggregateRating.RatingValue)
	}
	if movie.AudienceScore != nil {
		audience = rawScore(movie.AudienceScore.Score)
	}
	return critic, audience
}

func rawScore(raw json.RawMessage) *int {
	s := strings.Trim(strings.TrimSpace(string(raw)), `"`)
	v, _ := scores.ParsePercent(s)
	return v
}

func attrScore(n *html.Node, keys ...string) *int {
	for _, key := range keys {
		if v, ok := scores.ParsePercent(attr(n, key)); ok {
			return v
		}
	}
	return nil
}

func walk(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func text(n *html.Node) string {
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
		} else {
			b.WriteString(text(c))
		}
	}
	return strings.TrimSpace(b.String())
}
