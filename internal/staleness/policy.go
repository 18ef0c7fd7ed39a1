// Package staleness decides whether a movie is old enough, and still missing
// a score, to be worth a provider call.
package staleness

import (
	"strings"
	"time"

	"nrw/internal/scores"
)

// DefaultMinAgeDays is the minimum age of the qualifying release date.
const DefaultMinAgeDays = 7

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"02 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// Policy evaluates eligibility against a fixed "today".
type Policy struct {
	MinAgeDays int
	// Force ignores an existing score; date rules still apply.
	Force bool
	Now   func() time.Time
}

// New returns a policy using the wall clock.
func New(minAgeDays int, force bool) Policy {
	return Policy{MinAgeDays: minAgeDays, Force: force, Now: time.Now}
}

// Eligible reports whether m should be attempted. When it should not, reason
// is one of the scores.Skip* constants.
func (p Policy) Eligible(m scores.Movie) (bool, string) {
	if m.HasScore && !p.Force {
		return false, scores.SkipHasScore
	}
	if strings.TrimSpace(m.Title) == "" {
		return false, scores.SkipNoTitle
	}
	raw := strings.TrimSpace(m.DigitalDate)
	if raw == "" {
		raw = strings.TrimSpace(m.ReleaseDate)
	}
	if raw == "" {
		return false, scores.SkipNoDate
	}
	date, ok := ParseDate(raw)
	if !ok {
		return false, scores.SkipBadDate
	}
	if AgeDays(date, p.today()) < p.MinAgeDays {
		return false, scores.SkipTooRecent
	}
	return true, ""
}

func (p Policy) today() time.Time {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	return now()
}

// ParseDate accepts the date shapes seen in catalogs and provider payloads.
func ParseDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// AgeDays counts whole calendar days from date to now, both taken in UTC.
// Future dates yield negative values.
func AgeDays(date, now time.Time) int {
	d := truncateDay(date)
	n := truncateDay(now)
	return int(n.Sub(d).Hours() / 24)
}

func truncateDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
