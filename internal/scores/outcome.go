package scores

import "time"

// Status is the terminal state of one movie's resolution.
type Status string

const (
	StatusResolved   Status = "resolved"
	StatusUnresolved Status = "unresolved"
	StatusSkipped    Status = "skipped"
)

// Skip reasons reported with StatusSkipped.
const (
	SkipHasScore  = "has_score"
	SkipTooRecent = "too_recent"
	SkipNoDate    = "no_date"
	SkipBadDate   = "bad_date"
	SkipNoTitle   = "no_title"
	SkipLimit     = "limit"
)

// Attempt records one provider call made while resolving a movie.
type Attempt struct {
	Provider string
	Err      error
	Duration time.Duration
	Critic   *int
}

// Outcome is the resolver's decision for one movie.
type Outcome struct {
	// Index carries Movie.Index back to the catalog merge.
	Index     int
	MovieID   string
	Title     string
	Year      string
	Key       string
	Status    Status
	Result    Result
	Reason    string
	FromCache bool
	Attempts  []Attempt
}

// Failed reports whether an unresolved outcome saw at least one transport or
// auth failure, as opposed to every provider answering not-found.
func (o Outcome) Failed() bool {
	if o.Status != StatusUnresolved {
		return false
	}
	for _, a := range o.Attempts {
		if a.Err != nil && !IsNotFound(a.Err) {
			return true
		}
	}
	return false
}
