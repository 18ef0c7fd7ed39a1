package scores

// Movie is the resolver's read-only view of one catalog record.
type Movie struct {
	// Index is the record's position in the catalog. IDs are optional and
	// not unique, so merges match on Index.
	Index       int
	ID          string
	Title       string
	Year        string
	DigitalDate string
	ReleaseDate string
	HasScore    bool
}

// Key returns the cache key for the movie.
func (m Movie) Key() string {
	return CacheKey(m.Title, m.Year)
}
