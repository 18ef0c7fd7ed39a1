package scorecache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"nrw/internal/fileutil"
	"nrw/internal/logging"
	"nrw/internal/scores"
)

// Entry is a copied view of one cached result.
type Entry struct {
	Key      string
	Result   scores.Result
	StoredAt time.Time
}

// fileEntry is the persisted value shape: the result fields inline plus the
// storage timestamp.
type fileEntry struct {
	scores.Result
	StoredAt time.Time `json:"stored_at"`
}

// Option customizes a Cache.
type Option func(*Cache)

// WithLogger sets the logger used for load warnings and debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Cache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the timestamp source for StoredAt.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		if now != nil {
			c.now = now
		}
	}
}

// WithWriter overrides the atomic writer, mainly to simulate rename failures.
func WithWriter(w fileutil.AtomicWriter) Option {
	return func(c *Cache) {
		c.writer = w
	}
}

// Cache is a durable key to result mapping persisted as a single JSON object.
// An empty path keeps the cache in memory only.
type Cache struct {
	path    string
	logger  *slog.Logger
	now     func() time.Time
	writer  fileutil.AtomicWriter
	mu      sync.RWMutex
	entries map[string]fileEntry
}

// Open loads the cache at path. A missing file is an empty cache; an
// unreadable or corrupt file is logged and also treated as empty.
func Open(path string, opts ...Option) *Cache {
	c := &Cache{
		path:    strings.TrimSpace(path),
		logger:  logging.NewNop(),
		now:     time.Now,
		entries: make(map[string]fileEntry),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.NewComponentLogger(c.logger, "scorecache")

	if c.path == "" {
		return c
	}

	entries, err := c.read()
	if err != nil {
		logging.WarnWithContext(c.logger, "score cache unreadable; starting empty", "scorecache_load_failed",
			logging.String("path", c.path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect or delete the cache file"),
			logging.String(logging.FieldImpact, "previously cached titles will be queried again"),
		)
		return c
	}
	c.entries = entries
	c.logger.Debug("loaded score cache",
		logging.Int("entry_count", len(c.entries)),
		logging.String("path", c.path))
	return c
}

// Path returns the backing file.
func (c *Cache) Path() string { return c.path }

// Get returns a copy of the cached result for key.
func (c *Cache) Get(key string) (scores.Result, bool) {
	key = strings.TrimSpace(key)
	if key == "" {
		return scores.Result{}, false
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return scores.Result{}, false
	}
	return entry.Result.Clone(), true
}

// Put stores result under key. The persisted mapping is re-read, merged and
// written through temp file plus rename while the lock is held, so concurrent
// puts from this process never interleave.
func (c *Cache) Put(key string, result scores.Result) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key cannot be empty")
	}
	entry := fileEntry{Result: result.Clone(), StoredAt: c.now().UTC()}
	entry.Err = nil

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.path == "" {
		c.entries[key] = entry
		return nil
	}

	current, err := c.read()
	if err != nil {
		logging.WarnWithContext(c.logger, "score cache unreadable during put; rebuilding from memory", "scorecache_reload_failed",
			logging.String("path", c.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "corrupt cache content is replaced"),
		)
		current = make(map[string]fileEntry, len(c.entries)+1)
	}
	for k, v := range c.entries {
		if _, ok := current[k]; !ok {
			current[k] = v
		}
	}
	current[key] = entry

	if err := c.save(current); err != nil {
		return fmt.Errorf("persist score cache: %w", err)
	}
	c.entries = current

	c.logger.Debug("cached score result",
		logging.String(logging.FieldCacheKey, key),
		logging.String("source", entry.Source),
		logging.Bool("has_critic", entry.HasCritic()))
	return nil
}

// Remove deletes an entry and persists the change.
func (c *Cache) Remove(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errors.New("cache key cannot be empty")
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		return fmt.Errorf("key %q not found in cache", key)
	}
	next := make(map[string]fileEntry, len(c.entries))
	for k, v := range c.entries {
		if k != key {
			next[k] = v
		}
	}
	if c.path != "" {
		if err := c.save(next); err != nil {
			return fmt.Errorf("persist score cache: %w", err)
		}
	}
	c.entries = next
	c.logger.Debug("removed score cache entry", logging.String(logging.FieldCacheKey, key))
	return nil
}

// Clear removes every entry and persists the empty mapping.
func (c *Cache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	empty := make(map[string]fileEntry)
	if c.path != "" {
		if err := c.save(empty); err != nil {
			return fmt.Errorf("persist score cache: %w", err)
		}
	}
	c.entries = empty
	c.logger.Debug("cleared score cache")
	return nil
}

// Entries returns copies of all entries, newest first.
func (c *Cache) Entries() []Entry {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entries := make([]Entry, 0, len(c.entries))
	for key, entry := range c.entries {
		entries = append(entries, Entry{Key: key, Result: entry.Result.Clone(), StoredAt: entry.StoredAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].StoredAt.Equal(entries[j].StoredAt) {
			return entries[i].Key < entries[j].Key
		}
		return entries[i].StoredAt.After(entries[j].StoredAt)
	})
	return entries
}

// Count returns the number of entries in the cache.
func (c *Cache) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) read() (map[string]fileEntry, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return make(map[string]fileEntry), nil
		}
		return nil, fmt.Errorf("read cache file: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return make(map[string]fileEntry), nil
	}

	var entries map[string]fileEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse cache file: %w", err)
	}
	if entries == nil {
		entries = make(map[string]fileEntry)
	}
	for key, entry := range entries {
		entries[key] = fileEntry{Result: entry.Sanitized(), StoredAt: entry.StoredAt}
	}
	return entries, nil
}

func (c *Cache) save(entries map[string]fileEntry) error {
	// encoding/json sorts map keys, so output is deterministic.
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}
	data = append(data, '\n')

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	return c.writer.WriteFile(c.path, data, 0o644)
}
