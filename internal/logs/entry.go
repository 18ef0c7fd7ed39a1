package logs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"nrw/internal/logging"
)

// Entry is one decoded record from the JSON log file.
type Entry struct {
	Time      time.Time
	Level     string
	Message   string
	Component string
	RunID     string
	MovieID   string
	Provider  string
	Fields    map[string]any
}

// ParseLine decodes a JSON log line. Lines that are not JSON objects are
// rejected.
func ParseLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "{") {
		return Entry{}, false
	}
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Entry{}, false
	}
	entry := Entry{Fields: make(map[string]any, len(raw))}
	for key, value := range raw {
		switch key {
		case "ts":
			if s, ok := value.(string); ok {
				entry.Time, _ = time.Parse(time.RFC3339, s)
			}
		case "level":
			entry.Level = strings.ToLower(fmt.Sprint(value))
		case "msg":
			entry.Message = fmt.Sprint(value)
		case logging.FieldComponent:
			entry.Component = fmt.Sprint(value)
		case logging.FieldRunID:
			entry.RunID = fmt.Sprint(value)
		case logging.FieldMovieID:
			entry.MovieID = fmt.Sprint(value)
		case logging.FieldProvider:
			entry.Provider = fmt.Sprint(value)
		default:
			entry.Fields[key] = value
		}
	}
	return entry, true
}

// Format renders the entry on one line in the console layout.
func (e Entry) Format() string {
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(e.Time.Local().Format("2006-01-02 15:04:05"))
		b.WriteByte(' ')
	}
	b.WriteString(strings.ToUpper(e.Level))
	if e.Component != "" {
		b.WriteString(" [" + e.Component + "]")
	}
	if e.MovieID != "" {
		b.WriteString(" Movie #" + e.MovieID)
	}
	if e.Provider != "" {
		b.WriteString(" (" + e.Provider + ")")
	}
	b.WriteString(" – ")
	b.WriteString(e.Message)

	keys := make([]string, 0, len(e.Fields))
	for key := range e.Fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(&b, " %s=%v", key, e.Fields[key])
	}
	if e.RunID != "" {
		run, _, _ := strings.Cut(e.RunID, "-")
		b.WriteString(" run=" + run)
	}
	return b.String()
}

// Filter selects log records. The zero value keeps everything that parses.
type Filter struct {
	// RunID matches records whose run_id starts with this value.
	RunID    string
	MinLevel string
}

// Match reports whether the raw line passes the filter.
func (f Filter) Match(line string) bool {
	entry, ok := ParseLine(line)
	if !ok {
		return false
	}
	return f.MatchEntry(entry)
}

// MatchEntry reports whether a decoded entry passes the filter.
func (f Filter) MatchEntry(e Entry) bool {
	if id := strings.TrimSpace(f.RunID); id != "" && !strings.HasPrefix(e.RunID, id) {
		return false
	}
	return levelRank(e.Level) >= levelRank(f.MinLevel)
}

func levelRank(level string) int {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return 0
	case "warn", "warning":
		return 2
	case "error":
		return 3
	case "":
		return 0
	default:
		return 1
	}
}
