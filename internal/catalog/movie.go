package catalog

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"nrw/internal/scores"
)

// Catalog field names owned by the score pipeline.
const (
	FieldScore         = "rt_score"
	FieldAudienceScore = "rt_audience_score"
	FieldSource        = "rt_source"
	FieldURL           = "rt_url"
	FieldMethod        = "rt_method"

	legacyAudienceField = "rt_audience"
)

// Movie is one catalog record. Only rt_* fields are ever written; all other
// fields keep their original bytes.
type Movie struct {
	fields *object
	// key is the record's key when the catalog is an id-keyed object.
	key string
	// pos is the record's position in file order.
	pos int
}

// ID returns the record identifier, falling back to the keyed-object key.
func (m *Movie) ID() string {
	if raw, ok := m.fields.get("id"); ok {
		if s := scalarString(raw); s != "" {
			return s
		}
	}
	return m.key
}

// Title returns the display title.
func (m *Movie) Title() string {
	return m.stringField("title")
}

// Year returns an explicit year field, or the year prefix of the first
// available release date.
func (m *Movie) Year() string {
	if raw, ok := m.fields.get("year"); ok {
		if y := scalarString(raw); len(y) >= 4 {
			return y[:4]
		}
	}
	for _, field := range []string{"theatrical_date", "release_date", "digital_date"} {
		if v := m.stringField(field); len(v) >= 4 {
			return v[:4]
		}
	}
	return ""
}

// DigitalDate returns the digital release date, if any.
func (m *Movie) DigitalDate() string {
	return m.stringField("digital_date")
}

// ReleaseDate returns the general release date, preferring release_date over
// theatrical_date.
func (m *Movie) ReleaseDate() string {
	if v := m.stringField("release_date"); v != "" {
		return v
	}
	return m.stringField("theatrical_date")
}

// RTScore returns the critic score when present and within range.
func (m *Movie) RTScore() (int, bool) {
	return m.intField(FieldScore)
}

// AudienceScore returns rt_audience_score, falling back to the legacy
// rt_audience key.
func (m *Movie) AudienceScore() (int, bool) {
	if v, ok := m.intField(FieldAudienceScore); ok {
		return v, true
	}
	return m.intField(legacyAudienceField)
}

// Source returns rt_source.
func (m *Movie) Source() string { return m.stringField(FieldSource) }

// URL returns rt_url.
func (m *Movie) URL() string { return m.stringField(FieldURL) }

// Method returns rt_method.
func (m *Movie) Method() string { return m.stringField(FieldMethod) }

// HasScore reports whether rt_score holds anything other than null or an
// empty string. Unreadable values such as "N/A" or 150 still count, so a
// merge never replaces a score it cannot parse.
func (m *Movie) HasScore() bool {
	raw, ok := m.fields.get(FieldScore)
	if !ok {
		return false
	}
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", `""`:
		return false
	}
	return true
}

// Subject returns the resolver's view of the record.
func (m *Movie) Subject() scores.Movie {
	return scores.Movie{
		Index:       m.pos,
		ID:          m.ID(),
		Title:       m.Title(),
		Year:        m.Year(),
		DigitalDate: m.DigitalDate(),
		ReleaseDate: m.ReleaseDate(),
		HasScore:    m.HasScore(),
	}
}

// Field returns the raw bytes of an arbitrary field.
func (m *Movie) Field(name string) (json.RawMessage, bool) {
	return m.fields.get(name)
}

// setValue stores v under name and reports whether the stored bytes changed.
func (m *Movie) setValue(name string, v any) (bool, error) {
	raw, err := marshalValue(v)
	if err != nil {
		return false, err
	}
	if current, ok := m.fields.get(name); ok && bytes.Equal(compact(current), raw) {
		return false, nil
	}
	m.fields.set(name, raw)
	return true, nil
}

func (m *Movie) stringField(name string) string {
	raw, ok := m.fields.get(name)
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

func (m *Movie) intField(name string) (int, bool) {
	raw, ok := m.fields.get(name)
	if !ok {
		return 0, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, false
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		v := int(f)
		return v, scores.ValidScore(v)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if p, ok := scores.ParsePercent(s); ok {
			return *p, true
		}
	}
	return 0, false
}

func scalarString(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		if i, err := n.Int64(); err == nil {
			return strconv.FormatInt(i, 10)
		}
		return n.String()
	}
	return ""
}

func compact(raw json.RawMessage) []byte {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err != nil {
		return raw
	}
	return buf.Bytes()
}
