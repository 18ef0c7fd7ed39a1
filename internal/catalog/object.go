package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// object is a JSON object that remembers key order and keeps every value as
// raw bytes, so untouched fields round-trip unchanged.
type object struct {
	keys   []string
	values map[string]json.RawMessage
}

func newObject() *object {
	return &object{values: make(map[string]json.RawMessage)}
}

func (o *object) get(key string) (json.RawMessage, bool) {
	v, ok := o.values[key]
	return v, ok
}

func (o *object) set(key string, value json.RawMessage) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = value
}

func decodeObject(data []byte) (*object, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, errors.New("expected JSON object")
	}
	obj := newObject()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected object key %v", tok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode %q: %w", key, err)
		}
		obj.set(key, raw)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return obj, nil
}

func decodeArray(data []byte) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// writeObject emits o with two-space indentation at the given depth.
func writeObject(w *bytes.Buffer, o *object, depth int) error {
	if len(o.keys) == 0 {
		w.WriteString("{}")
		return nil
	}
	w.WriteString("{\n")
	for i, key := range o.keys {
		writeIndent(w, depth+1)
		if err := writeString(w, key); err != nil {
			return err
		}
		w.WriteString(": ")
		if err := writeRaw(w, o.values[key], depth+1); err != nil {
			return fmt.Errorf("encode %q: %w", key, err)
		}
		if i < len(o.keys)-1 {
			w.WriteByte(',')
		}
		w.WriteByte('\n')
	}
	writeIndent(w, depth)
	w.WriteByte('}')
	return nil
}

func writeRaw(w *bytes.Buffer, raw json.RawMessage, depth int) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		w.WriteString("null")
		return nil
	}
	prefix := string(bytes.Repeat([]byte("  "), depth))
	return json.Indent(w, raw, prefix, "  ")
}

func writeIndent(w *bytes.Buffer, depth int) {
	for range depth {
		w.WriteString("  ")
	}
}

func writeString(w io.Writer, s string) error {
	raw, err := marshalValue(s)
	if err != nil {
		return err
	}
	_, err = w.Write(raw)
	return err
}

// marshalValue encodes v without HTML escaping and without the trailing
// newline json.Encoder appends.
func marshalValue(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}
