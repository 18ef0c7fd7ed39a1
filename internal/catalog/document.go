package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"nrw/internal/services"
)

// Shape identifies how movies are laid out in the catalog file.
type Shape int

const (
	// ShapeArray is a top-level array of movie objects.
	ShapeArray Shape = iota
	// ShapeWrappedArray is an object whose "movies" key holds an array.
	ShapeWrappedArray
	// ShapeWrappedObject is an object whose "movies" key holds an id-keyed object.
	ShapeWrappedObject
	// ShapeKeyed is a top-level id-keyed object of movie objects.
	ShapeKeyed
)

func (s Shape) String() string {
	switch s {
	case ShapeArray:
		return "array"
	case ShapeWrappedArray:
		return "movies-array"
	case ShapeWrappedObject:
		return "movies-object"
	case ShapeKeyed:
		return "keyed-object"
	}
	return "unknown"
}

const moviesKey = "movies"

// Document is a parsed catalog that can be written back in its original
// shape.
type Document struct {
	shape  Shape
	root   *object
	movies []*Movie
}

// Load reads and parses the catalog file at path.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "catalog", "load", path, err)
	}
	doc, err := Parse(data)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "catalog", "parse", path, err)
	}
	return doc, nil
}

// Parse decodes catalog bytes in any supported shape.
func Parse(data []byte) (*Document, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, errors.New("catalog is empty")
	}
	switch trimmed[0] {
	case '[':
		movies, err := parseMovieArray(trimmed)
		if err != nil {
			return nil, err
		}
		return &Document{shape: ShapeArray, movies: movies}, nil
	case '{':
		root, err := decodeObject(trimmed)
		if err != nil {
			return nil, err
		}
		if inner, ok := root.get(moviesKey); ok {
			inner = bytes.TrimSpace(inner)
			if len(inner) > 0 && inner[0] == '[' {
				movies, err := parseMovieArray(inner)
				if err != nil {
					return nil, fmt.Errorf("movies: %w", err)
				}
				return &Document{shape: ShapeWrappedArray, root: root, movies: movies}, nil
			}
			if len(inner) > 0 && inner[0] == '{' {
				keyed, err := decodeObject(inner)
				if err != nil {
					return nil, fmt.Errorf("movies: %w", err)
				}
				movies, err := parseKeyedMovies(keyed)
				if err != nil {
					return nil, fmt.Errorf("movies: %w", err)
				}
				return &Document{shape: ShapeWrappedObject, root: root, movies: movies}, nil
			}
			return nil, errors.New("movies must be an array or object")
		}
		movies, err := parseKeyedMovies(root)
		if err != nil {
			return nil, err
		}
		return &Document{shape: ShapeKeyed, movies: movies}, nil
	}
	return nil, errors.New("catalog must be a JSON array or object")
}

func parseMovieArray(data []byte) ([]*Movie, error) {
	items, err := decodeArray(data)
	if err != nil {
		return nil, err
	}
	movies := make([]*Movie, 0, len(items))
	for i, item := range items {
		fields, err := decodeObject(item)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		movies = append(movies, &Movie{fields: fields, pos: i})
	}
	return movies, nil
}

func parseKeyedMovies(keyed *object) ([]*Movie, error) {
	movies := make([]*Movie, 0, len(keyed.keys))
	for i, key := range keyed.keys {
		fields, err := decodeObject(keyed.values[key])
		if err != nil {
			return nil, fmt.Errorf("record %q: %w", key, err)
		}
		movies = append(movies, &Movie{fields: fields, key: key, pos: i})
	}
	return movies, nil
}

// Shape returns the detected layout.
func (d *Document) Shape() Shape { return d.shape }

// Movies returns the records in file order.
func (d *Document) Movies() []*Movie { return d.movies }

// Len returns the number of records.
func (d *Document) Len() int { return len(d.movies) }

// Marshal renders the document in its original shape with two-space
// indentation and a trailing newline.
func (d *Document) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	switch d.shape {
	case ShapeArray:
		if err := writeMovieArray(&buf, d.movies, 0); err != nil {
			return nil, err
		}
	case ShapeKeyed:
		if err := writeObject(&buf, d.keyedObject(), 0); err != nil {
			return nil, err
		}
	case ShapeWrappedArray, ShapeWrappedObject:
		var inner bytes.Buffer
		var err error
		if d.shape == ShapeWrappedArray {
			err = writeMovieArray(&inner, d.movies, 0)
		} else {
			err = writeObject(&inner, d.keyedObject(), 0)
		}
		if err != nil {
			return nil, err
		}
		d.root.set(moviesKey, json.RawMessage(inner.Bytes()))
		if err := writeObject(&buf, d.root, 0); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown catalog shape %d", d.shape)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}

func (d *Document) keyedObject() *object {
	keyed := newObject()
	for _, m := range d.movies {
		var inner bytes.Buffer
		// Errors surface when the outer object is written.
		_ = writeObject(&inner, m.fields, 0)
		keyed.set(m.key, json.RawMessage(inner.Bytes()))
	}
	return keyed
}

func writeMovieArray(w *bytes.Buffer, movies []*Movie, depth int) error {
	if len(movies) == 0 {
		w.WriteString("[]")
		return nil
	}
	w.WriteString("[\n")
	for i, m := range movies {
		writeIndent(w, depth+1)
		if err := writeObject(w, m.fields, depth+1); err != nil {
			return fmt.Errorf("record %d: %w", i, err)
		}
		if i < len(movies)-1 {
			w.WriteByte(',')
		}
		w.WriteByte('\n')
	}
	writeIndent(w, depth)
	w.WriteByte(']')
	return nil
}
