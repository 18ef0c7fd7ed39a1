// Package catalog loads the externally owned movie catalog, merges resolved
// scores into it without disturbing other fields, and writes it back with a
// backup snapshot and an atomic replace.
//
// Three layouts are accepted and reproduced on save: a top-level array, an
// object whose "movies" key holds an array or id-keyed object, and a
// top-level id-keyed object.
package catalog
