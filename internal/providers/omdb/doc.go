// Package omdb implements the primary structured score adapter on top of the
// OMDb API. It reads the Rotten Tomatoes entry from the ratings list and the
// tomatoURL field when OMDb has one.
package omdb
