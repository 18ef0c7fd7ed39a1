// Package main hosts the nrw CLI entrypoint and command graph.
//
// The Cobra command tree loads configuration once, builds the batch pipeline
// on demand, and renders results as tables or JSON. Resolution, caching and
// persistence live in the internal packages; commands here only translate
// flags into requests and format what comes back.
package main
