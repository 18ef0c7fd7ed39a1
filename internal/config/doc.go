// Package config loads, normalizes, and validates nrw configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// OMDB_API_KEY, MDBLIST_API_KEY and NRW_NO_RT. The Config type centralizes
// every knob the pipeline and CLI need so provider packages only ever see
// already-resolved credentials.
package config
