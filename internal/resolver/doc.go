// Package resolver turns catalog movies into score outcomes.
//
// For each movie the staleness policy is consulted first, then the cache,
// then each provider in priority order behind the per-provider rate limiter.
// The first provider that returns a critic score wins and its result is
// written to the cache before the outcome is returned. Provider failures
// never escape as errors; only cache persistence failures do.
package resolver
