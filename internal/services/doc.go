// Package services defines shared utilities consumed by the pipeline, the
// resolver and the provider adapters.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, movie IDs and provider names for
//     logging.
//   - Structured error markers plus the Wrap helper so callers can tell
//     batch-fatal failures (persistence, locking, configuration) apart from
//     everything else.
//
// Use these helpers when wiring new components so operational behaviour
// (error handling, observability) stays uniform across the pipeline.
package services
