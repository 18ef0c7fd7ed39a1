// Package pipeline runs one batch end to end: take the single-writer lock,
// load the catalog, resolve scores, merge and persist, then record the run
// and export metrics. Only persistence, lock and configuration failures are
// returned as errors; provider trouble is reported in the Summary.
package pipeline
