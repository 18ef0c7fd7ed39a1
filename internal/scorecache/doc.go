// Package scorecache persists provider results keyed by normalized title and
// year so repeat runs skip titles that were already attempted.
//
// The whole mapping lives in one JSON object. Every Put re-reads the file,
// merges the new entry and replaces the file through a temp file plus rename
// under a per-instance lock. Entries are never evicted by the pipeline;
// Remove and Clear exist for operators.
package scorecache
