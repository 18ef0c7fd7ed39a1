// Package notifications publishes run summaries to ntfy.
//
// The notifier posts a plain-text message to the topic URL configured under
// [notifications] and degrades to a no-op when no topic is set. Delivery
// failures are returned to the caller, which logs them; a failed notification
// never fails a run.
package notifications
