// Package notifications delivers operational push notifications via ntfy:
// hunt cycle summaries, stalled-download removals, and credential failures.
// Without a configured topic every notification is a no-op.
package notifications
