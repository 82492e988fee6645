// Package ratelimit enforces a per-instance rolling-window cap on metered
// API calls. It never fails a call outright: a call that does not fit the
// window is deferred to the next cycle via ErrDeferred.
package ratelimit
