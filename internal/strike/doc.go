// Package strike implements the Swaparr stalled-download policy: downloads
// that stop progressing accrue strikes on each evaluation tick, and a
// download reaching the strike limit is removed from the application's
// queue (or merely logged in dry-run mode).
package strike
