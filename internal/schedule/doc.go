// Package schedule gates hunt cycle starts against configured day-of-week
// and time-of-day windows. An instance with no matching rule hunts around
// the clock; otherwise it hunts only inside at least one matching window.
package schedule
