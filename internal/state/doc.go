// Package state persists which items have already been searched per
// instance, so long-running remote searches are never resubmitted. Records
// expire individually and each instance's store resets wholesale once its
// configured reset interval elapses.
package state
