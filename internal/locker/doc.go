// Package locker provides the per-instance cycle lock: an advisory file
// lock plus a heartbeat file used to break locks left behind by a crashed
// run.
package locker
