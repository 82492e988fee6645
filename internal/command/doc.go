// Package command polls a triggered remote command until it reaches a
// terminal state or a bounded attempt count is exhausted. A timeout is
// deliberately non-fatal: the remote search may still finish on its own.
package command
