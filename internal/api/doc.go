// Package api defines the JSON DTOs shared by the daemon's HTTP status
// API and the Unix-socket IPC surface.
package api
