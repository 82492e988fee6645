// Command houndarr is the control CLI for the houndarrd daemon. It talks to
// the daemon over the IPC socket and never mutates state directly.
package main
