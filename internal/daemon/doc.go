// Package daemon wires configuration, stores, the cycle scheduler, and the
// Swaparr strike manager into a single-instance background process, and
// exposes the operational controls (pause, force-run, emergency reset,
// dry-run) consumed by the IPC and HTTP surfaces.
package daemon
