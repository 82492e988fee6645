// Package arr implements the thin HTTP client contract for external
// media-management applications (Sonarr, Radarr, Lidarr, Readarr,
// Whisparr): listing missing and below-cutoff items, triggering remote
// searches, polling commands, and inspecting or removing queue downloads.
package arr
