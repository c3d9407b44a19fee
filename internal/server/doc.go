// Package server exposes the analysis pipeline over HTTP. Audio arrives on a
// WebSocket endpoint, one session per connection, and a small JSON API reports
// health, sessions, configuration and statistics for monitoring.
package server
