// Package protocol defines the JSON messages exchanged over the audio WebSocket.
// Clients send binary PCM-16 frames and small JSON control messages; the server
// answers with status messages and one analysis result per analysis tick.
package protocol
