// Package services contains HTTP clients used outside the server process.
//
// # API Client
//
// [Client] talks to a running sidestage server. The CLI and TUI use it for
// canvas reads, cell writes and cooldown status, and for subscribing to the
// websocket feed of accepted writes.
//
// Rate-limit rejections surface as [*APIError] with Status 429 and a parsed
// retry deadline, so callers can cache the cooldown instead of hammering
// the server.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token
// refresh. The [oauth2.Config.Client] transport refreshes expired tokens
// using the refresh token. The now-playing poller calls
// [SpotifyService.CurrentlyPlaying] and stores the snapshot per event.
package services
