// Package tasks implements the long-running background operations around
// an event: playback polling, feed pruning, and canvas seeding.
//
// # Core Operations
//
//  1. [NowPlayingPoller] : Periodically fetches the organizer's Spotify
//     playback state and stores a per-event snapshot for the
//     now-playing endpoint.
//
//  2. [PushPruner] : Trims the GitHub push feed down to a retention
//     window so long events do not accumulate unbounded history.
//
//  3. [Seeder] : Paints a base pattern onto a fresh canvas through the
//     same write path attendees use, paced by a rate limiter so seeding
//     cannot starve live writers.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, and messages
// for CLI or UI rendering. Updates use select with default to prevent
// blocking.
package tasks
