// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI provides a two-view workflow for the shared canvas:
//  1. [EventListView] : Browse public events
//  2. [CanvasView] : View and paint the event's canvas
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View
// pattern. Accepted writes from other attendees stream in over the
// websocket subscription and are applied as they arrive.
//
// Writes are optimistic: painting updates the local grid immediately while
// the request is in flight. The [Reconciler] tracks the last authoritative
// server state, rolls rejected writes back, and caches the cooldown
// deadline so the client stops attempting writes it knows will be refused.
//
// Keyboard navigation uses vim-style bindings (h/j/k/l, enter, esc, q)
// with contextual help displayed via charmbracelet/bubbles/help.
package ui
