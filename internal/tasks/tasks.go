package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	PollPlayback Phase = iota
	StoreSnapshot
	PruneFeed
	SeedCanvas
)

func (p Phase) String() string {
	switch p {
	case PollPlayback:
		return "poll_playback"
	case StoreSnapshot:
		return "store_snapshot"
	case PruneFeed:
		return "prune_feed"
	case SeedCanvas:
		return "seed_canvas"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks the
// operation itself.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

func pollUpdate(step int, track string) ProgressUpdate {
	message := "No active playback"
	if track != "" {
		message = fmt.Sprintf("Now playing: %s", track)
	}
	return ProgressUpdate{
		Phase:   PollPlayback,
		Step:    step,
		Message: message,
	}
}

func pruneUpdate(step int, removed int64) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PruneFeed,
		Step:    step,
		Message: fmt.Sprintf("Pruned %d push events", removed),
		Data:    removed,
	}
}

func seedCellUpdate(step, total int, x, y int, color string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SeedCanvas,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] (%d,%d) ← %s", step, total, x, y, color),
	}
}
