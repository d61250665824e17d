package ui

import (
	"time"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/services"
)

// Reconciler keeps the displayed grid consistent while writes are in
// flight.
//
// It holds two copies of the canvas: the last authoritative state from
// the server, and a display copy carrying optimistic writes. A write is
// painted onto the display copy immediately; when the server confirms it
// (directly or via the broadcast feed) the authoritative copy catches up,
// and when the server rejects it the display cell rolls back to the
// authoritative value.
//
// A rejection carries the retry deadline, which is cached so the client
// refuses further writes locally until it passes instead of sending
// requests it knows will bounce.
type Reconciler struct {
	width   int
	height  int
	server  [][]string
	display [][]string
	retryAt time.Time
}

// NewReconciler builds a reconciler from a freshly fetched canvas.
func NewReconciler(canvas *services.Canvas) *Reconciler {
	r := &Reconciler{}
	r.Replace(canvas)
	return r
}

// Replace resets both copies to a new authoritative canvas, e.g. after a
// reconnect or an admin reset. The cached cooldown deadline survives: a
// reset canvas does not grant anyone a free write.
func (r *Reconciler) Replace(canvas *services.Canvas) {
	r.width = canvas.Width
	r.height = canvas.Height
	r.server = cloneGrid(canvas.Cells)
	r.display = cloneGrid(canvas.Cells)
}

func cloneGrid(cells [][]string) [][]string {
	grid := make([][]string, len(cells))
	for y, row := range cells {
		grid[y] = append([]string(nil), row...)
	}
	return grid
}

func (r *Reconciler) Width() int  { return r.width }
func (r *Reconciler) Height() int { return r.height }

// Cell returns the display value at (x, y), empty outside the grid.
func (r *Reconciler) Cell(x, y int) string {
	if y < 0 || y >= len(r.display) || x < 0 || x >= len(r.display[y]) {
		return ""
	}
	return r.display[y][x]
}

// CanWrite reports whether a write attempt is worthwhile right now. When
// false, the returned time is the cached deadline.
func (r *Reconciler) CanWrite(now time.Time) (bool, time.Time) {
	if now.Before(r.retryAt) {
		return false, r.retryAt
	}
	return true, time.Time{}
}

// Apply paints an optimistic write onto the display copy. Returns false
// without painting when the cached cooldown has not passed, or the cell
// is out of bounds.
func (r *Reconciler) Apply(x, y int, color string, now time.Time) bool {
	if ok, _ := r.CanWrite(now); !ok {
		return false
	}
	if y < 0 || y >= len(r.display) || x < 0 || x >= len(r.display[y]) {
		return false
	}
	r.display[y][x] = color
	return true
}

// Confirm records a server-accepted write. Used both for the caller's own
// confirmed writes and for broadcast frames from other attendees.
func (r *Reconciler) Confirm(cell models.Cell) {
	if cell.Y < 0 || cell.Y >= len(r.server) || cell.X < 0 || cell.X >= len(r.server[cell.Y]) {
		return
	}
	r.server[cell.Y][cell.X] = cell.Color
	r.display[cell.Y][cell.X] = cell.Color
}

// Reject rolls an optimistic write back to the authoritative value and
// caches the retry deadline from the rejection.
func (r *Reconciler) Reject(x, y int, retryAt time.Time) {
	if y >= 0 && y < len(r.display) && x >= 0 && x < len(r.display[y]) {
		r.display[y][x] = r.server[y][x]
	}
	if retryAt.After(r.retryAt) {
		r.retryAt = retryAt
	}
}

// SetCooldown seeds the cached deadline, e.g. from the status endpoint at
// startup.
func (r *Reconciler) SetCooldown(retryAt time.Time) {
	if retryAt.After(r.retryAt) {
		r.retryAt = retryAt
	}
}

// NoteAccepted records that the server accepted one of our writes at the
// given instant, starting a fresh local cooldown window.
func (r *Reconciler) NoteAccepted(writtenAt time.Time, cooldown time.Duration) {
	r.SetCooldown(writtenAt.Add(cooldown))
}
