// package place implements the rate-limited shared-canvas mutation engine.
//
// Every cell write flows through [Service.SetCell]: validated against the
// canvas, gated by the per-actor cooldown (admins bypass), applied to the
// grid, then journaled. A rejected write has no observable side effect.
package place

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/shared"
)

// Grid owns the persisted canvas state for each event.
type Grid interface {
	Create(canvas *models.Canvas) error
	GetByEvent(eventID string) (*models.Canvas, error)
	SetCell(eventID string, x, y int, color string) error
	Replace(canvas *models.Canvas, clearHistory bool) error
}

// Ledger is the append-only journal of accepted writes.
type Ledger interface {
	Append(commit *models.Commit) error
	LastByActor(eventID, actorID string) (*models.Commit, error)
}

// Broadcaster receives accepted writes for fan-out to live viewers.
type Broadcaster interface {
	CellWritten(eventID string, cell models.Cell)
}

// Service orchestrates canvas reads and writes.
type Service struct {
	grid         Grid
	ledger       Ledger
	gate         *Gate
	isAdmin      AdminFunc
	logger       *log.Logger
	broadcaster  Broadcaster
	clearOnReset bool
	now          func() time.Time
}

// Options configures a [Service].
type Options struct {
	Grid    Grid
	Ledger  Ledger
	IsAdmin AdminFunc
	Logger  *log.Logger

	// Cooldown is the minimum spacing between accepted non-admin writes.
	Cooldown time.Duration

	// Broadcaster, when set, is notified of every accepted write.
	Broadcaster Broadcaster

	// ClearHistoryOnReset discards the commit journal when a canvas is
	// reset, so cooldown state does not leak across reconfiguration.
	ClearHistoryOnReset bool

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// NewService creates a Service from the given options.
func NewService(opts Options) *Service {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		grid:         opts.Grid,
		ledger:       opts.Ledger,
		gate:         NewGate(opts.Ledger, opts.IsAdmin, opts.Cooldown),
		isAdmin:      opts.IsAdmin,
		logger:       opts.Logger,
		broadcaster:  opts.Broadcaster,
		clearOnReset: opts.ClearHistoryOnReset,
		now:          opts.Now,
	}
}

// Canvas returns the full canvas for an event.
func (s *Service) Canvas(eventID string) (*models.Canvas, error) {
	return s.grid.GetByEvent(eventID)
}

// SetCell runs the write path: validate, authorize, apply, record.
//
// The grid mutation is the source of truth. If the ledger append fails
// after the grid write succeeded, the write still stands and the failure
// is logged: losing an append makes rate limiting overly permissive, not
// overly restrictive, which is the right degradation for this feature.
func (s *Service) SetCell(eventID, actorID string, x, y int, color string) (models.Cell, error) {
	if actorID == "" {
		return models.Cell{}, shared.ErrUnauthenticated
	}

	canvas, err := s.grid.GetByEvent(eventID)
	if err != nil {
		return models.Cell{}, err
	}
	if !canvas.InBounds(x, y) {
		return models.Cell{}, fmt.Errorf("%w: (%d,%d) on %dx%d canvas",
			shared.ErrOutOfBounds, x, y, canvas.Width(), canvas.Height())
	}
	if !canvas.HasColor(color) {
		return models.Cell{}, fmt.Errorf("%w: %q", shared.ErrInvalidColor, color)
	}

	now := s.now()
	decision, err := s.gate.MayWrite(eventID, actorID, now)
	if err != nil {
		return models.Cell{}, err
	}
	if !decision.Allowed {
		return models.Cell{}, &RateLimitError{RetryAfter: decision.RetryAfter}
	}

	if err := s.grid.SetCell(eventID, x, y, color); err != nil {
		return models.Cell{}, err
	}

	commit := &models.Commit{
		EventID:   eventID,
		ActorID:   actorID,
		X:         x,
		Y:         y,
		Color:     color,
		WrittenAt: now,
	}
	if err := s.ledger.Append(commit); err != nil {
		// Fail open: the cell is already written, never roll it back or
		// surface the journal failure to the actor.
		s.logger.Warn("commit journal append failed after grid write",
			"event", eventID, "actor", actorID, "x", x, "y", y, "error", err)
	}

	cell := models.Cell{X: x, Y: y, Color: color}
	if s.broadcaster != nil {
		s.broadcaster.CellWritten(eventID, cell)
	}

	return cell, nil
}

// Status returns the actor's cooldown standing on the event's canvas.
// NextAllowedWrite is the zero time when the actor may write immediately.
func (s *Service) Status(eventID, actorID string) (Status, error) {
	if actorID == "" {
		return Status{}, shared.ErrUnauthenticated
	}

	admin, err := s.isAdmin(eventID, actorID)
	if err != nil {
		return Status{}, fmt.Errorf("admin check failed: %w", err)
	}

	last, err := s.ledger.LastByActor(eventID, actorID)
	if err != nil {
		return Status{}, fmt.Errorf("ledger lookup failed: %w", err)
	}

	st := Status{LastCommit: last, IsAdmin: admin}
	if !admin && last != nil {
		retryAfter := last.WrittenAt.Add(s.gate.cooldown)
		if s.now().Before(retryAfter) {
			st.NextAllowedWrite = retryAfter
		}
	}
	return st, nil
}

// Reset discards the event's canvas and recreates it with new parameters.
// The caller is responsible for checking admin capability first. Whether
// the commit journal survives is a configured policy.
func (s *Service) Reset(eventID string, width, height int, palette []string, defaultColor string) error {
	canvas := models.NewCanvas(eventID, width, height, palette, defaultColor)
	return s.grid.Replace(canvas, s.clearOnReset)
}
