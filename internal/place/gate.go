package place

import (
	"fmt"
	"time"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/shared"
)

// AdminFunc reports whether the actor administers the event. Injected so
// the canvas core carries no dependency on how admin membership is stored.
type AdminFunc func(eventID, actorID string) (bool, error)

// Decision is the outcome of a rate-limit check. When Allowed is false,
// RetryAfter holds the earliest time the actor may write again.
type Decision struct {
	Allowed    bool
	RetryAfter time.Time
}

// Gate decides whether an actor may write to a canvas right now.
//
// Admins bypass the limit entirely. Everyone else must wait a full
// cooldown window after their most recent journaled write: a strict
// per-actor sliding window of size one, which guarantees hard minimum
// spacing between writes rather than a burst-then-throttle shape.
type Gate struct {
	ledger   Ledger
	isAdmin  AdminFunc
	cooldown time.Duration
}

// NewGate creates a Gate over the commit ledger with the given admin
// predicate and cooldown window.
func NewGate(ledger Ledger, isAdmin AdminFunc, cooldown time.Duration) *Gate {
	return &Gate{ledger: ledger, isAdmin: isAdmin, cooldown: cooldown}
}

// MayWrite checks the actor's standing on the event's canvas at the given
// instant.
func (g *Gate) MayWrite(eventID, actorID string, now time.Time) (Decision, error) {
	admin, err := g.isAdmin(eventID, actorID)
	if err != nil {
		return Decision{}, fmt.Errorf("admin check failed: %w", err)
	}
	if admin {
		return Decision{Allowed: true}, nil
	}

	last, err := g.ledger.LastByActor(eventID, actorID)
	if err != nil {
		return Decision{}, fmt.Errorf("ledger lookup failed: %w", err)
	}
	if last == nil {
		return Decision{Allowed: true}, nil
	}

	retryAfter := last.WrittenAt.Add(g.cooldown)
	if now.Before(retryAfter) {
		return Decision{Allowed: false, RetryAfter: retryAfter}, nil
	}
	return Decision{Allowed: true}, nil
}

// RateLimitError is returned when a write is rejected by the gate. It
// carries the instant the actor may retry.
type RateLimitError struct {
	RetryAfter time.Time
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited until %s", e.RetryAfter.Format(time.RFC3339))
}

func (e *RateLimitError) Unwrap() error { return shared.ErrRateLimited }

// Status is the cooldown standing the client uses to pre-compute its UI
// state without attempting a write.
type Status struct {
	LastCommit       *models.Commit `json:"last_commit,omitempty"`
	IsAdmin          bool           `json:"is_admin"`
	NextAllowedWrite time.Time      `json:"next_allowed_write"`
}
