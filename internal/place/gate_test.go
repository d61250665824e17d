package place

import (
	"errors"
	"testing"
	"time"

	"github.com/duskmoth/sidestage/internal/models"
)

// stubLedger serves a canned last commit.
type stubLedger struct {
	last *models.Commit
	err  error
}

func (s *stubLedger) Append(c *models.Commit) error { return nil }
func (s *stubLedger) LastByActor(eventID, actorID string) (*models.Commit, error) {
	return s.last, s.err
}

func adminAlways(eventID, actorID string) (bool, error) { return true, nil }
func adminNever(eventID, actorID string) (bool, error)  { return false, nil }

func TestGateMayWrite(t *testing.T) {
	base := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	cooldown := 30 * time.Second

	t.Run("no history allows immediately", func(t *testing.T) {
		g := NewGate(&stubLedger{}, adminNever, cooldown)

		d, err := g.MayWrite("evt", "actor", base)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !d.Allowed {
			t.Error("expected write allowed")
		}
	})

	t.Run("inside window is denied with deadline", func(t *testing.T) {
		g := NewGate(&stubLedger{last: &models.Commit{WrittenAt: base}}, adminNever, cooldown)

		d, err := g.MayWrite("evt", "actor", base.Add(29*time.Second))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if d.Allowed {
			t.Fatal("expected write denied")
		}
		if want := base.Add(cooldown); !d.RetryAfter.Equal(want) {
			t.Errorf("expected retry after %v, got %v", want, d.RetryAfter)
		}
	})

	t.Run("at the boundary is allowed", func(t *testing.T) {
		g := NewGate(&stubLedger{last: &models.Commit{WrittenAt: base}}, adminNever, cooldown)

		d, err := g.MayWrite("evt", "actor", base.Add(cooldown))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !d.Allowed {
			t.Error("expected write allowed at exactly lastWrite+cooldown")
		}
	})

	t.Run("admin bypasses even inside the window", func(t *testing.T) {
		g := NewGate(&stubLedger{last: &models.Commit{WrittenAt: base}}, adminAlways, cooldown)

		d, err := g.MayWrite("evt", "actor", base.Add(time.Second))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !d.Allowed {
			t.Error("expected admin bypass")
		}
	})

	t.Run("ledger errors propagate", func(t *testing.T) {
		g := NewGate(&stubLedger{err: errors.New("db down")}, adminNever, cooldown)

		if _, err := g.MayWrite("evt", "actor", base); err == nil {
			t.Error("expected error from ledger failure")
		}
	})

	t.Run("admin check errors propagate", func(t *testing.T) {
		failing := func(eventID, actorID string) (bool, error) {
			return false, errors.New("authz down")
		}
		g := NewGate(&stubLedger{}, failing, cooldown)

		if _, err := g.MayWrite("evt", "actor", base); err == nil {
			t.Error("expected error from admin check failure")
		}
	})
}
