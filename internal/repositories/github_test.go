package repositories

import (
	"testing"
	"time"

	"github.com/duskmoth/sidestage/internal/models"
)

func TestPushEventRepository(t *testing.T) {
	base := time.Date(2026, 8, 29, 12, 0, 0, 0, time.UTC)

	push := func(eventID string, pushedAt time.Time) *models.PushEvent {
		return &models.PushEvent{
			EventID:  eventID,
			RepoName: "duskmoth/sidestage",
			Author:   "dev",
			Message:  "fix canvas bounds",
			Branch:   "main",
			PushedAt: pushedAt,
		}
	}

	t.Run("ListForEvent returns newest first", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPushEventRepository(db)

		for i := 0; i < 3; i++ {
			if err := repo.Create(push("evt", base.Add(time.Duration(i)*time.Hour))); err != nil {
				t.Fatalf("failed to create push: %v", err)
			}
		}

		pushes, err := repo.ListForEvent("evt", 0)
		if err != nil {
			t.Fatalf("failed to list pushes: %v", err)
		}
		if len(pushes) != 3 {
			t.Fatalf("expected 3 pushes, got %d", len(pushes))
		}
		if !pushes[0].PushedAt.After(pushes[2].PushedAt) {
			t.Errorf("expected newest first, got %+v", pushes)
		}
	})

	t.Run("PruneBefore sweeps all events", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewPushEventRepository(db)

		stale := base.Add(-48 * time.Hour)
		for _, p := range []*models.PushEvent{
			push("evt-1", stale),
			push("evt-2", stale),
			push("evt-1", base),
		} {
			if err := repo.Create(p); err != nil {
				t.Fatalf("failed to create push: %v", err)
			}
		}

		removed, err := repo.PruneBefore(base.Add(-24 * time.Hour))
		if err != nil {
			t.Fatalf("failed to prune: %v", err)
		}
		if removed != 2 {
			t.Errorf("removed = %d, want 2", removed)
		}

		kept, err := repo.ListForEvent("evt-1", 0)
		if err != nil {
			t.Fatalf("failed to list pushes: %v", err)
		}
		if len(kept) != 1 || !kept[0].PushedAt.Equal(base) {
			t.Errorf("expected only the recent push, got %+v", kept)
		}
	})
}
