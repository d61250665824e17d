package repositories

import (
	"database/sql"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func createTestEvent(t *testing.T, db *sql.DB) *models.Event {
	t.Helper()

	repo := NewEventRepository(db)
	event := models.NewEvent(0, "Test Conf", "test-conf", time.Now().Add(24*time.Hour))
	if err := repo.Create(event); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return event
}

func TestCanvasRepository(t *testing.T) {
	palette := []string{"#ff0000", "#00ff00", "#0000ff"}

	t.Run("Create initializes every cell to the default color", func(t *testing.T) {
		db := setupTestDB(t)
		event := createTestEvent(t, db)
		repo := NewCanvasRepository(db, 5000)

		canvas := models.NewCanvas(event.ID(), 8, 6, palette, "#0000ff")
		if err := repo.Create(canvas); err != nil {
			t.Fatalf("failed to create canvas: %v", err)
		}
		if canvas.ID() == "" {
			t.Error("canvas ID should be set after creation")
		}

		loaded, err := repo.GetByEvent(event.ID())
		if err != nil {
			t.Fatalf("failed to get canvas: %v", err)
		}
		if loaded.Width() != 8 || loaded.Height() != 6 {
			t.Errorf("expected 8x6, got %dx%d", loaded.Width(), loaded.Height())
		}
		if !reflect.DeepEqual(loaded.Palette(), palette) {
			t.Errorf("palette mismatch: %v", loaded.Palette())
		}
		for y, row := range loaded.Rows() {
			for x, cell := range row {
				if cell != "#0000ff" {
					t.Fatalf("cell (%d,%d) = %q, want default", x, y, cell)
				}
			}
		}
	})

	t.Run("Create rejects invalid parameters without persisting", func(t *testing.T) {
		db := setupTestDB(t)
		event := createTestEvent(t, db)
		repo := NewCanvasRepository(db, 100)

		cases := []struct {
			name   string
			canvas *models.Canvas
			want   error
		}{
			{"zero width", models.NewCanvas(event.ID(), 0, 5, palette, "#ff0000"), shared.ErrInvalidDimensions},
			{"zero height", models.NewCanvas(event.ID(), 5, 0, palette, "#ff0000"), shared.ErrInvalidDimensions},
			{"empty palette", models.NewCanvas(event.ID(), 5, 5, nil, "#ff0000"), shared.ErrEmptyPalette},
			{"default not in palette", models.NewCanvas(event.ID(), 5, 5, palette, "#ffffff"), shared.ErrInvalidColor},
			{"over ceiling", models.NewCanvas(event.ID(), 20, 20, palette, "#ff0000"), shared.ErrTooManyCells},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				if err := repo.Create(tc.canvas); !errors.Is(err, tc.want) {
					t.Errorf("expected %v, got %v", tc.want, err)
				}
				if _, err := repo.GetByEvent(event.ID()); !errors.Is(err, shared.ErrNotFound) {
					t.Errorf("expected no canvas persisted, got %v", err)
				}
			})
		}
	})

	t.Run("Get is idempotent", func(t *testing.T) {
		db := setupTestDB(t)
		event := createTestEvent(t, db)
		repo := NewCanvasRepository(db, 5000)

		canvas := models.NewCanvas(event.ID(), 4, 4, palette, "#ff0000")
		if err := repo.Create(canvas); err != nil {
			t.Fatalf("failed to create canvas: %v", err)
		}

		first, err := repo.GetByEvent(event.ID())
		if err != nil {
			t.Fatalf("first get failed: %v", err)
		}
		second, err := repo.GetByEvent(event.ID())
		if err != nil {
			t.Fatalf("second get failed: %v", err)
		}
		if !reflect.DeepEqual(first.Rows(), second.Rows()) {
			t.Error("expected identical data from consecutive gets")
		}
	})

	t.Run("SetCell writes only the addressed cell", func(t *testing.T) {
		db := setupTestDB(t)
		event := createTestEvent(t, db)
		repo := NewCanvasRepository(db, 5000)

		canvas := models.NewCanvas(event.ID(), 4, 3, palette, "#ff0000")
		if err := repo.Create(canvas); err != nil {
			t.Fatalf("failed to create canvas: %v", err)
		}

		if err := repo.SetCell(event.ID(), 2, 1, "#00ff00"); err != nil {
			t.Fatalf("failed to set cell: %v", err)
		}

		loaded, err := repo.GetByEvent(event.ID())
		if err != nil {
			t.Fatalf("failed to get canvas: %v", err)
		}
		for y, row := range loaded.Rows() {
			for x, cell := range row {
				want := "#ff0000"
				if x == 2 && y == 1 {
					want = "#00ff00"
				}
				if cell != want {
					t.Errorf("cell (%d,%d) = %q, want %q", x, y, cell, want)
				}
			}
		}
	})

	t.Run("SetCell rejects out-of-bounds coordinates", func(t *testing.T) {
		db := setupTestDB(t)
		event := createTestEvent(t, db)
		repo := NewCanvasRepository(db, 5000)

		canvas := models.NewCanvas(event.ID(), 4, 3, palette, "#ff0000")
		if err := repo.Create(canvas); err != nil {
			t.Fatalf("failed to create canvas: %v", err)
		}

		for _, p := range [][2]int{{4, 0}, {0, 3}, {-1, 0}, {0, -1}} {
			if err := repo.SetCell(event.ID(), p[0], p[1], "#00ff00"); !errors.Is(err, shared.ErrOutOfBounds) {
				t.Errorf("(%d,%d): expected ErrOutOfBounds, got %v", p[0], p[1], err)
			}
		}
	})

	t.Run("SetCell rejects colors outside the palette", func(t *testing.T) {
		db := setupTestDB(t)
		event := createTestEvent(t, db)
		repo := NewCanvasRepository(db, 5000)

		canvas := models.NewCanvas(event.ID(), 4, 3, palette, "#ff0000")
		if err := repo.Create(canvas); err != nil {
			t.Fatalf("failed to create canvas: %v", err)
		}

		if err := repo.SetCell(event.ID(), 1, 1, "#123456"); !errors.Is(err, shared.ErrInvalidColor) {
			t.Fatalf("expected ErrInvalidColor, got %v", err)
		}

		loaded, err := repo.GetByEvent(event.ID())
		if err != nil {
			t.Fatalf("failed to get canvas: %v", err)
		}
		if got := loaded.Rows()[1][1]; got != "#ff0000" {
			t.Errorf("cell (1,1) = %q, rejected write must not land", got)
		}
	})

	t.Run("SetCell without a canvas reports not found", func(t *testing.T) {
		db := setupTestDB(t)
		repo := NewCanvasRepository(db, 5000)

		if err := repo.SetCell("no-such-event", 0, 0, "#ff0000"); !errors.Is(err, shared.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("Replace swaps geometry and optionally clears the journal", func(t *testing.T) {
		db := setupTestDB(t)
		event := createTestEvent(t, db)
		repo := NewCanvasRepository(db, 5000)
		commits := NewCommitRepository(db)

		canvas := models.NewCanvas(event.ID(), 4, 3, palette, "#ff0000")
		if err := repo.Create(canvas); err != nil {
			t.Fatalf("failed to create canvas: %v", err)
		}
		commit := &models.Commit{EventID: event.ID(), ActorID: "a", X: 0, Y: 0, Color: "#00ff00", WrittenAt: time.Now()}
		if err := commits.Append(commit); err != nil {
			t.Fatalf("failed to append commit: %v", err)
		}

		replacement := models.NewCanvas(event.ID(), 2, 2, []string{"#ffffff"}, "#ffffff")
		if err := repo.Replace(replacement, false); err != nil {
			t.Fatalf("failed to replace canvas: %v", err)
		}

		loaded, err := repo.GetByEvent(event.ID())
		if err != nil {
			t.Fatalf("failed to get canvas: %v", err)
		}
		if loaded.Width() != 2 || loaded.Height() != 2 {
			t.Errorf("expected 2x2, got %dx%d", loaded.Width(), loaded.Height())
		}
		if count, _ := commits.CountForEvent(event.ID()); count != 1 {
			t.Errorf("expected journal kept, got %d commits", count)
		}

		if err := repo.Replace(models.NewCanvas(event.ID(), 3, 3, []string{"#ffffff"}, "#ffffff"), true); err != nil {
			t.Fatalf("failed to replace canvas: %v", err)
		}
		if count, _ := commits.CountForEvent(event.ID()); count != 0 {
			t.Errorf("expected journal cleared, got %d commits", count)
		}
	})
}
