package models

import (
	"errors"
	"testing"

	"github.com/duskmoth/sidestage/internal/shared"
)

func TestIsHexColor(t *testing.T) {
	valid := []string{"#ff0000", "#FF0000", "#00Ff00", "#123abc", "#000000"}
	for _, s := range valid {
		if !IsHexColor(s) {
			t.Errorf("expected %q to be a valid hex color", s)
		}
	}

	invalid := []string{"", "#fff", "ff0000", "#ff00000", "#gg0000", "#ff 000", "red"}
	for _, s := range invalid {
		if IsHexColor(s) {
			t.Errorf("expected %q to be rejected", s)
		}
	}
}

func TestCanvasValidate(t *testing.T) {
	palette := []string{"#ff0000", "#00ff00"}

	t.Run("valid canvas initialized to default color", func(t *testing.T) {
		c := NewCanvas("evt", 10, 5, palette, "#ff0000")
		if err := c.Validate(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		rows := c.Rows()
		if len(rows) != 5 {
			t.Fatalf("expected 5 rows, got %d", len(rows))
		}
		for _, row := range rows {
			if len(row) != 10 {
				t.Fatalf("expected 10 cells per row, got %d", len(row))
			}
			for _, cell := range row {
				if cell != "#ff0000" {
					t.Errorf("expected default color, got %q", cell)
				}
			}
		}
	})

	t.Run("invalid dimensions", func(t *testing.T) {
		for _, dims := range [][2]int{{0, 5}, {5, 0}, {-1, 5}} {
			c := NewCanvas("evt", dims[0], dims[1], palette, "#ff0000")
			if err := c.Validate(); !errors.Is(err, shared.ErrInvalidDimensions) {
				t.Errorf("dims %v: expected ErrInvalidDimensions, got %v", dims, err)
			}
		}
	})

	t.Run("empty palette", func(t *testing.T) {
		c := NewCanvas("evt", 2, 2, nil, "#ff0000")
		if err := c.Validate(); !errors.Is(err, shared.ErrEmptyPalette) {
			t.Errorf("expected ErrEmptyPalette, got %v", err)
		}
	})

	t.Run("default color not in palette", func(t *testing.T) {
		c := NewCanvas("evt", 2, 2, palette, "#0000ff")
		if err := c.Validate(); !errors.Is(err, shared.ErrInvalidColor) {
			t.Errorf("expected ErrInvalidColor, got %v", err)
		}
	})

	t.Run("malformed palette entry", func(t *testing.T) {
		c := NewCanvas("evt", 2, 2, []string{"#ff0000", "blue"}, "#ff0000")
		if err := c.Validate(); !errors.Is(err, shared.ErrInvalidColor) {
			t.Errorf("expected ErrInvalidColor, got %v", err)
		}
	})
}

func TestCanvasBoundsAndPalette(t *testing.T) {
	c := NewCanvas("evt", 3, 2, []string{"#ff0000"}, "#ff0000")

	inBounds := [][2]int{{0, 0}, {2, 1}, {1, 0}}
	for _, p := range inBounds {
		if !c.InBounds(p[0], p[1]) {
			t.Errorf("expected (%d,%d) in bounds", p[0], p[1])
		}
	}

	outOfBounds := [][2]int{{3, 0}, {0, 2}, {-1, 0}, {0, -1}}
	for _, p := range outOfBounds {
		if c.InBounds(p[0], p[1]) {
			t.Errorf("expected (%d,%d) out of bounds", p[0], p[1])
		}
	}

	if !c.HasColor("#ff0000") {
		t.Error("expected palette membership for #ff0000")
	}
	if c.HasColor("#FF0000") {
		t.Error("palette membership is by value equality, #FF0000 should not match")
	}
}
