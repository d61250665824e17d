package models

import (
	"fmt"
	"slices"
	"time"

	"github.com/duskmoth/sidestage/internal/shared"
)

// IsHexColor reports whether s is a hex color token: "#" followed by
// exactly six hex digits, case-insensitive.
func IsHexColor(s string) bool {
	if len(s) != 7 || s[0] != '#' {
		return false
	}
	for i := 1; i < 7; i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}

// Canvas is the shared pixel grid owned by one event.
//
// Dimensions and palette are fixed at creation; every cell is always a
// member of the palette. Cells are addressed (x, y) with the origin at the
// top-left.
type Canvas struct {
	id           string
	eventID      string
	width        int
	height       int
	palette      []string
	defaultColor string
	rows         [][]string
	createdAt    time.Time
}

// NewCanvas creates a Canvas with every cell set to defaultColor.
func NewCanvas(eventID string, width, height int, palette []string, defaultColor string) *Canvas {
	rows := make([][]string, 0, max(height, 0))
	for y := 0; y < height; y++ {
		row := make([]string, width)
		for x := range row {
			row[x] = defaultColor
		}
		rows = append(rows, row)
	}
	return &Canvas{
		eventID:      eventID,
		width:        width,
		height:       height,
		palette:      palette,
		defaultColor: defaultColor,
		rows:         rows,
		createdAt:    time.Now(),
	}
}

func (c *Canvas) ID() string            { return c.id }
func (c *Canvas) SetID(id string)       { c.id = id }
func (c *Canvas) EventID() string       { return c.eventID }
func (c *Canvas) SetEventID(id string)  { c.eventID = id }
func (c *Canvas) Width() int            { return c.width }
func (c *Canvas) Height() int           { return c.height }
func (c *Canvas) Palette() []string     { return c.palette }
func (c *Canvas) DefaultColor() string  { return c.defaultColor }
func (c *Canvas) CreatedAt() time.Time  { return c.createdAt }
func (c *Canvas) CellCount() int        { return c.width * c.height }
func (c *Canvas) Rows() [][]string      { return c.rows }
func (c *Canvas) SetRows(r [][]string)  { c.rows = r }
func (c *Canvas) SetCreated(t time.Time) { c.createdAt = t }

// InBounds reports whether (x, y) addresses a cell on this canvas.
func (c *Canvas) InBounds(x, y int) bool {
	return x >= 0 && x < c.width && y >= 0 && y < c.height
}

// HasColor reports whether color is a member of the palette. Membership is
// by value equality; tokens are not normalized.
func (c *Canvas) HasColor(color string) bool {
	return slices.Contains(c.palette, color)
}

// Validate checks dimensions, palette shape and color formats. The cell
// ceiling is checked by the repository, which knows the configured limit.
func (c *Canvas) Validate() error {
	if c.width < 1 || c.height < 1 {
		return fmt.Errorf("%w: %dx%d", shared.ErrInvalidDimensions, c.width, c.height)
	}
	if len(c.palette) == 0 {
		return shared.ErrEmptyPalette
	}
	for _, color := range c.palette {
		if !IsHexColor(color) {
			return fmt.Errorf("%w: malformed palette entry %q", shared.ErrInvalidColor, color)
		}
	}
	if !c.HasColor(c.defaultColor) {
		return fmt.Errorf("%w: default color %q not in palette", shared.ErrInvalidColor, c.defaultColor)
	}
	return nil
}

// Cell is one addressable grid position and its current color.
type Cell struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

// Commit is one accepted cell write, permanently journaled. The integer ID
// reflects insertion order and breaks ties between commits sharing a
// written_at timestamp.
type Commit struct {
	ID        int64     `json:"id"`
	EventID   string    `json:"event_id"`
	ActorID   string    `json:"actor_id"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	Color     string    `json:"color"`
	WrittenAt time.Time `json:"written_at"`
}
