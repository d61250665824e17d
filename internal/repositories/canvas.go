package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/shared"
)

// CanvasRepository persists the shared pixel grid for each event.
//
// Storage is row-sharded: the canvases table holds dimensions and palette,
// and canvas_rows holds one record per grid row with the cells as a JSON
// array of hex colors. Single-cell writes are a single UPDATE using
// SQLite's json_set, so two writers targeting different cells of the same
// row cannot clobber each other.
type CanvasRepository struct {
	db       *sql.DB
	maxCells int
}

// NewCanvasRepository creates a new [CanvasRepository]. maxCells caps
// width*height at canvas creation.
func NewCanvasRepository(db *sql.DB, maxCells int) *CanvasRepository {
	return &CanvasRepository{db: db, maxCells: maxCells}
}

// Create validates and inserts a canvas with all cells at the default
// color. Fails without persisting anything if the canvas is invalid or
// exceeds the cell ceiling.
func (r *CanvasRepository) Create(canvas *models.Canvas) error {
	if err := canvas.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if canvas.CellCount() > r.maxCells {
		return fmt.Errorf("%w: %d exceeds ceiling %d", shared.ErrTooManyCells, canvas.CellCount(), r.maxCells)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.insert(tx, canvas); err != nil {
		return err
	}

	return tx.Commit()
}

// insert writes the canvas header and its row shards inside tx.
func (r *CanvasRepository) insert(tx *sql.Tx, canvas *models.Canvas) error {
	id := shared.GenerateID()
	canvas.SetID(id)

	palette, err := json.Marshal(canvas.Palette())
	if err != nil {
		return fmt.Errorf("failed to encode palette: %w", err)
	}

	_, err = tx.Exec(
		"INSERT INTO canvases (id, event_id, width, height, palette, default_color, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, canvas.EventID(), canvas.Width(), canvas.Height(), string(palette), canvas.DefaultColor(), canvas.CreatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert canvas: %w", err)
	}

	for y, row := range canvas.Rows() {
		cells, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode row %d: %w", y, err)
		}
		if _, err := tx.Exec("INSERT INTO canvas_rows (canvas_id, y, cells) VALUES (?, ?, ?)", id, y, string(cells)); err != nil {
			return fmt.Errorf("failed to insert row %d: %w", y, err)
		}
	}

	return nil
}

// GetByEvent retrieves the canvas for an event, reassembling the full cell
// matrix from its row shards.
func (r *CanvasRepository) GetByEvent(eventID string) (*models.Canvas, error) {
	var (
		id           string
		width        int
		height       int
		paletteJSON  string
		defaultColor string
		createdAt    time.Time
	)

	err := r.db.QueryRow(
		"SELECT id, width, height, palette, default_color, created_at FROM canvases WHERE event_id = ?",
		eventID,
	).Scan(&id, &width, &height, &paletteJSON, &defaultColor, &createdAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no canvas for event %s", shared.ErrNotFound, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query canvas: %w", err)
	}

	var palette []string
	if err := json.Unmarshal([]byte(paletteJSON), &palette); err != nil {
		return nil, fmt.Errorf("failed to decode palette: %w", err)
	}

	rows, err := r.db.Query("SELECT y, cells FROM canvas_rows WHERE canvas_id = ? ORDER BY y ASC", id)
	if err != nil {
		return nil, fmt.Errorf("failed to query canvas rows: %w", err)
	}
	defer rows.Close()

	matrix := make([][]string, height)
	for rows.Next() {
		var (
			y         int
			cellsJSON string
		)
		if err := rows.Scan(&y, &cellsJSON); err != nil {
			return nil, fmt.Errorf("failed to scan canvas row: %w", err)
		}
		if y < 0 || y >= height {
			return nil, fmt.Errorf("canvas %s has stray row %d", id, y)
		}
		var cells []string
		if err := json.Unmarshal([]byte(cellsJSON), &cells); err != nil {
			return nil, fmt.Errorf("failed to decode row %d: %w", y, err)
		}
		matrix[y] = cells
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	canvas := models.NewCanvas(eventID, width, height, palette, defaultColor)
	canvas.SetID(id)
	canvas.SetRows(matrix)
	canvas.SetCreated(createdAt)

	return canvas, nil
}

// SetCell writes one cell. Bounds and palette membership are validated by
// the caller against the loaded canvas; both are guarded again at the
// storage layer so a stale caller cannot corrupt a row or land an
// off-palette color after a reset narrowed the palette.
//
// The write is a single UPDATE statement, which is the serialization point
// for concurrent writers on the same canvas.
func (r *CanvasRepository) SetCell(eventID string, x, y int, color string) error {
	if x < 0 || y < 0 {
		return fmt.Errorf("%w: (%d,%d)", shared.ErrOutOfBounds, x, y)
	}

	var paletteJSON string
	err := r.db.QueryRow("SELECT palette FROM canvases WHERE event_id = ?", eventID).Scan(&paletteJSON)
	if err == sql.ErrNoRows {
		return fmt.Errorf("%w: no canvas for event %s", shared.ErrNotFound, eventID)
	}
	if err != nil {
		return fmt.Errorf("failed to query palette: %w", err)
	}

	var palette []string
	if err := json.Unmarshal([]byte(paletteJSON), &palette); err != nil {
		return fmt.Errorf("failed to decode palette: %w", err)
	}
	if !slices.Contains(palette, color) {
		return fmt.Errorf("%w: %s", shared.ErrInvalidColor, color)
	}

	result, err := r.db.Exec(
		fmt.Sprintf(`
			UPDATE canvas_rows
			SET cells = json_set(cells, '$[%d]', ?)
			WHERE y = ?
			  AND canvas_id IN (SELECT id FROM canvases WHERE event_id = ? AND width > ?)
		`, x),
		color, y, eventID, x,
	)
	if err != nil {
		return fmt.Errorf("failed to write cell: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: (%d,%d)", shared.ErrOutOfBounds, x, y)
	}

	return nil
}

// Replace atomically discards the event's canvas and recreates it with new
// parameters. When clearHistory is set the commit journal for the event is
// discarded in the same transaction, so cooldown state never leaks across
// a reconfiguration.
func (r *CanvasRepository) Replace(canvas *models.Canvas, clearHistory bool) error {
	if err := canvas.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if canvas.CellCount() > r.maxCells {
		return fmt.Errorf("%w: %d exceeds ceiling %d", shared.ErrTooManyCells, canvas.CellCount(), r.maxCells)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		"DELETE FROM canvas_rows WHERE canvas_id IN (SELECT id FROM canvases WHERE event_id = ?)",
		canvas.EventID(),
	); err != nil {
		return fmt.Errorf("failed to clear canvas rows: %w", err)
	}
	if _, err := tx.Exec("DELETE FROM canvases WHERE event_id = ?", canvas.EventID()); err != nil {
		return fmt.Errorf("failed to clear canvas: %w", err)
	}
	if clearHistory {
		if _, err := tx.Exec("DELETE FROM place_commits WHERE event_id = ?", canvas.EventID()); err != nil {
			return fmt.Errorf("failed to clear commit journal: %w", err)
		}
	}

	if err := r.insert(tx, canvas); err != nil {
		return err
	}

	return tx.Commit()
}
