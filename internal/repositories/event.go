package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/shared"
)

// EventRepository persists [models.Event] records and event admin membership.
type EventRepository struct {
	db *sql.DB
}

// NewEventRepository creates a new [EventRepository] with the given database connection
func NewEventRepository(db *sql.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts a new event into the database with generated ID and sequence
func (r *EventRepository) Create(event *models.Event) error {
	sequence, err := NextSequence(r.db, "events")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	event.SetID(id)

	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	query := `
		INSERT INTO events (id, sequence, name, slug, ends_at, is_public, iframe, current_activity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, event.Name(), event.Slug(), event.EndsAt(),
		event.IsPublic(), event.Iframe(), string(event.CurrentActivity()), event.CreatedAt(), event.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	return nil
}

// CreateWithCanvas inserts an event and its canvas in one transaction.
// Every event owns exactly one canvas, so invalid canvas parameters fail
// the whole operation and no canvas-less event is left behind.
func (r *EventRepository) CreateWithCanvas(event *models.Event, canvas *models.Canvas, grid *CanvasRepository) error {
	sequence, err := NextSequence(r.db, "events")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	event.SetID(id)
	canvas.SetEventID(id)

	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if err := canvas.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	if canvas.CellCount() > grid.maxCells {
		return fmt.Errorf("%w: %d exceeds ceiling %d", shared.ErrTooManyCells, canvas.CellCount(), grid.maxCells)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO events (id, sequence, name, slug, ends_at, is_public, iframe, current_activity, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err = tx.Exec(query, id, sequence, event.Name(), event.Slug(), event.EndsAt(),
		event.IsPublic(), event.Iframe(), string(event.CurrentActivity()), event.CreatedAt(), event.UpdatedAt())
	if err != nil {
		return fmt.Errorf("failed to insert event: %w", err)
	}

	if err := grid.insert(tx, canvas); err != nil {
		return err
	}

	return tx.Commit()
}

func (r *EventRepository) scanEvent(row *sql.Row) (*models.Event, error) {
	var (
		id              string
		sequence        int
		name            string
		slug            string
		endsAt          time.Time
		isPublic        bool
		iframe          sql.NullString
		currentActivity string
		createdAt       time.Time
		updatedAt       time.Time
	)

	err := row.Scan(&id, &sequence, &name, &slug, &endsAt, &isPublic, &iframe, &currentActivity, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, shared.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query event: %w", err)
	}

	event := models.NewEvent(sequence, name, slug, endsAt)
	event.SetID(id)
	event.SetPublic(isPublic)
	if iframe.Valid {
		event.SetIframe(iframe.String)
	}
	event.SetCurrentActivity(models.ActivityMode(currentActivity))
	event.SetUpdatedAt(updatedAt)

	return event, nil
}

const eventColumns = "id, sequence, name, slug, ends_at, is_public, iframe, current_activity, created_at, updated_at"

// Get retrieves an event by ID
func (r *EventRepository) Get(id string) (*models.Event, error) {
	row := r.db.QueryRow("SELECT "+eventColumns+" FROM events WHERE id = ?", id)
	return r.scanEvent(row)
}

// GetBySlug retrieves an event by its URL slug
func (r *EventRepository) GetBySlug(slug string) (*models.Event, error) {
	row := r.db.QueryRow("SELECT "+eventColumns+" FROM events WHERE slug = ?", slug)
	return r.scanEvent(row)
}

// Update modifies an existing event in the database
func (r *EventRepository) Update(event *models.Event) error {
	if err := event.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	event.SetUpdatedAt(now)

	query := `
		UPDATE events
		SET name = ?, ends_at = ?, is_public = ?, iframe = ?, current_activity = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, event.Name(), event.EndsAt(), event.IsPublic(),
		event.Iframe(), string(event.CurrentActivity()), now, event.ID())
	if err != nil {
		return fmt.Errorf("failed to update event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: event %s", shared.ErrNotFound, event.ID())
	}

	return nil
}

// Delete removes an event together with its canvas, commit journal, feeds
// and admin memberships. Runs in one transaction so no orphan rows survive
// a partial failure.
func (r *EventRepository) Delete(id string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range []string{
		"DELETE FROM canvas_rows WHERE canvas_id IN (SELECT id FROM canvases WHERE event_id = ?)",
		"DELETE FROM canvases WHERE event_id = ?",
		"DELETE FROM place_commits WHERE event_id = ?",
		"DELETE FROM announcements WHERE event_id = ?",
		"DELETE FROM activities WHERE event_id = ?",
		"DELETE FROM teams WHERE event_id = ?",
		"DELETE FROM push_events WHERE event_id = ?",
		"DELETE FROM github_webhook_configs WHERE event_id = ?",
		"DELETE FROM now_playing WHERE event_id = ?",
		"DELETE FROM event_admins WHERE event_id = ?",
	} {
		if _, err := tx.Exec(stmt, id); err != nil {
			return fmt.Errorf("failed to delete event children: %w", err)
		}
	}

	result, err := tx.Exec("DELETE FROM events WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: event %s", shared.ErrNotFound, id)
	}

	return tx.Commit()
}

// List retrieves all events matching the given criteria
func (r *EventRepository) List(criteria map[string]any) ([]*models.Event, error) {
	query := "SELECT " + eventColumns + " FROM events WHERE 1=1"
	args := []any{}

	if public, ok := criteria["is_public"].(bool); ok {
		query += " AND is_public = ?"
		args = append(args, public)
	}

	query += " ORDER BY sequence ASC"

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []*models.Event
	for rows.Next() {
		var (
			id              string
			sequence        int
			name            string
			slug            string
			endsAt          time.Time
			isPublic        bool
			iframe          sql.NullString
			currentActivity string
			createdAt       time.Time
			updatedAt       time.Time
		)

		err := rows.Scan(&id, &sequence, &name, &slug, &endsAt, &isPublic, &iframe, &currentActivity, &createdAt, &updatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}

		event := models.NewEvent(sequence, name, slug, endsAt)
		event.SetID(id)
		event.SetPublic(isPublic)
		if iframe.Valid {
			event.SetIframe(iframe.String)
		}
		event.SetCurrentActivity(models.ActivityMode(currentActivity))
		event.SetUpdatedAt(updatedAt)

		events = append(events, event)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return events, nil
}

// AddAdmin grants a user event-administrator capability.
func (r *EventRepository) AddAdmin(eventID, userID string) error {
	_, err := r.db.Exec("INSERT OR IGNORE INTO event_admins (event_id, user_id) VALUES (?, ?)", eventID, userID)
	if err != nil {
		return fmt.Errorf("failed to add event admin: %w", err)
	}
	return nil
}

// IsAdmin reports whether the user is an administrator of the event.
func (r *EventRepository) IsAdmin(eventID, userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(
		"SELECT EXISTS(SELECT 1 FROM event_admins WHERE event_id = ? AND user_id = ?)",
		eventID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check event admin: %w", err)
	}
	return exists, nil
}
