package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/shared"
)

// AnnouncementRepository persists timed announcements for an event.
type AnnouncementRepository struct {
	db *sql.DB
}

func NewAnnouncementRepository(db *sql.DB) *AnnouncementRepository {
	return &AnnouncementRepository{db: db}
}

func (r *AnnouncementRepository) Create(a *models.Announcement) error {
	if a.Content == "" {
		return fmt.Errorf("%w: announcement content is required", shared.ErrInvalidInput)
	}

	a.ID = shared.GenerateID()
	a.CreatedAt = time.Now()

	_, err := r.db.Exec(
		"INSERT INTO announcements (id, event_id, content, starts_at, ends_at, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		a.ID, a.EventID, a.Content, a.StartsAt, a.EndsAt, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert announcement: %w", err)
	}
	return nil
}

// ListForEvent returns an event's announcements ordered by start time.
func (r *AnnouncementRepository) ListForEvent(eventID string) ([]models.Announcement, error) {
	rows, err := r.db.Query(
		"SELECT id, event_id, content, starts_at, ends_at, created_at FROM announcements WHERE event_id = ? ORDER BY starts_at ASC",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query announcements: %w", err)
	}
	defer rows.Close()

	var out []models.Announcement
	for rows.Next() {
		var a models.Announcement
		if err := rows.Scan(&a.ID, &a.EventID, &a.Content, &a.StartsAt, &a.EndsAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan announcement: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *AnnouncementRepository) Delete(id string) error {
	return deleteByID(r.db, "announcements", id)
}

// ActivityRepository persists schedule entries for an event.
type ActivityRepository struct {
	db *sql.DB
}

func NewActivityRepository(db *sql.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(a *models.Activity) error {
	if a.Name == "" {
		return fmt.Errorf("%w: activity name is required", shared.ErrInvalidInput)
	}

	a.ID = shared.GenerateID()
	a.CreatedAt = time.Now()

	_, err := r.db.Exec(
		"INSERT INTO activities (id, event_id, name, starts_at, ends_at, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		a.ID, a.EventID, a.Name, a.StartsAt, a.EndsAt, a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

func (r *ActivityRepository) ListForEvent(eventID string) ([]models.Activity, error) {
	rows, err := r.db.Query(
		"SELECT id, event_id, name, starts_at, ends_at, created_at FROM activities WHERE event_id = ? ORDER BY starts_at ASC",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query activities: %w", err)
	}
	defer rows.Close()

	var out []models.Activity
	for rows.Next() {
		var a models.Activity
		if err := rows.Scan(&a.ID, &a.EventID, &a.Name, &a.StartsAt, &a.EndsAt, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *ActivityRepository) Delete(id string) error {
	return deleteByID(r.db, "activities", id)
}

// TeamRepository persists the team roster for an event. Members are stored
// as a JSON array of display names.
type TeamRepository struct {
	db *sql.DB
}

func NewTeamRepository(db *sql.DB) *TeamRepository {
	return &TeamRepository{db: db}
}

func (r *TeamRepository) Create(t *models.Team) error {
	if t.Name == "" {
		return fmt.Errorf("%w: team name is required", shared.ErrInvalidInput)
	}

	t.ID = shared.GenerateID()
	t.CreatedAt = time.Now()

	members, err := json.Marshal(t.Members)
	if err != nil {
		return fmt.Errorf("failed to encode members: %w", err)
	}

	_, err = r.db.Exec(
		"INSERT INTO teams (id, event_id, name, members, created_at) VALUES (?, ?, ?, ?, ?)",
		t.ID, t.EventID, t.Name, string(members), t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert team: %w", err)
	}
	return nil
}

func (r *TeamRepository) ListForEvent(eventID string) ([]models.Team, error) {
	rows, err := r.db.Query(
		"SELECT id, event_id, name, members, created_at FROM teams WHERE event_id = ? ORDER BY name ASC",
		eventID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query teams: %w", err)
	}
	defer rows.Close()

	var out []models.Team
	for rows.Next() {
		var (
			t           models.Team
			membersJSON string
		)
		if err := rows.Scan(&t.ID, &t.EventID, &t.Name, &membersJSON, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		if err := json.Unmarshal([]byte(membersJSON), &t.Members); err != nil {
			return nil, fmt.Errorf("failed to decode members: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *TeamRepository) Delete(id string) error {
	return deleteByID(r.db, "teams", id)
}

func deleteByID(db *sql.DB, table, id string) error {
	result, err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id)
	if err != nil {
		return fmt.Errorf("failed to delete from %s: %w", table, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s %s", shared.ErrNotFound, table, id)
	}
	return nil
}
