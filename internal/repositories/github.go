package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/shared"
)

// WebhookConfigRepository stores the per-event GitHub webhook secret.
type WebhookConfigRepository struct {
	db *sql.DB
}

func NewWebhookConfigRepository(db *sql.DB) *WebhookConfigRepository {
	return &WebhookConfigRepository{db: db}
}

// SetSecret stores or replaces the webhook secret for an event.
func (r *WebhookConfigRepository) SetSecret(eventID, secret string) error {
	_, err := r.db.Exec(
		"INSERT INTO github_webhook_configs (event_id, secret) VALUES (?, ?) ON CONFLICT(event_id) DO UPDATE SET secret = excluded.secret",
		eventID, secret,
	)
	if err != nil {
		return fmt.Errorf("failed to set webhook secret: %w", err)
	}
	return nil
}

// Secret returns the webhook secret for an event, or empty when none is
// configured.
func (r *WebhookConfigRepository) Secret(eventID string) (string, error) {
	var secret string
	err := r.db.QueryRow("SELECT secret FROM github_webhook_configs WHERE event_id = ?", eventID).Scan(&secret)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to query webhook secret: %w", err)
	}
	return secret, nil
}

// PushEventRepository persists ingested GitHub pushes for the live feed.
type PushEventRepository struct {
	db *sql.DB
}

func NewPushEventRepository(db *sql.DB) *PushEventRepository {
	return &PushEventRepository{db: db}
}

func (r *PushEventRepository) Create(p *models.PushEvent) error {
	if p.RepoName == "" {
		return fmt.Errorf("%w: repo name is required", shared.ErrInvalidInput)
	}

	p.ID = shared.GenerateID()
	p.CreatedAt = time.Now()

	_, err := r.db.Exec(
		"INSERT INTO push_events (id, event_id, repo_name, author, message, branch, pushed_at, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		p.ID, p.EventID, p.RepoName, p.Author, p.Message, p.Branch, p.PushedAt, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert push event: %w", err)
	}
	return nil
}

// ListForEvent returns the newest pushes first, capped at limit.
func (r *PushEventRepository) ListForEvent(eventID string, limit int) ([]models.PushEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(
		"SELECT id, event_id, repo_name, author, message, branch, pushed_at, created_at FROM push_events WHERE event_id = ? ORDER BY pushed_at DESC LIMIT ?",
		eventID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query push events: %w", err)
	}
	defer rows.Close()

	var out []models.PushEvent
	for rows.Next() {
		var p models.PushEvent
		if err := rows.Scan(&p.ID, &p.EventID, &p.RepoName, &p.Author, &p.Message, &p.Branch, &p.PushedAt, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan push event: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// PruneBefore deletes pushes older than the cutoff across all events,
// returning how many were removed.
func (r *PushEventRepository) PruneBefore(cutoff time.Time) (int64, error) {
	result, err := r.db.Exec("DELETE FROM push_events WHERE pushed_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune push events: %w", err)
	}
	return result.RowsAffected()
}

// NowPlayingRepository stores the latest Spotify playback snapshot per event.
type NowPlayingRepository struct {
	db *sql.DB
}

func NewNowPlayingRepository(db *sql.DB) *NowPlayingRepository {
	return &NowPlayingRepository{db: db}
}

// Upsert replaces the event's snapshot.
func (r *NowPlayingRepository) Upsert(np *models.NowPlaying) error {
	np.UpdatedAt = time.Now()
	_, err := r.db.Exec(`
		INSERT INTO now_playing (event_id, track, artist, album_art, is_playing, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(event_id) DO UPDATE SET
			track = excluded.track,
			artist = excluded.artist,
			album_art = excluded.album_art,
			is_playing = excluded.is_playing,
			updated_at = excluded.updated_at
	`, np.EventID, np.Track, np.Artist, np.AlbumArt, np.IsPlaying, np.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert now playing: %w", err)
	}
	return nil
}

// GetForEvent returns the event's snapshot.
func (r *NowPlayingRepository) GetForEvent(eventID string) (*models.NowPlaying, error) {
	var (
		np       models.NowPlaying
		albumArt sql.NullString
	)
	err := r.db.QueryRow(
		"SELECT event_id, track, artist, album_art, is_playing, updated_at FROM now_playing WHERE event_id = ?",
		eventID,
	).Scan(&np.EventID, &np.Track, &np.Artist, &albumArt, &np.IsPlaying, &np.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: no playback snapshot for event %s", shared.ErrNotFound, eventID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query now playing: %w", err)
	}
	if albumArt.Valid {
		np.AlbumArt = albumArt.String
	}
	return &np, nil
}
