package repositories

import (
	"database/sql"
	"fmt"

	"github.com/duskmoth/sidestage/internal/models"
)

// CommitRepository is the append-only journal of accepted cell writes.
//
// Entries are never mutated and are deleted only when the whole canvas or
// event is torn down. Appends carry no validation; that is the caller's
// job.
type CommitRepository struct {
	db *sql.DB
}

// NewCommitRepository creates a new [CommitRepository] with the given database connection
func NewCommitRepository(db *sql.DB) *CommitRepository {
	return &CommitRepository{db: db}
}

// Append journals one accepted write and fills in the commit's ID. The
// caller sets WrittenAt; the ID reflects insertion order.
func (r *CommitRepository) Append(commit *models.Commit) error {
	result, err := r.db.Exec(
		"INSERT INTO place_commits (event_id, actor_id, x, y, color, written_at) VALUES (?, ?, ?, ?, ?, ?)",
		commit.EventID, commit.ActorID, commit.X, commit.Y, commit.Color, commit.WrittenAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append commit: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get commit id: %w", err)
	}
	commit.ID = id

	return nil
}

// LastByActor returns the actor's most recent commit on the event's canvas,
// or nil when the actor has never written. Ordered by written_at, with the
// insertion-order ID breaking ties (later insertion wins).
func (r *CommitRepository) LastByActor(eventID, actorID string) (*models.Commit, error) {
	var commit models.Commit

	err := r.db.QueryRow(`
		SELECT id, event_id, actor_id, x, y, color, written_at
		FROM place_commits
		WHERE event_id = ? AND actor_id = ?
		ORDER BY written_at DESC, id DESC
		LIMIT 1
	`, eventID, actorID).Scan(
		&commit.ID, &commit.EventID, &commit.ActorID, &commit.X, &commit.Y, &commit.Color, &commit.WrittenAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query last commit: %w", err)
	}

	return &commit, nil
}

// ListForEvent returns the event's journal in insertion order, oldest
// first. A limit of 0 returns the full journal.
func (r *CommitRepository) ListForEvent(eventID string, limit int) ([]models.Commit, error) {
	query := `
		SELECT id, event_id, actor_id, x, y, color, written_at
		FROM place_commits
		WHERE event_id = ?
		ORDER BY id ASC
	`
	args := []any{eventID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list commits: %w", err)
	}
	defer rows.Close()

	var commits []models.Commit
	for rows.Next() {
		var c models.Commit
		if err := rows.Scan(&c.ID, &c.EventID, &c.ActorID, &c.X, &c.Y, &c.Color, &c.WrittenAt); err != nil {
			return nil, fmt.Errorf("failed to scan commit: %w", err)
		}
		commits = append(commits, c)
	}
	return commits, rows.Err()
}

// CountForEvent returns the number of journaled commits for an event.
// Diagnostics only; the write path never needs it.
func (r *CommitRepository) CountForEvent(eventID string) (int, error) {
	var count int
	err := r.db.QueryRow("SELECT COUNT(*) FROM place_commits WHERE event_id = ?", eventID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count commits: %w", err)
	}
	return count, nil
}

// ClearForEvent discards the journal for an event.
func (r *CommitRepository) ClearForEvent(eventID string) error {
	if _, err := r.db.Exec("DELETE FROM place_commits WHERE event_id = ?", eventID); err != nil {
		return fmt.Errorf("failed to clear commits: %w", err)
	}
	return nil
}
