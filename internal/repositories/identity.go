package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/shared"
)

// UserRepository persists [models.User] records.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new [UserRepository] with the given database connection
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Create inserts a new user into the database with generated ID and sequence
func (r *UserRepository) Create(user *models.User) error {
	sequence, err := NextSequence(r.db, "users")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()
	user.SetID(id)

	if err := user.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	_, err = r.db.Exec(
		"INSERT INTO users (id, sequence, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)",
		id, sequence, user.Name(), user.CreatedAt(), user.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}

	return nil
}

// Get retrieves a user by ID
func (r *UserRepository) Get(id string) (*models.User, error) {
	var (
		userID    string
		sequence  int
		name      string
		createdAt time.Time
		updatedAt time.Time
	)

	err := r.db.QueryRow("SELECT id, sequence, name, created_at, updated_at FROM users WHERE id = ?", id).
		Scan(&userID, &sequence, &name, &createdAt, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: user %s", shared.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user := models.NewUser(sequence, name)
	user.SetID(userID)
	user.SetUpdatedAt(updatedAt)

	return user, nil
}

// SessionRepository maps bearer tokens to user identities.
type SessionRepository struct {
	db *sql.DB
}

// NewSessionRepository creates a new [SessionRepository] with the given database connection
func NewSessionRepository(db *sql.DB) *SessionRepository {
	return &SessionRepository{db: db}
}

// Create issues a new session token for the user.
func (r *SessionRepository) Create(userID string) (string, error) {
	token := shared.GenerateID()
	if _, err := r.db.Exec(
		"INSERT INTO sessions (token, user_id, created_at) VALUES (?, ?, ?)",
		token, userID, time.Now(),
	); err != nil {
		return "", fmt.Errorf("failed to create session: %w", err)
	}
	return token, nil
}

// Resolve returns the user ID for a session token, or empty when the token
// is unknown.
func (r *SessionRepository) Resolve(token string) (string, error) {
	var userID string
	err := r.db.QueryRow("SELECT user_id FROM sessions WHERE token = ?", token).Scan(&userID)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to resolve session: %w", err)
	}
	return userID, nil
}
