package models

import (
	"fmt"
	"time"

	"github.com/duskmoth/sidestage/internal/shared"
)

// User is an attendee or organizer identity.
type User struct {
	id        string
	sequence  int
	name      string
	createdAt time.Time
	updatedAt time.Time
}

// NewUser creates a User with the given sequence and display name.
func NewUser(sequence int, name string) *User {
	now := time.Now()
	return &User{
		sequence:  sequence,
		name:      name,
		createdAt: now,
		updatedAt: now,
	}
}

func (u *User) ID() string               { return u.id }
func (u *User) SetID(id string)          { u.id = id }
func (u *User) Sequence() int            { return u.sequence }
func (u *User) Name() string             { return u.name }
func (u *User) CreatedAt() time.Time     { return u.createdAt }
func (u *User) UpdatedAt() time.Time     { return u.updatedAt }
func (u *User) SetUpdatedAt(t time.Time) { u.updatedAt = t }

func (u *User) Validate() error {
	if u.name == "" {
		return fmt.Errorf("%w: user name is required", shared.ErrInvalidInput)
	}
	return nil
}
