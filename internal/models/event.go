package models

import (
	"fmt"
	"regexp"
	"time"

	"github.com/duskmoth/sidestage/internal/shared"
)

// ActivityMode selects what the event page currently shows attendees.
type ActivityMode string

const (
	ModeIframe ActivityMode = "iframe"
	ModePlace  ActivityMode = "place"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

// Event is one hosted event with its public page settings.
type Event struct {
	id              string
	sequence        int
	name            string
	slug            string
	endsAt          time.Time
	isPublic        bool
	iframe          string
	currentActivity ActivityMode
	createdAt       time.Time
	updatedAt       time.Time
}

// NewEvent creates an Event with the given sequence, name, slug and end time.
func NewEvent(sequence int, name, slug string, endsAt time.Time) *Event {
	now := time.Now()
	return &Event{
		sequence:        sequence,
		name:            name,
		slug:            slug,
		endsAt:          endsAt,
		currentActivity: ModePlace,
		createdAt:       now,
		updatedAt:       now,
	}
}

func (e *Event) ID() string                    { return e.id }
func (e *Event) SetID(id string)               { e.id = id }
func (e *Event) Sequence() int                 { return e.sequence }
func (e *Event) Name() string                  { return e.name }
func (e *Event) Slug() string                  { return e.slug }
func (e *Event) EndsAt() time.Time             { return e.endsAt }
func (e *Event) IsPublic() bool                { return e.isPublic }
func (e *Event) SetPublic(public bool)         { e.isPublic = public }
func (e *Event) Iframe() string                { return e.iframe }
func (e *Event) SetIframe(url string)          { e.iframe = url }
func (e *Event) CurrentActivity() ActivityMode { return e.currentActivity }
func (e *Event) CreatedAt() time.Time          { return e.createdAt }
func (e *Event) UpdatedAt() time.Time          { return e.updatedAt }
func (e *Event) SetUpdatedAt(t time.Time)      { e.updatedAt = t }

// SetCurrentActivity switches the event page between iframe and place mode.
func (e *Event) SetCurrentActivity(mode ActivityMode) { e.currentActivity = mode }

// Validate checks the event's data, returning an error for empty names or
// malformed slugs.
func (e *Event) Validate() error {
	if e.name == "" {
		return fmt.Errorf("%w: event name is required", shared.ErrInvalidInput)
	}
	if !slugPattern.MatchString(e.slug) {
		return fmt.Errorf("%w: slug %q must be lowercase alphanumeric with hyphens", shared.ErrInvalidInput, e.slug)
	}
	if e.currentActivity != ModeIframe && e.currentActivity != ModePlace {
		return fmt.Errorf("%w: unknown activity mode %q", shared.ErrInvalidInput, e.currentActivity)
	}
	return nil
}
