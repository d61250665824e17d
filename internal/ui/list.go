package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	"github.com/duskmoth/sidestage/internal/services"
)

var _ list.Item = eventItem{}

// eventItem wraps [services.Event] to implement [list.Item].
type eventItem struct {
	event services.Event
}

func (i eventItem) FilterValue() string { return i.event.Name }
func (i eventItem) Title() string       { return i.event.Name }
func (i eventItem) Description() string {
	desc := i.event.Slug
	if remaining := time.Until(i.event.EndsAt); remaining > 0 {
		desc = fmt.Sprintf("%s • ends in %s", desc, remaining.Round(time.Minute))
	} else {
		desc = fmt.Sprintf("%s • ended", desc)
	}
	return desc
}
