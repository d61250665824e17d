package server

import (
	"net/http"
	"time"

	"github.com/duskmoth/sidestage/internal/models"
)

type eventResponse struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	EndsAt          time.Time `json:"ends_at"`
	IsPublic        bool      `json:"is_public"`
	Iframe          string    `json:"iframe,omitempty"`
	CurrentActivity string    `json:"current_activity"`
}

func toEventResponse(e *models.Event) eventResponse {
	return eventResponse{
		ID:              e.ID(),
		Name:            e.Name(),
		Slug:            e.Slug(),
		EndsAt:          e.EndsAt(),
		IsPublic:        e.IsPublic(),
		Iframe:          e.Iframe(),
		CurrentActivity: string(e.CurrentActivity()),
	}
}

// handleListEvents returns the public event directory.
func (a *App) handleListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := a.events.List(map[string]any{"is_public": true})
	if err != nil {
		WriteError(w, err)
		return
	}

	out := make([]eventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, toEventResponse(e))
	}
	WriteJSON(w, http.StatusOK, out)
}

func (a *App) handleGetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := a.eventBySlug(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toEventResponse(event))
}

func (a *App) handleListAnnouncements(w http.ResponseWriter, r *http.Request) {
	event, err := a.eventBySlug(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	list, err := a.announcements.ListForEvent(event.ID())
	if err != nil {
		WriteError(w, err)
		return
	}
	if list == nil {
		list = []models.Announcement{}
	}
	WriteJSON(w, http.StatusOK, list)
}

func (a *App) handleListActivities(w http.ResponseWriter, r *http.Request) {
	event, err := a.eventBySlug(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	list, err := a.activities.ListForEvent(event.ID())
	if err != nil {
		WriteError(w, err)
		return
	}
	if list == nil {
		list = []models.Activity{}
	}
	WriteJSON(w, http.StatusOK, list)
}

func (a *App) handleListTeams(w http.ResponseWriter, r *http.Request) {
	event, err := a.eventBySlug(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	list, err := a.teams.ListForEvent(event.ID())
	if err != nil {
		WriteError(w, err)
		return
	}
	if list == nil {
		list = []models.Team{}
	}
	WriteJSON(w, http.StatusOK, list)
}

func (a *App) handleListPushes(w http.ResponseWriter, r *http.Request) {
	event, err := a.eventBySlug(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	list, err := a.pushes.ListForEvent(event.ID(), 50)
	if err != nil {
		WriteError(w, err)
		return
	}
	if list == nil {
		list = []models.PushEvent{}
	}
	WriteJSON(w, http.StatusOK, list)
}

func (a *App) handleNowPlaying(w http.ResponseWriter, r *http.Request) {
	event, err := a.eventBySlug(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	np, err := a.nowPlaying.GetForEvent(event.ID())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, np)
}
