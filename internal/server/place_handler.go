package server

import (
	"encoding/json"
	"net/http"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/shared"
)

type canvasResponse struct {
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Palette      []string   `json:"palette"`
	DefaultColor string     `json:"default_color"`
	Cells        [][]string `json:"cells"`
}

func toCanvasResponse(c *models.Canvas) canvasResponse {
	return canvasResponse{
		Width:        c.Width(),
		Height:       c.Height(),
		Palette:      c.Palette(),
		DefaultColor: c.DefaultColor(),
		Cells:        c.Rows(),
	}
}

// handleGetCanvas returns the full canvas for an event. Public.
func (a *App) handleGetCanvas(w http.ResponseWriter, r *http.Request) {
	event, err := a.eventBySlug(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	canvas, err := a.place.Canvas(event.ID())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toCanvasResponse(canvas))
}

// handlePlaceStatus returns the caller's cooldown standing so the client
// can render countdown state without attempting a write.
func (a *App) handlePlaceStatus(w http.ResponseWriter, r *http.Request) {
	event, err := a.eventBySlug(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	status, err := a.place.Status(event.ID(), ActorID(r))
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

type setCellRequest struct {
	X     int    `json:"x"`
	Y     int    `json:"y"`
	Color string `json:"color"`
}

// handleSetCell runs one write through the canvas engine and returns the
// updated cell.
func (a *App) handleSetCell(w http.ResponseWriter, r *http.Request) {
	event, err := a.eventBySlug(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	var req setCellRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}

	cell, err := a.place.SetCell(event.ID(), ActorID(r), req.X, req.Y, req.Color)
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, cell)
}

type resetCanvasRequest struct {
	Width        int      `json:"width"`
	Height       int      `json:"height"`
	Palette      []string `json:"palette"`
	DefaultColor string   `json:"default_color"`
}

// handleResetCanvas discards and recreates the event's canvas. Admin only.
func (a *App) handleResetCanvas(w http.ResponseWriter, r *http.Request) {
	event, err := a.eventBySlug(r)
	if err != nil {
		WriteError(w, err)
		return
	}

	actorID := ActorID(r)
	if actorID == "" {
		WriteError(w, shared.ErrUnauthenticated)
		return
	}
	admin, err := a.events.IsAdmin(event.ID(), actorID)
	if err != nil {
		WriteError(w, err)
		return
	}
	if !admin {
		WriteError(w, shared.ErrForbidden)
		return
	}

	var req resetCanvasRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}

	if err := a.place.Reset(event.ID(), req.Width, req.Height, req.Palette, req.DefaultColor); err != nil {
		WriteError(w, err)
		return
	}

	canvas, err := a.place.Canvas(event.ID())
	if err != nil {
		WriteError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, toCanvasResponse(canvas))
}

// handleSubscribeCanvas upgrades to a websocket feed of accepted writes.
func (a *App) handleSubscribeCanvas(w http.ResponseWriter, r *http.Request) {
	event, err := a.eventBySlug(r)
	if err != nil {
		WriteError(w, err)
		return
	}
	a.hub.Subscribe(w, r, event.ID())
}
