// Client for the sidestage HTTP API, used by the CLI and TUI.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/place"
	"github.com/duskmoth/sidestage/internal/shared"
	"github.com/gorilla/websocket"
)

// APIError is a non-2xx response from the server, decoded from its
// problem+json payload.
type APIError struct {
	Status     int
	Title      string
	Detail     string
	RetryAfter time.Time
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (%d): %s", e.Title, e.Status, e.Detail)
	}
	return fmt.Sprintf("%s (%d)", e.Title, e.Status)
}

// Unwrap maps the HTTP status back onto the shared sentinel errors so
// callers can use errors.Is against client responses.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusTooManyRequests:
		return shared.ErrRateLimited
	case http.StatusUnauthorized:
		return shared.ErrUnauthenticated
	case http.StatusForbidden:
		return shared.ErrForbidden
	case http.StatusNotFound:
		return shared.ErrNotFound
	case http.StatusBadRequest:
		return shared.ErrInvalidInput
	default:
		return shared.ErrAPIRequest
	}
}

// Event is the server's event representation.
type Event struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Slug            string    `json:"slug"`
	EndsAt          time.Time `json:"ends_at"`
	IsPublic        bool      `json:"is_public"`
	Iframe          string    `json:"iframe,omitempty"`
	CurrentActivity string    `json:"current_activity"`
}

// Canvas is the server's canvas representation: a row-major cell matrix
// with its palette.
type Canvas struct {
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	Palette      []string   `json:"palette"`
	DefaultColor string     `json:"default_color"`
	Cells        [][]string `json:"cells"`
}

// Client provides typed access to a sidestage server.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a client for the server at baseURL. token may be empty
// for anonymous reads.
func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8484"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
		httpClient: httpClient,
	}
}

// do runs one request and decodes the JSON response into result. Non-2xx
// responses become an *APIError.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

func decodeAPIError(resp *http.Response) *APIError {
	apiErr := &APIError{Status: resp.StatusCode, Title: resp.Status}

	var problem struct {
		Title      string `json:"title"`
		Detail     string `json:"detail"`
		RetryAfter string `json:"retry_after"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&problem); err == nil {
		if problem.Title != "" {
			apiErr.Title = problem.Title
		}
		apiErr.Detail = problem.Detail
		if problem.RetryAfter != "" {
			if at, err := time.Parse(time.RFC3339, problem.RetryAfter); err == nil {
				apiErr.RetryAfter = at
			}
		}
	}
	return apiErr
}

// Events lists the public event directory.
func (c *Client) Events(ctx context.Context) ([]Event, error) {
	var events []Event
	if err := c.do(ctx, http.MethodGet, "/api/events", nil, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// Event fetches one event by slug.
func (c *Client) Event(ctx context.Context, slug string) (*Event, error) {
	var event Event
	if err := c.do(ctx, http.MethodGet, "/api/events/"+slug, nil, &event); err != nil {
		return nil, err
	}
	return &event, nil
}

// Canvas fetches the full canvas for an event.
func (c *Client) Canvas(ctx context.Context, slug string) (*Canvas, error) {
	var canvas Canvas
	if err := c.do(ctx, http.MethodGet, "/api/events/"+slug+"/place", nil, &canvas); err != nil {
		return nil, err
	}
	return &canvas, nil
}

// PlaceStatus fetches the caller's cooldown standing on the event's canvas.
func (c *Client) PlaceStatus(ctx context.Context, slug string) (*place.Status, error) {
	var status place.Status
	if err := c.do(ctx, http.MethodGet, "/api/events/"+slug+"/place/me", nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// SetCell writes one cell. A cooldown rejection returns an *APIError with
// Status 429 and the retry deadline.
func (c *Client) SetCell(ctx context.Context, slug string, x, y int, color string) (*models.Cell, error) {
	body := map[string]any{"x": x, "y": y, "color": color}
	var cell models.Cell
	if err := c.do(ctx, http.MethodPost, "/api/events/"+slug+"/place/cells", body, &cell); err != nil {
		return nil, err
	}
	return &cell, nil
}

// ResetCanvas discards and recreates the event's canvas. Admin only.
func (c *Client) ResetCanvas(ctx context.Context, slug string, width, height int, palette []string, defaultColor string) (*Canvas, error) {
	body := map[string]any{
		"width":         width,
		"height":        height,
		"palette":       palette,
		"default_color": defaultColor,
	}
	var canvas Canvas
	if err := c.do(ctx, http.MethodPut, "/api/events/"+slug+"/place", body, &canvas); err != nil {
		return nil, err
	}
	return &canvas, nil
}

// Subscribe opens the websocket feed of accepted cell writes for an event.
// Frames are delivered on the returned channel until the context is
// cancelled or the connection drops, after which the channel closes.
func (c *Client) Subscribe(ctx context.Context, slug string) (<-chan models.Cell, error) {
	wsURL := strings.Replace(c.baseURL, "http", "ws", 1) + "/ws/events/" + slug + "/place"
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to dial websocket: %w", err)
	}

	cells := make(chan models.Cell)
	go func() {
		<-ctx.Done()
		conn.Close()
	}()
	go func() {
		defer close(cells)
		defer conn.Close()
		for {
			var msg struct {
				Type string      `json:"type"`
				Data models.Cell `json:"data"`
			}
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			if msg.Type != "cell" {
				continue
			}
			select {
			case cells <- msg.Data:
			case <-ctx.Done():
				return
			}
		}
	}()
	return cells, nil
}

// RetryDeadline extracts the retry instant from a rate-limit rejection,
// returning false for any other error.
func RetryDeadline(err error) (time.Time, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests {
		return apiErr.RetryAfter, true
	}
	return time.Time{}, false
}
