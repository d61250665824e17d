package server

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/repositories"
	"github.com/duskmoth/sidestage/internal/shared"
)

// testApp bundles the app with the repositories tests need for fixtures.
type testApp struct {
	app    *App
	db     *sql.DB
	server *httptest.Server
}

func setupTestApp(t *testing.T) *testApp {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	config := shared.DefaultConfig()
	config.Integrations.GitHub.WebhookSecret = "fallback-secret"

	app := NewApp(db, config, shared.NewLogger(nil))
	server := httptest.NewServer(app.Router())
	t.Cleanup(server.Close)

	return &testApp{app: app, db: db, server: server}
}

func (ta *testApp) createEvent(t *testing.T, slug string, public bool) *models.Event {
	t.Helper()

	event := models.NewEvent(0, "Test Conf", slug, time.Now().Add(24*time.Hour))
	event.SetPublic(public)
	if err := ta.app.events.Create(event); err != nil {
		t.Fatalf("failed to create event: %v", err)
	}
	return event
}

func (ta *testApp) createCanvas(t *testing.T, eventID string) *models.Canvas {
	t.Helper()

	canvas := models.NewCanvas(eventID, 8, 6, []string{"#ff0000", "#00ff00", "#0000ff"}, "#0000ff")
	repo := repositories.NewCanvasRepository(ta.db, 5000)
	if err := repo.Create(canvas); err != nil {
		t.Fatalf("failed to create canvas: %v", err)
	}
	return canvas
}

// createSession makes a user and returns their ID and a bearer token.
func (ta *testApp) createSession(t *testing.T, name string) (string, string) {
	t.Helper()

	user := models.NewUser(0, name)
	if err := repositories.NewUserRepository(ta.db).Create(user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	token, err := ta.app.sessions.Create(user.ID())
	if err != nil {
		t.Fatalf("failed to create session: %v", err)
	}
	return user.ID(), token
}

// do sends a request to the test server, optionally with a bearer token and
// a JSON body.
func (ta *testApp) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ta.server.URL+path, reader)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ta.server.Client().Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
	return out
}

func TestEventEndpoints(t *testing.T) {
	t.Run("List returns only public events", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.createEvent(t, "open-conf", true)
		ta.createEvent(t, "private-conf", false)

		resp := ta.do(t, http.MethodGet, "/api/events", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		events := decodeBody[[]eventResponse](t, resp)
		if len(events) != 1 || events[0].Slug != "open-conf" {
			t.Errorf("expected only open-conf, got %+v", events)
		}
	})

	t.Run("Get by slug", func(t *testing.T) {
		ta := setupTestApp(t)
		event := ta.createEvent(t, "open-conf", true)

		resp := ta.do(t, http.MethodGet, "/api/events/open-conf", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		got := decodeBody[eventResponse](t, resp)
		if got.ID != event.ID() || got.CurrentActivity != "place" {
			t.Errorf("unexpected event payload: %+v", got)
		}
	})

	t.Run("Unknown slug yields 404 problem", func(t *testing.T) {
		ta := setupTestApp(t)

		resp := ta.do(t, http.MethodGet, "/api/events/nope", "", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "application/problem+json" {
			t.Errorf("expected problem+json, got %q", ct)
		}
	})

	t.Run("Feed endpoints return empty lists for a bare event", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.createEvent(t, "open-conf", true)

		for _, path := range []string{"announcements", "activities", "teams", "pushes"} {
			resp := ta.do(t, http.MethodGet, "/api/events/open-conf/"+path, "", nil)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("%s: expected 200, got %d", path, resp.StatusCode)
			}
			var list []json.RawMessage
			if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
				t.Fatalf("%s: expected a JSON array: %v", path, err)
			}
			if len(list) != 0 {
				t.Errorf("%s: expected empty list, got %d entries", path, len(list))
			}
		}
	})
}

func TestPlaceEndpoints(t *testing.T) {
	t.Run("Get canvas is public", func(t *testing.T) {
		ta := setupTestApp(t)
		event := ta.createEvent(t, "open-conf", true)
		ta.createCanvas(t, event.ID())

		resp := ta.do(t, http.MethodGet, "/api/events/open-conf/place", "", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		canvas := decodeBody[canvasResponse](t, resp)
		if canvas.Width != 8 || canvas.Height != 6 {
			t.Errorf("expected 8x6 canvas, got %dx%d", canvas.Width, canvas.Height)
		}
		if canvas.Cells[0][0] != "#0000ff" {
			t.Errorf("expected default fill, got %q", canvas.Cells[0][0])
		}
	})

	t.Run("Set cell requires a session", func(t *testing.T) {
		ta := setupTestApp(t)
		event := ta.createEvent(t, "open-conf", true)
		ta.createCanvas(t, event.ID())

		resp := ta.do(t, http.MethodPost, "/api/events/open-conf/place/cells", "",
			setCellRequest{X: 1, Y: 1, Color: "#ff0000"})
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Set cell writes and is visible in the canvas", func(t *testing.T) {
		ta := setupTestApp(t)
		event := ta.createEvent(t, "open-conf", true)
		ta.createCanvas(t, event.ID())
		_, token := ta.createSession(t, "painter")

		resp := ta.do(t, http.MethodPost, "/api/events/open-conf/place/cells", token,
			setCellRequest{X: 3, Y: 2, Color: "#ff0000"})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", resp.StatusCode)
		}

		cell := decodeBody[models.Cell](t, resp)
		if cell.X != 3 || cell.Y != 2 || cell.Color != "#ff0000" {
			t.Errorf("unexpected cell response: %+v", cell)
		}

		canvasResp := ta.do(t, http.MethodGet, "/api/events/open-conf/place", "", nil)
		canvas := decodeBody[canvasResponse](t, canvasResp)
		if canvas.Cells[2][3] != "#ff0000" {
			t.Errorf("write not visible: cell (3,2) = %q", canvas.Cells[2][3])
		}
	})

	t.Run("Second write inside the cooldown is rejected with retry metadata", func(t *testing.T) {
		ta := setupTestApp(t)
		event := ta.createEvent(t, "open-conf", true)
		ta.createCanvas(t, event.ID())
		_, token := ta.createSession(t, "painter")

		first := ta.do(t, http.MethodPost, "/api/events/open-conf/place/cells", token,
			setCellRequest{X: 0, Y: 0, Color: "#ff0000"})
		if first.StatusCode != http.StatusOK {
			t.Fatalf("first write: expected 200, got %d", first.StatusCode)
		}

		second := ta.do(t, http.MethodPost, "/api/events/open-conf/place/cells", token,
			setCellRequest{X: 1, Y: 0, Color: "#00ff00"})
		if second.StatusCode != http.StatusTooManyRequests {
			t.Fatalf("second write: expected 429, got %d", second.StatusCode)
		}
		if second.Header.Get("Retry-After") == "" {
			t.Error("expected a Retry-After header")
		}

		problem := decodeBody[Problem](t, second)
		retryAt, err := time.Parse(time.RFC3339, problem.RetryAfter)
		if err != nil {
			t.Fatalf("retry_after should be RFC3339: %v", err)
		}
		if !retryAt.After(time.Now()) {
			t.Errorf("retry deadline %v should be in the future", retryAt)
		}

		// The rejected write must not land.
		canvasResp := ta.do(t, http.MethodGet, "/api/events/open-conf/place", "", nil)
		canvas := decodeBody[canvasResponse](t, canvasResp)
		if canvas.Cells[0][1] != "#0000ff" {
			t.Errorf("rejected write landed: cell (1,0) = %q", canvas.Cells[0][1])
		}
	})

	t.Run("Status reflects cooldown standing", func(t *testing.T) {
		ta := setupTestApp(t)
		event := ta.createEvent(t, "open-conf", true)
		ta.createCanvas(t, event.ID())
		_, token := ta.createSession(t, "painter")

		fresh := ta.do(t, http.MethodGet, "/api/events/open-conf/place/me", token, nil)
		if fresh.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d", fresh.StatusCode)
		}
		status := decodeBody[map[string]any](t, fresh)
		if status["last_commit"] != nil {
			t.Errorf("expected no history, got %v", status["last_commit"])
		}

		ta.do(t, http.MethodPost, "/api/events/open-conf/place/cells", token,
			setCellRequest{X: 0, Y: 0, Color: "#ff0000"})

		after := ta.do(t, http.MethodGet, "/api/events/open-conf/place/me", token, nil)
		status = decodeBody[map[string]any](t, after)
		if status["last_commit"] == nil {
			t.Error("expected last commit after a write")
		}
	})

	t.Run("Reset is admin only", func(t *testing.T) {
		ta := setupTestApp(t)
		event := ta.createEvent(t, "open-conf", true)
		ta.createCanvas(t, event.ID())
		adminID, adminToken := ta.createSession(t, "organizer")
		_, userToken := ta.createSession(t, "attendee")

		body := resetCanvasRequest{Width: 4, Height: 4, Palette: []string{"#ffffff", "#000000"}, DefaultColor: "#ffffff"}

		if resp := ta.do(t, http.MethodPut, "/api/events/open-conf/place", "", body); resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("anonymous reset: expected 401, got %d", resp.StatusCode)
		}
		if resp := ta.do(t, http.MethodPut, "/api/events/open-conf/place", userToken, body); resp.StatusCode != http.StatusForbidden {
			t.Fatalf("non-admin reset: expected 403, got %d", resp.StatusCode)
		}

		if err := ta.app.events.AddAdmin(event.ID(), adminID); err != nil {
			t.Fatalf("failed to grant admin: %v", err)
		}
		resp := ta.do(t, http.MethodPut, "/api/events/open-conf/place", adminToken, body)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("admin reset: expected 200, got %d", resp.StatusCode)
		}

		canvas := decodeBody[canvasResponse](t, resp)
		if canvas.Width != 4 || canvas.Height != 4 || canvas.Cells[0][0] != "#ffffff" {
			t.Errorf("reset did not replace the canvas: %+v", canvas)
		}
	})

	t.Run("Admin writes skip the cooldown", func(t *testing.T) {
		ta := setupTestApp(t)
		event := ta.createEvent(t, "open-conf", true)
		ta.createCanvas(t, event.ID())
		adminID, adminToken := ta.createSession(t, "organizer")
		if err := ta.app.events.AddAdmin(event.ID(), adminID); err != nil {
			t.Fatalf("failed to grant admin: %v", err)
		}

		for i := 0; i < 3; i++ {
			resp := ta.do(t, http.MethodPost, "/api/events/open-conf/place/cells", adminToken,
				setCellRequest{X: i, Y: 0, Color: "#ff0000"})
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("admin write %d: expected 200, got %d", i, resp.StatusCode)
			}
		}
	})
}

func signBody(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestGitHubWebhook(t *testing.T) {
	pushBody := []byte(`{
		"ref": "refs/heads/main",
		"repository": {"full_name": "duskmoth/sidestage"},
		"head_commit": {
			"message": "fix the scoreboard",
			"timestamp": "2026-08-29T10:00:00Z",
			"author": {"name": "ada"}
		}
	}`)

	deliver := func(t *testing.T, ta *testApp, slug, ghEvent, signature string, body []byte) *http.Response {
		t.Helper()

		req, err := http.NewRequest(http.MethodPost, ta.server.URL+"/api/webhooks/github/"+slug, bytes.NewReader(body))
		if err != nil {
			t.Fatalf("failed to build request: %v", err)
		}
		req.Header.Set("X-GitHub-Event", ghEvent)
		if signature != "" {
			req.Header.Set("X-Hub-Signature-256", signature)
		}

		resp, err := ta.server.Client().Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	t.Run("Valid push is journaled and listed", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.createEvent(t, "open-conf", true)

		resp := deliver(t, ta, "open-conf", "push", signBody("fallback-secret", pushBody), pushBody)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("expected 201, got %d", resp.StatusCode)
		}

		list := ta.do(t, http.MethodGet, "/api/events/open-conf/pushes", "", nil)
		pushes := decodeBody[[]models.PushEvent](t, list)
		if len(pushes) != 1 {
			t.Fatalf("expected 1 push, got %d", len(pushes))
		}
		got := pushes[0]
		if got.RepoName != "duskmoth/sidestage" || got.Author != "ada" || got.Branch != "main" {
			t.Errorf("unexpected push payload: %+v", got)
		}
	})

	t.Run("Per-event secret overrides the fallback", func(t *testing.T) {
		ta := setupTestApp(t)
		event := ta.createEvent(t, "open-conf", true)
		if err := ta.app.webhooks.SetSecret(event.ID(), "event-secret"); err != nil {
			t.Fatalf("failed to set secret: %v", err)
		}

		if resp := deliver(t, ta, "open-conf", "push", signBody("fallback-secret", pushBody), pushBody); resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("fallback signature: expected 401, got %d", resp.StatusCode)
		}
		if resp := deliver(t, ta, "open-conf", "push", signBody("event-secret", pushBody), pushBody); resp.StatusCode != http.StatusCreated {
			t.Fatalf("event signature: expected 201, got %d", resp.StatusCode)
		}
	})

	t.Run("Bad signature is rejected", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.createEvent(t, "open-conf", true)

		resp := deliver(t, ta, "open-conf", "push", signBody("wrong-secret", pushBody), pushBody)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Missing signature is rejected", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.createEvent(t, "open-conf", true)

		resp := deliver(t, ta, "open-conf", "push", "", pushBody)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", resp.StatusCode)
		}
	})

	t.Run("Unknown event slug yields 404", func(t *testing.T) {
		ta := setupTestApp(t)

		resp := deliver(t, ta, "nope", "push", signBody("fallback-secret", pushBody), pushBody)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("Non-push deliveries are acknowledged but ignored", func(t *testing.T) {
		ta := setupTestApp(t)
		ta.createEvent(t, "open-conf", true)

		body := []byte(`{"zen": "keep it logically awesome"}`)
		resp := deliver(t, ta, "open-conf", "ping", signBody("fallback-secret", body), body)
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("expected 202, got %d", resp.StatusCode)
		}

		list := ta.do(t, http.MethodGet, "/api/events/open-conf/pushes", "", nil)
		pushes := decodeBody[[]models.PushEvent](t, list)
		if len(pushes) != 0 {
			t.Errorf("ping should not be journaled, got %d pushes", len(pushes))
		}
	})
}

func TestWithIdentity(t *testing.T) {
	ta := setupTestApp(t)
	userID, token := ta.createSession(t, "painter")

	handler := WithIdentity(ta.app.sessions, shared.NewLogger(nil))(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, ActorID(r))
		}))

	cases := []struct {
		name   string
		header string
		want   string
	}{
		{"valid token resolves the actor", "Bearer " + token, userID},
		{"unknown token stays anonymous", "Bearer bogus", ""},
		{"missing header stays anonymous", "", ""},
		{"non-bearer scheme is ignored", "Basic dXNlcjpwYXNz", ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if got := rec.Body.String(); got != tc.want {
				t.Errorf("actor = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestBasicRouterMiddlewareOrder(t *testing.T) {
	r := NewBasicRouter()

	var order []string
	tag := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, req)
			})
		}
	}

	r.Use(tag("first"), tag("second"))
	r.Handle("GET /ping", http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		order = append(order, "handler")
	}))

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))

	if strings.Join(order, ",") != "first,second,handler" {
		t.Errorf("unexpected execution order: %v", order)
	}
}
