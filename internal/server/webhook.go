package server

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/repositories"
)

// GitHubWebhookHandler ingests GitHub push webhooks into an event's live
// feed. Implements the [Handler] interface for registration with a Router.
type GitHubWebhookHandler struct {
	events         *repositories.EventRepository
	configs        *repositories.WebhookConfigRepository
	pushes         *repositories.PushEventRepository
	fallbackSecret string
	logger         *log.Logger
}

// NewGitHubWebhookHandler creates the webhook handler. fallbackSecret is
// used for events without a per-event secret.
func NewGitHubWebhookHandler(
	events *repositories.EventRepository,
	configs *repositories.WebhookConfigRepository,
	pushes *repositories.PushEventRepository,
	fallbackSecret string,
	logger *log.Logger,
) *GitHubWebhookHandler {
	return &GitHubWebhookHandler{
		events:         events,
		configs:        configs,
		pushes:         pushes,
		fallbackSecret: fallbackSecret,
		logger:         logger,
	}
}

// Routes returns the HTTP routes this handler serves.
func (h *GitHubWebhookHandler) Routes() []string {
	return []string{"POST /api/webhooks/github/{slug}"}
}

// pushPayload is the subset of GitHub's push event body we keep.
type pushPayload struct {
	Ref        string `json:"ref"`
	Repository struct {
		FullName string `json:"full_name"`
	} `json:"repository"`
	HeadCommit struct {
		Message   string    `json:"message"`
		Timestamp time.Time `json:"timestamp"`
		Author    struct {
			Name string `json:"name"`
		} `json:"author"`
	} `json:"head_commit"`
}

// ServeHTTP verifies the signature and journals the push.
func (h *GitHubWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	event, err := h.events.GetBySlug(r.PathValue("slug"))
	if err != nil {
		WriteError(w, err)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid request", "unreadable body")
		return
	}

	secret, err := h.configs.Secret(event.ID())
	if err != nil {
		WriteError(w, err)
		return
	}
	if secret == "" {
		secret = h.fallbackSecret
	}
	if !verifySignature(secret, body, r.Header.Get("X-Hub-Signature-256")) {
		h.logger.Warn("webhook signature mismatch", "event", event.Slug())
		WriteProblem(w, http.StatusUnauthorized, "invalid signature", "")
		return
	}

	if ghEvent := r.Header.Get("X-GitHub-Event"); ghEvent != "push" {
		// Accept but ignore non-push deliveries (ping, etc).
		WriteJSON(w, http.StatusAccepted, map[string]string{"status": "ignored"})
		return
	}

	var payload pushPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		WriteProblem(w, http.StatusBadRequest, "invalid request", "malformed JSON body")
		return
	}

	pushedAt := payload.HeadCommit.Timestamp
	if pushedAt.IsZero() {
		pushedAt = time.Now()
	}

	push := &models.PushEvent{
		EventID:  event.ID(),
		RepoName: payload.Repository.FullName,
		Author:   payload.HeadCommit.Author.Name,
		Message:  payload.HeadCommit.Message,
		Branch:   strings.TrimPrefix(payload.Ref, "refs/heads/"),
		PushedAt: pushedAt,
	}
	if err := h.pushes.Create(push); err != nil {
		WriteError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, push)
}

// verifySignature checks the X-Hub-Signature-256 header against the body.
func verifySignature(secret string, body []byte, header string) bool {
	if secret == "" {
		return false
	}
	signature, ok := strings.CutPrefix(header, "sha256=")
	if !ok {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	return hmac.Equal([]byte(expected), []byte(signature))
}
