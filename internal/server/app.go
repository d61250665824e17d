package server

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/charmbracelet/log"
	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/place"
	"github.com/duskmoth/sidestage/internal/repositories"
	"github.com/duskmoth/sidestage/internal/shared"
)

// App wires repositories, the canvas engine and the websocket hub into an
// HTTP API.
type App struct {
	logger *log.Logger
	config *shared.Config

	events        *repositories.EventRepository
	announcements *repositories.AnnouncementRepository
	activities    *repositories.ActivityRepository
	teams         *repositories.TeamRepository
	pushes        *repositories.PushEventRepository
	nowPlaying    *repositories.NowPlayingRepository
	webhooks      *repositories.WebhookConfigRepository
	sessions      *repositories.SessionRepository

	place *place.Service
	hub   *Hub
}

// NewApp constructs the application over an open database handle.
func NewApp(db *sql.DB, config *shared.Config, logger *log.Logger) *App {
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	events := repositories.NewEventRepository(db)
	hub := NewHub(logger)

	placeService := place.NewService(place.Options{
		Grid:                repositories.NewCanvasRepository(db, config.Place.MaxCells),
		Ledger:              repositories.NewCommitRepository(db),
		IsAdmin:             events.IsAdmin,
		Logger:              logger,
		Cooldown:            config.Place.Cooldown(),
		Broadcaster:         hub,
		ClearHistoryOnReset: config.Place.ClearHistoryOnReset,
	})

	return &App{
		logger:        logger,
		config:        config,
		events:        events,
		announcements: repositories.NewAnnouncementRepository(db),
		activities:    repositories.NewActivityRepository(db),
		teams:         repositories.NewTeamRepository(db),
		pushes:        repositories.NewPushEventRepository(db),
		nowPlaying:    repositories.NewNowPlayingRepository(db),
		webhooks:      repositories.NewWebhookConfigRepository(db),
		sessions:      repositories.NewSessionRepository(db),
		place:         placeService,
		hub:           hub,
	}
}

// Place exposes the canvas engine for CLI commands sharing the App wiring.
func (a *App) Place() *place.Service { return a.place }

// Router builds the full route table with logging and identity middleware.
func (a *App) Router() *BasicRouter {
	r := NewBasicRouter()
	r.Use(WithLogging(a.logger), WithIdentity(a.sessions, a.logger))

	r.Handle("GET /api/events", http.HandlerFunc(a.handleListEvents))
	r.Handle("GET /api/events/{slug}", http.HandlerFunc(a.handleGetEvent))
	r.Handle("GET /api/events/{slug}/announcements", http.HandlerFunc(a.handleListAnnouncements))
	r.Handle("GET /api/events/{slug}/activities", http.HandlerFunc(a.handleListActivities))
	r.Handle("GET /api/events/{slug}/teams", http.HandlerFunc(a.handleListTeams))
	r.Handle("GET /api/events/{slug}/pushes", http.HandlerFunc(a.handleListPushes))
	r.Handle("GET /api/events/{slug}/spotify/now-playing", http.HandlerFunc(a.handleNowPlaying))

	r.Handle("GET /api/events/{slug}/place", http.HandlerFunc(a.handleGetCanvas))
	r.Handle("GET /api/events/{slug}/place/me", http.HandlerFunc(a.handlePlaceStatus))
	r.Handle("POST /api/events/{slug}/place/cells", http.HandlerFunc(a.handleSetCell))
	r.Handle("PUT /api/events/{slug}/place", http.HandlerFunc(a.handleResetCanvas))

	r.Handle("GET /ws/events/{slug}/place", http.HandlerFunc(a.handleSubscribeCanvas))

	r.Handler(NewGitHubWebhookHandler(a.events, a.webhooks, a.pushes, a.config.Integrations.GitHub.WebhookSecret, a.logger))

	return r
}

// eventBySlug loads the event named in the request path.
func (a *App) eventBySlug(r *http.Request) (*models.Event, error) {
	slug := r.PathValue("slug")
	if slug == "" {
		return nil, fmt.Errorf("%w: missing event slug", shared.ErrInvalidInput)
	}
	return a.events.GetBySlug(slug)
}
