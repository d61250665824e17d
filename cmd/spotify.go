package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/duskmoth/sidestage/internal/repositories"
	"github.com/duskmoth/sidestage/internal/server"
	"github.com/duskmoth/sidestage/internal/services"
	"github.com/duskmoth/sidestage/internal/shared"
	"github.com/duskmoth/sidestage/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const defaultPollInterval = 10 * time.Second

// SpotifyConnect performs the OAuth2 authorization flow and reports the
// resulting token's lifetime.
func (r *Runner) SpotifyConnect(ctx context.Context, cmd *cli.Command) error {
	svc, err := services.NewSpotifyService(r.config.Integrations.Spotify)
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	token, err := r.doOAuth(svc, "authorization")
	if err != nil {
		return err
	}
	svc.SetToken(ctx, token)

	r.writePlainln("✓ Authorization successful")
	if !token.Expiry.IsZero() {
		r.writePlain("✓ Token valid until %s\n\n", token.Expiry.Format(time.RFC3339))
	}
	r.writePlain("You can now use: sidestage spotify poll --slug <event>\n")

	return nil
}

// SpotifyPoll authenticates and then polls the organizer's playback into
// the event's now-playing feed until interrupted.
func (r *Runner) SpotifyPoll(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("slug")
	interval := cmd.Duration("interval")

	svc, err := services.NewSpotifyService(r.config.Integrations.Spotify)
	if err != nil {
		return fmt.Errorf("failed to create Spotify service: %w", err)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	event, err := repositories.NewEventRepository(db).GetBySlug(slug)
	if err != nil {
		return fmt.Errorf("failed to find event: %w", err)
	}

	token, err := r.doOAuth(svc, "authorization")
	if err != nil {
		return err
	}
	svc.SetToken(ctx, token)

	poller, err := tasks.NewNowPlayingPoller(
		event.ID(), svc, repositories.NewNowPlayingRepository(db), interval, r.logger,
	)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r.writePlain("→ Polling playback for %s every %s (Ctrl-C to stop)\n", slug, interval)
	if err := poller.Run(ctx, nil); err != nil && ctx.Err() == nil {
		return fmt.Errorf("poller failed: %w", err)
	}
	return nil
}

// SpotifyNowPlaying shows the stored now-playing snapshot for an event.
func (r *Runner) SpotifyNowPlaying(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("slug")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	event, err := repositories.NewEventRepository(db).GetBySlug(slug)
	if err != nil {
		return fmt.Errorf("failed to find event: %w", err)
	}

	np, err := repositories.NewNowPlayingRepository(db).GetForEvent(event.ID())
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	if np == nil || np.Track == "" {
		r.writePlain("Nothing playing for %s\n", slug)
		return nil
	}

	if np.IsPlaying {
		r.writePlain("▶ %s — %s\n", np.Track, np.Artist)
	} else {
		r.writePlain("⏸ %s — %s\n", np.Track, np.Artist)
	}
	r.writePlain("  Updated: %s\n", np.UpdatedAt.Format(time.RFC3339))

	return nil
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(svc *services.SpotifyService, prefix string) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := svc.GetAuthURL(state)
	oauthHandler := server.NewOAuthHandler(svc.OAuthConfig(), state)
	router := server.NewBasicRouter()
	router.Handler(oauthHandler)

	serverAddr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	httpServer := &http.Server{
		Addr:    serverAddr,
		Handler: router,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth server for %s at %v", prefix, serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	time.Sleep(100 * time.Millisecond)

	r.writePlain("→ Opening browser for Spotify %s...\n", prefix)
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(2 * time.Minute)
	defer timeout.Stop()

	var result server.OAuthResult

	select {
	case result = <-oauthHandler.Result():
		// Got result from callback
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		r.logger.Warn("error shutting down server", "error", err)
	}

	if result.Error() != nil {
		return nil, fmt.Errorf("authorization failed: %w", result.Error())
	}

	if result.Token == nil {
		return nil, fmt.Errorf("no token received")
	}

	return result.Token, nil
}
