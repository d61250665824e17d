package main

import (
	"context"
	"fmt"
	"time"

	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/repositories"
	"github.com/duskmoth/sidestage/internal/shared"
	"github.com/urfave/cli/v3"
)

const defaultEventDuration = 48 * time.Hour

// EventsCreate creates an event and its canvas in the local database.
// The two are inserted in one transaction: bad canvas parameters fail the
// whole command and leave nothing behind.
func (r *Runner) EventsCreate(ctx context.Context, cmd *cli.Command) error {
	name := cmd.String("name")
	slug := cmd.String("slug")
	endsIn := cmd.Duration("ends-in")
	public := cmd.Bool("public")
	width := cmd.Int("width")
	height := cmd.Int("height")
	palette := parsePalette(cmd.String("palette"))
	defaultColor := cmd.String("default")

	if len(palette) == 0 {
		return fmt.Errorf("%w: palette is empty", shared.ErrEmptyPalette)
	}
	if defaultColor == "" {
		defaultColor = palette[0]
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	event := models.NewEvent(0, name, slug, time.Now().Add(endsIn))
	event.SetPublic(public)
	if err := event.Validate(); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}

	canvas := models.NewCanvas("", int(width), int(height), palette, defaultColor)
	grid := repositories.NewCanvasRepository(db, r.config.Place.MaxCells)
	if err := repositories.NewEventRepository(db).CreateWithCanvas(event, canvas, grid); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}

	r.logger.Info("event created", "id", event.ID(), "slug", slug)

	r.writePlain("✓ Event created\n")
	r.writePlain("  ID:     %s\n", event.ID())
	r.writePlain("  Slug:   %s\n", slug)
	r.writePlain("  Ends:   %s\n", event.EndsAt().Format(time.RFC3339))
	r.writePlain("  Canvas: %dx%d (%d cells)\n", canvas.Width(), canvas.Height(), canvas.CellCount())

	return nil
}

// EventsList lists events from the local database.
func (r *Runner) EventsList(ctx context.Context, cmd *cli.Command) error {
	all := cmd.Bool("all")
	useJSON := cmd.Bool("json")
	pretty := cmd.Bool("pretty")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	criteria := map[string]any{}
	if !all {
		criteria["is_public"] = true
	}

	events, err := repositories.NewEventRepository(db).List(criteria)
	if err != nil {
		return fmt.Errorf("failed to list events: %w", err)
	}

	if useJSON {
		type eventRow struct {
			ID     string    `json:"id"`
			Name   string    `json:"name"`
			Slug   string    `json:"slug"`
			EndsAt time.Time `json:"ends_at"`
			Public bool      `json:"is_public"`
		}
		rows := make([]eventRow, 0, len(events))
		for _, e := range events {
			rows = append(rows, eventRow{
				ID: e.ID(), Name: e.Name(), Slug: e.Slug(), EndsAt: e.EndsAt(), Public: e.IsPublic(),
			})
		}
		return r.writeJSON(rows, pretty)
	}

	r.writePlain("Found %d events:\n\n", len(events))
	for i, e := range events {
		r.writePlain("%d. %s\n", i+1, e.Name())
		r.writePlain("   Slug: %s\n", e.Slug())
		r.writePlain("   Ends: %s\n", e.EndsAt().Format(time.RFC3339))
		if e.IsPublic() {
			r.writePlain("   Visibility: Public\n")
		} else {
			r.writePlain("   Visibility: Unlisted\n")
		}
		r.writePlain("\n")
	}

	return nil
}

// EventsDelete removes an event and cascades to its canvas, commits, and
// feeds.
func (r *Runner) EventsDelete(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("slug")

	if !cmd.Bool("yes") {
		return fmt.Errorf("%w: pass --yes to delete %s and all attached data", shared.ErrMissingArgument, slug)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	events := repositories.NewEventRepository(db)
	event, err := events.GetBySlug(slug)
	if err != nil {
		return fmt.Errorf("failed to find event: %w", err)
	}

	if err := events.Delete(event.ID()); err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}

	r.logger.Info("event deleted", "slug", slug)
	r.writePlain("✓ Deleted %s\n", slug)
	return nil
}

// EventsAddAdmin grants a user admin rights on an event.
func (r *Runner) EventsAddAdmin(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("slug")
	userID := cmd.String("user")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	events := repositories.NewEventRepository(db)
	event, err := events.GetBySlug(slug)
	if err != nil {
		return fmt.Errorf("failed to find event: %w", err)
	}

	if _, err := repositories.NewUserRepository(db).Get(userID); err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}

	if err := events.AddAdmin(event.ID(), userID); err != nil {
		return fmt.Errorf("failed to add admin: %w", err)
	}

	r.writePlain("✓ %s is now an admin of %s\n", userID, slug)
	return nil
}

// EventsSetWebhookSecret installs a per-event GitHub webhook secret.
func (r *Runner) EventsSetWebhookSecret(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("slug")
	secret := cmd.String("secret")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	event, err := repositories.NewEventRepository(db).GetBySlug(slug)
	if err != nil {
		return fmt.Errorf("failed to find event: %w", err)
	}

	if err := repositories.NewWebhookConfigRepository(db).SetSecret(event.ID(), secret); err != nil {
		return fmt.Errorf("failed to set webhook secret: %w", err)
	}

	r.writePlain("✓ Webhook secret set for %s\n", slug)
	r.writePlain("  Endpoint: %s/api/webhooks/github/%s\n", serverURL(r.config), slug)
	return nil
}
