package main

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/duskmoth/sidestage/internal/formatter"
	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/place"
	"github.com/duskmoth/sidestage/internal/repositories"
	"github.com/duskmoth/sidestage/internal/services"
	"github.com/duskmoth/sidestage/internal/shared"
	"github.com/duskmoth/sidestage/internal/tasks"
	"github.com/urfave/cli/v3"
)

const defaultPalette = "#ffffff,#000000,#ff0000,#00ff00,#0000ff,#ffff00,#ff00ff,#00ffff"

// parsePalette splits a comma-separated color list into normalized hex colors.
func parsePalette(s string) []string {
	var palette []string
	for _, color := range strings.Split(s, ",") {
		if color = strings.ToLower(strings.TrimSpace(color)); color != "" {
			palette = append(palette, color)
		}
	}
	return palette
}

// canvasFromAPI rebuilds a canvas model from the server's wire form so the
// formatter can render it.
func canvasFromAPI(slug string, c *services.Canvas) *models.Canvas {
	canvas := models.NewCanvas(slug, c.Width, c.Height, c.Palette, c.DefaultColor)
	if len(c.Cells) > 0 {
		canvas.SetRows(c.Cells)
	}
	return canvas
}

// PlaceShow renders the event's canvas as character art.
func (r *Runner) PlaceShow(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("slug")

	apiCanvas, err := r.client.Canvas(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to fetch canvas: %w", err)
	}
	canvas := canvasFromAPI(slug, apiCanvas)

	art, err := formatter.ExportToText(canvas)
	if err != nil {
		return fmt.Errorf("failed to render canvas: %w", err)
	}

	r.writePlainHeader(slug)
	r.writePlain("%s", art)
	r.writePlain("\n%dx%d", canvas.Width(), canvas.Height())
	for i, color := range canvas.Palette() {
		r.writePlain("  %c=%s", formatter.Glyph(i), color)
	}
	r.writePlain("\n")

	return nil
}

// PlaceExport writes a canvas snapshot to disk in the requested format.
func (r *Runner) PlaceExport(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("slug")
	format := cmd.String("format")
	output := cmd.String("output")
	title := cmd.String("title")

	apiCanvas, err := r.client.Canvas(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to fetch canvas: %w", err)
	}
	canvas := canvasFromAPI(slug, apiCanvas)

	switch format {
	case "csv":
		result, err := formatter.WriteCSVExport(canvas, output)
		if err != nil {
			return fmt.Errorf("failed to export CSV: %w", err)
		}
		r.writePlain("✓ Canvas exported\n")
		r.writePlain("  Cells:    %s\n", result.CellsFile)
		r.writePlain("  Metadata: %s\n", result.MetadataFile)
	case "markdown", "md":
		path, err := formatter.WriteMarkdownExport(canvas, title, output)
		if err != nil {
			return fmt.Errorf("failed to export Markdown: %w", err)
		}
		r.writePlain("✓ Canvas exported to %s\n", path)
	case "text", "txt":
		path, err := formatter.WriteTextExport(canvas, output)
		if err != nil {
			return fmt.Errorf("failed to export text: %w", err)
		}
		r.writePlain("✓ Canvas exported to %s\n", path)
	default:
		return fmt.Errorf("%w: unknown format %q", shared.ErrInvalidInput, format)
	}

	return nil
}

// PlaceJournal exports the commit journal to CSV from the local database.
func (r *Runner) PlaceJournal(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("slug")
	output := cmd.String("output")
	limit := cmd.Int("limit")

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	event, err := repositories.NewEventRepository(db).GetBySlug(slug)
	if err != nil {
		return fmt.Errorf("failed to find event: %w", err)
	}

	commits, err := repositories.NewCommitRepository(db).ListForEvent(event.ID(), int(limit))
	if err != nil {
		return fmt.Errorf("failed to list commits: %w", err)
	}

	path, err := formatter.WriteJournalExport(commits, slug, output)
	if err != nil {
		return fmt.Errorf("failed to export journal: %w", err)
	}

	r.writePlain("✓ %d commits exported to %s\n", len(commits), path)
	return nil
}

// PlaceReset replaces the event's canvas through a running server.
func (r *Runner) PlaceReset(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("slug")
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

	canvas, err := r.apiClient(cmd).ResetCanvas(ctx, slug, int(width), int(height), palette, defaultColor)
	if err != nil {
		return fmt.Errorf("failed to reset canvas: %w", err)
	}

	r.writePlain("✓ Canvas reset for %s\n", slug)
	r.writePlain("  Size: %dx%d\n", canvas.Width, canvas.Height)
	return nil
}

// PlaceWatch streams accepted writes from a running server until interrupted.
func (r *Runner) PlaceWatch(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("slug")

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	frames, err := r.client.Subscribe(ctx, slug)
	if err != nil {
		return fmt.Errorf("failed to subscribe: %w", err)
	}

	r.writePlain("→ Watching %s (Ctrl-C to stop)\n", slug)
	for {
		select {
		case <-ctx.Done():
			return nil
		case cell, ok := <-frames:
			if !ok {
				r.writePlain("connection closed\n")
				return nil
			}
			r.writePlain("(%d,%d) %s\n", cell.X, cell.Y, cell.Color)
		}
	}
}

// PlaceSeed paints a starter pattern through the normal write path.
func (r *Runner) PlaceSeed(ctx context.Context, cmd *cli.Command) error {
	slug := cmd.String("slug")
	actorID := cmd.String("actor")
	pattern := cmd.String("pattern")
	colors := parsePalette(cmd.String("colors"))
	rateLimit := cmd.Float("rate")

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

	grid := repositories.NewCanvasRepository(db, r.config.Place.MaxCells)
	canvas, err := grid.GetByEvent(event.ID())
	if err != nil {
		return fmt.Errorf("failed to load canvas: %w", err)
	}

	if len(colors) == 0 {
		colors = canvas.Palette()
	}

	var cells []models.Cell
	switch pattern {
	case "checkerboard":
		if len(colors) < 2 {
			return fmt.Errorf("%w: checkerboard needs two colors", shared.ErrInvalidInput)
		}
		cells = tasks.Checkerboard(canvas.Width(), canvas.Height(), colors[0], colors[1])
	case "border":
		cells = tasks.Border(canvas.Width(), canvas.Height(), colors[0])
	default:
		return fmt.Errorf("%w: unknown pattern %q", shared.ErrInvalidInput, pattern)
	}

	if isAdmin, err := events.IsAdmin(event.ID(), actorID); err != nil {
		return fmt.Errorf("failed to check admin: %w", err)
	} else if !isAdmin {
		r.logger.Warn("actor is not an event admin, writes will hit the cooldown", "actor", actorID)
	}

	svc := place.NewService(place.Options{
		Grid:     grid,
		Ledger:   repositories.NewCommitRepository(db),
		IsAdmin:  events.IsAdmin,
		Logger:   r.logger,
		Cooldown: r.config.Place.Cooldown(),
	})

	seeder, err := tasks.NewSeeder(svc, event.ID(), actorID)
	if err != nil {
		return err
	}

	r.writePlain("→ Seeding %d cells onto %s...\n", len(cells), slug)

	result, err := seeder.Seed(ctx, nil, cells, tasks.SeederOpts{RateLimit: rateLimit})
	if err != nil {
		return fmt.Errorf("seed run failed: %w", err)
	}

	r.writePlain("✓ Seed complete: %d written, %d failed\n", result.WrittenOK, result.FailedCells)
	for _, seedErr := range result.Errors {
		r.writePlain("  ✗ %v\n", seedErr)
	}

	return nil
}
