package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/duskmoth/sidestage/internal/models"
	"github.com/duskmoth/sidestage/internal/services"
	"github.com/duskmoth/sidestage/internal/shared"
	"golang.org/x/time/rate"
)

// PlaybackSource yields the organizer's current playback state.
type PlaybackSource interface {
	CurrentlyPlaying(ctx context.Context) (*services.SpotifyPlayback, error)
}

// SnapshotStore persists now-playing snapshots per event.
type SnapshotStore interface {
	Upsert(np *models.NowPlaying) error
}

// NowPlayingPoller keeps an event's now-playing snapshot current by
// polling Spotify on an interval. Poll failures are logged and retried on
// the next tick; a broken Spotify connection must not take the feed down.
type NowPlayingPoller struct {
	eventID  string
	source   PlaybackSource
	store    SnapshotStore
	interval time.Duration
	logger   *log.Logger
}

// NewNowPlayingPoller creates a poller for the event. interval defaults to
// 10 seconds, the shortest spacing that stays well inside Spotify's API
// quota for a single client.
func NewNowPlayingPoller(eventID string, source PlaybackSource, store SnapshotStore, interval time.Duration, logger *log.Logger) (*NowPlayingPoller, error) {
	if source == nil || store == nil {
		return nil, fmt.Errorf("%w: playback source and snapshot store are required", shared.ErrServiceUnavailable)
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &NowPlayingPoller{
		eventID:  eventID,
		source:   source,
		store:    store,
		interval: interval,
		logger:   logger,
	}, nil
}

// Run polls until the context is cancelled. The limiter paces requests so
// a short configured interval cannot turn into a tight error loop when
// Spotify answers quickly with failures.
func (p *NowPlayingPoller) Run(ctx context.Context, progress chan<- ProgressUpdate) error {
	limiter := rate.NewLimiter(rate.Every(p.interval), 1)

	for step := 1; ; step++ {
		if err := limiter.Wait(ctx); err != nil {
			return ctx.Err()
		}

		if err := p.pollOnce(ctx, step, progress); err != nil {
			p.logger.Warn("playback poll failed", "event", p.eventID, "error", err)
		}
	}
}

func (p *NowPlayingPoller) pollOnce(ctx context.Context, step int, progress chan<- ProgressUpdate) error {
	playback, err := p.source.CurrentlyPlaying(ctx)
	if err != nil {
		return err
	}

	np := playback.NowPlaying(p.eventID)
	if err := p.store.Upsert(np); err != nil {
		return fmt.Errorf("failed to store snapshot: %w", err)
	}

	sendProgress(progress, pollUpdate(step, np.Track))
	return nil
}

// FeedPruner deletes feed entries older than a cutoff.
type FeedPruner interface {
	PruneBefore(cutoff time.Time) (int64, error)
}

// PushPruner periodically trims the push feed to a retention window. One
// pruner sweeps all events, so events created after startup are covered.
type PushPruner struct {
	pruner    FeedPruner
	retention time.Duration
	interval  time.Duration
	logger    *log.Logger
}

// NewPushPruner creates a pruner keeping retention worth of pushes,
// checking every interval. Defaults: 24h retention, hourly checks.
func NewPushPruner(pruner FeedPruner, retention, interval time.Duration, logger *log.Logger) (*PushPruner, error) {
	if pruner == nil {
		return nil, fmt.Errorf("%w: feed pruner is required", shared.ErrServiceUnavailable)
	}
	if retention <= 0 {
		retention = 24 * time.Hour
	}
	if interval <= 0 {
		interval = time.Hour
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &PushPruner{
		pruner:    pruner,
		retention: retention,
		interval:  interval,
		logger:    logger,
	}, nil
}

// Run prunes on each tick until the context is cancelled.
func (p *PushPruner) Run(ctx context.Context, progress chan<- ProgressUpdate) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for step := 1; ; step++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			removed, err := p.PruneOnce(now)
			if err != nil {
				p.logger.Warn("push prune failed", "error", err)
				continue
			}
			sendProgress(progress, pruneUpdate(step, removed))
		}
	}
}

// PruneOnce runs a single prune pass at the given instant.
func (p *PushPruner) PruneOnce(now time.Time) (int64, error) {
	removed, err := p.pruner.PruneBefore(now.Add(-p.retention))
	if err != nil {
		return 0, err
	}
	if removed > 0 {
		p.logger.Debug("pruned push events", "removed", removed)
	}
	return removed, nil
}
