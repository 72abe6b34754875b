package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/ctf-scoreboard/internal/config"
)

// GameLister lists the games whose scoreboards are kept warm
type GameLister interface {
	ListGameIDs(ctx context.Context) ([]int64, error)
	ListActiveGameIDs(ctx context.Context, at time.Time) ([]int64, error)
}

// Flusher queues a scoreboard rebuild
type Flusher interface {
	FlushScoreboard(ctx context.Context, gameID int64, trigger string) error
}

// Refresh triggers
const (
	TriggerRefresh = "refresh"
	TriggerWarmUp  = "warm-up"
)

// RefreshWorker periodically queues rebuilds of running games' scoreboards,
// catching up on any invalidation that was lost.
type RefreshWorker struct {
	games   GameLister
	flusher Flusher
	config  *config.RefreshConfig
	logger  *slog.Logger
	now     func() time.Time
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewRefreshWorker creates a new refresh worker
func NewRefreshWorker(
	games GameLister,
	flusher Flusher,
	cfg *config.RefreshConfig,
	logger *slog.Logger,
) *RefreshWorker {
	return &RefreshWorker{
		games:   games,
		flusher: flusher,
		config:  cfg,
		logger:  logger,
		now:     time.Now,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}
}

// Start begins the background refresh process
func (w *RefreshWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("refresh worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background refresh process
func (w *RefreshWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("refresh worker stopped")
	return nil
}

func (w *RefreshWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.RunOnce(ctx)
		}
	}
}

// RunOnce queues a rebuild for every game running now
func (w *RefreshWorker) RunOnce(ctx context.Context) {
	ids, err := w.games.ListActiveGameIDs(ctx, w.now())
	if err != nil {
		w.logger.Error("failed to list active games for refresh", "error", err)
		return
	}

	queued, failed := w.flushAll(ctx, ids, TriggerRefresh)
	w.logger.Info("refresh cycle completed", "games", len(ids), "queued", queued, "errors", failed)
}

// WarmUp queues a rebuild for every game, so scoreboards are cached before
// the first reader asks.
func (w *RefreshWorker) WarmUp(ctx context.Context) error {
	ids, err := w.games.ListGameIDs(ctx)
	if err != nil {
		return err
	}

	queued, failed := w.flushAll(ctx, ids, TriggerWarmUp)
	w.logger.Info("scoreboard warm-up queued", "games", len(ids), "queued", queued, "errors", failed)
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *RefreshWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *RefreshWorker) flushAll(ctx context.Context, ids []int64, trigger string) (queued, failed int) {
	for _, id := range ids {
		if err := w.flusher.FlushScoreboard(ctx, id, trigger); err != nil {
			w.logger.Error("failed to queue scoreboard rebuild",
				"game_id", id,
				"trigger", trigger,
				"error", err,
			)
			failed++
			continue
		}
		queued++
	}
	return queued, failed
}
