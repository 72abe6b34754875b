package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ctf-scoreboard/internal/config"
	"github.com/ctf-scoreboard/internal/metrics"
)

var (
	ErrQueueFull   = errors.New("invalidation queue is full")
	ErrQueueClosed = errors.New("invalidation queue is stopped")
)

// Stats is a point-in-time view of queue activity
type Stats struct {
	Enqueued  uint64 `json:"enqueued"`
	Coalesced uint64 `json:"coalesced"`
	Applied   uint64 `json:"applied"`
	Dropped   uint64 `json:"dropped"`
	Depth     int    `json:"depth"`
	Running   bool   `json:"running"`
}

// Queue serializes cache rebuilds. Producers enqueue without waiting for the
// rebuild; a single consumer processes requests in FIFO order and replaces
// each entry only once its new value is fully computed.
type Queue struct {
	cache    Setter
	config   *config.QueueConfig
	logger   *slog.Logger
	metrics  *metrics.Metrics
	handlers map[string]Handler
	requests chan Request

	pendingMu sync.Mutex
	pending   map[string]struct{}

	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
	stopped atomic.Bool

	enqueued  atomic.Uint64
	coalesced atomic.Uint64
	applied   atomic.Uint64
	dropped   atomic.Uint64
}

// New creates a stopped queue writing into cache
func New(cache Setter, cfg *config.QueueConfig, logger *slog.Logger, m *metrics.Metrics) *Queue {
	return &Queue{
		cache:    cache,
		config:   cfg,
		logger:   logger,
		metrics:  m,
		handlers: make(map[string]Handler),
		requests: make(chan Request, cfg.Capacity),
		pending:  make(map[string]struct{}),
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Register installs the handler for a key template. Call before Start.
func (q *Queue) Register(template string, h Handler) {
	q.handlers[template] = h
}

// Enqueue submits a request. It blocks only while the queue is full, until
// ctx ends. With coalescing enabled, a request for a key that already has a
// request waiting is absorbed by it.
func (q *Queue) Enqueue(ctx context.Context, req Request) error {
	if q.stopped.Load() {
		return ErrQueueClosed
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if req.EnqueuedAt.IsZero() {
		req.EnqueuedAt = time.Now()
	}

	key, coalescible := q.pendingKey(req)
	if coalescible {
		q.pendingMu.Lock()
		if _, waiting := q.pending[key]; waiting {
			q.pendingMu.Unlock()
			q.coalesced.Add(1)
			q.metrics.QueueOutcome(metrics.OutcomeCoalesced)
			q.logger.Debug("invalidation coalesced", "key", key, "request_id", req.ID, "trigger", req.Trigger)
			return nil
		}
		q.pending[key] = struct{}{}
		q.pendingMu.Unlock()
	}

	select {
	case q.requests <- req:
		q.enqueued.Add(1)
		q.metrics.SetQueueDepth(len(q.requests))
		return nil
	case <-ctx.Done():
		if coalescible {
			q.clearPending(key)
		}
		return fmt.Errorf("%w: %v", ErrQueueFull, ctx.Err())
	}
}

// Drain blocks until every request enqueued before the call has been
// processed, or ctx ends. The queue must be running.
func (q *Queue) Drain(ctx context.Context) error {
	marker := Request{barrier: make(chan struct{})}
	select {
	case q.requests <- marker:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-marker.barrier:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start launches the consumer
func (q *Queue) Start(ctx context.Context) error {
	q.mu.Lock()
	if q.running {
		q.mu.Unlock()
		return nil
	}
	if q.stopped.Load() {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.running = true
	q.mu.Unlock()

	q.logger.Info("invalidation queue started",
		"capacity", cap(q.requests),
		"coalesce", q.config.Coalesce,
	)

	go q.run(ctx)
	return nil
}

// Stop waits for the request in progress to finish and stops the consumer.
// Requests still waiting are discarded and their entries left as they are.
func (q *Queue) Stop() error {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return nil
	}
	q.mu.Unlock()

	q.stopped.Store(true)
	close(q.stopCh)
	<-q.doneCh

	q.mu.Lock()
	q.running = false
	q.mu.Unlock()

	q.logger.Info("invalidation queue stopped", "discarded", len(q.requests))
	return nil
}

// Stats reports counters since creation
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	running := q.running
	q.mu.Unlock()

	return Stats{
		Enqueued:  q.enqueued.Load(),
		Coalesced: q.coalesced.Load(),
		Applied:   q.applied.Load(),
		Dropped:   q.dropped.Load(),
		Depth:     len(q.requests),
		Running:   running,
	}
}

func (q *Queue) run(ctx context.Context) {
	defer close(q.doneCh)

	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stopCh:
			return
		case req := <-q.requests:
			q.metrics.SetQueueDepth(len(q.requests))
			if req.barrier != nil {
				close(req.barrier)
				continue
			}
			q.process(ctx, req)
		}
	}
}

func (q *Queue) process(ctx context.Context, req Request) {
	h, ok := q.handlers[req.KeyTemplate]
	if !ok {
		q.drop(req, "", "no handler for key template", nil)
		return
	}
	key, ok := h.CacheKey(req)
	if !ok {
		q.drop(req, "", "unusable request parameters", nil)
		return
	}
	if q.config.Coalesce {
		q.clearPending(key)
	}

	reqCtx := ctx
	if q.config.RequestTimeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, q.config.RequestTimeout)
		defer cancel()
	}

	start := time.Now()
	data, err := h.Handle(reqCtx, req)
	elapsed := time.Since(start)
	q.metrics.ObserveCompute("queue", elapsed)
	if err != nil {
		q.drop(req, key, "rebuild failed", err)
		return
	}
	if len(data) == 0 {
		q.drop(req, key, "empty rebuild result", nil)
		return
	}

	if err := q.cache.Set(reqCtx, key, data, req.Expiration); err != nil {
		q.drop(req, key, "storing rebuilt entry failed", err)
		return
	}

	q.applied.Add(1)
	q.metrics.QueueOutcome(metrics.OutcomeApplied)
	q.logger.Debug("cache entry rebuilt",
		"key", key,
		"request_id", req.ID,
		"trigger", req.Trigger,
		"duration", elapsed,
		"waited", start.Sub(req.EnqueuedAt),
		"size", len(data),
	)
}

func (q *Queue) drop(req Request, key, reason string, err error) {
	q.dropped.Add(1)
	q.metrics.QueueOutcome(metrics.OutcomeDropped)

	attrs := []any{
		"reason", reason,
		"template", req.KeyTemplate,
		"params", req.Params,
		"request_id", req.ID,
		"trigger", req.Trigger,
	}
	if key != "" {
		attrs = append(attrs, "key", key)
	}
	if err != nil {
		attrs = append(attrs, "error", err)
		q.logger.Error("invalidation request dropped", attrs...)
		return
	}
	q.logger.Warn("invalidation request dropped", attrs...)
}

func (q *Queue) pendingKey(req Request) (string, bool) {
	if !q.config.Coalesce {
		return "", false
	}
	h, ok := q.handlers[req.KeyTemplate]
	if !ok {
		return "", false
	}
	return h.CacheKey(req)
}

func (q *Queue) clearPending(key string) {
	q.pendingMu.Lock()
	delete(q.pending, key)
	q.pendingMu.Unlock()
}
