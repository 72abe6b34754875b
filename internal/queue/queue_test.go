package queue

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ctf-scoreboard/internal/cache"
	"github.com/ctf-scoreboard/internal/config"
)

const testTemplate = "test"

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

type fakeHandler struct {
	mu      sync.Mutex
	handled []string
	fn      func(ctx context.Context, req Request) ([]byte, error)
}

func (h *fakeHandler) CacheKey(req Request) (string, bool) {
	if len(req.Params) != 1 {
		return "", false
	}
	return testTemplate + ":" + req.Params[0], true
}

func (h *fakeHandler) Handle(ctx context.Context, req Request) ([]byte, error) {
	h.mu.Lock()
	h.handled = append(h.handled, req.Params[0])
	h.mu.Unlock()
	if h.fn != nil {
		return h.fn(ctx, req)
	}
	return []byte("v-" + req.Params[0]), nil
}

func (h *fakeHandler) order() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.handled...)
}

type recordingSetter struct {
	mu      sync.Mutex
	entries map[string]string
	ttls    map[string]time.Duration
}

func newRecordingSetter() *recordingSetter {
	return &recordingSetter{entries: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (s *recordingSetter) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = string(val)
	s.ttls[key] = ttl
	return nil
}

func (s *recordingSetter) get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.entries[key]
	return v, ok
}

func newTestQueue(t *testing.T, setter Setter, h Handler, mutate func(cfg *config.QueueConfig)) *Queue {
	t.Helper()
	cfg := &config.QueueConfig{Capacity: 16, Coalesce: true, RequestTimeout: time.Second}
	if mutate != nil {
		mutate(cfg)
	}
	q := New(setter, cfg, discardLogger, nil)
	q.Register(testTemplate, h)
	t.Cleanup(func() { _ = q.Stop() })
	return q
}

func drain(t *testing.T, q *Queue) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, q.Drain(ctx))
}

func TestQueueProcessesInOrder(t *testing.T) {
	setter := newRecordingSetter()
	h := &fakeHandler{}
	q := newTestQueue(t, setter, h, nil)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Enqueue(ctx, NewRequest(testTemplate, time.Hour, "test", strconv.Itoa(i))))
	}
	require.NoError(t, q.Start(ctx))
	drain(t, q)

	assert.Equal(t, []string{"0", "1", "2", "3", "4"}, h.order())
	v, ok := setter.get("test:3")
	require.True(t, ok)
	assert.Equal(t, "v-3", v)
	assert.Equal(t, time.Hour, setter.ttls["test:3"])

	stats := q.Stats()
	assert.Equal(t, uint64(5), stats.Enqueued)
	assert.Equal(t, uint64(5), stats.Applied)
	assert.Equal(t, uint64(0), stats.Dropped)
	assert.Equal(t, 0, stats.Depth)
	assert.True(t, stats.Running)
}

func TestQueueDropsWithoutTouchingCache(t *testing.T) {
	testCases := []struct {
		name string
		req  Request
		fn   func(ctx context.Context, req Request) ([]byte, error)
	}{
		{
			name: "empty result",
			req:  NewRequest(testTemplate, time.Hour, "test", "1"),
			fn: func(context.Context, Request) ([]byte, error) {
				return nil, nil
			},
		},
		{
			name: "handler error",
			req:  NewRequest(testTemplate, time.Hour, "test", "1"),
			fn: func(context.Context, Request) ([]byte, error) {
				return nil, errors.New("database unavailable")
			},
		},
		{
			name: "unknown template",
			req:  NewRequest("unknown", time.Hour, "test", "1"),
		},
		{
			name: "bad params",
			req:  NewRequest(testTemplate, time.Hour, "test", "1", "2"),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			setter := newRecordingSetter()
			q := newTestQueue(t, setter, &fakeHandler{fn: tc.fn}, nil)
			ctx := context.Background()
			require.NoError(t, q.Start(ctx))

			require.NoError(t, q.Enqueue(ctx, tc.req))
			drain(t, q)

			assert.Empty(t, setter.entries)
			assert.Equal(t, uint64(1), q.Stats().Dropped)
			assert.Equal(t, uint64(0), q.Stats().Applied)
		})
	}
}

func TestQueueCancelledRebuildLeavesEntry(t *testing.T) {
	store := cache.NewMemoryStore()
	c := cache.New(store, discardLogger, nil, time.Second)
	ctx := context.Background()
	require.NoError(t, c.Set(ctx, "test:1", []byte("previous"), time.Hour))

	h := &fakeHandler{fn: func(ctx context.Context, req Request) ([]byte, error) {
		<-ctx.Done()
		return []byte("partial"), ctx.Err()
	}}
	q := newTestQueue(t, c, h, func(cfg *config.QueueConfig) {
		cfg.RequestTimeout = 20 * time.Millisecond
	})
	require.NoError(t, q.Start(ctx))

	require.NoError(t, q.Enqueue(ctx, NewRequest(testTemplate, time.Hour, "test", "1")))
	drain(t, q)

	val, err := store.Get(ctx, "test:1")
	require.NoError(t, err)
	assert.Equal(t, "previous", string(val))
	assert.Equal(t, uint64(1), q.Stats().Dropped)
}

func TestQueueCoalescesWaitingRequests(t *testing.T) {
	setter := newRecordingSetter()
	h := &fakeHandler{}
	q := newTestQueue(t, setter, h, nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(ctx, NewRequest(testTemplate, time.Hour, "burst", "7")))
	}
	require.NoError(t, q.Enqueue(ctx, NewRequest(testTemplate, time.Hour, "burst", "8")))

	stats := q.Stats()
	assert.Equal(t, uint64(2), stats.Enqueued)
	assert.Equal(t, uint64(2), stats.Coalesced)

	require.NoError(t, q.Start(ctx))
	drain(t, q)
	assert.Equal(t, []string{"7", "8"}, h.order())

	// once dequeued, the key accepts new requests again
	require.NoError(t, q.Enqueue(ctx, NewRequest(testTemplate, time.Hour, "later", "7")))
	drain(t, q)
	assert.Equal(t, []string{"7", "8", "7"}, h.order())
}

func TestQueueWithoutCoalescing(t *testing.T) {
	h := &fakeHandler{}
	q := newTestQueue(t, newRecordingSetter(), h, func(cfg *config.QueueConfig) {
		cfg.Coalesce = false
	})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, q.Enqueue(ctx, NewRequest(testTemplate, time.Hour, "burst", "7")))
	}
	require.NoError(t, q.Start(ctx))
	drain(t, q)

	assert.Equal(t, []string{"7", "7", "7"}, h.order())
	assert.Equal(t, uint64(0), q.Stats().Coalesced)
}

func TestQueueRequestDuringRebuildIsKept(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	h := &fakeHandler{fn: func(ctx context.Context, req Request) ([]byte, error) {
		once.Do(func() {
			close(started)
			<-release
		})
		return []byte("v"), nil
	}}
	q := newTestQueue(t, newRecordingSetter(), h, nil)
	ctx := context.Background()
	require.NoError(t, q.Start(ctx))

	require.NoError(t, q.Enqueue(ctx, NewRequest(testTemplate, time.Hour, "first", "1")))
	<-started
	require.NoError(t, q.Enqueue(ctx, NewRequest(testTemplate, time.Hour, "second", "1")))
	close(release)
	drain(t, q)

	assert.Equal(t, []string{"1", "1"}, h.order())
	assert.Equal(t, uint64(0), q.Stats().Coalesced)
	assert.Equal(t, uint64(2), q.Stats().Applied)
}

func TestQueueFull(t *testing.T) {
	h := &fakeHandler{}
	q := newTestQueue(t, newRecordingSetter(), h, func(cfg *config.QueueConfig) {
		cfg.Capacity = 1
	})

	require.NoError(t, q.Enqueue(context.Background(), NewRequest(testTemplate, time.Hour, "t", "1")))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := q.Enqueue(ctx, NewRequest(testTemplate, time.Hour, "t", "2"))
	assert.ErrorIs(t, err, ErrQueueFull)

	// the rejected key was not left marked as waiting
	require.NoError(t, q.Start(context.Background()))
	require.NoError(t, q.Enqueue(context.Background(), NewRequest(testTemplate, time.Hour, "t", "2")))
	drain(t, q)
	assert.Equal(t, []string{"1", "2"}, h.order())
}

func TestQueueStop(t *testing.T) {
	q := newTestQueue(t, newRecordingSetter(), &fakeHandler{}, nil)
	ctx := context.Background()

	require.NoError(t, q.Start(ctx))
	require.NoError(t, q.Stop())
	assert.False(t, q.Stats().Running)

	err := q.Enqueue(ctx, NewRequest(testTemplate, time.Hour, "t", "1"))
	assert.ErrorIs(t, err, ErrQueueClosed)
	assert.ErrorIs(t, q.Start(ctx), ErrQueueClosed)
	assert.NoError(t, q.Stop())
}
