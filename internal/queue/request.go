package queue

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Request asks for the cache entry named by KeyTemplate and Params to be
// rebuilt from current data and stored for Expiration.
type Request struct {
	ID          string
	KeyTemplate string
	Expiration  time.Duration
	Params      []string
	Trigger     string
	EnqueuedAt  time.Time

	// set only on the internal marker Drain waits for
	barrier chan struct{}
}

// NewRequest creates a request with a fresh id
func NewRequest(template string, expiration time.Duration, trigger string, params ...string) Request {
	return Request{
		ID:          uuid.NewString(),
		KeyTemplate: template,
		Expiration:  expiration,
		Params:      params,
		Trigger:     trigger,
		EnqueuedAt:  time.Now(),
	}
}

// Handler rebuilds the entries of one key template
type Handler interface {
	// CacheKey resolves the key a request targets; false if the request's
	// parameters are unusable.
	CacheKey(req Request) (string, bool)
	// Handle recomputes the value. An empty result means there is nothing to
	// store (for example, the game no longer exists).
	Handle(ctx context.Context, req Request) ([]byte, error)
}

// Setter stores rebuilt values
type Setter interface {
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}
