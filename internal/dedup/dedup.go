// Package dedup filters inbound commands that were already processed. A
// bounded in-memory set answers the common case without touching storage;
// the durable command store stays authoritative across restarts.
package dedup

import (
	"context"
	"sync"
	"time"

	"github.com/battledinghy/battledinghy/internal/game/storage"
)

const (
	// defaultCapacity bounds the in-memory set. Hitting the cap clears the
	// whole set; the durable store still catches anything forgotten.
	defaultCapacity = 1000
	// defaultMaxAge is how long durable command records are retained.
	defaultMaxAge = 24 * time.Hour
)

// Deduper answers whether a command id has been seen before.
type Deduper struct {
	store    storage.CommandStore
	capacity int
	maxAge   time.Duration
	now      func() time.Time

	mu   sync.Mutex
	seen map[string]struct{}
}

// Option customizes a Deduper.
type Option func(*Deduper)

// WithCapacity overrides the in-memory set bound.
func WithCapacity(n int) Option {
	return func(d *Deduper) {
		if n > 0 {
			d.capacity = n
		}
	}
}

// WithMaxAge overrides the durable record retention window.
func WithMaxAge(age time.Duration) Option {
	return func(d *Deduper) {
		if age > 0 {
			d.maxAge = age
		}
	}
}

// WithNow overrides the clock. Tests use this.
func WithNow(now func() time.Time) Option {
	return func(d *Deduper) {
		if now != nil {
			d.now = now
		}
	}
}

// New builds a Deduper over the given durable command store.
func New(store storage.CommandStore, opts ...Option) *Deduper {
	d := &Deduper{
		store:    store,
		capacity: defaultCapacity,
		maxAge:   defaultMaxAge,
		now:      time.Now,
		seen:     make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Seen reports whether the command id was already processed, consulting the
// in-memory set first and the durable store on a miss.
func (d *Deduper) Seen(ctx context.Context, commandID string) (bool, error) {
	d.mu.Lock()
	_, hit := d.seen[commandID]
	d.mu.Unlock()
	if hit {
		return true, nil
	}

	has, err := d.store.HasCommand(ctx, commandID)
	if err != nil {
		return false, err
	}
	if has {
		d.remember(commandID)
	}
	return has, nil
}

// Remember marks a command id as processed in the in-memory set. The caller
// is responsible for the durable record.
func (d *Deduper) Remember(commandID string) {
	d.remember(commandID)
}

func (d *Deduper) remember(commandID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.seen) >= d.capacity {
		d.seen = make(map[string]struct{})
	}
	d.seen[commandID] = struct{}{}
}

// Forget drops a command id from the in-memory set. Used when a recorded
// command is rolled back after a failed write.
func (d *Deduper) Forget(commandID string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, commandID)
}

// Prune deletes durable command records older than the retention window and
// returns the number removed.
func (d *Deduper) Prune(ctx context.Context) (int64, error) {
	return d.store.PruneCommands(ctx, d.now().Add(-d.maxAge))
}
