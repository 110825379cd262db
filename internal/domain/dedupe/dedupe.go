// Package dedupe tracks idempotency keys so a retried decision is applied at
// most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

const defaultMaxSize = 100000

// Deduper binds client idempotency keys to the decision they produced.
type Deduper interface {
	// Reserve atomically binds key to sequence unless key is already bound.
	// When it is, seen is true and prior is the sequence it was bound to.
	Reserve(ctx context.Context, key string, sequence int) (prior int, seen bool, err error)

	// Unrecord forgets key so the operation it guards can be retried. Used
	// when a reserved operation was rejected downstream.
	Unrecord(ctx context.Context, key string) error

	// Size is the number of keys currently tracked by this process.
	Size() int64
}

// RequestKey scopes a client idempotency key to one session.
func RequestKey(sessionID, idempotencyKey string) string {
	return sessionID + "/" + idempotencyKey
}

type entry struct {
	key      string
	sequence int
}

// inMemoryDeduper keeps keys in a map with insertion order in a list. When
// bounded, the oldest key is evicted first.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List
	maxSize int
	size    atomic.Int64
}

// NewInMemoryDeduper creates a process-local deduper.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{
		maxSize: defaultMaxSize,
		seen:    make(map[string]*list.Element),
		order:   list.New(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *inMemoryDeduper) Reserve(_ context.Context, key string, sequence int) (int, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		return el.Value.(entry).sequence, true, nil
	}
	if d.maxSize > 0 && len(d.seen) >= d.maxSize {
		if oldest := d.order.Front(); oldest != nil {
			delete(d.seen, d.order.Remove(oldest).(entry).key)
			d.size.Add(-1)
		}
	}
	d.seen[key] = d.order.PushBack(entry{key: key, sequence: sequence})
	d.size.Add(1)
	return sequence, false, nil
}

func (d *inMemoryDeduper) Unrecord(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if el, ok := d.seen[key]; ok {
		d.order.Remove(el)
		delete(d.seen, key)
		d.size.Add(-1)
	}
	return nil
}

func (d *inMemoryDeduper) Size() int64 {
	return d.size.Load()
}
