// Package dedupe defines the mission fingerprint and the ledger that
// guarantees a mission is processed at most once.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"
)

// DefaultMaxSize bounds the in-memory ledger.
const DefaultMaxSize = 1000

// keySeparator cannot appear in XML character data, so name/date pairs
// never collide.
const keySeparator = "\x1f"

// Fingerprint identifies a mission. The literal pair is the key; there is no
// fuzzy matching.
type Fingerprint struct {
	Name string
	Date string
}

// Key returns the ledger key for the fingerprint.
func (f Fingerprint) Key() string {
	return f.Name + keySeparator + f.Date
}

// String implements fmt.Stringer.
func (f Fingerprint) String() string {
	return f.Name + " @ " + f.Date
}

// Ledger records processed mission fingerprints across invocations.
type Ledger interface {
	// Contains reports whether key was already marked processed.
	Contains(ctx context.Context, key string) (bool, error)

	// Add marks key processed, evicting the oldest entry when full.
	Add(ctx context.Context, key string) error

	Size() int64
}

// inMemoryLedger implements Ledger with a map plus insertion-ordered list.
// For bounded mode (maxSize > 0) the oldest entry is evicted first.
// For unbounded mode (maxSize <= 0) entries are never evicted.
type inMemoryLedger struct {
	mu      sync.Mutex
	seen    map[string]*list.Element
	order   *list.List // front = oldest
	maxSize int
	size    atomic.Int64
}

// NewInMemoryLedger creates a new in-memory ledger with configuration options.
func NewInMemoryLedger(opts ...Option) Ledger {
	l := &inMemoryLedger{
		maxSize: DefaultMaxSize,
	}

	// Apply all options
	for _, opt := range opts {
		opt(l)
	}

	l.seen = make(map[string]*list.Element)
	l.order = list.New()
	return l
}

// Contains reports whether key was marked.
func (l *inMemoryLedger) Contains(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, ok := l.seen[key]
	return ok, nil
}

// Add marks key. Adding a present key is a no-op.
func (l *inMemoryLedger) Add(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, ok := l.seen[key]; ok {
		return nil
	}

	if l.maxSize > 0 {
		for len(l.seen) >= l.maxSize {
			l.evictOldest()
		}
	}

	l.seen[key] = l.order.PushBack(key)
	l.size.Add(1)
	return nil
}

// evictOldest removes the least recently added entry.
// Must be called with l.mu held.
func (l *inMemoryLedger) evictOldest() {
	front := l.order.Front()
	if front == nil {
		return
	}
	l.order.Remove(front)
	delete(l.seen, front.Value.(string))
	l.size.Add(-1)
}

// Size returns the current number of entries in the ledger.
func (l *inMemoryLedger) Size() int64 {
	return l.size.Load()
}
