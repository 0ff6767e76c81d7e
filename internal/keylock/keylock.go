// Package keylock serializes operations that share a key, such as balance
// updates on one customer or order creation under one idempotency key.
package keylock

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

// ErrLockTimeout is returned when a critical section cannot be entered
// within the configured acquisition timeout.
var ErrLockTimeout = errors.New("lock acquisition timed out")

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// Locker hands out one exclusive critical section per key. Entries are
// reference-counted so the key map does not grow with the key space.
type Locker struct {
	timeout time.Duration

	mu    sync.Mutex
	locks map[string]*entry
}

// New returns a Locker with the given acquisition timeout. A zero timeout
// disables locking: Do then runs fn without any serialization, and
// correctness depends entirely on the backing store's isolation.
func New(timeout time.Duration) *Locker {
	return &Locker{
		timeout: timeout,
		locks:   make(map[string]*entry),
	}
}

// Enabled reports whether Do actually serializes sections.
func (l *Locker) Enabled() bool {
	return l.timeout > 0
}

// Do runs fn inside the critical section for key. The section is released on
// every exit path, including panics inside fn. fn's error is returned as-is.
func (l *Locker) Do(ctx context.Context, key string, fn func() error) error {
	if l.timeout <= 0 {
		return fn()
	}

	e := l.retain(key)
	defer l.release(key)

	acquireCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	if err := e.sem.Acquire(acquireCtx, 1); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return ErrLockTimeout
	}
	defer e.sem.Release(1)

	return fn()
}

func (l *Locker) retain(key string) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		l.locks[key] = e
	}
	e.refs++
	return e
}

func (l *Locker) release(key string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.locks[key]
	if !ok {
		return
	}
	e.refs--
	if e.refs <= 0 {
		delete(l.locks, key)
	}
}
