// Package locksvc serializes edits of the same lesson, in-process or across processes through redis.
package locksvc

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lessons/core"
)

// LocalLocker is a core.Locker for a single process.
type LocalLocker struct {
	mu   sync.Mutex
	held map[string]chan struct{}
	wait time.Duration
}

var _ core.Locker = (*LocalLocker)(nil)

// NewLocalLocker returns a locker that gives up after wait (0 waits until ctx is done).
func NewLocalLocker(wait time.Duration) *LocalLocker {
	return &LocalLocker{held: make(map[string]chan struct{}), wait: wait}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (func(), error) {
	if l.wait > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.wait)
		defer cancel()
	}

	for {
		l.mu.Lock()
		released, busy := l.held[key]
		if !busy {
			ch := make(chan struct{})
			l.held[key] = ch
			l.mu.Unlock()

			var once sync.Once
			return func() {
				once.Do(func() {
					l.mu.Lock()
					delete(l.held, key)
					l.mu.Unlock()
					close(ch)
				})
			}, nil
		}
		l.mu.Unlock()

		select {
		case <-released:
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, errors.Wrap(core.ErrLocked, key)
			}
			return nil, ctx.Err()
		}
	}
}
