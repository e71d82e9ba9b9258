package core

import (
	"context"

	"github.com/pkg/errors"
)

var ErrLocked = errors.New("resource is locked by another editor")

// Locker serializes mutations on a named resource (e.g. one lesson's activity list).
type Locker interface {
	// Lock blocks until the lock is acquired, the wait timeout elapses (ErrLocked) or ctx is done.
	// The returned func releases the lock.
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
