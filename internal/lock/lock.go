// Package lock serializes operations that target the same key.
package lock

import (
	"context"
	"fmt"
)

// Locker acquires exclusive ownership of a key. The context bounds only the
// wait; once acquired the lock is held until the returned release is called.
type Locker interface {
	Lock(ctx context.Context, key string) (release func(), err error)
}

// JobKey returns the lock key of a job
func JobKey(id uint) string {
	return fmt.Sprintf("job:%d", id)
}

// CounterKey returns the lock key of a named sequence
func CounterKey(name string) string {
	return "counter:" + name
}
