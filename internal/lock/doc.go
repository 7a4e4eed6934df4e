// Package lock provides keyed exclusive-access scopes.
//
// A Locker serializes callers that present the same key and never blocks
// callers holding different keys. The store uses it to guard the
// read-count/decide/write sequence of a single event. Resources behind the
// lock, such as SQLite's single writer, may still order different keys.
//
// Two implementations are provided:
//   - Keyed: in-process, one semaphore per live key
//   - Redis: a SET NX PX lease for deployments running several processes
//     against a shared database
package lock

import "context"

// Locker acquires an exclusive scope for a key.
//
// Lock blocks until the scope is acquired or ctx is done. The returned
// unlock function releases the scope and is safe to call more than once.
// Acquisition failures are returned as-is; implementations never retry a
// failed backend call.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}
