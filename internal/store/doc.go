// Package store provides SQLite-backed storage for participation requests.
//
// The store owns three tables:
//   - requests: participation requests (never deleted)
//   - events: the capacity snapshot read through participation.EventCatalog
//   - users: the identities read through participation.UserDirectory
//
// # Event scope
//
// InEventScope is the only way to create or batch-mutate requests. It holds
// the per-event key of the configured lock.Locker and runs the callback in a
// BEGIN IMMEDIATE transaction, so the confirmed count read inside the scope
// reflects every committed mutation for that event and no other scope for
// the same event can interleave.
//
// Cancel is a single-row UPDATE and does not take the event key.
//
// Different events never share a key, yet they still share SQLite's single
// writer. The store holds one connection, and an open scope keeps it until
// commit, so writes for other events queue behind it. Keep scope callbacks
// short.
//
// # Live request uniqueness
//
// A partial unique index keeps at most one non-CANCELED request per
// (event_id, requester_id). Violations surface as ErrLiveRequestExists.
//
// # Database Configuration
//
//   - WAL mode: concurrent reads during writes
//   - busy_timeout=5000: wait for the write lock up to 5 seconds
//   - foreign_keys=ON
//   - _txlock=immediate: transactions take the write lock at BEGIN
package store
