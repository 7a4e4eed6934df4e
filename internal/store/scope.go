package store

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/roach88/ewm/internal/participation"
)

// Scope is the exclusive-access view of one event's requests.
// It is only valid inside the InEventScope callback.
type Scope struct {
	tx      *sql.Tx
	eventID participation.EventID
}

// InEventScope runs fn while holding the event's lock and a write
// transaction. The transaction commits if fn returns nil and rolls back
// otherwise, so a failing fn leaves no partial effect.
//
// Scopes for the same event are serialized by the event key. Scopes for
// different events never contend on a key, but SQLite has a single writer:
// the store keeps one connection, so a scope for another event waits in
// BeginTx until the open scope commits or rolls back.
//
// fn must only use the Scope; touching the Store from inside fn deadlocks on
// the single SQLite connection.
func (s *Store) InEventScope(ctx context.Context, eventID participation.EventID, fn func(*Scope) error) error {
	unlock, err := s.locker.Lock(ctx, eventKey(eventID))
	if err != nil {
		return fmt.Errorf("event scope %d: acquire lock: %w", eventID, err)
	}
	defer unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("event scope %d: begin tx: %w", eventID, err)
	}
	defer tx.Rollback() // No-op if committed

	if err := fn(&Scope{tx: tx, eventID: eventID}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("event scope %d: commit: %w", eventID, err)
	}
	return nil
}

// CountConfirmed re-reads the event's CONFIRMED count inside the scope.
func (sc *Scope) CountConfirmed(ctx context.Context) (int, error) {
	return countConfirmed(ctx, sc.tx, sc.eventID)
}

// FindLive returns the requester's non-CANCELED request for the event, if any.
func (sc *Scope) FindLive(ctx context.Context, requesterID participation.UserID) (participation.Request, bool, error) {
	return findLive(ctx, sc.tx, sc.eventID, requesterID)
}

// Insert stores a new request for the scoped event and returns it with its
// assigned ID. Returns ErrLiveRequestExists if the pair already has a live
// request.
func (sc *Scope) Insert(ctx context.Context, req participation.Request) (participation.Request, error) {
	if req.EventID != sc.eventID {
		return req, fmt.Errorf("insert request: event %d outside scope %d", req.EventID, sc.eventID)
	}

	res, err := sc.tx.ExecContext(ctx, `
		INSERT INTO requests (event_id, requester_id, created_at, status)
		VALUES (?, ?, ?, ?)
	`,
		int64(req.EventID),
		int64(req.RequesterID),
		timeToUnixNano(req.CreatedAt),
		string(req.Status),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return req, ErrLiveRequestExists
		}
		return req, fmt.Errorf("insert request: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return req, fmt.Errorf("insert request: last insert id: %w", err)
	}
	req.ID = participation.RequestID(id)
	req.CreatedAt = unixNanoToTime(timeToUnixNano(req.CreatedAt))
	return req, nil
}

// LoadRequests loads the given requests inside the scope's write
// transaction. Missing ids are simply absent from the result; requests of
// other events are returned so the caller can report them.
func (sc *Scope) LoadRequests(ctx context.Context, ids []participation.RequestID) (map[participation.RequestID]participation.Request, error) {
	loaded := make(map[participation.RequestID]participation.Request, len(ids))
	if len(ids) == 0 {
		return loaded, nil
	}

	rows, err := sc.tx.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE id IN (`+placeholders(len(ids))+`)
	`, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}

	requests, err := collectRequests(rows)
	if err != nil {
		return nil, fmt.Errorf("load requests: %w", err)
	}
	for _, req := range requests {
		loaded[req.ID] = req
	}
	return loaded, nil
}

// SaveStatuses persists the status of every request. All requests must
// belong to the scoped event.
func (sc *Scope) SaveStatuses(ctx context.Context, requests []participation.Request) error {
	stmt, err := sc.tx.PrepareContext(ctx, `
		UPDATE requests SET status = ?
		WHERE id = ? AND event_id = ?
	`)
	if err != nil {
		return fmt.Errorf("save statuses: prepare: %w", err)
	}
	defer stmt.Close()

	for _, req := range requests {
		res, err := stmt.ExecContext(ctx, string(req.Status), int64(req.ID), int64(sc.eventID))
		if err != nil {
			return fmt.Errorf("save statuses: request %d: %w", req.ID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("save statuses: rows affected: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("save statuses: request %d: %w", req.ID, ErrNotFound)
		}
	}
	return nil
}

func eventKey(id participation.EventID) string {
	return "event:" + strconv.FormatInt(int64(id), 10)
}
