package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/ewm/internal/participation"
)

const requestColumns = `id, event_id, requester_id, created_at, status`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRequest scans requestColumns into a Request.
func scanRequest(row rowScanner) (participation.Request, error) {
	var (
		req       participation.Request
		id        int64
		eventID   int64
		requester int64
		created   int64
		status    string
	)

	if err := row.Scan(&id, &eventID, &requester, &created, &status); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return req, ErrNotFound
		}
		return req, fmt.Errorf("scan request: %w", err)
	}

	st, err := participation.ParseStatus(status)
	if err != nil {
		return req, fmt.Errorf("scan request %d: %w", id, err)
	}

	req.ID = participation.RequestID(id)
	req.EventID = participation.EventID(eventID)
	req.RequesterID = participation.UserID(requester)
	req.CreatedAt = unixNanoToTime(created)
	req.Status = st
	return req, nil
}

// collectRequests drains rows into a non-nil slice.
func collectRequests(rows *sql.Rows) ([]participation.Request, error) {
	defer rows.Close()

	requests := []participation.Request{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate requests: %w", err)
	}
	return requests, nil
}

// timeToUnixNano stores timestamps as UTC nanoseconds.
func timeToUnixNano(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func unixNanoToTime(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint failure.
func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	return false
}
