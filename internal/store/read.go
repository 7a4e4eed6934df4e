package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/roach88/ewm/internal/participation"
)

// GetRequest retrieves a single request by ID.
// Returns ErrNotFound if it does not exist.
func (s *Store) GetRequest(ctx context.Context, id participation.RequestID) (participation.Request, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE id = ?
	`, int64(id))
	return scanRequest(row)
}

// FindLiveRequest returns the non-CANCELED request for the pair, if any.
func (s *Store) FindLiveRequest(ctx context.Context, eventID participation.EventID, requesterID participation.UserID) (participation.Request, bool, error) {
	return findLive(ctx, s.db, eventID, requesterID)
}

func findLive(ctx context.Context, q queryer, eventID participation.EventID, requesterID participation.UserID) (participation.Request, bool, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE event_id = ? AND requester_id = ? AND status <> 'CANCELED'
		LIMIT 1
	`, int64(eventID), int64(requesterID))

	req, err := scanRequest(row)
	if errors.Is(err, ErrNotFound) {
		return participation.Request{}, false, nil
	}
	if err != nil {
		return participation.Request{}, false, fmt.Errorf("find live request: %w", err)
	}
	return req, true, nil
}

// ListByRequester returns all requests owned by requesterID, ordered by id.
// Returns an empty slice (not nil) when there are none.
func (s *Store) ListByRequester(ctx context.Context, requesterID participation.UserID) ([]participation.Request, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE requester_id = ?
		ORDER BY id ASC
	`, int64(requesterID))
	if err != nil {
		return nil, fmt.Errorf("query requests by requester: %w", err)
	}
	return collectRequests(rows)
}

// ListByEvent returns all requests for eventID, ordered by id.
// Returns an empty slice (not nil) when there are none.
func (s *Store) ListByEvent(ctx context.Context, eventID participation.EventID) ([]participation.Request, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+requestColumns+`
		FROM requests
		WHERE event_id = ?
		ORDER BY id ASC
	`, int64(eventID))
	if err != nil {
		return nil, fmt.Errorf("query requests by event: %w", err)
	}
	return collectRequests(rows)
}

// CountConfirmed returns the number of CONFIRMED requests for eventID.
// Outside an event scope the result is only a point-in-time snapshot.
func (s *Store) CountConfirmed(ctx context.Context, eventID participation.EventID) (int, error) {
	return countConfirmed(ctx, s.db, eventID)
}

func countConfirmed(ctx context.Context, q queryer, eventID participation.EventID) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM requests
		WHERE event_id = ? AND status = 'CONFIRMED'
	`, int64(eventID)).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count confirmed: %w", err)
	}
	return n, nil
}

// ConfirmedCounts returns the CONFIRMED count for each event id.
// Every requested id is present in the result; events without confirmed
// requests map to 0.
func (s *Store) ConfirmedCounts(ctx context.Context, eventIDs []participation.EventID) (map[participation.EventID]int, error) {
	ids := lo.Uniq(eventIDs)
	counts := lo.SliceToMap(ids, func(id participation.EventID) (participation.EventID, int) {
		return id, 0
	})
	if len(ids) == 0 {
		return counts, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT event_id, COUNT(*)
		FROM requests
		WHERE status = 'CONFIRMED' AND event_id IN (`+placeholders(len(ids))+`)
		GROUP BY event_id
	`, int64Args(ids)...)
	if err != nil {
		return nil, fmt.Errorf("query confirmed counts: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var eventID int64
		var n int
		if err := rows.Scan(&eventID, &n); err != nil {
			return nil, fmt.Errorf("scan confirmed count: %w", err)
		}
		counts[participation.EventID(eventID)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate confirmed counts: %w", err)
	}
	return counts, nil
}

// placeholders returns "?, ?, ?" for n arguments.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}

// int64Args converts typed ids into driver arguments.
func int64Args[T ~int64](ids []T) []any {
	return lo.Map(ids, func(id T, _ int) any { return int64(id) })
}
