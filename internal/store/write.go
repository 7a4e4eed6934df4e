package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/roach88/ewm/internal/participation"
)

// CancelRequest moves a request owned by requesterID to CANCELED in a single
// statement and returns the stored record.
//
// Returns ErrNotFound if the request does not exist or belongs to someone
// else. Cancelling an already CANCELED request re-persists CANCELED.
// Concurrent cancels of the same request are serialized by SQLite.
func (s *Store) CancelRequest(ctx context.Context, id participation.RequestID, requesterID participation.UserID) (participation.Request, error) {
	row := s.db.QueryRowContext(ctx, `
		UPDATE requests
		SET status = 'CANCELED'
		WHERE id = ? AND requester_id = ?
		RETURNING `+requestColumns,
		int64(id), int64(requesterID),
	)

	req, err := scanRequest(row)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return req, err
		}
		return req, fmt.Errorf("cancel request: %w", err)
	}
	return req, nil
}
