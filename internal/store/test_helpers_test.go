package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/roach88/ewm/internal/participation"
)

// createTestStore creates a new store in a temp directory for testing.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// openEvent returns a published event row.
func openEvent(id participation.EventID, initiator participation.UserID, limit int, moderation bool) Event {
	return Event{
		ID:                 id,
		Title:              "event",
		InitiatorID:        initiator,
		ParticipantLimit:   limit,
		ModerationRequired: moderation,
		State:              participation.EventPublished,
	}
}

// seedUser inserts users with the given ids.
func seedUser(t *testing.T, s *Store, ids ...participation.UserID) {
	t.Helper()
	for _, id := range ids {
		if err := s.PutUser(context.Background(), User{ID: id, Name: "user"}); err != nil {
			t.Fatalf("PutUser(%d) failed: %v", id, err)
		}
	}
}

// seedEvent inserts the event and its initiator.
func seedEvent(t *testing.T, s *Store, e Event) {
	t.Helper()
	seedUser(t, s, e.InitiatorID)
	if err := s.PutEvent(context.Background(), e); err != nil {
		t.Fatalf("PutEvent(%d) failed: %v", e.ID, err)
	}
}

// insertRequest stores a request through an event scope.
func insertRequest(t *testing.T, s *Store, eventID participation.EventID, requester participation.UserID, status participation.Status) participation.Request {
	t.Helper()
	var out participation.Request
	err := s.InEventScope(context.Background(), eventID, func(sc *Scope) error {
		var err error
		out, err = sc.Insert(context.Background(), participation.Request{
			EventID:     eventID,
			RequesterID: requester,
			CreatedAt:   time.Date(2026, 1, 2, 3, 4, 5, 6, time.UTC),
			Status:      status,
		})
		return err
	})
	if err != nil {
		t.Fatalf("insert request failed: %v", err)
	}
	return out
}
