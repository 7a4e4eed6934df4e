package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/ewm/internal/participation"
)

// User is a row of the users table.
type User struct {
	ID    participation.UserID `yaml:"id"`
	Name  string               `yaml:"name"`
	Email string               `yaml:"email"`
}

// Event is a row of the events table.
type Event struct {
	ID                 participation.EventID    `yaml:"id"`
	Title              string                   `yaml:"title"`
	InitiatorID        participation.UserID     `yaml:"initiator"`
	ParticipantLimit   int                      `yaml:"limit"`
	ModerationRequired bool                     `yaml:"moderation"`
	State              participation.EventState `yaml:"state"`
}

// Snapshot returns the admission view of the event.
func (e Event) Snapshot() participation.EventSnapshot {
	return participation.EventSnapshot{
		ID:                 e.ID,
		State:              e.State,
		ParticipantLimit:   e.ParticipantLimit,
		ModerationRequired: e.ModerationRequired,
		InitiatorID:        e.InitiatorID,
	}
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(ctx context.Context, u User) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, email = excluded.email
	`, int64(u.ID), u.Name, u.Email)
	if err != nil {
		return fmt.Errorf("put user: %w", err)
	}
	return nil
}

// UserExists implements participation.UserDirectory.
func (s *Store) UserExists(ctx context.Context, id participation.UserID) (bool, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users WHERE id = ?`, int64(id)).Scan(&n); err != nil {
		return false, fmt.Errorf("user exists: %w", err)
	}
	return n > 0, nil
}

// PutEvent inserts or replaces an event. The initiator must exist.
func (s *Store) PutEvent(ctx context.Context, e Event) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO events (id, title, initiator_id, participant_limit, moderation_required, state)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			title = excluded.title,
			initiator_id = excluded.initiator_id,
			participant_limit = excluded.participant_limit,
			moderation_required = excluded.moderation_required,
			state = excluded.state
	`,
		int64(e.ID),
		e.Title,
		int64(e.InitiatorID),
		e.ParticipantLimit,
		boolToInt(e.ModerationRequired),
		string(e.State),
	)
	if err != nil {
		return fmt.Errorf("put event: %w", err)
	}
	return nil
}

// GetEvent retrieves an event row. Returns ErrNotFound if it does not exist.
func (s *Store) GetEvent(ctx context.Context, id participation.EventID) (Event, error) {
	var (
		e          Event
		eventID    int64
		initiator  int64
		moderation int
		state      string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, initiator_id, participant_limit, moderation_required, state
		FROM events
		WHERE id = ?
	`, int64(id)).Scan(&eventID, &e.Title, &initiator, &e.ParticipantLimit, &moderation, &state)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return e, ErrNotFound
		}
		return e, fmt.Errorf("get event: %w", err)
	}

	e.ID = participation.EventID(eventID)
	e.InitiatorID = participation.UserID(initiator)
	e.ModerationRequired = moderation != 0
	e.State = participation.EventState(state)
	return e, nil
}

// Event implements participation.EventCatalog.
func (s *Store) Event(ctx context.Context, id participation.EventID) (participation.EventSnapshot, error) {
	e, err := s.GetEvent(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return participation.EventSnapshot{}, participation.NewNotFoundError("event with id=%d was not found", id)
		}
		return participation.EventSnapshot{}, err
	}
	return e.Snapshot(), nil
}

var (
	_ participation.EventCatalog  = (*Store)(nil)
	_ participation.UserDirectory = (*Store)(nil)
)
