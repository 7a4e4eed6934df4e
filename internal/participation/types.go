//go:generate go run go.uber.org/mock/mockgen -source=types.go -destination=../mocks/mock_participation.go -package=mocks
package participation

import (
	"context"
	"time"
)

// RequestID identifies a participation request.
type RequestID int64

// EventID identifies an event.
type EventID int64

// UserID identifies a user (requester or initiator).
type UserID int64

// Status is the lifecycle state of a participation request.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusRejected  Status = "REJECTED"
	StatusCanceled  Status = "CANCELED"
)

// ParseStatus converts a stored status string into a Status.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusConfirmed, StatusRejected, StatusCanceled:
		return st, nil
	}
	return "", NewValidationError("unknown request status %q", s)
}

// IsLive reports whether the status still occupies the (event, requester) pair.
func (s Status) IsLive() bool {
	return s != StatusCanceled
}

// EventState is the publication state of an event.
type EventState string

const (
	EventPending   EventState = "PENDING"
	EventPublished EventState = "PUBLISHED"
	EventCanceled  EventState = "CANCELED"
)

// Request is a requester's ask to attend an event.
//
// EventID, RequesterID and CreatedAt never change after creation.
type Request struct {
	ID          RequestID `json:"id" yaml:"id"`
	EventID     EventID   `json:"event" yaml:"event"`
	RequesterID UserID    `json:"requester" yaml:"requester"`
	CreatedAt   time.Time `json:"created" yaml:"created"`
	Status      Status    `json:"status" yaml:"status"`
}

// EventSnapshot is the read-only view of an event that admission needs.
type EventSnapshot struct {
	ID                 EventID
	State              EventState
	ParticipantLimit   int // 0 means unlimited
	ModerationRequired bool
	InitiatorID        UserID
}

// Unlimited reports whether the event accepts any number of participants.
func (e EventSnapshot) Unlimited() bool {
	return e.ParticipantLimit == 0
}

// Disposition is the moderator's verdict for a batch.
type Disposition string

const (
	DispositionApprove Disposition = "APPROVE"
	DispositionReject  Disposition = "REJECT"
)

// ParseDisposition accepts APPROVE/REJECT and the CONFIRMED/REJECTED aliases
// used by the original moderation API.
func ParseDisposition(s string) (Disposition, error) {
	switch s {
	case "APPROVE", "CONFIRMED":
		return DispositionApprove, nil
	case "REJECT", "REJECTED":
		return DispositionReject, nil
	}
	return "", NewValidationError("unknown disposition %q", s)
}

// BatchResult partitions a moderated batch.
// len(Confirmed)+len(Rejected) always equals the batch size.
type BatchResult struct {
	Confirmed []Request `json:"confirmed"`
	Rejected  []Request `json:"rejected"`
}

// EventCatalog is the event-management collaborator.
// Event returns a NotFound error when the event does not exist.
type EventCatalog interface {
	Event(ctx context.Context, id EventID) (EventSnapshot, error)
}

// UserDirectory answers whether a user exists.
type UserDirectory interface {
	UserExists(ctx context.Context, id UserID) (bool, error)
}
