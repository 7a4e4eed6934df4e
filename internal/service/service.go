package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/ewm/internal/participation"
	"github.com/roach88/ewm/internal/store"
)

// Clock supplies creation timestamps.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

// Service implements the participation request operations.
//
// Thread-safety: all methods are safe for concurrent use. Same-event
// admissions are serialized by the store's event scope.
type Service struct {
	store   *store.Store
	catalog participation.EventCatalog
	users   participation.UserDirectory
	clock   Clock
	logger  *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock used for createdAt. Default: UTC wall clock.
func WithClock(c Clock) Option {
	return func(s *Service) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithLogger sets the structured logger. Default: discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// New creates a Service over the given store and collaborators.
func New(st *store.Store, catalog participation.EventCatalog, users participation.UserDirectory, opts ...Option) *Service {
	s := &Service{
		store:   st,
		catalog: catalog,
		users:   users,
		clock:   systemClock{},
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// requireUser returns NotFound if the user is unknown.
func (s *Service) requireUser(ctx context.Context, id participation.UserID) error {
	ok, err := s.users.UserExists(ctx, id)
	if err != nil {
		return fmt.Errorf("lookup user %d: %w", id, err)
	}
	if !ok {
		return participation.NewNotFoundError("user with id=%d was not found", id)
	}
	return nil
}

// loadEvent reads the event snapshot. Domain errors from the catalog pass
// through untouched.
func (s *Service) loadEvent(ctx context.Context, id participation.EventID) (participation.EventSnapshot, error) {
	ev, err := s.catalog.Event(ctx, id)
	if err != nil {
		if participation.KindOf(err) != "" {
			return ev, err
		}
		return ev, fmt.Errorf("lookup event %d: %w", id, err)
	}
	return ev, nil
}

// ownedEvent loads the event and checks that initiatorID runs it. A foreign
// event is reported exactly like a missing one.
func (s *Service) ownedEvent(ctx context.Context, initiatorID participation.UserID, eventID participation.EventID) (participation.EventSnapshot, error) {
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return ev, err
	}
	if ev.InitiatorID != initiatorID {
		return ev, participation.NewNotFoundError("event with id=%d was not found", eventID)
	}
	return ev, nil
}

func duplicateRequestError(eventID participation.EventID, requesterID participation.UserID) *participation.Error {
	return participation.NewConflictError("request already exists").
		With("event_id", fmt.Sprint(eventID)).
		With("requester_id", fmt.Sprint(requesterID))
}

// CreateRequest registers requesterID for eventID and returns the stored
// request, CONFIRMED or PENDING depending on the event's admission rules.
func (s *Service) CreateRequest(ctx context.Context, requesterID participation.UserID, eventID participation.EventID) (participation.Request, error) {
	if err := s.requireUser(ctx, requesterID); err != nil {
		return participation.Request{}, err
	}
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return participation.Request{}, err
	}
	if ev.InitiatorID == requesterID {
		return participation.Request{}, participation.NewConflictError("the initiator cannot request to participate in their own event").
			With("event_id", fmt.Sprint(eventID))
	}
	if ev.State != participation.EventPublished {
		return participation.Request{}, participation.NewConflictError("cannot participate in an unpublished event").
			With("event_id", fmt.Sprint(eventID)).
			With("state", string(ev.State))
	}

	if _, live, err := s.store.FindLiveRequest(ctx, eventID, requesterID); err != nil {
		return participation.Request{}, fmt.Errorf("create request: %w", err)
	} else if live {
		return participation.Request{}, duplicateRequestError(eventID, requesterID)
	}

	var created participation.Request
	err = s.store.InEventScope(ctx, eventID, func(sc *store.Scope) error {
		if _, live, err := sc.FindLive(ctx, requesterID); err != nil {
			return err
		} else if live {
			return duplicateRequestError(eventID, requesterID)
		}

		confirmed, err := sc.CountConfirmed(ctx)
		if err != nil {
			return err
		}
		status, err := participation.Decide(ev.ParticipantLimit, ev.ModerationRequired, confirmed)
		if err != nil {
			s.logger.Debug("admission refused",
				"event_id", eventID,
				"requester_id", requesterID,
				"limit", ev.ParticipantLimit,
				"confirmed", confirmed,
			)
			return err
		}
		if !status.IsInitial() {
			return fmt.Errorf("admission produced non-initial status %s", status)
		}

		created, err = sc.Insert(ctx, participation.Request{
			EventID:     eventID,
			RequesterID: requesterID,
			CreatedAt:   s.clock.Now(),
			Status:      status,
		})
		if errors.Is(err, store.ErrLiveRequestExists) {
			return duplicateRequestError(eventID, requesterID)
		}
		return err
	})
	if err != nil {
		if participation.KindOf(err) != "" {
			return participation.Request{}, err
		}
		return participation.Request{}, fmt.Errorf("create request: %w", err)
	}

	s.logger.Info("request created",
		"event_id", eventID,
		"request_id", created.ID,
		"requester_id", requesterID,
		"status", created.Status,
	)
	return created, nil
}

// CancelRequest moves the requester's request to CANCELED. Cancelling an
// already CANCELED request succeeds. The freed slot is not handed to anyone.
func (s *Service) CancelRequest(ctx context.Context, requesterID participation.UserID, requestID participation.RequestID) (participation.Request, error) {
	if err := s.requireUser(ctx, requesterID); err != nil {
		return participation.Request{}, err
	}

	req, err := s.store.CancelRequest(ctx, requestID, requesterID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return participation.Request{}, participation.NewNotFoundError("request with id=%d was not found", requestID)
		}
		return participation.Request{}, fmt.Errorf("cancel request %d: %w", requestID, err)
	}

	s.logger.Info("request canceled",
		"event_id", req.EventID,
		"request_id", req.ID,
		"requester_id", requesterID,
	)
	return req, nil
}

// ListByRequester returns every request owned by requesterID, oldest first.
func (s *Service) ListByRequester(ctx context.Context, requesterID participation.UserID) ([]participation.Request, error) {
	if err := s.requireUser(ctx, requesterID); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListByRequester(ctx, requesterID)
	if err != nil {
		return nil, fmt.Errorf("list requests of user %d: %w", requesterID, err)
	}
	return reqs, nil
}

// ListByEvent returns every request of an event the caller initiated.
func (s *Service) ListByEvent(ctx context.Context, initiatorID participation.UserID, eventID participation.EventID) ([]participation.Request, error) {
	if _, err := s.ownedEvent(ctx, initiatorID, eventID); err != nil {
		return nil, err
	}
	reqs, err := s.store.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("list requests of event %d: %w", eventID, err)
	}
	return reqs, nil
}

// BatchUpdate applies one disposition to an ordered batch of PENDING
// requests. Either every request is updated or none is.
//
// With APPROVE, requests are confirmed in the given order until the event is
// full; the rest are rejected. An empty batch is a no-op.
func (s *Service) BatchUpdate(ctx context.Context, initiatorID participation.UserID, eventID participation.EventID, requestIDs []participation.RequestID, d participation.Disposition) (participation.BatchResult, error) {
	if d != participation.DispositionApprove && d != participation.DispositionReject {
		return participation.BatchResult{}, participation.NewValidationError("unknown disposition %q", d)
	}
	ev, err := s.ownedEvent(ctx, initiatorID, eventID)
	if err != nil {
		return participation.BatchResult{}, err
	}
	if len(requestIDs) == 0 {
		return participation.BatchResult{Confirmed: []participation.Request{}, Rejected: []participation.Request{}}, nil
	}

	var result participation.BatchResult
	err = s.store.InEventScope(ctx, eventID, func(sc *store.Scope) error {
		loaded, err := sc.LoadRequests(ctx, requestIDs)
		if err != nil {
			return err
		}
		if err := participation.ValidateBatch(eventID, requestIDs, loaded); err != nil {
			return err
		}

		confirmed, err := sc.CountConfirmed(ctx)
		if err != nil {
			return err
		}
		outcomes := participation.Partition(requestIDs, d, ev.ParticipantLimit, confirmed)
		s.logger.Debug("batch partitioned",
			"event_id", eventID,
			"disposition", d,
			"limit", ev.ParticipantLimit,
			"confirmed", confirmed,
			"size", len(outcomes),
		)

		mutated, res, err := participation.Apply(outcomes, loaded)
		if err != nil {
			return err
		}
		if err := sc.SaveStatuses(ctx, mutated); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		if participation.KindOf(err) != "" {
			return participation.BatchResult{}, err
		}
		return participation.BatchResult{}, fmt.Errorf("batch update event %d: %w", eventID, err)
	}

	s.logger.Info("batch applied",
		"event_id", eventID,
		"disposition", d,
		"confirmed", len(result.Confirmed),
		"rejected", len(result.Rejected),
	)
	return result, nil
}

// ConfirmedCounts returns the number of CONFIRMED requests per event.
// Events without confirmed requests report 0.
func (s *Service) ConfirmedCounts(ctx context.Context, eventIDs []participation.EventID) (map[participation.EventID]int, error) {
	counts, err := s.store.ConfirmedCounts(ctx, eventIDs)
	if err != nil {
		return nil, fmt.Errorf("confirmed counts: %w", err)
	}
	return counts, nil
}

// Availability reports the remaining capacity of an event.
func (s *Service) Availability(ctx context.Context, eventID participation.EventID) (participation.Availability, error) {
	ev, err := s.loadEvent(ctx, eventID)
	if err != nil {
		return participation.Availability{}, err
	}
	confirmed, err := s.store.CountConfirmed(ctx, eventID)
	if err != nil {
		return participation.Availability{}, fmt.Errorf("availability of event %d: %w", eventID, err)
	}
	return participation.AvailabilityOf(ev.ParticipantLimit, confirmed), nil
}
