package service

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/roach88/ewm/internal/mocks"
	"github.com/roach88/ewm/internal/participation"
	"github.com/roach88/ewm/internal/store"
	"github.com/roach88/ewm/internal/testutil"
)

const (
	initiator participation.UserID = 1
	stranger  participation.UserID = 2
)

type fixture struct {
	st    *store.Store
	svc   *Service
	clock *testutil.StepClock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := testutil.NewStepClock(time.Time{}, time.Second)
	f := &fixture{st: st, clock: clock, svc: New(st, st, st, WithClock(clock))}
	f.users(t, initiator, stranger)
	return f
}

func (f *fixture) users(t *testing.T, ids ...participation.UserID) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, f.st.PutUser(context.Background(), store.User{ID: id, Name: "user"}))
	}
}

func (f *fixture) event(t *testing.T, id participation.EventID, limit int, moderation bool, state participation.EventState) {
	t.Helper()
	require.NoError(t, f.st.PutEvent(context.Background(), store.Event{
		ID:                 id,
		Title:              "event",
		InitiatorID:        initiator,
		ParticipantLimit:   limit,
		ModerationRequired: moderation,
		State:              state,
	}))
}

// requesters seeds n users starting at id 100 and returns their ids.
func (f *fixture) requesters(t *testing.T, n int) []participation.UserID {
	t.Helper()
	ids := make([]participation.UserID, n)
	for i := range ids {
		ids[i] = participation.UserID(100 + i)
	}
	f.users(t, ids...)
	return ids
}

func (f *fixture) create(t *testing.T, requester participation.UserID, eventID participation.EventID) participation.Request {
	t.Helper()
	req, err := f.svc.CreateRequest(context.Background(), requester, eventID)
	require.NoError(t, err)
	return req
}

func ids(reqs []participation.Request) []participation.RequestID {
	out := make([]participation.RequestID, len(reqs))
	for i, r := range reqs {
		out[i] = r.ID
	}
	return out
}

// Scenario: limit 0 bypasses moderation.
func TestCreateRequest_UnlimitedBypassesModeration(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 0, true, participation.EventPublished)
	r := f.requesters(t, 1)[0]

	req := f.create(t, r, 1)
	assert.Equal(t, participation.StatusConfirmed, req.Status)
	assert.Equal(t, participation.EventID(1), req.EventID)
	assert.Equal(t, r, req.RequesterID)
	assert.Equal(t, testutil.DefaultEpoch, req.CreatedAt)
	assert.NotZero(t, req.ID)
}

func TestCreateRequest_ModerationLeavesPending(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 3, true, participation.EventPublished)
	r := f.requesters(t, 1)[0]

	req := f.create(t, r, 1)
	assert.Equal(t, participation.StatusPending, req.Status)
}

// Scenario: a full event refuses new requests.
func TestCreateRequest_LimitReached(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 5, false, participation.EventPublished)
	rs := f.requesters(t, 6)
	for _, r := range rs[:5] {
		f.create(t, r, 1)
	}

	f.event(t, 1, 5, true, participation.EventPublished)

	_, err := f.svc.CreateRequest(context.Background(), rs[5], 1)
	require.Error(t, err)
	assert.True(t, participation.IsConflict(err))
	assert.Contains(t, err.Error(), "participant limit reached")

	all, err := f.st.ListByEvent(context.Background(), 1)
	require.NoError(t, err)
	assert.Len(t, all, 5)
}

// Scenario: the initiator cannot join their own event.
func TestCreateRequest_InitiatorRefused(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 0, false, participation.EventPublished)

	_, err := f.svc.CreateRequest(context.Background(), initiator, 1)
	assert.True(t, participation.IsConflict(err))
}

// Scenario: unpublished events refuse requests.
func TestCreateRequest_UnpublishedRefused(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 0, false, participation.EventPending)
	f.event(t, 2, 0, false, participation.EventCanceled)
	r := f.requesters(t, 1)[0]

	for _, eventID := range []participation.EventID{1, 2} {
		_, err := f.svc.CreateRequest(context.Background(), r, eventID)
		assert.True(t, participation.IsConflict(err), "event %d: %v", eventID, err)
	}
}

func TestCreateRequest_UnknownUserOrEvent(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 0, false, participation.EventPublished)
	r := f.requesters(t, 1)[0]

	_, err := f.svc.CreateRequest(context.Background(), 999, 1)
	assert.True(t, participation.IsNotFound(err))

	_, err = f.svc.CreateRequest(context.Background(), r, 999)
	assert.True(t, participation.IsNotFound(err))
}

func TestCreateRequest_DuplicateLiveRequest(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 0, true, participation.EventPublished)
	r := f.requesters(t, 1)[0]

	first := f.create(t, r, 1)

	_, err := f.svc.CreateRequest(context.Background(), r, 1)
	require.Error(t, err)
	assert.True(t, participation.IsConflict(err))

	_, err = f.svc.CancelRequest(context.Background(), r, first.ID)
	require.NoError(t, err)

	second := f.create(t, r, 1)
	assert.NotEqual(t, first.ID, second.ID)
}

// Property: N concurrent creates against capacity L never confirm more
// than L and confirm exactly min(N, L).
func TestCreateRequest_ConcurrentNeverExceedsLimit(t *testing.T) {
	tests := []struct {
		name     string
		n, limit int
	}{
		{"oversubscribed", 25, 5},
		{"undersubscribed", 4, 10},
		{"exact", 6, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.event(t, 1, tt.limit, false, participation.EventPublished)
			rs := f.requesters(t, tt.n)

			var (
				wg        sync.WaitGroup
				mu        sync.Mutex
				confirmed int
				conflicts int
			)
			for _, r := range rs {
				wg.Add(1)
				go func(r participation.UserID) {
					defer wg.Done()
					req, err := f.svc.CreateRequest(context.Background(), r, 1)
					mu.Lock()
					defer mu.Unlock()
					switch {
					case err == nil && req.Status == participation.StatusConfirmed:
						confirmed++
					case participation.IsConflict(err):
						conflicts++
					default:
						t.Errorf("unexpected outcome: %+v, %v", req, err)
					}
				}(r)
			}
			wg.Wait()

			want := min(tt.n, tt.limit)
			assert.Equal(t, want, confirmed)
			assert.Equal(t, tt.n-want, conflicts)

			n, err := f.st.CountConfirmed(context.Background(), 1)
			require.NoError(t, err)
			assert.Equal(t, want, n)
		})
	}
}

// Scenario: canceling frees a slot that nobody inherits.
func TestCancelRequest_FreesSlotWithoutBackfill(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 1, true, participation.EventPublished)
	rs := f.requesters(t, 2)
	a := f.create(t, rs[0], 1)
	b := f.create(t, rs[1], 1)

	res, err := f.svc.BatchUpdate(context.Background(), initiator, 1, []participation.RequestID{a.ID}, participation.DispositionApprove)
	require.NoError(t, err)
	require.Len(t, res.Confirmed, 1)

	canceled, err := f.svc.CancelRequest(context.Background(), rs[0], a.ID)
	require.NoError(t, err)
	assert.Equal(t, participation.StatusCanceled, canceled.Status)

	counts, err := f.svc.ConfirmedCounts(context.Background(), []participation.EventID{1})
	require.NoError(t, err)
	assert.Equal(t, 0, counts[1])

	still, err := f.st.GetRequest(context.Background(), b.ID)
	require.NoError(t, err)
	assert.Equal(t, participation.StatusPending, still.Status)

	again, err := f.svc.CancelRequest(context.Background(), rs[0], a.ID)
	require.NoError(t, err)
	assert.Equal(t, participation.StatusCanceled, again.Status)
}

func TestCancelRequest_NotOwned(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 0, false, participation.EventPublished)
	rs := f.requesters(t, 2)
	a := f.create(t, rs[0], 1)

	_, err := f.svc.CancelRequest(context.Background(), rs[1], a.ID)
	assert.True(t, participation.IsNotFound(err))

	_, err = f.svc.CancelRequest(context.Background(), rs[0], 999)
	assert.True(t, participation.IsNotFound(err))

	_, err = f.svc.CancelRequest(context.Background(), 999, a.ID)
	assert.True(t, participation.IsNotFound(err))
}

func TestListByRequester(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 0, false, participation.EventPublished)
	f.event(t, 2, 0, true, participation.EventPublished)
	r := f.requesters(t, 1)[0]
	a := f.create(t, r, 1)
	b := f.create(t, r, 2)

	got, err := f.svc.ListByRequester(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, []participation.Request{a, b}, got)

	_, err = f.svc.ListByRequester(context.Background(), 999)
	assert.True(t, participation.IsNotFound(err))

	empty, err := f.svc.ListByRequester(context.Background(), stranger)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestListByEvent_OnlyInitiator(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 0, false, participation.EventPublished)
	rs := f.requesters(t, 2)
	a := f.create(t, rs[0], 1)
	b := f.create(t, rs[1], 1)

	got, err := f.svc.ListByEvent(context.Background(), initiator, 1)
	require.NoError(t, err)
	assert.Equal(t, []participation.Request{a, b}, got)

	_, err = f.svc.ListByEvent(context.Background(), stranger, 1)
	assert.True(t, participation.IsNotFound(err))

	_, err = f.svc.ListByEvent(context.Background(), initiator, 999)
	assert.True(t, participation.IsNotFound(err))
}

// Scenario: approve overflow is rejected in caller order.
func TestBatchUpdate_ApproveOverflow(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 2, true, participation.EventPublished)
	rs := f.requesters(t, 4)

	// One confirmed participant before moderation starts.
	first := f.create(t, rs[0], 1)
	_, err := f.svc.BatchUpdate(context.Background(), initiator, 1, []participation.RequestID{first.ID}, participation.DispositionApprove)
	require.NoError(t, err)

	p1 := f.create(t, rs[1], 1)
	p2 := f.create(t, rs[2], 1)
	p3 := f.create(t, rs[3], 1)

	batch := []participation.RequestID{p1.ID, p2.ID, p3.ID}
	res, err := f.svc.BatchUpdate(context.Background(), initiator, 1, batch, participation.DispositionApprove)
	require.NoError(t, err)

	assert.Equal(t, []participation.RequestID{p1.ID}, ids(res.Confirmed))
	assert.Equal(t, []participation.RequestID{p2.ID, p3.ID}, ids(res.Rejected))
	assert.Len(t, append(res.Confirmed, res.Rejected...), len(batch))

	n, err := f.st.CountConfirmed(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBatchUpdate_CallerOrderDecides(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 1, true, participation.EventPublished)
	rs := f.requesters(t, 2)
	a := f.create(t, rs[0], 1)
	b := f.create(t, rs[1], 1)

	res, err := f.svc.BatchUpdate(context.Background(), initiator, 1, []participation.RequestID{b.ID, a.ID}, participation.DispositionApprove)
	require.NoError(t, err)
	assert.Equal(t, []participation.RequestID{b.ID}, ids(res.Confirmed))
	assert.Equal(t, []participation.RequestID{a.ID}, ids(res.Rejected))
}

func TestBatchUpdate_Reject(t *testing.T) {
	f := newFixture(t)
	f.event(t, 2, 10, true, participation.EventPublished)
	rs := f.requesters(t, 2)
	a := f.create(t, rs[0], 2)
	b := f.create(t, rs[1], 2)

	res, err := f.svc.BatchUpdate(context.Background(), initiator, 2, []participation.RequestID{a.ID, b.ID}, participation.DispositionReject)
	require.NoError(t, err)
	assert.Empty(t, res.Confirmed)
	assert.Equal(t, []participation.RequestID{a.ID, b.ID}, ids(res.Rejected))
	for _, r := range res.Rejected {
		assert.Equal(t, participation.StatusRejected, r.Status)
	}
}

func TestBatchUpdate_EmptyIsNoop(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 1, true, participation.EventPublished)

	res, err := f.svc.BatchUpdate(context.Background(), initiator, 1, nil, participation.DispositionApprove)
	require.NoError(t, err)
	assert.NotNil(t, res.Confirmed)
	assert.NotNil(t, res.Rejected)
	assert.Empty(t, res.Confirmed)
	assert.Empty(t, res.Rejected)
}

func TestBatchUpdate_AllOrNothing(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 10, true, participation.EventPublished)
	f.event(t, 2, 10, true, participation.EventPublished)
	rs := f.requesters(t, 3)
	a := f.create(t, rs[0], 1)
	b := f.create(t, rs[1], 1)
	foreign := f.create(t, rs[2], 2)

	// b becomes non-pending.
	_, err := f.svc.CancelRequest(context.Background(), rs[1], b.ID)
	require.NoError(t, err)

	tests := []struct {
		name  string
		batch []participation.RequestID
		check func(error) bool
	}{
		{"missing", []participation.RequestID{a.ID, 999}, participation.IsNotFound},
		{"foreign event", []participation.RequestID{a.ID, foreign.ID}, participation.IsConflict},
		{"not pending", []participation.RequestID{a.ID, b.ID}, participation.IsConflict},
		{"duplicate", []participation.RequestID{a.ID, a.ID}, participation.IsNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.BatchUpdate(context.Background(), initiator, 1, tt.batch, participation.DispositionApprove)
			require.Error(t, err)
			assert.True(t, tt.check(err), "unexpected error %v", err)
			assert.Empty(t, res.Confirmed)
			assert.Empty(t, res.Rejected)

			got, err := f.st.GetRequest(context.Background(), a.ID)
			require.NoError(t, err)
			assert.Equal(t, participation.StatusPending, got.Status)
		})
	}
}

func TestBatchUpdate_Authorization(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 10, true, participation.EventPublished)
	r := f.requesters(t, 1)[0]
	a := f.create(t, r, 1)

	_, err := f.svc.BatchUpdate(context.Background(), stranger, 1, []participation.RequestID{a.ID}, participation.DispositionApprove)
	assert.True(t, participation.IsNotFound(err))

	_, err = f.svc.BatchUpdate(context.Background(), initiator, 1, []participation.RequestID{a.ID}, participation.Disposition("MAYBE"))
	assert.True(t, participation.IsValidation(err))
}

func TestBatchUpdate_ConcurrentWithCreates(t *testing.T) {
	f := newFixture(t)
	const limit = 4
	f.event(t, 1, limit, true, participation.EventPublished)
	rs := f.requesters(t, 12)

	pending := make([]participation.RequestID, 0, 8)
	for _, r := range rs[:8] {
		pending = append(pending, f.create(t, r, 1).ID)
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func(batch []participation.RequestID) {
			defer wg.Done()
			res, err := f.svc.BatchUpdate(context.Background(), initiator, 1, batch, participation.DispositionApprove)
			if assert.NoError(t, err) {
				assert.Len(t, append(res.Confirmed, res.Rejected...), len(batch))
			}
		}(pending[i*2 : i*2+2])
	}
	for _, r := range rs[8:] {
		wg.Add(1)
		go func(r participation.UserID) {
			defer wg.Done()
			_, err := f.svc.CreateRequest(context.Background(), r, 1)
			if err != nil {
				assert.True(t, participation.IsConflict(err), "unexpected error %v", err)
			}
		}(r)
	}
	wg.Wait()

	n, err := f.st.CountConfirmed(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, limit, n)
}

func TestAvailability(t *testing.T) {
	f := newFixture(t)
	f.event(t, 1, 2, false, participation.EventPublished)
	f.event(t, 2, 0, false, participation.EventPublished)
	rs := f.requesters(t, 2)

	f.create(t, rs[0], 1)
	a, err := f.svc.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, participation.Availability{Limit: 2, Confirmed: 1, Remaining: 1}, a)
	assert.True(t, a.Available())

	f.create(t, rs[1], 1)
	a, err = f.svc.Availability(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, a.Available())

	u, err := f.svc.Availability(context.Background(), 2)
	require.NoError(t, err)
	assert.True(t, u.Unlimited)
	assert.True(t, u.Available())

	_, err = f.svc.Availability(context.Background(), 999)
	assert.True(t, participation.IsNotFound(err))
}

// Collaborator failures, exercised through gomock.

func newMockedService(t *testing.T) (*Service, *mocks.MockEventCatalog, *mocks.MockUserDirectory) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	ctrl := gomock.NewController(t)
	catalog := mocks.NewMockEventCatalog(ctrl)
	users := mocks.NewMockUserDirectory(ctrl)
	return New(st, catalog, users), catalog, users
}

func TestCreateRequest_UserDirectoryFailure(t *testing.T) {
	svc, _, users := newMockedService(t)
	boom := errors.New("directory offline")
	users.EXPECT().UserExists(gomock.Any(), participation.UserID(7)).Return(false, boom)

	_, err := svc.CreateRequest(context.Background(), 7, 1)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, participation.ErrorKind(""), participation.KindOf(err))
}

func TestCreateRequest_CatalogFailure(t *testing.T) {
	svc, catalog, users := newMockedService(t)
	boom := errors.New("catalog offline")
	users.EXPECT().UserExists(gomock.Any(), participation.UserID(7)).Return(true, nil)
	catalog.EXPECT().Event(gomock.Any(), participation.EventID(1)).Return(participation.EventSnapshot{}, boom)

	_, err := svc.CreateRequest(context.Background(), 7, 1)
	require.ErrorIs(t, err, boom)
}

func TestCreateRequest_CatalogNotFoundPassesThrough(t *testing.T) {
	svc, catalog, users := newMockedService(t)
	users.EXPECT().UserExists(gomock.Any(), gomock.Any()).Return(true, nil)
	catalog.EXPECT().Event(gomock.Any(), participation.EventID(1)).
		Return(participation.EventSnapshot{}, participation.NewNotFoundError("event with id=1 was not found"))

	_, err := svc.CreateRequest(context.Background(), 7, 1)
	assert.True(t, participation.IsNotFound(err))
	assert.Equal(t, "NOT_FOUND: event with id=1 was not found", err.Error())
}

func TestCreateRequest_CheckOrder(t *testing.T) {
	svc, catalog, users := newMockedService(t)

	// Initiator check precedes the published check.
	users.EXPECT().UserExists(gomock.Any(), participation.UserID(5)).Return(true, nil)
	catalog.EXPECT().Event(gomock.Any(), participation.EventID(1)).Return(participation.EventSnapshot{
		ID: 1, State: participation.EventPending, InitiatorID: 5,
	}, nil)

	_, err := svc.CreateRequest(context.Background(), 5, 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "initiator")
}

func TestBatchUpdate_UnknownDispositionSkipsCatalog(t *testing.T) {
	svc, _, _ := newMockedService(t)

	_, err := svc.BatchUpdate(context.Background(), initiator, 1, []participation.RequestID{1}, participation.Disposition("ALL"))
	assert.True(t, participation.IsValidation(err))
}
