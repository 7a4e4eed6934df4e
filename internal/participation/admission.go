package participation

import "strconv"

// Decide computes the initial status of a new request.
//
// Precedence:
//  1. limit > 0 and confirmed >= limit: Conflict "participant limit reached"
//  2. limit == 0: CONFIRMED, even when moderation is required
//  3. moderation not required: CONFIRMED
//  4. otherwise PENDING
func Decide(limit int, moderationRequired bool, confirmed int) (Status, error) {
	if limit > 0 && confirmed >= limit {
		return "", NewLimitReachedError(limit, confirmed)
	}
	if limit == 0 {
		return StatusConfirmed, nil
	}
	if !moderationRequired {
		return StatusConfirmed, nil
	}
	return StatusPending, nil
}

// Outcome is the decision for a single request of a batch.
type Outcome struct {
	RequestID RequestID
	Status    Status // CONFIRMED or REJECTED
}

// ValidateBatch checks the batch preconditions against the loaded records.
// Every id must resolve, belong to eventID and still be PENDING. The first
// violation is returned and nothing should be written.
//
// A repeated id resolves to fewer records than ids and is reported like a
// missing one.
func ValidateBatch(eventID EventID, ids []RequestID, loaded map[RequestID]Request) error {
	seen := make(map[RequestID]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return NewNotFoundError("one or more requests were not found").
				With("request_id", formatID(int64(id)))
		}
		seen[id] = struct{}{}
	}

	for _, id := range ids {
		if _, ok := loaded[id]; !ok {
			return NewNotFoundError("one or more requests were not found").
				With("request_id", formatID(int64(id)))
		}
	}
	for _, id := range ids {
		req := loaded[id]
		if req.EventID != eventID {
			return NewConflictError("request does not belong to the event").
				With("request_id", formatID(int64(id)))
		}
		if req.Status != StatusPending {
			return NewConflictError("only pending requests can be updated").
				With("request_id", formatID(int64(id))).
				With("status", string(req.Status))
		}
	}
	return nil
}

// Partition decides every request of a validated batch.
//
// REJECT rejects everything. APPROVE walks the batch in the given order with
// a running counter that starts at confirmed; once the counter reaches a
// positive limit, the remaining requests are rejected. Input order is the
// only tie-break.
func Partition(ids []RequestID, d Disposition, limit, confirmed int) []Outcome {
	outcomes := make([]Outcome, 0, len(ids))
	if d == DispositionReject {
		for _, id := range ids {
			outcomes = append(outcomes, Outcome{RequestID: id, Status: StatusRejected})
		}
		return outcomes
	}

	running := confirmed
	for _, id := range ids {
		if limit > 0 && running >= limit {
			outcomes = append(outcomes, Outcome{RequestID: id, Status: StatusRejected})
			continue
		}
		outcomes = append(outcomes, Outcome{RequestID: id, Status: StatusConfirmed})
		running++
	}
	return outcomes
}

// Apply moves every loaded request to its outcome and splits the result.
// The returned slice holds the mutated records in outcome order, ready to be
// persisted.
func Apply(outcomes []Outcome, loaded map[RequestID]Request) ([]Request, BatchResult, error) {
	res := BatchResult{Confirmed: []Request{}, Rejected: []Request{}}
	mutated := make([]Request, 0, len(outcomes))
	for _, o := range outcomes {
		req, err := Transition(loaded[o.RequestID], o.Status)
		if err != nil {
			return nil, BatchResult{}, err
		}
		mutated = append(mutated, req)
		if req.Status == StatusConfirmed {
			res.Confirmed = append(res.Confirmed, req)
		} else {
			res.Rejected = append(res.Rejected, req)
		}
	}
	return mutated, res, nil
}

// Availability summarizes the remaining capacity of an event.
type Availability struct {
	Limit     int  `json:"limit"`
	Confirmed int  `json:"confirmed"`
	Remaining int  `json:"remaining"`
	Unlimited bool `json:"unlimited"`
}

// Available reports whether a new participant could still be confirmed.
func (a Availability) Available() bool {
	return a.Unlimited || a.Remaining > 0
}

// AvailabilityOf computes the availability for a limit and confirmed count.
func AvailabilityOf(limit, confirmed int) Availability {
	a := Availability{Limit: limit, Confirmed: confirmed, Unlimited: limit == 0}
	if !a.Unlimited && confirmed < limit {
		a.Remaining = limit - confirmed
	}
	return a
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
