package participation

// IsInitial reports whether a request may be created in this status.
// Creation never starts in REJECTED or CANCELED.
func (s Status) IsInitial() bool {
	return s == StatusPending || s == StatusConfirmed
}

// CanTransition reports whether a request may move from s to next.
//
//	PENDING -> CONFIRMED   batch approve
//	PENDING -> REJECTED    batch reject, or overflow during approve
//	any     -> CANCELED    owner cancel
//
// Cancel is allowed from every state, CANCELED included, so a repeated
// cancel simply re-persists CANCELED.
func (s Status) CanTransition(next Status) bool {
	if next == StatusCanceled {
		return true
	}
	if s != StatusPending {
		return false
	}
	return next == StatusConfirmed || next == StatusRejected
}

// Transition returns req moved to next, or a Conflict error when the state
// machine has no such edge.
func Transition(req Request, next Status) (Request, error) {
	if !req.Status.CanTransition(next) {
		return req, NewConflictError("invalid status transition %s -> %s", req.Status, next).
			With("request_id", formatID(int64(req.ID)))
	}
	req.Status = next
	return req, nil
}
