package harness

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/ewm/internal/participation"
	"github.com/roach88/ewm/internal/store"
)

// AssertionError is returned when an assertion fails.
type AssertionError struct {
	Type     string // Assertion type for categorization
	Expected string // Human-readable expected outcome
	Actual   string // Human-readable actual outcome
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// assertConfirmedCount checks the CONFIRMED count of an event.
func assertConfirmedCount(ctx context.Context, st *store.Store, a Assertion) error {
	n, err := st.CountConfirmed(ctx, participation.EventID(a.Event))
	if err != nil {
		return fmt.Errorf("count confirmed for event %d: %w", a.Event, err)
	}
	if n != a.Count {
		return &AssertionError{
			Type:     AssertConfirmedCount,
			Expected: fmt.Sprintf("%d confirmed for event %d", a.Count, a.Event),
			Actual:   fmt.Sprintf("%d confirmed", n),
		}
	}
	return nil
}

// assertRequestStatus checks the stored status of a request.
func assertRequestStatus(ctx context.Context, st *store.Store, a Assertion) error {
	req, err := st.GetRequest(ctx, participation.RequestID(a.Request))
	if errors.Is(err, store.ErrNotFound) {
		return &AssertionError{
			Type:     AssertRequestStatus,
			Expected: fmt.Sprintf("request %d with status %s", a.Request, a.Status),
			Actual:   "request not found",
		}
	}
	if err != nil {
		return fmt.Errorf("get request %d: %w", a.Request, err)
	}
	if string(req.Status) != a.Status {
		return &AssertionError{
			Type:     AssertRequestStatus,
			Expected: fmt.Sprintf("request %d with status %s", a.Request, a.Status),
			Actual:   fmt.Sprintf("status %s", req.Status),
		}
	}
	return nil
}

// EvaluateAssertions runs every assertion and returns the failure messages.
func EvaluateAssertions(ctx context.Context, st *store.Store, assertions []Assertion) []string {
	var errs []string
	for i, a := range assertions {
		var err error
		switch a.Type {
		case AssertConfirmedCount:
			err = assertConfirmedCount(ctx, st, a)
		case AssertRequestStatus:
			err = assertRequestStatus(ctx, st, a)
		default:
			err = fmt.Errorf("unknown assertion type %q", a.Type)
		}
		if err != nil {
			errs = append(errs, fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return errs
}
