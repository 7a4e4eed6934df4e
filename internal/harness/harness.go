package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/lo"

	"github.com/roach88/ewm/internal/participation"
	"github.com/roach88/ewm/internal/service"
	"github.com/roach88/ewm/internal/store"
	"github.com/roach88/ewm/internal/testutil"
)

// Harness executes scenario steps against a service.
type Harness struct {
	store   *store.Store
	service *service.Service
	seq     int64
}

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes service logs of the run to l. Default: discarded.
func WithLogger(l *slog.Logger) Option {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory database for isolation.
//
// Execution flow:
//  1. Create fresh in-memory database and apply the seed
//  2. Execute steps in order, checking expect clauses
//  3. Evaluate assertions against the final state
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	ctx := context.Background()
	if err := scenario.Seed.Apply(ctx, st); err != nil {
		return nil, fmt.Errorf("failed to apply seed: %w", err)
	}

	h := &Harness{
		store: st,
		service: service.New(st, st, st,
			service.WithClock(testutil.NewStepClock(time.Time{}, time.Second)),
			service.WithLogger(cfg.logger),
		),
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		event, err := h.executeStep(ctx, step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		result.Trace = append(result.Trace, event)
		for _, msg := range checkExpect(step.Expect, event) {
			result.AddError(fmt.Sprintf("steps[%d] %s: %s", i, step.Op, msg))
		}
	}

	for _, msg := range EvaluateAssertions(ctx, st, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// executeStep runs one step and records it. Domain errors become the
// event's outcome; any other error aborts the run.
func (h *Harness) executeStep(ctx context.Context, step Step) (TraceEvent, error) {
	h.seq++
	event := TraceEvent{Seq: h.seq, Op: step.Op, Args: stepArgs(step), Outcome: OutcomeOK}

	var (
		result map[string]any
		err    error
	)
	switch step.Op {
	case OpCreate:
		var req participation.Request
		req, err = h.service.CreateRequest(ctx, participation.UserID(step.Requester), participation.EventID(step.Event))
		result = requestResult(req)
	case OpCancel:
		var req participation.Request
		req, err = h.service.CancelRequest(ctx, participation.UserID(step.Requester), participation.RequestID(step.Request))
		result = requestResult(req)
	case OpModerate:
		var (
			res participation.BatchResult
			d   participation.Disposition
		)
		ids := lo.Map(step.Requests, func(id int64, _ int) participation.RequestID { return participation.RequestID(id) })
		if d, err = participation.ParseDisposition(step.Disposition); err == nil {
			res, err = h.service.BatchUpdate(ctx,
				participation.UserID(step.Initiator),
				participation.EventID(step.Event),
				ids,
				d,
			)
		}
		result = map[string]any{
			"confirmed": requestIDs(res.Confirmed),
			"rejected":  requestIDs(res.Rejected),
		}
	case OpListRequester:
		var reqs []participation.Request
		reqs, err = h.service.ListByRequester(ctx, participation.UserID(step.Requester))
		result = map[string]any{"ids": requestIDs(reqs)}
	case OpListEvent:
		var reqs []participation.Request
		reqs, err = h.service.ListByEvent(ctx, participation.UserID(step.Initiator), participation.EventID(step.Event))
		result = map[string]any{"ids": requestIDs(reqs)}
	case OpAvailability:
		var a participation.Availability
		a, err = h.service.Availability(ctx, participation.EventID(step.Event))
		result = map[string]any{
			"limit":     a.Limit,
			"confirmed": a.Confirmed,
			"remaining": a.Remaining,
			"unlimited": a.Unlimited,
		}
	default:
		return event, fmt.Errorf("unknown op %q", step.Op)
	}

	if err != nil {
		kind := participation.KindOf(err)
		if kind == "" {
			return event, err
		}
		event.Outcome = string(kind)
		event.Result = map[string]any{"message": domainMessage(err)}
		return event, nil
	}
	event.Result = result
	return event, nil
}

func stepArgs(step Step) map[string]any {
	args := map[string]any{}
	for name, v := range map[string]int64{
		"requester": step.Requester,
		"initiator": step.Initiator,
		"event":     step.Event,
		"request":   step.Request,
	} {
		if v != 0 {
			args[name] = v
		}
	}
	if step.Op == OpModerate {
		args["requests"] = append([]int64{}, step.Requests...)
		args["disposition"] = step.Disposition
	}
	return args
}

func requestResult(req participation.Request) map[string]any {
	return map[string]any{"id": int64(req.ID), "status": string(req.Status)}
}

func requestIDs(reqs []participation.Request) []int64 {
	return lo.Map(reqs, func(r participation.Request, _ int) int64 { return int64(r.ID) })
}

func domainMessage(err error) string {
	var de *participation.Error
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}

// checkExpect compares a recorded event with the step's expectation.
func checkExpect(exp *Expect, event TraceEvent) []string {
	if exp == nil {
		return nil
	}
	var errs []string

	wantOutcome := OutcomeOK
	if exp.Error != "" {
		wantOutcome = exp.Error
	}
	if event.Outcome != wantOutcome {
		return append(errs, fmt.Sprintf("outcome = %s, want %s (%v)", event.Outcome, wantOutcome, event.Result["message"]))
	}
	if exp.Error != "" {
		return nil
	}

	if exp.Status != "" && event.Result["status"] != exp.Status {
		errs = append(errs, fmt.Sprintf("status = %v, want %s", event.Result["status"], exp.Status))
	}
	if exp.Confirmed != nil && !slices.Equal(asInt64s(event.Result["confirmed"]), exp.Confirmed) {
		errs = append(errs, fmt.Sprintf("confirmed = %v, want %v", event.Result["confirmed"], exp.Confirmed))
	}
	if exp.Rejected != nil && !slices.Equal(asInt64s(event.Result["rejected"]), exp.Rejected) {
		errs = append(errs, fmt.Sprintf("rejected = %v, want %v", event.Result["rejected"], exp.Rejected))
	}
	if exp.Count != nil {
		if got := len(asInt64s(event.Result["ids"])); got != *exp.Count {
			errs = append(errs, fmt.Sprintf("count = %d, want %d", got, *exp.Count))
		}
	}
	if exp.Remaining != nil && event.Result["remaining"] != *exp.Remaining {
		errs = append(errs, fmt.Sprintf("remaining = %v, want %d", event.Result["remaining"], *exp.Remaining))
	}
	return errs
}

func asInt64s(v any) []int64 {
	ids, _ := v.([]int64)
	return ids
}
