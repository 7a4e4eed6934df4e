package cli

import (
	"context"
	"fmt"
	"strconv"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/roach88/ewm/internal/participation"
)

// EventOptions holds flags for the event subcommands.
type EventOptions struct {
	*RootOptions
	User    int64
	Event   int64
	Approve bool
	Reject  bool
}

// NewEventCommand creates the event command group.
func NewEventCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Moderate requests and inspect event capacity",
	}

	cmd.AddCommand(newEventRequestsCommand(rootOpts))
	cmd.AddCommand(newEventModerateCommand(rootOpts))
	cmd.AddCommand(newEventAvailabilityCommand(rootOpts))
	cmd.AddCommand(newEventCountsCommand(rootOpts))

	return cmd
}

func newEventRequestsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "requests",
		Short: "List the requests made for your event",
		Long: `List every participation request of an event owned by the initiator.

Exit codes:
  0 - Listed (possibly empty)
  2 - Command error
  3 - Initiator or event not found, or the event belongs to someone else

Examples:
  ewm event requests --user 1 --event 3`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventRequests(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.User, "user", 0, "initiator id (required)")
	cmd.Flags().Int64Var(&opts.Event, "event", 0, "event id (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

func runEventRequests(opts *EventOptions, cmd *cobra.Command) error {
	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	reqs, err := a.svc.ListByEvent(context.Background(), participation.UserID(opts.User), participation.EventID(opts.Event))
	if err != nil {
		return a.out.Fail("failed to list event requests", err)
	}
	return a.out.Success(requestList(reqs))
}

func newEventModerateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EventOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "moderate <request-id>...",
		Short: "Approve or reject pending requests in one batch",
		Long: `Approve or reject a batch of pending requests of your event.

Approval walks the ids in the given order and confirms them while capacity
remains; the rest of the batch is rejected. The batch is refused as a whole
if any id is unknown, belongs to another event or is not pending.

Exit codes:
  0 - Batch applied
  2 - Command error (bad ids, missing --approve/--reject)
  3 - Initiator, event or request not found (a repeated id counts as missing)
  4 - Refused (request not pending or from another event, limit reached)

Examples:
  ewm event moderate --user 1 --event 3 --approve 10 11 12
  ewm event moderate --user 1 --event 3 --reject 13`,
		Args:          cobra.ArbitraryArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventModerate(opts, args, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.User, "user", 0, "initiator id (required)")
	cmd.Flags().Int64Var(&opts.Event, "event", 0, "event id (required)")
	cmd.Flags().BoolVar(&opts.Approve, "approve", false, "confirm the requests")
	cmd.Flags().BoolVar(&opts.Reject, "reject", false, "reject the requests")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("event")
	cmd.MarkFlagsMutuallyExclusive("approve", "reject")
	cmd.MarkFlagsOneRequired("approve", "reject")

	return cmd
}

func runEventModerate(opts *EventOptions, args []string, cmd *cobra.Command) error {
	ids, err := parseIDs[participation.RequestID](args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid request id", err)
	}
	disposition := participation.DispositionApprove
	if opts.Reject {
		disposition = participation.DispositionReject
	}

	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	res, err := a.svc.BatchUpdate(context.Background(), participation.UserID(opts.User), participation.EventID(opts.Event), ids, disposition)
	if err != nil {
		return a.out.Fail("failed to moderate requests", err)
	}
	return a.out.Success(newBatchView(res))
}

func newEventAvailabilityCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "availability <event-id>...",
		Short: "Show remaining capacity of events",
		Long: `Show the participant limit, confirmed count and remaining slots of each
event. Unlimited events are always available.

Exit codes:
  0 - Shown
  2 - Command error
  3 - Event not found

Examples:
  ewm event availability 3
  ewm event availability 3 4 5 --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventAvailability(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runEventAvailability(opts *RootOptions, args []string, cmd *cobra.Command) error {
	ids, err := parseIDs[participation.EventID](args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid event id", err)
	}

	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	rows := make(availabilityTable, 0, len(ids))
	for _, id := range ids {
		av, err := a.svc.Availability(context.Background(), id)
		if err != nil {
			return a.out.Fail("failed to compute availability", err)
		}
		rows = append(rows, availabilityRow{EventID: id, Availability: av, Available: av.Available()})
	}
	return a.out.Success(rows)
}

func newEventCountsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "counts <event-id>...",
		Short: "Show confirmed participant counts",
		Long: `Show how many confirmed participants each event has. Unknown events and
events without confirmed requests report 0.

Examples:
  ewm event counts 3 4 5`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventCounts(rootOpts, args, cmd)
		},
	}
	return cmd
}

func runEventCounts(opts *RootOptions, args []string, cmd *cobra.Command) error {
	ids, err := parseIDs[participation.EventID](args)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid event id", err)
	}

	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	counts, err := a.svc.ConfirmedCounts(context.Background(), ids)
	if err != nil {
		return a.out.Fail("failed to count confirmed requests", err)
	}
	rows := lo.Map(lo.Uniq(ids), func(id participation.EventID, _ int) countRow {
		return countRow{EventID: id, Confirmed: counts[id]}
	})
	return a.out.Success(countTable(rows))
}

// parseIDs converts positional arguments into ids, keeping their order.
func parseIDs[T ~int64](args []string) ([]T, error) {
	ids := make([]T, 0, len(args))
	for _, arg := range args {
		n, err := strconv.ParseInt(arg, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%q is not an id", arg)
		}
		ids = append(ids, T(n))
	}
	return ids, nil
}
