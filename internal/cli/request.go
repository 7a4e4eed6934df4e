package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/roach88/ewm/internal/participation"
)

// RequestOptions holds flags for the request subcommands.
type RequestOptions struct {
	*RootOptions
	User    int64
	Event   int64
	Request int64
}

// NewRequestCommand creates the request command group.
func NewRequestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "request",
		Short: "Create, cancel and list your participation requests",
	}

	cmd.AddCommand(newRequestCreateCommand(rootOpts))
	cmd.AddCommand(newRequestCancelCommand(rootOpts))
	cmd.AddCommand(newRequestListCommand(rootOpts))

	return cmd
}

func newRequestCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Ask to participate in an event",
		Long: `Create a participation request for a published event.

The request is confirmed immediately when the event is unlimited or does not
require moderation, and stays pending otherwise.

Exit codes:
  0 - Request created
  2 - Command error
  3 - User or event not found
  4 - Refused (own event, unpublished, duplicate, limit reached)

Examples:
  ewm request create --user 7 --event 3
  ewm request create --user 7 --event 3 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequestCreate(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.User, "user", 0, "requester id (required)")
	cmd.Flags().Int64Var(&opts.Event, "event", 0, "event id (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("event")

	return cmd
}

func runRequestCreate(opts *RequestOptions, cmd *cobra.Command) error {
	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	req, err := a.svc.CreateRequest(context.Background(), participation.UserID(opts.User), participation.EventID(opts.Event))
	if err != nil {
		return a.out.Fail("failed to create request", err)
	}
	return a.out.Success(requestPayload(opts.Format, req))
}

func newRequestCancelCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Withdraw one of your requests",
		Long: `Cancel a participation request owned by the user.

A confirmed participant who cancels frees a slot, but pending requests are
not promoted automatically.

Exit codes:
  0 - Request canceled
  2 - Command error
  3 - User not found, or the request is missing or not owned by the user

Examples:
  ewm request cancel --user 7 --request 12`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequestCancel(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.User, "user", 0, "requester id (required)")
	cmd.Flags().Int64Var(&opts.Request, "request", 0, "request id (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("request")

	return cmd
}

func runRequestCancel(opts *RequestOptions, cmd *cobra.Command) error {
	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	req, err := a.svc.CancelRequest(context.Background(), participation.UserID(opts.User), participation.RequestID(opts.Request))
	if err != nil {
		return a.out.Fail("failed to cancel request", err)
	}
	return a.out.Success(requestPayload(opts.Format, req))
}

func newRequestListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RequestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List every request made by a user",
		Long: `List a user's participation requests in every status, oldest first.

Exit codes:
  0 - Listed (possibly empty)
  2 - Command error
  3 - User not found

Examples:
  ewm request list --user 7
  ewm request list --user 7 --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequestList(opts, cmd)
		},
	}

	cmd.Flags().Int64Var(&opts.User, "user", 0, "requester id (required)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func runRequestList(opts *RequestOptions, cmd *cobra.Command) error {
	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	reqs, err := a.svc.ListByRequester(context.Background(), participation.UserID(opts.User))
	if err != nil {
		return a.out.Fail("failed to list requests", err)
	}
	return a.out.Success(requestList(reqs))
}

// requestPayload renders a single request as a one-row table in text mode.
func requestPayload(format string, req participation.Request) any {
	if format == "json" {
		return req
	}
	return requestTable{req}
}

// requestList never encodes as JSON null.
func requestList(reqs []participation.Request) requestTable {
	if reqs == nil {
		return requestTable{}
	}
	return requestTable(reqs)
}
