package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ewm/internal/harness"
)

// SeedResult is the payload of the seed command.
type SeedResult struct {
	Users  int `json:"users"`
	Events int `json:"events"`
}

func (r SeedResult) String() string {
	return fmt.Sprintf("Seeded %d users and %d events", r.Users, r.Events)
}

// NewSeedCommand creates the seed command.
func NewSeedCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed <file.yaml>",
		Short: "Load users and events from a YAML file",
		Long: `Load users and events into the database.

The file lists users (id, name, email) and events (id, title, initiator,
limit, moderation, state). Existing rows with the same id are replaced.

Exit codes:
  0 - Seed applied
  2 - Command error (unreadable or invalid seed file, etc.)

Examples:
  ewm seed ./seeds/basic.yaml --db ./ewm.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runSeed(opts *RootOptions, path string, cmd *cobra.Command) error {
	seed, err := harness.LoadSeed(path)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load seed", err)
	}

	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := seed.Apply(context.Background(), a.store); err != nil {
		return WrapExitError(ExitCommandError, "failed to apply seed", err)
	}

	a.logger.Info("seed applied", "file", path, "users", len(seed.Users), "events", len(seed.Events))
	return a.out.Success(SeedResult{Users: len(seed.Users), Events: len(seed.Events)})
}
