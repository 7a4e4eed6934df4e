package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// InitResult is the payload of the init command.
type InitResult struct {
	DB string `json:"db"`
}

func (r InitResult) String() string {
	return fmt.Sprintf("Initialized database %s", r.DB)
}

// NewInitCommand creates the init command.
func NewInitCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create or upgrade the database",
		Long: `Create the SQLite database and apply the schema and migrations.

Running init on an existing database is safe.

Exit codes:
  0 - Database ready
  2 - Command error (bad configuration, unwritable path, etc.)

Examples:
  ewm init --db ./ewm.db
  EWM_DB_PATH=./ewm.db ewm init --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(rootOpts, cmd)
		},
	}
	return cmd
}

func runInit(opts *RootOptions, cmd *cobra.Command) error {
	a, err := openApp(opts, cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	a.logger.Info("database initialized", "path", a.cfg.DBPath)
	return a.out.Success(InitResult{DB: a.cfg.DBPath})
}
