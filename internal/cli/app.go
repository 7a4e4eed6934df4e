package cli

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/roach88/ewm/internal/config"
	"github.com/roach88/ewm/internal/service"
	"github.com/roach88/ewm/internal/store"
)

// app bundles what a command needs to talk to the database.
type app struct {
	cfg       config.Config
	store     *store.Store
	svc       *service.Service
	out       *OutputFormatter
	logger    *slog.Logger
	closeLock func() error
}

// newFormatter builds the formatter for one command invocation, with a fresh
// trace id.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	gen := opts.TraceIDs
	if gen == nil {
		gen = UUIDv7Generator{}
	}
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
		TraceID:   gen.Generate(),
	}
}

// newLogger returns a text logger on the command's stderr tagged with the
// formatter's trace id.
func newLogger(opts *RootOptions, cfg config.Config, out *OutputFormatter) *slog.Logger {
	level := cfg.SlogLevel()
	if opts.Verbose {
		level = slog.LevelDebug
	}
	handler := slog.NewTextHandler(out.GetErrWriter(), &slog.HandlerOptions{Level: level})
	return slog.New(handler).With("trace_id", out.TraceID)
}

// openApp loads configuration, opens the store and builds the service.
// Callers must Close the returned app.
func openApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	out := newFormatter(opts, cmd)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load configuration", err)
	}
	if opts.DB != "" {
		cfg.DBPath = opts.DB
	}
	logger := newLogger(opts, cfg, out)

	locker, closeLock, err := cfg.Locker()
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to configure event lock", err)
	}

	logger.Debug("opening database", "path", cfg.DBPath, "lock_backend", cfg.LockBackend)
	st, err := store.Open(cfg.DBPath, store.WithLocker(locker))
	if err != nil {
		_ = closeLock()
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	return &app{
		cfg:       cfg,
		store:     st,
		svc:       service.New(st, st, st, service.WithLogger(logger)),
		out:       out,
		logger:    logger,
		closeLock: closeLock,
	}, nil
}

// Close releases the store and lock backend.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
	if err := a.closeLock(); err != nil {
		a.logger.Error("error closing lock backend", "error", err)
	}
}
