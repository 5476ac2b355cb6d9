// Package cli implements the relgraph command line.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"relgraph/internal/config"
	"relgraph/internal/logging"
	"relgraph/internal/repository/sqlite"
	"relgraph/internal/service"
	"relgraph/internal/store"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0
	ExitFailure      = 1 // Operation failed (storage, commit, fetch)
	ExitCommandError = 2 // Bad flags, arguments or config
)

// ExitError carries the exit code for a failed command
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string { return e.Err.Error() }

func (e *ExitError) Unwrap() error { return e.Err }

// GetExitCode extracts the exit code from an error.
// Returns ExitFailure if the error is not an ExitError.
func GetExitCode(err error) int {
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitFailure
}

func commandError(format string, args ...interface{}) error {
	return &ExitError{Code: ExitCommandError, Err: fmt.Errorf(format, args...)}
}

// RootOptions holds global flags and the state they produce
type RootOptions struct {
	ConfigPath string
	DBPath     string
	LogLevel   string

	Config *config.Config
	Logger *zap.Logger
}

// NewRootCommand creates the root command for the relgraph CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "relgraph",
		Short: "relgraph - businesses, departments and employees",
		Long: `relgraph keeps a small relational store of businesses, the departments
they share and the employees who work in them, and serves a live snapshot
of the whole graph.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if opts.Logger != nil {
				_ = opts.Logger.Sync()
			}
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default: search $RELGRAPH_CONFIG, ./relgraph.yaml, XDG)")
	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "SQLite database path, or :memory:")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")

	// Add subcommands
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewDemoCommand(opts))
	cmd.AddCommand(NewExportCommand(opts))
	cmd.AddCommand(NewSeedCommand(opts))

	return cmd
}

// setup loads config, applies flag overrides and builds the logger
func (o *RootOptions) setup(cmd *cobra.Command) error {
	var (
		cfg *config.Config
		err error
	)
	if o.ConfigPath != "" {
		cfg, _, err = config.LoadFromPath(o.ConfigPath)
	} else {
		cfg, _, err = config.Load()
	}
	if err != nil {
		return &ExitError{Code: ExitCommandError, Err: err}
	}

	if o.DBPath != "" {
		cfg.Database.Path = o.DBPath
	}
	if o.LogLevel != "" {
		cfg.Log.Level = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return &ExitError{Code: ExitCommandError, Err: err}
	}

	logger, err := logging.NewWithWriter(cfg.Log, cmd.ErrOrStderr())
	if err != nil {
		return &ExitError{Code: ExitCommandError, Err: err}
	}

	o.Config = cfg
	o.Logger = logger
	return nil
}

// openGraph opens the configured store and loads the relationship graph.
// The caller must close the returned store.
func (o *RootOptions) openGraph(ctx context.Context, bus *service.EventBus) (*service.RelationshipGraph, *store.Store, error) {
	s, err := store.Open(ctx, o.Config.Database.Path, o.Logger)
	if err != nil {
		return nil, nil, err
	}

	graph := service.NewRelationshipGraph(sqlite.New(s, o.Logger), bus, o.Logger)
	if err := graph.Start(ctx); err != nil {
		s.Close()
		return nil, nil, err
	}
	return graph, s, nil
}
