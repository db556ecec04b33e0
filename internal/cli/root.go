// Package cli implements the squadcart command tree and wires the client
// components from configuration.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/squadcart/core/config"
	"github.com/dmitrymomot/squadcart/core/logger"
)

// runtime carries flags and the wired app between cobra hooks and commands.
type runtime struct {
	flagDebug     bool
	flagLogLevel  string
	flagLogFormat string
	flagMetrics   bool

	logger *slog.Logger
	app    *app
}

// NewRootCmd creates the root cobra command for the squadcart CLI.
func NewRootCmd() *cobra.Command {
	root, _ := newRoot()
	return root
}

func newRoot() (*cobra.Command, *runtime) {
	rt := &runtime{}

	root := &cobra.Command{
		Use:   "squadcart",
		Short: "Command-line client for the SquadCart admin API",
		Long: "squadcart signs in to the SquadCart admin API, keeps the session " +
			"fresh across invocations and issues authenticated requests.",
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return rt.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.flagMetrics && rt.app != nil {
				return rt.app.writeMetrics(cmd.ErrOrStderr())
			}
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&rt.flagDebug, "debug", false, "Enable debug logging")
	root.PersistentFlags().StringVar(&rt.flagLogLevel, "log-level", "", "Log level (debug, info, warn, error); overrides LOG_LEVEL")
	root.PersistentFlags().StringVar(&rt.flagLogFormat, "log-format", "", "Log format (text, json); overrides LOG_FORMAT")
	root.PersistentFlags().BoolVar(&rt.flagMetrics, "metrics", false, "Print client metrics to stderr after the command")

	root.AddCommand(
		newLoginCmd(rt),
		newLogoutCmd(rt),
		newWhoamiCmd(rt),
		newRefreshCmd(rt),
		newGetCmd(rt),
		newSendCmd(rt),
		newProfileCmd(rt),
		newSuperadminCmd(rt),
		newDoctorCmd(rt),
	)

	return root, rt
}

func (rt *runtime) setup(cmd *cobra.Command) error {
	if cmd.Name() == "help" || cmd.Name() == cobra.ShellCompRequestCmd {
		return nil
	}

	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return err
	}

	level, format := cfg.LogLevel, cfg.LogFormat
	if rt.flagLogLevel != "" {
		level = rt.flagLogLevel
	}
	if rt.flagLogFormat != "" {
		format = rt.flagLogFormat
	}
	if rt.flagDebug {
		level = "debug"
	}

	opts := []logger.Option{
		logger.WithLevelString(level),
		logger.WithOutput(cmd.ErrOrStderr()),
		logger.WithAttr(slog.String("service", "squadcart")),
	}
	if format == "json" {
		opts = append(opts, logger.WithJSONFormatter())
	}
	rt.logger = logger.New(opts...)

	a, err := newApp(cmd.Context(), cfg, rt.logger)
	if err != nil {
		return err
	}
	rt.app = a
	return nil
}

func (rt *runtime) close() {
	if rt.app != nil {
		rt.app.close()
		rt.app = nil
	}
}

// Run executes the CLI with args and the given streams, then releases
// every resource the command opened.
func Run(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	root, rt := newRoot()
	defer rt.close()

	root.SetArgs(args)
	root.SetIn(in)
	root.SetOut(out)
	root.SetErr(errOut)

	return root.ExecuteContext(ctx)
}
