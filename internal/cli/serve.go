package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/roach88/weavebridge/internal/server"
)

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr     string
	LogFile  string
	LogLevel string
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the data connector HTTP API",
		Long: `Serve /query, /mutation, /config-schema, /health and /metrics.

Each request may override the base configuration with the
X-Hasura-DataConnector-Config header. The server stops gracefully on
SIGINT or SIGTERM.

Examples:
  weavebridge serve
  weavebridge serve --addr :9000 --log-file ./weavebridge.log
  weavebridge serve --store local --db ./articles.db`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "write logs to a rotated file instead of stderr")
	cmd.Flags().StringVar(&opts.LogLevel, "log-level", "info", "log level (debug|info|warn|error)")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	s, err := openSession(opts.RootOptions, cmd, logSettings{File: opts.LogFile, Level: opts.LogLevel})
	if err != nil {
		return out.Fail("failed to start", err)
	}
	defer s.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(s.engine, server.Options{Base: s.cfg, Logger: s.logger})
	if err := srv.Run(ctx, opts.Addr); err != nil {
		return WrapExitError(ExitFailure, "server failed", err)
	}
	return nil
}
