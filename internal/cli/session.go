package cli

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/weavebridge/internal/config"
	"github.com/roach88/weavebridge/internal/engine"
	"github.com/roach88/weavebridge/internal/logging"
	"github.com/roach88/weavebridge/internal/store"
	"github.com/roach88/weavebridge/internal/weaviate"
)

// session is everything a command needs to run requests.
type session struct {
	cfg    config.Config
	engine *engine.Engine
	logger *slog.Logger

	closers []io.Closer
}

// Close releases the engine, the local store and the log file.
func (s *session) Close() {
	if s.engine != nil {
		s.engine.Close()
	}
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i].Close(); err != nil {
			s.logger.Error("close failed", "error", err)
		}
	}
}

// logSettings overrides the command logger defaults.
type logSettings struct {
	File  string // rotated log file instead of stderr
	Level string // defaults to debug with --verbose, warn otherwise
}

// newLogger builds the command logger.
func newLogger(opts *RootOptions, cmd *cobra.Command, ls logSettings) (*slog.Logger, io.Closer) {
	level := ls.Level
	switch {
	case opts.Verbose:
		level = "debug"
	case level == "":
		level = "warn"
	}
	return logging.New(logging.Options{
		Level:  level,
		Format: opts.Format,
		File:   ls.File,
		Writer: cmd.ErrOrStderr(),
		Attrs:  []slog.Attr{slog.String("store", opts.Store)},
	})
}

// loadConfig returns the base configuration for opts.Store. The local
// store needs no connection settings.
func loadConfig(opts *RootOptions) (config.Config, error) {
	if opts.Store == StoreLocal {
		return config.Offline(), nil
	}
	return config.Load(config.LoadOptions{EnvFiles: opts.EnvFiles})
}

// openSession loads configuration, opens the selected store and builds an
// engine over it.
func openSession(opts *RootOptions, cmd *cobra.Command, ls logSettings) (*session, error) {
	logger, logCloser := newLogger(opts, cmd, ls)
	s := &session{logger: logger, closers: []io.Closer{logCloser}}

	cfg, err := loadConfig(opts)
	if err != nil {
		s.Close()
		return nil, err
	}
	s.cfg = cfg

	var connector engine.Connector
	switch opts.Store {
	case StoreLocal:
		st, err := store.Open(opts.Database)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("open local store %s: %w", opts.Database, err)
		}
		s.closers = append(s.closers, st)
		connector = st.Connector()
		logger.Debug("local store opened", "path", opts.Database)
	default:
		connector = weaviate.Connector()
	}

	eng, err := engine.New(connector, engine.WithLogger(logger))
	if err != nil {
		s.Close()
		return nil, fmt.Errorf("create engine: %w", err)
	}
	s.engine = eng
	return s, nil
}

// openRequest opens a request file; "-" reads stdin.
func openRequest(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to read request", err)
	}
	return f, nil
}
