package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/weavebridge/internal/ir"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string   // "json" | "text"
	Store    string   // "weaviate" | "local"
	Database string   // local store path
	EnvFiles []string // .env files loaded before the environment
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// Store backends.
const (
	StoreWeaviate = "weaviate"
	StoreLocal    = "local"
)

// ValidStores defines the allowed --store values.
var ValidStores = []string{StoreWeaviate, StoreLocal}

// DefaultDatabase is the local store path used when --db is not given.
const DefaultDatabase = "weavebridge.db"

// NewRootCommand creates the root command for the weavebridge CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:     "weavebridge",
		Version: ir.Version,
		Short: "weavebridge - data connector requests over Weaviate",
		Long: `Translate canonical data-connector query and mutation requests into
Weaviate GraphQL, object and batch calls, and reshape the results.

Requests run against a Weaviate instance (--store weaviate) configured from
WEAVEBRIDGE_* environment variables, or against a local SQLite document
store (--store local) for offline work.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			if !slices.Contains(ValidStores, opts.Store) {
				return fmt.Errorf("invalid store %q: must be one of %v", opts.Store, ValidStores)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Store, "store", StoreWeaviate, "store backend (weaviate|local)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", DefaultDatabase, "path to the local store database")
	cmd.PersistentFlags().StringSliceVar(&opts.EnvFiles, "env-file", nil, ".env files to load")

	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewMutateCommand(opts))
	cmd.AddCommand(NewPlanCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// formatter builds the OutputFormatter for a command.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}
