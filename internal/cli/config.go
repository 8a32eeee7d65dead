package cli

import (
	"bytes"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/roach88/weavebridge/internal/config"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect connection configuration",
	}
	cmd.AddCommand(newConfigShowCommand(rootOpts))
	cmd.AddCommand(newConfigSchemaCommand(rootOpts))
	return cmd
}

func newConfigShowCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved base configuration with secrets masked",
		Long: `Print the base configuration the selected store would use, after
.env files and WEAVEBRIDGE_* variables are applied. API keys are masked.

Examples:
  weavebridge config show
  weavebridge config show --env-file .env.local --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)

			cfg, err := loadConfig(opts)
			if err != nil {
				return out.Fail("failed to load configuration", err)
			}
			masked := cfg.Masked()

			if opts.Format == "json" {
				return out.Success(masked)
			}
			var buf bytes.Buffer
			enc := yaml.NewEncoder(&buf)
			enc.SetIndent(2)
			if err := enc.Encode(masked); err != nil {
				return fmt.Errorf("encode configuration: %w", err)
			}
			if err := enc.Close(); err != nil {
				return fmt.Errorf("encode configuration: %w", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), buf.String())

			if err := cfg.Validate(); err != nil {
				out.VerboseLog("configuration is incomplete: %v", err)
			}
			return nil
		},
	}
}

func newConfigSchemaCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "schema",
		Short:         "Print the configuration schema",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := opts.formatter(cmd)
			if opts.Format == "json" {
				return out.Success(config.ConfigSchemaResponse())
			}
			return out.Success(config.Schema())
		},
	}
}
