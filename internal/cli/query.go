package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/weavebridge/internal/ir"
)

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "query <request.json>",
		Short: "Run a query request",
		Long: `Run a canonical query request and print the query response.

The request is read from the given file, or from stdin when the path is "-".

Exit codes:
  0 - Success
  1 - Store call failed
  2 - Unreadable, untranslatable or misconfigured request

Examples:
  weavebridge query request.json
  weavebridge query --store local --db ./articles.db request.json
  cat request.json | weavebridge query --format json -`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(rootOpts, args[0], cmd)
		},
	}
}

// NewMutateCommand creates the mutate command.
func NewMutateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mutate <request.json>",
		Short: "Run a mutation request",
		Long: `Run a canonical mutation request and print one affected-rows count
per operation.

Operations run in request order. Update operations are rejected before
any operation is applied.

Examples:
  weavebridge mutate inserts.json
  weavebridge mutate --store local --db ./articles.db deletes.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMutate(rootOpts, args[0], cmd)
		},
	}
}

func runQuery(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	body, err := openRequest(cmd, path)
	if err != nil {
		return err
	}
	defer body.Close()

	req, err := ir.DecodeQueryRequest(body)
	if err != nil {
		return out.Fail("invalid query request", err)
	}

	s, err := openSession(opts, cmd, logSettings{})
	if err != nil {
		return out.Fail("failed to start", err)
	}
	defer s.Close()

	resp, err := s.engine.Query(cmd.Context(), s.cfg, req)
	if err != nil {
		return out.Fail("query failed", err)
	}
	out.VerboseLog("query returned %d rows", len(resp.Rows))
	return out.Success(resp)
}

func runMutate(opts *RootOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	body, err := openRequest(cmd, path)
	if err != nil {
		return err
	}
	defer body.Close()

	req, err := ir.DecodeMutationRequest(body)
	if err != nil {
		return out.Fail("invalid mutation request", err)
	}

	s, err := openSession(opts, cmd, logSettings{})
	if err != nil {
		return out.Fail("failed to start", err)
	}
	defer s.Close()

	resp, err := s.engine.Mutate(cmd.Context(), s.cfg, req)
	if err != nil {
		return out.Fail("mutation failed", err)
	}
	return out.Success(resp)
}
