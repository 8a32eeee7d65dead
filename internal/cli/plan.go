package cli

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/weavebridge/internal/engine"
	"github.com/roach88/weavebridge/internal/ir"
	"github.com/roach88/weavebridge/internal/querygql"
)

// PlanOptions holds flags for the plan command.
type PlanOptions struct {
	*RootOptions
	Mutation bool // the request is a mutation request
}

// PlannedQuery is one rendered native query.
type PlannedQuery struct {
	Get        string            `json:"get"`
	Aggregates map[string]string `json:"aggregates,omitempty"`
}

// PlannedMutation is one compiled mutation operation.
type PlannedMutation struct {
	Type    string `json:"type"`
	Class   string `json:"class"`
	Objects int    `json:"objects,omitempty"`
	Where   string `json:"where,omitempty"`
}

// PlanOutput is the printed plan.
type PlanOutput struct {
	Fingerprint string            `json:"fingerprint,omitempty"`
	Strategy    string            `json:"strategy,omitempty"`
	Class       string            `json:"class,omitempty"`
	ID          string            `json:"id,omitempty"`
	Queries     []PlannedQuery    `json:"queries,omitempty"`
	Mutations   []PlannedMutation `json:"mutations,omitempty"`
	Warnings    []string          `json:"warnings,omitempty"`
}

// String renders the plan for text output.
func (p PlanOutput) String() string {
	var b strings.Builder
	if p.Fingerprint != "" {
		fmt.Fprintf(&b, "fingerprint: %s\n", p.Fingerprint)
	}
	if p.Strategy != "" {
		fmt.Fprintf(&b, "strategy: %s\nclass: %s\n", p.Strategy, p.Class)
	}
	if p.ID != "" {
		fmt.Fprintf(&b, "object: /v1/objects/%s/%s\n", p.Class, p.ID)
	}
	for i, q := range p.Queries {
		fmt.Fprintf(&b, "query %d:\n  %s\n", i, q.Get)
		for _, alias := range sortedAliases(q.Aggregates) {
			fmt.Fprintf(&b, "  %s: %s\n", alias, q.Aggregates[alias])
		}
	}
	for i, m := range p.Mutations {
		switch m.Type {
		case ir.MutationInsert:
			fmt.Fprintf(&b, "operation %d: insert %d objects into %s\n", i, m.Objects, m.Class)
		default:
			where := m.Where
			if where == "" {
				where = "(all objects)"
			}
			fmt.Fprintf(&b, "operation %d: delete from %s where %s\n", i, m.Class, where)
		}
	}
	for _, w := range p.Warnings {
		fmt.Fprintf(&b, "warning: %s\n", w)
	}
	return strings.TrimRight(b.String(), "\n")
}

// NewPlanCommand creates the plan command.
func NewPlanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &PlanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "plan <request.json>",
		Short: "Show the native calls for a request without running it",
		Long: `Translate a request and print the rendered GraphQL, object lookups and
batch operations it would issue. No store is contacted.

Examples:
  weavebridge plan request.json
  weavebridge plan --mutation deletes.json
  weavebridge plan --format json request.json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPlan(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Mutation, "mutation", false, "plan a mutation request")

	return cmd
}

func runPlan(opts *PlanOptions, path string, cmd *cobra.Command) error {
	out := opts.formatter(cmd)

	body, err := openRequest(cmd, path)
	if err != nil {
		return err
	}
	defer body.Close()

	var plan PlanOutput
	if opts.Mutation {
		plan, err = planMutation(body)
	} else {
		plan, err = planQuery(body)
	}
	if err != nil {
		return out.Fail("plan failed", err)
	}
	return out.Success(plan)
}

func planQuery(body io.Reader) (PlanOutput, error) {
	req, err := ir.DecodeQueryRequest(body)
	if err != nil {
		return PlanOutput{}, err
	}
	plan, err := engine.PlanQuery(req)
	if err != nil {
		return PlanOutput{}, err
	}

	out := PlanOutput{
		Fingerprint: ir.QueryFingerprint(req),
		Strategy:    string(plan.Strategy),
		Class:       plan.Class,
		ID:          plan.ID,
		Warnings:    plan.Warnings,
	}

	r := querygql.NewRenderer()
	for _, qp := range plan.Queries {
		get, err := r.RenderGet(qp.Get)
		if err != nil {
			return PlanOutput{}, err
		}
		pq := PlannedQuery{Get: get}
		for _, ap := range qp.Aggregates {
			agg, err := r.RenderAggregate(ap.Query)
			if err != nil {
				return PlanOutput{}, err
			}
			if pq.Aggregates == nil {
				pq.Aggregates = map[string]string{}
			}
			pq.Aggregates[ap.Alias] = agg
		}
		out.Queries = append(out.Queries, pq)
	}
	return out, nil
}

func planMutation(body io.Reader) (PlanOutput, error) {
	req, err := ir.DecodeMutationRequest(body)
	if err != nil {
		return PlanOutput{}, err
	}
	steps, err := engine.PlanMutation(req)
	if err != nil {
		return PlanOutput{}, err
	}

	out := PlanOutput{Fingerprint: ir.MutationFingerprint(req)}
	r := querygql.NewRenderer()
	for i, step := range steps {
		pm := PlannedMutation{Type: step.Type, Class: step.Class, Objects: len(step.Objects)}
		if step.Type == ir.MutationDelete && step.Where != nil {
			where, err := r.RenderFilter(step.Where)
			if err != nil {
				return PlanOutput{}, err
			}
			pm.Where = where
		}
		if step.IgnoredDirective {
			out.Warnings = append(out.Warnings,
				fmt.Sprintf("operation %d: search directives are ignored by deletes", i))
		}
		out.Mutations = append(out.Mutations, pm)
	}
	return out, nil
}

func sortedAliases(m map[string]string) []string {
	aliases := make([]string, 0, len(m))
	for a := range m {
		aliases = append(aliases, a)
	}
	slices.Sort(aliases)
	return aliases
}
