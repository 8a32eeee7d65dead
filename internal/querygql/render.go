package querygql

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cast"

	"github.com/roach88/weavebridge/internal/ir"
	"github.com/roach88/weavebridge/internal/queryir"
)

// Renderer renders native queries to Weaviate GraphQL text.
//
// Output is deterministic: argument order is fixed and selections are
// rendered in the order the compiler produced them. Literal values are
// always emitted as escaped GraphQL literals; class and field names are
// checked against the GraphQL name grammar so request data can never alter
// the query structure.
type Renderer struct{}

// NewRenderer creates a new Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// RenderGet renders a Get query:
//
//	{ Get { Class(where: {...}, bm25: {...}, limit: 10) { selection } } }
//
// Negations in the filter are pushed down first. A generative directive
// renders as a hybrid search; its generation task travels in the selection.
func (r *Renderer) RenderGet(q queryir.GetQuery) (string, error) {
	if err := checkName(q.Class); err != nil {
		return "", err
	}
	if err := checkSelection(q.Selection); err != nil {
		return "", err
	}

	var args []string

	if q.Where != nil {
		where, err := r.RenderFilter(q.Where)
		if err != nil {
			return "", fmt.Errorf("render where: %w", err)
		}
		args = append(args, "where: "+where)
	}

	if q.Directive.Active() {
		args = append(args, renderDirective(q.Directive))
	}
	if q.Limit > 0 {
		args = append(args, "limit: "+strconv.Itoa(q.Limit))
	}
	if q.Offset > 0 {
		args = append(args, "offset: "+strconv.Itoa(q.Offset))
	}
	if q.Directive.Active() && q.Directive.Autocut != nil {
		args = append(args, "autocut: "+strconv.Itoa(*q.Directive.Autocut))
	}

	return wrap("Get", q.Class, args, q.Selection), nil
}

// RenderAggregate renders an Aggregate query:
//
//	{ Aggregate { Class(where: {...}, groupBy: ["path"]) { meta { count } } } }
func (r *Renderer) RenderAggregate(q queryir.AggregateQuery) (string, error) {
	if err := checkName(q.Class); err != nil {
		return "", err
	}
	if err := checkSelection(q.Selection); err != nil {
		return "", err
	}

	var args []string
	if q.Where != nil {
		where, err := r.RenderFilter(q.Where)
		if err != nil {
			return "", fmt.Errorf("render where: %w", err)
		}
		args = append(args, "where: "+where)
	}
	if len(q.GroupBy) > 0 {
		args = append(args, "groupBy: "+stringList(q.GroupBy))
	}

	return wrap("Aggregate", q.Class, args, q.Selection), nil
}

// RenderFilter renders a filter as a GraphQL where argument value.
func (r *Renderer) RenderFilter(f queryir.Filter) (string, error) {
	var b strings.Builder
	if err := writeFilter(&b, queryir.PushDownNegations(f)); err != nil {
		return "", err
	}
	return b.String(), nil
}

func wrap(root, class string, args []string, sel queryir.Selection) string {
	var b strings.Builder
	b.WriteString("{ ")
	b.WriteString(root)
	b.WriteString(" { ")
	b.WriteString(class)
	if len(args) > 0 {
		b.WriteByte('(')
		b.WriteString(strings.Join(args, ", "))
		b.WriteByte(')')
	}
	b.WriteString(" { ")
	b.WriteString(sel.String())
	b.WriteString(" } } }")
	return b.String()
}

func writeFilter(b *strings.Builder, f queryir.Filter) error {
	switch n := f.(type) {
	case nil:
		return fmt.Errorf("cannot render empty filter")
	case queryir.Group:
		return writeGroup(b, n)
	case *queryir.Group:
		return writeGroup(b, *n)
	case queryir.Compare:
		return writeCompare(b, n)
	case *queryir.Compare:
		return writeCompare(b, *n)
	default:
		return fmt.Errorf("unsupported filter node: %T", f)
	}
}

func writeGroup(b *strings.Builder, g queryir.Group) error {
	b.WriteString("{operator: ")
	b.WriteString(string(g.Operator))
	b.WriteString(", operands: [")
	for i, o := range g.Operands {
		if i > 0 {
			b.WriteString(", ")
		}
		if err := writeFilter(b, o); err != nil {
			return err
		}
	}
	b.WriteString("]}")
	return nil
}

func writeCompare(b *strings.Builder, c queryir.Compare) error {
	lit, err := literal(c.Value)
	if err != nil {
		return fmt.Errorf("path %v: %w", c.Path, err)
	}
	b.WriteString("{path: ")
	b.WriteString(stringList(c.Path))
	b.WriteString(", operator: ")
	b.WriteString(string(c.Operator))
	b.WriteString(", ")
	b.WriteString(string(c.Value.Slot))
	b.WriteString(": ")
	b.WriteString(lit)
	b.WriteByte('}')
	return nil
}

// literal renders a typed value as a GraphQL literal.
func literal(v queryir.TypedValue) (string, error) {
	switch v.Slot {
	case queryir.SlotText, queryir.SlotDate:
		s, err := cast.ToStringE(v.Value)
		if err != nil {
			return "", err
		}
		return Quote(s), nil
	case queryir.SlotInt:
		n, err := cast.ToInt64E(v.Value)
		if err != nil {
			return "", err
		}
		return strconv.FormatInt(n, 10), nil
	case queryir.SlotNumber:
		f, err := cast.ToFloat64E(v.Value)
		if err != nil {
			return "", err
		}
		return strconv.FormatFloat(f, 'f', -1, 64), nil
	case queryir.SlotBoolean:
		bv, err := cast.ToBoolE(v.Value)
		if err != nil {
			return "", err
		}
		return strconv.FormatBool(bv), nil
	default:
		return "", fmt.Errorf("unsupported value slot %q", v.Slot)
	}
}

func renderDirective(d *queryir.SearchDirective) string {
	switch d.Kind {
	case queryir.DirectiveNearText:
		return "nearText: {concepts: " + stringList([]string{d.Text}) + "}"
	case queryir.DirectiveBM25:
		return "bm25: {query: " + Quote(d.Text) + properties(d.Properties) + "}"
	case queryir.DirectiveAsk:
		return "ask: {question: " + Quote(d.Text) + properties(d.Properties) + "}"
	default:
		// hybrid and generative
		return "hybrid: {query: " + Quote(d.Text) + properties(d.Properties) + "}"
	}
}

func properties(props []string) string {
	if len(props) == 0 {
		return ""
	}
	return ", properties: " + stringList(props)
}

func stringList(items []string) string {
	quoted := make([]string, len(items))
	for i, s := range items {
		quoted[i] = Quote(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// Quote renders s as a GraphQL string literal.
func Quote(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}

func checkSelection(sel queryir.Selection) error {
	for _, f := range sel {
		if f.Alias != "" {
			if err := checkName(f.Alias); err != nil {
				return err
			}
		}
		if err := checkName(f.Name); err != nil {
			return err
		}
		if err := checkSelection(f.Sub); err != nil {
			return err
		}
	}
	return nil
}

// checkName enforces the GraphQL name grammar /[_A-Za-z][_0-9A-Za-z]*/.
func checkName(name string) error {
	if name == "" {
		return ir.NewError(ir.ErrCodeUnsupportedExpression, name, "empty name")
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && r >= '0' && r <= '9':
		default:
			return ir.NewError(ir.ErrCodeUnsupportedExpression, name, "not a valid GraphQL name")
		}
	}
	return nil
}
