package compiler

import (
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/weavebridge/internal/ir"
	"github.com/roach88/weavebridge/internal/queryir"
)

// BuiltinProperties are the store-managed properties every object has.
// They are selected through the _additional envelope in searches and live
// at the top level of objects (not under properties) in the object API.
var BuiltinProperties = map[string]bool{
	"id":                 true,
	"vector":             true,
	"creationTimeUnix":   true,
	"lastUpdateTimeUnix": true,
	"distance":           true,
	"certainty":          true,
	"score":              true,
	"explainScore":       true,
	"isConsistent":       true,
	"generate":           true,
	"answer":             true,
}

// IsBuiltin reports whether name is a built-in property.
func IsBuiltin(name string) bool {
	return BuiltinProperties[name]
}

// IsInjected reports whether alias is filled from directive output rather
// than selected: generate, answer, and any alias containing "groupedBy".
func IsInjected(alias string) bool {
	return alias == "generate" || alias == "answer" || strings.Contains(alias, "groupedBy")
}

// SourceKind says where in a native row an alias's value lives.
type SourceKind int

const (
	// SourceProperty reads row[alias].
	SourceProperty SourceKind = iota

	// SourceBuiltin reads row[alias][name] (an aliased _additional envelope).
	SourceBuiltin

	// SourceInjected reads row._additional[alias].
	SourceInjected

	// SourceRelationship reads row[alias].
	SourceRelationship

	// SourceObject reads row[alias] and reconstructs it with Nested.
	SourceObject
)

// String returns a readable name for the source kind.
func (k SourceKind) String() string {
	switch k {
	case SourceProperty:
		return "property"
	case SourceBuiltin:
		return "builtin"
	case SourceInjected:
		return "injected"
	case SourceRelationship:
		return "relationship"
	case SourceObject:
		return "object"
	}
	return fmt.Sprintf("SourceKind(%d)", int(k))
}

// FieldPlan describes how to recover one alias from a native row.
type FieldPlan struct {
	Source SourceKind

	// Name is the property, built-in or relationship name.
	Name string

	// Nested is set for SourceObject.
	Nested ReconstructionMap
}

// ReconstructionMap maps each requested alias to its FieldPlan.
type ReconstructionMap map[string]FieldPlan

// HasRelationships reports whether any alias, at any depth, is a
// relationship.
func (m ReconstructionMap) HasRelationships() bool {
	for _, p := range m {
		if p.Source == SourceRelationship {
			return true
		}
		if p.Source == SourceObject && p.Nested.HasRelationships() {
			return true
		}
	}
	return false
}

// ProjectFields compiles a requested field tree into a native selection and
// the reconstruction map that inverts it.
//
// Aliases are processed in sorted order so the selection text is
// deterministic.
//
//	built-in column    → alias: _additional { column }
//	user column        → alias: column
//	object             → alias: column { ... }
//	array              → the element field's projection
//	relationship       → alias: relationship
//	generate / answer / *groupedBy* → not selected, filled from directive output
//
// Unknown field types fail with UNSUPPORTED_EXPRESSION.
func ProjectFields(fields map[string]ir.Field) (queryir.Selection, ReconstructionMap, error) {
	aliases := make([]string, 0, len(fields))
	for alias := range fields {
		aliases = append(aliases, alias)
	}
	slices.Sort(aliases)

	sel := make(queryir.Selection, 0, len(aliases))
	plans := make(ReconstructionMap, len(aliases))

	for _, alias := range aliases {
		if IsInjected(alias) {
			plans[alias] = FieldPlan{Source: SourceInjected, Name: alias}
			continue
		}
		sf, plan, err := projectField(alias, fields[alias])
		if err != nil {
			return nil, nil, err
		}
		sel = append(sel, sf)
		plans[alias] = plan
	}
	return sel, plans, nil
}

func projectField(alias string, field ir.Field) (queryir.SelectionField, FieldPlan, error) {
	switch f := field.(type) {
	case ir.ColumnField:
		return projectColumn(alias, f.Column)
	case *ir.ColumnField:
		return projectColumn(alias, f.Column)
	case ir.ObjectField:
		return projectObject(alias, f)
	case *ir.ObjectField:
		return projectObject(alias, *f)
	case ir.RelationshipField:
		return projectRelationship(alias, f.Relationship)
	case *ir.RelationshipField:
		return projectRelationship(alias, f.Relationship)
	case ir.ArrayField:
		return projectField(alias, f.Field)
	case *ir.ArrayField:
		return projectField(alias, f.Field)
	case ir.UnknownField:
		return queryir.SelectionField{}, FieldPlan{}, ir.NewError(ir.ErrCodeUnsupportedExpression, f.Type, "unsupported field type")
	default:
		return queryir.SelectionField{}, FieldPlan{}, ir.NewError(ir.ErrCodeUnsupportedExpression, fmt.Sprintf("%T", field), "unsupported field type")
	}
}

func projectColumn(alias, column string) (queryir.SelectionField, FieldPlan, error) {
	if IsBuiltin(column) {
		return queryir.SelectionField{
				Alias: alias,
				Name:  queryir.AdditionalEnvelope,
				Sub:   queryir.Fields(column),
			},
			FieldPlan{Source: SourceBuiltin, Name: column},
			nil
	}
	return queryir.SelectionField{Alias: alias, Name: column},
		FieldPlan{Source: SourceProperty, Name: column},
		nil
}

func projectObject(alias string, f ir.ObjectField) (queryir.SelectionField, FieldPlan, error) {
	sub, nested, err := ProjectFields(f.Query.Fields)
	if err != nil {
		return queryir.SelectionField{}, FieldPlan{}, err
	}
	return queryir.SelectionField{Alias: alias, Name: f.Column, Sub: sub},
		FieldPlan{Source: SourceObject, Name: f.Column, Nested: nested},
		nil
}

func projectRelationship(alias, relationship string) (queryir.SelectionField, FieldPlan, error) {
	return queryir.SelectionField{Alias: alias, Name: relationship},
		FieldPlan{Source: SourceRelationship, Name: relationship},
		nil
}
