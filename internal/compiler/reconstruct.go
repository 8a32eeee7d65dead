package compiler

import (
	"github.com/roach88/weavebridge/internal/ir"
	"github.com/roach88/weavebridge/internal/queryir"
)

// Reconstruct turns one native search row (keyed by response alias) back
// into an alias-keyed result row.
//
// Injected aliases come from the _additional envelope and are nil when the
// envelope is absent. Built-ins come from their aliased envelope. Objects are
// reconstructed recursively, element by element for lists.
//
// Only the aliases in m appear in the result; values the store did not
// return are nil.
func Reconstruct(row map[string]any, m ReconstructionMap) ir.Row {
	return ir.Row(reconstructRow(row, m))
}

func reconstructRow(row map[string]any, m ReconstructionMap) map[string]any {
	out := make(map[string]any, len(m))
	for alias, plan := range m {
		switch plan.Source {
		case SourceInjected:
			out[alias] = envelopeValue(row[queryir.AdditionalEnvelope], alias)
		case SourceBuiltin:
			out[alias] = envelopeValue(row[alias], plan.Name)
		case SourceObject:
			out[alias] = reconstructNested(row[alias], plan.Nested, reconstructRow)
		default:
			out[alias] = row[alias]
		}
	}
	return out
}

// ReconstructObject builds a result row from an object fetched through the
// object API, where properties are keyed by name rather than alias and
// built-ins are top-level object fields.
//
// Relationship aliases are not reconstructable from fetched objects; callers
// reject them up front with ReconstructionMap.HasRelationships.
func ReconstructObject(obj queryir.Object, m ReconstructionMap) ir.Row {
	out := make(ir.Row, len(m))
	for alias, plan := range m {
		switch plan.Source {
		case SourceInjected:
			out[alias] = obj.Additional[alias]
		case SourceBuiltin:
			out[alias] = builtinValue(obj, plan.Name)
		case SourceObject:
			out[alias] = reconstructNested(obj.Properties[plan.Name], plan.Nested, reconstructByName)
		default:
			out[alias] = obj.Properties[plan.Name]
		}
	}
	return out
}

// reconstructByName reads nested object properties by property name.
func reconstructByName(row map[string]any, m ReconstructionMap) map[string]any {
	out := make(map[string]any, len(m))
	for alias, plan := range m {
		switch plan.Source {
		case SourceObject:
			out[alias] = reconstructNested(row[plan.Name], plan.Nested, reconstructByName)
		case SourceInjected:
			out[alias] = nil
		default:
			out[alias] = row[plan.Name]
		}
	}
	return out
}

func reconstructNested(v any, m ReconstructionMap, rebuild func(map[string]any, ReconstructionMap) map[string]any) any {
	switch n := v.(type) {
	case map[string]any:
		return rebuild(n, m)
	case []any:
		out := make([]any, len(n))
		for i, elem := range n {
			out[i] = reconstructNested(elem, m, rebuild)
		}
		return out
	default:
		return v
	}
}

func envelopeValue(envelope any, key string) any {
	m, ok := envelope.(map[string]any)
	if !ok {
		return nil
	}
	return m[key]
}

func builtinValue(obj queryir.Object, name string) any {
	switch name {
	case "id":
		return obj.ID
	case "vector":
		if obj.Vector == nil {
			return nil
		}
		return obj.Vector
	case "creationTimeUnix":
		return obj.CreationTimeUnix
	case "lastUpdateTimeUnix":
		return obj.LastUpdateTimeUnix
	default:
		return obj.Additional[name]
	}
}
