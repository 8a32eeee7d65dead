package store

import (
	"strconv"

	"github.com/roach88/weavebridge/internal/queryir"
)

// generativeUnavailable is reported in place of a generated result.
const generativeUnavailable = "generative search is not available in the local store"

// project shapes one search hit the way the GraphQL endpoint returns it:
// keyed by response key, with built-ins under their _additional envelope.
// Timestamps and scores are strings, as the endpoint returns them.
func project(sel queryir.Selection, h hit, d *queryir.SearchDirective, first bool) map[string]any {
	row := make(map[string]any, len(sel))
	for _, f := range sel {
		if f.Name == queryir.AdditionalEnvelope {
			row[f.Key()] = additional(f.Sub, h, d, first)
			continue
		}
		row[f.Key()] = projectValue(h.object.Properties[f.Name], f.Sub)
	}
	return row
}

// projectValue applies a nested selection to an object or list of objects.
func projectValue(v any, sub queryir.Selection) any {
	if len(sub) == 0 {
		return v
	}
	switch n := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(sub))
		for _, f := range sub {
			out[f.Key()] = projectValue(n[f.Name], f.Sub)
		}
		return out
	case []any:
		out := make([]any, len(n))
		for i, elem := range n {
			out[i] = projectValue(elem, sub)
		}
		return out
	default:
		return v
	}
}

func additional(sub queryir.Selection, h hit, d *queryir.SearchDirective, first bool) map[string]any {
	out := make(map[string]any, len(sub))
	for _, f := range sub {
		key := f.Key()
		switch f.Name {
		case "id":
			out[key] = h.object.ID
		case "vector":
			if len(h.object.Vector) == 0 {
				out[key] = nil
				continue
			}
			out[key] = h.object.Vector
		case "creationTimeUnix":
			out[key] = strconv.FormatInt(h.object.CreationTimeUnix, 10)
		case "lastUpdateTimeUnix":
			out[key] = strconv.FormatInt(h.object.LastUpdateTimeUnix, 10)
		case "score":
			if !d.Active() {
				out[key] = nil
				continue
			}
			out[key] = strconv.FormatFloat(h.score, 'f', -1, 64)
		case "answer":
			out[key] = projectValue(map[string]any{
				"hasAnswer":     false,
				"property":      nil,
				"result":        nil,
				"startPosition": 0,
				"endPosition":   0,
			}, f.Sub)
		case "generate":
			if !first {
				out[key] = nil
				continue
			}
			out[key] = projectValue(map[string]any{
				"groupedResult": nil,
				"error":         generativeUnavailable,
			}, f.Sub)
		default:
			out[key] = h.object.Additional[f.Name]
		}
	}
	return out
}
