package store

import (
	"cmp"
	"slices"
	"strings"
	"unicode"

	"github.com/roach88/weavebridge/internal/queryir"
)

// hit is a matched object with its keyword relevance.
type hit struct {
	object queryir.Object
	score  float64
}

// rank orders objects for a search directive. Without an active directive
// objects keep insertion order with score 0.
func rank(objects []queryir.Object, d *queryir.SearchDirective) []hit {
	hits := make([]hit, 0, len(objects))
	if !d.Active() {
		for _, o := range objects {
			hits = append(hits, hit{object: o})
		}
		return hits
	}

	want := termSet(d.Text)
	for _, o := range objects {
		score := relevance(o, want, d.Properties)
		if d.Kind == queryir.DirectiveBM25 && score == 0 {
			continue
		}
		hits = append(hits, hit{object: o, score: score})
	}

	slices.SortStableFunc(hits, func(a, b hit) int {
		return cmp.Compare(b.score, a.score)
	})

	if d.Autocut != nil {
		hits = autocut(hits, *d.Autocut)
	}
	return hits
}

// relevance counts occurrences of the wanted terms in the object's text
// properties. props restricts the searched properties; "title^2" boosts a
// property's matches.
func relevance(o queryir.Object, want map[string]bool, props []string) float64 {
	if len(want) == 0 {
		return 0
	}

	weights := map[string]float64{}
	if len(props) == 0 {
		for name := range o.Properties {
			weights[name] = 1
		}
	}
	for _, p := range props {
		name, boost := parseBoost(p)
		weights[name] = boost
	}

	var score float64
	for name, weight := range weights {
		for _, text := range textValues(o.Properties[name]) {
			for _, term := range terms(text) {
				if want[term] {
					score += weight
				}
			}
		}
	}
	return score
}

// parseBoost splits "name^2" into its name and weight.
func parseBoost(p string) (string, float64) {
	name, raw, ok := strings.Cut(p, "^")
	if !ok {
		return p, 1
	}
	var boost float64
	for _, r := range raw {
		if r < '0' || r > '9' {
			return name, 1
		}
		boost = boost*10 + float64(r-'0')
	}
	if boost == 0 {
		return name, 1
	}
	return name, boost
}

func textValues(v any) []string {
	switch t := v.(type) {
	case string:
		return []string{t}
	case []any:
		var out []string
		for _, e := range t {
			out = append(out, textValues(e)...)
		}
		return out
	}
	return nil
}

func terms(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func termSet(text string) map[string]bool {
	set := map[string]bool{}
	for _, t := range terms(text) {
		set[t] = true
	}
	return set
}

// autocut keeps the results before the n-th drop in score.
func autocut(hits []hit, n int) []hit {
	if n <= 0 {
		return hits
	}
	jumps := 0
	for i := 1; i < len(hits); i++ {
		if hits[i].score < hits[i-1].score {
			jumps++
			if jumps == n {
				return hits[:i]
			}
		}
	}
	return hits
}

// page applies offset and limit. A zero limit means no limit.
func page(hits []hit, offset, limit int) []hit {
	if offset > 0 {
		if offset >= len(hits) {
			return []hit{}
		}
		hits = hits[offset:]
	}
	if limit > 0 && limit < len(hits) {
		hits = hits[:limit]
	}
	return hits
}
