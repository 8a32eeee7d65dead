package queryir

import "strings"

// AdditionalEnvelope is the response key under which stores return
// built-in and injected properties.
const AdditionalEnvelope = "_additional"

// SelectionField is one entry of a selection set.
type SelectionField struct {
	// Alias is the response key. Empty means the response key is Name.
	Alias string

	// Name is the selected property or envelope.
	Name string

	// Args is rendered verbatim inside parentheses after Name.
	Args string

	// Sub is the nested selection, if any.
	Sub Selection
}

// Key returns the response key this field produces.
func (f SelectionField) Key() string {
	if f.Alias != "" {
		return f.Alias
	}
	return f.Name
}

// Selection is an ordered selection set.
type Selection []SelectionField

// String renders the selection in GraphQL syntax, fields separated by
// single spaces:
//
//	title wc: wordCount id: _additional { id }
func (s Selection) String() string {
	var b strings.Builder
	s.write(&b)
	return b.String()
}

func (s Selection) write(b *strings.Builder) {
	for i, f := range s {
		if i > 0 {
			b.WriteByte(' ')
		}
		if f.Alias != "" && f.Alias != f.Name {
			b.WriteString(f.Alias)
			b.WriteString(": ")
		}
		b.WriteString(f.Name)
		if f.Args != "" {
			b.WriteByte('(')
			b.WriteString(f.Args)
			b.WriteByte(')')
		}
		if len(f.Sub) > 0 {
			b.WriteString(" { ")
			f.Sub.write(b)
			b.WriteString(" }")
		}
	}
}

// Fields builds a flat selection of plain property names.
func Fields(names ...string) Selection {
	s := make(Selection, len(names))
	for i, n := range names {
		s[i] = SelectionField{Name: n}
	}
	return s
}
