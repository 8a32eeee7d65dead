package queryir

// DirectiveKind selects the retrieval mode of a Get query.
type DirectiveKind string

const (
	DirectiveNone       DirectiveKind = ""
	DirectiveNearText   DirectiveKind = "nearText"
	DirectiveBM25       DirectiveKind = "bm25"
	DirectiveHybrid     DirectiveKind = "hybrid"
	DirectiveAsk        DirectiveKind = "ask"
	DirectiveGenerative DirectiveKind = "generative"
)

// SearchDirective is the search mode extracted from a filter tree, with its
// modifiers.
type SearchDirective struct {
	// Kind is the retrieval mode. DirectiveNone means only modifiers were
	// present.
	Kind DirectiveKind

	// Text is the directive's argument: concept, keyword query, question or
	// generation task.
	Text string

	// Properties restricts keyword and hybrid search to these properties.
	Properties []string

	// GroupBy is the property path for grouped aggregates.
	GroupBy []string

	// Autocut limits results to the first N score jumps.
	Autocut *int
}

// Active reports whether d selects a retrieval mode.
func (d *SearchDirective) Active() bool {
	return d != nil && d.Kind != DirectiveNone
}

// GetQuery is a native object search against one class.
type GetQuery struct {
	Class     string
	Selection Selection
	Where     Filter
	Directive *SearchDirective

	// Limit and Offset are omitted from the native query when zero.
	Limit  int
	Offset int
}

// AggregateQuery is a native aggregate against one class.
type AggregateQuery struct {
	Class     string
	Where     Filter
	GroupBy   []string
	Selection Selection
}

// Object is a stored object as exchanged with the store's object API.
type Object struct {
	Class              string
	ID                 string
	Vector             []float32
	Properties         map[string]any
	Additional         map[string]any
	CreationTimeUnix   int64
	LastUpdateTimeUnix int64
}

// InsertStatus is the per-object outcome of a batch insert.
type InsertStatus string

const (
	InsertSuccess InsertStatus = "SUCCESS"
	InsertFailed  InsertStatus = "FAILED"
)

// InsertResult reports one object of a batch insert.
type InsertResult struct {
	ID     string
	Status InsertStatus
	Errors []string
}

// DeleteResult reports a batch delete.
type DeleteResult struct {
	Matches int
}
