// Package queryir provides the target-native query intermediate
// representation for weavebridge.
//
// queryir is the abstraction boundary between the vendor-neutral request
// model (package ir) and concrete store clients. The compiler lowers ir
// expressions and field trees into queryir values; store clients consume
// them, either by rendering GraphQL text (package querygql) or by evaluating
// them directly (the local SQLite store).
//
// ARCHITECTURE:
//
//	[ir.QueryRequest] → [compiler] → [queryir.GetQuery] → [querygql → Weaviate]
//	                                                     → [store (SQLite)]
//
// FILTERS:
//
// Filter is a sealed interface using the marker method pattern:
//   - Compare: {operator, path, typed value}, including IsNull
//   - Group: And/Or over operands
//   - Negation: logical NOT of one operand
//
// Weaviate has no generic NOT operator, so Negation never reaches a store.
// PushDownNegations rewrites negations into the complementary comparison
// operators and De Morgan duals before rendering.
//
// SEARCH DIRECTIVES:
//
// A SearchDirective selects the retrieval mode of a Get query (nearText,
// bm25, hybrid, ask, generative) and carries its modifiers (target
// properties, group-by path, autocut). A directive with an empty Kind
// carries modifiers only.
//
// SELECTIONS:
//
// Selection is the structured form of a GraphQL selection set. String()
// renders the exact text sent to the store; the local store walks the
// structure to shape rows the same way Weaviate would.
//
// Everything in this package is built per request and discarded.
package queryir
