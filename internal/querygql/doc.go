// Package querygql renders queryir queries to Weaviate GraphQL text.
//
// Rendering is the last pure step before a store call. The output is
// deterministic so plans can be compared as text in tests and printed by the
// plan command.
package querygql
