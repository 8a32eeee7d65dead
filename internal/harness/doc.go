// Package harness provides conformance testing for the translation layer.
//
// A scenario seeds a fresh in-memory local store, runs canonical query and
// mutation requests through the engine, and checks the outcomes. The trace
// of a run is pinned with goldie golden files.
//
// # Scenario Format
//
// Scenarios are defined in YAML files with the following structure:
//
//	name: scenario_name
//	description: "What this scenario validates"
//	seed:
//	  - class: Article
//	    id: 00000000-0000-0000-0000-000000000001
//	    properties: { title: Moon }
//	steps:
//	  - name: titles
//	    query:
//	      target: { type: table, name: [Article] }
//	      query: { fields: { title: { type: column, column: title } } }
//	  - name: drop
//	    mutation:
//	      operations: [{ type: delete, table: Article }]
//	assertions:
//	  - type: row_count
//	    step: titles
//	    count: 1
//	  - type: object_count
//	    class: Article
//	    count: 0
//
// # Assertion Types
//
//   - row_count: a query step returned exactly count rows
//   - row_contains: row index of a query step contains expect (subset match)
//   - error_code: a step failed with code
//   - affected_rows: a mutation step reported counts, one per operation
//   - object_count: the store holds count objects of class after all steps
//
// # Deterministic Testing
//
// Every scenario runs against its own in-memory SQLite database with the
// object clock fixed at Clock, so identical scenarios produce identical
// traces. Objects inserted without an id get a random one; scenarios whose
// golden output includes ids must supply them.
package harness
