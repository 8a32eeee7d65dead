// Package store provides a SQLite-backed local document store that
// implements engine.Store.
//
// It runs the compiled queries the Weaviate adapter would send, without a
// Weaviate instance: filters are evaluated with queryir.Evaluate, selections
// are projected the way the GraphQL endpoint shapes its rows, and the
// aggregate shapes used by the planner (meta count, groupedBy) are produced
// directly. The CLI uses it for offline runs and the scenario harness uses it
// as its backend.
//
// # Search directives
//
// The store has no vector index or model provider. Directives degrade to
// keyword relevance over text properties:
//   - bm25: objects without a matching term are dropped
//   - nearText, hybrid, ask, generative: every object is kept, ordered by
//     relevance
//   - ask: each row reports hasAnswer false
//   - generative: the first row reports that generation is unavailable
//
// Ties keep insertion order, so results are deterministic.
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//
// Objects are ordered by seq (insertion order). Re-inserting an existing id
// replaces the object in place and keeps its creation time.
package store
