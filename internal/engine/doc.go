// Package engine plans and executes query and mutation requests.
//
// ARCHITECTURE:
//
// Planning is pure. PlanQuery and PlanMutation turn a canonical request into
// store-ready values (queryir queries, compiled filters, insert objects) and
// fail before any I/O when the request cannot be translated. Execution then
// drives a Store:
//
//  1. Validate the explicit config.Config (CONFIGURATION_ERROR)
//  2. Plan (UNSUPPORTED_*, INVALID_TARGET, NOT_IMPLEMENTED)
//  3. Connect and execute (STORE_CALL_FAILURE)
//  4. Reconstruct native rows into requested aliases
//
// Strategy selection for queries, in priority order:
//
//	by key   where is exactly equal(id, scalar): one object API lookup
//	foreach  one query per entry, fanned out on a bounded worker pool
//	single   one query, plus one aggregate query per requested aggregate
//
// Foreach results are reassembled in input order regardless of completion
// order; the first failing entry in input order fails the request. No store
// call is retried.
package engine
