// Package compiler lowers vendor-neutral requests into store-native
// constructs and lifts native results back.
//
// It has four pure parts:
//   - EncodeScalar: literal values into typed value slots
//   - Compile: filter expressions into a native filter plus the search
//     directive smuggled through pseudo-operators
//   - ProjectFields: field trees into a selection and a ReconstructionMap
//   - Reconstruct / ReconstructObject: native rows back to alias-keyed rows
//
// Nothing here performs I/O or keeps state between calls. The planner in
// package engine composes these into complete native queries.
package compiler
