// Package graph owns the canonical concept graph: nodes, links, and the
// selection set, plus the sanitize/merge/replace operations that keep them
// consistent.
//
// # Invariants
//
// After every mutation the graph satisfies:
//  1. Node identifiers are unique.
//  2. Every link's source and target resolve to a node; violating links
//     are dropped, never errored.
//  3. No duplicate (source, target) links; direction-sensitive, first
//     occurrence wins.
//  4. Identifier collisions across merges resolve in favor of the existing
//     node (existing data wins).
//
// The failure policy is silent filtering: raw fragments arrive from
// external generation calls and imports, and malformed entries are
// discarded rather than surfaced as errors. The operations never return an
// error for content reasons.
package graph
