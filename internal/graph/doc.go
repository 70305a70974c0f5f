// Package graph assembles the shader build graph for a single invocation.
//
// # Shape
//
// The graph is a strict two-level DAG:
//
//	compile:a.psh ──┐
//	compile:b.vsh ──┼──▶ table
//	compile:c.csh ──┘
//
// Every shader source gets one compile step producing
// "<artifact dir>/<base name>.built.h". A single table step consumes every
// artifact and emits the paired table header and source. Compile steps never
// consume artifacts, so there is nothing to cycle through.
//
// # Invariants
//
// Assemble checks the following before returning, and so does Validate:
//   - every artifact has exactly one producing step;
//   - the table's artifact inputs equal the produced artifact set, with no
//     stragglers and no omissions;
//   - the table's primary input is the first shader in discovery order;
//   - no compile step reads an artifact.
//
// A violation is a configuration error. So is an empty shader set, and so
// are two shaders that share a base name, since they would write the same
// artifact.
//
// # Lifecycle
//
//  1. **Created** by Assemble from a classify.Result and a Layout.
//  2. **Queried** by the scheduler and executor through Steps, Table,
//     Dependencies and Dependents.
//  3. **Discarded** when the session ends. Nothing is persisted.
//
// A Graph is immutable after construction and safe for concurrent reads.
package graph
