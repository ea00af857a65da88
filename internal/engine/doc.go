// ABOUTME: Package documentation for the lease engine
// ABOUTME: Describes the mutate pipeline, collaborators, and side-effect policy

// Package engine orchestrates every lease operation.
//
// # Pipeline
//
// Each operation loads the aggregate fresh, applies lazy derivation
// (activation, expiry, renewal notice), resolves the acting party,
// validates, mutates, and persists the whole document in one write
// guarded by the lease's version token. A lost write race reloads and
// revalidates against the winner's state, bounded by a small retry
// budget.
//
// # Collaborators
//
// The identity directory and property catalog are read-only lookups;
// the property price is snapshotted into the lease at creation. File
// uploads happen before any persist so an upload failure never leaves
// a half-mutated lease. Refunds and notifications are best-effort side
// effects and never fail the primary operation.
package engine
