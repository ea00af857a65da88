// Package store provides persistent storage for leases using SQLite.
//
// # Document Writes
//
// Each lease is persisted as one logical document: the leases row holds the
// scalar fields and the unboundedly-growing embedded sequences (status
// history, messages, change requests, inspections, notices, deposit
// transactions, addenda) are normalized into child tables keyed by lease id
// and ordered by a seq column. CreateLease and UpdateLease write the row
// and all child rows inside a single transaction, so a failed write never
// leaves a partially-mutated lease.
//
// # Concurrency
//
// UpdateLease is a compare-and-swap on the lease's version column. A writer
// that loses a read-modify-write race gets ErrVersionConflict and is
// expected to reload, re-run its preconditions, and either retry or fail
// with the precondition error that now applies (e.g. AlreadySigned after a
// concurrent signature).
//
// # Soft Delete
//
// Soft-deleted leases are excluded from GetLease, ListLeases and the
// counting queries; only GetLeaseIncludingDeleted, the OnlyDeleted trash
// filter, and DeleteLeasePermanently touch them.
//
// # SQLite Configuration
//
//	PRAGMA journal_mode=WAL;
//	PRAGMA foreign_keys=ON;
//
// Use NewSQLiteStore with ":memory:" or a t.TempDir() path for tests.
package store
