// Package lease holds the lease aggregate and the pure workflow rules.
//
// # State Machine
//
// The lifecycle is a single explicit transition table consulted by
// Lease.CanTransition / Lease.Transition. Edges are actor-gated (landlord,
// tenant, either, or system) and may carry a guard, e.g. terms completeness
// before send_to_tenant or dual inspection sign-off before activation.
// Every applied transition appends exactly one StatusChange to the
// append-only history, so history length is at least one from creation on.
//
// # Signing
//
// Signature slots are write-once and strictly ordered: the landlord signs
// first, the tenant's signature completes execution, sets IsLocked, and
// freezes the terms. CanSign checks the ordering rule before the status
// machine so a tenant-first attempt always fails with ErrOutOfOrder.
//
// # Lazy Derivation
//
// Derive applies the state corrections that would otherwise need a
// background sweep: fully_executed flips to active once the start date
// passes, leases past their end date flip to expired, and an active lease
// inside the renewal window gets its renewal notice auto-appended. Each
// rule is guarded so applying Derive twice is a no-op.
//
// # Errors
//
// Failures are typed Error values with a Kind (not_found, unauthorized,
// forbidden, invalid_transition, precondition_failed, validation_error,
// upstream_failure). The package mutates nothing on failure; callers can
// match shared instances such as ErrAlreadySigned with errors.Is.
//
// The package has no IO. Persistence lives in internal/store and
// orchestration in internal/engine.
package lease
