// ABOUTME: Store interface and filter types for lease persistence
// ABOUTME: Defines the document-write contract with optimistic concurrency per lease

package store

import (
	"context"
	"errors"

	"github.com/lodgekeep/lodgekeep/internal/lease"
)

// ErrNotFound is returned when a requested lease does not exist or is
// filtered out (soft-deleted on a default query).
var ErrNotFound = errors.New("lease not found")

// ErrVersionConflict is returned when an update lost a concurrent
// read-modify-write race. Callers reload and revalidate.
var ErrVersionConflict = errors.New("lease version conflict")

// ErrDuplicateLease is returned when creating a lease with an id that
// already exists.
var ErrDuplicateLease = errors.New("lease already exists")

// LeaseFilter specifies filtering options for listing leases.
type LeaseFilter struct {
	UserID      string        // matches landlord or tenant
	PropertyID  string        // filter by property
	Status      *lease.Status // filter by current status
	OnlyDeleted bool          // trash view: soft-deleted leases only
	Limit       int           // max results (default 100, max 1000)
}

// LeaseSummary is the narrow projection returned by list queries.
type LeaseSummary struct {
	ID         string
	LandlordID string
	TenantID   string
	PropertyID string
	Status     lease.Status
	RentAmount int64
	StartDate  *string
	EndDate    *string
	UpdatedAt  string
}

// Store is the persistence contract for the lease engine. Each lease is
// written as a single document: the row plus all child tables inside one
// transaction, guarded by the lease's version token.
type Store interface {
	// CreateLease persists a new lease with version 1.
	CreateLease(ctx context.Context, l *lease.Lease) error

	// GetLease loads the full aggregate. Soft-deleted leases return
	// ErrNotFound.
	GetLease(ctx context.Context, id string) (*lease.Lease, error)

	// GetLeaseIncludingDeleted loads the aggregate regardless of the
	// soft-delete flag; used by trash and restore paths.
	GetLeaseIncludingDeleted(ctx context.Context, id string) (*lease.Lease, error)

	// UpdateLease writes the aggregate if l.Version still matches the
	// stored row, then bumps l.Version. Returns ErrVersionConflict when a
	// concurrent writer won.
	UpdateLease(ctx context.Context, l *lease.Lease) error

	// ListLeases returns summaries newest-updated first. Soft-deleted
	// leases are excluded unless OnlyDeleted is set.
	ListLeases(ctx context.Context, f LeaseFilter) ([]*LeaseSummary, error)

	// HasOpenLease reports whether a non-terminal, non-deleted lease
	// exists for the (property, tenant) pair.
	HasOpenLease(ctx context.Context, propertyID, tenantID string) (bool, error)

	// CountByStatus returns lease counts grouped by status for the filter
	// scope (soft-deleted excluded).
	CountByStatus(ctx context.Context, f LeaseFilter) (map[lease.Status]int, error)

	// DeleteLeasePermanently removes the lease and all child rows. Only
	// the explicit administrative path calls this.
	DeleteLeasePermanently(ctx context.Context, id string) error

	// AppendAuditLog records an administrative action.
	AppendAuditLog(ctx context.Context, e *AuditEntry) error

	// ListAuditLog returns audit entries newest first.
	ListAuditLog(ctx context.Context, f AuditFilter) ([]*AuditEntry, error)

	Close() error
}
