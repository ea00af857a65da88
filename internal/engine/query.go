// ABOUTME: Read surface: full snapshots, list projections, trash view, stats, audit trail
// ABOUTME: Loads run the lazy derivation and persist any flip before returning

package engine

import (
	"context"
	"errors"
	"fmt"

	"github.com/lodgekeep/lodgekeep/internal/lease"
	"github.com/lodgekeep/lodgekeep/internal/store"
)

// GetByID returns the full lease snapshot for one of its parties. A
// non-party gets not-found, never a hint that the lease exists. The load
// applies lazy derivation and persists any resulting flip.
func (e *Engine) GetByID(ctx context.Context, leaseID, actorID string) (*lease.Lease, error) {
	l, err := e.store.GetLease(ctx, leaseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, lease.ErrNotFound
		}
		return nil, fmt.Errorf("loading lease: %w", err)
	}
	if l.PartyOf(actorID) == lease.PartyNone {
		return nil, lease.ErrNotFound
	}
	if lease.Derive(l, e.clock(), e.renewalWindow()) {
		e.persistDerived(ctx, l)
	}
	return l, nil
}

// AdminGetByID returns any lease, deleted or not, without a party check.
// The API layer restricts this to platform administrators.
func (e *Engine) AdminGetByID(ctx context.Context, leaseID string) (*lease.Lease, error) {
	l, err := e.store.GetLeaseIncludingDeleted(ctx, leaseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, lease.ErrNotFound
		}
		return nil, fmt.Errorf("loading lease: %w", err)
	}
	return l, nil
}

// ListForUser returns the narrow list projection for every lease the user
// is a party to, optionally filtered by property or status.
func (e *Engine) ListForUser(ctx context.Context, userID string, propertyID string, status *lease.Status, limit int) ([]*store.LeaseSummary, error) {
	if userID == "" {
		return nil, lease.Errf(lease.KindValidation, "user id is required")
	}
	if status != nil && !status.Valid() {
		return nil, lease.Errf(lease.KindValidation, "unknown status %q", *status)
	}
	summaries, err := e.store.ListLeases(ctx, store.LeaseFilter{
		UserID:     userID,
		PropertyID: propertyID,
		Status:     status,
		Limit:      limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing leases: %w", err)
	}
	return summaries, nil
}

// ListTrash returns soft-deleted leases. The API layer restricts the
// unscoped form to administrators.
func (e *Engine) ListTrash(ctx context.Context, userID string, limit int) ([]*store.LeaseSummary, error) {
	summaries, err := e.store.ListLeases(ctx, store.LeaseFilter{
		UserID:      userID,
		OnlyDeleted: true,
		Limit:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("listing trash: %w", err)
	}
	return summaries, nil
}

// Stats is the per-scope lease census.
type Stats struct {
	ByStatus map[lease.Status]int `json:"byStatus"`
	Total    int                  `json:"total"`
	Open     int                  `json:"open"`
	Closed   int                  `json:"closed"`
}

// GetStats aggregates lease counts for a user scope, or platform-wide when
// userID is empty.
func (e *Engine) GetStats(ctx context.Context, userID string) (*Stats, error) {
	counts, err := e.store.CountByStatus(ctx, store.LeaseFilter{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("counting leases: %w", err)
	}
	s := &Stats{ByStatus: counts}
	for status, n := range counts {
		s.Total += n
		if status.Terminal() {
			s.Closed += n
		} else {
			s.Open += n
		}
	}
	return s, nil
}

// AuditTrail returns administrative audit entries, newest first.
func (e *Engine) AuditTrail(ctx context.Context, f store.AuditFilter) ([]*store.AuditEntry, error) {
	entries, err := e.store.ListAuditLog(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing audit log: %w", err)
	}
	return entries, nil
}
