// ABOUTME: Application stage: tenant applies against a property, landlord reviews
// ABOUTME: Covers createApplication, the review decision, and the landlord-direct draft flow

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/lodgekeep/lodgekeep/internal/directory"
	"github.com/lodgekeep/lodgekeep/internal/lease"
	"github.com/lodgekeep/lodgekeep/internal/notify"
)

// ReviewDecision is the landlord's verdict on a pending application.
type ReviewDecision string

const (
	DecisionApprove     ReviewDecision = "approve"
	DecisionReject      ReviewDecision = "reject"
	DecisionUnderReview ReviewDecision = "under_review"
)

// CreateApplication starts a lease from a tenant application. The property
// must be listed as active, the tenant must not already hold an open lease
// on it, and the catalog price is snapshotted as the rent amount.
func (e *Engine) CreateApplication(ctx context.Context, tenantID, propertyID string) (*lease.Lease, error) {
	if tenantID == "" || propertyID == "" {
		return nil, lease.Errf(lease.KindValidation, "tenant id and property id are required")
	}

	if _, err := e.users.ResolveUser(ctx, tenantID); err != nil {
		return nil, err
	}
	prop, err := e.catalog.ResolveProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop.Status != directory.PropertyStatusActive {
		return nil, lease.Errf(lease.KindPreconditionFailed, "property %s is not accepting applications", propertyID)
	}

	open, err := e.store.HasOpenLease(ctx, propertyID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("checking open leases: %w", err)
	}
	if open {
		return nil, lease.Errf(lease.KindPreconditionFailed, "an open lease already exists for this property and tenant")
	}

	l := lease.NewApplication(prop.OwnerID, tenantID, propertyID, prop.Price, e.clock())
	if err := e.store.CreateLease(ctx, l); err != nil {
		return nil, fmt.Errorf("creating lease: %w", err)
	}

	e.logger.Info("application created", "lease_id", l.ID, "property_id", propertyID, "tenant_id", tenantID)
	e.notifyParty(ctx, notify.EventApplicationReceived, l, l.LandlordID)
	return l, nil
}

// CreateDraft starts a lease directly in draft, skipping the application
// stage. Only the property owner may do this.
func (e *Engine) CreateDraft(ctx context.Context, landlordID, tenantID, propertyID string) (*lease.Lease, error) {
	if landlordID == "" || tenantID == "" || propertyID == "" {
		return nil, lease.Errf(lease.KindValidation, "landlord id, tenant id and property id are required")
	}

	if _, err := e.users.ResolveUser(ctx, tenantID); err != nil {
		return nil, err
	}
	prop, err := e.catalog.ResolveProperty(ctx, propertyID)
	if err != nil {
		return nil, err
	}
	if prop.OwnerID != landlordID {
		return nil, lease.Errf(lease.KindForbidden, "only the property owner may draft a lease")
	}

	open, err := e.store.HasOpenLease(ctx, propertyID, tenantID)
	if err != nil {
		return nil, fmt.Errorf("checking open leases: %w", err)
	}
	if open {
		return nil, lease.Errf(lease.KindPreconditionFailed, "an open lease already exists for this property and tenant")
	}

	l := lease.NewDraft(landlordID, tenantID, propertyID, prop.Price, e.clock())
	if err := e.store.CreateLease(ctx, l); err != nil {
		return nil, fmt.Errorf("creating lease: %w", err)
	}

	e.logger.Info("draft created", "lease_id", l.ID, "property_id", propertyID, "landlord_id", landlordID)
	return l, nil
}

// ReviewApplication records the landlord's decision on a pending
// application. Approve and reject finalize the screening outcome; the
// under_review decision just parks the application while checks run.
func (e *Engine) ReviewApplication(ctx context.Context, leaseID, actorID string, decision ReviewDecision, notes string) (*lease.Lease, error) {
	var target lease.Status
	switch decision {
	case DecisionApprove:
		target = lease.StatusApproved
	case DecisionReject:
		target = lease.StatusRejected
	case DecisionUnderReview:
		target = lease.StatusUnderReview
	default:
		return nil, lease.Errf(lease.KindValidation, "unknown review decision %q", decision)
	}

	l, err := e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		if p != lease.PartyLandlord {
			return lease.Errf(lease.KindForbidden, "only the landlord reviews applications")
		}
		if err := l.Transition(target, p, "application "+string(decision), now); err != nil {
			return err
		}
		l.Application.ReviewedAt = &now
		l.Application.ReviewedBy = actorID
		if notes != "" {
			l.Application.Notes = notes
		}
		switch decision {
		case DecisionApprove:
			l.Application.ScreeningStatus = lease.ScreeningPassed
		case DecisionReject:
			l.Application.ScreeningStatus = lease.ScreeningFailed
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if decision != DecisionUnderReview {
		e.notifyParty(ctx, notify.EventApplicationDecided, l, l.TenantID)
	}
	return l, nil
}
