// ABOUTME: Draft negotiation: term edits, send-to-tenant, change requests, send-to-landlord
// ABOUTME: Term edits are patch-style and rejected outright once the lease is locked

package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lodgekeep/lodgekeep/internal/lease"
	"github.com/lodgekeep/lodgekeep/internal/notify"
)

// TermsPatch carries the fields of a draft update. Nil pointers leave the
// current value alone; slices and maps replace wholesale when non-nil.
type TermsPatch struct {
	StartDate           *time.Time
	EndDate             *time.Time
	RentAmount          *int64
	RentFrequency       *lease.Frequency
	SecurityDeposit     *int64
	UtilitiesIncluded   []string
	UtilitiesTenantPaid []string
	LateFee             *int64
	GracePeriodDays     *int
	Extra               map[string]string
	CustomClauses       []string
}

func (p TermsPatch) validate() error {
	if p.RentAmount != nil && *p.RentAmount <= 0 {
		return lease.Errf(lease.KindValidation, "rent amount must be positive")
	}
	if p.SecurityDeposit != nil && *p.SecurityDeposit < 0 {
		return lease.Errf(lease.KindValidation, "security deposit cannot be negative")
	}
	if p.LateFee != nil && *p.LateFee < 0 {
		return lease.Errf(lease.KindValidation, "late fee cannot be negative")
	}
	if p.StartDate != nil && p.EndDate != nil && !p.EndDate.After(*p.StartDate) {
		return lease.Errf(lease.KindValidation, "end date must be after start date")
	}
	return nil
}

func (p TermsPatch) apply(t *lease.Terms) {
	if p.StartDate != nil {
		t.StartDate = p.StartDate
	}
	if p.EndDate != nil {
		t.EndDate = p.EndDate
	}
	if p.RentAmount != nil {
		t.RentAmount = *p.RentAmount
	}
	if p.RentFrequency != nil {
		t.RentFrequency = *p.RentFrequency
	}
	if p.SecurityDeposit != nil {
		t.SecurityDeposit = p.SecurityDeposit
	}
	if p.UtilitiesIncluded != nil {
		t.UtilitiesIncluded = p.UtilitiesIncluded
	}
	if p.UtilitiesTenantPaid != nil {
		t.UtilitiesTenantPaid = p.UtilitiesTenantPaid
	}
	if p.LateFee != nil {
		t.LateFee = *p.LateFee
	}
	if p.GracePeriodDays != nil {
		t.GracePeriodDays = *p.GracePeriodDays
	}
	if p.Extra != nil {
		t.Extra = p.Extra
	}
	if p.CustomClauses != nil {
		t.CustomClauses = p.CustomClauses
	}
}

// UpdateDraft applies a terms patch. Only the landlord edits terms, only
// while the lease is in the approved or draft stage, and never after the
// signing lock. An approved lease moves into draft on its first edit.
func (e *Engine) UpdateDraft(ctx context.Context, leaseID, actorID string, patch TermsPatch) (*lease.Lease, error) {
	if err := patch.validate(); err != nil {
		return nil, err
	}
	return e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		if p != lease.PartyLandlord {
			return lease.Errf(lease.KindForbidden, "only the landlord edits draft terms")
		}
		if err := l.EnsureUnlocked(); err != nil {
			return err
		}
		if l.Status == lease.StatusApproved {
			if err := l.Transition(lease.StatusDraft, p, "drafting started", now); err != nil {
				return err
			}
		}
		if l.Status != lease.StatusDraft && l.Status != lease.StatusChangesRequested {
			return lease.Errf(lease.KindPreconditionFailed, "terms are editable only while drafting, current status is %s", l.Status)
		}
		patch.apply(&l.Terms)
		return nil
	})
}

// SendToTenant moves a complete draft out for tenant review.
func (e *Engine) SendToTenant(ctx context.Context, leaseID, actorID string) (*lease.Lease, error) {
	l, err := e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		return l.Transition(lease.StatusSentToTenant, p, "draft sent to tenant", now)
	})
	if err != nil {
		return nil, err
	}
	e.notifyParty(ctx, notify.EventDraftSent, l, l.TenantID)
	return l, nil
}

// RequestChanges records the tenant's requested term changes and sends the
// draft back. Changes is a field-to-request map and must not be empty.
func (e *Engine) RequestChanges(ctx context.Context, leaseID, actorID string, changes map[string]string) (*lease.Lease, error) {
	if len(changes) == 0 {
		return nil, lease.Errf(lease.KindValidation, "at least one requested change is required")
	}
	l, err := e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		if err := l.Transition(lease.StatusChangesRequested, p, "tenant requested changes", now); err != nil {
			return err
		}
		l.RequestedChanges = append(l.RequestedChanges, lease.ChangeRequest{
			ID:          uuid.NewString(),
			RequestedBy: actorID,
			Changes:     changes,
			RequestedAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	e.notifyParty(ctx, notify.EventChangesRequested, l, l.LandlordID)
	return l, nil
}

// ResolveChanges marks every open change request resolved and returns the
// lease to draft for another editing round.
func (e *Engine) ResolveChanges(ctx context.Context, leaseID, actorID string, notes string) (*lease.Lease, error) {
	return e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		if p != lease.PartyLandlord {
			return lease.Errf(lease.KindForbidden, "only the landlord resolves change requests")
		}
		if l.Status != lease.StatusChangesRequested {
			return lease.Errf(lease.KindPreconditionFailed, "no change round is open, current status is %s", l.Status)
		}
		for i := range l.RequestedChanges {
			if l.RequestedChanges[i].Resolved {
				continue
			}
			l.RequestedChanges[i].Resolved = true
			l.RequestedChanges[i].ResolvedAt = &now
			l.RequestedChanges[i].ResolutionNotes = notes
		}
		return l.Transition(lease.StatusDraft, p, "change requests resolved", now)
	})
}

// SendToLandlord is the tenant's acceptance of the draft terms, putting the
// lease in front of the landlord for the first signature.
func (e *Engine) SendToLandlord(ctx context.Context, leaseID, actorID string) (*lease.Lease, error) {
	l, err := e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		return l.Transition(lease.StatusSentToLandlord, p, "tenant accepted terms", now)
	})
	if err != nil {
		return nil, err
	}
	e.notifyParty(ctx, notify.EventReadyToSign, l, l.LandlordID)
	return l, nil
}
