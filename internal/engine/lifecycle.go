// ABOUTME: Cancellation, soft delete, restore, and the administrative permanent delete
// ABOUTME: Cancellation of a paid deposit fires a best-effort refund, never awaited

package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lodgekeep/lodgekeep/internal/lease"
	"github.com/lodgekeep/lodgekeep/internal/notify"
	"github.com/lodgekeep/lodgekeep/internal/store"
)

// refundTimeout bounds the detached refund request.
const refundTimeout = 30 * time.Second

// Cancel abandons the lease from any non-terminal, unlocked status. When
// the deposit was already paid, the cancellation records a refund ledger
// entry, marks the deposit pending_refund, and fires the refund request
// at the payment provider without waiting for it.
func (e *Engine) Cancel(ctx context.Context, leaseID, actorID, reason string) (*lease.Lease, error) {
	var refundAmount int64
	l, err := e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		if err := l.Transition(lease.StatusCancelled, p, reason, now); err != nil {
			return err
		}
		if l.DepositStatus == lease.DepositPaid {
			refundAmount = paidDepositAmount(l)
			l.DepositStatus = lease.DepositPendingRefund
			l.DepositTransactions = append(l.DepositTransactions, lease.DepositTransaction{
				ID:          uuid.NewString(),
				Amount:      refundAmount,
				Type:        lease.DepositTxReturn,
				Date:        now,
				Description: "refund requested on cancellation",
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if refundAmount > 0 {
		go e.fireRefund(l.ID, refundAmount)
	}
	e.notifyParty(ctx, notify.EventLeaseCancelled, l, otherParty(l, l.PartyOf(actorID)))
	return l, nil
}

// paidDepositAmount is the amount to refund: the recorded deposit payment,
// falling back to the agreed deposit when the ledger predates payment
// recording.
func paidDepositAmount(l *lease.Lease) int64 {
	for i := len(l.DepositTransactions) - 1; i >= 0; i-- {
		if l.DepositTransactions[i].Type == lease.DepositTxDeposit {
			return l.DepositTransactions[i].Amount
		}
	}
	if l.Terms.SecurityDeposit != nil {
		return *l.Terms.SecurityDeposit
	}
	return 0
}

// fireRefund runs detached from the request. The refund is best-effort;
// the deposit stays pending_refund for reconciliation if it fails.
func (e *Engine) fireRefund(leaseID string, amount int64) {
	ctx, cancel := context.WithTimeout(context.Background(), refundTimeout)
	defer cancel()
	if err := e.refunds.RequestRefund(ctx, leaseID, amount); err != nil {
		e.logger.Error("refund request failed", "lease_id", leaseID, "amount", amount, "error", err)
	}
}

// SoftDelete hides the lease from normal queries. Only terminal leases can
// go to the trash; live workflow state stays visible to both parties.
func (e *Engine) SoftDelete(ctx context.Context, leaseID, actorID string) (*lease.Lease, error) {
	l, err := e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		if !l.Status.Terminal() {
			return lease.Errf(lease.KindPreconditionFailed, "only a closed lease can be deleted, status is %s", l.Status)
		}
		l.IsDeleted = true
		l.DeletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.appendAudit(ctx, actorID, store.AuditSoftDeleteLease, l.ID, map[string]any{"status": string(l.Status)})
	return l, nil
}

// Restore brings a soft-deleted lease back. Parties restore their own
// leases; asAdmin skips the party check for the admin surface.
func (e *Engine) Restore(ctx context.Context, leaseID, actorID string, asAdmin bool) (*lease.Lease, error) {
	l, err := e.store.GetLeaseIncludingDeleted(ctx, leaseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, lease.ErrNotFound
		}
		return nil, fmt.Errorf("loading lease: %w", err)
	}
	if !asAdmin && l.PartyOf(actorID) == lease.PartyNone {
		// Strangers do not learn the lease exists.
		return nil, lease.ErrNotFound
	}
	if !l.IsDeleted {
		return nil, lease.Errf(lease.KindPreconditionFailed, "lease is not in the trash")
	}

	now := e.clock()
	l.IsDeleted = false
	l.DeletedAt = nil
	l.UpdatedAt = now
	if err := e.store.UpdateLease(ctx, l); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, lease.Errf(lease.KindPreconditionFailed, "lease changed concurrently, retry the restore")
		}
		return nil, fmt.Errorf("persisting lease: %w", err)
	}

	e.appendAudit(ctx, actorID, store.AuditRestoreLease, l.ID, nil)
	return l, nil
}

// PermanentDelete removes the lease and its entire history. The lease must
// already be in the trash; this is the only hard-delete path.
func (e *Engine) PermanentDelete(ctx context.Context, leaseID, actorID string) error {
	l, err := e.store.GetLeaseIncludingDeleted(ctx, leaseID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return lease.ErrNotFound
		}
		return fmt.Errorf("loading lease: %w", err)
	}
	if !l.IsDeleted {
		return lease.Errf(lease.KindPreconditionFailed, "lease must be soft-deleted before permanent deletion")
	}

	if err := e.store.DeleteLeasePermanently(ctx, leaseID); err != nil {
		return fmt.Errorf("deleting lease: %w", err)
	}

	e.appendAudit(ctx, actorID, store.AuditPermanentDeleteLease, leaseID, map[string]any{
		"property_id": l.PropertyID,
		"status":      string(l.Status),
	})
	e.logger.Info("lease permanently deleted", "lease_id", leaseID, "actor_id", actorID)
	return nil
}

// appendAudit records an administrative action. Audit failures are logged,
// not surfaced; the primary mutation already happened.
func (e *Engine) appendAudit(ctx context.Context, actorID string, action store.AuditAction, leaseID string, detail map[string]any) {
	entry := &store.AuditEntry{
		ActorID:    actorID,
		Action:     action,
		TargetType: "lease",
		TargetID:   leaseID,
		Detail:     detail,
	}
	if err := e.store.AppendAuditLog(ctx, entry); err != nil {
		e.logger.Error("audit append failed", "action", string(action), "lease_id", leaseID, "error", err)
	}
}
