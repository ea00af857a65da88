// ABOUTME: Deposit ledger operations: record payment, process return with deductions
// ABOUTME: The held-state precondition makes the non-idempotent return safe to expose

package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/lodgekeep/lodgekeep/internal/lease"
	"github.com/lodgekeep/lodgekeep/internal/notify"
)

// RecordDepositPayment logs the tenant's security-deposit payment. The
// amount must match the agreed deposit within the configured tolerance.
// The deposit stays paid until activation moves it to held.
func (e *Engine) RecordDepositPayment(ctx context.Context, leaseID, actorID string, amount int64, proof string) (*lease.Lease, error) {
	if amount <= 0 {
		return nil, lease.Errf(lease.KindValidation, "deposit amount must be positive")
	}
	return e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		if p != lease.PartyTenant {
			return lease.Errf(lease.KindForbidden, "only the tenant pays the deposit")
		}
		if l.DepositStatus != lease.DepositPending {
			return lease.Errf(lease.KindPreconditionFailed, "deposit is %s, not pending", l.DepositStatus)
		}
		if l.Terms.SecurityDeposit == nil {
			return lease.ErrTermsIncomplete
		}
		if diff := amount - *l.Terms.SecurityDeposit; diff > e.params.DepositTolerance || diff < -e.params.DepositTolerance {
			return lease.Errf(lease.KindValidation, "paid amount %d does not match the agreed deposit %d", amount, *l.Terms.SecurityDeposit)
		}
		l.DepositStatus = lease.DepositPaid
		l.DepositTransactions = append(l.DepositTransactions, lease.DepositTransaction{
			ID:          uuid.NewString(),
			Amount:      amount,
			Type:        lease.DepositTxDeposit,
			Date:        now,
			Description: "security deposit paid",
			Proof:       proof,
		})
		return nil
	})
}

// ProcessDepositReturn settles the held deposit after the lease ends. It
// validates the returned amount against the deposit minus deductions,
// appends one ledger entry per deduction plus one for the return, and
// moves the deposit out of held. The held precondition is what stops a
// double call from doubling the ledger.
func (e *Engine) ProcessDepositReturn(ctx context.Context, leaseID, actorID string, returnedAmount int64, deductions []lease.Deduction) (*lease.Lease, error) {
	l, err := e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		if p != lease.PartyLandlord {
			return lease.Errf(lease.KindForbidden, "only the landlord settles the deposit")
		}
		if l.Status != lease.StatusExpired && l.Status != lease.StatusTerminated {
			return lease.Errf(lease.KindPreconditionFailed, "deposit settles after the lease ends, status is %s", l.Status)
		}
		if l.DepositStatus != lease.DepositHeld {
			return lease.ErrDepositNotHeld
		}
		if l.Terms.SecurityDeposit == nil {
			return lease.ErrTermsIncomplete
		}

		deposit := *l.Terms.SecurityDeposit
		if err := lease.ValidateReturn(deposit, returnedAmount, deductions, e.params.DepositTolerance); err != nil {
			return err
		}

		for _, d := range deductions {
			l.DepositTransactions = append(l.DepositTransactions, lease.DepositTransaction{
				ID:          uuid.NewString(),
				Amount:      d.Amount,
				Type:        lease.DepositTxDeduction,
				Date:        now,
				Description: d.Description,
				Proof:       d.Proof,
			})
		}
		if returnedAmount > 0 {
			l.DepositTransactions = append(l.DepositTransactions, lease.DepositTransaction{
				ID:          uuid.NewString(),
				Amount:      returnedAmount,
				Type:        lease.DepositTxReturn,
				Date:        now,
				Description: "security deposit returned",
			})
		}
		l.DepositStatus = lease.ReturnedStatus(deposit, returnedAmount)
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notifyParty(ctx, notify.EventDepositReturned, l, l.TenantID)
	return l, nil
}
