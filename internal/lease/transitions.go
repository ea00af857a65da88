// ABOUTME: The lease state machine as one explicit actor-gated transition table
// ABOUTME: Transition validates, applies, and appends exactly one status-history entry

package lease

import "time"

// actorClass gates who may request a transition.
type actorClass int

const (
	byLandlord actorClass = iota
	byTenant
	byEither
	bySystem
)

func (c actorClass) allows(p Party) bool {
	switch c {
	case byLandlord:
		return p == PartyLandlord
	case byTenant:
		return p == PartyTenant
	case byEither:
		return p == PartyLandlord || p == PartyTenant
	case bySystem:
		return p == PartySystem
	}
	return false
}

// rule is one permitted transition out of a status. The guard, if any, runs
// after the actor gate and reports a precondition failure.
type rule struct {
	to    Status
	actor actorClass
	guard func(l *Lease) error
}

// transitions is the single source of truth for reachable statuses.
// Cancellation is handled separately in CanTransition because it is
// permitted from every non-terminal status while the lease is unlocked.
var transitions = map[Status][]rule{
	StatusPendingRequest: {
		{StatusUnderReview, byLandlord, nil},
		{StatusApproved, byLandlord, nil},
		{StatusRejected, byLandlord, nil},
	},
	StatusUnderReview: {
		{StatusApproved, byLandlord, nil},
		{StatusRejected, byLandlord, nil},
	},
	StatusApproved: {
		{StatusDraft, byLandlord, nil},
	},
	StatusDraft: {
		{StatusSentToTenant, byLandlord, guardTermsComplete},
	},
	StatusSentToTenant: {
		{StatusChangesRequested, byTenant, nil},
		{StatusSentToLandlord, byTenant, guardTenantUnsigned},
	},
	StatusChangesRequested: {
		{StatusDraft, byLandlord, guardNoOpenChanges},
	},
	StatusSentToLandlord: {
		{StatusSignedByLandlord, byLandlord, guardLandlordUnsigned},
	},
	StatusSignedByLandlord: {
		{StatusFullyExecuted, byTenant, guardSigningOrder},
	},
	StatusFullyExecuted: {
		{StatusActive, byEither, guardMoveInComplete},
		{StatusActive, bySystem, nil},
		{StatusExpired, bySystem, nil},
	},
	StatusActive: {
		{StatusRenewalPending, byLandlord, nil},
		{StatusRenewalPending, bySystem, nil},
		{StatusNoticeGiven, byEither, nil},
		{StatusExpired, bySystem, nil},
	},
	StatusRenewalPending: {
		{StatusActive, byTenant, nil},
		{StatusNoticeGiven, byTenant, nil},
		{StatusExpired, bySystem, nil},
	},
	StatusNoticeGiven: {
		{StatusMoveOutScheduled, byEither, guardMoveOutScheduled},
	},
	StatusMoveOutScheduled: {
		{StatusTerminated, byEither, guardMoveOutConducted},
	},
}

func guardTermsComplete(l *Lease) error {
	if !l.Terms.Complete() {
		return ErrTermsIncomplete
	}
	return nil
}

func guardTenantUnsigned(l *Lease) error {
	if l.Signatures.Tenant != nil {
		return ErrAlreadySigned
	}
	return nil
}

func guardLandlordUnsigned(l *Lease) error {
	if l.Signatures.Landlord != nil {
		return ErrAlreadySigned
	}
	return nil
}

// guardSigningOrder enforces landlord-first signing for the final signature.
func guardSigningOrder(l *Lease) error {
	if l.Signatures.Landlord == nil {
		return ErrOutOfOrder
	}
	if l.Signatures.Tenant != nil {
		return ErrAlreadySigned
	}
	return nil
}

func guardNoOpenChanges(l *Lease) error {
	if l.HasOpenChanges() {
		return ErrOpenChanges
	}
	return nil
}

func guardMoveInComplete(l *Lease) error {
	if !l.Inspections.MoveIn.Complete() {
		return Errf(KindPreconditionFailed, "move-in inspection requires sign-off from both parties")
	}
	return nil
}

func guardMoveOutScheduled(l *Lease) error {
	if l.Inspections.MoveOut == nil || l.Inspections.MoveOut.ScheduledAt == nil {
		return ErrInspectionMissing
	}
	return nil
}

func guardMoveOutConducted(l *Lease) error {
	if l.Inspections.MoveOut == nil || l.Inspections.MoveOut.ConductedAt == nil {
		return Errf(KindPreconditionFailed, "move-out inspection has not been conducted")
	}
	return nil
}

// CanTransition reports whether the party may move the lease to the target
// status right now. InvalidTransition means the edge does not exist,
// Forbidden means it exists but not for this party, and a precondition error
// means the edge's guard failed.
func (l *Lease) CanTransition(to Status, p Party) error {
	if to == StatusCancelled {
		return l.canCancel(p)
	}
	rules, ok := transitions[l.Status]
	if !ok {
		return Errf(KindInvalidTransition, "no transitions out of %s", l.Status)
	}
	edgeExists := false
	var guardErr error
	for _, r := range rules {
		if r.to != to {
			continue
		}
		edgeExists = true
		if !r.actor.allows(p) {
			continue
		}
		if r.guard != nil {
			if err := r.guard(l); err != nil {
				guardErr = err
				continue
			}
		}
		return nil
	}
	if !edgeExists {
		return Errf(KindInvalidTransition, "cannot move from %s to %s", l.Status, to)
	}
	if guardErr != nil {
		return guardErr
	}
	return Errf(KindForbidden, "%s may not move the lease from %s to %s", p, l.Status, to)
}

// canCancel applies the broad cancellation guard: any non-terminal status,
// by either party, as long as signing is not complete.
func (l *Lease) canCancel(p Party) error {
	if !(byEither.allows(p)) {
		return Errf(KindForbidden, "%s may not cancel the lease", p)
	}
	if l.Status.Terminal() {
		return Errf(KindInvalidTransition, "cannot cancel a lease in terminal status %s", l.Status)
	}
	if l.IsLocked {
		return ErrNotCancellable
	}
	return nil
}

// Transition moves the lease to the target status and appends exactly one
// status-history entry. It mutates nothing on failure.
func (l *Lease) Transition(to Status, p Party, reason string, now time.Time) error {
	if err := l.CanTransition(to, p); err != nil {
		return err
	}
	l.Status = to
	l.UpdatedAt = now
	l.appendHistory(to, l.actorID(p), reason, now, nil)
	return nil
}
