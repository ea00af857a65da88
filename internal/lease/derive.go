// ABOUTME: Lazy state-correction rules applied on every load and before every write
// ABOUTME: Activation, expiry, and renewal auto-notice; each idempotent by construction

package lease

import (
	"time"

	"github.com/google/uuid"
)

// Derive applies the lazy derivation rules in order and reports whether the
// lease changed. It is idempotent: a second call with the same clock is a
// no-op. renewalWindow is how far before the end date the renewal cycle
// starts.
func Derive(l *Lease, now time.Time, renewalWindow time.Duration) bool {
	changed := deriveActivation(l, now)
	changed = deriveExpiry(l, now) || changed
	changed = deriveRenewalNotice(l, now, renewalWindow) || changed
	return changed
}

// deriveActivation flips fully_executed to active once the start date has
// passed, and moves a paid deposit to held since the landlord now holds it
// against the occupied property.
func deriveActivation(l *Lease, now time.Time) bool {
	if l.Status != StatusFullyExecuted {
		return false
	}
	if l.Terms.StartDate == nil || now.Before(*l.Terms.StartDate) {
		return false
	}
	if l.Terms.EndDate != nil && now.After(*l.Terms.EndDate) {
		// Past the whole term; deriveExpiry owns this case.
		return false
	}
	if err := l.Transition(StatusActive, PartySystem, "start date reached", now); err != nil {
		return false
	}
	if l.DepositStatus == DepositPaid {
		l.DepositStatus = DepositHeld
	}
	return true
}

// deriveExpiry flips a lease past its end date to expired. A pending or
// offered renewal that was never accepted expires with it.
func deriveExpiry(l *Lease, now time.Time) bool {
	switch l.Status {
	case StatusActive, StatusFullyExecuted, StatusRenewalPending:
	default:
		return false
	}
	if l.Terms.EndDate == nil || !now.After(*l.Terms.EndDate) {
		return false
	}
	if err := l.Transition(StatusExpired, PartySystem, "end date passed", now); err != nil {
		return false
	}
	if l.Renewal.Status == RenewalPending || l.Renewal.Status == RenewalOffered {
		l.Renewal.Status = RenewalExpired
	}
	if l.DepositStatus == DepositPaid {
		l.DepositStatus = DepositHeld
	}
	return true
}

// deriveRenewalNotice auto-appends a renewal notice once an active lease is
// within the renewal window, guarded by "does a renewal notice already
// exist" so repeated evaluation stays idempotent.
func deriveRenewalNotice(l *Lease, now time.Time, renewalWindow time.Duration) bool {
	if l.Status != StatusActive {
		return false
	}
	if l.Terms.EndDate == nil || l.Terms.EndDate.Sub(now) > renewalWindow {
		return false
	}
	if l.HasNotice(NoticeRenewal) {
		return false
	}
	if err := l.Transition(StatusRenewalPending, PartySystem, "renewal window reached", now); err != nil {
		return false
	}
	n := Notice{
		ID:            uuid.NewString(),
		Type:          NoticeRenewal,
		GivenBy:       SystemActorID,
		GivenAt:       now,
		EffectiveDate: l.Terms.EndDate,
		Reason:        "lease term ending soon",
	}
	l.Notices = append(l.Notices, n)
	l.Renewal.Status = RenewalPending
	l.Renewal.NoticeID = n.ID
	return true
}
