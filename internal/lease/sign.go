// ABOUTME: Signing sub-protocol: write-once slots, landlord-first order, lock on completion
// ABOUTME: CanSign validates without mutating; ApplySignature writes the slot and advances status

package lease

import "time"

// CanSign validates a signature attempt without mutating the lease. The
// ordering rule is checked before the status machine so tenant-first
// attempts always surface as OutOfOrder, whatever the current status.
func (l *Lease) CanSign(p Party) error {
	if p != PartyLandlord && p != PartyTenant {
		return ErrNotParty
	}
	if l.IsLocked {
		return ErrAlreadyLocked
	}
	if l.Signatures.For(p) != nil {
		return ErrAlreadySigned
	}
	if p == PartyTenant && l.Signatures.Landlord == nil {
		return ErrOutOfOrder
	}
	return l.CanTransition(l.signTarget(p), p)
}

// signTarget is the status a successful signature advances to.
func (l *Lease) signTarget(p Party) Status {
	if p == PartyLandlord {
		return StatusSignedByLandlord
	}
	return StatusFullyExecuted
}

// ApplySignature writes the party's signature slot and advances the status.
// The tenant signature completes signing: the lease locks and terms become
// immutable. Callers must have uploaded the signature binary already; this
// only records the stored reference.
func (l *Lease) ApplySignature(p Party, sig Signature, now time.Time) error {
	if err := l.CanSign(p); err != nil {
		return err
	}
	// The transition guards require the slot to still be empty, so the
	// status moves first and the slot is written only on success.
	switch p {
	case PartyLandlord:
		if err := l.Transition(StatusSignedByLandlord, p, "landlord signed", now); err != nil {
			return err
		}
		l.Signatures.Landlord = &sig
	case PartyTenant:
		if err := l.Transition(StatusFullyExecuted, p, "tenant signed, lease fully executed", now); err != nil {
			return err
		}
		l.Signatures.Tenant = &sig
		l.IsLocked = true
		l.LockedAt = &now
	}
	return nil
}
