// ABOUTME: Formal notices and the renewal offer/response exchange
// ABOUTME: Termination notices change status immediately; renewal offers await the tenant

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lodgekeep/lodgekeep/internal/lease"
	"github.com/lodgekeep/lodgekeep/internal/notify"
)

// NoticeRequest is a formal notice from one party. NewRentAmount and
// NewEndDate accompany renewal offers only.
type NoticeRequest struct {
	Type          lease.NoticeType
	EffectiveDate *time.Time
	Reason        string
	NewRentAmount int64
	NewEndDate    *time.Time
}

// GiveNotice records a formal notice. A termination notice moves the lease
// to notice_given at once. A renewal offer from the landlord is accepted
// only once the configured window before the end date has opened; it sets
// the renewal sub-state to offered with a response deadline and, when the
// lease is still plain active, parks it in renewal_pending.
func (e *Engine) GiveNotice(ctx context.Context, leaseID, actorID string, req NoticeRequest) (*lease.Lease, error) {
	switch req.Type {
	case lease.NoticeTermination, lease.NoticeRenewal:
	default:
		return nil, lease.Errf(lease.KindValidation, "notice type must be renewal or termination, got %q", req.Type)
	}
	if req.Type == lease.NoticeRenewal && req.NewRentAmount < 0 {
		return nil, lease.Errf(lease.KindValidation, "offered rent cannot be negative")
	}

	l, err := e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		notice := lease.Notice{
			ID:            uuid.NewString(),
			Type:          req.Type,
			GivenBy:       actorID,
			GivenAt:       now,
			EffectiveDate: req.EffectiveDate,
			Reason:        req.Reason,
		}

		switch req.Type {
		case lease.NoticeTermination:
			if err := l.Transition(lease.StatusNoticeGiven, p, "termination notice given", now); err != nil {
				return err
			}
			l.Notices = append(l.Notices, notice)
			return nil

		case lease.NoticeRenewal:
			if p != lease.PartyLandlord {
				return lease.Errf(lease.KindForbidden, "only the landlord offers a renewal")
			}
			if l.Renewal.Status == lease.RenewalOffered {
				return lease.Errf(lease.KindPreconditionFailed, "a renewal offer is already outstanding")
			}
			if l.Terms.EndDate != nil {
				opens := l.Terms.EndDate.Add(-e.renewalWindow())
				if now.Before(opens) {
					return lease.Errf(lease.KindPreconditionFailed,
						"renewal window opens %s, %d days before the end date",
						opens.Format("2006-01-02"), e.params.RenewalWindowDays)
				}
			}
			switch l.Status {
			case lease.StatusActive:
				if err := l.Transition(lease.StatusRenewalPending, p, "renewal offered", now); err != nil {
					return err
				}
			case lease.StatusRenewalPending:
				// Auto-notice already parked the lease; this call upgrades
				// the pending renewal into a concrete offer.
			default:
				return lease.Errf(lease.KindPreconditionFailed, "renewals are offered on active leases only, status is %s", l.Status)
			}
			respondBy := now.AddDate(0, 0, e.params.RenewalResponseDays)
			l.Notices = append(l.Notices, notice)
			l.Renewal = lease.Renewal{
				Status:        lease.RenewalOffered,
				OfferedAt:     &now,
				RespondBy:     &respondBy,
				NewRentAmount: req.NewRentAmount,
				NewEndDate:    req.NewEndDate,
				NoticeID:      notice.ID,
			}
			return nil
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	event := notify.EventNoticeGiven
	if req.Type == lease.NoticeRenewal {
		event = notify.EventRenewalOffered
	}
	e.notifyParty(ctx, event, l, otherParty(l, l.PartyOf(actorID)))
	return l, nil
}

// RenewalAction is the tenant's answer to a renewal offer.
type RenewalAction string

const (
	RenewalAccept  RenewalAction = "accept"
	RenewalDecline RenewalAction = "decline"
)

// RespondToRenewal settles an outstanding renewal offer. Accepting writes
// the renewed rent and end date onto the lease and records an addendum;
// the signing lock does not apply because the renewal is itself the
// agreed amendment. Declining schedules the wind-down via notice_given.
func (e *Engine) RespondToRenewal(ctx context.Context, leaseID, actorID string, action RenewalAction, newRentAmount int64, newEndDate *time.Time) (*lease.Lease, error) {
	if action != RenewalAccept && action != RenewalDecline {
		return nil, lease.Errf(lease.KindValidation, "renewal action must be accept or decline, got %q", action)
	}
	if newRentAmount < 0 {
		return nil, lease.Errf(lease.KindValidation, "rent amount cannot be negative")
	}

	return e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		if p != lease.PartyTenant {
			return lease.Errf(lease.KindForbidden, "only the tenant responds to a renewal offer")
		}
		if l.Renewal.Status != lease.RenewalOffered {
			return lease.ErrNoRenewalOffer
		}

		switch action {
		case RenewalAccept:
			rent := newRentAmount
			if rent == 0 {
				rent = l.Renewal.NewRentAmount
			}
			endDate := newEndDate
			if endDate == nil {
				endDate = l.Renewal.NewEndDate
			}
			if endDate == nil {
				return lease.Errf(lease.KindValidation, "a renewed end date is required to accept")
			}
			if err := l.Transition(lease.StatusActive, p, "renewal accepted", now); err != nil {
				return err
			}
			if rent > 0 {
				l.Terms.RentAmount = rent
			}
			l.Terms.EndDate = endDate
			l.Renewal.Status = lease.RenewalAccepted
			l.Addenda = append(l.Addenda, lease.Addendum{
				ID:        uuid.NewString(),
				Title:     "Lease renewal",
				Body:      renewalAddendumBody(l.Terms.RentAmount, *endDate),
				CreatedBy: actorID,
				CreatedAt: now,
			})
			acknowledgeNotice(l, l.Renewal.NoticeID)
			return nil

		case RenewalDecline:
			if err := l.Transition(lease.StatusNoticeGiven, p, "renewal declined", now); err != nil {
				return err
			}
			l.Renewal.Status = lease.RenewalDeclined
			acknowledgeNotice(l, l.Renewal.NoticeID)
			return nil
		}
		return nil
	})
}

func acknowledgeNotice(l *lease.Lease, noticeID string) {
	for i := range l.Notices {
		if l.Notices[i].ID == noticeID {
			l.Notices[i].Acknowledged = true
			return
		}
	}
}

func renewalAddendumBody(rent int64, endDate time.Time) string {
	return fmt.Sprintf("The term is renewed through %s at a rent of %d per period. All other terms continue unchanged.",
		endDate.Format("2006-01-02"), rent)
}
