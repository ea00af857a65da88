// ABOUTME: Inspection scheduling and conduct for move-in, move-out, and periodic walkthroughs
// ABOUTME: Move-in completion activates the lease; move-out conduct clears the path to termination

package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/lodgekeep/lodgekeep/internal/lease"
	"github.com/lodgekeep/lodgekeep/internal/notify"
	"github.com/lodgekeep/lodgekeep/internal/upload"
)

// ScheduleInspection books a walkthrough slot. Move-in schedules during
// fully_executed, move-out after notice; scheduling the move-out
// inspection on a notice_given lease also moves it to move_out_scheduled.
// A slot can be rescheduled until it has been conducted.
func (e *Engine) ScheduleInspection(ctx context.Context, leaseID, actorID string, kind lease.InspectionKind, at time.Time) (*lease.Lease, error) {
	return e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		switch kind {
		case lease.InspectionMoveIn:
			if l.Status != lease.StatusFullyExecuted {
				return lease.Errf(lease.KindPreconditionFailed, "move-in inspection requires a fully executed lease, status is %s", l.Status)
			}
			if l.Inspections.MoveIn != nil && l.Inspections.MoveIn.ConductedAt != nil {
				return lease.Errf(lease.KindPreconditionFailed, "move-in inspection was already conducted")
			}
			l.Inspections.MoveIn = &lease.Inspection{Kind: kind, ScheduledAt: &at}
			return nil

		case lease.InspectionMoveOut:
			if l.Status != lease.StatusNoticeGiven && l.Status != lease.StatusMoveOutScheduled {
				return lease.Errf(lease.KindPreconditionFailed, "move-out inspection requires notice, status is %s", l.Status)
			}
			if l.Inspections.MoveOut != nil && l.Inspections.MoveOut.ConductedAt != nil {
				return lease.Errf(lease.KindPreconditionFailed, "move-out inspection was already conducted")
			}
			l.Inspections.MoveOut = &lease.Inspection{Kind: kind, ScheduledAt: &at}
			if l.Status == lease.StatusNoticeGiven {
				return l.Transition(lease.StatusMoveOutScheduled, p, "move-out inspection scheduled", now)
			}
			return nil

		case lease.InspectionPeriodic:
			if l.Status != lease.StatusActive && l.Status != lease.StatusRenewalPending {
				return lease.Errf(lease.KindPreconditionFailed, "periodic inspections run on active leases only")
			}
			l.Inspections.Periodic = append(l.Inspections.Periodic, lease.Inspection{Kind: kind, ScheduledAt: &at})
			return nil
		}
		return lease.Errf(lease.KindValidation, "unknown inspection kind %q", kind)
	})
}

// ConductRequest is a walkthrough report. Photos are raw image bytes,
// uploaded before anything persists. Damages apply to move-out only.
type ConductRequest struct {
	Report  string
	Photos  [][]byte
	Damages []lease.Damage
}

// ConductInspection records the walkthrough and the acting party's
// sign-off. The first call fills in the report; the counterparty's later
// call adds the second sign-off. A complete move-in inspection activates
// the lease, and a conducted move-out inspection terminates a
// move_out_scheduled lease.
func (e *Engine) ConductInspection(ctx context.Context, leaseID, actorID string, kind lease.InspectionKind, req ConductRequest) (*lease.Lease, error) {
	if kind != lease.InspectionMoveIn && kind != lease.InspectionMoveOut {
		return nil, lease.Errf(lease.KindValidation, "only move-in and move-out inspections are conducted through this operation")
	}
	if kind == lease.InspectionMoveIn && len(req.Damages) > 0 {
		return nil, lease.Errf(lease.KindValidation, "damages are recorded on move-out inspections only")
	}
	for _, d := range req.Damages {
		if d.EstimatedCost < 0 {
			return nil, lease.Errf(lease.KindValidation, "damage cost cannot be negative")
		}
	}

	var photoURLs []string
	activated := false
	l, err := e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		insp := l.Inspection(kind)
		if insp == nil || insp.ScheduledAt == nil {
			return lease.ErrInspectionMissing
		}
		if insp.Complete() {
			return lease.Errf(lease.KindPreconditionFailed, "inspection is already signed off by both parties")
		}

		// Upload once; retry rounds reuse the stored URLs.
		if photoURLs == nil && len(req.Photos) > 0 {
			for _, photo := range req.Photos {
				res, err := e.uploads.Store(ctx, photo, fmt.Sprintf("inspections/%s", l.ID), upload.KindPhoto)
				if err != nil {
					return err
				}
				photoURLs = append(photoURLs, res.URL)
			}
		}

		if insp.ConductedAt == nil {
			insp.ConductedAt = &now
			insp.ConductedBy = actorID
			insp.Report = req.Report
			insp.Photos = append(insp.Photos, photoURLs...)
			if kind == lease.InspectionMoveOut {
				insp.Damages = req.Damages
			}
		}

		switch p {
		case lease.PartyLandlord:
			insp.SignedByLandlord = true
		case lease.PartyTenant:
			insp.SignedByTenant = true
		}

		if kind == lease.InspectionMoveIn && insp.Complete() && l.Status == lease.StatusFullyExecuted {
			if err := l.Transition(lease.StatusActive, p, "move-in inspection complete", now); err != nil {
				return err
			}
			if l.DepositStatus == lease.DepositPaid {
				l.DepositStatus = lease.DepositHeld
			}
			activated = true
		}
		if kind == lease.InspectionMoveOut && l.Status == lease.StatusMoveOutScheduled {
			return l.Transition(lease.StatusTerminated, p, "move-out inspection conducted", now)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if activated {
		e.notifyParty(ctx, notify.EventLeaseActivated, l, l.LandlordID)
		e.notifyParty(ctx, notify.EventLeaseActivated, l, l.TenantID)
	}
	return l, nil
}
