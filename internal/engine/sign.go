// ABOUTME: Signature capture: validate, upload the blob, then persist all-or-nothing
// ABOUTME: An upload failure or version conflict leaves the lease untouched

package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lodgekeep/lodgekeep/internal/lease"
	"github.com/lodgekeep/lodgekeep/internal/notify"
	"github.com/lodgekeep/lodgekeep/internal/upload"
)

// SignRequest is one party's signature submission. Blob carries the image
// bytes for draw and upload modes; TypedText carries the literal text for
// type mode.
type SignRequest struct {
	Mode      lease.SignatureMode
	Blob      []byte
	TypedText string
	IPAddress string
	UserAgent string
}

func (r SignRequest) validate() error {
	switch r.Mode {
	case lease.SignatureDraw, lease.SignatureUpload:
		if len(r.Blob) == 0 {
			return lease.Errf(lease.KindValidation, "signature image is required for %s mode", r.Mode)
		}
	case lease.SignatureTyped:
		if strings.TrimSpace(r.TypedText) == "" {
			return lease.Errf(lease.KindValidation, "typed signature text is required")
		}
	default:
		return lease.Errf(lease.KindValidation, "unknown signature mode %q", r.Mode)
	}
	return nil
}

// SignResult is the outcome of a successful signature.
type SignResult struct {
	Lease         *lease.Lease
	IsFullySigned bool
}

// Sign records the actor's signature and advances the status machine.
// Ordering and slot rules live in the lease package; this layer sequences
// validate, upload, persist so an upload failure or a lost write race
// never leaves a half-signed lease. The uploaded blob is cached across
// retry rounds so a version conflict does not upload twice.
func (e *Engine) Sign(ctx context.Context, leaseID, actorID string, req SignRequest) (*SignResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	var stored *upload.Result
	l, err := e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		if err := l.CanSign(p); err != nil {
			return err
		}

		data := req.TypedText
		if req.Mode != lease.SignatureTyped {
			if stored == nil {
				res, err := e.uploads.Store(ctx, req.Blob, fmt.Sprintf("signatures/%s", l.ID), upload.KindSignature)
				if err != nil {
					return err
				}
				stored = res
			}
			data = stored.URL
		}

		sig := lease.Signature{
			SignedAt:  now,
			Mode:      req.Mode,
			Data:      data,
			IPAddress: req.IPAddress,
			UserAgent: req.UserAgent,
		}
		if err := l.ApplySignature(p, sig, now); err != nil {
			return err
		}

		l.Messages = append(l.Messages, lease.Message{
			ID:     uuid.NewString(),
			From:   lease.SystemActorID,
			Text:   fmt.Sprintf("%s signed the lease", p),
			SentAt: now,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.logger.Info("lease signed", "lease_id", l.ID, "status", string(l.Status), "locked", l.IsLocked)
	if l.Status == lease.StatusFullyExecuted {
		e.notifyParty(ctx, notify.EventFullyExecuted, l, l.LandlordID)
		e.notifyParty(ctx, notify.EventFullyExecuted, l, l.TenantID)
	} else {
		e.notifyParty(ctx, notify.EventReadyToSign, l, l.TenantID)
	}
	return &SignResult{Lease: l, IsFullySigned: l.Signatures.Complete()}, nil
}
