// ABOUTME: Party messaging on a lease: post, attach files, mark read
// ABOUTME: Messages are a side channel; no transition logic reads them

package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lodgekeep/lodgekeep/internal/lease"
	"github.com/lodgekeep/lodgekeep/internal/notify"
	"github.com/lodgekeep/lodgekeep/internal/upload"
)

// AddMessage posts a message from one party to the lease thread.
// Attachments are uploaded before anything persists.
func (e *Engine) AddMessage(ctx context.Context, leaseID, actorID, text string, attachments [][]byte) (*lease.Lease, error) {
	if strings.TrimSpace(text) == "" && len(attachments) == 0 {
		return nil, lease.Errf(lease.KindValidation, "a message needs text or an attachment")
	}

	var urls []string
	l, err := e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		if urls == nil && len(attachments) > 0 {
			for _, a := range attachments {
				res, err := e.uploads.Store(ctx, a, fmt.Sprintf("messages/%s", l.ID), upload.KindDocument)
				if err != nil {
					return err
				}
				urls = append(urls, res.URL)
			}
		}
		l.Messages = append(l.Messages, lease.Message{
			ID:          uuid.NewString(),
			From:        actorID,
			Text:        text,
			Attachments: urls,
			SentAt:      now,
			ReadBy:      []string{actorID},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	e.notifyParty(ctx, notify.EventMessagePosted, l, otherParty(l, l.PartyOf(actorID)))
	return l, nil
}

// MarkMessagesRead stamps the actor on every message they have not read.
func (e *Engine) MarkMessagesRead(ctx context.Context, leaseID, actorID string) (*lease.Lease, error) {
	return e.mutate(ctx, leaseID, actorID, func(l *lease.Lease, p lease.Party, now time.Time) error {
		for i := range l.Messages {
			if !slices.Contains(l.Messages[i].ReadBy, actorID) {
				l.Messages[i].ReadBy = append(l.Messages[i].ReadBy, actorID)
			}
		}
		return nil
	})
}
