// ABOUTME: Lease engine wiring store, collaborators, and the mutate pipeline
// ABOUTME: Every operation loads fresh, derives, authorizes, mutates, and persists one document

package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lodgekeep/lodgekeep/internal/directory"
	"github.com/lodgekeep/lodgekeep/internal/lease"
	"github.com/lodgekeep/lodgekeep/internal/notify"
	"github.com/lodgekeep/lodgekeep/internal/payments"
	"github.com/lodgekeep/lodgekeep/internal/store"
	"github.com/lodgekeep/lodgekeep/internal/upload"
)

// casRetries bounds the reload-and-retry loop on version conflicts.
const casRetries = 3

// Params are the tunable engine conventions. Zero values fall back to
// the platform defaults.
type Params struct {
	RenewalWindowDays   int   // days before endDate the renewal notice auto-creates (default 60)
	RenewalResponseDays int   // tenant response deadline on a renewal offer (default 30)
	DepositTolerance    int64 // currency-unit tolerance on deposit return amounts (default 1)
}

func (p Params) withDefaults() Params {
	if p.RenewalWindowDays <= 0 {
		p.RenewalWindowDays = 60
	}
	if p.RenewalResponseDays <= 0 {
		p.RenewalResponseDays = 30
	}
	if p.DepositTolerance <= 0 {
		p.DepositTolerance = 1
	}
	return p
}

// Engine owns the lease aggregate. All mutation flows through it; the
// identity directory and property catalog are read-only inputs.
type Engine struct {
	store    store.Store
	users    directory.IdentityDirectory
	catalog  directory.PropertyCatalog
	uploads  upload.Uploader
	refunds  payments.Refunder
	notifier notify.Notifier
	params   Params
	logger   *slog.Logger

	// clock is swapped in tests to pin derivation boundaries.
	clock func() time.Time
}

// New assembles an engine. All collaborators are required.
func New(
	st store.Store,
	users directory.IdentityDirectory,
	catalog directory.PropertyCatalog,
	uploads upload.Uploader,
	refunds payments.Refunder,
	notifier notify.Notifier,
	params Params,
	logger *slog.Logger,
) *Engine {
	return &Engine{
		store:    st,
		users:    users,
		catalog:  catalog,
		uploads:  uploads,
		refunds:  refunds,
		notifier: notifier,
		params:   params.withDefaults(),
		logger:   logger.With("component", "engine"),
		clock:    time.Now,
	}
}

func (e *Engine) renewalWindow() time.Duration {
	return time.Duration(e.params.RenewalWindowDays) * 24 * time.Hour
}

// mutateFunc mutates the freshly loaded aggregate. Implementations must
// validate before mutating and leave the lease untouched on error; the
// pipeline may still persist lazily derived state after a failure.
type mutateFunc func(l *lease.Lease, p lease.Party, now time.Time) error

// mutate is the write pipeline: load, derive, resolve the acting party,
// apply fn, persist. A version conflict reloads and reapplies, so a lost
// race revalidates against the winner's state instead of clobbering it.
func (e *Engine) mutate(ctx context.Context, leaseID, actorID string, fn mutateFunc) (*lease.Lease, error) {
	var lastErr error
	for attempt := 0; attempt < casRetries; attempt++ {
		l, err := e.store.GetLease(ctx, leaseID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return nil, lease.ErrNotFound
			}
			return nil, fmt.Errorf("loading lease: %w", err)
		}

		now := e.clock()
		derived := lease.Derive(l, now, e.renewalWindow())

		p := l.PartyOf(actorID)
		if p == lease.PartyNone {
			return nil, lease.ErrNotParty
		}

		if err := fn(l, p, now); err != nil {
			if derived {
				e.persistDerived(ctx, l)
			}
			return nil, err
		}

		l.UpdatedAt = now
		if err := e.store.UpdateLease(ctx, l); err != nil {
			if errors.Is(err, store.ErrVersionConflict) {
				lastErr = err
				continue
			}
			return nil, fmt.Errorf("persisting lease: %w", err)
		}
		return l, nil
	}
	return nil, fmt.Errorf("lease %s: retries exhausted: %w", leaseID, lastErr)
}

// persistDerived writes lazily derived state even though the requested
// operation failed. Losing this write is harmless; derivation reapplies
// on the next load.
func (e *Engine) persistDerived(ctx context.Context, l *lease.Lease) {
	if err := e.store.UpdateLease(ctx, l); err != nil && !errors.Is(err, store.ErrVersionConflict) {
		e.logger.Warn("persisting derived state failed", "lease_id", l.ID, "error", err)
	}
}

// notifyParty is fire-and-forget; notification failures never surface.
func (e *Engine) notifyParty(ctx context.Context, event notify.Event, l *lease.Lease, recipientID string) {
	if e.notifier == nil || recipientID == "" {
		return
	}
	e.notifier.Notify(ctx, event, l, recipientID)
}

// otherParty returns the counterparty's user id.
func otherParty(l *lease.Lease, p lease.Party) string {
	if p == lease.PartyLandlord {
		return l.TenantID
	}
	return l.LandlordID
}
