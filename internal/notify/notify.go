// ABOUTME: Best-effort party notifications for lease lifecycle events
// ABOUTME: Failures are swallowed after logging; notifications never fail a primary operation

package notify

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lodgekeep/lodgekeep/internal/lease"
)

// Event names a lifecycle moment worth telling a party about.
type Event string

const (
	EventApplicationReceived Event = "application_received"
	EventApplicationDecided  Event = "application_decided"
	EventDraftSent           Event = "draft_sent"
	EventChangesRequested    Event = "changes_requested"
	EventReadyToSign         Event = "ready_to_sign"
	EventFullyExecuted       Event = "fully_executed"
	EventLeaseActivated      Event = "lease_activated"
	EventNoticeGiven         Event = "notice_given"
	EventRenewalOffered      Event = "renewal_offered"
	EventLeaseCancelled      Event = "lease_cancelled"
	EventDepositReturned     Event = "deposit_returned"
	EventMessagePosted       Event = "message_posted"
)

// Notifier delivers an event about a lease to one of its parties.
// Implementations must not block callers for long and must not return
// errors that would abort the triggering operation.
type Notifier interface {
	Notify(ctx context.Context, event Event, l *lease.Lease, recipientID string)
}

// LogNotifier writes notifications to the structured log. It stands in
// for the platform's email and push channels, which live outside this
// service.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier wraps the given logger.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.With("component", "notify")}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, event Event, l *lease.Lease, recipientID string) {
	n.logger.Info("notification",
		"event", string(event),
		"lease_id", l.ID,
		"status", string(l.Status),
		"recipient", recipientID,
	)
}

// Recorded is one notification captured by the fake.
type Recorded struct {
	Event       Event
	LeaseID     string
	RecipientID string
}

// Fake collects notifications for tests. Safe for concurrent use.
type Fake struct {
	mu     sync.Mutex
	events []Recorded
}

// NewFake creates an empty fake notifier.
func NewFake() *Fake {
	return &Fake{}
}

// Notify implements Notifier.
func (f *Fake) Notify(ctx context.Context, event Event, l *lease.Lease, recipientID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, Recorded{Event: event, LeaseID: l.ID, RecipientID: recipientID})
}

// Events returns everything recorded so far.
func (f *Fake) Events() []Recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Recorded, len(f.events))
	copy(out, f.events)
	return out
}
