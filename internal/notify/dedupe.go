// ABOUTME: Deduplicating notifier wrapper with a TTL suppression window
// ABOUTME: CAS retries and lazy re-derivation can re-fire an event; parties see it once

package notify

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/lodgekeep/lodgekeep/internal/lease"
)

// seenEntry stores the timestamp and list element for a suppressed key.
type seenEntry struct {
	timestamp time.Time
	element   *list.Element
}

// Deduper wraps a Notifier and suppresses repeats of the same
// (event, lease, recipient) triple inside the TTL window. The seen set is
// size-limited; the oldest key is evicted at capacity so memory stays
// bounded regardless of traffic.
type Deduper struct {
	next    Notifier
	mu      sync.Mutex
	seen    map[string]*seenEntry
	order   *list.List // keys in insertion order, oldest at front
	ttl     time.Duration
	maxSize int
	done    chan struct{}
	closed  bool
}

// NewDeduper wraps next with a suppression window. A background goroutine
// periodically drops expired keys.
func NewDeduper(next Notifier, ttl time.Duration, maxSize int) *Deduper {
	d := &Deduper{
		next:    next,
		seen:    make(map[string]*seenEntry),
		order:   list.New(),
		ttl:     ttl,
		maxSize: maxSize,
		done:    make(chan struct{}),
	}
	go d.cleanup()
	return d
}

// Notify implements Notifier. The first occurrence of a triple passes
// through; repeats inside the window are dropped.
func (d *Deduper) Notify(ctx context.Context, event Event, l *lease.Lease, recipientID string) {
	key := fmt.Sprintf("%s|%s|%s", event, l.ID, recipientID)
	if d.checkAndMark(key) {
		return
	}
	d.next.Notify(ctx, event, l, recipientID)
}

// checkAndMark atomically reports whether the key was already seen inside
// the window and marks it if not. A single locked operation avoids the
// race a separate check-then-mark pair would have.
func (d *Deduper) checkAndMark(key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if entry, ok := d.seen[key]; ok && time.Since(entry.timestamp) < d.ttl {
		return true
	}

	now := time.Now()
	if entry, exists := d.seen[key]; exists {
		// Expired entry for the same key: refresh it in place.
		entry.timestamp = now
		d.order.MoveToBack(entry.element)
		return false
	}

	if len(d.seen) >= d.maxSize {
		d.evictOldest()
	}

	elem := d.order.PushBack(key)
	d.seen[key] = &seenEntry{timestamp: now, element: elem}
	return false
}

// evictOldest removes the oldest key. Must be called with mu held.
func (d *Deduper) evictOldest() {
	front := d.order.Front()
	if front == nil {
		return
	}
	key, _ := front.Value.(string)
	d.order.Remove(front)
	delete(d.seen, key)
}

func (d *Deduper) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.runCleanup()
		case <-d.done:
			return
		}
	}
}

func (d *Deduper) runCleanup() {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := time.Now()
	for key, entry := range d.seen {
		if now.Sub(entry.timestamp) > d.ttl {
			d.order.Remove(entry.element)
			delete(d.seen, key)
		}
	}
}

// Close stops the background cleanup goroutine. Safe to call multiple times.
func (d *Deduper) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.closed {
		close(d.done)
		d.closed = true
	}
}
