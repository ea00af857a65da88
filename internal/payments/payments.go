// ABOUTME: Payment provider capability for deposit refund requests
// ABOUTME: Refunds are best-effort and asynchronous; failures are logged, never surfaced

package payments

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lodgekeep/lodgekeep/internal/lease"
)

// Refunder asks the payment provider to return a held amount to the
// tenant. Amount is in minor currency units.
type Refunder interface {
	RequestRefund(ctx context.Context, leaseID string, amount int64) error
}

// HTTPRefunder talks to the platform payment service.
type HTTPRefunder struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewHTTPRefunder creates a client for the given payment service base URL.
func NewHTTPRefunder(baseURL string, logger *slog.Logger) *HTTPRefunder {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(time.Second).
		SetHeader("Content-Type", "application/json")

	return &HTTPRefunder{
		http:   client,
		logger: logger.With("component", "payments"),
	}
}

type refundRequest struct {
	LeaseID string `json:"leaseId"`
	Amount  int64  `json:"amount"`
}

// RequestRefund submits a refund for the lease's deposit.
func (r *HTTPRefunder) RequestRefund(ctx context.Context, leaseID string, amount int64) error {
	resp, err := r.http.R().
		SetContext(ctx).
		SetBody(refundRequest{LeaseID: leaseID, Amount: amount}).
		Post("/api/refunds")
	if err != nil {
		r.logger.Error("refund request failed", "lease_id", leaseID, "amount", amount, "error", err)
		return lease.Errf(lease.KindUpstreamFailure, "payment service unavailable: %v", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		r.logger.Error("refund request failed", "lease_id", leaseID, "amount", amount, "status", resp.StatusCode())
		return lease.Errf(lease.KindUpstreamFailure, "payment service returned %d", resp.StatusCode())
	}
	r.logger.Info("refund requested", "lease_id", leaseID, "amount", amount)
	return nil
}

// Fake records refund requests for tests. Safe for concurrent use.
type Fake struct {
	mu       sync.Mutex
	requests []refundRequest
	Fail     bool
}

// NewFake creates an empty fake refunder.
func NewFake() *Fake {
	return &Fake{}
}

// RequestRefund implements Refunder.
func (f *Fake) RequestRefund(ctx context.Context, leaseID string, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return lease.Errf(lease.KindUpstreamFailure, "payment service unavailable")
	}
	f.requests = append(f.requests, refundRequest{LeaseID: leaseID, Amount: amount})
	return nil
}

// Requests returns the refunds requested so far as (leaseID, amount) pairs.
func (f *Fake) Requests() []struct {
	LeaseID string
	Amount  int64
} {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]struct {
		LeaseID string
		Amount  int64
	}, len(f.requests))
	for i, r := range f.requests {
		out[i].LeaseID = r.LeaseID
		out[i].Amount = r.Amount
	}
	return out
}
