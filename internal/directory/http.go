// ABOUTME: Resty-backed clients for the identity and property services
// ABOUTME: Wraps their REST APIs, mapping 404s and transport failures to lease error kinds

package directory

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lodgekeep/lodgekeep/internal/lease"
)

// HTTPDirectory resolves users and properties over the platform's
// internal REST services.
type HTTPDirectory struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewHTTPDirectory creates a client for the given base URL, e.g.
// "http://directory.internal:8080".
func NewHTTPDirectory(baseURL string, logger *slog.Logger) *HTTPDirectory {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500 * time.Millisecond).
		SetHeader("Accept", "application/json")

	return &HTTPDirectory{
		http:   client,
		logger: logger.With("component", "directory"),
	}
}

// ResolveUser fetches the identity record for a user id.
func (d *HTTPDirectory) ResolveUser(ctx context.Context, id string) (*User, error) {
	var user User
	resp, err := d.http.R().
		SetContext(ctx).
		SetResult(&user).
		Get(fmt.Sprintf("/api/users/%s", id))
	if err != nil {
		d.logger.Error("user lookup failed", "user_id", id, "error", err)
		return nil, lease.Errf(lease.KindUpstreamFailure, "identity directory unavailable: %v", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, lease.Errf(lease.KindNotFound, "user %s not found", id)
	}
	if resp.IsError() {
		d.logger.Error("user lookup failed", "user_id", id, "status", resp.StatusCode())
		return nil, lease.Errf(lease.KindUpstreamFailure, "identity directory returned %d", resp.StatusCode())
	}
	return &user, nil
}

// ResolveProperty fetches the catalog record for a property id.
func (d *HTTPDirectory) ResolveProperty(ctx context.Context, id string) (*Property, error) {
	var prop Property
	resp, err := d.http.R().
		SetContext(ctx).
		SetResult(&prop).
		Get(fmt.Sprintf("/api/properties/%s", id))
	if err != nil {
		d.logger.Error("property lookup failed", "property_id", id, "error", err)
		return nil, lease.Errf(lease.KindUpstreamFailure, "property catalog unavailable: %v", err)
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, lease.Errf(lease.KindNotFound, "property %s not found", id)
	}
	if resp.IsError() {
		d.logger.Error("property lookup failed", "property_id", id, "status", resp.StatusCode())
		return nil, lease.Errf(lease.KindUpstreamFailure, "property catalog returned %d", resp.StatusCode())
	}
	return &prop, nil
}
