// ABOUTME: File upload capability used to persist signature images and documents
// ABOUTME: Defines the Uploader contract plus a resty client for the media service

package upload

import (
	"context"
	"encoding/base64"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/lodgekeep/lodgekeep/internal/lease"
)

// Kind tells the media service how to treat the payload.
type Kind string

const (
	KindSignature Kind = "signature"
	KindDocument  Kind = "document"
	KindPhoto     Kind = "photo"
)

// Result identifies a stored file. PublicID is the media service's
// handle, used for later deletion.
type Result struct {
	URL      string `json:"url"`
	PublicID string `json:"publicId"`
}

// Uploader stores a binary payload under a logical folder and returns
// where it landed.
type Uploader interface {
	Store(ctx context.Context, data []byte, folder string, kind Kind) (*Result, error)
}

// HTTPUploader talks to the platform media service.
type HTTPUploader struct {
	http   *resty.Client
	logger *slog.Logger
}

// NewHTTPUploader creates a client for the given media service base URL.
func NewHTTPUploader(baseURL string, logger *slog.Logger) *HTTPUploader {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &HTTPUploader{
		http:   client,
		logger: logger.With("component", "upload"),
	}
}

type uploadRequest struct {
	Data   string `json:"data"`
	Folder string `json:"folder"`
	Kind   Kind   `json:"kind"`
}

// Store uploads the payload, base64-encoded, and returns its location.
func (u *HTTPUploader) Store(ctx context.Context, data []byte, folder string, kind Kind) (*Result, error) {
	if len(data) == 0 {
		return nil, lease.Errf(lease.KindValidation, "upload payload is empty")
	}

	req := uploadRequest{
		Data:   base64.StdEncoding.EncodeToString(data),
		Folder: folder,
		Kind:   kind,
	}

	var result Result
	resp, err := u.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&result).
		Post("/api/uploads")
	if err != nil {
		u.logger.Error("upload failed", "folder", folder, "kind", kind, "error", err)
		return nil, lease.Errf(lease.KindUpstreamFailure, "media service unavailable: %v", err)
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		u.logger.Error("upload failed", "folder", folder, "kind", kind, "status", resp.StatusCode())
		return nil, lease.Errf(lease.KindUpstreamFailure, "media service returned %d", resp.StatusCode())
	}

	u.logger.Debug("stored file", "folder", folder, "kind", kind, "public_id", result.PublicID)
	return &result, nil
}
