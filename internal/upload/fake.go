// ABOUTME: In-memory Uploader for tests and local development
// ABOUTME: Records every stored payload and can be told to fail

package upload

import (
	"context"
	"fmt"
	"sync"

	"github.com/lodgekeep/lodgekeep/internal/lease"
)

// Stored is one payload captured by the fake.
type Stored struct {
	Data   []byte
	Folder string
	Kind   Kind
}

// Fake keeps uploads in memory. Safe for concurrent use.
type Fake struct {
	mu     sync.Mutex
	stored []Stored
	Fail   bool
}

// NewFake creates an empty fake uploader.
func NewFake() *Fake {
	return &Fake{}
}

// Store implements Uploader.
func (f *Fake) Store(ctx context.Context, data []byte, folder string, kind Kind) (*Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Fail {
		return nil, lease.Errf(lease.KindUpstreamFailure, "media service unavailable")
	}
	if len(data) == 0 {
		return nil, lease.Errf(lease.KindValidation, "upload payload is empty")
	}
	f.stored = append(f.stored, Stored{Data: data, Folder: folder, Kind: kind})
	n := len(f.stored)
	return &Result{
		URL:      fmt.Sprintf("https://media.test/%s/%d", folder, n),
		PublicID: fmt.Sprintf("%s/%d", folder, n),
	}, nil
}

// Count reports how many payloads were stored.
func (f *Fake) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.stored)
}
