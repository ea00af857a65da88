// ABOUTME: Read-only collaborator contracts for user identity and property lookup
// ABOUTME: The lease engine resolves parties and properties through these, never owning them

package directory

import (
	"context"
)

// User is the identity record resolved for a lease party. It is a
// display snapshot, never a writable entity.
type User struct {
	ID    string `json:"id"`
	Role  string `json:"role"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Property is the catalog record resolved at application time. Price
// is in minor currency units and is snapshotted into the lease.
type Property struct {
	ID      string `json:"id"`
	OwnerID string `json:"ownerId"`
	Status  string `json:"status"`
	Price   int64  `json:"price"`
}

// PropertyStatusActive is the only status a tenant may apply against.
const PropertyStatusActive = "active"

// IdentityDirectory resolves user ids to identity records.
type IdentityDirectory interface {
	ResolveUser(ctx context.Context, id string) (*User, error)
}

// PropertyCatalog resolves property ids to catalog records.
type PropertyCatalog interface {
	ResolveProperty(ctx context.Context, id string) (*Property, error)
}
