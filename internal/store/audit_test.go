// ABOUTME: Tests for audit log store operations
// ABOUTME: Covers Append and List with filtering for the audit_log table

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuditStore_Append(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	entry := &AuditEntry{
		ActorID:    "admin-1",
		Action:     AuditSoftDeleteLease,
		TargetType: "lease",
		TargetID:   "lease-123",
		Detail:     map[string]any{"reason": "tenant request"},
	}

	err := store.AppendAuditLog(ctx, entry)
	require.NoError(t, err)

	// Should have generated ID and timestamp
	assert.NotEmpty(t, entry.ID)
	assert.False(t, entry.Timestamp.IsZero())
}

func TestAuditStore_List_NoFilter(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for i, action := range []AuditAction{AuditSoftDeleteLease, AuditRestoreLease, AuditPermanentDeleteLease} {
		entry := &AuditEntry{
			ActorID:    "admin-1",
			Action:     action,
			TargetType: "lease",
			TargetID:   fmt.Sprintf("lease-%d", i),
			Timestamp:  time.Now().UTC().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, store.AppendAuditLog(ctx, entry))
	}

	entries, err := store.ListAuditLog(ctx, AuditFilter{})
	require.NoError(t, err)
	assert.Len(t, entries, 3)

	// Should be newest first
	assert.Equal(t, AuditPermanentDeleteLease, entries[0].Action)
}

func TestAuditStore_List_ByTarget(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	for _, target := range []string{"lease-a", "lease-b", "lease-a"} {
		entry := &AuditEntry{
			ActorID:    "admin-1",
			Action:     AuditSoftDeleteLease,
			TargetType: "lease",
			TargetID:   target,
		}
		require.NoError(t, store.AppendAuditLog(ctx, entry))
	}

	target := "lease-a"
	entries, err := store.ListAuditLog(ctx, AuditFilter{TargetID: &target})
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	for _, e := range entries {
		assert.Equal(t, "lease-a", e.TargetID)
		assert.Equal(t, map[string]any(nil), e.Detail)
	}
}
