// ABOUTME: Tests for lease aggregate persistence and the version CAS
// ABOUTME: Covers roundtrips, soft-delete filtering, listing, and conflicts

package store

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodgekeep/lodgekeep/internal/lease"
)

// setupTestStore creates a temporary SQLite store for testing.
func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test.db")

	store, err := NewSQLiteStore(dbPath, slog.Default())
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func testLease(t *testing.T) *lease.Lease {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Millisecond)
	return lease.NewApplication("landlord-1", "tenant-1", "property-1", 1200, now)
}

func TestStore_CreateAndGetLease(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	l := testLease(t)
	require.NoError(t, store.CreateLease(ctx, l))
	assert.Equal(t, int64(1), l.Version)

	got, err := store.GetLease(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, l.ID, got.ID)
	assert.Equal(t, "landlord-1", got.LandlordID)
	assert.Equal(t, "tenant-1", got.TenantID)
	assert.Equal(t, "property-1", got.PropertyID)
	assert.Equal(t, lease.StatusPendingRequest, got.Status)
	assert.Equal(t, int64(1200), got.Terms.RentAmount)
	assert.Equal(t, lease.DepositPending, got.DepositStatus)
	require.Len(t, got.StatusHistory, 1)
	assert.Equal(t, lease.StatusPendingRequest, got.StatusHistory[0].Status)
	assert.Equal(t, "tenant-1", got.StatusHistory[0].ChangedBy)
	require.NotNil(t, got.Application.SubmittedAt)
}

func TestStore_GetLease_NotFound(t *testing.T) {
	store := setupTestStore(t)

	_, err := store.GetLease(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_CreateLease_Duplicate(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	l := testLease(t)
	require.NoError(t, store.CreateLease(ctx, l))

	dup := *l
	dup.StatusHistory = nil
	err := store.CreateLease(ctx, &dup)
	assert.ErrorIs(t, err, ErrDuplicateLease)
}

func TestStore_UpdateLease_RoundtripsChildren(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	l := testLease(t)
	require.NoError(t, store.CreateLease(ctx, l))

	start := now.AddDate(0, 1, 0)
	end := now.AddDate(1, 1, 0)
	deposit := int64(1200)
	l.Status = lease.StatusDraft
	l.Terms.StartDate = &start
	l.Terms.EndDate = &end
	l.Terms.SecurityDeposit = &deposit
	l.Terms.UtilitiesIncluded = []string{"water", "trash"}
	l.Terms.UtilitiesTenantPaid = []string{"electricity"}
	l.Terms.Extra = map[string]string{"parking": "one assigned spot"}
	l.Terms.CustomClauses = []string{"no smoking"}
	l.Signatures.Landlord = &lease.Signature{
		SignedAt:  now,
		Mode:      lease.SignatureDraw,
		Data:      "https://cdn.example.com/sig/abc.png",
		IPAddress: "10.1.2.3",
		UserAgent: "test-agent",
	}
	l.Messages = append(l.Messages, lease.Message{
		ID:     "msg-1",
		From:   "tenant-1",
		Text:   "when can I move in?",
		SentAt: now,
		ReadBy: []string{"landlord-1"},
	})
	l.RequestedChanges = append(l.RequestedChanges, lease.ChangeRequest{
		ID:          "chg-1",
		RequestedBy: "tenant-1",
		Changes:     map[string]string{"rentAmount": "1100"},
		RequestedAt: now,
	})
	l.Inspections.MoveIn = &lease.Inspection{
		Kind:             lease.InspectionMoveIn,
		ScheduledAt:      &start,
		SignedByLandlord: true,
	}
	l.Inspections.MoveOut = &lease.Inspection{
		Kind: lease.InspectionMoveOut,
		Damages: []lease.Damage{
			{Description: "broken blinds", EstimatedCost: 80, Responsibility: lease.ResponsibilityTenant},
		},
	}
	l.Notices = append(l.Notices, lease.Notice{
		ID: "not-1", Type: lease.NoticeOther, GivenBy: "landlord-1", GivenAt: now, Reason: "inspection reminder",
	})
	l.DepositTransactions = append(l.DepositTransactions, lease.DepositTransaction{
		ID: "tx-1", Amount: 1200, Type: lease.DepositTxDeposit, Date: now, Description: "initial deposit",
	})
	l.Addenda = append(l.Addenda, lease.Addendum{
		ID: "add-1", Title: "pet addendum", Body: "one cat permitted", CreatedBy: "landlord-1", CreatedAt: now,
	})
	l.UpdatedAt = now

	require.NoError(t, store.UpdateLease(ctx, l))
	assert.Equal(t, int64(2), l.Version)

	got, err := store.GetLease(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusDraft, got.Status)
	require.NotNil(t, got.Terms.SecurityDeposit)
	assert.Equal(t, int64(1200), *got.Terms.SecurityDeposit)
	assert.Equal(t, []string{"water", "trash"}, got.Terms.UtilitiesIncluded)
	assert.Equal(t, map[string]string{"parking": "one assigned spot"}, got.Terms.Extra)
	require.NotNil(t, got.Signatures.Landlord)
	assert.Equal(t, lease.SignatureDraw, got.Signatures.Landlord.Mode)
	assert.Nil(t, got.Signatures.Tenant)
	require.Len(t, got.Messages, 1)
	assert.Equal(t, []string{"landlord-1"}, got.Messages[0].ReadBy)
	require.Len(t, got.RequestedChanges, 1)
	assert.Equal(t, map[string]string{"rentAmount": "1100"}, got.RequestedChanges[0].Changes)
	assert.False(t, got.RequestedChanges[0].Resolved)
	require.NotNil(t, got.Inspections.MoveIn)
	assert.True(t, got.Inspections.MoveIn.SignedByLandlord)
	require.NotNil(t, got.Inspections.MoveOut)
	require.Len(t, got.Inspections.MoveOut.Damages, 1)
	assert.Equal(t, lease.ResponsibilityTenant, got.Inspections.MoveOut.Damages[0].Responsibility)
	require.Len(t, got.Notices, 1)
	require.Len(t, got.DepositTransactions, 1)
	require.Len(t, got.Addenda, 1)
	assert.Equal(t, int64(2), got.Version)
}

func TestStore_UpdateLease_VersionConflict(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	l := testLease(t)
	require.NoError(t, store.CreateLease(ctx, l))

	// Two loads of the same version
	first, err := store.GetLease(ctx, l.ID)
	require.NoError(t, err)
	second, err := store.GetLease(ctx, l.ID)
	require.NoError(t, err)

	first.Application.Notes = "first writer"
	require.NoError(t, store.UpdateLease(ctx, first))

	second.Application.Notes = "second writer"
	err = store.UpdateLease(ctx, second)
	assert.ErrorIs(t, err, ErrVersionConflict)

	got, err := store.GetLease(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "first writer", got.Application.Notes)
}

func TestStore_UpdateLease_ConcurrentWritersNeverBusy(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	l := testLease(t)
	require.NoError(t, store.CreateLease(ctx, l))

	// Simultaneous writers on the same row must resolve through the
	// version check: every loser gets ErrVersionConflict, never a raw
	// SQLITE_BUSY from the driver.
	const writers = 8
	errs := make(chan error, writers)
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			loaded, err := store.GetLease(ctx, l.ID)
			if err != nil {
				errs <- err
				return
			}
			loaded.Application.Notes = fmt.Sprintf("writer %d", n)
			errs <- store.UpdateLease(ctx, loaded)
		}(i)
	}
	wg.Wait()
	close(errs)

	var wins int
	for err := range errs {
		if err == nil {
			wins++
			continue
		}
		require.ErrorIs(t, err, ErrVersionConflict)
	}
	assert.GreaterOrEqual(t, wins, 1)
}

func TestStore_UpdateLease_NotFound(t *testing.T) {
	store := setupTestStore(t)

	l := testLease(t)
	l.Version = 1
	err := store.UpdateLease(context.Background(), l)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_SoftDeleteFiltering(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	l := testLease(t)
	require.NoError(t, store.CreateLease(ctx, l))

	l.IsDeleted = true
	l.DeletedAt = &now
	require.NoError(t, store.UpdateLease(ctx, l))

	_, err := store.GetLease(ctx, l.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := store.GetLeaseIncludingDeleted(ctx, l.ID)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted)

	// Default list hides it, trash list shows it
	visible, err := store.ListLeases(ctx, LeaseFilter{})
	require.NoError(t, err)
	assert.Empty(t, visible)

	trash, err := store.ListLeases(ctx, LeaseFilter{OnlyDeleted: true})
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, l.ID, trash[0].ID)
}

func TestStore_ListLeases_Filters(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	a := lease.NewApplication("landlord-1", "tenant-1", "property-1", 1000, now)
	b := lease.NewApplication("landlord-1", "tenant-2", "property-2", 1500, now.Add(time.Second))
	c := lease.NewDraft("landlord-2", "tenant-1", "property-3", 900, now.Add(2*time.Second))
	for _, l := range []*lease.Lease{a, b, c} {
		require.NoError(t, store.CreateLease(ctx, l))
	}

	byUser, err := store.ListLeases(ctx, LeaseFilter{UserID: "tenant-1"})
	require.NoError(t, err)
	assert.Len(t, byUser, 2)

	byProperty, err := store.ListLeases(ctx, LeaseFilter{PropertyID: "property-2"})
	require.NoError(t, err)
	require.Len(t, byProperty, 1)
	assert.Equal(t, b.ID, byProperty[0].ID)

	draft := lease.StatusDraft
	byStatus, err := store.ListLeases(ctx, LeaseFilter{Status: &draft})
	require.NoError(t, err)
	require.Len(t, byStatus, 1)
	assert.Equal(t, c.ID, byStatus[0].ID)
}

func TestStore_HasOpenLease(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	l := lease.NewApplication("landlord-1", "tenant-1", "property-1", 1000, now)
	require.NoError(t, store.CreateLease(ctx, l))

	open, err := store.HasOpenLease(ctx, "property-1", "tenant-1")
	require.NoError(t, err)
	assert.True(t, open)

	open, err = store.HasOpenLease(ctx, "property-1", "tenant-2")
	require.NoError(t, err)
	assert.False(t, open)

	// Terminal statuses do not count as open
	l.Status = lease.StatusCancelled
	require.NoError(t, store.UpdateLease(ctx, l))

	open, err = store.HasOpenLease(ctx, "property-1", "tenant-1")
	require.NoError(t, err)
	assert.False(t, open)
}

func TestStore_CountByStatus(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()
	now := time.Now().UTC()

	for i := 0; i < 2; i++ {
		l := lease.NewApplication("landlord-1", "tenant-1", "property-"+string(rune('a'+i)), 1000, now)
		require.NoError(t, store.CreateLease(ctx, l))
	}
	d := lease.NewDraft("landlord-1", "tenant-2", "property-z", 800, now)
	require.NoError(t, store.CreateLease(ctx, d))

	counts, err := store.CountByStatus(ctx, LeaseFilter{UserID: "landlord-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, counts[lease.StatusPendingRequest])
	assert.Equal(t, 1, counts[lease.StatusDraft])
}

func TestStore_DeleteLeasePermanently(t *testing.T) {
	store := setupTestStore(t)
	ctx := context.Background()

	l := testLease(t)
	require.NoError(t, store.CreateLease(ctx, l))

	require.NoError(t, store.DeleteLeasePermanently(ctx, l.ID))

	_, err := store.GetLeaseIncludingDeleted(ctx, l.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	err = store.DeleteLeasePermanently(ctx, l.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
