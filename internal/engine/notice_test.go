// ABOUTME: Tests for notices, the renewal exchange, and deposit settlement
// ABOUTME: Drives real leases to the end of term through the engine surface

package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodgekeep/lodgekeep/internal/lease"
)

func TestGiveNotice_Termination(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()
	l := activated(t, env)

	effective := env.now.AddDate(0, 1, 0)
	l, err := env.engine.GiveNotice(ctx, l.ID, testTenant, NoticeRequest{
		Type:          lease.NoticeTermination,
		EffectiveDate: &effective,
		Reason:        "relocating",
	})
	require.NoError(t, err)
	assert.Equal(t, lease.StatusNoticeGiven, l.Status)
	require.Len(t, l.Notices, 1)
	assert.Equal(t, lease.NoticeTermination, l.Notices[0].Type)
}

// inRenewalWindow moves the clock inside the 60-day window before the
// standard 2025-01-31 end date, where renewal offers are allowed.
func inRenewalWindow(env *testEnv) {
	env.setNow(time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC))
}

func TestGiveNotice_RenewalOfferByLandlord(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()
	l := activated(t, env)
	inRenewalWindow(env)

	newEnd := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	l, err := env.engine.GiveNotice(ctx, l.ID, testLandlord, NoticeRequest{
		Type:          lease.NoticeRenewal,
		NewRentAmount: 1300,
		NewEndDate:    &newEnd,
	})
	require.NoError(t, err)
	assert.Equal(t, lease.StatusRenewalPending, l.Status)
	assert.Equal(t, lease.RenewalOffered, l.Renewal.Status)
	require.NotNil(t, l.Renewal.RespondBy)
	assert.Equal(t, env.now.AddDate(0, 0, 30), *l.Renewal.RespondBy)
	assert.Equal(t, int64(1300), l.Renewal.NewRentAmount)
}

func TestGiveNotice_RenewalBeforeWindowRejected(t *testing.T) {
	env := setupEngine(t)
	l := activated(t, env)

	// Nearly a year out from the 2025-01-31 end date: the 60-day window
	// has not opened yet.
	newEnd := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	_, err := env.engine.GiveNotice(context.Background(), l.ID, testLandlord, NoticeRequest{
		Type:       lease.NoticeRenewal,
		NewEndDate: &newEnd,
	})
	require.Error(t, err)
	assert.Equal(t, lease.KindPreconditionFailed, lease.KindOf(err))
	assert.Contains(t, err.Error(), "renewal window opens")

	// The lease is untouched: still plain active, no offer recorded.
	reloaded, err := env.store.GetLease(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusActive, reloaded.Status)
	assert.NotEqual(t, lease.RenewalOffered, reloaded.Renewal.Status)
}

func TestGiveNotice_RenewalByTenantForbidden(t *testing.T) {
	env := setupEngine(t)
	l := activated(t, env)

	_, err := env.engine.GiveNotice(context.Background(), l.ID, testTenant, NoticeRequest{Type: lease.NoticeRenewal})
	require.Error(t, err)
	assert.Equal(t, lease.KindForbidden, lease.KindOf(err))
}

func TestRespondToRenewal_Accept(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()
	l := activated(t, env)
	inRenewalWindow(env)

	newEnd := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	_, err := env.engine.GiveNotice(ctx, l.ID, testLandlord, NoticeRequest{
		Type:          lease.NoticeRenewal,
		NewRentAmount: 1300,
		NewEndDate:    &newEnd,
	})
	require.NoError(t, err)

	l, err = env.engine.RespondToRenewal(ctx, l.ID, testTenant, RenewalAccept, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusActive, l.Status)
	assert.Equal(t, lease.RenewalAccepted, l.Renewal.Status)
	assert.Equal(t, int64(1300), l.Terms.RentAmount)
	require.NotNil(t, l.Terms.EndDate)
	assert.Equal(t, newEnd, *l.Terms.EndDate)
	require.Len(t, l.Addenda, 1)

	// The originating renewal notice is acknowledged.
	var ack bool
	for _, n := range l.Notices {
		if n.ID == l.Renewal.NoticeID {
			ack = n.Acknowledged
		}
	}
	assert.True(t, ack)
}

func TestRespondToRenewal_Decline(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()
	l := activated(t, env)
	inRenewalWindow(env)

	newEnd := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	_, err := env.engine.GiveNotice(ctx, l.ID, testLandlord, NoticeRequest{Type: lease.NoticeRenewal, NewEndDate: &newEnd})
	require.NoError(t, err)

	l, err = env.engine.RespondToRenewal(ctx, l.ID, testTenant, RenewalDecline, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusNoticeGiven, l.Status)
	assert.Equal(t, lease.RenewalDeclined, l.Renewal.Status)
}

func TestRespondToRenewal_NoOffer(t *testing.T) {
	env := setupEngine(t)
	l := activated(t, env)

	_, err := env.engine.RespondToRenewal(context.Background(), l.ID, testTenant, RenewalAccept, 0, nil)
	require.ErrorIs(t, err, lease.ErrNoRenewalOffer)
}

func TestRespondToRenewal_LandlordForbidden(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()
	l := activated(t, env)
	inRenewalWindow(env)

	newEnd := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	_, err := env.engine.GiveNotice(ctx, l.ID, testLandlord, NoticeRequest{Type: lease.NoticeRenewal, NewEndDate: &newEnd})
	require.NoError(t, err)

	_, err = env.engine.RespondToRenewal(ctx, l.ID, testLandlord, RenewalAccept, 0, nil)
	require.Error(t, err)
	assert.Equal(t, lease.KindForbidden, lease.KindOf(err))
}

func TestRenewalNoticeAutoCreatedOnLoad(t *testing.T) {
	env := setupEngine(t)
	l := activated(t, env)

	// Jump inside the 60-day window before the 2025-01-31 end date.
	env.setNow(time.Date(2024, 12, 15, 12, 0, 0, 0, time.UTC))

	l, err := env.engine.GetByID(context.Background(), l.ID, testTenant)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusRenewalPending, l.Status)
	assert.Equal(t, lease.RenewalPending, l.Renewal.Status)
	assert.True(t, l.HasNotice(lease.NoticeRenewal))

	// The flip persisted, not just derived in memory.
	reloaded, err := env.store.GetLease(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusRenewalPending, reloaded.Status)
}

func TestExpiryDerivedOnLoad(t *testing.T) {
	env := setupEngine(t)
	l := activated(t, env)

	env.setNow(time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC))

	l, err := env.engine.GetByID(context.Background(), l.ID, testLandlord)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusExpired, l.Status)

	// A second load does not append another history entry.
	again, err := env.engine.GetByID(context.Background(), l.ID, testLandlord)
	require.NoError(t, err)
	assert.Equal(t, len(l.StatusHistory), len(again.StatusHistory))
}

func terminated(t *testing.T, env *testEnv) *lease.Lease {
	t.Helper()
	ctx := context.Background()
	l := activated(t, env)

	_, err := env.engine.GiveNotice(ctx, l.ID, testTenant, NoticeRequest{Type: lease.NoticeTermination, Reason: "moving"})
	require.NoError(t, err)
	_, err = env.engine.ScheduleInspection(ctx, l.ID, testLandlord, lease.InspectionMoveOut, env.now.Add(48*time.Hour))
	require.NoError(t, err)
	l, err = env.engine.ConductInspection(ctx, l.ID, testLandlord, lease.InspectionMoveOut, ConductRequest{
		Report: "wall damage in bedroom",
		Damages: []lease.Damage{
			{Description: "wall repair", EstimatedCost: 200, Responsibility: lease.ResponsibilityTenant},
		},
	})
	require.NoError(t, err)
	require.Equal(t, lease.StatusTerminated, l.Status)
	return l
}

func TestMoveOutFlow(t *testing.T) {
	env := setupEngine(t)
	l := terminated(t, env)

	require.NotNil(t, l.Inspections.MoveOut)
	require.Len(t, l.Inspections.MoveOut.Damages, 1)
	assert.Equal(t, lease.DepositHeld, l.DepositStatus)
}

func TestProcessDepositReturn(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()
	l := terminated(t, env)

	l, err := env.engine.ProcessDepositReturn(ctx, l.ID, testLandlord, 1000, []lease.Deduction{
		{Amount: 200, Description: "wall repair"},
	})
	require.NoError(t, err)
	assert.Equal(t, lease.DepositPartiallyReturned, l.DepositStatus)

	// One deposit entry, one deduction, one return.
	var deductions, returns int
	for _, tx := range l.DepositTransactions {
		switch tx.Type {
		case lease.DepositTxDeduction:
			deductions++
		case lease.DepositTxReturn:
			returns++
		}
	}
	assert.Equal(t, 1, deductions)
	assert.Equal(t, 1, returns)

	// Settling twice is rejected: the deposit left held.
	_, err = env.engine.ProcessDepositReturn(ctx, l.ID, testLandlord, 1000, nil)
	require.ErrorIs(t, err, lease.ErrDepositNotHeld)
}

func TestProcessDepositReturn_AmountMismatch(t *testing.T) {
	env := setupEngine(t)
	l := terminated(t, env)

	_, err := env.engine.ProcessDepositReturn(context.Background(), l.ID, testLandlord, 700, []lease.Deduction{
		{Amount: 200, Description: "wall repair"},
	})
	require.ErrorIs(t, err, lease.ErrAmountMismatch)

	reloaded, err := env.store.GetLease(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, lease.DepositHeld, reloaded.DepositStatus)
}

func TestProcessDepositReturn_TenantForbidden(t *testing.T) {
	env := setupEngine(t)
	l := terminated(t, env)

	_, err := env.engine.ProcessDepositReturn(context.Background(), l.ID, testTenant, 1200, nil)
	require.Error(t, err)
	assert.Equal(t, lease.KindForbidden, lease.KindOf(err))
}

func TestProcessDepositReturn_LeaseStillActive(t *testing.T) {
	env := setupEngine(t)
	l := activated(t, env)

	_, err := env.engine.ProcessDepositReturn(context.Background(), l.ID, testLandlord, 1200, nil)
	require.Error(t, err)
	assert.Equal(t, lease.KindPreconditionFailed, lease.KindOf(err))
}

func TestRecordDepositPayment_AmountMustMatch(t *testing.T) {
	env := setupEngine(t)
	l := fullyExecuted(t, env)

	_, err := env.engine.RecordDepositPayment(context.Background(), l.ID, testTenant, 900, "wire-002")
	require.Error(t, err)
	assert.Equal(t, lease.KindValidation, lease.KindOf(err))

	l2, err := env.engine.RecordDepositPayment(context.Background(), l.ID, testTenant, 1200, "wire-002")
	require.NoError(t, err)
	assert.Equal(t, lease.DepositPaid, l2.DepositStatus)

	// Paying twice fails on the pending precondition.
	_, err = env.engine.RecordDepositPayment(context.Background(), l.ID, testTenant, 1200, "wire-003")
	require.Error(t, err)
	assert.Equal(t, lease.KindPreconditionFailed, lease.KindOf(err))
}
