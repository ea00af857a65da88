// ABOUTME: Engine test harness and the application-to-activation scenarios
// ABOUTME: Runs against a real temp-dir SQLite store with fake collaborators

package engine

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lodgekeep/lodgekeep/internal/directory"
	"github.com/lodgekeep/lodgekeep/internal/lease"
	"github.com/lodgekeep/lodgekeep/internal/notify"
	"github.com/lodgekeep/lodgekeep/internal/payments"
	"github.com/lodgekeep/lodgekeep/internal/store"
	"github.com/lodgekeep/lodgekeep/internal/upload"
)

var engineTestNow = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

const (
	testLandlord = "landlord-1"
	testTenant   = "tenant-1"
	testProperty = "prop-1"
)

type testEnv struct {
	engine   *Engine
	store    store.Store
	dir      *directory.Static
	uploads  *upload.Fake
	refunds  *payments.Fake
	notifier *notify.Fake
	now      time.Time
}

func (env *testEnv) setNow(t time.Time) {
	env.now = t
	env.engine.clock = func() time.Time { return env.now }
}

func setupEngine(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "leases.db"), slog.Default())
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	dir := directory.NewStatic()
	dir.AddUser(directory.User{ID: testLandlord, Role: "owner", Name: "Pat Owner"})
	dir.AddUser(directory.User{ID: testTenant, Role: "tenant", Name: "Jo Renter"})
	dir.AddProperty(directory.Property{ID: testProperty, OwnerID: testLandlord, Status: directory.PropertyStatusActive, Price: 1200})

	env := &testEnv{
		store:    st,
		dir:      dir,
		uploads:  upload.NewFake(),
		refunds:  payments.NewFake(),
		notifier: notify.NewFake(),
	}
	env.engine = New(st, dir, dir, env.uploads, env.refunds, env.notifier, Params{}, slog.Default())
	env.setNow(engineTestNow)
	return env
}

// fillDraftTerms moves an approved application through drafting with a
// standard one-year term.
func fillDraftTerms(t *testing.T, env *testEnv, leaseID string) {
	t.Helper()
	start := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC)
	deposit := int64(1200)
	_, err := env.engine.UpdateDraft(context.Background(), leaseID, testLandlord, TermsPatch{
		StartDate:       &start,
		EndDate:         &end,
		SecurityDeposit: &deposit,
	})
	require.NoError(t, err)
}

// readyToSign drives a fresh application to sent_to_landlord.
func readyToSign(t *testing.T, env *testEnv) *lease.Lease {
	t.Helper()
	ctx := context.Background()

	l, err := env.engine.CreateApplication(ctx, testTenant, testProperty)
	require.NoError(t, err)
	_, err = env.engine.ReviewApplication(ctx, l.ID, testLandlord, DecisionApprove, "checks passed")
	require.NoError(t, err)
	fillDraftTerms(t, env, l.ID)
	_, err = env.engine.SendToTenant(ctx, l.ID, testLandlord)
	require.NoError(t, err)
	l, err = env.engine.SendToLandlord(ctx, l.ID, testTenant)
	require.NoError(t, err)
	require.Equal(t, lease.StatusSentToLandlord, l.Status)
	return l
}

// fullyExecuted drives a lease through both signatures.
func fullyExecuted(t *testing.T, env *testEnv) *lease.Lease {
	t.Helper()
	ctx := context.Background()
	l := readyToSign(t, env)

	_, err := env.engine.Sign(ctx, l.ID, testLandlord, SignRequest{Mode: lease.SignatureTyped, TypedText: "Pat Owner"})
	require.NoError(t, err)
	res, err := env.engine.Sign(ctx, l.ID, testTenant, SignRequest{Mode: lease.SignatureTyped, TypedText: "Jo Renter"})
	require.NoError(t, err)
	require.True(t, res.IsFullySigned)
	require.Equal(t, lease.StatusFullyExecuted, res.Lease.Status)
	return res.Lease
}

// activated drives a lease to active via the move-in inspection, with the
// deposit paid along the way.
func activated(t *testing.T, env *testEnv) *lease.Lease {
	t.Helper()
	ctx := context.Background()
	l := fullyExecuted(t, env)

	_, err := env.engine.RecordDepositPayment(ctx, l.ID, testTenant, 1200, "wire-001")
	require.NoError(t, err)
	_, err = env.engine.ScheduleInspection(ctx, l.ID, testLandlord, lease.InspectionMoveIn, env.now.Add(24*time.Hour))
	require.NoError(t, err)
	_, err = env.engine.ConductInspection(ctx, l.ID, testLandlord, lease.InspectionMoveIn, ConductRequest{Report: "clean"})
	require.NoError(t, err)
	l, err = env.engine.ConductInspection(ctx, l.ID, testTenant, lease.InspectionMoveIn, ConductRequest{})
	require.NoError(t, err)
	require.Equal(t, lease.StatusActive, l.Status)
	require.Equal(t, lease.DepositHeld, l.DepositStatus)
	return l
}

func TestCreateApplication(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	l, err := env.engine.CreateApplication(ctx, testTenant, testProperty)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusPendingRequest, l.Status)
	assert.Equal(t, testLandlord, l.LandlordID)
	assert.Equal(t, int64(1200), l.Terms.RentAmount, "price snapshotted from the catalog")
	require.Len(t, l.StatusHistory, 1)

	events := env.notifier.Events()
	require.Len(t, events, 1)
	assert.Equal(t, notify.EventApplicationReceived, events[0].Event)
	assert.Equal(t, testLandlord, events[0].RecipientID)
}

func TestCreateApplication_OpenLeaseExists(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	_, err := env.engine.CreateApplication(ctx, testTenant, testProperty)
	require.NoError(t, err)

	_, err = env.engine.CreateApplication(ctx, testTenant, testProperty)
	require.Error(t, err)
	assert.Equal(t, lease.KindPreconditionFailed, lease.KindOf(err))
}

func TestCreateApplication_PropertyNotActive(t *testing.T) {
	env := setupEngine(t)
	env.dir.AddProperty(directory.Property{ID: "prop-2", OwnerID: testLandlord, Status: "rented", Price: 900})

	_, err := env.engine.CreateApplication(context.Background(), testTenant, "prop-2")
	require.Error(t, err)
	assert.Equal(t, lease.KindPreconditionFailed, lease.KindOf(err))
}

func TestCreateApplication_UnknownProperty(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.CreateApplication(context.Background(), testTenant, "missing")
	require.Error(t, err)
	assert.Equal(t, lease.KindNotFound, lease.KindOf(err))
}

func TestCreateDraft_OnlyOwner(t *testing.T) {
	env := setupEngine(t)
	env.dir.AddUser(directory.User{ID: "landlord-2", Role: "owner"})

	_, err := env.engine.CreateDraft(context.Background(), "landlord-2", testTenant, testProperty)
	require.Error(t, err)
	assert.Equal(t, lease.KindForbidden, lease.KindOf(err))

	l, err := env.engine.CreateDraft(context.Background(), testLandlord, testTenant, testProperty)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusDraft, l.Status)
	assert.Equal(t, lease.ScreeningWaived, l.Application.ScreeningStatus)
}

func TestReviewApplication_UnderReviewThenApprove(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	l, err := env.engine.CreateApplication(ctx, testTenant, testProperty)
	require.NoError(t, err)

	l, err = env.engine.ReviewApplication(ctx, l.ID, testLandlord, DecisionUnderReview, "running checks")
	require.NoError(t, err)
	assert.Equal(t, lease.StatusUnderReview, l.Status)

	l, err = env.engine.ReviewApplication(ctx, l.ID, testLandlord, DecisionApprove, "")
	require.NoError(t, err)
	assert.Equal(t, lease.StatusApproved, l.Status)
	assert.Equal(t, lease.ScreeningPassed, l.Application.ScreeningStatus)
	require.NotNil(t, l.Application.ReviewedAt)
	assert.Equal(t, testLandlord, l.Application.ReviewedBy)
}

func TestReviewApplication_TenantForbidden(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	l, err := env.engine.CreateApplication(ctx, testTenant, testProperty)
	require.NoError(t, err)

	_, err = env.engine.ReviewApplication(ctx, l.ID, testTenant, DecisionApprove, "")
	require.Error(t, err)
	assert.Equal(t, lease.KindForbidden, lease.KindOf(err))
}

func TestSendToTenant_IncompleteTerms(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	l, err := env.engine.CreateDraft(ctx, testLandlord, testTenant, testProperty)
	require.NoError(t, err)

	_, err = env.engine.SendToTenant(ctx, l.ID, testLandlord)
	require.ErrorIs(t, err, lease.ErrTermsIncomplete)
}

func TestChangeRequestRound(t *testing.T) {
	env := setupEngine(t)
	ctx := context.Background()

	l, err := env.engine.CreateApplication(ctx, testTenant, testProperty)
	require.NoError(t, err)
	_, err = env.engine.ReviewApplication(ctx, l.ID, testLandlord, DecisionApprove, "")
	require.NoError(t, err)
	fillDraftTerms(t, env, l.ID)
	_, err = env.engine.SendToTenant(ctx, l.ID, testLandlord)
	require.NoError(t, err)

	l, err = env.engine.RequestChanges(ctx, l.ID, testTenant, map[string]string{"rentAmount": "1100 please"})
	require.NoError(t, err)
	assert.Equal(t, lease.StatusChangesRequested, l.Status)
	require.Len(t, l.RequestedChanges, 1)

	// Resending without resolving is blocked by the machine.
	_, err = env.engine.SendToTenant(ctx, l.ID, testLandlord)
	require.Error(t, err)

	l, err = env.engine.ResolveChanges(ctx, l.ID, testLandlord, "rent lowered")
	require.NoError(t, err)
	assert.Equal(t, lease.StatusDraft, l.Status)
	assert.True(t, l.RequestedChanges[0].Resolved)

	newRent := int64(1100)
	_, err = env.engine.UpdateDraft(ctx, l.ID, testLandlord, TermsPatch{RentAmount: &newRent})
	require.NoError(t, err)
	l, err = env.engine.SendToTenant(ctx, l.ID, testLandlord)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusSentToTenant, l.Status)
	assert.Equal(t, int64(1100), l.Terms.RentAmount)
}

func TestUpdateDraft_LockedAfterExecution(t *testing.T) {
	env := setupEngine(t)
	l := fullyExecuted(t, env)

	newRent := int64(5000)
	_, err := env.engine.UpdateDraft(context.Background(), l.ID, testLandlord, TermsPatch{RentAmount: &newRent})
	require.ErrorIs(t, err, lease.ErrLeaseLocked)
}

func TestSign_TenantOutOfOrder(t *testing.T) {
	env := setupEngine(t)
	l := readyToSign(t, env)

	_, err := env.engine.Sign(context.Background(), l.ID, testTenant, SignRequest{Mode: lease.SignatureTyped, TypedText: "Jo"})
	require.ErrorIs(t, err, lease.ErrOutOfOrder)
}

func TestSign_UploadFailureLeavesLeaseUntouched(t *testing.T) {
	env := setupEngine(t)
	l := readyToSign(t, env)
	env.uploads.Fail = true

	_, err := env.engine.Sign(context.Background(), l.ID, testLandlord, SignRequest{Mode: lease.SignatureDraw, Blob: []byte("png")})
	require.Error(t, err)
	assert.Equal(t, lease.KindUpstreamFailure, lease.KindOf(err))

	reloaded, err := env.store.GetLease(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusSentToLandlord, reloaded.Status)
	assert.Nil(t, reloaded.Signatures.Landlord)
}

func TestSign_DrawModeStoresUploadedURL(t *testing.T) {
	env := setupEngine(t)
	l := readyToSign(t, env)

	res, err := env.engine.Sign(context.Background(), l.ID, testLandlord, SignRequest{Mode: lease.SignatureDraw, Blob: []byte("png")})
	require.NoError(t, err)
	require.NotNil(t, res.Lease.Signatures.Landlord)
	assert.Contains(t, res.Lease.Signatures.Landlord.Data, "https://")
	assert.Equal(t, 1, env.uploads.Count())
	assert.False(t, res.IsFullySigned)
}

func TestSign_ConcurrentSameActor(t *testing.T) {
	env := setupEngine(t)
	l := readyToSign(t, env)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.engine.Sign(context.Background(), l.ID, testLandlord,
				SignRequest{Mode: lease.SignatureTyped, TypedText: "Pat Owner"})
		}(i)
	}
	wg.Wait()

	successes, alreadySigned := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case lease.KindOf(err) == lease.KindPreconditionFailed:
			alreadySigned++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, successes)
	assert.Equal(t, 1, alreadySigned)

	reloaded, err := env.store.GetLease(context.Background(), l.ID)
	require.NoError(t, err)
	assert.Equal(t, lease.StatusSignedByLandlord, reloaded.Status)
}

func TestFullExecutionLocksLease(t *testing.T) {
	env := setupEngine(t)
	l := fullyExecuted(t, env)

	assert.True(t, l.IsLocked)
	require.NotNil(t, l.LockedAt)
	assert.True(t, l.Signatures.Complete())
	// Signature messages were appended for both parties.
	assert.Len(t, l.Messages, 2)
}

func TestMoveInActivation(t *testing.T) {
	env := setupEngine(t)
	l := activated(t, env)

	require.NotNil(t, l.Inspections.MoveIn)
	assert.True(t, l.Inspections.MoveIn.Complete())
	assert.Equal(t, lease.StatusActive, l.StatusHistory[len(l.StatusHistory)-1].Status)
}

func TestConductInspection_NotScheduled(t *testing.T) {
	env := setupEngine(t)
	l := fullyExecuted(t, env)

	_, err := env.engine.ConductInspection(context.Background(), l.ID, testLandlord, lease.InspectionMoveIn, ConductRequest{})
	require.ErrorIs(t, err, lease.ErrInspectionMissing)
}

func TestMutate_UnknownLease(t *testing.T) {
	env := setupEngine(t)

	_, err := env.engine.SendToTenant(context.Background(), "no-such-lease", testLandlord)
	require.ErrorIs(t, err, lease.ErrNotFound)
}

func TestMutate_NonParty(t *testing.T) {
	env := setupEngine(t)
	l := readyToSign(t, env)

	_, err := env.engine.Sign(context.Background(), l.ID, "stranger", SignRequest{Mode: lease.SignatureTyped, TypedText: "x"})
	require.ErrorIs(t, err, lease.ErrNotParty)
}
