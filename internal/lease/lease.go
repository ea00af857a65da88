// ABOUTME: Lease aggregate and its nested sub-records for the rental workflow
// ABOUTME: Defines statuses, parties, signatures, inspections, notices, and the deposit ledger

package lease

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lease lifecycle status. Exactly one is current at any time.
type Status string

const (
	StatusPendingRequest   Status = "pending_request"
	StatusUnderReview      Status = "under_review"
	StatusApproved         Status = "approved"
	StatusRejected         Status = "rejected"
	StatusDraft            Status = "draft"
	StatusSentToTenant     Status = "sent_to_tenant"
	StatusChangesRequested Status = "changes_requested"
	StatusSentToLandlord   Status = "sent_to_landlord"
	StatusSignedByLandlord Status = "signed_by_landlord"
	StatusFullyExecuted    Status = "fully_executed"
	StatusActive           Status = "active"
	StatusRenewalPending   Status = "renewal_pending"
	StatusNoticeGiven      Status = "notice_given"
	StatusMoveOutScheduled Status = "move_out_scheduled"
	StatusExpired          Status = "expired"
	StatusTerminated       Status = "terminated"
	StatusCancelled        Status = "cancelled"
)

// ValidStatuses lists every lease status the store will accept.
var ValidStatuses = []Status{
	StatusPendingRequest,
	StatusUnderReview,
	StatusApproved,
	StatusRejected,
	StatusDraft,
	StatusSentToTenant,
	StatusChangesRequested,
	StatusSentToLandlord,
	StatusSignedByLandlord,
	StatusFullyExecuted,
	StatusActive,
	StatusRenewalPending,
	StatusNoticeGiven,
	StatusMoveOutScheduled,
	StatusExpired,
	StatusTerminated,
	StatusCancelled,
}

// Terminal reports whether the status ends the lifecycle. No transition
// leaves a terminal status.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusExpired, StatusTerminated, StatusCancelled:
		return true
	}
	return false
}

// Valid reports whether s is a known lease status.
func (s Status) Valid() bool {
	for _, v := range ValidStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Party identifies which side of the lease an actor is acting as.
// PartySystem is used for lazy derivations (expiry, activation, renewal
// window) that no user requested.
type Party string

const (
	PartyLandlord Party = "landlord"
	PartyTenant   Party = "tenant"
	PartySystem   Party = "system"
	PartyNone     Party = ""
)

// SystemActorID is recorded as ChangedBy for system-derived transitions.
const SystemActorID = "system"

// Frequency is how often rent is due.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyYearly    Frequency = "yearly"
)

// Terms holds the negotiated lease terms. Amounts are whole currency units.
// SecurityDeposit is a pointer so "not yet set" is distinguishable from zero,
// which the send-to-tenant guard depends on.
type Terms struct {
	StartDate           *time.Time
	EndDate             *time.Time
	RentAmount          int64
	RentFrequency       Frequency
	SecurityDeposit     *int64
	UtilitiesIncluded   []string
	UtilitiesTenantPaid []string
	LateFee             int64
	GracePeriodDays     int
	Extra               map[string]string
	CustomClauses       []string
}

// Complete reports whether the terms carry everything required before the
// draft can be sent to the tenant.
func (t Terms) Complete() bool {
	return t.StartDate != nil && t.EndDate != nil && t.RentAmount > 0 && t.SecurityDeposit != nil
}

// ScreeningStatus is the application screening outcome.
type ScreeningStatus string

const (
	ScreeningPending ScreeningStatus = "pending"
	ScreeningPassed  ScreeningStatus = "passed"
	ScreeningFailed  ScreeningStatus = "failed"
	ScreeningWaived  ScreeningStatus = "waived"
)

// Application is the tenant's application sub-record.
type Application struct {
	ScreeningStatus    ScreeningStatus
	CreditScore        int
	IncomeVerified     bool
	ReferencesVerified bool
	SubmittedAt        *time.Time
	ReviewedAt         *time.Time
	ReviewedBy         string
	Notes              string
}

// SignatureMode is how the signature was captured.
type SignatureMode string

const (
	SignatureDraw   SignatureMode = "draw"
	SignatureTyped  SignatureMode = "type"
	SignatureUpload SignatureMode = "upload"
)

// Signature records one party's e-signature. A populated slot is permanent.
type Signature struct {
	SignedAt  time.Time
	Mode      SignatureMode
	Data      string // stored URL for draw/upload, the literal text for type
	IPAddress string
	UserAgent string
}

// Signatures holds the two write-once signature slots.
type Signatures struct {
	Landlord *Signature
	Tenant   *Signature
}

// Complete reports whether both slots are populated.
func (s Signatures) Complete() bool {
	return s.Landlord != nil && s.Tenant != nil
}

// For returns the slot for the given party, or nil for non-signing parties.
func (s Signatures) For(p Party) *Signature {
	switch p {
	case PartyLandlord:
		return s.Landlord
	case PartyTenant:
		return s.Tenant
	}
	return nil
}

// StatusChange is one entry of the append-only status history.
type StatusChange struct {
	Status    Status
	ChangedBy string
	Reason    string
	ChangedAt time.Time
	Metadata  map[string]string
}

// Message is free-form communication between the parties. Messages are a
// side-effect log only; no transition logic reads them.
type Message struct {
	ID          string
	From        string
	Text        string
	Attachments []string
	SentAt      time.Time
	ReadBy      []string
}

// ChangeRequest is a tenant-requested change to the draft terms. Entries are
// resolved in place and never removed.
type ChangeRequest struct {
	ID              string
	RequestedBy     string
	Changes         map[string]string
	RequestedAt     time.Time
	Resolved        bool
	ResolvedAt      *time.Time
	ResolutionNotes string
}

// InspectionKind distinguishes the fixed move-in/move-out slots from the
// open-ended periodic inspections.
type InspectionKind string

const (
	InspectionMoveIn   InspectionKind = "move_in"
	InspectionMoveOut  InspectionKind = "move_out"
	InspectionPeriodic InspectionKind = "periodic"
)

// Responsibility attributes a move-out damage item.
type Responsibility string

const (
	ResponsibilityTenant   Responsibility = "tenant"
	ResponsibilityLandlord Responsibility = "landlord"
	ResponsibilityShared   Responsibility = "shared"
)

// Damage is one itemized move-out damage.
type Damage struct {
	Description    string
	EstimatedCost  int64
	Responsibility Responsibility
}

// Inspection is a scheduled or conducted walkthrough. A move-in inspection
// is complete only when both sign-off flags are set.
type Inspection struct {
	Kind             InspectionKind
	ScheduledAt      *time.Time
	ConductedAt      *time.Time
	ConductedBy      string
	Report           string
	Photos           []string
	SignedByLandlord bool
	SignedByTenant   bool
	Damages          []Damage // move-out only
}

// Complete reports whether both parties have signed off.
func (i *Inspection) Complete() bool {
	return i != nil && i.SignedByLandlord && i.SignedByTenant
}

// Inspections holds the two fixed slots plus the periodic list.
type Inspections struct {
	MoveIn   *Inspection
	MoveOut  *Inspection
	Periodic []Inspection
}

// NoticeType classifies a formal notice between the parties.
type NoticeType string

const (
	NoticeRenewal      NoticeType = "renewal"
	NoticeTermination  NoticeType = "termination"
	NoticeRentIncrease NoticeType = "rent_increase"
	NoticeOther        NoticeType = "other"
)

// Notice is a formal notice given by one party (or the system).
type Notice struct {
	ID            string
	Type          NoticeType
	GivenBy       string
	GivenAt       time.Time
	EffectiveDate *time.Time
	Reason        string
	Acknowledged  bool
}

// RenewalStatus is the small renewal sub-state.
type RenewalStatus string

const (
	RenewalNotDue   RenewalStatus = "not_due"
	RenewalPending  RenewalStatus = "pending"
	RenewalOffered  RenewalStatus = "offered"
	RenewalAccepted RenewalStatus = "accepted"
	RenewalDeclined RenewalStatus = "declined"
	RenewalExpired  RenewalStatus = "expired"
)

// Renewal tracks the renewal offer for the current term.
type Renewal struct {
	Status        RenewalStatus
	OfferedAt     *time.Time
	RespondBy     *time.Time
	NewRentAmount int64
	NewEndDate    *time.Time
	NoticeID      string // the originating renewal notice
}

// DepositStatus is the security-deposit state.
type DepositStatus string

const (
	DepositPending           DepositStatus = "pending"
	DepositPaid              DepositStatus = "paid"
	DepositHeld              DepositStatus = "held"
	DepositReturned          DepositStatus = "returned"
	DepositPartiallyReturned DepositStatus = "partially_returned"
	DepositPendingRefund     DepositStatus = "pending_refund"
)

// DepositTxType classifies a deposit ledger entry.
type DepositTxType string

const (
	DepositTxDeposit   DepositTxType = "deposit"
	DepositTxReturn    DepositTxType = "return"
	DepositTxDeduction DepositTxType = "deduction"
)

// DepositTransaction is one entry of the append-only deposit ledger.
type DepositTransaction struct {
	ID          string
	Amount      int64
	Type        DepositTxType
	Date        time.Time
	Description string
	Proof       string
}

// Addendum is a document record appended to the lease, e.g. on renewal
// acceptance.
type Addendum struct {
	ID        string
	Title     string
	Body      string
	CreatedBy string
	CreatedAt time.Time
}

// Lease is the central aggregate. LandlordID, TenantID and PropertyID are
// set at creation and never change. All mutation goes through the
// transition and sub-record operations; the store persists the whole
// aggregate as one document write guarded by Version.
type Lease struct {
	ID         string
	LandlordID string
	TenantID   string
	PropertyID string

	Status Status

	Terms       Terms
	Application Application
	Signatures  Signatures

	StatusHistory       []StatusChange
	Messages            []Message
	RequestedChanges    []ChangeRequest
	Inspections         Inspections
	Notices             []Notice
	Renewal             Renewal
	DepositStatus       DepositStatus
	DepositTransactions []DepositTransaction
	Addenda             []Addendum

	IsLocked  bool
	LockedAt  *time.Time
	IsDeleted bool
	DeletedAt *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time

	// Version is the optimistic-concurrency token managed by the store.
	Version int64
}

// NewApplication creates a lease from a tenant application. The rent amount
// is snapshotted from the property catalog at application time; later price
// changes do not affect the lease.
func NewApplication(landlordID, tenantID, propertyID string, rentAmount int64, now time.Time) *Lease {
	l := &Lease{
		ID:         uuid.NewString(),
		LandlordID: landlordID,
		TenantID:   tenantID,
		PropertyID: propertyID,
		Status:     StatusPendingRequest,
		Terms: Terms{
			RentAmount:    rentAmount,
			RentFrequency: FrequencyMonthly,
		},
		Application: Application{
			ScreeningStatus: ScreeningPending,
			SubmittedAt:     &now,
		},
		Renewal:       Renewal{Status: RenewalNotDue},
		DepositStatus: DepositPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	l.appendHistory(StatusPendingRequest, tenantID, "application submitted", now, nil)
	return l
}

// NewDraft creates a lease directly in draft, the landlord-initiated flow
// that skips the application stage.
func NewDraft(landlordID, tenantID, propertyID string, rentAmount int64, now time.Time) *Lease {
	l := &Lease{
		ID:         uuid.NewString(),
		LandlordID: landlordID,
		TenantID:   tenantID,
		PropertyID: propertyID,
		Status:     StatusDraft,
		Terms: Terms{
			RentAmount:    rentAmount,
			RentFrequency: FrequencyMonthly,
		},
		Application:   Application{ScreeningStatus: ScreeningWaived},
		Renewal:       Renewal{Status: RenewalNotDue},
		DepositStatus: DepositPending,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	l.appendHistory(StatusDraft, landlordID, "draft created by landlord", now, nil)
	return l
}

// PartyOf resolves which side of this lease the given user is on.
func (l *Lease) PartyOf(userID string) Party {
	switch userID {
	case l.LandlordID:
		return PartyLandlord
	case l.TenantID:
		return PartyTenant
	case SystemActorID:
		return PartySystem
	}
	return PartyNone
}

// actorID maps a party back to the user id recorded in history entries.
func (l *Lease) actorID(p Party) string {
	switch p {
	case PartyLandlord:
		return l.LandlordID
	case PartyTenant:
		return l.TenantID
	}
	return SystemActorID
}

// OpenChanges returns the unresolved change requests.
func (l *Lease) OpenChanges() []ChangeRequest {
	var open []ChangeRequest
	for _, cr := range l.RequestedChanges {
		if !cr.Resolved {
			open = append(open, cr)
		}
	}
	return open
}

// HasOpenChanges reports whether any change request is unresolved.
func (l *Lease) HasOpenChanges() bool {
	for _, cr := range l.RequestedChanges {
		if !cr.Resolved {
			return true
		}
	}
	return false
}

// HasNotice reports whether any notice of the given type exists. The
// renewal auto-notice derivation uses this as its idempotency guard.
func (l *Lease) HasNotice(t NoticeType) bool {
	for _, n := range l.Notices {
		if n.Type == t {
			return true
		}
	}
	return false
}

// EnsureUnlocked fails with ErrLeaseLocked once signing is final. Terms
// fields are immutable after the lock.
func (l *Lease) EnsureUnlocked() error {
	if l.IsLocked {
		return ErrLeaseLocked
	}
	return nil
}

// Inspection returns the record in the given slot, nil if not yet created.
// Periodic inspections are not addressable through this accessor.
func (l *Lease) Inspection(kind InspectionKind) *Inspection {
	switch kind {
	case InspectionMoveIn:
		return l.Inspections.MoveIn
	case InspectionMoveOut:
		return l.Inspections.MoveOut
	}
	return nil
}

func (l *Lease) appendHistory(s Status, by, reason string, at time.Time, meta map[string]string) {
	l.StatusHistory = append(l.StatusHistory, StatusChange{
		Status:    s,
		ChangedBy: by,
		Reason:    reason,
		ChangedAt: at,
		Metadata:  meta,
	})
}
