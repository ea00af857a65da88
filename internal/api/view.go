// ABOUTME: Wire representations of the lease aggregate and list projections
// ABOUTME: Maps domain structs to the camelCase JSON the platform clients expect

package api

import (
	"time"

	"github.com/lodgekeep/lodgekeep/internal/lease"
	"github.com/lodgekeep/lodgekeep/internal/store"
)

type termsView struct {
	StartDate           *time.Time        `json:"startDate,omitempty"`
	EndDate             *time.Time        `json:"endDate,omitempty"`
	RentAmount          int64             `json:"rentAmount"`
	RentFrequency       string            `json:"rentFrequency"`
	SecurityDeposit     *int64            `json:"securityDeposit,omitempty"`
	UtilitiesIncluded   []string          `json:"utilitiesIncluded,omitempty"`
	UtilitiesTenantPaid []string          `json:"utilitiesTenantPaid,omitempty"`
	LateFee             int64             `json:"lateFee,omitempty"`
	GracePeriodDays     int               `json:"gracePeriodDays,omitempty"`
	Extra               map[string]string `json:"extra,omitempty"`
	CustomClauses       []string          `json:"customClauses,omitempty"`
}

type applicationView struct {
	ScreeningStatus    string     `json:"screeningStatus"`
	CreditScore        int        `json:"creditScore,omitempty"`
	IncomeVerified     bool       `json:"incomeVerified"`
	ReferencesVerified bool       `json:"referencesVerified"`
	SubmittedAt        *time.Time `json:"submittedAt,omitempty"`
	ReviewedAt         *time.Time `json:"reviewedAt,omitempty"`
	ReviewedBy         string     `json:"reviewedBy,omitempty"`
	Notes              string     `json:"notes,omitempty"`
}

type signatureView struct {
	SignedAt time.Time `json:"signedAt"`
	Mode     string    `json:"mode"`
	Data     string    `json:"data"`
}

type signaturesView struct {
	Landlord *signatureView `json:"landlord,omitempty"`
	Tenant   *signatureView `json:"tenant,omitempty"`
}

type statusChangeView struct {
	Status    string            `json:"status"`
	ChangedBy string            `json:"changedBy"`
	Reason    string            `json:"reason,omitempty"`
	ChangedAt time.Time         `json:"changedAt"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

type messageView struct {
	ID          string    `json:"id"`
	From        string    `json:"from"`
	Text        string    `json:"text"`
	Attachments []string  `json:"attachments,omitempty"`
	SentAt      time.Time `json:"sentAt"`
	ReadBy      []string  `json:"readBy,omitempty"`
}

type changeRequestView struct {
	ID              string            `json:"id"`
	RequestedBy     string            `json:"requestedBy"`
	Changes         map[string]string `json:"changes"`
	RequestedAt     time.Time         `json:"requestedAt"`
	Resolved        bool              `json:"resolved"`
	ResolvedAt      *time.Time        `json:"resolvedAt,omitempty"`
	ResolutionNotes string            `json:"resolutionNotes,omitempty"`
}

type damageView struct {
	Description    string `json:"description"`
	EstimatedCost  int64  `json:"estimatedCost"`
	Responsibility string `json:"responsibility"`
}

type inspectionView struct {
	Kind             string       `json:"kind"`
	ScheduledAt      *time.Time   `json:"scheduledAt,omitempty"`
	ConductedAt      *time.Time   `json:"conductedAt,omitempty"`
	ConductedBy      string       `json:"conductedBy,omitempty"`
	Report           string       `json:"report,omitempty"`
	Photos           []string     `json:"photos,omitempty"`
	SignedByLandlord bool         `json:"signedByLandlord"`
	SignedByTenant   bool         `json:"signedByTenant"`
	Damages          []damageView `json:"damages,omitempty"`
}

type inspectionsView struct {
	MoveIn   *inspectionView  `json:"moveIn,omitempty"`
	MoveOut  *inspectionView  `json:"moveOut,omitempty"`
	Periodic []inspectionView `json:"periodic,omitempty"`
}

type noticeView struct {
	ID            string     `json:"id"`
	Type          string     `json:"type"`
	GivenBy       string     `json:"givenBy"`
	GivenAt       time.Time  `json:"givenAt"`
	EffectiveDate *time.Time `json:"effectiveDate,omitempty"`
	Reason        string     `json:"reason,omitempty"`
	Acknowledged  bool       `json:"acknowledged"`
}

type renewalView struct {
	Status        string     `json:"status"`
	OfferedAt     *time.Time `json:"offeredAt,omitempty"`
	RespondBy     *time.Time `json:"respondBy,omitempty"`
	NewRentAmount int64      `json:"newRentAmount,omitempty"`
	NewEndDate    *time.Time `json:"newEndDate,omitempty"`
}

type depositTxView struct {
	ID          string    `json:"id"`
	Amount      int64     `json:"amount"`
	Type        string    `json:"type"`
	Date        time.Time `json:"date"`
	Description string    `json:"description,omitempty"`
	Proof       string    `json:"proof,omitempty"`
}

type addendumView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedBy string    `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`
}

type leaseView struct {
	ID         string `json:"id"`
	LandlordID string `json:"landlordId"`
	TenantID   string `json:"tenantId"`
	PropertyID string `json:"propertyId"`

	Status string `json:"status"`

	Terms       termsView       `json:"terms"`
	Application applicationView `json:"application"`
	Signatures  signaturesView  `json:"signatures"`

	StatusHistory       []statusChangeView  `json:"statusHistory"`
	Messages            []messageView       `json:"messages,omitempty"`
	RequestedChanges    []changeRequestView `json:"requestedChanges,omitempty"`
	Inspections         inspectionsView     `json:"inspections"`
	Notices             []noticeView        `json:"notices,omitempty"`
	Renewal             renewalView         `json:"renewal"`
	DepositStatus       string              `json:"depositStatus"`
	DepositTransactions []depositTxView     `json:"depositTransactions,omitempty"`
	Addenda             []addendumView      `json:"addenda,omitempty"`

	IsLocked  bool       `json:"isLocked"`
	LockedAt  *time.Time `json:"lockedAt,omitempty"`
	IsDeleted bool       `json:"isDeleted,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

func signatureToView(s *lease.Signature) *signatureView {
	if s == nil {
		return nil
	}
	return &signatureView{SignedAt: s.SignedAt, Mode: string(s.Mode), Data: s.Data}
}

func inspectionToView(i *lease.Inspection) *inspectionView {
	if i == nil {
		return nil
	}
	v := &inspectionView{
		Kind:             string(i.Kind),
		ScheduledAt:      i.ScheduledAt,
		ConductedAt:      i.ConductedAt,
		ConductedBy:      i.ConductedBy,
		Report:           i.Report,
		Photos:           i.Photos,
		SignedByLandlord: i.SignedByLandlord,
		SignedByTenant:   i.SignedByTenant,
	}
	for _, d := range i.Damages {
		v.Damages = append(v.Damages, damageView{
			Description:    d.Description,
			EstimatedCost:  d.EstimatedCost,
			Responsibility: string(d.Responsibility),
		})
	}
	return v
}

func leaseToView(l *lease.Lease) *leaseView {
	v := &leaseView{
		ID:         l.ID,
		LandlordID: l.LandlordID,
		TenantID:   l.TenantID,
		PropertyID: l.PropertyID,
		Status:     string(l.Status),
		Terms: termsView{
			StartDate:           l.Terms.StartDate,
			EndDate:             l.Terms.EndDate,
			RentAmount:          l.Terms.RentAmount,
			RentFrequency:       string(l.Terms.RentFrequency),
			SecurityDeposit:     l.Terms.SecurityDeposit,
			UtilitiesIncluded:   l.Terms.UtilitiesIncluded,
			UtilitiesTenantPaid: l.Terms.UtilitiesTenantPaid,
			LateFee:             l.Terms.LateFee,
			GracePeriodDays:     l.Terms.GracePeriodDays,
			Extra:               l.Terms.Extra,
			CustomClauses:       l.Terms.CustomClauses,
		},
		Application: applicationView{
			ScreeningStatus:    string(l.Application.ScreeningStatus),
			CreditScore:        l.Application.CreditScore,
			IncomeVerified:     l.Application.IncomeVerified,
			ReferencesVerified: l.Application.ReferencesVerified,
			SubmittedAt:        l.Application.SubmittedAt,
			ReviewedAt:         l.Application.ReviewedAt,
			ReviewedBy:         l.Application.ReviewedBy,
			Notes:              l.Application.Notes,
		},
		Signatures: signaturesView{
			Landlord: signatureToView(l.Signatures.Landlord),
			Tenant:   signatureToView(l.Signatures.Tenant),
		},
		Inspections: inspectionsView{
			MoveIn:  inspectionToView(l.Inspections.MoveIn),
			MoveOut: inspectionToView(l.Inspections.MoveOut),
		},
		Renewal: renewalView{
			Status:        string(l.Renewal.Status),
			OfferedAt:     l.Renewal.OfferedAt,
			RespondBy:     l.Renewal.RespondBy,
			NewRentAmount: l.Renewal.NewRentAmount,
			NewEndDate:    l.Renewal.NewEndDate,
		},
		DepositStatus: string(l.DepositStatus),
		IsLocked:      l.IsLocked,
		LockedAt:      l.LockedAt,
		IsDeleted:     l.IsDeleted,
		CreatedAt:     l.CreatedAt,
		UpdatedAt:     l.UpdatedAt,
	}

	for _, h := range l.StatusHistory {
		v.StatusHistory = append(v.StatusHistory, statusChangeView{
			Status:    string(h.Status),
			ChangedBy: h.ChangedBy,
			Reason:    h.Reason,
			ChangedAt: h.ChangedAt,
			Metadata:  h.Metadata,
		})
	}
	for _, m := range l.Messages {
		v.Messages = append(v.Messages, messageView{
			ID:          m.ID,
			From:        m.From,
			Text:        m.Text,
			Attachments: m.Attachments,
			SentAt:      m.SentAt,
			ReadBy:      m.ReadBy,
		})
	}
	for _, cr := range l.RequestedChanges {
		v.RequestedChanges = append(v.RequestedChanges, changeRequestView{
			ID:              cr.ID,
			RequestedBy:     cr.RequestedBy,
			Changes:         cr.Changes,
			RequestedAt:     cr.RequestedAt,
			Resolved:        cr.Resolved,
			ResolvedAt:      cr.ResolvedAt,
			ResolutionNotes: cr.ResolutionNotes,
		})
	}
	for i := range l.Inspections.Periodic {
		v.Inspections.Periodic = append(v.Inspections.Periodic, *inspectionToView(&l.Inspections.Periodic[i]))
	}
	for _, n := range l.Notices {
		v.Notices = append(v.Notices, noticeView{
			ID:            n.ID,
			Type:          string(n.Type),
			GivenBy:       n.GivenBy,
			GivenAt:       n.GivenAt,
			EffectiveDate: n.EffectiveDate,
			Reason:        n.Reason,
			Acknowledged:  n.Acknowledged,
		})
	}
	for _, tx := range l.DepositTransactions {
		v.DepositTransactions = append(v.DepositTransactions, depositTxView{
			ID:          tx.ID,
			Amount:      tx.Amount,
			Type:        string(tx.Type),
			Date:        tx.Date,
			Description: tx.Description,
			Proof:       tx.Proof,
		})
	}
	for _, a := range l.Addenda {
		v.Addenda = append(v.Addenda, addendumView{
			ID:        a.ID,
			Title:     a.Title,
			Body:      a.Body,
			CreatedBy: a.CreatedBy,
			CreatedAt: a.CreatedAt,
		})
	}
	return v
}

type summaryView struct {
	ID         string  `json:"id"`
	LandlordID string  `json:"landlordId"`
	TenantID   string  `json:"tenantId"`
	PropertyID string  `json:"propertyId"`
	Status     string  `json:"status"`
	RentAmount int64   `json:"rentAmount"`
	StartDate  *string `json:"startDate,omitempty"`
	EndDate    *string `json:"endDate,omitempty"`
	UpdatedAt  string  `json:"updatedAt"`
}

func summariesToView(summaries []*store.LeaseSummary) []summaryView {
	out := make([]summaryView, 0, len(summaries))
	for _, s := range summaries {
		out = append(out, summaryView{
			ID:         s.ID,
			LandlordID: s.LandlordID,
			TenantID:   s.TenantID,
			PropertyID: s.PropertyID,
			Status:     string(s.Status),
			RentAmount: s.RentAmount,
			StartDate:  s.StartDate,
			EndDate:    s.EndDate,
			UpdatedAt:  s.UpdatedAt,
		})
	}
	return out
}
