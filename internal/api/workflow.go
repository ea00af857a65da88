// ABOUTME: Handlers for the lease workflow: review, drafting, signing, inspections,
// ABOUTME: notices, renewals, deposit accounting, cancellation, and messaging

package api

import (
	"encoding/base64"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/lodgekeep/lodgekeep/internal/engine"
	"github.com/lodgekeep/lodgekeep/internal/lease"
)

func (s *Server) handleReview(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Decision string `json:"decision"`
		Notes    string `json:"notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	l, err := s.engine.ReviewApplication(r.Context(), leaseID(r), actorID(r), engine.ReviewDecision(req.Decision), req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "application reviewed", leaseToView(l))
}

type termsPatchBody struct {
	StartDate           *time.Time        `json:"startDate"`
	EndDate             *time.Time        `json:"endDate"`
	RentAmount          *int64            `json:"rentAmount"`
	RentFrequency       *string           `json:"rentFrequency"`
	SecurityDeposit     *int64            `json:"securityDeposit"`
	UtilitiesIncluded   []string          `json:"utilitiesIncluded"`
	UtilitiesTenantPaid []string          `json:"utilitiesTenantPaid"`
	LateFee             *int64            `json:"lateFee"`
	GracePeriodDays     *int              `json:"gracePeriodDays"`
	Extra               map[string]string `json:"extra"`
	CustomClauses       []string          `json:"customClauses"`
}

func (b termsPatchBody) toPatch() engine.TermsPatch {
	patch := engine.TermsPatch{
		StartDate:           b.StartDate,
		EndDate:             b.EndDate,
		RentAmount:          b.RentAmount,
		SecurityDeposit:     b.SecurityDeposit,
		UtilitiesIncluded:   b.UtilitiesIncluded,
		UtilitiesTenantPaid: b.UtilitiesTenantPaid,
		LateFee:             b.LateFee,
		GracePeriodDays:     b.GracePeriodDays,
		Extra:               b.Extra,
		CustomClauses:       b.CustomClauses,
	}
	if b.RentFrequency != nil {
		f := lease.Frequency(*b.RentFrequency)
		patch.RentFrequency = &f
	}
	return patch
}

func (s *Server) handleUpdateDraft(w http.ResponseWriter, r *http.Request) {
	var body termsPatchBody
	if err := decodeBody(r, &body); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	l, err := s.engine.UpdateDraft(r.Context(), leaseID(r), actorID(r), body.toPatch())
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "draft updated", leaseToView(l))
}

func (s *Server) handleSendToTenant(w http.ResponseWriter, r *http.Request) {
	l, err := s.engine.SendToTenant(r.Context(), leaseID(r), actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "draft sent to tenant", leaseToView(l))
}

func (s *Server) handleRequestChanges(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Changes map[string]string `json:"changes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	l, err := s.engine.RequestChanges(r.Context(), leaseID(r), actorID(r), req.Changes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "changes requested", leaseToView(l))
}

func (s *Server) handleResolveChanges(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Notes string `json:"notes"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	l, err := s.engine.ResolveChanges(r.Context(), leaseID(r), actorID(r), req.Notes)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "changes resolved", leaseToView(l))
}

func (s *Server) handleSendToLandlord(w http.ResponseWriter, r *http.Request) {
	l, err := s.engine.SendToLandlord(r.Context(), leaseID(r), actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "sent to landlord for signature", leaseToView(l))
}

func (s *Server) handleSign(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode      string `json:"mode"`
		Blob      string `json:"blob"` // base64
		TypedText string `json:"typedText"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	var blob []byte
	if req.Blob != "" {
		var err error
		blob, err = base64.StdEncoding.DecodeString(req.Blob)
		if err != nil {
			writeBadRequest(w, "blob must be base64 encoded")
			return
		}
	}

	res, err := s.engine.Sign(r.Context(), leaseID(r), actorID(r), engine.SignRequest{
		Mode:      lease.SignatureMode(req.Mode),
		Blob:      blob,
		TypedText: req.TypedText,
		IPAddress: r.RemoteAddr,
		UserAgent: r.UserAgent(),
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "lease signed", map[string]any{
		"lease":         leaseToView(res.Lease),
		"isFullySigned": res.IsFullySigned,
	})
}

func inspectionKind(r *http.Request) lease.InspectionKind {
	switch chi.URLParam(r, "kind") {
	case "move-in":
		return lease.InspectionMoveIn
	case "move-out":
		return lease.InspectionMoveOut
	case "periodic":
		return lease.InspectionPeriodic
	}
	return ""
}

func (s *Server) handleScheduleInspection(w http.ResponseWriter, r *http.Request) {
	kind := inspectionKind(r)
	if kind == "" {
		writeBadRequest(w, "inspection kind must be move-in, move-out, or periodic")
		return
	}

	var req struct {
		At time.Time `json:"at"`
	}
	if err := decodeBody(r, &req); err != nil || req.At.IsZero() {
		writeBadRequest(w, "a scheduled time is required")
		return
	}

	l, err := s.engine.ScheduleInspection(r.Context(), leaseID(r), actorID(r), kind, req.At)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "inspection scheduled", leaseToView(l))
}

func (s *Server) handleConductInspection(w http.ResponseWriter, r *http.Request) {
	kind := inspectionKind(r)
	if kind == "" {
		writeBadRequest(w, "inspection kind must be move-in, move-out, or periodic")
		return
	}

	var req struct {
		Report  string   `json:"report"`
		Photos  []string `json:"photos"` // base64
		Damages []struct {
			Description    string `json:"description"`
			EstimatedCost  int64  `json:"estimatedCost"`
			Responsibility string `json:"responsibility"`
		} `json:"damages"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	conduct := engine.ConductRequest{Report: req.Report}
	for _, p := range req.Photos {
		raw, err := base64.StdEncoding.DecodeString(p)
		if err != nil {
			writeBadRequest(w, "photos must be base64 encoded")
			return
		}
		conduct.Photos = append(conduct.Photos, raw)
	}
	for _, d := range req.Damages {
		conduct.Damages = append(conduct.Damages, lease.Damage{
			Description:    d.Description,
			EstimatedCost:  d.EstimatedCost,
			Responsibility: lease.Responsibility(d.Responsibility),
		})
	}

	l, err := s.engine.ConductInspection(r.Context(), leaseID(r), actorID(r), kind, conduct)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "inspection recorded", leaseToView(l))
}

func (s *Server) handleGiveNotice(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Type          string     `json:"type"`
		EffectiveDate *time.Time `json:"effectiveDate"`
		Reason        string     `json:"reason"`
		NewRentAmount int64      `json:"newRentAmount"`
		NewEndDate    *time.Time `json:"newEndDate"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	l, err := s.engine.GiveNotice(r.Context(), leaseID(r), actorID(r), engine.NoticeRequest{
		Type:          lease.NoticeType(req.Type),
		EffectiveDate: req.EffectiveDate,
		Reason:        req.Reason,
		NewRentAmount: req.NewRentAmount,
		NewEndDate:    req.NewEndDate,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "notice recorded", leaseToView(l))
}

func (s *Server) handleRespondToRenewal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action        string     `json:"action"`
		NewRentAmount int64      `json:"newRentAmount"`
		NewEndDate    *time.Time `json:"newEndDate"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	l, err := s.engine.RespondToRenewal(r.Context(), leaseID(r), actorID(r), engine.RenewalAction(req.Action), req.NewRentAmount, req.NewEndDate)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "renewal response recorded", leaseToView(l))
}

func (s *Server) handleRecordDepositPayment(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Amount int64  `json:"amount"`
		Proof  string `json:"proof"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	l, err := s.engine.RecordDepositPayment(r.Context(), leaseID(r), actorID(r), req.Amount, req.Proof)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "deposit payment recorded", leaseToView(l))
}

func (s *Server) handleProcessDepositReturn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ReturnedAmount int64 `json:"returnedAmount"`
		Deductions     []struct {
			Amount      int64  `json:"amount"`
			Description string `json:"description"`
			Proof       string `json:"proof"`
		} `json:"deductions"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	var deductions []lease.Deduction
	for _, d := range req.Deductions {
		deductions = append(deductions, lease.Deduction{
			Amount:      d.Amount,
			Description: d.Description,
			Proof:       d.Proof,
		})
	}

	l, err := s.engine.ProcessDepositReturn(r.Context(), leaseID(r), actorID(r), req.ReturnedAmount, deductions)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "deposit settled", leaseToView(l))
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Reason string `json:"reason"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	l, err := s.engine.Cancel(r.Context(), leaseID(r), actorID(r), req.Reason)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "lease cancelled", leaseToView(l))
}

func (s *Server) handleAddMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text        string   `json:"text"`
		Attachments []string `json:"attachments"` // base64
	}
	if err := decodeBody(r, &req); err != nil {
		writeBadRequest(w, "invalid request body")
		return
	}

	var attachments [][]byte
	for _, a := range req.Attachments {
		raw, err := base64.StdEncoding.DecodeString(a)
		if err != nil {
			writeBadRequest(w, "attachments must be base64 encoded")
			return
		}
		attachments = append(attachments, raw)
	}

	l, err := s.engine.AddMessage(r.Context(), leaseID(r), actorID(r), req.Text, attachments)
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "message posted", leaseToView(l))
}

func (s *Server) handleMarkMessagesRead(w http.ResponseWriter, r *http.Request) {
	l, err := s.engine.MarkMessagesRead(r.Context(), leaseID(r), actorID(r))
	if err != nil {
		writeError(w, err)
		return
	}
	writeSuccess(w, http.StatusOK, "messages marked read", leaseToView(l))
}
