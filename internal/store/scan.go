// ABOUTME: Reassembles the lease aggregate from its row and child tables
// ABOUTME: Child sequences come back in insertion order via the seq column

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/lodgekeep/lodgekeep/internal/lease"
)

func (s *SQLiteStore) loadLease(ctx context.Context, id string) (*lease.Lease, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+leaseColumns+` FROM leases WHERE id = ?`, id)

	l := &lease.Lease{}
	var (
		status, frequency, screening, renewalStatus, depositStatus string
		startDate, endDate, submittedAt, reviewedAt                *string
		renewalOfferedAt, renewalRespondBy, renewalNewEnd          *string
		lockedAt, deletedAt                                        *string
		createdAt, updatedAt                                       string
		utilitiesIncluded, utilitiesTenantPaid                     string
		termsExtra, customClauses                                  string
		incomeVerified, referencesVerified, isLocked, isDeleted    int
	)

	err := row.Scan(
		&l.ID, &l.LandlordID, &l.TenantID, &l.PropertyID, &status,
		&startDate, &endDate, &l.Terms.RentAmount, &frequency, &l.Terms.SecurityDeposit,
		&utilitiesIncluded, &utilitiesTenantPaid, &l.Terms.LateFee, &l.Terms.GracePeriodDays,
		&termsExtra, &customClauses,
		&screening, &l.Application.CreditScore, &incomeVerified, &referencesVerified,
		&submittedAt, &reviewedAt, &l.Application.ReviewedBy, &l.Application.Notes,
		&renewalStatus, &renewalOfferedAt, &renewalRespondBy,
		&l.Renewal.NewRentAmount, &renewalNewEnd, &l.Renewal.NoticeID,
		&depositStatus,
		&isLocked, &lockedAt, &isDeleted, &deletedAt, &createdAt, &updatedAt, &l.Version,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning lease: %w", err)
	}

	l.Status = lease.Status(status)
	l.Terms.RentFrequency = lease.Frequency(frequency)
	l.Application.ScreeningStatus = lease.ScreeningStatus(screening)
	l.Application.IncomeVerified = incomeVerified != 0
	l.Application.ReferencesVerified = referencesVerified != 0
	l.Renewal.Status = lease.RenewalStatus(renewalStatus)
	l.DepositStatus = lease.DepositStatus(depositStatus)
	l.IsLocked = isLocked != 0
	l.IsDeleted = isDeleted != 0

	if l.Terms.StartDate, err = parseTimePtr(startDate); err != nil {
		return nil, fmt.Errorf("parsing start date: %w", err)
	}
	if l.Terms.EndDate, err = parseTimePtr(endDate); err != nil {
		return nil, fmt.Errorf("parsing end date: %w", err)
	}
	if l.Application.SubmittedAt, err = parseTimePtr(submittedAt); err != nil {
		return nil, fmt.Errorf("parsing submitted at: %w", err)
	}
	if l.Application.ReviewedAt, err = parseTimePtr(reviewedAt); err != nil {
		return nil, fmt.Errorf("parsing reviewed at: %w", err)
	}
	if l.Renewal.OfferedAt, err = parseTimePtr(renewalOfferedAt); err != nil {
		return nil, fmt.Errorf("parsing renewal offered at: %w", err)
	}
	if l.Renewal.RespondBy, err = parseTimePtr(renewalRespondBy); err != nil {
		return nil, fmt.Errorf("parsing renewal respond by: %w", err)
	}
	if l.Renewal.NewEndDate, err = parseTimePtr(renewalNewEnd); err != nil {
		return nil, fmt.Errorf("parsing renewal new end date: %w", err)
	}
	if l.LockedAt, err = parseTimePtr(lockedAt); err != nil {
		return nil, fmt.Errorf("parsing locked at: %w", err)
	}
	if l.DeletedAt, err = parseTimePtr(deletedAt); err != nil {
		return nil, fmt.Errorf("parsing deleted at: %w", err)
	}
	if l.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parsing created at: %w", err)
	}
	if l.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated at: %w", err)
	}

	if err := unmarshalJSON(utilitiesIncluded, &l.Terms.UtilitiesIncluded); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(utilitiesTenantPaid, &l.Terms.UtilitiesTenantPaid); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(termsExtra, &l.Terms.Extra); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(customClauses, &l.Terms.CustomClauses); err != nil {
		return nil, err
	}

	if err := s.loadChildren(ctx, l); err != nil {
		return nil, err
	}
	return l, nil
}

func (s *SQLiteStore) loadChildren(ctx context.Context, l *lease.Lease) error {
	if err := s.loadHistory(ctx, l); err != nil {
		return err
	}
	if err := s.loadSignatures(ctx, l); err != nil {
		return err
	}
	if err := s.loadMessages(ctx, l); err != nil {
		return err
	}
	if err := s.loadChangeRequests(ctx, l); err != nil {
		return err
	}
	if err := s.loadInspections(ctx, l); err != nil {
		return err
	}
	if err := s.loadNotices(ctx, l); err != nil {
		return err
	}
	if err := s.loadDepositTransactions(ctx, l); err != nil {
		return err
	}
	return s.loadAddenda(ctx, l)
}

func (s *SQLiteStore) loadHistory(ctx context.Context, l *lease.Lease) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT status, changed_by, reason, changed_at, metadata_json
		FROM lease_status_history WHERE lease_id = ? ORDER BY seq`, l.ID)
	if err != nil {
		return fmt.Errorf("loading status history: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var h lease.StatusChange
		var status, changedAt string
		var meta *string
		if err := rows.Scan(&status, &h.ChangedBy, &h.Reason, &changedAt, &meta); err != nil {
			return fmt.Errorf("scanning status history: %w", err)
		}
		h.Status = lease.Status(status)
		if h.ChangedAt, err = parseTime(changedAt); err != nil {
			return fmt.Errorf("parsing history timestamp: %w", err)
		}
		if meta != nil {
			if err := unmarshalJSON(*meta, &h.Metadata); err != nil {
				return err
			}
		}
		l.StatusHistory = append(l.StatusHistory, h)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadSignatures(ctx context.Context, l *lease.Lease) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT party, signed_at, mode, data, ip_address, user_agent
		FROM lease_signatures WHERE lease_id = ?`, l.ID)
	if err != nil {
		return fmt.Errorf("loading signatures: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var party, signedAt, mode string
		sig := &lease.Signature{}
		if err := rows.Scan(&party, &signedAt, &mode, &sig.Data, &sig.IPAddress, &sig.UserAgent); err != nil {
			return fmt.Errorf("scanning signature: %w", err)
		}
		sig.Mode = lease.SignatureMode(mode)
		if sig.SignedAt, err = parseTime(signedAt); err != nil {
			return fmt.Errorf("parsing signature timestamp: %w", err)
		}
		switch party {
		case "landlord":
			l.Signatures.Landlord = sig
		case "tenant":
			l.Signatures.Tenant = sig
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) loadMessages(ctx context.Context, l *lease.Lease) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, from_user, text, attachments_json, sent_at, read_by_json
		FROM lease_messages WHERE lease_id = ? ORDER BY seq`, l.ID)
	if err != nil {
		return fmt.Errorf("loading messages: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m lease.Message
		var attachments, sentAt, readBy string
		if err := rows.Scan(&m.ID, &m.From, &m.Text, &attachments, &sentAt, &readBy); err != nil {
			return fmt.Errorf("scanning message: %w", err)
		}
		if err := unmarshalJSON(attachments, &m.Attachments); err != nil {
			return err
		}
		if err := unmarshalJSON(readBy, &m.ReadBy); err != nil {
			return err
		}
		if m.SentAt, err = parseTime(sentAt); err != nil {
			return fmt.Errorf("parsing message timestamp: %w", err)
		}
		l.Messages = append(l.Messages, m)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadChangeRequests(ctx context.Context, l *lease.Lease) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, requested_by, changes_json, requested_at, resolved, resolved_at, resolution_notes
		FROM lease_requested_changes WHERE lease_id = ? ORDER BY seq`, l.ID)
	if err != nil {
		return fmt.Errorf("loading change requests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var cr lease.ChangeRequest
		var changes, requestedAt string
		var resolved int
		var resolvedAt *string
		if err := rows.Scan(&cr.ID, &cr.RequestedBy, &changes, &requestedAt,
			&resolved, &resolvedAt, &cr.ResolutionNotes); err != nil {
			return fmt.Errorf("scanning change request: %w", err)
		}
		cr.Resolved = resolved != 0
		if err := unmarshalJSON(changes, &cr.Changes); err != nil {
			return err
		}
		if cr.RequestedAt, err = parseTime(requestedAt); err != nil {
			return fmt.Errorf("parsing change request timestamp: %w", err)
		}
		if cr.ResolvedAt, err = parseTimePtr(resolvedAt); err != nil {
			return fmt.Errorf("parsing change resolution timestamp: %w", err)
		}
		l.RequestedChanges = append(l.RequestedChanges, cr)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadInspections(ctx context.Context, l *lease.Lease) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, scheduled_at, conducted_at, conducted_by, report,
		       photos_json, signed_by_landlord, signed_by_tenant, damages_json
		FROM lease_inspections WHERE lease_id = ? ORDER BY kind, seq`, l.ID)
	if err != nil {
		return fmt.Errorf("loading inspections: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var in lease.Inspection
		var kind, photos, damages string
		var scheduledAt, conductedAt *string
		var sigL, sigT int
		if err := rows.Scan(&kind, &scheduledAt, &conductedAt, &in.ConductedBy,
			&in.Report, &photos, &sigL, &sigT, &damages); err != nil {
			return fmt.Errorf("scanning inspection: %w", err)
		}
		in.Kind = lease.InspectionKind(kind)
		in.SignedByLandlord = sigL != 0
		in.SignedByTenant = sigT != 0
		if in.ScheduledAt, err = parseTimePtr(scheduledAt); err != nil {
			return fmt.Errorf("parsing inspection schedule: %w", err)
		}
		if in.ConductedAt, err = parseTimePtr(conductedAt); err != nil {
			return fmt.Errorf("parsing inspection conduct time: %w", err)
		}
		if err := unmarshalJSON(photos, &in.Photos); err != nil {
			return err
		}
		if err := unmarshalJSON(damages, &in.Damages); err != nil {
			return err
		}
		switch in.Kind {
		case lease.InspectionMoveIn:
			moveIn := in
			l.Inspections.MoveIn = &moveIn
		case lease.InspectionMoveOut:
			moveOut := in
			l.Inspections.MoveOut = &moveOut
		case lease.InspectionPeriodic:
			l.Inspections.Periodic = append(l.Inspections.Periodic, in)
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) loadNotices(ctx context.Context, l *lease.Lease) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, type, given_by, given_at, effective_date, reason, acknowledged
		FROM lease_notices WHERE lease_id = ? ORDER BY seq`, l.ID)
	if err != nil {
		return fmt.Errorf("loading notices: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var n lease.Notice
		var typ, givenAt string
		var effective *string
		var acked int
		if err := rows.Scan(&n.ID, &typ, &n.GivenBy, &givenAt, &effective, &n.Reason, &acked); err != nil {
			return fmt.Errorf("scanning notice: %w", err)
		}
		n.Type = lease.NoticeType(typ)
		n.Acknowledged = acked != 0
		if n.GivenAt, err = parseTime(givenAt); err != nil {
			return fmt.Errorf("parsing notice timestamp: %w", err)
		}
		if n.EffectiveDate, err = parseTimePtr(effective); err != nil {
			return fmt.Errorf("parsing notice effective date: %w", err)
		}
		l.Notices = append(l.Notices, n)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadDepositTransactions(ctx context.Context, l *lease.Lease) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, amount, type, date, description, proof
		FROM lease_deposit_transactions WHERE lease_id = ? ORDER BY seq`, l.ID)
	if err != nil {
		return fmt.Errorf("loading deposit transactions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var dt lease.DepositTransaction
		var typ, date string
		if err := rows.Scan(&dt.ID, &dt.Amount, &typ, &date, &dt.Description, &dt.Proof); err != nil {
			return fmt.Errorf("scanning deposit transaction: %w", err)
		}
		dt.Type = lease.DepositTxType(typ)
		if dt.Date, err = parseTime(date); err != nil {
			return fmt.Errorf("parsing deposit transaction date: %w", err)
		}
		l.DepositTransactions = append(l.DepositTransactions, dt)
	}
	return rows.Err()
}

func (s *SQLiteStore) loadAddenda(ctx context.Context, l *lease.Lease) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, body, created_by, created_at
		FROM lease_addenda WHERE lease_id = ? ORDER BY seq`, l.ID)
	if err != nil {
		return fmt.Errorf("loading addenda: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var a lease.Addendum
		var createdAt string
		if err := rows.Scan(&a.ID, &a.Title, &a.Body, &a.CreatedBy, &createdAt); err != nil {
			return fmt.Errorf("scanning addendum: %w", err)
		}
		if a.CreatedAt, err = parseTime(createdAt); err != nil {
			return fmt.Errorf("parsing addendum timestamp: %w", err)
		}
		l.Addenda = append(l.Addenda, a)
	}
	return rows.Err()
}

func unmarshalJSON(s string, v any) error {
	if s == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s), v); err != nil {
		return fmt.Errorf("decoding stored JSON: %w", err)
	}
	return nil
}
