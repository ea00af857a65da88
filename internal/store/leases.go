// ABOUTME: Lease aggregate persistence: one transactional document write per lease
// ABOUTME: Child tables are rewritten with the row under a version CAS

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/lodgekeep/lodgekeep/internal/lease"
)

// CreateLease persists a new lease with version 1.
func (s *SQLiteStore) CreateLease(ctx context.Context, l *lease.Lease) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	l.Version = 1
	if err := insertLeaseRow(ctx, tx, l); err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateLease
		}
		return fmt.Errorf("inserting lease: %w", err)
	}
	if err := insertChildren(ctx, tx, l); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing lease create: %w", err)
	}
	s.logger.Debug("lease created", "lease_id", l.ID, "status", l.Status)
	return nil
}

// UpdateLease writes the whole aggregate if the version token still
// matches, then bumps it. The row update and the child rewrite share one
// transaction so a failed write leaves the stored document untouched.
func (s *SQLiteStore) UpdateLease(ctx context.Context, l *lease.Lease) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, leaseUpdateSQL, leaseUpdateArgs(l)...)
	if err != nil {
		return fmt.Errorf("updating lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading update result: %w", err)
	}
	if n == 0 {
		// Distinguish a missing lease from a lost race.
		var exists int
		err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM leases WHERE id = ?`, l.ID).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking lease existence: %w", err)
		}
		if exists == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}

	if err := deleteChildren(ctx, tx, l.ID); err != nil {
		return err
	}
	if err := insertChildren(ctx, tx, l); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing lease update: %w", err)
	}
	l.Version++
	return nil
}

// GetLease loads the full aggregate, excluding soft-deleted leases.
func (s *SQLiteStore) GetLease(ctx context.Context, id string) (*lease.Lease, error) {
	l, err := s.loadLease(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.IsDeleted {
		return nil, ErrNotFound
	}
	return l, nil
}

// GetLeaseIncludingDeleted loads the aggregate regardless of soft-delete.
func (s *SQLiteStore) GetLeaseIncludingDeleted(ctx context.Context, id string) (*lease.Lease, error) {
	return s.loadLease(ctx, id)
}

// ListLeases returns summaries newest-updated first.
func (s *SQLiteStore) ListLeases(ctx context.Context, f LeaseFilter) ([]*LeaseSummary, error) {
	query := `
		SELECT id, landlord_id, tenant_id, property_id, status, rent_amount,
		       start_date, end_date, updated_at
		FROM leases
		WHERE is_deleted = ?`
	args := []any{boolInt(f.OnlyDeleted)}

	if f.UserID != "" {
		query += ` AND (landlord_id = ? OR tenant_id = ?)`
		args = append(args, f.UserID, f.UserID)
	}
	if f.PropertyID != "" {
		query += ` AND property_id = ?`
		args = append(args, f.PropertyID)
	}
	if f.Status != nil {
		query += ` AND status = ?`
		args = append(args, string(*f.Status))
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	query += ` ORDER BY updated_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing leases: %w", err)
	}
	defer rows.Close()

	var out []*LeaseSummary
	for rows.Next() {
		var sm LeaseSummary
		var status string
		if err := rows.Scan(&sm.ID, &sm.LandlordID, &sm.TenantID, &sm.PropertyID,
			&status, &sm.RentAmount, &sm.StartDate, &sm.EndDate, &sm.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scanning lease summary: %w", err)
		}
		sm.Status = lease.Status(status)
		out = append(out, &sm)
	}
	return out, rows.Err()
}

// HasOpenLease reports whether a non-terminal, non-deleted lease exists for
// the (property, tenant) pair. Guards duplicate applications.
func (s *SQLiteStore) HasOpenLease(ctx context.Context, propertyID, tenantID string) (bool, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM leases
		WHERE property_id = ? AND tenant_id = ? AND is_deleted = 0
		  AND status NOT IN ('rejected', 'expired', 'terminated', 'cancelled')`,
		propertyID, tenantID).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("checking open lease: %w", err)
	}
	return count > 0, nil
}

// CountByStatus returns lease counts grouped by status for the filter scope.
func (s *SQLiteStore) CountByStatus(ctx context.Context, f LeaseFilter) (map[lease.Status]int, error) {
	query := `SELECT status, COUNT(*) FROM leases WHERE is_deleted = 0`
	args := []any{}
	if f.UserID != "" {
		query += ` AND (landlord_id = ? OR tenant_id = ?)`
		args = append(args, f.UserID, f.UserID)
	}
	if f.PropertyID != "" {
		query += ` AND property_id = ?`
		args = append(args, f.PropertyID)
	}
	query += ` GROUP BY status`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("counting leases: %w", err)
	}
	defer rows.Close()

	counts := make(map[lease.Status]int)
	for rows.Next() {
		var status string
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning status count: %w", err)
		}
		counts[lease.Status(status)] = n
	}
	return counts, rows.Err()
}

// DeleteLeasePermanently removes the lease and all child rows.
func (s *SQLiteStore) DeleteLeasePermanently(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := deleteChildren(ctx, tx, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM leases WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading delete result: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing lease delete: %w", err)
	}
	s.logger.Info("lease permanently deleted", "lease_id", id)
	return nil
}

const leaseColumns = `
	id, landlord_id, tenant_id, property_id, status,
	start_date, end_date, rent_amount, rent_frequency, security_deposit,
	utilities_included, utilities_tenant_paid, late_fee, grace_period_days,
	terms_extra, custom_clauses,
	screening_status, credit_score, income_verified, references_verified,
	submitted_at, reviewed_at, reviewed_by, review_notes,
	renewal_status, renewal_offered_at, renewal_respond_by,
	renewal_new_rent, renewal_new_end_date, renewal_notice_id,
	deposit_status,
	is_locked, locked_at, is_deleted, deleted_at, created_at, updated_at, version`

func insertLeaseRow(ctx context.Context, tx *sql.Tx, l *lease.Lease) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO leases (`+leaseColumns+`) VALUES (
		?, ?, ?, ?, ?,
		?, ?, ?, ?, ?,
		?, ?, ?, ?,
		?, ?,
		?, ?, ?, ?,
		?, ?, ?, ?,
		?, ?, ?,
		?, ?, ?,
		?,
		?, ?, ?, ?, ?, ?, ?)`,
		leaseRowValues(l)...)
	return err
}

const leaseUpdateSQL = `UPDATE leases SET
	status = ?,
	start_date = ?, end_date = ?, rent_amount = ?, rent_frequency = ?,
	security_deposit = ?, utilities_included = ?, utilities_tenant_paid = ?,
	late_fee = ?, grace_period_days = ?, terms_extra = ?, custom_clauses = ?,
	screening_status = ?, credit_score = ?, income_verified = ?,
	references_verified = ?, submitted_at = ?, reviewed_at = ?,
	reviewed_by = ?, review_notes = ?,
	renewal_status = ?, renewal_offered_at = ?, renewal_respond_by = ?,
	renewal_new_rent = ?, renewal_new_end_date = ?, renewal_notice_id = ?,
	deposit_status = ?,
	is_locked = ?, locked_at = ?, is_deleted = ?, deleted_at = ?,
	updated_at = ?, version = version + 1
	WHERE id = ? AND version = ?`

func leaseUpdateArgs(l *lease.Lease) []any {
	return []any{
		string(l.Status),
		formatTimePtr(l.Terms.StartDate), formatTimePtr(l.Terms.EndDate),
		l.Terms.RentAmount, string(l.Terms.RentFrequency),
		l.Terms.SecurityDeposit, jsonString(l.Terms.UtilitiesIncluded),
		jsonString(l.Terms.UtilitiesTenantPaid),
		l.Terms.LateFee, l.Terms.GracePeriodDays,
		jsonString(l.Terms.Extra), jsonString(l.Terms.CustomClauses),
		string(l.Application.ScreeningStatus), l.Application.CreditScore,
		boolInt(l.Application.IncomeVerified), boolInt(l.Application.ReferencesVerified),
		formatTimePtr(l.Application.SubmittedAt), formatTimePtr(l.Application.ReviewedAt),
		l.Application.ReviewedBy, l.Application.Notes,
		string(l.Renewal.Status), formatTimePtr(l.Renewal.OfferedAt),
		formatTimePtr(l.Renewal.RespondBy),
		l.Renewal.NewRentAmount, formatTimePtr(l.Renewal.NewEndDate), l.Renewal.NoticeID,
		string(l.DepositStatus),
		boolInt(l.IsLocked), formatTimePtr(l.LockedAt),
		boolInt(l.IsDeleted), formatTimePtr(l.DeletedAt),
		formatTime(l.UpdatedAt),
		l.ID, l.Version,
	}
}

func leaseRowValues(l *lease.Lease) []any {
	return []any{
		l.ID, l.LandlordID, l.TenantID, l.PropertyID, string(l.Status),
		formatTimePtr(l.Terms.StartDate), formatTimePtr(l.Terms.EndDate),
		l.Terms.RentAmount, string(l.Terms.RentFrequency), l.Terms.SecurityDeposit,
		jsonString(l.Terms.UtilitiesIncluded), jsonString(l.Terms.UtilitiesTenantPaid),
		l.Terms.LateFee, l.Terms.GracePeriodDays,
		jsonString(l.Terms.Extra), jsonString(l.Terms.CustomClauses),
		string(l.Application.ScreeningStatus), l.Application.CreditScore,
		boolInt(l.Application.IncomeVerified), boolInt(l.Application.ReferencesVerified),
		formatTimePtr(l.Application.SubmittedAt), formatTimePtr(l.Application.ReviewedAt),
		l.Application.ReviewedBy, l.Application.Notes,
		string(l.Renewal.Status), formatTimePtr(l.Renewal.OfferedAt),
		formatTimePtr(l.Renewal.RespondBy),
		l.Renewal.NewRentAmount, formatTimePtr(l.Renewal.NewEndDate), l.Renewal.NoticeID,
		string(l.DepositStatus),
		boolInt(l.IsLocked), formatTimePtr(l.LockedAt),
		boolInt(l.IsDeleted), formatTimePtr(l.DeletedAt),
		formatTime(l.CreatedAt), formatTime(l.UpdatedAt), l.Version,
	}
}

var childTables = []string{
	"lease_status_history",
	"lease_signatures",
	"lease_messages",
	"lease_requested_changes",
	"lease_inspections",
	"lease_notices",
	"lease_deposit_transactions",
	"lease_addenda",
}

func deleteChildren(ctx context.Context, tx *sql.Tx, leaseID string) error {
	for _, table := range childTables {
		if _, err := tx.ExecContext(ctx, `DELETE FROM `+table+` WHERE lease_id = ?`, leaseID); err != nil {
			return fmt.Errorf("clearing %s: %w", table, err)
		}
	}
	return nil
}

func insertChildren(ctx context.Context, tx *sql.Tx, l *lease.Lease) error {
	for i, h := range l.StatusHistory {
		_, err := tx.ExecContext(ctx, `INSERT INTO lease_status_history
			(lease_id, seq, status, changed_by, reason, changed_at, metadata_json)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			l.ID, i, string(h.Status), h.ChangedBy, h.Reason, formatTime(h.ChangedAt),
			jsonStringOrNull(h.Metadata))
		if err != nil {
			return fmt.Errorf("inserting status history: %w", err)
		}
	}

	for party, sig := range map[string]*lease.Signature{
		"landlord": l.Signatures.Landlord,
		"tenant":   l.Signatures.Tenant,
	} {
		if sig == nil {
			continue
		}
		_, err := tx.ExecContext(ctx, `INSERT INTO lease_signatures
			(lease_id, party, signed_at, mode, data, ip_address, user_agent)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			l.ID, party, formatTime(sig.SignedAt), string(sig.Mode), sig.Data,
			sig.IPAddress, sig.UserAgent)
		if err != nil {
			return fmt.Errorf("inserting signature: %w", err)
		}
	}

	for i, m := range l.Messages {
		_, err := tx.ExecContext(ctx, `INSERT INTO lease_messages
			(id, lease_id, seq, from_user, text, attachments_json, sent_at, read_by_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			m.ID, l.ID, i, m.From, m.Text, jsonString(m.Attachments),
			formatTime(m.SentAt), jsonString(m.ReadBy))
		if err != nil {
			return fmt.Errorf("inserting message: %w", err)
		}
	}

	for i, cr := range l.RequestedChanges {
		_, err := tx.ExecContext(ctx, `INSERT INTO lease_requested_changes
			(id, lease_id, seq, requested_by, changes_json, requested_at, resolved, resolved_at, resolution_notes)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			cr.ID, l.ID, i, cr.RequestedBy, jsonString(cr.Changes),
			formatTime(cr.RequestedAt), boolInt(cr.Resolved),
			formatTimePtr(cr.ResolvedAt), cr.ResolutionNotes)
		if err != nil {
			return fmt.Errorf("inserting change request: %w", err)
		}
	}

	insertInspection := func(kind string, seq int, in *lease.Inspection) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO lease_inspections
			(lease_id, kind, seq, scheduled_at, conducted_at, conducted_by, report,
			 photos_json, signed_by_landlord, signed_by_tenant, damages_json)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			l.ID, kind, seq, formatTimePtr(in.ScheduledAt), formatTimePtr(in.ConductedAt),
			in.ConductedBy, in.Report, jsonString(in.Photos),
			boolInt(in.SignedByLandlord), boolInt(in.SignedByTenant),
			jsonString(in.Damages))
		if err != nil {
			return fmt.Errorf("inserting inspection: %w", err)
		}
		return nil
	}
	if l.Inspections.MoveIn != nil {
		if err := insertInspection("move_in", 0, l.Inspections.MoveIn); err != nil {
			return err
		}
	}
	if l.Inspections.MoveOut != nil {
		if err := insertInspection("move_out", 0, l.Inspections.MoveOut); err != nil {
			return err
		}
	}
	for i := range l.Inspections.Periodic {
		if err := insertInspection("periodic", i, &l.Inspections.Periodic[i]); err != nil {
			return err
		}
	}

	for i, n := range l.Notices {
		_, err := tx.ExecContext(ctx, `INSERT INTO lease_notices
			(id, lease_id, seq, type, given_by, given_at, effective_date, reason, acknowledged)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			n.ID, l.ID, i, string(n.Type), n.GivenBy, formatTime(n.GivenAt),
			formatTimePtr(n.EffectiveDate), n.Reason, boolInt(n.Acknowledged))
		if err != nil {
			return fmt.Errorf("inserting notice: %w", err)
		}
	}

	for i, dt := range l.DepositTransactions {
		_, err := tx.ExecContext(ctx, `INSERT INTO lease_deposit_transactions
			(id, lease_id, seq, amount, type, date, description, proof)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			dt.ID, l.ID, i, dt.Amount, string(dt.Type), formatTime(dt.Date),
			dt.Description, dt.Proof)
		if err != nil {
			return fmt.Errorf("inserting deposit transaction: %w", err)
		}
	}

	for i, a := range l.Addenda {
		_, err := tx.ExecContext(ctx, `INSERT INTO lease_addenda
			(id, lease_id, seq, title, body, created_by, created_at)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			a.ID, l.ID, i, a.Title, a.Body, a.CreatedBy, formatTime(a.CreatedAt))
		if err != nil {
			return fmt.Errorf("inserting addendum: %w", err)
		}
	}

	return nil
}

func jsonString(v any) string {
	b, err := json.Marshal(v)
	if err != nil || string(b) == "null" {
		switch v.(type) {
		case map[string]string:
			return "{}"
		default:
			return "[]"
		}
	}
	return string(b)
}

func jsonStringOrNull(v map[string]string) *string {
	if v == nil {
		return nil
	}
	s := jsonString(v)
	return &s
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "PRIMARY KEY constraint failed")
}
