// ABOUTME: Audit log entity and store methods for administrative lease actions
// ABOUTME: Records who soft-deleted, restored, or permanently deleted which lease

package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// AuditAction represents an auditable administrative action.
type AuditAction string

const (
	AuditSoftDeleteLease      AuditAction = "soft_delete_lease"
	AuditRestoreLease         AuditAction = "restore_lease"
	AuditPermanentDeleteLease AuditAction = "permanent_delete_lease"
)

// AuditEntry represents a single audit log entry.
type AuditEntry struct {
	ID         string         // UUID v4
	ActorID    string         // who performed the action
	Action     AuditAction    // what action was performed
	TargetType string         // "lease"
	TargetID   string         // ID of the affected resource
	Timestamp  time.Time      // when it happened
	Detail     map[string]any // additional context
}

// AuditFilter specifies filtering options for listing audit entries.
type AuditFilter struct {
	Since    *time.Time   // entries after this time
	ActorID  *string      // filter by actor
	Action   *AuditAction // filter by action type
	TargetID *string      // filter by target ID
	Limit    int          // max results (default 100, max 1000)
}

// AppendAuditLog appends a new entry to the audit log.
// Generates ID and Timestamp if not set.
func (s *SQLiteStore) AppendAuditLog(ctx context.Context, e *AuditEntry) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}

	var detail *string
	if e.Detail != nil {
		b, err := json.Marshal(e.Detail)
		if err != nil {
			return fmt.Errorf("marshaling audit detail: %w", err)
		}
		d := string(b)
		detail = &d
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO audit_log (audit_id, actor_id, action, target_type, target_id, ts, detail_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.ActorID, string(e.Action), e.TargetType, e.TargetID,
		formatTime(e.Timestamp), detail)
	if err != nil {
		return fmt.Errorf("appending audit log: %w", err)
	}
	return nil
}

// ListAuditLog returns audit entries newest first, honoring the filter.
func (s *SQLiteStore) ListAuditLog(ctx context.Context, f AuditFilter) ([]*AuditEntry, error) {
	query := `SELECT audit_id, actor_id, action, target_type, target_id, ts, detail_json
		FROM audit_log WHERE 1=1`
	args := []any{}

	if f.Since != nil {
		query += ` AND ts > ?`
		args = append(args, formatTime(*f.Since))
	}
	if f.ActorID != nil {
		query += ` AND actor_id = ?`
		args = append(args, *f.ActorID)
	}
	if f.Action != nil {
		query += ` AND action = ?`
		args = append(args, string(*f.Action))
	}
	if f.TargetID != nil {
		query += ` AND target_id = ?`
		args = append(args, *f.TargetID)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 100
	}
	if limit > 1000 {
		limit = 1000
	}
	query += ` ORDER BY ts DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing audit log: %w", err)
	}
	defer rows.Close()

	var entries []*AuditEntry
	for rows.Next() {
		e := &AuditEntry{}
		var action, ts string
		var detail *string
		if err := rows.Scan(&e.ID, &e.ActorID, &action, &e.TargetType, &e.TargetID, &ts, &detail); err != nil {
			return nil, fmt.Errorf("scanning audit entry: %w", err)
		}
		e.Action = AuditAction(action)
		if e.Timestamp, err = parseTime(ts); err != nil {
			return nil, fmt.Errorf("parsing audit timestamp: %w", err)
		}
		if detail != nil {
			if err := json.Unmarshal([]byte(*detail), &e.Detail); err != nil {
				return nil, fmt.Errorf("decoding audit detail: %w", err)
			}
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
